package database

// EnsureSchema creates all necessary database tables
func EnsureSchema() error {
	_, err := DB.Exec(`
-- Minute tier: written by heartbeat ingestion, one row per
-- (client, agent, instance, minute). Never deleted by ingestion;
-- the compactor owns retention.
CREATE TABLE IF NOT EXISTS heartbeat_minutely (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  client_id TEXT NOT NULL,
  agent_id TEXT NOT NULL,
  instance_id TEXT NOT NULL,
  bucket_minute TEXT NOT NULL,
  received INTEGER NOT NULL DEFAULT 1,
  expected INTEGER NOT NULL DEFAULT 1,
  last_seen TEXT NOT NULL,
  UNIQUE(client_id, agent_id, instance_id, bucket_minute)
);
CREATE INDEX IF NOT EXISTS idx_hb_minutely_agent ON heartbeat_minutely(client_id, agent_id);
CREATE INDEX IF NOT EXISTS idx_hb_minutely_bucket ON heartbeat_minutely(bucket_minute);

-- Hour tier: written only by the compactor, instance granularity dropped.
CREATE TABLE IF NOT EXISTS heartbeat_hourly (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  client_id TEXT NOT NULL,
  agent_id TEXT NOT NULL,
  bucket_hour TEXT NOT NULL,
  received INTEGER NOT NULL DEFAULT 0,
  expected INTEGER NOT NULL DEFAULT 0,
  last_seen TEXT,
  UNIQUE(client_id, agent_id, bucket_hour)
);
CREATE INDEX IF NOT EXISTS idx_hb_hourly_agent ON heartbeat_hourly(client_id, agent_id);
CREATE INDEX IF NOT EXISTS idx_hb_hourly_bucket ON heartbeat_hourly(bucket_hour);

-- Day tier: written only by the compactor. The unit here is hours
-- covered vs hours expected, not heartbeat counts.
CREATE TABLE IF NOT EXISTS heartbeat_daily (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  client_id TEXT NOT NULL,
  agent_id TEXT NOT NULL,
  bucket_day TEXT NOT NULL,
  hours_received INTEGER NOT NULL DEFAULT 0,
  hours_expected INTEGER NOT NULL DEFAULT 0,
  UNIQUE(client_id, agent_id, bucket_day)
);
CREATE INDEX IF NOT EXISTS idx_hb_daily_agent ON heartbeat_daily(client_id, agent_id);
CREATE INDEX IF NOT EXISTS idx_hb_daily_bucket ON heartbeat_daily(bucket_day);

-- Agent registry: ownership and organization membership.
CREATE TABLE IF NOT EXISTS agents (
  agent_id TEXT PRIMARY KEY,
  client_id TEXT NOT NULL,
  org_id TEXT NOT NULL DEFAULT '',
  name TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_agents_client ON agents(client_id);
CREATE INDEX IF NOT EXISTS idx_agents_org ON agents(org_id);

-- API keys: caller identity plus granted permissions.
CREATE TABLE IF NOT EXISTS api_keys (
  key_id TEXT PRIMARY KEY,
  client_id TEXT NOT NULL,
  secret_hash TEXT NOT NULL,
  can_read INTEGER NOT NULL DEFAULT 1,
  can_write INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_api_keys_client ON api_keys(client_id);
`)
	return err
}

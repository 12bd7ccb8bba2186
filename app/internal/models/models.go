package models

import "time"

// HeartbeatAck echoes an accepted heartbeat back to the caller.
type HeartbeatAck struct {
	ClientID   string    `json:"client_id"`
	AgentID    string    `json:"agent_id"`
	InstanceID string    `json:"instance_id"`
	Status     string    `json:"status"`
	LastSeen   time.Time `json:"last_seen"`
}

// AgentUptime is one entry in an uptime summary.
type AgentUptime struct {
	AgentID   string  `json:"agent_id"`
	UptimePct float64 `json:"uptime_pct"`
	LastSeen  string  `json:"last_seen,omitempty"`
}

// SeriesPoint is one bucket in an uptime timeseries.
type SeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	UptimePct float64   `json:"uptime_pct"`
}

// DataEnvelope wraps list responses.
type DataEnvelope struct {
	Data any `json:"data"`
}

package buckets

import (
	"database/sql"
	"time"

	"pulse/app/internal/database"
)

// Incrementer commits one heartbeat into the minute tier. The expected
// count is overwritten, not summed: it reflects only the most recently
// declared reporting rate for the instance.
type Incrementer interface {
	Increment(clientID, agentID, instanceID string, bucketMinute time.Time, expected int, lastSeen time.Time) error
}

// AtomicStore performs the increment as a single upsert. Create-if-absent
// and increment-if-present happen in one statement, so concurrent writers
// on the same identity cannot lose updates.
type AtomicStore struct{}

func (AtomicStore) Increment(clientID, agentID, instanceID string, bucketMinute time.Time, expected int, lastSeen time.Time) error {
	_, err := database.DB.Exec(`
		INSERT INTO heartbeat_minutely (client_id, agent_id, instance_id, bucket_minute, received, expected, last_seen)
		VALUES (?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(client_id, agent_id, instance_id, bucket_minute) DO UPDATE SET
			received = received + 1,
			expected = excluded.expected,
			last_seen = excluded.last_seen`,
		clientID, agentID, instanceID,
		bucketMinute.UTC().Format(time.RFC3339), expected, lastSeen.UTC().Format(time.RFC3339))
	return database.Classify(err)
}

// FallbackStore reads the current row and writes it back. Two concurrent
// writers on the same identity can both read the same count and one
// increment is lost. Accepted trade-off: the counter is a sampled
// liveness signal, not a billing-grade tally.
type FallbackStore struct{}

func (FallbackStore) Increment(clientID, agentID, instanceID string, bucketMinute time.Time, expected int, lastSeen time.Time) error {
	minute := bucketMinute.UTC().Format(time.RFC3339)
	seen := lastSeen.UTC().Format(time.RFC3339)

	var received int
	err := database.DB.QueryRow(`
		SELECT received FROM heartbeat_minutely
		WHERE client_id = ? AND agent_id = ? AND instance_id = ? AND bucket_minute = ?`,
		clientID, agentID, instanceID, minute).Scan(&received)
	if err == sql.ErrNoRows {
		_, err = database.DB.Exec(`
			INSERT INTO heartbeat_minutely (client_id, agent_id, instance_id, bucket_minute, received, expected, last_seen)
			VALUES (?, ?, ?, ?, 1, ?, ?)`,
			clientID, agentID, instanceID, minute, expected, seen)
		return database.Classify(err)
	}
	if err != nil {
		return database.Classify(err)
	}

	_, err = database.DB.Exec(`
		UPDATE heartbeat_minutely SET received = ?, expected = ?, last_seen = ?
		WHERE client_id = ? AND agent_id = ? AND instance_id = ? AND bucket_minute = ?`,
		received+1, expected, seen, clientID, agentID, instanceID, minute)
	return database.Classify(err)
}

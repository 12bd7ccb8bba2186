// Package heartbeat validates incoming liveness reports and commits
// them into the minute bucket tier.
package heartbeat

import (
	"errors"
	"log"
	"time"

	"pulse/app/internal/buckets"
	"pulse/app/internal/database"
	"pulse/app/internal/directory"
	"pulse/app/internal/httperr"
	"pulse/app/internal/models"
)

// Request is the heartbeat payload sent by an agent process instance.
type Request struct {
	AgentID           string         `json:"agent_id"`
	InstanceID        string         `json:"instance_id"`
	Status            string         `json:"status,omitempty"`
	Timestamp         *time.Time     `json:"timestamp,omitempty"`
	ProcessStartTS    *time.Time     `json:"process_start_ts,omitempty"`
	UptimeMS          *int64         `json:"uptime_ms,omitempty"`
	ExpectedIntervalS *int           `json:"expected_interval_s,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

var validStatus = map[string]bool{
	"up":       true,
	"down":     true,
	"starting": true,
	"stopping": true,
	"unknown":  true,
}

// Ingestor commits heartbeats through the bucket store adapter. The
// atomic path is preferred; the fallback runs when it fails.
type Ingestor struct {
	Atomic   buckets.Incrementer
	Fallback buckets.Incrementer
	Now      func() time.Time
}

// NewIngestor returns an Ingestor wired to the sqlite-backed stores.
func NewIngestor() *Ingestor {
	return &Ingestor{
		Atomic:   buckets.AtomicStore{},
		Fallback: buckets.FallbackStore{},
		Now:      time.Now,
	}
}

// Ingest processes one heartbeat for the resolved client. Validation and
// ownership failures abort before any persistence attempt; persistence
// failures are logged and never fail the request.
//
// Not idempotent: replaying an identical heartbeat increments again. The
// system counts received heartbeats, not a deduplicated set.
func (in *Ingestor) Ingest(clientID, headerClientID string, req *Request) (*models.HeartbeatAck, error) {
	if req.AgentID == "" {
		return nil, httperr.Validation("agent_id is required")
	}
	if req.InstanceID == "" {
		return nil, httperr.Validation("instance_id is required")
	}
	status := req.Status
	if status == "" {
		status = "up"
	}
	if !validStatus[status] {
		return nil, httperr.Validation("status must be one of up, down, starting, stopping, unknown")
	}
	if headerClientID != "" && headerClientID != clientID {
		return nil, httperr.Validation("client id header does not match credentials")
	}

	owner, err := directory.OwnerOf(req.AgentID)
	if err != nil {
		return nil, httperr.Store(err)
	}
	if owner == "" || owner != clientID {
		// Deliberately the same answer for "unknown agent" and "owned by
		// someone else".
		return nil, httperr.NotFound("agent not found")
	}

	now := in.Now().UTC()
	minute := buckets.Minute(now)
	interval := buckets.DefaultIntervalSeconds
	if req.ExpectedIntervalS != nil {
		interval = *req.ExpectedIntervalS
	}
	expected := buckets.ExpectedPerMinute(interval)

	in.commit(clientID, req.AgentID, req.InstanceID, minute, expected, now)

	return &models.HeartbeatAck{
		ClientID:   clientID,
		AgentID:    req.AgentID,
		InstanceID: req.InstanceID,
		Status:     status,
		LastSeen:   now,
	}, nil
}

// commit tries the atomic increment, falling back to the non-atomic
// sequence. A missing tier table on either path means the schema is not
// provisioned yet: skip persistence silently.
func (in *Ingestor) commit(clientID, agentID, instanceID string, minute time.Time, expected int, lastSeen time.Time) {
	err := in.Atomic.Increment(clientID, agentID, instanceID, minute, expected, lastSeen)
	if err == nil {
		return
	}
	if errors.Is(err, database.ErrSchemaNotProvisioned) {
		log.Printf("heartbeat: minute tier not provisioned, skipping persistence")
		return
	}

	err = in.Fallback.Increment(clientID, agentID, instanceID, minute, expected, lastSeen)
	if err == nil {
		return
	}
	if errors.Is(err, database.ErrSchemaNotProvisioned) {
		log.Printf("heartbeat: minute tier not provisioned, skipping persistence")
		return
	}
	log.Printf("heartbeat: fallback increment failed for agent %s: %v", agentID, err)
}

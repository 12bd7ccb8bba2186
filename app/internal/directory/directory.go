// Package directory is the agent registry: which client owns an agent
// and which agents belong to an organization. The liveness core only
// consumes these two lookups; there is no CRUD API surface.
package directory

import (
	"database/sql"
	"time"

	"pulse/app/internal/database"
)

// RegisterAgent records an agent under a client (and optionally an
// organization). Used by seeding and by deployment tooling.
func RegisterAgent(agentID, clientID, orgID, name string) error {
	_, err := database.DB.Exec(`
		INSERT INTO agents (agent_id, client_id, org_id, name, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(agent_id) DO UPDATE SET
			client_id = excluded.client_id,
			org_id = excluded.org_id,
			name = excluded.name`,
		agentID, clientID, orgID, name, time.Now().UTC().Format(time.RFC3339))
	return database.Classify(err)
}

// OwnerOf returns the client owning agentID, or "" when the agent is
// unknown.
func OwnerOf(agentID string) (string, error) {
	var clientID string
	err := database.DB.QueryRow(`SELECT client_id FROM agents WHERE agent_id = ?`, agentID).Scan(&clientID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", database.Classify(err)
	}
	return clientID, nil
}

// OrgAgents resolves an organization to its agent IDs. An organization
// with no agents resolves to an empty list, not an error.
func OrgAgents(orgID string) ([]string, error) {
	rows, err := database.DB.Query(`SELECT agent_id FROM agents WHERE org_id = ? ORDER BY agent_id ASC`, orgID)
	if err != nil {
		return nil, database.Classify(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Package rollup answers uptime questions from the pre-aggregated
// bucket tiers. All reads are pure; a tier whose table is missing
// degrades to an empty answer.
package rollup

import (
	"errors"
	"time"

	"pulse/app/internal/buckets"
	"pulse/app/internal/database"
	"pulse/app/internal/directory"
	"pulse/app/internal/httperr"
	"pulse/app/internal/models"
)

// SummaryFilter narrows a summary to one agent or one organization's
// agents. An explicit agent takes precedence over the organization.
type SummaryFilter struct {
	AgentID string
	OrgID   string
}

// Summary returns per-agent uptime percentages over the window. Windows
// up to 24 hours read the hour tier; longer windows read the day tier
// over a day-aligned range.
func Summary(clientID string, windowHours int, filter SummaryFilter) ([]models.AgentUptime, error) {
	var agentIDs []string
	switch {
	case filter.AgentID != "":
		agentIDs = []string{filter.AgentID}
	case filter.OrgID != "":
		ids, err := directory.OrgAgents(filter.OrgID)
		if err != nil {
			return nil, httperr.Store(err)
		}
		if len(ids) == 0 {
			// Nothing to report; do not touch the bucket tiers.
			return []models.AgentUptime{}, nil
		}
		agentIDs = ids
	}

	now := time.Now().UTC()
	var rows []buckets.SummaryRow
	var err error
	if windowHours <= 24 {
		since := now.Add(-time.Duration(windowHours) * time.Hour)
		rows, err = buckets.SummaryHourly(clientID, agentIDs, since, now)
	} else {
		days := (windowHours + 23) / 24
		since := dayStart(now).AddDate(0, 0, -(days - 1))
		rows, err = buckets.SummaryDaily(clientID, agentIDs, since, now)
	}
	if errors.Is(err, database.ErrSchemaNotProvisioned) {
		return []models.AgentUptime{}, nil
	}
	if err != nil {
		return nil, httperr.Store(err)
	}

	type acc struct {
		received int
		expected int
		lastSeen string
	}
	totals := map[string]*acc{}
	var order []string
	for _, r := range rows {
		a := totals[r.AgentID]
		if a == nil {
			a = &acc{}
			totals[r.AgentID] = a
			order = append(order, r.AgentID)
		}
		a.received += r.Received
		a.expected += r.Expected
		if r.LastSeen > a.lastSeen {
			a.lastSeen = r.LastSeen
		}
	}

	out := make([]models.AgentUptime, 0, len(order))
	for _, id := range order {
		a := totals[id]
		out = append(out, models.AgentUptime{
			AgentID:   id,
			UptimePct: uptimePct(a.received, a.expected),
			LastSeen:  a.lastSeen,
		})
	}
	return out, nil
}

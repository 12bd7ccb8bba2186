package buckets

import (
	"strings"
	"time"

	"pulse/app/internal/database"
)

// SummaryRow is one pre-aggregated bucket scanned for an uptime summary.
// For the day tier, Received and Expected carry hours, not heartbeat
// counts.
type SummaryRow struct {
	AgentID  string
	Received int
	Expected int
	LastSeen string
}

// SeriesRow is one bucket scanned for a timeseries.
type SeriesRow struct {
	Bucket   time.Time
	Received int
	Expected int
}

// SummaryHourly scans the hour tier for a client within [since, until],
// optionally restricted to a set of agents, ordered by bucket ascending.
func SummaryHourly(clientID string, agentIDs []string, since, until time.Time) ([]SummaryRow, error) {
	query := `
		SELECT agent_id, received, expected, COALESCE(last_seen, '')
		FROM heartbeat_hourly
		WHERE client_id = ? AND bucket_hour >= ? AND bucket_hour <= ?`
	args := []any{clientID, since.UTC().Format(time.RFC3339), until.UTC().Format(time.RFC3339)}
	query, args = restrictAgents(query, args, agentIDs)
	query += ` ORDER BY bucket_hour ASC, id ASC`

	rows, err := database.DB.Query(query, args...)
	if err != nil {
		return nil, database.Classify(err)
	}
	defer rows.Close()

	var out []SummaryRow
	for rows.Next() {
		var r SummaryRow
		if err := rows.Scan(&r.AgentID, &r.Received, &r.Expected, &r.LastSeen); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SummaryDaily scans the day tier. Day rows carry no last_seen.
func SummaryDaily(clientID string, agentIDs []string, since, until time.Time) ([]SummaryRow, error) {
	query := `
		SELECT agent_id, hours_received, hours_expected
		FROM heartbeat_daily
		WHERE client_id = ? AND bucket_day >= ? AND bucket_day <= ?`
	args := []any{clientID, since.UTC().Format(time.RFC3339), until.UTC().Format(time.RFC3339)}
	query, args = restrictAgents(query, args, agentIDs)
	query += ` ORDER BY bucket_day ASC, id ASC`

	rows, err := database.DB.Query(query, args...)
	if err != nil {
		return nil, database.Classify(err)
	}
	defer rows.Close()

	var out []SummaryRow
	for rows.Next() {
		var r SummaryRow
		if err := rows.Scan(&r.AgentID, &r.Received, &r.Expected); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Series scans one tier for a single agent, ordered by bucket ascending.
// tier must be "minute", "hour" or "day".
func Series(tier, clientID, agentID string, since, until time.Time) ([]SeriesRow, error) {
	var query string
	switch tier {
	case "minute":
		query = `
			SELECT bucket_minute, received, expected FROM heartbeat_minutely
			WHERE client_id = ? AND agent_id = ? AND bucket_minute >= ? AND bucket_minute <= ?
			ORDER BY bucket_minute ASC, id ASC`
	case "hour":
		query = `
			SELECT bucket_hour, received, expected FROM heartbeat_hourly
			WHERE client_id = ? AND agent_id = ? AND bucket_hour >= ? AND bucket_hour <= ?
			ORDER BY bucket_hour ASC, id ASC`
	case "day":
		query = `
			SELECT bucket_day, hours_received, hours_expected FROM heartbeat_daily
			WHERE client_id = ? AND agent_id = ? AND bucket_day >= ? AND bucket_day <= ?
			ORDER BY bucket_day ASC, id ASC`
	}

	rows, err := database.DB.Query(query, clientID, agentID,
		since.UTC().Format(time.RFC3339), until.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, database.Classify(err)
	}
	defer rows.Close()

	var out []SeriesRow
	for rows.Next() {
		var bucket string
		var r SeriesRow
		if err := rows.Scan(&bucket, &r.Received, &r.Expected); err != nil {
			return nil, err
		}
		ts, err := time.Parse(time.RFC3339, bucket)
		if err != nil {
			continue
		}
		r.Bucket = ts
		out = append(out, r)
	}
	return out, rows.Err()
}

func restrictAgents(query string, args []any, agentIDs []string) (string, []any) {
	if len(agentIDs) == 0 {
		return query, args
	}
	query += ` AND agent_id IN (?` + strings.Repeat(",?", len(agentIDs)-1) + `)`
	for _, id := range agentIDs {
		args = append(args, id)
	}
	return query, args
}

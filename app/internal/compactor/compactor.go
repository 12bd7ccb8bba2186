// Package compactor is the periodic job that promotes minute buckets
// into the hour and day tiers. The read/write core never calls it; it
// is co-hosted in the binary behind a config flag but owns its tables
// independently. Passes are idempotent overwrite-upserts, so reruns over
// the same range are safe.
package compactor

import (
	"log"
	"time"

	"pulse/app/internal/database"
)

// Compactor aggregates closed buckets and prunes expired ones.
type Compactor struct {
	MinuteRetention time.Duration
	HourRetention   time.Duration
	DayRetention    time.Duration
}

// New returns a Compactor with the default retention windows: 24 hours
// of minute rows, 30 days of hourly rows, 365 days of daily rows.
func New() *Compactor {
	return &Compactor{
		MinuteRetention: 24 * time.Hour,
		HourRetention:   30 * 24 * time.Hour,
		DayRetention:    365 * 24 * time.Hour,
	}
}

// RunHourly promotes minute rows from closed hours into the hour tier,
// dropping instance granularity, then prunes minute rows past retention.
func (c *Compactor) RunHourly(now time.Time) error {
	hourFloor := now.UTC().Truncate(time.Hour).Format(time.RFC3339)

	rows, err := database.DB.Query(`
		SELECT client_id, agent_id,
		       substr(bucket_minute, 1, 13) || ':00:00Z' AS bucket_hour,
		       SUM(received), SUM(expected), MAX(last_seen)
		FROM heartbeat_minutely
		WHERE bucket_minute < ?
		GROUP BY client_id, agent_id, bucket_hour`,
		hourFloor)
	if err != nil {
		return database.Classify(err)
	}
	defer rows.Close()

	type hourRow struct {
		clientID, agentID, bucket string
		received, expected        int
		lastSeen                  string
	}
	var agg []hourRow
	for rows.Next() {
		var r hourRow
		if err := rows.Scan(&r.clientID, &r.agentID, &r.bucket, &r.received, &r.expected, &r.lastSeen); err != nil {
			return err
		}
		agg = append(agg, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, r := range agg {
		_, err := database.DB.Exec(`
			INSERT INTO heartbeat_hourly (client_id, agent_id, bucket_hour, received, expected, last_seen)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(client_id, agent_id, bucket_hour) DO UPDATE SET
				received = excluded.received,
				expected = excluded.expected,
				last_seen = excluded.last_seen`,
			r.clientID, r.agentID, r.bucket, r.received, r.expected, r.lastSeen)
		if err != nil {
			return database.Classify(err)
		}
	}

	// The cutoff is hour-aligned so a prune never removes part of a
	// closed hour. A partial delete would make the next pass re-derive
	// that hour from the survivors and overwrite a correct hourly row
	// with a smaller sum.
	cutoff := now.UTC().Add(-c.MinuteRetention).Truncate(time.Hour).Format(time.RFC3339)
	_, err = database.DB.Exec(`DELETE FROM heartbeat_minutely WHERE bucket_minute < ?`, cutoff)
	return database.Classify(err)
}

// RunDaily promotes hourly rows from closed days into the day tier. The
// day tier's unit is hours: an hour counts as received when at least one
// heartbeat arrived in it, and as expected when any expectation was
// recorded for it.
func (c *Compactor) RunDaily(now time.Time) error {
	dayFloor := now.UTC().Truncate(24 * time.Hour).Format(time.RFC3339)

	rows, err := database.DB.Query(`
		SELECT client_id, agent_id,
		       substr(bucket_hour, 1, 10) || 'T00:00:00Z' AS bucket_day,
		       SUM(CASE WHEN received > 0 THEN 1 ELSE 0 END), COUNT(*)
		FROM heartbeat_hourly
		WHERE bucket_hour < ?
		GROUP BY client_id, agent_id, bucket_day`,
		dayFloor)
	if err != nil {
		return database.Classify(err)
	}
	defer rows.Close()

	type dayRow struct {
		clientID, agentID, bucket    string
		hoursReceived, hoursExpected int
	}
	var agg []dayRow
	for rows.Next() {
		var r dayRow
		if err := rows.Scan(&r.clientID, &r.agentID, &r.bucket, &r.hoursReceived, &r.hoursExpected); err != nil {
			return err
		}
		agg = append(agg, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, r := range agg {
		_, err := database.DB.Exec(`
			INSERT INTO heartbeat_daily (client_id, agent_id, bucket_day, hours_received, hours_expected)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(client_id, agent_id, bucket_day) DO UPDATE SET
				hours_received = excluded.hours_received,
				hours_expected = excluded.hours_expected`,
			r.clientID, r.agentID, r.bucket, r.hoursReceived, r.hoursExpected)
		if err != nil {
			return database.Classify(err)
		}
	}

	// Day-aligned for the same reason the minute prune is hour-aligned:
	// deleting only some of a closed day's hourly rows would shrink its
	// daily row on the next pass.
	hourCutoff := now.UTC().Add(-c.HourRetention).Truncate(24 * time.Hour).Format(time.RFC3339)
	if _, err := database.DB.Exec(`DELETE FROM heartbeat_hourly WHERE bucket_hour < ?`, hourCutoff); err != nil {
		return database.Classify(err)
	}
	dayCutoff := now.UTC().Add(-c.DayRetention).Truncate(24 * time.Hour).Format(time.RFC3339)
	_, err = database.DB.Exec(`DELETE FROM heartbeat_daily WHERE bucket_day < ?`, dayCutoff)
	return database.Classify(err)
}

// Start launches the background compaction tickers.
func (c *Compactor) Start() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		for range ticker.C {
			if err := c.RunHourly(time.Now()); err != nil {
				log.Printf("compactor: hourly pass failed: %v", err)
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		for range ticker.C {
			if err := c.RunDaily(time.Now()); err != nil {
				log.Printf("compactor: daily pass failed: %v", err)
			}
		}
	}()

	log.Println("Compactor started")
}

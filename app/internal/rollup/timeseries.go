package rollup

import (
	"errors"
	"time"

	"pulse/app/internal/buckets"
	"pulse/app/internal/database"
	"pulse/app/internal/httperr"
	"pulse/app/internal/models"
)

// pickTier selects bucket granularity for a window when the caller gave
// no override.
func pickTier(windowHours int) string {
	switch {
	case windowHours <= 3:
		return "minute"
	case windowHours <= 168:
		return "hour"
	default:
		return "day"
	}
}

// Timeseries returns ordered per-bucket uptime percentages for one
// agent. bucketOverride forces a tier ("minute", "hour" or "day");
// otherwise the tier follows the window.
func Timeseries(clientID, agentID string, windowHours int, bucketOverride string) ([]models.SeriesPoint, error) {
	tier := bucketOverride
	switch tier {
	case "":
		tier = pickTier(windowHours)
	case "minute", "hour", "day":
	default:
		return nil, httperr.Validation("bucket must be one of minute, hour, day")
	}

	now := time.Now().UTC()
	since := now.Add(-time.Duration(windowHours) * time.Hour)
	if tier == "day" {
		days := (windowHours + 23) / 24
		since = dayStart(now).AddDate(0, 0, -(days - 1))
	}

	rows, err := buckets.Series(tier, clientID, agentID, since, now)
	if errors.Is(err, database.ErrSchemaNotProvisioned) {
		return []models.SeriesPoint{}, nil
	}
	if err != nil {
		return nil, httperr.Store(err)
	}

	out := make([]models.SeriesPoint, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.SeriesPoint{
			Timestamp: r.Bucket,
			UptimePct: uptimePct(r.Received, r.Expected),
		})
	}
	return out, nil
}

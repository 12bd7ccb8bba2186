package buckets

import "time"

// DefaultIntervalSeconds is assumed when a heartbeat does not declare
// its reporting interval.
const DefaultIntervalSeconds = 2

// Minute truncates t to its minute boundary in UTC. Any instant within
// the same 60-second span maps to the same bucket.
func Minute(t time.Time) time.Time {
	return t.UTC().Truncate(time.Minute)
}

// ExpectedPerMinute converts a reporting interval into the number of
// heartbeats anticipated within one minute bucket. The interval is
// clamped to [1, 3600] seconds and the result is never below 1.
func ExpectedPerMinute(intervalSeconds int) int {
	if intervalSeconds < 1 {
		intervalSeconds = 1
	}
	if intervalSeconds > 3600 {
		intervalSeconds = 3600
	}
	n := 60 / intervalSeconds
	if n < 1 {
		n = 1
	}
	return n
}

package rollup

import (
	"strconv"
	"time"
)

// DefaultWindowHours is used when no window is given or the token does
// not parse.
const DefaultWindowHours = 24

// ParseWindow interprets a window token as a number of hours. Plain
// positive integers are hours; Go duration strings (e.g. "36h", "90m")
// are converted and floored at one hour. Anything else falls back to
// the default.
func ParseWindow(token string) int {
	if token == "" {
		return DefaultWindowHours
	}
	if n, err := strconv.Atoi(token); err == nil {
		if n < 1 {
			return DefaultWindowHours
		}
		return n
	}
	if d, err := time.ParseDuration(token); err == nil && d > 0 {
		h := int(d.Hours())
		if h < 1 {
			h = 1
		}
		return h
	}
	return DefaultWindowHours
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	if v < 0 {
		return float64(int(v*100-0.5)) / 100
	}
	return float64(int(v*100+0.5)) / 100
}

// uptimePct computes received/expected as a percentage. Zero expected
// yields 0, never NaN.
func uptimePct(received, expected int) float64 {
	if expected <= 0 {
		return 0
	}
	return round2(float64(received) / float64(expected) * 100)
}

// dayStart truncates t to midnight UTC.
func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

package compactor

import (
	"testing"
	"time"

	"pulse/app/internal/database"
)

func initTestDB(t *testing.T) {
	t.Helper()
	if err := database.Init(":memory:"); err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
}

func insertMinute(t *testing.T, agentID, instanceID string, ts time.Time, received, expected int) {
	t.Helper()
	_, err := database.DB.Exec(`
		INSERT INTO heartbeat_minutely (client_id, agent_id, instance_id, bucket_minute, received, expected, last_seen)
		VALUES ('c1', ?, ?, ?, ?, ?, ?)`,
		agentID, instanceID, ts.UTC().Format(time.RFC3339), received, expected, ts.UTC().Format(time.RFC3339))
	if err != nil {
		t.Fatal(err)
	}
}

func insertHourly(t *testing.T, agentID string, ts time.Time, received, expected int) {
	t.Helper()
	_, err := database.DB.Exec(`
		INSERT INTO heartbeat_hourly (client_id, agent_id, bucket_hour, received, expected, last_seen)
		VALUES ('c1', ?, ?, ?, ?, ?)`,
		agentID, ts.UTC().Format(time.RFC3339), received, expected, ts.UTC().Format(time.RFC3339))
	if err != nil {
		t.Fatal(err)
	}
}

// --------------- RunHourly ---------------

func TestRunHourly_SumsAcrossInstances(t *testing.T) {
	initTestDB(t)
	now := time.Now().UTC()
	bucket := now.Add(-2 * time.Hour).Truncate(time.Hour)
	insertMinute(t, "a1", "i1", bucket.Add(5*time.Minute), 5, 30)
	insertMinute(t, "a1", "i2", bucket.Add(5*time.Minute), 4, 30)
	insertMinute(t, "a1", "i1", bucket.Add(6*time.Minute), 6, 30)

	if err := New().RunHourly(now); err != nil {
		t.Fatalf("RunHourly: %v", err)
	}

	var received, expected int
	err := database.DB.QueryRow(`
		SELECT received, expected FROM heartbeat_hourly
		WHERE client_id = 'c1' AND agent_id = 'a1' AND bucket_hour = ?`,
		bucket.Format(time.RFC3339)).Scan(&received, &expected)
	if err != nil {
		t.Fatalf("hourly row: %v", err)
	}
	if received != 15 || expected != 90 {
		t.Errorf("hourly = {received:%d, expected:%d}, want {15, 90}", received, expected)
	}
}

func TestRunHourly_SkipsOpenHour(t *testing.T) {
	initTestDB(t)
	now := time.Now().UTC()
	insertMinute(t, "a1", "i1", now.Truncate(time.Hour).Add(time.Minute), 3, 30)

	if err := New().RunHourly(now); err != nil {
		t.Fatal(err)
	}

	var n int
	_ = database.DB.QueryRow(`SELECT COUNT(*) FROM heartbeat_hourly`).Scan(&n)
	if n != 0 {
		t.Errorf("open hour must not be promoted, got %d rows", n)
	}
}

func TestRunHourly_Idempotent(t *testing.T) {
	initTestDB(t)
	now := time.Now().UTC()
	bucket := now.Add(-3 * time.Hour).Truncate(time.Hour)
	insertMinute(t, "a1", "i1", bucket.Add(time.Minute), 7, 30)

	c := New()
	if err := c.RunHourly(now); err != nil {
		t.Fatal(err)
	}
	if err := c.RunHourly(now); err != nil {
		t.Fatal(err)
	}

	var received int
	_ = database.DB.QueryRow(`SELECT received FROM heartbeat_hourly WHERE agent_id = 'a1'`).Scan(&received)
	if received != 7 {
		t.Errorf("received = %d after rerun, want 7 (overwrite, not double)", received)
	}
}

func TestRunHourly_PrunesExpiredMinutes(t *testing.T) {
	initTestDB(t)
	now := time.Now().UTC()
	insertMinute(t, "a1", "i1", now.Add(-30*time.Hour), 1, 30)
	insertMinute(t, "a1", "i1", now.Add(-2*time.Hour), 1, 30)

	if err := New().RunHourly(now); err != nil {
		t.Fatal(err)
	}

	var n int
	_ = database.DB.QueryRow(`SELECT COUNT(*) FROM heartbeat_minutely`).Scan(&n)
	if n != 1 {
		t.Errorf("expected 1 minute row after pruning, got %d", n)
	}
}

func TestRunHourly_PruneNeverSplitsClosedHour(t *testing.T) {
	initTestDB(t)
	hour := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	insertMinute(t, "a1", "i1", hour, 1, 30)
	insertMinute(t, "a1", "i1", hour.Add(40*time.Minute), 1, 30)

	c := New()

	// Retention expires mid-hour here. An unaligned cutoff would delete
	// only the 10:00 row and the next pass would shrink the hourly sum.
	passes := []time.Time{
		hour.Add(24*time.Hour + 30*time.Minute),
		hour.Add(25*time.Hour + 30*time.Minute),
		hour.Add(26*time.Hour + 30*time.Minute),
	}
	for i, now := range passes {
		if err := c.RunHourly(now); err != nil {
			t.Fatalf("pass %d: %v", i+1, err)
		}
		var received, expected int
		err := database.DB.QueryRow(`
			SELECT received, expected FROM heartbeat_hourly
			WHERE agent_id = 'a1' AND bucket_hour = ?`,
			hour.Format(time.RFC3339)).Scan(&received, &expected)
		if err != nil {
			t.Fatalf("pass %d hourly row: %v", i+1, err)
		}
		if received != 2 || expected != 60 {
			t.Fatalf("pass %d hourly = {received:%d, expected:%d}, want {2, 60}", i+1, received, expected)
		}
	}
}

// --------------- RunDaily ---------------

func TestRunDaily_CountsHours(t *testing.T) {
	initTestDB(t)
	now := time.Now().UTC()
	day := now.Truncate(24 * time.Hour).AddDate(0, 0, -1)
	insertHourly(t, "a1", day.Add(1*time.Hour), 100, 120)
	insertHourly(t, "a1", day.Add(2*time.Hour), 0, 120) // expected but silent
	insertHourly(t, "a1", day.Add(3*time.Hour), 80, 120)

	if err := New().RunDaily(now); err != nil {
		t.Fatalf("RunDaily: %v", err)
	}

	var hoursReceived, hoursExpected int
	err := database.DB.QueryRow(`
		SELECT hours_received, hours_expected FROM heartbeat_daily
		WHERE client_id = 'c1' AND agent_id = 'a1' AND bucket_day = ?`,
		day.Format(time.RFC3339)).Scan(&hoursReceived, &hoursExpected)
	if err != nil {
		t.Fatalf("daily row: %v", err)
	}
	if hoursReceived != 2 || hoursExpected != 3 {
		t.Errorf("daily = {hours_received:%d, hours_expected:%d}, want {2, 3}", hoursReceived, hoursExpected)
	}
}

func TestRunDaily_SkipsOpenDay(t *testing.T) {
	initTestDB(t)
	now := time.Now().UTC()
	insertHourly(t, "a1", now.Truncate(24*time.Hour).Add(time.Hour), 10, 10)

	if err := New().RunDaily(now); err != nil {
		t.Fatal(err)
	}

	var n int
	_ = database.DB.QueryRow(`SELECT COUNT(*) FROM heartbeat_daily`).Scan(&n)
	if n != 0 {
		t.Errorf("open day must not be promoted, got %d rows", n)
	}
}

func TestRunDaily_PruneNeverSplitsClosedDay(t *testing.T) {
	initTestDB(t)
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	insertHourly(t, "a1", day.Add(1*time.Hour), 100, 120)
	insertHourly(t, "a1", day.Add(20*time.Hour), 100, 120)

	c := New()

	// Hour retention (30 days) expires mid-day on the first pass.
	passes := []time.Time{
		day.AddDate(0, 0, 30).Add(10 * time.Hour),
		day.AddDate(0, 0, 31).Add(10 * time.Hour),
	}
	for i, now := range passes {
		if err := c.RunDaily(now); err != nil {
			t.Fatalf("pass %d: %v", i+1, err)
		}
		var hoursReceived, hoursExpected int
		err := database.DB.QueryRow(`
			SELECT hours_received, hours_expected FROM heartbeat_daily
			WHERE agent_id = 'a1' AND bucket_day = ?`,
			day.Format(time.RFC3339)).Scan(&hoursReceived, &hoursExpected)
		if err != nil {
			t.Fatalf("pass %d daily row: %v", i+1, err)
		}
		if hoursReceived != 2 || hoursExpected != 2 {
			t.Fatalf("pass %d daily = {hours_received:%d, hours_expected:%d}, want {2, 2}", i+1, hoursReceived, hoursExpected)
		}
	}
}

func TestRunDaily_Idempotent(t *testing.T) {
	initTestDB(t)
	now := time.Now().UTC()
	day := now.Truncate(24 * time.Hour).AddDate(0, 0, -1)
	insertHourly(t, "a1", day.Add(4*time.Hour), 60, 60)

	c := New()
	if err := c.RunDaily(now); err != nil {
		t.Fatal(err)
	}
	if err := c.RunDaily(now); err != nil {
		t.Fatal(err)
	}

	var hoursExpected int
	_ = database.DB.QueryRow(`SELECT hours_expected FROM heartbeat_daily WHERE agent_id = 'a1'`).Scan(&hoursExpected)
	if hoursExpected != 1 {
		t.Errorf("hours_expected = %d after rerun, want 1", hoursExpected)
	}
}

package config

import (
	"os"
	"testing"
	"time"
)

// unsetEnv clears key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("unset %s: %v", key, err)
	}
}

func TestLoadDefaults(t *testing.T) {
	unsetEnv(t, "ENV")
	unsetEnv(t, "ROLLOVER_DAILY_AT")
	unsetEnv(t, "REMINDER_DAILY_AT")
	unsetEnv(t, "SMTP_HOST")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Env != EnvLocal {
		t.Fatalf("expected env local, got %q", cfg.Env)
	}
	if cfg.HTTPAddr != ":3000" {
		t.Fatalf("expected :3000, got %q", cfg.HTTPAddr)
	}
	if cfg.Rollover.Interval != 6*time.Hour {
		t.Fatalf("expected 6h rollover interval, got %v", cfg.Rollover.Interval)
	}
	if cfg.Rollover.DailyAt != "00:00" || cfg.Reminder.DailyAt != "07:00" {
		t.Fatalf("unexpected schedule defaults: %q %q", cfg.Rollover.DailyAt, cfg.Reminder.DailyAt)
	}
	if cfg.Email.Enabled() {
		t.Fatalf("email should be disabled without SMTP_HOST")
	}
}

func TestLoadRejectsBadClock(t *testing.T) {
	unsetEnv(t, "ENV")
	unsetEnv(t, "ROLLOVER_DAILY_AT")
	unsetEnv(t, "REMINDER_DAILY_AT")
	unsetEnv(t, "SMTP_HOST")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("ROLLOVER_DAILY_AT", "25:00")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid ROLLOVER_DAILY_AT")
	}
}

func TestLoadRejectsUnknownEnv(t *testing.T) {
	t.Setenv("ENV", "staging")
	t.Setenv("TIMEZONE", "UTC")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown ENV")
	}
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in     string
		hour   int
		minute int
		ok     bool
	}{
		{"07:00", 7, 0, true},
		{"23:59", 23, 59, true},
		{"7:5", 7, 5, true},
		{"24:00", 0, 0, false},
		{"12:60", 0, 0, false},
		{"noon", 0, 0, false},
	}
	for _, tc := range cases {
		h, m, err := ParseClock(tc.in)
		if tc.ok != (err == nil) {
			t.Fatalf("ParseClock(%q) err=%v, want ok=%v", tc.in, err, tc.ok)
		}
		if tc.ok && (h != tc.hour || m != tc.minute) {
			t.Fatalf("ParseClock(%q) = %d:%d", tc.in, h, m)
		}
	}
}

package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// startOfDay returns local midnight of t's calendar day in loc.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// endOfDay returns the last millisecond of t's calendar day in loc.
func endOfDay(t time.Time, loc *time.Location) time.Time {
	start := startOfDay(t, loc)
	y, m, d := start.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc).Add(-time.Millisecond)
}

// DayBounds returns the day containing t in loc as a half-open [start, end) range.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	start := startOfDay(t, loc)
	return start, start.AddDate(0, 0, 1)
}

// calendarDaysBetween counts midnights crossed going from a to b in loc.
// Time of day is ignored, so 23:59 to 00:01 the next day is one day.
func calendarDaysBetween(a, b time.Time, loc *time.Location) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// clockString formats t as a bare HH:MM in loc.
func clockString(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("15:04")
}

// normalizeClock validates an optional "HH:MM" value; blank becomes nil.
func normalizeClock(v *string) (*string, error) {
	if v == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return nil, fmt.Errorf("%w: scheduledTime %q must be HH:MM", ErrValidation, s)
	}
	h, errH := strconv.Atoi(parts[0])
	m, errM := strconv.Atoi(parts[1])
	if errH != nil || errM != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return nil, fmt.Errorf("%w: scheduledTime %q must be HH:MM", ErrValidation, s)
	}
	return &s, nil
}

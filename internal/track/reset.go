package track

import (
	"fmt"
	"time"

	"github.com/jkarasek/tempo/internal/model"
)

// parseResetTime parses a "HH:MM" daily reset time.
func parseResetTime(value string) (hour, minute int, err error) {
	if _, err := fmt.Sscanf(value, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("invalid reset time %q: %w", value, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid reset time %q", value)
	}
	return hour, minute, nil
}

// lastBoundary returns the most recent daily-reset boundary at or before
// now: today's reset time if already passed, otherwise yesterday's. A bad
// reset time falls back to midnight.
func lastBoundary(now time.Time, resetTime string) time.Time {
	hour, minute, err := parseResetTime(resetTime)
	if err != nil {
		hour, minute = 0, 0
	}
	boundary := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if boundary.After(now) {
		boundary = boundary.AddDate(0, 0, -1)
	}
	return boundary
}

// ResetBoundary returns the most recent daily-reset boundary at or before
// now for the configured reset time.
func (s *Store) ResetBoundary(now time.Time) time.Time {
	return lastBoundary(now, s.doc.Settings.DailyResetTime)
}

// DailyResetDue reports whether the daily reset should fire at now: the
// feature is enabled and the watermark predates the date of the most recent
// boundary. A boundary missed while the process was closed is therefore due
// exactly once on the first check after startup; a boundary already handled
// never fires again.
func (s *Store) DailyResetDue(now time.Time) bool {
	if !s.doc.Settings.DailyResetEnabled {
		return false
	}
	boundary := lastBoundary(now, s.doc.Settings.DailyResetTime)
	// ISO dates compare lexically; a watermark in the future (clock moved
	// back) must not re-fire.
	return s.doc.LastResetDate < boundary.Format(model.DateLayout)
}

// ApplyDailyReset stops all timers, zeroes all elapsed times and advances
// the watermark to the date of the boundary that fired.
func (s *Store) ApplyDailyReset(now time.Time) {
	boundary := lastBoundary(now, s.doc.Settings.DailyResetTime)
	s.ResetAll(now)
	s.doc.LastResetDate = boundary.Format(model.DateLayout)
	s.dirty = true
}

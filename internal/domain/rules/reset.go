package rules

import "time"

const (
	FreeUnlocksPerDay = 2
)

// LastMidnightUTC returns the most recent UTC midnight at or before now.
func LastMidnightUTC(now time.Time) time.Time {
	u := now.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// NeedsDailyReset reports whether a quota row last reset at lastResetAt must
// be zeroed before evaluation. Resets anchor to UTC calendar days regardless
// of any caller timezone.
func NeedsDailyReset(lastResetAt, now time.Time) bool {
	if lastResetAt.IsZero() {
		return true
	}
	return lastResetAt.UTC().Before(LastMidnightUTC(now))
}

func NextResetAt(now time.Time) time.Time {
	return LastMidnightUTC(now).Add(24 * time.Hour)
}

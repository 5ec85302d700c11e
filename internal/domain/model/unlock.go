package model

import "time"

// UnlockQuota is the per-subject daily unlock ledger. One row per subject,
// created lazily on the first unlock request and never deleted.
type UnlockQuota struct {
	SubjectID    string     `json:"subject_id"`
	DailyCount   int        `json:"daily_count"`
	LastResetAt  time.Time  `json:"last_reset_at"`
	LastUnlockAt *time.Time `json:"last_unlock_at,omitempty"`
	BlockedUntil *time.Time `json:"blocked_until,omitempty"`
}

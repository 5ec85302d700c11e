package rules

import (
	"testing"
	"time"
)

func TestNeedsDailyResetAnchorsToUTCMidnight(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 15, 0, 0, time.UTC)

	cases := []struct {
		name        string
		lastResetAt time.Time
		want        bool
	}{
		{"zero value", time.Time{}, true},
		{"yesterday evening", time.Date(2026, 8, 29, 23, 59, 0, 0, time.UTC), true},
		{"today midnight", time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), false},
		{"earlier today", time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC), false},
		{"yesterday in ahead-of-UTC zone", time.Date(2026, 8, 30, 2, 30, 0, 0, time.FixedZone("UTC+3", 3*3600)), true},
	}

	for _, tc := range cases {
		if got := NeedsDailyReset(tc.lastResetAt, now); got != tc.want {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestNextResetAtIsFollowingUTCMidnight(t *testing.T) {
	now := time.Date(2026, 8, 30, 23, 59, 59, 0, time.UTC)
	want := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	if got := NextResetAt(now); !got.Equal(want) {
		t.Fatalf("unexpected next reset: got %v want %v", got, want)
	}
}

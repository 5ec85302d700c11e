package rate

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const unlockMinuteWindow = time.Minute

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Limiter throttles unlock requests per subject with a fixed one-minute
// window. This is hammering protection only; the daily quota lives in the
// quota store.
type Limiter struct {
	store     WindowStore
	perMinute int
}

func NewLimiter(store WindowStore, perMinute int) *Limiter {
	if perMinute < 0 {
		perMinute = 0
	}

	return &Limiter{
		store:     store,
		perMinute: perMinute,
	}
}

// AllowUnlock counts the request against the window. A zero configured limit
// disables throttling.
func (l *Limiter) AllowUnlock(ctx context.Context, subjectID string) (int64, bool, error) {
	if strings.TrimSpace(subjectID) == "" {
		return 0, false, fmt.Errorf("subject id is required")
	}
	if l.perMinute <= 0 {
		return 0, true, nil
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	count, ttl, err := l.store.IncrementWindow(ctx, unlockKey(subjectID), unlockMinuteWindow)
	if err != nil {
		return 0, false, err
	}
	if count > int64(l.perMinute) {
		return ceilSeconds(ttl), false, nil
	}

	return 0, true, nil
}

func unlockKey(subjectID string) string {
	return "rate:unlock:min:" + subjectID
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 1
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}

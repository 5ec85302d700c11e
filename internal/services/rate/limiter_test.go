package rate

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redrepo "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/repo/redis"
)

func TestLimiterBlocksAfterMinuteBudget(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	limiter := NewLimiter(redrepo.NewRateRepo(client), 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		retryAfter, allowed, err := limiter.AllowUnlock(ctx, "subject-1")
		if err != nil {
			t.Fatalf("allow unlock #%d: %v", i+1, err)
		}
		if !allowed || retryAfter != 0 {
			t.Fatalf("unexpected block on #%d: allowed=%v retry_after=%d", i+1, allowed, retryAfter)
		}
	}

	retryAfter, allowed, err := limiter.AllowUnlock(ctx, "subject-1")
	if err != nil {
		t.Fatalf("allow unlock #4: %v", err)
	}
	if allowed {
		t.Fatalf("expected fourth unlock request in the window to be blocked")
	}
	if retryAfter <= 0 {
		t.Fatalf("expected positive retry_after, got %d", retryAfter)
	}

	mr.FastForward(61 * time.Second)

	if _, allowed, err = limiter.AllowUnlock(ctx, "subject-1"); err != nil || !allowed {
		t.Fatalf("expected fresh window after expiry: allowed=%v err=%v", allowed, err)
	}
}

func TestLimiterDisabledWithZeroBudget(t *testing.T) {
	limiter := NewLimiter(nil, 0)

	if _, allowed, err := limiter.AllowUnlock(context.Background(), "subject-1"); err != nil || !allowed {
		t.Fatalf("zero budget must disable throttling: allowed=%v err=%v", allowed, err)
	}
}

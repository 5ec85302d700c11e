package unlock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dakouloulo802-blip/movie-miniapp-backend/internal/domain/enums"
	"github.com/dakouloulo802-blip/movie-miniapp-backend/internal/domain/model"
	pgrepo "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/repo/postgres"
	adssvc "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/services/ads"
	tokensvc "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/services/token"
)

type memoryQuotaStore struct {
	records map[string]*model.UnlockQuota
	now     func() time.Time
}

func newMemoryQuotaStore(now func() time.Time) *memoryQuotaStore {
	return &memoryQuotaStore{
		records: make(map[string]*model.UnlockQuota),
		now:     now,
	}
}

func (s *memoryQuotaStore) GetOrCreate(_ context.Context, subjectID string) (model.UnlockQuota, error) {
	if record, ok := s.records[subjectID]; ok {
		return *record, nil
	}
	record := &model.UnlockQuota{
		SubjectID:   subjectID,
		LastResetAt: s.now().UTC(),
	}
	s.records[subjectID] = record
	return *record, nil
}

func (s *memoryQuotaStore) ResetIfNeeded(_ context.Context, subjectID string, midnightUTC time.Time) (model.UnlockQuota, error) {
	record, ok := s.records[subjectID]
	if !ok {
		return model.UnlockQuota{}, pgrepo.ErrQuotaNotFound
	}
	if record.LastResetAt.Before(midnightUTC) {
		record.DailyCount = 0
		record.LastResetAt = s.now().UTC()
	}
	return *record, nil
}

func (s *memoryQuotaStore) ConsumeFree(_ context.Context, subjectID string, limit int) (int, error) {
	record, ok := s.records[subjectID]
	if !ok {
		return 0, pgrepo.ErrQuotaNotFound
	}
	if record.DailyCount >= limit {
		return 0, pgrepo.ErrFreeLimitReached
	}
	record.DailyCount++
	at := s.now().UTC()
	record.LastUnlockAt = &at
	return record.DailyCount, nil
}

func (s *memoryQuotaStore) StampMonetized(_ context.Context, subjectID string) error {
	record, ok := s.records[subjectID]
	if !ok {
		return pgrepo.ErrQuotaNotFound
	}
	at := s.now().UTC()
	record.LastUnlockAt = &at
	return nil
}

func (s *memoryQuotaStore) SetBlockedUntil(_ context.Context, subjectID string, until *time.Time) error {
	record, ok := s.records[subjectID]
	if !ok {
		record = &model.UnlockQuota{SubjectID: subjectID, LastResetAt: s.now().UTC()}
		s.records[subjectID] = record
	}
	record.BlockedUntil = until
	return nil
}

type memoryMovieStore struct {
	movies map[string]model.Movie
}

func (s *memoryMovieStore) GetByID(_ context.Context, id string) (model.Movie, error) {
	movie, ok := s.movies[id]
	if !ok {
		return model.Movie{}, pgrepo.ErrMovieNotFound
	}
	return movie, nil
}

type memoryConsumedStore struct {
	consumed map[string]bool
}

func (s *memoryConsumedStore) MarkConsumed(_ context.Context, fingerprint string, _ time.Duration) (bool, error) {
	if s.consumed[fingerprint] {
		return false, nil
	}
	s.consumed[fingerprint] = true
	return true, nil
}

type fixture struct {
	service *Service
	quotas  *memoryQuotaStore
	movies  *memoryMovieStore
	codec   *tokensvc.Codec
	setNow  func(time.Time)
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()

	current := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	nowFn := func() time.Time { return current }

	codec := tokensvc.NewCodec("unlock-test-secret", cfg.TokenTTL).WithClock(nowFn)
	quotas := newMemoryQuotaStore(nowFn)
	movies := &memoryMovieStore{movies: map[string]model.Movie{
		"movie-1": {
			ID:        "movie-1",
			Title:     "First",
			Published: true,
			Links: []model.DownloadLink{
				{Quality: "720p", URL: "https://cdn.example/m1-720.mkv"},
				{Quality: "1080p", URL: "https://cdn.example/m1-1080.mkv"},
			},
		},
		"movie-draft": {
			ID:        "movie-draft",
			Title:     "Draft",
			Published: false,
			Links:     []model.DownloadLink{{Quality: "720p", URL: "https://cdn.example/draft.mkv"}},
		},
	}}

	service := NewService(codec, quotas, movies, adssvc.NewService(nil), cfg)

	f := &fixture{
		service: service,
		quotas:  quotas,
		movies:  movies,
		codec:   codec,
	}
	f.setNow = func(at time.Time) {
		current = at
	}
	service.now = nowFn

	return f
}

func TestFreeQuotaPathAndExhaustion(t *testing.T) {
	f := newFixture(t, Config{FreeDailyLimit: 2, TokenTTL: 5 * time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		grant, err := f.service.RequestUnlock(ctx, "movie-1", "subject-1", nil)
		if err != nil {
			t.Fatalf("unlock #%d: %v", i+1, err)
		}
		if !grant.UsedFreeQuota || grant.Monetized {
			t.Fatalf("unlock #%d: expected free-quota grant, got %+v", i+1, grant)
		}
		if grant.RemainingFree == nil || *grant.RemainingFree != 1-i {
			t.Fatalf("unlock #%d: unexpected remaining_free %v", i+1, grant.RemainingFree)
		}
		if grant.Token == "" || grant.ExpiresInSec != 300 {
			t.Fatalf("unlock #%d: unexpected token grant %+v", i+1, grant)
		}
	}

	if _, err := f.service.RequestUnlock(ctx, "movie-1", "subject-1", nil); !errors.Is(err, ErrQuotaExhausted) {
		t.Fatalf("expected ErrQuotaExhausted, got %v", err)
	}
}

func TestMonetizedPathBypassesQuota(t *testing.T) {
	f := newFixture(t, Config{FreeDailyLimit: 2, TokenTTL: 5 * time.Minute})
	ctx := context.Background()

	f.quotas.records["subject-1"] = &model.UnlockQuota{
		SubjectID:   "subject-1",
		DailyCount:  2,
		LastResetAt: time.Date(2026, 8, 30, 0, 30, 0, 0, time.UTC),
	}

	grant, err := f.service.RequestUnlock(ctx, "movie-1", "subject-1", &model.AdClaim{Kind: enums.AdKindInterstitial})
	if err != nil {
		t.Fatalf("monetized unlock: %v", err)
	}
	if !grant.Monetized || grant.UsedFreeQuota || grant.RemainingFree != nil {
		t.Fatalf("unexpected monetized grant: %+v", grant)
	}
	if f.quotas.records["subject-1"].DailyCount != 2 {
		t.Fatalf("monetized unlock must not consume free quota, daily_count=%d", f.quotas.records["subject-1"].DailyCount)
	}
	if f.quotas.records["subject-1"].LastUnlockAt == nil {
		t.Fatalf("monetized unlock must stamp last_unlock_at")
	}
}

func TestUnrecognizedAdKindFallsToExhaustion(t *testing.T) {
	f := newFixture(t, Config{FreeDailyLimit: 2, TokenTTL: 5 * time.Minute})
	ctx := context.Background()

	f.quotas.records["subject-1"] = &model.UnlockQuota{
		SubjectID:   "subject-1",
		DailyCount:  2,
		LastResetAt: time.Date(2026, 8, 30, 0, 30, 0, 0, time.UTC),
	}

	if _, err := f.service.RequestUnlock(ctx, "movie-1", "subject-1", &model.AdClaim{Kind: "banner"}); !errors.Is(err, ErrQuotaExhausted) {
		t.Fatalf("expected ErrQuotaExhausted for unknown ad kind, got %v", err)
	}
}

func TestStaleQuotaResetsBeforeEvaluation(t *testing.T) {
	f := newFixture(t, Config{FreeDailyLimit: 2, TokenTTL: 5 * time.Minute})
	ctx := context.Background()

	f.quotas.records["subject-1"] = &model.UnlockQuota{
		SubjectID:   "subject-1",
		DailyCount:  2,
		LastResetAt: time.Date(2026, 8, 29, 22, 0, 0, 0, time.UTC),
	}

	grant, err := f.service.RequestUnlock(ctx, "movie-1", "subject-1", nil)
	if err != nil {
		t.Fatalf("unlock after stale day: %v", err)
	}
	if grant.RemainingFree == nil || *grant.RemainingFree != 1 {
		t.Fatalf("expected remaining_free=1 after reset, got %v", grant.RemainingFree)
	}
}

func TestCooldownWinsOverEverything(t *testing.T) {
	f := newFixture(t, Config{FreeDailyLimit: 2, TokenTTL: 5 * time.Minute})
	ctx := context.Background()

	blockedUntil := time.Date(2026, 8, 30, 12, 10, 0, 0, time.UTC)
	f.quotas.records["subject-1"] = &model.UnlockQuota{
		SubjectID:    "subject-1",
		DailyCount:   0,
		LastResetAt:  time.Date(2026, 8, 30, 0, 30, 0, 0, time.UTC),
		BlockedUntil: &blockedUntil,
	}

	_, err := f.service.RequestUnlock(ctx, "movie-1", "subject-1", &model.AdClaim{Kind: enums.AdKindRewarded})
	cooldown, ok := IsCooldown(err)
	if !ok {
		t.Fatalf("expected cooldown refusal, got %v", err)
	}
	if !cooldown.BlockedUntil.Equal(blockedUntil) {
		t.Fatalf("unexpected blocked_until: got %v want %v", cooldown.BlockedUntil, blockedUntil)
	}

	f.setNow(blockedUntil.Add(time.Second))
	if _, err := f.service.RequestUnlock(ctx, "movie-1", "subject-1", nil); err != nil {
		t.Fatalf("unlock after cooldown passed: %v", err)
	}
}

func TestValidateUnlockReleasesLinks(t *testing.T) {
	f := newFixture(t, Config{FreeDailyLimit: 2, TokenTTL: 5 * time.Minute})
	ctx := context.Background()

	grant, err := f.service.RequestUnlock(ctx, "movie-1", "subject-1", nil)
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}

	links, err := f.service.ValidateUnlock(ctx, "movie-1", grant.Token)
	if err != nil {
		t.Fatalf("validate unlock: %v", err)
	}
	if len(links) != 2 || links[1].Quality != "1080p" {
		t.Fatalf("unexpected links: %+v", links)
	}
}

func TestValidateUnlockRefusals(t *testing.T) {
	f := newFixture(t, Config{FreeDailyLimit: 5, TokenTTL: 5 * time.Minute})
	ctx := context.Background()

	grant, err := f.service.RequestUnlock(ctx, "movie-1", "subject-1", nil)
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}

	if _, err := f.service.ValidateUnlock(ctx, "movie-2", grant.Token); !errors.Is(err, ErrResourceMismatch) {
		t.Fatalf("expected ErrResourceMismatch, got %v", err)
	}
	if _, err := f.service.ValidateUnlock(ctx, "movie-1", "garbage"); !errors.Is(err, tokensvc.ErrMalformedToken) {
		t.Fatalf("expected ErrMalformedToken, got %v", err)
	}

	draftGrant, err := f.service.RequestUnlock(ctx, "movie-draft", "subject-1", nil)
	if err != nil {
		t.Fatalf("unlock draft: %v", err)
	}
	links, err := f.service.ValidateUnlock(ctx, "movie-draft", draftGrant.Token)
	if !errors.Is(err, ErrNotPublished) {
		t.Fatalf("expected ErrNotPublished, got %v", err)
	}
	if links != nil {
		t.Fatalf("unpublished movie must not leak links: %+v", links)
	}

	missingGrant, err := f.service.RequestUnlock(ctx, "movie-gone", "subject-1", nil)
	if err != nil {
		t.Fatalf("unlock missing: %v", err)
	}
	if _, err := f.service.ValidateUnlock(ctx, "movie-gone", missingGrant.Token); !errors.Is(err, ErrMovieNotFound) {
		t.Fatalf("expected ErrMovieNotFound, got %v", err)
	}
}

func TestValidateUnlockExpiredToken(t *testing.T) {
	f := newFixture(t, Config{FreeDailyLimit: 2, TokenTTL: time.Minute})
	ctx := context.Background()

	grant, err := f.service.RequestUnlock(ctx, "movie-1", "subject-1", nil)
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}

	f.setNow(grant.ExpiresAt)
	if _, err := f.service.ValidateUnlock(ctx, "movie-1", grant.Token); !errors.Is(err, tokensvc.ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestSingleUseEnforcement(t *testing.T) {
	f := newFixture(t, Config{FreeDailyLimit: 2, TokenTTL: 5 * time.Minute, SingleUse: true})
	f.service.AttachSingleUse(&memoryConsumedStore{consumed: make(map[string]bool)})
	ctx := context.Background()

	grant, err := f.service.RequestUnlock(ctx, "movie-1", "subject-1", nil)
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}

	if _, err := f.service.ValidateUnlock(ctx, "movie-1", grant.Token); err != nil {
		t.Fatalf("first validation: %v", err)
	}
	if _, err := f.service.ValidateUnlock(ctx, "movie-1", grant.Token); !errors.Is(err, ErrTokenConsumed) {
		t.Fatalf("expected ErrTokenConsumed on reuse, got %v", err)
	}
}

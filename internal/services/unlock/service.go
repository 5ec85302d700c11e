package unlock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dakouloulo802-blip/movie-miniapp-backend/internal/domain/model"
	"github.com/dakouloulo802-blip/movie-miniapp-backend/internal/domain/rules"
	pgrepo "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/repo/postgres"
	adssvc "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/services/ads"
	tokensvc "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/services/token"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrDependenciesNil  = errors.New("unlock dependencies are not configured")
	ErrQuotaExhausted   = errors.New("daily unlock quota exhausted")
	ErrResourceMismatch = errors.New("token bound to another movie")
	ErrMovieNotFound    = errors.New("movie not found")
	ErrNotPublished     = errors.New("movie is not published")
	ErrTokenConsumed    = errors.New("token already consumed")
)

// CooldownError refuses every unlock for a subject until BlockedUntil passes.
type CooldownError struct {
	BlockedUntil time.Time
}

func (e CooldownError) Error() string {
	return "unlock cooldown active"
}

func IsCooldown(err error) (*CooldownError, bool) {
	var ce CooldownError
	if errors.As(err, &ce) {
		return &ce, true
	}
	return nil, false
}

type QuotaStore interface {
	GetOrCreate(ctx context.Context, subjectID string) (model.UnlockQuota, error)
	ResetIfNeeded(ctx context.Context, subjectID string, midnightUTC time.Time) (model.UnlockQuota, error)
	ConsumeFree(ctx context.Context, subjectID string, limit int) (int, error)
	StampMonetized(ctx context.Context, subjectID string) error
	SetBlockedUntil(ctx context.Context, subjectID string, until *time.Time) error
}

type MovieStore interface {
	GetByID(ctx context.Context, id string) (model.Movie, error)
}

type ClaimVerifier interface {
	VerifyCompletion(ctx context.Context, subjectID, movieID string, claim model.AdClaim) error
}

type ConsumedTokenStore interface {
	MarkConsumed(ctx context.Context, fingerprint string, ttl time.Duration) (bool, error)
}

type Config struct {
	FreeDailyLimit int
	TokenTTL       time.Duration
	SingleUse      bool
}

type Grant struct {
	Token         string
	ExpiresAt     time.Time
	ExpiresInSec  int64
	UsedFreeQuota bool
	RemainingFree *int
	Monetized     bool
}

// Service decides unlock requests and validates issued tokens. Decision
// order is a contract: cooldown, then lazy daily reset, then the free path
// (no ad claim), then the monetized path, then exhaustion.
type Service struct {
	codec      *tokensvc.Codec
	quotaStore QuotaStore
	movieStore MovieStore
	claims     ClaimVerifier
	consumed   ConsumedTokenStore
	cfg        Config
	now        func() time.Time
}

func NewService(codec *tokensvc.Codec, quotaStore QuotaStore, movieStore MovieStore, claims ClaimVerifier, cfg Config) *Service {
	if cfg.FreeDailyLimit <= 0 {
		cfg.FreeDailyLimit = rules.FreeUnlocksPerDay
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 5 * time.Minute
	}

	return &Service{
		codec:      codec,
		quotaStore: quotaStore,
		movieStore: movieStore,
		claims:     claims,
		cfg:        cfg,
		now:        time.Now,
	}
}

// AttachSingleUse enables store-backed single-use token enforcement.
func (s *Service) AttachSingleUse(store ConsumedTokenStore) {
	s.consumed = store
}

func (s *Service) RequestUnlock(ctx context.Context, movieID, subjectID string, claim *model.AdClaim) (Grant, error) {
	if strings.TrimSpace(movieID) == "" || strings.TrimSpace(subjectID) == "" {
		return Grant{}, ErrValidation
	}
	if s.codec == nil || s.quotaStore == nil {
		return Grant{}, ErrDependenciesNil
	}

	now := s.now().UTC()

	record, err := s.quotaStore.GetOrCreate(ctx, subjectID)
	if err != nil {
		return Grant{}, fmt.Errorf("load unlock quota: %w", err)
	}

	if record.BlockedUntil != nil && record.BlockedUntil.After(now) {
		return Grant{}, CooldownError{BlockedUntil: record.BlockedUntil.UTC()}
	}

	if rules.NeedsDailyReset(record.LastResetAt, now) {
		if _, err := s.quotaStore.ResetIfNeeded(ctx, subjectID, rules.LastMidnightUTC(now)); err != nil {
			return Grant{}, fmt.Errorf("reset unlock quota: %w", err)
		}
	}

	if claim == nil {
		dailyCount, err := s.quotaStore.ConsumeFree(ctx, subjectID, s.cfg.FreeDailyLimit)
		if err == nil {
			grant, err := s.issue(movieID, subjectID)
			if err != nil {
				return Grant{}, err
			}
			remaining := s.cfg.FreeDailyLimit - dailyCount
			if remaining < 0 {
				remaining = 0
			}
			grant.UsedFreeQuota = true
			grant.RemainingFree = &remaining
			return grant, nil
		}
		if !errors.Is(err, pgrepo.ErrFreeLimitReached) {
			return Grant{}, fmt.Errorf("consume free unlock: %w", err)
		}
		return Grant{}, ErrQuotaExhausted
	}

	err = s.claims.VerifyCompletion(ctx, subjectID, movieID, *claim)
	switch {
	case err == nil:
		if err := s.quotaStore.StampMonetized(ctx, subjectID); err != nil {
			return Grant{}, fmt.Errorf("stamp monetized unlock: %w", err)
		}
		grant, err := s.issue(movieID, subjectID)
		if err != nil {
			return Grant{}, err
		}
		grant.Monetized = true
		return grant, nil
	case errors.Is(err, adssvc.ErrUnknownAdKind):
		// Unrecognized claim falls through to exhaustion, not to the free path.
		return Grant{}, ErrQuotaExhausted
	case errors.Is(err, adssvc.ErrValidation):
		return Grant{}, ErrValidation
	default:
		return Grant{}, fmt.Errorf("verify ad completion: %w", err)
	}
}

// ValidateUnlock releases a movie's download links for a valid token. Token
// failures propagate unchanged from the codec.
func (s *Service) ValidateUnlock(ctx context.Context, movieID, rawToken string) ([]model.DownloadLink, error) {
	if strings.TrimSpace(movieID) == "" {
		return nil, ErrValidation
	}
	if s.codec == nil || s.movieStore == nil {
		return nil, ErrDependenciesNil
	}

	claims, err := s.codec.Verify(rawToken)
	if err != nil {
		return nil, err
	}
	if claims.MovieID != movieID {
		return nil, ErrResourceMismatch
	}

	if s.cfg.SingleUse && s.consumed != nil {
		ttl := claims.ExpiresAt.Sub(s.now().UTC())
		if ttl <= 0 {
			return nil, tokensvc.ErrExpired
		}
		ok, err := s.consumed.MarkConsumed(ctx, claims.Fingerprint, ttl)
		if err != nil {
			return nil, fmt.Errorf("mark token consumed: %w", err)
		}
		if !ok {
			return nil, ErrTokenConsumed
		}
	}

	movie, err := s.movieStore.GetByID(ctx, movieID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrMovieNotFound) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("load movie: %w", err)
	}
	if !movie.Published {
		return nil, ErrNotPublished
	}

	return movie.Links, nil
}

// SetCooldown blocks every unlock for a subject until the given moment. It is
// an admin action against abusive clients.
func (s *Service) SetCooldown(ctx context.Context, subjectID string, until time.Time) error {
	if strings.TrimSpace(subjectID) == "" || until.IsZero() {
		return ErrValidation
	}
	if s.quotaStore == nil {
		return ErrDependenciesNil
	}

	utc := until.UTC()
	if err := s.quotaStore.SetBlockedUntil(ctx, subjectID, &utc); err != nil {
		return fmt.Errorf("set unlock cooldown: %w", err)
	}
	return nil
}

func (s *Service) ClearCooldown(ctx context.Context, subjectID string) error {
	if strings.TrimSpace(subjectID) == "" {
		return ErrValidation
	}
	if s.quotaStore == nil {
		return ErrDependenciesNil
	}

	if err := s.quotaStore.SetBlockedUntil(ctx, subjectID, nil); err != nil {
		return fmt.Errorf("clear unlock cooldown: %w", err)
	}
	return nil
}

func (s *Service) issue(movieID, subjectID string) (Grant, error) {
	raw, expiresAt, err := s.codec.Issue(movieID, subjectID, s.cfg.TokenTTL)
	if err != nil {
		if errors.Is(err, tokensvc.ErrValidation) {
			return Grant{}, ErrValidation
		}
		return Grant{}, fmt.Errorf("issue unlock token: %w", err)
	}

	expiresIn := int64(s.cfg.TokenTTL / time.Second)
	return Grant{
		Token:        raw,
		ExpiresAt:    expiresAt,
		ExpiresInSec: expiresIn,
	}, nil
}

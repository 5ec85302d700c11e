package adminauth

import (
	"context"
	"crypto/hmac"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	redrepo "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/repo/redis"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrSessionExpired = errors.New("admin session expired")
	ErrUnavailable    = errors.New("admin auth is unavailable")
)

type SessionStore interface {
	Create(ctx context.Context, sid string, idleTimeout time.Duration) error
	Touch(ctx context.Context, sid string, idleTimeout time.Duration) error
	Delete(ctx context.Context, sid string) error
}

// Service exchanges the deployment's admin secret for a short-lived access
// token bound to a redis session, and validates those tokens on admin routes.
type Service struct {
	adminSecret []byte
	jwtSecret   []byte
	accessTTL   time.Duration
	idleTimeout time.Duration
	sessions    SessionStore
	now         func() time.Time
}

type Claims struct {
	SID       string
	ExpiresAt time.Time
}

type tokenClaims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

func NewService(adminSecret string, accessTTL, idleTimeout time.Duration, sessions SessionStore) *Service {
	if accessTTL <= 0 {
		accessTTL = 30 * time.Minute
	}
	if idleTimeout <= 0 {
		idleTimeout = 30 * time.Minute
	}

	secret := strings.TrimSpace(adminSecret)
	return &Service{
		adminSecret: []byte(secret),
		jwtSecret:   []byte(secret),
		accessTTL:   accessTTL,
		idleTimeout: idleTimeout,
		sessions:    sessions,
		now:         time.Now,
	}
}

func (s *Service) IsConfigured() bool {
	return s != nil && len(s.adminSecret) > 0 && s.sessions != nil
}

func (s *Service) Login(ctx context.Context, secret string) (string, time.Time, error) {
	if !s.IsConfigured() {
		return "", time.Time{}, ErrUnavailable
	}
	if !hmac.Equal([]byte(strings.TrimSpace(secret)), s.adminSecret) {
		return "", time.Time{}, ErrUnauthorized
	}

	sid := uuid.NewString()
	if err := s.sessions.Create(ctx, sid, s.idleTimeout); err != nil {
		return "", time.Time{}, fmt.Errorf("create admin session: %w", err)
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.accessTTL)
	claims := tokenClaims{
		SID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign admin access token: %w", err)
	}

	return signed, expiresAt, nil
}

func (s *Service) ValidateAccessToken(ctx context.Context, raw string) (Claims, error) {
	if !s.IsConfigured() {
		return Claims{}, ErrUnavailable
	}
	if strings.TrimSpace(raw) == "" {
		return Claims{}, ErrUnauthorized
	}

	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(_ *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil || parsed == nil || !parsed.Valid {
		return Claims{}, ErrUnauthorized
	}
	if strings.TrimSpace(claims.SID) == "" || claims.ExpiresAt == nil {
		return Claims{}, ErrUnauthorized
	}

	if err := s.sessions.Touch(ctx, claims.SID, s.idleTimeout); err != nil {
		if errors.Is(err, redrepo.ErrSessionNotFound) {
			return Claims{}, ErrSessionExpired
		}
		return Claims{}, fmt.Errorf("touch admin session: %w", err)
	}

	return Claims{
		SID:       claims.SID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *Service) Logout(ctx context.Context, sid string) error {
	if !s.IsConfigured() {
		return ErrUnavailable
	}
	if strings.TrimSpace(sid) == "" {
		return ErrUnauthorized
	}
	return s.sessions.Delete(ctx, sid)
}

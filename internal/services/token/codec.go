package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dakouloulo802-blip/movie-miniapp-backend/internal/pkg/validate"
)

// payloadDelimiter separates the token fields inside the encoded payload.
// Ids containing it are rejected at issue time, and the signature is
// reassembled from all trailing fields on verify, so no field content can
// corrupt the split.
const payloadDelimiter = "|"

var (
	ErrValidation     = errors.New("validation error")
	ErrMalformedToken = errors.New("malformed token")
	ErrBadSignature   = errors.New("bad token signature")
	ErrExpired        = errors.New("token expired")
)

// Codec issues and verifies compact unlock capability tokens. A token binds
// (movie id, subject id, expiry) under an HMAC-SHA256 trailer and needs no
// server-side state to check.
type Codec struct {
	secret     []byte
	defaultTTL time.Duration
	now        func() time.Time
}

type Claims struct {
	MovieID   string
	SubjectID string
	ExpiresAt time.Time

	// Fingerprint is the token's signature in hex, usable as a consumption
	// key for single-use enforcement.
	Fingerprint string
}

func NewCodec(secret string, defaultTTL time.Duration) *Codec {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}

	return &Codec{
		secret:     []byte(secret),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// WithClock swaps the codec's time source. Intended for tests that need the
// issuing and verifying sides to share a controlled clock.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	if now != nil {
		c.now = now
	}
	return c
}

func (c *Codec) Issue(movieID, subjectID string, ttl time.Duration) (string, time.Time, error) {
	if len(c.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("token signing secret is empty")
	}
	if !validate.SafeTokenField(movieID, payloadDelimiter) || !validate.SafeTokenField(subjectID, payloadDelimiter) {
		return "", time.Time{}, ErrValidation
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	expiresAt := c.now().UTC().Add(ttl)
	payload := strings.Join([]string{
		movieID,
		subjectID,
		strconv.FormatInt(expiresAt.UnixMilli(), 10),
	}, payloadDelimiter)
	signature := c.sign(payload)

	encoded := base64.RawURLEncoding.EncodeToString([]byte(payload + payloadDelimiter + signature))
	return encoded, expiresAt, nil
}

func (c *Codec) Verify(raw string) (Claims, error) {
	if strings.TrimSpace(raw) == "" {
		return Claims{}, ErrMalformedToken
	}

	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return Claims{}, ErrMalformedToken
	}

	parts := strings.Split(string(decoded), payloadDelimiter)
	if len(parts) < 4 {
		return Claims{}, ErrMalformedToken
	}

	movieID := parts[0]
	subjectID := parts[1]
	expiresMillis, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || movieID == "" || subjectID == "" {
		return Claims{}, ErrMalformedToken
	}
	signature := strings.Join(parts[3:], payloadDelimiter)

	payload := strings.Join(parts[:3], payloadDelimiter)
	if !hmac.Equal([]byte(c.sign(payload)), []byte(signature)) {
		return Claims{}, ErrBadSignature
	}

	expiresAt := time.UnixMilli(expiresMillis).UTC()
	if !c.now().UTC().Before(expiresAt) {
		return Claims{}, ErrExpired
	}

	return Claims{
		MovieID:     movieID,
		SubjectID:   subjectID,
		ExpiresAt:   expiresAt,
		Fingerprint: signature,
	}, nil
}

func (c *Codec) sign(payload string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

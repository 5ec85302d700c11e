package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dakouloulo802-blip/movie-miniapp-backend/internal/domain/model"
)

var (
	ErrFreeLimitReached = errors.New("free daily unlock limit reached")
	ErrQuotaNotFound    = errors.New("unlock quota record not found")
)

type QuotaRepo struct {
	pool *pgxpool.Pool
}

func NewQuotaRepo(pool *pgxpool.Pool) *QuotaRepo {
	return &QuotaRepo{pool: pool}
}

// GetOrCreate returns the subject's quota row, inserting a zeroed one on
// first touch. Racing first touches resolve to a single row through the
// store's insert-if-absent.
func (r *QuotaRepo) GetOrCreate(ctx context.Context, subjectID string) (model.UnlockQuota, error) {
	if strings.TrimSpace(subjectID) == "" {
		return model.UnlockQuota{}, fmt.Errorf("subject id is required")
	}
	if r.pool == nil {
		return model.UnlockQuota{}, fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO unlock_quotas (
	subject_id,
	daily_count,
	last_reset_at
) VALUES ($1, 0, NOW())
ON CONFLICT (subject_id) DO NOTHING
`, subjectID); err != nil {
		return model.UnlockQuota{}, fmt.Errorf("create unlock quota: %w", err)
	}

	return r.get(ctx, subjectID)
}

// ResetIfNeeded zeroes the daily counter for rows whose last reset happened
// before the given UTC midnight. Safe to call before every quota check; the
// condition keeps concurrent callers from double-resetting.
func (r *QuotaRepo) ResetIfNeeded(ctx context.Context, subjectID string, midnightUTC time.Time) (model.UnlockQuota, error) {
	if strings.TrimSpace(subjectID) == "" {
		return model.UnlockQuota{}, fmt.Errorf("subject id is required")
	}
	if r.pool == nil {
		return model.UnlockQuota{}, fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `
UPDATE unlock_quotas
SET
	daily_count = 0,
	last_reset_at = NOW()
WHERE subject_id = $1 AND last_reset_at < $2::timestamptz
`, subjectID, midnightUTC.UTC()); err != nil {
		return model.UnlockQuota{}, fmt.Errorf("reset unlock quota: %w", err)
	}

	return r.get(ctx, subjectID)
}

// ConsumeFree atomically takes one free unlock, stamping last_unlock_at.
// The store is the only arbiter: two concurrent consumers cannot both pass
// the limit because the increment is conditional on daily_count < limit.
func (r *QuotaRepo) ConsumeFree(ctx context.Context, subjectID string, limit int) (int, error) {
	if strings.TrimSpace(subjectID) == "" || limit <= 0 {
		return 0, fmt.Errorf("invalid free unlock consume payload")
	}
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var dailyCount int
	err := r.pool.QueryRow(ctx, `
UPDATE unlock_quotas
SET
	daily_count = daily_count + 1,
	last_unlock_at = NOW()
WHERE subject_id = $1 AND daily_count < $2
RETURNING daily_count
`, subjectID, limit).Scan(&dailyCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrFreeLimitReached
		}
		return 0, fmt.Errorf("consume free unlock: %w", err)
	}

	return dailyCount, nil
}

// StampMonetized records a monetized unlock without touching the free counter.
func (r *QuotaRepo) StampMonetized(ctx context.Context, subjectID string) error {
	if strings.TrimSpace(subjectID) == "" {
		return fmt.Errorf("subject id is required")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `
UPDATE unlock_quotas
SET last_unlock_at = NOW()
WHERE subject_id = $1
`, subjectID); err != nil {
		return fmt.Errorf("stamp monetized unlock: %w", err)
	}

	return nil
}

// SetBlockedUntil installs or clears an unlock cooldown for the subject,
// creating the quota row when it does not exist yet.
func (r *QuotaRepo) SetBlockedUntil(ctx context.Context, subjectID string, until *time.Time) error {
	if strings.TrimSpace(subjectID) == "" {
		return fmt.Errorf("subject id is required")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO unlock_quotas (
	subject_id,
	daily_count,
	last_reset_at,
	blocked_until
) VALUES ($1, 0, NOW(), $2)
ON CONFLICT (subject_id) DO UPDATE SET
	blocked_until = EXCLUDED.blocked_until
`, subjectID, until); err != nil {
		return fmt.Errorf("set unlock cooldown: %w", err)
	}

	return nil
}

func (r *QuotaRepo) get(ctx context.Context, subjectID string) (model.UnlockQuota, error) {
	record := model.UnlockQuota{SubjectID: subjectID}
	err := r.pool.QueryRow(ctx, `
SELECT
	daily_count,
	last_reset_at,
	last_unlock_at,
	blocked_until
FROM unlock_quotas
WHERE subject_id = $1
`, subjectID).Scan(
		&record.DailyCount,
		&record.LastResetAt,
		&record.LastUnlockAt,
		&record.BlockedUntil,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.UnlockQuota{}, ErrQuotaNotFound
		}
		return model.UnlockQuota{}, fmt.Errorf("get unlock quota: %w", err)
	}

	return record, nil
}

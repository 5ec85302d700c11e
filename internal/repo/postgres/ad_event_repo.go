package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AdEventRepo struct {
	pool *pgxpool.Pool
}

func NewAdEventRepo(pool *pgxpool.Pool) *AdEventRepo {
	return &AdEventRepo{pool: pool}
}

func (r *AdEventRepo) InsertCompletion(ctx context.Context, subjectID, movieID, kind string, meta map[string]any) error {
	if strings.TrimSpace(subjectID) == "" || strings.TrimSpace(kind) == "" {
		return fmt.Errorf("invalid ad completion payload")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	payload := "{}"
	if len(meta) > 0 {
		raw, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("marshal ad completion meta: %w", err)
		}
		payload = string(raw)
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO ad_events (
	subject_id,
	movie_id,
	kind,
	meta,
	created_at
) VALUES (
	$1,
	NULLIF($2, ''),
	$3,
	$4::jsonb,
	NOW()
)
`, subjectID, movieID, strings.ToLower(strings.TrimSpace(kind)), payload); err != nil {
		return fmt.Errorf("insert ad completion event: %w", err)
	}

	return nil
}

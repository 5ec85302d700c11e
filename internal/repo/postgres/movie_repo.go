package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dakouloulo802-blip/movie-miniapp-backend/internal/domain/model"
)

var ErrMovieNotFound = errors.New("movie not found")

type MovieRepo struct {
	pool *pgxpool.Pool
}

func NewMovieRepo(pool *pgxpool.Pool) *MovieRepo {
	return &MovieRepo{pool: pool}
}

func (r *MovieRepo) GetByID(ctx context.Context, id string) (model.Movie, error) {
	if strings.TrimSpace(id) == "" {
		return model.Movie{}, fmt.Errorf("movie id is required")
	}
	if r.pool == nil {
		return model.Movie{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
SELECT
	id,
	title,
	COALESCE(description, ''),
	COALESCE(poster_url, ''),
	COALESCE(year, 0),
	COALESCE(labels, '{}'),
	COALESCE(links, '[]'::jsonb),
	published,
	COALESCE(source_post_id, ''),
	created_at,
	updated_at
FROM movies
WHERE id = $1
`, id)

	movie, err := scanMovie(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Movie{}, ErrMovieNotFound
		}
		return model.Movie{}, fmt.Errorf("get movie: %w", err)
	}

	return movie, nil
}

// ListPublished returns the public catalog page. Links stay out of this
// query on purpose: the protected payload is only released through a valid
// unlock token.
func (r *MovieRepo) ListPublished(ctx context.Context, limit, offset int) ([]model.Movie, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	if r.pool == nil {
		return []model.Movie{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT
	id,
	title,
	COALESCE(description, ''),
	COALESCE(poster_url, ''),
	COALESCE(year, 0),
	COALESCE(labels, '{}'),
	'[]'::jsonb,
	published,
	COALESCE(source_post_id, ''),
	created_at,
	updated_at
FROM movies
WHERE published = TRUE
ORDER BY updated_at DESC, id
LIMIT $1 OFFSET $2
`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list published movies: %w", err)
	}
	defer rows.Close()

	movies := make([]model.Movie, 0, limit)
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("scan published movie: %w", err)
		}
		movies = append(movies, movie)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate published movies: %w", rows.Err())
	}

	return movies, nil
}

// Upsert writes a movie keyed by id. Used by the admin surface and, through
// the importer, for rows minted from blog posts.
func (r *MovieRepo) Upsert(ctx context.Context, movie model.Movie) error {
	if strings.TrimSpace(movie.ID) == "" || strings.TrimSpace(movie.Title) == "" {
		return fmt.Errorf("invalid movie payload")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	links, err := json.Marshal(movie.Links)
	if err != nil {
		return fmt.Errorf("marshal movie links: %w", err)
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO movies (
	id,
	title,
	description,
	poster_url,
	year,
	labels,
	links,
	published,
	source_post_id,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, NULLIF($9, ''), NOW(), NOW())
ON CONFLICT (id) DO UPDATE SET
	title = EXCLUDED.title,
	description = EXCLUDED.description,
	poster_url = EXCLUDED.poster_url,
	year = EXCLUDED.year,
	labels = EXCLUDED.labels,
	links = EXCLUDED.links,
	published = EXCLUDED.published,
	source_post_id = EXCLUDED.source_post_id,
	updated_at = NOW()
`, movie.ID, movie.Title, movie.Description, movie.PosterURL, movie.Year,
		movie.Labels, string(links), movie.Published, movie.SourcePostID); err != nil {
		return fmt.Errorf("upsert movie: %w", err)
	}

	return nil
}

// IDBySourcePost maps a blog post id to an existing movie id, so re-imports
// update rows instead of minting duplicates.
func (r *MovieRepo) IDBySourcePost(ctx context.Context, sourcePostID string) (string, error) {
	if strings.TrimSpace(sourcePostID) == "" {
		return "", fmt.Errorf("source post id is required")
	}
	if r.pool == nil {
		return "", fmt.Errorf("postgres pool is nil")
	}

	var id string
	err := r.pool.QueryRow(ctx, `
SELECT id FROM movies WHERE source_post_id = $1
`, sourcePostID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrMovieNotFound
		}
		return "", fmt.Errorf("lookup movie by source post: %w", err)
	}

	return id, nil
}

func (r *MovieRepo) SetPublished(ctx context.Context, id string, published bool) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("movie id is required")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE movies
SET published = $2, updated_at = NOW()
WHERE id = $1
`, id, published)
	if err != nil {
		return fmt.Errorf("set movie published: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMovieNotFound
	}

	return nil
}

type movieScanner interface {
	Scan(dest ...any) error
}

func scanMovie(row movieScanner) (model.Movie, error) {
	var (
		movie    model.Movie
		rawLinks []byte
	)
	if err := row.Scan(
		&movie.ID,
		&movie.Title,
		&movie.Description,
		&movie.PosterURL,
		&movie.Year,
		&movie.Labels,
		&rawLinks,
		&movie.Published,
		&movie.SourcePostID,
		&movie.CreatedAt,
		&movie.UpdatedAt,
	); err != nil {
		return model.Movie{}, err
	}

	if len(rawLinks) > 0 {
		if err := json.Unmarshal(rawLinks, &movie.Links); err != nil {
			return model.Movie{}, fmt.Errorf("unmarshal movie links: %w", err)
		}
	}

	return movie, nil
}

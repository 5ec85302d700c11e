package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dakouloulo802-blip/movie-miniapp-backend/internal/domain/model"
	"github.com/dakouloulo802-blip/movie-miniapp-backend/internal/infra/blogger"
	pgrepo "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/repo/postgres"
)

var ErrDependenciesNil = errors.New("sync dependencies are not configured")

type PostSource interface {
	FetchAll(ctx context.Context, maxResults int) ([]blogger.Post, error)
}

type MovieStore interface {
	Upsert(ctx context.Context, movie model.Movie) error
	IDBySourcePost(ctx context.Context, sourcePostID string) (string, error)
}

type PosterStore interface {
	MirrorPoster(ctx context.Context, movieID, sourceURL string) (string, error)
}

type Config struct {
	PageSize      int
	MirrorPosters bool
}

type Result struct {
	Seen        int
	Created     int
	Updated     int
	Skipped     int
	PosterFails int
	Duration    time.Duration
}

// Service imports the blog catalog into the movie store. Posts map to
// movies keyed by source post id, so re-running the import is idempotent.
type Service struct {
	source  PostSource
	movies  MovieStore
	posters PosterStore
	cfg     Config
	now     func() time.Time
}

func NewService(source PostSource, movies MovieStore, cfg Config) *Service {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}

	return &Service{
		source: source,
		movies: movies,
		cfg:    cfg,
		now:    time.Now,
	}
}

// AttachPosterStore enables poster mirroring into object storage.
func (s *Service) AttachPosterStore(store PosterStore) {
	s.posters = store
}

func (s *Service) Run(ctx context.Context) (Result, error) {
	if s.source == nil || s.movies == nil {
		return Result{}, ErrDependenciesNil
	}

	started := s.now()
	posts, err := s.source.FetchAll(ctx, s.cfg.PageSize)
	if err != nil {
		return Result{}, fmt.Errorf("fetch blog posts: %w", err)
	}

	result := Result{Seen: len(posts)}
	for _, post := range posts {
		movie, ok := mapPost(post)
		if !ok {
			result.Skipped++
			continue
		}

		id, err := s.movies.IDBySourcePost(ctx, post.ID)
		switch {
		case err == nil:
			movie.ID = id
			result.Updated++
		case errors.Is(err, pgrepo.ErrMovieNotFound):
			movie.ID = uuid.NewString()
			result.Created++
		default:
			return result, fmt.Errorf("resolve movie for post %s: %w", post.ID, err)
		}

		if s.cfg.MirrorPosters && s.posters != nil && movie.PosterURL != "" {
			mirrored, err := s.posters.MirrorPoster(ctx, movie.ID, movie.PosterURL)
			if err != nil {
				// Keep the source URL; a broken poster must not fail the import.
				result.PosterFails++
			} else {
				movie.PosterURL = mirrored
			}
		}

		if err := s.movies.Upsert(ctx, movie); err != nil {
			return result, fmt.Errorf("upsert movie from post %s: %w", post.ID, err)
		}
	}

	result.Duration = s.now().Sub(started)
	return result, nil
}

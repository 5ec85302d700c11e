package movies

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dakouloulo802-blip/movie-miniapp-backend/internal/domain/model"
	pgrepo "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/repo/postgres"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("movie not found")
)

type Store interface {
	GetByID(ctx context.Context, id string) (model.Movie, error)
	ListPublished(ctx context.Context, limit, offset int) ([]model.Movie, error)
	Upsert(ctx context.Context, movie model.Movie) error
	SetPublished(ctx context.Context, id string, published bool) error
}

// Service is the catalog surface. Public reads never include download links;
// those are released exclusively through unlock validation.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   time.Now,
	}
}

func (s *Service) ListPublished(ctx context.Context, limit, offset int) ([]model.Movie, error) {
	if s.store == nil {
		return nil, fmt.Errorf("movie store is nil")
	}

	items, err := s.store.ListPublished(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list published movies: %w", err)
	}

	for i := range items {
		items[i].Links = nil
	}
	return items, nil
}

// GetPublished returns one published movie with links withheld. Unpublished
// movies are indistinguishable from absent ones on the public surface.
func (s *Service) GetPublished(ctx context.Context, id string) (model.Movie, error) {
	if strings.TrimSpace(id) == "" {
		return model.Movie{}, ErrValidation
	}
	if s.store == nil {
		return model.Movie{}, fmt.Errorf("movie store is nil")
	}

	movie, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgrepo.ErrMovieNotFound) {
			return model.Movie{}, ErrNotFound
		}
		return model.Movie{}, fmt.Errorf("get movie: %w", err)
	}
	if !movie.Published {
		return model.Movie{}, ErrNotFound
	}

	movie.Links = nil
	return movie, nil
}

// AdminUpsert writes a movie from the admin surface, minting an id for new
// entries.
func (s *Service) AdminUpsert(ctx context.Context, movie model.Movie) (model.Movie, error) {
	if strings.TrimSpace(movie.Title) == "" {
		return model.Movie{}, ErrValidation
	}
	if s.store == nil {
		return model.Movie{}, fmt.Errorf("movie store is nil")
	}

	if strings.TrimSpace(movie.ID) == "" {
		movie.ID = uuid.NewString()
	}

	if err := s.store.Upsert(ctx, movie); err != nil {
		return model.Movie{}, fmt.Errorf("upsert movie: %w", err)
	}

	return movie, nil
}

func (s *Service) SetPublished(ctx context.Context, id string, published bool) error {
	if strings.TrimSpace(id) == "" {
		return ErrValidation
	}
	if s.store == nil {
		return fmt.Errorf("movie store is nil")
	}

	if err := s.store.SetPublished(ctx, id, published); err != nil {
		if errors.Is(err, pgrepo.ErrMovieNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("set movie published: %w", err)
	}

	return nil
}

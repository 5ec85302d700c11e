package movies

import (
	"context"
	"errors"
	"testing"

	"github.com/dakouloulo802-blip/movie-miniapp-backend/internal/domain/model"
	pgrepo "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/repo/postgres"
)

type memoryStore struct {
	movies map[string]model.Movie
}

func (s *memoryStore) GetByID(_ context.Context, id string) (model.Movie, error) {
	movie, ok := s.movies[id]
	if !ok {
		return model.Movie{}, pgrepo.ErrMovieNotFound
	}
	return movie, nil
}

func (s *memoryStore) ListPublished(_ context.Context, _, _ int) ([]model.Movie, error) {
	out := make([]model.Movie, 0, len(s.movies))
	for _, movie := range s.movies {
		if movie.Published {
			out = append(out, movie)
		}
	}
	return out, nil
}

func (s *memoryStore) Upsert(_ context.Context, movie model.Movie) error {
	s.movies[movie.ID] = movie
	return nil
}

func (s *memoryStore) SetPublished(_ context.Context, id string, published bool) error {
	movie, ok := s.movies[id]
	if !ok {
		return pgrepo.ErrMovieNotFound
	}
	movie.Published = published
	s.movies[id] = movie
	return nil
}

func newCatalog() *memoryStore {
	return &memoryStore{movies: map[string]model.Movie{
		"pub": {
			ID:        "pub",
			Title:     "Published",
			Published: true,
			Links: []model.DownloadLink{
				{Quality: "1080p", URL: "https://files.example/pub.mkv", SizeMB: 1536},
			},
		},
		"draft": {
			ID:    "draft",
			Title: "Draft",
			Links: []model.DownloadLink{
				{Quality: "720p", URL: "https://files.example/draft.mkv", SizeMB: 700},
			},
		},
	}}
}

func TestListPublishedWithholdsLinks(t *testing.T) {
	svc := NewService(newCatalog())

	items, err := svc.ListPublished(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("list published: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("unexpected item count: got %d want 1", len(items))
	}
	if items[0].ID != "pub" {
		t.Fatalf("unexpected movie: %s", items[0].ID)
	}
	if items[0].Links != nil {
		t.Fatalf("links must not appear in the public listing")
	}
}

func TestGetPublishedHidesDrafts(t *testing.T) {
	svc := NewService(newCatalog())

	if _, err := svc.GetPublished(context.Background(), "draft"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unpublished movie must read as not found, got %v", err)
	}
	if _, err := svc.GetPublished(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing movie must read as not found, got %v", err)
	}

	movie, err := svc.GetPublished(context.Background(), "pub")
	if err != nil {
		t.Fatalf("get published: %v", err)
	}
	if movie.Links != nil {
		t.Fatalf("links must not appear on the public detail view")
	}
}

func TestAdminUpsertMintsID(t *testing.T) {
	store := newCatalog()
	svc := NewService(store)

	movie, err := svc.AdminUpsert(context.Background(), model.Movie{Title: "New Release"})
	if err != nil {
		t.Fatalf("admin upsert: %v", err)
	}
	if movie.ID == "" {
		t.Fatalf("expected a minted id for a new movie")
	}
	if _, ok := store.movies[movie.ID]; !ok {
		t.Fatalf("movie was not stored")
	}

	if _, err := svc.AdminUpsert(context.Background(), model.Movie{}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for empty title, got %v", err)
	}
}

func TestSetPublishedUnknownMovie(t *testing.T) {
	svc := NewService(newCatalog())

	if err := svc.SetPublished(context.Background(), "missing", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := svc.SetPublished(context.Background(), "draft", true); err != nil {
		t.Fatalf("set published: %v", err)
	}
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dakouloulo802-blip/movie-miniapp-backend/internal/domain/model"
	moviessvc "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/services/movies"
	"github.com/dakouloulo802-blip/movie-miniapp-backend/internal/transport/http/dto"
	httperrors "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/transport/http/errors"
)

const (
	defaultCatalogPageSize = 50
	maxCatalogPageSize     = 100
)

type MoviesHandler struct {
	service *moviessvc.Service
}

func NewMoviesHandler(service *moviessvc.Service) *MoviesHandler {
	return &MoviesHandler{service: service}
}

func (h *MoviesHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "MOVIES_SERVICE_UNAVAILABLE", "movies service is unavailable")
		return
	}

	limit, ok := queryInt(r, "limit", defaultCatalogPageSize)
	if !ok || limit <= 0 || limit > maxCatalogPageSize {
		writeBadRequest(w, "VALIDATION_ERROR", "limit must be between 1 and 100")
		return
	}
	offset, ok := queryInt(r, "offset", 0)
	if !ok || offset < 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "offset must be >= 0")
		return
	}

	items, err := h.service.ListPublished(r.Context(), limit, offset)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load movie catalog")
		return
	}

	out := make([]dto.MovieItem, 0, len(items))
	for _, item := range items {
		out = append(out, mapMovieItem(item))
	}

	httperrors.Write(w, http.StatusOK, dto.MovieListResponse{Items: out})
}

func (h *MoviesHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "MOVIES_SERVICE_UNAVAILABLE", "movies service is unavailable")
		return
	}

	movieID := strings.TrimSpace(chi.URLParam(r, "id"))
	movie, err := h.service.GetPublished(r.Context(), movieID)
	if err != nil {
		switch {
		case errors.Is(err, moviessvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid movie id")
		case errors.Is(err, moviessvc.ErrNotFound):
			httperrors.Write(w, http.StatusNotFound, httperrors.APIError{
				Code:    "NOT_FOUND",
				Message: "movie not found",
			})
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to load movie")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, mapMovieItem(movie))
}

func mapMovieItem(movie model.Movie) dto.MovieItem {
	return dto.MovieItem{
		ID:          movie.ID,
		Title:       movie.Title,
		Description: movie.Description,
		PosterURL:   movie.PosterURL,
		Year:        movie.Year,
		Labels:      movie.Labels,
		UpdatedAt:   movie.UpdatedAt.UTC(),
	}
}

func queryInt(r *http.Request, name string, fallback int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dakouloulo802-blip/movie-miniapp-backend/internal/domain/model"
	adminauthsvc "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/services/adminauth"
	moviessvc "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/services/movies"
	syncsvc "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/services/sync"
	unlocksvc "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/services/unlock"
	"github.com/dakouloulo802-blip/movie-miniapp-backend/internal/transport/http/dto"
	httperrors "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/transport/http/errors"
)

type AdminHandler struct {
	auth    *adminauthsvc.Service
	movies  *moviessvc.Service
	unlocks *unlocksvc.Service
	sync    *syncsvc.Service
}

func NewAdminHandler(auth *adminauthsvc.Service, movies *moviessvc.Service, unlocks *unlocksvc.Service) *AdminHandler {
	return &AdminHandler{
		auth:    auth,
		movies:  movies,
		unlocks: unlocks,
	}
}

// AttachSync enables the manual import trigger.
func (h *AdminHandler) AttachSync(service *syncsvc.Service) {
	h.sync = service
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil || !h.auth.IsConfigured() {
		writeInternal(w, "ADMIN_AUTH_UNAVAILABLE", "admin auth is unavailable")
		return
	}

	var payload dto.AdminLoginRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	token, expiresAt, err := h.auth.Login(r.Context(), payload.Secret)
	if err != nil {
		switch {
		case errors.Is(err, adminauthsvc.ErrUnauthorized):
			writeUnauthorized(w, "UNAUTHORIZED", "invalid admin secret")
		case errors.Is(err, adminauthsvc.ErrUnavailable):
			writeInternal(w, "ADMIN_AUTH_UNAVAILABLE", "admin auth is unavailable")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to open admin session")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AdminLoginResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt.UTC(),
	})
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := adminauthsvc.ClaimsFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.auth == nil {
		writeInternal(w, "ADMIN_AUTH_UNAVAILABLE", "admin auth is unavailable")
		return
	}

	if err := h.auth.Logout(r.Context(), claims.SID); err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to close admin session")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *AdminHandler) Sync(w http.ResponseWriter, r *http.Request) {
	if _, ok := adminauthsvc.ClaimsFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.sync == nil {
		writeInternal(w, "SYNC_SERVICE_UNAVAILABLE", "blog sync is not configured")
		return
	}

	result, err := h.sync.Run(r.Context())
	out := dto.SyncResponse{
		Seen:        result.Seen,
		Created:     result.Created,
		Updated:     result.Updated,
		Skipped:     result.Skipped,
		PosterFails: result.PosterFails,
		DurationMS:  result.Duration.Milliseconds(),
	}
	if err != nil {
		out.Error = err.Error()
		httperrors.Write(w, http.StatusBadGateway, out)
		return
	}

	httperrors.Write(w, http.StatusOK, out)
}

func (h *AdminHandler) UpsertMovie(w http.ResponseWriter, r *http.Request) {
	if _, ok := adminauthsvc.ClaimsFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.movies == nil {
		writeInternal(w, "MOVIES_SERVICE_UNAVAILABLE", "movies service is unavailable")
		return
	}

	var payload dto.MovieUpsertRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	movie, err := h.movies.AdminUpsert(r.Context(), model.Movie{
		ID:          strings.TrimSpace(payload.ID),
		Title:       strings.TrimSpace(payload.Title),
		Description: payload.Description,
		PosterURL:   payload.PosterURL,
		Year:        payload.Year,
		Labels:      payload.Labels,
		Links:       payload.Links,
		Published:   payload.Published,
	})
	if err != nil {
		if errors.Is(err, moviessvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "title is required")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to save movie")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MovieUpsertResponse{ID: movie.ID})
}

func (h *AdminHandler) SetPublished(w http.ResponseWriter, r *http.Request) {
	if _, ok := adminauthsvc.ClaimsFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.movies == nil {
		writeInternal(w, "MOVIES_SERVICE_UNAVAILABLE", "movies service is unavailable")
		return
	}

	movieID := strings.TrimSpace(chi.URLParam(r, "id"))
	published := true
	if raw := strings.TrimSpace(r.URL.Query().Get("published")); raw != "" {
		switch raw {
		case "true":
			published = true
		case "false":
			published = false
		default:
			writeBadRequest(w, "VALIDATION_ERROR", "published must be true or false")
			return
		}
	}

	if err := h.movies.SetPublished(r.Context(), movieID, published); err != nil {
		switch {
		case errors.Is(err, moviessvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid movie id")
		case errors.Is(err, moviessvc.ErrNotFound):
			httperrors.Write(w, http.StatusNotFound, httperrors.APIError{
				Code:    "NOT_FOUND",
				Message: "movie not found",
			})
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to update movie")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *AdminHandler) BlockSubject(w http.ResponseWriter, r *http.Request) {
	if _, ok := adminauthsvc.ClaimsFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.unlocks == nil {
		writeInternal(w, "UNLOCK_SERVICE_UNAVAILABLE", "unlock service is unavailable")
		return
	}

	subjectID := strings.TrimSpace(chi.URLParam(r, "id"))

	var payload dto.BlockSubjectRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	if err := h.unlocks.SetCooldown(r.Context(), subjectID, payload.Until); err != nil {
		if errors.Is(err, unlocksvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "subject id and until are required")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to block subject")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *AdminHandler) UnblockSubject(w http.ResponseWriter, r *http.Request) {
	if _, ok := adminauthsvc.ClaimsFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.unlocks == nil {
		writeInternal(w, "UNLOCK_SERVICE_UNAVAILABLE", "unlock service is unavailable")
		return
	}

	subjectID := strings.TrimSpace(chi.URLParam(r, "id"))
	if err := h.unlocks.ClearCooldown(r.Context(), subjectID); err != nil {
		if errors.Is(err, unlocksvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid subject id")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to unblock subject")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

func writeStoreUnavailable(w http.ResponseWriter, message string) {
	httperrors.Write(w, http.StatusServiceUnavailable, httperrors.APIError{
		Code:    "STORE_UNAVAILABLE",
		Message: message,
	})
}

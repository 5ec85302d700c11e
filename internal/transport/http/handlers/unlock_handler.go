package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dakouloulo802-blip/movie-miniapp-backend/internal/domain/model"
	ratesvc "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/services/rate"
	tokensvc "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/services/token"
	unlocksvc "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/services/unlock"
	"github.com/dakouloulo802-blip/movie-miniapp-backend/internal/transport/http/dto"
	httperrors "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/transport/http/errors"
)

type UnlockHandler struct {
	unlocks *unlocksvc.Service
	limiter *ratesvc.Limiter
}

func NewUnlockHandler(unlocks *unlocksvc.Service) *UnlockHandler {
	return &UnlockHandler{unlocks: unlocks}
}

// AttachLimiter enables per-subject throttling on unlock requests.
func (h *UnlockHandler) AttachLimiter(limiter *ratesvc.Limiter) {
	h.limiter = limiter
}

func (h *UnlockHandler) Request(w http.ResponseWriter, r *http.Request) {
	if h.unlocks == nil {
		writeInternal(w, "UNLOCK_SERVICE_UNAVAILABLE", "unlock service is unavailable")
		return
	}

	movieID := strings.TrimSpace(chi.URLParam(r, "id"))
	if movieID == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid movie id")
		return
	}

	var payload dto.UnlockRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	subjectID := strings.TrimSpace(payload.SubjectID)
	if subjectID == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "subject_id is required")
		return
	}

	if h.limiter != nil {
		retryAfter, allowed, err := h.limiter.AllowUnlock(r.Context(), subjectID)
		if err != nil {
			writeStoreUnavailable(w, "failed to check unlock rate")
			return
		}
		if !allowed {
			httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
				Code:          "TOO_FAST",
				Message:       "too many unlock requests",
				RetryAfterSec: retryAfter,
			})
			return
		}
	}

	var claim *model.AdClaim
	if payload.Ad != nil {
		claim = &model.AdClaim{Kind: strings.TrimSpace(payload.Ad.Kind)}
	}

	grant, err := h.unlocks.RequestUnlock(r.Context(), movieID, subjectID, claim)
	if err != nil {
		if cooldown, ok := unlocksvc.IsCooldown(err); ok {
			blockedUntil := cooldown.BlockedUntil
			httperrors.Write(w, http.StatusForbidden, httperrors.UnlockRefusal{
				Reason:       "cooldown",
				BlockedUntil: &blockedUntil,
			})
			return
		}
		switch {
		case errors.Is(err, unlocksvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid unlock request")
		case errors.Is(err, unlocksvc.ErrQuotaExhausted):
			httperrors.Write(w, http.StatusForbidden, httperrors.UnlockRefusal{
				Reason:              "quota_exhausted",
				RequireInterstitial: true,
			})
		case errors.Is(err, unlocksvc.ErrDependenciesNil):
			writeInternal(w, "UNLOCK_SERVICE_UNAVAILABLE", "unlock service is unavailable")
		default:
			writeStoreUnavailable(w, "failed to process unlock request")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UnlockGrantedResponse{
		Granted:       true,
		Token:         grant.Token,
		ExpiresInSec:  grant.ExpiresInSec,
		UsedFreeQuota: grant.UsedFreeQuota,
		RemainingFree: grant.RemainingFree,
		Monetized:     grant.Monetized,
	})
}

func (h *UnlockHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if h.unlocks == nil {
		writeInternal(w, "UNLOCK_SERVICE_UNAVAILABLE", "unlock service is unavailable")
		return
	}

	movieID := strings.TrimSpace(chi.URLParam(r, "id"))
	if movieID == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid movie id")
		return
	}

	var payload dto.ValidateUnlockRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	links, err := h.unlocks.ValidateUnlock(r.Context(), movieID, payload.Token)
	if err != nil {
		status, reason, ok := mapValidateFailure(err)
		if !ok {
			if errors.Is(err, unlocksvc.ErrValidation) {
				writeBadRequest(w, "VALIDATION_ERROR", "invalid validation request")
				return
			}
			writeStoreUnavailable(w, "failed to validate unlock token")
			return
		}
		httperrors.Write(w, status, dto.ValidateUnlockFailure{Reason: reason})
		return
	}

	out := make([]dto.DownloadLinkPayload, 0, len(links))
	for _, link := range links {
		out = append(out, dto.DownloadLinkPayload{
			Quality: link.Quality,
			URL:     link.URL,
			SizeMB:  link.SizeMB,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.ValidateUnlockResponse{
		OK:    true,
		Links: out,
	})
}

func mapValidateFailure(err error) (int, string, bool) {
	switch {
	case errors.Is(err, tokensvc.ErrMalformedToken):
		return http.StatusUnauthorized, "malformed_token", true
	case errors.Is(err, tokensvc.ErrBadSignature):
		return http.StatusUnauthorized, "bad_signature", true
	case errors.Is(err, tokensvc.ErrExpired):
		return http.StatusUnauthorized, "expired", true
	case errors.Is(err, unlocksvc.ErrResourceMismatch):
		return http.StatusForbidden, "resource_mismatch", true
	case errors.Is(err, unlocksvc.ErrTokenConsumed):
		return http.StatusForbidden, "token_consumed", true
	case errors.Is(err, unlocksvc.ErrMovieNotFound):
		return http.StatusNotFound, "not_found", true
	case errors.Is(err, unlocksvc.ErrNotPublished):
		return http.StatusForbidden, "not_published", true
	default:
		return 0, "", false
	}
}

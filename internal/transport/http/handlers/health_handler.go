package handlers

import (
	"net/http"

	httperrors "github.com/dakouloulo802-blip/movie-miniapp-backend/internal/transport/http/errors"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, _ *http.Request) {
	httperrors.Write(w, http.StatusOK, map[string]any{"status": "ok"})
}

package dto

import (
	"time"

	"github.com/dakouloulo802-blip/movie-miniapp-backend/internal/domain/model"
)

type AdminLoginRequest struct {
	Secret string `json:"secret"`
}

type AdminLoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type MovieUpsertRequest struct {
	ID          string               `json:"id,omitempty"`
	Title       string               `json:"title"`
	Description string               `json:"description,omitempty"`
	PosterURL   string               `json:"poster_url,omitempty"`
	Year        int                  `json:"year,omitempty"`
	Labels      []string             `json:"labels,omitempty"`
	Links       []model.DownloadLink `json:"links,omitempty"`
	Published   bool                 `json:"published"`
}

type MovieUpsertResponse struct {
	ID string `json:"id"`
}

type BlockSubjectRequest struct {
	Until time.Time `json:"until"`
}

type SyncResponse struct {
	Seen        int    `json:"seen"`
	Created     int    `json:"created"`
	Updated     int    `json:"updated"`
	Skipped     int    `json:"skipped"`
	PosterFails int    `json:"poster_fails,omitempty"`
	DurationMS  int64  `json:"duration_ms"`
	Error       string `json:"error,omitempty"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

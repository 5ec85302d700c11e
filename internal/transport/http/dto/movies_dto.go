package dto

import "time"

type MovieItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	PosterURL   string    `json:"poster_url,omitempty"`
	Year        int       `json:"year,omitempty"`
	Labels      []string  `json:"labels,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type MovieListResponse struct {
	Items []MovieItem `json:"items"`
}

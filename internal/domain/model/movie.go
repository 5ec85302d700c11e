package model

import "time"

type DownloadLink struct {
	Quality string `json:"quality"`
	URL     string `json:"url"`
	SizeMB  int    `json:"size_mb,omitempty"`
}

type Movie struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description,omitempty"`
	PosterURL    string         `json:"poster_url,omitempty"`
	Year         int            `json:"year,omitempty"`
	Labels       []string       `json:"labels,omitempty"`
	Links        []DownloadLink `json:"links,omitempty"`
	Published    bool           `json:"published"`
	SourcePostID string         `json:"source_post_id,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

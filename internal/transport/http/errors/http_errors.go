package errors

import (
	"encoding/json"
	"net/http"
	"time"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RateLimitError struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	RetryAfterSec int64  `json:"retry_after_sec"`
}

// UnlockRefusal is the structured "granted: false" answer. It carries enough
// state for the client to drive its UI without another round-trip.
type UnlockRefusal struct {
	Granted             bool       `json:"granted"`
	Reason              string     `json:"reason"`
	BlockedUntil        *time.Time `json:"blocked_until,omitempty"`
	RequireInterstitial bool       `json:"require_interstitial,omitempty"`
}

func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

package dto

type AdClaimPayload struct {
	Kind string `json:"kind"`
}

type UnlockRequest struct {
	SubjectID string          `json:"subject_id"`
	Ad        *AdClaimPayload `json:"ad,omitempty"`
}

type UnlockGrantedResponse struct {
	Granted       bool   `json:"granted"`
	Token         string `json:"token"`
	ExpiresInSec  int64  `json:"expires_in_sec"`
	UsedFreeQuota bool   `json:"used_free_quota"`
	RemainingFree *int   `json:"remaining_free,omitempty"`
	Monetized     bool   `json:"monetized,omitempty"`
}

type ValidateUnlockRequest struct {
	Token string `json:"token"`
}

type DownloadLinkPayload struct {
	Quality string `json:"quality"`
	URL     string `json:"url"`
	SizeMB  int    `json:"size_mb,omitempty"`
}

type ValidateUnlockResponse struct {
	OK    bool                  `json:"ok"`
	Links []DownloadLinkPayload `json:"links"`
}

type ValidateUnlockFailure struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason"`
}

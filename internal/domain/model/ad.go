package model

// AdClaim is the client's assertion that an ad was watched to completion.
// The unlock flow only trusts it after the claim verifier has accepted it.
type AdClaim struct {
	Kind string `json:"kind"`
}

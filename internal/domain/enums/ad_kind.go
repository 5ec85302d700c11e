package enums

const (
	AdKindInterstitial = "interstitial"
	AdKindRewarded     = "rewarded"
)

func IsRecognizedAdKind(kind string) bool {
	switch kind {
	case AdKindInterstitial, AdKindRewarded:
		return true
	default:
		return false
	}
}

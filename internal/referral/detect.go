package referral

import (
	"strings"
)

// DetectReferral reports whether any page mentions one of the referral
// document keywords and returns the first keyword found
func DetectReferral(pages []string, keywords []string) (string, bool) {
	for _, page := range pages {
		lower := strings.ToLower(page)
		for _, kw := range keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" && strings.Contains(lower, kw) {
				return kw, true
			}
		}
	}
	return "", false
}

package pipeline

import (
	"net/url"
	"regexp"
	"strings"
)

// excludedPathTokens mark navigation/utility pages that are never listings.
// Exclusion always wins, even when an inclusion token also matches.
var excludedPathTokens = []string{
	"about", "contact", "privacy", "terms", "faq", "help", "login", "register",
}

// includedPathTokens mark URL paths that usually identify a single listing.
var includedPathTokens = []string{
	"listing", "property", "car", "vehicle", "house", "apartment",
	"lot", "auction", "bid", "sale", "hammer", "item",
}

// numericSegment matches per-item identifiers like /12 or /ad/449201.
var numericSegment = regexp.MustCompile(`/\d+`)

// IsListingURL applies the listing-URL classifier: reject any excluded path
// token, then accept on an inclusion token or a numeric path segment. This is
// a precision-over-recall heuristic — a false positive only costs one wasted
// enrichment call.
func IsListingURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	path := strings.ToLower(parsed.Path)

	for _, token := range excludedPathTokens {
		if strings.Contains(path, "/"+token) {
			return false
		}
	}
	for _, token := range includedPathTokens {
		if strings.Contains(path, "/"+token) {
			return true
		}
	}
	return numericSegment.MatchString(path)
}

package crawler

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ValidationError marks a URL rejected before any external call was made.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// blockedHostnames are rejected outright, including cloud metadata endpoints.
var blockedHostnames = map[string]bool{
	"localhost":                true,
	"metadata.google.internal": true,
	"metadata.google.com":      true,
}

// ValidateTargetURL rejects URLs that must never be dispatched to the
// retrieval service: non-HTTP schemes, loopback, private and link-local
// address ranges, and internal hostname suffixes.
func ValidateTargetURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return &ValidationError{Msg: fmt.Sprintf("invalid URL format: %v", err)}
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return &ValidationError{Msg: "only HTTP/HTTPS protocols allowed"}
	}

	hostname := strings.ToLower(parsed.Hostname())
	if hostname == "" {
		return &ValidationError{Msg: "URL has no hostname"}
	}

	if blockedHostnames[hostname] ||
		strings.HasSuffix(hostname, ".local") ||
		strings.HasSuffix(hostname, ".internal") {
		return &ValidationError{Msg: "private/internal URLs not allowed"}
	}

	if ip := net.ParseIP(hostname); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
			ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
			return &ValidationError{Msg: "private/internal URLs not allowed"}
		}
	}

	return nil
}

// NormalizeURL trims whitespace and prefixes https:// when no scheme is
// present, mirroring what operators paste into the admin console.
func NormalizeURL(raw string) string {
	formatted := strings.TrimSpace(raw)
	if formatted == "" {
		return formatted
	}
	if !strings.HasPrefix(formatted, "http://") && !strings.HasPrefix(formatted, "https://") {
		formatted = "https://" + formatted
	}
	return formatted
}

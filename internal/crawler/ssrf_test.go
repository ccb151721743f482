package crawler

import (
	"errors"
	"testing"
)

func TestValidateTargetURL_BlocksInternalTargets(t *testing.T) {
	urls := []string{
		"http://localhost/admin",
		"http://localhost:8080/admin",
		"https://127.0.0.1/secrets",
		"http://10.0.0.5/listing/1",
		"http://172.16.0.1/",
		"http://172.31.255.254/",
		"http://192.168.1.1/router",
		"http://169.254.169.254/latest/meta-data/",
		"http://0.0.0.0/",
		"http://metadata.google.internal/computeMetadata/v1/",
		"http://metadata.google.com/",
		"https://printer.local/jobs",
		"https://db.prod.internal/query",
	}
	for _, u := range urls {
		err := ValidateTargetURL(u)
		if err == nil {
			t.Errorf("ValidateTargetURL(%q) = nil, want rejection", u)
			continue
		}
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("ValidateTargetURL(%q) = %T, want *ValidationError", u, err)
		}
	}
}

func TestValidateTargetURL_RejectsNonHTTPSchemes(t *testing.T) {
	for _, u := range []string{
		"ftp://example.test/file",
		"file:///etc/passwd",
		"gopher://example.test/",
	} {
		if ValidateTargetURL(u) == nil {
			t.Errorf("ValidateTargetURL(%q) = nil, want scheme rejection", u)
		}
	}
}

func TestValidateTargetURL_AllowsPublicHosts(t *testing.T) {
	for _, u := range []string{
		"https://jiji.co.ke/cars",
		"http://example.test/listing/12",
		"https://8.8.8.8/",
	} {
		if err := ValidateTargetURL(u); err != nil {
			t.Errorf("ValidateTargetURL(%q) = %v, want nil", u, err)
		}
	}
}

func TestValidateTargetURL_NoHostname(t *testing.T) {
	if ValidateTargetURL("https:///path-only") == nil {
		t.Error("URL without a hostname should be rejected")
	}
}

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"jiji.co.ke", "https://jiji.co.ke"},
		{"  jiji.co.ke/cars  ", "https://jiji.co.ke/cars"},
		{"http://example.test", "http://example.test"},
		{"https://example.test", "https://example.test"},
		{"", ""},
		{"   ", ""},
	}
	for _, c := range cases {
		if got := NormalizeURL(c.in); got != c.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

package scan

import (
	"fmt"
	"net/url"
	"strings"

	sharedErrors "github.com/khanhnv2901/sitescan/internal/shared/errors"
)

const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
)

// Target is the URL being scanned. It is immutable once constructed.
type Target struct {
	raw    string
	parsed *url.URL
}

// NewTarget parses user input into a Target. Input without an http:// or
// https:// prefix gets https:// prepended, so "example.com" scans
// https://example.com.
func NewTarget(input string) (Target, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Target{}, sharedErrors.ErrEmptyTarget
	}

	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, SchemeHTTP+"://") && !strings.HasPrefix(lower, SchemeHTTPS+"://") {
		raw = SchemeHTTPS + "://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %v", sharedErrors.ErrInvalidTarget, err)
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	if parsed.Hostname() == "" {
		return Target{}, fmt.Errorf("%w: %q has no host", sharedErrors.ErrInvalidTarget, input)
	}
	if strings.ContainsAny(parsed.Host, " \t") {
		return Target{}, fmt.Errorf("%w: %q contains whitespace in host", sharedErrors.ErrInvalidTarget, input)
	}

	return Target{raw: raw, parsed: parsed}, nil
}

// MustTarget is NewTarget for literals known to be valid; it panics otherwise.
func MustTarget(input string) Target {
	t, err := NewTarget(input)
	if err != nil {
		panic(err)
	}
	return t
}

// URL returns the target URL as scanned, scheme included.
func (t Target) URL() string {
	return t.raw
}

// Scheme returns "http" or "https".
func (t Target) Scheme() string {
	if t.parsed == nil {
		return ""
	}
	return t.parsed.Scheme
}

// Domain returns host[:port] exactly as written in the URL.
func (t Target) Domain() string {
	if t.parsed == nil {
		return ""
	}
	return t.parsed.Host
}

// Hostname returns the host without port.
func (t Target) Hostname() string {
	if t.parsed == nil {
		return ""
	}
	return t.parsed.Hostname()
}

// Port returns the explicit port, or "" when the URL has none.
func (t Target) Port() string {
	if t.parsed == nil {
		return ""
	}
	return t.parsed.Port()
}

// IsSecure reports whether the target uses TLS.
func (t Target) IsSecure() bool {
	return t.Scheme() == SchemeHTTPS
}

func (t Target) String() string {
	return t.raw
}

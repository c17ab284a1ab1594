package shortener

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

var customCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,20}$`)

// reservedCodes are first path segments owned by fixed routes, where GET /{code} never matches.
var reservedCodes = map[string]struct{}{
	"analytics": {},
	"api":       {},
	"docs":      {},
	"domains":   {},
	"health":    {},
	"schemas":   {},
	"shorten":   {},
	"track":     {},
}

// Reserved reports whether code collides with a fixed route, ignoring case.
func Reserved(code string) bool {
	_, ok := reservedCodes[strings.ToLower(code)]

	return ok
}

// ValidateURL checks that rawURL is an absolute http or https URL and returns it trimmed.
func ValidateURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", ErrMissingURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if (scheme != "http" && scheme != "https") || u.Host == "" {
		return "", ErrInvalidURL
	}

	return rawURL, nil
}

// ValidateCode checks a caller-requested short code.
func ValidateCode(code string) error {
	if !customCodePattern.MatchString(code) {
		return ErrInvalidCode
	}

	if Reserved(code) {
		return ErrReservedCode
	}

	return nil
}

// ParseExpiry parses an optional RFC 3339 expiry. An empty string means no expiry.
func ParseExpiry(raw string, now time.Time) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidExpiry, err)
	}

	if !t.After(now) {
		return nil, ErrInvalidExpiry
	}

	t = t.UTC()

	return &t, nil
}

// ShortURL builds the public URL for a code on the given host.
// Hosts on localhost are served over plain http.
func ShortURL(host string, code Code) string {
	scheme := "https"
	if strings.Contains(host, "localhost") {
		scheme = "http"
	}

	return fmt.Sprintf("%s://%s/%s", scheme, host, code)
}

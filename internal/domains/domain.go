package domains

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Method is the DNS mechanism that proved ownership of a domain.
type Method string

const (
	MethodARecord Method = "A_RECORD"
	MethodCNAME   Method = "CNAME"
	MethodTXT     Method = "TXT"
	MethodNone    Method = "NONE"
)

const (
	// TXTPrefix is the label queried for TXT challenges: _verification.<hostname>.
	TXTPrefix = "_verification."
	// TXTValuePrefix prefixes the challenge code in the TXT record value.
	TXTValuePrefix = "shortener-verification="
)

var hostnamePattern = regexp.MustCompile(
	`^(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`,
)

// Domain is a custom hostname owned by an organization.
type Domain struct {
	ID               uuid.UUID
	OrganizationID   uuid.UUID
	Hostname         string
	VerificationCode string // empty until a TXT challenge is issued
	Method           Method
	Attempts         int
	LastAttemptAt    *time.Time
	VerifiedAt       *time.Time
	Active           bool
	CreatedAt        time.Time
}

// Usable reports whether links may be created on the domain.
func (d *Domain) Usable() bool {
	return d.VerifiedAt != nil
}

// TXTHost returns the name queried for the TXT challenge.
func (d *Domain) TXTHost() string {
	return TXTPrefix + d.Hostname
}

// TXTValue returns the record value expected for the stored challenge code.
func (d *Domain) TXTValue() string {
	if d.VerificationCode == "" {
		return ""
	}

	return TXTValuePrefix + d.VerificationCode
}

// NormalizeHostname lowercases and trims a hostname, rejecting invalid syntax.
func NormalizeHostname(raw string) (string, error) {
	hostname := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(raw)), ".")
	if len(hostname) > 253 || !hostnamePattern.MatchString(hostname) {
		return "", ErrInvalidHostname
	}

	return hostname, nil
}

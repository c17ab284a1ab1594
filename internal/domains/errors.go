package domains

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("domain not found")
	ErrInvalidHostname = errors.New("invalid domain format")
	ErrDomainExists    = errors.New("domain already exists")
	ErrInUse           = errors.New("domain is referenced by short links")

	errVerifiedElsewhere = fmt.Errorf("%w: verified by another organization", ErrDomainExists)
)

// InUseError reports how many links still reference a domain.
type InUseError struct {
	Links int64
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("domain is used by %d short url(s)", e.Links)
}

func (e *InUseError) Unwrap() error {
	return ErrInUse
}

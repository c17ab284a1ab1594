package shortener

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("short link not found")
	ErrExpired             = errors.New("short link expired")
	ErrInactive            = errors.New("short link inactive")
	ErrMissingURL          = errors.New("url is required")
	ErrInvalidURL          = errors.New("url must be an absolute http or https url")
	ErrInvalidCode         = errors.New("custom code must be 3-20 letters, digits, hyphens or underscores")
	ErrInvalidExpiry       = errors.New("expiry must be a future RFC 3339 timestamp")
	ErrInvalidDomain       = errors.New("domain not found or not verified for organization")
	ErrCodeConflict        = errors.New("short code already in use")
	ErrGenerationExhausted = errors.New("could not generate a free short code")

	// ErrReservedCode is an ErrInvalidCode naming a path served by a fixed route.
	ErrReservedCode = fmt.Errorf("%w: reserved path", ErrInvalidCode)
)

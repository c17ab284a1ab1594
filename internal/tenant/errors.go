package tenant

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("organization not found")
	ErrMissingAPIKey        = errors.New("api key required")
	ErrInvalidAPIKey        = errors.New("invalid api key")
	ErrSubscriptionInactive = errors.New("subscription inactive")
	ErrLimitExceeded        = errors.New("monthly url limit exceeded")
)

// LimitExceededError carries the configured limit for user messaging.
type LimitExceededError struct {
	Limit int64
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("monthly url limit of %d reached", e.Limit)
}

func (e *LimitExceededError) Unwrap() error {
	return ErrLimitExceeded
}

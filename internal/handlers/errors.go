package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlinks/internal/domains"
	"github.com/serroba/shortlinks/internal/shortener"
	"github.com/serroba/shortlinks/internal/tenant"
	"go.uber.org/zap"
)

// Stable machine-readable error codes returned in the error envelope.
const (
	CodeBadRequest           = "BAD_REQUEST"
	CodeValidation           = "VALIDATION_ERROR"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeNotFound             = "NOT_FOUND"
	CodeRateLimitExceeded    = "RATE_LIMIT_EXCEEDED"
	CodeServerError          = "SERVER_ERROR"
	CodeMissingAPIKey        = "MISSING_API_KEY"
	CodeInvalidAPIKey        = "INVALID_API_KEY"
	CodeSubscriptionInactive = "SUBSCRIPTION_INACTIVE"
	CodeLimitExceeded        = "LIMIT_EXCEEDED"
	CodeMissingURL           = "MISSING_URL"
	CodeInvalidURL           = "INVALID_URL"
	CodeInvalidCustomCode    = "INVALID_CUSTOM_CODE"
	CodeInvalidDomain        = "INVALID_DOMAIN"
	CodeInvalidExpiry        = "INVALID_EXPIRY"
	CodeCodeExists           = "CODE_EXISTS"
	CodeMissingCode          = "MISSING_CODE"
	CodeURLNotFound          = "URL_NOT_FOUND"
	CodeMissingDomain        = "MISSING_DOMAIN"
	CodeDomainExists         = "DOMAIN_EXISTS"
	CodeDomainNotFound       = "DOMAIN_NOT_FOUND"
	CodeDomainInUse          = "DOMAIN_IN_USE"
)

// APIError is the error envelope shared by every JSON endpoint.
type APIError struct {
	Status  int    `json:"-"`
	Success bool   `json:"success"`
	Title   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.Status
}

func newAPIError(status int, code, message string) *APIError {
	return &APIError{
		Status:  status,
		Title:   http.StatusText(status),
		Code:    code,
		Message: message,
	}
}

var statusCodes = map[int]string{
	http.StatusBadRequest:          CodeBadRequest,
	http.StatusUnauthorized:        CodeUnauthorized,
	http.StatusNotFound:            CodeNotFound,
	http.StatusUnprocessableEntity: CodeValidation,
	http.StatusTooManyRequests:     CodeRateLimitExceeded,
}

// UseErrorEnvelope makes errors produced by huma itself (validation, middleware
// rejections) use the APIError envelope.
func UseErrorEnvelope() {
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		code, ok := statusCodes[status]
		if !ok {
			code = CodeServerError
		}

		message := msg

		if status == http.StatusUnprocessableEntity {
			for _, err := range errs {
				if err != nil {
					message = fmt.Sprintf("%s: %s", msg, err.Error())

					break
				}
			}
		}

		return newAPIError(status, code, message)
	}
}

// toAPIError maps domain errors to the envelope. The second return is false
// when err is unexpected and should be logged as a server error.
func toAPIError(err error) (*APIError, bool) {
	var (
		limitErr *tenant.LimitExceededError
		inUseErr *domains.InUseError
	)

	switch {
	case errors.Is(err, tenant.ErrMissingAPIKey):
		return newAPIError(http.StatusUnauthorized, CodeMissingAPIKey, "API key is required"), true
	case errors.Is(err, tenant.ErrInvalidAPIKey):
		return newAPIError(http.StatusUnauthorized, CodeInvalidAPIKey, "Invalid API key"), true
	case errors.Is(err, tenant.ErrSubscriptionInactive):
		return newAPIError(http.StatusForbidden, CodeSubscriptionInactive, "Subscription is not active"), true
	case errors.As(err, &limitErr):
		return newAPIError(http.StatusForbidden, CodeLimitExceeded,
			fmt.Sprintf("Monthly URL limit of %d reached", limitErr.Limit)), true
	case errors.Is(err, tenant.ErrLimitExceeded):
		return newAPIError(http.StatusForbidden, CodeLimitExceeded, "Monthly URL limit reached"), true
	case errors.Is(err, shortener.ErrMissingURL):
		return newAPIError(http.StatusBadRequest, CodeMissingURL, "URL is required"), true
	case errors.Is(err, shortener.ErrInvalidURL):
		return newAPIError(http.StatusBadRequest, CodeInvalidURL, "Invalid URL format"), true
	case errors.Is(err, shortener.ErrReservedCode):
		return newAPIError(http.StatusBadRequest, CodeInvalidCustomCode, "Custom code is a reserved path"), true
	case errors.Is(err, shortener.ErrInvalidCode):
		return newAPIError(http.StatusBadRequest, CodeInvalidCustomCode,
			"Custom code must be 3-20 characters of letters, numbers, hyphens or underscores"), true
	case errors.Is(err, shortener.ErrInvalidExpiry):
		return newAPIError(http.StatusBadRequest, CodeInvalidExpiry,
			"Expiry must be a future RFC 3339 timestamp"), true
	case errors.Is(err, shortener.ErrInvalidDomain):
		return newAPIError(http.StatusBadRequest, CodeInvalidDomain,
			"Domain not found or not verified"), true
	case errors.Is(err, shortener.ErrCodeConflict):
		return newAPIError(http.StatusConflict, CodeCodeExists, "Custom code already exists"), true
	case errors.Is(err, shortener.ErrNotFound):
		return newAPIError(http.StatusNotFound, CodeURLNotFound, "Short URL not found"), true
	case errors.Is(err, domains.ErrInvalidHostname):
		return newAPIError(http.StatusBadRequest, CodeInvalidDomain, "Invalid domain format"), true
	case errors.Is(err, domains.ErrDomainExists):
		return newAPIError(http.StatusConflict, CodeDomainExists, "Domain already exists"), true
	case errors.Is(err, domains.ErrNotFound):
		return newAPIError(http.StatusNotFound, CodeDomainNotFound, "Domain not found"), true
	case errors.As(err, &inUseErr):
		return newAPIError(http.StatusBadRequest, CodeDomainInUse,
			fmt.Sprintf("This domain is being used by %d short URL(s). "+
				"Please update or delete those URLs first.", inUseErr.Links)), true
	default:
		return newAPIError(http.StatusInternalServerError, CodeServerError, "Internal server error"), false
	}
}

// respond converts err to the envelope, logging it when it is not a known domain error.
func respond(logger *zap.Logger, msg string, err error, fields ...zap.Field) error {
	apiErr, known := toAPIError(err)
	if !known {
		logger.Error(msg, append(fields, zap.Error(err))...)
	}

	return apiErr
}

package provider

import (
	"errors"
	"net/http"
	"time"
)

type ErrorKind string

const (
	ErrorInvalidRequest ErrorKind = "invalid_request"
	ErrorAuth           ErrorKind = "auth"
	ErrorQuota          ErrorKind = "quota"
	ErrorRateLimit      ErrorKind = "rate_limit"
	ErrorUnavailable    ErrorKind = "unavailable"
)

type Error struct {
	Kind ErrorKind

	Retryable  bool
	RetryAfter time.Duration

	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return string(e.Kind) + ": " + e.Message
	}

	return string(e.Kind)
}

func NewError(kind ErrorKind, message string) *Error {
	return &Error{
		Kind: kind,

		Retryable: kind == ErrorRateLimit || kind == ErrorUnavailable,

		Message: message,
	}
}

func ErrorFromStatus(code int, message string) *Error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return NewError(ErrorAuth, message)

	case code == http.StatusPaymentRequired:
		return NewError(ErrorQuota, message)

	case code == http.StatusTooManyRequests:
		return NewError(ErrorRateLimit, message)

	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return NewError(ErrorInvalidRequest, message)

	default:
		return NewError(ErrorUnavailable, message)
	}
}

func AsError(err error) (*Error, bool) {
	var e *Error

	if errors.As(err, &e) {
		return e, true
	}

	return nil, false
}

func IsRetryable(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Retryable
	}

	return false
}

// Package common defines shared constants and sentinel errors used across
// client and server layers of DevHabit. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"sort"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal       = errors.New("internal error")
	ErrorUnauthorized   = errors.New("unauthorized")
	ErrorForbidden      = errors.New("forbidden")
	ErrStoreUnavailable = errors.New("store unavailable")

	// Validation errors. *ValidationError matches ErrorValidation via errors.Is.
	ErrorValidation = errors.New("validation failed")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

// ValidationError reports field or rule level rejections, keyed by a stable
// code (e.g. "DuplicateUserName") with a human readable description.
type ValidationError struct {
	Errors map[string]string
}

// NewValidationError builds a ValidationError with a single entry.
func NewValidationError(code, description string) *ValidationError {
	return &ValidationError{Errors: map[string]string{code: description}}
}

// Add records another rejection.
func (e *ValidationError) Add(code, description string) {
	if e.Errors == nil {
		e.Errors = make(map[string]string)
	}
	e.Errors[code] = description
}

// Empty reports whether no rejection was recorded.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Errors) == 0
}

func (e *ValidationError) Error() string {
	codes := make([]string, 0, len(e.Errors))
	for c := range e.Errors {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return ErrorValidation.Error() + ": " + strings.Join(codes, ", ")
}

// Is makes errors.Is(err, ErrorValidation) true for any *ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrorValidation
}

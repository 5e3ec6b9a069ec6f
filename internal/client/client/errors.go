package client

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrNotLoggedIn  = errors.New("not logged in")
)

// ProblemError is a problem document returned by the API.
type ProblemError struct {
	Status    int               `json:"status"`
	Title     string            `json:"title"`
	Detail    string            `json:"detail"`
	RequestID string            `json:"requestId"`
	Errors    map[string]string `json:"errors"`
}

func (e *ProblemError) Error() string {
	msg := fmt.Sprintf("%d %s", e.Status, e.Title)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if len(e.Errors) > 0 {
		codes := make([]string, 0, len(e.Errors))
		for c := range e.Errors {
			codes = append(codes, c)
		}
		sort.Strings(codes)
		msg += " (" + strings.Join(codes, ", ") + ")"
	}
	return msg
}

// Unwrap maps the HTTP status to one of the package sentinels.
func (e *ProblemError) Unwrap() error {
	switch {
	case e.Status == http.StatusBadRequest:
		return ErrValidation
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.Status == http.StatusForbidden:
		return ErrForbidden
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status >= http.StatusInternalServerError:
		return ErrUnavailable
	}
	return nil
}

// Package client contains the CLI's HTTP client for the DevHabit API.
//
// HTTPClient keeps the current access and refresh token in memory, attaches
// the access token as a bearer credential, and refreshes once when the API
// answers 401 to an authenticated call.
//
// # Error Handling
//
// Problem documents are returned as *ProblemError, which unwraps to one of
// ErrValidation, ErrUnauthorized, ErrForbidden, ErrNotFound or
// ErrUnavailable so callers can match with errors.Is. Transport failures are
// reported as ErrUnavailable.
package client

// Package common contains shared constants and sentinel errors used across
// DevHabit components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer access token.
const AuthorizationHeaderName = "Authorization"

// BearerScheme prefixes the access token in the Authorization header.
const BearerScheme = "Bearer"

// RequestIDHeaderName is echoed on every response so log lines and problem
// documents can be correlated.
const RequestIDHeaderName = "X-Request-ID"

// Role names seeded by the initial migration.
const (
	RoleMember = "Member"
	RoleAdmin  = "Admin"
)

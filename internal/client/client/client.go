package client

import (
	"context"
	"time"
)

// User is the profile returned by GET /users/me.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	CreatedAtUtc time.Time  `json:"createdAtUtc"`
	UpdatedAtUtc *time.Time `json:"updatedAtUtc"`
}

// Client is the CLI's view of the DevHabit API. Implementations keep the
// current token pair between calls.
type Client interface {
	Register(ctx context.Context, email, password, name string) error
	Login(ctx context.Context, email, password string) error
	Refresh(ctx context.Context) error
	Me(ctx context.Context) (*User, error)
	Ping(ctx context.Context) error
	Logout()
	LoggedIn() bool
}

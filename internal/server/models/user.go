package models

import "time"

// User is the application profile linked one-to-one with a Credential
// through IdentityID.
type User struct {
	ID         string
	Name       string
	Email      string
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	IdentityID string
}

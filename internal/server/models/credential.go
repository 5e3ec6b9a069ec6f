package models

import "time"

// Credential is an identity record: the subject of issued access tokens.
type Credential struct {
	ID              string
	Email           string
	NormalizedEmail string
	PasswordHash    string
	CreatedAt       time.Time
}

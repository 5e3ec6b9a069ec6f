package credentials

import (
	"net/mail"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/devhabit/internal/common"
)

// Validation error codes reported by Create.
const (
	CodeInvalidEmail                    = "InvalidEmail"
	CodeDuplicateUserName               = "DuplicateUserName"
	CodePasswordTooShort                = "PasswordTooShort"
	CodePasswordTooLong                 = "PasswordTooLong"
	CodePasswordRequiresDigit           = "PasswordRequiresDigit"
	CodePasswordRequiresLower           = "PasswordRequiresLower"
	CodePasswordRequiresUpper           = "PasswordRequiresUpper"
	CodePasswordRequiresNonAlphanumeric = "PasswordRequiresNonAlphanumeric"
	CodeInvalidRoleName                 = "InvalidRoleName"
)

const (
	minPasswordLength = 6
	// bcrypt only accepts passwords up to 72 bytes.
	maxPasswordLength = 72
	// Matches the email columns of identity.users and dev_habit.users.
	maxEmailLength = 300
)

// NormalizeEmail returns the value stored in the unique normalized_email
// column. Lookups by email are case-insensitive through it.
func NormalizeEmail(email string) string {
	return strings.ToUpper(strings.TrimSpace(email))
}

// Validate checks email syntax and the password policy and returns every
// violation at once, or nil. Create runs it before hashing.
func Validate(email, password string) *common.ValidationError {
	verr := &common.ValidationError{}

	if len(email) > maxEmailLength {
		verr.Add(CodeInvalidEmail, "Email must be at most 300 characters.")
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		verr.Add(CodeInvalidEmail, "Email '"+email+"' is invalid.")
	}

	if len(password) < minPasswordLength {
		verr.Add(CodePasswordTooShort, "Passwords must be at least 6 characters.")
	}
	if len(password) > maxPasswordLength {
		verr.Add(CodePasswordTooLong, "Passwords must be at most 72 bytes.")
	}

	var digit, lower, upper, other bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case !unicode.IsLetter(r):
			other = true
		}
	}

	if !digit {
		verr.Add(CodePasswordRequiresDigit, "Passwords must have at least one digit ('0'-'9').")
	}
	if !lower {
		verr.Add(CodePasswordRequiresLower, "Passwords must have at least one lowercase ('a'-'z').")
	}
	if !upper {
		verr.Add(CodePasswordRequiresUpper, "Passwords must have at least one uppercase ('A'-'Z').")
	}
	if !other {
		verr.Add(CodePasswordRequiresNonAlphanumeric, "Passwords must have at least one non alphanumeric character.")
	}

	if verr.Empty() {
		return nil
	}
	return verr
}

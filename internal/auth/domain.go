package auth

import (
	"errors"
	"time"
)

// ErrEmailTaken is returned when registering an existing email.
var ErrEmailTaken = errors.New("auth: email already registered")

// ErrWeakPassword is returned for passwords shorter than MinPasswordLength.
var ErrWeakPassword = errors.New("auth: password too short")

// MinPasswordLength applies to new accounts.
const MinPasswordLength = 8

// User represents an authenticated user account. Every product and sale
// belongs to one user.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

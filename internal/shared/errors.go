package shared

import "errors"

var (
	// ErrNotFound is returned when a user row does not exist.
	ErrNotFound = errors.New("shared: record not found")
	// ErrInvalidCredentials hides which part of a login was wrong.
	ErrInvalidCredentials = errors.New("shared: invalid email or password")
	// ErrCSRFTokenMissing means the request or session carried no token.
	ErrCSRFTokenMissing = errors.New("shared: csrf token missing")
	// ErrCSRFTokenMismatch means the submitted token failed verification.
	ErrCSRFTokenMismatch = errors.New("shared: csrf token mismatch")
)

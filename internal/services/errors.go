package services

import "errors"

// Failure kinds the handler layer maps to HTTP status codes.
var (
	// ErrDuplicateIdentity marks a signup colliding with an existing
	// username or email.
	ErrDuplicateIdentity = errors.New("username or email already in use")

	// ErrUserNotFound marks a lookup for a user that does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials covers both unknown email and wrong password;
	// callers must not be able to tell the two apart.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTaskNotFound covers both a task id that does not exist and one
	// owned by a different user. The two cases are deliberately
	// indistinguishable so callers cannot probe for other users' tasks.
	ErrTaskNotFound = errors.New("task not found")
)

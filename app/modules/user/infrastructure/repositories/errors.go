package userdb

import "errors"

// Sentinel errors for the user repository layer.
var (
	// ErrNotFound indicates the requested user does not exist, or an
	// UPDATE matched no rows.
	ErrNotFound = errors.New("user record not found")

	// ErrDuplicateEmail indicates the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
)

const constraintUserEmail = "users_email_key"

package userservice

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidDisplayName = errors.New("display name must be 1-64 characters")
	ErrInvalidRole        = errors.New("invalid role")
	// ErrSelfDemotion stops the last step that could lock every admin out.
	ErrSelfDemotion = errors.New("admins cannot remove their own admin role")
)

func isExpected(err error) bool {
	for _, target := range []error{
		ErrUserNotFound, ErrEmailTaken, ErrInvalidEmail,
		ErrInvalidDisplayName, ErrInvalidRole, ErrSelfDemotion,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

package application

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateEmail is returned when registering an email that is already taken.
	ErrDuplicateEmail = errors.New("application: duplicate email")
	// ErrInvalidCredentials is returned when no user matches both email and password.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrInvalidStatus is returned for a reservation status outside the known set.
	ErrInvalidStatus = errors.New("application: invalid reservation status")
)

func notFound(entity, id string) error {
	return fmt.Errorf("%s %q: %w", entity, id, ErrNotFound)
}

func invalidStatus(value string) error {
	return fmt.Errorf("status %q: %w", value, ErrInvalidStatus)
}

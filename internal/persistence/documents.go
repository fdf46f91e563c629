package persistence

import (
	"context"
	"strings"
)

// Logical document names. Each collection is one independent JSON document;
// the current user slot holds a single record or nothing.
const (
	UsersDocument         = "coworkspace_users"
	ReservationsDocument  = "coworkspace_reservations"
	NotificationsDocument = "coworkspace_notifications"
	CurrentUserDocument   = "coworkspace_currentUser"
)

// DocumentStore is the raw durability contract implemented by each backend.
//
// Backends guard a single Get or Put with their own lock, but nothing spans a
// Get followed by a Put. Callers doing read-modify-write on a collection race
// with any other writer of the same collection and the last Put wins.
type DocumentStore interface {
	// Get returns the stored payload and true, or nil and false when the
	// document has never been written.
	Get(ctx context.Context, name string) ([]byte, bool, error)
	// Put replaces the whole document.
	Put(ctx context.Context, name string, payload []byte) error
	// Delete removes the document. Deleting an absent document is not an error.
	Delete(ctx context.Context, name string) error
}

// ValidateName rejects names that cannot be used as a document key.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return ErrInvalidName
	}
	return nil
}

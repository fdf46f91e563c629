package application

import (
	"time"

	"github.com/example/coworkspace/internal/calendar"
)

// User is a registered account. ID and Email never change after registration.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

// ProfileUpdate carries the mutable user fields. Nil pointers leave the field unchanged.
type ProfileUpdate struct {
	Name     *string
	Phone    *string
	Password *string
}

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCanceled  ReservationStatus = "canceled"
)

// ReservationStatuses lists every status in display order.
var ReservationStatuses = []ReservationStatus{StatusPending, StatusConfirmed, StatusCanceled}

// Valid reports whether s is one of the known statuses.
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCanceled:
		return true
	}
	return false
}

// ParseReservationStatus converts a raw value into a status.
func ParseReservationStatus(value string) (ReservationStatus, error) {
	status := ReservationStatus(value)
	if !status.Valid() {
		return "", invalidStatus(value)
	}
	return status, nil
}

// Reservation is a booking of a space for a time window on one day.
type Reservation struct {
	ID        string             `json:"id"`
	UserID    string             `json:"userId"`
	Date      calendar.Date      `json:"date"`
	StartTime calendar.TimeOfDay `json:"startTime"`
	EndTime   calendar.TimeOfDay `json:"endTime"`
	Space     string             `json:"space"`
	Status    ReservationStatus  `json:"status"`
	CreatedAt time.Time          `json:"createdAt"`
}

// ReservationInput captures caller provided reservation fields. The ledger
// does not check that StartTime precedes EndTime or that the space is free.
type ReservationInput struct {
	UserID    string
	Date      calendar.Date
	StartTime calendar.TimeOfDay
	EndTime   calendar.TimeOfDay
	Space     string
}

// Notification is a message addressed to one user.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReservationEventKind distinguishes the ledger changes that produce notifications.
type ReservationEventKind string

const (
	ReservationCreated       ReservationEventKind = "created"
	ReservationStatusChanged ReservationEventKind = "status_changed"
	ReservationDeleted       ReservationEventKind = "deleted"
)

// ReservationEvent describes a ledger change. For ReservationDeleted the
// reservation is a copy of the record as it was before removal.
type ReservationEvent struct {
	Kind        ReservationEventKind
	Reservation Reservation
}

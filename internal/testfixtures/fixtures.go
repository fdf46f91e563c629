package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/coworkspace/internal/application"
	"github.com/example/coworkspace/internal/calendar"
)

var (
	userCounter         uint64
	reservationCounter  uint64
	notificationCounter uint64
)

// ----------------------------- Users -----------------------------

// UserOption configures a generated user.
type UserOption func(*application.User)

// NewUser returns a distinct user with optional overrides.
func NewUser(opts ...UserOption) application.User {
	idx := atomic.AddUint64(&userCounter, 1)
	user := application.User{
		ID:       fmt.Sprintf("user-%03d", idx),
		Email:    fmt.Sprintf("member%03d@example.com", idx),
		Name:     fmt.Sprintf("Member %03d", idx),
		Password: fmt.Sprintf("secret-%03d", idx),
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithUserID overrides the generated id.
func WithUserID(id string) UserOption {
	return func(u *application.User) { u.ID = id }
}

// WithEmail overrides the generated email.
func WithEmail(email string) UserOption {
	return func(u *application.User) { u.Email = email }
}

// WithName overrides the generated name.
func WithName(name string) UserOption {
	return func(u *application.User) { u.Name = name }
}

// WithPassword overrides the generated password.
func WithPassword(password string) UserOption {
	return func(u *application.User) { u.Password = password }
}

// WithPhone sets the phone number.
func WithPhone(phone string) UserOption {
	return func(u *application.User) { u.Phone = phone }
}

// ----------------------------- Reservations -----------------------------

// ReservationOption configures a generated reservation.
type ReservationOption func(*application.Reservation)

// NewReservation returns a pending reservation owned by userID on the
// reference day, from 09:00 to 10:00.
func NewReservation(userID string, opts ...ReservationOption) application.Reservation {
	idx := atomic.AddUint64(&reservationCounter, 1)
	r := application.Reservation{
		ID:        fmt.Sprintf("res-%03d", idx),
		UserID:    userID,
		Date:      ReferenceDay,
		StartTime: calendar.MustTimeOfDay("09:00"),
		EndTime:   calendar.MustTimeOfDay("10:00"),
		Space:     "Desk 1",
		Status:    application.StatusPending,
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// WithReservationID overrides the generated id.
func WithReservationID(id string) ReservationOption {
	return func(r *application.Reservation) { r.ID = id }
}

// OnDate sets the reservation date.
func OnDate(date calendar.Date) ReservationOption {
	return func(r *application.Reservation) { r.Date = date }
}

// OnDay sets the reservation date from a "YYYY-MM-DD" literal.
func OnDay(value string) ReservationOption {
	date, err := calendar.ParseDate(value)
	if err != nil {
		panic(err)
	}
	return OnDate(date)
}

// Between sets the start and end times from "HH:MM" literals.
func Between(start, end string) ReservationOption {
	return func(r *application.Reservation) {
		r.StartTime = calendar.MustTimeOfDay(start)
		r.EndTime = calendar.MustTimeOfDay(end)
	}
}

// ForSpace sets the space name.
func ForSpace(space string) ReservationOption {
	return func(r *application.Reservation) { r.Space = space }
}

// WithStatus sets the status.
func WithStatus(status application.ReservationStatus) ReservationOption {
	return func(r *application.Reservation) { r.Status = status }
}

// CreatedAt sets the creation timestamp.
func CreatedAt(t time.Time) ReservationOption {
	return func(r *application.Reservation) { r.CreatedAt = t }
}

// Input returns the caller supplied fields of r.
func Input(r application.Reservation) application.ReservationInput {
	return application.ReservationInput{
		UserID:    r.UserID,
		Date:      r.Date,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Space:     r.Space,
	}
}

// ----------------------------- Notifications -----------------------------

// NotificationOption configures a generated notification.
type NotificationOption func(*application.Notification)

// NewNotification returns an unread notification owned by userID.
func NewNotification(userID string, opts ...NotificationOption) application.Notification {
	idx := atomic.AddUint64(&notificationCounter, 1)
	n := application.Notification{
		ID:        fmt.Sprintf("note-%03d", idx),
		UserID:    userID,
		Title:     fmt.Sprintf("Notice %03d", idx),
		Message:   "Something happened.",
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Second),
	}
	for _, opt := range opts {
		opt(&n)
	}
	return n
}

// WithNotificationID overrides the generated id.
func WithNotificationID(id string) NotificationOption {
	return func(n *application.Notification) { n.ID = id }
}

// Read marks the notification as read.
func Read() NotificationOption {
	return func(n *application.Notification) { n.Read = true }
}

// PostedAt sets the creation timestamp.
func PostedAt(t time.Time) NotificationOption {
	return func(n *application.Notification) { n.CreatedAt = t }
}

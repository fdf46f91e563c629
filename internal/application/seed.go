package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/coworkspace/internal/calendar"
	"github.com/example/coworkspace/internal/persistence"
)

// Demo account seeded into an empty store.
const (
	DemoEmail    = "demo@example.com"
	DemoPassword = "password"
	DemoName     = "Demo User"
	DemoPhone    = "(555) 123-4567"
)

// Bootstrapper seeds demonstration data on first use.
type Bootstrapper struct {
	users         *persistence.Collection[User]
	reservations  *persistence.Collection[Reservation]
	notifications *persistence.Collection[Notification]
	idGenerator   func() string
	now           func() time.Time
	logger        *slog.Logger
}

// NewBootstrapper constructs a bootstrapper over the three collections.
func NewBootstrapper(users *persistence.Collection[User], reservations *persistence.Collection[Reservation], notifications *persistence.Collection[Notification], idGenerator func() string, now func() time.Time, logger *slog.Logger) *Bootstrapper {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &Bootstrapper{
		users:         users,
		reservations:  reservations,
		notifications: notifications,
		idGenerator:   idGenerator,
		now:           now,
		logger:        defaultLogger(logger),
	}
}

// Seed writes the demo user with reservations and notifications if and only
// if the users collection is empty. It reports whether anything was written.
// Seeded records bypass the ledger, so no notifications or confirmations are
// triggered by them.
func (b *Bootstrapper) Seed(ctx context.Context) (bool, error) {
	logger := serviceLogger(ctx, b.logger, "Bootstrapper", "Seed")

	users, err := b.users.Load(ctx)
	if err != nil {
		return false, err
	}
	if len(users) > 0 {
		logger.DebugContext(ctx, "store already populated", "users", len(users))
		return false, nil
	}

	now := b.now()
	yesterday := now.AddDate(0, 0, -1)
	today := calendar.DateOf(now)
	const day = 24 * time.Hour

	user := User{ID: b.idGenerator(), Email: DemoEmail, Name: DemoName, Password: DemoPassword, Phone: DemoPhone}

	reservation := func(date calendar.Date, start, end, space string, status ReservationStatus, createdAt time.Time) Reservation {
		return Reservation{
			ID:        b.idGenerator(),
			UserID:    user.ID,
			Date:      date,
			StartTime: calendar.MustTimeOfDay(start),
			EndTime:   calendar.MustTimeOfDay(end),
			Space:     space,
			Status:    status,
			CreatedAt: createdAt,
		}
	}
	reservations := []Reservation{
		reservation(today.AddDays(-1), "09:00", "12:00", "Meeting Room A", StatusConfirmed, yesterday.Add(-day)),
		reservation(today, "14:00", "16:00", "Desk 5", StatusConfirmed, now.Add(-day)),
		reservation(today.AddDays(1), "10:00", "15:00", "Meeting Room B", StatusPending, now),
		reservation(today.AddDays(7), "09:00", "17:00", "Private Office 3", StatusPending, now),
	}

	notifications := []Notification{
		{
			ID:        b.idGenerator(),
			UserID:    user.ID,
			Title:     "Welcome to CoworkSpace",
			Message:   "Thank you for creating an account. Start by making your first reservation!",
			CreatedAt: now.Add(-2 * day),
		},
		{
			ID:        b.idGenerator(),
			UserID:    user.ID,
			Title:     "Reservation Confirmed",
			Message:   fmt.Sprintf("Your reservation for Meeting Room A on %s has been confirmed.", today.AddDays(-1).Display()),
			Read:      true,
			CreatedAt: yesterday.Add(-12 * time.Hour),
		},
		{
			ID:        b.idGenerator(),
			UserID:    user.ID,
			Title:     "Reservation Reminder",
			Message:   "Reminder: you have a desk reserved in 1 hour.",
			CreatedAt: now,
		},
	}

	if err := b.users.Save(ctx, []User{user}); err != nil {
		return false, err
	}
	if err := b.reservations.Save(ctx, reservations); err != nil {
		return false, err
	}
	if err := b.notifications.Save(ctx, notifications); err != nil {
		return false, err
	}

	logger.InfoContext(ctx, "demo data seeded", "user_id", user.ID, "reservations", len(reservations), "notifications", len(notifications))
	return true, nil
}

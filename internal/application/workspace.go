package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/coworkspace/internal/persistence"
	"github.com/example/coworkspace/internal/scheduler"
)

// WorkspaceOptions configures NewWorkspace. Zero values fall back to
// production defaults.
type WorkspaceOptions struct {
	AutoConfirmDelay time.Duration
	IDGenerator      func() string
	Now              func() time.Time
	Logger           *slog.Logger
	// Queue receives auto-confirmation jobs. When nil a queue reading Now is created.
	Queue *scheduler.Queue
}

// Workspace wires the directory, ledger and notification log over one
// document store.
type Workspace struct {
	Users         *UserDirectory
	Reservations  *ReservationLedger
	Notifications *NotificationLog
	Bootstrap     *Bootstrapper
	Queue         *scheduler.Queue

	currentUser *persistence.Slot[User]
}

// NewWorkspace builds every service over store.
func NewWorkspace(store persistence.DocumentStore, opts WorkspaceOptions) *Workspace {
	logger := defaultLogger(opts.Logger)
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ids := opts.IDGenerator
	if ids == nil {
		ids = NewID
	}
	delay := opts.AutoConfirmDelay
	if delay <= 0 {
		delay = DefaultAutoConfirmDelay
	}
	queue := opts.Queue
	if queue == nil {
		queue = scheduler.NewQueue(now, logger)
	}

	users := persistence.NewCollection[User](store, persistence.UsersDocument, logger)
	reservations := persistence.NewCollection[Reservation](store, persistence.ReservationsDocument, logger)
	notifications := persistence.NewCollection[Notification](store, persistence.NotificationsDocument, logger)

	directory := NewUserDirectoryWithLogger(users, ids, logger)
	log := NewNotificationLogWithLogger(notifications, ids, now, logger)
	ledger := NewReservationLedgerWithLogger(reservations, directory, log, queue, delay, ids, now, logger)
	directory.CascadeTo(ledger, log)

	return &Workspace{
		Users:         directory,
		Reservations:  ledger,
		Notifications: log,
		Bootstrap:     NewBootstrapper(users, reservations, notifications, ids, now, logger),
		Queue:         queue,
		currentUser:   persistence.NewSlot[User](store, persistence.CurrentUserDocument, logger),
	}
}

// RestoreSession returns a session mirrored to the current user slot of the store.
func (w *Workspace) RestoreSession(ctx context.Context) (*Session, error) {
	return RestoreSession(ctx, w.currentUser)
}

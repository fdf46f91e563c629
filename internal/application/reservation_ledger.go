package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/coworkspace/internal/persistence"
	"github.com/example/coworkspace/internal/scheduler"
)

// DefaultAutoConfirmDelay is how long a new reservation stays pending before
// the ledger confirms it on its own.
const DefaultAutoConfirmDelay = 10 * time.Second

// UserLookup resolves users by id.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (User, error)
}

// EventPublisher receives reservation changes.
type EventPublisher interface {
	Publish(ctx context.Context, event ReservationEvent) error
}

// ConfirmationScheduler defers work until a delay has elapsed.
type ConfirmationScheduler interface {
	Schedule(key string, delay time.Duration, run func(context.Context)) scheduler.JobInfo
}

// ReservationLedger owns the reservation collection and its lifecycle.
type ReservationLedger struct {
	reservations  *persistence.Collection[Reservation]
	users         UserLookup
	events        EventPublisher
	confirmations ConfirmationScheduler
	confirmDelay  time.Duration
	idGenerator   func() string
	now           func() time.Time
	logger        *slog.Logger
}

// NewReservationLedger wires dependencies for the ledger. events and
// confirmations may be nil, in which case no notifications are published and
// reservations stay pending until set explicitly.
func NewReservationLedger(reservations *persistence.Collection[Reservation], users UserLookup, events EventPublisher, confirmations ConfirmationScheduler, confirmDelay time.Duration, idGenerator func() string, now func() time.Time) *ReservationLedger {
	return NewReservationLedgerWithLogger(reservations, users, events, confirmations, confirmDelay, idGenerator, now, nil)
}

// NewReservationLedgerWithLogger constructs a ledger with a specified logger.
func NewReservationLedgerWithLogger(reservations *persistence.Collection[Reservation], users UserLookup, events EventPublisher, confirmations ConfirmationScheduler, confirmDelay time.Duration, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ReservationLedger {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if confirmDelay < 0 {
		confirmDelay = DefaultAutoConfirmDelay
	}
	return &ReservationLedger{
		reservations:  reservations,
		users:         users,
		events:        events,
		confirmations: confirmations,
		confirmDelay:  confirmDelay,
		idGenerator:   idGenerator,
		now:           now,
		logger:        defaultLogger(logger),
	}
}

func (l *ReservationLedger) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, l.logger, "ReservationLedger", operation, attrs...)
}

// Get returns the reservation with id.
func (l *ReservationLedger) Get(ctx context.Context, id string) (Reservation, error) {
	reservations, err := l.reservations.Load(ctx)
	if err != nil {
		return Reservation{}, err
	}
	for _, r := range reservations {
		if r.ID == id {
			return r, nil
		}
	}
	return Reservation{}, notFound("reservation", id)
}

// ListForUser returns the reservations owned by userID in storage order.
// Callers needing an order must sort.
func (l *ReservationLedger) ListForUser(ctx context.Context, userID string) ([]Reservation, error) {
	reservations, err := l.reservations.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Reservation, 0, len(reservations))
	for _, r := range reservations {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListAll returns every reservation in storage order.
func (l *ReservationLedger) ListAll(ctx context.Context) ([]Reservation, error) {
	return l.reservations.Load(ctx)
}

// Create stores a pending reservation, notifies its owner and schedules the
// automatic confirmation. Times and availability are taken as given.
func (l *ReservationLedger) Create(ctx context.Context, input ReservationInput) (reservation Reservation, err error) {
	if l == nil {
		err = fmt.Errorf("ReservationLedger is nil")
		return
	}

	logger := l.loggerWith(ctx, "Create", "user_id", input.UserID)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "failed to create reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("reservation_id", reservation.ID).InfoContext(ctx, "reservation created")
	}()

	if l.users != nil {
		if _, err = l.users.GetUser(ctx, input.UserID); err != nil {
			return
		}
	}

	var reservations []Reservation
	reservations, err = l.reservations.Load(ctx)
	if err != nil {
		return
	}

	created := Reservation{
		ID:        l.idGenerator(),
		UserID:    input.UserID,
		Date:      input.Date,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
		Space:     input.Space,
		Status:    StatusPending,
		CreatedAt: l.now(),
	}
	if err = l.reservations.Save(ctx, append(reservations, created)); err != nil {
		return
	}
	reservation = created

	l.publish(ctx, logger, ReservationEvent{Kind: ReservationCreated, Reservation: reservation})
	if l.confirmations != nil {
		id := reservation.ID
		job := l.confirmations.Schedule("auto-confirm:"+id, l.confirmDelay, func(jobCtx context.Context) {
			l.autoConfirm(jobCtx, id)
		})
		logger.DebugContext(ctx, "auto confirmation scheduled", "job_id", job.ID, "due_at", job.DueAt)
	}
	return
}

// SetStatus overwrites the status of a reservation. Any status may follow any
// other, including canceled back to confirmed.
func (l *ReservationLedger) SetStatus(ctx context.Context, id string, status ReservationStatus) (reservation Reservation, err error) {
	if l == nil {
		err = fmt.Errorf("ReservationLedger is nil")
		return
	}

	logger := l.loggerWith(ctx, "SetStatus", "reservation_id", id, "status", string(status))
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "failed to set reservation status", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation status set")
	}()

	if !status.Valid() {
		err = invalidStatus(string(status))
		return
	}

	reservation, err = l.writeStatus(ctx, id, status)
	if err != nil {
		return
	}
	l.publish(ctx, logger, ReservationEvent{Kind: ReservationStatusChanged, Reservation: reservation})
	return
}

// Cancel deletes the reservation and notifies its owner. This differs from
// SetStatus with StatusCanceled, which keeps the record.
func (l *ReservationLedger) Cancel(ctx context.Context, id string) (err error) {
	if l == nil {
		return fmt.Errorf("ReservationLedger is nil")
	}

	logger := l.loggerWith(ctx, "Cancel", "reservation_id", id)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "failed to cancel reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation canceled")
	}()

	var reservations []Reservation
	reservations, err = l.reservations.Load(ctx)
	if err != nil {
		return
	}

	var removed *Reservation
	remaining := make([]Reservation, 0, len(reservations))
	for i := range reservations {
		if reservations[i].ID == id && removed == nil {
			removed = &reservations[i]
			continue
		}
		remaining = append(remaining, reservations[i])
	}
	if removed == nil {
		err = notFound("reservation", id)
		return
	}

	if err = l.reservations.Save(ctx, remaining); err != nil {
		return
	}
	l.publish(ctx, logger, ReservationEvent{Kind: ReservationDeleted, Reservation: *removed})
	return
}

// PreparePurge plans the removal of every reservation owned by userID.
// Purged reservations are not announced.
func (l *ReservationLedger) PreparePurge(ctx context.Context, userID string) (PurgePlan, error) {
	return preparePurge(ctx, l.reservations, userID, func(r Reservation) string { return r.UserID })
}

// PurgeUser removes every reservation owned by userID without notifying.
func (l *ReservationLedger) PurgeUser(ctx context.Context, userID string) (int, error) {
	plan, err := l.PreparePurge(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := plan.commit(ctx); err != nil {
		return 0, err
	}
	return plan.Removed, nil
}

// autoConfirm runs when the confirmation delay elapses. A reservation that was
// deleted or moved out of pending in the meantime is left alone.
func (l *ReservationLedger) autoConfirm(ctx context.Context, id string) {
	logger := l.loggerWith(ctx, "autoConfirm", "reservation_id", id)

	current, err := l.Get(ctx, id)
	if err != nil {
		logger.DebugContext(ctx, "skipping auto confirmation", "reason", ErrorKind(err))
		return
	}
	if current.Status != StatusPending {
		logger.DebugContext(ctx, "skipping auto confirmation", "reason", "status_changed", "status", string(current.Status))
		return
	}

	confirmed, err := l.writeStatus(ctx, id, StatusConfirmed)
	if err != nil {
		logger.ErrorContext(ctx, "auto confirmation failed", "error", err, "error_kind", ErrorKind(err))
		return
	}
	logger.InfoContext(ctx, "reservation auto confirmed")
	l.publish(ctx, logger, ReservationEvent{Kind: ReservationStatusChanged, Reservation: confirmed})
}

func (l *ReservationLedger) writeStatus(ctx context.Context, id string, status ReservationStatus) (Reservation, error) {
	reservations, err := l.reservations.Load(ctx)
	if err != nil {
		return Reservation{}, err
	}
	for i := range reservations {
		if reservations[i].ID != id {
			continue
		}
		reservations[i].Status = status
		if err := l.reservations.Save(ctx, reservations); err != nil {
			return Reservation{}, err
		}
		return reservations[i], nil
	}
	return Reservation{}, notFound("reservation", id)
}

func (l *ReservationLedger) publish(ctx context.Context, logger *slog.Logger, event ReservationEvent) {
	if l.events == nil {
		return
	}
	if err := l.events.Publish(ctx, event); err != nil {
		logger.ErrorContext(ctx, "failed to publish reservation event", "event", string(event.Kind), "error", err)
	}
}

package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/example/coworkspace/internal/persistence"
)

// NotificationLog owns the notification collection.
type NotificationLog struct {
	notifications *persistence.Collection[Notification]
	idGenerator   func() string
	now           func() time.Time
	logger        *slog.Logger
}

// NewNotificationLog constructs a log over the notifications collection.
func NewNotificationLog(notifications *persistence.Collection[Notification], idGenerator func() string, now func() time.Time) *NotificationLog {
	return NewNotificationLogWithLogger(notifications, idGenerator, now, nil)
}

// NewNotificationLogWithLogger constructs a log with a specified logger.
func NewNotificationLogWithLogger(notifications *persistence.Collection[Notification], idGenerator func() string, now func() time.Time, logger *slog.Logger) *NotificationLog {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &NotificationLog{notifications: notifications, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (l *NotificationLog) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, l.logger, "NotificationLog", operation, attrs...)
}

// Create appends an unread notification for userID.
func (l *NotificationLog) Create(ctx context.Context, userID, title, message string) (Notification, error) {
	notifications, err := l.notifications.Load(ctx)
	if err != nil {
		return Notification{}, err
	}

	n := Notification{
		ID:        l.idGenerator(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		CreatedAt: l.now(),
	}
	if err := l.notifications.Save(ctx, append(notifications, n)); err != nil {
		return Notification{}, err
	}

	l.loggerWith(ctx, "Create", "user_id", userID, "notification_id", n.ID).DebugContext(ctx, "notification created")
	return n, nil
}

// Publish turns a reservation event into a notification for its owner.
func (l *NotificationLog) Publish(ctx context.Context, event ReservationEvent) error {
	title, message := describeEvent(event)
	_, err := l.Create(ctx, event.Reservation.UserID, title, message)
	return err
}

func describeEvent(event ReservationEvent) (title, message string) {
	r := event.Reservation
	switch event.Kind {
	case ReservationCreated:
		return "Reservation Created",
			fmt.Sprintf("Your reservation for %s on %s has been created and is pending confirmation.", r.Space, r.Date.Display())
	case ReservationDeleted:
		return "Reservation Canceled",
			fmt.Sprintf("Your reservation for %s on %s has been canceled.", r.Space, r.Date.Display())
	default:
		return statusTitle(r.Status),
			fmt.Sprintf("Your reservation for %s on %s has been %s.", r.Space, r.Date.Display(), r.Status)
	}
}

func statusTitle(status ReservationStatus) string {
	switch status {
	case StatusConfirmed:
		return "Reservation Confirmed"
	case StatusPending:
		return "Reservation Pending"
	case StatusCanceled:
		return "Reservation Canceled"
	}
	return "Unknown Status"
}

// Get returns the notification with id.
func (l *NotificationLog) Get(ctx context.Context, id string) (Notification, error) {
	notifications, err := l.notifications.Load(ctx)
	if err != nil {
		return Notification{}, err
	}
	for _, n := range notifications {
		if n.ID == id {
			return n, nil
		}
	}
	return Notification{}, notFound("notification", id)
}

// ListForUser returns the notifications of userID, newest first.
func (l *NotificationLog) ListForUser(ctx context.Context, userID string) ([]Notification, error) {
	notifications, err := l.notifications.Load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Notification, 0, len(notifications))
	for _, n := range notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// UnreadCount returns how many notifications of userID are unread.
func (l *NotificationLog) UnreadCount(ctx context.Context, userID string) (int, error) {
	notifications, err := l.notifications.Load(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, n := range notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

// MarkRead flags the notification as read. Marking a read notification again
// returns it unchanged without writing.
func (l *NotificationLog) MarkRead(ctx context.Context, id string) (Notification, error) {
	notifications, err := l.notifications.Load(ctx)
	if err != nil {
		return Notification{}, err
	}

	for i := range notifications {
		if notifications[i].ID != id {
			continue
		}
		if notifications[i].Read {
			return notifications[i], nil
		}
		notifications[i].Read = true
		if err := l.notifications.Save(ctx, notifications); err != nil {
			return Notification{}, err
		}
		return notifications[i], nil
	}
	return Notification{}, notFound("notification", id)
}

// MarkAllReadForUser marks every unread notification of userID as read in a
// single write and returns how many changed.
func (l *NotificationLog) MarkAllReadForUser(ctx context.Context, userID string) (int, error) {
	notifications, err := l.notifications.Load(ctx)
	if err != nil {
		return 0, err
	}

	changed := 0
	for i := range notifications {
		if notifications[i].UserID == userID && !notifications[i].Read {
			notifications[i].Read = true
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}
	if err := l.notifications.Save(ctx, notifications); err != nil {
		return 0, err
	}

	l.loggerWith(ctx, "MarkAllReadForUser", "user_id", userID).InfoContext(ctx, "notifications marked read", "count", changed)
	return changed, nil
}

// Delete removes one notification.
func (l *NotificationLog) Delete(ctx context.Context, id string) error {
	notifications, err := l.notifications.Load(ctx)
	if err != nil {
		return err
	}

	remaining := notifications[:0:0]
	for _, n := range notifications {
		if n.ID != id {
			remaining = append(remaining, n)
		}
	}
	if len(remaining) == len(notifications) {
		return notFound("notification", id)
	}
	return l.notifications.Save(ctx, remaining)
}

// PreparePurge plans the removal of every notification owned by userID.
func (l *NotificationLog) PreparePurge(ctx context.Context, userID string) (PurgePlan, error) {
	return preparePurge(ctx, l.notifications, userID, func(n Notification) string { return n.UserID })
}

// PurgeUser removes every notification owned by userID.
func (l *NotificationLog) PurgeUser(ctx context.Context, userID string) (int, error) {
	plan, err := l.PreparePurge(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := plan.commit(ctx); err != nil {
		return 0, err
	}
	return plan.Removed, nil
}

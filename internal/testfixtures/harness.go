package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/example/coworkspace/internal/application"
	"github.com/example/coworkspace/internal/logging"
	"github.com/example/coworkspace/internal/persistence"
	"github.com/example/coworkspace/internal/persistence/memory"
	"github.com/example/coworkspace/internal/scheduler"
)

// Harness wires a complete workspace on the memory backend with a fake clock
// and predictable identifiers. Auto-confirmation jobs only fire when the test
// advances time through the harness.
type Harness struct {
	Clock     *Clock
	IDs       *Sequence
	Store     *memory.Store
	Queue     *scheduler.Queue
	Workspace *application.Workspace
	Session   *application.Session
	Logger    *slog.Logger

	ctx context.Context
}

// HarnessOption configures a Harness.
type HarnessOption func(*harnessConfig)

type harnessConfig struct {
	delay  time.Duration
	start  time.Time
	logger *slog.Logger
}

// WithAutoConfirmDelay overrides the auto-confirmation delay.
func WithAutoConfirmDelay(d time.Duration) HarnessOption {
	return func(c *harnessConfig) { c.delay = d }
}

// StartingAt sets the initial clock instant.
func StartingAt(t time.Time) HarnessOption {
	return func(c *harnessConfig) { c.start = t }
}

// WithLogger routes workspace logs to logger instead of discarding them.
func WithLogger(logger *slog.Logger) HarnessOption {
	return func(c *harnessConfig) { c.logger = logger }
}

// NewHarness builds a workspace for t.
func NewHarness(t testing.TB, opts ...HarnessOption) *Harness {
	t.Helper()

	cfg := harnessConfig{delay: application.DefaultAutoConfirmDelay}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	clock := NewClock(cfg.start)
	ids := NewSequence("id")
	store := memory.New()
	queue := scheduler.NewQueue(clock.Now, cfg.logger)
	ws := application.NewWorkspace(store, application.WorkspaceOptions{
		AutoConfirmDelay: cfg.delay,
		IDGenerator:      ids.Next,
		Now:              clock.Now,
		Logger:           cfg.logger,
		Queue:            queue,
	})
	session := application.NewSession()

	t.Cleanup(func() { _ = store.Close() })

	ctx := logging.ContextWithLogger(context.Background(), cfg.logger)
	return &Harness{
		Clock:     clock,
		IDs:       ids,
		Store:     store,
		Queue:     queue,
		Workspace: ws,
		Session:   session,
		Logger:    cfg.logger,
		ctx:       application.WithSession(ctx, session),
	}
}

// Context returns a context carrying the harness session and logger.
func (h *Harness) Context() context.Context {
	return h.ctx
}

// Advance moves the clock forward by d and fires every job that came due.
// It returns how many jobs fired.
func (h *Harness) Advance(d time.Duration) int {
	h.Clock.Advance(d)
	return h.Queue.RunDue(h.ctx)
}

// SeedUsers writes users straight to storage.
func (h *Harness) SeedUsers(t testing.TB, users ...application.User) {
	t.Helper()
	seed(t, h, persistence.UsersDocument, users)
}

// SeedReservations writes reservations straight to storage, bypassing the ledger.
func (h *Harness) SeedReservations(t testing.TB, reservations ...application.Reservation) {
	t.Helper()
	seed(t, h, persistence.ReservationsDocument, reservations)
}

// SeedNotifications writes notifications straight to storage.
func (h *Harness) SeedNotifications(t testing.TB, notifications ...application.Notification) {
	t.Helper()
	seed(t, h, persistence.NotificationsDocument, notifications)
}

func seed[T any](t testing.TB, h *Harness, name string, records []T) {
	t.Helper()
	collection := persistence.NewCollection[T](h.Store, name, h.Logger)
	existing, err := collection.Load(h.ctx)
	if err != nil {
		t.Fatalf("load %s: %v", name, err)
	}
	if err := collection.Save(h.ctx, append(existing, records...)); err != nil {
		t.Fatalf("seed %s: %v", name, err)
	}
}

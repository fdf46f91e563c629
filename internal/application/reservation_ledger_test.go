package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/coworkspace/internal/application"
	"github.com/example/coworkspace/internal/calendar"
	"github.com/example/coworkspace/internal/persistence"
	"github.com/example/coworkspace/internal/persistence/memory"
	"github.com/example/coworkspace/internal/scheduler"
	"github.com/example/coworkspace/internal/testfixtures"
)

func newMember(t *testing.T, h *testfixtures.Harness) application.User {
	t.Helper()
	user := testfixtures.NewUser()
	h.SeedUsers(t, user)
	return user
}

func TestReservationLedger_Create(t *testing.T) {
	t.Parallel()

	h := testfixtures.NewHarness(t)
	ctx := h.Context()
	user := newMember(t, h)

	input := application.ReservationInput{
		UserID:    user.ID,
		Date:      calendar.NewDate(2025, time.March, 20),
		StartTime: calendar.MustTimeOfDay("13:00"),
		EndTime:   calendar.MustTimeOfDay("15:30"),
		Space:     "Meeting Room A",
	}
	created, err := h.Workspace.Reservations.Create(ctx, input)
	require.NoError(t, err)
	require.Equal(t, application.StatusPending, created.Status)
	require.Equal(t, h.Clock.Now(), created.CreatedAt)
	require.Equal(t, input.Space, created.Space)

	listed, err := h.Workspace.Reservations.ListForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, []application.Reservation{created}, listed)

	notes, err := h.Workspace.Notifications.ListForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Equal(t, "Reservation Created", notes[0].Title)
	require.Equal(t, "Your reservation for Meeting Room A on 3/20/2025 has been created and is pending confirmation.", notes[0].Message)
	require.False(t, notes[0].Read)

	pending := h.Queue.Pending()
	require.Len(t, pending, 1)
	require.Equal(t, h.Clock.Now().Add(application.DefaultAutoConfirmDelay), pending[0].DueAt)
}

func TestReservationLedger_CreateRequiresExistingUser(t *testing.T) {
	t.Parallel()

	h := testfixtures.NewHarness(t)
	ctx := h.Context()

	_, err := h.Workspace.Reservations.Create(ctx, testfixtures.Input(testfixtures.NewReservation("ghost")))
	require.ErrorIs(t, err, application.ErrNotFound)

	all, err := h.Workspace.Reservations.ListAll(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
	require.Zero(t, h.Queue.Len())
}

func TestReservationLedger_TrustsItsInputs(t *testing.T) {
	t.Parallel()

	h := testfixtures.NewHarness(t)
	ctx := h.Context()
	user := newMember(t, h)

	backwards := testfixtures.NewReservation(user.ID, testfixtures.Between("17:00", "08:00"))
	_, err := h.Workspace.Reservations.Create(ctx, testfixtures.Input(backwards))
	require.NoError(t, err, "end before start is not checked")

	_, err = h.Workspace.Reservations.Create(ctx, testfixtures.Input(backwards))
	require.NoError(t, err, "double booking is not checked")
}

func TestReservationLedger_UnencodableDateLeavesCollectionIntact(t *testing.T) {
	t.Parallel()

	h := testfixtures.NewHarness(t)
	ctx := h.Context()
	user := newMember(t, h)

	_, err := h.Workspace.Reservations.Create(ctx, testfixtures.Input(testfixtures.NewReservation(user.ID, testfixtures.OnDay("2025-01-10"))))
	require.NoError(t, err)

	undated, err := h.Workspace.Reservations.Create(ctx, application.ReservationInput{UserID: user.ID, Space: "Desk 1"})
	require.NoError(t, err, "a zero date is stored as given")

	farFuture := testfixtures.Input(testfixtures.NewReservation(user.ID, testfixtures.OnDate(calendar.Date{Year: 10000, Month: time.January, Day: 1})))
	_, err = h.Workspace.Reservations.Create(ctx, farFuture)
	require.ErrorIs(t, err, calendar.ErrInvalidDate)
	require.Equal(t, "invalid_date", application.ErrorKind(err))

	all, err := h.Workspace.Reservations.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, calendar.NewDate(2025, time.January, 10), all[0].Date)
	require.True(t, all[1].Date.IsZero())
	require.Equal(t, undated.ID, all[1].ID)
	require.Equal(t, 2, h.Queue.Len(), "a rejected reservation schedules nothing")
}

func TestReservationLedger_AutoConfirm(t *testing.T) {
	t.Parallel()

	t.Run("confirms a pending reservation once the delay elapses", func(t *testing.T) {
		t.Parallel()
		h := testfixtures.NewHarness(t)
		ctx := h.Context()
		user := newMember(t, h)

		created, err := h.Workspace.Reservations.Create(ctx, testfixtures.Input(testfixtures.NewReservation(user.ID)))
		require.NoError(t, err)

		require.Zero(t, h.Advance(9*time.Second))
		got, err := h.Workspace.Reservations.Get(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, application.StatusPending, got.Status)

		require.Equal(t, 1, h.Advance(time.Second))
		got, err = h.Workspace.Reservations.Get(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, application.StatusConfirmed, got.Status)

		notes, err := h.Workspace.Notifications.ListForUser(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, notes, 2)
		require.Equal(t, "Reservation Confirmed", notes[0].Title)
	})

	t.Run("does nothing when the reservation was canceled first", func(t *testing.T) {
		t.Parallel()
		h := testfixtures.NewHarness(t)
		ctx := h.Context()
		user := newMember(t, h)

		created, err := h.Workspace.Reservations.Create(ctx, testfixtures.Input(testfixtures.NewReservation(user.ID)))
		require.NoError(t, err)
		require.NoError(t, h.Workspace.Reservations.Cancel(ctx, created.ID))

		require.Equal(t, 1, h.Advance(application.DefaultAutoConfirmDelay), "the job still fires")

		_, err = h.Workspace.Reservations.Get(ctx, created.ID)
		require.ErrorIs(t, err, application.ErrNotFound, "a deleted reservation must not be resurrected")
		notes, err := h.Workspace.Notifications.ListForUser(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, notes, 2, "created and canceled only")
	})

	t.Run("does not override an explicit status change", func(t *testing.T) {
		t.Parallel()
		h := testfixtures.NewHarness(t)
		ctx := h.Context()
		user := newMember(t, h)

		created, err := h.Workspace.Reservations.Create(ctx, testfixtures.Input(testfixtures.NewReservation(user.ID)))
		require.NoError(t, err)
		_, err = h.Workspace.Reservations.SetStatus(ctx, created.ID, application.StatusCanceled)
		require.NoError(t, err)

		h.Advance(time.Minute)
		got, err := h.Workspace.Reservations.Get(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, application.StatusCanceled, got.Status)
	})

	t.Run("honours a configured delay", func(t *testing.T) {
		t.Parallel()
		h := testfixtures.NewHarness(t, testfixtures.WithAutoConfirmDelay(time.Minute))
		ctx := h.Context()
		user := newMember(t, h)

		created, err := h.Workspace.Reservations.Create(ctx, testfixtures.Input(testfixtures.NewReservation(user.ID)))
		require.NoError(t, err)

		h.Advance(application.DefaultAutoConfirmDelay)
		got, _ := h.Workspace.Reservations.Get(ctx, created.ID)
		require.Equal(t, application.StatusPending, got.Status)

		h.Advance(time.Minute)
		got, _ = h.Workspace.Reservations.Get(ctx, created.ID)
		require.Equal(t, application.StatusConfirmed, got.Status)
	})
}

func TestReservationLedger_SetStatus(t *testing.T) {
	t.Parallel()

	h := testfixtures.NewHarness(t)
	ctx := h.Context()
	user := newMember(t, h)
	existing := testfixtures.NewReservation(user.ID,
		testfixtures.OnDay("2025-04-02"),
		testfixtures.ForSpace("Desk 2"),
		testfixtures.WithStatus(application.StatusCanceled),
	)
	h.SeedReservations(t, existing)

	updated, err := h.Workspace.Reservations.SetStatus(ctx, existing.ID, application.StatusConfirmed)
	require.NoError(t, err, "any status may follow any other")
	require.Equal(t, application.StatusConfirmed, updated.Status)

	notes, err := h.Workspace.Notifications.ListForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Equal(t, "Reservation Confirmed", notes[0].Title)
	require.Equal(t, "Your reservation for Desk 2 on 4/2/2025 has been confirmed.", notes[0].Message)

	_, err = h.Workspace.Reservations.SetStatus(ctx, existing.ID, application.ReservationStatus("archived"))
	require.ErrorIs(t, err, application.ErrInvalidStatus)

	_, err = h.Workspace.Reservations.SetStatus(ctx, "missing", application.StatusPending)
	require.ErrorIs(t, err, application.ErrNotFound)

	notes, err = h.Workspace.Notifications.ListForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1, "failed operations must not notify")
}

func TestReservationLedger_CancelDiffersFromSetCanceled(t *testing.T) {
	t.Parallel()

	h := testfixtures.NewHarness(t)
	ctx := h.Context()
	user := newMember(t, h)
	deleted := testfixtures.NewReservation(user.ID, testfixtures.ForSpace("Conference Room"), testfixtures.OnDay("2025-03-14"))
	kept := testfixtures.NewReservation(user.ID)
	h.SeedReservations(t, deleted, kept)

	require.NoError(t, h.Workspace.Reservations.Cancel(ctx, deleted.ID))
	_, err := h.Workspace.Reservations.SetStatus(ctx, kept.ID, application.StatusCanceled)
	require.NoError(t, err)

	_, err = h.Workspace.Reservations.Get(ctx, deleted.ID)
	require.ErrorIs(t, err, application.ErrNotFound)
	got, err := h.Workspace.Reservations.Get(ctx, kept.ID)
	require.NoError(t, err)
	require.Equal(t, application.StatusCanceled, got.Status)

	notes, err := h.Workspace.Notifications.ListForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	messages := []string{notes[0].Message, notes[1].Message}
	require.Contains(t, messages, "Your reservation for Conference Room on 3/14/2025 has been canceled.")

	err = h.Workspace.Reservations.Cancel(ctx, deleted.ID)
	require.ErrorIs(t, err, application.ErrNotFound)
}

type failingPublisher struct{ calls int }

func (p *failingPublisher) Publish(context.Context, application.ReservationEvent) error {
	p.calls++
	return errors.New("notifications unavailable")
}

func TestReservationLedger_PublishFailureDoesNotFailOperation(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	ids := testfixtures.NewSequence("r")
	store := memory.New()
	reservations := persistence.NewCollection[application.Reservation](store, persistence.ReservationsDocument, nil)
	publisher := &failingPublisher{}
	queue := scheduler.NewQueue(clock.Now, nil)
	ledger := application.NewReservationLedger(reservations, nil, publisher, queue, time.Second, ids.Next, clock.Now)

	ctx := context.Background()
	created, err := ledger.Create(ctx, testfixtures.Input(testfixtures.NewReservation("anyone")))
	require.NoError(t, err)
	require.NoError(t, ledger.Cancel(ctx, created.ID))
	require.Equal(t, 2, publisher.calls)
}

func TestReservationLedger_PurgeUser(t *testing.T) {
	t.Parallel()

	h := testfixtures.NewHarness(t)
	ctx := h.Context()
	a, b := newMember(t, h), newMember(t, h)
	h.SeedReservations(t,
		testfixtures.NewReservation(a.ID),
		testfixtures.NewReservation(b.ID),
		testfixtures.NewReservation(a.ID),
	)

	removed, err := h.Workspace.Reservations.PurgeUser(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	removed, err = h.Workspace.Reservations.PurgeUser(ctx, a.ID)
	require.NoError(t, err)
	require.Zero(t, removed)

	notes, err := h.Workspace.Notifications.ListForUser(ctx, a.ID)
	require.NoError(t, err)
	require.Empty(t, notes, "purging does not notify")
}

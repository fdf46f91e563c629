package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/coworkspace/internal/application"
	"github.com/example/coworkspace/internal/testfixtures"
)

func strPtr(s string) *string { return &s }

func TestUserDirectory_Register(t *testing.T) {
	t.Parallel()

	t.Run("rejects an email that is already taken", func(t *testing.T) {
		t.Parallel()
		h := testfixtures.NewHarness(t)
		ctx := h.Context()

		first, err := h.Workspace.Users.Register(ctx, "a@example.com", "Ann", "pw")
		require.NoError(t, err)
		require.NotEmpty(t, first.ID)

		_, err = h.Workspace.Users.Register(ctx, "a@example.com", "Other", "pw2")
		require.ErrorIs(t, err, application.ErrDuplicateEmail)

		users, err := h.Workspace.Users.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 1)
	})

	t.Run("compares emails case sensitively", func(t *testing.T) {
		t.Parallel()
		h := testfixtures.NewHarness(t)
		ctx := h.Context()

		_, err := h.Workspace.Users.Register(ctx, "a@example.com", "Ann", "pw")
		require.NoError(t, err)
		_, err = h.Workspace.Users.Register(ctx, "A@example.com", "Ann", "pw")
		require.NoError(t, err)
	})

	t.Run("stores the phone with the account", func(t *testing.T) {
		t.Parallel()
		h := testfixtures.NewHarness(t)
		ctx := h.Context()

		user, err := h.Workspace.Users.RegisterUser(ctx, application.Registration{
			Email: "p@example.com", Name: "Pia", Password: "pw", Phone: "555-0100",
		})
		require.NoError(t, err)
		require.Equal(t, "555-0100", user.Phone)

		stored, err := h.Workspace.Users.GetUser(ctx, user.ID)
		require.NoError(t, err)
		require.Equal(t, user, stored)

		_, err = h.Workspace.Users.RegisterUser(ctx, application.Registration{Email: "p@example.com", Phone: "555-0199"})
		require.ErrorIs(t, err, application.ErrDuplicateEmail)
	})
}

func TestUserDirectory_Authenticate(t *testing.T) {
	t.Parallel()

	h := testfixtures.NewHarness(t)
	ctx := h.Context()
	user, err := h.Workspace.Users.Register(ctx, "b@example.com", "Ben", "correct")
	require.NoError(t, err)

	_, err = h.Workspace.Users.Authenticate(ctx, "b@example.com", "wrong")
	require.ErrorIs(t, err, application.ErrInvalidCredentials)
	_, ok := h.Session.Current()
	require.False(t, ok, "failed login must not set the session")

	_, err = h.Workspace.Users.Authenticate(ctx, "nobody@example.com", "correct")
	require.ErrorIs(t, err, application.ErrInvalidCredentials)

	got, err := h.Workspace.Users.Authenticate(ctx, "b@example.com", "correct")
	require.NoError(t, err)
	require.Equal(t, user, got)

	current, ok := h.Session.Current()
	require.True(t, ok)
	require.Equal(t, user.ID, current.ID)

	require.NoError(t, h.Workspace.Users.EndSession(ctx))
	_, ok = h.Session.Current()
	require.False(t, ok)

	users, err := h.Workspace.Users.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1, "ending a session must not remove data")
}

func TestUserDirectory_AuthenticateWithoutSession(t *testing.T) {
	t.Parallel()

	h := testfixtures.NewHarness(t)
	_, err := h.Workspace.Users.Register(h.Context(), "c@example.com", "Cy", "pw")
	require.NoError(t, err)

	user, err := h.Workspace.Users.Authenticate(context.Background(), "c@example.com", "pw")
	require.NoError(t, err)
	require.Equal(t, "Cy", user.Name)
	require.NoError(t, h.Workspace.Users.EndSession(context.Background()))
}

func TestUserDirectory_UpdateProfile(t *testing.T) {
	t.Parallel()

	h := testfixtures.NewHarness(t)
	ctx := h.Context()
	user, err := h.Workspace.Users.Register(ctx, "d@example.com", "Dee", "pw")
	require.NoError(t, err)
	_, err = h.Workspace.Users.Authenticate(ctx, "d@example.com", "pw")
	require.NoError(t, err)

	updated, err := h.Workspace.Users.UpdateProfile(ctx, user.ID, application.ProfileUpdate{
		Name:  strPtr("Dana"),
		Phone: strPtr("555-0100"),
	})
	require.NoError(t, err)
	require.Equal(t, user.ID, updated.ID)
	require.Equal(t, "d@example.com", updated.Email)
	require.Equal(t, "Dana", updated.Name)
	require.Equal(t, "555-0100", updated.Phone)
	require.Equal(t, "pw", updated.Password)

	current, ok := h.Session.Current()
	require.True(t, ok)
	require.Equal(t, "Dana", current.Name, "session must be refreshed")

	_, err = h.Workspace.Users.UpdateProfile(ctx, "missing", application.ProfileUpdate{Name: strPtr("x")})
	require.ErrorIs(t, err, application.ErrNotFound)
}

func TestUserDirectory_UpdateProfileLeavesOtherSessionAlone(t *testing.T) {
	t.Parallel()

	h := testfixtures.NewHarness(t)
	ctx := h.Context()
	_, err := h.Workspace.Users.Register(ctx, "e@example.com", "Eve", "pw")
	require.NoError(t, err)
	other, err := h.Workspace.Users.Register(ctx, "f@example.com", "Fay", "pw")
	require.NoError(t, err)
	_, err = h.Workspace.Users.Authenticate(ctx, "e@example.com", "pw")
	require.NoError(t, err)

	_, err = h.Workspace.Users.UpdateProfile(ctx, other.ID, application.ProfileUpdate{Password: strPtr("new")})
	require.NoError(t, err)

	current, _ := h.Session.Current()
	require.Equal(t, "Eve", current.Name)
	_, err = h.Workspace.Users.Authenticate(ctx, "f@example.com", "new")
	require.NoError(t, err)
}

func TestUserDirectory_DeleteUserCascades(t *testing.T) {
	t.Parallel()

	h := testfixtures.NewHarness(t)
	ctx := h.Context()

	victim := testfixtures.NewUser()
	bystander := testfixtures.NewUser()
	h.SeedUsers(t, victim, bystander)
	h.SeedReservations(t,
		testfixtures.NewReservation(victim.ID),
		testfixtures.NewReservation(victim.ID),
		testfixtures.NewReservation(victim.ID),
		testfixtures.NewReservation(bystander.ID),
	)
	h.SeedNotifications(t,
		testfixtures.NewNotification(victim.ID),
		testfixtures.NewNotification(victim.ID),
		testfixtures.NewNotification(bystander.ID),
	)
	_, err := h.Workspace.Users.Authenticate(ctx, victim.Email, victim.Password)
	require.NoError(t, err)

	require.NoError(t, h.Workspace.Users.DeleteUser(ctx, victim.ID))

	_, err = h.Workspace.Users.GetUser(ctx, victim.ID)
	require.ErrorIs(t, err, application.ErrNotFound)
	_, ok := h.Session.Current()
	require.False(t, ok, "session pointing at the deleted user must be cleared")

	all, err := h.Workspace.Reservations.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, bystander.ID, all[0].UserID)

	left, err := h.Workspace.Notifications.ListForUser(ctx, victim.ID)
	require.NoError(t, err)
	require.Empty(t, left)
	kept, err := h.Workspace.Notifications.ListForUser(ctx, bystander.ID)
	require.NoError(t, err)
	require.Len(t, kept, 1, "account deletion must not notify anyone")

	err = h.Workspace.Users.DeleteUser(ctx, victim.ID)
	require.ErrorIs(t, err, application.ErrNotFound)
}

type failingPurger struct{}

func (failingPurger) PreparePurge(context.Context, string) (application.PurgePlan, error) {
	return application.PurgePlan{}, errors.New("disk full")
}

// failingCommit prepares cleanly and fails when its plan is written.
type failingCommit struct{}

func (failingCommit) PreparePurge(context.Context, string) (application.PurgePlan, error) {
	return application.PurgePlan{
		Removed: 1,
		Commit:  func(context.Context) error { return errors.New("disk full") },
	}, nil
}

func seedOwnedRecords(t *testing.T, h *testfixtures.Harness, user application.User) {
	t.Helper()
	h.SeedReservations(t,
		testfixtures.NewReservation(user.ID),
		testfixtures.NewReservation(user.ID),
	)
	h.SeedNotifications(t,
		testfixtures.NewNotification(user.ID),
		testfixtures.NewNotification(user.ID),
	)
}

func requireRecordsKept(t *testing.T, h *testfixtures.Harness, user application.User) {
	t.Helper()
	ctx := h.Context()

	_, err := h.Workspace.Users.GetUser(ctx, user.ID)
	require.NoError(t, err, "user must survive a failed cascade")
	reservations, err := h.Workspace.Reservations.ListForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, reservations, 2, "reservations must survive a failed cascade")
	notifications, err := h.Workspace.Notifications.ListForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 2, "notifications must survive a failed cascade")
}

func TestUserDirectory_DeleteUserStopsOnPurgeFailure(t *testing.T) {
	t.Parallel()

	h := testfixtures.NewHarness(t)
	ctx := h.Context()
	user := testfixtures.NewUser()
	h.SeedUsers(t, user)
	seedOwnedRecords(t, h, user)
	h.Workspace.Users.CascadeTo(failingPurger{})

	err := h.Workspace.Users.DeleteUser(ctx, user.ID)
	require.Error(t, err)
	require.Equal(t, "unexpected", application.ErrorKind(err))

	requireRecordsKept(t, h, user)
}

func TestUserDirectory_DeleteUserRestoresOnCommitFailure(t *testing.T) {
	t.Parallel()

	h := testfixtures.NewHarness(t)
	ctx := h.Context()
	user := testfixtures.NewUser()
	h.SeedUsers(t, user)
	seedOwnedRecords(t, h, user)
	_, err := h.Workspace.Users.Authenticate(ctx, user.Email, user.Password)
	require.NoError(t, err)
	h.Workspace.Users.CascadeTo(failingCommit{})

	err = h.Workspace.Users.DeleteUser(ctx, user.ID)
	require.ErrorContains(t, err, "disk full")

	requireRecordsKept(t, h, user)
	current, ok := h.Session.Current()
	require.True(t, ok, "session stays signed in after a failed delete")
	require.Equal(t, user.ID, current.ID)
}

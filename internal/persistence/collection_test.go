package persistence_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/coworkspace/internal/persistence"
	"github.com/example/coworkspace/internal/persistence/memory"
)

type record struct {
	ID   string `json:"id"`
	Note string `json:"note,omitempty"`
}

func TestCollection_LoadSave(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("never written collection loads empty", func(t *testing.T) {
		t.Parallel()

		coll := persistence.NewCollection[record](memory.New(), "records", nil)
		got, err := coll.Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Empty(t, got)
	})

	t.Run("round trips records losslessly", func(t *testing.T) {
		t.Parallel()

		coll := persistence.NewCollection[record](memory.New(), "records", nil)
		want := []record{{ID: "a", Note: "first"}, {ID: "b"}}
		require.NoError(t, coll.Save(ctx, want))

		got, err := coll.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, want, got)
	})

	t.Run("malformed payload fails open to empty", func(t *testing.T) {
		t.Parallel()

		store := memory.New()
		for _, payload := range []string{`{not json`, `{"id":"a"}`, `[{"id":1}]`} {
			require.NoError(t, store.Put(ctx, "records", []byte(payload)))

			got, err := persistence.NewCollection[record](store, "records", nil).Load(ctx)
			require.NoError(t, err, "payload %s", payload)
			require.Empty(t, got, "payload %s", payload)
		}
	})

	t.Run("save replaces the whole document", func(t *testing.T) {
		t.Parallel()

		coll := persistence.NewCollection[record](memory.New(), "records", nil)
		require.NoError(t, coll.Save(ctx, []record{{ID: "a"}, {ID: "b"}}))
		require.NoError(t, coll.Save(ctx, []record{{ID: "c"}}))

		got, err := coll.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, []record{{ID: "c"}}, got)
	})

	t.Run("backend failures are returned", func(t *testing.T) {
		t.Parallel()

		store := memory.New()
		require.NoError(t, store.Close())

		_, err := persistence.NewCollection[record](store, "records", nil).Load(ctx)
		require.True(t, errors.Is(err, persistence.ErrClosed), "got %v", err)
	})
}

func TestSlot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := memory.New()
	slot := persistence.NewSlot[record](store, "current", nil)

	_, ok, err := slot.Get(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, slot.Set(ctx, record{ID: "u-1"}))
	got, ok, err := slot.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "u-1", got.ID)

	require.NoError(t, slot.Clear(ctx))
	_, ok, err = slot.Get(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Put(ctx, "current", []byte(`[1,2]`)))
	_, ok, err = slot.Get(ctx)
	require.NoError(t, err)
	require.False(t, ok, "malformed slot must read as absent")
}

func TestValidateName(t *testing.T) {
	t.Parallel()

	require.NoError(t, persistence.ValidateName(persistence.UsersDocument))
	for _, name := range []string{"", "  ", "../etc", `a\b`, "a/b"} {
		require.ErrorIs(t, persistence.ValidateName(name), persistence.ErrInvalidName, "name %q", name)
	}
}

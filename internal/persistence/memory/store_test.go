package memory

import (
	"context"
	"testing"
)

func TestStore_CopiesPayloads(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := New()
	payload := []byte(`[1]`)
	if err := store.Put(ctx, "doc", payload); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	payload[1] = '2'

	got, ok, err := store.Get(ctx, "doc")
	if err != nil || !ok {
		t.Fatalf("Get returned ok=%v err=%v", ok, err)
	}
	if string(got) != `[1]` {
		t.Fatalf("expected stored copy to be isolated from caller, got %s", got)
	}

	got[1] = '3'
	again, _, _ := store.Get(ctx, "doc")
	if string(again) != `[1]` {
		t.Fatalf("expected returned copy to be isolated from store, got %s", again)
	}
}

func TestStore_DeleteAndNames(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := New()
	for _, name := range []string{"b", "a"} {
		if err := store.Put(ctx, name, []byte(`[]`)); err != nil {
			t.Fatalf("Put(%s) returned error: %v", name, err)
		}
	}
	if names := store.Names(); len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("unexpected names %v", names)
	}

	if err := store.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := store.Delete(ctx, "missing"); err != nil {
		t.Fatalf("deleting an absent document should succeed, got %v", err)
	}
	if _, ok, _ := store.Get(ctx, "a"); ok {
		t.Fatalf("expected deleted document to be absent")
	}
}

func TestStore_HonoursContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := New().Put(ctx, "doc", []byte(`[]`)); err == nil {
		t.Fatalf("expected cancelled context to abort Put")
	}
}

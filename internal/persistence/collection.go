package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/example/coworkspace/internal/logging"
)

// Collection reads and writes a named sequence of records as one JSON array.
//
// Decoding is fail-open: a payload that is not a valid array of T is treated
// as an absent collection and Load returns an empty slice with a nil error.
// Storage corruption therefore resets the collection instead of blocking the
// application. Backend read failures are still returned.
type Collection[T any] struct {
	store  DocumentStore
	name   string
	logger *slog.Logger
}

// NewCollection binds a typed collection to a document name.
func NewCollection[T any](store DocumentStore, name string, logger *slog.Logger) *Collection[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collection[T]{store: store, name: name, logger: logger}
}

// Name returns the document name backing the collection.
func (c *Collection[T]) Name() string {
	return c.name
}

// Load returns every record in the collection.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	payload, ok, err := c.store.Get(ctx, c.name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", c.name, err)
	}
	if !ok || isEmptyPayload(payload) {
		return []T{}, nil
	}

	var records []T
	if err := json.Unmarshal(payload, &records); err != nil {
		c.loggerFor(ctx).WarnContext(ctx, "discarding malformed collection", "document", c.name, "error", err)
		return []T{}, nil
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

// Save replaces the collection with records.
func (c *Collection[T]) Save(ctx context.Context, records []T) error {
	if records == nil {
		records = []T{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.name, err)
	}
	if err := c.store.Put(ctx, c.name, payload); err != nil {
		return fmt.Errorf("save %s: %w", c.name, err)
	}
	return nil
}

func (c *Collection[T]) loggerFor(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return c.logger
}

// Slot stores at most one record under a document name.
// Like Collection, a malformed payload reads as absent.
type Slot[T any] struct {
	store  DocumentStore
	name   string
	logger *slog.Logger
}

// NewSlot binds a typed single-value slot to a document name.
func NewSlot[T any](store DocumentStore, name string, logger *slog.Logger) *Slot[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Slot[T]{store: store, name: name, logger: logger}
}

// Get returns the stored value and true, or the zero value and false when the
// slot is empty or unreadable.
func (s *Slot[T]) Get(ctx context.Context) (T, bool, error) {
	var zero T
	payload, ok, err := s.store.Get(ctx, s.name)
	if err != nil {
		return zero, false, fmt.Errorf("load %s: %w", s.name, err)
	}
	if !ok || isEmptyPayload(payload) {
		return zero, false, nil
	}

	var value T
	if err := json.Unmarshal(payload, &value); err != nil {
		logger := logging.FromContext(ctx)
		if logger == nil {
			logger = s.logger
		}
		logger.WarnContext(ctx, "discarding malformed slot", "document", s.name, "error", err)
		return zero, false, nil
	}
	return value, true, nil
}

// Set replaces the slot value.
func (s *Slot[T]) Set(ctx context.Context, value T) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.name, err)
	}
	if err := s.store.Put(ctx, s.name, payload); err != nil {
		return fmt.Errorf("save %s: %w", s.name, err)
	}
	return nil
}

// Clear empties the slot.
func (s *Slot[T]) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.name); err != nil {
		return fmt.Errorf("clear %s: %w", s.name, err)
	}
	return nil
}

func isEmptyPayload(payload []byte) bool {
	trimmed := bytes.TrimSpace(payload)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

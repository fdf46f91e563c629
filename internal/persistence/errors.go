package persistence

import "errors"

var (
	// ErrInvalidName is returned when a document name is empty or unsafe for the backend.
	ErrInvalidName = errors.New("persistence: invalid document name")
	// ErrClosed is returned when a backend is used after Close.
	ErrClosed = errors.New("persistence: store closed")
)

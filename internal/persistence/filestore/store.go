// Package filestore persists each document as a JSON file inside a data
// directory.
//
// Every file is an envelope holding the document and its BLAKE2b-256 digest.
// An envelope that cannot be decoded, or whose digest does not match, reads as
// an absent document so that a corrupted file resets that collection instead
// of failing the application.
package filestore

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/example/coworkspace/internal/persistence"
)

const fileExt = ".json"

var _ persistence.DocumentStore = (*Store)(nil)

type envelope struct {
	Checksum string          `json:"checksum"`
	Data     json.RawMessage `json:"data"`
}

// Store is a directory of JSON documents.
type Store struct {
	mu     sync.RWMutex
	dir    string
	logger *slog.Logger
}

// Open prepares dir for use, creating it when needed.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("filestore: data directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create data directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// Close is a no-op; files are closed after every operation.
func (s *Store) Close() error {
	return nil
}

// Get reads and verifies the document file.
func (s *Store) Get(ctx context.Context, name string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	path, err := s.pathFor(name)
	if err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	raw, err := os.ReadFile(path)
	s.mu.RUnlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("filestore: read %s: %w", name, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.logger.WarnContext(ctx, "ignoring unreadable document envelope", "document", name, "error", err)
		return nil, false, nil
	}
	if env.Checksum != checksum(env.Data) {
		s.logger.WarnContext(ctx, "ignoring document with checksum mismatch", "document", name)
		return nil, false, nil
	}
	return []byte(env.Data), true, nil
}

// Put writes the document atomically by renaming a synced temporary file over
// the target.
func (s *Store) Put(ctx context.Context, name string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.pathFor(name)
	if err != nil {
		return err
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, payload); err != nil {
		return fmt.Errorf("filestore: %s payload is not valid JSON: %w", name, err)
	}
	data := compact.Bytes()

	var raw bytes.Buffer
	enc := json.NewEncoder(&raw)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(envelope{Checksum: checksum(data), Data: data}); err != nil {
		return fmt.Errorf("filestore: encode %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("filestore: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(raw.Bytes()); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("filestore: write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("filestore: sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("filestore: close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("filestore: replace %s: %w", name, err)
	}
	return nil
}

// Delete removes the document file if present.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.pathFor(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("filestore: delete %s: %w", name, err)
	}
	return nil
}

func (s *Store) pathFor(name string) (string, error) {
	if err := persistence.ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name+fileExt), nil
}

func checksum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

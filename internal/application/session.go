package application

import (
	"context"
	"sync"

	"github.com/example/coworkspace/internal/persistence"
)

type sessionContextKey struct{}

// WithSession returns a derived context carrying session.
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

// SessionFromContext extracts the session previously attached with WithSession.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(sessionContextKey{}).(*Session)
	return session, ok && session != nil
}

// Session tracks the currently authenticated user of one client. A session
// bound to a slot mirrors its state to storage so it survives restarts.
type Session struct {
	mu   sync.RWMutex
	user *User
	slot *persistence.Slot[User]
}

// NewSession returns an empty session held only in memory.
func NewSession() *Session {
	return &Session{}
}

// RestoreSession returns a session backed by slot, populated from whatever the
// slot currently holds.
func RestoreSession(ctx context.Context, slot *persistence.Slot[User]) (*Session, error) {
	s := &Session{slot: slot}
	if slot == nil {
		return s, nil
	}
	user, ok, err := slot.Get(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		s.user = &user
	}
	return s, nil
}

// Current returns the signed in user.
func (s *Session) Current() (User, bool) {
	if s == nil {
		return User{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// IsUser reports whether the session points at userID.
func (s *Session) IsUser(userID string) bool {
	current, ok := s.Current()
	return ok && current.ID == userID
}

func (s *Session) set(ctx context.Context, user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slot != nil {
		if err := s.slot.Set(ctx, user); err != nil {
			return err
		}
	}
	s.user = &user
	return nil
}

func (s *Session) clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slot != nil {
		if err := s.slot.Clear(ctx); err != nil {
			return err
		}
	}
	s.user = nil
	return nil
}

package testfixtures

import (
	"fmt"
	"sync"
)

// Sequence hands out predictable identifiers such as "res-0001".
type Sequence struct {
	mu     sync.Mutex
	prefix string
	issued []string
}

// NewSequence constructs a sequence. An empty prefix becomes "id".
func NewSequence(prefix string) *Sequence {
	if prefix == "" {
		prefix = "id"
	}
	return &Sequence{prefix: prefix}
}

// Next returns the next identifier.
func (s *Sequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("%s-%04d", s.prefix, len(s.issued)+1)
	s.issued = append(s.issued, id)
	return id
}

// NextFunc exposes Next for dependency injection.
func (s *Sequence) NextFunc() func() string {
	if s == nil {
		return func() string { return "" }
	}
	return s.Next
}

// Issued returns every identifier handed out so far, in order.
func (s *Sequence) Issued() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.issued))
	copy(out, s.issued)
	return out
}

// Last returns the most recent identifier, or "" before the first call to Next.
func (s *Sequence) Last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.issued) == 0 {
		return ""
	}
	return s.issued[len(s.issued)-1]
}

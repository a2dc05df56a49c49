package state

import (
	"fmt"
	"strings"
	"sync"
)

// SessionState tracks how far a session has progressed.
type SessionState int

const (
	Uninitialized SessionState = iota
	Identified
	Active
)

func (s SessionState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Identified:
		return "identified"
	case Active:
		return "active"
	}
	return fmt.Sprintf("SessionState(%d)", int(s))
}

// Session holds the identity of the person planting flowers. It moves
// uninitialized -> identified -> active and never changes identity once set.
type Session struct {
	mu       sync.RWMutex
	state    SessionState
	identity Identity
}

func NewSession() *Session {
	return &Session{}
}

// Identify sets the session identity. Setting the same identity again is a
// no-op; setting a different one fails with ErrSessionImmutable.
func (s *Session) Identify(id Identity) error {
	id.Name = strings.TrimSpace(id.Name)
	if id.ID == "" || id.Name == "" {
		return fmt.Errorf("identify: name and id are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Uninitialized {
		if s.identity == id {
			return nil
		}
		return ErrSessionImmutable
	}
	s.identity = id
	s.state = Identified
	return nil
}

// Activate marks the session live once the garden is loaded and subscribed.
func (s *Session) Activate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Uninitialized:
		return ErrNotIdentified
	case Identified:
		s.state = Active
	}
	return nil
}

// Identity returns the captured identity and whether one is set.
func (s *Session) Identity() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity, s.state != Uninitialized
}

func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

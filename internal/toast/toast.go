// Package toast maintains the per-session queue of transient user-visible
// messages. Messages expire on their own after a fixed display duration or
// earlier when dismissed; duplicate content is allowed and shown separately.
package toast

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DisplayDuration is how long a toast stays visible before auto-expiry.
const DisplayDuration = 5 * time.Second

// Kind classifies a toast for styling.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// Toast is one transient message. The ID is unique even when the same
// message is pushed twice.
type Toast struct {
	ID        string
	Kind      Kind
	Message   string
	ExpiresAt time.Time
}

// Store holds active toasts keyed by session id.
type Store struct {
	mu     sync.Mutex
	active map[string][]Toast
	now    func() time.Time
}

func NewStore() *Store {
	return &Store{
		active: make(map[string][]Toast),
		now:    time.Now,
	}
}

// Push appends a message to the session's queue and returns its identity.
func (s *Store) Push(sessionID string, kind Kind, message string) Toast {
	t := Toast{
		ID:        uuid.New().String(),
		Kind:      kind,
		Message:   message,
		ExpiresAt: s.now().Add(DisplayDuration),
	}

	s.mu.Lock()
	s.active[sessionID] = append(s.active[sessionID], t)
	s.mu.Unlock()
	return t
}

// Active returns the session's unexpired toasts in insertion order, pruning
// anything past its display duration.
func (s *Store) Active(sessionID string) []Toast {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.active[sessionID][:0]
	for _, t := range s.active[sessionID] {
		if t.ExpiresAt.After(now) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(s.active, sessionID)
		return nil
	}
	s.active[sessionID] = kept

	out := make([]Toast, len(kept))
	copy(out, kept)
	return out
}

// Dismiss removes one toast before its expiry.
func (s *Store) Dismiss(sessionID, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	toasts := s.active[sessionID]
	for i, t := range toasts {
		if t.ID == id {
			s.active[sessionID] = append(toasts[:i], toasts[i+1:]...)
			break
		}
	}
	if len(s.active[sessionID]) == 0 {
		delete(s.active, sessionID)
	}
}

// Sweep drops every expired toast across sessions; run on a schedule so
// queues for idle sessions do not linger.
func (s *Store) Sweep() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for sessionID, toasts := range s.active {
		kept := toasts[:0]
		for _, t := range toasts {
			if t.ExpiresAt.After(now) {
				kept = append(kept, t)
			}
		}
		if len(kept) == 0 {
			delete(s.active, sessionID)
			continue
		}
		s.active[sessionID] = kept
	}
}

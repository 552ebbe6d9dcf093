package service

import (
	"sync"

	"github.com/dscprotocol/assistant/internal/domain"
)

// SessionStore keeps per-session conversation history in process memory.
// Histories are append-only, never evicted, and live for the process
// lifetime. The reserved "general" session is shared by all unauthenticated
// callers; interleaving of concurrent general-chat appends follows arrival
// order, which is accepted behavior.
type SessionStore struct {
	mu        sync.Mutex
	histories map[string][]domain.Turn
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		histories: make(map[string][]domain.Turn),
	}
}

// History returns a copy of the ordered turns for the session, creating an
// empty history on first access.
func (s *SessionStore) History(sessionID string) []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns, ok := s.histories[sessionID]
	if !ok {
		s.histories[sessionID] = nil
		return nil
	}

	out := make([]domain.Turn, len(turns))
	copy(out, turns)
	return out
}

// Append records a turn at the end of the session's history.
func (s *SessionStore) Append(sessionID string, role domain.Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.histories[sessionID] = append(s.histories[sessionID], domain.Turn{
		Role:    role,
		Content: content,
	})
}

// Len reports the number of turns recorded for the session.
func (s *SessionStore) Len(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.histories[sessionID])
}

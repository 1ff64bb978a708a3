package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
	"github.com/custodia-labs/glossa-cli/internal/core/ports/driven"
)

// Ensure SessionStore implements the interface.
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore is an in-memory implementation of driven.SessionStore
// for testing. It mirrors the SQLite store's semantics, including
// dense delta sequence numbers and store-assigned event sequences.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	deltas   map[string][]domain.EntityDelta
	events   map[string][]domain.DocEvent
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.Session),
		deltas:   make(map[string][]domain.EntityDelta),
		events:   make(map[string][]domain.DocEvent),
	}
}

// SaveSession stores or updates a session.
func (s *SessionStore) SaveSession(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *session
	return nil
}

// GetSession retrieves a session by ID.
func (s *SessionStore) GetSession(_ context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := session
	return &out, nil
}

// ListSessions returns all sessions, most recently updated first.
func (s *SessionStore) ListSessions(_ context.Context) ([]domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeleteSession removes a session with its deltas and events.
func (s *SessionStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.sessions, id)
	delete(s.deltas, id)
	delete(s.events, id)
	return nil
}

// AppendDelta stores the delta at the given sequence number. Sequence
// numbers are dense, so seq must be exactly one past the current log.
func (s *SessionStore) AppendDelta(_ context.Context, sessionID string, seq int, delta domain.EntityDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log := s.deltas[sessionID]
	if seq != len(log)+1 {
		return fmt.Errorf("delta sequence %d out of order, want %d: %w", seq, len(log)+1, domain.ErrInvalidInput)
	}
	s.deltas[sessionID] = append(log, delta)
	return nil
}

// TruncateDeltas removes every delta with sequence >= fromSeq.
func (s *SessionStore) TruncateDeltas(_ context.Context, sessionID string, fromSeq int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log := s.deltas[sessionID]
	keep := fromSeq - 1
	if keep < 0 {
		keep = 0
	}
	if keep >= len(log) {
		return nil
	}
	s.deltas[sessionID] = append([]domain.EntityDelta(nil), log[:keep]...)
	return nil
}

// ListDeltas returns the session's deltas in sequence order.
func (s *SessionStore) ListDeltas(_ context.Context, sessionID string) ([]domain.EntityDelta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.EntityDelta(nil), s.deltas[sessionID]...), nil
}

// AppendEvent appends to the session's document event trail, assigning
// the next sequence number.
func (s *SessionStore) AppendEvent(_ context.Context, sessionID string, event domain.DocEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event.Seq = uint64(len(s.events[sessionID]) + 1)
	s.events[sessionID] = append(s.events[sessionID], event)
	return nil
}

// ListEvents returns the event trail in sequence order.
func (s *SessionStore) ListEvents(_ context.Context, sessionID string) ([]domain.DocEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.DocEvent(nil), s.events[sessionID]...), nil
}

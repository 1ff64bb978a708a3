package driven

import (
	"context"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
)

// SessionStore persists sessions, their delta logs, and their document
// event trails. Backed by SQLite; an in-memory twin serves tests.
//
// Delta sequence numbers start at 1 and are dense. The log is
// append-only from the store's point of view: a new apply after undo
// first truncates the redo suffix, then appends.
type SessionStore interface {
	// SaveSession stores or updates a session.
	SaveSession(ctx context.Context, session *domain.Session) error

	// GetSession retrieves a session by ID.
	// Returns domain.ErrNotFound for unknown IDs.
	GetSession(ctx context.Context, id string) (*domain.Session, error)

	// ListSessions returns all sessions, most recently updated first.
	ListSessions(ctx context.Context) ([]domain.Session, error)

	// DeleteSession removes a session with its deltas and events.
	DeleteSession(ctx context.Context, id string) error

	// AppendDelta stores the delta at the given sequence number.
	AppendDelta(ctx context.Context, sessionID string, seq int, delta domain.EntityDelta) error

	// TruncateDeltas removes every delta with sequence >= fromSeq.
	TruncateDeltas(ctx context.Context, sessionID string, fromSeq int) error

	// ListDeltas returns the session's deltas in sequence order.
	ListDeltas(ctx context.Context, sessionID string) ([]domain.EntityDelta, error)

	// AppendEvent appends to the session's document event trail.
	AppendEvent(ctx context.Context, sessionID string, event domain.DocEvent) error

	// ListEvents returns the event trail in sequence order.
	ListEvents(ctx context.Context, sessionID string) ([]domain.DocEvent, error)
}

package driving

import (
	"context"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
)

// WorkspaceState is the session snapshot returned by workspace
// operations: the persisted session row plus the current document with
// the replayed entity state folded in.
type WorkspaceState struct {
	// Session is the persisted session.
	Session domain.Session

	// Document is the current document at the session's cursor.
	Document *domain.Document
}

// Workspace orchestrates sessions: opening documents, applying
// mutations through the engine, navigating history, and persisting
// everything through the session store. Both the CLI and the MCP
// server drive the application through this port.
//
// Mutation methods return a *domain.MutationError (unwrapping to
// domain.ErrInvalidMutation) when validation rejects the change;
// the session is untouched in that case.
type Workspace interface {
	// Open parses the file, seeds the history log with the parsed
	// entities, persists a new session, and makes it current.
	Open(ctx context.Context, path string) (*WorkspaceState, error)

	// Current returns the current session's state.
	// Returns domain.ErrNoSession when none is open.
	Current(ctx context.Context) (*WorkspaceState, error)

	// List returns all sessions, most recently updated first.
	List(ctx context.Context) ([]domain.Session, error)

	// Use makes an existing session current.
	Use(ctx context.Context, sessionID string) error

	// Close deletes a session. Closing the current session clears it.
	Close(ctx context.Context, sessionID string) error

	// AddTag validates and applies a tag addition to the current
	// document.
	AddTag(ctx context.Context, passageID string, r domain.TextRange, tagType string, attrs map[string]string) (*WorkspaceState, error)

	// RemoveTag validates and applies a tag removal.
	RemoveTag(ctx context.Context, passageID, tagID string) (*WorkspaceState, error)

	// SetTagAttrs validates and applies a tag attribute change.
	SetTagAttrs(ctx context.Context, passageID, tagID string, attrs map[string]string) (*WorkspaceState, error)

	// CreateEntity creates an entity, recording the delta in history.
	CreateEntity(ctx context.Context, kind domain.EntityKind, name, subtype, note string) (*WorkspaceState, error)

	// UpdateEntity applies a partial update to the entity addressed by
	// ID or xml:id.
	UpdateEntity(ctx context.Context, ref string, update domain.EntityUpdate) (*WorkspaceState, error)

	// DeleteEntity deletes the entity addressed by ID or xml:id.
	// Rejected while tags or relationships reference it.
	DeleteEntity(ctx context.Context, ref string) (*WorkspaceState, error)

	// ArchiveEntity marks the entity as archived, keeping references
	// valid.
	ArchiveEntity(ctx context.Context, ref string) (*WorkspaceState, error)

	// AddRelation links two entities by xml:id. Mutual relations
	// insert a reciprocal pair.
	AddRelation(ctx context.Context, from, to, relType, subtype string, mutual bool) (*WorkspaceState, error)

	// RemoveRelation removes a relationship and, for mutual records,
	// its reciprocal half.
	RemoveRelation(ctx context.Context, relationID string) (*WorkspaceState, error)

	// Undo steps the history cursor back. Returns false at position 0
	// without error.
	Undo(ctx context.Context) (bool, *WorkspaceState, error)

	// Redo steps the history cursor forward. Returns false at the head
	// without error.
	Redo(ctx context.Context) (bool, *WorkspaceState, error)

	// History returns the delta log and the cursor position.
	History(ctx context.Context) ([]domain.EntityDelta, int, error)

	// Events returns the document event trail.
	Events(ctx context.Context) ([]domain.DocEvent, error)

	// Export serializes the current document state to markup text.
	Export(ctx context.Context) (string, error)
}

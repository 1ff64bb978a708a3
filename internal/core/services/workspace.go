package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
	"github.com/custodia-labs/glossa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/glossa-cli/internal/core/ports/driving"
)

// currentSessionKey is the config key holding the current session ID.
const currentSessionKey = "session.current"

// WorkspaceService orchestrates sessions. It loads the current
// document by parsing the session markup and folding in the replayed
// entity state at the history cursor, routes mutations through the
// editor services, and persists sessions, deltas, and events through
// the session store.
//
// A mutex serialises mutations so the long-running server adapter can
// share one workspace across concurrent requests.
type WorkspaceService struct {
	codec    driving.DocumentCodec
	editor   driving.DocumentEditor
	entities driving.EntityEditor
	schemas  driving.SchemaService
	store    driven.SessionStore
	config   driven.ConfigStore

	mu sync.Mutex
}

// NewWorkspaceService creates the workspace orchestrator.
func NewWorkspaceService(codec driving.DocumentCodec, editor driving.DocumentEditor, entities driving.EntityEditor, schemas driving.SchemaService, store driven.SessionStore, config driven.ConfigStore) *WorkspaceService {
	return &WorkspaceService{
		codec:    codec,
		editor:   editor,
		entities: entities,
		schemas:  schemas,
		store:    store,
		config:   config,
	}
}

// Ensure WorkspaceService implements the driving port.
var _ driving.Workspace = (*WorkspaceService)(nil)

// Open implements driving.Workspace.
func (s *WorkspaceService) Open(ctx context.Context, path string) (*driving.WorkspaceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := s.codec.Parse(string(data))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &domain.Session{
		ID:        uuid.New().String(),
		Path:      path,
		Title:     sessionTitle(doc, path),
		Markup:    string(data),
		Revision:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Seed the history log with the parsed entities so replaying from
	// the empty set reproduces the opening state.
	seeds := seedDeltas(doc.Entities)
	session.Cursor = len(seeds)

	if err := s.store.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	for i, delta := range seeds {
		if err := s.store.AppendDelta(ctx, session.ID, i+1, delta); err != nil {
			return nil, fmt.Errorf("failed to seed session history: %w", err)
		}
	}
	if err := s.config.Set(currentSessionKey, session.ID); err != nil {
		return nil, fmt.Errorf("failed to set current session: %w", err)
	}

	// Entity state is owned by the replay from here on.
	doc.Entities = NewHistory(s.entities, seeds, len(seeds)).State()
	return &driving.WorkspaceState{Session: *session, Document: doc}, nil
}

// Current implements driving.Workspace.
func (s *WorkspaceService) Current(ctx context.Context) (*driving.WorkspaceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, doc, _, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return &driving.WorkspaceState{Session: *session, Document: doc}, nil
}

// List implements driving.Workspace.
func (s *WorkspaceService) List(ctx context.Context) ([]domain.Session, error) {
	return s.store.ListSessions(ctx)
}

// Use implements driving.Workspace.
func (s *WorkspaceService) Use(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if err := s.config.Set(currentSessionKey, sessionID); err != nil {
		return fmt.Errorf("failed to set current session: %w", err)
	}
	return nil
}

// Close implements driving.Workspace.
func (s *WorkspaceService) Close(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	if s.config.GetString(currentSessionKey) == sessionID {
		if err := s.config.Set(currentSessionKey, ""); err != nil {
			return fmt.Errorf("failed to clear current session: %w", err)
		}
	}
	return nil
}

// AddTag implements driving.Workspace.
func (s *WorkspaceService) AddTag(ctx context.Context, passageID string, r domain.TextRange, tagType string, attrs map[string]string) (*driving.WorkspaceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, doc, _, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	table, err := s.effectiveTable(ctx, doc, session.DocKey())
	if err != nil {
		return nil, err
	}

	newDoc, tag, verrs := s.editor.AddTag(doc, table, passageID, r, tagType, attrs)
	if len(verrs) > 0 {
		return nil, &domain.MutationError{Errors: verrs}
	}
	return s.commitTagChange(ctx, session, newDoc, domain.DocEvent{
		Op:        domain.OpAddTag,
		PassageID: passageID,
		TagID:     tag.ID,
		Detail:    fmt.Sprintf("<%s> [%d,%d)", tagType, r.Start, r.End),
		At:        time.Now().UTC(),
	})
}

// RemoveTag implements driving.Workspace.
func (s *WorkspaceService) RemoveTag(ctx context.Context, passageID, tagID string) (*driving.WorkspaceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, doc, _, err := s.current(ctx)
	if err != nil {
		return nil, err
	}

	var detail string
	if t := doc.Tag(passageID, tagID); t != nil {
		detail = fmt.Sprintf("<%s> [%d,%d)", t.Type, t.Range.Start, t.Range.End)
	}
	newDoc, verrs := s.editor.RemoveTag(doc, passageID, tagID)
	if len(verrs) > 0 {
		return nil, &domain.MutationError{Errors: verrs}
	}
	return s.commitTagChange(ctx, session, newDoc, domain.DocEvent{
		Op:        domain.OpRemoveTag,
		PassageID: passageID,
		TagID:     tagID,
		Detail:    detail,
		At:        time.Now().UTC(),
	})
}

// SetTagAttrs implements driving.Workspace.
func (s *WorkspaceService) SetTagAttrs(ctx context.Context, passageID, tagID string, attrs map[string]string) (*driving.WorkspaceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, doc, _, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	table, err := s.effectiveTable(ctx, doc, session.DocKey())
	if err != nil {
		return nil, err
	}

	newDoc, verrs := s.editor.SetTagAttrs(doc, table, passageID, tagID, attrs)
	if len(verrs) > 0 {
		return nil, &domain.MutationError{Errors: verrs}
	}
	return s.commitTagChange(ctx, session, newDoc, domain.DocEvent{
		Op:        domain.OpSetTagAttrs,
		PassageID: passageID,
		TagID:     tagID,
		Detail:    fmt.Sprintf("%d attributes", len(attrs)),
		At:        time.Now().UTC(),
	})
}

// CreateEntity implements driving.Workspace.
func (s *WorkspaceService) CreateEntity(ctx context.Context, kind domain.EntityKind, name, subtype, note string) (*driving.WorkspaceState, error) {
	return s.mutateEntities(ctx, func(doc *domain.Document) (domain.EntityDelta, []domain.ValidationError) {
		return s.entities.NewEntity(doc.Entities, kind, name, subtype, note)
	})
}

// UpdateEntity implements driving.Workspace.
func (s *WorkspaceService) UpdateEntity(ctx context.Context, ref string, update domain.EntityUpdate) (*driving.WorkspaceState, error) {
	return s.mutateEntities(ctx, func(doc *domain.Document) (domain.EntityDelta, []domain.ValidationError) {
		e := resolveEntity(doc.Entities, ref)
		if e == nil {
			return domain.EntityDelta{}, entityNotFound(ref)
		}
		return domain.NewUpdateDelta(e.Kind, e.ID, update), nil
	})
}

// DeleteEntity implements driving.Workspace.
func (s *WorkspaceService) DeleteEntity(ctx context.Context, ref string) (*driving.WorkspaceState, error) {
	return s.mutateEntities(ctx, func(doc *domain.Document) (domain.EntityDelta, []domain.ValidationError) {
		e := resolveEntity(doc.Entities, ref)
		if e == nil {
			return domain.EntityDelta{}, entityNotFound(ref)
		}
		return domain.NewDeleteDelta(e.Kind, e.ID), nil
	})
}

// ArchiveEntity implements driving.Workspace.
func (s *WorkspaceService) ArchiveEntity(ctx context.Context, ref string) (*driving.WorkspaceState, error) {
	return s.mutateEntities(ctx, func(doc *domain.Document) (domain.EntityDelta, []domain.ValidationError) {
		e := resolveEntity(doc.Entities, ref)
		if e == nil {
			return domain.EntityDelta{}, entityNotFound(ref)
		}
		archived := true
		return domain.NewUpdateDelta(e.Kind, e.ID, domain.EntityUpdate{Archived: &archived}), nil
	})
}

// AddRelation implements driving.Workspace.
func (s *WorkspaceService) AddRelation(ctx context.Context, from, to, relType, subtype string, mutual bool) (*driving.WorkspaceState, error) {
	return s.mutateEntities(ctx, func(doc *domain.Document) (domain.EntityDelta, []domain.ValidationError) {
		return s.entities.NewRelation(doc.Entities, resolveXMLID(doc.Entities, from), resolveXMLID(doc.Entities, to), relType, subtype, mutual)
	})
}

// RemoveRelation implements driving.Workspace.
func (s *WorkspaceService) RemoveRelation(ctx context.Context, relationID string) (*driving.WorkspaceState, error) {
	return s.mutateEntities(ctx, func(doc *domain.Document) (domain.EntityDelta, []domain.ValidationError) {
		if doc.Entities.Relationship(relationID) == nil {
			return domain.EntityDelta{}, []domain.ValidationError{{
				Code:    domain.CodeRelationNotFound,
				Message: fmt.Sprintf("no relationship with ID %q", relationID),
			}}
		}
		return domain.NewRelationDeleteDelta(relationID), nil
	})
}

// Undo implements driving.Workspace.
func (s *WorkspaceService) Undo(ctx context.Context) (bool, *driving.WorkspaceState, error) {
	return s.moveCursor(ctx, (*History).Undo)
}

// Redo implements driving.Workspace.
func (s *WorkspaceService) Redo(ctx context.Context) (bool, *driving.WorkspaceState, error) {
	return s.moveCursor(ctx, (*History).Redo)
}

// History implements driving.Workspace.
func (s *WorkspaceService) History(ctx context.Context) ([]domain.EntityDelta, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _, history, err := s.current(ctx)
	if err != nil {
		return nil, 0, err
	}
	return history.Log(), history.Position(), nil
}

// Events implements driving.Workspace.
func (s *WorkspaceService) Events(ctx context.Context) ([]domain.DocEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.config.GetString(currentSessionKey)
	if id == "" {
		return nil, domain.ErrNoSession
	}
	return s.store.ListEvents(ctx, id)
}

// Export implements driving.Workspace.
func (s *WorkspaceService) Export(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, doc, _, err := s.current(ctx)
	if err != nil {
		return "", err
	}
	return s.codec.Serialize(doc), nil
}

// current loads the current session and materialises its document:
// parse the markup, then override the entity state with the history
// replay at the cursor.
func (s *WorkspaceService) current(ctx context.Context) (*domain.Session, *domain.Document, *History, error) {
	id := s.config.GetString(currentSessionKey)
	if id == "" {
		return nil, nil, nil, domain.ErrNoSession
	}
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, nil, domain.ErrNoSession
		}
		return nil, nil, nil, fmt.Errorf("failed to load session: %w", err)
	}

	doc, err := s.codec.Parse(session.Markup)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to parse session markup: %w", err)
	}
	deltas, err := s.store.ListDeltas(ctx, session.ID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load session history: %w", err)
	}

	history := NewHistory(s.entities, deltas, session.Cursor)
	doc.Entities = history.State()
	doc.Revision = session.Revision
	return session, doc, history, nil
}

// effectiveTable returns the constraint table mutations are validated
// against: the effective conformance schema, falling back to the most
// permissive schema the document was attempted against.
func (s *WorkspaceService) effectiveTable(ctx context.Context, doc *domain.Document, docKey string) (domain.ConstraintTable, error) {
	result, err := s.schemas.Resolve(ctx, doc, docKey)
	if err != nil {
		return domain.ConstraintTable{}, err
	}
	id := result.EffectiveSchemaID
	if id == "" && len(result.Attempted) > 0 {
		id = result.Attempted[len(result.Attempted)-1]
	}
	if id == "" {
		return domain.ConstraintTable{}, fmt.Errorf("no usable schema: %w", domain.ErrSchemaUnavailable)
	}
	return s.schemas.Table(ctx, id)
}

// commitTagChange persists a successful tag mutation: re-serialised
// markup, bumped revision, and an audit event.
func (s *WorkspaceService) commitTagChange(ctx context.Context, session *domain.Session, doc *domain.Document, event domain.DocEvent) (*driving.WorkspaceState, error) {
	session.Markup = s.codec.Serialize(doc)
	session.Revision = doc.Revision
	session.UpdatedAt = time.Now().UTC()

	if err := s.store.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	if err := s.store.AppendEvent(ctx, session.ID, event); err != nil {
		return nil, fmt.Errorf("failed to record event: %w", err)
	}
	return &driving.WorkspaceState{Session: *session, Document: doc}, nil
}

// mutateEntities runs one entity mutation end to end: build the delta
// against the current state, validate and apply it, land it in the
// history log, and persist the truncate-then-append and the session
// row with the re-serialised markup.
func (s *WorkspaceService) mutateEntities(ctx context.Context, build func(doc *domain.Document) (domain.EntityDelta, []domain.ValidationError)) (*driving.WorkspaceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, doc, history, err := s.current(ctx)
	if err != nil {
		return nil, err
	}

	delta, verrs := build(doc)
	if len(verrs) > 0 {
		return nil, &domain.MutationError{Errors: verrs}
	}
	newDoc, verrs := s.entities.ApplyToDocument(doc, delta)
	if len(verrs) > 0 {
		return nil, &domain.MutationError{Errors: verrs}
	}
	if verrs := history.Apply(delta); len(verrs) > 0 {
		return nil, &domain.MutationError{Errors: verrs}
	}

	seq := history.Position()
	if err := s.store.TruncateDeltas(ctx, session.ID, seq); err != nil {
		return nil, fmt.Errorf("failed to truncate history: %w", err)
	}
	if err := s.store.AppendDelta(ctx, session.ID, seq, delta); err != nil {
		return nil, fmt.Errorf("failed to append history: %w", err)
	}

	session.Markup = s.codec.Serialize(newDoc)
	session.Cursor = seq
	session.Revision = newDoc.Revision
	session.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return &driving.WorkspaceState{Session: *session, Document: newDoc}, nil
}

// moveCursor implements undo and redo: move the history cursor, keep
// the document revision, persist the new cursor.
func (s *WorkspaceService) moveCursor(ctx context.Context, move func(*History) bool) (bool, *driving.WorkspaceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, doc, history, err := s.current(ctx)
	if err != nil {
		return false, nil, err
	}
	if !move(history) {
		return false, &driving.WorkspaceState{Session: *session, Document: doc}, nil
	}

	session.Cursor = history.Position()
	session.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveSession(ctx, session); err != nil {
		return false, nil, fmt.Errorf("failed to save session: %w", err)
	}

	doc.Entities = history.State()
	return true, &driving.WorkspaceState{Session: *session, Document: doc}, nil
}

// resolveEntity finds an entity by runtime ID or xml:id.
func resolveEntity(set domain.EntitySet, ref string) *domain.Entity {
	if e := set.ByID(ref); e != nil {
		return e
	}
	return set.ByXMLID(ref)
}

// resolveXMLID normalises an entity reference to its xml:id, passing
// unresolvable references through for validation to report.
func resolveXMLID(set domain.EntitySet, ref string) string {
	if e := resolveEntity(set, ref); e != nil {
		return e.XMLID
	}
	return ref
}

// entityNotFound is the rejection for an unresolvable entity reference.
func entityNotFound(ref string) []domain.ValidationError {
	return []domain.ValidationError{{
		Code:    domain.CodeEntityNotFound,
		Message: fmt.Sprintf("no entity with ID or xml:id %q", ref),
	}}
}

// sessionTitle picks the session display title: the document title,
// else the file name.
func sessionTitle(doc *domain.Document, path string) string {
	if doc.Title != "" {
		return doc.Title
	}
	return filepath.Base(path)
}

// seedDeltas converts a parsed entity set into the create deltas that
// reproduce it by replay. Mutual relationship pairs collapse to one
// delta; application re-expands them.
func seedDeltas(set domain.EntitySet) []domain.EntityDelta {
	var out []domain.EntityDelta
	for _, e := range set.All() {
		out = append(out, domain.NewCreateDelta(e))
	}
	emitted := map[string]bool{}
	for _, rel := range set.Relationships {
		if emitted[rel.ID] {
			continue
		}
		emitted[rel.ID] = true
		if rel.Mutual {
			if i := set.FindReciprocal(rel); i >= 0 {
				emitted[set.Relationships[i].ID] = true
			}
		}
		out = append(out, domain.NewRelationDelta(rel))
	}
	return out
}

package mcp

import (
	"context"
	"testing"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
	"github.com/custodia-labs/glossa-cli/internal/core/ports/driving"
)

// testState builds a small annotated document shared across handler
// tests.
func testState() *driving.WorkspaceState {
	entities := domain.EntitySet{}
	entities.Insert(domain.Entity{ID: "char-1", XMLID: "alice", Kind: domain.KindCharacter, Name: "Alice"})
	entities.Insert(domain.Entity{ID: "char-2", XMLID: "hatter", Kind: domain.KindCharacter, Name: "The Hatter", Archived: true})
	entities.Insert(domain.Entity{ID: "place-1", XMLID: "wonderland", Kind: domain.KindPlace, Name: "Wonderland", Subtype: "realm"})
	entities.Relationships = []domain.Relationship{
		{ID: "rel-1", Type: "social", Subtype: "acquaintance", From: "alice", To: "hatter", Mutual: true},
	}

	return &driving.WorkspaceState{
		Session: domain.Session{ID: "sess-1", Path: "/books/alice.xml", Title: "Alice", Revision: 7, Cursor: 3},
		Document: &domain.Document{
			Title:    "Alice",
			Revision: 7,
			Passages: []domain.Passage{
				{
					ID: "pass-1", Kind: "p", Index: 0,
					Content: `"Have I gone mad?" asked the Hatter.`,
					Tags: []domain.Tag{
						{ID: "tag-1", Type: "said", Range: domain.TextRange{Start: 0, End: 18}, Attrs: map[string]string{"who": "#hatter"}},
					},
					Dialogue: []domain.DialogueSpan{
						{
							ID: "dlg-1", PassageID: "pass-1", TagID: "tag-1",
							Range: domain.TextRange{Start: 0, End: 18}, Content: `"Have I gone mad?"`,
							Speaker: "hatter", Mode: domain.SpeechDirect,
						},
					},
				},
				{
					ID: "pass-2", Kind: "p", Index: 1,
					Content: "Alice said nothing at all.",
				},
			},
			Entities: entities,
		},
	}
}

// mockWorkspace is a canned driving.Workspace. A nil state makes
// Current report no open session.
type mockWorkspace struct {
	state    *driving.WorkspaceState
	exported string
	undoOK   bool
	redoOK   bool
	err      error

	lastCall string
}

var _ driving.Workspace = (*mockWorkspace)(nil)

func (m *mockWorkspace) Open(_ context.Context, path string) (*driving.WorkspaceState, error) {
	m.lastCall = "Open " + path
	if m.err != nil {
		return nil, m.err
	}
	return m.state, nil
}

func (m *mockWorkspace) Current(context.Context) (*driving.WorkspaceState, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.state == nil {
		return nil, domain.ErrNoSession
	}
	return m.state, nil
}

func (m *mockWorkspace) List(context.Context) ([]domain.Session, error) {
	return nil, m.err
}

func (m *mockWorkspace) Use(_ context.Context, sessionID string) error {
	m.lastCall = "Use " + sessionID
	return m.err
}

func (m *mockWorkspace) Close(_ context.Context, sessionID string) error {
	m.lastCall = "Close " + sessionID
	return m.err
}

func (m *mockWorkspace) AddTag(_ context.Context, passageID string, _ domain.TextRange, tagType string, _ map[string]string) (*driving.WorkspaceState, error) {
	m.lastCall = "AddTag " + passageID + " " + tagType
	if m.err != nil {
		return nil, m.err
	}
	return m.state, nil
}

func (m *mockWorkspace) RemoveTag(_ context.Context, passageID, tagID string) (*driving.WorkspaceState, error) {
	m.lastCall = "RemoveTag " + passageID + " " + tagID
	if m.err != nil {
		return nil, m.err
	}
	return m.state, nil
}

func (m *mockWorkspace) SetTagAttrs(_ context.Context, passageID, tagID string, _ map[string]string) (*driving.WorkspaceState, error) {
	m.lastCall = "SetTagAttrs " + passageID + " " + tagID
	if m.err != nil {
		return nil, m.err
	}
	return m.state, nil
}

func (m *mockWorkspace) CreateEntity(_ context.Context, kind domain.EntityKind, name, _, _ string) (*driving.WorkspaceState, error) {
	m.lastCall = "CreateEntity " + string(kind) + " " + name
	if m.err != nil {
		return nil, m.err
	}
	return m.state, nil
}

func (m *mockWorkspace) UpdateEntity(_ context.Context, ref string, _ domain.EntityUpdate) (*driving.WorkspaceState, error) {
	m.lastCall = "UpdateEntity " + ref
	if m.err != nil {
		return nil, m.err
	}
	return m.state, nil
}

func (m *mockWorkspace) DeleteEntity(_ context.Context, ref string) (*driving.WorkspaceState, error) {
	m.lastCall = "DeleteEntity " + ref
	if m.err != nil {
		return nil, m.err
	}
	return m.state, nil
}

func (m *mockWorkspace) ArchiveEntity(_ context.Context, ref string) (*driving.WorkspaceState, error) {
	m.lastCall = "ArchiveEntity " + ref
	if m.err != nil {
		return nil, m.err
	}
	return m.state, nil
}

func (m *mockWorkspace) AddRelation(_ context.Context, from, to, relType, _ string, _ bool) (*driving.WorkspaceState, error) {
	m.lastCall = "AddRelation " + from + " " + to + " " + relType
	if m.err != nil {
		return nil, m.err
	}
	return m.state, nil
}

func (m *mockWorkspace) RemoveRelation(_ context.Context, relationID string) (*driving.WorkspaceState, error) {
	m.lastCall = "RemoveRelation " + relationID
	if m.err != nil {
		return nil, m.err
	}
	return m.state, nil
}

func (m *mockWorkspace) Undo(context.Context) (bool, *driving.WorkspaceState, error) {
	if m.err != nil {
		return false, nil, m.err
	}
	if !m.undoOK {
		return false, nil, nil
	}
	return true, m.state, nil
}

func (m *mockWorkspace) Redo(context.Context) (bool, *driving.WorkspaceState, error) {
	if m.err != nil {
		return false, nil, m.err
	}
	if !m.redoOK {
		return false, nil, nil
	}
	return true, m.state, nil
}

func (m *mockWorkspace) History(context.Context) ([]domain.EntityDelta, int, error) {
	return nil, 0, m.err
}

func (m *mockWorkspace) Events(context.Context) ([]domain.DocEvent, error) {
	return nil, m.err
}

func (m *mockWorkspace) Export(context.Context) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.exported, nil
}

// mockSchemas is a canned driving.SchemaService. It records the
// document key the handler passed in.
type mockSchemas struct {
	catalog []domain.SchemaRef
	table   domain.ConstraintTable
	result  domain.ConformanceResult
	report  domain.ValidationReport
	err     error
	cleared bool
	docKey  string
}

var _ driving.SchemaService = (*mockSchemas)(nil)

func (m *mockSchemas) Catalog(context.Context) ([]domain.SchemaRef, error) {
	return m.catalog, m.err
}

func (m *mockSchemas) Table(context.Context, string) (domain.ConstraintTable, error) {
	return m.table, m.err
}

func (m *mockSchemas) Resolve(_ context.Context, _ *domain.Document, docKey string) (domain.ConformanceResult, error) {
	m.docKey = docKey
	return m.result, m.err
}

func (m *mockSchemas) Validate(_ context.Context, _ *domain.Document, docKey, schemaID string) (domain.ValidationReport, error) {
	m.docKey = docKey
	if m.err != nil {
		return domain.ValidationReport{}, m.err
	}
	report := m.report
	report.SchemaID = schemaID
	return report, nil
}

func (m *mockSchemas) ClearCaches() {
	m.cleared = true
}

// newTestServer wires a server over canned ports, defaulting to a
// workspace holding testState.
func newTestServer(t *testing.T, workspace *mockWorkspace, schemas *mockSchemas) *Server {
	t.Helper()
	if workspace == nil {
		workspace = &mockWorkspace{state: testState()}
	}
	if schemas == nil {
		schemas = &mockSchemas{}
	}
	server, err := NewServer(&Ports{Workspace: workspace, Schemas: schemas}, "test")
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return server
}

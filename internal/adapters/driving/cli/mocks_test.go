package cli

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
	"github.com/custodia-labs/glossa-cli/internal/core/ports/driving"
)

// sampleState builds a small annotated document for command tests.
func sampleState() *driving.WorkspaceState {
	jane := domain.Entity{ID: "char-1", XMLID: "jane", Kind: domain.KindCharacter, Name: "Jane Eyre"}
	rochester := domain.Entity{ID: "char-2", XMLID: "rochester", Kind: domain.KindCharacter, Name: "Edward Rochester", Note: "master of Thornfield"}
	thornfield := domain.Entity{ID: "place-1", XMLID: "thornfield", Kind: domain.KindPlace, Name: "Thornfield Hall", Subtype: "house", Archived: true}

	entities := domain.EntitySet{}
	entities.Insert(jane)
	entities.Insert(rochester)
	entities.Insert(thornfield)
	entities.Relationships = []domain.Relationship{
		{ID: "rel-1", Type: "personal", Subtype: "employer", From: "rochester", To: "jane", Mutual: false},
	}

	passage := domain.Passage{
		ID:      "pass-1",
		Kind:    "p",
		Index:   0,
		Content: "Do you think me handsome? said Rochester.",
		Tags: []domain.Tag{
			{ID: "tag-1", Type: "said", Range: domain.TextRange{Start: 0, End: 26}, Attrs: map[string]string{"who": "#rochester"}},
		},
		Dialogue: []domain.DialogueSpan{
			{
				ID: "dlg-1", PassageID: "pass-1", TagID: "tag-1",
				Range: domain.TextRange{Start: 0, End: 26}, Content: "Do you think me handsome?",
				Speaker: "rochester", Mode: domain.SpeechDirect,
			},
		},
	}

	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	return &driving.WorkspaceState{
		Session: domain.Session{
			ID: "sess-1", Path: "/books/jane-eyre.xml", Title: "Jane Eyre",
			Revision: 4, Cursor: 2, CreatedAt: now, UpdatedAt: now,
		},
		Document: &domain.Document{
			Title:    "Jane Eyre",
			Author:   "Charlotte Brontë",
			Revision: 4,
			Passages: []domain.Passage{passage},
			Entities: entities,
		},
	}
}

// mockWorkspace is a canned driving.Workspace for command tests.
type mockWorkspace struct {
	state    *driving.WorkspaceState
	sessions []domain.Session
	deltas   []domain.EntityDelta
	cursor   int
	events   []domain.DocEvent
	exported string
	undoOK   bool
	redoOK   bool
	err      error

	lastCall string
}

var _ driving.Workspace = (*mockWorkspace)(nil)

func (m *mockWorkspace) Open(_ context.Context, path string) (*driving.WorkspaceState, error) {
	m.lastCall = "Open " + path
	return m.state, m.err
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
	return m.sessions, m.err
}

func (m *mockWorkspace) Use(_ context.Context, sessionID string) error {
	m.lastCall = "Use " + sessionID
	return m.err
}

func (m *mockWorkspace) Close(_ context.Context, sessionID string) error {
	m.lastCall = "Close " + sessionID
	return m.err
}

func (m *mockWorkspace) AddTag(_ context.Context, passageID string, r domain.TextRange, tagType string, _ map[string]string) (*driving.WorkspaceState, error) {
	m.lastCall = "AddTag " + passageID + " " + tagType
	return m.state, m.err
}

func (m *mockWorkspace) RemoveTag(_ context.Context, passageID, tagID string) (*driving.WorkspaceState, error) {
	m.lastCall = "RemoveTag " + passageID + " " + tagID
	return m.state, m.err
}

func (m *mockWorkspace) SetTagAttrs(_ context.Context, passageID, tagID string, _ map[string]string) (*driving.WorkspaceState, error) {
	m.lastCall = "SetTagAttrs " + passageID + " " + tagID
	return m.state, m.err
}

func (m *mockWorkspace) CreateEntity(_ context.Context, kind domain.EntityKind, name, _, _ string) (*driving.WorkspaceState, error) {
	m.lastCall = "CreateEntity " + string(kind) + " " + name
	return m.state, m.err
}

func (m *mockWorkspace) UpdateEntity(_ context.Context, ref string, _ domain.EntityUpdate) (*driving.WorkspaceState, error) {
	m.lastCall = "UpdateEntity " + ref
	return m.state, m.err
}

func (m *mockWorkspace) DeleteEntity(_ context.Context, ref string) (*driving.WorkspaceState, error) {
	m.lastCall = "DeleteEntity " + ref
	return m.state, m.err
}

func (m *mockWorkspace) ArchiveEntity(_ context.Context, ref string) (*driving.WorkspaceState, error) {
	m.lastCall = "ArchiveEntity " + ref
	return m.state, m.err
}

func (m *mockWorkspace) AddRelation(_ context.Context, from, to, relType, _ string, _ bool) (*driving.WorkspaceState, error) {
	m.lastCall = "AddRelation " + from + " " + to + " " + relType
	return m.state, m.err
}

func (m *mockWorkspace) RemoveRelation(_ context.Context, relationID string) (*driving.WorkspaceState, error) {
	m.lastCall = "RemoveRelation " + relationID
	return m.state, m.err
}

func (m *mockWorkspace) Undo(context.Context) (bool, *driving.WorkspaceState, error) {
	m.lastCall = "Undo"
	return m.undoOK, m.state, m.err
}

func (m *mockWorkspace) Redo(context.Context) (bool, *driving.WorkspaceState, error) {
	m.lastCall = "Redo"
	return m.redoOK, m.state, m.err
}

func (m *mockWorkspace) History(context.Context) ([]domain.EntityDelta, int, error) {
	return m.deltas, m.cursor, m.err
}

func (m *mockWorkspace) Events(context.Context) ([]domain.DocEvent, error) {
	return m.events, m.err
}

func (m *mockWorkspace) Export(context.Context) (string, error) {
	m.lastCall = "Export"
	return m.exported, m.err
}

// mockSchemas is a canned driving.SchemaService for command tests. It
// records the document key the command passed in.
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

func (m *mockSchemas) Table(_ context.Context, schemaID string) (domain.ConstraintTable, error) {
	if m.err != nil {
		return domain.ConstraintTable{}, m.err
	}
	if m.table.SchemaID != schemaID {
		return domain.ConstraintTable{}, domain.ErrSchemaNotFound
	}
	return m.table, nil
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

// setupTestServices installs canned services and returns a cleanup
// restoring whatever was wired before.
func setupTestServices() func() {
	oldWorkspace := workspaceService
	oldSchemas := schemaService

	state := sampleState()
	workspaceService = &mockWorkspace{
		state:    state,
		sessions: []domain.Session{state.Session},
		exported: "<text><body><p>exported</p></body></text>",
		undoOK:   true,
		redoOK:   true,
	}
	schemaService = &mockSchemas{
		catalog: []domain.SchemaRef{
			{ID: "tei-dialogue-strict", Name: "TEI Dialogue (strict)", Description: "strictest"},
			{ID: "tei-minimal", Name: "TEI Minimal"},
		},
		result: domain.ConformanceResult{
			EffectiveSchemaID: "tei-dialogue-strict",
			Report:            domain.ValidationReport{SchemaID: "tei-dialogue-strict"},
			Attempted:         []string{"tei-dialogue-strict"},
		},
	}

	return func() {
		workspaceService = oldWorkspace
		schemaService = oldSchemas
	}
}

var errBoom = errors.New("boom")

// execute runs the root command with args and captures the output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
	"github.com/custodia-labs/glossa-cli/internal/core/ports/driving"
)

// OpenDocumentInput is the input schema for the open_document tool.
type OpenDocumentInput struct {
	Path string `json:"path" jsonschema:"path of the markup file to open"`
}

// SessionOutput summarises a session after an operation.
type SessionOutput struct {
	SessionID string `json:"session_id"`
	Title     string `json:"title,omitempty"`
	Revision  uint64 `json:"revision"`
	Passages  int    `json:"passages"`
	Dialogue  int    `json:"dialogue_spans"`
	Entities  int    `json:"entities"`
}

// PassageOutput is one passage in a listing.
type PassageOutput struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Index   int    `json:"index"`
	Content string `json:"content"`
	Tags    int    `json:"tags"`
}

// ListPassagesOutput is the output schema for list_passages.
type ListPassagesOutput struct {
	Passages []PassageOutput `json:"passages"`
	Count    int             `json:"count"`
}

// ListDialogueInput is the input schema for list_dialogue.
type ListDialogueInput struct {
	Speaker string `json:"speaker,omitempty" jsonschema:"only spans attributed to this entity xml:id"`
}

// DialogueOutput is one dialogue span in a listing.
type DialogueOutput struct {
	PassageID string `json:"passage_id"`
	TagID     string `json:"tag_id"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
	Content   string `json:"content"`
	Speaker   string `json:"speaker,omitempty"`
	Addressee string `json:"addressee,omitempty"`
	Mode      string `json:"mode"`
}

// ListDialogueOutput is the output schema for list_dialogue.
type ListDialogueOutput struct {
	Spans []DialogueOutput `json:"spans"`
	Count int              `json:"count"`
}

// AddTagInput is the input schema for add_tag.
type AddTagInput struct {
	PassageID string            `json:"passage_id" jsonschema:"passage to annotate"`
	Start     int               `json:"start" jsonschema:"start rune offset, inclusive"`
	End       int               `json:"end" jsonschema:"end rune offset, exclusive"`
	Type      string            `json:"type" jsonschema:"tag element name, e.g. said or persName"`
	Attrs     map[string]string `json:"attrs,omitempty" jsonschema:"tag attributes, e.g. who"`
}

// RemoveTagInput is the input schema for remove_tag.
type RemoveTagInput struct {
	PassageID string `json:"passage_id"`
	TagID     string `json:"tag_id"`
}

// CreateEntityInput is the input schema for create_entity.
type CreateEntityInput struct {
	Kind    string `json:"kind" jsonschema:"character, place, or organization"`
	Name    string `json:"name" jsonschema:"display name"`
	Subtype string `json:"subtype,omitempty" jsonschema:"kind-specific classification, e.g. city"`
	Note    string `json:"note,omitempty"`
}

// CreateEntityOutput is the output schema for create_entity.
type CreateEntityOutput struct {
	ID       string `json:"id"`
	XMLID    string `json:"xml_id"`
	Revision uint64 `json:"revision"`
}

// UpdateEntityInput is the input schema for update_entity. Omitted
// fields are left unchanged.
type UpdateEntityInput struct {
	Ref      string  `json:"ref" jsonschema:"entity id or xml:id"`
	Name     *string `json:"name,omitempty"`
	Subtype  *string `json:"subtype,omitempty"`
	Note     *string `json:"note,omitempty"`
	Archived *bool   `json:"archived,omitempty"`
}

// EntityRefInput addresses one entity by id or xml:id.
type EntityRefInput struct {
	Ref string `json:"ref" jsonschema:"entity id or xml:id"`
}

// AddRelationInput is the input schema for add_relation.
type AddRelationInput struct {
	From    string `json:"from" jsonschema:"source entity xml:id"`
	To      string `json:"to" jsonschema:"target entity xml:id"`
	Type    string `json:"type" jsonschema:"relationship category, e.g. personal"`
	Subtype string `json:"subtype,omitempty"`
	Mutual  bool   `json:"mutual,omitempty" jsonschema:"insert the reciprocal relationship too"`
}

// ListEntitiesInput is the input schema for list_entities.
type ListEntitiesInput struct {
	Kind            string `json:"kind,omitempty" jsonschema:"filter by kind"`
	IncludeArchived bool   `json:"include_archived,omitempty"`
}

// EntityOutput is one entity in a listing.
type EntityOutput struct {
	ID       string `json:"id"`
	XMLID    string `json:"xml_id"`
	Kind     string `json:"kind"`
	Name     string `json:"name"`
	Subtype  string `json:"subtype,omitempty"`
	Note     string `json:"note,omitempty"`
	Archived bool   `json:"archived,omitempty"`
}

// RelationOutput is one relationship in a listing.
type RelationOutput struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Subtype string `json:"subtype,omitempty"`
	From    string `json:"from"`
	To      string `json:"to"`
	Mutual  bool   `json:"mutual,omitempty"`
}

// ListEntitiesOutput is the output schema for list_entities.
type ListEntitiesOutput struct {
	Entities  []EntityOutput   `json:"entities"`
	Relations []RelationOutput `json:"relations"`
	Count     int              `json:"count"`
}

// ValidateInput is the input schema for validate_document.
type ValidateInput struct {
	SchemaID string `json:"schema_id,omitempty" jsonschema:"validate against one schema instead of resolving the catalog"`
}

// IssueOutput is one validation finding.
type IssueOutput struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Path     string `json:"path,omitempty"`
}

// ValidateOutput is the output schema for validate_document.
type ValidateOutput struct {
	EffectiveSchemaID string        `json:"effective_schema_id,omitempty"`
	SchemaID          string        `json:"schema_id"`
	Pass              bool          `json:"pass"`
	Criticals         int           `json:"criticals"`
	Warnings          int           `json:"warnings"`
	Issues            []IssueOutput `json:"issues"`
	Attempted         []string      `json:"attempted,omitempty"`
	Notes             []string      `json:"notes,omitempty"`
}

// StepOutput is the output schema for undo and redo.
type StepOutput struct {
	Done     bool   `json:"done"`
	Revision uint64 `json:"revision"`
}

// ExportOutput is the output schema for export_document.
type ExportOutput struct {
	Markup string `json:"markup"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "open_document",
		Description: "Open a markup file and start an annotation session",
	}, s.handleOpenDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_passages",
		Description: "List the passages of the current document",
	}, s.handleListPassages)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_dialogue",
		Description: "List dialogue spans with speaker attribution",
	}, s.handleListDialogue)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "add_tag",
		Description: "Add an annotation to a passage range; validated against the effective schema",
	}, s.handleAddTag)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "remove_tag",
		Description: "Remove an annotation from a passage",
	}, s.handleRemoveTag)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_entity",
		Description: "Create a character, place, or organization in the standoff registry",
	}, s.handleCreateEntity)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "update_entity",
		Description: "Update entity fields; omitted fields are unchanged",
	}, s.handleUpdateEntity)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_entity",
		Description: "Delete an entity; rejected while tags or relationships reference it",
	}, s.handleDeleteEntity)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "archive_entity",
		Description: "Archive an entity, keeping its references valid",
	}, s.handleArchiveEntity)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "add_relation",
		Description: "Link two entities; mutual relations insert the reciprocal pair",
	}, s.handleAddRelation)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_entities",
		Description: "List the standoff registry, relationships included",
	}, s.handleListEntities)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "validate_document",
		Description: "Validate the document against the schema catalog, strictest first",
	}, s.handleValidate)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "undo",
		Description: "Undo the last entity change",
	}, s.handleUndo)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "redo",
		Description: "Redo the last undone entity change",
	}, s.handleRedo)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "export_document",
		Description: "Serialize the current document state to markup",
	}, s.handleExport)
}

// sessionOutput flattens a workspace state into the shared summary.
func sessionOutput(state *driving.WorkspaceState) SessionOutput {
	return SessionOutput{
		SessionID: state.Session.ID,
		Title:     state.Document.Title,
		Revision:  state.Document.Revision,
		Passages:  len(state.Document.Passages),
		Dialogue:  len(state.Document.DialogueSpans()),
		Entities:  len(state.Document.Entities.All()),
	}
}

func (s *Server) handleOpenDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input OpenDocumentInput,
) (*mcp.CallToolResult, SessionOutput, error) {
	state, err := s.ports.Workspace.Open(ctx, input.Path)
	if err != nil {
		return nil, SessionOutput{}, toolError("open_document", err)
	}
	return nil, sessionOutput(state), nil
}

func (s *Server) handleListPassages(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, ListPassagesOutput, error) {
	state, err := s.ports.Workspace.Current(ctx)
	if err != nil {
		return nil, ListPassagesOutput{}, toolError("list_passages", err)
	}

	output := ListPassagesOutput{
		Passages: make([]PassageOutput, len(state.Document.Passages)),
		Count:    len(state.Document.Passages),
	}
	for i, p := range state.Document.Passages {
		output.Passages[i] = PassageOutput{
			ID:      p.ID,
			Kind:    p.Kind,
			Index:   p.Index,
			Content: p.Content,
			Tags:    len(p.Tags),
		}
	}
	return nil, output, nil
}

func (s *Server) handleListDialogue(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListDialogueInput,
) (*mcp.CallToolResult, ListDialogueOutput, error) {
	state, err := s.ports.Workspace.Current(ctx)
	if err != nil {
		return nil, ListDialogueOutput{}, toolError("list_dialogue", err)
	}

	output := ListDialogueOutput{Spans: []DialogueOutput{}}
	for _, span := range state.Document.DialogueSpans() {
		if input.Speaker != "" && span.Speaker != input.Speaker {
			continue
		}
		output.Spans = append(output.Spans, DialogueOutput{
			PassageID: span.PassageID,
			TagID:     span.TagID,
			Start:     span.Range.Start,
			End:       span.Range.End,
			Content:   span.Content,
			Speaker:   span.Speaker,
			Addressee: span.Addressee,
			Mode:      string(span.Mode),
		})
	}
	output.Count = len(output.Spans)
	return nil, output, nil
}

func (s *Server) handleAddTag(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddTagInput,
) (*mcp.CallToolResult, SessionOutput, error) {
	r := domain.TextRange{Start: input.Start, End: input.End}
	state, err := s.ports.Workspace.AddTag(ctx, input.PassageID, r, input.Type, input.Attrs)
	if err != nil {
		return nil, SessionOutput{}, toolError("add_tag", err)
	}
	return nil, sessionOutput(state), nil
}

func (s *Server) handleRemoveTag(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RemoveTagInput,
) (*mcp.CallToolResult, SessionOutput, error) {
	state, err := s.ports.Workspace.RemoveTag(ctx, input.PassageID, input.TagID)
	if err != nil {
		return nil, SessionOutput{}, toolError("remove_tag", err)
	}
	return nil, sessionOutput(state), nil
}

func (s *Server) handleCreateEntity(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CreateEntityInput,
) (*mcp.CallToolResult, CreateEntityOutput, error) {
	kind := domain.EntityKind(input.Kind)
	if !kind.Valid() {
		return nil, CreateEntityOutput{}, fmt.Errorf("invalid kind %q, want character, place, or organization", input.Kind)
	}

	state, err := s.ports.Workspace.CreateEntity(ctx, kind, input.Name, input.Subtype, input.Note)
	if err != nil {
		return nil, CreateEntityOutput{}, toolError("create_entity", err)
	}

	output := CreateEntityOutput{Revision: state.Document.Revision}
	// The created record is the newest of its kind with the given name.
	for _, e := range state.Document.Entities.All() {
		if e.Kind == kind && e.Name == input.Name {
			output.ID = e.ID
			output.XMLID = e.XMLID
		}
	}
	return nil, output, nil
}

func (s *Server) handleUpdateEntity(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UpdateEntityInput,
) (*mcp.CallToolResult, SessionOutput, error) {
	update := domain.EntityUpdate{
		Name:     input.Name,
		Subtype:  input.Subtype,
		Note:     input.Note,
		Archived: input.Archived,
	}
	state, err := s.ports.Workspace.UpdateEntity(ctx, input.Ref, update)
	if err != nil {
		return nil, SessionOutput{}, toolError("update_entity", err)
	}
	return nil, sessionOutput(state), nil
}

func (s *Server) handleDeleteEntity(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input EntityRefInput,
) (*mcp.CallToolResult, SessionOutput, error) {
	state, err := s.ports.Workspace.DeleteEntity(ctx, input.Ref)
	if err != nil {
		return nil, SessionOutput{}, toolError("delete_entity", err)
	}
	return nil, sessionOutput(state), nil
}

func (s *Server) handleArchiveEntity(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input EntityRefInput,
) (*mcp.CallToolResult, SessionOutput, error) {
	state, err := s.ports.Workspace.ArchiveEntity(ctx, input.Ref)
	if err != nil {
		return nil, SessionOutput{}, toolError("archive_entity", err)
	}
	return nil, sessionOutput(state), nil
}

func (s *Server) handleAddRelation(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddRelationInput,
) (*mcp.CallToolResult, SessionOutput, error) {
	state, err := s.ports.Workspace.AddRelation(ctx, input.From, input.To, input.Type, input.Subtype, input.Mutual)
	if err != nil {
		return nil, SessionOutput{}, toolError("add_relation", err)
	}
	return nil, sessionOutput(state), nil
}

func (s *Server) handleListEntities(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListEntitiesInput,
) (*mcp.CallToolResult, ListEntitiesOutput, error) {
	state, err := s.ports.Workspace.Current(ctx)
	if err != nil {
		return nil, ListEntitiesOutput{}, toolError("list_entities", err)
	}

	output := ListEntitiesOutput{Entities: []EntityOutput{}, Relations: []RelationOutput{}}
	for _, e := range state.Document.Entities.All() {
		if input.Kind != "" && string(e.Kind) != input.Kind {
			continue
		}
		if e.Archived && !input.IncludeArchived {
			continue
		}
		output.Entities = append(output.Entities, EntityOutput{
			ID:       e.ID,
			XMLID:    e.XMLID,
			Kind:     string(e.Kind),
			Name:     e.Name,
			Subtype:  e.Subtype,
			Note:     e.Note,
			Archived: e.Archived,
		})
	}
	for _, rel := range state.Document.Entities.Relationships {
		output.Relations = append(output.Relations, RelationOutput{
			ID:      rel.ID,
			Type:    rel.Type,
			Subtype: rel.Subtype,
			From:    rel.From,
			To:      rel.To,
			Mutual:  rel.Mutual,
		})
	}
	output.Count = len(output.Entities)
	return nil, output, nil
}

func (s *Server) handleValidate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ValidateInput,
) (*mcp.CallToolResult, ValidateOutput, error) {
	state, err := s.ports.Workspace.Current(ctx)
	if err != nil {
		return nil, ValidateOutput{}, toolError("validate_document", err)
	}

	var output ValidateOutput
	if input.SchemaID != "" {
		report, err := s.ports.Schemas.Validate(ctx, state.Document, state.Session.DocKey(), input.SchemaID)
		if err != nil {
			return nil, ValidateOutput{}, toolError("validate_document", err)
		}
		output = reportOutput(report)
	} else {
		result, err := s.ports.Schemas.Resolve(ctx, state.Document, state.Session.DocKey())
		if err != nil {
			return nil, ValidateOutput{}, toolError("validate_document", err)
		}
		output = reportOutput(result.Report)
		output.EffectiveSchemaID = result.EffectiveSchemaID
		output.Attempted = result.Attempted
		output.Notes = result.Notes
	}
	return nil, output, nil
}

// reportOutput flattens one schema's validation report.
func reportOutput(report domain.ValidationReport) ValidateOutput {
	output := ValidateOutput{
		SchemaID:  report.SchemaID,
		Pass:      report.Pass(),
		Criticals: report.Criticals(),
		Warnings:  report.Warnings(),
		Issues:    make([]IssueOutput, len(report.Issues)),
	}
	for i, issue := range report.Issues {
		output.Issues[i] = IssueOutput{
			Code:     string(issue.Code),
			Severity: string(issue.Severity),
			Message:  issue.Message,
			Path:     issue.Path,
		}
	}
	return output
}

func (s *Server) handleUndo(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, StepOutput, error) {
	done, state, err := s.ports.Workspace.Undo(ctx)
	if err != nil {
		return nil, StepOutput{}, toolError("undo", err)
	}
	output := StepOutput{Done: done}
	if state != nil {
		output.Revision = state.Document.Revision
	}
	return nil, output, nil
}

func (s *Server) handleRedo(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, StepOutput, error) {
	done, state, err := s.ports.Workspace.Redo(ctx)
	if err != nil {
		return nil, StepOutput{}, toolError("redo", err)
	}
	output := StepOutput{Done: done}
	if state != nil {
		output.Revision = state.Document.Revision
	}
	return nil, output, nil
}

func (s *Server) handleExport(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, ExportOutput, error) {
	markup, err := s.ports.Workspace.Export(ctx)
	if err != nil {
		return nil, ExportOutput{}, toolError("export_document", err)
	}
	return nil, ExportOutput{Markup: markup}, nil
}

package driving

import (
	"context"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
)

// SchemaService resolves document conformance against the schema
// catalog and manages the compiled-table and report caches.
type SchemaService interface {
	// Catalog returns the schema catalog in resolution order,
	// strictest first.
	Catalog(ctx context.Context) ([]domain.SchemaRef, error)

	// Table fetches and compiles the grammar for a schema ID, using
	// the constraint cache. Returns domain.ErrSchemaNotFound when no
	// source provides the grammar.
	Table(ctx context.Context, schemaID string) (domain.ConstraintTable, error)

	// Resolve walks the catalog strictest-first and returns the first
	// schema the document fully passes as the effective conformance
	// level. docKey keys the report cache together with the document
	// revision; callers holding a session derive it with
	// domain.Session.DocKey so undo and redo get distinct keys. An
	// empty docKey skips the cache.
	Resolve(ctx context.Context, doc *domain.Document, docKey string) (domain.ConformanceResult, error)

	// Validate checks the document against one named schema.
	Validate(ctx context.Context, doc *domain.Document, docKey, schemaID string) (domain.ValidationReport, error)

	// ClearCaches drops compiled tables and cached reports. Wired to
	// grammar change notifications and the refresh command.
	ClearCaches()
}

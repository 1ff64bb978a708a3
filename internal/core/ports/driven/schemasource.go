package driven

import (
	"context"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
)

// SchemaSource provides grammar text by schema ID.
// Sources are consulted in registration order; a source that does not
// know the ID returns domain.ErrSchemaNotFound so resolution falls
// through to the next source.
type SchemaSource interface {
	// Fetch returns the grammar text for a schema ID.
	// Returns domain.ErrSchemaNotFound for unknown IDs.
	Fetch(ctx context.Context, schemaID string) (string, error)

	// Refs lists the schemas this source can enumerate. Sources that
	// cannot enumerate (remote endpoints) return an empty list.
	Refs(ctx context.Context) ([]domain.SchemaRef, error)
}

// SchemaWatcher signals that grammars may have changed on disk.
// Implemented by sources with watchable backing storage.
type SchemaWatcher interface {
	// Watch blocks until ctx is cancelled, invoking onChange after
	// every observed grammar change. onChange may be called from the
	// watcher's goroutine.
	Watch(ctx context.Context, onChange func()) error
}

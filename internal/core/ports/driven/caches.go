package driven

import "github.com/custodia-labs/glossa-cli/internal/core/domain"

// ConstraintCache caches compiled constraint tables by schema ID.
// Entries never expire on their own; Clear is the only invalidation,
// wired to schema refreshes and grammar change notifications.
type ConstraintCache interface {
	// Get returns the cached table for a schema ID.
	Get(schemaID string) (domain.ConstraintTable, bool)

	// Put stores a compiled table.
	Put(schemaID string, table domain.ConstraintTable)

	// Clear drops every entry.
	Clear()
}

// ReportCache caches validation reports keyed by schema, document
// state, and revision. The document key carries the session's history
// cursor, so a report stays valid for exactly one document state;
// superseded entries are never served again and only Clear removes
// them.
type ReportCache interface {
	// Get returns the cached report for a key.
	Get(key domain.ReportKey) (domain.ValidationReport, bool)

	// Put stores a report.
	Put(key domain.ReportKey, report domain.ValidationReport)

	// Clear drops every entry.
	Clear()
}

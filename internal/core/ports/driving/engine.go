package driving

import "github.com/custodia-labs/glossa-cli/internal/core/domain"

// DocumentCodec converts between markup text and documents.
// Both directions are pure: parsing the same text twice yields
// structurally equal documents, and parsing serialized output yields
// the same derived indices the input document had.
type DocumentCodec interface {
	// Parse builds a document with derived indices from markup text.
	// Returns a domain.ParseError on malformed markup.
	Parse(text string) (*domain.Document, error)

	// Serialize renders the document back to markup text.
	Serialize(doc *domain.Document) string
}

// DocumentEditor applies validated tag mutations. Every operation
// validates first and, on success, returns a new document with the
// revision incremented; the input document is never modified. On
// validation failure the returned document is nil and the errors
// describe every finding.
type DocumentEditor interface {
	// AddTag annotates a range within a passage. The new tag is
	// returned alongside the new document.
	AddTag(doc *domain.Document, table domain.ConstraintTable, passageID string, r domain.TextRange, tagType string, attrs map[string]string) (*domain.Document, *domain.Tag, []domain.ValidationError)

	// RemoveTag deletes a tag from a passage.
	RemoveTag(doc *domain.Document, passageID, tagID string) (*domain.Document, []domain.ValidationError)

	// SetTagAttrs replaces a tag's attributes.
	SetTagAttrs(doc *domain.Document, table domain.ConstraintTable, passageID, tagID string, attrs map[string]string) (*domain.Document, []domain.ValidationError)
}

// EntityEditor builds and applies entity deltas.
type EntityEditor interface {
	// Apply folds one delta into an entity set, returning the new set.
	// The input set is never modified. Validation failures reject the
	// delta and return the input set unchanged.
	Apply(set domain.EntitySet, delta domain.EntityDelta) (domain.EntitySet, []domain.ValidationError)

	// ApplyToDocument folds one delta into a document's entity set,
	// returning a new document with the revision incremented.
	// Document context enables tag reference checks on deletes.
	ApplyToDocument(doc *domain.Document, delta domain.EntityDelta) (*domain.Document, []domain.ValidationError)

	// NewEntity validates and builds a create delta for an entity,
	// assigning its ID and deriving its xml:id from the name.
	NewEntity(set domain.EntitySet, kind domain.EntityKind, name, subtype, note string) (domain.EntityDelta, []domain.ValidationError)

	// NewRelation validates and builds a create delta for a
	// relationship between two xml:ids.
	NewRelation(set domain.EntitySet, from, to, relType, subtype string, mutual bool) (domain.EntityDelta, []domain.ValidationError)
}

// Validator checks whole documents against a compiled schema.
type Validator interface {
	// ValidateDocument checks every tag and entity of the document
	// against the table and reports all findings.
	ValidateDocument(doc *domain.Document, table domain.ConstraintTable) domain.ValidationReport
}

package domain

import (
	"fmt"
	"strings"
)

// Code is a stable machine-readable identifier for a validation finding.
// Codes never change meaning; tooling may dispatch on them.
type Code string

const (
	CodePassageNotFound     Code = "PASSAGE_NOT_FOUND"
	CodeTagNotFound         Code = "TAG_NOT_FOUND"
	CodeRangeOutOfBounds    Code = "RANGE_OUT_OF_BOUNDS"
	CodeRangeInverted       Code = "RANGE_INVERTED"
	CodeUnknownTagType      Code = "UNKNOWN_TAG_TYPE"
	CodeMissingRequiredAttr Code = "MISSING_REQUIRED_ATTR"
	CodeInvalidAttrValue    Code = "INVALID_ATTR_VALUE"
	CodeUnknownAttr         Code = "UNKNOWN_ATTR"
	CodeDanglingIDRef       Code = "DANGLING_IDREF"
	CodeSplitsExistingTag   Code = "SPLITS_EXISTING_TAG"
	CodeContentNotAllowed   Code = "CONTENT_NOT_ALLOWED"
	CodeDuplicateXMLID      Code = "DUPLICATE_XML_ID"
	CodeEmptyName           Code = "EMPTY_NAME"
	CodeUnknownEntityKind   Code = "UNKNOWN_ENTITY_KIND"
	CodeEntityNotFound      Code = "ENTITY_NOT_FOUND"
	CodeEntityInUse         Code = "ENTITY_IN_USE"
	CodeRelationNotFound    Code = "RELATION_NOT_FOUND"
	CodeDuplicateRelation   Code = "DUPLICATE_RELATION"
	CodeSelfRelation        Code = "SELF_RELATION"
)

// Severity grades a validation issue.
type Severity string

const (
	// SeverityCritical blocks schema conformance.
	SeverityCritical Severity = "critical"

	// SeverityWarning is reported but does not block conformance.
	SeverityWarning Severity = "warning"

	// SeverityInfo is advisory.
	SeverityInfo Severity = "info"
)

// SeverityOf returns the report severity for a code. Unknown attributes
// are tolerated as warnings; everything else blocks conformance.
func SeverityOf(code Code) Severity {
	if code == CodeUnknownAttr {
		return SeverityWarning
	}
	return SeverityCritical
}

// Fix is a machine-applicable suggestion attached to a validation
// error. Exactly one concrete type applies per error.
type Fix interface {
	// Describe returns a short human-readable rendering of the fix.
	Describe() string
	isFix()
}

// AddAttribute suggests adding a missing attribute.
type AddAttribute struct {
	// Name is the attribute to add.
	Name string

	// Value is a suggested value, possibly empty.
	Value string
}

func (f AddAttribute) isFix() {}

// Describe implements Fix.
func (f AddAttribute) Describe() string {
	if f.Value == "" {
		return fmt.Sprintf("add attribute %q", f.Name)
	}
	return fmt.Sprintf("add attribute %s=%q", f.Name, f.Value)
}

// AdjustRange suggests replacing an invalid range with a valid one.
type AdjustRange struct {
	// Range is the nearest valid range.
	Range TextRange
}

func (f AdjustRange) isFix() {}

// Describe implements Fix.
func (f AdjustRange) Describe() string {
	return fmt.Sprintf("adjust range to [%d,%d)", f.Range.Start, f.Range.End)
}

// ArchiveInstead suggests archiving an entity rather than deleting it.
type ArchiveInstead struct {
	// EntityID is the entity to archive.
	EntityID string
}

func (f ArchiveInstead) isFix() {}

// Describe implements Fix.
func (f ArchiveInstead) Describe() string {
	return "archive the entity instead of deleting it"
}

// RemoveReference suggests removing the reference blocking a delete.
type RemoveReference struct {
	// TagID is the blocking tag, when a tag holds the reference.
	TagID string

	// RelationID is the blocking relationship, when one holds the
	// reference.
	RelationID string
}

func (f RemoveReference) isFix() {}

// Describe implements Fix.
func (f RemoveReference) Describe() string {
	if f.TagID != "" {
		return fmt.Sprintf("remove the reference from tag %s", f.TagID)
	}
	return fmt.Sprintf("remove relationship %s", f.RelationID)
}

// ValidationError is a recoverable mutation failure. The mutation was
// rejected, nothing changed, and the caller can correct the input,
// optionally guided by Fix.
type ValidationError struct {
	// Code is the stable identifier of the failure.
	Code Code

	// Message is the human-readable explanation.
	Message string

	// Path locates the failure, e.g. "passage[2]/said" or
	// "entity/jane".
	Path string

	// Fix is an optional machine-applicable suggestion.
	Fix Fix
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s at %s: %s", e.Code, e.Path, e.Message)
}

// MutationError aggregates the validation errors that rejected a
// mutation. It unwraps to ErrInvalidMutation so callers can test with
// errors.Is without inspecting individual codes.
type MutationError struct {
	Errors []ValidationError
}

// Error implements the error interface.
func (e *MutationError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Error()
	}
	return fmt.Sprintf("%d validation errors: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap links the aggregate to ErrInvalidMutation.
func (e *MutationError) Unwrap() error { return ErrInvalidMutation }

// ValidationIssue is one finding of a document-level validation run.
type ValidationIssue struct {
	// Code is the stable identifier of the finding.
	Code Code

	// Severity grades the finding.
	Severity Severity

	// Message is the human-readable explanation.
	Message string

	// Path locates the finding.
	Path string
}

// ReportKey identifies a cached validation report. A document key and
// revision pin the exact document state the report was computed for.
type ReportKey struct {
	// SchemaID is the schema validated against.
	SchemaID string

	// DocKey identifies the document state, typically the session's
	// Session.DocKey (ID plus history cursor).
	DocKey string

	// Revision is the document revision the report describes.
	Revision uint64
}

// ValidationReport is the outcome of validating a whole document
// against one schema.
type ValidationReport struct {
	// SchemaID identifies the schema validated against.
	SchemaID string

	// Issues lists every finding, in document order.
	Issues []ValidationIssue
}

// Pass reports whether the document conforms: no critical issues.
func (r ValidationReport) Pass() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityCritical {
			return false
		}
	}
	return true
}

// Criticals returns the number of critical issues.
func (r ValidationReport) Criticals() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityCritical {
			n++
		}
	}
	return n
}

// Warnings returns the number of warning issues.
func (r ValidationReport) Warnings() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityWarning {
			n++
		}
	}
	return n
}

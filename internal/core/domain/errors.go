package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a record already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidMutation indicates a mutation was rejected by
	// validation. The concrete failure travels in a MutationError.
	ErrInvalidMutation = errors.New("invalid mutation")

	// ErrNoSession indicates no document session is open.
	ErrNoSession = errors.New("no open session")

	// Schema Errors.

	// ErrSchemaNotFound indicates no registered source can provide the
	// requested grammar.
	ErrSchemaNotFound = errors.New("schema not found")

	// ErrSchemaUnavailable indicates a schema source is temporarily
	// unreachable. Resolution falls through to the next source.
	ErrSchemaUnavailable = errors.New("schema source unavailable")
)

// ParseError reports malformed document markup. Parsing is fail-fast:
// the first structural problem aborts with the line it was found on.
type ParseError struct {
	// Line is the 1-based source line, or 0 when unknown.
	Line int

	// Detail describes the problem.
	Detail string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Detail)
	}
	return fmt.Sprintf("parse error: %s", e.Detail)
}

// SchemaParseError reports an unusable grammar, such as one whose root
// element is not grammar. Compilation fails fast on these.
type SchemaParseError struct {
	// SchemaID identifies the grammar, when known.
	SchemaID string

	// Line is the 1-based source line, or 0 when unknown.
	Line int

	// Detail describes the problem.
	Detail string
}

// Error implements the error interface.
func (e *SchemaParseError) Error() string {
	id := e.SchemaID
	if id == "" {
		id = "schema"
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s: parse error at line %d: %s", id, e.Line, e.Detail)
	}
	return fmt.Sprintf("%s: parse error: %s", id, e.Detail)
}

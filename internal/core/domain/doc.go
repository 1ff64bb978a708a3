// Package domain defines the core business entities for Glossa.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An immutable annotated document with derived indices
//   - Passage: A block-level unit of text (p, ab, l)
//   - Tag: An annotation applied to a range within a passage
//   - DialogueSpan: A speech attribution derived from speech-role tags
//   - Entity kinds: Character, Place, Organization
//   - Relationship: A directed link between entities
//   - EntityDelta: The unit of the append-only change log
//   - ConstraintTable: A compiled schema for validation
//   - ValidationError: A recoverable mutation failure with a suggested fix
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain

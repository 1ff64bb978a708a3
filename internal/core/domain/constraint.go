package domain

import "sort"

// AttrType classifies an attribute value in a compiled schema.
type AttrType string

const (
	// AttrString accepts any value. The default.
	AttrString AttrType = "string"

	// AttrToken accepts whitespace-normalised values.
	AttrToken AttrType = "token"

	// AttrID declares a markup identifier. Values must be unique
	// within the document.
	AttrID AttrType = "ID"

	// AttrIDRef declares a reference to a markup identifier. Values
	// must resolve to an entity xml:id.
	AttrIDRef AttrType = "IDREF"

	// AttrNCName accepts a non-colonised name.
	AttrNCName AttrType = "NCName"
)

// AttributeConstraint is the compiled rule for one attribute of a tag.
type AttributeConstraint struct {
	// Name is the attribute name.
	Name string

	// Required marks the attribute as mandatory on the tag.
	Required bool

	// Type classifies the value.
	Type AttrType

	// Enum restricts the value to a fixed set when non-empty.
	Enum []string
}

// Allows reports whether the value satisfies the enum restriction.
// Attributes without an enum allow any value.
func (a AttributeConstraint) Allows(value string) bool {
	if len(a.Enum) == 0 {
		return true
	}
	for _, v := range a.Enum {
		if v == value {
			return true
		}
	}
	return false
}

// ContentKind classifies what a tag may contain.
type ContentKind uint8

const (
	// ContentText allows character data only. The default for
	// elements whose pattern the compiler cannot classify.
	ContentText ContentKind = iota

	// ContentElements allows child elements only.
	ContentElements

	// ContentMixed allows character data interleaved with the listed
	// child elements.
	ContentMixed

	// ContentEmpty allows nothing.
	ContentEmpty
)

// String returns the content kind name used in reports.
func (c ContentKind) String() string {
	switch c {
	case ContentText:
		return "text"
	case ContentElements:
		return "elements"
	case ContentMixed:
		return "mixed"
	case ContentEmpty:
		return "empty"
	}
	return "unknown"
}

// TagConstraint is the compiled rule set for one tag (element) name.
// The table is flat: validating a tag needs no reference chasing.
type TagConstraint struct {
	// Name is the tag name the constraint applies to.
	Name string

	// Attrs holds the attribute rules by attribute name.
	Attrs map[string]AttributeConstraint

	// Content classifies what the tag may contain.
	Content ContentKind

	// Children lists the allowed child tag names for element and
	// mixed content.
	Children map[string]bool
}

// RequiredAttrs returns the names of mandatory attributes, sorted.
func (t TagConstraint) RequiredAttrs() []string {
	var names []string
	for name, a := range t.Attrs {
		if a.Required {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// AllowsChild reports whether a child tag of the given name may nest
// inside this tag.
func (t TagConstraint) AllowsChild(name string) bool {
	switch t.Content {
	case ContentElements, ContentMixed:
		return t.Children[name]
	}
	return false
}

// AllowsText reports whether character data may appear inside the tag.
func (t TagConstraint) AllowsText() bool {
	return t.Content == ContentText || t.Content == ContentMixed
}

// ConstraintTable is a compiled schema: every constrained tag name
// mapped to its rules, plus the compile-time warnings.
type ConstraintTable struct {
	// SchemaID identifies the grammar this table was compiled from.
	SchemaID string

	// Tags holds the constraint rows keyed by tag name.
	Tags map[string]TagConstraint

	// Warnings lists non-fatal compilation findings, such as
	// unrecognised pattern combinators that fell back to text-only.
	Warnings []string
}

// Lookup returns the constraint row for a tag name.
func (c ConstraintTable) Lookup(name string) (TagConstraint, bool) {
	t, ok := c.Tags[name]
	return t, ok
}

// Known reports whether the table constrains the given tag name.
func (c ConstraintTable) Known(name string) bool {
	_, ok := c.Tags[name]
	return ok
}

// Names returns every constrained tag name, sorted.
func (c ConstraintTable) Names() []string {
	names := make([]string, 0, len(c.Tags))
	for name := range c.Tags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SchemaRef is one entry of the schema catalog.
type SchemaRef struct {
	// ID is the schema identifier used for fetching and caching.
	ID string

	// Name is the human-readable schema name.
	Name string

	// Description summarises what the schema enforces.
	Description string
}

// ConformanceResult is the outcome of progressive schema resolution.
type ConformanceResult struct {
	// EffectiveSchemaID is the first catalog schema the document fully
	// passed, or "" when none passed.
	EffectiveSchemaID string

	// Report is the validation report for the effective schema, or for
	// the strictest attempted schema when none passed, so the caller
	// sees everything between the document and full conformance.
	Report ValidationReport

	// Attempted lists the schema IDs tried, in catalog order.
	Attempted []string

	// Notes records catalog schemas that could not be loaded or
	// compiled during resolution, with the reason.
	Notes []string
}

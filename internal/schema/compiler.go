package schema

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
	"github.com/custodia-labs/glossa-cli/internal/markup"
)

// Pattern combinators the compiler understands. Anything else is
// flagged and the element falls back to text-only.
var knownPatterns = map[string]bool{
	"element":    true,
	"attribute":  true,
	"text":       true,
	"empty":      true,
	"data":       true,
	"value":      true,
	"choice":     true,
	"group":      true,
	"interleave": true,
	"mixed":      true,
	"optional":   true,
	"zeroOrMore": true,
	"oneOrMore":  true,
	"ref":        true,
}

// Compile parses grammar text into a flat constraint table keyed by
// element name. The grammar root must be a grammar element; anything
// else fails fast with a domain.SchemaParseError. Non-fatal findings
// (unrecognised combinators, unresolvable refs, duplicate definitions)
// are collected into the table's Warnings.
func Compile(schemaID, grammar string) (domain.ConstraintTable, error) {
	table := domain.ConstraintTable{
		SchemaID: schemaID,
		Tags:     make(map[string]domain.TagConstraint),
	}

	root, err := markup.Decode(grammar)
	if err != nil {
		var perr *domain.ParseError
		if errors.As(err, &perr) {
			return table, &domain.SchemaParseError{SchemaID: schemaID, Line: perr.Line, Detail: perr.Detail}
		}
		return table, &domain.SchemaParseError{SchemaID: schemaID, Detail: err.Error()}
	}
	if root.Name != "grammar" {
		return table, &domain.SchemaParseError{
			SchemaID: schemaID,
			Line:     root.Line,
			Detail:   fmt.Sprintf("root element is %q, want \"grammar\"", root.Name),
		}
	}

	c := &compiler{table: &table, defines: make(map[string]*markup.Node)}

	// First pass: index defines so refs resolve regardless of order.
	for _, child := range root.ChildElements() {
		if child.Name != "define" {
			continue
		}
		name := child.Attr("name")
		if name == "" {
			c.warnf("define without a name ignored")
			continue
		}
		if _, dup := c.defines[name]; dup {
			c.warnf("duplicate define %q ignored", name)
			continue
		}
		c.defines[name] = child
	}

	// Second pass: compile every element reachable from a define.
	for _, child := range root.ChildElements() {
		switch child.Name {
		case "define":
			if elem := child.Child("element"); elem != nil {
				c.compileElement(elem)
			} else if c.defines[child.Attr("name")] == child {
				c.warnf("define %q holds no element and was ignored", child.Attr("name"))
			}
		case "start":
			// The catalog decides the document root; start is accepted
			// and otherwise ignored.
		default:
			c.warnf("unrecognised top-level pattern <%s> ignored", child.Name)
		}
	}

	return table, nil
}

// compiler carries the shared state of one Compile run.
type compiler struct {
	table   *domain.ConstraintTable
	defines map[string]*markup.Node
}

func (c *compiler) warnf(format string, args ...any) {
	c.table.Warnings = append(c.table.Warnings, fmt.Sprintf(format, args...))
}

// elementName resolves a define name to the element it defines.
func (c *compiler) elementName(define string) string {
	node, ok := c.defines[define]
	if !ok {
		return ""
	}
	if elem := node.Child("element"); elem != nil {
		return elem.Attr("name")
	}
	return ""
}

// compileElement flattens one element pattern into a table row.
// Inline child elements are compiled recursively.
func (c *compiler) compileElement(elem *markup.Node) {
	name := elem.Attr("name")
	if name == "" {
		c.warnf("element without a name ignored")
		return
	}
	if _, dup := c.table.Tags[name]; dup {
		c.warnf("duplicate definition for element %q ignored", name)
		return
	}
	// Reserve the slot before descending so mutually recursive
	// definitions terminate.
	c.table.Tags[name] = domain.TagConstraint{Name: name}

	row := &rowState{
		name:     name,
		attrs:    make(map[string]domain.AttributeConstraint),
		children: make(map[string]bool),
	}
	for _, child := range elem.Children {
		c.walkPattern(child, row, true)
	}

	constraint := domain.TagConstraint{
		Name:     name,
		Attrs:    row.attrs,
		Children: row.children,
		Content:  row.contentKind(),
	}
	c.table.Tags[name] = constraint
}

// rowState accumulates one element's facts during the pattern walk.
type rowState struct {
	name     string
	attrs    map[string]domain.AttributeConstraint
	children map[string]bool
	hasText  bool
	hasEmpty bool
	fallback bool
}

// contentKind classifies the accumulated content pattern. An element
// with an unrecognised combinator, or with no content pattern at all,
// defaults to text-only.
func (r *rowState) contentKind() domain.ContentKind {
	switch {
	case r.fallback:
		return domain.ContentText
	case r.hasText && len(r.children) > 0:
		return domain.ContentMixed
	case len(r.children) > 0:
		return domain.ContentElements
	case r.hasEmpty && !r.hasText:
		return domain.ContentEmpty
	default:
		return domain.ContentText
	}
}

// walkPattern interprets one pattern node. required tracks whether the
// current position is wrapped in optional-like combinators, which
// matters only for attributes.
func (c *compiler) walkPattern(n *markup.Node, row *rowState, required bool) {
	if n.Kind != markup.ElementNode {
		return
	}
	if !knownPatterns[n.Name] {
		c.warnf("element %q: unrecognised pattern <%s>; content defaults to text-only", row.name, n.Name)
		row.fallback = true
		return
	}

	switch n.Name {
	case "text":
		row.hasText = true

	case "empty":
		row.hasEmpty = true

	case "attribute":
		c.compileAttribute(n, row, required)

	case "element":
		child := n.Attr("name")
		if child == "" {
			c.warnf("element %q: inline element without a name ignored", row.name)
			return
		}
		row.children[child] = true
		c.compileElement(n)

	case "ref":
		target := n.Attr("name")
		resolved := c.elementName(target)
		if resolved == "" {
			c.warnf("element %q: unresolvable ref %q ignored", row.name, target)
			return
		}
		row.children[resolved] = true

	case "optional", "zeroOrMore":
		for _, child := range n.Children {
			c.walkPattern(child, row, false)
		}

	case "choice":
		// A choice of attributes means none is individually required.
		for _, child := range n.Children {
			c.walkPattern(child, row, false)
		}

	case "mixed":
		row.hasText = true
		for _, child := range n.Children {
			c.walkPattern(child, row, required)
		}

	case "group", "interleave", "oneOrMore":
		for _, child := range n.Children {
			c.walkPattern(child, row, required)
		}

	case "data", "value":
		// Bare data/value at content position constrains character
		// data; the table models that as text content.
		row.hasText = true
	}
}

// compileAttribute flattens one attribute pattern.
func (c *compiler) compileAttribute(n *markup.Node, row *rowState, required bool) {
	name := n.Attr("name")
	if name == "" {
		c.warnf("element %q: attribute without a name ignored", row.name)
		return
	}
	if _, dup := row.attrs[name]; dup {
		c.warnf("element %q: duplicate attribute %q ignored", row.name, name)
		return
	}

	attr := domain.AttributeConstraint{
		Name:     name,
		Required: required,
		Type:     domain.AttrString,
	}
	for _, child := range n.ChildElements() {
		switch child.Name {
		case "data":
			attr.Type = attrType(child.Attr("type"))
		case "choice":
			for _, v := range child.ChildElements() {
				if v.Name == "value" {
					attr.Enum = append(attr.Enum, v.InnerText())
				}
			}
		case "value":
			attr.Enum = append(attr.Enum, child.InnerText())
		case "text":
			// Explicit free text; the default.
		default:
			c.warnf("element %q: attribute %q: unrecognised pattern <%s> ignored", row.name, name, child.Name)
		}
	}
	row.attrs[name] = attr
}

// attrType maps a data type name onto the compiled classification.
// Unknown type names compile as plain strings.
func attrType(name string) domain.AttrType {
	switch name {
	case "token":
		return domain.AttrToken
	case "ID":
		return domain.AttrID
	case "IDREF":
		return domain.AttrIDRef
	case "NCName":
		return domain.AttrNCName
	default:
		return domain.AttrString
	}
}

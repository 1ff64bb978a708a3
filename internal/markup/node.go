package markup

import "strings"

// NodeKind discriminates the node union.
type NodeKind uint8

const (
	// ElementNode is a markup element with a name, attributes, and
	// children.
	ElementNode NodeKind = iota

	// TextNode is character data.
	TextNode
)

// Attr is one attribute of an element. Order is preserved from the
// source, and the serializer writes attributes in stored order.
type Attr struct {
	// Name is the attribute name, prefixed for namespaced attributes
	// ("xml:id").
	Name string

	// Value is the attribute value, unescaped.
	Value string
}

// Node is one node of the document tree: either an element or character
// data, discriminated by Kind. Element nodes use Name, Attrs, and
// Children; text nodes use Text.
type Node struct {
	// Kind discriminates element from text.
	Kind NodeKind

	// Name is the element name. Empty for text nodes.
	Name string

	// Attrs are the element attributes in source order.
	Attrs []Attr

	// Children are the element's child nodes in source order.
	Children []*Node

	// Text is the character data. Empty for element nodes.
	Text string

	// Line is the 1-based source line the node started on, when the
	// tree came from the decoder. Zero for constructed nodes.
	Line int
}

// Element constructs an element node.
func Element(name string, attrs ...Attr) *Node {
	return &Node{Kind: ElementNode, Name: name, Attrs: attrs}
}

// Text constructs a text node.
func Text(s string) *Node {
	return &Node{Kind: TextNode, Text: s}
}

// Attr returns the named attribute value, or "" when absent.
func (n *Node) Attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value
		}
	}
	return ""
}

// HasAttr reports whether the named attribute is present.
func (n *Node) HasAttr(name string) bool {
	for _, a := range n.Attrs {
		if a.Name == name {
			return true
		}
	}
	return false
}

// SetAttr sets the named attribute, replacing an existing value or
// appending a new attribute.
func (n *Node) SetAttr(name, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

// Append adds children in order and returns n for chaining.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// ChildElements returns the element children, skipping text nodes.
func (n *Node) ChildElements() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// Child returns the first child element with the given name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Kind == ElementNode && c.Name == name {
			return c
		}
	}
	return nil
}

// Find returns the first element named name in a pre-order walk of the
// subtree rooted at n, including n itself. Nil when absent.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Walk(func(node *Node) bool {
		if found != nil {
			return false
		}
		if node.Kind == ElementNode && node.Name == name {
			found = node
			return false
		}
		return true
	})
	return found
}

// FindAll returns every element named name in the subtree, pre-order.
func (n *Node) FindAll(name string) []*Node {
	var out []*Node
	n.Walk(func(node *Node) bool {
		if node.Kind == ElementNode && node.Name == name {
			out = append(out, node)
		}
		return true
	})
	return out
}

// InnerText concatenates all character data in the subtree, in order.
func (n *Node) InnerText() string {
	var b strings.Builder
	n.Walk(func(node *Node) bool {
		if node.Kind == TextNode {
			b.WriteString(node.Text)
		}
		return true
	})
	return b.String()
}

// Walk visits the subtree rooted at n in pre-order. Returning false
// from the visitor skips the node's children.
func (n *Node) Walk(visit func(*Node) bool) {
	if !visit(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(visit)
	}
}

// Clone returns a deep copy of the subtree.
func (n *Node) Clone() *Node {
	out := &Node{Kind: n.Kind, Name: n.Name, Text: n.Text, Line: n.Line}
	if len(n.Attrs) > 0 {
		out.Attrs = append([]Attr(nil), n.Attrs...)
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, c.Clone())
	}
	return out
}

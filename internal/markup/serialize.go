package markup

import "strings"

// Header is the declaration written ahead of serialized documents.
const Header = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

// Serialize renders the tree on a single line with no added
// whitespace. The output round-trips: decoding it reproduces the tree.
func Serialize(root *Node) string {
	var b strings.Builder
	b.WriteString(Header)
	writeInline(&b, root)
	b.WriteByte('\n')
	return b.String()
}

// SerializeIndent renders the tree with two-space indentation for
// structural elements. Elements named in inline, and elements with
// direct character data, are written verbatim on one line so indexed
// text offsets survive the round trip; whitespace-only text between
// structural elements is treated as formatting and dropped.
func SerializeIndent(root *Node, inline map[string]bool) string {
	var b strings.Builder
	b.WriteString(Header)
	writeIndent(&b, root, 0, inline)
	b.WriteByte('\n')
	return b.String()
}

func writeIndent(b *strings.Builder, n *Node, depth int, inline map[string]bool) {
	if n.Kind == TextNode {
		// Block context reaches here only for formatting whitespace.
		return
	}
	if inline[n.Name] || hasDirectText(n) {
		writeInline(b, n)
		return
	}
	if len(n.Children) == 0 {
		writeSelfClosing(b, n)
		return
	}

	writeOpen(b, n)
	wrote := false
	for _, c := range n.Children {
		if c.Kind == TextNode && strings.TrimSpace(c.Text) == "" {
			continue
		}
		b.WriteByte('\n')
		b.WriteString(strings.Repeat("  ", depth+1))
		writeIndent(b, c, depth+1, inline)
		wrote = true
	}
	if wrote {
		b.WriteByte('\n')
		b.WriteString(strings.Repeat("  ", depth))
	}
	writeClose(b, n)
}

func writeInline(b *strings.Builder, n *Node) {
	if n.Kind == TextNode {
		b.WriteString(textEscaper.Replace(n.Text))
		return
	}
	if len(n.Children) == 0 {
		writeSelfClosing(b, n)
		return
	}
	writeOpen(b, n)
	for _, c := range n.Children {
		writeInline(b, c)
	}
	writeClose(b, n)
}

func writeOpen(b *strings.Builder, n *Node) {
	b.WriteByte('<')
	b.WriteString(n.Name)
	writeAttrs(b, n)
	b.WriteByte('>')
}

func writeClose(b *strings.Builder, n *Node) {
	b.WriteString("</")
	b.WriteString(n.Name)
	b.WriteByte('>')
}

func writeSelfClosing(b *strings.Builder, n *Node) {
	b.WriteByte('<')
	b.WriteString(n.Name)
	writeAttrs(b, n)
	b.WriteString("/>")
}

func writeAttrs(b *strings.Builder, n *Node) {
	for _, a := range n.Attrs {
		b.WriteByte(' ')
		b.WriteString(a.Name)
		b.WriteString(`="`)
		b.WriteString(attrEscaper.Replace(a.Value))
		b.WriteByte('"')
	}
}

// hasDirectText reports whether the element has a non-whitespace text
// child of its own, which forces inline rendering.
func hasDirectText(n *Node) bool {
	for _, c := range n.Children {
		if c.Kind == TextNode && strings.TrimSpace(c.Text) != "" {
			return true
		}
	}
	return false
}

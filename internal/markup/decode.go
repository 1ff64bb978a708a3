package markup

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
)

// Decode parses markup text into a node tree. The first structural
// problem aborts with a domain.ParseError carrying the source line.
// Comments, processing instructions, and directives are dropped;
// namespace declarations are dropped and element names are kept local.
func Decode(text string) (*Node, error) {
	dec := xml.NewDecoder(strings.NewReader(text))

	var root *Node
	var stack []*Node

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, parseError(err, text, dec.InputOffset())
		}

		switch t := tok.(type) {
		case xml.StartElement:
			node := &Node{
				Kind: ElementNode,
				Name: t.Name.Local,
				Line: lineAt(text, dec.InputOffset()),
			}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				node.Attrs = append(node.Attrs, Attr{Name: attrName(a.Name), Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, &domain.ParseError{
						Line:   node.Line,
						Detail: "multiple root elements",
					}
				}
				root = node
			} else {
				stack[len(stack)-1].Children = append(stack[len(stack)-1].Children, node)
			}
			stack = append(stack, node)

		case xml.EndElement:
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			appendText(stack[len(stack)-1], string(t))
		}
	}

	if root == nil {
		return nil, &domain.ParseError{Detail: "no root element"}
	}
	return root, nil
}

// appendText adds character data to a parent, merging with a trailing
// text child so entity boundaries never split text nodes.
func appendText(parent *Node, s string) {
	if n := len(parent.Children); n > 0 && parent.Children[n-1].Kind == TextNode {
		parent.Children[n-1].Text += s
		return
	}
	parent.Children = append(parent.Children, Text(s))
}

// xmlNamespace is the predeclared namespace the decoder reports as the
// Space of xml:-prefixed attributes.
const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// attrName renders a decoded attribute name, restoring the xml: prefix
// the decoder strips into the name space. The decoder resolves the
// predeclared prefix to its namespace URI, so both spellings map back.
func attrName(name xml.Name) string {
	if name.Space == "xml" || name.Space == xmlNamespace {
		return "xml:" + name.Local
	}
	return name.Local
}

// parseError converts a decoder error into a domain.ParseError.
func parseError(err error, text string, offset int64) error {
	var syn *xml.SyntaxError
	if errors.As(err, &syn) {
		return &domain.ParseError{Line: syn.Line, Detail: syn.Msg}
	}
	return &domain.ParseError{Line: lineAt(text, offset), Detail: err.Error()}
}

// lineAt returns the 1-based line containing the byte offset.
func lineAt(text string, offset int64) int {
	if offset > int64(len(text)) {
		offset = int64(len(text))
	}
	return 1 + strings.Count(text[:offset], "\n")
}

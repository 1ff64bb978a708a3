// Package markup provides the document tree for TEI-style markup: a
// tagged-union node type, a decoder from markup text, and a serializer
// back to text.
//
// The package is deliberately generic. It knows elements, attributes,
// and character data, but nothing about passages, dialogue, or
// entities; the index-building services interpret the tree.
package markup

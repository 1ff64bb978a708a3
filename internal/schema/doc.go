// Package schema compiles grammar text into flat constraint tables.
//
// The input dialect is a small subset of RelaxNG XML syntax: a grammar
// root holding define blocks, each defining an element with attribute
// patterns and a content pattern. Compilation flattens everything into
// one table row per element name so validation never chases
// references. Unrecognised pattern combinators are flagged as warnings
// and the affected element falls back to text-only content.
package schema

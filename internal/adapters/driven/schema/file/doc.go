// Package file serves RelaxNG grammars from the filesystem. The three
// built-in catalog grammars are embedded in the binary; configured
// directories can add schemas or override built-ins, and a watcher
// invalidates compiled-constraint caches when a grammar file changes.
package file

// Package sqlite provides a SQLite-based implementation of the session
// store port.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation. It persists:
//
//   - sessions: one row per open document (markup, revision, history cursor)
//   - deltas: the append-only entity delta log, one JSON payload per row
//   - events: the document mutation audit trail
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql
// files.
//
// # Data Location
//
// By default, the database is stored at ~/.glossa/data/glossa.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite

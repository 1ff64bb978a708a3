package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/glossa-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/glossa-cli/internal/core/domain"
	"github.com/custodia-labs/glossa-cli/internal/core/ports/driven"
)

// Store is the SQLite-backed persistence layer. It owns one database
// connection and hands out the store interfaces as wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.glossa/data/glossa.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".glossa", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "glossa.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SessionStore returns a SessionStore interface backed by this store.
func (s *Store) SessionStore() driven.SessionStore {
	return &sessionStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Session Store ====================

// sessionStore implements driven.SessionStore.
type sessionStore struct {
	store *Store
}

var _ driven.SessionStore = (*sessionStore)(nil)

// SaveSession stores or updates a session.
func (s *sessionStore) SaveSession(ctx context.Context, session *domain.Session) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sessions (id, path, title, markup, revision, cursor, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path = excluded.path,
			title = excluded.title,
			markup = excluded.markup,
			revision = excluded.revision,
			cursor = excluded.cursor,
			updated_at = excluded.updated_at
	`, session.ID, session.Path, session.Title, session.Markup,
		session.Revision, session.Cursor, session.CreatedAt, session.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID.
func (s *sessionStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, path, title, markup, revision, cursor, created_at, updated_at
		FROM sessions WHERE id = ?
	`, id)

	var session domain.Session
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&session.ID, &session.Path, &session.Title, &session.Markup,
		&session.Revision, &session.Cursor, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	if createdAt.Valid {
		session.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		session.UpdatedAt = updatedAt.Time
	}

	return &session, nil
}

// ListSessions returns all sessions, most recently updated first.
func (s *sessionStore) ListSessions(ctx context.Context) ([]domain.Session, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, path, title, markup, revision, cursor, created_at, updated_at
		FROM sessions
		ORDER BY updated_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session //nolint:prealloc // size unknown from query
	for rows.Next() {
		var session domain.Session
		var createdAt, updatedAt sql.NullTime
		if err := rows.Scan(&session.ID, &session.Path, &session.Title, &session.Markup,
			&session.Revision, &session.Cursor, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		if createdAt.Valid {
			session.CreatedAt = createdAt.Time
		}
		if updatedAt.Valid {
			session.UpdatedAt = updatedAt.Time
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}

	return sessions, nil
}

// DeleteSession removes a session with its deltas and events.
func (s *sessionStore) DeleteSession(ctx context.Context, id string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM deltas WHERE session_id = ?", id); err != nil {
		return fmt.Errorf("deleting session deltas: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM events WHERE session_id = ?", id); err != nil {
		return fmt.Errorf("deleting session events: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// AppendDelta stores the delta at the given sequence number. Sequence
// numbers are dense, so seq must be exactly one past the current log.
func (s *sessionStore) AppendDelta(ctx context.Context, sessionID string, seq int, delta domain.EntityDelta) error {
	payload, err := json.Marshal(delta)
	if err != nil {
		return fmt.Errorf("marshalling delta: %w", err)
	}

	var next int
	err = s.store.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) + 1 FROM deltas WHERE session_id = ?", sessionID).Scan(&next)
	if err != nil {
		return fmt.Errorf("getting next delta sequence: %w", err)
	}
	if seq != next {
		return fmt.Errorf("delta sequence %d out of order, want %d: %w", seq, next, domain.ErrInvalidInput)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO deltas (session_id, seq, payload) VALUES (?, ?, ?)
	`, sessionID, seq, string(payload))
	if err != nil {
		return fmt.Errorf("appending delta: %w", err)
	}
	return nil
}

// TruncateDeltas removes every delta with sequence >= fromSeq.
func (s *sessionStore) TruncateDeltas(ctx context.Context, sessionID string, fromSeq int) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM deltas WHERE session_id = ? AND seq >= ?", sessionID, fromSeq)
	if err != nil {
		return fmt.Errorf("truncating deltas: %w", err)
	}
	return nil
}

// ListDeltas returns the session's deltas in sequence order.
func (s *sessionStore) ListDeltas(ctx context.Context, sessionID string) ([]domain.EntityDelta, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT payload FROM deltas WHERE session_id = ? ORDER BY seq
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying deltas: %w", err)
	}
	defer rows.Close()

	var deltas []domain.EntityDelta //nolint:prealloc // size unknown from query
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning delta: %w", err)
		}
		var delta domain.EntityDelta
		if err := json.Unmarshal([]byte(payload), &delta); err != nil {
			return nil, fmt.Errorf("unmarshalling delta: %w", err)
		}
		deltas = append(deltas, delta)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating deltas: %w", err)
	}

	return deltas, nil
}

// AppendEvent appends to the session's document event trail, assigning
// the next sequence number.
func (s *sessionStore) AppendEvent(ctx context.Context, sessionID string, event domain.DocEvent) error {
	var next uint64
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) + 1 FROM events WHERE session_id = ?", sessionID).Scan(&next)
	if err != nil {
		return fmt.Errorf("getting next event sequence: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO events (session_id, seq, op, passage_id, tag_id, detail, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, sessionID, next, event.Op, event.PassageID, event.TagID, event.Detail, event.At)
	if err != nil {
		return fmt.Errorf("appending event: %w", err)
	}
	return nil
}

// ListEvents returns the event trail in sequence order.
func (s *sessionStore) ListEvents(ctx context.Context, sessionID string) ([]domain.DocEvent, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT seq, op, passage_id, tag_id, detail, at
		FROM events WHERE session_id = ? ORDER BY seq
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []domain.DocEvent //nolint:prealloc // size unknown from query
	for rows.Next() {
		var event domain.DocEvent
		var at sql.NullTime
		if err := rows.Scan(&event.Seq, &event.Op, &event.PassageID, &event.TagID, &event.Detail, &at); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		if at.Valid {
			event.At = at.Time
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}

	return events, nil
}

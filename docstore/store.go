// Package docstore is an append-only revisioned document store on SQLite.
// It exists as a realistic provider to dispatch against: documents are
// histories of canonical JSON revisions, and every outcome is reported as a
// Response rather than a Go error wherever the outcome is part of the data
// model (missing documents, revision conflicts, bad revision requests).
package docstore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/edict/internal/canon"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - empty database (no schema applied)
// 1 - initial documents table
const currentSchemaVersion = 1

// Latest addresses the newest revision of a document.
const Latest = -1

// Store holds revisioned documents in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path (":memory:"
// works). Applies required pragmas and the schema automatically.
//
// The database is configured with:
//   - WAL mode
//   - FULL synchronous mode
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times on one path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer at a time, so limit connections. A single
	// connection also keeps :memory: databases alive between calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = FULL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and tracks the schema
// version. Idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than this build (%d)",
			version, currentSchemaVersion)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// Get reads one revision of a document.
//
// An absent document or a revision past the end is NOT_FOUND; a revision
// below Latest is BAD_REQUEST; Latest resolves to the newest revision. The
// OK response carries the resolved revision and the decoded document.
//
// The returned error covers storage faults only; data-model outcomes are
// statuses.
func (s *Store) Get(ctx context.Context, id string, rev int) (Response, error) {
	count, err := s.revisions(ctx, id)
	if err != nil {
		return Response{}, fmt.Errorf("get document: %w", err)
	}
	if count == 0 {
		return Response{Status: NotFound, ID: id, Rev: rev}, nil
	}
	if rev >= count {
		return Response{Status: NotFound, ID: id, Rev: rev}, nil
	}
	if rev < Latest {
		return Response{Status: BadRequest, ID: id, Rev: rev}, nil
	}
	resolved := rev
	if resolved < 0 {
		resolved = count + resolved
	}

	var body string
	err = s.db.QueryRowContext(ctx, `
		SELECT body FROM documents WHERE id = ? AND rev = ?
	`, id, resolved).Scan(&body)
	if err == sql.ErrNoRows {
		return Response{Status: NotFound, ID: id, Rev: rev}, nil
	}
	if err != nil {
		return Response{}, fmt.Errorf("get document: %w", err)
	}

	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return Response{}, fmt.Errorf("get document: decode body: %w", err)
	}
	return Response{Status: OK, ID: id, Rev: resolved, Doc: doc}, nil
}

// Put appends one revision to a document's history. The write succeeds only
// when rev equals the current history length (0 for a new document); any
// other revision is CONFLICT. The body is stored as canonical JSON.
func (s *Store) Put(ctx context.Context, id string, rev int, doc any) (Response, error) {
	body, err := canon.Marshal(doc)
	if err != nil {
		return Response{}, fmt.Errorf("put document: encode body: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Response{}, fmt.Errorf("put document: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM documents WHERE id = ?
	`, id).Scan(&count)
	if err != nil {
		return Response{}, fmt.Errorf("put document: count revisions: %w", err)
	}
	if rev != count {
		return Response{Status: Conflict, ID: id, Rev: rev}, nil
	}

	// ON CONFLICT DO NOTHING guards the (id, rev) slot; a zero row count
	// means the slot was already taken.
	result, err := tx.ExecContext(ctx, `
		INSERT INTO documents (id, rev, body)
		VALUES (?, ?, ?)
		ON CONFLICT(id, rev) DO NOTHING
	`, id, rev, string(body))
	if err != nil {
		return Response{}, fmt.Errorf("put document: insert: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return Response{}, fmt.Errorf("put document: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return Response{Status: Conflict, ID: id, Rev: rev}, nil
	}

	if err := tx.Commit(); err != nil {
		return Response{}, fmt.Errorf("put document: commit: %w", err)
	}
	return Response{Status: OK, ID: id, Rev: rev}, nil
}

// Create writes revision 0 of a new document under a server-assigned
// UUIDv7 and returns the new ID in the response.
func (s *Store) Create(ctx context.Context, doc any) (Response, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Response{}, fmt.Errorf("create document: new id: %w", err)
	}
	return s.Put(ctx, id.String(), 0, doc)
}

// revisions returns the history length of a document, 0 when absent.
func (s *Store) revisions(ctx context.Context, id string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM documents WHERE id = ?
	`, id).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

// Package ledger persists the processed-set: the durable record of
// documents already fully evaluated. It is the sole on-disk state and
// the unit of idempotence for the poll loop.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// OpenSQLite opens (and creates if needed) the file-backed ledger.
func OpenSQLite(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sql open sqlite: %w", err)
	}
	// The poller is the single writer.
	db.SetMaxOpenConns(1)
	return NewStore(db, DialectSQLite), nil
}

func OpenPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open postgres: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ledger db ping: %w", err)
	}
	return NewStore(db, DialectPostgres), nil
}

func NewStore(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect, now: time.Now}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	var ddl string
	switch s.dialect {
	case DialectPostgres:
		ddl = `CREATE TABLE IF NOT EXISTS processed_docs(
	doc_id BIGINT PRIMARY KEY,
	processed_utc BIGINT NOT NULL
)`
	default:
		ddl = `CREATE TABLE IF NOT EXISTS processed_docs(
	doc_id INTEGER PRIMARY KEY,
	processed_utc INTEGER NOT NULL
)`
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure ledger schema: %w", err)
	}
	return nil
}

func (s *Store) Contains(ctx context.Context, documentID int) (bool, error) {
	query := `SELECT doc_id FROM processed_docs WHERE doc_id = ?`
	if s.dialect == DialectPostgres {
		query = `SELECT doc_id FROM processed_docs WHERE doc_id = $1`
	}

	var id int
	err := s.db.QueryRowContext(ctx, query, documentID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger lookup: %w", err)
	}
	return true, nil
}

// MarkDone records the document as fully evaluated. The insert is
// idempotent: a second call for the same id leaves the original
// timestamp untouched.
func (s *Store) MarkDone(ctx context.Context, documentID int) error {
	query := `INSERT OR IGNORE INTO processed_docs(doc_id, processed_utc) VALUES(?, ?)`
	if s.dialect == DialectPostgres {
		query = `INSERT INTO processed_docs(doc_id, processed_utc) VALUES($1, $2) ON CONFLICT (doc_id) DO NOTHING`
	}

	if _, err := s.db.ExecContext(ctx, query, documentID, s.now().UTC().Unix()); err != nil {
		return fmt.Errorf("ledger insert: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

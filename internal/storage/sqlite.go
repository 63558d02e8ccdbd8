package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/frontdesk/internal/models"
	"github.com/hyperjump/frontdesk/internal/vector"
)

// ErrSchemaMismatch reports a booking_rows table written by an incompatible version.
var ErrSchemaMismatch = errors.New("booking_rows schema mismatch")

var rowColumns = []string{"source_path", "row_index", "fields", "row_text", "embedding"}

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db        *sql.DB
	path      string
	recreated bool
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist. A booking_rows table with an
// incompatible shape is dropped and recreated.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	s := &SQLiteStorage{db: db, path: dbPath}
	if err := checkSchema(db); errors.Is(err, ErrSchemaMismatch) {
		if _, err := db.Exec(`DROP TABLE booking_rows`); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to drop stale table: %w", err)
		}
		s.recreated = true
	} else if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to inspect schema: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS booking_rows (
		source_path TEXT NOT NULL,
		row_index INTEGER NOT NULL,
		fields TEXT NOT NULL,
		row_text TEXT NOT NULL,
		embedding BLOB NOT NULL,
		PRIMARY KEY (source_path, row_index)
	);

	CREATE TABLE IF NOT EXISTS booking_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// checkSchema returns ErrSchemaMismatch when booking_rows exists but lacks a column.
func checkSchema(db *sql.DB) error {
	rows, err := db.Query(`PRAGMA table_info(booking_rows)`)
	if err != nil {
		return err
	}
	defer rows.Close()

	have := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return err
		}
		have[name] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(have) == 0 {
		return nil
	}
	for _, col := range rowColumns {
		if !have[col] {
			return fmt.Errorf("%w: missing column %s", ErrSchemaMismatch, col)
		}
	}
	return nil
}

// SchemaRecreated reports whether opening the database dropped an incompatible table.
func (s *SQLiteStorage) SchemaRecreated() bool {
	return s.recreated
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.path
}

// ReplaceRows atomically swaps the rows stored for sourcePath and writes meta.
func (s *SQLiteStorage) ReplaceRows(ctx context.Context, sourcePath string, rows []*models.IndexedRow, meta map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM booking_rows WHERE source_path = ?`, sourcePath); err != nil {
		return fmt.Errorf("delete rows: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO booking_rows (source_path, row_index, fields, row_text, embedding)
		 VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		fields, err := json.Marshal(r.Row)
		if err != nil {
			return fmt.Errorf("failed to marshal row %d: %w", r.Position, err)
		}
		if _, err := stmt.ExecContext(ctx, sourcePath, r.Position, string(fields), r.Text, vector.Encode(r.Embedding)); err != nil {
			return fmt.Errorf("insert row %d: %w", r.Position, err)
		}
	}

	for k, v := range meta {
		if err := setMeta(ctx, tx, k, v); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadRows returns the rows stored for sourcePath ordered by position.
func (s *SQLiteStorage) LoadRows(ctx context.Context, sourcePath string) ([]*models.IndexedRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT row_index, fields, row_text, embedding
		 FROM booking_rows WHERE source_path = ? ORDER BY row_index`,
		sourcePath,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.IndexedRow
	for rows.Next() {
		var (
			r      models.IndexedRow
			fields string
			blob   []byte
		)
		if err := rows.Scan(&r.Position, &fields, &r.Text, &blob); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(fields), &r.Row); err != nil {
			return nil, fmt.Errorf("failed to unmarshal row %d: %w", r.Position, err)
		}
		if r.Embedding, err = vector.Decode(blob); err != nil {
			return nil, fmt.Errorf("row %d: %w", r.Position, err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// DeleteRows removes every row stored for sourcePath.
func (s *SQLiteStorage) DeleteRows(ctx context.Context, sourcePath string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM booking_rows WHERE source_path = ?`, sourcePath)
	return err
}

// CountRows returns the number of rows stored for sourcePath.
func (s *SQLiteStorage) CountRows(ctx context.Context, sourcePath string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM booking_rows WHERE source_path = ?`, sourcePath,
	).Scan(&count)
	return count, err
}

// ListSources returns row counts per indexed source path.
func (s *SQLiteStorage) ListSources(ctx context.Context) ([]SourceStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_path, COUNT(*) FROM booking_rows GROUP BY source_path ORDER BY source_path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SourceStats
	for rows.Next() {
		var st SourceStats
		if err := rows.Scan(&st.Path, &st.Rows); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// GetMeta returns the value stored under key.
func (s *SQLiteStorage) GetMeta(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM booking_meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetMeta stores value under key, replacing any previous value.
func (s *SQLiteStorage) SetMeta(ctx context.Context, key, value string) error {
	return setMeta(ctx, s.db, key, value)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func setMeta(ctx context.Context, db execer, key, value string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO booking_meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

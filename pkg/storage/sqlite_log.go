package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS processed_phrases (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    phrase       TEXT NOT NULL,
    committed_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_processed_phrases_phrase ON processed_phrases(phrase);`

// SQLiteLog stores processed phrases as rows of an append-only table.
// Duplicate rows are allowed; Load collapses them.
type SQLiteLog struct {
	db   *sql.DB
	path string
}

// OpenSQLiteLog opens or creates the database at path and applies the schema
func OpenSQLiteLog(ctx context.Context, path string) (*SQLiteLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply processed log schema: %w", err)
	}

	return &SQLiteLog{db: db, path: path}, nil
}

func (l *SQLiteLog) Load(ctx context.Context) (PhraseSet, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT DISTINCT phrase FROM processed_phrases`)
	if err != nil {
		return nil, fmt.Errorf("query processed phrases: %w", err)
	}
	defer rows.Close()

	set := PhraseSet{}
	for rows.Next() {
		var phrase string
		if err := rows.Scan(&phrase); err != nil {
			return nil, fmt.Errorf("scan processed phrase: %w", err)
		}
		set.Add(phrase)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate processed phrases: %w", err)
	}
	return set, nil
}

func (l *SQLiteLog) Append(ctx context.Context, phrases []string) error {
	if len(phrases) == 0 {
		return nil
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin processed log transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO processed_phrases (phrase, committed_at) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare processed log insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, phrase := range phrases {
		if _, err := stmt.ExecContext(ctx, phrase, now); err != nil {
			return fmt.Errorf("insert processed phrase %q: %w", phrase, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit processed log transaction: %w", err)
	}
	return nil
}

func (l *SQLiteLog) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

func (l *SQLiteLog) Describe() string {
	return "sqlite:" + l.path
}

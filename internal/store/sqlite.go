package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS list_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	list_key TEXT NOT NULL,
	value BLOB NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_list_entries_key ON list_entries(list_key, id);

CREATE TABLE IF NOT EXISTS users (
	user_id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	email TEXT NOT NULL,
	gender TEXT,
	birth_date TEXT,
	created_at TEXT NOT NULL
);
`

// Open opens (or creates) the SQLite database at path and applies the
// schema. Use ":memory:" for an ephemeral database in tests.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	// modernc sqlite serializes writes through a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

// SQLiteListRepo implements ListStore on a SQLite database.
type SQLiteListRepo struct {
	db *sql.DB
}

// NewSQLiteListRepo creates a new SQLiteListRepo.
func NewSQLiteListRepo(db *sql.DB) *SQLiteListRepo {
	return &SQLiteListRepo{db: db}
}

func (r *SQLiteListRepo) Append(ctx context.Context, key string, value []byte) error {
	query := `INSERT INTO list_entries (list_key, value, created_at) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("appending list entry: %w", err)
	}
	return nil
}

func (r *SQLiteListRepo) Last(ctx context.Context, key string, n int) ([][]byte, error) {
	if n <= 0 {
		return [][]byte{}, nil
	}

	query := `SELECT value FROM (
			SELECT id, value FROM list_entries WHERE list_key = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, key, n)
	if err != nil {
		return nil, fmt.Errorf("reading list window: %w", err)
	}
	defer rows.Close()

	window := [][]byte{}
	for rows.Next() {
		var value []byte
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("scanning list entry: %w", err)
		}
		window = append(window, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating list entries: %w", err)
	}
	return window, nil
}

func (r *SQLiteListRepo) Trim(ctx context.Context, key string, max int) error {
	if max < 0 {
		max = 0
	}

	query := `DELETE FROM list_entries WHERE list_key = ? AND id NOT IN (
			SELECT id FROM list_entries WHERE list_key = ? ORDER BY id DESC LIMIT ?
		)`
	if _, err := r.db.ExecContext(ctx, query, key, key, max); err != nil {
		return fmt.Errorf("trimming list: %w", err)
	}
	return nil
}

func (r *SQLiteListRepo) Len(ctx context.Context, key string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM list_entries WHERE list_key = ?`
	if err := r.db.QueryRowContext(ctx, query, key).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting list entries: %w", err)
	}
	return count, nil
}

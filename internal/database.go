package internal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const createStateTableSQL = `
CREATE TABLE IF NOT EXISTS stateKV (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// OpenDatabase opens (creating if needed) the local state database
func OpenDatabase(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, &StorageError{Path: path, Op: "open", Err: err}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Single writer; also keeps ":memory:" databases on one connection.
	db.SetMaxOpenConns(1)

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if err := EnsureSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// EnsureSchema creates the stateKV table if it does not exist
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(createStateTableSQL); err != nil {
		return fmt.Errorf("failed to create state table: %w", err)
	}
	return nil
}

// QueryStateKV returns the value stored under key. ok is false when the key
// is absent.
func QueryStateKV(ctx context.Context, db *sql.DB, key string) (value string, ok bool, err error) {
	row := db.QueryRowContext(ctx, "SELECT value FROM stateKV WHERE key = ?", key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("query failed: %w", err)
	}
	return value, true, nil
}

// UpsertStateKV stores value under key, replacing any previous value
func UpsertStateKV(ctx context.Context, db *sql.DB, key, value string) error {
	_, err := db.ExecContext(ctx,
		"INSERT INTO stateKV (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return fmt.Errorf("upsert failed: %w", err)
	}
	return nil
}

// DeleteStateKV removes key. Removing an absent key is not an error.
func DeleteStateKV(ctx context.Context, db *sql.DB, key string) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM stateKV WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	return nil
}

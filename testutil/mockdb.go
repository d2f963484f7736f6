package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

const stateSchema = `
	CREATE TABLE IF NOT EXISTS stateKV (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`

// CreateInMemoryDB creates an in-memory SQLite database for testing
func CreateInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	return openStateDB(t, ":memory:")
}

// CreateFileDB opens (creating if needed) a state database file at path.
// Commands under test can open the same file concurrently.
func CreateFileDB(t *testing.T, path string) *sql.DB {
	t.Helper()
	return openStateDB(t, path)
}

func openStateDB(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("Failed to open database %s: %v", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(stateSchema); err != nil {
		db.Close()
		t.Fatalf("Failed to create stateKV table: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

// InsertState inserts a key/value row into stateKV
func InsertState(t *testing.T, db *sql.DB, key, value string) {
	t.Helper()
	if _, err := db.Exec("INSERT OR REPLACE INTO stateKV (key, value) VALUES (?, ?)", key, value); err != nil {
		t.Fatalf("Failed to insert state %s: %v", key, err)
	}
}

// ReadState returns the stored value for key, or "" when absent
func ReadState(t *testing.T, db *sql.DB, key string) string {
	t.Helper()
	var value string
	err := db.QueryRow("SELECT value FROM stateKV WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return ""
	}
	if err != nil {
		t.Fatalf("Failed to read state %s: %v", key, err)
	}
	return value
}

// CountStateWrites installs a trigger-backed counter and returns a function
// reporting how many inserts/updates stateKV has seen since.
func CountStateWrites(t *testing.T, db *sql.DB) func() int {
	t.Helper()
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS stateWrites (n INTEGER NOT NULL)`,
		`INSERT INTO stateWrites (n) VALUES (0)`,
		`CREATE TRIGGER IF NOT EXISTS stateKV_ins AFTER INSERT ON stateKV BEGIN UPDATE stateWrites SET n = n + 1; END`,
		`CREATE TRIGGER IF NOT EXISTS stateKV_upd AFTER UPDATE ON stateKV BEGIN UPDATE stateWrites SET n = n + 1; END`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("Failed to install write counter: %v", err)
		}
	}
	return func() int {
		var n int
		if err := db.QueryRow("SELECT n FROM stateWrites").Scan(&n); err != nil {
			t.Fatalf("Failed to read write counter: %v", err)
		}
		return n
	}
}

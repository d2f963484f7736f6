package internal

import (
	"context"
	"database/sql"
)

// KVStore is durable string storage keyed by name
type KVStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Storage is the SQLite-backed KVStore
type Storage struct {
	db   *sql.DB
	path string
}

// NewStorage creates a new Storage instance over an open database
func NewStorage(db *sql.DB, path string) *Storage {
	return &Storage{db: db, path: path}
}

// OpenStorage opens the state database at path and wraps it in a Storage
func OpenStorage(path string) (*Storage, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, err
	}
	return NewStorage(db, path), nil
}

// Path returns the database location
func (s *Storage) Path() string {
	return s.path
}

// Get returns the value for key; ok is false when the key is absent
func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	value, ok, err := QueryStateKV(ctx, s.db, key)
	if err != nil {
		return "", false, &StorageError{Path: s.path, Op: "read", Err: err}
	}
	return value, ok, nil
}

// Set stores value under key
func (s *Storage) Set(ctx context.Context, key, value string) error {
	if err := UpsertStateKV(ctx, s.db, key, value); err != nil {
		return &StorageError{Path: s.path, Op: "write", Err: err}
	}
	return nil
}

// Delete removes key
func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := DeleteStateKV(ctx, s.db, key); err != nil {
		return &StorageError{Path: s.path, Op: "delete", Err: err}
	}
	return nil
}

// Close closes the underlying database
func (s *Storage) Close() error {
	return s.db.Close()
}

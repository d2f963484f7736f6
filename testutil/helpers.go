package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// IsolateConfigDir points the user config directory at a fresh temp dir so
// tests never read a developer's real config, .env or state database. It
// returns the temp dir.
func IsolateConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	return dir
}

// WriteFile writes data to dir/name, creating parent directories, and
// returns the full path
func WriteFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	fullPath := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(fullPath, []byte(data), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return fullPath
}

// JSONUnmarshal unmarshals JSON for testing
func JSONUnmarshal(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}
}

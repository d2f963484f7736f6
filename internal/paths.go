package internal

import (
	"fmt"
	"os"
	"path/filepath"
)

const appDirName = "docs-chat"

// Paths holds the detected locations for local client state
type Paths struct {
	ConfigDir  string // <user config dir>/docs-chat
	ConfigFile string // optional YAML config
	EnvFile    string // optional .env next to the config
	StateDB    string // SQLite database holding the session token
	LogFile    string // log destination while the chat UI owns the terminal
}

// DetectPaths resolves the client paths under the user's config directory
func DetectPaths() (Paths, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return Paths{}, fmt.Errorf("failed to get config directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return PathsIn(filepath.Join(base, appDirName)), nil
}

// PathsIn lays out the client paths inside dir
func PathsIn(dir string) Paths {
	return Paths{
		ConfigDir:  dir,
		ConfigFile: filepath.Join(dir, "config.yaml"),
		EnvFile:    filepath.Join(dir, ".env"),
		StateDB:    filepath.Join(dir, "state.db"),
		LogFile:    filepath.Join(dir, "chat.log"),
	}
}

// EnsureConfigDir creates the config directory if needed
func (p Paths) EnsureConfigDir() error {
	return os.MkdirAll(p.ConfigDir, 0o755)
}

// StateDBExists reports whether the state database has been created
func (p Paths) StateDBExists() bool {
	_, err := os.Stat(p.StateDB)
	return err == nil
}

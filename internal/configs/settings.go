package configs

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "zkgit"

// Settings holds the per-user paths zkgit reads and writes.
type Settings struct {
	// ConfigPath is the TOML config file.
	ConfigPath string

	// DataDir holds the audit trail and, by default, repository archives.
	DataDir string
}

// AuditPath is the location of the audit trail.
func (s *Settings) AuditPath() string {
	return filepath.Join(s.DataDir, "audit.jsonl")
}

// DefaultReposPath is where archives live unless repos_path is set.
func (s *Settings) DefaultReposPath() string {
	return filepath.Join(s.DataDir, "repos")
}

// DefaultSettings resolves paths from the XDG base directories.
func DefaultSettings() (*Settings, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error getting home directory: %w", err)
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("error getting config directory: %w", err)
	}

	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return &Settings{
		ConfigPath: filepath.Join(configDir, appName, "config.toml"),
		DataDir:    filepath.Join(dataDir, appName),
	}, nil
}

// SettingsAt places every path under dir. It is used when --config points
// at a specific file.
func SettingsAt(configPath, dataDir string) *Settings {
	return &Settings{ConfigPath: configPath, DataDir: dataDir}
}

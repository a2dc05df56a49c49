// Package paths resolves where the garden keeps its session file and its
// local database.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName is the directory name used under the platform config and data roots.
const AppName = "secretgarden"

// DatabaseFileName is the sqlite file created in the data directory.
const DatabaseFileName = "garden.db"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "GARDEN_CONFIG_DIR"
	EnvDataDir   = "GARDEN_DATA_DIR"
)

var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/secretgarden (fallback ~/.config/secretgarden)
// Others:  os.UserConfigDir()/secretgarden
func DefaultConfigDir() (string, error) {
	return platformRoot("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform data directory.
//
// Linux:   $XDG_DATA_HOME/secretgarden (fallback ~/.local/share/secretgarden)
// Others:  same as DefaultConfigDir
func DefaultDataDir() (string, error) {
	return platformRoot("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func platformRoot(xdgVar, homeRel string) (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv(xdgVar); xdg != "" {
			return filepath.Join(xdg, AppName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, homeRel, AppName), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// ResolveConfigDir applies flag > GARDEN_CONFIG_DIR > DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	return resolve(flag, EnvConfigDir, DefaultConfigDir)
}

// ResolveDataDir applies flag > GARDEN_DATA_DIR > DefaultDataDir.
func ResolveDataDir(flag string) (string, error) {
	return resolve(flag, EnvDataDir, DefaultDataDir)
}

func resolve(flag, env string, fallback func() (string, error)) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if v := os.Getenv(env); v != "" {
		return filepath.Abs(v)
	}
	return fallback()
}

// DatabasePath returns the sqlite file path inside dataDir, creating dataDir.
func DatabasePath(dataDir string) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dataDir, DatabaseFileName), nil
}

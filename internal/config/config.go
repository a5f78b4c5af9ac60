// Package config resolves where pixievault keeps its files and loads its settings document.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	// DirEnv overrides the storage directory.
	DirEnv = "PIXIEVAULT_DIR"

	appDirName       = "pixievault"
	documentFileName = "vault.json"
	settingsFileName = "config.json"
)

// Settings is the configuration document stored next to the vault.
type Settings struct {
	// EncryptionEnabled is recorded but not acted upon; entries are stored in clear text.
	EncryptionEnabled bool `json:"encryption_enabled"`
}

// DefaultSettings returns the settings used when no configuration file exists.
func DefaultSettings() Settings {
	return Settings{EncryptionEnabled: false}
}

// GetVaultDir resolves the storage directory. PIXIEVAULT_DIR wins, then the XDG
// data home, and finally ~/.local/share.
func GetVaultDir() string {
	if explicit := os.Getenv(DirEnv); explicit != "" {
		return explicit
	}

	xdg.Reload()

	dataHome := xdg.DataHome
	if dataHome == "" {
		home := xdg.Home
		if home == "" {
			var err error
			home, err = os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), appDirName)
			}
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dataHome, appDirName)
}

// ResolveDir returns explicit when set, otherwise GetVaultDir.
func ResolveDir(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return GetVaultDir()
}

// DocumentPath returns the path of the entries document inside dir.
func DocumentPath(dir string) string {
	return filepath.Join(dir, documentFileName)
}

// SettingsPath returns the path of the settings document inside dir.
func SettingsPath(dir string) string {
	return filepath.Join(dir, settingsFileName)
}

// LoadSettings reads the settings document at path. A missing file yields the
// defaults; a malformed one is an error.
func LoadSettings(path string) (Settings, error) {
	//nolint:gosec // G304: path is derived from the configured vault directory
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	return settings, nil
}

// Package appdir locates the per-user directories asnlook reads and writes.
package appdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// Name is the directory name used below the OS base directories.
const Name = "asnlook"

// ConfigDir returns the OS-specific config directory for asnlook.
// Linux: $XDG_CONFIG_HOME/asnlook  macOS: ~/Library/Application Support/asnlook
// Windows: %AppData%/asnlook
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("getting user config dir: %w", err)
	}
	return filepath.Join(base, Name), nil
}

// CacheDir returns the OS-specific cache directory for downloaded datasets.
// Linux: $XDG_CACHE_HOME/asnlook  macOS: ~/Library/Caches/asnlook
// Windows: %LocalAppData%/asnlook
func CacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("getting user cache dir: %w", err)
	}
	return filepath.Join(base, Name), nil
}

// EnsureFile creates path and its parent directories if they do not exist.
// The file is created with 0600 permissions. A no-op if the file exists.
func EnsureFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return fmt.Errorf("creating config file: %w", err)
	}
	return f.Close()
}

// Package platform provides OS-aware helpers for data paths.
// All code that needs to behave differently per OS must use this package.
package platform

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultWorkDir returns the OS-appropriate data directory for allocheck.
//
//	Linux:   ~/.local/share/allocheck
//	macOS:   ~/Library/Application Support/allocheck
//	Windows: %APPDATA%\allocheck
//
// If WORK_DIR env var is set, that takes priority (used in Docker).
func DefaultWorkDir() string {
	if env := os.Getenv("WORK_DIR"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "allocheck")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "allocheck")
	default:
		return filepath.Join(home, ".local", "share", "allocheck")
	}
}

// EnsureDir creates a directory and all parents if they don't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

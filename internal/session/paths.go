package session

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.echod.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".echod")
}

// Dir returns the directory for a profile store.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "stores", name)
}

// LockPath returns the lock file path for a profile store.
func LockPath(name string) string {
	return filepath.Join(Dir(name), "LOCK")
}

// PrefsDBPath returns the path of the persisted preference database.
func PrefsDBPath(name string) string {
	return filepath.Join(Dir(name), "prefs.db")
}

// FilesDir returns the directory received files are stored in.
func FilesDir(name string) string {
	return filepath.Join(Dir(name), "files")
}

// TempDir returns the scratch directory the engine uses for partial transfers.
func TempDir(name string) string {
	return filepath.Join(Dir(name), "tmp")
}

// LogDir returns the log directory for a profile store.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// LogPath returns the daemon log file path.
func LogPath(name string) string {
	return filepath.Join(LogDir(name), "echod.log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the profile-store directory tree with proper permissions.
func EnsureDir(name string) error {
	dirs := []string{
		Dir(name),
		FilesDir(name),
		TempDir(name),
		LogDir(name),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}

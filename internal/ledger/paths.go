package ledger

import (
	"os"
	"path/filepath"
)

// DataDir returns the fintrack data directory: $FINTRACK_DATA_DIR, else
// $XDG_DATA_HOME/fintrack, else ~/.local/share/fintrack.
func DataDir() string {
	if dir := os.Getenv("FINTRACK_DATA_DIR"); dir != "" {
		return dir
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "fintrack")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "fintrack")
}

// DocumentPath returns the ledger file inside dir. An empty dir means DataDir().
func DocumentPath(dir string) string {
	if dir == "" {
		dir = DataDir()
	}
	return filepath.Join(dir, "ledger.json")
}

// CacheDir returns the fintrack cache directory, respecting XDG_CACHE_HOME.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "fintrack")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "fintrack")
}

// MirrorPath returns the SQLite mirror database path.
func MirrorPath() string {
	return filepath.Join(CacheDir(), "mirror.db")
}

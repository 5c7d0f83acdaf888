package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultRuntimeDir is the production runtime root.
const DefaultRuntimeDir = "/run/pfq"

// RuntimeDirs holds all runtime directory paths.
//
//	{base}/              - runtime root
//	{base}/db/           - database directory
//	{base}/.lock         - daemon writer lock
//	{base}-sock/         - gRPC socket directory
//
// RuntimeDirs is immutable after construction. Use NewRuntimeDirs to create.
type RuntimeDirs struct {
	base string
	db   string
	sock string
	lock string
}

// DefaultRuntimeDirs returns RuntimeDirs with production defaults.
func DefaultRuntimeDirs() RuntimeDirs {
	dirs, err := NewRuntimeDirs(DefaultRuntimeDir)
	if err != nil {
		panic(fmt.Sprintf("DefaultRuntimeDirs: %v", err))
	}
	return dirs
}

// NewRuntimeDirs creates RuntimeDirs rooted at the given base path.
// The socket directory is {base}-sock so it can be mounted separately.
//
// Returns an error if base is empty or not an absolute path.
func NewRuntimeDirs(base string) (RuntimeDirs, error) {
	if base == "" {
		return RuntimeDirs{}, fmt.Errorf("base path cannot be empty")
	}
	if !filepath.IsAbs(base) {
		return RuntimeDirs{}, fmt.Errorf("base path must be absolute, got %q", base)
	}

	return RuntimeDirs{
		base: base,
		db:   filepath.Join(base, "db"),
		sock: base + "-sock",
		lock: filepath.Join(base, ".lock"),
	}, nil
}

// Base returns the runtime root path (e.g., /run/pfq).
func (d RuntimeDirs) Base() string { return d.base }

// DB returns the database directory path.
func (d RuntimeDirs) DB() string { return d.db }

// Sock returns the gRPC socket directory path.
func (d RuntimeDirs) Sock() string { return d.sock }

// Lock returns the writer lock file path.
func (d RuntimeDirs) Lock() string { return d.lock }

// SocketPath returns the full path to the gRPC socket.
func (d RuntimeDirs) SocketPath() string {
	return filepath.Join(d.sock, "pfq-lang.sock")
}

// DBPath returns the full path to the SQLite database file.
func (d RuntimeDirs) DBPath() string {
	return filepath.Join(d.db, "store.db")
}

// EnsureDirectories creates the runtime directories. MkdirAll is
// idempotent, so this is safe to call at every start-up.
func (d RuntimeDirs) EnsureDirectories() error {
	for _, dir := range []string{d.base, d.db, d.sock} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// StorePath returns the database path for cfg: the configured path if
// set, otherwise the runtime default.
func (c Config) StorePath(dirs RuntimeDirs) string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return dirs.DBPath()
}

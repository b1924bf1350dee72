package storage

import (
	"errors"
	"strings"
)

// Common errors
var (
	ErrNotFound    = errors.New("storage: not found")
	ErrClosed      = errors.New("storage: store closed")
	ErrInvalidName = errors.New("storage: invalid name")
)

// Store is a flat namespace of whole-file blobs.
//
// Implementations are not required to be safe for concurrent writers to the
// same name; the save manager is single-threaded.
type Store interface {
	// Write atomically replaces name with data. When durable is set the
	// data is flushed to stable storage before it becomes visible.
	Write(name string, data []byte, durable bool) error

	// Read returns the full contents of name.
	// Returns ErrNotFound if name doesn't exist.
	Read(name string) ([]byte, error)

	// Remove deletes name. Removing a missing name is not an error.
	Remove(name string) error

	// List returns entries whose name starts with prefix, sorted by name.
	List(prefix string) ([]Entry, error)

	// Close releases resources held by the store.
	Close() error
}

// Entry describes one stored blob.
type Entry struct {
	Name string
	Size int64
	// ModTime is the last write time in Unix milliseconds, or 0 when the
	// store does not track it.
	ModTime int64
}

// Config configures a store.
type Config struct {
	// Engine selects the backend ("file" or "badger").
	// Default: "file"
	Engine string

	// Dir is the storage directory.
	Dir string

	// Badger-specific configuration
	Badger BadgerConfig
}

// BadgerConfig contains Badger-specific tuning parameters.
type BadgerConfig struct {
	// InMemory keeps all data in memory (tests and throwaway sessions).
	InMemory bool

	// GCInterval is the interval between automatic value log GC runs.
	// Default: 10m
	GCInterval string

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 16MB
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 64MB
	ValueLogFileSize int64
}

// DefaultConfig returns the default store configuration.
func DefaultConfig(dir string) Config {
	return Config{
		Engine: "file",
		Dir:    dir,
		Badger: DefaultBadgerConfig(),
	}
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:       "10m",
		GCThreshold:      0.5,
		CacheSize:        16 << 20, // 16MB
		ValueLogFileSize: 64 << 20, // 64MB
	}
}

// validName rejects names that could escape the store's namespace.
func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return ErrInvalidName
	}
	return nil
}

package persist

import (
	"log/slog"
	"time"

	"github.com/yndnr/roguesave/internal/storage"
	"github.com/yndnr/roguesave/pkg/signer"
)

// Default configuration values.
const (
	DefaultCompressMinBytes   = 64
	DefaultAutosaveIntervalMs = 5 * 60 * 1000
	DefaultAutosaveThrottleMs = 10 * 1000
)

// SignatureProvider signs and verifies the descriptor and section bytes.
type SignatureProvider = signer.Provider

// Config configures a Manager.
type Config struct {
	// Store receives every save file. Required.
	Store storage.Store

	// Logger is the structured logger (nil uses slog.Default()).
	Logger *slog.Logger

	// Observer receives save/load events for metrics (nil disables).
	Observer Observer

	// Clock supplies descriptor timestamps (nil uses time.Now).
	Clock func() time.Time

	// Durable flushes each file to stable storage before it replaces the
	// previous one.
	Durable bool

	// Incremental reuses cached sections of clean components.
	Incremental bool

	// Compress enables RLE for sections of at least CompressMinBytes.
	Compress         bool
	CompressMinBytes int

	// DebugJSON writes a JSON export next to every slot save.
	DebugJSON bool

	// AutosaveIntervalMs <= 0 disables autosave.
	AutosaveIntervalMs int64
	AutosaveThrottleMs int64

	// Signer is the active signature provider (nil disables signing).
	Signer SignatureProvider

	// RequireSignature rejects unsigned files when a Signer is set.
	RequireSignature bool

	// SkipBuiltinMigrations leaves the migration table empty.
	SkipBuiltinMigrations bool
}

// DefaultConfig returns the default configuration over store.
func DefaultConfig(store storage.Store) Config {
	return Config{
		Store:              store,
		CompressMinBytes:   DefaultCompressMinBytes,
		AutosaveIntervalMs: DefaultAutosaveIntervalMs,
		AutosaveThrottleMs: DefaultAutosaveThrottleMs,
	}
}

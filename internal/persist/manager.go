// Package persist implements the save manager: component registry, format
// migrations, integrity checks, incremental saves, autosave scheduling and
// recovery.
//
// A Manager is not safe for concurrent use. It is driven from a single game
// loop; a component that calls back into Save or Load from its own
// callbacks gets ErrReentrant.
package persist

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/yndnr/roguesave/internal/persist/migrations"
	"github.com/yndnr/roguesave/internal/storage"
	"github.com/yndnr/roguesave/pkg/codec"
)

// Migration upgrades section bytes by one format version.
type Migration = migrations.Step

// SaveResult summarizes the most recent save attempt.
type SaveResult struct {
	Target   string
	Code     int
	Bytes    int
	Duration time.Duration
	Reused   int
	Written  int
}

// Manager owns all persistence state for one game process.
type Manager struct {
	store    storage.Store
	logger   *slog.Logger
	observer Observer
	clock    func() time.Time

	components map[uint16]Component
	ordered    []Component
	migrations map[uint32]Migration

	signer           SignatureProvider
	requireSignature bool
	durable          bool
	incremental      bool
	debugJSON        bool
	compress         codec.CompressPolicy

	targets map[string]*targetState
	busy    bool

	autosave autosaveState

	lastSave      SaveResult
	lastSHA       [sha256.Size]byte
	haveSHA       bool
	tamper        TamperFlags
	recoveryUsed  bool
	migSteps      int
	migFailed     bool
	migDuration   time.Duration
	lastLoadBytes int
}

// NewManager creates a manager over cfg.Store.
func NewManager(cfg Config) (*Manager, error) {
	if !codec.HostIsLittleEndian() {
		return nil, ErrBigEndian
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("persist: store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.CompressMinBytes <= 0 {
		cfg.CompressMinBytes = DefaultCompressMinBytes
	}

	m := &Manager{
		store:            cfg.Store,
		logger:           cfg.Logger.With("component", "persist"),
		observer:         cfg.Observer,
		clock:            cfg.Clock,
		components:       make(map[uint16]Component),
		migrations:       make(map[uint32]Migration),
		signer:           cfg.Signer,
		requireSignature: cfg.RequireSignature,
		durable:          cfg.Durable,
		incremental:      cfg.Incremental,
		debugJSON:        cfg.DebugJSON,
		compress:         codec.CompressPolicy{Enabled: cfg.Compress, MinBytes: cfg.CompressMinBytes},
		targets:          make(map[string]*targetState),
		autosave: autosaveState{
			intervalMs: cfg.AutosaveIntervalMs,
			throttleMs: cfg.AutosaveThrottleMs,
		},
	}
	if !cfg.SkipBuiltinMigrations {
		for _, step := range migrations.Builtin() {
			if err := m.RegisterMigration(step); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// RegisterMigration adds a single-step migration to the chain.
func (m *Manager) RegisterMigration(mig Migration) error {
	if err := migrations.Validate(mig); err != nil {
		return ErrMigrationChain.Wrap(err)
	}
	if _, ok := m.migrations[mig.From]; ok {
		return ErrDuplicateMigration.WithDetails("from version %d", mig.From)
	}
	m.migrations[mig.From] = mig
	return nil
}

// SetSignatureProvider installs p as the active provider; nil disables
// signing and verification.
func (m *Manager) SetSignatureProvider(p SignatureProvider) { m.signer = p }

// SignatureProvider returns the active provider, if any.
func (m *Manager) SignatureProvider() SignatureProvider { return m.signer }

// SetRequireSignature makes unsigned files fail verification while a
// provider is installed.
func (m *Manager) SetRequireSignature(on bool) { m.requireSignature = on }

// SetDurable toggles fsync before the final rename.
func (m *Manager) SetDurable(on bool) { m.durable = on }

// SetDebugJSON toggles writing a JSON export next to each slot save.
func (m *Manager) SetDebugJSON(on bool) { m.debugJSON = on }

// SetCompression configures RLE compression. Cached sections are dropped
// because their framing no longer matches the policy.
func (m *Manager) SetCompression(enabled bool, minBytes int) {
	if minBytes <= 0 {
		minBytes = DefaultCompressMinBytes
	}
	p := codec.CompressPolicy{Enabled: enabled, MinBytes: minBytes}
	if p != m.compress {
		m.compress = p
		m.dropCaches()
	}
}

// LastSaveResult returns the outcome of the most recent save attempt.
func (m *Manager) LastSaveResult() SaveResult { return m.lastSave }

// LastSHA256 returns the digest written by the most recent successful save.
func (m *Manager) LastSHA256() ([sha256.Size]byte, bool) { return m.lastSHA, m.haveSHA }

// LastSHA256Hex returns the hex form of LastSHA256, or "" before any save.
func (m *Manager) LastSHA256Hex() string {
	if !m.haveSHA {
		return ""
	}
	return hex.EncodeToString(m.lastSHA[:])
}

// LastTamperFlags returns the flags raised by the most recent load attempt.
func (m *Manager) LastTamperFlags() TamperFlags { return m.tamper }

// RecoveryUsed reports whether the last LoadWithRecovery fell back to an
// autosave.
func (m *Manager) RecoveryUsed() bool { return m.recoveryUsed }

// LastMigrationSteps returns how many migrations the last load applied.
func (m *Manager) LastMigrationSteps() int { return m.migSteps }

// LastMigrationFailed reports whether a migration step of the last load failed.
func (m *Manager) LastMigrationFailed() bool { return m.migFailed }

// LastMigrationDuration returns the time spent migrating during the last load.
func (m *Manager) LastMigrationDuration() time.Duration { return m.migDuration }

func (m *Manager) enter() error {
	if m.busy {
		return ErrReentrant
	}
	m.busy = true
	return nil
}

func (m *Manager) leave() { m.busy = false }

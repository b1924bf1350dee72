package config

import (
	"log/slog"

	"github.com/yndnr/roguesave/internal/persist"
	"github.com/yndnr/roguesave/internal/storage"
	"github.com/yndnr/roguesave/pkg/signer"
)

// StoreConfig maps the storage section onto storage.Config.
func (s *StorageSection) StoreConfig() storage.Config {
	cfg := storage.DefaultConfig(s.Dir)
	cfg.Engine = s.Engine
	cfg.Badger.InMemory = s.Badger.InMemory
	if s.Badger.GCInterval > 0 {
		cfg.Badger.GCInterval = s.Badger.GCInterval.String()
	}
	if s.Badger.GCThreshold > 0 {
		cfg.Badger.GCThreshold = s.Badger.GCThreshold
	}
	if s.Badger.CacheSize > 0 {
		cfg.Badger.CacheSize = s.Badger.CacheSize
	}
	return cfg
}

// PersistConfig builds the manager configuration over store.
func (c *Config) PersistConfig(store storage.Store, logger *slog.Logger, p signer.Provider) persist.Config {
	pc := persist.DefaultConfig(store)
	pc.Logger = logger
	pc.Incremental = c.Save.Incremental
	pc.Compress = c.Save.Compress
	pc.CompressMinBytes = c.Save.CompressMinBytes
	pc.Durable = c.Save.Durable
	pc.DebugJSON = c.Save.DebugJSON
	pc.AutosaveIntervalMs = c.Autosave.Interval.Milliseconds()
	pc.AutosaveThrottleMs = c.Autosave.Throttle.Milliseconds()
	pc.Signer = p
	pc.RequireSignature = c.Signer.Require && p != nil
	return pc
}

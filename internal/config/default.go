package config

import "time"

// Default configuration values.
const (
	DefaultEngine     = "file"
	DefaultDir        = "saves"
	DefaultGCInterval = 10 * time.Minute
	DefaultGCThresh   = 0.5
	DefaultCacheSize  = 16 << 20

	DefaultCompressMinBytes = 64
	DefaultBackupKeep       = 5

	DefaultAutosaveInterval = 5 * time.Minute
	DefaultAutosaveThrottle = 10 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Storage: StorageSection{
			Engine: DefaultEngine,
			Dir:    DefaultDir,
			Badger: BadgerSection{
				GCInterval:  DefaultGCInterval,
				GCThreshold: DefaultGCThresh,
				CacheSize:   DefaultCacheSize,
			},
		},
		Save: SaveSection{
			Incremental:      true,
			Compress:         true,
			CompressMinBytes: DefaultCompressMinBytes,
			Durable:          true,
			BackupKeep:       DefaultBackupKeep,
		},
		Autosave: AutosaveSection{
			Interval: DefaultAutosaveInterval,
			Throttle: DefaultAutosaveThrottle,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

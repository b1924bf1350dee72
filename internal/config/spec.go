package config

import "time"

// Config is the root configuration for the roguesave tool.
type Config struct {
	Storage  StorageSection  `koanf:"storage"`
	Save     SaveSection     `koanf:"save"`
	Autosave AutosaveSection `koanf:"autosave"`
	Signer   SignerSection   `koanf:"signer"`
	Log      LogSection      `koanf:"log"`
	Metrics  MetricsSection  `koanf:"metrics"`
}

// StorageSection selects where save files live.
type StorageSection struct {
	// Engine is "file" or "badger".
	Engine string        `koanf:"engine"`
	Dir    string        `koanf:"dir"`
	Badger BadgerSection `koanf:"badger"`
}

// BadgerSection tunes the badger engine.
type BadgerSection struct {
	InMemory    bool          `koanf:"in_memory"`
	GCInterval  time.Duration `koanf:"gc_interval"`
	GCThreshold float64       `koanf:"gc_threshold"`
	CacheSize   int64         `koanf:"cache_size"`
}

// SaveSection configures the save pipeline.
type SaveSection struct {
	Incremental      bool `koanf:"incremental"`
	Compress         bool `koanf:"compress"`
	CompressMinBytes int  `koanf:"compress_min_bytes"`
	Durable          bool `koanf:"durable"`
	DebugJSON        bool `koanf:"debug_json"`
	// BackupKeep is how many timestamped backups per slot BackupRotate keeps.
	BackupKeep int `koanf:"backup_keep"`
}

// AutosaveSection configures the autosave scheduler. A zero interval
// disables autosave.
type AutosaveSection struct {
	Interval time.Duration `koanf:"interval"`
	Throttle time.Duration `koanf:"throttle"`
}

// SignerSection configures file signatures.
type SignerSection struct {
	// Provider is "", "hmac-sha256", "blake2b-256" or "ed25519".
	Provider string `koanf:"provider"`
	// Key is inline key material written as "hex:..." or "base64:...".
	Key string `koanf:"key"`
	// KeyFile holds raw key bytes. It takes precedence over Key.
	KeyFile string `koanf:"key_file"`
	// Require rejects unsigned files while a provider is configured.
	Require bool `koanf:"require"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MetricsSection configures the Prometheus endpoint. An empty address
// disables it.
type MetricsSection struct {
	Addr string `koanf:"addr"`
}

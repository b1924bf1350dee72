package config

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/yndnr/roguesave/pkg/signer"
)

// Verify validates the configuration.
func Verify(cfg *Config) error {
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := verifySave(&cfg.Save); err != nil {
		return err
	}
	if cfg.Autosave.Interval < 0 || cfg.Autosave.Throttle < 0 {
		return errors.New("autosave.interval and autosave.throttle must not be negative")
	}
	return verifySigner(&cfg.Signer)
}

func verifyStorage(cfg *StorageSection) error {
	switch cfg.Engine {
	case "file", "badger":
	default:
		return fmt.Errorf("storage.engine must be file or badger, got %q", cfg.Engine)
	}
	if cfg.Dir == "" && !(cfg.Engine == "badger" && cfg.Badger.InMemory) {
		return errors.New("storage.dir is required")
	}
	if cfg.Badger.GCThreshold < 0 || cfg.Badger.GCThreshold >= 1 {
		return errors.New("storage.badger.gc_threshold must be in [0, 1)")
	}
	return nil
}

func verifySave(cfg *SaveSection) error {
	if cfg.CompressMinBytes < 0 {
		return errors.New("save.compress_min_bytes must not be negative")
	}
	if cfg.BackupKeep < 1 {
		return errors.New("save.backup_keep must be at least 1")
	}
	return nil
}

func verifySigner(cfg *SignerSection) error {
	if cfg.Provider == "" {
		if cfg.Require {
			return errors.New("signer.require needs signer.provider")
		}
		return nil
	}
	if cfg.Key == "" && cfg.KeyFile == "" {
		return fmt.Errorf("signer.provider %s needs signer.key or signer.key_file", cfg.Provider)
	}
	if _, err := cfg.Build(); err != nil {
		return fmt.Errorf("signer: %w", err)
	}
	return nil
}

// KeyBytes resolves the configured key material.
func (s *SignerSection) KeyBytes() ([]byte, error) {
	if s.KeyFile != "" {
		b, err := os.ReadFile(s.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("read key file: %w", err)
		}
		return b, nil
	}
	switch {
	case strings.HasPrefix(s.Key, "hex:"):
		return hex.DecodeString(strings.TrimPrefix(s.Key, "hex:"))
	case strings.HasPrefix(s.Key, "base64:"):
		return base64.StdEncoding.DecodeString(strings.TrimPrefix(s.Key, "base64:"))
	default:
		return nil, errors.New("signer.key must start with hex: or base64:")
	}
}

// Build returns the configured provider, or nil when signing is off.
func (s *SignerSection) Build() (signer.Provider, error) {
	if s.Provider == "" {
		return nil, nil
	}
	key, err := s.KeyBytes()
	if err != nil {
		return nil, err
	}
	return signer.New(s.Provider, key)
}

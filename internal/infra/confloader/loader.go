package confloader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "ROGUESAVE_"

// Loader merges configuration sources into one koanf tree.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	loaded    bool
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) { l.envPrefix = prefix }
}

// WithConfigFile sets the YAML file read by Load. An empty path skips it.
func WithConfigFile(path string) Option {
	return func(l *Loader) { l.filePath = path }
}

// NewLoader creates a loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{k: koanf.New("."), envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the file and then the environment, and unmarshals the merged
// tree into target. Fields of target that no source mentions keep their
// current value, so callers preset defaults before calling Load.
func (l *Loader) Load(target any) error {
	if l.filePath != "" {
		if err := l.k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return fmt.Errorf("load config file %s: %w", l.filePath, err)
		}
	}
	if err := l.k.Load(env.ProviderWithValue(l.envPrefix, ".", l.envKey), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	if err := l.Unmarshal(target); err != nil {
		return err
	}
	l.loaded = true
	return nil
}

// envKey maps ROGUESAVE_SAVE__DEBUG_JSON to save.debug_json. The double
// underscore separates sections because keys contain single underscores.
// Empty variables are skipped.
func (l *Loader) envKey(name, value string) (string, any) {
	if value == "" {
		return "", nil
	}
	key := strings.ToLower(strings.TrimPrefix(name, l.envPrefix))
	return strings.ReplaceAll(key, "__", "."), value
}

// LoadMap merges a nested map over what is already loaded. Command-line
// flags arrive this way after Load.
func (l *Loader) LoadMap(data map[string]any) error {
	if err := l.k.Load(mapProvider(data), nil); err != nil {
		return fmt.Errorf("load map: %w", err)
	}
	return nil
}

// Unmarshal decodes the merged tree into target using koanf tags.
func (l *Loader) Unmarshal(target any) error {
	if err := l.k.Unmarshal("", target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

// Koanf exposes the merged tree for lookups by dotted key.
func (l *Loader) Koanf() *koanf.Koanf { return l.k }

// IsLoaded reports whether Load has succeeded.
func (l *Loader) IsLoaded() bool { return l.loaded }

// mapProvider feeds an in-memory map to koanf.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("confloader: map provider has no byte form")
}

func (m mapProvider) Read() (map[string]any, error) { return m, nil }

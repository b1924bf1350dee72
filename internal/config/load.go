package config

import (
	"github.com/yndnr/roguesave/internal/infra/confloader"
)

// Load reads path (optional) and ROGUESAVE_* variables over the defaults,
// applies overrides (a nested map, typically from flags) and verifies the
// result.
func Load(path string, overrides map[string]any) (*Config, error) {
	cfg := Default()
	l := confloader.NewLoader(confloader.WithConfigFile(path))
	if err := l.Load(cfg); err != nil {
		return nil, err
	}
	if len(overrides) > 0 {
		if err := l.LoadMap(overrides); err != nil {
			return nil, err
		}
		if err := l.Unmarshal(cfg); err != nil {
			return nil, err
		}
	}
	if err := Verify(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

package config

// loader.go - configuration loading.
//
// Precedence order (highest wins):
//   1. CLI flags  (applied by cmd/root.go after Load)
//   2. Environment variables  (SCANLINK_<SECTION>_<KEY>)
//   3. YAML file  (--config)
//   4. Defaults   (defaults.go)

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// errReadBytes is returned by mapProvider.ReadBytes.
var errReadBytes = errors.New("config: map provider does not support ReadBytes")

// mapProvider feeds a plain map into koanf.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) { return nil, errReadBytes }
func (m mapProvider) Read() (map[string]any, error) {
	return m, nil
}

// Load builds a Config from defaults, the optional YAML file at path and
// the environment.  The result is resolved but not validated.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(mapProvider(defaultMap()), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps SCANLINK_DEVICE_RETRY_INTERVAL to device.retry_interval:
// the first underscore separates the section, the rest belong to the
// key name.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(s, "_", ".", 1)
}

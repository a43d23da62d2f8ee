package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// EnvPrefix prefixes every environment override, e.g. ADSPOT_MONITOR_TRIGGER_TITLE
const EnvPrefix = "adspot"

// ConfigFileEnv points at an explicit TOML config file
const ConfigFileEnv = "ADSPOT_CONFIG"

// Load builds the configuration: defaults, then the TOML file if one exists,
// then environment overrides. The result is validated.
func Load() (*Config, error) {
	cfg := Default()

	path, explicit := FilePath()
	if path != "" {
		if err := LoadFile(cfg, path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	if err := LoadFromEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// FilePath returns the config file to read and whether it was set explicitly
func FilePath() (string, bool) {
	if p := os.Getenv(ConfigFileEnv); p != "" {
		return p, true
	}
	dir, err := AppDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(dir, "config.toml"), false
}

// LoadFile decodes a TOML file over cfg. Keys absent from the file keep their
// current values. A missing file is reported with os.ErrNotExist.
func LoadFile(cfg *Config, path string) error {
	if _, err := os.Stat(path); err != nil {
		return errors.Wrapf(err, "failed to read config file %s", path)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return errors.Wrapf(err, "failed to parse config file %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errors.Errorf("unknown keys in config file %s: %v", path, undecoded)
	}
	return nil
}

// LoadFromEnv applies ADSPOT_* environment variables over cfg.
// Unset variables leave the current values alone.
func LoadFromEnv(cfg *Config) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return errors.Wrap(err, "failed to read environment")
	}
	return nil
}

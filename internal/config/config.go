package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
)

const (
	Dir          = "podman-sandbox"
	ConfigFile   = "config.json"
	DefaultImage = "alpine:latest"
)

// ErrConfigCorrupt is returned when the config file exists but cannot be parsed.
var ErrConfigCorrupt = errors.New("config file is corrupt")

// Config is the persisted sandbox configuration.
type Config struct {
	Image      string  `json:"image" yaml:"image"`
	Memory     *string `json:"memory" yaml:"memory"`
	AutoCommit bool    `json:"auto_commit" yaml:"auto_commit"`
}

// Default returns the configuration used when no file exists yet.
func Default() *Config {
	return &Config{Image: DefaultImage}
}

// MemoryLimit returns the configured memory limit, or "" when unlimited.
func (c *Config) MemoryLimit() string {
	if c.Memory == nil {
		return ""
	}
	return *c.Memory
}

// DefaultPath returns $XDG_CONFIG_HOME/podman-sandbox/config.json, falling
// back to ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, Dir, ConfigFile)
}

// fileConfig is the on-disk shape. memory_limit was the key used by
// earlier releases and is still honored on read.
type fileConfig struct {
	Config
	LegacyMemory *string `json:"memory_limit,omitempty"`
}

// Load reads the config at path. A missing file yields the defaults.
// Comments and trailing commas are tolerated so hand-edited files load.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(path, data)
}

func parse(path string, data []byte) (*Config, error) {
	fc := fileConfig{Config: *Default()}
	if err := json.Unmarshal(jsonc.ToJSON(data), &fc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v (remove the file or fix it by hand)", ErrConfigCorrupt, path, err)
	}

	cfg := fc.Config
	if cfg.Image == "" {
		cfg.Image = DefaultImage
	}
	if cfg.Memory == nil && fc.LegacyMemory != nil {
		cfg.Memory = fc.LegacyMemory
	}
	if cfg.Memory != nil && *cfg.Memory == "" {
		cfg.Memory = nil
	}
	return &cfg, nil
}

// Save writes cfg to path. The file is written to a temporary sibling,
// synced, and renamed into place, so readers never observe a partial write.
func Save(path string, cfg *Config) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary config file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("writing temporary config file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temporary config file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary config file: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replacing config file: %w", err)
	}
	return nil
}

// Exists returns true if a config file exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

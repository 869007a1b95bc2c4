package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/bft-labs/healthtree/internal/components"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	LogLevel       string           `toml:"log_level"`
	LogFormat      string           `toml:"log_format"`
	StateDir       string           `toml:"state_dir"`
	Snapshot       *bool            `toml:"snapshot"`
	CheckInterval  string           `toml:"check_interval"`
	ProbeTimeout   string           `toml:"probe_timeout"`
	SuppressWindow string           `toml:"suppress_window"`
	SuppressMax    string           `toml:"suppress_max"`
	Once           *bool            `toml:"once"`
	Tree           *components.Spec `toml:"tree"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.healthtree/config.toml if the home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".healthtree", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-format", fc.LogFormat, &cfg.LogFormat)
	s.setString("state-dir", fc.StateDir, &cfg.StateDir)

	if err := s.setDuration("check-interval", fc.CheckInterval, &cfg.CheckInterval); err != nil {
		return err
	}
	if err := s.setDuration("probe-timeout", fc.ProbeTimeout, &cfg.ProbeTimeout); err != nil {
		return err
	}
	if err := s.setDuration("suppress-window", fc.SuppressWindow, &cfg.SuppressWindow); err != nil {
		return err
	}
	if err := s.setDuration("suppress-max", fc.SuppressMax, &cfg.SuppressMax); err != nil {
		return err
	}

	s.setBool("snapshot", fc.Snapshot, &cfg.Snapshot)
	s.setBool("once", fc.Once, &cfg.Once)

	if fc.Tree != nil {
		cfg.Tree = *fc.Tree
	}
	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

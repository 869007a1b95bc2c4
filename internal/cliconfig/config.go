package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bft-labs/healthtree/internal/components"
	"github.com/bft-labs/healthtree/pkg/log"
)

// Log output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config holds CLI configuration for healthtree.
type Config struct {
	LogLevel  string
	LogFormat string

	// StateDir holds status.json. Derived from the home directory when empty.
	StateDir string
	Snapshot bool

	// CheckInterval re-probes checkable components while running. Zero disables it.
	CheckInterval time.Duration
	ProbeTimeout  time.Duration

	SuppressWindow time.Duration
	SuppressMax    time.Duration

	Once bool

	Tree components.Spec
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		LogLevel:       "info",
		LogFormat:      FormatConsole,
		Snapshot:       true,
		CheckInterval:  30 * time.Second,
		ProbeTimeout:   5 * time.Second,
		SuppressWindow: time.Second,
		SuppressMax:    time.Minute,
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "":
		c.LogFormat = FormatConsole
	case FormatConsole, FormatJSON:
	default:
		return fmt.Errorf("unknown log format %q (want %s or %s)", c.LogFormat, FormatConsole, FormatJSON)
	}

	if c.Tree.Name == "" {
		return fmt.Errorf("no component tree configured (add a [tree] table to the config file)")
	}

	if c.StateDir == "" {
		c.StateDir = DefaultStateDir()
	}
	if c.Snapshot && c.StateDir == "" {
		return fmt.Errorf("state-dir is required when snapshots are enabled")
	}

	if c.CheckInterval < 0 {
		return fmt.Errorf("check interval must not be negative")
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("probe timeout must be positive")
	}
	if c.SuppressWindow <= 0 {
		return fmt.Errorf("suppress window must be positive")
	}
	if c.SuppressMax < c.SuppressWindow {
		c.SuppressMax = c.SuppressWindow
	}

	return nil
}

// DefaultStateDir returns ~/.healthtree, or "" if the home directory is unknown.
func DefaultStateDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".healthtree")
	}
	return ""
}

// Logger builds the application logger from the log settings.
func Logger(cfg Config) log.Logger {
	return log.NewZerologAdapter(os.Stderr, log.Options{
		Level:   cfg.LogLevel,
		Console: cfg.LogFormat != FormatJSON,
	})
}

// configSetter applies configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setBoolFromString accepts "true" and "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}

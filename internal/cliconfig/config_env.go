package cliconfig

import "os"

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "HEALTHTREE_"

// ApplyEnvConfig applies configuration from environment variables (HEALTHTREE_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(name string) string { return os.Getenv(EnvPrefix + name) }

	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-format", env("LOG_FORMAT"), &cfg.LogFormat)
	s.setString("state-dir", env("STATE_DIR"), &cfg.StateDir)

	if err := s.setDuration("check-interval", env("CHECK_INTERVAL"), &cfg.CheckInterval); err != nil {
		return err
	}
	if err := s.setDuration("probe-timeout", env("PROBE_TIMEOUT"), &cfg.ProbeTimeout); err != nil {
		return err
	}
	if err := s.setDuration("suppress-window", env("SUPPRESS_WINDOW"), &cfg.SuppressWindow); err != nil {
		return err
	}
	if err := s.setDuration("suppress-max", env("SUPPRESS_MAX"), &cfg.SuppressMax); err != nil {
		return err
	}

	s.setBoolFromString("snapshot", env("SNAPSHOT"), &cfg.Snapshot)
	s.setBoolFromString("once", env("ONCE"), &cfg.Once)

	return nil
}

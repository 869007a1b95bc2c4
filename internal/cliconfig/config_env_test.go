package cliconfig

import (
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"HEALTHTREE_LOG_LEVEL":       "debug",
				"HEALTHTREE_LOG_FORMAT":      "json",
				"HEALTHTREE_STATE_DIR":       "/env/state",
				"HEALTHTREE_CHECK_INTERVAL":  "10s",
				"HEALTHTREE_PROBE_TIMEOUT":   "1s",
				"HEALTHTREE_SUPPRESS_WINDOW": "500ms",
				"HEALTHTREE_SUPPRESS_MAX":    "5s",
				"HEALTHTREE_SNAPSHOT":        "false",
				"HEALTHTREE_ONCE":            "1",
			},
			changed: map[string]bool{},
			initial: Config{Snapshot: true},
			expected: Config{
				LogLevel:       "debug",
				LogFormat:      "json",
				StateDir:       "/env/state",
				CheckInterval:  10 * time.Second,
				ProbeTimeout:   time.Second,
				SuppressWindow: 500 * time.Millisecond,
				SuppressMax:    5 * time.Second,
				Snapshot:       false,
				Once:           true,
			},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"HEALTHTREE_LOG_LEVEL": "debug",
				"HEALTHTREE_STATE_DIR": "/env/state",
			},
			changed:  map[string]bool{"log-level": true},
			initial:  Config{LogLevel: "error"},
			expected: Config{LogLevel: "error", StateDir: "/env/state"},
		},
		{
			name:    "returns error for invalid duration",
			envVars: map[string]string{"HEALTHTREE_PROBE_TIMEOUT": "not-a-duration"},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name:     "handles bool 'true'",
			envVars:  map[string]string{"HEALTHTREE_ONCE": "true"},
			changed:  map[string]bool{},
			expected: Config{Once: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if tt.wantErr {
				if err == nil {
					t.Error("ApplyEnvConfig() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyEnvConfig() unexpected error: %v", err)
			}

			if cfg.LogLevel != tt.expected.LogLevel {
				t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, tt.expected.LogLevel)
			}
			if cfg.LogFormat != tt.expected.LogFormat {
				t.Errorf("LogFormat = %v, want %v", cfg.LogFormat, tt.expected.LogFormat)
			}
			if cfg.StateDir != tt.expected.StateDir {
				t.Errorf("StateDir = %v, want %v", cfg.StateDir, tt.expected.StateDir)
			}
			if cfg.CheckInterval != tt.expected.CheckInterval {
				t.Errorf("CheckInterval = %v, want %v", cfg.CheckInterval, tt.expected.CheckInterval)
			}
			if cfg.ProbeTimeout != tt.expected.ProbeTimeout {
				t.Errorf("ProbeTimeout = %v, want %v", cfg.ProbeTimeout, tt.expected.ProbeTimeout)
			}
			if cfg.SuppressWindow != tt.expected.SuppressWindow {
				t.Errorf("SuppressWindow = %v, want %v", cfg.SuppressWindow, tt.expected.SuppressWindow)
			}
			if cfg.SuppressMax != tt.expected.SuppressMax {
				t.Errorf("SuppressMax = %v, want %v", cfg.SuppressMax, tt.expected.SuppressMax)
			}
			if cfg.Snapshot != tt.expected.Snapshot {
				t.Errorf("Snapshot = %v, want %v", cfg.Snapshot, tt.expected.Snapshot)
			}
			if cfg.Once != tt.expected.Once {
				t.Errorf("Once = %v, want %v", cfg.Once, tt.expected.Once)
			}
		})
	}
}

// Precedence order: CLI > Env > File
func TestConfigPrecedence(t *testing.T) {
	trueVal := true

	fileConf := FileConfig{
		LogLevel: "warn",
		StateDir: "/file/state",
		Once:     &trueVal,
	}

	t.Setenv("HEALTHTREE_LOG_LEVEL", "debug")
	t.Setenv("HEALTHTREE_STATE_DIR", "/env/state")
	t.Setenv("HEALTHTREE_LOG_FORMAT", "json")

	changed := map[string]bool{
		"log-level": true,
	}

	cfg := Config{
		LogLevel: "error", // This should remain (CLI wins)
	}

	if err := ApplyFileConfig(&cfg, fileConf, changed); err != nil {
		t.Fatalf("ApplyFileConfig failed: %v", err)
	}
	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		t.Fatalf("ApplyEnvConfig failed: %v", err)
	}

	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %v, want error (CLI should win)", cfg.LogLevel)
	}
	if cfg.StateDir != "/env/state" {
		t.Errorf("StateDir = %v, want /env/state (env should override file)", cfg.StateDir)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %v, want json (env should set)", cfg.LogFormat)
	}
	if cfg.Once != true {
		t.Errorf("Once = %v, want true (file should set)", cfg.Once)
	}
}

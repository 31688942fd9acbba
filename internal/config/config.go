// Package config provides configuration types and defaults for worksets.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/zjrosen/worksets/internal/tracing"
)

// Config holds all configuration options for worksets.
type Config struct {
	Session SessionConfig   `mapstructure:"session"`
	UI      UIConfig        `mapstructure:"ui"`
	Log     LogConfig       `mapstructure:"log"`
	Tracing tracing.Config  `mapstructure:"tracing"`
	Flags   map[string]bool `mapstructure:"flags"`
}

// SessionConfig controls what a session installs into the shell.
type SessionConfig struct {
	// Worksets names the worksets assigned to workspaces 0..n-1.
	Worksets []string `mapstructure:"worksets"`

	// AutosaveInterval is the period of the repeating autosave timeout.
	AutosaveInterval time.Duration `mapstructure:"autosave_interval"`

	// StartupDelay delays the one-shot startup notice after enable.
	StartupDelay time.Duration `mapstructure:"startup_delay"`

	// StateFile receives the session state on every autosave. Empty disables writing.
	StateFile string `mapstructure:"state_file"`
}

// UIConfig holds user interface configuration options.
type UIConfig struct {
	ShowTimers bool `mapstructure:"show_timers"`
	MaxEvents  int  `mapstructure:"max_events"` // recent shell events kept in the status view
}

// LogConfig controls the debug log.
type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
	File  string `mapstructure:"file"`  // debug log path; empty uses DefaultLogPath
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Session: SessionConfig{
			Worksets:         []string{"Personal", "Work"},
			AutosaveInterval: 5 * time.Minute,
			StartupDelay:     2 * time.Second,
			StateFile:        DefaultStateFile(),
		},
		UI: UIConfig{
			ShowTimers: true,
			MaxEvents:  8,
		},
		Log: LogConfig{
			Level: "debug",
		},
		Tracing: tracing.DefaultConfig(),
	}
}

// configDir returns ~/.config/worksets, or "" if the home directory is unknown.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "worksets")
}

// DefaultConfigPath returns the user-level config path.
func DefaultConfigPath() string {
	if dir := configDir(); dir != "" {
		return filepath.Join(dir, "config.yaml")
	}
	return filepath.Join(".worksets", "config.yaml")
}

// DefaultStateFile returns where autosave writes session state.
func DefaultStateFile() string {
	if dir := configDir(); dir != "" {
		return filepath.Join(dir, "session.yaml")
	}
	return ""
}

// DefaultLogPath returns the debug log location.
func DefaultLogPath() string {
	if dir := configDir(); dir != "" {
		return filepath.Join(dir, "debug.log")
	}
	return "debug.log"
}

// DefaultTracesFilePath returns the trace file used by the "file" exporter.
func DefaultTracesFilePath() string {
	if dir := configDir(); dir != "" {
		return filepath.Join(dir, "traces", "traces.jsonl")
	}
	return ""
}

var validLevels = []string{"debug", "info", "warn", "warning", "error"}

// Validate checks a loaded configuration.
func Validate(cfg Config) error {
	var errs []error

	if cfg.Session.AutosaveInterval <= 0 {
		errs = append(errs, fmt.Errorf("session.autosave_interval must be positive, got %s", cfg.Session.AutosaveInterval))
	}
	if cfg.Session.StartupDelay < 0 {
		errs = append(errs, fmt.Errorf("session.startup_delay must not be negative, got %s", cfg.Session.StartupDelay))
	}

	seen := make(map[string]bool, len(cfg.Session.Worksets))
	for i, name := range cfg.Session.Worksets {
		name = strings.TrimSpace(name)
		if name == "" {
			errs = append(errs, fmt.Errorf("session.worksets[%d]: name is required", i))
			continue
		}
		if seen[name] {
			errs = append(errs, fmt.Errorf("session.worksets[%d]: duplicate name %q", i, name))
		}
		seen[name] = true
	}

	if cfg.Log.Level != "" && !slices.Contains(validLevels, strings.ToLower(cfg.Log.Level)) {
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", cfg.Log.Level))
	}

	if cfg.UI.MaxEvents < 0 {
		errs = append(errs, fmt.Errorf("ui.max_events must not be negative"))
	}

	switch cfg.Tracing.Exporter {
	case "", "none", "file", "stdout", "otlp":
	default:
		errs = append(errs, fmt.Errorf("tracing.exporter: unsupported %q", cfg.Tracing.Exporter))
	}

	return errors.Join(errs...)
}

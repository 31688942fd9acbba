package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/worksets/internal/log"
	"github.com/zjrosen/worksets/internal/tracing"
)

// document mirrors Config for YAML output with human-readable durations.
type document struct {
	Session struct {
		Worksets         []string `yaml:"worksets"`
		AutosaveInterval string   `yaml:"autosave_interval"`
		StartupDelay     string   `yaml:"startup_delay"`
		StateFile        string   `yaml:"state_file"`
	} `yaml:"session"`
	UI struct {
		ShowTimers bool `yaml:"show_timers"`
		MaxEvents  int  `yaml:"max_events"`
	} `yaml:"ui"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file,omitempty"`
	} `yaml:"log"`
	Tracing tracing.Config  `yaml:"tracing"`
	Flags   map[string]bool `yaml:"flags,omitempty"`
}

func toDocument(cfg Config) document {
	var d document
	d.Session.Worksets = cfg.Session.Worksets
	d.Session.AutosaveInterval = cfg.Session.AutosaveInterval.String()
	d.Session.StartupDelay = cfg.Session.StartupDelay.String()
	d.Session.StateFile = cfg.Session.StateFile
	d.UI.ShowTimers = cfg.UI.ShowTimers
	d.UI.MaxEvents = cfg.UI.MaxEvents
	d.Log.Level = cfg.Log.Level
	d.Log.File = cfg.Log.File
	d.Tracing = cfg.Tracing
	d.Flags = cfg.Flags
	return d
}

// Marshal renders cfg as YAML readable by the loader.
func Marshal(cfg Config) ([]byte, error) {
	var node yaml.Node
	if err := node.Encode(toDocument(cfg)); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	node.HeadComment = "worksets configuration"
	return yaml.Marshal(&node)
}

// WriteDefaultConfig writes the default configuration to configPath.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	data, err := Marshal(Defaults())
	if err != nil {
		return err
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}

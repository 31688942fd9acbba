package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	require.Equal(t, []string{"Personal", "Work"}, cfg.Session.Worksets)
	require.Equal(t, 5*time.Minute, cfg.Session.AutosaveInterval)
	require.Equal(t, 2*time.Second, cfg.Session.StartupDelay)
	require.True(t, cfg.UI.ShowTimers)
	require.Equal(t, 8, cfg.UI.MaxEvents)
	require.False(t, cfg.Tracing.Enabled)
	require.NoError(t, Validate(cfg))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "zero autosave interval",
			mutate:  func(c *Config) { c.Session.AutosaveInterval = 0 },
			wantErr: "session.autosave_interval must be positive",
		},
		{
			name:    "negative startup delay",
			mutate:  func(c *Config) { c.Session.StartupDelay = -time.Second },
			wantErr: "session.startup_delay must not be negative",
		},
		{
			name:    "blank workset name",
			mutate:  func(c *Config) { c.Session.Worksets = []string{"Work", "  "} },
			wantErr: "session.worksets[1]: name is required",
		},
		{
			name:    "duplicate workset name",
			mutate:  func(c *Config) { c.Session.Worksets = []string{"Work", "Work"} },
			wantErr: `session.worksets[1]: duplicate name "Work"`,
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: `log.level: unknown level "verbose"`,
		},
		{
			name:    "negative max events",
			mutate:  func(c *Config) { c.UI.MaxEvents = -1 },
			wantErr: "ui.max_events must not be negative",
		},
		{
			name:    "unsupported exporter",
			mutate:  func(c *Config) { c.Tracing.Exporter = "jaeger" },
			wantErr: `tracing.exporter: unsupported "jaeger"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_JoinsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Session.AutosaveInterval = 0
	cfg.Log.Level = "loud"

	err := Validate(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "autosave_interval")
	require.Contains(t, err.Error(), "log.level")
}

func TestValidate_EmptyWorksetsAllowed(t *testing.T) {
	cfg := Defaults()
	cfg.Session.Worksets = nil
	require.NoError(t, Validate(cfg))
}

func TestMarshal_HumanDurations(t *testing.T) {
	data, err := Marshal(Defaults())
	require.NoError(t, err)

	var raw map[string]map[string]any
	require.NoError(t, yaml.Unmarshal(data, &raw))
	require.Equal(t, "5m0s", raw["session"]["autosave_interval"])
	require.Equal(t, "2s", raw["session"]["startup_delay"])
	require.Contains(t, string(data), "# worksets configuration")
}

func TestWriteDefaultConfig_CreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")

	require.NoError(t, WriteDefaultConfig(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.False(t, info.IsDir())
}

func TestWriteDefaultConfig_LoadsBackThroughViper(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	var got Config
	require.NoError(t, v.Unmarshal(&got))

	want := Defaults()
	require.Equal(t, want.Session, got.Session)
	require.Equal(t, want.UI, got.UI)
	require.Equal(t, want.Log.Level, got.Log.Level)
	require.Equal(t, want.Tracing.Exporter, got.Tracing.Exporter)
	require.Equal(t, want.Tracing.ServiceName, got.Tracing.ServiceName)
	require.NoError(t, Validate(got))
}

func TestDefaultPaths(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	require.Equal(t, filepath.Join(home, ".config", "worksets", "config.yaml"), DefaultConfigPath())
	require.Equal(t, filepath.Join(home, ".config", "worksets", "session.yaml"), DefaultStateFile())
	require.Equal(t, filepath.Join(home, ".config", "worksets", "debug.log"), DefaultLogPath())
}

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/worksets/internal/config"
	"github.com/zjrosen/worksets/internal/session"
)

// execute runs the root command with args against a fresh viper instance.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	cfgFile = ""
	debugFlag = false
	t.Cleanup(viper.Reset)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, mutate func(*config.Config)) (string, config.Config) {
	t.Helper()
	dir := t.TempDir()
	c := config.Defaults()
	c.Session.StateFile = filepath.Join(dir, "session.yaml")
	c.Session.StartupDelay = 0
	c.Session.AutosaveInterval = 10 * time.Millisecond
	if mutate != nil {
		mutate(&c)
	}
	data, err := config.Marshal(c)
	require.NoError(t, err)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path, c
}

func TestConfigInit_WritesAndRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worksets", "config.yaml")

	out, err := execute(t, "config", "init", "--path", path)
	require.NoError(t, err)
	require.Contains(t, out, "wrote "+path)
	require.FileExists(t, path)

	_, err = execute(t, "config", "init", "--path", path)
	require.ErrorContains(t, err, "already exists")

	_, err = execute(t, "config", "init", "--path", path, "--force")
	require.NoError(t, err)
	configInitForce = false
}

func TestConfigShow_PrintsEffectiveConfig(t *testing.T) {
	path, _ := writeConfig(t, func(c *config.Config) {
		c.Session.Worksets = []string{"Alpha", "Beta", "Gamma"}
	})

	out, err := execute(t, "--config", path, "config", "show")
	require.NoError(t, err)
	require.Contains(t, out, "Gamma")
	require.Contains(t, out, "10ms")
}

func TestInvalidConfig_Rejected(t *testing.T) {
	path, _ := writeConfig(t, func(c *config.Config) {
		c.Log.Level = "chatty"
	})

	_, err := execute(t, "--config", path, "run", "--duration", "10ms")
	require.ErrorContains(t, err, "invalid configuration")
}

func TestRun_InstallsThenLeavesNothing(t *testing.T) {
	path, c := writeConfig(t, nil)

	out, err := execute(t, "--config", path, "--workspaces", "2",
		"run", "--duration", "100ms", "--cycle-every", "20ms")
	require.NoError(t, err)

	require.Contains(t, out, "installed (session ")
	require.Contains(t, out, "signals:    3 (windows=2 workspaces=1)")
	require.Contains(t, out, "injections: 2 (focus=2)")
	require.Contains(t, out, "timeouts:   3 (autosave=1 cycle=1 startup=1)")
	require.Contains(t, out, "after disable")
	require.Contains(t, out, "signals:    0 \n")
	require.Contains(t, out, "timeouts:   0 \n")

	st, err := session.LoadState(c.Session.StateFile)
	require.NoError(t, err)
	require.Equal(t, []string{"Personal", "Work"}, st.Worksets)
	runCycleEvery = 0
}

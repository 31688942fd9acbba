package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/zjrosen/worksets/internal/config"
	"github.com/zjrosen/worksets/internal/flags"
	"github.com/zjrosen/worksets/internal/log"
	"github.com/zjrosen/worksets/internal/session"
	"github.com/zjrosen/worksets/internal/shell"
	"github.com/zjrosen/worksets/internal/tracing"
)

// environment is everything a command needs to drive a session.
type environment struct {
	shell    *shell.Shell
	session  *session.Session
	tracing  *tracing.Provider
	closeLog func()
}

func (e *environment) cleanup() {
	if err := e.session.Disable(); err != nil {
		log.ErrorErr(log.CatSession, "Disable during cleanup failed", err)
	}
	e.shell.Close()
	if e.tracing != nil {
		if err := e.tracing.Shutdown(context.Background()); err != nil {
			log.ErrorErr(log.CatTracing, "Tracer shutdown failed", err)
		}
	}
	if e.closeLog != nil {
		e.closeLog()
	}
}

// setup builds the shell and a disabled session from the loaded config.
func setup() (*environment, error) {
	if cfgErr != nil {
		return nil, cfgErr
	}

	if cfgMissing {
		// First run: write the defaults where the user will look for them.
		defaultPath := config.DefaultConfigPath()
		if err := config.WriteDefaultConfig(defaultPath); err == nil {
			viper.SetConfigFile(defaultPath)
			cfgMissing = false
		}
	}

	env := &environment{}

	if path, ok := debugLogPath(); ok {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		closeLog, err := log.Init(path)
		if err != nil {
			return nil, fmt.Errorf("initializing logging: %w", err)
		}
		log.SetMinLevel(log.ParseLevel(cfg.Log.Level))
		env.closeLog = closeLog
		log.Info(log.CatConfig, "worksets starting", "version", version, "config", viper.ConfigFileUsed())
	}

	tp, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		if env.closeLog != nil {
			env.closeLog()
		}
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}
	env.tracing = tp

	env.shell = shell.New(viper.GetInt("workspaces"))
	env.session = session.New(env.shell, session.Options{
		Config:     cfg.Session,
		Flags:      flags.New(cfg.Flags),
		ConfigPath: viper.ConfigFileUsed(),
		MaxEvents:  cfg.UI.MaxEvents,
		Tracer:     tp.Tracer(),
	})

	if path := cfg.Session.StateFile; path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			st, loadErr := session.LoadState(path)
			if loadErr != nil {
				log.ErrorErr(log.CatSession, "Ignoring unreadable state file", loadErr, "path", path)
			} else {
				env.session.Restore(st)
			}
		}
	}

	return env, nil
}

// debugLogPath resolves where the debug log goes, if anywhere.
// WORKSETS_DEBUG=1 (or any non-path value) uses the configured path.
func debugLogPath() (string, bool) {
	env := os.Getenv(log.EnvDebug)
	if !debugFlag && env == "" {
		return "", false
	}
	if env != "" && env != "1" && env != "true" {
		return env, true
	}
	if cfg.Log.File != "" {
		return cfg.Log.File, true
	}
	return config.DefaultLogPath(), true
}

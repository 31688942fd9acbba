package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/worksets/internal/app"
	"github.com/zjrosen/worksets/internal/config"
	"github.com/zjrosen/worksets/internal/log"
)

func init() {
	// Query the terminal background before Bubble Tea owns stdin, otherwise
	// the OSC 11 reply can leak into the input stream.
	_ = lipgloss.HasDarkBackground()
}

const localConfigPath = ".worksets/config.yaml"

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
	cfgErr    error

	// cfgMissing is set when no config file was found anywhere.
	cfgMissing bool
)

var rootCmd = &cobra.Command{
	Use:   "worksets",
	Short: "Workspace sets for a desktop shell",
	Long: `worksets assigns named worksets to workspaces, remembers which workset
each window belongs to and saves that state periodically.

Running worksets without a subcommand opens a live status view of the
session: every signal handler, window manager override and timeout it has
installed, grouped by label.`,
	Version:      version,
	SilenceUsage: true,
	RunE:         runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/worksets/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write a debug log (also enabled by "+log.EnvDebug+")")
	rootCmd.PersistentFlags().Int("workspaces", 4, "number of workspaces in the shell")
}

func initConfig() {
	_ = viper.BindPFlag("workspaces", rootCmd.PersistentFlags().Lookup("workspaces"))

	defaults := config.Defaults()
	viper.SetDefault("session.worksets", defaults.Session.Worksets)
	viper.SetDefault("session.autosave_interval", defaults.Session.AutosaveInterval)
	viper.SetDefault("session.startup_delay", defaults.Session.StartupDelay)
	viper.SetDefault("session.state_file", defaults.Session.StateFile)
	viper.SetDefault("ui.show_timers", defaults.UI.ShowTimers)
	viper.SetDefault("ui.max_events", defaults.UI.MaxEvents)
	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)
	viper.SetDefault("tracing.file_path", config.DefaultTracesFilePath())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .worksets/config.yaml (current directory)
		// 2. ~/.config/worksets/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			viper.SetConfigFile(localConfigPath)
		} else {
			viper.AddConfigPath(filepath.Dir(config.DefaultConfigPath()))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	cfgErr = nil
	cfgMissing = false
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			cfgErr = fmt.Errorf("reading config: %w", err)
			return
		}
		cfgMissing = true
	}

	cfg = config.Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		cfgErr = fmt.Errorf("decoding config: %w", err)
		return
	}
	if err := config.Validate(cfg); err != nil {
		cfgErr = fmt.Errorf("invalid configuration: %w", err)
	}
}

func runApp(cmd *cobra.Command, _ []string) error {
	env, err := setup()
	if err != nil {
		return err
	}
	defer env.cleanup()

	if err := env.session.Enable(cmd.Context()); err != nil {
		return err
	}

	model := app.New(env.shell, env.session, cfg.UI)
	p := tea.NewProgram(model, tea.WithAltScreen())

	_, err = p.Run()

	if closeErr := model.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/worksets/internal/handlers"
	"github.com/zjrosen/worksets/internal/log"
	"github.com/zjrosen/worksets/internal/session"
)

const (
	labelCycle   = "cycle"
	timeoutCycle = "cycle-workspaces"
)

var (
	runDuration   time.Duration
	runCycleEvery time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a session without the status view",
	Long: `Enable a session, dispatch its main loop for --duration (or until
interrupted), then disable it and print what was installed and what is left.

Examples:
  worksets run                          # run for the default 10s
  worksets run --duration 1m
  worksets run --cycle-every 2s         # switch workspaces periodically`,
	RunE: runHeadless,
}

func init() {
	runCmd.Flags().DurationVar(&runDuration, "duration", 10*time.Second, "how long to run (0 runs until interrupted)")
	runCmd.Flags().DurationVar(&runCycleEvery, "cycle-every", 0, "switch to the next workspace at this interval")
	rootCmd.AddCommand(runCmd)
}

func runHeadless(cmd *cobra.Command, _ []string) error {
	env, err := setup()
	if err != nil {
		return err
	}
	defer env.cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if runDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runDuration)
		defer cancel()
	}

	if err := env.session.Enable(ctx); err != nil {
		return err
	}

	if runCycleEvery > 0 {
		sh := env.shell
		err := env.session.Timeouts.AddWithLabel(labelCycle, handlers.Timeout{
			Name:  timeoutCycle,
			Delay: runCycleEvery,
			Callback: func() {
				if err := sh.NextWorkspace(); err != nil {
					log.ErrorErr(log.CatSession, "Workspace cycle failed", err)
				}
			},
			Repeat: true,
		})
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	before := env.session.Status()
	printStatus(out, "installed", before)

	if err := env.shell.Loop.Run(ctx); err != nil &&
		!errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return err
	}

	final := env.session.Status()
	if err := env.session.Disable(); err != nil {
		return err
	}
	after := env.session.Status()

	_, _ = fmt.Fprintf(out, "ran %s: %d switches, %d saves, %d reloads\n",
		final.Uptime.Round(time.Millisecond), final.Switches, final.Saves, final.Reloads)
	printStatus(out, "after disable", after)
	return nil
}

func printStatus(w io.Writer, heading string, st session.Status) {
	_, _ = fmt.Fprintf(w, "%s (session %s):\n", heading, st.ID)
	_, _ = fmt.Fprintf(w, "  signals:    %d %s\n", session.Total(st.Signals), labelList(st.Signals))
	_, _ = fmt.Fprintf(w, "  injections: %d %s\n", session.Total(st.Injections), labelList(st.Injections))
	_, _ = fmt.Fprintf(w, "  timeouts:   %d %s\n", session.Total(st.Timeouts), labelList(st.Timeouts))
}

func labelList(counts map[string]int) string {
	if len(counts) == 0 {
		return ""
	}
	parts := make([]string, 0, len(counts))
	for _, label := range sortedKeys(counts) {
		parts = append(parts, fmt.Sprintf("%s=%d", label, counts[label]))
	}
	return "(" + strings.Join(parts, " ") + ")"
}

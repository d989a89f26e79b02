// Package cli wires configuration, sampling, storage and the dashboard into
// the vitals command tree.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Dicklesworthstone/vitals/internal/config"
)

// Version information set via ldflags at build time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersionInfo sets the version information (called from main).
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

// newRootCmd builds the command tree. Each call returns fresh flag state.
func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "vitals",
		Short: "Sample host CPU, memory, GPU and temperatures into SQLite",
		Long: `Sample CPU load, memory use, GPU load and temperature, and CPU temperature
once per interval. Every sample is appended to a SQLite file and charted live
in the terminal.

Without a terminal, or with --headless, samples are only stored until the
process receives SIGINT or SIGTERM.

Examples:
  vitals
  vitals --db /var/lib/vitals/monitor.db --interval 2s
  vitals --headless --gpu=false`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runMonitor(ctx, cfg, interactive(cfg))
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	config.RegisterFlags(root.PersistentFlags())

	load := func(cmd *cobra.Command) (config.Config, error) {
		return config.Load(configPath, cmd.Flags())
	}
	root.AddCommand(
		newTailCmd(load),
		newSummaryCmd(load),
		newConfigCmd(load),
		newVersionCmd(),
	)
	return root
}

type loadFunc func(cmd *cobra.Command) (config.Config, error)

// interactive reports whether the dashboard should own the terminal.
func interactive(cfg config.Config) bool {
	return !cfg.Headless && term.IsTerminal(int(os.Stdout.Fd()))
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

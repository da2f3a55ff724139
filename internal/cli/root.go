// Package cli implements the matrixportal command line.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath  string
	secretsPath string
	debug       bool
	logFormat   string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:          "matrixportal",
		Short:        "Show data fetched from the internet on an RGB LED matrix",
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&g.configPath, "config", "c", "", "configuration file (JSON, or YAML with a .yaml/.yml extension)")
	flags.StringVarP(&g.secretsPath, "secrets", "s", "secrets.json", "network credentials and Adafruit IO keys")
	flags.BoolVar(&g.debug, "debug", false, "enable debug logging")
	flags.StringVar(&g.logFormat, "log-format", "", "log format: text|json (overrides the config)")

	cmd.AddCommand(
		runCmd(g),
		scrollCmd(g),
		fetchCmd(g),
		timeCmd(g),
		ioCmd(g),
		testPatternCmd(g),
	)
	return cmd
}

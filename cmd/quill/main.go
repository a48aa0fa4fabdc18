package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/quill/internal/config"
	qerrors "github.com/vango-dev/quill/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// configPath is the --config flag shared by all commands.
var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		qerrors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "quill",
		Short: "Reactive view reconciliation toolkit",
		Long: `quill drives reactive component trees and reconciles their output
into minimal edit scripts.

The CLI runs a demo inventory UI against an in-memory host:

  • replay   run a scenario and print every tick's edits
  • serve    run a scenario behind the devtools inspector
  • explain  describe an error code`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to quill.json (default: search from the working directory)")

	rootCmd.AddCommand(
		replayCmd(),
		serveCmd(),
		explainCmd(),
		versionCmd(),
	)
	return rootCmd
}

// loadConfig reads --config, or the nearest quill.json, or falls back to
// defaults.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	dir, err := config.FindProjectRoot(".")
	if err != nil {
		return config.New(), nil
	}
	return config.Load(dir)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}

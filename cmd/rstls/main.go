package main

import (
	"context"
	"os"
	rdebug "runtime/debug"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/rstls/cmd/rstls/check"
	"github.com/walteh/rstls/cmd/rstls/outline"
	serve_lsp "github.com/walteh/rstls/cmd/rstls/serve-lsp"
	"github.com/walteh/rstls/pkg/debug"
)

func main() {
	if err := run(); err != nil {
		println(err.Error())
		os.Exit(1)
	}
}

func run() error {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:   "rstls",
		Short: "A language server for reStructuredText cross references",
	}

	info, ok := rdebug.ReadBuildInfo()
	if !ok {
		rootCmd.Version = "unknown"
	} else {
		rootCmd.Version = info.Main.Version
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level written to stderr")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		lvl, err := zerolog.ParseLevel(logLevel)
		if err != nil {
			return errors.Errorf("parsing log level: %w", err)
		}
		logger := debug.NewLogger(os.Stderr, debug.Options{
			Level:   lvl,
			Console: true,
			Color:   !color.NoColor,
		})
		cmd.SetContext(logger.WithContext(cmd.Context()))
		return nil
	}

	cmdVersion := &cobra.Command{
		Use: "raw-version",
		Run: func(cmdz *cobra.Command, args []string) {
			cmdz.Println(rootCmd.Version)
		},
		Hidden: true,
	}

	rootCmd.AddCommand(cmdVersion)

	rootCmd.AddCommand(serve_lsp.NewServeLSPCommand())
	rootCmd.AddCommand(check.NewCheckCommand())
	rootCmd.AddCommand(outline.NewOutlineCommand())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		return errors.Errorf("failed to execute command: %w", err)
	}

	return nil
}

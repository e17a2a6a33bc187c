package serve_lsp

import (
	"context"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/rstls/pkg/config"
	"github.com/walteh/rstls/pkg/lsp"
)

type Handler struct {
	debug      bool
	logFile    string
	configPath string
	version    string
}

func NewServeLSPCommand() *cobra.Command {
	me := &Handler{}

	cmd := &cobra.Command{
		Use:   "serve-lsp",
		Short: "start the language server on stdin/stdout",
	}

	cmd.Flags().BoolVar(&me.debug, "debug", false, "enable protocol debug logging")
	cmd.Flags().StringVar(&me.logFile, "log-file", "", "write transport logs to this file instead of stderr")
	cmd.Flags().StringVar(&me.configPath, "config", "", "config file to use instead of the workspace's .rstls.hcl or .rstls.yaml")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.version = cmd.Root().Version
		return me.Run(cmd.Context())
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context) error {
	verbosity := 0
	if me.debug {
		verbosity = 2
	}
	var path *string
	if me.logFile != "" {
		path = &me.logFile
	}
	commonlog.Configure(verbosity, path)

	fs := afero.NewOsFs()

	var cfg *config.Config
	if me.configPath != "" {
		loaded, err := config.LoadFile(fs, me.configPath)
		if err != nil {
			return errors.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	server := lsp.NewServer(ctx, lsp.Options{
		Fs:      fs,
		Config:  cfg,
		Version: me.version,
		Debug:   me.debug,
		Logs:    lsp.NewLSPWriter(os.Stderr),
	})

	if err := server.RunStdio(); err != nil {
		return errors.Errorf("error running language server: %w", err)
	}

	return nil
}

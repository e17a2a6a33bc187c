package check

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/walteh/rstls/pkg/config"
	"github.com/walteh/rstls/pkg/diagnostic"
	"github.com/walteh/rstls/pkg/workspace"
)

var ErrProblemsFound = errors.Base("problems found")

type Handler struct {
	dir        string
	configPath string
	format     string // text, yaml

	fs  afero.Fs
	out io.Writer
}

func NewCheckCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "check [dir]",
		Short: "report duplicate targets and unknown references in a project",
	}

	cmd.Flags().StringVar(&me.configPath, "config", "", "config file to use instead of the project's .rstls.hcl or .rstls.yaml")
	cmd.Flags().StringVar(&me.format, "format", "text", "output format: text or yaml")
	cmd.Args = cobra.ExactArgs(1)
	cmd.SilenceUsage = true

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.dir = args[0]
		me.out = cmd.OutOrStdout()
		return me.Run(cmd.Context())
	}

	return cmd
}

type problem struct {
	File     string `yaml:"file"`
	Line     int    `yaml:"line"`
	Column   int    `yaml:"column"`
	Severity string `yaml:"severity"`
	Message  string `yaml:"message"`

	text string
}

func (me *Handler) Run(ctx context.Context) error {
	if me.format != "text" && me.format != "yaml" {
		return errors.Errorf("unknown format %q", me.format)
	}

	root, err := filepath.Abs(me.dir)
	if err != nil {
		return errors.Errorf("resolving %s: %w", me.dir, err)
	}

	cfg, err := me.loadConfig(root)
	if err != nil {
		return err
	}

	ws := workspace.New(me.fs, root, cfg)
	project, err := ws.NewProject()
	if err != nil {
		return err
	}

	report, loadErr := ws.Load(ctx, project)
	if report == nil {
		return loadErr
	}
	if loadErr != nil {
		zerolog.Ctx(ctx).Error().Err(loadErr).Msg("some documents could not be read")
	}

	problems, failed := collect(root, report.Diagnostics)
	if err := me.write(problems); err != nil {
		return err
	}

	zerolog.Ctx(ctx).Info().Int("documents", project.DocumentCount()).Int("problems", len(problems)).Msg("check finished")

	if loadErr != nil {
		return loadErr
	}
	if failed {
		return errors.Errorf("%d in %s: %w", len(problems), me.dir, ErrProblemsFound)
	}
	return nil
}

func (me *Handler) loadConfig(root string) (*config.Config, error) {
	if me.configPath != "" {
		cfg, err := config.LoadFile(me.fs, me.configPath)
		if err != nil {
			return nil, errors.Errorf("loading config: %w", err)
		}
		return cfg, nil
	}
	cfg, err := config.Load(me.fs, root)
	if err != nil {
		return nil, errors.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// collect flattens the diagnostics in file then position order. The second
// result reports whether any of them is an error.
func collect(root string, byURI map[string][]diagnostic.Diagnostic) ([]problem, bool) {
	uris := make([]string, 0, len(byURI))
	for uri := range byURI {
		uris = append(uris, uri)
	}
	sort.Strings(uris)

	var out []problem
	failed := false
	for _, uri := range uris {
		file := uri
		if path, ok := workspace.PathFromURI(uri); ok {
			if rel, err := filepath.Rel(root, path); err == nil {
				file = rel
			}
		}
		diags := byURI[uri]
		sort.SliceStable(diags, func(i, j int) bool {
			return diags[i].Range.Start.Before(diags[j].Range.Start)
		})
		for _, d := range diags {
			failed = failed || d.Severity == diagnostic.SeverityError
			out = append(out, problem{
				File:     file,
				Line:     d.Range.Start.Line + 1,
				Column:   d.Range.Start.Character + 1,
				Severity: d.Severity.String(),
				Message:  d.Message,
				text:     d.Format(file),
			})
		}
	}
	return out, failed
}

func (me *Handler) write(problems []problem) error {
	if me.format == "yaml" {
		if len(problems) == 0 {
			return nil
		}
		enc := yaml.NewEncoder(me.out)
		enc.SetIndent(2)
		if err := enc.Encode(problems); err != nil {
			return errors.Errorf("encoding YAML: %w", err)
		}
		return enc.Close()
	}
	for _, p := range problems {
		if _, err := fmt.Fprintln(me.out, p.text); err != nil {
			return errors.Errorf("writing report: %w", err)
		}
	}
	return nil
}

package outline

import (
	"context"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/walteh/rstls/pkg/config"
	"github.com/walteh/rstls/pkg/document"
	"github.com/walteh/rstls/pkg/entity"
	"github.com/walteh/rstls/pkg/workspace"
)

type Handler struct {
	file     string
	withText bool

	fs  afero.Fs
	out io.Writer
}

func NewOutlineCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "outline [file]",
		Short: "print the section outline of a document as YAML",
	}

	cmd.Flags().BoolVar(&me.withText, "text", false, "include the text of each section")
	cmd.Args = cobra.ExactArgs(1)
	cmd.SilenceUsage = true

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.file = args[0]
		me.out = cmd.OutOrStdout()
		return me.Run(cmd.Context())
	}

	return cmd
}

// Section is the YAML form of one outline node.
type Section struct {
	Title    string    `yaml:"title"`
	Depth    int       `yaml:"depth"`
	Line     int       `yaml:"line"`
	Targets  []string  `yaml:"targets,omitempty"`
	Refs     []string  `yaml:"refs,omitempty"`
	SeeAlso  []string  `yaml:"seealso,omitempty"`
	Text     string    `yaml:"text,omitempty"`
	Sections []Section `yaml:"sections,omitempty"`
}

func (me *Handler) Run(ctx context.Context) error {
	path, err := filepath.Abs(me.file)
	if err != nil {
		return errors.Errorf("resolving %s: %w", me.file, err)
	}
	data, err := afero.ReadFile(me.fs, path)
	if err != nil {
		return errors.Errorf("reading %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	cfg, err := config.Load(me.fs, dir)
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}
	project, err := workspace.New(me.fs, dir, cfg).NewProject()
	if err != nil {
		return err
	}

	doc := document.New(workspace.URIFromPath(path), 0, string(data))
	sections := project.FindSections(ctx, doc)

	out := make([]Section, 0, len(sections))
	for _, sec := range sections {
		out = append(out, me.convert(sec))
	}

	enc := yaml.NewEncoder(me.out)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return errors.Errorf("encoding YAML: %w", err)
	}
	return enc.Close()
}

func (me *Handler) convert(sec entity.SectionEntity) Section {
	s := Section{
		Title:   sec.Name,
		Depth:   sec.Depth,
		Line:    sec.Location.Range.Start.Line + 1,
		Targets: names(sec.PreSectionTargets),
		Refs:    names(sec.InlineRefs),
	}
	for _, see := range sec.SeeAlsos {
		s.SeeAlso = append(s.SeeAlso, names(see.Refs)...)
	}
	if me.withText {
		s.Text = sec.Text
	}
	for _, sub := range sec.Subsections {
		s.Sections = append(s.Sections, me.convert(sub))
	}
	return s
}

func names(ents []entity.Entity) []string {
	if len(ents) == 0 {
		return nil
	}
	out := make([]string, len(ents))
	for i, e := range ents {
		out[i] = e.Name
	}
	return out
}

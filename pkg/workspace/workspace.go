// Package workspace discovers the documents of a project on disk and seeds
// an index with them.
package workspace

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/rstls/pkg/config"
	"github.com/walteh/rstls/pkg/diagnostic"
	"github.com/walteh/rstls/pkg/document"
	"github.com/walteh/rstls/pkg/index"
	"github.com/walteh/rstls/pkg/parser"
)

type Workspace struct {
	fs   afero.Fs
	root string
	cfg  *config.Config
	tabs *tabWidths
}

func New(fs afero.Fs, root string, cfg *config.Config) *Workspace {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Workspace{
		fs:   fs,
		root: filepath.Clean(root),
		cfg:  cfg,
		tabs: newTabWidths(fs),
	}
}

func (w *Workspace) Root() string { return w.root }

func (w *Workspace) Config() *config.Config { return w.cfg }

// NewProject builds an empty index whose parser honours the configured
// literal directives and cache size, and takes tab widths from
// .editorconfig files.
func (w *Workspace) NewProject() (*index.Project, error) {
	opts := w.cfg.ParserOptions()
	opts.TabWidth = w.TabWidth
	p, err := parser.New(opts)
	if err != nil {
		return nil, err
	}
	return index.NewProject(p), nil
}

// TabWidth returns the editorconfig tab width for the file behind uri.
func (w *Workspace) TabWidth(uri string) int {
	path, ok := PathFromURI(uri)
	if !ok {
		return defaultTabWidth
	}
	return w.tabs.lookup(path)
}

// Match reports whether rel, a slash separated path relative to a source
// dir, is selected by the include and exclude globs.
func (w *Workspace) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	included := false
	for _, pattern := range w.cfg.Include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, pattern := range w.cfg.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
	}
	return true
}

// Discover lists the documents under the configured source dirs, sorted and
// without duplicates. Missing source dirs are skipped.
func (w *Workspace) Discover(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, dir := range w.cfg.SourceDirs {
		base := filepath.Join(w.root, dir)
		ok, err := afero.DirExists(w.fs, base)
		if err != nil {
			return nil, errors.Errorf("checking source dir %s: %w", base, err)
		}
		if !ok {
			zerolog.Ctx(ctx).Warn().Str("dir", base).Msg("source dir does not exist")
			continue
		}

		err = afero.Walk(w.fs, base, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.Mode().IsRegular() {
				return nil
			}
			rel, err := filepath.Rel(base, path)
			if err != nil {
				return err
			}
			if !w.Match(rel) || seen[path] {
				return nil
			}
			seen[path] = true
			out = append(out, path)
			return nil
		})
		if err != nil {
			return nil, errors.Errorf("walking %s: %w", base, err)
		}
	}
	slices.Sort(out)
	return out, nil
}

// Report is the outcome of a workspace load.
type Report struct {
	// Diagnostics holds the final diagnostics of every loaded document,
	// keyed by URI. Documents without problems map to an empty slice.
	Diagnostics map[string][]diagnostic.Diagnostic
	// Skipped lists URIs that were already present in the project.
	Skipped []string
}

// Load reads every discovered document into project. All targets are added
// before any reference is resolved, so references across documents do not
// depend on load order. Unreadable files are reported together in the
// returned error; the rest of the workspace is still loaded.
func (w *Workspace) Load(ctx context.Context, project *index.Project) (*Report, error) {
	logger := zerolog.Ctx(ctx)

	paths, err := w.Discover(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{Diagnostics: map[string][]diagnostic.Diagnostic{}}
	var readErr error
	var docs []*document.Document

	for _, path := range paths {
		uri := URIFromPath(path)
		if _, ok := project.GetDocument(uri); ok {
			report.Skipped = append(report.Skipped, uri)
			continue
		}
		data, err := afero.ReadFile(w.fs, path)
		if err != nil {
			readErr = multierror.Append(readErr, errors.Errorf("reading %s: %w", path, err))
			continue
		}
		doc := document.New(uri, 0, string(data))
		project.AddDocument(ctx, doc)
		docs = append(docs, doc)
	}

	for _, doc := range docs {
		diags, err := project.UpdateDocument(ctx, doc)
		if err != nil {
			readErr = multierror.Append(readErr, err)
			continue
		}
		if diags == nil {
			diags = []diagnostic.Diagnostic{}
		}
		report.Diagnostics[doc.URI] = diags
	}

	logger.Info().
		Str("root", w.root).
		Int("documents", len(docs)).
		Int("skipped", len(report.Skipped)).
		Msg("workspace loaded")

	if readErr != nil {
		return report, errors.Errorf("loading workspace %s: %w", w.root, readErr)
	}
	return report, nil
}

// URIFromPath returns the file URI for an absolute path.
func URIFromPath(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

// PathFromURI returns the local path of a file URI.
func PathFromURI(uri string) (string, bool) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return "", false
	}
	return filepath.FromSlash(u.Path), true
}

// RootFromURI is PathFromURI for workspace folders, which clients may send
// with a trailing slash.
func RootFromURI(uri string) (string, bool) {
	path, ok := PathFromURI(uri)
	if !ok {
		return "", false
	}
	if trimmed := strings.TrimSuffix(path, string(filepath.Separator)); trimmed != "" {
		path = trimmed
	}
	return path, true
}

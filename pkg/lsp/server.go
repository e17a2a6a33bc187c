// Package lsp serves the index over the Language Server Protocol.
package lsp

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/rstls/pkg/config"
	"github.com/walteh/rstls/pkg/diagnostic"
	"github.com/walteh/rstls/pkg/index"
	"github.com/walteh/rstls/pkg/parser"
	"github.com/walteh/rstls/pkg/workspace"
)

const (
	Name = "rstls"

	methodPublishDiagnostics = "textDocument/publishDiagnostics"
	methodLogMessage         = "window/logMessage"
)

var ErrNotInitialized = errors.Base("server not initialized")

type Options struct {
	// Fs is the filesystem the workspace is read from.
	Fs afero.Fs
	// Config replaces the project config file when set. Initialization
	// options from the client still apply on top.
	Config  *config.Config
	Version string
	Debug   bool
	// Logs receives the server's own log output. When nil, logs go to the
	// logger already carried by the context passed to NewServer.
	Logs *LSPWriter
}

type Server struct {
	ctx     context.Context
	opts    Options
	handler protocol.Handler

	documents *DocumentManager

	mu        sync.Mutex
	cfg       *config.Config
	workspace *workspace.Workspace
	project   *index.Project
	related   bool
}

func NewServer(ctx context.Context, opts Options) *Server {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Logs != nil {
		ctx = ApplyLSPWriter(ctx, opts.Logs, zerolog.InfoLevel)
	}

	s := &Server{
		ctx:       ctx,
		opts:      opts,
		documents: NewDocumentManager(),
	}
	s.handler = protocol.Handler{
		Initialize:                 s.initialize,
		Initialized:                s.initialized,
		Shutdown:                   s.shutdown,
		SetTrace:                   s.setTrace,
		TextDocumentDidOpen:        s.textDocumentDidOpen,
		TextDocumentDidChange:      s.textDocumentDidChange,
		TextDocumentDidSave:        s.textDocumentDidSave,
		TextDocumentDidClose:       s.textDocumentDidClose,
		TextDocumentDeclaration:    s.textDocumentDeclaration,
		TextDocumentDefinition:     s.textDocumentDefinition,
		TextDocumentReferences:     s.textDocumentReferences,
		TextDocumentCompletion:     s.textDocumentCompletion,
		TextDocumentDocumentLink:   s.textDocumentDocumentLink,
		TextDocumentDocumentSymbol: s.textDocumentDocumentSymbol,
	}
	return s
}

// Handler exposes the protocol handler, mostly for tests.
func (s *Server) Handler() *protocol.Handler {
	return &s.handler
}

func (s *Server) Documents() *DocumentManager {
	return s.documents
}

// Project returns the index once the server is initialized.
func (s *Server) Project() (*index.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project, s.project != nil
}

// RunStdio serves until the client disconnects.
func (s *Server) RunStdio() error {
	srv := server.NewServer(&s.handler, Name, s.opts.Debug)
	if err := srv.RunStdio(); err != nil {
		return errors.Errorf("serving stdio: %w", err)
	}
	return nil
}

func (s *Server) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

func (s *Server) logger() *zerolog.Logger {
	return zerolog.Ctx(s.context())
}

func (s *Server) state() (*index.Project, *workspace.Workspace, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil {
		return nil, nil, false, ErrNotInitialized
	}
	return s.project, s.workspace, s.related, nil
}

// configure builds the index for root, which may be empty when the client
// did not send a workspace.
func (s *Server) configure(root string, initOptions any) error {
	cfg := s.opts.Config
	if cfg == nil {
		cfg = config.Default()
		if root != "" {
			loaded, err := config.Load(s.opts.Fs, root)
			if err != nil {
				return err
			}
			cfg = loaded
		}
	}
	cfg, err := cfg.Override(initOptions)
	if err != nil {
		return err
	}

	var ws *workspace.Workspace
	var project *index.Project
	if root != "" {
		ws = workspace.New(s.opts.Fs, root, cfg)
		project, err = ws.NewProject()
	} else {
		var p *parser.Parser
		p, err = parser.New(cfg.ParserOptions())
		if err == nil {
			project = index.NewProject(p)
		}
	}
	if err != nil {
		return errors.Errorf("creating index: %w", err)
	}

	ctx := s.context()
	if s.opts.Logs != nil {
		ctx = ApplyLSPWriter(ctx, s.opts.Logs, cfg.Level())
	}
	ctx = zerolog.Ctx(ctx).With().Str("project", project.ID()).Logger().WithContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = ctx
	s.cfg = cfg
	s.workspace = ws
	s.project = project
	return nil
}

// publish sends diags for uri. An empty list clears the client's markers.
func (s *Server) publish(notify glsp.NotifyFunc, uri string, diags []diagnostic.Diagnostic, related bool) {
	if notify == nil {
		return
	}
	notify(methodPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: fromDiagnostics(diags, related),
	})
}

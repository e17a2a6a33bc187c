package lsp

import (
	"sort"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/rstls/pkg/workspace"
)

func (s *Server) initialize(gctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	if s.opts.Logs != nil && gctx != nil {
		s.opts.Logs.Attach(gctx.Notify)
	}

	root := workspaceRoot(params)
	if err := s.configure(root, params.InitializationOptions); err != nil {
		return nil, errors.Errorf("initializing: %w", err)
	}

	s.mu.Lock()
	s.related = supportsRelatedInformation(params.Capabilities)
	s.mu.Unlock()

	s.logger().Info().Str("root", root).Msg("initialized")

	syncKind := protocol.TextDocumentSyncKindIncremental
	capabilities := s.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
		Save:      &protocol.SaveOptions{IncludeText: &protocol.True},
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"`"},
	}

	var version *string
	if s.opts.Version != "" {
		version = &s.opts.Version
	}
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    Name,
			Version: version,
		},
	}, nil
}

// initialized seeds the index from disk and publishes the diagnostics of
// every loaded document.
func (s *Server) initialized(gctx *glsp.Context, _ *protocol.InitializedParams) error {
	project, ws, related, err := s.state()
	if err != nil {
		return err
	}
	if ws == nil {
		return nil
	}

	report, err := ws.Load(s.context(), project)
	if err != nil {
		// unreadable files are logged, the rest of the workspace is usable
		s.logger().Error().Err(err).Msg("loading workspace")
	}
	if report == nil {
		return nil
	}

	uris := make([]string, 0, len(report.Diagnostics))
	for uri := range report.Diagnostics {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	for _, uri := range uris {
		if diags := report.Diagnostics[uri]; len(diags) > 0 {
			s.publish(notifier(gctx), uri, diags, related)
		}
	}
	return nil
}

func (s *Server) shutdown(_ *glsp.Context) error {
	s.logger().Info().Strs("open", s.documents.URIs()).Msg("shutting down")
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

// workspaceRoot picks the first workspace folder, then rootUri, then the
// deprecated rootPath.
func workspaceRoot(params *protocol.InitializeParams) string {
	for _, folder := range params.WorkspaceFolders {
		if root, ok := workspace.RootFromURI(folder.URI); ok {
			return root
		}
	}
	if params.RootURI != nil {
		if root, ok := workspace.RootFromURI(*params.RootURI); ok {
			return root
		}
	}
	if params.RootPath != nil {
		return *params.RootPath
	}
	return ""
}

func supportsRelatedInformation(caps protocol.ClientCapabilities) bool {
	td := caps.TextDocument
	if td == nil || td.PublishDiagnostics == nil || td.PublishDiagnostics.RelatedInformation == nil {
		return false
	}
	return *td.PublishDiagnostics.RelatedInformation
}

func notifier(gctx *glsp.Context) glsp.NotifyFunc {
	if gctx == nil {
		return nil
	}
	return gctx.Notify
}

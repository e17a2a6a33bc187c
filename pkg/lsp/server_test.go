package lsp_test

import (
	"context"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/walteh/rstls/pkg/lsp"
)

const (
	uriA = "file:///ws/a.rst"
	uriB = "file:///ws/b.rst"
)

type notification struct {
	method string
	params any
}

type recorder struct {
	mu    sync.Mutex
	notes []notification
}

func (r *recorder) notify(method string, params any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, notification{method: method, params: params})
}

// diagnostics returns the last diagnostics published for uri.
func (r *recorder) diagnostics(t *testing.T, uri string) []protocol.Diagnostic {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.notes) - 1; i >= 0; i-- {
		n := r.notes[i]
		if n.method != "textDocument/publishDiagnostics" {
			continue
		}
		p := n.params.(protocol.PublishDiagnosticsParams)
		if p.URI == uri {
			return p.Diagnostics
		}
	}
	t.Fatalf("no diagnostics published for %s", uri)
	return nil
}

func (r *recorder) published(uri string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notes {
		if p, ok := n.params.(protocol.PublishDiagnosticsParams); ok && p.URI == uri {
			return true
		}
	}
	return false
}

type harness struct {
	server *lsp.Server
	h      *protocol.Handler
	gctx   *glsp.Context
	rec    *recorder
	fs     afero.Fs
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/ws/a.rst": ".. _intro:\n\nIntro\n=====\n\nSee :ref:`details`.\n",
		"/ws/b.rst": ".. _details:\n\nDetails\n=======\n\nBack to :ref:`intro` and :ref:`missing`.\n",
	}
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}

	rec := &recorder{}
	server := lsp.NewServer(context.Background(), lsp.Options{Fs: fs, Version: "test"})
	return &harness{
		server: server,
		h:      server.Handler(),
		gctx:   &glsp.Context{Notify: rec.notify},
		rec:    rec,
		fs:     fs,
	}
}

func (h *harness) initialize(t *testing.T) {
	t.Helper()
	res, err := h.h.Initialize(h.gctx, &protocol.InitializeParams{
		WorkspaceFolders: []protocol.WorkspaceFolder{{URI: "file:///ws/", Name: "ws"}},
		Capabilities: protocol.ClientCapabilities{
			TextDocument: &protocol.TextDocumentClientCapabilities{
				PublishDiagnostics: &protocol.PublishDiagnosticsClientCapabilities{
					RelatedInformation: &protocol.True,
				},
			},
		},
	})
	require.NoError(t, err)

	result, ok := res.(protocol.InitializeResult)
	require.True(t, ok)
	require.NotNil(t, result.ServerInfo)
	assert.Equal(t, lsp.Name, result.ServerInfo.Name)
	require.NotNil(t, result.ServerInfo.Version)
	assert.Equal(t, "test", *result.ServerInfo.Version)
	require.NotNil(t, result.Capabilities.CompletionProvider)
	assert.Equal(t, []string{"`"}, result.Capabilities.CompletionProvider.TriggerCharacters)

	require.NoError(t, h.h.Initialized(h.gctx, &protocol.InitializedParams{}))
}

func (h *harness) open(t *testing.T, uri string, version int32, text string) {
	t.Helper()
	require.NoError(t, h.h.TextDocumentDidOpen(h.gctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: "restructuredtext", Version: version, Text: text},
	}))
}

func at(uri string, line, character int) protocol.TextDocumentPositionParams {
	return protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Position:     protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(character)},
	}
}

func TestRequestsBeforeInitialize(t *testing.T) {
	h := newHarness(t)
	_, err := h.h.TextDocumentReferences(h.gctx, &protocol.ReferenceParams{TextDocumentPositionParams: at(uriA, 0, 0)})
	require.ErrorIs(t, err, lsp.ErrNotInitialized)

	_, ok := h.server.Project()
	assert.False(t, ok)
}

func TestInitializedLoadsWorkspace(t *testing.T) {
	h := newHarness(t)
	h.initialize(t)

	project, ok := h.server.Project()
	require.True(t, ok)
	assert.Equal(t, 2, project.DocumentCount())

	diags := h.rec.diagnostics(t, uriB)
	require.Len(t, diags, 1)
	assert.Equal(t, "Unknown target: missing", diags[0].Message)
	require.NotNil(t, diags[0].Source)
	assert.Equal(t, "rstls", *diags[0].Source)
	assert.False(t, h.rec.published(uriA))
}

func TestDefinitionAndReferences(t *testing.T) {
	h := newHarness(t)
	h.initialize(t)

	res, err := h.h.TextDocumentDefinition(h.gctx, &protocol.DefinitionParams{TextDocumentPositionParams: at(uriA, 5, 8)})
	require.NoError(t, err)
	loc, ok := res.(protocol.Location)
	require.True(t, ok)
	assert.Equal(t, uriB, loc.URI)
	assert.Equal(t, protocol.Position{Line: 0, Character: 0}, loc.Range.Start)

	res, err = h.h.TextDocumentDeclaration(h.gctx, &protocol.DeclarationParams{TextDocumentPositionParams: at(uriA, 2, 0)})
	require.NoError(t, err)
	assert.Nil(t, res)

	refs, err := h.h.TextDocumentReferences(h.gctx, &protocol.ReferenceParams{TextDocumentPositionParams: at(uriA, 0, 4)})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, uriB, refs[0].URI)
}

func TestIncrementalChange(t *testing.T) {
	h := newHarness(t)
	h.initialize(t)

	h.open(t, uriA, 1, ".. _intro:\n\nSee :ref:`nope`.\n")
	diags := h.rec.diagnostics(t, uriA)
	require.Len(t, diags, 1)
	assert.Equal(t, "Unknown target: nope", diags[0].Message)
	assert.Equal(t, protocol.Position{Line: 2, Character: 4}, diags[0].Range.Start)

	err := h.h.TextDocumentDidChange(h.gctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uriA},
			Version:                2,
		},
		ContentChanges: []any{
			protocol.TextDocumentContentChangeEvent{
				Range: &protocol.Range{
					Start: protocol.Position{Line: 2, Character: 10},
					End:   protocol.Position{Line: 2, Character: 14},
				},
				Text: "intro",
			},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, h.rec.diagnostics(t, uriA))

	project, _ := h.server.Project()
	doc, ok := project.GetDocument(uriA)
	require.True(t, ok)
	assert.Equal(t, int32(2), doc.Version)
	assert.Equal(t, ".. _intro:\n\nSee :ref:`intro`.\n", doc.Text)

	open, ok := h.server.Documents().Get(uriA)
	require.True(t, ok)
	assert.Equal(t, int32(2), open.Version)

	err = h.h.TextDocumentDidChange(h.gctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uriA},
			Version:                3,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "no targets\n"}},
	})
	require.NoError(t, err)

	// b.rst still points at intro, which is gone now
	_, ok = project.GetDeclaration("intro")
	assert.False(t, ok)
}

func TestChangeUnknownDocument(t *testing.T) {
	h := newHarness(t)
	h.initialize(t)

	err := h.h.TextDocumentDidChange(h.gctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: "file:///ws/none.rst"},
			Version:                1,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "x"}},
	})
	require.Error(t, err)
}

func TestDuplicateCarriesRelatedInformation(t *testing.T) {
	h := newHarness(t)
	h.initialize(t)

	h.open(t, "file:///ws/c.rst", 1, ".. _intro:\n")
	diags := h.rec.diagnostics(t, "file:///ws/c.rst")
	require.Len(t, diags, 1)
	assert.Equal(t, "Duplicate target: intro", diags[0].Message)
	require.Len(t, diags[0].RelatedInformation, 1)
	assert.Equal(t, uriA, diags[0].RelatedInformation[0].Location.URI)
}

func TestCompletion(t *testing.T) {
	h := newHarness(t)
	h.initialize(t)
	h.open(t, uriA, 1, ".. _intro:\n\nSee :ref:`\n")

	res, err := h.h.TextDocumentCompletion(h.gctx, &protocol.CompletionParams{TextDocumentPositionParams: at(uriA, 2, 10)})
	require.NoError(t, err)
	items, ok := res.([]protocol.CompletionItem)
	require.True(t, ok)

	labels := make([]string, len(items))
	for i, item := range items {
		labels[i] = item.Label
		require.NotNil(t, item.Kind)
		assert.Equal(t, protocol.CompletionItemKindReference, *item.Kind)
	}
	assert.Equal(t, []string{"details", "intro"}, labels)

	res, err = h.h.TextDocumentCompletion(h.gctx, &protocol.CompletionParams{TextDocumentPositionParams: at(uriA, 2, 2)})
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestDocumentLinksAndSymbols(t *testing.T) {
	h := newHarness(t)
	h.initialize(t)

	links, err := h.h.TextDocumentDocumentLink(h.gctx, &protocol.DocumentLinkParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uriB},
	})
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.NotNil(t, links[0].Target)
	assert.Equal(t, uriA+"#1:0", *links[0].Target)

	res, err := h.h.TextDocumentDocumentSymbol(h.gctx, &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uriB},
	})
	require.NoError(t, err)
	symbols, ok := res.([]protocol.DocumentSymbol)
	require.True(t, ok)
	require.Len(t, symbols, 1)
	assert.Equal(t, "Details", symbols[0].Name)
	assert.Equal(t, protocol.SymbolKindNamespace, symbols[0].Kind)
}

func TestCloseRevertsToDisk(t *testing.T) {
	h := newHarness(t)
	h.initialize(t)

	h.open(t, uriA, 4, "Nothing here.\n")
	project, _ := h.server.Project()
	_, ok := project.GetDeclaration("intro")
	require.False(t, ok)

	require.NoError(t, h.h.TextDocumentDidClose(h.gctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uriA},
	}))

	_, ok = project.GetDeclaration("intro")
	assert.True(t, ok)
	_, ok = h.server.Documents().Get(uriA)
	assert.False(t, ok)
}

func TestCloseForgetsUnsavedDocuments(t *testing.T) {
	h := newHarness(t)
	h.initialize(t)

	const scratch = "untitled:Untitled-1"
	h.open(t, scratch, 1, ".. _scratch:\n")
	project, _ := h.server.Project()
	assert.Equal(t, 3, project.DocumentCount())

	require.NoError(t, h.h.TextDocumentDidClose(h.gctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: scratch},
	}))
	assert.Equal(t, 2, project.DocumentCount())
	assert.Empty(t, h.rec.diagnostics(t, scratch))
}

func TestSaveWithText(t *testing.T) {
	h := newHarness(t)
	h.initialize(t)

	text := ".. _saved:\n"
	require.NoError(t, h.h.TextDocumentDidSave(h.gctx, &protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uriA},
		Text:         &text,
	}))

	project, _ := h.server.Project()
	_, ok := project.GetDeclaration("saved")
	assert.True(t, ok)
}

func TestInitializationOptions(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, afero.WriteFile(h.fs, "/ws/docs/c.rst", []byte(".. _only:\n"), 0o644))

	_, err := h.h.Initialize(h.gctx, &protocol.InitializeParams{
		WorkspaceFolders:      []protocol.WorkspaceFolder{{URI: "file:///ws", Name: "ws"}},
		InitializationOptions: map[string]any{"source_dirs": []any{"docs"}},
	})
	require.NoError(t, err)
	require.NoError(t, h.h.Initialized(h.gctx, &protocol.InitializedParams{}))

	project, _ := h.server.Project()
	assert.Equal(t, 1, project.DocumentCount())

	_, err = lsp.NewServer(context.Background(), lsp.Options{Fs: h.fs}).Handler().Initialize(h.gctx, &protocol.InitializeParams{
		InitializationOptions: map[string]any{"bogus": true},
	})
	require.Error(t, err)
}

package lsp

import (
	"github.com/spf13/afero"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/rstls/pkg/diagnostic"
	"github.com/walteh/rstls/pkg/document"
	"github.com/walteh/rstls/pkg/index"
	"github.com/walteh/rstls/pkg/workspace"
)

// textDocumentDidOpen makes the client's text authoritative, replacing any
// copy loaded from disk regardless of its version.
func (s *Server) textDocumentDidOpen(gctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	project, _, related, err := s.state()
	if err != nil {
		return err
	}
	ctx := s.context()
	item := params.TextDocument

	s.documents.Store(&OpenDocument{URI: item.URI, LanguageID: item.LanguageID, Version: item.Version})

	project.RemoveDocument(ctx, item.URI)
	diags, err := project.UpdateDocument(ctx, document.New(item.URI, item.Version, item.Text))
	if err != nil {
		return errors.Errorf("opening %s: %w", item.URI, err)
	}
	s.publish(notifier(gctx), item.URI, diags, related)
	return nil
}

// textDocumentDidChange applies the changes in order; each range refers to
// the text produced by the previous change.
func (s *Server) textDocumentDidChange(gctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	project, _, related, err := s.state()
	if err != nil {
		return err
	}
	uri := params.TextDocument.URI
	version := params.TextDocument.Version

	doc, ok := project.GetDocument(uri)
	if !ok {
		return errors.Errorf("change for unknown document %s", uri)
	}

	for _, raw := range params.ContentChanges {
		switch change := raw.(type) {
		case protocol.TextDocumentContentChangeEvent:
			if change.Range == nil {
				doc = doc.ApplyChange(version, nil, change.Text)
				continue
			}
			r := toRange(*change.Range)
			doc = doc.ApplyChange(version, &r, change.Text)
		case protocol.TextDocumentContentChangeEventWhole:
			doc = doc.ApplyChange(version, nil, change.Text)
		default:
			return errors.Errorf("unexpected change event type %T", raw)
		}
	}

	s.documents.SetVersion(uri, version)
	return s.update(gctx, project, doc, related)
}

func (s *Server) textDocumentDidSave(gctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	if params.Text == nil {
		return nil
	}
	project, _, related, err := s.state()
	if err != nil {
		return err
	}
	uri := params.TextDocument.URI

	doc, ok := project.GetDocument(uri)
	if !ok {
		return errors.Errorf("save for unknown document %s", uri)
	}
	if doc.Text == *params.Text {
		return nil
	}
	return s.update(gctx, project, doc.ApplyChange(doc.Version, nil, *params.Text), related)
}

// textDocumentDidClose falls back to the file on disk when the document
// belongs to the workspace, and forgets it otherwise.
func (s *Server) textDocumentDidClose(gctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	project, ws, related, err := s.state()
	if err != nil {
		return err
	}
	ctx := s.context()
	uri := params.TextDocument.URI
	s.documents.Delete(uri)

	if ws != nil {
		if path, ok := workspace.PathFromURI(uri); ok {
			if data, err := afero.ReadFile(s.opts.Fs, path); err == nil {
				version := int32(0)
				if doc, ok := project.GetDocument(uri); ok {
					version = doc.Version
				}
				return s.update(gctx, project, document.New(uri, version, string(data)), related)
			}
		}
	}

	project.RemoveDocument(ctx, uri)
	s.publish(notifier(gctx), uri, []diagnostic.Diagnostic{}, related)
	return nil
}

func (s *Server) update(gctx *glsp.Context, project *index.Project, doc *document.Document, related bool) error {
	diags, err := project.UpdateDocument(s.context(), doc)
	if err != nil {
		return errors.Errorf("updating %s: %w", doc.URI, err)
	}
	s.publish(notifier(gctx), doc.URI, diags, related)
	return nil
}

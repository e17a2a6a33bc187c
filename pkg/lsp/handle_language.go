package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) textDocumentDeclaration(_ *glsp.Context, params *protocol.DeclarationParams) (any, error) {
	return s.declaration(params.TextDocument.URI, params.Position)
}

func (s *Server) textDocumentDefinition(_ *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	return s.declaration(params.TextDocument.URI, params.Position)
}

// declaration resolves the entity under the cursor to the location of its
// target. A nil result tells the client there is nothing to jump to.
func (s *Server) declaration(uri string, pos protocol.Position) (any, error) {
	project, _, _, err := s.state()
	if err != nil {
		return nil, err
	}
	loc, ok := project.DeclarationAt(uri, toPlace(pos))
	if !ok {
		return nil, nil
	}
	return fromLocation(loc), nil
}

func (s *Server) textDocumentReferences(_ *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	project, _, _, err := s.state()
	if err != nil {
		return nil, err
	}
	refs := project.ReferencesAt(params.TextDocument.URI, toPlace(params.Position))
	if refs == nil {
		return nil, nil
	}
	return fromLocations(refs), nil
}

// textDocumentCompletion offers every declared target inside an open
// :ref:` role.
func (s *Server) textDocumentCompletion(_ *glsp.Context, params *protocol.CompletionParams) (any, error) {
	project, _, _, err := s.state()
	if err != nil {
		return nil, err
	}
	decls, ok := project.Completions(params.TextDocument.URI, toPlace(params.Position))
	if !ok {
		return nil, nil
	}
	return completionItems(decls), nil
}

func (s *Server) textDocumentDocumentLink(_ *glsp.Context, params *protocol.DocumentLinkParams) ([]protocol.DocumentLink, error) {
	project, _, _, err := s.state()
	if err != nil {
		return nil, err
	}
	links := project.DocumentLinks(params.TextDocument.URI)
	out := make([]protocol.DocumentLink, len(links))
	for i, link := range links {
		target := link.Target
		out[i] = protocol.DocumentLink{
			Range:  fromRange(link.Range),
			Target: &target,
		}
	}
	return out, nil
}

func (s *Server) textDocumentDocumentSymbol(_ *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	project, _, _, err := s.state()
	if err != nil {
		return nil, err
	}
	doc, ok := project.GetDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	return documentSymbols(project.FindSections(s.context(), doc)), nil
}

package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/walteh/rstls/pkg/diagnostic"
	"github.com/walteh/rstls/pkg/entity"
	"github.com/walteh/rstls/pkg/position"
)

func toPlace(p protocol.Position) position.Place {
	return position.Place{Line: int(p.Line), Character: int(p.Character)}
}

func fromPlace(p position.Place) protocol.Position {
	return protocol.Position{Line: protocol.UInteger(p.Line), Character: protocol.UInteger(p.Character)}
}

func toRange(r protocol.Range) position.Range {
	return position.Range{Start: toPlace(r.Start), End: toPlace(r.End)}
}

func fromRange(r position.Range) protocol.Range {
	return protocol.Range{Start: fromPlace(r.Start), End: fromPlace(r.End)}
}

func fromLocation(l position.Location) protocol.Location {
	return protocol.Location{URI: l.URI, Range: fromRange(l.Range)}
}

func fromLocations(ls []position.Location) []protocol.Location {
	out := make([]protocol.Location, len(ls))
	for i, l := range ls {
		out[i] = fromLocation(l)
	}
	return out
}

// fromDiagnostics converts for publishing. related is false when the client
// did not announce support for related information.
func fromDiagnostics(diags []diagnostic.Diagnostic, related bool) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		severity := protocol.DiagnosticSeverity(d.Severity)
		source := d.Source
		pd := protocol.Diagnostic{
			Range:    fromRange(d.Range),
			Severity: &severity,
			Source:   &source,
			Message:  d.Message,
		}
		if related {
			for _, info := range d.RelatedInformation {
				pd.RelatedInformation = append(pd.RelatedInformation, protocol.DiagnosticRelatedInformation{
					Location: fromLocation(info.Location),
					Message:  info.Message,
				})
			}
		}
		out = append(out, pd)
	}
	return out
}

func completionItems(decls []entity.Entity) []protocol.CompletionItem {
	kind := protocol.CompletionItemKindReference
	items := make([]protocol.CompletionItem, len(decls))
	for i, decl := range decls {
		detail := decl.Location.String()
		items[i] = protocol.CompletionItem{
			Label:  decl.Name,
			Kind:   &kind,
			Detail: &detail,
		}
	}
	return items
}

func documentSymbols(sections []entity.SectionEntity) []protocol.DocumentSymbol {
	out := make([]protocol.DocumentSymbol, 0, len(sections))
	for _, sec := range sections {
		rng := fromRange(sec.Location.Range)
		name := sec.Name
		if name == "" {
			name = "(untitled)"
		}
		out = append(out, protocol.DocumentSymbol{
			Name:           name,
			Kind:           protocol.SymbolKindNamespace,
			Range:          rng,
			SelectionRange: rng,
			Children:       documentSymbols(sec.Subsections),
		})
	}
	return out
}

// Package index keeps the per-workspace tables of targets and references and
// answers lookups against them.
package index

import (
	"context"
	"sort"

	"github.com/walteh/rstls/pkg/diagnostic"
	"github.com/walteh/rstls/pkg/document"
	"github.com/walteh/rstls/pkg/entity"
	"github.com/walteh/rstls/pkg/parser"
)

// Entities is the collection of targets and references of a workspace. It
// is not safe for concurrent use; Project serializes access.
type Entities struct {
	parser *parser.Parser

	declarations map[string]entity.Entity
	references   map[string][]entity.Entity
	byDocument   map[string][]entity.Entity
}

func NewEntities(p *parser.Parser) *Entities {
	return &Entities{
		parser:       p,
		declarations: make(map[string]entity.Entity),
		references:   make(map[string][]entity.Entity),
		byDocument:   make(map[string][]entity.Entity),
	}
}

// AddDocumentTargets adds the targets of doc and returns the diagnostics of
// rejected ones.
func (e *Entities) AddDocumentTargets(ctx context.Context, doc *document.Document) []diagnostic.Diagnostic {
	return e.addAll(e.parser.FindTargets(ctx, doc))
}

// AddDocumentReferences adds the references of doc and returns the
// diagnostics of rejected ones.
func (e *Entities) AddDocumentReferences(ctx context.Context, doc *document.Document) []diagnostic.Diagnostic {
	return e.addAll(e.parser.FindReferences(ctx, doc))
}

func (e *Entities) addAll(entities []entity.Entity) []diagnostic.Diagnostic {
	var diags []diagnostic.Diagnostic
	for _, ent := range entities {
		if d := e.Add(ent); d != nil {
			diags = append(diags, *d)
		}
	}
	return diags
}

// Add stores ent or reports why it was rejected. A target whose name is
// already declared elsewhere is a duplicate; redeclaring it at the same
// location changes nothing. A reference is rejected unless its target is
// declared. Rejected entities are not stored.
func (e *Entities) Add(ent entity.Entity) *diagnostic.Diagnostic {
	switch ent.Kind {
	case entity.Target:
		if existing, ok := e.declarations[ent.Name]; ok {
			if existing.Location == ent.Location {
				return nil
			}
			d := diagnostic.DuplicateTarget(ent.Name, ent.Location.Range, existing.Location)
			return &d
		}
		e.declarations[ent.Name] = ent
	case entity.Ref:
		if _, ok := e.declarations[ent.Name]; !ok {
			d := diagnostic.UnknownTarget(ent.Name, ent.Location.Range)
			return &d
		}
		e.references[ent.Name] = append(e.references[ent.Name], ent)
	default:
		return nil
	}

	uri := ent.Location.URI
	e.byDocument[uri] = append(e.byDocument[uri], ent)
	return nil
}

// Remove deletes ent. A target is only deleted while the stored declaration
// is ent itself. For a reference every reference with the same name in the
// same document is removed. It reports whether anything was stored under
// the name.
func (e *Entities) Remove(ent entity.Entity) bool {
	switch ent.Kind {
	case entity.Target:
		existing, ok := e.declarations[ent.Name]
		if !ok || existing.Location != ent.Location {
			return false
		}
		delete(e.declarations, ent.Name)
		return true
	case entity.Ref:
		refs, ok := e.references[ent.Name]
		if !ok {
			return false
		}
		kept := refs[:0:0]
		for _, ref := range refs {
			if ref.Location.URI != ent.Location.URI {
				kept = append(kept, ref)
			}
		}
		if len(kept) == 0 {
			delete(e.references, ent.Name)
		} else {
			e.references[ent.Name] = kept
		}
		return true
	default:
		return false
	}
}

// OnDocumentRemoved retracts every entity found in uri. It reports whether
// the document had any entities.
func (e *Entities) OnDocumentRemoved(uri string) bool {
	previous, ok := e.byDocument[uri]
	for _, ent := range previous {
		e.Remove(ent)
	}
	delete(e.byDocument, uri)
	return ok
}

func (e *Entities) GetDeclaration(name string) (entity.Entity, bool) {
	ent, ok := e.declarations[name]
	return ent, ok
}

// GetReferences returns the references to name in insertion order.
func (e *Entities) GetReferences(name string) []entity.Entity {
	return clone(e.references[name])
}

// GetEntitiesInDocument returns the entities of uri in insertion order.
func (e *Entities) GetEntitiesInDocument(uri string) ([]entity.Entity, bool) {
	ents, ok := e.byDocument[uri]
	return clone(ents), ok
}

// Declarations returns every target sorted by name.
func (e *Entities) Declarations() []entity.Entity {
	out := make([]entity.Entity, 0, len(e.declarations))
	for _, ent := range e.declarations {
		out = append(out, ent)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Size is the number of declared names plus the number of referenced names.
func (e *Entities) Size() int {
	return len(e.declarations) + len(e.references)
}

func clone(ents []entity.Entity) []entity.Entity {
	if ents == nil {
		return nil
	}
	return append([]entity.Entity(nil), ents...)
}

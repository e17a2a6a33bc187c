package index

import (
	"fmt"
	"strings"

	"github.com/walteh/rstls/pkg/entity"
	"github.com/walteh/rstls/pkg/position"
)

// Link is a clickable range pointing at Target.
type Link struct {
	Range  position.Range
	Target string
}

// FindEntityAtPosition returns the first entity of uri, in insertion order,
// whose range contains place. Ranges are compared as offsets of the stored
// snapshot, end exclusive.
func (p *Project) FindEntityAtPosition(uri string, place position.Place) (entity.Entity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.entityAt(uri, place)
}

func (p *Project) entityAt(uri string, place position.Place) (entity.Entity, bool) {
	doc, ok := p.documents[uri]
	if !ok {
		return entity.Entity{}, false
	}
	ents, ok := p.entities.byDocument[uri]
	if !ok {
		return entity.Entity{}, false
	}

	offset := doc.OffsetAt(place)
	for _, ent := range ents {
		start := doc.OffsetAt(ent.Location.Range.Start)
		end := doc.OffsetAt(ent.Location.Range.End)
		if start <= offset && offset < end {
			return ent, true
		}
	}
	return entity.Entity{}, false
}

// DeclarationAt resolves the entity under place to the location of its
// target.
func (p *Project) DeclarationAt(uri string, place position.Place) (position.Location, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ent, ok := p.entityAt(uri, place)
	if !ok {
		return position.Location{}, false
	}
	decl, ok := p.entities.GetDeclaration(ent.Name)
	if !ok {
		return position.Location{}, false
	}
	return decl.Location, true
}

// ReferencesAt returns the locations of every reference to the entity
// under place.
func (p *Project) ReferencesAt(uri string, place position.Place) []position.Location {
	p.mu.Lock()
	defer p.mu.Unlock()

	ent, ok := p.entityAt(uri, place)
	if !ok {
		return nil
	}
	refs := p.entities.references[ent.Name]
	if len(refs) == 0 {
		return nil
	}
	out := make([]position.Location, 0, len(refs))
	for _, ref := range refs {
		out = append(out, ref.Location)
	}
	return out
}

// Completions offers every declaration when place is inside an unclosed
// :ref: role that starts on the current or the previous line.
func (p *Project) Completions(uri string, place position.Place) ([]entity.Entity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	doc, ok := p.documents[uri]
	if !ok {
		return nil, false
	}

	before := doc.GetText(&position.Range{
		Start: position.Place{Line: max(place.Line-1, 0)},
		End:   place,
	})
	open := strings.LastIndex(before, ":ref:`")
	if open < 0 || strings.Contains(before[open+len(":ref:`"):], "`") {
		return nil, false
	}
	return p.entities.Declarations(), true
}

// DocumentLinks links every reference of uri to its declaration as
// "<uri>#<line>:<character>", with a 1-based line.
func (p *Project) DocumentLinks(uri string) []Link {
	p.mu.Lock()
	defer p.mu.Unlock()

	var links []Link
	for _, ent := range p.entities.byDocument[uri] {
		if ent.Kind != entity.Ref {
			continue
		}
		decl, ok := p.entities.declarations[ent.Name]
		if !ok {
			continue
		}
		start := decl.Location.Range.Start
		links = append(links, Link{
			Range:  ent.Location.Range,
			Target: fmt.Sprintf("%s#%d:%d", decl.Location.URI, start.Line+1, start.Character),
		})
	}
	return links
}

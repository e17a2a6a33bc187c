package parser

import (
	"context"
	"regexp"
	"slices"
	"strings"

	"github.com/walteh/rstls/pkg/document"
	"github.com/walteh/rstls/pkg/entity"
	"github.com/walteh/rstls/pkg/invariant"
	"github.com/walteh/rstls/pkg/position"
	"github.com/walteh/rstls/pkg/rst"
	"github.com/walteh/rstls/pkg/walk"
)

var refLabelRe = regexp.MustCompile(`<([^>]*)>`)

// FindReferences parses doc and returns its :ref: roles.
func (p *Parser) FindReferences(ctx context.Context, doc *document.Document) []entity.Entity {
	return p.Parse(ctx, doc).References()
}

// FindTargets parses doc and returns its explicit targets.
func (p *Parser) FindTargets(ctx context.Context, doc *document.Document) []entity.Entity {
	return p.Parse(ctx, doc).Targets()
}

// FindSections parses doc and returns its top-level sections with their
// subsections.
func (p *Parser) FindSections(ctx context.Context, doc *document.Document) []entity.SectionEntity {
	return p.Parse(ctx, doc).Sections(ctx)
}

func isRef(n rst.Node) bool {
	it, ok := n.(*rst.InterpretedText)
	return ok && it.Role == "ref"
}

func (t *Tree) location(n rst.Node) position.Location {
	return position.Location{URI: t.URI, Range: position.FromNode(n.Pos())}
}

// References returns every :ref: role outside comments. The name is the
// part in angle brackets when present, otherwise the whole role text.
func (t *Tree) References() []entity.Entity {
	return t.refs(t.Root, walk.Not(isComment))
}

func (t *Tree) refs(root rst.Node, enter walk.Guard) []entity.Entity {
	nodes := walk.FindAll(root, isRef, enter)
	out := make([]entity.Entity, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, entity.Entity{
			Kind:     entity.Ref,
			Name:     refName(n),
			Location: t.location(n),
		})
	}
	return out
}

func refName(n rst.Node) string {
	parts := make([]string, 0, len(n.Children()))
	for _, child := range n.Children() {
		parts = append(parts, rst.TextContent(child))
	}
	text := strings.Join(parts, "\n")
	if m := refLabelRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return text
}

// Targets returns every recovered anchor outside comments.
func (t *Tree) Targets() []entity.Entity {
	nodes := walk.FindAll(t.Root, walk.OfType(rst.TypeTarget), walk.Not(isComment))
	out := make([]entity.Entity, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, entity.Entity{
			Kind:     entity.Target,
			Name:     n.(*rst.Target).Name,
			Location: t.location(n),
		})
	}
	return out
}

// Sections returns the outline of the document.
func (t *Tree) Sections(ctx context.Context) []entity.SectionEntity {
	return t.sections(ctx, t.Root)
}

// sections finds the sections directly below root, without entering nested
// sections, comments or seealso directives.
func (t *Tree) sections(ctx context.Context, root rst.Node) []entity.SectionEntity {
	isSection := func(n rst.Node) bool { return n != root && n.Type() == rst.TypeSection }
	nodes := walk.FindAll(root, isSection, func(n rst.Node) bool {
		return n == root || !(isComment(n) || isSeeAlso(n) || n.Type() == rst.TypeSection)
	})

	out := make([]entity.SectionEntity, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, t.section(ctx, n.(*rst.Section)))
	}
	return out
}

func (t *Tree) section(ctx context.Context, s *rst.Section) entity.SectionEntity {
	// own content only: never descend into other sections or comments
	own := func(skip ...rst.Type) walk.Guard {
		return func(n rst.Node) bool {
			if n == rst.Node(s) {
				return true
			}
			if isComment(n) || n.Type() == rst.TypeSection {
				return false
			}
			return !slices.Contains(skip, n.Type())
		}
	}

	name := ""
	if title := walk.FindFirst(s, walk.OfType(rst.TypeTitle), own()); title != nil {
		name = rst.TextContent(title)
	}

	var text strings.Builder
	for _, n := range walk.FindAll(s, walk.OfType(rst.TypeText), own(rst.TypeTitle)) {
		text.WriteString(n.(*rst.Text).Value)
	}

	notSeeAlso := func(n rst.Node) bool { return !isSeeAlso(n) }
	inline := own()

	var seeAlsos []entity.SeeAlsoEntity
	for _, n := range walk.FindAll(s, isSeeAlso, inline, notSeeAlso) {
		seeAlsos = append(seeAlsos, entity.SeeAlsoEntity{
			Entity: entity.Entity{Kind: entity.SeeAlso, Name: "seealso", Location: t.location(n)},
			Refs:   t.refs(n, walk.Not(isComment)),
		})
	}

	return entity.SectionEntity{
		Entity:            entity.Entity{Kind: entity.Section, Name: name, Location: t.location(s)},
		Depth:             s.Depth,
		Text:              text.String(),
		InlineRefs:        t.refs(s, func(n rst.Node) bool { return inline(n) && notSeeAlso(n) }),
		SeeAlsos:          seeAlsos,
		PreSectionTargets: t.preSectionTargets(ctx, s),
		Subsections:       t.sections(ctx, s),
	}
}

// preSectionTargets collects the run of targets right before s in document
// order. The engine attaches anchors that label a heading to the element
// before it.
func (t *Tree) preSectionTargets(ctx context.Context, s *rst.Section) []entity.Entity {
	idx, ok := t.IndexOf(s)
	if !invariant.Check(ctx, ok, "section at %s missing from document index", s.Pos().Start) {
		return nil
	}
	var out []entity.Entity
	for i := idx - 1; i >= 0; i-- {
		target, ok := t.Nodes[i].(*rst.Target)
		if !ok {
			break
		}
		out = append(out, entity.Entity{Kind: entity.Target, Name: target.Name, Location: t.location(target)})
	}
	slices.Reverse(out)
	return out
}

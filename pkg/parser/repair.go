package parser

import (
	"context"
	"regexp"
	"strings"

	"github.com/walteh/rstls/pkg/invariant"
	"github.com/walteh/rstls/pkg/rst"
	"github.com/walteh/rstls/pkg/walk"
)

var anchorRe = regexp.MustCompile(`^_([^:]+):\s*$`)

func isComment(n rst.Node) bool { return n.Type() == rst.TypeComment }

func isSeeAlso(n rst.Node) bool {
	d, ok := n.(*rst.Directive)
	return ok && d.Name == "seealso"
}

// anchorName reports whether c is an explicit anchor the engine represented
// as a comment: a single text child on the comment's own line.
func anchorName(c *rst.Comment) (string, bool) {
	children := c.Children()
	if len(children) != 1 {
		return "", false
	}
	text, ok := children[0].(*rst.Text)
	if !ok || text.Pos().Start.Line != c.Pos().Start.Line {
		return "", false
	}
	m := anchorRe.FindStringSubmatch(text.Value)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// recoverTargets replaces anchor comments with targets in place. Other
// comments are left untouched and not entered.
func recoverTargets(node rst.Node) {
	children := node.Children()
	for i, child := range children {
		if c, ok := child.(*rst.Comment); ok {
			if name, ok := anchorName(c); ok {
				children[i] = rst.NewTarget(name, c.Pos())
			}
			continue
		}
		recoverTargets(child)
	}
}

// expandDirectives replaces the verbatim body of every non-literal directive
// with the parsed body. source is the text root was parsed from.
func (p *Parser) expandDirectives(ctx context.Context, root rst.Node, source string, opts rst.Options) {
	directives := walk.FindAll(root, walk.OfType(rst.TypeDirective), walk.Not(isComment))
	for _, n := range directives {
		d := n.(*rst.Directive)
		if p.literal[d.Name] {
			continue
		}
		if !invariant.Check(ctx, allText(d), "directive %q at %s has non-text children before expansion", d.Name, d.Pos().Start) {
			continue
		}
		d.SetChildren(p.directiveBody(ctx, d, source, opts))
	}
}

func allText(d *rst.Directive) bool {
	for _, child := range d.Children() {
		if _, ok := child.(*rst.Text); !ok {
			return false
		}
	}
	return true
}

// directiveBody parses everything after the directive's header line. The
// body starts at a line start, so only lines and offsets need shifting;
// nested directives were already shifted into the body's coordinates by
// the recursive call.
func (p *Parser) directiveBody(ctx context.Context, d *rst.Directive, source string, opts rst.Options) []rst.Node {
	pos := d.Pos()
	if pos.Start.Offset < 0 || pos.End.Offset > len(source) || pos.Start.Offset > pos.End.Offset {
		invariant.Check(ctx, false, "directive %q spans %s-%s outside the source", d.Name, pos.Start, pos.End)
		return d.Children()
	}
	slice := source[pos.Start.Offset:pos.End.Offset]

	header := strings.IndexByte(slice, '\n')
	if header < 0 {
		return nil
	}
	headerLen := header + 1
	body := slice[headerLen:]

	children := unwrap(p.parse(ctx, body, opts).Children())

	lines := pos.Start.Line
	offset := pos.Start.Offset + headerLen
	for _, child := range children {
		walk.ForEach(child, func(n rst.Node, _ int) {
			n.SetPos(n.Pos().Shift(lines, offset))
		})
	}
	return children
}

// unwrap drops the block quote created by the body's indentation and a lone
// paragraph wrapper.
func unwrap(children []rst.Node) []rst.Node {
	if len(children) == 1 && children[0].Type() == rst.TypeBlockQuote {
		children = children[0].Children()
	}
	if len(children) == 1 && children[0].Type() == rst.TypeParagraph {
		children = children[0].Children()
	}
	return children
}

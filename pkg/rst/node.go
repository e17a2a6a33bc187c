// Package rst is a tolerant reStructuredText grammar engine.
//
// It turns a document into a tree of block and inline nodes with 1-based
// line/column positions. The engine never fails: unterminated or malformed
// constructs degrade to plain text. It deliberately keeps the layout of the
// classic JavaScript engines: explicit targets (".. _name:") come back as
// comments, directive bodies are kept as verbatim text and section headings
// own everything up to the next heading, including anchors meant for it.
package rst

import (
	"fmt"
	"strings"
)

// Point is a location in the source. Line and Column are 1-based, Column is
// counted in UTF-16 code units. Offset is the 0-based byte offset.
type Point struct {
	Line   int
	Column int
	Offset int
}

// Position spans from Start (inclusive) to End (exclusive).
type Position struct {
	Start Point
	End   Point
}

// Shift moves a position by whole lines and bytes.
func (p Position) Shift(lines, offset int) Position {
	p.Start.Line += lines
	p.Start.Offset += offset
	p.End.Line += lines
	p.End.Offset += offset
	return p
}

func (p Point) String() string {
	return fmt.Sprintf("%d:%d@%d", p.Line, p.Column, p.Offset)
}

// Type is the discriminant name of a node kind.
type Type string

const (
	TypeDocument        Type = "document"
	TypeSection         Type = "section"
	TypeTitle           Type = "title"
	TypeParagraph       Type = "paragraph"
	TypeText            Type = "text"
	TypeInterpretedText Type = "interpreted_text"
	TypeEmphasis        Type = "emphasis"
	TypeStrong          Type = "strong"
	TypeInlineLiteral   Type = "literal"
	TypeComment         Type = "comment"
	TypeDirective       Type = "directive"
	TypeTarget          Type = "target"
	TypeLiteralBlock    Type = "literal_block"
	TypeBlockQuote      Type = "block_quote"
	TypeBulletList      Type = "bullet_list"
	TypeListItem        Type = "list_item"
	TypeTransition      Type = "transition"
)

// Node is implemented by the closed set of node kinds in this package.
type Node interface {
	Type() Type
	Pos() Position
	SetPos(Position)
	Children() []Node
	SetChildren([]Node)
	node()
}

type base struct {
	pos      Position
	children []Node
}

func (b *base) Pos() Position { return b.pos }
func (b *base) SetPos(p Position) { b.pos = p }
func (b *base) Children() []Node { return b.children }
func (b *base) SetChildren(ch []Node) { b.children = ch }
func (b *base) node() {}
func (b *base) append(children ...Node) { b.children = append(b.children, children...) }

type Document struct{ base }

type Section struct {
	base
	Depth int
}

type Title struct{ base }

type Paragraph struct{ base }

type Text struct {
	base
	Value string
}

// InterpretedText is text in backquotes with an optional role, as in
// :ref:`label` or :doc:`path`.
type InterpretedText struct {
	base
	Role string
}

type Emphasis struct{ base }

type Strong struct{ base }

type InlineLiteral struct{ base }

type Comment struct{ base }

// Directive is an explicit markup block of the form ".. name:: argument".
// The engine keeps its body as verbatim text children.
type Directive struct {
	base
	Name     string
	Argument string
	// Indent is the width of the body indentation.
	Indent int
}

// Target is an explicit hyperlink target. The engine itself never produces
// one; it exists for callers that recover targets from comments.
type Target struct {
	base
	Name string
}

type LiteralBlock struct{ base }

type BlockQuote struct{ base }

type BulletList struct{ base }

type ListItem struct{ base }

type Transition struct{ base }

func (*Document) Type() Type { return TypeDocument }
func (*Section) Type() Type { return TypeSection }
func (*Title) Type() Type { return TypeTitle }
func (*Paragraph) Type() Type { return TypeParagraph }
func (*Text) Type() Type { return TypeText }
func (*InterpretedText) Type() Type { return TypeInterpretedText }
func (*Emphasis) Type() Type { return TypeEmphasis }
func (*Strong) Type() Type { return TypeStrong }
func (*InlineLiteral) Type() Type { return TypeInlineLiteral }
func (*Comment) Type() Type { return TypeComment }
func (*Directive) Type() Type { return TypeDirective }
func (*Target) Type() Type { return TypeTarget }
func (*LiteralBlock) Type() Type { return TypeLiteralBlock }
func (*BlockQuote) Type() Type { return TypeBlockQuote }
func (*BulletList) Type() Type { return TypeBulletList }
func (*ListItem) Type() Type { return TypeListItem }
func (*Transition) Type() Type { return TypeTransition }

// NewText returns a text leaf.
func NewText(value string, pos Position) *Text {
	t := &Text{Value: value}
	t.pos = pos
	return t
}

// NewTarget returns a childless target node.
func NewTarget(name string, pos Position) *Target {
	t := &Target{Name: name}
	t.pos = pos
	return t
}

// TextContent concatenates the values of all text leaves under n in
// document order.
func TextContent(n Node) string {
	if t, ok := n.(*Text); ok {
		return t.Value
	}
	var b strings.Builder
	writeText(&b, n)
	return b.String()
}

func writeText(b *strings.Builder, n Node) {
	if t, ok := n.(*Text); ok {
		b.WriteString(t.Value)
		return
	}
	for _, child := range n.Children() {
		writeText(b, child)
	}
}

// Kind reports the node kind by type switch. The second result is false for
// values that are not one of the kinds declared in this package.
func Kind(n Node) (Type, bool) {
	switch n.(type) {
	case *Document:
		return TypeDocument, true
	case *Section:
		return TypeSection, true
	case *Title:
		return TypeTitle, true
	case *Paragraph:
		return TypeParagraph, true
	case *Text:
		return TypeText, true
	case *InterpretedText:
		return TypeInterpretedText, true
	case *Emphasis:
		return TypeEmphasis, true
	case *Strong:
		return TypeStrong, true
	case *InlineLiteral:
		return TypeInlineLiteral, true
	case *Comment:
		return TypeComment, true
	case *Directive:
		return TypeDirective, true
	case *Target:
		return TypeTarget, true
	case *LiteralBlock:
		return TypeLiteralBlock, true
	case *BlockQuote:
		return TypeBlockQuote, true
	case *BulletList:
		return TypeBulletList, true
	case *ListItem:
		return TypeListItem, true
	case *Transition:
		return TypeTransition, true
	default:
		return "", false
	}
}

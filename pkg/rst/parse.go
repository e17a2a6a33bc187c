package rst

import (
	"regexp"
	"strings"

	"github.com/apparentlymart/go-textseg/v13/textseg"
)

// Options tune the engine.
type Options struct {
	// TabWidth is the tab stop distance used when measuring indentation.
	// Zero means 8.
	TabWidth int
}

const adornmentChars = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var (
	directiveRe = regexp.MustCompile(`^\.\.[ \t]+([^\s_\[|]\S*?)::(?:[ \t]+(.*?))?[ \t]*$`)
	bulletRe    = regexp.MustCompile(`^[-*+](?:[ \t]+|$)`)
)

// Parse builds the tree for text. It never fails.
func Parse(text string, opts Options) *Document {
	if opts.TabWidth <= 0 {
		opts.TabWidth = 8
	}
	p := &blockParser{tab: opts.TabWidth}
	spans := spansOf(splitLines(text))

	doc := &Document{}
	doc.pos = Position{
		Start: Point{Line: 1, Column: 1},
		End:   spans[len(spans)-1].end(),
	}
	p.nest(doc, p.blocks(spans, true))
	return doc
}

type adornment struct {
	char byte
	over bool
}

type blockParser struct {
	tab    int
	styles []adornment
}

// depth assigns heading levels in order of first appearance.
func (p *blockParser) depth(a adornment) int {
	for i, s := range p.styles {
		if s == a {
			return i + 1
		}
	}
	p.styles = append(p.styles, a)
	return len(p.styles)
}

// nest turns the flat heading list produced at the top level into
// sections. A section ends where the next heading of the same or a higher
// level starts.
func (p *blockParser) nest(doc *Document, blocks []Node) {
	var stack []*Section
	pop := func() {
		sec := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if ch := sec.children; len(ch) > 0 {
			sec.pos.End = ch[len(ch)-1].Pos().End
		}
	}
	add := func(n Node) {
		if len(stack) == 0 {
			doc.append(n)
			return
		}
		stack[len(stack)-1].append(n)
	}
	for _, n := range blocks {
		sec, ok := n.(*Section)
		if !ok {
			add(n)
			continue
		}
		for len(stack) > 0 && stack[len(stack)-1].Depth >= sec.Depth {
			pop()
		}
		add(sec)
		stack = append(stack, sec)
	}
	for len(stack) > 0 {
		pop()
	}
}

func (p *blockParser) blocks(spans []span, top bool) []Node {
	var out []Node
	literalNext := false
	for i := 0; i < len(spans); {
		s := spans[i]
		if s.blank() {
			i++
			continue
		}
		text := s.text()

		if s.indent(p.tab) > 0 {
			j := p.indented(spans, i)
			body := spans[i:j]
			inner := dedentAll(body, minIndent(body, p.tab), p.tab)
			if literalNext {
				out = append(out, literalBlock(body, inner))
			} else {
				q := &BlockQuote{}
				q.pos = Position{Start: inner[0].start(), End: body[len(body)-1].end()}
				q.children = p.blocks(inner, false)
				out = append(out, q)
			}
			literalNext = false
			i = j
			continue
		}
		literalNext = false

		if top {
			if sec, next, ok := p.heading(spans, i); ok {
				out = append(out, sec)
				i = next
				continue
			}
		}

		if trimmed := strings.TrimRight(text, " \t"); len(trimmed) >= 4 && isAdornment(trimmed) && (i+1 == len(spans) || spans[i+1].blank()) {
			t := &Transition{}
			t.pos = Position{Start: s.start(), End: s.end()}
			out = append(out, t)
			i++
			continue
		}

		if text == ".." || strings.HasPrefix(text, ".. ") || strings.HasPrefix(text, "..\t") {
			j := p.indented(spans, i+1)
			out = append(out, p.explicit(spans[i:j]))
			i = j
			continue
		}

		if bulletRe.MatchString(text) {
			list, next := p.bulletList(spans, i)
			out = append(out, list)
			i = next
			continue
		}

		para, next, literal := p.paragraph(spans, i)
		if para != nil {
			out = append(out, para)
		}
		literalNext = literal
		i = next
	}
	return out
}

// indented returns the end of the run of indented or blank lines starting
// at from, with trailing blank lines left out.
func (p *blockParser) indented(spans []span, from int) int {
	last := from
	for j := from; j < len(spans); j++ {
		if spans[j].blank() {
			continue
		}
		if spans[j].indent(p.tab) == 0 {
			break
		}
		last = j + 1
	}
	return last
}

func (p *blockParser) heading(spans []span, i int) (*Section, int, bool) {
	s := spans[i]
	text := strings.TrimRight(s.text(), " \t")

	if isAdornment(text) && i+2 < len(spans) {
		title := spans[i+1]
		under := strings.TrimRight(spans[i+2].text(), " \t")
		if !title.blank() && under == text && graphemes(strings.TrimSpace(title.text())) <= len(text) {
			return p.section(adornment{char: text[0], over: true}, title, s, spans[i+2]), i + 3, true
		}
		return nil, i, false
	}

	if i+1 < len(spans) && !isAdornment(text) {
		under := strings.TrimRight(spans[i+1].text(), " \t")
		if isAdornment(under) && graphemes(text) <= len(under) {
			return p.section(adornment{char: under[0]}, s, s, spans[i+1]), i + 2, true
		}
	}
	return nil, i, false
}

func (p *blockParser) section(style adornment, title, first, last span) *Section {
	raw := title.text()
	lead := len(raw) - len(strings.TrimLeft(raw, " \t"))
	value := strings.TrimSpace(raw)

	t := &Title{}
	t.pos = Position{Start: title.point(lead), End: title.point(lead + len(value))}
	t.children = parseInline(value, func(o int) Point { return title.point(lead + o) })

	sec := &Section{Depth: p.depth(style)}
	sec.pos = Position{Start: first.start(), End: last.end()}
	sec.children = []Node{t}
	return sec
}

// explicit handles a ".." block: a directive when the first line has the
// "name::" form, a comment otherwise.
func (p *blockParser) explicit(block []span) Node {
	head := block[0]
	body := block[1:]
	pos := Position{Start: head.start(), End: block[len(block)-1].end()}
	width := minIndent(body, p.tab)
	inner := dedentAll(body, width, p.tab)

	if m := directiveRe.FindStringSubmatch(head.text()); m != nil {
		d := &Directive{Name: m[1], Argument: m[2], Indent: width}
		d.pos = pos
		for _, para := range paragraphs(inner) {
			d.append(verbatim(para))
		}
		return d
	}

	c := &Comment{}
	c.pos = pos
	text := head.text()
	rest := strings.TrimLeft(text[2:], " \t")
	if v := strings.TrimRight(rest, " \t"); v != "" {
		col := len(text) - len(rest)
		c.append(NewText(v, Position{Start: head.point(col), End: head.point(col + len(v))}))
	}
	for _, s := range inner {
		if s.blank() {
			continue
		}
		v := strings.TrimRight(s.text(), " \t")
		c.append(NewText(v, Position{Start: s.start(), End: s.point(len(v))}))
	}
	return c
}

func (p *blockParser) bulletList(spans []span, i int) (*BulletList, int) {
	list := &BulletList{}
	marker := spans[i].text()[0]
	list.pos.Start = spans[i].start()
	for {
		s := spans[i]
		width := len(bulletRe.FindString(s.text()))
		j := p.indented(spans, i+1)

		lines := append([]span{{l: s.l, cut: s.cut + width}}, dedentAll(spans[i+1:j], width, p.tab)...)
		item := &ListItem{}
		item.pos = Position{Start: s.start(), End: spans[j-1].end()}
		item.children = p.blocks(lines, false)
		list.append(item)
		list.pos.End = item.pos.End
		i = j

		k := i
		for k < len(spans) && spans[k].blank() {
			k++
		}
		if k == len(spans) {
			return list, i
		}
		next := spans[k].text()
		if next[0] != marker || !bulletRe.MatchString(next) || spans[k].indent(p.tab) > 0 {
			return list, i
		}
		i = k
	}
}

// paragraph collects consecutive unindented lines. The third result reports
// whether the paragraph ended with "::", which turns the next indented block
// into a literal block.
func (p *blockParser) paragraph(spans []span, i int) (Node, int, bool) {
	j := i
	for j < len(spans) && !spans[j].blank() && spans[j].indent(p.tab) == 0 {
		j++
	}
	lines := spans[i:j]

	var b strings.Builder
	starts := make([]int, len(lines))
	for k, s := range lines {
		starts[k] = b.Len()
		b.WriteString(s.text())
		if k < len(lines)-1 || s.l.nl > 0 {
			b.WriteByte('\n')
		}
	}
	content := b.String()

	literal := false
	if trimmed := strings.TrimRight(content, " \t\n"); strings.HasSuffix(trimmed, "::") {
		literal = true
		if trimmed == "::" {
			return nil, j, true
		}
		head := trimmed[:len(trimmed)-1]
		if c := trimmed[len(trimmed)-3]; c == ' ' || c == '\t' {
			head = strings.TrimRight(trimmed[:len(trimmed)-2], " \t")
		}
		content = head + content[len(trimmed):]
	}

	at := func(o int) Point {
		k := len(starts) - 1
		for k > 0 && starts[k] > o {
			k--
		}
		col := o - starts[k]
		if col > len(lines[k].text()) {
			return lines[k].end()
		}
		return lines[k].point(col)
	}

	para := &Paragraph{}
	para.pos = Position{Start: lines[0].start(), End: lines[len(lines)-1].end()}
	para.children = parseInline(content, at)
	return para, j, literal
}

func literalBlock(body, inner []span) *LiteralBlock {
	lit := &LiteralBlock{}
	lit.pos = Position{Start: inner[0].start(), End: body[len(body)-1].end()}
	lit.append(verbatim(inner))
	return lit
}

// verbatim joins lines into one text leaf without a trailing newline.
func verbatim(lines []span) *Text {
	values := make([]string, len(lines))
	for k, s := range lines {
		values[k] = s.text()
	}
	last := lines[len(lines)-1]
	return NewText(strings.Join(values, "\n"), Position{
		Start: lines[0].start(),
		End:   last.point(len(last.text())),
	})
}

// paragraphs splits lines into runs separated by blank lines.
func paragraphs(lines []span) [][]span {
	var out [][]span
	start := -1
	for k, s := range lines {
		switch {
		case s.blank() && start >= 0:
			out = append(out, lines[start:k])
			start = -1
		case !s.blank() && start < 0:
			start = k
		}
	}
	if start >= 0 {
		out = append(out, lines[start:])
	}
	return out
}

func isAdornment(text string) bool {
	if text == "" || strings.IndexByte(adornmentChars, text[0]) < 0 {
		return false
	}
	for k := 1; k < len(text); k++ {
		if text[k] != text[0] {
			return false
		}
	}
	return true
}

func graphemes(text string) int {
	n, err := textseg.TokenCount([]byte(text), textseg.ScanGraphemeClusters)
	if err != nil {
		return len(text)
	}
	return n
}

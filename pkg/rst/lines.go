package rst

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

type line struct {
	no   int
	off  int
	text string
	// nl is the length of the line terminator: 0, 1 ("\n") or 2 ("\r\n").
	nl int
}

// span is a view on a source line with a prefix removed by dedenting.
type span struct {
	l   *line
	cut int
}

func splitLines(text string) []*line {
	var lines []*line
	off := 0
	for no := 1; off < len(text) || no == 1; no++ {
		end := strings.IndexByte(text[off:], '\n')
		l := &line{no: no, off: off}
		if end < 0 {
			l.text = text[off:]
			lines = append(lines, l)
			break
		}
		l.text = text[off : off+end]
		l.nl = 1
		if strings.HasSuffix(l.text, "\r") {
			l.text = l.text[:len(l.text)-1]
			l.nl = 2
		}
		lines = append(lines, l)
		off += end + 1
	}
	return lines
}

func spansOf(lines []*line) []span {
	spans := make([]span, len(lines))
	for i, l := range lines {
		spans[i] = span{l: l}
	}
	return spans
}

func (s span) text() string { return s.l.text[s.cut:] }

func (s span) blank() bool { return strings.TrimSpace(s.text()) == "" }

// indent is the visual indentation of the remaining text.
func (s span) indent(tab int) int {
	width := 0
	for _, r := range s.text() {
		switch r {
		case ' ':
			width++
		case '\t':
			width += tab - width%tab
		default:
			return width
		}
	}
	return width
}

// dedent drops up to width visual columns of leading whitespace.
func (s span) dedent(width, tab int) span {
	col := 0
	text := s.text()
	i := 0
	for i < len(text) && col < width {
		switch text[i] {
		case ' ':
			col++
		case '\t':
			next := col + tab - col%tab
			if next > width {
				return span{l: s.l, cut: s.cut + i}
			}
			col = next
		default:
			return span{l: s.l, cut: s.cut + i}
		}
		i++
	}
	return span{l: s.l, cut: s.cut + i}
}

// point converts a byte index into s.text() into a source point.
func (s span) point(col int) Point {
	abs := s.cut + col
	if abs > len(s.l.text) {
		abs = len(s.l.text)
	}
	return Point{
		Line:   s.l.no,
		Column: utf16Len(s.l.text[:abs]) + 1,
		Offset: s.l.off + abs,
	}
}

func (s span) start() Point { return s.point(0) }

// end is the point just past the line terminator, or the end of the line
// when the line is the last one in the source.
func (s span) end() Point {
	if s.l.nl == 0 {
		return s.point(len(s.text()))
	}
	return Point{Line: s.l.no + 1, Column: 1, Offset: s.l.off + len(s.l.text) + s.l.nl}
}

func utf16Len(s string) int {
	n := 0
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		n += utf16.RuneLen(r)
	}
	return n
}

func trimTrailingBlank(spans []span) []span {
	for len(spans) > 0 && spans[len(spans)-1].blank() {
		spans = spans[:len(spans)-1]
	}
	return spans
}

func minIndent(spans []span, tab int) int {
	min := -1
	for _, s := range spans {
		if s.blank() {
			continue
		}
		if ind := s.indent(tab); min < 0 || ind < min {
			min = ind
		}
	}
	if min < 0 {
		return 0
	}
	return min
}

func dedentAll(spans []span, width, tab int) []span {
	out := make([]span, len(spans))
	for i, s := range spans {
		out[i] = s.dedent(width, tab)
	}
	return out
}

// Package document holds immutable text snapshots of workspace files and the
// offset arithmetic editors expect: lines are split on "\n" and characters
// are counted in UTF-16 code units.
package document

import (
	"sort"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/walteh/rstls/pkg/position"
)

// Document is a versioned snapshot of a file's content.
type Document struct {
	URI     string
	Version int32
	Text    string

	lines []int
}

func New(uri string, version int32, text string) *Document {
	d := &Document{URI: uri, Version: version, Text: text}
	d.lines = lineStarts(text)
	return d
}

func lineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// LineCount is the number of lines, the last one possibly empty.
func (d *Document) LineCount() int {
	return len(d.lines)
}

// GetText returns the text within r, or the whole text when r is nil.
func (d *Document) GetText(r *position.Range) string {
	if r == nil {
		return d.Text
	}
	start, end := d.OffsetAt(r.Start), d.OffsetAt(r.End)
	if end < start {
		return ""
	}
	return d.Text[start:end]
}

// OffsetAt converts a place into a byte offset. Places past the end of a
// line are clamped to the line end, places past the last line to the end of
// the text.
func (d *Document) OffsetAt(p position.Place) int {
	if p.Line < 0 {
		return 0
	}
	if p.Line >= len(d.lines) {
		return len(d.Text)
	}
	start := d.lines[p.Line]
	end := d.lineEnd(p.Line)

	off := start
	for units := 0; units < p.Character && off < end; {
		r, size := utf8.DecodeRuneInString(d.Text[off:end])
		units += utf16.RuneLen(r)
		off += size
	}
	return off
}

// PositionAt converts a byte offset into a place, clamping the offset into
// the text.
func (d *Document) PositionAt(offset int) position.Place {
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.Text) {
		offset = len(d.Text)
	}
	line := sort.Search(len(d.lines), func(i int) bool { return d.lines[i] > offset }) - 1
	return position.Place{Line: line, Character: utf16Len(d.Text[d.lines[line]:offset])}
}

// ApplyChange returns a new snapshot at version with the text in r replaced.
// A nil range replaces the whole text.
func (d *Document) ApplyChange(version int32, r *position.Range, text string) *Document {
	if r == nil {
		return New(d.URI, version, text)
	}
	start, end := d.OffsetAt(r.Start), d.OffsetAt(r.End)
	if end < start {
		start, end = end, start
	}
	return New(d.URI, version, d.Text[:start]+text+d.Text[end:])
}

// lineEnd is the offset of the line terminator of line, or the end of the
// text on the last line.
func (d *Document) lineEnd(line int) int {
	if line+1 >= len(d.lines) {
		return len(d.Text)
	}
	end := d.lines[line+1] - 1
	if end > d.lines[line] && d.Text[end-1] == '\r' {
		end--
	}
	return end
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

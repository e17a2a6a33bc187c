// Package position holds the editor-facing coordinate model: 0-based lines
// and characters, half-open ranges and document locations.
package position

import (
	"fmt"

	"github.com/walteh/rstls/pkg/rst"
)

// Place is a 0-based line and character. Characters are UTF-16 code units.
type Place struct {
	Line      int
	Character int
}

// Range covers Start up to, but not including, End.
type Range struct {
	Start Place
	End   Place
}

// Location is a range inside the document identified by URI.
type Location struct {
	URI   string
	Range Range
}

// FromNode converts a grammar engine position, which is 1-based, into a
// range.
func FromNode(pos rst.Position) Range {
	return Range{
		Start: Place{Line: pos.Start.Line - 1, Character: pos.Start.Column - 1},
		End:   Place{Line: pos.End.Line - 1, Character: pos.End.Column - 1},
	}
}

// Before reports whether p sorts strictly before other.
func (p Place) Before(other Place) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Character < other.Character
}

// Contains reports whether p lies within r, treating the end as exclusive.
func (r Range) Contains(p Place) bool {
	return !p.Before(r.Start) && p.Before(r.End)
}

func (p Place) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Character)
}

func (r Range) String() string {
	return fmt.Sprintf("%s-%s", r.Start, r.End)
}

func (l Location) String() string {
	return fmt.Sprintf("%s#%s", l.URI, l.Range)
}

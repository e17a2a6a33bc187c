// Package entity defines the named things the index tracks: targets
// (declarations), refs (cross-references) and the derived section outline.
package entity

import (
	"fmt"

	"github.com/walteh/rstls/pkg/position"
)

type Kind int

const (
	Target Kind = iota + 1
	Ref
	Section
	SeeAlso
)

func (k Kind) String() string {
	switch k {
	case Target:
		return "target"
	case Ref:
		return "ref"
	case Section:
		return "section"
	case SeeAlso:
		return "seealso"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Entity is a named occurrence at a location. Two entities with the same
// kind, name and location are the same entity.
type Entity struct {
	Kind     Kind
	Name     string
	Location position.Location
}

func (e Entity) String() string {
	return fmt.Sprintf("%s %q at %s", e.Kind, e.Name, e.Location)
}

// SeeAlsoEntity is a seealso directive. Its refs are not counted as inline
// refs of the enclosing section.
type SeeAlsoEntity struct {
	Entity
	Refs []Entity
}

// SectionEntity is one node of a document outline. It is computed on demand
// and never stored in the index.
type SectionEntity struct {
	Entity
	Depth int
	// Text is all text of the section outside comments, titles and nested
	// sections.
	Text              string
	InlineRefs        []Entity
	SeeAlsos          []SeeAlsoEntity
	PreSectionTargets []Entity
	Subsections       []SectionEntity
}

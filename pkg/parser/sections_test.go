package parser_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/rstls/pkg/entity"
	"github.com/walteh/rstls/pkg/parser"
)

func names(entities []entity.Entity) []string {
	var out []string
	for _, e := range entities {
		out = append(out, e.Name)
	}
	return out
}

func TestFindSections(t *testing.T) {
	ctx := context.Background()
	p := newParser(t, parser.Options{})

	sections := p.FindSections(ctx, doc("This document has one section\n\n==============\nIt's a Section\n==============\n\nThis is the section text.\n"))

	require.Len(t, sections, 1)
	assert.Equal(t, 1, sections[0].Depth)
	assert.Equal(t, "It's a Section", sections[0].Name)
	assert.Equal(t, entity.Section, sections[0].Kind)
	assert.Equal(t, "This is the section text.\n", sections[0].Text)
}

func TestFindSubsections(t *testing.T) {
	ctx := context.Background()
	p := newParser(t, parser.Options{})

	sections := p.FindSections(ctx, doc(`This document has one section with a subsection

==============
It's a Section
==============

This is the section text.

Subsection
----------

This is the subsection text.

.. code-block::
   
   Directives will be included.


.. 
   Ignore this comment

And here's some more text.

.. _another-subsection:

Another Subsection
------------------

This is the other subsection text.

`))

	require.Len(t, sections, 1)
	section := sections[0]
	assert.Equal(t, "This is the section text.\n", section.Text)

	require.Len(t, section.Subsections, 2)
	first, second := section.Subsections[0], section.Subsections[1]
	assert.Equal(t, 2, first.Depth)
	assert.Equal(t, "Subsection", first.Name)
	assert.Equal(t, "This is the subsection text.\nDirectives will be included.And here's some more text.\n", first.Text)
	assert.Empty(t, first.InlineRefs)

	assert.Equal(t, 2, second.Depth)
	assert.Equal(t, "Another Subsection", second.Name)
	assert.Empty(t, second.Subsections)
	assert.Equal(t, "This is the other subsection text.\n", second.Text)
	assert.Equal(t, []string{"another-subsection"}, names(second.PreSectionTargets))
}

func TestFindSectionsExcludesSeeAlsoRefs(t *testing.T) {
	ctx := context.Background()
	p := newParser(t, parser.Options{})

	sections := p.FindSections(ctx, doc("\n==============\nIt's a Section\n==============\n\n" +
		"Here's a :ref:`link <to-something>`.\n\n" +
		"Subsection\n----------\n\n" +
		"Here's another :ref:`link <to-something-else>`.\n\n" +
		".. seealso::\n\n" +
		"   Please :ref:`don't include this <link>`\n"))

	require.Len(t, sections, 1)
	section := sections[0]
	assert.Equal(t, "Here's a link <to-something>.\n", section.Text)
	assert.Equal(t, []string{"to-something"}, names(section.InlineRefs))

	require.Len(t, section.Subsections, 1)
	sub := section.Subsections[0]
	assert.Equal(t, []string{"to-something-else"}, names(sub.InlineRefs))
	require.Len(t, sub.SeeAlsos, 1)
	assert.Equal(t, entity.SeeAlso, sub.SeeAlsos[0].Kind)
	assert.Equal(t, "seealso", sub.SeeAlsos[0].Name)
	assert.Equal(t, []string{"link"}, names(sub.SeeAlsos[0].Refs))
	assert.Empty(t, sub.PreSectionTargets)
}

func TestFindSectionsPreSectionTargets(t *testing.T) {
	ctx := context.Background()
	p := newParser(t, parser.Options{})

	sections := p.FindSections(ctx, doc(`.. _first-target:

Section
=======

.. _alias1:
.. _alias2:

Subsection
----------

.. seealso::

   Why doesn't this work :ref:`+"`don't include this <link>`"+`

.. _another-target:

Section 2
=========

Text

.. _alias:

.. this is a comment

.. _target:

Section 3
=========

Text
`))

	require.Len(t, sections, 3)
	assert.Equal(t, []string{"first-target"}, names(sections[0].PreSectionTargets))
	require.Len(t, sections[0].Subsections, 1)
	assert.Equal(t, []string{"alias1", "alias2"}, names(sections[0].Subsections[0].PreSectionTargets))
	assert.Equal(t, []string{"another-target"}, names(sections[1].PreSectionTargets))
	// a comment between anchors ends the run
	assert.Equal(t, []string{"target"}, names(sections[2].PreSectionTargets))
}

func TestSectionAnchorAttribution(t *testing.T) {
	ctx := context.Background()
	p := newParser(t, parser.Options{})

	sections := p.FindSections(ctx, doc(".. _t:\n\nTitle\n=====\n\nBody\n"))

	require.Len(t, sections, 1)
	assert.Equal(t, "Title", sections[0].Name)
	assert.Equal(t, []string{"t"}, names(sections[0].PreSectionTargets))
	assert.Contains(t, sections[0].Text, "Body\n")
}

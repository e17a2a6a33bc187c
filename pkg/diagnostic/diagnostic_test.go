package diagnostic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/rstls/pkg/diagnostic"
	"github.com/walteh/rstls/pkg/position"
)

func TestDuplicateTarget(t *testing.T) {
	first := position.Location{
		URI:   "file:///a.rst",
		Range: position.Range{Start: position.Place{Line: 0, Character: 3}, End: position.Place{Line: 0, Character: 6}},
	}
	at := position.Range{Start: position.Place{Line: 4, Character: 3}, End: position.Place{Line: 4, Character: 6}}

	d := diagnostic.DuplicateTarget("foo", at, first)

	assert.Equal(t, diagnostic.SeverityError, d.Severity)
	assert.Equal(t, "Duplicate target: foo", d.Message)
	assert.Equal(t, at, d.Range)
	assert.Equal(t, diagnostic.Source, d.Source)
	require.Len(t, d.RelatedInformation, 1)
	assert.Equal(t, first, d.RelatedInformation[0].Location)
	assert.Equal(t, "First declared here", d.RelatedInformation[0].Message)
}

func TestUnknownTarget(t *testing.T) {
	d := diagnostic.UnknownTarget("missing", position.Range{Start: position.Place{Line: 2, Character: 0}})

	assert.Equal(t, "Unknown target: missing", d.Message)
	assert.Empty(t, d.RelatedInformation)
	assert.Equal(t, "docs/a.rst:3:1: error: Unknown target: missing", d.Format("docs/a.rst"))
}

func TestHasErrors(t *testing.T) {
	assert.False(t, diagnostic.HasErrors(nil))
	assert.False(t, diagnostic.HasErrors([]diagnostic.Diagnostic{{Severity: diagnostic.SeverityHint}}))
	assert.True(t, diagnostic.HasErrors([]diagnostic.Diagnostic{
		{Severity: diagnostic.SeverityWarning},
		{Severity: diagnostic.SeverityError},
	}))
}

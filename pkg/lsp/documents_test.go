package lsp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/rstls/pkg/lsp"
)

func TestDocumentManager(t *testing.T) {
	m := lsp.NewDocumentManager()
	m.Store(&lsp.OpenDocument{URI: "file:///b.rst", LanguageID: "restructuredtext", Version: 1})
	m.Store(&lsp.OpenDocument{URI: "file:///a.rst", LanguageID: "restructuredtext", Version: 1})

	assert.Equal(t, []string{"file:///a.rst", "file:///b.rst"}, m.URIs())

	m.SetVersion("file:///a.rst", 5)
	doc, ok := m.Get("file:///a.rst")
	require.True(t, ok)
	assert.Equal(t, int32(5), doc.Version)
	assert.Equal(t, "restructuredtext", doc.LanguageID)

	// unknown documents are not created by a version bump
	m.SetVersion("file:///c.rst", 2)
	_, ok = m.Get("file:///c.rst")
	assert.False(t, ok)

	assert.True(t, m.Delete("file:///a.rst"))
	assert.False(t, m.Delete("file:///a.rst"))
	assert.Equal(t, []string{"file:///b.rst"}, m.URIs())
}

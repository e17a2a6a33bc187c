// Package parser turns documents into repaired, indexed grammar trees and
// extracts targets, references and section outlines from them.
//
// The grammar engine leaves two gaps that are fixed here before any query
// runs: explicit anchors come back as comments, and directive bodies are
// kept as verbatim text. Trees are cached per URI and keyed by version.
package parser

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/rstls/pkg/document"
	"github.com/walteh/rstls/pkg/rst"
)

const DefaultCacheSize = 512

// DefaultLiteralDirectives keep their bodies verbatim.
var DefaultLiteralDirectives = []string{
	"code-block",
	"code",
	"sourcecode",
	"literalinclude",
	"raw",
	"math",
	"highlight",
	"doctest",
	"testcode",
	"testoutput",
}

type Options struct {
	// LiteralDirectives replaces DefaultLiteralDirectives when not nil.
	LiteralDirectives []string
	// CacheSize bounds the number of cached trees. Zero means
	// DefaultCacheSize.
	CacheSize int
	// TabWidth returns the tab width for a document. Nil means 8 everywhere.
	TabWidth func(uri string) int
}

type Parser struct {
	literal  map[string]bool
	tabWidth func(uri string) int
	cache    *lru.Cache[string, *Tree]
}

func New(opts Options) (*Parser, error) {
	size := opts.CacheSize
	if size == 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *Tree](size)
	if err != nil {
		return nil, errors.Errorf("creating parse cache: %w", err)
	}

	names := opts.LiteralDirectives
	if names == nil {
		names = DefaultLiteralDirectives
	}
	literal := make(map[string]bool, len(names))
	for _, name := range names {
		literal[name] = true
	}

	tabWidth := opts.TabWidth
	if tabWidth == nil {
		tabWidth = func(string) int { return 8 }
	}

	return &Parser{literal: literal, tabWidth: tabWidth, cache: cache}, nil
}

// Parse returns the tree for doc. A cached tree is returned as is when its
// version and text match; trees are shared and must not be modified.
func (p *Parser) Parse(ctx context.Context, doc *document.Document) *Tree {
	if tree, ok := p.cache.Get(doc.URI); ok && tree.Version == doc.Version && tree.text == doc.Text {
		return tree
	}

	opts := rst.Options{TabWidth: p.tabWidth(doc.URI)}
	root := p.parse(ctx, doc.Text, opts)
	tree := newTree(ctx, doc, root)
	p.cache.Add(doc.URI, tree)

	zerolog.Ctx(ctx).Debug().
		Str("uri", doc.URI).
		Int32("version", doc.Version).
		Int("nodes", len(tree.Nodes)).
		Msg("parsed document")

	return tree
}

// Evict drops the cached tree of uri.
func (p *Parser) Evict(uri string) bool {
	return p.cache.Remove(uri)
}

// Cached reports how many trees are cached.
func (p *Parser) Cached() int {
	return p.cache.Len()
}

// parse runs the grammar engine and both repairs on text. Positions in the
// result are relative to text.
func (p *Parser) parse(ctx context.Context, text string, opts rst.Options) *rst.Document {
	root := rst.Parse(text, opts)
	recoverTargets(root)
	p.expandDirectives(ctx, root, text, opts)
	return root
}

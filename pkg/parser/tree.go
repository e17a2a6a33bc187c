package parser

import (
	"context"

	"github.com/walteh/rstls/pkg/document"
	"github.com/walteh/rstls/pkg/invariant"
	"github.com/walteh/rstls/pkg/rst"
	"github.com/walteh/rstls/pkg/walk"
)

// Tree is a repaired document tree with its document-order node array.
type Tree struct {
	Root    *rst.Document
	URI     string
	Version int32
	// Nodes lists every node in pre-order; a node's index is its
	// position here.
	Nodes []rst.Node

	text  string
	index map[rst.Node]int
}

func newTree(ctx context.Context, doc *document.Document, root *rst.Document) *Tree {
	t := &Tree{
		Root:    root,
		URI:     doc.URI,
		Version: doc.Version,
		text:    doc.Text,
		index:   make(map[rst.Node]int),
	}
	walk.ForEach(root, func(n rst.Node, i int) {
		_, known := rst.Kind(n)
		invariant.Check(ctx, known, "unknown node kind %T in %s", n, doc.URI)
		t.index[n] = i
		t.Nodes = append(t.Nodes, n)
	})
	return t
}

// IndexOf returns the document index of n.
func (t *Tree) IndexOf(n rst.Node) (int, bool) {
	i, ok := t.index[n]
	return i, ok
}

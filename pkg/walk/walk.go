// Package walk provides pre-order searches over grammar engine trees.
//
// Every search takes a predicate and an optional admission guard. The
// predicate is tested against each visited node, the node the search starts
// from included; the guard decides whether a node's children are visited.
package walk

import "github.com/walteh/rstls/pkg/rst"

// Predicate selects nodes.
type Predicate func(rst.Node) bool

// Guard reports whether the children of a node should be visited.
type Guard func(rst.Node) bool

// Always admits every node.
func Always(rst.Node) bool { return true }

// Not inverts a guard or predicate.
func Not(fn func(rst.Node) bool) func(rst.Node) bool {
	return func(n rst.Node) bool { return !fn(n) }
}

// OfType matches nodes of any of the given kinds.
func OfType(types ...rst.Type) func(rst.Node) bool {
	return func(n rst.Node) bool {
		for _, t := range types {
			if n.Type() == t {
				return true
			}
		}
		return false
	}
}

// FindAll returns every node matching pred in document order.
func FindAll(node rst.Node, pred Predicate, enter ...Guard) []rst.Node {
	var out []rst.Node
	visit(node, guard(enter), func(n rst.Node) bool {
		if pred(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// FindFirst returns the first node matching pred in document order, or nil.
func FindFirst(node rst.Node, pred Predicate, enter ...Guard) rst.Node {
	var found rst.Node
	visit(node, guard(enter), func(n rst.Node) bool {
		if pred(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// ForEach calls fn for every node in document order together with a visit
// index that starts at zero and increases by one per node.
func ForEach(node rst.Node, fn func(n rst.Node, index int)) {
	index := 0
	visit(node, Always, func(n rst.Node) bool {
		fn(n, index)
		index++
		return true
	})
}

func guard(enter []Guard) Guard {
	switch len(enter) {
	case 0:
		return Always
	case 1:
		return enter[0]
	default:
		return func(n rst.Node) bool {
			for _, g := range enter {
				if !g(n) {
					return false
				}
			}
			return true
		}
	}
}

// visit stops as soon as fn returns false.
func visit(node rst.Node, enter Guard, fn func(rst.Node) bool) bool {
	if !fn(node) {
		return false
	}
	if !enter(node) {
		return true
	}
	for _, child := range node.Children() {
		if !visit(child, enter, fn) {
			return false
		}
	}
	return true
}

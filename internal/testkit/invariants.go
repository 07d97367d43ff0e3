// Package testkit holds structural checks shared by tests and fuzzers.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"cppsema/internal/ast"
	"cppsema/internal/source"
)

// CheckSpanInvariants verifies the tree under root against its file:
//  1. every node and name span has Start <= End and lies inside the content
//  2. every span points at sf (macro-expanded tokens keep their use site)
//  3. parent links agree with the kid lists
func CheckSpanInvariants(b *ast.Builder, root ast.NodeID, sf *source.File) error {
	if b == nil || sf == nil {
		return fmt.Errorf("nil builder or file")
	}
	size, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	check := func(what string, sp source.Span) error {
		switch {
		case sp.File != sf.ID:
			return fmt.Errorf("%s span points to file %d, want %d", what, sp.File, sf.ID)
		case sp.Start > sp.End:
			return fmt.Errorf("%s span is inverted: %d > %d", what, sp.Start, sp.End)
		case sp.End > size:
			return fmt.Errorf("%s span end beyond content: %d > %d", what, sp.End, size)
		}
		return nil
	}

	var failure error
	b.Walk(root, func(id ast.NodeID, n *ast.Node) bool {
		if failure != nil {
			return false
		}
		if err := check(n.Kind.String(), n.Span); err != nil {
			failure = fmt.Errorf("node %d: %w", id, err)
			return false
		}
		if n.Kind == ast.NodeName {
			if err := check("name", b.Name(n.Name).Span); err != nil {
				failure = fmt.Errorf("name %q: %w", b.Spelling(n.Name), err)
				return false
			}
		}
		for _, k := range n.Kids {
			if kid := b.Node(k); kid != nil && kid.Kind != ast.NodeDiscarded && kid.Parent != id {
				failure = fmt.Errorf("node %d: kid %d has parent %d", id, k, kid.Parent)
				return false
			}
		}
		return true
	})
	return failure
}

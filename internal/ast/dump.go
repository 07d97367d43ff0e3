package ast

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes an indented outline of the tree under root, one node per line.
func (b *Builder) Dump(w io.Writer, root NodeID) error {
	return b.dump(w, root, 0)
}

func (b *Builder) dump(w io.Writer, id NodeID, depth int) error {
	n := b.Node(id)
	if n == nil || n.Kind == NodeDiscarded {
		return nil
	}
	var line strings.Builder
	line.WriteString(strings.Repeat("  ", depth))
	line.WriteString(n.Kind.String())
	switch n.Kind {
	case NodeName:
		name := b.Names.Get(n.Name)
		fmt.Fprintf(&line, " %q %s", b.Spelling(n.Name), name.Role)
	case NodeLiteral:
		if lit := b.Literal(id); lit != nil {
			fmt.Fprintf(&line, " %s", lit.Text)
		}
	case NodeUnary, NodeBinary, NodeMember, NodeNamedCast, NodeSizeof, NodeAccessSpec, NodeBaseSpec:
		if n.Op != 0 {
			fmt.Fprintf(&line, " %s", n.Op)
		}
	}
	if n.Has(FlagProblem) {
		line.WriteString(" <problem>")
	}
	fmt.Fprintf(&line, " [%d-%d]\n", n.Span.Start, n.Span.End)
	if _, err := io.WriteString(w, line.String()); err != nil {
		return err
	}
	for _, k := range n.Kids {
		if err := b.dump(w, k, depth+1); err != nil {
			return err
		}
	}
	return nil
}

package ast

// Visitor is called for every node in preorder. Returning false skips the
// node's children.
type Visitor func(id NodeID, n *Node) bool

// Walk visits root and its descendants in preorder. Discarded nodes are
// skipped; unresolved ambiguity nodes expose every alternative.
func (b *Builder) Walk(root NodeID, visit Visitor) {
	n := b.Node(root)
	if n == nil || n.Kind == NodeDiscarded {
		return
	}
	if !visit(root, n) {
		return
	}
	// Kids may grow while visiting when ambiguities are resolved under us;
	// index instead of ranging over a stale copy.
	for i := 0; i < len(b.Node(root).Kids); i++ {
		b.Walk(b.Node(root).Kids[i], visit)
	}
}

// CollectNames returns every non-implicit name under root in preorder.
// A qualified name precedes its segments and a template-id precedes its
// template name and arguments.
func (b *Builder) CollectNames(root NodeID) []NameID {
	var out []NameID
	b.Walk(root, func(_ NodeID, n *Node) bool {
		if n.Kind == NodeName {
			out = append(out, n.Name)
		}
		return true
	})
	return out
}

// Inspect calls fn for every name under root whose spelling matches.
func (b *Builder) Inspect(root NodeID, spelling string, fn func(NameID)) {
	for _, id := range b.CollectNames(root) {
		if b.Spelling(id) == spelling {
			fn(id)
		}
	}
}

// HasAmbiguity reports whether any unresolved ambiguity node remains under root.
func (b *Builder) HasAmbiguity(root NodeID) bool {
	found := false
	b.Walk(root, func(_ NodeID, n *Node) bool {
		if n.IsAmbiguity() {
			found = true
		}
		return !found
	})
	return found
}

package symbols

import "cppsema/internal/source"

// Query restricts a lookup.
type Query struct {
	// Pos is the reference offset; zero disables point-of-declaration
	// filtering.
	Pos  uint32
	Mask KindMask
	// Hidden includes friend declarations that ordinary lookup skips.
	Hidden bool
}

func (q Query) mask() KindMask {
	if q.Mask == KindMaskNone {
		return KindMaskAny
	}
	return q.Mask
}

func (q Query) visible(s *Scope, e Entry) bool {
	if e.Hidden && !q.Hidden {
		return false
	}
	return q.Pos == 0 || !s.Ordered() || e.Pos <= q.Pos
}

// Local returns the bindings declared for name directly in scope, in
// declaration order.
func (t *Table) Local(scope ScopeID, name source.StringID, q Query) []BindingID {
	s := t.Scopes.Get(scope)
	if s == nil {
		return nil
	}
	entries := s.NameIndex[name]
	if len(entries) == 0 {
		return nil
	}
	mask := q.mask()
	out := make([]BindingID, 0, len(entries))
	for _, e := range entries {
		if !q.visible(s, e) {
			continue
		}
		if b := t.Bindings.Get(e.Binding); b != nil && mask.Has(b.Kind) {
			out = append(out, e.Binding)
		}
	}
	return out
}

// Lookup performs the scope walk of unqualified lookup: each scope together
// with the namespaces it nominates (transitively, cycles tolerated), then
// the parent chain. The first scope yielding a result wins; that scope is
// returned with the bindings.
func (t *Table) Lookup(scope ScopeID, name source.StringID, q Query) ([]BindingID, ScopeID) {
	for id := scope; id.IsValid(); {
		s := t.Scopes.Get(id)
		if s == nil {
			break
		}
		if found := t.Visible(id, name, q); len(found) > 0 {
			return found, id
		}
		id = s.Parent
	}
	return nil, NoScopeID
}

// Visible is one step of the unqualified walk: the bindings declared in
// scope plus those of the namespaces it nominates.
func (t *Table) Visible(scope ScopeID, name source.StringID, q Query) []BindingID {
	s := t.Scopes.Get(scope)
	if s == nil {
		return nil
	}
	found := t.Local(scope, name, q)
	if len(s.Using) > 0 {
		visited := map[ScopeID]bool{scope: true}
		found = t.nominated(scope, name, q, visited, found)
	}
	return found
}

// nominated appends the bindings found in every namespace reachable from
// scope through using edges.
func (t *Table) nominated(scope ScopeID, name source.StringID, q Query, visited map[ScopeID]bool, out []BindingID) []BindingID {
	s := t.Scopes.Get(scope)
	for _, edge := range s.Using {
		if visited[edge.Target] {
			continue
		}
		if q.Pos != 0 && s.Ordered() && edge.Pos > q.Pos {
			continue
		}
		visited[edge.Target] = true
		out = appendUnique(out, t.Local(edge.Target, name, q)...)
		out = t.nominated(edge.Target, name, q, visited, out)
	}
	return out
}

// LookupIn performs qualified lookup of name inside scope. Namespaces
// search their nominated and inline namespaces only when the name is not
// declared directly; class bases are the caller's concern.
func (t *Table) LookupIn(scope ScopeID, name source.StringID, q Query) []BindingID {
	found := t.Local(scope, name, q)
	if len(found) > 0 {
		return found
	}
	s := t.Scopes.Get(scope)
	if s == nil || (s.Kind != ScopeNamespace && s.Kind != ScopeGlobal) {
		return nil
	}
	visited := map[ScopeID]bool{scope: true}
	level := []ScopeID{scope}
	for len(level) > 0 && len(found) == 0 {
		var next []ScopeID
		for _, id := range level {
			cur := t.Scopes.Get(id)
			for _, edge := range cur.Using {
				if visited[edge.Target] {
					continue
				}
				if q.Pos != 0 && edge.Pos > q.Pos {
					continue
				}
				visited[edge.Target] = true
				found = appendUnique(found, t.Local(edge.Target, name, q)...)
				next = append(next, edge.Target)
			}
		}
		level = next
	}
	return found
}

// VisibleNames lists the names visible from scope at pos, innermost first,
// without duplicates.
func (t *Table) VisibleNames(scope ScopeID, pos uint32) []source.StringID {
	seen := make(map[source.StringID]bool)
	var out []source.StringID
	q := Query{Pos: pos}
	for id := scope; id.IsValid(); id = t.Scopes.Get(id).Parent {
		s := t.Scopes.Get(id)
		for _, name := range s.Order {
			if seen[name] || len(t.Local(id, name, q)) == 0 {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

func appendUnique(dst []BindingID, ids ...BindingID) []BindingID {
outer:
	for _, id := range ids {
		for _, have := range dst {
			if have == id {
				continue outer
			}
		}
		dst = append(dst, id)
	}
	return dst
}

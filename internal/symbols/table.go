package symbols

import (
	"fmt"
	"slices"

	"fortio.org/safecast"

	"cppsema/internal/ast"
	"cppsema/internal/source"
)

// Hints provide optional capacity suggestions for the symbol table arenas.
type Hints struct{ Scopes, Bindings uint }

// Table aggregates the scope tree and the binding arena of one translation
// unit.
type Table struct {
	Scopes   *Scopes
	Bindings *Bindings
	Strings  *source.Interner
	Global   ScopeID
}

// NewTable builds a fresh table with its global scope.
// If strings is nil, a fresh interner is allocated.
func NewTable(h Hints, strings *source.Interner) *Table {
	scopeCap, err := safecast.Conv[uint32](h.Scopes)
	if err != nil {
		panic(fmt.Errorf("scope capacity overflow: %w", err))
	}
	bindCap, err := safecast.Conv[uint32](h.Bindings)
	if err != nil {
		panic(fmt.Errorf("binding capacity overflow: %w", err))
	}
	if strings == nil {
		strings = source.NewInterner()
	}
	t := &Table{
		Scopes:   NewScopes(scopeCap),
		Bindings: NewBindings(bindCap),
		Strings:  strings,
	}
	t.Global = t.Scopes.New(ScopeGlobal, NoScopeID, NoBindingID, ast.NoNodeID, source.Span{})
	return t
}

// Scope returns the scope or nil.
func (t *Table) Scope(id ScopeID) *Scope {
	return t.Scopes.Get(id)
}

// Binding returns the binding or nil.
func (t *Table) Binding(id BindingID) *Binding {
	return t.Bindings.Get(id)
}

// NewScope allocates a scope below parent.
func (t *Table) NewScope(kind ScopeKind, parent ScopeID, owner BindingID, node ast.NodeID, span source.Span) ScopeID {
	return t.Scopes.New(kind, parent, owner, node, span)
}

// NewBinding stores b and returns its identity.
func (t *Table) NewBinding(b Binding) BindingID {
	return t.Bindings.New(&b)
}

// NewProblem allocates a problem binding for name.
func (t *Table) NewProblem(code ProblemCode, name source.StringID, candidates ...BindingID) BindingID {
	return t.NewBinding(Binding{
		Kind:       KindProblem,
		Name:       name,
		Problem:    code,
		Candidates: slices.Clone(candidates),
	})
}

// Declare appends binding under name in scope. Conflicts between
// non-overloadable declarations are the caller's concern.
func (t *Table) Declare(scope ScopeID, name source.StringID, binding BindingID, pos uint32, hidden bool) {
	s := t.Scopes.Get(scope)
	if s == nil {
		return
	}
	entries, seen := s.NameIndex[name]
	for i, e := range entries {
		if e.Binding == binding {
			// a visible redeclaration unhides a friend
			if e.Hidden && !hidden {
				entries[i].Hidden = false
				entries[i].Pos = pos
			}
			return
		}
	}
	if !seen {
		s.Order = append(s.Order, name)
	}
	s.NameIndex[name] = append(entries, Entry{Binding: binding, Pos: pos, Hidden: hidden})
}

// AddUsing nominates target in scope from pos on. Repeated edges collapse.
func (t *Table) AddUsing(scope, target ScopeID, pos uint32) {
	s := t.Scopes.Get(scope)
	if s == nil || !target.IsValid() || scope == target {
		return
	}
	for _, e := range s.Using {
		if e.Target == target {
			return
		}
	}
	s.Using = append(s.Using, UsingEdge{Target: target, Pos: pos})
}

// AddInline records an inline namespace of scope.
func (t *Table) AddInline(scope, inline ScopeID) {
	s := t.Scopes.Get(scope)
	if s == nil || slices.Contains(s.Inline, inline) {
		return
	}
	s.Inline = append(s.Inline, inline)
	t.AddUsing(scope, inline, 0)
}

// EnclosingNamespace returns the innermost namespace or global scope
// containing scope (inclusive).
func (t *Table) EnclosingNamespace(scope ScopeID) ScopeID {
	for id := scope; id.IsValid(); {
		s := t.Scopes.Get(id)
		if s.Kind == ScopeNamespace || s.Kind == ScopeGlobal {
			return id
		}
		id = s.Parent
	}
	return t.Global
}

// EnclosingNonClass returns the innermost scope around scope that is not a
// class, template or enumeration scope: the scope that receives
// declarations of elaborated type specifiers.
func (t *Table) EnclosingNonClass(scope ScopeID) ScopeID {
	for id := scope; id.IsValid(); {
		s := t.Scopes.Get(id)
		switch s.Kind {
		case ScopeNamespace, ScopeGlobal, ScopeBlock, ScopeFunction:
			return id
		}
		id = s.Parent
	}
	return t.Global
}

// QualifiedName returns the spellings from the outermost named owner down
// to b. Anonymous namespaces and classes contribute an empty segment.
func (t *Table) QualifiedName(id BindingID) []string {
	var out []string
	for cur := id; cur.IsValid(); {
		b := t.Bindings.Get(cur)
		if b == nil {
			break
		}
		name, _ := t.Strings.Lookup(b.Name)
		out = append(out, name)
		cur = t.scopeOwner(b.Scope)
	}
	slices.Reverse(out)
	return out
}

// scopeOwner returns the named entity owning scope, skipping block,
// function and template scopes.
func (t *Table) scopeOwner(scope ScopeID) BindingID {
	for id := scope; id.IsValid(); {
		s := t.Scopes.Get(id)
		switch s.Kind {
		case ScopeGlobal:
			return NoBindingID
		case ScopeNamespace, ScopeClass, ScopeEnum:
			return s.Owner
		case ScopeBlock, ScopeFunction:
			// local entities are qualified by their function
			if s.Owner.IsValid() {
				return s.Owner
			}
		}
		id = s.Parent
	}
	return NoBindingID
}

// IsGloballyQualified reports whether b can be named by a qualified name
// from the global scope: no enclosing function or block.
func (t *Table) IsGloballyQualified(id BindingID) bool {
	b := t.Bindings.Get(id)
	if b == nil {
		return false
	}
	for sid := b.Scope; sid.IsValid(); {
		s := t.Scopes.Get(sid)
		if s.Kind == ScopeBlock || s.Kind == ScopeFunction {
			return false
		}
		sid = s.Parent
	}
	return true
}

// Encloses reports whether outer is inner or one of its ancestors.
func (t *Table) Encloses(outer, inner ScopeID) bool {
	for id := inner; id.IsValid(); id = t.Scopes.Get(id).Parent {
		if id == outer {
			return true
		}
	}
	return false
}

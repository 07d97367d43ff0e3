package sema

import (
	"cppsema/internal/ast"
	"cppsema/internal/source"
	"cppsema/internal/symbols"
	"cppsema/internal/types"
)

// lookupUnqualified walks the scopes outward from scope and returns the
// bindings of the first scope declaring name. Class scopes search their
// bases; an ambiguous member lookup yields a single problem binding.
func (u *Unit) lookupUnqualified(scope symbols.ScopeID, name source.StringID, mask symbols.KindMask, pos uint32) []symbols.BindingID {
	for id := scope; id.IsValid(); id = u.tab.Scope(id).Parent {
		s := u.tab.Scope(id)
		var found []symbols.BindingID
		if s.Kind == symbols.ScopeClass && u.bind(s.Owner) != nil && u.kind(s.Owner).IsClassLike() {
			found = u.lookupMember(s.Owner, name, mask)
		} else {
			raw := u.tab.Visible(id, name, symbols.Query{Pos: pos, Mask: mask | symbols.KindUsingDeclaration.Mask()})
			found = u.expand(raw, mask)
		}
		if len(found) > 0 {
			return found
		}
	}
	return nil
}

// expand replaces using-declarations by their delegates and filters the
// result by mask.
func (u *Unit) expand(found []symbols.BindingID, mask symbols.KindMask) []symbols.BindingID {
	if mask == symbols.KindMaskNone {
		mask = symbols.KindMaskAny
	}
	var out []symbols.BindingID
	add := func(id symbols.BindingID) {
		for _, have := range out {
			if have == id {
				return
			}
		}
		out = append(out, id)
	}
	for _, id := range found {
		if u.kind(id) != symbols.KindUsingDeclaration {
			if mask.Has(u.kind(id)) || u.isProblem(id) {
				add(id)
			}
			continue
		}
		for _, d := range u.delegates(id) {
			if mask.Has(u.kind(d)) || u.isProblem(d) {
				add(d)
			}
		}
	}
	return out
}

// hideTypes drops class and enumeration names hidden by a variable,
// function or enumerator found in the same scope.
func (u *Unit) hideTypes(found []symbols.BindingID) []symbols.BindingID {
	hasValue := false
	for _, id := range found {
		if !u.kind(id).IsType() && u.kind(id) != symbols.KindNamespace && u.kind(id) != symbols.KindNamespaceAlias {
			hasValue = true
			break
		}
	}
	if !hasValue {
		return found
	}
	out := found[:0:0]
	for _, id := range found {
		switch u.kind(id) {
		case symbols.KindClass, symbols.KindClassTemplate, symbols.KindEnumeration:
			continue
		}
		out = append(out, id)
	}
	return out
}

// lookupQualified looks name up inside the entity a qualifier denotes.
func (u *Unit) lookupQualified(in symbols.BindingID, name source.StringID, mask symbols.KindMask, pos uint32) []symbols.BindingID {
	in = u.scopeEntity(in)
	b := u.bind(in)
	if b.IsProblem() {
		return nil
	}
	switch b.Kind {
	case symbols.KindNamespace:
		raw := u.tab.LookupIn(b.Inner, name, symbols.Query{Pos: pos, Mask: mask | symbols.KindUsingDeclaration.Mask(), Hidden: false})
		return u.expand(raw, mask)
	case symbols.KindClass, symbols.KindClassTemplate:
		u.ensureMembers(in)
		return u.lookupMember(in, name, mask)
	case symbols.KindEnumeration:
		return u.tab.Local(b.Inner, name, symbols.Query{Mask: mask})
	}
	return nil
}

// scopeEntity follows aliases, typedefs and using-declarations to the
// namespace, class or enumeration a qualifier names. Dependent entities are
// returned unchanged.
func (u *Unit) scopeEntity(id symbols.BindingID) symbols.BindingID {
	for range 16 {
		b := u.bind(id)
		if b.IsProblem() {
			return id
		}
		switch b.Kind {
		case symbols.KindNamespaceAlias:
			if !b.Target.IsValid() {
				return u.problem(symbols.ProblemBadScope, b.Name, id)
			}
			id = b.Target
		case symbols.KindUsingDeclaration:
			ds := u.delegates(id)
			if len(ds) == 0 {
				return u.problem(symbols.ProblemBadScope, b.Name, id)
			}
			id = ds[0]
		case symbols.KindTypedef:
			t := u.TypeOf(id)
			if cls, ok := u.types.ClassBinding(t); ok {
				return symbols.BindingID(cls)
			}
			if u.types.IsDependent(t) {
				return u.dependentFor(t)
			}
			if tt := u.types.Underlying(t); tt.Kind == types.KindEnum {
				return symbols.BindingID(tt.Payload)
			}
			return u.problem(symbols.ProblemBadScope, b.Name, id)
		case symbols.KindNamespace, symbols.KindClass, symbols.KindClassTemplate,
			symbols.KindEnumeration, symbols.KindTemplateTypeParam, symbols.KindDependent,
			symbols.KindTemplateTemplateParam:
			return id
		default:
			return u.problem(symbols.ProblemBadScope, b.Name, id)
		}
	}
	return id
}

// namespaceTarget returns the namespace a namespace name or alias denotes.
func (u *Unit) namespaceTarget(id symbols.BindingID) symbols.BindingID {
	e := u.scopeEntity(id)
	if u.kind(e) == symbols.KindNamespace {
		return e
	}
	return symbols.NoBindingID
}

// innerScope returns the scope a qualifier entity opens.
func (u *Unit) innerScope(id symbols.BindingID) symbols.ScopeID {
	e := u.scopeEntity(id)
	b := u.bind(e)
	if b.IsProblem() {
		return symbols.NoScopeID
	}
	if b.Kind.IsClassLike() {
		u.ensureMembers(e)
		b = u.bind(e)
	}
	return b.Inner
}

// isDependentEntity reports qualifiers whose members are only known after
// instantiation.
func (u *Unit) isDependentEntity(id symbols.BindingID) bool {
	b := u.bind(id)
	if b == nil {
		return false
	}
	switch b.Kind {
	case symbols.KindTemplateTypeParam, symbols.KindTemplateTemplateParam, symbols.KindDependent:
		return true
	case symbols.KindClass:
		return b.Flags&symbols.FlagDeferred != 0
	}
	return false
}

// delegates computes the targets of a using-declaration once. The
// declaration sees what its qualifier declares before it; class members
// are complete.
func (u *Unit) delegates(using symbols.BindingID) []symbols.BindingID {
	if u.delegated[using] {
		return u.bind(using).Delegates
	}
	u.delegated[using] = true
	if pattern, ok := u.patterns[using]; ok {
		out := u.instantiateDelegates(using, pattern)
		u.bind(using).Delegates = out
		return out
	}
	b := u.bind(using)
	node := b.Node
	n := u.node(node)
	if n == nil || len(n.Kids) == 0 {
		return nil
	}
	nameID := u.b.NameOf(n.Kids[0])
	if u.name(nameID).Kind != ast.NameQualified {
		return nil
	}
	qual := u.resolveQualifier(nameID)
	if u.isProblem(qual) {
		return nil
	}
	spelling := u.name(u.b.Base(nameID)).Spelling
	var pos uint32
	if u.kind(u.scopeEntity(qual)) == symbols.KindNamespace {
		pos = entryPos(n.Span)
	}
	var out []symbols.BindingID
	if u.isDependentEntity(qual) {
		out = []symbols.BindingID{u.dependentMember(qual, spelling)}
	} else {
		for _, d := range u.lookupQualified(qual, spelling, symbols.KindMaskAny, pos) {
			if d != using && !u.isProblem(d) {
				out = append(out, d)
			}
		}
	}
	u.bind(using).Delegates = out
	return out
}

// single reduces a lookup result to one entity. Several declarations of the
// same type count as one.
func (u *Unit) single(found []symbols.BindingID, name source.StringID) (symbols.BindingID, symbols.BindingID) {
	switch len(found) {
	case 0:
		return symbols.NoBindingID, u.problem(symbols.ProblemNameNotFound, name)
	case 1:
		if u.isProblem(found[0]) {
			return symbols.NoBindingID, found[0]
		}
		return found[0], symbols.NoBindingID
	}
	first := found[0]
	for _, other := range found[1:] {
		if !u.sameEntity(first, other) {
			return symbols.NoBindingID, u.problem(symbols.ProblemAmbiguousLookup, name, found...)
		}
	}
	return first, symbols.NoBindingID
}

func (u *Unit) sameEntity(a, b symbols.BindingID) bool {
	if a == b {
		return true
	}
	if !u.kind(a).IsType() || !u.kind(b).IsType() {
		return false
	}
	return u.types.IsSameType(u.TypeOf(a), u.TypeOf(b))
}

// lookupLabel finds a label in the function around scope.
func (u *Unit) lookupLabel(scope symbols.ScopeID, name source.StringID) []symbols.BindingID {
	fs := u.functionScope(scope)
	return u.tab.Local(fs, name, symbols.Query{Mask: symbols.MaskLabels})
}

package sema

import (
	"cppsema/internal/source"
	"cppsema/internal/symbols"
	"cppsema/internal/types"
)

// associated collects the classes and namespaces an argument type brings
// into argument-dependent lookup.
type associated struct {
	classes    []symbols.BindingID
	namespaces []symbols.ScopeID
	seenClass  map[symbols.BindingID]bool
	seenNS     map[symbols.ScopeID]bool
	seenType   map[types.TypeID]bool
}

func newAssociated() *associated {
	return &associated{
		seenClass: make(map[symbols.BindingID]bool),
		seenNS:    make(map[symbols.ScopeID]bool),
		seenType:  make(map[types.TypeID]bool),
	}
}

func (a *associated) addNamespace(s symbols.ScopeID) {
	if s.IsValid() && !a.seenNS[s] {
		a.seenNS[s] = true
		a.namespaces = append(a.namespaces, s)
	}
}

// adl finds the functions named name in the namespaces and classes
// associated with the argument types. Friends declared only inside an
// associated class are found as well.
func (u *Unit) adl(name source.StringID, args []types.TypeID) []symbols.BindingID {
	set := newAssociated()
	for _, t := range args {
		u.associate(set, t, 0)
	}
	var out []symbols.BindingID
	q := symbols.Query{Mask: functionMask | symbols.KindUsingDeclaration.Mask(), Hidden: true}
	for _, ns := range set.namespaces {
		found := u.tab.Local(ns, name, q)
		for _, inl := range u.tab.Scope(ns).Inline {
			found = append(found, u.tab.Local(inl, name, q)...)
		}
		out = appendUnique(out, u.expand(found, functionMask)...)
	}
	for _, cls := range set.classes {
		for _, f := range u.bind(cls).Friends {
			if u.bind(f).Name == name && u.kind(f).IsFunction() {
				out = appendUnique(out, f)
			}
		}
	}
	return out
}

var functionMask = symbols.KindFunction.Mask() | symbols.KindFunctionTemplate.Mask() |
	symbols.KindMethod.Mask() | symbols.KindConversion.Mask()

func (u *Unit) associate(set *associated, t types.TypeID, depth int) {
	if !t.IsValid() || depth > maxBaseDepth {
		return
	}
	t = u.types.Canonical(t)
	if set.seenType[t] {
		return
	}
	set.seenType[t] = true
	tt := u.types.Underlying(t)
	switch tt.Kind {
	case types.KindPointer, types.KindLRef, types.KindRRef, types.KindArray:
		u.associate(set, tt.Elem, depth+1)
	case types.KindMemberPointer:
		u.associate(set, tt.Elem, depth+1)
		u.associate(set, tt.Class, depth+1)
	case types.KindFunction:
		info, _ := u.types.FnInfo(t)
		for _, p := range info.Params {
			u.associate(set, p, depth+1)
		}
		u.associate(set, info.Result, depth+1)
	case types.KindEnum:
		e := symbols.BindingID(tt.Payload)
		if owner := u.bind(e).Owner; owner.IsValid() {
			u.associateClass(set, owner, depth)
		} else {
			set.addNamespace(u.tab.EnclosingNamespace(u.bind(e).Scope))
		}
	case types.KindClass:
		u.associateClass(set, symbols.BindingID(tt.Payload), depth)
	}
}

// associateClass adds cls, its bases and their namespaces; a
// specialization also brings in its template arguments.
func (u *Unit) associateClass(set *associated, cls symbols.BindingID, depth int) {
	if set.seenClass[cls] {
		return
	}
	for _, c := range append([]symbols.BindingID{cls}, u.allBases(cls)...) {
		if set.seenClass[c] {
			continue
		}
		set.seenClass[c] = true
		set.classes = append(set.classes, c)
		b := u.bind(c)
		set.addNamespace(u.tab.EnclosingNamespace(b.Scope))
		if b.Owner.IsValid() {
			u.associateClass(set, b.Owner, depth+1)
		}
		for _, arg := range b.TemplateArgs {
			if !arg.IsValue {
				u.associate(set, arg.Type, depth+1)
			}
		}
	}
}

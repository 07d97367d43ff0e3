package sema

import (
	"slices"

	"cppsema/internal/ast"
	"cppsema/internal/symbols"
	"cppsema/internal/types"
)

// Scope returns the scope b is declared in.
func (u *Unit) Scope(b symbols.BindingID) symbols.ScopeID {
	if bb := u.bind(b); bb != nil {
		return bb.Scope
	}
	return symbols.NoScopeID
}

// QualifiedName returns the spellings naming b from the outermost
// enclosing namespace or class down to b itself.
func (u *Unit) QualifiedName(b symbols.BindingID) []string {
	return u.tab.QualifiedName(b)
}

// IsGloballyQualified reports whether b can be named from the global
// scope, that is whether no function or block encloses it.
func (u *Unit) IsGloballyQualified(b symbols.BindingID) bool {
	return u.tab.IsGloballyQualified(b)
}

// classes --------------------------------------------------------------------

// members returns the members of cls, instantiating them first for a
// class template specialization.
func (u *Unit) members(cls symbols.BindingID) []symbols.BindingID {
	if !u.kind(cls).IsClassLike() {
		return nil
	}
	u.ensureMembers(cls)
	return slices.Clone(u.bind(cls).Members)
}

func isMethod(k symbols.Kind) bool {
	switch k {
	case symbols.KindMethod, symbols.KindConstructor, symbols.KindDestructor, symbols.KindConversion:
		return true
	}
	return false
}

// Constructors returns the declared constructors of cls followed by the
// implicit ones.
func (u *Unit) Constructors(cls symbols.BindingID) []symbols.BindingID {
	u.ensureMembers(cls)
	return u.constructors(cls)
}

// DeclaredFields returns the fields cls declares, static ones included, in
// declaration order.
func (u *Unit) DeclaredFields(cls symbols.BindingID) []symbols.BindingID {
	var out []symbols.BindingID
	for _, m := range u.members(cls) {
		if u.kind(m) == symbols.KindField {
			out = append(out, m)
		}
	}
	return out
}

// Fields returns the fields of cls followed by those of its bases,
// depth-first in base clause order. A virtual base contributes once.
func (u *Unit) Fields(cls symbols.BindingID) []symbols.BindingID {
	var out []symbols.BindingID
	u.eachClass(cls, func(c symbols.BindingID) {
		out = append(out, u.DeclaredFields(c)...)
	})
	return out
}

// DeclaredMethods returns the member functions and member function
// templates cls declares. Implicit members are not included.
func (u *Unit) DeclaredMethods(cls symbols.BindingID) []symbols.BindingID {
	var out []symbols.BindingID
	for _, m := range u.members(cls) {
		k := u.kind(m)
		if isMethod(k) || (k == symbols.KindFunctionTemplate && u.bind(m).Owner == cls) {
			out = append(out, m)
		}
	}
	return out
}

// AllDeclaredMethods returns the declared methods of cls and of all its
// bases.
func (u *Unit) AllDeclaredMethods(cls symbols.BindingID) []symbols.BindingID {
	var out []symbols.BindingID
	u.eachClass(cls, func(c symbols.BindingID) {
		out = append(out, u.DeclaredMethods(c)...)
	})
	return out
}

// Methods returns, for cls and then each base, the declared methods
// followed by the implicit special members.
func (u *Unit) Methods(cls symbols.BindingID) []symbols.BindingID {
	var out []symbols.BindingID
	u.eachClass(cls, func(c symbols.BindingID) {
		out = append(out, u.DeclaredMethods(c)...)
		out = append(out, u.bind(c).Implicit...)
	})
	return out
}

// eachClass calls fn for cls and then for its bases, depth-first.
func (u *Unit) eachClass(cls symbols.BindingID, fn func(symbols.BindingID)) {
	seen := make(map[symbols.BindingID]bool)
	var visit func(c symbols.BindingID, depth int)
	visit = func(c symbols.BindingID, depth int) {
		if seen[c] || depth > maxBaseDepth || !u.kind(c).IsClassLike() {
			return
		}
		seen[c] = true
		fn(c)
		for _, b := range u.classBases(c) {
			if b.Class.IsValid() {
				visit(b.Class, depth+1)
			}
		}
	}
	visit(cls, 0)
}

// Friends returns the functions and classes cls befriends.
func (u *Unit) Friends(cls symbols.BindingID) []symbols.BindingID {
	if b := u.bind(cls); b != nil {
		return slices.Clone(b.Friends)
	}
	return nil
}

// Visibility returns the access of a class member. Non-members are public.
func (u *Unit) Visibility(member symbols.BindingID) symbols.Visibility {
	b := u.bind(member)
	if b == nil || !b.Owner.IsValid() {
		return symbols.VisPublic
	}
	return b.Visibility
}

// Bases returns the base clause of cls with base classes resolved.
func (u *Unit) Bases(cls symbols.BindingID) []symbols.Base {
	return slices.Clone(u.classBases(cls))
}

// enumerations ---------------------------------------------------------------

// Enumerators returns the enumerators of an enumeration in declaration
// order with their values computed.
func (u *Unit) Enumerators(enum symbols.BindingID) []symbols.BindingID {
	b := u.bind(enum)
	if b == nil {
		return nil
	}
	out := slices.Clone(b.Enumerators)
	for _, e := range out {
		u.EnumeratorValue(e)
	}
	return out
}

// EnumeratorValue returns the value of an enumerator.
func (u *Unit) EnumeratorValue(e symbols.BindingID) (int64, bool) {
	if u.kind(e) != symbols.KindEnumerator {
		return 0, false
	}
	if b := u.bind(e); b.HasValue {
		return b.Value, true
	}
	ev := &evaluator{u: u}
	c, ok := ev.enumerator(e)
	return c.v, ok
}

// UnderlyingType returns the integral type of an enumeration.
func (u *Unit) UnderlyingType(enum symbols.BindingID) types.TypeID {
	if u.kind(enum) != symbols.KindEnumeration {
		return types.NoTypeID
	}
	info, ok := u.types.EnumInfo(u.TypeOf(enum))
	if !ok {
		return u.types.Builtins().Int
	}
	return info.Underlying
}

// functions ------------------------------------------------------------------

// Parameters returns the parameter bindings of a function.
func (u *Unit) Parameters(fn symbols.BindingID) []symbols.BindingID {
	if b := u.bind(fn); b != nil {
		return slices.Clone(b.Params)
	}
	return nil
}

// templates ------------------------------------------------------------------

// Specialized returns what b was produced from: the template of a class
// or function specialization, or the member of the template pattern for a
// member of a specialization. It is invalid for anything else.
func (u *Unit) Specialized(b symbols.BindingID) symbols.BindingID {
	if p, ok := u.patterns[b]; ok {
		return p
	}
	if bb := u.bind(b); bb != nil {
		return bb.Template
	}
	return symbols.NoBindingID
}

// TemplateArguments returns the arguments of a specialization.
func (u *Unit) TemplateArguments(b symbols.BindingID) []types.Arg {
	if bb := u.bind(b); bb != nil {
		return slices.Clone(bb.TemplateArgs)
	}
	return nil
}

// Specializations returns the explicit and partial specializations of a
// template followed by the instances created so far.
func (u *Unit) Specializations(tmpl symbols.BindingID) []symbols.BindingID {
	b := u.bind(tmpl)
	if b == nil {
		return nil
	}
	out := slices.Clone(b.Explicit)
	for _, s := range b.Specializations {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

// translation unit -----------------------------------------------------------

// Names returns every name of the translation unit in preorder, after
// resolving all of them. Implicit names come before the names below the
// node they belong to. Qualified names are represented by their segments.
func (u *Unit) Names() []ast.NameID {
	u.complete()
	var out []ast.NameID
	u.b.Walk(u.root, func(id ast.NodeID, n *ast.Node) bool {
		out = append(out, u.implicit[id]...)
		if n.Kind == ast.NodeName && u.name(n.Name).Kind != ast.NameQualified {
			out = append(out, n.Name)
		}
		return true
	})
	return out
}

// RoleOf returns what a name occurrence does. Only the final part of a
// declared name declares or defines; its qualifiers are references.
func (u *Unit) RoleOf(id ast.NameID) ast.Role {
	nm := u.name(id)
	if nm == nil || nm.Implicit {
		return ast.RoleReference
	}
	top := u.topName(id)
	if id != top && id != u.b.Last(top) {
		return ast.RoleReference
	}
	return u.name(top).Role
}

// References returns the names referring to b, implicit ones included.
func (u *Unit) References(b symbols.BindingID) []ast.NameID {
	var out []ast.NameID
	for _, id := range u.Names() {
		if u.RoleOf(id) == ast.RoleReference && u.Resolve(id) == b {
			out = append(out, id)
		}
	}
	return out
}

// DeclarationsInAST returns the names declaring or defining b. A
// using-declaration counts as a declaration of each entity it brings in.
func (u *Unit) DeclarationsInAST(b symbols.BindingID) []ast.NameID {
	var out []ast.NameID
	for _, id := range u.Names() {
		if u.RoleOf(id) == ast.RoleReference {
			continue
		}
		r := u.Resolve(id)
		if r == b || (u.kind(r) == symbols.KindUsingDeclaration && slices.Contains(u.delegates(r), b)) {
			out = append(out, id)
		}
	}
	return out
}

// DefinitionsInAST returns the names defining b.
func (u *Unit) DefinitionsInAST(b symbols.BindingID) []ast.NameID {
	var out []ast.NameID
	for _, id := range u.Names() {
		if u.RoleOf(id) == ast.RoleDefinition && u.Resolve(id) == b {
			out = append(out, id)
		}
	}
	return out
}

// expressions ----------------------------------------------------------------

// prepare settles the ambiguities around node outermost first and runs the
// initialization check covering it, so that node is typed in context.
func (u *Unit) prepare(node ast.NodeID) {
	var outer []ast.NodeID
	for cur := u.node(node).Parent; cur.IsValid(); cur = u.node(cur).Parent {
		if u.node(cur).IsAmbiguity() {
			outer = append(outer, cur)
		}
	}
	for _, a := range slices.Backward(outer) {
		u.resolveAmbiguity(a)
	}
	u.initializeAt(node)
}

func (u *Unit) exprAt(node ast.NodeID) (exprInfo, bool) {
	n := u.node(node)
	if n == nil || n.Kind == ast.NodeDiscarded {
		return exprInfo{}, false
	}
	u.prepare(node)
	if n = u.node(node); n.Kind == ast.NodeDiscarded || (!n.IsExpression() && !n.IsAmbiguity()) {
		return exprInfo{}, false
	}
	return u.exprOf(node), true
}

// ExprType returns the type of an expression, or NoTypeID for a node that
// is not one.
func (u *Unit) ExprType(node ast.NodeID) types.TypeID {
	info, ok := u.exprAt(node)
	if !ok {
		return types.NoTypeID
	}
	return info.t
}

// ValueCategory returns the value category of an expression.
func (u *Unit) ValueCategory(node ast.NodeID) Category {
	info, _ := u.exprAt(node)
	return info.cat
}

// ConstValue evaluates an integral constant expression.
func (u *Unit) ConstValue(node ast.NodeID) (int64, bool) {
	if _, ok := u.exprAt(node); !ok {
		return 0, false
	}
	return u.constValue(node)
}

// ImplicitNames returns the names the engine attached to node for the
// constructors, operators and conversion functions it calls.
func (u *Unit) ImplicitNames(node ast.NodeID) []ast.NameID {
	if n := u.node(node); n == nil || n.Kind == ast.NodeDiscarded {
		return nil
	}
	u.prepare(node)
	switch n := u.node(node); {
	case n.Kind == ast.NodeDeclarator:
		u.initialize(node)
	case n.Kind == ast.NodeCtorInit:
		u.initializeMember(node)
	case n.IsExpression():
		u.exprOf(node)
	}
	return slices.Clone(u.implicit[node])
}

package sema

import (
	"slices"

	"cppsema/internal/ast"
	"cppsema/internal/symbols"
	"cppsema/internal/types"
)

// initialize checks the initializer of a variable or field declarator
// against the declared type. The constructor or conversion function it
// uses becomes an implicit name on the declarator, an overloaded function
// name is settled by the declared type and narrowing in a braced
// initializer is recorded.
func (u *Unit) initialize(decl ast.NodeID) {
	if u.initialized[decl] {
		return
	}
	u.initialized[decl] = true
	b, ok := u.nodeBindings[decl]
	if !ok {
		return
	}
	kind := u.kind(b)
	if kind != symbols.KindVariable && kind != symbols.KindField {
		return
	}
	d := u.b.Declarator(decl)
	if d == nil {
		return
	}
	init := d.Init
	flags := u.bind(b).Flags
	t := u.TypeOf(b)
	in := u.types
	if u.badType(t) || in.IsDependent(t) {
		u.typeInit(init)
		return
	}
	elem := t
	if tt := in.Underlying(t); tt.Kind == types.KindArray {
		elem = tt.Elem
	}
	cls, isClass := in.ClassBinding(elem)

	if !init.IsValid() {
		// objects of class type without an initializer are default
		// constructed; fields are left to the constructors
		if isClass && kind == symbols.KindVariable && flags&symbols.FlagExtern == 0 {
			u.construct(decl, elem, nil, false, symbols.BindingID(cls))
		}
		return
	}
	n := u.node(init)
	switch n.Kind {
	case ast.NodeInitList:
		args := u.argInfos(slices.Clone(n.Kids))
		if elem != t {
			return
		}
		u.construct(decl, t, args, true, symbols.BindingID(cls))
	case ast.NodeInitParens:
		args := u.argInfos(slices.Clone(n.Kids))
		if in.IsReference(t) && len(args) == 1 {
			u.copyInit(decl, t, args[0])
			return
		}
		u.construct(decl, t, args, false, symbols.BindingID(cls))
	case ast.NodeInitEquals:
		if len(n.Kids) == 0 {
			return
		}
		e := u.exprOf(n.Kids[0])
		if e.list {
			args := u.argInfos(slices.Clone(u.node(n.Kids[0]).Kids))
			if elem == t {
				u.construct(decl, t, args, true, symbols.BindingID(cls))
			}
			return
		}
		u.copyInit(decl, t, e)
	}
}

// typeInit types the expressions of an initializer without checking them
// against a type.
func (u *Unit) typeInit(init ast.NodeID) {
	n := u.node(init)
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.NodeInitEquals, ast.NodeInitParens, ast.NodeInitList:
		for _, k := range slices.Clone(n.Kids) {
			u.exprOf(k)
		}
		return
	}
	u.exprOf(init)
}

// copyInit handles 'T x = e': overloaded names are settled, a class target
// uses a converting constructor unless e already has the class type, and a
// class source may use a conversion function.
func (u *Unit) copyInit(decl ast.NodeID, t types.TypeID, e exprInfo) {
	in := u.types
	if e.overloads != nil {
		if fn := u.selectByType(e.overloads, nil, t); fn.IsValid() {
			u.settle(e, fn)
		}
		return
	}
	if u.isDependent(e) || u.badType(e.t) {
		return
	}
	target := in.StripRef(t)
	if cls, ok := in.ClassBinding(target); ok && !in.IsReference(t) {
		from, _ := in.Unqualified(in.Canonical(in.StripRef(e.t)))
		to, _ := in.Unqualified(in.Canonical(target))
		if from == to || u.derivedToBase(from, to) {
			u.construct(decl, target, []exprInfo{e}, false, symbols.BindingID(cls))
			return
		}
	}
	c := u.convert(e, t, true)
	switch {
	case c.kind == convUser && c.user.IsValid():
		u.addImplicit(decl, c.user)
	case c.bad():
		u.addImplicit(decl, u.problem(symbols.ProblemInvalidType, u.bind(u.nodeBindings[decl]).Name))
	}
}

// initializeMember checks a mem-initializer: a base class or a field of
// class type selects its constructor, recorded on the mem-initializer.
func (u *Unit) initializeMember(ci ast.NodeID) {
	if u.initialized[ci] {
		return
	}
	u.initialized[ci] = true
	n := u.node(ci)
	if len(n.Kids) < 2 {
		return
	}
	target := u.Resolve(u.b.NameOf(n.Kids[0]))
	init := u.node(n.Kids[1])
	args := u.argInfos(slices.Clone(init.Kids))
	list := init.Kind == ast.NodeInitList
	var t types.TypeID
	switch k := u.kind(target); {
	case k == symbols.KindField:
		t = u.TypeOf(target)
	case k.IsClassLike():
		t = u.classType(target)
	default:
		return
	}
	in := u.types
	if u.badType(t) || in.IsDependent(t) || u.isDependent(args...) {
		return
	}
	if in.IsReference(t) && len(args) == 1 {
		u.copyInit(ci, t, args[0])
		return
	}
	cls, _ := in.ClassBinding(t)
	u.construct(ci, t, args, list, symbols.BindingID(cls))
}

// initializerOf returns the declarator or mem-initializer whose
// initializer contains node.
func (u *Unit) initializerOf(node ast.NodeID) ast.NodeID {
	child := node
	for cur := u.node(node).Parent; cur.IsValid(); cur = u.node(cur).Parent {
		n := u.node(cur)
		switch n.Kind {
		case ast.NodeDeclarator:
			if d := u.b.Declarator(cur); d != nil && d.Init == child {
				return cur
			}
			return ast.NoNodeID
		case ast.NodeCtorInit:
			if len(n.Kids) > 1 && n.Kids[1] == child {
				return cur
			}
			return ast.NoNodeID
		case ast.NodeLambda, ast.NodeCompound, ast.NodeFunctionDef, ast.NodeClassSpec:
			return ast.NoNodeID
		}
		child = cur
	}
	return ast.NoNodeID
}

// initializeAt runs the initialization check covering node, if any.
func (u *Unit) initializeAt(node ast.NodeID) {
	owner := u.initializerOf(node)
	if !owner.IsValid() {
		return
	}
	if u.node(owner).Kind == ast.NodeCtorInit {
		u.initializeMember(owner)
		return
	}
	u.initialize(owner)
}

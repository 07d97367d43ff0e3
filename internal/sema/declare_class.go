package sema

import (
	"cppsema/internal/ast"
	"cppsema/internal/source"
	"cppsema/internal/symbols"
	"cppsema/internal/token"
	"cppsema/internal/types"
)

// declareSpec declares the entities a decl-specifier-seq introduces: class
// and enum definitions, forward declarations and elaborated references.
func (u *Unit) declareSpec(ctx *declContext, spec ast.NodeID, tmpl *templateContext, hasDecls bool) {
	ds := u.b.DeclSpec(spec)
	if ds == nil {
		return
	}
	friend := ds.Storage&ast.StorageFriend != 0
	switch ds.TypeKind {
	case ast.TypeSpecClass:
		cls := u.declareClass(ctx, ds.Spec, tmpl)
		if !hasDecls && !friend {
			u.injectAnonymous(ctx, cls)
		}
	case ast.TypeSpecEnum:
		u.declareEnum(ctx, ds.Spec)
	case ast.TypeSpecElaborated:
		u.declareElaborated(ctx, ds.Name, ds.Key, friend, tmpl, hasDecls)
	case ast.TypeSpecDecltype, ast.TypeSpecTypeof:
		u.scanExprs(ds.Expr)
	}
}

func (u *Unit) declareSimple(ctx *declContext, id ast.NodeID) {
	var spec ast.NodeID
	var decls []ast.NodeID
	for _, k := range u.node(id).Kids {
		switch u.node(k).Kind {
		case ast.NodeDeclSpec:
			spec = k
		case ast.NodeDeclarator:
			decls = append(decls, k)
		}
	}
	tmpl := ctx.take()
	if spec.IsValid() {
		var specTmpl *templateContext
		if len(decls) == 0 {
			specTmpl = tmpl
		}
		u.declareSpec(ctx, spec, specTmpl, len(decls) > 0)
	}
	for _, d := range decls {
		u.declareDeclarator(ctx, spec, d, tmpl, ast.NoNodeID)
	}
}

// declareElaborated handles 'class X;', 'friend class X;' and elaborated
// references that introduce a class name.
func (u *Unit) declareElaborated(ctx *declContext, nameNode ast.NodeID, key token.Kind, friend bool, tmpl *templateContext, hasDecls bool) {
	nameID := u.b.NameOf(nameNode)
	nm := u.name(nameID)
	if nm == nil || key == token.KwEnum {
		return
	}
	kind, role := nm.Kind, nm.Role
	if friend && ctx.class.IsValid() {
		u.declareFriendClass(ctx, nameID, key)
		return
	}
	if role != ast.RoleReference && !hasDecls {
		switch kind {
		case ast.NameIdent:
			u.forwardClass(ctx, nameID, key, tmpl, ctx.scope)
		case ast.NameTemplateID:
			if tmpl != nil {
				u.declareSpecialization(ctx, nameID, key, tmpl)
			}
		}
		return
	}
	if kind != ast.NameIdent {
		return
	}
	u.elaboratedReference(nameID, key)
}

// elaboratedReference declares the class named by 'struct X' when lookup
// finds nothing, in the nearest enclosing namespace or block scope.
func (u *Unit) elaboratedReference(nameID ast.NameID, key token.Kind) symbols.BindingID {
	if id, ok := u.resolved[nameID]; ok {
		return id
	}
	scope := u.scopeOfName(nameID)
	spelling := u.name(nameID).Spelling
	if found := u.lookupUnqualified(scope, spelling, symbols.MaskTypes, u.namePos(nameID)); len(found) > 0 {
		return symbols.NoBindingID
	}
	target := u.tab.EnclosingNonClass(scope)
	return u.forwardClass(&declContext{scope: target, lexical: target}, nameID, key, nil, target)
}

// forwardClass declares a class name without a body, reusing an earlier
// declaration of the same class.
func (u *Unit) forwardClass(ctx *declContext, nameID ast.NameID, key token.Kind, tmpl *templateContext, target symbols.ScopeID) symbols.BindingID {
	spelling := u.name(nameID).Spelling
	mask := symbols.KindClass.Mask() | symbols.KindClassTemplate.Mask()
	for _, id := range u.tab.Local(target, spelling, symbols.Query{Hidden: true, Mask: mask}) {
		b := u.bind(id)
		b.Decls = append(b.Decls, nameID)
		u.tab.Declare(target, spelling, id, u.namePos(nameID), false)
		u.resolved[nameID] = id
		return id
	}
	kind := symbols.KindClass
	var params []symbols.BindingID
	if tmpl != nil && !tmpl.explicit {
		kind = symbols.KindClassTemplate
		params = tmpl.params
	}
	var flags symbols.Flags
	if key == token.KwUnion {
		flags |= symbols.FlagUnion
	}
	owner := u.tab.Scope(target).Owner
	if u.tab.Scope(target).Kind != symbols.ScopeClass {
		owner = symbols.NoBindingID
	}
	id := u.tab.NewBinding(symbols.Binding{
		Kind:           kind,
		Name:           spelling,
		Scope:          target,
		Owner:          owner,
		Flags:          flags,
		Visibility:     ctx.vis,
		Key:            key,
		Node:           u.name(nameID).Node,
		Decls:          []ast.NameID{nameID},
		TemplateParams: params,
	})
	if tmpl != nil && kind == symbols.KindClassTemplate {
		u.tab.Scope(tmpl.scope).Owner = id
	}
	u.tab.Declare(target, spelling, id, u.namePos(nameID), false)
	u.resolved[nameID] = id
	if owner.IsValid() {
		u.addMember(owner, id)
	}
	return id
}

// declareFriendClass makes a class a friend of ctx.class. An undeclared
// friend is entered hidden in the innermost enclosing namespace.
func (u *Unit) declareFriendClass(ctx *declContext, nameID ast.NameID, key token.Kind) {
	nm := u.name(nameID)
	if nm.Kind != ast.NameIdent {
		if cls := u.Resolve(nameID); !u.isProblem(cls) && u.kind(cls).IsClassLike() {
			u.addFriend(ctx.class, cls)
		}
		return
	}
	spelling := nm.Spelling
	found := u.lookupUnqualified(ctx.scope, spelling, symbols.MaskTypes, u.namePos(nameID))
	for _, id := range found {
		if u.kind(id).IsClassLike() {
			u.resolved[nameID] = id
			u.addFriend(ctx.class, id)
			return
		}
	}
	ns := u.tab.EnclosingNamespace(ctx.scope)
	for _, id := range u.tab.Local(ns, spelling, symbols.Query{Hidden: true, Mask: symbols.KindClass.Mask()}) {
		u.resolved[nameID] = id
		u.addFriend(ctx.class, id)
		return
	}
	id := u.tab.NewBinding(symbols.Binding{
		Kind:  symbols.KindClass,
		Name:  spelling,
		Scope: ns,
		Flags: symbols.FlagFriend,
		Key:   key,
		Node:  nm.Node,
		Decls: []ast.NameID{nameID},
	})
	u.tab.Declare(ns, spelling, id, u.namePos(nameID), true)
	u.resolved[nameID] = id
	u.addFriend(ctx.class, id)
}

func (u *Unit) addFriend(cls, friend symbols.BindingID) {
	b := u.bind(cls)
	if b == nil {
		return
	}
	for _, f := range b.Friends {
		if f == friend {
			return
		}
	}
	b.Friends = append(b.Friends, friend)
}

func (u *Unit) addMember(cls, member symbols.BindingID) {
	b := u.bind(cls)
	if b == nil || !b.Kind.IsClassLike() {
		return
	}
	for _, m := range b.Members {
		if m == member {
			return
		}
	}
	b.Members = append(b.Members, member)
}

// declareClass declares a class definition and its members.
func (u *Unit) declareClass(ctx *declContext, node ast.NodeID, tmpl *templateContext) symbols.BindingID {
	cs := u.b.ClassSpec(node)
	if cs == nil {
		return symbols.NoBindingID
	}
	if id, ok := u.nodeBindings[node]; ok {
		return id
	}
	nameID := u.b.NameOf(cs.Name)
	key := cs.Key
	parent := ctx.lexical
	owner := ctx.class
	var id symbols.BindingID
	switch nm := u.name(nameID); {
	case nm == nil:
		id = u.tab.NewBinding(symbols.Binding{
			Kind:  symbols.KindClass,
			Scope: ctx.scope,
			Flags: symbols.FlagAnonymous,
		})
	case nm.Kind == ast.NameQualified:
		id, parent, owner = u.qualifiedClass(ctx, nameID, key)
	case nm.Kind == ast.NameTemplateID:
		id = u.declareSpecialization(ctx, nameID, key, tmpl)
	default:
		id = u.classFor(ctx, nameID, key, tmpl)
	}
	b := u.bind(id)
	b.Key = key
	b.Flags |= symbols.FlagDefined
	if key == token.KwUnion {
		b.Flags |= symbols.FlagUnion
	}
	if cs.Final {
		b.Flags |= symbols.FlagFinal
	}
	b.DefNode = node
	if !b.Node.IsValid() {
		b.Node = node
	}
	if nameID.IsValid() {
		b.Def = u.b.Last(nameID)
	}
	if owner.IsValid() && !b.Owner.IsValid() {
		b.Owner = owner
		b.Visibility = ctx.vis
	}
	if tmpl != nil && b.Kind == symbols.KindClassTemplate {
		u.tab.Scope(tmpl.scope).Owner = id
	}
	scope := u.tab.NewScope(symbols.ScopeClass, parent, id, node, u.node(node).Span)
	u.bind(id).Inner = scope
	u.scopes[node] = scope
	u.nodeBindings[node] = id
	if nameID.IsValid() {
		inj := u.name(u.b.Base(nameID)).Spelling
		u.tab.Declare(scope, inj, id, 0, false)
	}
	defVis := defaultAccess(key)
	bases := make([]symbols.Base, 0, len(cs.Bases))
	for _, bs := range cs.Bases {
		bn := u.node(bs)
		bases = append(bases, symbols.Base{
			Virtual:    bn.Has(ast.FlagVirtual),
			Visibility: accessOf(bn.Op, defVis),
			Node:       bs,
		})
	}
	u.bind(id).Bases = bases
	u.declareMembers(id, scope, cs.Members, key)
	return id
}

func (u *Unit) declareMembers(cls symbols.BindingID, scope symbols.ScopeID, members []ast.NodeID, key token.Kind) {
	mctx := &declContext{scope: scope, lexical: scope, class: cls, vis: defaultAccess(key)}
	u.classDepth++
	for _, m := range members {
		u.declareNode(mctx, m)
	}
	u.classDepth--
	u.addImplicitMembers(cls)
	if u.classDepth == 0 {
		u.flushDeferred()
	}
}

// classFor returns the binding a named class definition completes.
func (u *Unit) classFor(ctx *declContext, nameID ast.NameID, key token.Kind, tmpl *templateContext) symbols.BindingID {
	spelling := u.name(nameID).Spelling
	for _, other := range u.tab.Local(ctx.scope, spelling, symbols.Query{Hidden: true}) {
		ob := u.bind(other)
		switch {
		case ob.Kind.IsClassLike():
			if ob.Flags&symbols.FlagDefined != 0 {
				u.resolved[nameID] = u.problem(symbols.ProblemInvalidRedefinition, spelling, other)
				return u.detachedClass(ctx, tmpl)
			}
			ob.Decls = append(ob.Decls, nameID)
			ob.Flags &^= symbols.FlagFriend
			u.tab.Declare(ctx.scope, spelling, other, u.namePos(nameID), false)
			u.resolved[nameID] = other
			return other
		case ob.Kind == symbols.KindTypedef || ob.Kind == symbols.KindNamespace ||
			ob.Kind == symbols.KindNamespaceAlias || ob.Kind == symbols.KindEnumeration:
			u.resolved[nameID] = u.problem(symbols.ProblemInvalidRedeclaration, spelling, other)
			return u.detachedClass(ctx, tmpl)
		}
	}
	return u.forwardClass(ctx, nameID, key, tmpl, ctx.scope)
}

// detachedClass is a class binding that is never entered in a scope; the
// body of an invalid definition is still declared in it.
func (u *Unit) detachedClass(ctx *declContext, tmpl *templateContext) symbols.BindingID {
	kind := symbols.KindClass
	var params []symbols.BindingID
	if tmpl != nil && !tmpl.explicit {
		kind = symbols.KindClassTemplate
		params = tmpl.params
	}
	return u.tab.NewBinding(symbols.Binding{
		Kind:           kind,
		Scope:          ctx.scope,
		TemplateParams: params,
	})
}

// qualifiedClass finds the class a qualified definition 'class A::B {...}'
// completes. It returns the class, the parent of its scope and its owner.
func (u *Unit) qualifiedClass(ctx *declContext, nameID ast.NameID, key token.Kind) (symbols.BindingID, symbols.ScopeID, symbols.BindingID) {
	last := u.b.Last(nameID)
	spelling := u.name(u.b.Base(nameID)).Spelling
	qual := u.resolveQualifier(nameID)
	if !u.isProblem(qual) {
		target := u.innerScope(qual)
		mask := symbols.KindClass.Mask() | symbols.KindClassTemplate.Mask()
		for _, id := range u.tab.Local(target, spelling, symbols.Query{Hidden: true, Mask: mask}) {
			b := u.bind(id)
			if b.Flags&symbols.FlagDefined != 0 {
				break
			}
			b.Decls = append(b.Decls, last)
			u.resolved[nameID] = id
			u.resolved[last] = id
			owner := symbols.NoBindingID
			if u.kind(qual).IsClassLike() {
				owner = qual
			}
			return id, target, owner
		}
	}
	p := u.problem(symbols.ProblemMemberDeclarationNotFound, spelling, qual)
	u.resolved[nameID] = p
	u.resolved[last] = p
	id := u.tab.NewBinding(symbols.Binding{Kind: symbols.KindClass, Name: spelling, Scope: ctx.scope, Key: key})
	return id, ctx.lexical, symbols.NoBindingID
}

// declareSpecialization declares an explicit or partial specialization of
// a class template.
func (u *Unit) declareSpecialization(ctx *declContext, nameID ast.NameID, key token.Kind, tmpl *templateContext) symbols.BindingID {
	if id, ok := u.resolved[nameID]; ok && !u.isProblem(id) {
		return id
	}
	nm := u.name(nameID)
	spelling := u.name(nm.Template).Spelling
	primary := u.Resolve(nm.Template)
	if u.kind(primary) != symbols.KindClassTemplate {
		u.resolved[nameID] = u.problem(symbols.ProblemInvalidType, spelling, primary)
		return u.detachedClass(ctx, nil)
	}
	args := u.templateArgs(nameID)
	pb := u.bind(primary)
	scope, owner := pb.Scope, pb.Owner
	if tmpl == nil || tmpl.explicit {
		if prev := u.findInstance(primary, args); prev.IsValid() {
			u.resolved[nameID] = prev
			return prev
		}
		spec := u.tab.NewBinding(symbols.Binding{
			Kind:         symbols.KindClass,
			Name:         spelling,
			Scope:        scope,
			Owner:        owner,
			Flags:        symbols.FlagExplicitSpec,
			Key:          key,
			Decls:        []ast.NameID{nameID},
			Template:     primary,
			TemplateArgs: args,
		})
		u.addInstance(primary, args, spec)
		pb = u.bind(primary)
		pb.Explicit = append(pb.Explicit, spec)
		u.membersDone[spec] = true
		u.resolved[nameID] = spec
		return spec
	}
	spec := u.tab.NewBinding(symbols.Binding{
		Kind:           symbols.KindClassTemplate,
		Name:           spelling,
		Scope:          scope,
		Owner:          owner,
		Flags:          symbols.FlagPartialSpec,
		Key:            key,
		Decls:          []ast.NameID{nameID},
		Template:       primary,
		TemplateArgs:   args,
		TemplateParams: tmpl.params,
	})
	u.tab.Scope(tmpl.scope).Owner = spec
	pb = u.bind(primary)
	pb.Explicit = append(pb.Explicit, spec)
	u.resolved[nameID] = spec
	return spec
}

// injectAnonymous makes the members of an anonymous union or struct
// visible in the enclosing scope.
func (u *Unit) injectAnonymous(ctx *declContext, cls symbols.BindingID) {
	b := u.bind(cls)
	if b == nil || b.Flags&symbols.FlagAnonymous == 0 || !b.Inner.IsValid() {
		return
	}
	inner := b.Inner
	s := u.tab.Scope(inner)
	for _, name := range s.Order {
		for _, e := range s.Entries(name) {
			switch u.kind(e.Binding) {
			case symbols.KindField, symbols.KindVariable:
				u.tab.Declare(ctx.scope, name, e.Binding, e.Pos, false)
			}
		}
	}
	if ctx.class.IsValid() {
		u.addMember(ctx.class, cls)
	}
}

// implicit members -----------------------------------------------------------

type copyKind uint8

const (
	notSpecial copyKind = iota
	copySpecial
	moveSpecial
)

// specialKind classifies a constructor or assignment operator of cls as a
// copy or move operation by its single required parameter.
func (u *Unit) specialKind(fn symbols.BindingID, classType types.TypeID) copyKind {
	b := u.bind(fn)
	info, ok := u.types.FnInfo(u.functionType(fn))
	if !ok || len(info.Params) == 0 || len(info.Params)-b.Defaults > 1 {
		return notSpecial
	}
	p := info.Params[0]
	want := u.types.Canonical(classType)
	switch u.types.Kind(p) {
	case types.KindLRef, types.KindRRef:
		elem, _ := u.types.Unqualified(u.types.Underlying(p).Elem)
		if u.types.Canonical(elem) != want {
			return notSpecial
		}
		if u.types.Kind(p) == types.KindRRef {
			return moveSpecial
		}
		return copySpecial
	default:
		if elem, _ := u.types.Unqualified(p); u.types.Canonical(elem) == want {
			return copySpecial
		}
	}
	return notSpecial
}

// addImplicitMembers synthesizes the special members a class did not
// declare, in the order default constructor, copy constructor, copy
// assignment, destructor, move constructor, move assignment.
func (u *Unit) addImplicitMembers(cls symbols.BindingID) {
	b := u.bind(cls)
	if b == nil || b.Flags&symbols.FlagImplicit != 0 || !b.Inner.IsValid() {
		return
	}
	classType := u.classType(cls)
	var hasCtor, copyCtor, moveCtor, copyAssign, moveAssign, dtor bool
	assign := u.intern("operator=")
	for _, m := range append([]symbols.BindingID(nil), u.bind(cls).Members...) {
		mb := u.bind(m)
		switch {
		case mb.Kind == symbols.KindConstructor:
			hasCtor = true
			switch u.specialKind(m, classType) {
			case copySpecial:
				copyCtor = true
			case moveSpecial:
				moveCtor = true
			}
		case mb.Kind == symbols.KindFunctionTemplate && u.isConstructorTemplate(m):
			hasCtor = true
		case mb.Kind == symbols.KindDestructor:
			dtor = true
		case mb.Kind == symbols.KindMethod && mb.Name == assign:
			switch u.specialKind(m, classType) {
			case copySpecial:
				copyAssign = true
			case moveSpecial:
				moveAssign = true
			}
		}
	}
	in := u.types
	cref := in.LRef(in.Qualify(classType, types.Const))
	ref := in.LRef(classType)
	void := in.Basic(types.Void)
	className := u.bind(cls).Name
	var out []symbols.BindingID
	if !hasCtor {
		out = append(out, u.implicitMember(cls, symbols.KindConstructor, className, nil, void))
	}
	if !copyCtor {
		out = append(out, u.implicitMember(cls, symbols.KindConstructor, className, []types.TypeID{cref}, void))
	}
	if !copyAssign {
		out = append(out, u.implicitMember(cls, symbols.KindMethod, assign, []types.TypeID{cref}, ref))
	}
	if !dtor {
		out = append(out, u.implicitMember(cls, symbols.KindDestructor, u.intern("~"+u.spell(className)), nil, void))
	}
	if !copyCtor && !copyAssign && !moveAssign && !moveCtor && !dtor {
		rref := in.RRef(classType)
		out = append(out, u.implicitMember(cls, symbols.KindConstructor, className, []types.TypeID{rref}, void))
		out = append(out, u.implicitMember(cls, symbols.KindMethod, assign, []types.TypeID{rref}, ref))
	}
	u.bind(cls).Implicit = out
}

func (u *Unit) implicitMember(cls symbols.BindingID, kind symbols.Kind, name source.StringID, params []types.TypeID, result types.TypeID) symbols.BindingID {
	scope := u.bind(cls).Inner
	fnType := u.types.RegisterFn(types.FnInfo{Params: params, Result: result})
	id := u.tab.NewBinding(symbols.Binding{
		Kind:       kind,
		Name:       name,
		Scope:      scope,
		Owner:      cls,
		Flags:      symbols.FlagImplicit | symbols.FlagInline | symbols.FlagDefined,
		Visibility: symbols.VisPublic,
		Type:       fnType,
	})
	ps := make([]symbols.BindingID, len(params))
	for i, p := range params {
		ps[i] = u.tab.NewBinding(symbols.Binding{
			Kind:     symbols.KindParameter,
			Scope:    scope,
			Owner:    id,
			Type:     p,
			Position: i,
		})
	}
	u.bind(id).Params = ps
	if kind != symbols.KindConstructor {
		u.tab.Declare(scope, name, id, 0, false)
	}
	return id
}

// enumerations ---------------------------------------------------------------

func (u *Unit) declareEnum(ctx *declContext, node ast.NodeID) symbols.BindingID {
	es := u.b.EnumSpec(node)
	if es == nil {
		return symbols.NoBindingID
	}
	if id, ok := u.nodeBindings[node]; ok {
		return id
	}
	nameID := u.b.NameOf(es.Name)
	var id symbols.BindingID
	if nameID.IsValid() {
		spelling := u.name(nameID).Spelling
		for _, other := range u.tab.Local(ctx.scope, spelling, symbols.Query{Hidden: true, Mask: symbols.KindEnumeration.Mask()}) {
			if u.bind(other).Flags&symbols.FlagDefined != 0 && !es.Opaque {
				u.resolved[nameID] = u.problem(symbols.ProblemInvalidRedefinition, spelling, other)
				id = u.tab.NewBinding(symbols.Binding{Kind: symbols.KindEnumeration, Name: spelling, Scope: ctx.scope})
				break
			}
			id = other
			ob := u.bind(other)
			ob.Decls = append(ob.Decls, nameID)
			u.resolved[nameID] = other
			break
		}
		if !id.IsValid() {
			id = u.tab.NewBinding(symbols.Binding{
				Kind:       symbols.KindEnumeration,
				Name:       spelling,
				Scope:      ctx.scope,
				Owner:      ctx.class,
				Visibility: ctx.vis,
				Node:       node,
				Decls:      []ast.NameID{nameID},
			})
			u.tab.Declare(ctx.scope, spelling, id, u.namePos(nameID), false)
			u.resolved[nameID] = id
			if ctx.class.IsValid() {
				u.addMember(ctx.class, id)
			}
		}
	} else {
		id = u.tab.NewBinding(symbols.Binding{
			Kind:       symbols.KindEnumeration,
			Scope:      ctx.scope,
			Owner:      ctx.class,
			Visibility: ctx.vis,
			Flags:      symbols.FlagAnonymous,
			Node:       node,
		})
		if ctx.class.IsValid() {
			u.addMember(ctx.class, id)
		}
	}
	u.nodeBindings[node] = id
	t := u.types.Enum(uint32(id))
	b := u.bind(id)
	b.Type = t
	if es.Scoped {
		b.Flags |= symbols.FlagScoped
	}
	underlying := u.types.Basic(types.Int)
	if es.Underlying.IsValid() {
		b.Flags |= symbols.FlagFixed
		underlying = u.typeOfTypeID(es.Underlying)
	}
	if !u.bind(id).Inner.IsValid() {
		scope := u.tab.NewScope(symbols.ScopeEnum, ctx.lexical, id, node, u.node(node).Span)
		u.bind(id).Inner = scope
	}
	inner := u.bind(id).Inner
	u.scopes[node] = inner
	u.types.SetEnumInfo(t, types.EnumInfo{Scoped: es.Scoped, Fixed: es.Underlying.IsValid(), Underlying: underlying})
	if es.Opaque {
		return id
	}
	b = u.bind(id)
	b.Flags |= symbols.FlagDefined
	b.DefNode = node
	if nameID.IsValid() {
		b.Def = nameID
	}
	var (
		next       int64
		known      = true
		lo, hi     int64
		enumerator []symbols.BindingID
	)
	for _, en := range es.Enumerators {
		kids := u.node(en).Kids
		if len(kids) == 0 {
			continue
		}
		ename := u.b.NameOf(kids[0])
		spelling := u.name(ename).Spelling
		eid := u.tab.NewBinding(symbols.Binding{
			Kind:       symbols.KindEnumerator,
			Name:       spelling,
			Scope:      inner,
			Owner:      id,
			Flags:      symbols.FlagDefined,
			Visibility: ctx.vis,
			Type:       t,
			Node:       en,
			Decls:      []ast.NameID{ename},
			Def:        ename,
		})
		u.tab.Declare(inner, spelling, eid, u.namePos(ename), false)
		if !es.Scoped {
			u.tab.Declare(ctx.scope, spelling, eid, u.namePos(ename), false)
		}
		u.resolved[ename] = eid
		if len(kids) > 1 {
			next, known = u.constValue(kids[1])
		}
		if known {
			eb := u.bind(eid)
			eb.Value, eb.HasValue = next, true
			lo, hi = min(lo, next), max(hi, next)
			next++
		}
		enumerator = append(enumerator, eid)
	}
	u.bind(id).Enumerators = enumerator
	if !es.Underlying.IsValid() {
		u.types.SetEnumInfo(t, types.EnumInfo{Scoped: es.Scoped, Underlying: u.enumUnderlying(lo, hi)})
	}
	return id
}

// enumUnderlying picks the smallest of int, unsigned, long long and
// unsigned long long holding every enumerator value.
func (u *Unit) enumUnderlying(lo, hi int64) types.TypeID {
	for _, b := range []types.Basic{types.Int, types.UInt, types.LongLong, types.ULongLong} {
		if b.Representable(lo) && b.Representable(hi) {
			return u.types.Basic(b)
		}
	}
	return u.types.Basic(types.LongLong)
}

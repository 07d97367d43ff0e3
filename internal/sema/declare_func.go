package sema

import (
	"cppsema/internal/ast"
	"cppsema/internal/source"
	"cppsema/internal/symbols"
	"cppsema/internal/types"
)

// declInfo is what declareDeclarator learned about a declarator before
// entering it.
type declInfo struct {
	spec, decl, fnDecl, fnDef ast.NodeID
	storage                   ast.StorageFlags
	name, last                ast.NameID
	spelling                  source.StringID
	kind                      symbols.Kind
	target, lexical           symbols.ScopeID
	owner                     symbols.BindingID
	qualified, friend         bool
	vis                       symbols.Visibility
	tmpl                      *templateContext
}

// declareDeclarator declares the entity of one declarator and returns its
// binding, or NoBindingID for unnamed declarators.
func (u *Unit) declareDeclarator(ctx *declContext, spec, decl ast.NodeID, tmpl *templateContext, fnDef ast.NodeID) symbols.BindingID {
	if !decl.IsValid() {
		return symbols.NoBindingID
	}
	di := declInfo{
		spec:    spec,
		decl:    decl,
		fnDecl:  u.functionDeclarator(decl),
		fnDef:   fnDef,
		name:    u.declaratorName(decl),
		target:  ctx.scope,
		lexical: ctx.lexical,
		owner:   ctx.class,
		vis:     ctx.vis,
		tmpl:    tmpl,
	}
	if ds := u.b.DeclSpec(spec); ds != nil {
		di.storage = ds.Storage
	}
	if !di.name.IsValid() {
		u.detachedFunction(&di)
		return symbols.NoBindingID
	}
	di.last = u.b.Last(di.name)
	di.spelling = u.name(u.b.Base(di.name)).Spelling
	di.friend = di.storage&ast.StorageFriend != 0 && ctx.class.IsValid()
	if u.name(di.name).Kind == ast.NameQualified {
		di.qualified = true
		qual := u.resolveQualifier(di.name)
		if u.isProblem(qual) {
			u.resolved[di.name] = qual
			u.resolved[di.last] = qual
			u.detachedFunction(&di)
			return symbols.NoBindingID
		}
		if !di.friend {
			di.target = u.innerScope(qual)
			di.lexical = di.target
			di.owner = symbols.NoBindingID
			if u.kind(qual).IsClassLike() {
				di.owner = qual
			}
		} else {
			di.target = u.innerScope(qual)
		}
	}
	di.kind = u.declaratorKind(&di)
	if di.fnDecl.IsValid() && di.kind != symbols.KindTypedef {
		return u.declareFunction(ctx, &di)
	}
	return u.declareVariable(ctx, &di)
}

func (u *Unit) declaratorKind(di *declInfo) symbols.Kind {
	member := di.owner.IsValid() && !di.friend
	isFn := di.fnDecl.IsValid()
	switch {
	case di.storage&ast.StorageTypedef != 0:
		return symbols.KindTypedef
	case u.name(di.last).Kind == ast.NameDestructor:
		return symbols.KindDestructor
	case !isFn && member:
		return symbols.KindField
	case !isFn:
		return symbols.KindVariable
	case u.name(di.last).Kind == ast.NameConversion && member:
		return symbols.KindConversion
	case member && di.spelling == u.bind(di.owner).Name && u.name(di.last).Kind == ast.NameIdent:
		if di.tmpl != nil && !di.tmpl.explicit {
			return symbols.KindFunctionTemplate
		}
		return symbols.KindConstructor
	case di.tmpl != nil && !di.tmpl.explicit:
		return symbols.KindFunctionTemplate
	case member:
		return symbols.KindMethod
	}
	return symbols.KindFunction
}

// isConstructorTemplate reports a member function template named like its
// class.
func (u *Unit) isConstructorTemplate(id symbols.BindingID) bool {
	b := u.bind(id)
	if b == nil || b.Kind != symbols.KindFunctionTemplate || !b.Owner.IsValid() {
		return false
	}
	return b.Name == u.bind(b.Owner).Name
}

// constructors returns the constructors a class declares or receives
// implicitly.
func (u *Unit) constructors(cls symbols.BindingID) []symbols.BindingID {
	b := u.bind(cls)
	if b == nil {
		return nil
	}
	var out []symbols.BindingID
	for _, m := range b.Members {
		if u.kind(m) == symbols.KindConstructor || u.isConstructorTemplate(m) {
			out = append(out, m)
		}
	}
	for _, m := range b.Implicit {
		if u.kind(m) == symbols.KindConstructor {
			out = append(out, m)
		}
	}
	return out
}

func storageFlags(s ast.StorageFlags) symbols.Flags {
	var f symbols.Flags
	pairs := []struct {
		s ast.StorageFlags
		f symbols.Flags
	}{
		{ast.StorageStatic, symbols.FlagStatic},
		{ast.StorageExtern, symbols.FlagExtern},
		{ast.StorageInline, symbols.FlagInline},
		{ast.StorageConstexpr, symbols.FlagConstexpr},
		{ast.StorageVirtual, symbols.FlagVirtual},
		{ast.StorageExplicit, symbols.FlagExplicit},
		{ast.StorageMutable, symbols.FlagMutable},
	}
	for _, p := range pairs {
		if s&p.s != 0 {
			f |= p.f
		}
	}
	return f
}

// functionFlags collects the flags written on a function declarator.
func (u *Unit) functionFlags(di *declInfo) symbols.Flags {
	f := storageFlags(di.storage)
	if f&symbols.FlagConstexpr != 0 {
		f |= symbols.FlagInline
	}
	d := u.b.Declarator(di.decl)
	switch {
	case d.Pure:
		f |= symbols.FlagPure | symbols.FlagVirtual
	case d.Default:
		f |= symbols.FlagDefaulted | symbols.FlagDefined
	case d.Delete:
		f |= symbols.FlagDeleted | symbols.FlagDefined
	}
	if d.Override {
		f |= symbols.FlagOverride
	}
	if d.Final {
		f |= symbols.FlagFinal
	}
	if di.fnDef.IsValid() {
		f |= symbols.FlagDefined
	}
	if di.owner.IsValid() && !di.qualified && di.fnDef.IsValid() {
		f |= symbols.FlagInline
	}
	return f
}

// declareFunction enters a function, method, constructor or function
// template, merging redeclarations of the same signature.
func (u *Unit) declareFunction(ctx *declContext, di *declInfo) symbols.BindingID {
	proto := u.openPrototypes(di.decl, di.lexical)
	fnType := u.declaratorType(di.spec, di.decl)
	flags := u.functionFlags(di)
	defining := flags&symbols.FlagDefined != 0

	declScope, hidden := di.target, false
	switch {
	case di.friend && di.qualified:
		existing, _ := u.matchFunction(declScope, di, fnType)
		if existing.IsValid() {
			u.addFriend(ctx.class, existing)
			u.resolved[di.name] = existing
			u.resolved[di.last] = existing
		} else {
			p := u.problem(symbols.ProblemMemberDeclarationNotFound, di.spelling)
			u.resolved[di.name] = p
			u.resolved[di.last] = p
		}
		return u.finishFunction(di, u.scratchFunction(di, fnType), proto, false)
	case di.friend:
		declScope, hidden = u.tab.EnclosingNamespace(ctx.scope), true
	case ctx.block:
		// a block-scope declaration names the function of the enclosing
		// namespace
		ns := u.tab.EnclosingNamespace(declScope)
		if existing, _ := u.matchFunction(ns, di, fnType); existing.IsValid() {
			u.tab.Declare(declScope, di.spelling, existing, u.namePos(di.last), false)
			u.resolved[di.name] = existing
			b := u.bind(existing)
			b.Decls = append(b.Decls, di.last)
			return u.finishFunction(di, existing, proto, true)
		}
	}

	if di.tmpl != nil && di.tmpl.explicit && di.kind != symbols.KindFunctionTemplate {
		if spec := u.declareFunctionSpecialization(declScope, di, fnType, flags); spec.IsValid() {
			return u.finishFunction(di, spec, proto, false)
		}
	}

	existing, conflict := u.matchFunction(declScope, di, fnType)
	var id symbols.BindingID
	switch {
	case conflict.IsValid():
		u.resolved[di.name] = conflict
		id = u.scratchFunction(di, fnType)
	case existing.IsValid():
		eb := u.bind(existing)
		if defining && eb.Flags&symbols.FlagDefined != 0 && eb.Flags&symbols.FlagImplicit == 0 {
			u.resolved[di.name] = u.problem(symbols.ProblemInvalidRedefinition, di.spelling, existing)
			id = u.scratchFunction(di, fnType)
			break
		}
		id = existing
		eb.Decls = append(eb.Decls, di.last)
		eb.Flags |= flags &^ symbols.FlagFriend
		if defining {
			eb.Def = di.last
			eb.DefNode = di.defNode()
			eb.Type = fnType
		}
		if !hidden {
			eb.Flags &^= symbols.FlagFriend
			if di.kind != symbols.KindConstructor {
				u.tab.Declare(declScope, di.spelling, existing, u.namePos(di.last), false)
			}
		}
	case di.qualified:
		u.resolved[di.name] = u.problem(symbols.ProblemMemberDeclarationNotFound, di.spelling, u.tab.Scope(declScope).Owner)
		id = u.scratchFunction(di, fnType)
	default:
		id = u.newFunction(di, declScope, fnType, flags)
		if hidden {
			u.bind(id).Flags |= symbols.FlagFriend
			u.bind(id).Owner = symbols.NoBindingID
		}
		if di.kind != symbols.KindConstructor && !u.isConstructorTemplate(id) {
			u.tab.Declare(declScope, di.spelling, id, u.namePos(di.last), hidden)
		}
		if di.owner.IsValid() && !di.friend {
			u.addMember(di.owner, id)
		}
	}
	if di.friend {
		u.addFriend(ctx.class, id)
	}
	return u.finishFunction(di, id, proto, id == existing)
}

func (di *declInfo) defNode() ast.NodeID {
	if di.fnDef.IsValid() {
		return di.fnDef
	}
	return di.decl
}

// finishFunction records the caches of a function declaration and declares
// its parameters in the prototype scope.
func (u *Unit) finishFunction(di *declInfo, id symbols.BindingID, proto symbols.ScopeID, reuse bool) symbols.BindingID {
	if _, ok := u.resolved[di.name]; !ok {
		u.resolved[di.name] = id
	}
	if di.last != di.name {
		if _, ok := u.resolved[di.last]; !ok {
			u.resolved[di.last] = u.resolved[di.name]
		}
	}
	u.nodeBindings[di.decl] = id
	if di.fnDef.IsValid() {
		u.nodeBindings[di.fnDef] = id
	}
	if proto.IsValid() {
		u.tab.Scope(proto).Owner = id
		b := u.bind(id)
		if !b.Inner.IsValid() || di.fnDef.IsValid() {
			b.Inner = proto
		}
		u.declareParams(id, proto, di.fnDecl, reuse)
	}
	return id
}

func (u *Unit) newFunction(di *declInfo, scope symbols.ScopeID, fnType types.TypeID, flags symbols.Flags) symbols.BindingID {
	b := symbols.Binding{
		Kind:  di.kind,
		Name:  di.spelling,
		Scope: scope,
		Flags: flags,
		Type:  fnType,
		Node:  di.decl,
		Decls: []ast.NameID{di.last},
	}
	if di.owner.IsValid() && !di.friend {
		b.Owner = di.owner
		b.Visibility = u.visibilityIn(di)
	}
	if di.kind == symbols.KindFunctionTemplate && di.tmpl != nil {
		b.TemplateParams = di.tmpl.params
	}
	if flags&symbols.FlagDefined != 0 {
		b.Def = di.last
		b.DefNode = di.defNode()
	}
	id := u.tab.NewBinding(b)
	if di.kind == symbols.KindFunctionTemplate && di.tmpl != nil {
		u.tab.Scope(di.tmpl.scope).Owner = id
	}
	return id
}

// visibilityIn is the access of a new member. Out-of-line definitions only
// complete members declared in the class body.
func (u *Unit) visibilityIn(di *declInfo) symbols.Visibility {
	if di.qualified {
		return symbols.VisNone
	}
	return di.vis
}

// scratchFunction is a binding for a function declaration that could not be
// entered; its parameters and body are still declared.
func (u *Unit) scratchFunction(di *declInfo, fnType types.TypeID) symbols.BindingID {
	return u.tab.NewBinding(symbols.Binding{
		Kind:  symbols.KindFunction,
		Name:  di.spelling,
		Scope: di.target,
		Type:  fnType,
		Node:  di.decl,
	})
}

// detachedFunction opens the prototype scopes of an unnamed declarator or
// one whose name could not be resolved.
func (u *Unit) detachedFunction(di *declInfo) {
	proto := u.openPrototypes(di.decl, di.lexical)
	if !proto.IsValid() {
		return
	}
	id := u.tab.NewBinding(symbols.Binding{Kind: symbols.KindFunction, Scope: di.lexical, Node: di.decl})
	u.tab.Scope(proto).Owner = id
	u.bind(id).Inner = proto
	u.nodeBindings[di.decl] = id
	if di.fnDef.IsValid() {
		u.nodeBindings[di.fnDef] = id
	}
	u.declareParams(id, proto, di.fnDecl, false)
}

// matchFunction finds the earlier declaration of the same function in
// scope. A differing return type or a non-function of the same name is a
// conflict.
func (u *Unit) matchFunction(scope symbols.ScopeID, di *declInfo, fnType types.TypeID) (symbols.BindingID, symbols.BindingID) {
	var cands []symbols.BindingID
	if di.kind == symbols.KindConstructor || (di.kind == symbols.KindFunctionTemplate && di.owner.IsValid() && di.spelling == u.bind(di.owner).Name) {
		if owner := u.tab.Scope(scope).Owner; !di.friend && u.kind(owner).IsClassLike() {
			cands = u.bind(owner).Members
		}
	} else {
		cands = u.tab.Local(scope, di.spelling, symbols.Query{Hidden: true})
	}
	for _, c := range cands {
		cb := u.bind(c)
		if cb.Flags&symbols.FlagImplicit != 0 {
			continue
		}
		if !cb.Kind.IsFunction() {
			switch cb.Kind {
			case symbols.KindClass, symbols.KindClassTemplate, symbols.KindEnumeration, symbols.KindUsingDeclaration:
				continue
			}
			return symbols.NoBindingID, u.problem(symbols.ProblemInvalidRedeclaration, di.spelling, c)
		}
		if di.kind == symbols.KindConstructor && cb.Kind != symbols.KindConstructor {
			continue
		}
		if (cb.Kind == symbols.KindFunctionTemplate) != (di.kind == symbols.KindFunctionTemplate) {
			continue
		}
		if !u.sameSignature(cb.Type, fnType) {
			continue
		}
		if !u.sameResult(cb.Type, fnType) {
			return symbols.NoBindingID, u.problem(symbols.ProblemInvalidRedeclaration, di.spelling, c)
		}
		return c, symbols.NoBindingID
	}
	return symbols.NoBindingID, symbols.NoBindingID
}

// declareFunctionSpecialization handles 'template<> R f<A>(P)'. The
// specialization replaces the instance the primary would produce for the
// deduced arguments.
func (u *Unit) declareFunctionSpecialization(scope symbols.ScopeID, di *declInfo, fnType types.TypeID, flags symbols.Flags) symbols.BindingID {
	var explicitArgs []types.Arg
	if nm := u.name(di.last); nm.Kind == ast.NameTemplateID {
		explicitArgs = u.templateArgs(di.last)
	}
	for _, prim := range u.tab.Local(scope, di.spelling, symbols.Query{Hidden: true, Mask: symbols.KindFunctionTemplate.Mask()}) {
		args, ok := u.deduceFromSignature(prim, explicitArgs, fnType)
		if !ok {
			continue
		}
		if prev := u.findInstance(prim, args); prev.IsValid() {
			pb := u.bind(prev)
			pb.Decls = append(pb.Decls, di.last)
			if flags&symbols.FlagDefined != 0 {
				pb.Flags |= symbols.FlagDefined
				pb.Def = di.last
				pb.DefNode = di.defNode()
			}
			u.resolved[di.name] = prev
			return prev
		}
		pb := u.bind(prim)
		spec := u.tab.NewBinding(symbols.Binding{
			Kind:         symbols.KindFunction,
			Name:         di.spelling,
			Scope:        pb.Scope,
			Owner:        pb.Owner,
			Visibility:   pb.Visibility,
			Flags:        flags | symbols.FlagExplicitSpec,
			Type:         fnType,
			Node:         di.decl,
			Decls:        []ast.NameID{di.last},
			Template:     prim,
			TemplateArgs: args,
		})
		if pb.Owner.IsValid() {
			u.bind(spec).Kind = symbols.KindMethod
		}
		if flags&symbols.FlagDefined != 0 {
			sb := u.bind(spec)
			sb.Def = di.last
			sb.DefNode = di.defNode()
		}
		u.addInstance(prim, args, spec)
		pb = u.bind(prim)
		pb.Explicit = append(pb.Explicit, spec)
		u.resolved[di.name] = spec
		return spec
	}
	return symbols.NoBindingID
}

// openPrototypes creates the function prototype scopes of a declarator:
// one for the declared function, returned, and one for every nested
// function declarator such as the parameter list of a function pointer.
func (u *Unit) openPrototypes(decl ast.NodeID, parent symbols.ScopeID) symbols.ScopeID {
	main := u.functionDeclarator(decl)
	var mainScope symbols.ScopeID
	var visit func(d ast.NodeID)
	visit = func(d ast.NodeID) {
		dd := u.b.Declarator(d)
		if dd == nil {
			return
		}
		if dd.Nested.IsValid() {
			visit(dd.Nested)
		}
		if len(dd.Chunks) == 0 || dd.Chunks[0].Kind != ast.ChunkFunction {
			return
		}
		if s, ok := u.scopes[d]; ok {
			if d == main {
				mainScope = s
			}
			return
		}
		scope := u.tab.NewScope(symbols.ScopeFunction, parent, symbols.NoBindingID, d, u.node(d).Span)
		u.scopes[d] = scope
		if d == main {
			mainScope = scope
			return
		}
		fn := u.tab.NewBinding(symbols.Binding{Kind: symbols.KindFunction, Scope: parent, Inner: scope, Node: d})
		u.tab.Scope(scope).Owner = fn
		u.declareParams(fn, scope, d, false)
	}
	visit(decl)
	return mainScope
}

// declareParams declares the parameters of the function chunk of fnDecl in
// scope. Redeclarations share the parameter bindings of the first
// declaration; the definition's names win.
func (u *Unit) declareParams(fn symbols.BindingID, scope symbols.ScopeID, fnDecl ast.NodeID, reuse bool) {
	dd := u.b.Declarator(fnDecl)
	if dd == nil || len(dd.Chunks) == 0 || dd.Chunks[0].Kind != ast.ChunkFunction {
		return
	}
	params := dd.Chunks[0].Params
	if u.isVoidParams(params) {
		params = nil
	}
	var prev []symbols.BindingID
	if reuse {
		prev = u.bind(fn).Params
	}
	out := make([]symbols.BindingID, len(params))
	defaults := 0
	for i, p := range params {
		pdecl := u.paramDeclarator(p)
		pnode := pdecl
		if !pnode.IsValid() {
			pnode = p
		}
		var pid symbols.BindingID
		if i < len(prev) {
			pid = prev[i]
		} else {
			pid = u.tab.NewBinding(symbols.Binding{
				Kind:     symbols.KindParameter,
				Scope:    scope,
				Owner:    fn,
				Node:     pnode,
				Position: i,
			})
		}
		out[i] = pid
		u.nodeBindings[pnode] = pid
		if pdecl.IsValid() {
			u.openPrototypes(pdecl, scope)
		}
		pname := u.declaratorName(pdecl)
		if pname.IsValid() {
			spelling := u.name(pname).Spelling
			pb := u.bind(pid)
			pb.Name = spelling
			pb.Scope = scope
			pb.Decls = append(pb.Decls, pname)
			pb.Def = pname
			u.tab.Declare(scope, spelling, pid, u.namePos(pname), false)
			u.resolved[pname] = pid
		}
		if pd := u.b.Declarator(pdecl); pd != nil && pd.Init.IsValid() {
			u.scanLater(pd.Init)
		}
	}
	for i := len(params) - 1; i >= 0; i-- {
		pd := u.b.Declarator(u.paramDeclarator(params[i]))
		if pd == nil || !pd.Init.IsValid() {
			break
		}
		defaults++
	}
	b := u.bind(fn)
	b.Params = out
	b.Defaults = max(b.Defaults, defaults)
}

// isVoidParams reports the '(void)' parameter list.
func (u *Unit) isVoidParams(params []ast.NodeID) bool {
	if len(params) != 1 {
		return false
	}
	ds := u.b.DeclSpec(u.paramSpec(params[0]))
	if ds == nil || ds.TypeKind != ast.TypeSpecBasic || ds.Basic != ast.BasicVoid || ds.CV != 0 {
		return false
	}
	d := u.b.Declarator(u.paramDeclarator(params[0]))
	return d == nil || (len(d.Ptrs) == 0 && len(d.Chunks) == 0 && !d.Name.IsValid() && !d.Nested.IsValid())
}

// declareFunctionDef declares a function definition and, outside class
// bodies, its body right away.
func (u *Unit) declareFunctionDef(ctx *declContext, id ast.NodeID) {
	fd := u.b.FunctionDef(id)
	if fd == nil {
		return
	}
	tmpl := ctx.take()
	u.declareSpec(ctx, fd.DeclSpec, nil, true)
	u.declareDeclarator(ctx, fd.DeclSpec, fd.Declarator, tmpl, id)
	proto, ok := u.scopes[u.functionDeclarator(fd.Declarator)]
	if !ok {
		proto = ctx.lexical
	}
	u.scopes[id] = proto
	if u.classDepth > 0 {
		u.deferred = append(u.deferred, func() { u.declareBody(id, proto) })
		return
	}
	u.declareBody(id, proto)
}

func (u *Unit) declareBody(fnDef ast.NodeID, proto symbols.ScopeID) {
	fd := u.b.FunctionDef(fnDef)
	for _, ci := range fd.CtorInits {
		u.scanExprs(ci)
	}
	if fd.Body.IsValid() {
		u.scopes[fd.Body] = proto
		for i := 0; i < len(u.node(fd.Body).Kids); i++ {
			u.declareStmt(proto, u.node(fd.Body).Kids[i])
		}
	}
	for _, h := range fd.Handlers {
		u.declareStmt(proto, h)
	}
}

// declareVariable enters variables, fields and typedefs.
func (u *Unit) declareVariable(ctx *declContext, di *declInfo) symbols.BindingID {
	u.openPrototypes(di.decl, di.lexical)
	d := u.b.Declarator(di.decl)
	flags := storageFlags(di.storage) &^ (symbols.FlagVirtual | symbols.FlagExplicit)
	defining := di.kind == symbols.KindTypedef
	switch di.kind {
	case symbols.KindVariable:
		defining = flags&symbols.FlagExtern == 0 || d.Init.IsValid()
		if di.owner.IsValid() {
			// static member definition
			defining = true
		}
	case symbols.KindField:
		defining = flags&symbols.FlagStatic == 0 || d.Init.IsValid()
	}
	if defining {
		flags |= symbols.FlagDefined
	}

	var existing, conflict symbols.BindingID
	for _, c := range u.tab.Local(di.target, di.spelling, symbols.Query{Hidden: true}) {
		cb := u.bind(c)
		switch {
		case cb.Kind == di.kind:
			existing = c
		case di.kind == symbols.KindTypedef && (cb.Kind == symbols.KindClass || cb.Kind == symbols.KindEnumeration):
		case di.kind != symbols.KindTypedef && (cb.Kind.IsClassLike() || cb.Kind == symbols.KindEnumeration):
			// a variable hides a class of the same name
		default:
			conflict = c
		}
		if existing.IsValid() || conflict.IsValid() {
			break
		}
	}

	var id symbols.BindingID
	switch {
	case conflict.IsValid():
		u.resolved[di.name] = u.problem(symbols.ProblemInvalidRedeclaration, di.spelling, conflict)
		id = u.scratchVariable(di, flags)
	case existing.IsValid():
		eb := u.bind(existing)
		switch {
		case di.kind == symbols.KindTypedef:
			if !u.types.IsSameType(u.TypeOf(existing), u.declaratorType(di.spec, di.decl)) {
				u.resolved[di.name] = u.problem(symbols.ProblemInvalidRedeclaration, di.spelling, existing)
				id = u.scratchVariable(di, flags)
			}
		case defining && eb.Flags&symbols.FlagDefined != 0 && !ctx.block:
			u.resolved[di.name] = u.problem(symbols.ProblemInvalidRedefinition, di.spelling, existing)
			id = u.scratchVariable(di, flags)
		case ctx.block && flags&symbols.FlagExtern == 0:
			u.resolved[di.name] = u.problem(symbols.ProblemInvalidRedefinition, di.spelling, existing)
			id = u.scratchVariable(di, flags)
		}
		if id.IsValid() {
			break
		}
		id = existing
		eb = u.bind(existing)
		eb.Decls = append(eb.Decls, di.last)
		eb.Flags |= flags
		if defining {
			eb.Def = di.last
			eb.DefNode = di.decl
		}
	case di.qualified:
		u.resolved[di.name] = u.problem(symbols.ProblemMemberDeclarationNotFound, di.spelling, u.tab.Scope(di.target).Owner)
		id = u.scratchVariable(di, flags)
	default:
		id = u.scratchVariable(di, flags)
		b := u.bind(id)
		if di.owner.IsValid() {
			b.Owner = di.owner
			b.Visibility = ctx.vis
		}
		u.tab.Declare(di.target, di.spelling, id, u.namePos(di.last), false)
		if di.owner.IsValid() {
			u.addMember(di.owner, id)
		}
	}
	if _, ok := u.resolved[di.name]; !ok {
		u.resolved[di.name] = id
	}
	if di.last != di.name {
		if _, ok := u.resolved[di.last]; !ok {
			u.resolved[di.last] = u.resolved[di.name]
		}
	}
	u.nodeBindings[di.decl] = id
	u.scanLater(d.Init)
	u.scanLater(d.BitWidth)
	return id
}

func (u *Unit) scratchVariable(di *declInfo, flags symbols.Flags) symbols.BindingID {
	b := symbols.Binding{
		Kind:  di.kind,
		Name:  di.spelling,
		Scope: di.target,
		Flags: flags,
		Node:  di.decl,
		Decls: []ast.NameID{di.last},
	}
	if flags&symbols.FlagDefined != 0 {
		b.Def = di.last
		b.DefNode = di.decl
	}
	return u.tab.NewBinding(b)
}

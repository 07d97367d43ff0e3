package sema

import (
	"cppsema/internal/ast"
	"cppsema/internal/source"
	"cppsema/internal/symbols"
	"cppsema/internal/token"
)

// declContext is the state of the declaration walk at one nesting level.
type declContext struct {
	// scope receives the declarations.
	scope symbols.ScopeID
	// lexical parents the scopes opened by the declarations; it differs from
	// scope inside template headers.
	lexical symbols.ScopeID
	class   symbols.BindingID
	vis     symbols.Visibility
	tmpl    *templateContext
	block   bool
}

// take hands the pending template header to exactly one declaration.
func (c *declContext) take() *templateContext {
	t := c.tmpl
	c.tmpl = nil
	return t
}

// templateContext is an open template header.
type templateContext struct {
	node     ast.NodeID
	scope    symbols.ScopeID
	params   []symbols.BindingID
	explicit bool
}

func (u *Unit) declareUnit() {
	ctx := &declContext{scope: u.tab.Global, lexical: u.tab.Global}
	u.declareKids(ctx, u.root, 0)
	u.flushDeferred()
}

func (u *Unit) declareKids(ctx *declContext, parent ast.NodeID, from int) {
	for i := from; i < len(u.node(parent).Kids); i++ {
		u.declareNode(ctx, u.node(parent).Kids[i])
	}
}

// flushDeferred runs the member bodies queued while classes were open.
func (u *Unit) flushDeferred() {
	for len(u.deferred) > 0 {
		next := u.deferred[0]
		u.deferred = u.deferred[1:]
		next()
	}
}

func (u *Unit) declareNode(ctx *declContext, id ast.NodeID) {
	n := u.node(id)
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.NodeNamespaceDef:
		u.declareNamespace(ctx, id)
	case ast.NodeNamespaceAlias:
		u.declareNamespaceAlias(ctx, id)
	case ast.NodeUsingDirective:
		u.declareUsingDirective(ctx, id)
	case ast.NodeUsingDecl:
		u.declareUsingDecl(ctx, id)
	case ast.NodeAliasDecl:
		u.declareAlias(ctx, id)
	case ast.NodeTemplateDecl:
		u.declareTemplate(ctx, id)
	case ast.NodeExplicitInst:
		u.declareExplicitInst(id)
	case ast.NodeStaticAssert:
		u.scanLater(id)
	case ast.NodeLinkageSpec:
		u.declareKids(ctx, id, 0)
	case ast.NodeAccessSpec:
		ctx.vis = accessOf(n.Op, ctx.vis)
	case ast.NodeSimpleDecl:
		u.declareSimple(ctx, id)
	case ast.NodeFunctionDef:
		u.declareFunctionDef(ctx, id)
	case ast.NodeDeclStmt:
		u.declareKids(ctx, id, 0)
	case ast.NodeAmbiguousStatement:
		u.resolveAmbiguity(id)
		if !u.node(id).IsAmbiguity() {
			u.declareNode(ctx, id)
		}
	}
}

// scanLater scans expressions now, or once the outermost class is complete
// when the walk is inside a class body.
func (u *Unit) scanLater(id ast.NodeID) {
	if !id.IsValid() {
		return
	}
	if u.classDepth > 0 {
		u.deferred = append(u.deferred, func() { u.scanExprs(id) })
		return
	}
	u.scanExprs(id)
}

func accessOf(tok token.Kind, fallback symbols.Visibility) symbols.Visibility {
	switch tok {
	case token.KwPublic:
		return symbols.VisPublic
	case token.KwProtected:
		return symbols.VisProtected
	case token.KwPrivate:
		return symbols.VisPrivate
	}
	return fallback
}

func defaultAccess(key token.Kind) symbols.Visibility {
	if key == token.KwClass {
		return symbols.VisPrivate
	}
	return symbols.VisPublic
}

// namespaces -----------------------------------------------------------------

func (u *Unit) declareNamespace(ctx *declContext, id ast.NodeID) {
	n := u.node(id)
	from := 0
	var nameID ast.NameID
	if len(n.Kids) > 0 && u.node(n.Kids[0]).Kind == ast.NodeName {
		nameID = u.b.NameOf(n.Kids[0])
		from = 1
	}
	inline := n.Has(ast.FlagInline)
	var scope symbols.ScopeID
	switch nm := u.name(nameID); {
	case nm == nil:
		scope = u.anonymousNamespace(ctx.scope, id)
	case nm.Kind == ast.NameQualified:
		// namespace A::B { ... }
		scope = ctx.scope
		segs := nm.Segments
		var last symbols.BindingID
		for i, seg := range segs {
			scope, last = u.namespaceScope(scope, seg, id, inline && i == len(segs)-1)
		}
		u.resolved[nameID] = last
	default:
		scope, _ = u.namespaceScope(ctx.scope, nameID, id, inline)
	}
	u.scopes[id] = scope
	u.declareKids(&declContext{scope: scope, lexical: scope}, id, from)
}

// namespaceScope reopens or creates the namespace named nameID in parent.
func (u *Unit) namespaceScope(parent symbols.ScopeID, nameID ast.NameID, node ast.NodeID, inline bool) (symbols.ScopeID, symbols.BindingID) {
	spelling := u.name(nameID).Spelling
	var conflicts []symbols.BindingID
	for _, id := range u.tab.Local(parent, spelling, symbols.Query{Hidden: true}) {
		if u.kind(id) == symbols.KindNamespace {
			b := u.bind(id)
			b.Decls = append(b.Decls, nameID)
			u.resolved[nameID] = id
			return b.Inner, id
		}
		conflicts = append(conflicts, id)
	}
	ns := u.tab.NewBinding(symbols.Binding{
		Kind:  symbols.KindNamespace,
		Name:  spelling,
		Scope: parent,
		Node:  node,
		Decls: []ast.NameID{nameID},
		Def:   nameID,
	})
	if inline {
		u.bind(ns).Flags |= symbols.FlagInline
	}
	scope := u.tab.NewScope(symbols.ScopeNamespace, parent, ns, node, u.node(node).Span)
	u.bind(ns).Inner = scope
	if len(conflicts) > 0 {
		u.resolved[nameID] = u.problem(symbols.ProblemInvalidRedeclaration, spelling, append(conflicts, ns)...)
		return scope, ns
	}
	u.tab.Declare(parent, spelling, ns, u.namePos(nameID), false)
	if inline {
		u.tab.AddInline(parent, scope)
	}
	u.resolved[nameID] = ns
	return scope, ns
}

// anonymousNamespace returns the unnamed namespace of parent. All unnamed
// namespace definitions in one scope share it.
func (u *Unit) anonymousNamespace(parent symbols.ScopeID, node ast.NodeID) symbols.ScopeID {
	if s, ok := u.anonNamespaces[parent]; ok {
		return s
	}
	ns := u.tab.NewBinding(symbols.Binding{
		Kind:  symbols.KindNamespace,
		Scope: parent,
		Flags: symbols.FlagAnonymous,
		Node:  node,
	})
	scope := u.tab.NewScope(symbols.ScopeNamespace, parent, ns, node, u.node(node).Span)
	u.bind(ns).Inner = scope
	u.tab.AddUsing(parent, scope, 0)
	u.anonNamespaces[parent] = scope
	return scope
}

func (u *Unit) declareNamespaceAlias(ctx *declContext, id ast.NodeID) {
	n := u.node(id)
	if len(n.Kids) < 2 {
		return
	}
	aliasName := u.b.NameOf(n.Kids[0])
	target := u.namespaceTarget(u.Resolve(u.b.NameOf(n.Kids[1])))
	spelling := u.name(aliasName).Spelling
	alias := u.tab.NewBinding(symbols.Binding{
		Kind:   symbols.KindNamespaceAlias,
		Name:   spelling,
		Scope:  ctx.scope,
		Node:   id,
		Decls:  []ast.NameID{aliasName},
		Def:    aliasName,
		Target: target,
	})
	u.tab.Declare(ctx.scope, spelling, alias, u.namePos(aliasName), false)
	u.resolved[aliasName] = alias
}

func (u *Unit) declareUsingDirective(ctx *declContext, id ast.NodeID) {
	n := u.node(id)
	if len(n.Kids) == 0 {
		return
	}
	ns := u.namespaceTarget(u.Resolve(u.b.NameOf(n.Kids[0])))
	if b := u.bind(ns); b != nil && b.Inner.IsValid() {
		u.tab.AddUsing(ctx.scope, b.Inner, entryPos(n.Span))
	}
}

// declareUsingDecl enters a using-declaration. Its delegates are computed
// on first use.
func (u *Unit) declareUsingDecl(ctx *declContext, id ast.NodeID) {
	n := u.node(id)
	if len(n.Kids) == 0 {
		return
	}
	nameID := u.b.NameOf(n.Kids[0])
	last := u.b.Last(nameID)
	spelling := u.name(u.b.Base(nameID)).Spelling
	using := u.tab.NewBinding(symbols.Binding{
		Kind:       symbols.KindUsingDeclaration,
		Name:       spelling,
		Scope:      ctx.scope,
		Owner:      ctx.class,
		Visibility: ctx.vis,
		Node:       id,
		Decls:      []ast.NameID{last},
		Def:        last,
	})
	u.resolved[nameID] = using
	u.resolved[last] = using
	if ctx.class.IsValid() && u.inheritsConstructors(nameID) {
		// using Base::Base; does not introduce a name
		return
	}
	u.tab.Declare(ctx.scope, spelling, using, u.namePos(last), false)
}

func (u *Unit) inheritsConstructors(nameID ast.NameID) bool {
	quals := u.b.Qualifiers(nameID)
	if len(quals) == 0 {
		return false
	}
	q := u.b.Base(quals[len(quals)-1])
	return u.name(q).Spelling == u.name(u.b.Base(nameID)).Spelling
}

// declareAlias handles 'using X = T;' and alias templates.
func (u *Unit) declareAlias(ctx *declContext, id ast.NodeID) {
	tmpl := ctx.take()
	n := u.node(id)
	if len(n.Kids) < 2 {
		return
	}
	nameID := u.b.NameOf(n.Kids[0])
	spelling := u.name(nameID).Spelling
	kind := symbols.KindTypedef
	var params []symbols.BindingID
	if tmpl != nil && !tmpl.explicit {
		kind = symbols.KindAliasTemplate
		params = tmpl.params
	}
	alias := u.tab.NewBinding(symbols.Binding{
		Kind:           kind,
		Name:           spelling,
		Scope:          ctx.scope,
		Owner:          ctx.class,
		Visibility:     ctx.vis,
		Flags:          symbols.FlagDefined,
		Node:           id,
		DefNode:        id,
		Decls:          []ast.NameID{nameID},
		Def:            nameID,
		TemplateParams: params,
	})
	if tmpl != nil {
		u.tab.Scope(tmpl.scope).Owner = alias
	}
	for _, other := range u.tab.Local(ctx.scope, spelling, symbols.Query{Hidden: true}) {
		switch u.kind(other) {
		case symbols.KindTypedef, symbols.KindClass, symbols.KindEnumeration:
		default:
			u.resolved[nameID] = u.problem(symbols.ProblemInvalidRedeclaration, spelling, other, alias)
			return
		}
	}
	u.tab.Declare(ctx.scope, spelling, alias, u.namePos(nameID), false)
	u.resolved[nameID] = alias
	if ctx.class.IsValid() {
		u.addMember(ctx.class, alias)
	}
}

// templates ------------------------------------------------------------------

func (u *Unit) declareTemplate(ctx *declContext, id ast.NodeID) {
	td := u.b.Template(id)
	if td == nil {
		return
	}
	n := u.node(id)
	pscope := u.tab.NewScope(symbols.ScopeTemplateParams, ctx.lexical, symbols.NoBindingID, id, n.Span)
	u.scopes[id] = pscope
	params := u.declareTemplateParams(pscope, td.Params)
	inner := *ctx
	inner.lexical = pscope
	inner.tmpl = &templateContext{
		node:     id,
		scope:    pscope,
		params:   params,
		explicit: n.Has(ast.FlagExplicitSpec),
	}
	u.declareNode(&inner, td.Decl)
	ctx.vis = inner.vis
}

func (u *Unit) declareTemplateParams(scope symbols.ScopeID, params []ast.NodeID) []symbols.BindingID {
	out := make([]symbols.BindingID, 0, len(params))
	for i, p := range params {
		out = append(out, u.declareTemplateParam(scope, p, i))
	}
	return out
}

func (u *Unit) declareTemplateParam(scope symbols.ScopeID, p ast.NodeID, pos int) symbols.BindingID {
	tp := u.b.TemplateParam(p)
	var nameID ast.NameID
	kind := symbols.KindTemplateTypeParam
	switch tp.Kind {
	case ast.TParamType:
		nameID = u.b.NameOf(tp.Name)
	case ast.TParamNonType:
		kind = symbols.KindTemplateNonTypeParam
		nameID = u.declaratorName(u.paramDeclarator(tp.Param))
	case ast.TParamTemplate:
		kind = symbols.KindTemplateTemplateParam
		nameID = u.b.NameOf(tp.Name)
	}
	var spelling source.StringID
	var decls []ast.NameID
	if nameID.IsValid() {
		spelling = u.name(nameID).Spelling
		decls = []ast.NameID{nameID}
	}
	var flags symbols.Flags
	if tp.Pack {
		flags |= symbols.FlagPack
	}
	id := u.tab.NewBinding(symbols.Binding{
		Kind:     kind,
		Name:     spelling,
		Scope:    scope,
		Flags:    flags,
		Node:     p,
		Decls:    decls,
		Def:      nameID,
		Position: pos,
	})
	switch kind {
	case symbols.KindTemplateTypeParam:
		u.bind(id).Type = u.types.TemplateParam(uint32(id))
	case symbols.KindTemplateTemplateParam:
		inner := u.tab.NewScope(symbols.ScopeTemplateParams, scope, id, p, u.node(p).Span)
		u.scopes[p] = inner
		params := u.declareTemplateParams(inner, tp.Params)
		b := u.bind(id)
		b.TemplateParams = params
		b.Type = u.types.TemplateParam(uint32(id))
	}
	if nameID.IsValid() {
		u.tab.Declare(scope, spelling, id, u.namePos(nameID), false)
		u.resolved[nameID] = id
	}
	return id
}

// paramDeclarator returns the declarator of a parameter declaration.
func (u *Unit) paramDeclarator(param ast.NodeID) ast.NodeID {
	n := u.node(param)
	if n == nil {
		return ast.NoNodeID
	}
	for _, k := range n.Kids {
		if u.node(k).Kind == ast.NodeDeclarator {
			return k
		}
	}
	return ast.NoNodeID
}

// paramSpec returns the decl-specifier-seq of a parameter declaration.
func (u *Unit) paramSpec(param ast.NodeID) ast.NodeID {
	n := u.node(param)
	if n == nil {
		return ast.NoNodeID
	}
	for _, k := range n.Kids {
		if u.node(k).Kind == ast.NodeDeclSpec {
			return k
		}
	}
	return ast.NoNodeID
}

// declareExplicitInst instantiates the members of 'template class X<A>;'.
// Function instantiations resolve when their names are requested.
func (u *Unit) declareExplicitInst(id ast.NodeID) {
	n := u.node(id)
	if len(n.Kids) == 0 || u.node(n.Kids[0]).Kind != ast.NodeSimpleDecl {
		return
	}
	spec := u.paramSpec(n.Kids[0])
	ds := u.b.DeclSpec(spec)
	if ds == nil || ds.TypeKind != ast.TypeSpecElaborated {
		return
	}
	cls := u.Resolve(u.b.NameOf(ds.Name))
	if b := u.bind(cls); b != nil && b.Kind == symbols.KindClass {
		u.ensureMembers(cls)
	}
}

// statements -----------------------------------------------------------------

// declareStmt declares the local entities of a statement and scans its
// expressions.
func (u *Unit) declareStmt(scope symbols.ScopeID, id ast.NodeID) {
	n := u.node(id)
	if n == nil || n.Kind == ast.NodeDiscarded {
		return
	}
	switch n.Kind {
	case ast.NodeCompound:
		inner, ok := u.scopes[id]
		if !ok {
			inner = u.tab.NewScope(symbols.ScopeBlock, scope, symbols.NoBindingID, id, n.Span)
			u.scopes[id] = inner
		}
		for i := 0; i < len(u.node(id).Kids); i++ {
			u.declareStmt(inner, u.node(id).Kids[i])
		}
	case ast.NodeDeclStmt:
		ctx := &declContext{scope: scope, lexical: scope, block: true}
		u.declareKids(ctx, id, 0)
	case ast.NodeAmbiguousStatement:
		u.resolveAmbiguity(id)
		if !u.node(id).IsAmbiguity() {
			u.declareStmt(scope, id)
		}
	case ast.NodeIf, ast.NodeWhile, ast.NodeDo, ast.NodeFor, ast.NodeRangeFor, ast.NodeSwitch:
		inner := u.tab.NewScope(symbols.ScopeBlock, scope, symbols.NoBindingID, id, n.Span)
		u.scopes[id] = inner
		c := u.b.Control(id)
		if c == nil {
			return
		}
		u.declareStmt(inner, c.Init)
		u.declareCondition(inner, c.Decl)
		u.scanExprs(c.Range)
		u.declareCondition(inner, c.Cond)
		u.scanExprs(c.Incr)
		u.declareStmt(inner, c.Then)
		u.declareStmt(inner, c.Else)
		u.declareStmt(inner, c.Body)
	case ast.NodeLabel:
		u.declareLabel(scope, id)
		if len(n.Kids) > 1 {
			u.declareStmt(scope, n.Kids[1])
		}
	case ast.NodeCase:
		for i, k := range n.Kids {
			if i == 0 {
				u.scanExprs(k)
				continue
			}
			u.declareStmt(scope, k)
		}
	case ast.NodeDefault, ast.NodeTry:
		for _, k := range n.Kids {
			u.declareStmt(scope, k)
		}
	case ast.NodeCatch:
		inner := u.tab.NewScope(symbols.ScopeBlock, scope, symbols.NoBindingID, id, n.Span)
		u.scopes[id] = inner
		for _, k := range n.Kids {
			if u.node(k).Kind == ast.NodeParamDecl {
				ctx := &declContext{scope: inner, lexical: inner, block: true}
				u.declareDeclarator(ctx, u.paramSpec(k), u.paramDeclarator(k), nil, ast.NoNodeID)
				continue
			}
			u.declareStmt(inner, k)
		}
	case ast.NodeGoto, ast.NodeBreak, ast.NodeContinue, ast.NodeNullStmt:
	default:
		u.scanExprs(id)
	}
}

// declareCondition handles the condition of a control statement: a
// declaration or an expression.
func (u *Unit) declareCondition(scope symbols.ScopeID, id ast.NodeID) {
	n := u.node(id)
	if n == nil {
		return
	}
	if n.Kind == ast.NodeSimpleDecl {
		u.declareSimple(&declContext{scope: scope, lexical: scope, block: true}, id)
		return
	}
	u.scanExprs(id)
}

// declareLabel enters a label in the function scope; labels are visible
// throughout the function body.
func (u *Unit) declareLabel(scope symbols.ScopeID, id ast.NodeID) {
	n := u.node(id)
	if len(n.Kids) == 0 {
		return
	}
	nameID := u.b.NameOf(n.Kids[0])
	spelling := u.name(nameID).Spelling
	fs := u.functionScope(scope)
	if prev := u.tab.Local(fs, spelling, symbols.Query{Mask: symbols.MaskLabels}); len(prev) > 0 {
		u.resolved[nameID] = u.problem(symbols.ProblemInvalidRedefinition, spelling, prev...)
		return
	}
	label := u.tab.NewBinding(symbols.Binding{
		Kind:  symbols.KindLabel,
		Name:  spelling,
		Scope: fs,
		Flags: symbols.FlagDefined,
		Node:  id,
		Decls: []ast.NameID{nameID},
		Def:   nameID,
	})
	u.tab.Declare(fs, spelling, label, 0, false)
	u.resolved[nameID] = label
}

// functionScope returns the innermost function scope around scope.
func (u *Unit) functionScope(scope symbols.ScopeID) symbols.ScopeID {
	for id := scope; id.IsValid(); {
		s := u.tab.Scope(id)
		if s.Kind == symbols.ScopeFunction {
			return id
		}
		id = s.Parent
	}
	return scope
}

// scanExprs declares the lambdas under root and settles expression
// ambiguities eagerly so that later lookups see the chosen tree.
func (u *Unit) scanExprs(root ast.NodeID) {
	if !root.IsValid() {
		return
	}
	u.b.Walk(root, func(id ast.NodeID, n *ast.Node) bool {
		if n.IsAmbiguity() {
			u.resolveAmbiguity(id)
			n = u.node(id)
		}
		if n.Kind == ast.NodeLambda {
			u.declareLambda(id)
			return false
		}
		return true
	})
}

// declareLambda gives a lambda its closure class, call operator and
// function scope, then declares its body.
func (u *Unit) declareLambda(id ast.NodeID) {
	if _, done := u.nodeBindings[id]; done {
		return
	}
	n := u.node(id)
	ld := u.b.Lambda(id)
	scope := u.scopeAt(id)
	closure := u.tab.NewBinding(symbols.Binding{
		Kind:    symbols.KindClass,
		Scope:   scope,
		Flags:   symbols.FlagAnonymous | symbols.FlagImplicit | symbols.FlagDefined,
		Key:     token.KwClass,
		Node:    id,
		DefNode: id,
	})
	u.nodeBindings[id] = closure
	cscope := u.tab.NewScope(symbols.ScopeClass, scope, closure, id, n.Span)
	u.bind(closure).Inner = cscope
	fnScope := u.tab.NewScope(symbols.ScopeFunction, scope, symbols.NoBindingID, id, n.Span)
	callName := u.intern("operator()")
	call := u.tab.NewBinding(symbols.Binding{
		Kind:       symbols.KindMethod,
		Name:       callName,
		Scope:      cscope,
		Owner:      closure,
		Inner:      fnScope,
		Flags:      symbols.FlagInline | symbols.FlagDefined,
		Visibility: symbols.VisPublic,
		Node:       id,
		DefNode:    id,
	})
	u.tab.Scope(fnScope).Owner = call
	u.tab.Declare(cscope, callName, call, 0, false)
	u.bind(closure).Members = []symbols.BindingID{call}
	u.scopes[id] = fnScope
	if ld.Declarator.IsValid() {
		u.scopes[ld.Declarator] = fnScope
		u.declareParams(call, fnScope, ld.Declarator, false)
	}
	for _, c := range ld.Captures {
		u.declareCapture(fnScope, c)
	}
	if ld.Body.IsValid() {
		u.scopes[ld.Body] = fnScope
		for i := 0; i < len(u.node(ld.Body).Kids); i++ {
			u.declareStmt(fnScope, u.node(ld.Body).Kids[i])
		}
	}
}

// declareCapture declares an init-capture; simple captures are references
// resolved on demand.
func (u *Unit) declareCapture(scope symbols.ScopeID, c ast.NodeID) {
	n := u.node(c)
	if len(n.Kids) < 2 || u.node(n.Kids[0]).Kind != ast.NodeName {
		return
	}
	nameID := u.b.NameOf(n.Kids[0])
	spelling := u.name(nameID).Spelling
	u.scanExprs(n.Kids[1])
	v := u.tab.NewBinding(symbols.Binding{
		Kind:  symbols.KindVariable,
		Name:  spelling,
		Scope: scope,
		Flags: symbols.FlagDefined,
		Node:  c,
		Decls: []ast.NameID{nameID},
		Def:   nameID,
	})
	u.tab.Declare(scope, spelling, v, u.namePos(nameID), false)
	u.resolved[nameID] = v
}

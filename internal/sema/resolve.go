package sema

import (
	"time"

	"cppsema/internal/ast"
	"cppsema/internal/source"
	"cppsema/internal/symbols"
	"cppsema/internal/trace"
	"cppsema/internal/types"
)

// Resolve returns the binding a name occurrence denotes. The answer is
// computed once and memoized; a failed resolution yields a problem binding.
// A name that is re-entered while it is being resolved receives a
// provisional RECURSION_IN_LOOKUP problem that is not cached. With
// recursion bindings disabled, a name whose resolution ran into any cycle
// resolves to that problem itself.
func (u *Unit) Resolve(id ast.NameID) symbols.BindingID {
	if b, ok := u.resolved[id]; ok {
		return b
	}
	nm := u.name(id)
	if nm == nil {
		return symbols.NoBindingID
	}
	spelling := nm.Spelling
	if u.resolving[id] {
		u.cyclic[id] = true
		p := u.problem(symbols.ProblemRecursionInLookup, spelling)
		u.bind(p).Flags |= symbols.FlagProvisional
		return p
	}
	u.resolving[id] = true
	u.resolveStack = append(u.resolveStack, id)
	end := u.debugSpan("resolve", u.spell(spelling))
	b := u.resolveName(id)
	end()
	u.resolveStack = u.resolveStack[:len(u.resolveStack)-1]
	delete(u.resolving, id)

	if u.cyclic[id] {
		delete(u.cyclic, id)
		if !u.cfg.AllowRecursionBindings {
			b = u.problem(symbols.ProblemRecursionInLookup, spelling)
			u.resolved[id] = b
		}
	}
	if prev, ok := u.resolved[id]; ok {
		return prev
	}
	if !b.IsValid() {
		b = u.problem(symbols.ProblemNameNotFound, spelling)
	}
	u.resolved[id] = b
	if u.tracer.Level() >= trace.LevelDebug && u.isProblem(b) {
		u.tracer.Emit(&trace.Event{
			Time:   time.Now(),
			Kind:   trace.KindPoint,
			Scope:  trace.ScopeNode,
			Name:   "unresolved",
			Detail: u.spell(spelling) + ": " + u.bind(b).Problem.String(),
		})
	}
	return b
}

// noteCycle marks the innermost name being resolved as having run into a
// cycle of types, expressions or names.
func (u *Unit) noteCycle() {
	if n := len(u.resolveStack); n > 0 {
		u.cyclic[u.resolveStack[n-1]] = true
	}
}

// usage is the syntactic role deciding how a name is looked up.
type usage uint8

const (
	useValue usage = iota
	useType
	useElaborated
	useNamespace
	useMember
	useBase
	useCtorInit
	useLabel
	useUsing
	useDeclarator
)

func (u *Unit) usageOf(id ast.NameID) usage {
	owner := u.b.Owner(id)
	n := u.node(owner)
	if n == nil {
		return useValue
	}
	switch n.Kind {
	case ast.NodeDeclSpec:
		if ds := u.b.DeclSpec(owner); ds != nil && ds.TypeKind == ast.TypeSpecElaborated {
			return useElaborated
		}
		return useType
	case ast.NodeDeclarator:
		d := u.b.Declarator(owner)
		if d != nil && u.b.NameOf(d.Name) == u.topName(id) {
			return useDeclarator
		}
		return useType
	case ast.NodeBaseSpec:
		return useBase
	case ast.NodeCtorInit:
		return useCtorInit
	case ast.NodeGoto:
		return useLabel
	case ast.NodeUsingDirective, ast.NodeNamespaceAlias, ast.NodeNamespaceDef:
		return useNamespace
	case ast.NodeUsingDecl:
		return useUsing
	case ast.NodeMember:
		return useMember
	case ast.NodeTemplateParam, ast.NodeAliasDecl, ast.NodeClassSpec, ast.NodeEnumSpec:
		return useType
	}
	return useValue
}

// topName returns the outermost composite name containing id.
func (u *Unit) topName(id ast.NameID) ast.NameID {
	for {
		c := u.b.Composite(id)
		if !c.IsValid() {
			return id
		}
		id = c
	}
}

func (u *Unit) resolveName(id ast.NameID) symbols.BindingID {
	if comp := u.b.Composite(id); comp.IsValid() {
		cn := u.name(comp)
		switch cn.Kind {
		case ast.NameQualified:
			if cn.Segments[len(cn.Segments)-1] == id {
				whole := u.Resolve(comp)
				if b, ok := u.resolved[id]; ok {
					return b
				}
				return whole
			}
			u.resolveQualifier(comp)
			if b, ok := u.resolved[id]; ok {
				return b
			}
			return u.problem(symbols.ProblemNameNotFound, u.name(id).Spelling)
		case ast.NameTemplateID:
			if cn.Template == id {
				return u.templateOfName(comp)
			}
		}
	}

	switch use := u.usageOf(id); use {
	case useValue:
		return u.resolveValue(id)
	case useMember:
		return u.resolveMember(id)
	case useLabel:
		nm := u.name(id)
		found := u.lookupLabel(u.scopeOfName(id), nm.Spelling)
		if len(found) == 0 {
			return u.problem(symbols.ProblemLabelNotFound, nm.Spelling)
		}
		return found[0]
	case useNamespace:
		return u.resolveNamespaceName(id)
	case useCtorInit:
		return u.resolveMemInit(id)
	case useDeclarator:
		return u.resolveDeclaratorID(id)
	default:
		return u.resolveTypeName(id, use == useElaborated)
	}
}

// candidates runs the lookup a name calls for and returns the bindings
// found before any specialization or overload selection. Qualified names are
// looked up in their qualifier; template-ids look up their template name.
func (u *Unit) candidates(id ast.NameID, mask symbols.KindMask) ([]symbols.BindingID, symbols.BindingID) {
	nm := u.name(id)
	base := u.b.Base(id)
	spelling := u.name(base).Spelling
	if nm.Kind == ast.NameQualified {
		qual := u.resolveQualifier(id)
		if u.isProblem(qual) {
			return nil, qual
		}
		if u.isDependentEntity(qual) {
			return []symbols.BindingID{u.dependentMember(qual, spelling)}, symbols.NoBindingID
		}
		found := u.lookupQualified(qual, spelling, mask, u.namePos(id))
		if len(found) == 0 {
			if u.hasDependentBases(u.scopeEntity(qual)) {
				return []symbols.BindingID{u.dependentMember(qual, spelling)}, symbols.NoBindingID
			}
			return nil, u.problem(symbols.ProblemNameNotFound, spelling, qual)
		}
		if len(found) == 1 && u.isProblem(found[0]) {
			return nil, found[0]
		}
		return found, symbols.NoBindingID
	}
	found := u.lookupUnqualified(u.scopeOfName(id), spelling, mask, u.namePos(id))
	if len(found) == 1 && u.isProblem(found[0]) {
		return nil, found[0]
	}
	return found, symbols.NoBindingID
}

// resolveQualifier resolves every qualifier segment of a qualified name and
// returns the entity the last qualifier denotes. Segments keep the binding
// they name; lookup continues in the entity behind it.
func (u *Unit) resolveQualifier(id ast.NameID) symbols.BindingID {
	nm := u.name(id)
	if nm == nil || nm.Kind != ast.NameQualified {
		return symbols.NoBindingID
	}
	segs := nm.Segments
	cur := symbols.NoBindingID
	if nm.Global {
		cur = u.globalNS
	}
	for i := 0; i < len(segs)-1; i++ {
		seg := segs[i]
		b, ok := u.resolved[seg]
		if !ok {
			b = u.qualifierStep(seg, cur)
			u.resolved[seg] = b
		}
		if u.isProblem(b) {
			return b
		}
		cur = u.scopeEntity(b)
		if u.isProblem(cur) {
			return cur
		}
		if u.isDependentEntity(cur) {
			for _, rest := range segs[i+1 : len(segs)-1] {
				cur = u.dependentMember(cur, u.name(u.b.Base(rest)).Spelling)
				if _, ok := u.resolved[rest]; !ok {
					u.resolved[rest] = cur
				}
			}
			return cur
		}
	}
	return cur
}

// qualifierStep resolves one nested-name-specifier segment looked up in in,
// or unqualified when in is not set.
func (u *Unit) qualifierStep(seg ast.NameID, in symbols.BindingID) symbols.BindingID {
	sn := u.name(seg)
	pos := u.namePos(seg)
	switch sn.Kind {
	case ast.NameDecltype:
		info := u.exprOf(sn.Expr)
		t := u.types.StripRef(info.t)
		if cls, ok := u.types.ClassBinding(t); ok {
			return symbols.BindingID(cls)
		}
		if u.types.IsDependent(t) {
			return u.dependentFor(t)
		}
		if tt := u.types.Underlying(t); tt.Kind == types.KindEnum {
			return symbols.BindingID(tt.Payload)
		}
		return u.problem(symbols.ProblemBadScope, sn.Spelling)
	case ast.NameTemplateID:
		spelling := u.name(sn.Template).Spelling
		var found []symbols.BindingID
		if in.IsValid() {
			found = u.lookupQualified(in, spelling, symbols.MaskTypes, pos)
		} else {
			found = u.lookupUnqualified(u.scopeOfName(seg), spelling, symbols.MaskTypes, pos)
		}
		if len(found) == 0 && in.IsValid() && u.isDependentEntity(in) {
			return u.dependentMember(in, sn.Spelling)
		}
		tmpl, prob := u.single(found, spelling)
		if prob.IsValid() {
			u.resolved[sn.Template] = prob
			return prob
		}
		tmpl = u.templateOf(tmpl)
		u.resolved[sn.Template] = tmpl
		return u.specialize(tmpl, seg)
	}
	var found []symbols.BindingID
	if in.IsValid() {
		if u.isDependentEntity(in) {
			return u.dependentMember(in, sn.Spelling)
		}
		found = u.lookupQualified(in, sn.Spelling, symbols.MaskScopes, pos)
	} else {
		found = u.lookupUnqualified(u.scopeOfName(seg), sn.Spelling, symbols.MaskScopes, pos)
	}
	b, prob := u.single(found, sn.Spelling)
	if prob.IsValid() {
		if in.IsValid() && len(found) == 0 {
			u.bind(prob).Candidates = append(u.bind(prob).Candidates, in)
		}
		return prob
	}
	return b
}

// templateOf maps an injected class name or specialization found in a
// template-id back to its primary template.
func (u *Unit) templateOf(id symbols.BindingID) symbols.BindingID {
	b := u.bind(id)
	if b.IsProblem() {
		return id
	}
	if b.Kind == symbols.KindTypedef || b.Kind == symbols.KindUsingDeclaration {
		e := u.scopeEntity(id)
		if !u.isProblem(e) {
			b, id = u.bind(e), e
		}
	}
	if b.Template.IsValid() && (!b.Kind.IsTemplate() || b.Flags&symbols.FlagPartialSpec != 0) {
		return b.Template
	}
	return id
}

// templateOfName resolves the template named inside a template-id.
func (u *Unit) templateOfName(comp ast.NameID) symbols.BindingID {
	spec := u.Resolve(comp)
	if b, ok := u.resolved[u.name(comp).Template]; ok {
		return b
	}
	sb := u.bind(spec)
	if sb.IsProblem() {
		return spec
	}
	if sb.Template.IsValid() {
		return sb.Template
	}
	return spec
}

// resolveTypeName resolves names appearing where a type is expected.
func (u *Unit) resolveTypeName(id ast.NameID, elaborated bool) symbols.BindingID {
	nm := u.name(id)
	last := u.b.Last(id)
	found, prob := u.candidates(id, symbols.MaskTypes)
	if prob.IsValid() {
		return prob
	}
	spelling := u.name(u.b.Base(id)).Spelling
	if len(found) == 0 {
		if elaborated && nm.Kind == ast.NameIdent {
			owner := u.b.Owner(id)
			if b := u.elaboratedReference(id, u.b.DeclSpec(owner).Key); b.IsValid() {
				return b
			}
		}
		return u.problem(symbols.ProblemNameNotFound, spelling)
	}
	b, prob := u.single(found, spelling)
	if prob.IsValid() {
		return prob
	}
	if ln := u.name(last); ln.Kind == ast.NameTemplateID {
		tmpl := u.templateOf(b)
		u.resolved[ln.Template] = tmpl
		b = u.specialize(tmpl, last)
	}
	if last != id {
		if _, ok := u.resolved[last]; !ok {
			u.resolved[last] = b
		}
	}
	return b
}

// resolveNamespaceName handles using-directives and namespace aliases.
func (u *Unit) resolveNamespaceName(id ast.NameID) symbols.BindingID {
	found, prob := u.candidates(id, symbols.KindNamespace.Mask()|symbols.KindNamespaceAlias.Mask())
	if prob.IsValid() {
		return prob
	}
	spelling := u.name(u.b.Base(id)).Spelling
	b, prob := u.single(found, spelling)
	if prob.IsValid() {
		return prob
	}
	if last := u.b.Last(id); last != id {
		if _, ok := u.resolved[last]; !ok {
			u.resolved[last] = b
		}
	}
	return b
}

// resolveValue resolves names in expressions. Callees are resolved by the
// overload resolution of their call.
func (u *Unit) resolveValue(id ast.NameID) symbols.BindingID {
	owner := u.b.Owner(id)
	u.initializeAt(owner)
	if b, ok := u.resolved[id]; ok {
		return b
	}
	if call := u.calleeCall(owner); call.IsValid() {
		u.exprOf(call)
		if b, ok := u.resolved[id]; ok {
			return b
		}
	}
	if n := u.node(owner); n != nil && n.Kind == ast.NodeIDExpr {
		u.exprOf(owner)
		if b, ok := u.resolved[id]; ok {
			return b
		}
	}
	return u.lookupValue(id, types.NoTypeID)
}

// lookupValue resolves an expression name that is not called. When target
// is a function type the matching overload is chosen.
func (u *Unit) lookupValue(id ast.NameID, target types.TypeID) symbols.BindingID {
	found, prob := u.candidates(id, symbols.KindMaskAny)
	spelling := u.name(u.b.Base(id)).Spelling
	if prob.IsValid() {
		return prob
	}
	found = u.hideTypes(found)
	if len(found) == 0 {
		if u.inTemplate(u.b.Owner(id)) && u.name(id).Kind != ast.NameQualified && u.dependentScope(u.scopeOfName(id)) {
			return u.dependentMember(u.globalNS, spelling)
		}
		return u.problem(symbols.ProblemNameNotFound, spelling)
	}
	last := u.b.Last(id)
	var explicit []types.Arg
	isTemplateID := u.name(last).Kind == ast.NameTemplateID
	if isTemplateID {
		explicit = u.templateArgs(last)
	}
	if len(found) == 1 {
		b := found[0]
		switch {
		case isTemplateID && u.kind(b) == symbols.KindFunctionTemplate:
			u.resolved[u.name(last).Template] = b
			if inst, ok := u.instantiateFunctionExplicit(b, explicit, target); ok {
				b = inst
			}
		case isTemplateID && u.kind(b).IsTemplate():
			u.resolved[u.name(last).Template] = b
			b = u.specialize(b, last)
		}
		u.noteLast(id, b)
		return b
	}
	if target.IsValid() {
		if b := u.selectByType(found, explicit, target); b.IsValid() {
			u.noteLast(id, b)
			return b
		}
	}
	allFunctions := true
	for _, f := range found {
		if !u.kind(f).IsFunction() {
			allFunctions = false
		}
	}
	if !allFunctions {
		if b, prob := u.single(found, spelling); !prob.IsValid() {
			return b
		}
	}
	return u.problem(symbols.ProblemAmbiguousLookup, spelling, found...)
}

func (u *Unit) noteLast(id ast.NameID, b symbols.BindingID) {
	if last := u.b.Last(id); last != id {
		if _, ok := u.resolved[last]; !ok {
			u.resolved[last] = b
		}
	}
}

// selectByType picks the overload whose type matches target, the way an
// overloaded name is resolved when its address initializes a pointer.
func (u *Unit) selectByType(found []symbols.BindingID, explicit []types.Arg, target types.TypeID) symbols.BindingID {
	target = u.types.StripRef(target)
	if tt := u.types.Underlying(target); tt.Kind == types.KindPointer {
		target = tt.Elem
	} else if tt.Kind == types.KindMemberPointer {
		target = tt.Elem
	}
	if _, ok := u.types.FnInfo(target); !ok {
		return symbols.NoBindingID
	}
	var match symbols.BindingID
	for _, f := range found {
		cand := f
		if u.kind(f) == symbols.KindFunctionTemplate {
			inst, ok := u.instantiateFunctionExplicit(f, explicit, target)
			if !ok {
				continue
			}
			cand = inst
		}
		if !u.kind(cand).IsFunction() {
			continue
		}
		if u.types.IsSameType(u.functionType(cand), target) {
			if match.IsValid() && u.kind(match) != symbols.KindFunctionTemplate {
				// non-template wins over a template specialization
				if u.bind(cand).Template.IsValid() {
					continue
				}
			}
			match = cand
		}
	}
	return match
}

// resolveMember resolves the name after '.' or '->'.
func (u *Unit) resolveMember(id ast.NameID) symbols.BindingID {
	owner := u.b.Owner(id)
	if call := u.calleeCall(owner); call.IsValid() {
		u.exprOf(call)
	} else {
		u.exprOf(owner)
	}
	if b, ok := u.resolved[id]; ok {
		return b
	}
	return u.problem(symbols.ProblemNameNotFound, u.name(u.b.Base(id)).Spelling)
}

// resolveMemInit resolves a mem-initializer name: a field or a base class
// of the constructor's class.
func (u *Unit) resolveMemInit(id ast.NameID) symbols.BindingID {
	found, prob := u.candidates(id, symbols.KindMaskAny)
	if prob.IsValid() {
		return prob
	}
	spelling := u.name(u.b.Base(id)).Spelling
	var fields, classes []symbols.BindingID
	for _, f := range found {
		switch {
		case u.kind(f) == symbols.KindField:
			fields = append(fields, f)
		case u.kind(f).IsType():
			classes = append(classes, f)
		}
	}
	if len(fields) > 0 {
		return fields[0]
	}
	b, prob := u.single(classes, spelling)
	if prob.IsValid() {
		return prob
	}
	if last := u.b.Last(id); u.name(last).Kind == ast.NameTemplateID {
		b = u.specialize(u.templateOf(b), last)
	}
	return b
}

// resolveDeclaratorID handles declarator names the declaration pass did not
// bind, such as those of explicit instantiations.
func (u *Unit) resolveDeclaratorID(id ast.NameID) symbols.BindingID {
	owner := u.b.Owner(id)
	if b, ok := u.nodeBindings[owner]; ok {
		return b
	}
	if inst := u.b.Enclosing(owner, ast.NodeExplicitInst); inst.IsValid() {
		spec := u.declSpecOf(owner)
		t := u.declaratorType(spec, owner)
		return u.lookupValue(id, t)
	}
	return u.lookupValue(id, types.NoTypeID)
}

// calleeCall returns the call whose callee is node.
func (u *Unit) calleeCall(node ast.NodeID) ast.NodeID {
	n := u.node(node)
	if n == nil {
		return ast.NoNodeID
	}
	p := u.node(n.Parent)
	if p != nil && p.Kind == ast.NodeCall && len(p.Kids) > 0 && p.Kids[0] == node {
		return n.Parent
	}
	return ast.NoNodeID
}

// dependentScope reports whether lookup from scope passes through a
// template whose parameters are still open.
func (u *Unit) dependentScope(scope symbols.ScopeID) bool {
	for id := scope; id.IsValid(); id = u.tab.Scope(id).Parent {
		if u.tab.Scope(id).Kind == symbols.ScopeTemplateParams {
			return true
		}
	}
	return false
}

// dependentMember returns the binding standing for name looked up in a
// dependent qualifier. The same qualifier type and name share a binding.
func (u *Unit) dependentMember(qual symbols.BindingID, name source.StringID) symbols.BindingID {
	key := dependentKey{qualifier: u.entityType(qual), name: name}
	if b, ok := u.dependents[key]; ok {
		return b
	}
	id := u.tab.NewBinding(symbols.Binding{
		Kind:   symbols.KindDependent,
		Name:   name,
		Target: qual,
		Scope:  u.tab.Global,
	})
	u.bind(id).Type = u.types.TemplateParam(uint32(id))
	u.dependents[key] = id
	return id
}

// dependentFor returns the entity a dependent type stands for.
func (u *Unit) dependentFor(t types.TypeID) symbols.BindingID {
	tt := u.types.Underlying(t)
	switch tt.Kind {
	case types.KindTemplateParam:
		return symbols.BindingID(tt.Payload)
	case types.KindDeferred:
		info, _ := u.types.DeferredInfo(t)
		return u.deferredClass(symbols.BindingID(info.Template), info.Args)
	}
	key := dependentKey{qualifier: u.types.Canonical(t)}
	if b, ok := u.dependents[key]; ok {
		return b
	}
	id := u.tab.NewBinding(symbols.Binding{Kind: symbols.KindDependent, Type: t, Scope: u.tab.Global})
	u.dependents[key] = id
	return id
}

// entityType returns the type a qualifier entity stands for, used to key
// dependent members.
func (u *Unit) entityType(id symbols.BindingID) types.TypeID {
	b := u.bind(id)
	if b == nil || b.Kind == symbols.KindNamespace {
		return types.NoTypeID
	}
	if b.Type.IsValid() {
		return u.types.Canonical(b.Type)
	}
	return u.types.TemplateParam(uint32(id))
}

package sema

import (
	"maps"
	"slices"
	"strings"

	"cppsema/internal/ast"
	"cppsema/internal/symbols"
	"cppsema/internal/types"
)

// argMap binds template parameters to arguments. classes maps a template
// pattern, or a class nested in one, to the specialization produced from
// it, so that the injected class name of the pattern becomes the
// specialization.
type argMap struct {
	params  map[symbols.BindingID]types.Arg
	classes map[symbols.BindingID]symbols.BindingID
}

func newArgMap() argMap {
	return argMap{
		params:  make(map[symbols.BindingID]types.Arg),
		classes: make(map[symbols.BindingID]symbols.BindingID),
	}
}

func (m argMap) clone() argMap {
	out := newArgMap()
	maps.Copy(out.params, m.params)
	maps.Copy(out.classes, m.classes)
	return out
}

func (m argMap) empty() bool { return len(m.params) == 0 && len(m.classes) == 0 }

func (u *Unit) bindParam(m argMap, p symbols.BindingID, a types.Arg) bool {
	if prev, ok := m.params[p]; ok {
		return u.sameArg(prev, a)
	}
	m.params[p] = a
	return true
}

// argsFor returns the arguments in effect for a member of a specialization:
// those of the nearest enclosing specialization.
func (u *Unit) argsFor(id symbols.BindingID) argMap {
	for range maxBaseDepth {
		if m, ok := u.argMaps[id]; ok {
			return m
		}
		b := u.bind(id)
		if b == nil || !b.Owner.IsValid() {
			break
		}
		id = b.Owner
	}
	return argMap{}
}

// substitution ---------------------------------------------------------------

// subst replaces the template parameters t mentions by their arguments.
// Classes of the pattern map to their counterpart in the specialization;
// template-ids whose arguments become concrete are instantiated.
func (u *Unit) subst(t types.TypeID, m argMap) types.TypeID {
	if !t.IsValid() || m.empty() {
		return t
	}
	return u.substType(t, m, 0)
}

func (u *Unit) substType(t types.TypeID, m argMap, depth int) types.TypeID {
	if depth > maxBaseDepth {
		return t
	}
	tt, ok := u.types.Lookup(t)
	if !ok {
		return t
	}
	in := u.types
	sub := func(x types.TypeID) types.TypeID { return u.substType(x, m, depth+1) }
	switch tt.Kind {
	case types.KindTemplateParam:
		return u.substParam(symbols.BindingID(tt.Payload), t, m, depth)
	case types.KindDeferred:
		return u.substDeferred(t, m, depth)
	case types.KindClass:
		if c := u.substMember(symbols.BindingID(tt.Payload), m, 0); c != symbols.BindingID(tt.Payload) {
			return in.Class(uint32(c))
		}
	case types.KindEnum:
		if e := u.substMember(symbols.BindingID(tt.Payload), m, 0); e != symbols.BindingID(tt.Payload) {
			return in.Enum(uint32(e))
		}
	case types.KindTypedef:
		if elem := sub(tt.Elem); elem != tt.Elem {
			return elem
		}
	case types.KindQualified:
		return in.Qualify(sub(tt.Elem), tt.CV)
	case types.KindPointer:
		return in.Pointer(sub(tt.Elem))
	case types.KindLRef:
		return in.LRef(sub(tt.Elem))
	case types.KindRRef:
		return in.RRef(sub(tt.Elem))
	case types.KindMemberPointer:
		return in.Intern(types.MakeMemberPointer(sub(tt.Class), sub(tt.Elem)))
	case types.KindArray:
		return in.Intern(types.MakeArray(sub(tt.Elem), tt.Count, tt.Bound))
	case types.KindFunction:
		info, _ := in.FnInfo(t)
		out := *info
		out.Params = slices.Clone(info.Params)
		for i, p := range out.Params {
			out.Params[i] = in.AdjustParam(sub(p))
		}
		out.Result = sub(out.Result)
		return in.RegisterFn(out)
	}
	return t
}

func (u *Unit) substParam(p symbols.BindingID, t types.TypeID, m argMap, depth int) types.TypeID {
	if a, ok := m.params[p]; ok && !a.IsValue && a.Type.IsValid() {
		return a.Type
	}
	b := u.bind(p)
	if b == nil || b.Kind != symbols.KindDependent {
		return t
	}
	if !b.Name.IsValid() {
		if b.Type.IsValid() && b.Type != t {
			return u.substType(b.Type, m, depth+1)
		}
		return t
	}
	target, name := b.Target, b.Name
	if target == u.globalNS {
		return t
	}
	qual := u.substEntity(target, m, depth+1)
	switch {
	case !qual.IsValid() || qual == target:
		return t
	case u.isDependentEntity(qual):
		return u.TypeOf(u.dependentMember(qual, name))
	}
	for _, f := range u.lookupQualified(qual, name, symbols.MaskTypes, 0) {
		if u.kind(f).IsType() {
			return u.TypeOf(f)
		}
	}
	return u.types.Problem(types.ProblemInvalidType)
}

// substEntity maps a qualifier entity through m.
func (u *Unit) substEntity(e symbols.BindingID, m argMap, depth int) symbols.BindingID {
	b := u.bind(e)
	if b == nil {
		return e
	}
	switch b.Kind {
	case symbols.KindTemplateTypeParam, symbols.KindDependent:
		self := u.types.TemplateParam(uint32(e))
		if b.Kind == symbols.KindDependent && b.Type.IsValid() {
			self = b.Type
		}
		t := u.substType(self, m, depth)
		if t == self {
			return e
		}
		return u.entityOfType(t)
	case symbols.KindTemplateTemplateParam:
		if a, ok := m.params[e]; ok && a.Template != 0 {
			return symbols.BindingID(a.Template)
		}
		return e
	case symbols.KindClass:
		if b.Flags&symbols.FlagDeferred != 0 {
			return u.entityOfType(u.substType(b.Type, m, depth))
		}
		return u.substMember(e, m, 0)
	case symbols.KindClassTemplate, symbols.KindEnumeration:
		return u.substMember(e, m, 0)
	}
	return e
}

// entityOfType returns the class or enumeration behind t, or the dependent
// entity standing for it.
func (u *Unit) entityOfType(t types.TypeID) symbols.BindingID {
	if c, ok := u.types.ClassBinding(t); ok {
		return symbols.BindingID(c)
	}
	if u.types.IsDependent(t) {
		return u.dependentFor(t)
	}
	if tt := u.types.Underlying(t); tt.Kind == types.KindEnum {
		return symbols.BindingID(tt.Payload)
	}
	return symbols.NoBindingID
}

// substMember maps a member of a template pattern to the corresponding
// member of the specialization m produces.
func (u *Unit) substMember(id symbols.BindingID, m argMap, depth int) symbols.BindingID {
	if to, ok := m.classes[id]; ok {
		return to
	}
	if depth > maxBaseDepth || len(m.classes) == 0 {
		return id
	}
	owner := u.bind(id).Owner
	if !owner.IsValid() {
		return id
	}
	if k := u.kind(owner); !k.IsClassLike() && k != symbols.KindEnumeration {
		return id
	}
	to := u.substMember(owner, m, depth+1)
	if to == owner {
		return id
	}
	u.ensureMembers(to)
	if mem, ok := u.memberOf[memberKey{owner: to, pattern: id}]; ok {
		return mem
	}
	return id
}

func (u *Unit) substDeferred(t types.TypeID, m argMap, depth int) types.TypeID {
	info, ok := u.types.DeferredInfo(t)
	if !ok {
		return t
	}
	tmpl := symbols.BindingID(info.Template)
	args := slices.Clone(info.Args)
	for i, a := range args {
		args[i] = u.substArg(a, m, depth)
	}
	if u.kind(tmpl) == symbols.KindTemplateTemplateParam {
		if a, ok := m.params[tmpl]; ok && a.Template != 0 {
			tmpl = symbols.BindingID(a.Template)
		}
	} else {
		tmpl = u.substMember(tmpl, m, 0)
	}
	if u.kind(tmpl) == symbols.KindTemplateTemplateParam || u.dependentArgs(args) {
		return u.types.RegisterDeferred(uint32(tmpl), u.types.CanonicalArgs(args))
	}
	return u.typeOfEntity(u.instantiate(tmpl, args))
}

func (u *Unit) substArg(a types.Arg, m argMap, depth int) types.Arg {
	switch {
	case a.Template != 0:
		if to, ok := m.params[symbols.BindingID(a.Template)]; ok && to.Template != 0 {
			return types.Arg{Template: to.Template}
		}
		return a
	case a.IsValue:
		if !a.Dependent {
			return a
		}
		node := ast.NodeID(a.Value)
		if v, ok := u.evalIn(node, m); ok {
			return types.Arg{IsValue: true, Value: v}
		}
		if p := u.paramOfValue(node); p.IsValid() {
			if to, ok := m.params[p]; ok {
				return to
			}
		}
		return a
	}
	return types.Arg{Type: u.substType(a.Type, m, depth+1)}
}

// mentions reports whether t refers to a template parameter pred accepts.
func (u *Unit) mentions(t types.TypeID, pred func(symbols.BindingID) bool, depth int) bool {
	if depth > maxBaseDepth {
		return false
	}
	tt, ok := u.types.Lookup(t)
	if !ok {
		return false
	}
	switch tt.Kind {
	case types.KindTemplateParam:
		return pred(symbols.BindingID(tt.Payload))
	case types.KindPointer, types.KindLRef, types.KindRRef, types.KindQualified, types.KindArray, types.KindTypedef:
		return u.mentions(tt.Elem, pred, depth+1)
	case types.KindMemberPointer:
		return u.mentions(tt.Elem, pred, depth+1) || u.mentions(tt.Class, pred, depth+1)
	case types.KindFunction:
		info, _ := u.types.FnInfo(t)
		ps := slices.Clone(info.Params)
		result := info.Result
		for _, p := range ps {
			if u.mentions(p, pred, depth+1) {
				return true
			}
		}
		return u.mentions(result, pred, depth+1)
	case types.KindDeferred:
		info, _ := u.types.DeferredInfo(t)
		tmpl, args := symbols.BindingID(info.Template), slices.Clone(info.Args)
		if pred(tmpl) {
			return true
		}
		for _, a := range args {
			switch {
			case a.Template != 0:
				if pred(symbols.BindingID(a.Template)) {
					return true
				}
			case a.IsValue:
				if a.Dependent {
					if p := u.paramOfValue(ast.NodeID(a.Value)); p.IsValid() && pred(p) {
						return true
					}
				}
			default:
				if u.mentions(a.Type, pred, depth+1) {
					return true
				}
			}
		}
	}
	return false
}

func (u *Unit) containsParam(t types.TypeID, p symbols.BindingID) bool {
	return u.mentions(t, func(b symbols.BindingID) bool { return b == p }, 0)
}

func (u *Unit) mentionsParams(t types.TypeID, params []symbols.BindingID) bool {
	return u.mentions(t, func(b symbols.BindingID) bool { return slices.Contains(params, b) }, 0)
}

func (u *Unit) dependentArgs(args []types.Arg) bool {
	for _, a := range args {
		switch {
		case a.Template != 0:
			if u.isDependentEntity(symbols.BindingID(a.Template)) {
				return true
			}
		case a.IsValue:
			if a.Dependent {
				return true
			}
		default:
			if u.types.IsDependent(a.Type) {
				return true
			}
		}
	}
	return false
}

// paramOfValue returns the non-type template parameter an argument
// expression names directly.
func (u *Unit) paramOfValue(node ast.NodeID) symbols.BindingID {
	for range maxBaseDepth {
		n := u.node(node)
		if n == nil {
			return symbols.NoBindingID
		}
		switch n.Kind {
		case ast.NodeParen:
			if len(n.Kids) == 0 {
				return symbols.NoBindingID
			}
			node = n.Kids[0]
			continue
		case ast.NodeIDExpr:
			if len(n.Kids) == 0 {
				return symbols.NoBindingID
			}
			b := u.Resolve(u.b.NameOf(n.Kids[0]))
			if u.kind(b) == symbols.KindTemplateNonTypeParam {
				return b
			}
		}
		return symbols.NoBindingID
	}
	return symbols.NoBindingID
}

func (u *Unit) sameArg(a, b types.Arg) bool {
	switch {
	case a.Template != 0 || b.Template != 0:
		return a.Template == b.Template
	case a.IsValue != b.IsValue:
		return false
	case a.IsValue:
		if a.Dependent || b.Dependent {
			if !a.Dependent || !b.Dependent {
				return false
			}
			pa, pb := u.paramOfValue(ast.NodeID(a.Value)), u.paramOfValue(ast.NodeID(b.Value))
			if pa.IsValid() || pb.IsValid() {
				return pa == pb
			}
			return a.Value == b.Value
		}
		return a.Value == b.Value
	}
	return u.types.IsSameType(a.Type, b.Type)
}

// template arguments ---------------------------------------------------------

// templateArgs evaluates the argument list of a template-id. Value
// arguments that depend on template parameters keep their expression.
func (u *Unit) templateArgs(id ast.NameID) []types.Arg {
	if args, ok := u.argLists[id]; ok {
		return args
	}
	nm := u.name(id)
	if nm == nil || nm.Kind != ast.NameTemplateID {
		return nil
	}
	nodes := slices.Clone(nm.Args)
	out := make([]types.Arg, 0, len(nodes))
	for _, a := range nodes {
		out = append(out, u.templateArg(a))
	}
	u.argLists[id] = out
	return out
}

func (u *Unit) templateArg(node ast.NodeID) types.Arg {
	if n := u.node(node); n.IsAmbiguity() {
		u.resolveAmbiguity(node)
	}
	n := u.node(node)
	if n.Kind == ast.NodePackExpansion && len(n.Kids) > 0 {
		node = n.Kids[0]
		n = u.node(node)
	}
	if n.Kind == ast.NodeTypeID {
		if tmpl := u.templateNameArg(node); tmpl.IsValid() {
			return types.Arg{Template: uint32(tmpl)}
		}
		return types.Arg{Type: u.typeOfTypeID(node)}
	}
	if v, ok := u.constValue(node); ok {
		return types.Arg{IsValue: true, Value: v}
	}
	if u.valueDependent(node) {
		return types.Arg{IsValue: true, Dependent: true, Value: int64(node)}
	}
	return types.Arg{IsValue: true}
}

// templateNameArg recognizes a type-id that only names a template, the form
// a template template argument takes. The injected name of a class template
// inside its own definition denotes the current instantiation instead.
func (u *Unit) templateNameArg(node ast.NodeID) symbols.BindingID {
	n := u.node(node)
	if len(n.Kids) != 1 {
		return symbols.NoBindingID
	}
	ds := u.b.DeclSpec(n.Kids[0])
	if ds == nil || ds.TypeKind != ast.TypeSpecNamed || ds.CV != 0 {
		return symbols.NoBindingID
	}
	nameID := u.b.NameOf(ds.Name)
	if k := u.name(u.b.Last(nameID)).Kind; k == ast.NameTemplateID {
		return symbols.NoBindingID
	}
	b := u.Resolve(nameID)
	switch u.kind(b) {
	case symbols.KindTemplateTemplateParam, symbols.KindAliasTemplate:
		return b
	case symbols.KindClassTemplate:
		for cls := u.enclosingClass(u.scopeOfName(nameID)); cls.IsValid(); cls = u.bind(cls).Owner {
			if cls == b {
				return symbols.NoBindingID
			}
		}
		return b
	}
	return symbols.NoBindingID
}

// valueDependent reports expressions naming a non-type template parameter,
// a dependent entity or a dependent type.
func (u *Unit) valueDependent(node ast.NodeID) bool {
	dep := false
	u.b.Walk(node, func(id ast.NodeID, n *ast.Node) bool {
		if dep {
			return false
		}
		switch n.Kind {
		case ast.NodeIDExpr:
			if len(n.Kids) > 0 {
				b := u.Resolve(u.b.NameOf(n.Kids[0]))
				if k := u.kind(b); k == symbols.KindTemplateNonTypeParam || k == symbols.KindDependent {
					dep = true
				}
			}
			return false
		case ast.NodeTypeID:
			dep = u.types.IsDependent(u.typeOfTypeID(id))
			return false
		}
		return true
	})
	return dep
}

// withDefaults completes args with the default arguments of tmpl's
// parameters. It fails when a parameter has neither.
func (u *Unit) withDefaults(tmpl symbols.BindingID, args []types.Arg) ([]types.Arg, bool) {
	params := slices.Clone(u.bind(tmpl).TemplateParams)
	if len(args) >= len(params) {
		return args, true
	}
	out := slices.Clone(args)
	m := u.argsFor(tmpl).clone()
	for i, a := range out {
		m.params[params[i]] = a
	}
	for _, p := range params[len(out):] {
		pb := u.bind(p)
		if pb.Flags&symbols.FlagPack != 0 {
			break
		}
		kind := pb.Kind
		tp := u.b.TemplateParam(pb.Node)
		if tp == nil || !tp.Default.IsValid() {
			return nil, false
		}
		def := tp.Default
		var a types.Arg
		switch kind {
		case symbols.KindTemplateTypeParam:
			a = types.Arg{Type: u.subst(u.typeOfTypeID(def), m)}
		case symbols.KindTemplateNonTypeParam:
			if v, ok := u.evalIn(def, m); ok {
				a = types.Arg{IsValue: true, Value: v}
			} else {
				a = types.Arg{IsValue: true, Dependent: true, Value: int64(def)}
			}
		case symbols.KindTemplateTemplateParam:
			t := u.templateNameArg(def)
			if !t.IsValid() {
				return nil, false
			}
			a = types.Arg{Template: uint32(t)}
		}
		m.params[p] = a
		out = append(out, a)
	}
	return out, true
}

// specialization -------------------------------------------------------------

// specialize resolves the template-id nameID naming tmpl.
func (u *Unit) specialize(tmpl symbols.BindingID, nameID ast.NameID) symbols.BindingID {
	b := u.bind(tmpl)
	if b.IsProblem() {
		return tmpl
	}
	args := u.templateArgs(nameID)
	switch b.Kind {
	case symbols.KindClassTemplate, symbols.KindAliasTemplate, symbols.KindTemplateTemplateParam:
		return u.instantiate(tmpl, args)
	case symbols.KindDependent:
		return u.dependentMember(tmpl, u.name(nameID).Spelling)
	case symbols.KindFunctionTemplate:
		if inst, ok := u.instantiateFunctionExplicit(tmpl, args, types.NoTypeID); ok {
			return inst
		}
		return tmpl
	}
	return u.problem(symbols.ProblemInvalidType, b.Name, tmpl)
}

func (u *Unit) instantiate(tmpl symbols.BindingID, args []types.Arg) symbols.BindingID {
	switch u.kind(tmpl) {
	case symbols.KindClassTemplate:
		return u.instantiateClass(tmpl, args)
	case symbols.KindAliasTemplate:
		return u.instantiateAlias(tmpl, args)
	case symbols.KindTemplateTemplateParam:
		return u.deferredClass(tmpl, args)
	case symbols.KindFunctionTemplate:
		if inst, ok := u.instantiateFunctionExplicit(tmpl, args, types.NoTypeID); ok {
			return inst
		}
	}
	return u.problem(symbols.ProblemInvalidType, u.bind(tmpl).Name, tmpl)
}

// findInstance returns the specialization of tmpl for args, if one exists.
func (u *Unit) findInstance(tmpl symbols.BindingID, args []types.Arg) symbols.BindingID {
	canon := u.types.CanonicalArgs(args)
	for _, id := range u.instances[tmpl][types.HashArgs(uint32(tmpl), canon)] {
		if types.ArgsEqual(u.types.CanonicalArgs(u.bind(id).TemplateArgs), canon) {
			return id
		}
	}
	return symbols.NoBindingID
}

func (u *Unit) addInstance(tmpl symbols.BindingID, args []types.Arg, spec symbols.BindingID) {
	h := types.HashArgs(uint32(tmpl), u.types.CanonicalArgs(args))
	byHash, ok := u.instances[tmpl]
	if !ok {
		byHash = make(map[uint64][]symbols.BindingID)
		u.instances[tmpl] = byHash
	}
	byHash[h] = append(byHash[h], spec)
}

// deferredClass stands for a template-id whose arguments are dependent.
func (u *Unit) deferredClass(tmpl symbols.BindingID, args []types.Arg) symbols.BindingID {
	t := u.types.RegisterDeferred(uint32(tmpl), u.types.CanonicalArgs(args))
	if id, ok := u.deferredClasses[t]; ok {
		return id
	}
	tb := u.bind(tmpl)
	id := u.tab.NewBinding(symbols.Binding{
		Kind:         symbols.KindClass,
		Name:         tb.Name,
		Scope:        tb.Scope,
		Owner:        tb.Owner,
		Flags:        symbols.FlagDeferred,
		Type:         t,
		Template:     tmpl,
		TemplateArgs: slices.Clone(args),
	})
	u.deferredClasses[t] = id
	return id
}

// currentInstantiation recognizes a template-id naming the template (or a
// partial specialization) with its own parameters.
func (u *Unit) currentInstantiation(tmpl symbols.BindingID, args []types.Arg) symbols.BindingID {
	tb := u.bind(tmpl)
	params := slices.Clone(tb.TemplateParams)
	explicit := slices.Clone(tb.Explicit)
	if len(params) == len(args) {
		own := true
		for i, p := range params {
			if !u.namesParam(args[i], p) {
				own = false
				break
			}
		}
		if own {
			return tmpl
		}
	}
	for _, p := range explicit {
		pb := u.bind(p)
		if pb.Flags&symbols.FlagPartialSpec == 0 || len(pb.TemplateArgs) != len(args) {
			continue
		}
		pargs := slices.Clone(pb.TemplateArgs)
		same := true
		for i := range pargs {
			if !u.sameArg(pargs[i], args[i]) {
				same = false
				break
			}
		}
		if same {
			return p
		}
	}
	return symbols.NoBindingID
}

// namesParam reports an argument that is the template parameter p itself.
func (u *Unit) namesParam(a types.Arg, p symbols.BindingID) bool {
	switch u.kind(p) {
	case symbols.KindTemplateNonTypeParam:
		return a.IsValue && a.Dependent && u.paramOfValue(ast.NodeID(a.Value)) == p
	case symbols.KindTemplateTemplateParam:
		return a.Template == uint32(p)
	}
	return !a.IsValue && a.Template == 0 && u.types.Canonical(a.Type) == u.types.TemplateParam(uint32(p))
}

// instantiateClass returns the specialization of a class template for
// args, creating it on first request. The most specialized matching partial
// specialization provides the pattern.
func (u *Unit) instantiateClass(tmpl symbols.BindingID, args []types.Arg) symbols.BindingID {
	if tb := u.bind(tmpl); tb.Flags&symbols.FlagPartialSpec != 0 {
		tmpl = tb.Template
	}
	name := u.bind(tmpl).Name
	args, ok := u.withDefaults(tmpl, args)
	if !ok {
		return u.problem(symbols.ProblemInvalidType, name, tmpl)
	}
	if u.dependentArgs(args) {
		if cur := u.currentInstantiation(tmpl, args); cur.IsValid() {
			return cur
		}
		return u.deferredClass(tmpl, args)
	}
	args = u.types.CanonicalArgs(args)
	if prev := u.findInstance(tmpl, args); prev.IsValid() {
		return prev
	}
	if u.instDepth >= u.cfg.MaxInstantiationDepth {
		u.tooDeep = append(u.tooDeep, tmpl)
		return u.problem(symbols.ProblemInvalidType, name, tmpl)
	}
	end := u.debugSpan("instantiate", u.spell(name))
	defer end()
	pattern, m, candidates := u.selectPattern(tmpl, args)
	if !pattern.IsValid() {
		return u.problem(symbols.ProblemAmbiguousLookup, name, candidates...)
	}
	origin := u.originOf(pattern)
	pb := u.bind(origin)
	tb := u.bind(tmpl)
	spec := u.tab.NewBinding(symbols.Binding{
		Kind:         symbols.KindClass,
		Name:         tb.Name,
		Scope:        tb.Scope,
		Owner:        tb.Owner,
		Visibility:   tb.Visibility,
		Flags:        pb.Flags & (symbols.FlagDefined | symbols.FlagUnion | symbols.FlagFinal),
		Key:          pb.Key,
		Node:         pb.Node,
		DefNode:      pb.DefNode,
		Template:     tmpl,
		TemplateArgs: args,
	})
	u.bind(spec).Type = u.types.Class(uint32(spec))
	m.classes[pattern] = spec
	m.classes[origin] = spec
	u.patterns[spec] = origin
	u.argMaps[spec] = m
	u.addInstance(tmpl, args, spec)
	tb = u.bind(tmpl)
	tb.Specializations = append(tb.Specializations, spec)
	u.openSpecScope(spec, origin, m)
	return spec
}

// openSpecScope gives a specialization its class scope. The scope hangs
// below one binding each template parameter name to its argument.
func (u *Unit) openSpecScope(spec, pattern symbols.BindingID, m argMap) {
	pb := u.bind(pattern)
	if !pb.Inner.IsValid() {
		return
	}
	ps := u.tab.Scope(pb.Inner)
	parent, node, span := ps.Parent, ps.Node, ps.Span
	params := slices.Clone(pb.TemplateParams)
	argScope := u.tab.NewScope(symbols.ScopeTemplateArgs, parent, spec, node, span)
	for _, p := range params {
		a, ok := m.params[p]
		name := u.bind(p).Name
		if !ok || !name.IsValid() {
			continue
		}
		var arg symbols.BindingID
		switch {
		case a.Template != 0:
			arg = symbols.BindingID(a.Template)
		case a.IsValue:
			arg = u.tab.NewBinding(symbols.Binding{
				Kind:     symbols.KindVariable,
				Name:     name,
				Scope:    argScope,
				Flags:    symbols.FlagConstexpr | symbols.FlagImplicit,
				Type:     u.TypeOf(p),
				Value:    a.Value,
				HasValue: !a.Dependent,
			})
		default:
			arg = u.tab.NewBinding(symbols.Binding{
				Kind:  symbols.KindTypedef,
				Name:  name,
				Scope: argScope,
				Flags: symbols.FlagImplicit,
			})
			u.bind(arg).Type = u.types.Typedef(uint32(arg), a.Type)
		}
		u.tab.Declare(argScope, name, arg, 0, false)
	}
	inner := u.tab.NewScope(symbols.ScopeClass, argScope, spec, node, span)
	b := u.bind(spec)
	b.Inner = inner
	u.tab.Declare(inner, b.Name, spec, 0, false)
}

// originOf follows copies of member templates back to the template whose
// definition carries the members.
func (u *Unit) originOf(tmpl symbols.BindingID) symbols.BindingID {
	for range maxBaseDepth {
		p, ok := u.patterns[tmpl]
		if !ok || !u.kind(p).IsTemplate() {
			return tmpl
		}
		tmpl = p
	}
	return tmpl
}

// selectPattern picks the partial specialization matching args, or the
// primary template. Several matches none of which is more specialized than
// the others leave the pattern unset and return them.
func (u *Unit) selectPattern(tmpl symbols.BindingID, args []types.Arg) (symbols.BindingID, argMap, []symbols.BindingID) {
	outer := u.argsFor(tmpl)
	var matched []symbols.BindingID
	var deduced []argMap
	for _, p := range slices.Clone(u.bind(tmpl).Explicit) {
		pb := u.bind(p)
		if pb.Flags&symbols.FlagPartialSpec == 0 {
			continue
		}
		if m, ok := u.matchArgs(pb.TemplateArgs, args, pb.TemplateParams); ok {
			matched = append(matched, p)
			deduced = append(deduced, m)
		}
	}
	if len(matched) > 0 {
		best := -1
		for i := range matched {
			wins := true
			for j := range matched {
				if i != j && !u.moreSpecialized(matched[i], matched[j]) {
					wins = false
					break
				}
			}
			if wins {
				best = i
				break
			}
		}
		if best < 0 {
			return symbols.NoBindingID, argMap{}, matched
		}
		m := deduced[best]
		mergeArgs(m, outer)
		return matched[best], m, nil
	}
	m := outer.clone()
	for i, p := range slices.Clone(u.bind(tmpl).TemplateParams) {
		if i >= len(args) || u.bind(p).Flags&symbols.FlagPack != 0 {
			break
		}
		m.params[p] = args[i]
	}
	return tmpl, m, nil
}

// mergeArgs adds the bindings of src that dst does not override.
func mergeArgs(dst, src argMap) {
	for k, v := range src.params {
		if _, ok := dst.params[k]; !ok {
			dst.params[k] = v
		}
	}
	for k, v := range src.classes {
		if _, ok := dst.classes[k]; !ok {
			dst.classes[k] = v
		}
	}
}

// matchArgs matches concrete args against the argument patterns of a
// partial specialization, deducing its parameters.
func (u *Unit) matchArgs(patterns, args []types.Arg, params []symbols.BindingID) (argMap, bool) {
	if len(patterns) != len(args) {
		return argMap{}, false
	}
	m := newArgMap()
	for i := range patterns {
		if !u.unifyArg(patterns[i], args[i], m, params) {
			return argMap{}, false
		}
	}
	for _, p := range params {
		if _, ok := m.params[p]; !ok && u.bind(p).Flags&symbols.FlagPack == 0 {
			return argMap{}, false
		}
	}
	return m, true
}

func (u *Unit) unifyArg(p, a types.Arg, m argMap, params []symbols.BindingID) bool {
	switch {
	case p.Template != 0:
		if a.Template == 0 {
			return false
		}
		if pt := symbols.BindingID(p.Template); slices.Contains(params, pt) {
			return u.bindParam(m, pt, types.Arg{Template: a.Template})
		}
		return p.Template == a.Template
	case p.IsValue:
		if !a.IsValue {
			return false
		}
		if p.Dependent {
			node := ast.NodeID(p.Value)
			if param := u.paramOfValue(node); param.IsValid() && slices.Contains(params, param) {
				return u.bindParam(m, param, a)
			}
			v, ok := u.evalIn(node, m)
			return ok && !a.Dependent && v == a.Value
		}
		return !a.Dependent && p.Value == a.Value
	}
	if a.IsValue || a.Template != 0 {
		return false
	}
	return u.unify(p.Type, a.Type, m, params, true, 0)
}

// moreSpecialized orders two partial specializations: a is more
// specialized when b matches a's arguments but not the reverse.
func (u *Unit) moreSpecialized(a, b symbols.BindingID) bool {
	return u.atLeastAsSpecialized(a, b) && !u.atLeastAsSpecialized(b, a)
}

func (u *Unit) atLeastAsSpecialized(a, b symbols.BindingID) bool {
	ab, bb := u.bind(a), u.bind(b)
	_, ok := u.matchArgs(slices.Clone(bb.TemplateArgs), slices.Clone(ab.TemplateArgs), slices.Clone(bb.TemplateParams))
	return ok
}

// unify deduces the parameters in params so that P matches A. In exact mode
// the match is structural; otherwise the cv-adjustments allowed for a call
// argument are accepted.
func (u *Unit) unify(P, A types.TypeID, m argMap, params []symbols.BindingID, exact bool, depth int) bool {
	if depth > maxBaseDepth || !P.IsValid() || !A.IsValid() {
		return false
	}
	if !u.mentionsParams(P, params) {
		if exact {
			return u.types.IsSameType(P, A)
		}
		pu, _ := u.types.Unqualified(u.types.Canonical(P))
		au, _ := u.types.Unqualified(u.types.Canonical(A))
		return u.types.IsSameType(P, A) || pu == au
	}
	in := u.types
	pu, pcv := in.Unqualified(in.Canonical(P))
	au, acv := in.Unqualified(in.Canonical(A))
	pt, at := in.MustLookup(pu), in.MustLookup(au)
	if pt.Kind == types.KindTemplateParam {
		p := symbols.BindingID(pt.Payload)
		if !slices.Contains(params, p) {
			// a member of a dependent type is not deducible
			return true
		}
		if acv&pcv != pcv && exact {
			return false
		}
		return u.bindParam(m, p, types.Arg{Type: in.Qualify(au, acv&^pcv)})
	}
	if exact && pcv != acv {
		return false
	}
	switch pt.Kind {
	case types.KindPointer, types.KindLRef, types.KindRRef:
		if at.Kind != pt.Kind {
			return false
		}
		return u.unify(pt.Elem, at.Elem, m, params, exact, depth+1)
	case types.KindMemberPointer:
		if at.Kind != pt.Kind {
			return false
		}
		return u.unify(pt.Class, at.Class, m, params, true, depth+1) &&
			u.unify(pt.Elem, at.Elem, m, params, exact, depth+1)
	case types.KindArray:
		if at.Kind != types.KindArray || (pt.Bound && at.Bound && pt.Count != at.Count) {
			return false
		}
		return u.unify(pt.Elem, at.Elem, m, params, exact, depth+1)
	case types.KindFunction:
		pi, ok1 := in.FnInfo(pu)
		ai, ok2 := in.FnInfo(au)
		if !ok1 || !ok2 {
			return false
		}
		pp, ap := slices.Clone(pi.Params), slices.Clone(ai.Params)
		pr, ar := pi.Result, ai.Result
		if len(pp) != len(ap) || pi.Variadic != ai.Variadic {
			return false
		}
		for i := range pp {
			if !u.unify(pp[i], ap[i], m, params, true, depth+1) {
				return false
			}
		}
		return u.unify(pr, ar, m, params, true, depth+1)
	case types.KindDeferred:
		return u.unifyDeferred(pu, au, m, params, exact, depth)
	}
	return false
}

// unifyDeferred matches a template-id pattern such as A<T> against a
// specialization, or in a call against one of its bases.
func (u *Unit) unifyDeferred(P, A types.TypeID, m argMap, params []symbols.BindingID, exact bool, depth int) bool {
	info, _ := u.types.DeferredInfo(P)
	ptmpl := symbols.BindingID(info.Template)
	pargs := slices.Clone(info.Args)
	try := func(tmpl symbols.BindingID, args []types.Arg, into argMap) bool {
		if slices.Contains(params, ptmpl) {
			if !u.bindParam(into, ptmpl, types.Arg{Template: uint32(tmpl)}) {
				return false
			}
		} else if ptmpl != tmpl {
			return false
		}
		if len(pargs) != len(args) {
			return false
		}
		for i := range pargs {
			if !u.unifyArg(pargs[i], args[i], into, params) {
				return false
			}
		}
		return true
	}
	if ai, ok := u.types.DeferredInfo(A); ok {
		return try(symbols.BindingID(ai.Template), slices.Clone(ai.Args), m)
	}
	cls, ok := u.types.ClassBinding(A)
	if !ok {
		return false
	}
	candidates := []symbols.BindingID{symbols.BindingID(cls)}
	if !exact {
		candidates = append(candidates, u.allBases(symbols.BindingID(cls))...)
	}
	for _, c := range candidates {
		cb := u.bind(c)
		if !cb.Template.IsValid() {
			continue
		}
		trial := m.clone()
		if try(cb.Template, slices.Clone(cb.TemplateArgs), trial) {
			maps.Copy(m.params, trial.params)
			return true
		}
	}
	return false
}

// members --------------------------------------------------------------------

// ensureMembers copies the members of a specialization's pattern into the
// specialization the first time its scope is searched. Member types are
// computed lazily by substitution.
func (u *Unit) ensureMembers(cls symbols.BindingID) {
	if u.membersDone[cls] {
		return
	}
	u.membersDone[cls] = true
	pattern, ok := u.patterns[cls]
	if !ok || u.kind(cls) != symbols.KindClass || !u.bind(cls).Inner.IsValid() {
		return
	}
	pb := u.bind(pattern)
	if pb.Flags&symbols.FlagDefined == 0 {
		return
	}
	end := u.debugSpan("instantiate_members", u.spell(pb.Name))
	defer end()
	u.instDepth++
	defer func() { u.instDepth-- }()
	for _, pm := range slices.Clone(pb.Members) {
		u.instantiateMember(cls, pm)
	}
	u.addImplicitMembers(cls)
}

func (u *Unit) instantiateMember(cls, pm symbols.BindingID) symbols.BindingID {
	if id, ok := u.memberOf[memberKey{owner: cls, pattern: pm}]; ok {
		return id
	}
	src := *u.bind(pm)
	inner := u.bind(cls).Inner
	nb := symbols.Binding{
		Kind:           src.Kind,
		Name:           src.Name,
		Scope:          inner,
		Owner:          cls,
		Flags:          src.Flags,
		Visibility:     src.Visibility,
		Node:           src.Node,
		DefNode:        src.DefNode,
		Decls:          src.Decls,
		Def:            src.Def,
		Key:            src.Key,
		Defaults:       src.Defaults,
		TemplateParams: src.TemplateParams,
		Explicit:       src.Explicit,
		Value:          src.Value,
		HasValue:       src.HasValue,
	}
	if src.Kind == symbols.KindClassTemplate {
		nb.Bases = src.Bases
		nb.Inner = src.Inner
	}
	id := u.tab.NewBinding(nb)
	u.patterns[id] = pm
	u.memberOf[memberKey{owner: cls, pattern: pm}] = id
	if src.Kind.IsClassLike() {
		u.bind(id).Type = u.types.Class(uint32(id))
	}
	switch src.Kind {
	case symbols.KindClass:
		if src.Inner.IsValid() {
			sp := u.tab.Scope(src.Inner)
			scope := u.tab.NewScope(symbols.ScopeClass, inner, id, sp.Node, sp.Span)
			u.bind(id).Inner = scope
			if src.Name.IsValid() {
				u.tab.Declare(scope, src.Name, id, 0, false)
			}
		}
		if src.Flags&symbols.FlagAnonymous != 0 {
			u.ensureMembers(id)
			for _, f := range slices.Clone(u.bind(id).Members) {
				if fb := u.bind(f); fb.Kind == symbols.KindField && fb.Name.IsValid() {
					u.tab.Declare(inner, fb.Name, f, 0, false)
				}
			}
		}
	case symbols.KindEnumeration:
		u.instantiateEnum(id, pm, inner)
	}
	if src.Kind.IsFunction() {
		ps := make([]symbols.BindingID, len(src.Params))
		for i, pp := range src.Params {
			ppb := u.bind(pp)
			np := u.tab.NewBinding(symbols.Binding{
				Kind:     symbols.KindParameter,
				Name:     ppb.Name,
				Scope:    ppb.Scope,
				Owner:    id,
				Node:     ppb.Node,
				Decls:    ppb.Decls,
				Position: i,
			})
			u.patterns[np] = pp
			ps[i] = np
		}
		u.bind(id).Params = ps
	}
	if src.Name.IsValid() && src.Kind != symbols.KindConstructor && !u.isConstructorTemplate(pm) &&
		src.Flags&symbols.FlagAnonymous == 0 {
		u.tab.Declare(inner, src.Name, id, 0, false)
	}
	u.addMember(cls, id)
	return id
}

func (u *Unit) instantiateEnum(id, pattern symbols.BindingID, parent symbols.ScopeID) {
	src := u.bind(pattern)
	scoped := src.Flags&symbols.FlagScoped != 0
	enumerators := slices.Clone(src.Enumerators)
	var span = u.tab.Scope(parent).Span
	if src.Inner.IsValid() {
		span = u.tab.Scope(src.Inner).Span
	}
	scope := u.tab.NewScope(symbols.ScopeEnum, parent, id, src.DefNode, span)
	u.bind(id).Inner = scope
	t := u.types.Enum(uint32(id))
	u.bind(id).Type = t
	if info, ok := u.types.EnumInfo(u.types.Enum(uint32(pattern))); ok {
		info.Underlying = u.subst(info.Underlying, u.argsFor(id))
		u.types.SetEnumInfo(t, info)
	}
	out := make([]symbols.BindingID, 0, len(enumerators))
	for _, pe := range enumerators {
		eb := *u.bind(pe)
		ne := u.tab.NewBinding(symbols.Binding{
			Kind:       symbols.KindEnumerator,
			Name:       eb.Name,
			Scope:      scope,
			Owner:      id,
			Flags:      eb.Flags,
			Visibility: eb.Visibility,
			Node:       eb.Node,
			Decls:      eb.Decls,
			Value:      eb.Value,
			HasValue:   eb.HasValue,
			Type:       t,
		})
		u.patterns[ne] = pe
		u.memberOf[memberKey{owner: id, pattern: pe}] = ne
		u.tab.Declare(scope, eb.Name, ne, 0, false)
		if !scoped {
			u.tab.Declare(parent, eb.Name, ne, 0, false)
		}
		out = append(out, ne)
	}
	u.bind(id).Enumerators = out
}

// instantiateBases substitutes the base clause of a specialization's
// pattern.
func (u *Unit) instantiateBases(cls, pattern symbols.BindingID) {
	m := u.argsFor(cls)
	var out []symbols.Base
	for _, base := range slices.Clone(u.classBases(pattern)) {
		t := base.Type
		if !t.IsValid() && base.Class.IsValid() {
			t = u.TypeOf(base.Class)
		}
		if !t.IsValid() {
			continue
		}
		nb := base
		nb.Type = u.subst(t, m)
		nb.Class = symbols.NoBindingID
		if c, ok := u.types.ClassBinding(nb.Type); ok {
			nb.Class = symbols.BindingID(c)
		}
		out = append(out, nb)
	}
	u.bind(cls).Bases = out
}

// instantiateDelegates substitutes the targets of a using-declaration
// copied into a specialization.
func (u *Unit) instantiateDelegates(using, pattern symbols.BindingID) []symbols.BindingID {
	m := u.argsFor(using)
	var out []symbols.BindingID
	for _, d := range u.delegates(pattern) {
		db := u.bind(d)
		if db.Kind != symbols.KindDependent || !db.Name.IsValid() {
			out = appendUnique(out, u.substMember(d, m, 0))
			continue
		}
		target, name := db.Target, db.Name
		qual := u.substEntity(target, m, 0)
		if !qual.IsValid() || qual == target || u.isDependentEntity(qual) {
			out = appendUnique(out, d)
			continue
		}
		for _, f := range u.lookupQualified(qual, name, symbols.KindMaskAny, 0) {
			if f != using && !u.isProblem(f) {
				out = appendUnique(out, f)
			}
		}
	}
	return out
}

// alias templates ------------------------------------------------------------

func (u *Unit) instantiateAlias(tmpl symbols.BindingID, args []types.Arg) symbols.BindingID {
	name := u.bind(tmpl).Name
	args, ok := u.withDefaults(tmpl, args)
	if !ok {
		return u.problem(symbols.ProblemInvalidType, name, tmpl)
	}
	args = u.types.CanonicalArgs(args)
	if prev := u.findInstance(tmpl, args); prev.IsValid() {
		return prev
	}
	m := u.argsFor(tmpl).clone()
	for i, p := range slices.Clone(u.bind(tmpl).TemplateParams) {
		if i >= len(args) || u.bind(p).Flags&symbols.FlagPack != 0 {
			break
		}
		m.params[p] = args[i]
	}
	tb := u.bind(tmpl)
	inst := u.tab.NewBinding(symbols.Binding{
		Kind:         symbols.KindTypedef,
		Name:         tb.Name,
		Scope:        tb.Scope,
		Owner:        tb.Owner,
		Visibility:   tb.Visibility,
		Flags:        symbols.FlagDefined,
		Node:         tb.Node,
		Template:     tmpl,
		TemplateArgs: args,
	})
	u.patterns[inst] = tmpl
	u.argMaps[inst] = m
	u.addInstance(tmpl, args, inst)
	tb = u.bind(tmpl)
	tb.Specializations = append(tb.Specializations, inst)
	return inst
}

// function templates ---------------------------------------------------------

// deduceOne deduces the parameters in params from one call argument whose
// parameter type is P.
func (u *Unit) deduceOne(P types.TypeID, arg exprInfo, m argMap, params []symbols.BindingID) (argMap, bool) {
	in := u.types
	A := arg.t
	if !A.IsValid() || arg.list {
		return m, false
	}
	if m.params == nil {
		m = newArgMap()
	}
	A = in.StripRef(A)
	if pt := in.Underlying(P); pt.Kind == types.KindLRef || pt.Kind == types.KindRRef {
		if pt.Kind == types.KindRRef && arg.cat == LValue {
			// a forwarding reference deduces an lvalue reference
			if et, cv := in.Unqualified(in.Canonical(pt.Elem)); cv == 0 {
				if tp := in.MustLookup(et); tp.Kind == types.KindTemplateParam && slices.Contains(params, symbols.BindingID(tp.Payload)) {
					return m, u.bindParam(m, symbols.BindingID(tp.Payload), types.Arg{Type: in.LRef(A)})
				}
			}
		}
		P = pt.Elem
	} else {
		A = in.Decay(A)
		P, _ = in.Unqualified(in.Canonical(P))
	}
	return m, u.unify(P, A, m, params, false, 0)
}

// deduceCall deduces the arguments of the function template fn from a call.
func (u *Unit) deduceCall(fn symbols.BindingID, explicit []types.Arg, args []exprInfo) (argMap, bool) {
	params := slices.Clone(u.bind(fn).TemplateParams)
	m := u.argsFor(fn).clone()
	if !u.bindExplicit(m, params, explicit) {
		return argMap{}, false
	}
	info, ok := u.types.FnInfo(u.TypeOf(fn))
	if !ok {
		return argMap{}, false
	}
	ps := slices.Clone(info.Params)
	for i, a := range args {
		if i >= len(ps) {
			break
		}
		if a.list || !u.mentionsParams(ps[i], params) {
			continue
		}
		if _, ok := u.deduceOne(ps[i], a, m, params); !ok {
			return argMap{}, false
		}
	}
	return u.completeDeduction(params, m)
}

func (u *Unit) bindExplicit(m argMap, params []symbols.BindingID, explicit []types.Arg) bool {
	for i, a := range explicit {
		if i >= len(params) {
			return slices.ContainsFunc(params, func(p symbols.BindingID) bool {
				return u.bind(p).Flags&symbols.FlagPack != 0
			})
		}
		if u.bind(params[i]).Flags&symbols.FlagPack != 0 {
			return true
		}
		if !u.bindParam(m, params[i], a) {
			return false
		}
	}
	return true
}

// completeDeduction fills parameters deduction left open from their
// defaults; a parameter without one fails the deduction.
func (u *Unit) completeDeduction(params []symbols.BindingID, m argMap) (argMap, bool) {
	for _, p := range params {
		if _, ok := m.params[p]; ok {
			continue
		}
		pb := u.bind(p)
		if pb.Flags&symbols.FlagPack != 0 {
			continue
		}
		kind := pb.Kind
		tp := u.b.TemplateParam(pb.Node)
		if tp == nil || !tp.Default.IsValid() {
			return argMap{}, false
		}
		def := tp.Default
		switch kind {
		case symbols.KindTemplateTypeParam:
			m.params[p] = types.Arg{Type: u.subst(u.typeOfTypeID(def), m)}
		case symbols.KindTemplateNonTypeParam:
			v, ok := u.evalIn(def, m)
			if !ok {
				return argMap{}, false
			}
			m.params[p] = types.Arg{IsValue: true, Value: v}
		default:
			t := u.templateNameArg(def)
			if !t.IsValid() {
				return argMap{}, false
			}
			m.params[p] = types.Arg{Template: uint32(t)}
		}
	}
	return m, true
}

// instantiateFunction returns the specialization of fn for the deduced
// arguments in m.
func (u *Unit) instantiateFunction(fn symbols.BindingID, m argMap) symbols.BindingID {
	params := slices.Clone(u.bind(fn).TemplateParams)
	args := make([]types.Arg, 0, len(params))
	for _, p := range params {
		a, ok := m.params[p]
		if !ok {
			a = types.Arg{Type: u.types.TemplateParam(uint32(p))}
		}
		args = append(args, a)
	}
	args = u.types.CanonicalArgs(args)
	if prev := u.findInstance(fn, args); prev.IsValid() {
		return prev
	}
	src := *u.bind(fn)
	kind := symbols.KindFunction
	switch {
	case u.isConstructorTemplate(fn):
		kind = symbols.KindConstructor
	case src.Owner.IsValid():
		kind = symbols.KindMethod
		if strings.HasPrefix(u.spell(src.Name), "operator ") {
			kind = symbols.KindConversion
		}
	}
	inst := u.tab.NewBinding(symbols.Binding{
		Kind:         kind,
		Name:         src.Name,
		Scope:        src.Scope,
		Owner:        src.Owner,
		Visibility:   src.Visibility,
		Flags:        src.Flags &^ (symbols.FlagExplicitSpec | symbols.FlagPartialSpec),
		Node:         src.Node,
		DefNode:      src.DefNode,
		Decls:        src.Decls,
		Def:          src.Def,
		Defaults:     src.Defaults,
		Template:     fn,
		TemplateArgs: args,
	})
	u.patterns[inst] = fn
	u.argMaps[inst] = m
	ps := make([]symbols.BindingID, len(src.Params))
	for i, pp := range src.Params {
		ppb := u.bind(pp)
		np := u.tab.NewBinding(symbols.Binding{
			Kind:     symbols.KindParameter,
			Name:     ppb.Name,
			Scope:    ppb.Scope,
			Owner:    inst,
			Node:     ppb.Node,
			Decls:    ppb.Decls,
			Position: i,
		})
		u.patterns[np] = pp
		ps[i] = np
	}
	u.bind(inst).Params = ps
	u.addInstance(fn, args, inst)
	fb := u.bind(fn)
	fb.Specializations = append(fb.Specializations, inst)
	return inst
}

// instantiateFunctionExplicit specializes f from explicit template
// arguments and, when target is a function type, from that type.
func (u *Unit) instantiateFunctionExplicit(f symbols.BindingID, explicit []types.Arg, target types.TypeID) (symbols.BindingID, bool) {
	m, ok := u.deduceFromType(f, explicit, target)
	if !ok {
		return symbols.NoBindingID, false
	}
	return u.instantiateFunction(f, m), true
}

func (u *Unit) deduceFromType(f symbols.BindingID, explicit []types.Arg, target types.TypeID) (argMap, bool) {
	if u.kind(f) != symbols.KindFunctionTemplate {
		return argMap{}, false
	}
	params := slices.Clone(u.bind(f).TemplateParams)
	m := u.argsFor(f).clone()
	if !u.bindExplicit(m, params, explicit) {
		return argMap{}, false
	}
	if target.IsValid() {
		if _, ok := u.types.FnInfo(u.types.Canonical(target)); ok {
			if !u.unify(u.TypeOf(f), target, m, params, true, 0) {
				return argMap{}, false
			}
		}
	}
	return u.completeDeduction(params, m)
}

func (u *Unit) orderedArgs(f symbols.BindingID, m argMap) []types.Arg {
	params := u.bind(f).TemplateParams
	out := make([]types.Arg, 0, len(params))
	for _, p := range params {
		a, ok := m.params[p]
		if !ok {
			a = types.Arg{Type: u.types.TemplateParam(uint32(p))}
		}
		out = append(out, a)
	}
	return u.types.CanonicalArgs(out)
}

// deduceFromSignature deduces the arguments under which the primary
// template prim declares a function of type fnType.
func (u *Unit) deduceFromSignature(prim symbols.BindingID, explicit []types.Arg, fnType types.TypeID) ([]types.Arg, bool) {
	m, ok := u.deduceFromType(prim, explicit, fnType)
	if !ok {
		return nil, false
	}
	return u.orderedArgs(prim, m), true
}

// moreSpecializedFn implements partial ordering of function templates by
// deducing each from the other's parameter types.
func (u *Unit) moreSpecializedFn(a, b symbols.BindingID) bool {
	return u.fnAtLeastAsSpecialized(a, b) && !u.fnAtLeastAsSpecialized(b, a)
}

func (u *Unit) fnAtLeastAsSpecialized(a, b symbols.BindingID) bool {
	pat := func(f symbols.BindingID) symbols.BindingID {
		if fb := u.bind(f); fb.Template.IsValid() && fb.Kind != symbols.KindFunctionTemplate {
			return fb.Template
		}
		return f
	}
	a, b = pat(a), pat(b)
	ia, ok1 := u.types.FnInfo(u.TypeOf(a))
	ib, ok2 := u.types.FnInfo(u.TypeOf(b))
	if !ok1 || !ok2 {
		return false
	}
	pa, pb := slices.Clone(ia.Params), slices.Clone(ib.Params)
	params := slices.Clone(u.bind(b).TemplateParams)
	m := newArgMap()
	for i := 0; i < len(pa) && i < len(pb); i++ {
		P := u.orderingType(pb[i])
		A := u.orderingType(pa[i])
		if !u.mentionsParams(P, params) {
			if !u.types.IsSameType(P, A) {
				return false
			}
			continue
		}
		if !u.unify(P, A, m, params, false, 0) {
			return false
		}
	}
	return true
}

func (u *Unit) orderingType(t types.TypeID) types.TypeID {
	t, _ = u.types.Unqualified(u.types.Canonical(u.types.StripRef(t)))
	return t
}

// signatures -----------------------------------------------------------------

// sameSignature compares two function types with template parameters
// identified by position, so that redeclarations of a template match.
func (u *Unit) sameSignature(a, b types.TypeID) bool {
	ia, ok1 := u.types.FnInfo(a)
	ib, ok2 := u.types.FnInfo(b)
	if !ok1 || !ok2 {
		return u.types.IsSameType(a, b)
	}
	fa, fb := *ia, *ib
	fa.Params, fb.Params = slices.Clone(ia.Params), slices.Clone(ib.Params)
	if len(fa.Params) != len(fb.Params) || fa.Variadic != fb.Variadic || fa.CV != fb.CV || fa.Ref != fb.Ref {
		return false
	}
	for i := range fa.Params {
		if !u.sameModuloParams(fa.Params[i], fb.Params[i]) {
			return false
		}
	}
	return true
}

func (u *Unit) sameResult(a, b types.TypeID) bool {
	ia, ok1 := u.types.FnInfo(a)
	ib, ok2 := u.types.FnInfo(b)
	if !ok1 || !ok2 {
		return true
	}
	ra, rb := ia.Result, ib.Result
	if u.containsParam(ra, u.autoParam) || u.containsParam(rb, u.autoParam) {
		return true
	}
	return u.sameModuloParams(ra, rb)
}

func (u *Unit) sameModuloParams(a, b types.TypeID) bool {
	return u.types.Canonical(u.positionalParams(a)) == u.types.Canonical(u.positionalParams(b))
}

// positionalParams replaces every template parameter of t by a canonical
// parameter of the same position.
func (u *Unit) positionalParams(t types.TypeID) types.TypeID {
	if !u.types.IsDependent(t) {
		return t
	}
	m := newArgMap()
	u.mentions(t, func(p symbols.BindingID) bool {
		pb := u.bind(p)
		if p != u.autoParam && pb != nil && pb.Kind == symbols.KindTemplateTypeParam && pb.Node.IsValid() {
			m.params[p] = types.Arg{Type: u.types.TemplateParam(uint32(u.canonParam(pb.Position)))}
		}
		return false
	}, 0)
	if len(m.params) == 0 {
		return t
	}
	return u.subst(t, m)
}

func (u *Unit) canonParam(pos int) symbols.BindingID {
	for len(u.canonParams) <= pos {
		id := u.tab.NewBinding(symbols.Binding{
			Kind:     symbols.KindTemplateTypeParam,
			Scope:    u.tab.Global,
			Flags:    symbols.FlagImplicit,
			Position: len(u.canonParams),
		})
		u.bind(id).Type = u.types.TemplateParam(uint32(id))
		u.canonParams = append(u.canonParams, id)
	}
	return u.canonParams[pos]
}

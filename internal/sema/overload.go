package sema

import (
	"slices"

	"cppsema/internal/ast"
	"cppsema/internal/source"
	"cppsema/internal/symbols"
	"cppsema/internal/types"
)

// candidate is one function taking part in overload resolution.
type candidate struct {
	fn       symbols.BindingID
	params   []types.TypeID
	required int
	variadic bool
	// object is set for non-static member functions called on an object.
	object   bool
	objConv  ics
	convs    []ics
	template bool
}

// callOpts carries what a call site adds to its arguments.
type callOpts struct {
	obj      *exprInfo
	explicit []types.Arg
	// list marks list-initialization, where a narrowing argument makes a
	// candidate non-viable.
	list bool
	// operands marks operator calls: the first argument is the object of
	// member candidates and an ordinary argument of the others.
	operands bool
	name     source.StringID
}

// selection is the outcome of overload resolution: the chosen function or
// a problem binding.
type selection struct {
	fn      symbols.BindingID
	problem symbols.BindingID
	convs   []ics
}

func (s selection) ok() bool { return s.fn.IsValid() }

// binding returns the function chosen or the problem.
func (s selection) binding() symbols.BindingID {
	if s.fn.IsValid() {
		return s.fn
	}
	return s.problem
}

// signature returns the parameter types of fn, how many of them have no
// default argument, and whether fn takes an ellipsis.
func (u *Unit) signature(fn symbols.BindingID) ([]types.TypeID, int, bool) {
	info, ok := u.types.FnInfo(u.types.Canonical(u.functionType(fn)))
	if !ok {
		return nil, 0, false
	}
	params := slices.Clone(info.Params)
	required := max(len(params)-u.bind(fn).Defaults, 0)
	return params, required, info.Variadic
}

// specializeFor turns a function template into the specialization deduced
// from the call arguments; other functions pass through unchanged.
func (u *Unit) specializeFor(fn symbols.BindingID, explicit []types.Arg, args []exprInfo) (symbols.BindingID, bool) {
	if u.kind(fn) != symbols.KindFunctionTemplate {
		return fn, len(explicit) == 0
	}
	m, ok := u.deduceCall(fn, explicit, args)
	if !ok {
		return symbols.NoBindingID, false
	}
	return u.instantiateFunction(fn, m), true
}

// functionCandidates flattens using-declarations and drops everything that
// is not callable as a function.
func (u *Unit) functionCandidates(found []symbols.BindingID) []symbols.BindingID {
	var out []symbols.BindingID
	for _, f := range found {
		switch k := u.kind(f); {
		case k == symbols.KindUsingDeclaration:
			out = appendUnique(out, u.functionCandidates(u.delegates(f))...)
		case k.IsFunction():
			out = appendUnique(out, f)
		}
	}
	return out
}

// resolveOverload picks the best viable function of fns for args.
func (u *Unit) resolveOverload(fns []symbols.BindingID, args []exprInfo, opts callOpts) selection {
	end := u.debugSpan("overload", u.spell(opts.name))
	defer end()
	fns = u.functionCandidates(fns)
	if len(fns) == 0 {
		return selection{problem: u.problem(symbols.ProblemNameNotFound, opts.name)}
	}
	var viable []*candidate
	for _, f := range fns {
		if c := u.viableCandidate(f, args, opts); c != nil {
			viable = append(viable, c)
		}
	}
	if len(viable) == 0 {
		if opts.list {
			relaxed := opts
			relaxed.list = false
			if sel := u.resolveOverload(fns, args, relaxed); sel.ok() {
				return selection{problem: u.problem(symbols.ProblemNarrowingConversion, opts.name, sel.fn)}
			}
		}
		return selection{problem: u.problem(symbols.ProblemInvalidOverload, opts.name, fns...)}
	}
	best := viable[0]
	for _, c := range viable[1:] {
		if u.better(c, best) {
			best = c
		}
	}
	var tied []symbols.BindingID
	for _, c := range viable {
		if c != best && !u.better(best, c) {
			tied = append(tied, c.fn)
		}
	}
	if len(tied) > 0 {
		return selection{problem: u.problem(symbols.ProblemAmbiguousLookup, opts.name, append([]symbols.BindingID{best.fn}, tied...)...)}
	}
	return selection{fn: best.fn, convs: best.convs}
}

// viableCandidate checks arity and the conversion of every argument; nil
// means f is not viable.
func (u *Unit) viableCandidate(f symbols.BindingID, args []exprInfo, opts callOpts) *candidate {
	var self *ics
	member := opts.operands && len(args) > 0 && u.memberFunction(f)
	var object exprInfo
	if member {
		object, args = args[0], args[1:]
	}
	fn, ok := u.specializeFor(f, opts.explicit, args)
	if !ok {
		return nil
	}
	params, required, variadic := u.signature(fn)
	if member {
		conv := u.objectConversion(fn, object)
		if conv.bad() {
			return nil
		}
		self = &conv
	}
	if len(args) < required || (len(args) > len(params) && !variadic) {
		return nil
	}
	c := &candidate{
		fn:       fn,
		params:   params,
		required: required,
		variadic: variadic,
		template: u.bind(fn).Template.IsValid() && u.kind(u.bind(fn).Template) == symbols.KindFunctionTemplate,
		convs:    make([]ics, len(args)),
	}
	if opts.obj != nil && u.hasObjectParam(fn) {
		c.object = true
		c.objConv = u.objectConversion(fn, *opts.obj)
		if c.objConv.bad() {
			return nil
		}
	}
	for i, a := range args {
		if i >= len(params) {
			c.convs[i] = ics{kind: convEllipsis}
			continue
		}
		user := !(opts.list && len(args) == 1 && u.copyParam(fn, params[i]))
		conv := u.convert(a, params[i], user)
		if conv.bad() || (opts.list && u.narrowingArg(a, params[i], conv)) {
			return nil
		}
		c.convs[i] = conv
	}
	if self != nil {
		c.convs = append([]ics{*self}, c.convs...)
	}
	return c
}

// copyParam reports whether p is the class of constructor fn or a
// reference to it. A single list element reaches such a parameter without a
// user-defined conversion.
func (u *Unit) copyParam(fn symbols.BindingID, p types.TypeID) bool {
	b := u.bind(fn)
	if b.Kind != symbols.KindConstructor || !b.Owner.IsValid() {
		return false
	}
	in := u.types
	t, _ := in.Unqualified(in.Canonical(in.StripRef(p)))
	cls, ok := in.ClassBinding(t)
	return ok && symbols.BindingID(cls) == b.Owner
}

// narrowingArg reports whether passing a to a parameter of type p under
// list-initialization narrows. Nested braced lists carry their own verdict.
func (u *Unit) narrowingArg(a exprInfo, p types.TypeID, c ics) bool {
	if c.narrowing {
		return true
	}
	return !a.list && c.kind == convStandard && u.narrows(a, p)
}

// memberFunction reports non-static member functions and member function
// templates.
func (u *Unit) memberFunction(f symbols.BindingID) bool {
	b := u.bind(f)
	if !b.Owner.IsValid() || b.Flags&symbols.FlagStatic != 0 || b.Kind == symbols.KindFunction {
		return false
	}
	return u.kind(b.Owner).IsClassLike()
}

// hasObjectParam reports member functions with an implicit object
// parameter.
func (u *Unit) hasObjectParam(fn symbols.BindingID) bool {
	b := u.bind(fn)
	if !b.Owner.IsValid() || b.Flags&symbols.FlagStatic != 0 {
		return false
	}
	switch b.Kind {
	case symbols.KindMethod, symbols.KindConversion, symbols.KindDestructor:
		return true
	}
	return false
}

// objectConversion binds the object expression to the implicit object
// parameter of fn. Without a ref-qualifier an rvalue object binds like an
// lvalue, so only the cv-qualification of the binding takes part in
// ranking.
func (u *Unit) objectConversion(fn symbols.BindingID, obj exprInfo) ics {
	in := u.types
	if !obj.t.IsValid() || in.IsDependent(obj.t) {
		return exactConv()
	}
	info, ok := in.FnInfo(u.functionType(fn))
	if !ok {
		return badConv
	}
	cls := u.classType(u.bind(fn).Owner)
	elem := in.Qualify(cls, info.CV)
	o := obj
	if info.Ref == types.RefNone && o.cat != LValue {
		o.cat = LValue
	}
	return u.bindReference(o, info.Ref == types.RefRValue, elem, false)
}

// better reports whether a is a better candidate than b: no argument
// converts worse and at least one converts better, or the tie-breakers
// favor a.
func (u *Unit) better(a, b *candidate) bool {
	improved := false
	if a.object && b.object {
		switch cmp := compareICS(a.objConv, b.objConv); {
		case cmp > 0:
			return false
		case cmp < 0:
			improved = true
		}
	}
	for i := range a.convs {
		switch cmp := compareICS(a.convs[i], b.convs[i]); {
		case cmp > 0:
			return false
		case cmp < 0:
			improved = true
		}
	}
	if improved {
		return true
	}
	if !a.template && b.template {
		return true
	}
	if a.template && b.template {
		return u.moreSpecializedFn(a.fn, b.fn)
	}
	return false
}

// constructor selection -------------------------------------------------------

// selectConstructor chooses the constructor of cls initializing from args.
// List-initialization tries initializer-list constructors first.
func (u *Unit) selectConstructor(cls symbols.BindingID, args []ast.NodeID, list bool) selection {
	infos := make([]exprInfo, len(args))
	for i, a := range args {
		infos[i] = u.exprOf(a)
	}
	return u.selectConstructorFor(cls, infos, list)
}

func (u *Unit) selectConstructorFor(cls symbols.BindingID, args []exprInfo, list bool) selection {
	u.ensureMembers(cls)
	ctors := u.constructors(cls)
	name := u.bind(cls).Name
	if list {
		if sel := u.initListConstructor(ctors, args); sel.ok() || sel.problem.IsValid() {
			return sel
		}
	}
	return u.resolveOverload(ctors, args, callOpts{list: list, name: name})
}

// initListConstructor selects among constructors taking a
// std::initializer_list. An empty list prefers the default constructor.
func (u *Unit) initListConstructor(ctors []symbols.BindingID, args []exprInfo) selection {
	if len(args) == 0 {
		for _, c := range ctors {
			if _, required, _ := u.signature(c); required == 0 {
				return selection{}
			}
		}
	}
	var best symbols.BindingID
	var bestConv ics
	tied := false
	for _, c := range ctors {
		params, required, _ := u.signature(c)
		if len(params) == 0 || required > 1 {
			continue
		}
		elem, ok := u.initListElement(params[0])
		if !ok {
			continue
		}
		worst := exactConv()
		viable := true
		for _, a := range args {
			conv := u.convert(a, elem, true)
			if conv.bad() || u.narrowingArg(a, elem, conv) {
				viable = false
				break
			}
			if compareICS(conv, worst) > 0 {
				worst = conv
			}
		}
		if !viable {
			continue
		}
		switch {
		case !best.IsValid():
			best, bestConv = c, worst
		case compareICS(worst, bestConv) < 0:
			best, bestConv, tied = c, worst, false
		case compareICS(worst, bestConv) == 0:
			tied = true
		}
	}
	if tied {
		return selection{problem: u.problem(symbols.ProblemAmbiguousLookup, u.bind(best).Name)}
	}
	return selection{fn: best}
}

// initListElement returns E for parameters of type std::initializer_list<E>,
// possibly cv-qualified or by reference.
func (u *Unit) initListElement(p types.TypeID) (types.TypeID, bool) {
	in := u.types
	cls, ok := in.ClassBinding(in.StripRef(p))
	if !ok {
		return types.NoTypeID, false
	}
	b := u.bind(symbols.BindingID(cls))
	if u.spell(b.Name) != "initializer_list" || len(b.TemplateArgs) != 1 || !b.TemplateArgs[0].Type.IsValid() {
		return types.NoTypeID, false
	}
	return b.TemplateArgs[0].Type, true
}

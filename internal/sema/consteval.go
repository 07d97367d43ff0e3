package sema

import (
	"cppsema/internal/ast"
	"cppsema/internal/symbols"
	"cppsema/internal/token"
	"cppsema/internal/types"
)

// maxCallDepth bounds nested constexpr calls independently of the step
// budget.
const maxCallDepth = 256

type constResult struct {
	v  int64
	ok bool
}

// constant is an integral value together with the type it has.
type constant struct {
	v int64
	t types.Basic
}

// budgetExhausted unwinds an evaluation that ran out of steps.
type budgetExhausted struct{}

// flow is how a statement completes.
type flow uint8

const (
	flowNext flow = iota
	flowBreak
	flowContinue
	flowReturn
)

type frame struct {
	locals map[symbols.BindingID]constant
	ret    constant
}

type evaluator struct {
	u      *Unit
	m      argMap
	steps  int
	frames []*frame
}

// constValue evaluates an integral constant expression outside any
// template specialization. Results are memoized per node.
func (u *Unit) constValue(node ast.NodeID) (int64, bool) {
	if !node.IsValid() {
		return 0, false
	}
	if r, ok := u.consts[node]; ok {
		return r.v, r.ok
	}
	if u.evalNodes[node] {
		return 0, false
	}
	u.evalNodes[node] = true
	v, ok := u.evalIn(node, argMap{})
	delete(u.evalNodes, node)
	u.consts[node] = constResult{v: v, ok: ok}
	return v, ok
}

// evalIn evaluates node with the template parameters of m bound to their
// arguments. Running out of steps yields no value.
func (u *Unit) evalIn(node ast.NodeID, m argMap) (v int64, ok bool) {
	e := &evaluator{u: u, m: m}
	defer func() {
		if r := recover(); r != nil {
			if _, exhausted := r.(budgetExhausted); !exhausted {
				panic(r)
			}
			u.exhausted = append(u.exhausted, node)
			v, ok = 0, false
		}
	}()
	c, ok := e.expr(node)
	return c.v, ok
}

func (e *evaluator) tick() {
	e.steps++
	if e.steps > e.u.cfg.EvalStepBudget {
		panic(budgetExhausted{})
	}
}

// withArgs runs fn with m in effect.
func (e *evaluator) withArgs(m argMap, fn func() (constant, bool)) (constant, bool) {
	saved := e.m
	e.m = m
	defer func() { e.m = saved }()
	return fn()
}

// wrap reduces v to the values of b.
func wrap(v int64, b types.Basic) int64 {
	if b == types.Bool {
		if v != 0 {
			return 1
		}
		return 0
	}
	bits := b.Bits()
	if bits == 0 || bits >= 64 {
		return v
	}
	shift := 64 - bits
	if b.IsSigned() {
		return v << shift >> shift
	}
	return int64(uint64(v) << shift >> shift)
}

// integral replaces non-integral kinds by long long so that values whose
// type is unknown still take part in arithmetic.
func integral(b types.Basic) types.Basic {
	if b.IsIntegral() {
		return b
	}
	return types.LongLong
}

func truth(v bool) constant {
	if v {
		return constant{v: 1, t: types.Bool}
	}
	return constant{t: types.Bool}
}

// basicOf returns the integral type values of t are computed in: the
// underlying type for enumerations.
func (u *Unit) basicOf(t types.TypeID) (types.Basic, bool) {
	t = u.types.StripRef(t)
	if b := u.types.BasicOf(t); b != types.BasicNone {
		return b, b.IsIntegral()
	}
	if info, ok := u.types.EnumInfo(t); ok && info.Underlying.IsValid() {
		b := u.types.BasicOf(info.Underlying)
		return b, b.IsIntegral()
	}
	if tt := u.types.Underlying(t); tt.Kind == types.KindEnum {
		return types.Int, true
	}
	return types.BasicNone, false
}

func (e *evaluator) convert(c constant, t types.TypeID) (constant, bool) {
	b, ok := e.u.basicOf(e.u.subst(t, e.m))
	if !ok {
		return constant{}, false
	}
	return constant{v: wrap(c.v, b), t: b}, true
}

// expressions -----------------------------------------------------------------

func (e *evaluator) expr(node ast.NodeID) (constant, bool) {
	e.tick()
	u := e.u
	n := u.node(node)
	if n == nil {
		return constant{}, false
	}
	if n.IsAmbiguity() {
		u.resolveAmbiguity(node)
		if n = u.node(node); n.IsAmbiguity() {
			return constant{}, false
		}
	}
	switch n.Kind {
	case ast.NodeLiteral:
		return e.literal(node)
	case ast.NodeParen, ast.NodeInitEquals, ast.NodeInitParens, ast.NodeInitList:
		if len(n.Kids) != 1 {
			return constant{}, false
		}
		return e.expr(n.Kids[0])
	case ast.NodeIDExpr:
		return e.name(n.Kids[0])
	case ast.NodeUnary:
		return e.unary(node)
	case ast.NodeBinary:
		return e.binary(node)
	case ast.NodeConditional:
		c, ok := e.expr(n.Kids[0])
		if !ok {
			return constant{}, false
		}
		if c.v != 0 {
			return e.expr(n.Kids[1])
		}
		return e.expr(n.Kids[2])
	case ast.NodeCast:
		return e.cast(n.Kids[0], n.Kids[1])
	case ast.NodeNamedCast:
		if n.Op != token.KwStaticCast && n.Op != token.KwConstCast {
			return constant{}, false
		}
		return e.cast(n.Kids[0], n.Kids[1])
	case ast.NodeTypeConstruct:
		return e.construct(node)
	case ast.NodeSizeof:
		return e.sizeof(node)
	case ast.NodeNoexcept:
		if len(n.Kids) == 0 {
			return constant{}, false
		}
		return truth(u.noexceptExpr(n.Kids[0])), true
	case ast.NodeCall:
		return e.call(node)
	}
	return constant{}, false
}

func (e *evaluator) literal(node ast.NodeID) (constant, bool) {
	lit := e.u.b.Literal(node)
	if lit == nil {
		return constant{}, false
	}
	switch lit.Kind {
	case token.IntLit:
		v, b, ok := intLiteral(lit.Text)
		return constant{v: int64(v), t: b}, ok
	case token.CharLit:
		v, b, ok := charLiteral(lit.Text)
		return constant{v: v, t: b}, ok
	case token.KwTrue:
		return truth(true), true
	case token.KwFalse:
		return truth(false), true
	}
	return constant{}, false
}

func (e *evaluator) cast(typeID, operand ast.NodeID) (constant, bool) {
	c, ok := e.expr(operand)
	if !ok {
		return constant{}, false
	}
	return e.convert(c, e.u.typeOfTypeID(typeID))
}

// construct evaluates 'T(x)', 'T{x}' and 'T()' for scalar T.
func (e *evaluator) construct(node ast.NodeID) (constant, bool) {
	u := e.u
	n := u.node(node)
	if len(n.Kids) < 2 {
		return constant{}, false
	}
	t := u.specType(n.Kids[0])
	args := u.node(n.Kids[1]).Kids
	switch len(args) {
	case 0:
		return e.convert(constant{t: types.Int}, t)
	case 1:
		c, ok := e.expr(args[0])
		if !ok {
			return constant{}, false
		}
		return e.convert(c, t)
	}
	return constant{}, false
}

func (e *evaluator) unary(node ast.NodeID) (constant, bool) {
	n := e.u.node(node)
	switch n.Op {
	case token.PlusPlus, token.MinusMinus:
		return e.increment(node)
	}
	c, ok := e.expr(n.Kids[0])
	if !ok {
		return constant{}, false
	}
	t := integral(c.t).Promoted()
	switch n.Op {
	case token.Plus:
		return constant{v: wrap(c.v, t), t: t}, true
	case token.Minus:
		return constant{v: wrap(-c.v, t), t: t}, true
	case token.Tilde:
		return constant{v: wrap(^c.v, t), t: t}, true
	case token.Bang:
		return truth(c.v == 0), true
	}
	return constant{}, false
}

func (e *evaluator) binary(node ast.NodeID) (constant, bool) {
	n := e.u.node(node)
	op := n.Op
	if isAssignOp(op) {
		return e.assign(node)
	}
	l, ok := e.expr(n.Kids[0])
	if !ok {
		return constant{}, false
	}
	switch op {
	case token.AndAnd:
		if l.v == 0 {
			return truth(false), true
		}
		r, ok := e.expr(n.Kids[1])
		return truth(r.v != 0), ok
	case token.OrOr:
		if l.v != 0 {
			return truth(true), true
		}
		r, ok := e.expr(n.Kids[1])
		return truth(r.v != 0), ok
	case token.Comma:
		return e.expr(n.Kids[1])
	}
	r, ok := e.expr(n.Kids[1])
	if !ok {
		return constant{}, false
	}
	return arith(op, l, r)
}

// arith applies a built-in binary operator to integral constants.
func arith(op token.Kind, l, r constant) (constant, bool) {
	if op == token.Shl || op == token.Shr {
		t := integral(l.t).Promoted()
		if r.v < 0 || r.v >= int64(t.Bits()) {
			return constant{}, false
		}
		if op == token.Shl {
			return constant{v: wrap(l.v<<uint(r.v), t), t: t}, true
		}
		if t.IsSigned() {
			return constant{v: l.v >> uint(r.v), t: t}, true
		}
		return constant{v: wrap(int64(uint64(l.v)>>uint(r.v)), t), t: t}, true
	}
	t := types.ArithmeticConversion(integral(l.t), integral(r.t))
	a, b := wrap(l.v, t), wrap(r.v, t)
	signed := t.IsSigned()
	switch op {
	case token.EqEq:
		return truth(a == b), true
	case token.BangEq:
		return truth(a != b), true
	case token.Lt, token.Gt, token.LtEq, token.GtEq:
		cmp := compare(a, b, signed)
		switch op {
		case token.Lt:
			return truth(cmp < 0), true
		case token.Gt:
			return truth(cmp > 0), true
		case token.LtEq:
			return truth(cmp <= 0), true
		}
		return truth(cmp >= 0), true
	}
	var v int64
	switch op {
	case token.Plus:
		v = a + b
	case token.Minus:
		v = a - b
	case token.Star:
		v = a * b
	case token.Slash, token.Percent:
		if b == 0 || (signed && b == -1 && a == wrap(minOf(t), t)) {
			return constant{}, false
		}
		switch {
		case signed && op == token.Slash:
			v = a / b
		case signed:
			v = a % b
		case op == token.Slash:
			v = int64(uint64(a) / uint64(b))
		default:
			v = int64(uint64(a) % uint64(b))
		}
	case token.Amp:
		v = a & b
	case token.Pipe:
		v = a | b
	case token.Caret:
		v = a ^ b
	default:
		return constant{}, false
	}
	return constant{v: wrap(v, t), t: t}, true
}

func minOf(t types.Basic) int64 {
	lo, _ := t.Range()
	return lo
}

func compare(a, b int64, signed bool) int {
	switch {
	case a == b:
		return 0
	case signed && a < b, !signed && uint64(a) < uint64(b):
		return -1
	}
	return 1
}

// names -----------------------------------------------------------------------

func (e *evaluator) name(nameNode ast.NodeID) (constant, bool) {
	b := e.u.Resolve(e.u.b.NameOf(nameNode))
	if c, ok := e.local(b); ok {
		return c, true
	}
	return e.entity(b)
}

func (e *evaluator) local(b symbols.BindingID) (constant, bool) {
	if len(e.frames) == 0 {
		return constant{}, false
	}
	c, ok := e.frames[len(e.frames)-1].locals[b]
	return c, ok
}

// entity evaluates the value a name denotes: an enumerator, a non-type
// template argument or a constant variable with an initializer.
func (e *evaluator) entity(b symbols.BindingID) (constant, bool) {
	u := e.u
	// parameters and dependent members take a new meaning under every
	// argument map, so only the entities they lead to are guarded
	switch u.kind(b) {
	case symbols.KindTemplateNonTypeParam:
		a, ok := e.m.params[b]
		if !ok || !a.IsValue || a.Dependent {
			return constant{}, false
		}
		t, _ := u.basicOf(u.subst(u.TypeOf(b), e.m))
		t = integral(t)
		return constant{v: wrap(a.Value, t), t: t}, true
	case symbols.KindDependent:
		return e.dependent(b)
	}
	if !b.IsValid() || u.evalActive[b] {
		return constant{}, false
	}
	u.evalActive[b] = true
	defer delete(u.evalActive, b)

	switch u.kind(b) {
	case symbols.KindUsingDeclaration:
		if ds := u.delegates(b); len(ds) == 1 {
			return e.entity(ds[0])
		}
	case symbols.KindEnumerator:
		if !e.m.empty() {
			b = u.substMember(b, e.m, 0)
		}
		return e.enumerator(b)
	case symbols.KindVariable, symbols.KindField:
		if !e.m.empty() {
			b = u.substMember(b, e.m, 0)
		}
		return e.variable(b)
	}
	return constant{}, false
}

// dependent evaluates a member of a dependent qualifier once the qualifier
// is known under the current arguments.
func (e *evaluator) dependent(b symbols.BindingID) (constant, bool) {
	u := e.u
	bb := *u.bind(b)
	if !bb.Target.IsValid() || bb.Target == u.globalNS || e.m.empty() {
		return constant{}, false
	}
	if u.instDepth >= u.cfg.MaxInstantiationDepth {
		u.tooDeep = append(u.tooDeep, bb.Target)
		return constant{}, false
	}
	u.instDepth++
	defer func() { u.instDepth-- }()
	q := u.substEntity(bb.Target, e.m, 0)
	if !q.IsValid() || q == bb.Target || u.isDependentEntity(q) {
		return constant{}, false
	}
	found := u.lookupQualified(q, bb.Name, symbols.KindMaskAny, 0)
	if len(found) != 1 {
		return constant{}, false
	}
	return e.entity(found[0])
}

func (e *evaluator) enumerator(b symbols.BindingID) (constant, bool) {
	u := e.u
	bb := *u.bind(b)
	t, _ := u.basicOf(u.types.Enum(uint32(bb.Owner)))
	t = integral(t)
	if bb.HasValue {
		return constant{v: bb.Value, t: t}, true
	}
	var v int64
	if init := u.enumeratorInit(b); init.IsValid() {
		m := u.argsFor(b)
		if m.empty() {
			m = e.m
		}
		c, ok := e.withArgs(m, func() (constant, bool) { return e.expr(init) })
		if !ok {
			return constant{}, false
		}
		v = c.v
	} else if prev := u.previousEnumerator(b); prev.IsValid() {
		c, ok := e.entity(prev)
		if !ok {
			return constant{}, false
		}
		v = c.v + 1
	}
	if !u.dependentScope(u.bind(b).Scope) {
		eb := u.bind(b)
		eb.Value, eb.HasValue = v, true
	}
	return constant{v: wrap(v, t), t: t}, true
}

// enumeratorInit returns the value expression of an enumerator, following
// a specialized enumerator to its pattern.
func (u *Unit) enumeratorInit(b symbols.BindingID) ast.NodeID {
	node := u.bind(b).Node
	if p, ok := u.patterns[b]; ok {
		node = u.bind(p).Node
	}
	if n := u.node(node); n != nil && len(n.Kids) > 1 {
		return n.Kids[1]
	}
	return ast.NoNodeID
}

func (u *Unit) previousEnumerator(b symbols.BindingID) symbols.BindingID {
	list := u.bind(u.bind(b).Owner).Enumerators
	for i, id := range list {
		if id == b && i > 0 {
			return list[i-1]
		}
	}
	return symbols.NoBindingID
}

// variable evaluates a const or constexpr variable of integral type.
func (e *evaluator) variable(b symbols.BindingID) (constant, bool) {
	u := e.u
	t := u.TypeOf(b)
	if u.types.IsReference(t) {
		return constant{}, false
	}
	bb := *u.bind(b)
	if bb.Flags&symbols.FlagConstexpr == 0 && !u.types.CVOf(t).Has(types.Const) {
		return constant{}, false
	}
	if _, ok := u.basicOf(t); !ok {
		return constant{}, false
	}
	init := u.variableInit(bb)
	if !init.IsValid() {
		return constant{}, false
	}
	m := u.argsFor(b)
	if m.empty() {
		m = e.m
	}
	c, ok := e.withArgs(m, func() (constant, bool) { return e.expr(init) })
	if !ok {
		return constant{}, false
	}
	return e.convert(c, t)
}

// variableInit returns the initializing expression of a variable from its
// definition or, for static members, its in-class declaration.
func (u *Unit) variableInit(bb symbols.Binding) ast.NodeID {
	for _, node := range []ast.NodeID{bb.DefNode, bb.Node} {
		if d := u.b.Declarator(node); d != nil && d.Init.IsValid() {
			return u.initExpr(d.Init)
		}
	}
	return ast.NoNodeID
}

// constexpr calls ---------------------------------------------------------------

func (e *evaluator) call(node ast.NodeID) (constant, bool) {
	u := e.u
	n := u.node(node)
	if len(e.frames) >= maxCallDepth {
		return constant{}, false
	}
	args := make([]constant, 0, len(n.Kids)-1)
	for _, a := range n.Kids[1:] {
		c, ok := e.expr(a)
		if !ok {
			return constant{}, false
		}
		args = append(args, c)
	}
	fn := e.callee(node, len(args))
	if !fn.IsValid() {
		return constant{}, false
	}
	return e.invoke(fn, args)
}

// callee finds the function a call denotes. Inside a template the call may
// still be dependent; a single constexpr function of fitting arity found by
// the callee's name is used then.
func (e *evaluator) callee(node ast.NodeID, argc int) symbols.BindingID {
	u := e.u
	calleeNode := u.node(node).Kids[0]
	u.exprOf(node)
	b := u.exprOf(calleeNode).binding
	if k := u.kind(b); k.IsFunction() && k != symbols.KindFunctionTemplate {
		return b
	}
	cn := u.node(calleeNode)
	if cn.Kind != ast.NodeIDExpr || e.m.empty() {
		return symbols.NoBindingID
	}
	found, prob := u.candidates(u.b.NameOf(cn.Kids[0]), functionMask)
	if prob.IsValid() {
		return symbols.NoBindingID
	}
	var pick symbols.BindingID
	for _, f := range u.functionCandidates(found) {
		bb := u.bind(f)
		if bb.Kind == symbols.KindFunctionTemplate || bb.Flags&symbols.FlagConstexpr == 0 {
			continue
		}
		if argc > len(bb.Params) || argc < len(bb.Params)-bb.Defaults {
			continue
		}
		if pick.IsValid() {
			return symbols.NoBindingID
		}
		pick = f
	}
	return pick
}

// invoke runs the body of a constexpr function.
func (e *evaluator) invoke(fn symbols.BindingID, args []constant) (constant, bool) {
	u := e.u
	bb := *u.bind(fn)
	if bb.Flags&symbols.FlagConstexpr == 0 {
		return constant{}, false
	}
	fd := u.b.FunctionDef(bb.DefNode)
	if fd == nil || !fd.Body.IsValid() {
		return constant{}, false
	}
	info, ok := u.types.FnInfo(u.functionType(fn))
	if !ok {
		return constant{}, false
	}
	end := u.debugSpan("consteval", u.spell(bb.Name))
	defer end()

	m := u.argsFor(fn)
	f := &frame{locals: make(map[symbols.BindingID]constant)}
	var paramNodes []ast.NodeID
	if d := u.b.Declarator(fd.Declarator); d != nil {
		if c := d.Function(u.b); c != nil {
			paramNodes = c.Params
		}
	}
	for i, p := range bb.Params {
		var c constant
		if i < len(args) {
			c = args[i]
		} else {
			def := u.defaultArg(p)
			if !def.IsValid() {
				return constant{}, false
			}
			c, ok = e.withArgs(m, func() (constant, bool) { return e.expr(def) })
			if !ok {
				return constant{}, false
			}
		}
		if i < len(info.Params) {
			if c, ok = e.withArgs(m, func() (constant, bool) { return e.convert(c, info.Params[i]) }); !ok {
				return constant{}, false
			}
		}
		f.locals[p] = c
		if pp, ok := u.patterns[p]; ok {
			f.locals[pp] = c
		}
		if i < len(paramNodes) {
			if pb, ok := u.nodeBindings[paramNodes[i]]; ok {
				f.locals[pb] = c
			}
		}
	}

	e.frames = append(e.frames, f)
	defer func() { e.frames = e.frames[:len(e.frames)-1] }()
	res, ok := e.withArgs(m, func() (constant, bool) {
		fl, ok := e.stmt(fd.Body)
		if !ok || fl != flowReturn {
			return constant{}, false
		}
		return e.convert(f.ret, info.Result)
	})
	return res, ok
}

func (u *Unit) defaultArg(param symbols.BindingID) ast.NodeID {
	node := u.bind(param).Node
	if d := u.b.Declarator(u.paramDeclarator(node)); d != nil && d.Init.IsValid() {
		return u.initExpr(d.Init)
	}
	return ast.NoNodeID
}

// statements --------------------------------------------------------------------

func (e *evaluator) stmt(node ast.NodeID) (flow, bool) {
	e.tick()
	u := e.u
	n := u.node(node)
	if n == nil {
		return flowNext, true
	}
	switch n.Kind {
	case ast.NodeCompound:
		for _, k := range n.Kids {
			fl, ok := e.stmt(k)
			if !ok || fl != flowNext {
				return fl, ok
			}
		}
		return flowNext, true
	case ast.NodeNullStmt, ast.NodeStaticAssert, ast.NodeDiscarded:
		return flowNext, true
	case ast.NodeExprStmt:
		_, ok := e.expr(n.Kids[0])
		return flowNext, ok
	case ast.NodeDeclStmt, ast.NodeSimpleDecl:
		return flowNext, e.declare(node)
	case ast.NodeReturn:
		if len(n.Kids) == 0 || !n.Kids[0].IsValid() {
			return flowReturn, false
		}
		c, ok := e.expr(n.Kids[0])
		e.frames[len(e.frames)-1].ret = c
		return flowReturn, ok
	case ast.NodeBreak:
		return flowBreak, true
	case ast.NodeContinue:
		return flowContinue, true
	case ast.NodeIf:
		return e.ifStmt(node)
	case ast.NodeWhile, ast.NodeFor, ast.NodeDo:
		return e.loop(node)
	case ast.NodeSwitch:
		return e.switchStmt(node)
	case ast.NodeCase, ast.NodeDefault, ast.NodeLabel:
		return e.stmt(n.Kids[len(n.Kids)-1])
	}
	return flowNext, false
}

// declare enters the initialized local variables of a declaration.
func (e *evaluator) declare(node ast.NodeID) bool {
	u := e.u
	ok := true
	u.b.Walk(node, func(id ast.NodeID, n *ast.Node) bool {
		if !ok || n.Kind == ast.NodeDeclSpec || n.Kind == ast.NodeLambda {
			return false
		}
		if n.Kind != ast.NodeDeclarator {
			return true
		}
		b, found := u.nodeBindings[id]
		if !found || u.kind(b) != symbols.KindVariable {
			return false
		}
		d := u.b.Declarator(id)
		if !d.Init.IsValid() {
			return false
		}
		var c constant
		c, ok = e.expr(u.initExpr(d.Init))
		if ok {
			c, ok = e.convert(c, u.TypeOf(b))
		}
		e.frames[len(e.frames)-1].locals[b] = c
		return false
	})
	return ok
}

// condition evaluates the condition of a control statement, which may
// declare a variable.
func (e *evaluator) condition(node ast.NodeID) (bool, bool) {
	n := e.u.node(node)
	if n == nil {
		return true, true
	}
	if n.Kind == ast.NodeSimpleDecl {
		if !e.declare(node) {
			return false, false
		}
		for _, k := range n.Kids[1:] {
			if b, ok := e.u.nodeBindings[k]; ok {
				c, ok := e.local(b)
				return c.v != 0, ok
			}
		}
		return false, false
	}
	c, ok := e.expr(node)
	return c.v != 0, ok
}

func (e *evaluator) ifStmt(node ast.NodeID) (flow, bool) {
	c := e.u.b.Control(node)
	if c.Init.IsValid() {
		if fl, ok := e.stmt(c.Init); !ok || fl != flowNext {
			return fl, ok
		}
	}
	cond, ok := e.condition(c.Cond)
	switch {
	case !ok:
		return flowNext, false
	case cond:
		return e.stmt(c.Then)
	case c.Else.IsValid():
		return e.stmt(c.Else)
	}
	return flowNext, true
}

func (e *evaluator) loop(node ast.NodeID) (flow, bool) {
	n := e.u.node(node)
	c := e.u.b.Control(node)
	if c.Init.IsValid() {
		if fl, ok := e.stmt(c.Init); !ok || fl != flowNext {
			return fl, ok
		}
	}
	first := n.Kind == ast.NodeDo
	for {
		if !first && c.Cond.IsValid() {
			cond, ok := e.condition(c.Cond)
			if !ok {
				return flowNext, false
			}
			if !cond {
				return flowNext, true
			}
		}
		first = false
		fl, ok := e.stmt(c.Body)
		if !ok {
			return fl, false
		}
		switch fl {
		case flowBreak:
			return flowNext, true
		case flowReturn:
			return fl, true
		}
		if c.Incr.IsValid() {
			if _, ok := e.expr(c.Incr); !ok {
				return flowNext, false
			}
		}
	}
}

// switchStmt runs the body of a switch from the matching label on.
func (e *evaluator) switchStmt(node ast.NodeID) (flow, bool) {
	u := e.u
	c := u.b.Control(node)
	v, ok := e.expr(c.Cond)
	if !ok {
		return flowNext, false
	}
	body := u.node(c.Body)
	if body == nil || body.Kind != ast.NodeCompound {
		return flowNext, false
	}
	start := -1
	for i, k := range body.Kids {
		kn := u.node(k)
		switch kn.Kind {
		case ast.NodeCase:
			cv, ok := e.expr(kn.Kids[0])
			if !ok {
				return flowNext, false
			}
			if start < 0 && wrap(cv.v, integral(v.t).Promoted()) == wrap(v.v, integral(v.t).Promoted()) {
				start = i
			}
		}
	}
	if start < 0 {
		for i, k := range body.Kids {
			if u.node(k).Kind == ast.NodeDefault {
				start = i
				break
			}
		}
	}
	if start < 0 {
		return flowNext, true
	}
	for _, k := range body.Kids[start:] {
		fl, ok := e.stmt(k)
		if !ok {
			return fl, false
		}
		switch fl {
		case flowBreak:
			return flowNext, true
		case flowReturn, flowContinue:
			return fl, true
		}
	}
	return flowNext, true
}

// assignments -------------------------------------------------------------------

// target returns the local variable an assignment writes.
func (e *evaluator) target(node ast.NodeID) (symbols.BindingID, bool) {
	u := e.u
	for {
		n := u.node(node)
		switch {
		case n == nil || len(e.frames) == 0:
			return symbols.NoBindingID, false
		case n.Kind == ast.NodeParen:
			node = n.Kids[0]
			continue
		case n.Kind != ast.NodeIDExpr:
			return symbols.NoBindingID, false
		}
		b := u.Resolve(u.b.NameOf(n.Kids[0]))
		_, ok := e.frames[len(e.frames)-1].locals[b]
		return b, ok
	}
}

func (e *evaluator) store(b symbols.BindingID, v int64) constant {
	f := e.frames[len(e.frames)-1]
	old := f.locals[b]
	c := constant{v: wrap(v, old.t), t: old.t}
	f.locals[b] = c
	return c
}

func (e *evaluator) assign(node ast.NodeID) (constant, bool) {
	n := e.u.node(node)
	b, ok := e.target(n.Kids[0])
	if !ok {
		return constant{}, false
	}
	r, ok := e.expr(n.Kids[1])
	if !ok {
		return constant{}, false
	}
	if n.Op == token.Assign {
		return e.store(b, r.v), true
	}
	old, _ := e.local(b)
	res, ok := arith(compoundOp(n.Op), old, r)
	if !ok {
		return constant{}, false
	}
	return e.store(b, res.v), true
}

func compoundOp(op token.Kind) token.Kind {
	switch op {
	case token.PlusAssign:
		return token.Plus
	case token.MinusAssign:
		return token.Minus
	case token.StarAssign:
		return token.Star
	case token.SlashAssign:
		return token.Slash
	case token.PercentAssign:
		return token.Percent
	case token.AmpAssign:
		return token.Amp
	case token.PipeAssign:
		return token.Pipe
	case token.CaretAssign:
		return token.Caret
	case token.ShlAssign:
		return token.Shl
	case token.ShrAssign:
		return token.Shr
	}
	return token.Invalid
}

func (e *evaluator) increment(node ast.NodeID) (constant, bool) {
	n := e.u.node(node)
	b, ok := e.target(n.Kids[0])
	if !ok {
		return constant{}, false
	}
	old, _ := e.local(b)
	delta := int64(1)
	if n.Op == token.MinusMinus {
		delta = -1
	}
	c := e.store(b, old.v+delta)
	if n.Has(ast.FlagPostfix) {
		return old, true
	}
	return c, true
}

// sizeof and noexcept -----------------------------------------------------------

func (e *evaluator) sizeof(node ast.NodeID) (constant, bool) {
	u := e.u
	n := u.node(node)
	if len(n.Kids) == 0 {
		return constant{}, false
	}
	t, _ := u.operandOf(n.Kids[0])
	t = u.subst(t, e.m)
	size, align, ok := u.sizeAlign(t, 0)
	if !ok {
		return constant{}, false
	}
	if n.Op == token.KwAlignof {
		size = align
	}
	return constant{v: size, t: types.ULong}, true
}

// sizeAlign computes the LP64 size and alignment of t.
func (u *Unit) sizeAlign(t types.TypeID, depth int) (int64, int64, bool) {
	if depth > maxBaseDepth {
		return 0, 0, false
	}
	t = u.types.StripRef(t)
	if _, bad := u.types.ProblemOf(t); bad || u.types.IsDependent(t) {
		return 0, 0, false
	}
	tt := u.types.Underlying(t)
	switch tt.Kind {
	case types.KindBasic:
		switch tt.Basic {
		case types.Void, types.BasicNone:
			return 0, 0, false
		case types.NullPtr:
			return 8, 8, true
		}
		size := int64(tt.Basic.Bits() / 8)
		return size, size, true
	case types.KindPointer:
		return 8, 8, true
	case types.KindMemberPointer:
		if _, fn := u.types.FnInfo(u.types.Canonical(tt.Elem)); fn {
			return 16, 8, true
		}
		return 8, 8, true
	case types.KindArray:
		if !tt.Bound {
			return 0, 0, false
		}
		size, align, ok := u.sizeAlign(tt.Elem, depth+1)
		return size * int64(tt.Count), align, ok
	case types.KindEnum:
		b, ok := u.basicOf(t)
		if !ok {
			return 0, 0, false
		}
		size := int64(b.Bits() / 8)
		return size, size, true
	case types.KindClass:
		return u.classLayout(symbols.BindingID(tt.Payload), depth+1)
	}
	return 0, 0, false
}

// classLayout lays out bases and then non-static data members in
// declaration order. Bit-fields take the size of their declared type and
// empty bases occupy no storage.
func (u *Unit) classLayout(cls symbols.BindingID, depth int) (int64, int64, bool) {
	bb := u.bind(cls)
	if bb.Flags&symbols.FlagDefined == 0 {
		return 0, 0, false
	}
	u.ensureMembers(cls)
	union := bb.Flags&symbols.FlagUnion != 0
	var size, align int64 = 0, 1
	place := func(s, a int64) {
		align = max(align, a)
		if union {
			size = max(size, s)
			return
		}
		size = (size+a-1)/a*a + s
	}
	if u.needsVptr(cls, 0) {
		place(8, 8)
	}
	for _, base := range u.classBases(cls) {
		if !base.Class.IsValid() {
			return 0, 0, false
		}
		if u.emptyClass(base.Class, 0) {
			continue
		}
		s, a, ok := u.classLayout(base.Class, depth+1)
		if !ok {
			return 0, 0, false
		}
		place(s, a)
	}
	for _, f := range u.dataMembers(cls) {
		s, a, ok := u.sizeAlign(u.TypeOf(f), depth+1)
		if !ok {
			return 0, 0, false
		}
		place(s, a)
	}
	if size == 0 {
		return 1, 1, true
	}
	return (size + align - 1) / align * align, align, true
}

// dataMembers returns the non-static data members declared by cls.
func (u *Unit) dataMembers(cls symbols.BindingID) []symbols.BindingID {
	var out []symbols.BindingID
	for _, m := range u.bind(cls).Members {
		if mb := u.bind(m); mb.Kind == symbols.KindField && mb.Flags&symbols.FlagStatic == 0 {
			out = append(out, m)
		}
	}
	return out
}

// needsVptr reports a class that declares virtual functions or virtual
// bases without inheriting a pointer to a virtual table.
func (u *Unit) needsVptr(cls symbols.BindingID, depth int) bool {
	if depth > maxBaseDepth {
		return false
	}
	for _, base := range u.classBases(cls) {
		if base.Virtual {
			return true
		}
		if base.Class.IsValid() && u.polymorphic(base.Class, depth+1) {
			return false
		}
	}
	for _, m := range u.bind(cls).Members {
		if u.bind(m).Flags&symbols.FlagVirtual != 0 {
			return true
		}
	}
	return false
}

func (u *Unit) polymorphic(cls symbols.BindingID, depth int) bool {
	if depth > maxBaseDepth {
		return false
	}
	for _, base := range u.classBases(cls) {
		if base.Virtual || (base.Class.IsValid() && u.polymorphic(base.Class, depth+1)) {
			return true
		}
	}
	for _, m := range u.bind(cls).Members {
		if u.bind(m).Flags&symbols.FlagVirtual != 0 {
			return true
		}
	}
	return false
}

func (u *Unit) emptyClass(cls symbols.BindingID, depth int) bool {
	if depth > maxBaseDepth || len(u.dataMembers(cls)) > 0 || u.polymorphic(cls, 0) {
		return false
	}
	for _, base := range u.classBases(cls) {
		if !base.Class.IsValid() || !u.emptyClass(base.Class, depth+1) {
			return false
		}
	}
	return true
}

// noexceptExpr reports whether evaluating node cannot throw: it contains
// no throw, no new and calls only non-throwing functions.
func (u *Unit) noexceptExpr(node ast.NodeID) bool {
	u.exprOf(node)
	ok := true
	u.b.Walk(node, func(id ast.NodeID, n *ast.Node) bool {
		if !ok {
			return false
		}
		switch n.Kind {
		case ast.NodeLambda:
			return false
		case ast.NodeThrow, ast.NodeNew:
			ok = false
			return false
		case ast.NodeNamedCast:
			if n.Op == token.KwDynamicCast && u.types.IsReference(u.exprOf(id).t) {
				ok = false
			}
		case ast.NodeCall:
			callee := u.exprOf(n.Kids[0])
			switch k := u.kind(callee.binding); {
			case k.IsFunction():
				ok = u.nonThrowing(callee.binding)
			case !callee.binding.IsValid() && len(u.implicit[id]) == 0:
				ok = false
			}
		}
		for _, name := range u.implicit[id] {
			if b := u.resolved[name]; u.kind(b).IsFunction() && !u.nonThrowing(b) {
				ok = false
			}
		}
		return ok
	})
	return ok
}

// nonThrowing reports functions declared noexcept, destructors without an
// exception specification and implicit special members.
func (u *Unit) nonThrowing(fn symbols.BindingID) bool {
	bb := u.bind(fn)
	if bb.Flags&symbols.FlagImplicit != 0 {
		return true
	}
	if info, ok := u.types.FnInfo(u.functionType(fn)); ok && info.Except {
		return true
	}
	if bb.Kind != symbols.KindDestructor {
		return false
	}
	if d := u.b.Declarator(bb.Node); d != nil {
		if c := d.Function(u.b); c != nil {
			return c.Except == ast.ExceptNone
		}
	}
	return true
}

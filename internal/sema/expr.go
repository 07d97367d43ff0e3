package sema

import (
	"slices"

	"cppsema/internal/ast"
	"cppsema/internal/source"
	"cppsema/internal/symbols"
	"cppsema/internal/token"
	"cppsema/internal/types"
)

// Category is the value category of an expression.
type Category uint8

const (
	PRValue Category = iota
	LValue
	XValue
)

func (c Category) String() string {
	switch c {
	case LValue:
		return "lvalue"
	case XValue:
		return "xvalue"
	}
	return "prvalue"
}

// exprInfo is what the engine knows about an expression. t is never a
// reference type; references show up as the category.
type exprInfo struct {
	t   types.TypeID
	cat Category
	// binding is the entity an id-expression or member access names, or the
	// function a call selected.
	binding symbols.BindingID
	node    ast.NodeID
	// nullPtr and zero mark null pointer constants.
	nullPtr bool
	zero    bool
	// list marks a braced initializer list; its elements are the node's kids.
	list   bool
	strLit bool
	// overloads holds the functions an overloaded name may denote until a
	// target type picks one.
	overloads []symbols.BindingID
}

func (u *Unit) problemExpr() exprInfo {
	return exprInfo{t: u.types.Problem(types.ProblemInvalidType)}
}

// dependentExpr is the result of an expression whose type depends on open
// template parameters.
func (u *Unit) dependentExpr(b symbols.BindingID) exprInfo {
	if !b.IsValid() {
		b = u.dependentMember(u.globalNS, source.NoStringID)
	}
	return exprInfo{t: u.TypeOf(b), cat: LValue, binding: b}
}

func (u *Unit) isDependent(infos ...exprInfo) bool {
	for _, in := range infos {
		if in.t.IsValid() && u.types.IsDependent(in.t) {
			return true
		}
	}
	return false
}

// exprOf types an expression. Results are memoized per node; an expression
// re-entered while it is being typed yields an invalid type.
func (u *Unit) exprOf(node ast.NodeID) exprInfo {
	if info, ok := u.exprs[node]; ok {
		return info
	}
	n := u.node(node)
	if n == nil || n.Kind == ast.NodeDiscarded {
		return exprInfo{}
	}
	if n.IsAmbiguity() {
		u.resolveAmbiguity(node)
		if info, ok := u.exprs[node]; ok {
			return info
		}
	}
	if u.inExpr[node] {
		u.noteCycle()
		return u.problemExpr()
	}
	u.inExpr[node] = true
	info := u.computeExpr(node)
	delete(u.inExpr, node)
	if prev, ok := u.exprs[node]; ok {
		return prev
	}
	info.node = node
	u.exprs[node] = info
	return info
}

func (u *Unit) computeExpr(node ast.NodeID) exprInfo {
	n := u.node(node)
	switch n.Kind {
	case ast.NodeIDExpr:
		if call := u.calleeCall(node); call.IsValid() {
			u.exprOf(call)
			if info, ok := u.exprs[node]; ok {
				return info
			}
		}
		return u.idExpr(node, u.b.NameOf(n.Kids[0]))
	case ast.NodeLiteral:
		return u.literalExpr(node)
	case ast.NodeThis:
		return u.thisExpr(node)
	case ast.NodeParen:
		info := u.exprOf(n.Kids[0])
		info.node = node
		return info
	case ast.NodeUnary:
		return u.unaryExpr(node)
	case ast.NodeBinary:
		return u.binaryExpr(node)
	case ast.NodeConditional:
		return u.conditionalExpr(node)
	case ast.NodeCall:
		return u.callExpr(node)
	case ast.NodeSubscript:
		return u.subscriptExpr(node)
	case ast.NodeMember:
		if call := u.calleeCall(node); call.IsValid() {
			u.exprOf(call)
			if info, ok := u.exprs[node]; ok {
				return info
			}
		}
		return u.memberExpr(node)
	case ast.NodeCast, ast.NodeNamedCast:
		return u.castExpr(node)
	case ast.NodeTypeConstruct:
		return u.typeConstructExpr(node)
	case ast.NodeSizeof, ast.NodeSizeofPack:
		if len(n.Kids) > 0 && n.Kind == ast.NodeSizeof {
			u.operandOf(n.Kids[0])
		}
		return exprInfo{t: u.types.Builtins().ULong}
	case ast.NodeTypeid:
		return u.typeidExpr(node)
	case ast.NodeNoexcept:
		u.exprOf(n.Kids[0])
		return exprInfo{t: u.types.Builtins().Bool}
	case ast.NodeNew:
		return u.newExpr(node)
	case ast.NodeDelete:
		return u.deleteExpr(node)
	case ast.NodeThrow:
		if len(n.Kids) > 0 {
			u.exprOf(n.Kids[0])
		}
		return exprInfo{t: u.types.Builtins().Void}
	case ast.NodeLambda:
		u.declareLambda(node)
		closure := u.nodeBindings[node]
		return exprInfo{t: u.classType(closure), binding: closure}
	case ast.NodePackExpansion:
		if len(n.Kids) > 0 {
			u.exprOf(n.Kids[0])
		}
		return u.dependentExpr(symbols.NoBindingID)
	case ast.NodeInitList:
		return exprInfo{list: true}
	case ast.NodeInitEquals, ast.NodeInitParens:
		if len(n.Kids) == 1 {
			return u.exprOf(n.Kids[0])
		}
	}
	return exprInfo{}
}

// operandOf types the operand of sizeof, alignof or typeid, which may be a
// type-id or an expression.
func (u *Unit) operandOf(node ast.NodeID) (types.TypeID, bool) {
	if n := u.node(node); n != nil && n.IsAmbiguity() {
		u.resolveAmbiguity(node)
	}
	if n := u.node(node); n != nil && n.Kind == ast.NodeTypeID {
		return u.typeOfTypeID(node), true
	}
	return u.exprOf(node).t, false
}

// names -----------------------------------------------------------------------

func (u *Unit) idExpr(node ast.NodeID, nameID ast.NameID) exprInfo {
	b, ok := u.resolved[nameID]
	if !ok {
		b = u.lookupValue(nameID, types.NoTypeID)
		u.resolved[nameID] = b
		u.noteLast(nameID, b)
	}
	return u.valueOf(b, node)
}

// valueOf is the value of an id-expression naming b.
func (u *Unit) valueOf(b symbols.BindingID, node ast.NodeID) exprInfo {
	bb := u.bind(b)
	if bb == nil {
		return u.problemExpr()
	}
	if bb.IsProblem() {
		info := u.problemExpr()
		info.binding = b
		if bb.Problem == symbols.ProblemAmbiguousLookup && u.allFunctions(bb.Candidates) {
			info.overloads = slices.Clone(bb.Candidates)
			info.cat = LValue
		}
		return info
	}
	kind, flags, owner := bb.Kind, bb.Flags, bb.Owner
	switch kind {
	case symbols.KindVariable, symbols.KindParameter:
		return exprInfo{t: u.types.StripRef(u.TypeOf(b)), cat: LValue, binding: b}
	case symbols.KindField:
		declared := u.TypeOf(b)
		t := u.types.StripRef(declared)
		if flags&(symbols.FlagStatic|symbols.FlagMutable) == 0 && !u.types.IsReference(declared) {
			if m := u.enclosingMethod(node); m.IsValid() && owner.IsValid() {
				if info, ok := u.types.FnInfo(u.TypeOf(m)); ok {
					t = u.types.Qualify(t, info.CV)
				}
			}
		}
		return exprInfo{t: t, cat: LValue, binding: b}
	case symbols.KindEnumerator, symbols.KindTemplateNonTypeParam:
		return exprInfo{t: u.types.StripRef(u.TypeOf(b)), binding: b}
	case symbols.KindFunctionTemplate:
		return exprInfo{t: u.types.Problem(types.ProblemInvalidType), cat: LValue, binding: b, overloads: []symbols.BindingID{b}}
	case symbols.KindDependent:
		return u.dependentExpr(b)
	case symbols.KindUsingDeclaration:
		ds := u.delegates(b)
		switch {
		case len(ds) == 1:
			return u.valueOf(ds[0], node)
		case len(ds) > 1 && u.allFunctions(ds):
			return exprInfo{t: u.types.Problem(types.ProblemInvalidType), cat: LValue, binding: b, overloads: ds}
		}
		return u.problemExpr()
	}
	if kind.IsFunction() {
		cat := LValue
		if flags&symbols.FlagStatic == 0 && owner.IsValid() && kind != symbols.KindFunction {
			cat = PRValue
		}
		return exprInfo{t: u.TypeOf(b), cat: cat, binding: b}
	}
	info := u.problemExpr()
	info.binding = b
	return info
}

func (u *Unit) allFunctions(ids []symbols.BindingID) bool {
	if len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		if !u.kind(id).IsFunction() {
			return false
		}
	}
	return true
}

// settle resolves the overloaded name inside info to fn once a target type
// picked it.
func (u *Unit) settle(info exprInfo, fn symbols.BindingID) {
	node := info.node
	for {
		n := u.node(node)
		if n == nil {
			return
		}
		switch {
		case n.Kind == ast.NodeParen, n.Kind == ast.NodeUnary && n.Op == token.Amp:
			fixed := u.exprs[node]
			fixed.overloads = nil
			fixed.binding = fn
			if n.Kind == ast.NodeUnary {
				fixed.t = u.types.Pointer(u.functionType(fn))
			} else {
				fixed.t = u.functionType(fn)
			}
			u.exprs[node] = fixed
			node = n.Kids[0]
			continue
		case n.Kind == ast.NodeIDExpr:
			nameID := u.b.NameOf(n.Kids[0])
			u.resolved[nameID] = fn
			if last := u.b.Last(nameID); last != nameID {
				u.resolved[last] = fn
			}
			u.exprs[node] = exprInfo{t: u.functionType(fn), cat: LValue, binding: fn, node: node}
		}
		return
	}
}

// settleArgs resolves overloaded-name arguments against the parameter types
// of the function a call selected.
func (u *Unit) settleArgs(fn symbols.BindingID, args []exprInfo) {
	if !fn.IsValid() {
		return
	}
	params, _, _ := u.signature(fn)
	for i, a := range args {
		if a.overloads == nil || i >= len(params) {
			continue
		}
		if f := u.selectByType(a.overloads, nil, params[i]); f.IsValid() {
			u.settle(a, f)
		}
	}
}

// literals --------------------------------------------------------------------

func (u *Unit) literalExpr(node ast.NodeID) exprInfo {
	lit := u.b.Literal(node)
	in := u.types
	if lit == nil {
		return u.problemExpr()
	}
	switch lit.Kind {
	case token.IntLit:
		v, bt, ok := intLiteral(lit.Text)
		if !ok {
			bt = types.Int
		}
		return exprInfo{t: in.Basic(bt), zero: ok && v == 0}
	case token.FloatLit:
		return exprInfo{t: in.Basic(floatLiteral(lit.Text))}
	case token.CharLit:
		_, bt, ok := charLiteral(lit.Text)
		if !ok {
			bt = types.Int
		}
		return exprInfo{t: in.Basic(bt)}
	case token.StringLit:
		prefix, _ := charPrefix(lit.Text)
		elem := in.Qualify(in.Basic(charType(prefix)), types.Const)
		n := stringLength(lit.Text) + 1
		t := in.Intern(types.MakeArray(elem, uint32(n), true))
		return exprInfo{t: t, cat: LValue, strLit: true}
	case token.KwTrue, token.KwFalse:
		return exprInfo{t: in.Builtins().Bool}
	case token.KwNullptr:
		return exprInfo{t: in.Builtins().NullPtr, nullPtr: true}
	}
	return u.problemExpr()
}

func (u *Unit) thisExpr(node ast.NodeID) exprInfo {
	m := u.enclosingMethod(node)
	if !m.IsValid() {
		// default member initializers see the class being defined
		if cls := u.enclosingClass(u.scopeAt(node)); cls.IsValid() {
			return exprInfo{t: u.types.Pointer(u.classType(cls))}
		}
		return u.problemExpr()
	}
	owner := u.bind(m).Owner
	var cv types.CV
	if info, ok := u.types.FnInfo(u.TypeOf(m)); ok {
		cv = info.CV
	}
	return exprInfo{t: u.types.Pointer(u.types.Qualify(u.classType(owner), cv))}
}

// operators -------------------------------------------------------------------

// overloadable reports operands that send an operator through overload
// resolution.
func (u *Unit) overloadable(infos ...exprInfo) bool {
	for _, in := range infos {
		t := u.types.Underlying(in.t)
		if t.Kind == types.KindClass || t.Kind == types.KindEnum {
			return true
		}
	}
	return false
}

// arithType returns the promoted arithmetic type of t; unscoped enumerations
// promote through their underlying type.
func (u *Unit) arithBasic(t types.TypeID) types.Basic {
	if b := u.types.BasicOf(t); b != types.BasicNone {
		return b
	}
	if info, ok := u.types.EnumInfo(t); ok && !info.Scoped {
		return u.types.BasicOf(info.Underlying)
	}
	return types.BasicNone
}

func (u *Unit) unaryExpr(node ast.NodeID) exprInfo {
	n := u.node(node)
	op, postfix, kid := n.Op, n.Has(ast.FlagPostfix), n.Kids[0]
	oi := u.exprOf(kid)
	if op == token.Amp {
		if info, ok := u.memberPointer(kid, oi); ok {
			return info
		}
	}
	if u.isDependent(oi) {
		return u.dependentExpr(symbols.NoBindingID)
	}
	if op != token.Amp && u.overloadable(oi) {
		if r, ok := u.operatorCall(node, op, []exprInfo{oi}, postfix); ok {
			return r
		}
	}
	return u.builtinUnary(op, oi, postfix, node)
}

func (u *Unit) builtinUnary(op token.Kind, oi exprInfo, postfix bool, node ast.NodeID) exprInfo {
	in := u.types
	switch op {
	case token.Amp:
		if oi.overloads != nil {
			return exprInfo{t: oi.t, overloads: oi.overloads, binding: oi.binding}
		}
		if u.badType(oi.t) {
			return u.problemExpr()
		}
		return exprInfo{t: in.Pointer(oi.t)}
	case token.Star:
		return u.derefResult(oi, node)
	case token.Plus, token.Minus, token.Tilde:
		if in.IsPointer(oi.t) && op == token.Plus {
			return exprInfo{t: in.Decay(oi.t)}
		}
		if b := u.arithBasic(oi.t); b != types.BasicNone {
			if b.IsIntegral() {
				b = b.Promoted()
			}
			return exprInfo{t: in.Basic(b)}
		}
		return u.problemExpr()
	case token.Bang:
		return exprInfo{t: in.Builtins().Bool}
	case token.PlusPlus, token.MinusMinus:
		if postfix {
			t, _ := in.Unqualified(in.Canonical(oi.t))
			return exprInfo{t: t}
		}
		return exprInfo{t: oi.t, cat: LValue}
	}
	return u.problemExpr()
}

// memberPointer handles '&C::m' naming a non-static member.
func (u *Unit) memberPointer(kid ast.NodeID, oi exprInfo) (exprInfo, bool) {
	n := u.node(kid)
	if n.Kind != ast.NodeIDExpr {
		return exprInfo{}, false
	}
	if u.name(u.b.NameOf(n.Kids[0])).Kind != ast.NameQualified {
		return exprInfo{}, false
	}
	b := oi.binding
	if oi.overloads != nil {
		return exprInfo{t: oi.t, overloads: oi.overloads, binding: b}, true
	}
	bb := u.bind(b)
	if bb == nil || bb.IsProblem() || !bb.Owner.IsValid() || bb.Flags&symbols.FlagStatic != 0 {
		return exprInfo{}, false
	}
	switch bb.Kind {
	case symbols.KindField, symbols.KindMethod, symbols.KindConversion:
	default:
		return exprInfo{}, false
	}
	cls := u.classType(bb.Owner)
	t := u.types.Intern(types.MakeMemberPointer(cls, u.TypeOf(b)))
	return exprInfo{t: t, binding: b}, true
}

// derefResult is the value of '*e'. A valid node records the implicit
// operator name when operator* is overloaded.
func (u *Unit) derefResult(info exprInfo, node ast.NodeID) exprInfo {
	t := u.types.Underlying(u.types.StripRef(info.t))
	switch t.Kind {
	case types.KindPointer, types.KindArray:
		return exprInfo{t: t.Elem, cat: LValue}
	case types.KindClass:
		if r, ok := u.operatorCall(node, token.Star, []exprInfo{info}, false); ok {
			return r
		}
	case types.KindTemplateParam, types.KindDeferred:
		return u.dependentExpr(symbols.NoBindingID)
	}
	return u.problemExpr()
}

func isAssignOp(op token.Kind) bool {
	switch op {
	case token.Assign, token.PlusAssign, token.MinusAssign, token.StarAssign, token.SlashAssign,
		token.PercentAssign, token.AmpAssign, token.PipeAssign, token.CaretAssign,
		token.ShlAssign, token.ShrAssign:
		return true
	}
	return false
}

func (u *Unit) binaryExpr(node ast.NodeID) exprInfo {
	n := u.node(node)
	op := n.Op
	l, r := u.exprOf(n.Kids[0]), u.exprOf(n.Kids[1])
	if u.isDependent(l, r) {
		return u.dependentExpr(symbols.NoBindingID)
	}
	if u.overloadable(l, r) && op != token.DotStar {
		if res, ok := u.operatorCall(node, op, []exprInfo{l, r}, false); ok {
			return res
		}
	}
	if isAssignOp(op) && r.overloads != nil {
		if fn := u.selectByType(r.overloads, nil, l.t); fn.IsValid() {
			u.settle(r, fn)
		}
	}
	return u.builtinBinary(op, l, r)
}

func (u *Unit) builtinBinary(op token.Kind, l, r exprInfo) exprInfo {
	in := u.types
	if isAssignOp(op) {
		return exprInfo{t: l.t, cat: LValue}
	}
	switch op {
	case token.Comma:
		return r
	case token.EqEq, token.BangEq, token.Lt, token.Gt, token.LtEq, token.GtEq, token.AndAnd, token.OrOr:
		return exprInfo{t: in.Builtins().Bool}
	case token.DotStar, token.ArrowStar:
		mp := in.Underlying(r.t)
		if mp.Kind != types.KindMemberPointer {
			return u.problemExpr()
		}
		if _, ok := in.FnInfo(mp.Elem); ok {
			return exprInfo{t: mp.Elem}
		}
		obj := l
		if op == token.ArrowStar {
			obj = u.derefResult(l, ast.NoNodeID)
		}
		t := in.Qualify(mp.Elem, in.CVOf(obj.t))
		if obj.cat == LValue {
			return exprInfo{t: t, cat: LValue}
		}
		return exprInfo{t: t, cat: XValue}
	case token.Shl, token.Shr:
		if b := u.arithBasic(l.t); b.IsIntegral() {
			return exprInfo{t: in.Basic(b.Promoted())}
		}
		return u.problemExpr()
	case token.Plus, token.Minus:
		lp, rp := in.Decay(l.t), in.Decay(r.t)
		switch {
		case in.IsPointer(lp) && in.IsPointer(rp) && op == token.Minus:
			return exprInfo{t: in.Builtins().Long}
		case in.IsPointer(lp):
			return exprInfo{t: lp}
		case in.IsPointer(rp) && op == token.Plus:
			return exprInfo{t: rp}
		}
	}
	lb, rb := u.arithBasic(l.t), u.arithBasic(r.t)
	if lb == types.BasicNone || rb == types.BasicNone {
		return u.problemExpr()
	}
	return exprInfo{t: in.Basic(types.ArithmeticConversion(lb, rb))}
}

func (u *Unit) conditionalExpr(node ast.NodeID) exprInfo {
	n := u.node(node)
	u.exprOf(n.Kids[0])
	a, b := u.exprOf(n.Kids[1]), u.exprOf(n.Kids[2])
	in := u.types
	if u.isDependent(a, b) {
		return u.dependentExpr(symbols.NoBindingID)
	}
	isThrow := func(id ast.NodeID) bool {
		k := u.node(id)
		for k != nil && k.Kind == ast.NodeParen {
			k = u.node(k.Kids[0])
		}
		return k != nil && k.Kind == ast.NodeThrow
	}
	switch {
	case isThrow(n.Kids[1]):
		return exprInfo{t: b.t, cat: b.cat}
	case isThrow(n.Kids[2]):
		return exprInfo{t: a.t, cat: a.cat}
	case in.IsSameType(a.t, b.t) && a.cat == b.cat && a.cat != PRValue:
		return exprInfo{t: a.t, cat: a.cat}
	case in.IsSameType(a.t, b.t):
		t, _ := in.Unqualified(in.Canonical(a.t))
		return exprInfo{t: t}
	}
	if la, lb := u.arithBasic(a.t), u.arithBasic(b.t); la != types.BasicNone && lb != types.BasicNone {
		return exprInfo{t: in.Basic(types.ArithmeticConversion(la, lb))}
	}
	da, db := in.Decay(a.t), in.Decay(b.t)
	switch {
	case in.IsPointer(da) && (b.nullPtr || b.zero):
		return exprInfo{t: da}
	case in.IsPointer(db) && (a.nullPtr || a.zero):
		return exprInfo{t: db}
	case in.IsPointer(da) && in.IsPointer(db):
		if u.derivedToBase(da, db) {
			return exprInfo{t: db}
		}
		return exprInfo{t: da}
	}
	// class operands: one side has to convert to the other
	if c := u.convert(b, a.t, true); !c.bad() {
		t, _ := in.Unqualified(in.Canonical(a.t))
		return exprInfo{t: t}
	}
	if c := u.convert(a, b.t, true); !c.bad() {
		t, _ := in.Unqualified(in.Canonical(b.t))
		return exprInfo{t: t}
	}
	return u.problemExpr()
}

func (u *Unit) subscriptExpr(node ast.NodeID) exprInfo {
	n := u.node(node)
	l, i := u.exprOf(n.Kids[0]), u.exprOf(n.Kids[1])
	if u.isDependent(l, i) {
		return u.dependentExpr(symbols.NoBindingID)
	}
	if u.types.Underlying(l.t).Kind == types.KindClass {
		if r, ok := u.operatorCall(node, token.LBracket, []exprInfo{l, i}, false); ok {
			return r
		}
		return u.problemExpr()
	}
	if lt := u.types.Decay(l.t); u.types.IsPointer(lt) {
		return exprInfo{t: u.types.Underlying(lt).Elem, cat: LValue}
	}
	if it := u.types.Decay(i.t); u.types.IsPointer(it) {
		return exprInfo{t: u.types.Underlying(it).Elem, cat: LValue}
	}
	return u.problemExpr()
}

// member access ---------------------------------------------------------------

// arrowObject turns the left operand of '->' into the object it designates,
// following overloaded operator-> until a pointer comes out.
func (u *Unit) arrowObject(node ast.NodeID, obj exprInfo) exprInfo {
	for range maxBaseDepth {
		t := u.types.Underlying(u.types.StripRef(obj.t))
		switch t.Kind {
		case types.KindPointer:
			return exprInfo{t: t.Elem, cat: LValue}
		case types.KindTemplateParam, types.KindDeferred:
			return u.dependentExpr(symbols.NoBindingID)
		case types.KindClass:
			r, ok := u.operatorCall(node, token.Arrow, []exprInfo{obj}, false)
			if !ok {
				return u.problemExpr()
			}
			obj = r
			continue
		}
		return u.problemExpr()
	}
	return u.problemExpr()
}

// memberCandidates looks up the name after '.' or '->' in the class of the
// object. A qualified member name is looked up in its qualifier.
func (u *Unit) memberCandidates(cls symbols.BindingID, nameID ast.NameID) ([]symbols.BindingID, symbols.BindingID) {
	nm := u.name(nameID)
	spelling := u.name(u.b.Base(nameID)).Spelling
	if nm.Kind == ast.NameQualified {
		return u.candidates(nameID, symbols.KindMaskAny)
	}
	u.ensureMembers(cls)
	found := u.lookupMember(cls, spelling, symbols.KindMaskAny)
	if len(found) == 0 {
		if u.hasDependentBases(cls) {
			return []symbols.BindingID{u.dependentMember(cls, spelling)}, symbols.NoBindingID
		}
		return nil, u.problem(symbols.ProblemNameNotFound, spelling, cls)
	}
	if len(found) == 1 && u.isProblem(found[0]) {
		return nil, found[0]
	}
	return found, symbols.NoBindingID
}

func (u *Unit) memberExpr(node ast.NodeID) exprInfo {
	n := u.node(node)
	op, objNode, nameID := n.Op, n.Kids[0], u.b.NameOf(n.Kids[1])
	obj := u.exprOf(objNode)
	if op == token.Arrow {
		obj = u.arrowObject(node, obj)
	}
	spelling := u.name(u.b.Base(nameID)).Spelling
	if u.isDependent(obj) {
		b := u.dependentMember(u.dependentFor(u.types.StripRef(obj.t)), spelling)
		u.resolved[nameID] = b
		u.noteLast(nameID, b)
		return u.dependentExpr(b)
	}
	cls, ok := u.types.ClassBinding(u.types.StripRef(obj.t))
	if !ok {
		p := u.problem(symbols.ProblemNameNotFound, spelling)
		u.resolved[nameID] = p
		return exprInfo{t: u.types.Problem(types.ProblemInvalidType), binding: p}
	}
	found, prob := u.memberCandidates(symbols.BindingID(cls), nameID)
	if prob.IsValid() {
		u.resolved[nameID] = prob
		return exprInfo{t: u.types.Problem(types.ProblemInvalidType), binding: prob}
	}
	found = u.hideTypes(found)
	if len(found) > 1 && u.allFunctions(u.functionCandidates(found)) {
		p := u.problem(symbols.ProblemAmbiguousLookup, spelling, found...)
		u.resolved[nameID] = p
		return exprInfo{t: u.types.Problem(types.ProblemInvalidType), binding: p, overloads: u.functionCandidates(found)}
	}
	b, prob := u.single(found, spelling)
	if prob.IsValid() {
		b = prob
	}
	u.resolved[nameID] = b
	u.noteLast(nameID, b)
	return u.memberValue(b, obj)
}

// memberValue is the value of obj.m for the member b.
func (u *Unit) memberValue(b symbols.BindingID, obj exprInfo) exprInfo {
	bb := u.bind(b)
	if bb == nil || bb.IsProblem() {
		return exprInfo{t: u.types.Problem(types.ProblemInvalidType), binding: b}
	}
	kind, flags := bb.Kind, bb.Flags
	if kind == symbols.KindUsingDeclaration {
		if ds := u.delegates(b); len(ds) == 1 {
			return u.memberValue(ds[0], obj)
		}
	}
	switch kind {
	case symbols.KindField:
		declared := u.TypeOf(b)
		t := u.types.StripRef(declared)
		switch {
		case flags&symbols.FlagStatic != 0 || u.types.IsReference(declared):
			return exprInfo{t: t, cat: LValue, binding: b}
		case flags&symbols.FlagMutable == 0:
			t = u.types.Qualify(t, u.types.CVOf(obj.t))
		}
		if obj.cat == LValue {
			return exprInfo{t: t, cat: LValue, binding: b}
		}
		return exprInfo{t: t, cat: XValue, binding: b}
	case symbols.KindVariable:
		return exprInfo{t: u.types.StripRef(u.TypeOf(b)), cat: LValue, binding: b}
	case symbols.KindEnumerator:
		return exprInfo{t: u.TypeOf(b), binding: b}
	case symbols.KindDependent:
		return u.dependentExpr(b)
	}
	if kind.IsFunction() {
		return exprInfo{t: u.TypeOf(b), binding: b}
	}
	return exprInfo{t: u.types.Problem(types.ProblemInvalidType), binding: b}
}

// casts and construction -----------------------------------------------------

func (u *Unit) castExpr(node ast.NodeID) exprInfo {
	n := u.node(node)
	kind, op := n.Kind, n.Op
	target := u.typeOfTypeID(n.Kids[0])
	e := u.exprOf(n.Kids[1])
	in := u.types
	cat := catOf(in, target)
	t := in.StripRef(target)
	if in.IsDependent(t) || u.isDependent(e) {
		return exprInfo{t: t, cat: cat}
	}
	if e.overloads != nil {
		if fn := u.selectByType(e.overloads, nil, t); fn.IsValid() {
			u.settle(e, fn)
		}
	}
	convertible := kind == ast.NodeCast || op == token.KwStaticCast
	if convertible && !in.IsReference(target) {
		if cls, ok := in.ClassBinding(t); ok {
			u.construct(node, t, []exprInfo{e}, false, symbols.BindingID(cls))
		} else if _, ok := in.ClassBinding(in.StripRef(e.t)); ok {
			u.recordConversion(node, e, t)
		}
	}
	return exprInfo{t: t, cat: cat}
}

// recordConversion records the conversion function a class operand uses to
// become t.
func (u *Unit) recordConversion(node ast.NodeID, e exprInfo, t types.TypeID) {
	c := u.userConversion(e, t)
	if c.kind == convUser && c.user.IsValid() && u.kind(c.user) == symbols.KindConversion {
		u.addImplicit(node, c.user)
	}
}

func (u *Unit) typeConstructExpr(node ast.NodeID) exprInfo {
	n := u.node(node)
	t := u.specType(n.Kids[0])
	braced := n.Has(ast.FlagBraced)
	var argNodes []ast.NodeID
	if len(n.Kids) > 1 {
		argNodes = slices.Clone(u.node(n.Kids[1]).Kids)
	}
	args := u.argInfos(argNodes)
	if u.types.IsDependent(t) || u.isDependent(args...) {
		return exprInfo{t: t}
	}
	cls, _ := u.types.ClassBinding(t)
	u.construct(node, t, args, braced, symbols.BindingID(cls))
	return exprInfo{t: t}
}

func (u *Unit) argInfos(nodes []ast.NodeID) []exprInfo {
	out := make([]exprInfo, len(nodes))
	for i, a := range nodes {
		out[i] = u.exprOf(a)
	}
	return out
}

// construct selects the constructor initializing an object of type t from
// args and records it as an implicit name on node. Scalars only check for
// narrowing under list-initialization.
func (u *Unit) construct(node ast.NodeID, t types.TypeID, args []exprInfo, list bool, cls symbols.BindingID) {
	if u.badType(t) {
		return
	}
	if !cls.IsValid() {
		if list && len(args) == 1 && u.narrows(args[0], t) {
			u.exprProblems[node] = u.problem(symbols.ProblemNarrowingConversion, source.NoStringID)
		}
		if len(args) == 1 && args[0].overloads != nil {
			if fn := u.selectByType(args[0].overloads, nil, t); fn.IsValid() {
				u.settle(args[0], fn)
			}
		}
		return
	}
	sel := u.selectConstructorFor(cls, args, list)
	switch {
	case sel.ok():
		u.settleArgs(sel.fn, args)
		u.addImplicit(node, sel.fn)
	case list && u.isAggregate(cls) && len(args) <= len(u.DeclaredFields(cls)):
	default:
		u.addImplicit(node, sel.problem)
	}
}

// addImplicit records a name the engine created for a call without a token
// of its own, resolved to b.
func (u *Unit) addImplicit(node ast.NodeID, b symbols.BindingID) {
	if !node.IsValid() || !b.IsValid() {
		return
	}
	for _, id := range u.implicit[node] {
		if u.resolved[id] == b {
			return
		}
	}
	name := u.bind(b).Name
	span := u.node(node).Span
	id := u.b.NewImplicitName(node, name, span)
	u.resolved[id] = b
	u.implicit[node] = append(u.implicit[node], id)
}

func (u *Unit) typeidExpr(node ast.NodeID) exprInfo {
	u.operandOf(u.node(node).Kids[0])
	std := u.lookupUnqualified(u.tab.Global, u.intern("std"), symbols.KindNamespace.Mask(), 0)
	if len(std) == 1 && !u.isProblem(std[0]) {
		found := u.lookupQualified(std[0], u.intern("type_info"), symbols.MaskTypes, 0)
		if len(found) == 1 && !u.isProblem(found[0]) {
			t := u.types.Qualify(u.typeOfEntity(found[0]), types.Const)
			return exprInfo{t: t, cat: LValue}
		}
	}
	return u.problemExpr()
}

func (u *Unit) newExpr(node ast.NodeID) exprInfo {
	nd := *u.b.NewExpr(node)
	for _, p := range nd.Placement {
		u.exprOf(p)
	}
	in := u.types
	t := u.typeOfTypeID(nd.Type)
	elem, array := t, false
	if tt := in.Underlying(t); tt.Kind == types.KindArray {
		elem, array = tt.Elem, true
	}
	var argNodes []ast.NodeID
	list := false
	if nd.Init.IsValid() {
		init := u.node(nd.Init)
		argNodes = slices.Clone(init.Kids)
		list = init.Kind == ast.NodeInitList
	}
	args := u.argInfos(argNodes)
	if !in.IsDependent(elem) && !u.isDependent(args...) {
		if cls, ok := in.ClassBinding(elem); ok {
			if array {
				args = nil
			}
			u.construct(node, elem, args, list, symbols.BindingID(cls))
		} else if list && len(args) == 1 {
			u.construct(node, elem, args, true, symbols.NoBindingID)
		}
	}
	return exprInfo{t: in.Pointer(elem)}
}

func (u *Unit) deleteExpr(node ast.NodeID) exprInfo {
	n := u.node(node)
	oi := u.exprOf(n.Kids[0])
	void := exprInfo{t: u.types.Builtins().Void}
	pt := u.types.Underlying(u.types.Decay(oi.t))
	if pt.Kind != types.KindPointer {
		return void
	}
	cls, ok := u.types.ClassBinding(pt.Elem)
	if !ok {
		return void
	}
	u.ensureMembers(symbols.BindingID(cls))
	name := u.intern("~" + u.spell(u.bind(symbols.BindingID(cls)).Name))
	for _, d := range u.lookupMember(symbols.BindingID(cls), name, symbols.KindDestructor.Mask()) {
		if u.kind(d) == symbols.KindDestructor {
			u.addImplicit(node, d)
			break
		}
	}
	return void
}

// lambdaCallType is the function type of a lambda's call operator: the
// declared parameters and either the trailing return type or the type
// deduced from the body.
func (u *Unit) lambdaCallType(fn symbols.BindingID) types.TypeID {
	lambda := u.bind(fn).Node
	ld := u.b.Lambda(lambda)
	if ld == nil {
		return u.types.Problem(types.ProblemInvalidType)
	}
	declarator, body := ld.Declarator, ld.Body
	info := types.FnInfo{CV: types.Const}
	if u.node(lambda).Op == token.KwMutable {
		info.CV = 0
	}
	var trailing ast.NodeID
	if d := u.b.Declarator(declarator); d != nil && len(d.Chunks) > 0 {
		c := d.Chunks[0]
		params := slices.Clone(c.Params)
		trailing = c.Trailing
		info.Variadic = c.Variadic
		info.Except = c.Except == ast.ExceptNoexcept
		if !u.isVoidParams(params) {
			for _, p := range params {
				info.Params = append(info.Params, u.types.AdjustParam(u.paramDeclType(p)))
			}
		}
	}
	if trailing.IsValid() {
		info.Result = u.typeOfTypeID(trailing)
	} else {
		info.Result = u.returnTypeFromBody(body, types.NoTypeID)
	}
	return u.types.RegisterFn(info)
}

// memberCallResult is the value of 'r.name()' or, failing that, of the free
// call 'name(r)' found by argument-dependent lookup. Nothing is recorded.
func (u *Unit) memberCallResult(t types.TypeID, name source.StringID, at ast.NodeID) exprInfo {
	t = u.types.StripRef(t)
	if u.types.IsDependent(t) {
		return u.dependentExpr(symbols.NoBindingID)
	}
	obj := exprInfo{t: t, cat: LValue, node: at}
	if cls, ok := u.types.ClassBinding(t); ok {
		u.ensureMembers(symbols.BindingID(cls))
		if found := u.lookupMember(symbols.BindingID(cls), name, functionMask); len(found) > 0 {
			if sel := u.resolveOverload(found, nil, callOpts{obj: &obj, name: name}); sel.ok() {
				return u.callResult(sel)
			}
		}
	}
	fns := u.adl(name, []types.TypeID{t})
	sel := u.resolveOverload(fns, []exprInfo{obj}, callOpts{name: name})
	if !sel.ok() {
		return exprInfo{}
	}
	return u.callResult(sel)
}

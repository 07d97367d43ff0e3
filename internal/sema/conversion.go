package sema

import (
	"slices"

	"cppsema/internal/ast"
	"cppsema/internal/symbols"
	"cppsema/internal/types"
)

type convKind uint8

const (
	convBad convKind = iota
	convStandard
	convUser
	convEllipsis
)

// order ranks conversion kinds; smaller is better.
func (k convKind) order() int {
	switch k {
	case convStandard:
		return 0
	case convUser:
		return 1
	case convEllipsis:
		return 2
	}
	return 3
}

type convRank uint8

const (
	rankExact convRank = iota
	rankPromotion
	rankConversion
)

// voidDistance stands for a conversion to void*, which loses against every
// derived-to-base conversion.
const voidDistance = 1 << 20

// stdConv describes a standard conversion sequence and, when the target is
// a reference, how the reference binds.
type stdConv struct {
	rank       convRank
	refBind    bool
	bindRRef   bool
	rvalue     bool
	refCV      types.CV
	qual       bool
	ptrCV      types.CV
	deprecated bool
	toBool     bool
	derived    int
}

// ics is an implicit conversion sequence. For user-defined conversions std
// is the standard conversion applied after the user conversion.
type ics struct {
	kind      convKind
	std       stdConv
	user      symbols.BindingID
	narrowing bool
}

func (c ics) bad() bool { return c.kind == convBad }

var badConv = ics{kind: convBad}

func exactConv() ics { return ics{kind: convStandard} }

// compareICS orders two conversion sequences for the same argument: a
// negative result means a is better.
func compareICS(a, b ics) int {
	if ao, bo := a.kind.order(), b.kind.order(); ao != bo {
		return ao - bo
	}
	switch a.kind {
	case convStandard:
		return compareStd(a.std, b.std)
	case convUser:
		if a.user.IsValid() && a.user == b.user {
			return compareStd(a.std, b.std)
		}
	}
	return 0
}

func compareStd(a, b stdConv) int {
	if a.rank != b.rank {
		return int(a.rank) - int(b.rank)
	}
	if a.refBind && b.refBind && a.rvalue && b.rvalue && a.bindRRef != b.bindRRef {
		if a.bindRRef {
			return -1
		}
		return 1
	}
	if a.toBool != b.toBool {
		if b.toBool {
			return -1
		}
		return 1
	}
	if a.derived != b.derived && a.derived > 0 && b.derived > 0 {
		if a.derived < b.derived {
			return -1
		}
		return 1
	}
	if a.deprecated != b.deprecated {
		if b.deprecated {
			return -1
		}
		return 1
	}
	if a.qual && b.qual && a.ptrCV != b.ptrCV {
		switch {
		case b.ptrCV.Has(a.ptrCV):
			return -1
		case a.ptrCV.Has(b.ptrCV):
			return 1
		}
	}
	if a.refBind && b.refBind && a.refCV != b.refCV {
		// restrict takes part in the comparison of reference bindings only
		switch {
		case b.refCV.Has(a.refCV):
			return -1
		case a.refCV.Has(b.refCV):
			return 1
		}
	}
	return 0
}

// convert computes the implicit conversion sequence from an expression to
// the type to. User-defined conversions are considered when user is set.
func (u *Unit) convert(from exprInfo, to types.TypeID, user bool) ics {
	in := u.types
	if from.list {
		return u.convertList(from, to, user)
	}
	if from.overloads != nil && to.IsValid() && !u.badType(to) {
		return u.convertOverloadSet(from, to)
	}
	if !from.t.IsValid() || !to.IsValid() || u.badType(from.t) || u.badType(to) {
		return badConv
	}
	if in.IsDependent(from.t) || in.IsDependent(to) {
		return exactConv()
	}
	if tt := in.Underlying(to); tt.Kind == types.KindLRef || tt.Kind == types.KindRRef {
		return u.bindReference(from, tt.Kind == types.KindRRef, tt.Elem, user)
	}
	if s, ok := u.standard(from, to); ok {
		return ics{kind: convStandard, std: s}
	}
	if user {
		return u.userConversion(from, to)
	}
	return badConv
}

func (u *Unit) badType(t types.TypeID) bool {
	_, bad := u.types.ProblemOf(t)
	return bad
}

// convertOverloadSet matches an overloaded function name against a
// function pointer or reference target.
func (u *Unit) convertOverloadSet(from exprInfo, to types.TypeID) ics {
	if u.selectByType(from.overloads, nil, to).IsValid() {
		return exactConv()
	}
	return badConv
}

// standard finds a standard conversion sequence from from to the
// non-reference type to.
func (u *Unit) standard(from exprInfo, to types.TypeID) (stdConv, bool) {
	in := u.types
	src, _ := in.Unqualified(in.Canonical(in.Decay(from.t)))
	dst, _ := in.Unqualified(in.Canonical(to))
	if src == dst {
		return stdConv{rank: rankExact}, true
	}
	st, dt := in.Underlying(src), in.Underlying(dst)
	conversion := stdConv{rank: rankConversion}

	if dt.Kind == types.KindBasic && dt.Basic == types.Bool {
		switch {
		case st.Kind == types.KindPointer || st.Kind == types.KindMemberPointer:
			conversion.toBool = true
			return conversion, true
		case st.Kind == types.KindBasic && (st.Basic.IsArithmetic() || st.Basic == types.NullPtr):
			return conversion, true
		case st.Kind == types.KindEnum:
			info, _ := in.EnumInfo(src)
			return conversion, !info.Scoped
		}
		return stdConv{}, false
	}
	if st.Kind == types.KindBasic && st.Basic == types.NullPtr {
		return conversion, dt.Kind == types.KindPointer || dt.Kind == types.KindMemberPointer
	}
	if from.zero && (dt.Kind == types.KindPointer || dt.Kind == types.KindMemberPointer) && in.IsIntegral(src) {
		return conversion, true
	}
	switch {
	case in.IsArithmetic(src) && dt.Kind == types.KindBasic && dt.Basic.IsArithmetic():
		return u.arithmeticConv(src, dt.Basic)
	case st.Kind == types.KindPointer && dt.Kind == types.KindPointer:
		return u.pointerConv(from, st.Elem, dt.Elem)
	case st.Kind == types.KindMemberPointer && dt.Kind == types.KindMemberPointer:
		if in.IsSameType(st.Elem, dt.Elem) && u.derivedToBase(dt.Class, st.Class) {
			return conversion, true
		}
	case st.Kind == types.KindClass && dt.Kind == types.KindClass:
		if u.derivedToBase(src, dst) {
			conversion.derived = u.classDistance(src, dst)
			return conversion, true
		}
	}
	return stdConv{}, false
}

// arithmeticConv ranks promotions and conversions between arithmetic types;
// unscoped enumerations promote to their underlying type.
func (u *Unit) arithmeticConv(src types.TypeID, db types.Basic) (stdConv, bool) {
	in := u.types
	sb := in.BasicOf(src)
	if info, ok := in.EnumInfo(src); ok {
		if info.Scoped {
			return stdConv{}, false
		}
		under := in.BasicOf(info.Underlying)
		promoted := under.Promoted()
		if info.Fixed {
			promoted = under
		}
		if db == promoted || (info.Fixed && db == under.Promoted()) {
			return stdConv{rank: rankPromotion}, true
		}
		return stdConv{rank: rankConversion}, true
	}
	switch {
	case sb == db:
		return stdConv{rank: rankExact}, true
	case sb.IsIntegral() && sb.Promoted() == db && sb.Promoted() != sb:
		return stdConv{rank: rankPromotion}, true
	case sb == types.Float && db == types.Double:
		return stdConv{rank: rankPromotion}, true
	}
	return stdConv{rank: rankConversion}, true
}

func (u *Unit) pointerConv(from exprInfo, se, de types.TypeID) (stdConv, bool) {
	in := u.types
	su, scv := in.Unqualified(in.Canonical(se))
	du, dcv := in.Unqualified(in.Canonical(de))
	switch {
	case su == du && dcv.Has(scv):
		return stdConv{rank: rankExact, qual: true, ptrCV: dcv}, true
	case su == du && from.strLit && scv == types.Const && dcv == 0:
		return stdConv{rank: rankExact, deprecated: true}, true
	}
	if !dcv.Has(scv) {
		return stdConv{}, false
	}
	dt := in.Underlying(du)
	st := in.Underlying(su)
	switch {
	case dt.Kind == types.KindBasic && dt.Basic == types.Void && st.Kind != types.KindFunction:
		return stdConv{rank: rankConversion, derived: voidDistance}, true
	case st.Kind == types.KindClass && dt.Kind == types.KindClass && u.derivedToBase(su, du):
		return stdConv{rank: rankConversion, derived: u.classDistance(su, du)}, true
	case st.Kind == types.KindFunction && dt.Kind == types.KindFunction:
		// a noexcept function converts to a pointer to its potentially
		// throwing counterpart
		sf, _ := in.FnInfo(su)
		df, _ := in.FnInfo(du)
		if sf.Except && !df.Except {
			plain := *sf
			plain.Params = slices.Clone(sf.Params)
			plain.Except = false
			if in.RegisterFn(plain) == du {
				return stdConv{rank: rankExact}, true
			}
		}
	}
	return stdConv{}, false
}

func (u *Unit) classDistance(derived, base types.TypeID) int {
	dc, ok1 := u.types.ClassBinding(derived)
	bc, ok2 := u.types.ClassBinding(base)
	if !ok1 || !ok2 {
		return 0
	}
	return u.baseDistance(symbols.BindingID(dc), symbols.BindingID(bc), 0)
}

// bindReference binds a reference to elem. Compatible lvalues bind
// directly; everything else needs a temporary, which only const lvalue
// references and rvalue references accept.
func (u *Unit) bindReference(from exprInfo, rref bool, elem types.TypeID, user bool) ics {
	in := u.types
	eu, ecv := in.Unqualified(in.Canonical(elem))
	src := in.StripRef(from.t)
	su, scv := in.Unqualified(in.Canonical(src))
	lvalue := from.cat == LValue
	related := su == eu || u.derivedToBase(su, eu)
	binding := stdConv{refBind: true, bindRRef: rref, rvalue: !lvalue, refCV: ecv}
	constRef := ecv.Has(types.Const) && !ecv.Has(types.Volatile)
	if related {
		if !ecv.Has(scv &^ types.Restrict) {
			return badConv
		}
		if su != eu {
			binding.rank = rankConversion
			binding.derived = u.classDistance(su, eu)
		}
		switch {
		case rref && lvalue && in.Underlying(su).Kind != types.KindFunction:
			return badConv
		case !rref && !lvalue && !constRef:
			return badConv
		}
		return ics{kind: convStandard, std: binding}
	}
	if !rref && !constRef {
		// a conversion function may still yield a compatible lvalue
		if user {
			if c := u.conversionToReference(from, eu, ecv, false); !c.bad() {
				return c
			}
		}
		return badConv
	}
	tmp := from
	tmp.t = src
	tmp.cat = PRValue
	c := u.convert(tmp, eu, user)
	if c.bad() {
		return c
	}
	c.std.refBind = true
	c.std.bindRRef = rref
	c.std.rvalue = !lvalue
	c.std.refCV = ecv
	return c
}

// conversionToReference looks for a conversion function of the source
// class returning a reference compatible with eu.
func (u *Unit) conversionToReference(from exprInfo, eu types.TypeID, ecv types.CV, rref bool) ics {
	in := u.types
	cls, ok := in.ClassBinding(in.StripRef(from.t))
	if !ok {
		return badConv
	}
	var best ics
	found := false
	for _, conv := range u.conversionFunctions(symbols.BindingID(cls)) {
		if !u.objectAccepts(conv, from) {
			continue
		}
		info, ok := in.FnInfo(u.functionType(conv))
		if !ok {
			continue
		}
		rt := in.Underlying(info.Result)
		if rt.Kind != types.KindLRef || rref {
			continue
		}
		ru, rcv := in.Unqualified(in.Canonical(rt.Elem))
		if (ru != eu && !u.derivedToBase(ru, eu)) || !ecv.Has(rcv) {
			continue
		}
		c := ics{kind: convUser, user: conv, std: stdConv{refBind: true, refCV: ecv}}
		if found {
			return badConv
		}
		best, found = c, true
	}
	if !found {
		return badConv
	}
	return best
}

// userConversion finds the unique converting constructor or conversion
// function taking from to to. Ambiguous conversions are bad.
func (u *Unit) userConversion(from exprInfo, to types.TypeID) ics {
	in := u.types
	type option struct {
		fn    symbols.BindingID
		first ics
		std   stdConv
	}
	var opts []option
	dst, _ := in.Unqualified(in.Canonical(to))
	if cls, ok := in.ClassBinding(dst); ok {
		for _, ctor := range u.constructors(symbols.BindingID(cls)) {
			if u.bind(ctor).Flags&symbols.FlagExplicit != 0 {
				continue
			}
			fn, ok := u.specializeFor(ctor, nil, []exprInfo{from})
			if !ok {
				continue
			}
			ps, required, _ := u.signature(fn)
			if len(ps) == 0 || required > 1 {
				continue
			}
			if su, _ := in.Unqualified(in.Canonical(in.StripRef(from.t))); su == dst && u.isCopyOrMoveParam(ps[0], dst) {
				continue
			}
			c := u.convert(from, ps[0], false)
			if c.bad() {
				continue
			}
			opts = append(opts, option{fn: fn, first: c})
		}
	}
	if cls, ok := in.ClassBinding(in.StripRef(from.t)); ok {
		for _, conv := range u.conversionFunctions(symbols.BindingID(cls)) {
			if u.bind(conv).Flags&symbols.FlagExplicit != 0 || !u.objectAccepts(conv, from) {
				continue
			}
			info, ok := in.FnInfo(u.functionType(conv))
			if !ok {
				continue
			}
			res := exprInfo{t: in.StripRef(info.Result), cat: catOf(in, info.Result)}
			s, ok := u.standard(res, to)
			if !ok {
				continue
			}
			if _, isClass := in.ClassBinding(dst); isClass && s.rank != rankExact && s.derived == 0 {
				continue
			}
			opts = append(opts, option{fn: conv, std: s})
		}
	}
	if len(opts) == 0 {
		return badConv
	}
	best := 0
	ambiguous := false
	for i := 1; i < len(opts); i++ {
		a, b := opts[i], opts[best]
		var cmp int
		if a.first.kind != convBad && b.first.kind != convBad {
			cmp = compareICS(a.first, b.first)
		} else {
			cmp = compareStd(a.std, b.std)
		}
		switch {
		case cmp < 0:
			best, ambiguous = i, false
		case cmp == 0:
			ambiguous = true
		}
	}
	if ambiguous {
		return badConv
	}
	return ics{kind: convUser, user: opts[best].fn, std: opts[best].std}
}

// isCopyOrMoveParam reports a parameter of type cv C& or C&& where C is cls;
// a copy constructor never serves as a user-defined conversion from C.
func (u *Unit) isCopyOrMoveParam(p, cls types.TypeID) bool {
	in := u.types
	e, _ := in.Unqualified(in.Canonical(in.StripRef(p)))
	return e == cls
}

// conversionFunctions lists the conversion functions of cls and its bases;
// one declared in a derived class hides a base's of the same name.
func (u *Unit) conversionFunctions(cls symbols.BindingID) []symbols.BindingID {
	var out []symbols.BindingID
	seen := make(map[uint32]bool)
	for _, c := range append([]symbols.BindingID{cls}, u.allBases(cls)...) {
		u.ensureMembers(c)
		for _, m := range slices.Clone(u.bind(c).Members) {
			mb := u.bind(m)
			if mb.Kind != symbols.KindConversion || seen[uint32(mb.Name)] {
				continue
			}
			seen[uint32(mb.Name)] = true
			out = append(out, m)
		}
	}
	return out
}

// objectAccepts checks the implicit object parameter of a member function
// against the cv-qualification of the object.
func (u *Unit) objectAccepts(fn symbols.BindingID, obj exprInfo) bool {
	info, ok := u.types.FnInfo(u.functionType(fn))
	if !ok {
		return false
	}
	cv := u.types.CVOf(u.types.StripRef(obj.t))
	if !info.CV.Has(cv &^ types.Restrict) {
		return false
	}
	switch info.Ref {
	case types.RefLValue:
		return obj.cat == LValue || info.CV == types.Const
	case types.RefRValue:
		return obj.cat != LValue
	}
	return true
}

// convertList ranks list-initialization of to from a braced list.
func (u *Unit) convertList(from exprInfo, to types.TypeID, user bool) ics {
	in := u.types
	elems := u.listElements(from.node)
	if tt := in.Underlying(to); tt.Kind == types.KindLRef || tt.Kind == types.KindRRef {
		cu, cv := in.Unqualified(in.Canonical(tt.Elem))
		if tt.Kind == types.KindLRef && !(cv.Has(types.Const) && !cv.Has(types.Volatile)) {
			return badConv
		}
		c := u.convertList(from, cu, user)
		c.std.refBind = true
		c.std.bindRRef = tt.Kind == types.KindRRef
		c.std.rvalue = true
		c.std.refCV = cv
		return c
	}
	dst, _ := in.Unqualified(in.Canonical(to))
	if cls, ok := in.ClassBinding(dst); ok {
		if !user {
			return badConv
		}
		sel := u.selectConstructor(symbols.BindingID(cls), elems, true)
		if sel.fn.IsValid() {
			return ics{kind: convUser, user: sel.fn}
		}
		if u.isAggregate(symbols.BindingID(cls)) && len(elems) <= len(u.DeclaredFields(symbols.BindingID(cls))) {
			return ics{kind: convUser}
		}
		return badConv
	}
	if tt := in.Underlying(dst); tt.Kind == types.KindArray {
		if tt.Bound && uint32(len(elems)) > tt.Count {
			return badConv
		}
		worst := exactConv()
		for _, e := range elems {
			c := u.convert(u.exprOf(e), tt.Elem, user)
			if c.bad() {
				return badConv
			}
			if compareICS(c, worst) > 0 {
				worst = c
			}
		}
		return worst
	}
	switch len(elems) {
	case 0:
		return exactConv()
	case 1:
		e := u.exprOf(elems[0])
		c := u.convert(e, dst, user)
		if !c.bad() && c.kind == convStandard && u.narrows(e, dst) {
			c.narrowing = true
		}
		return c
	}
	return badConv
}

func (u *Unit) listElements(list ast.NodeID) []ast.NodeID {
	n := u.node(list)
	if n == nil {
		return nil
	}
	return slices.Clone(n.Kids)
}

// isAggregate reports classes without user-declared constructors, virtual
// functions or virtual bases.
func (u *Unit) isAggregate(cls symbols.BindingID) bool {
	for _, m := range u.bind(cls).Members {
		mb := u.bind(m)
		if mb.Kind == symbols.KindConstructor || u.isConstructorTemplate(m) || mb.Flags&symbols.FlagVirtual != 0 {
			return false
		}
	}
	for _, b := range u.classBases(cls) {
		if b.Virtual {
			return false
		}
	}
	return true
}

// narrows reports a narrowing conversion in list-initialization. A
// conversion counts as narrowing unless it is provably value preserving.
func (u *Unit) narrows(from exprInfo, to types.TypeID) bool {
	in := u.types
	src, to := in.StripRef(from.t), in.StripRef(to)
	sb := in.BasicOf(src)
	if info, ok := in.EnumInfo(src); ok && !info.Scoped {
		sb = in.BasicOf(info.Underlying)
	}
	db := in.BasicOf(to)
	if sb == types.BasicNone || db == types.BasicNone || sb == db {
		if db == types.Bool && in.IsPointer(in.Decay(src)) {
			return true
		}
		return false
	}
	switch {
	case sb.IsFloating() && db.IsIntegral():
		return true
	case sb.IsFloating() && db.IsFloating():
		return db.Bits() < sb.Bits()
	case sb.IsIntegral() && db.IsFloating():
		v, ok := u.fromConstant(from)
		if !ok {
			return true
		}
		limit := int64(1) << mantissaBits(db)
		return v > limit || v < -limit
	case sb.IsIntegral() && db.IsIntegral():
		slo, shi := sb.Range()
		dlo, dhi := db.Range()
		if dlo <= slo && dhi >= shi {
			return false
		}
		v, ok := u.fromConstant(from)
		if !ok {
			return true
		}
		if !sb.IsSigned() && v < 0 {
			// large unsigned constant held as a negative int64
			return true
		}
		return !db.Representable(v)
	}
	return false
}

func (u *Unit) fromConstant(from exprInfo) (int64, bool) {
	if !from.node.IsValid() {
		return 0, false
	}
	return u.constValue(from.node)
}

func mantissaBits(b types.Basic) uint {
	switch b {
	case types.Float:
		return 24
	case types.Double:
		return 53
	}
	return 63
}

func catOf(in *types.Interner, t types.TypeID) Category {
	switch in.Underlying(t).Kind {
	case types.KindLRef:
		return LValue
	case types.KindRRef:
		if in.Underlying(in.StripRef(t)).Kind == types.KindFunction {
			return LValue
		}
		return XValue
	}
	return PRValue
}

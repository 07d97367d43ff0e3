package sema

import (
	"slices"

	"cppsema/internal/ast"
	"cppsema/internal/source"
	"cppsema/internal/symbols"
	"cppsema/internal/token"
	"cppsema/internal/types"
)

// callExpr types a call. Calls through a name or member access run overload
// resolution and leave the chosen function as the callee's binding.
func (u *Unit) callExpr(node ast.NodeID) exprInfo {
	n := u.node(node)
	callee := n.Kids[0]
	argNodes := slices.Clone(n.Kids[1:])
	args := u.argInfos(argNodes)
	switch u.node(callee).Kind {
	case ast.NodeIDExpr:
		return u.callName(node, callee, args)
	case ast.NodeMember:
		return u.callMember(node, callee, args)
	}
	fi := u.exprOf(callee)
	return u.callValue(node, fi, args)
}

// setCallee stores what the callee of a call denotes.
func (u *Unit) setCallee(callee ast.NodeID, info exprInfo) {
	info.node = callee
	u.exprs[callee] = info
}

func (u *Unit) resolveCallee(nameID ast.NameID, b symbols.BindingID) {
	u.resolved[nameID] = b
	u.noteLast(nameID, b)
}

// callResult is the value of a call to the selected function.
func (u *Unit) callResult(sel selection) exprInfo {
	if !sel.ok() {
		return exprInfo{t: u.types.Problem(types.ProblemInvalidType), binding: sel.problem}
	}
	info, ok := u.types.FnInfo(u.functionType(sel.fn))
	if !ok {
		return exprInfo{t: u.types.Problem(types.ProblemInvalidType), binding: sel.fn}
	}
	result := info.Result
	return exprInfo{t: u.types.StripRef(result), cat: catOf(u.types, result), binding: sel.fn}
}

func (u *Unit) argTypes(args []exprInfo) []types.TypeID {
	out := make([]types.TypeID, 0, len(args))
	for _, a := range args {
		if a.t.IsValid() {
			out = append(out, a.t)
		}
	}
	return out
}

// callName handles 'f(args)': a function call with argument-dependent
// lookup, a functional cast when f names a type, or a call through an
// object.
func (u *Unit) callName(node, callee ast.NodeID, args []exprInfo) exprInfo {
	nameID := u.b.NameOf(u.node(callee).Kids[0])
	qualified := u.name(nameID).Kind == ast.NameQualified
	last := u.b.Last(nameID)
	spelling := u.name(u.b.Base(nameID)).Spelling
	var explicit []types.Arg
	templateID := u.name(last).Kind == ast.NameTemplateID
	if templateID {
		explicit = u.templateArgs(last)
	}
	dependentArgs := u.isDependent(args...)

	found, prob := u.candidates(nameID, symbols.KindMaskAny)
	if prob.IsValid() {
		if qualified || u.bind(prob).Problem != symbols.ProblemNameNotFound {
			return u.failCall(callee, nameID, prob)
		}
		if dependentArgs {
			return u.dependentCall(callee, nameID, spelling)
		}
		found = nil
	}
	found = u.hideTypes(found)

	if len(found) == 1 && u.kind(found[0]) == symbols.KindDependent {
		u.resolveCallee(nameID, found[0])
		u.setCallee(callee, u.dependentExpr(found[0]))
		return u.dependentExpr(symbols.NoBindingID)
	}

	if len(found) > 0 && u.kind(found[0]).IsType() && !u.kind(found[0]).IsFunction() {
		tb, prob := u.single(found, spelling)
		if prob.IsValid() {
			return u.failCall(callee, nameID, prob)
		}
		if templateID && u.kind(tb).IsTemplate() {
			u.resolved[u.name(last).Template] = tb
			tb = u.specialize(tb, last)
		}
		u.resolveCallee(nameID, tb)
		t := u.typeOfEntity(tb)
		u.setCallee(callee, exprInfo{t: t, binding: tb})
		if u.types.IsDependent(t) || dependentArgs {
			return exprInfo{t: t}
		}
		cls, _ := u.types.ClassBinding(t)
		u.construct(node, t, args, false, symbols.BindingID(cls))
		return exprInfo{t: t}
	}

	fns := u.functionCandidates(found)
	if len(fns) == 0 && len(found) > 0 {
		b, prob := u.single(found, spelling)
		if prob.IsValid() {
			return u.failCall(callee, nameID, prob)
		}
		u.resolveCallee(nameID, b)
		fi := u.valueOf(b, callee)
		u.setCallee(callee, fi)
		return u.callValue(node, fi, args)
	}

	member := false
	for _, f := range fns {
		if bb := u.bind(f); bb.Owner.IsValid() && bb.Kind != symbols.KindFunction {
			member = true
		}
	}
	if !qualified && !member {
		fns = appendUnique(fns, u.functionCandidates(u.adl(spelling, u.argTypes(args)))...)
	}
	if dependentArgs {
		if len(fns) == 1 && u.kind(fns[0]) != symbols.KindFunctionTemplate {
			u.resolveCallee(nameID, fns[0])
			u.setCallee(callee, exprInfo{t: u.TypeOf(fns[0]), cat: LValue, binding: fns[0]})
			return u.dependentExpr(symbols.NoBindingID)
		}
		return u.dependentCall(callee, nameID, spelling)
	}
	if len(fns) == 0 {
		return u.failCall(callee, nameID, u.problem(symbols.ProblemNameNotFound, spelling))
	}

	var obj *exprInfo
	if member {
		if m := u.enclosingMethod(callee); m.IsValid() && u.bind(m).Flags&symbols.FlagStatic == 0 {
			var cv types.CV
			if info, ok := u.types.FnInfo(u.TypeOf(m)); ok {
				cv = info.CV
			}
			self := exprInfo{t: u.types.Qualify(u.classType(u.bind(m).Owner), cv), cat: LValue}
			obj = &self
		}
	}
	sel := u.resolveOverload(fns, args, callOpts{obj: obj, explicit: explicit, name: spelling})
	b := sel.binding()
	u.resolveCallee(nameID, b)
	if templateID {
		if tmpl := u.bind(b).Template; sel.ok() && tmpl.IsValid() {
			u.resolved[u.name(last).Template] = tmpl
		} else if len(fns) > 0 {
			u.resolved[u.name(last).Template] = fns[0]
		}
	}
	u.settleArgs(sel.fn, args)
	fi := exprInfo{cat: LValue, binding: b}
	if sel.ok() {
		fi.t = u.functionType(sel.fn)
	}
	u.setCallee(callee, fi)
	return u.callResult(sel)
}

func (u *Unit) failCall(callee ast.NodeID, nameID ast.NameID, prob symbols.BindingID) exprInfo {
	u.resolveCallee(nameID, prob)
	info := exprInfo{t: u.types.Problem(types.ProblemInvalidType), binding: prob}
	u.setCallee(callee, info)
	return info
}

// dependentCall defers a call whose callee can only be found at
// instantiation.
func (u *Unit) dependentCall(callee ast.NodeID, nameID ast.NameID, spelling source.StringID) exprInfo {
	b := u.dependentMember(u.globalNS, spelling)
	u.resolveCallee(nameID, b)
	u.setCallee(callee, u.dependentExpr(b))
	return u.dependentExpr(symbols.NoBindingID)
}

// callMember handles 'obj.f(args)' and 'p->f(args)'.
func (u *Unit) callMember(node, callee ast.NodeID, args []exprInfo) exprInfo {
	mn := u.node(callee)
	op, objNode, nameID := mn.Op, mn.Kids[0], u.b.NameOf(mn.Kids[1])
	obj := u.exprOf(objNode)
	if op == token.Arrow {
		obj = u.arrowObject(callee, obj)
	}
	spelling := u.name(u.b.Base(nameID)).Spelling
	if u.isDependent(obj) {
		b := u.dependentMember(u.dependentFor(u.types.StripRef(obj.t)), spelling)
		u.resolveCallee(nameID, b)
		u.setCallee(callee, u.dependentExpr(b))
		return u.dependentExpr(symbols.NoBindingID)
	}
	cls, ok := u.types.ClassBinding(u.types.StripRef(obj.t))
	if !ok {
		return u.failCall(callee, nameID, u.problem(symbols.ProblemNameNotFound, spelling))
	}
	found, prob := u.memberCandidates(symbols.BindingID(cls), nameID)
	if prob.IsValid() {
		return u.failCall(callee, nameID, prob)
	}
	found = u.hideTypes(found)
	fns := u.functionCandidates(found)
	if len(fns) == 0 {
		b, prob := u.single(found, spelling)
		if prob.IsValid() {
			return u.failCall(callee, nameID, prob)
		}
		u.resolveCallee(nameID, b)
		fi := u.memberValue(b, obj)
		u.setCallee(callee, fi)
		if u.kind(b) == symbols.KindDependent {
			return u.dependentExpr(symbols.NoBindingID)
		}
		return u.callValue(node, fi, args)
	}
	if u.isDependent(args...) {
		if len(fns) == 1 {
			u.resolveCallee(nameID, fns[0])
			u.setCallee(callee, exprInfo{t: u.TypeOf(fns[0]), binding: fns[0]})
			return u.dependentExpr(symbols.NoBindingID)
		}
		return u.dependentCall(callee, nameID, spelling)
	}
	last := u.b.Last(nameID)
	var explicit []types.Arg
	if u.name(last).Kind == ast.NameTemplateID {
		explicit = u.templateArgs(last)
	}
	sel := u.resolveOverload(fns, args, callOpts{obj: &obj, explicit: explicit, name: spelling})
	b := sel.binding()
	u.resolveCallee(nameID, b)
	if u.name(last).Kind == ast.NameTemplateID {
		if tmpl := u.bind(b).Template; sel.ok() && tmpl.IsValid() {
			u.resolved[u.name(last).Template] = tmpl
		}
	}
	u.settleArgs(sel.fn, args)
	fi := exprInfo{binding: b}
	if sel.ok() {
		fi.t = u.functionType(sel.fn)
	}
	u.setCallee(callee, fi)
	return u.callResult(sel)
}

// callValue calls an object: a class with operator(), a function or a
// pointer to function.
func (u *Unit) callValue(node ast.NodeID, fi exprInfo, args []exprInfo) exprInfo {
	in := u.types
	if u.isDependent(fi) || u.isDependent(args...) {
		return u.dependentExpr(symbols.NoBindingID)
	}
	t := in.Underlying(in.StripRef(fi.t))
	switch t.Kind {
	case types.KindClass:
		cls := symbols.BindingID(t.Payload)
		name := u.intern("operator()")
		u.ensureMembers(cls)
		found := u.lookupMember(cls, name, functionMask)
		sel := u.resolveOverload(found, args, callOpts{obj: &fi, name: name})
		u.addImplicit(node, sel.binding())
		u.settleArgs(sel.fn, args)
		return u.callResult(sel)
	}
	fnT := in.StripRef(fi.t)
	if t.Kind == types.KindPointer {
		fnT = t.Elem
	}
	info, ok := in.FnInfo(in.Canonical(fnT))
	if !ok {
		return u.problemExpr()
	}
	result := info.Result
	return exprInfo{t: in.StripRef(result), cat: catOf(in, result)}
}

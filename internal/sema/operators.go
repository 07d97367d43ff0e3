package sema

import (
	"slices"

	"cppsema/internal/ast"
	"cppsema/internal/symbols"
	"cppsema/internal/token"
	"cppsema/internal/types"
)

func operatorSpelling(op token.Kind) string {
	switch op {
	case token.LBracket:
		return "operator[]"
	case token.LParen:
		return "operator()"
	}
	return "operator" + op.String()
}

// memberOnlyOperator reports operators that can only be overloaded by
// member functions.
func memberOnlyOperator(op token.Kind) bool {
	switch op {
	case token.Assign, token.LBracket, token.LParen, token.Arrow:
		return true
	}
	return false
}

// operatorCall resolves an operator applied to class or enumeration
// operands. Member candidates, non-member candidates found by unqualified
// lookup at node and those found by argument-dependent lookup compete; the
// built-in operator is used when none of them is viable. The chosen
// function, or the conversion function a built-in operand needs, is
// recorded as an implicit name on node. ok is false when the built-in
// operator applies to the operands unchanged.
func (u *Unit) operatorCall(node ast.NodeID, op token.Kind, args []exprInfo, postfix bool) (exprInfo, bool) {
	name := u.intern(operatorSpelling(op))
	end := u.debugSpan("operator", u.spell(name))
	defer end()
	operands := slices.Clone(args)
	if postfix {
		operands = append(operands, exprInfo{t: u.types.Builtins().Int, zero: true})
	}

	var fns []symbols.BindingID
	if cls, ok := u.types.ClassBinding(u.types.StripRef(args[0].t)); ok {
		u.ensureMembers(symbols.BindingID(cls))
		fns = u.functionCandidates(u.lookupMember(symbols.BindingID(cls), name, functionMask))
	}
	if !memberOnlyOperator(op) {
		scope := u.tab.Global
		if node.IsValid() {
			scope = u.scopeAt(node)
		}
		q := functionMask | symbols.KindUsingDeclaration.Mask()
		for _, f := range u.functionCandidates(u.lookupUnqualified(scope, name, q, 0)) {
			if !u.memberFunction(f) {
				fns = appendUnique(fns, f)
			}
		}
		fns = appendUnique(fns, u.functionCandidates(u.adl(name, u.argTypes(args)))...)
	}

	if len(fns) > 0 {
		sel := u.resolveOverload(fns, operands, callOpts{operands: true, name: name})
		if sel.ok() {
			u.addImplicit(node, sel.fn)
			return u.callResult(sel), true
		}
		if u.bind(sel.problem).Problem == symbols.ProblemAmbiguousLookup {
			u.addImplicit(node, sel.problem)
			return exprInfo{t: u.types.Problem(types.ProblemInvalidType), binding: sel.problem}, true
		}
	}
	return u.builtinOperator(node, op, args, postfix, fns)
}

// builtinOperator applies the built-in operator after converting class
// operands through their single conversion function.
func (u *Unit) builtinOperator(node ast.NodeID, op token.Kind, args []exprInfo, postfix bool, tried []symbols.BindingID) (exprInfo, bool) {
	converted := slices.Clone(args)
	hasClass := false
	for i, a := range args {
		cls, ok := u.types.ClassBinding(u.types.StripRef(a.t))
		if !ok {
			continue
		}
		hasClass = true
		conv, ok := u.singleConversion(symbols.BindingID(cls), a)
		if !ok {
			p := u.problem(symbols.ProblemInvalidOverload, u.intern(operatorSpelling(op)), tried...)
			u.addImplicit(node, p)
			return exprInfo{t: u.types.Problem(types.ProblemInvalidType), binding: p}, true
		}
		u.addImplicit(node, conv)
		info, _ := u.types.FnInfo(u.functionType(conv))
		converted[i] = exprInfo{t: u.types.StripRef(info.Result), cat: catOf(u.types, info.Result)}
	}
	if !hasClass {
		return exprInfo{}, false
	}
	switch len(converted) {
	case 1:
		return u.builtinUnary(op, converted[0], postfix, node), true
	case 2:
		if op == token.LBracket {
			if lt := u.types.Decay(converted[0].t); u.types.IsPointer(lt) {
				return exprInfo{t: u.types.Underlying(lt).Elem, cat: LValue}, true
			}
			return u.problemExpr(), true
		}
		return u.builtinBinary(op, converted[0], converted[1]), true
	}
	return u.problemExpr(), true
}

// singleConversion returns the one non-explicit conversion function the
// object a can use.
func (u *Unit) singleConversion(cls symbols.BindingID, a exprInfo) (symbols.BindingID, bool) {
	var found symbols.BindingID
	for _, c := range u.conversionFunctions(cls) {
		if u.bind(c).Flags&symbols.FlagExplicit != 0 || u.kind(c) != symbols.KindConversion || !u.objectAccepts(c, a) {
			continue
		}
		if found.IsValid() {
			return symbols.NoBindingID, false
		}
		found = c
	}
	return found, found.IsValid()
}

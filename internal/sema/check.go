package sema

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"cppsema/internal/ast"
	"cppsema/internal/diag"
	"cppsema/internal/source"
	"cppsema/internal/symbols"
	"cppsema/internal/trace"
	"cppsema/internal/types"
)

// complete resolves every ambiguity and name of the unit and checks every
// initializer and expression. Later queries only read memoized answers.
func (u *Unit) complete() {
	if u.completed {
		return
	}
	u.completed = true
	sp := trace.Begin(u.tracer, trace.ScopePass, "sema_resolve", 0)
	defer sp.End("")

	u.resolveNested(u.root)
	u.b.Walk(u.root, func(id ast.NodeID, n *ast.Node) bool {
		if n.IsAmbiguity() {
			u.resolveAmbiguity(id)
			n = u.node(id)
		}
		switch {
		case n.Kind == ast.NodeDeclarator:
			u.initialize(id)
		case n.Kind == ast.NodeCtorInit:
			u.initializeMember(id)
		case n.Kind == ast.NodeName:
			u.Resolve(n.Name)
		case n.IsExpression():
			u.exprOf(id)
		}
		return true
	})
}

// Check resolves the whole unit and reports a diagnostic for every problem
// found: unresolved names, invalid types, failed conversions, ambiguous
// constructs without a valid reading and the limits that cut analysis
// short. It is idempotent.
func (u *Unit) Check() {
	if u.checked {
		return
	}
	u.checked = true
	u.complete()
	sp := trace.Begin(u.tracer, trace.ScopePass, "sema_check", 0)
	defer sp.End("")

	u.checkNames()
	u.checkTypes()
	u.checkNodes()
	u.checkLimits()
}

func (u *Unit) checkNames() {
	// one diagnostic per written name: a failed qualifier makes the rest
	// of its qualified name fail too
	failed := make(map[ast.NameID]bool)
	for _, id := range u.Names() {
		nm := u.name(id)
		top := id
		if !nm.Implicit {
			top = u.topName(id)
		}
		if failed[top] {
			continue
		}
		b := u.Resolve(id)
		pb := u.bind(b)
		if pb == nil || pb.Kind != symbols.KindProblem || pb.Flags&symbols.FlagProvisional != 0 {
			continue
		}
		failed[top] = true
		u.reportProblem(id, b)
	}
}

func (u *Unit) reportProblem(id ast.NameID, prob symbols.BindingID) {
	pb := *u.bind(prob)
	nm := u.name(id)
	spelling := u.spell(nm.Spelling)
	if spelling == "" {
		spelling = u.spell(pb.Name)
	}
	msg := fmt.Sprintf("%s: %s", problemMessage(pb.Problem), spelling)
	r := diag.ReportError(u.reporter, problemCode(pb.Problem), nm.Span, msg)
	if pb.Problem == symbols.ProblemNameNotFound && !nm.Implicit {
		if s, ok := u.suggest(id); ok {
			r = r.WithNote(nm.Span, fmt.Sprintf("did you mean '%s'?", s))
			if base := u.name(u.b.Base(id)); base != nil {
				r = r.WithFix(fmt.Sprintf("replace with '%s'", s), diag.FixEdit{Span: base.Span, NewText: s})
			}
		}
	}
	for _, c := range pb.Candidates {
		if sp, ok := u.declSpan(c); ok {
			r = r.WithNote(sp, "candidate: "+u.describe(c))
		}
	}
	r.Emit()
}

// checkTypes reports declarations whose type could not be formed.
func (u *Unit) checkTypes() {
	seen := make(map[symbols.BindingID]bool)
	for _, id := range u.Names() {
		if u.RoleOf(id) == ast.RoleReference {
			continue
		}
		b := u.Resolve(id)
		if seen[b] || u.isProblem(b) {
			continue
		}
		seen[b] = true
		switch u.kind(b) {
		case symbols.KindVariable, symbols.KindField, symbols.KindParameter,
			symbols.KindFunction, symbols.KindMethod, symbols.KindConversion:
		default:
			continue
		}
		p, ok := u.typeProblem(u.TypeOf(b))
		if !ok {
			continue
		}
		msg := fmt.Sprintf("%s: %s", typeProblemMessage(p), u.spell(u.bind(b).Name))
		diag.ReportError(u.reporter, typeProblemCode(p), u.name(id).Span, msg).Emit()
	}
}

// typeProblem finds a problem type anywhere inside t.
func (u *Unit) typeProblem(t types.TypeID) (types.Problem, bool) {
	for range maxBaseDepth {
		if p, ok := u.types.ProblemOf(t); ok {
			return p, true
		}
		if info, ok := u.types.FnInfo(t); ok {
			t = info.Result
			continue
		}
		tt := u.types.Underlying(t)
		switch tt.Kind {
		case types.KindPointer, types.KindLRef, types.KindRRef, types.KindArray:
			t = tt.Elem
			continue
		}
		break
	}
	return types.ProblemNone, false
}

// checkNodes reports failures recorded on expressions and ambiguities.
func (u *Unit) checkNodes() {
	for _, node := range slices.Sorted(maps.Keys(u.exprProblems)) {
		pb := u.bind(u.exprProblems[node])
		n := u.node(node)
		if n == nil || n.Kind == ast.NodeDiscarded {
			continue
		}
		diag.ReportError(u.reporter, problemCode(pb.Problem), n.Span, problemMessage(pb.Problem)).Emit()
	}
	u.b.Walk(u.root, func(id ast.NodeID, n *ast.Node) bool {
		if n.Has(ast.FlagProblem) {
			diag.ReportWarning(u.reporter, diag.SemaUnresolvedAmbiguity, n.Span,
				"no reading of the ambiguous construct is valid; the first one was kept").Emit()
		}
		return true
	})
}

func (u *Unit) checkLimits() {
	for _, node := range slices.Compact(slices.Sorted(slices.Values(u.exhausted))) {
		n := u.node(node)
		if n == nil {
			continue
		}
		msg := fmt.Sprintf("constant evaluation exceeded %d steps", u.cfg.EvalStepBudget)
		diag.ReportWarning(u.reporter, diag.SemaEvalBudgetExhausted, n.Span, msg).Emit()
	}
	reported := make(map[symbols.BindingID]bool)
	for _, b := range u.tooDeep {
		if reported[b] {
			continue
		}
		reported[b] = true
		sp, _ := u.declSpan(b)
		msg := fmt.Sprintf("instantiating %s exceeded depth %d", u.describe(b), u.cfg.MaxInstantiationDepth)
		diag.ReportError(u.reporter, diag.SemaInstantiationDepth, sp, msg).Emit()
	}
}

// declSpan returns the span of the name first declaring b.
func (u *Unit) declSpan(b symbols.BindingID) (source.Span, bool) {
	bb := u.bind(b)
	if bb == nil {
		return source.Span{}, false
	}
	if id := bb.Declared(); id.IsValid() {
		return u.name(id).Span, true
	}
	if n := u.node(bb.Node); n != nil {
		return n.Span, true
	}
	return source.Span{}, false
}

// describe renders a binding for messages: its kind and qualified name.
func (u *Unit) describe(b symbols.BindingID) string {
	return u.kind(b).String() + " " + strings.Join(u.QualifiedName(b), "::")
}

// FormatType renders t with class and enumeration names qualified.
func (u *Unit) FormatType(t types.TypeID) string {
	return u.types.Format(t, func(b uint32) string {
		return strings.Join(u.QualifiedName(symbols.BindingID(b)), "::")
	})
}

func problemCode(p symbols.ProblemCode) diag.Code {
	switch p {
	case symbols.ProblemNameNotFound:
		return diag.SemaNameNotFound
	case symbols.ProblemAmbiguousLookup:
		return diag.SemaAmbiguousLookup
	case symbols.ProblemInvalidRedeclaration:
		return diag.SemaInvalidRedeclaration
	case symbols.ProblemInvalidRedefinition:
		return diag.SemaInvalidRedefinition
	case symbols.ProblemInvalidType:
		return diag.SemaInvalidType
	case symbols.ProblemBadScope:
		return diag.SemaBadScope
	case symbols.ProblemInvalidOverload:
		return diag.SemaInvalidOverload
	case symbols.ProblemMemberDeclarationNotFound:
		return diag.SemaMemberDeclarationNotFound
	case symbols.ProblemRecursionInLookup:
		return diag.SemaRecursionInLookup
	case symbols.ProblemNarrowingConversion:
		return diag.SemaNarrowingConversion
	case symbols.ProblemLabelNotFound:
		return diag.SemaLabelNotFound
	}
	return diag.SemaInfo
}

func problemMessage(p symbols.ProblemCode) string {
	return problemCode(p).Title()
}

func typeProblemCode(p types.Problem) diag.Code {
	switch p {
	case types.ProblemCannotDeduceAuto:
		return diag.SemaCannotDeduceAuto
	case types.ProblemCannotDeduceDecltypeAuto:
		return diag.SemaCannotDeduceDecltypeAuto
	case types.ProblemAutoForNonStaticField:
		return diag.SemaAutoForNonStaticField
	case types.ProblemAutoForVirtualMethod:
		return diag.SemaAutoForVirtualMethod
	}
	return diag.SemaInvalidType
}

func typeProblemMessage(p types.Problem) string {
	return typeProblemCode(p).Title()
}

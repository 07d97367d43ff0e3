package sema

import (
	"slices"

	"cppsema/internal/ast"
	"cppsema/internal/symbols"
)

// resolveAmbiguity settles an ambiguity node in place: the alternative that
// reads cleanly replaces the node and the others are discarded. A
// declaration wins over an expression and a type-id over an expression
// when both read cleanly. When no alternative reads cleanly the first one
// is kept and the node is marked with FlagProblem.
func (u *Unit) resolveAmbiguity(node ast.NodeID) {
	n := u.node(node)
	if n == nil || !n.IsAmbiguity() || u.settling[node] {
		return
	}
	u.settling[node] = true
	defer delete(u.settling, node)
	kind := n.Kind
	alts := slices.Clone(n.Kids)
	end := u.debugSpan("ambiguity", kind.String())
	defer end()

	for _, alt := range alts {
		u.resolveNested(alt)
	}
	chosen := u.chooseAlternative(kind, alts)
	failed := !chosen.IsValid()
	if failed {
		chosen = alts[0]
	}
	for _, alt := range alts {
		if alt != chosen {
			u.b.Discard(alt)
		}
	}
	u.b.Replace(node, chosen)
	if failed {
		u.node(node).Flags |= ast.FlagProblem
	}
	u.moveMemos(chosen, node)
}

// resolveNested settles the ambiguities inside root, innermost first.
func (u *Unit) resolveNested(root ast.NodeID) {
	var nested []ast.NodeID
	u.b.Walk(root, func(id ast.NodeID, n *ast.Node) bool {
		if n.Kind == ast.NodeLambda {
			return false
		}
		if n.IsAmbiguity() {
			nested = append(nested, id)
		}
		return true
	})
	for _, id := range slices.Backward(nested) {
		u.resolveAmbiguity(id)
	}
}

// moveMemos re-keys what was computed for from while it was an
// alternative.
func (u *Unit) moveMemos(from, to ast.NodeID) {
	if info, ok := u.exprs[from]; ok {
		info.node = to
		u.exprs[to] = info
		delete(u.exprs, from)
	}
	if names, ok := u.implicit[from]; ok {
		for _, id := range names {
			u.name(id).Node = to
		}
		u.implicit[to] = append(u.implicit[to], names...)
		delete(u.implicit, from)
	}
	if s, ok := u.scopes[from]; ok {
		u.scopes[to] = s
		delete(u.scopes, from)
	}
	if b, ok := u.nodeBindings[from]; ok {
		u.nodeBindings[to] = b
		delete(u.nodeBindings, from)
	}
	if c, ok := u.consts[from]; ok {
		u.consts[to] = c
		delete(u.consts, from)
	}
}

func (u *Unit) chooseAlternative(kind ast.NodeKind, alts []ast.NodeID) ast.NodeID {
	switch kind {
	case ast.NodeAmbiguousStatement:
		if len(alts) == 2 && u.node(alts[0]).Kind == ast.NodeSimpleDecl && u.node(alts[1]).Kind == ast.NodeSimpleDecl {
			// function declaration versus object with initializer
			if u.paramsNameTypes(alts[0]) {
				return alts[0]
			}
			return alts[1]
		}
		for _, alt := range alts {
			if u.isDeclAlternative(alt) && u.declClean(alt) {
				return alt
			}
		}
		for _, alt := range alts {
			if !u.isDeclAlternative(alt) && u.exprClean(alt) {
				return alt
			}
		}
	case ast.NodeAmbiguousExpression:
		// the first reading is a cast, possibly the left operand of a
		// binary expression
		if cast := u.leftmostCast(alts[0]); cast.IsValid() && u.typeIDClean(u.node(cast).Kids[0]) && u.exprClean(alts[0]) {
			return alts[0]
		}
		for _, alt := range alts[1:] {
			if u.exprClean(alt) {
				return alt
			}
		}
	case ast.NodeAmbiguousTemplateArg, ast.NodeAmbiguousTypeOrExpr:
		for _, alt := range alts {
			if u.node(alt).Kind == ast.NodeTypeID && u.typeIDClean(alt) {
				return alt
			}
		}
		for _, alt := range alts {
			if u.node(alt).Kind != ast.NodeTypeID && u.exprClean(alt) {
				return alt
			}
		}
	}
	return ast.NoNodeID
}

func (u *Unit) isDeclAlternative(alt ast.NodeID) bool {
	switch u.node(alt).Kind {
	case ast.NodeDeclStmt, ast.NodeSimpleDecl, ast.NodeFunctionDef:
		return true
	}
	return false
}

func (u *Unit) leftmostCast(alt ast.NodeID) ast.NodeID {
	for cur := alt; cur.IsValid(); {
		n := u.node(cur)
		if n.Kind == ast.NodeCast {
			return cur
		}
		if len(n.Kids) == 0 || (n.Kind != ast.NodeBinary && n.Kind != ast.NodeExprStmt) {
			return ast.NoNodeID
		}
		cur = n.Kids[0]
	}
	return ast.NoNodeID
}

// declClean reports a declaration whose type specifier names a type.
func (u *Unit) declClean(alt ast.NodeID) bool {
	spec := ast.NoNodeID
	u.b.Walk(alt, func(id ast.NodeID, n *ast.Node) bool {
		if spec.IsValid() {
			return false
		}
		if n.Kind == ast.NodeDeclSpec {
			spec = id
			return false
		}
		return true
	})
	return spec.IsValid() && u.specNamesType(spec)
}

func (u *Unit) typeIDClean(typeID ast.NodeID) bool {
	n := u.node(typeID)
	if n == nil || n.Kind != ast.NodeTypeID || len(n.Kids) == 0 {
		return false
	}
	return u.specNamesType(n.Kids[0])
}

// specNamesType reports whether a declaration specifier denotes a type:
// keywords always do, a name only when lookup finds a type.
func (u *Unit) specNamesType(spec ast.NodeID) bool {
	ds := u.b.DeclSpec(spec)
	if ds == nil {
		return false
	}
	switch ds.TypeKind {
	case ast.TypeSpecNone:
		return false
	case ast.TypeSpecNamed:
		return u.namesType(u.b.NameOf(ds.Name), u.node(ds.Name).Has(ast.FlagTypename))
	}
	return true
}

// namesType reports whether nameID denotes a type without resolving it.
// A member of a dependent type is a type only after 'typename'.
func (u *Unit) namesType(nameID ast.NameID, typename bool) bool {
	if !nameID.IsValid() {
		return false
	}
	found, prob := u.candidates(nameID, symbols.KindMaskAny)
	if prob.IsValid() {
		return false
	}
	found = u.hideTypes(found)
	if len(found) == 0 {
		return false
	}
	b := found[0]
	if u.kind(b) == symbols.KindUsingDeclaration {
		ds := u.delegates(b)
		if len(ds) == 0 {
			return false
		}
		b = ds[0]
	}
	switch k := u.kind(b); {
	case k == symbols.KindDependent:
		return typename
	default:
		return k.IsType()
	}
}

// paramsNameTypes reports whether every parameter of the function reading
// of a declaration has a type specifier naming a type.
func (u *Unit) paramsNameTypes(decl ast.NodeID) bool {
	clean := true
	u.b.Walk(decl, func(id ast.NodeID, n *ast.Node) bool {
		if !clean {
			return false
		}
		if n.Kind == ast.NodeParamDecl {
			if spec := u.paramSpec(id); !spec.IsValid() || !u.specNamesType(spec) {
				clean = false
			}
			return false
		}
		return true
	})
	return clean
}

// exprClean reports an expression whose names all resolve to something
// other than a type, except callees, which may name a type in a functional
// cast.
func (u *Unit) exprClean(alt ast.NodeID) bool {
	clean := true
	u.b.Walk(alt, func(id ast.NodeID, n *ast.Node) bool {
		if !clean {
			return false
		}
		switch n.Kind {
		case ast.NodeLambda, ast.NodeTypeID, ast.NodeDeclSpec:
			return false
		case ast.NodeIDExpr:
			nameID := u.b.NameOf(n.Kids[0])
			callee := u.calleeCall(id).IsValid()
			clean = u.valueNameClean(id, nameID, callee)
			return false
		}
		return true
	})
	return clean
}

func (u *Unit) valueNameClean(node ast.NodeID, nameID ast.NameID, callee bool) bool {
	found, prob := u.candidates(nameID, symbols.KindMaskAny)
	qualified := u.name(nameID).Kind == ast.NameQualified
	if prob.IsValid() {
		// an unqualified callee may still be found by argument-dependent
		// lookup
		return callee && !qualified && u.bind(prob).Problem == symbols.ProblemNameNotFound
	}
	found = u.hideTypes(found)
	if len(found) == 0 {
		return (callee && !qualified) || (u.inTemplate(node) && u.dependentScope(u.scopeOfName(nameID)))
	}
	if callee {
		return true
	}
	for _, f := range found {
		if k := u.kind(f); k.IsType() && k != symbols.KindDependent {
			return false
		}
	}
	return true
}

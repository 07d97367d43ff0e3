package sema

import (
	"cppsema/internal/ast"
	"cppsema/internal/symbols"
)

// scopeAt returns the innermost scope enclosing node for name lookup.
// A class scope is skipped when the walk arrives from the class's base
// clause or name.
func (u *Unit) scopeAt(node ast.NodeID) symbols.ScopeID {
	prev := ast.NoNodeID
	for cur := node; cur.IsValid(); {
		n := u.node(cur)
		if n == nil {
			break
		}
		if s, ok := u.scopes[cur]; ok && cur != node {
			if n.Kind == ast.NodeClassSpec && prev.IsValid() {
				if pk := u.node(prev).Kind; pk == ast.NodeBaseSpec || pk == ast.NodeName {
					prev, cur = cur, n.Parent
					continue
				}
			}
			return s
		}
		prev, cur = cur, n.Parent
	}
	return u.tab.Global
}

// scopeOfName is the lookup scope of a name occurrence.
func (u *Unit) scopeOfName(id ast.NameID) symbols.ScopeID {
	n := u.name(id)
	if n == nil {
		return u.tab.Global
	}
	return u.scopeAt(n.Node)
}

// declSpecOf finds the decl-specifier-seq applying to a declarator.
func (u *Unit) declSpecOf(decl ast.NodeID) ast.NodeID {
	cur := decl
	for cur.IsValid() {
		n := u.node(cur)
		parent := u.node(n.Parent)
		if parent == nil {
			return ast.NoNodeID
		}
		switch parent.Kind {
		case ast.NodeDeclarator:
			cur = n.Parent
			continue
		case ast.NodeFunctionDef:
			return u.b.FunctionDef(n.Parent).DeclSpec
		case ast.NodeSimpleDecl, ast.NodeParamDecl, ast.NodeTypeID:
			for _, k := range parent.Kids {
				if u.node(k).Kind == ast.NodeDeclSpec {
					return k
				}
			}
		}
		return ast.NoNodeID
	}
	return ast.NoNodeID
}

// functionDeclarator returns the declarator node whose first chunk is the
// function chunk applying to the declared name, mirroring
// DeclaratorData.Function.
func (u *Unit) functionDeclarator(decl ast.NodeID) ast.NodeID {
	id, _ := u.innerFunctionDeclarator(decl)
	return id
}

func (u *Unit) innerFunctionDeclarator(decl ast.NodeID) (ast.NodeID, bool) {
	d := u.b.Declarator(decl)
	if d == nil {
		return ast.NoNodeID, false
	}
	if d.Nested.IsValid() {
		if id, decided := u.innerFunctionDeclarator(d.Nested); decided {
			return id, true
		}
	}
	if len(d.Chunks) > 0 {
		if d.Chunks[0].Kind == ast.ChunkFunction {
			return decl, true
		}
		return ast.NoNodeID, true
	}
	if len(d.Ptrs) > 0 {
		return ast.NoNodeID, true
	}
	return ast.NoNodeID, false
}

// declaratorName returns the name node of the innermost declarator.
func (u *Unit) declaratorName(decl ast.NodeID) ast.NameID {
	d := u.b.Declarator(decl)
	if d == nil {
		return ast.NoNameID
	}
	return u.b.NameOf(d.Innermost(u.b).Name)
}

// inTemplate reports whether node lies inside a template definition whose
// parameters are still open: a primary template or partial specialization.
func (u *Unit) inTemplate(node ast.NodeID) bool {
	for cur := node; cur.IsValid(); {
		n := u.node(cur)
		if n == nil {
			return false
		}
		if n.Kind == ast.NodeTemplateDecl && !n.Has(ast.FlagExplicitSpec) {
			return true
		}
		cur = n.Parent
	}
	return false
}

// enclosingFunction returns the function definition or lambda around node.
func (u *Unit) enclosingFunction(node ast.NodeID) ast.NodeID {
	return u.b.Enclosing(node, ast.NodeFunctionDef, ast.NodeLambda)
}

// enclosingClass returns the class binding whose scope encloses scope.
func (u *Unit) enclosingClass(scope symbols.ScopeID) symbols.BindingID {
	for id := scope; id.IsValid(); {
		s := u.tab.Scope(id)
		if s.Kind == symbols.ScopeClass {
			return s.Owner
		}
		id = s.Parent
	}
	return symbols.NoBindingID
}

// enclosingMethod returns the member function whose body contains node,
// following out-of-line definitions to their class.
func (u *Unit) enclosingMethod(node ast.NodeID) symbols.BindingID {
	for fn := u.enclosingFunction(node); fn.IsValid(); fn = u.enclosingFunction(fn) {
		if u.node(fn).Kind == ast.NodeLambda {
			continue
		}
		id := u.nodeBindings[fn]
		b := u.bind(id)
		if b == nil {
			return symbols.NoBindingID
		}
		if b.Owner.IsValid() && b.Kind != symbols.KindFunction {
			return id
		}
		return symbols.NoBindingID
	}
	return symbols.NoBindingID
}

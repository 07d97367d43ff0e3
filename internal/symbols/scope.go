package symbols

import (
	"cppsema/internal/ast"
	"cppsema/internal/source"
)

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid   ScopeKind = iota
	ScopeGlobal              // translation unit
	ScopeNamespace           // named, anonymous or inline namespace
	ScopeClass               // class, struct or union body
	ScopeBlock               // compound statement and control statements
	ScopeFunction            // function parameters; the body block hangs below
	ScopeTemplateParams
	ScopeEnum // enumerators; unscoped ones are also entered in the enclosing scope
	// ScopeTemplateArgs binds template parameter names to the arguments of
	// one specialization.
	ScopeTemplateArgs
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeGlobal:
		return "global"
	case ScopeNamespace:
		return "namespace"
	case ScopeClass:
		return "class"
	case ScopeBlock:
		return "block"
	case ScopeFunction:
		return "function"
	case ScopeTemplateParams:
		return "template-params"
	case ScopeEnum:
		return "enum"
	case ScopeTemplateArgs:
		return "template-args"
	default:
		return "invalid"
	}
}

// Entry is one declaration of a name in a scope.
type Entry struct {
	Binding BindingID
	// Pos is the offset of the declaring name; lookups in ordered scopes
	// skip entries declared after the reference point.
	Pos uint32
	// Hidden entries (friend declarations) are only seen by argument
	// dependent lookup and redeclaration matching.
	Hidden bool
}

// UsingEdge nominates a namespace whose members become visible in the
// scope from Pos on.
type UsingEdge struct {
	Target ScopeID
	Pos    uint32
}

// Scope models a lexical scope with a parent-child hierarchy.
type Scope struct {
	Kind      ScopeKind
	Parent    ScopeID
	Owner     BindingID
	Node      ast.NodeID
	Span      source.Span
	NameIndex map[source.StringID][]Entry
	// Order lists names by first declaration.
	Order    []source.StringID
	Using    []UsingEdge
	Inline   []ScopeID // inline namespaces, searched by qualified lookup
	Children []ScopeID
}

// Ordered reports whether declarations become visible only after their
// point of declaration; class scopes are complete everywhere inside.
func (s *Scope) Ordered() bool {
	switch s.Kind {
	case ScopeClass, ScopeEnum, ScopeTemplateArgs:
		return false
	}
	return true
}

// Entries returns the entries declared for name, in declaration order.
func (s *Scope) Entries(name source.StringID) []Entry {
	return s.NameIndex[name]
}

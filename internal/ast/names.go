package ast

import (
	"cppsema/internal/source"
	"cppsema/internal/token"
)

// Role is what a name occurrence does at its position.
type Role uint8

const (
	RoleReference Role = iota
	RoleDeclaration
	RoleDefinition
)

func (r Role) String() string {
	switch r {
	case RoleDeclaration:
		return "decl"
	case RoleDefinition:
		return "def"
	default:
		return "ref"
	}
}

type NameKind uint8

const (
	NameIdent NameKind = iota
	NameQualified
	NameTemplateID
	NameOperator
	NameConversion
	NameDestructor
	// NameDecltype is a decltype(expr) nested-name-specifier segment.
	NameDecltype
)

// Name is one identifier occurrence. Composite names (qualified names and
// template-ids) own their parts; the engine resolves a qualified name to the
// binding of its last segment.
type Name struct {
	Kind     NameKind
	Spelling source.StringID // "f", "operator+", "~A", "operator int"
	Role     Role
	Span     source.Span
	Node     NodeID // the NodeName node holding this name

	Segments []NameID // NameQualified: qualifier segments then the final name
	Global   bool     // leading '::'

	Template NameID   // NameTemplateID: the template name
	Args     []NodeID // NameTemplateID: argument nodes (TypeId, expression or ambiguity)

	Op       token.Kind // NameOperator
	ConvType NodeID     // NameConversion: TypeId of the target type
	Expr     NodeID     // NameDecltype operand

	// Implicit names are created by the engine for constructor, operator and
	// conversion calls that have no token of their own.
	Implicit bool
}

// Last returns the final segment of a qualified name, or the name itself.
func (b *Builder) Last(id NameID) NameID {
	n := b.Names.Get(id)
	for n != nil && n.Kind == NameQualified && len(n.Segments) > 0 {
		id = n.Segments[len(n.Segments)-1]
		n = b.Names.Get(id)
	}
	return id
}

// Qualifiers returns the qualifier segments of a qualified name.
func (b *Builder) Qualifiers(id NameID) []NameID {
	n := b.Names.Get(id)
	if n == nil || n.Kind != NameQualified || len(n.Segments) == 0 {
		return nil
	}
	return n.Segments[:len(n.Segments)-1]
}

// Base strips qualification and template arguments down to the identifier
// that is looked up: A::B<int> -> B.
func (b *Builder) Base(id NameID) NameID {
	id = b.Last(id)
	if n := b.Names.Get(id); n != nil && n.Kind == NameTemplateID {
		return n.Template
	}
	return id
}

// Names stores every name of a translation unit.
type Names struct {
	Arena *Arena[Name]
}

func NewNames(capHint uint) *Names {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Names{Arena: NewArena[Name](capHint)}
}

func (n *Names) New(name Name) NameID {
	return NameID(n.Arena.Allocate(name))
}

func (n *Names) Get(id NameID) *Name {
	return n.Arena.Get(uint32(id))
}

func (n *Names) Len() int {
	return int(n.Arena.Len())
}

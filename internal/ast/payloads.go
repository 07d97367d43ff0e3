package ast

import "cppsema/internal/token"

type StorageFlags uint16

const (
	StorageTypedef StorageFlags = 1 << iota
	StorageStatic
	StorageExtern
	StorageFriend
	StorageConstexpr
	StorageInline
	StorageVirtual
	StorageExplicit
	StorageMutable
	StorageThreadLocal
	StorageRegister
)

type CVQual uint8

const (
	CVConst CVQual = 1 << iota
	CVVolatile
	CVRestrict
)

type TypeSpecKind uint8

const (
	TypeSpecNone TypeSpecKind = iota
	TypeSpecBasic
	TypeSpecNamed
	TypeSpecClass
	TypeSpecEnum
	TypeSpecElaborated
	TypeSpecDecltype
	TypeSpecTypeof
	TypeSpecAuto
	TypeSpecDecltypeAuto
)

type BasicKind uint8

const (
	BasicUnspecified BasicKind = iota
	BasicVoid
	BasicBool
	BasicChar
	BasicChar16
	BasicChar32
	BasicWChar
	BasicInt
	BasicFloat
	BasicDouble
)

// DeclSpecData is a decl-specifier-seq.
type DeclSpecData struct {
	Storage  StorageFlags
	CV       CVQual
	TypeKind TypeSpecKind
	Basic    BasicKind
	Signed   bool
	Unsigned bool
	Short    bool
	Long     uint8
	Name     NodeID     // TypeSpecNamed and TypeSpecElaborated
	Key      token.Kind // elaborated key: class, struct, union or enum
	Spec     NodeID     // ClassSpec or EnumSpec
	Expr     NodeID     // decltype / typeof operand
}

type PtrKind uint8

const (
	PtrPointer PtrKind = iota
	PtrLRef
	PtrRRef
	PtrMember
)

type PtrOp struct {
	Kind  PtrKind
	CV    CVQual
	Class NodeID // PtrMember: name node of the class
}

type ChunkKind uint8

const (
	ChunkArray ChunkKind = iota
	ChunkFunction
)

type RefQual uint8

const (
	RefNone RefQual = iota
	RefLValue
	RefRValue
)

type ExceptionSpec uint8

const (
	ExceptNone ExceptionSpec = iota
	ExceptNoexcept
	ExceptNoexceptExpr
	ExceptThrow
)

// Chunk is an array or function suffix of a declarator.
type Chunk struct {
	Kind         ChunkKind
	Size         NodeID // array bound, 0 when unknown
	Params       []NodeID
	Variadic     bool
	CV           CVQual
	Ref          RefQual
	Except       ExceptionSpec
	NoexceptExpr NodeID
	Trailing     NodeID // trailing return TypeId
}

// DeclaratorData describes pointer operators, the declarator-id or a nested
// parenthesized declarator, and suffix chunks in source order.
type DeclaratorData struct {
	Ptrs     []PtrOp
	Name     NodeID
	Nested   NodeID
	Chunks   []Chunk
	Init     NodeID
	BitWidth NodeID
	Pack     bool
	Pure     bool
	Default  bool
	Delete   bool
	Override bool
	Final    bool
}

// Function returns the function chunk that applies directly to the
// declarator-id, or nil when the declared entity is not a function
// (for example a pointer to function).
func (d *DeclaratorData) Function(b *Builder) *Chunk {
	c, _ := d.innerFunction(b)
	return c
}

func (d *DeclaratorData) innerFunction(b *Builder) (*Chunk, bool) {
	if d.Nested.IsValid() {
		if inner := b.Declarator(d.Nested); inner != nil {
			if c, decided := inner.innerFunction(b); decided {
				return c, true
			}
		}
	}
	if len(d.Chunks) > 0 {
		if d.Chunks[0].Kind == ChunkFunction {
			return &d.Chunks[0], true
		}
		return nil, true
	}
	if len(d.Ptrs) > 0 {
		return nil, true
	}
	return nil, false
}

// Innermost follows nested declarators down to the one holding the name.
func (d *DeclaratorData) Innermost(b *Builder) *DeclaratorData {
	for d.Nested.IsValid() {
		inner := b.Declarator(d.Nested)
		if inner == nil {
			break
		}
		d = inner
	}
	return d
}

type FunctionDefData struct {
	DeclSpec   NodeID
	Declarator NodeID
	CtorInits  []NodeID
	Body       NodeID // Compound; 0 for = default / = delete
	TryBlock   bool
	Handlers   []NodeID
}

type ClassSpecData struct {
	Key     token.Kind // class, struct, union
	Name    NodeID     // 0 for anonymous
	Bases   []NodeID
	Members []NodeID
	Final   bool
}

type EnumSpecData struct {
	Name        NodeID
	Scoped      bool
	Underlying  NodeID // TypeId
	Enumerators []NodeID
	Opaque      bool
}

type TemplateData struct {
	Params []NodeID
	Decl   NodeID
}

type TemplateParamKind uint8

const (
	TParamType TemplateParamKind = iota
	TParamNonType
	TParamTemplate
)

type TemplateParamData struct {
	Kind    TemplateParamKind
	Name    NodeID // name node, 0 when unnamed
	Default NodeID
	Pack    bool
	Param   NodeID   // TParamNonType: the ParamDecl
	Params  []NodeID // TParamTemplate: its own parameter list
}

// ControlData names the parts of if/while/do/for/switch/range-for.
type ControlData struct {
	Init  NodeID
	Cond  NodeID // expression or SimpleDecl condition
	Then  NodeID
	Else  NodeID
	Body  NodeID
	Incr  NodeID
	Decl  NodeID // range-for declaration
	Range NodeID
}

type NewData struct {
	Placement []NodeID
	Type      NodeID // TypeId
	Init      NodeID
}

type LambdaData struct {
	DefaultCapture token.Kind // Assign or Amp, Invalid when none
	Captures       []NodeID
	Declarator     NodeID // abstract function declarator, 0 when omitted
	Body           NodeID
}

type LiteralData struct {
	Kind token.Kind
	Text string
}

// Payloads stores the typed side tables of nodes.
type Payloads struct {
	DeclSpecs    *Arena[DeclSpecData]
	Declarators  *Arena[DeclaratorData]
	FunctionDefs *Arena[FunctionDefData]
	Classes      *Arena[ClassSpecData]
	Enums        *Arena[EnumSpecData]
	Templates    *Arena[TemplateData]
	TParams      *Arena[TemplateParamData]
	Controls     *Arena[ControlData]
	News         *Arena[NewData]
	Lambdas      *Arena[LambdaData]
	Literals     *Arena[LiteralData]
}

func NewPayloads(capHint uint) *Payloads {
	if capHint == 0 {
		capHint = 1 << 6
	}
	return &Payloads{
		DeclSpecs:    NewArena[DeclSpecData](capHint),
		Declarators:  NewArena[DeclaratorData](capHint),
		FunctionDefs: NewArena[FunctionDefData](capHint),
		Classes:      NewArena[ClassSpecData](capHint),
		Enums:        NewArena[EnumSpecData](capHint),
		Templates:    NewArena[TemplateData](capHint),
		TParams:      NewArena[TemplateParamData](capHint),
		Controls:     NewArena[ControlData](capHint),
		News:         NewArena[NewData](capHint),
		Lambdas:      NewArena[LambdaData](capHint),
		Literals:     NewArena[LiteralData](capHint),
	}
}

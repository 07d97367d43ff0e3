package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// IsValid reports whether id names a type.
func (id TypeID) IsValid() bool { return id != NoTypeID }

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBasic
	KindPointer
	KindLRef
	KindRRef
	KindMemberPointer
	// KindQualified wraps Elem with the CV bits; it never wraps another
	// qualified type, a reference or a function.
	KindQualified
	KindArray
	KindFunction
	KindClass
	KindEnum
	// KindTypedef names Elem through the typedef binding in Payload.
	KindTypedef
	// KindTemplateParam is a dependent template parameter type.
	KindTemplateParam
	// KindDeferred is a template-id whose arguments are still dependent.
	KindDeferred
	KindProblem
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindBasic:
		return "basic"
	case KindPointer:
		return "pointer"
	case KindLRef:
		return "lvalue-reference"
	case KindRRef:
		return "rvalue-reference"
	case KindMemberPointer:
		return "member-pointer"
	case KindQualified:
		return "qualified"
	case KindArray:
		return "array"
	case KindFunction:
		return "function"
	case KindClass:
		return "class"
	case KindEnum:
		return "enum"
	case KindTypedef:
		return "typedef"
	case KindTemplateParam:
		return "template-param"
	case KindDeferred:
		return "deferred"
	case KindProblem:
		return "problem"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Basic enumerates the fundamental types.
type Basic uint8

const (
	BasicNone Basic = iota
	Void
	Bool
	Char
	SChar
	UChar
	WChar
	Char16
	Char32
	Short
	UShort
	Int
	UInt
	Long
	ULong
	LongLong
	ULongLong
	Float
	Double
	LongDouble
	NullPtr
	basicCount
)

var basicNames = [...]string{
	Void:       "void",
	Bool:       "bool",
	Char:       "char",
	SChar:      "signed char",
	UChar:      "unsigned char",
	WChar:      "wchar_t",
	Char16:     "char16_t",
	Char32:     "char32_t",
	Short:      "short",
	UShort:     "unsigned short",
	Int:        "int",
	UInt:       "unsigned int",
	Long:       "long",
	ULong:      "unsigned long",
	LongLong:   "long long",
	ULongLong:  "unsigned long long",
	Float:      "float",
	Double:     "double",
	LongDouble: "long double",
	NullPtr:    "std::nullptr_t",
}

func (b Basic) String() string {
	if int(b) < len(basicNames) && basicNames[b] != "" {
		return basicNames[b]
	}
	return fmt.Sprintf("Basic(%d)", b)
}

// CV holds cv-qualifier bits. Restrict is tracked but does not take part in
// qualification ranking.
type CV uint8

const (
	Const CV = 1 << iota
	Volatile
	Restrict
)

func (c CV) Has(q CV) bool { return c&q == q }

// RefQual is the ref-qualifier of a member function type.
type RefQual uint8

const (
	RefNone RefQual = iota
	RefLValue
	RefRValue
)

// Problem enumerates type-level failures. They travel inside an otherwise
// normal binding's type, independent of binding problems.
type Problem uint32

const (
	ProblemNone Problem = iota
	ProblemCannotDeduceAuto
	ProblemCannotDeduceDecltypeAuto
	ProblemAutoForNonStaticField
	ProblemAutoForVirtualMethod
	ProblemInvalidType
)

func (p Problem) String() string {
	switch p {
	case ProblemCannotDeduceAuto:
		return "CANNOT_DEDUCE_AUTO_TYPE"
	case ProblemCannotDeduceDecltypeAuto:
		return "CANNOT_DEDUCE_DECLTYPE_AUTO_TYPE"
	case ProblemAutoForNonStaticField:
		return "AUTO_FOR_NON_STATIC_FIELD"
	case ProblemAutoForVirtualMethod:
		return "AUTO_FOR_VIRTUAL_METHOD"
	case ProblemInvalidType:
		return "INVALID_TYPE"
	default:
		return "NONE"
	}
}

// Type is a compact descriptor for any supported type. Two descriptors with
// equal fields denote the same type.
type Type struct {
	Kind  Kind
	Basic Basic
	Elem  TypeID // pointee, referee, element, qualified or typedef target
	Class TypeID // member pointer: the class type
	CV    CV
	Count uint32 // array bound
	Bound bool   // array bound is known
	// Payload is the nominal binding for class, enum, typedef and template
	// parameter types, the info slot for function and deferred types, and
	// the Problem code for problem types.
	Payload uint32
}

// Descriptor helpers ---------------------------------------------------------

func MakeBasic(b Basic) Type {
	return Type{Kind: KindBasic, Basic: b}
}

func MakePointer(elem TypeID) Type {
	return Type{Kind: KindPointer, Elem: elem}
}

func MakeLRef(elem TypeID) Type {
	return Type{Kind: KindLRef, Elem: elem}
}

func MakeRRef(elem TypeID) Type {
	return Type{Kind: KindRRef, Elem: elem}
}

// MakeMemberPointer describes `elem class::*`.
func MakeMemberPointer(class, elem TypeID) Type {
	return Type{Kind: KindMemberPointer, Class: class, Elem: elem}
}

// MakeArray describes elem[count]; bound=false means elem[].
func MakeArray(elem TypeID, count uint32, bound bool) Type {
	if !bound {
		count = 0
	}
	return Type{Kind: KindArray, Elem: elem, Count: count, Bound: bound}
}

func MakeClass(binding uint32) Type {
	return Type{Kind: KindClass, Payload: binding}
}

func MakeEnum(binding uint32) Type {
	return Type{Kind: KindEnum, Payload: binding}
}

func MakeTypedef(binding uint32, target TypeID) Type {
	return Type{Kind: KindTypedef, Payload: binding, Elem: target}
}

func MakeTemplateParam(binding uint32) Type {
	return Type{Kind: KindTemplateParam, Payload: binding}
}

func MakeProblem(p Problem) Type {
	return Type{Kind: KindProblem, Payload: uint32(p)}
}

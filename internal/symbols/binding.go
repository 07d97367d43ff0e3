package symbols

import (
	"cppsema/internal/ast"
	"cppsema/internal/source"
	"cppsema/internal/token"
	"cppsema/internal/types"
)

// Kind classifies the semantic entity a binding denotes. The set is closed;
// consumers switch over it exhaustively.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVariable
	KindParameter
	KindField
	KindFunction
	KindMethod
	KindConstructor
	KindDestructor
	KindConversion
	KindFunctionTemplate
	KindClassTemplate
	KindAliasTemplate
	KindClass
	KindEnumeration
	KindEnumerator
	KindNamespace
	KindNamespaceAlias
	KindTypedef
	KindUsingDeclaration
	KindTemplateTypeParam
	KindTemplateNonTypeParam
	KindTemplateTemplateParam
	KindLabel
	// KindDependent is a name whose meaning depends on template arguments:
	// a member of a template parameter or of a deferred template-id. Type
	// holds the dependent qualifier type.
	KindDependent
	KindProblem
)

var kindNames = [...]string{
	KindInvalid:               "invalid",
	KindVariable:              "variable",
	KindParameter:             "parameter",
	KindField:                 "field",
	KindFunction:              "function",
	KindMethod:                "method",
	KindConstructor:           "constructor",
	KindDestructor:            "destructor",
	KindConversion:            "conversion",
	KindFunctionTemplate:      "function-template",
	KindClassTemplate:         "class-template",
	KindAliasTemplate:         "alias-template",
	KindClass:                 "class",
	KindEnumeration:           "enumeration",
	KindEnumerator:            "enumerator",
	KindNamespace:             "namespace",
	KindNamespaceAlias:        "namespace-alias",
	KindTypedef:               "typedef",
	KindUsingDeclaration:      "using",
	KindTemplateTypeParam:     "template-type-param",
	KindTemplateNonTypeParam:  "template-value-param",
	KindTemplateTemplateParam: "template-template-param",
	KindLabel:                 "label",
	KindDependent:             "dependent",
	KindProblem:               "problem",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// KindMask restricts lookup to specific binding kinds.
type KindMask uint32

const (
	// KindMaskNone filters out all kinds.
	KindMaskNone KindMask = 0
	// KindMaskAny allows every kind except labels, which live in their own
	// namespace.
	KindMaskAny KindMask = ^KindMask(0) &^ (1 << KindLabel)
)

// Mask converts a binding kind into a KindMask bit.
func (k Kind) Mask() KindMask {
	return KindMask(1 << uint(k))
}

// Masks used by elaborated specifiers and nested-name-specifiers.
var (
	MaskTypes = KindClass.Mask() | KindClassTemplate.Mask() | KindEnumeration.Mask() |
		KindTypedef.Mask() | KindTemplateTypeParam.Mask() | KindTemplateTemplateParam.Mask() |
		KindAliasTemplate.Mask() | KindUsingDeclaration.Mask() | KindDependent.Mask()
	MaskScopes = MaskTypes | KindNamespace.Mask() | KindNamespaceAlias.Mask()
	MaskLabels = KindLabel.Mask()
)

func (m KindMask) Has(k Kind) bool {
	return m&k.Mask() != 0
}

// IsType reports kinds that name a type.
func (k Kind) IsType() bool {
	switch k {
	case KindClass, KindClassTemplate, KindEnumeration, KindTypedef,
		KindTemplateTypeParam, KindTemplateTemplateParam, KindAliasTemplate, KindDependent:
		return true
	}
	return false
}

// IsFunction reports kinds that take part in overload resolution.
func (k Kind) IsFunction() bool {
	switch k {
	case KindFunction, KindMethod, KindConstructor, KindDestructor, KindConversion, KindFunctionTemplate:
		return true
	}
	return false
}

// IsTemplate reports the template kinds.
func (k Kind) IsTemplate() bool {
	return k == KindFunctionTemplate || k == KindClassTemplate || k == KindAliasTemplate ||
		k == KindTemplateTemplateParam
}

// IsClassLike reports kinds owning a class scope.
func (k Kind) IsClassLike() bool {
	return k == KindClass || k == KindClassTemplate
}

// Flags encode misc attributes for quick checks.
type Flags uint32

const (
	FlagStatic Flags = 1 << iota
	FlagVirtual
	FlagPure
	FlagInline
	FlagConstexpr
	FlagExplicit
	FlagDeleted
	FlagDefaulted
	// FlagImplicit marks special members synthesised for a class.
	FlagImplicit
	FlagExtern
	FlagMutable
	FlagAnonymous
	FlagScoped
	FlagFixed
	FlagDefined
	// FlagFriend marks bindings whose only declarations are friend
	// declarations; they stay hidden from ordinary lookup.
	FlagFriend
	FlagExplicitSpec
	FlagPartialSpec
	FlagPack
	FlagOverride
	FlagFinal
	// FlagProvisional marks problem bindings produced by the cycle guard.
	FlagProvisional
	FlagUnion
	FlagPattern
	// FlagDeferred marks a specialization whose arguments are still
	// dependent; its members are never instantiated.
	FlagDeferred
)

// Has reports whether every flag in f is set.
func (f Flags) Has(q Flags) bool { return f&q == q }

var flagNames = []struct {
	f    Flags
	name string
}{
	{FlagStatic, "static"}, {FlagVirtual, "virtual"}, {FlagPure, "pure"},
	{FlagInline, "inline"}, {FlagConstexpr, "constexpr"}, {FlagExplicit, "explicit"},
	{FlagDeleted, "deleted"}, {FlagDefaulted, "defaulted"}, {FlagImplicit, "implicit"},
	{FlagExtern, "extern"}, {FlagMutable, "mutable"}, {FlagAnonymous, "anonymous"},
	{FlagScoped, "scoped"}, {FlagFixed, "fixed"}, {FlagDefined, "defined"},
	{FlagFriend, "friend"}, {FlagExplicitSpec, "explicit-specialization"},
	{FlagPartialSpec, "partial-specialization"}, {FlagPack, "pack"},
	{FlagOverride, "override"}, {FlagFinal, "final"}, {FlagProvisional, "provisional"},
	{FlagUnion, "union"}, {FlagPattern, "pattern"}, {FlagDeferred, "deferred"},
}

// Strings returns a slice of textual flag labels.
func (f Flags) Strings() []string {
	if f == 0 {
		return nil
	}
	labels := make([]string, 0, 4)
	for _, fl := range flagNames {
		if f&fl.f != 0 {
			labels = append(labels, fl.name)
		}
	}
	return labels
}

// Visibility is the access level of a class member.
type Visibility uint8

const (
	VisNone Visibility = iota
	VisPublic
	VisProtected
	VisPrivate
)

func (v Visibility) String() string {
	switch v {
	case VisPublic:
		return "public"
	case VisProtected:
		return "protected"
	case VisPrivate:
		return "private"
	default:
		return "none"
	}
}

// ProblemCode is the failure carried by a problem binding.
type ProblemCode uint8

const (
	ProblemNone ProblemCode = iota
	ProblemNameNotFound
	ProblemAmbiguousLookup
	ProblemInvalidRedeclaration
	ProblemInvalidRedefinition
	ProblemInvalidType
	ProblemBadScope
	ProblemInvalidOverload
	ProblemMemberDeclarationNotFound
	ProblemRecursionInLookup
	ProblemNarrowingConversion
	ProblemLabelNotFound
)

func (p ProblemCode) String() string {
	switch p {
	case ProblemNameNotFound:
		return "NAME_NOT_FOUND"
	case ProblemAmbiguousLookup:
		return "AMBIGUOUS_LOOKUP"
	case ProblemInvalidRedeclaration:
		return "INVALID_REDECLARATION"
	case ProblemInvalidRedefinition:
		return "INVALID_REDEFINITION"
	case ProblemInvalidType:
		return "INVALID_TYPE"
	case ProblemBadScope:
		return "BAD_SCOPE"
	case ProblemInvalidOverload:
		return "INVALID_OVERLOAD"
	case ProblemMemberDeclarationNotFound:
		return "MEMBER_DECLARATION_NOT_FOUND"
	case ProblemRecursionInLookup:
		return "RECURSION_IN_LOOKUP"
	case ProblemNarrowingConversion:
		return "NARROWING_CONVERSION"
	case ProblemLabelNotFound:
		return "LABEL_NOT_FOUND"
	default:
		return "NONE"
	}
}

// Base is one entry of a class's base clause.
type Base struct {
	Class      BindingID
	Type       types.TypeID // dependent bases keep only a type
	Virtual    bool
	Visibility Visibility
	Node       ast.NodeID
}

// Binding describes a named entity. Only the fields relevant to Kind are
// populated.
type Binding struct {
	Kind       Kind
	Name       source.StringID
	Scope      ScopeID   // scope the binding is declared in
	Inner      ScopeID   // scope the binding owns, if any
	Owner      BindingID // class of a member, enumeration of an enumerator
	Flags      Flags
	Visibility Visibility
	Type       types.TypeID

	Decls   []ast.NameID // declaring names in source order
	Def     ast.NameID   // defining name
	Node    ast.NodeID   // declarator, class or enum specifier of the first declaration
	DefNode ast.NodeID   // node of the definition

	// classes
	Key      token.Kind
	Bases    []Base
	Members  []BindingID
	Friends  []BindingID
	Implicit []BindingID // special members in their fixed order

	// functions
	Params   []BindingID
	Defaults int // number of trailing parameters with default arguments

	// enumerations and constants
	Enumerators []BindingID
	Value       int64
	HasValue    bool

	// aliases and using-declarations
	Target    BindingID
	Delegates []BindingID

	// templates
	Template        BindingID // specialization or partial specialization -> primary
	TemplateParams  []BindingID
	TemplateArgs    []types.Arg
	Specializations []BindingID
	Explicit        []BindingID // explicit and partial specializations
	Position        int         // template parameter index

	// problems
	Problem    ProblemCode
	Candidates []BindingID
}

// IsProblem reports whether b is a problem binding.
func (b *Binding) IsProblem() bool {
	return b == nil || b.Kind == KindProblem
}

// IsMember reports whether b is declared in a class.
func (b *Binding) IsMember() bool {
	switch b.Kind {
	case KindField, KindMethod, KindConstructor, KindDestructor, KindConversion:
		return true
	case KindFunctionTemplate, KindClass, KindClassTemplate, KindEnumeration, KindTypedef, KindUsingDeclaration:
		return b.Owner.IsValid()
	}
	return false
}

// Declared reports the first declaring name.
func (b *Binding) Declared() ast.NameID {
	if len(b.Decls) > 0 {
		return b.Decls[0]
	}
	return b.Def
}

func (b *Binding) Has(f Flags) bool { return b != nil && b.Flags&f != 0 }

func (b *Binding) IsStatic() bool    { return b.Has(FlagStatic) }
func (b *Binding) IsDeleted() bool   { return b.Has(FlagDeleted) }
func (b *Binding) IsDefaulted() bool { return b.Has(FlagDefaulted) }

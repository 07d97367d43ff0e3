package ast

import (
	"cppsema/internal/source"
	"cppsema/internal/token"
)

type NodeKind uint8

const (
	NodeInvalid NodeKind = iota
	// NodeDiscarded marks the slot of an ambiguity alternative that was
	// moved into its ambiguity node or thrown away.
	NodeDiscarded
	NodeTranslationUnit
	// NodeName holds one Name. Qualified names own their segment name nodes,
	// template-ids own their template name node and argument nodes.
	NodeName

	// declarations
	NodeSimpleDecl      // Kids: DeclSpec, Declarator...
	NodeFunctionDef     // payload FunctionDefData
	NodeNamespaceDef    // Kids: name?, decls
	NodeNamespaceAlias  // Kids: alias name, target name
	NodeUsingDecl       // Kids: qualified name
	NodeUsingDirective  // Kids: namespace name
	NodeAliasDecl       // using X = T; Kids: name, TypeId
	NodeTemplateDecl    // payload TemplateData
	NodeTemplateParam   // payload TemplateParamData
	NodeExplicitInst    // template class X<int>; Kids: decl
	NodeStaticAssert    // Kids: cond, message?
	NodeLinkageSpec     // extern "C" { ... }
	NodeAccessSpec      // public: (Op holds the keyword)
	NodeEmptyDecl       // ;
	NodeDeclSpec        // payload DeclSpecData
	NodeDeclarator      // payload DeclaratorData
	NodeParamDecl       // Kids: DeclSpec, Declarator
	NodeClassSpec       // payload ClassSpecData
	NodeBaseSpec        // Kids: name; Op: access keyword
	NodeEnumSpec        // payload EnumSpecData
	NodeEnumerator      // Kids: name, value?
	NodeCtorInit        // mem-initializer; Kids: name, Init
	NodeTypeID          // Kids: DeclSpec, Declarator (abstract)
	NodeInitEquals      // = expr
	NodeInitParens      // ( exprs )
	NodeInitList        // { inits }

	// statements
	NodeCompound
	NodeExprStmt
	NodeDeclStmt
	NodeIf      // payload ControlData
	NodeWhile   // payload ControlData
	NodeDo      // payload ControlData
	NodeFor     // payload ControlData
	NodeRangeFor
	NodeSwitch
	NodeCase
	NodeDefault
	NodeBreak
	NodeContinue
	NodeReturn
	NodeGoto
	NodeLabel
	NodeTry
	NodeCatch
	NodeNullStmt

	// expressions
	NodeIDExpr
	NodeLiteral
	NodeThis
	NodeParen
	NodeUnary
	NodeBinary
	NodeConditional
	NodeCall
	NodeSubscript
	NodeMember   // Kids: object, name; Op Dot or Arrow
	NodeCast     // (T)e; Kids: TypeId, expr
	NodeNamedCast
	NodeTypeConstruct // T(args), T{args}; Kids: DeclSpec, Init
	NodeSizeof        // Op KwSizeof / KwAlignof; Kids: TypeId or expr
	NodeSizeofPack
	NodeTypeid
	NodeNoexcept
	NodeNew    // payload NewData
	NodeDelete
	NodeThrow
	NodeLambda // payload LambdaData
	NodeCapture
	NodePackExpansion

	// ambiguity nodes: Kids are complete alternative sub-trees
	NodeAmbiguousStatement
	NodeAmbiguousExpression
	NodeAmbiguousTemplateArg
	NodeAmbiguousTypeOrExpr

	nodeKindCount
)

type NodeFlags uint32

const (
	FlagInline NodeFlags = 1 << iota
	FlagScoped
	FlagVirtual
	FlagPostfix
	FlagBraced
	FlagGlobal
	FlagArray
	FlagTypename
	FlagTemplateKw
	FlagPack
	FlagExplicitSpec
	FlagOpaque
	FlagExtern
	FlagConstexpr
	// FlagProblem marks an ambiguity node none of whose alternatives is valid.
	FlagProblem
	FlagCondDecl
)

// Node is one vertex of the syntax tree. Kids are in source order; payload
// structs additionally name the role of particular kids.
type Node struct {
	Kind    NodeKind
	Span    source.Span
	Parent  NodeID
	Kids    []NodeID
	Name    NameID // only for NodeName
	Op      token.Kind
	Flags   NodeFlags
	Payload PayloadID
}

func (n *Node) Has(f NodeFlags) bool {
	return n.Flags&f != 0
}

// IsAmbiguity reports whether n is one of the ambiguity node kinds.
func (n *Node) IsAmbiguity() bool {
	return n.Kind >= NodeAmbiguousStatement && n.Kind <= NodeAmbiguousTypeOrExpr
}

// IsExpression reports whether n is an expression node.
func (n *Node) IsExpression() bool {
	return (n.Kind >= NodeIDExpr && n.Kind <= NodePackExpansion) || n.Kind == NodeAmbiguousExpression
}

// IsStatement reports whether n is a statement node.
func (n *Node) IsStatement() bool {
	return (n.Kind >= NodeCompound && n.Kind <= NodeNullStmt) || n.Kind == NodeAmbiguousStatement
}

var nodeKindNames = [...]string{
	NodeInvalid:              "Invalid",
	NodeDiscarded:            "Discarded",
	NodeTranslationUnit:      "TranslationUnit",
	NodeName:                 "Name",
	NodeSimpleDecl:           "SimpleDecl",
	NodeFunctionDef:          "FunctionDef",
	NodeNamespaceDef:         "NamespaceDef",
	NodeNamespaceAlias:       "NamespaceAlias",
	NodeUsingDecl:            "UsingDecl",
	NodeUsingDirective:       "UsingDirective",
	NodeAliasDecl:            "AliasDecl",
	NodeTemplateDecl:         "TemplateDecl",
	NodeTemplateParam:        "TemplateParam",
	NodeExplicitInst:         "ExplicitInstantiation",
	NodeStaticAssert:         "StaticAssert",
	NodeLinkageSpec:          "LinkageSpec",
	NodeAccessSpec:           "AccessSpec",
	NodeEmptyDecl:            "EmptyDecl",
	NodeDeclSpec:             "DeclSpec",
	NodeDeclarator:           "Declarator",
	NodeParamDecl:            "ParamDecl",
	NodeClassSpec:            "ClassSpec",
	NodeBaseSpec:             "BaseSpec",
	NodeEnumSpec:             "EnumSpec",
	NodeEnumerator:           "Enumerator",
	NodeCtorInit:             "CtorInit",
	NodeTypeID:               "TypeId",
	NodeInitEquals:           "InitEquals",
	NodeInitParens:           "InitParens",
	NodeInitList:             "InitList",
	NodeCompound:             "Compound",
	NodeExprStmt:             "ExprStmt",
	NodeDeclStmt:             "DeclStmt",
	NodeIf:                   "If",
	NodeWhile:                "While",
	NodeDo:                   "Do",
	NodeFor:                  "For",
	NodeRangeFor:             "RangeFor",
	NodeSwitch:               "Switch",
	NodeCase:                 "Case",
	NodeDefault:              "Default",
	NodeBreak:                "Break",
	NodeContinue:             "Continue",
	NodeReturn:               "Return",
	NodeGoto:                 "Goto",
	NodeLabel:                "Label",
	NodeTry:                  "Try",
	NodeCatch:                "Catch",
	NodeNullStmt:             "NullStmt",
	NodeIDExpr:               "IdExpr",
	NodeLiteral:              "Literal",
	NodeThis:                 "This",
	NodeParen:                "Paren",
	NodeUnary:                "Unary",
	NodeBinary:               "Binary",
	NodeConditional:          "Conditional",
	NodeCall:                 "Call",
	NodeSubscript:            "Subscript",
	NodeMember:               "Member",
	NodeCast:                 "Cast",
	NodeNamedCast:            "NamedCast",
	NodeTypeConstruct:        "TypeConstruct",
	NodeSizeof:               "Sizeof",
	NodeSizeofPack:           "SizeofPack",
	NodeTypeid:               "Typeid",
	NodeNoexcept:             "Noexcept",
	NodeNew:                  "New",
	NodeDelete:               "Delete",
	NodeThrow:                "Throw",
	NodeLambda:               "Lambda",
	NodeCapture:              "Capture",
	NodePackExpansion:        "PackExpansion",
	NodeAmbiguousStatement:   "AmbiguousStatement",
	NodeAmbiguousExpression:  "AmbiguousExpression",
	NodeAmbiguousTemplateArg: "AmbiguousTemplateArg",
	NodeAmbiguousTypeOrExpr:  "AmbiguousTypeOrExpr",
}

func (k NodeKind) String() string {
	if int(k) < len(nodeKindNames) && nodeKindNames[k] != "" {
		return nodeKindNames[k]
	}
	return "Node(?)"
}

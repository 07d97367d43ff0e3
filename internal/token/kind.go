package token

// Kind represents the category of a source token.
type Kind uint8

const (
	Invalid Kind = iota
	EOF

	Ident
	IntLit
	FloatLit
	CharLit
	StringLit

	punctBegin
	LParen        // (
	RParen        // )
	LBrace        // {
	RBrace        // }
	LBracket      // [
	RBracket      // ]
	Semicolon     // ;
	Colon         // :
	ColonColon    // ::
	Comma         // ,
	Dot           // .
	DotStar       // .*
	Arrow         // ->
	ArrowStar     // ->*
	Ellipsis      // ...
	Question      // ?
	Plus          // +
	Minus         // -
	Star          // *
	Slash         // /
	Percent       // %
	Amp           // &
	Pipe          // |
	Caret         // ^
	Tilde         // ~
	Bang          // !
	Assign        // =
	Lt            // <
	Gt            // >
	PlusAssign    // +=
	MinusAssign   // -=
	StarAssign    // *=
	SlashAssign   // /=
	PercentAssign // %=
	AmpAssign     // &=
	PipeAssign    // |=
	CaretAssign   // ^=
	Shl           // <<
	Shr           // >>
	ShlAssign     // <<=
	ShrAssign     // >>=
	EqEq          // ==
	BangEq        // !=
	LtEq          // <=
	GtEq          // >=
	AndAnd        // &&
	OrOr          // ||
	PlusPlus      // ++
	MinusMinus    // --
	Hash          // #
	punctEnd

	kwBegin
	KwAlignas
	KwAlignof
	KwAuto
	KwBool
	KwBreak
	KwCase
	KwCatch
	KwChar
	KwChar16
	KwChar32
	KwClass
	KwConst
	KwConstexpr
	KwConstCast
	KwContinue
	KwDecltype
	KwDefault
	KwDelete
	KwDo
	KwDouble
	KwDynamicCast
	KwElse
	KwEnum
	KwExplicit
	KwExtern
	KwFalse
	KwFinal
	KwFloat
	KwFor
	KwFriend
	KwGoto
	KwIf
	KwInline
	KwInt
	KwLong
	KwMutable
	KwNamespace
	KwNew
	KwNoexcept
	KwNullptr
	KwOperator
	KwOverride
	KwPrivate
	KwProtected
	KwPublic
	KwRegister
	KwReinterpretCast
	KwReturn
	KwShort
	KwSigned
	KwSizeof
	KwStatic
	KwStaticAssert
	KwStaticCast
	KwStruct
	KwSwitch
	KwTemplate
	KwThis
	KwThreadLocal
	KwThrow
	KwTrue
	KwTry
	KwTypedef
	KwTypeid
	KwTypename
	KwUnion
	KwUnsigned
	KwUsing
	KwVirtual
	KwVoid
	KwVolatile
	KwWcharT
	KwWhile
	KwTypeof
	KwAttribute
	KwRestrict
	kwEnd
)

var kindNames = [...]string{
	Invalid:           "invalid",
	EOF:               "EOF",
	Ident:             "identifier",
	IntLit:            "integer literal",
	FloatLit:          "floating literal",
	CharLit:           "character literal",
	StringLit:         "string literal",
	LParen:            "(",
	RParen:            ")",
	LBrace:            "{",
	RBrace:            "}",
	LBracket:          "[",
	RBracket:          "]",
	Semicolon:         ";",
	Colon:             ":",
	ColonColon:        "::",
	Comma:             ",",
	Dot:               ".",
	DotStar:           ".*",
	Arrow:             "->",
	ArrowStar:         "->*",
	Ellipsis:          "...",
	Question:          "?",
	Plus:              "+",
	Minus:             "-",
	Star:              "*",
	Slash:             "/",
	Percent:           "%",
	Amp:               "&",
	Pipe:              "|",
	Caret:             "^",
	Tilde:             "~",
	Bang:              "!",
	Assign:            "=",
	Lt:                "<",
	Gt:                ">",
	PlusAssign:        "+=",
	MinusAssign:       "-=",
	StarAssign:        "*=",
	SlashAssign:       "/=",
	PercentAssign:     "%=",
	AmpAssign:         "&=",
	PipeAssign:        "|=",
	CaretAssign:       "^=",
	Shl:               "<<",
	Shr:               ">>",
	ShlAssign:         "<<=",
	ShrAssign:         ">>=",
	EqEq:              "==",
	BangEq:            "!=",
	LtEq:              "<=",
	GtEq:              ">=",
	AndAnd:            "&&",
	OrOr:              "||",
	PlusPlus:          "++",
	MinusMinus:        "--",
	Hash:              "#",
	KwAlignas:         "alignas",
	KwAlignof:         "alignof",
	KwAuto:            "auto",
	KwBool:            "bool",
	KwBreak:           "break",
	KwCase:            "case",
	KwCatch:           "catch",
	KwChar:            "char",
	KwChar16:          "char16_t",
	KwChar32:          "char32_t",
	KwClass:           "class",
	KwConst:           "const",
	KwConstexpr:       "constexpr",
	KwConstCast:       "const_cast",
	KwContinue:        "continue",
	KwDecltype:        "decltype",
	KwDefault:         "default",
	KwDelete:          "delete",
	KwDo:              "do",
	KwDouble:          "double",
	KwDynamicCast:     "dynamic_cast",
	KwElse:            "else",
	KwEnum:            "enum",
	KwExplicit:        "explicit",
	KwExtern:          "extern",
	KwFalse:           "false",
	KwFinal:           "final",
	KwFloat:           "float",
	KwFor:             "for",
	KwFriend:          "friend",
	KwGoto:            "goto",
	KwIf:              "if",
	KwInline:          "inline",
	KwInt:             "int",
	KwLong:            "long",
	KwMutable:         "mutable",
	KwNamespace:       "namespace",
	KwNew:             "new",
	KwNoexcept:        "noexcept",
	KwNullptr:         "nullptr",
	KwOperator:        "operator",
	KwOverride:        "override",
	KwPrivate:         "private",
	KwProtected:       "protected",
	KwPublic:          "public",
	KwRegister:        "register",
	KwReinterpretCast: "reinterpret_cast",
	KwReturn:          "return",
	KwShort:           "short",
	KwSigned:          "signed",
	KwSizeof:          "sizeof",
	KwStatic:          "static",
	KwStaticAssert:    "static_assert",
	KwStaticCast:      "static_cast",
	KwStruct:          "struct",
	KwSwitch:          "switch",
	KwTemplate:        "template",
	KwThis:            "this",
	KwThreadLocal:     "thread_local",
	KwThrow:           "throw",
	KwTrue:            "true",
	KwTry:             "try",
	KwTypedef:         "typedef",
	KwTypeid:          "typeid",
	KwTypename:        "typename",
	KwUnion:           "union",
	KwUnsigned:        "unsigned",
	KwUsing:           "using",
	KwVirtual:         "virtual",
	KwVoid:            "void",
	KwVolatile:        "volatile",
	KwWcharT:          "wchar_t",
	KwWhile:           "while",
	KwTypeof:          "__typeof__",
	KwAttribute:       "__attribute__",
	KwRestrict:        "__restrict",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "token(?)"
}

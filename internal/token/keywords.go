package token

var keywords = map[string]Kind{
	"alignas":          KwAlignas,
	"alignof":          KwAlignof,
	"auto":             KwAuto,
	"bool":             KwBool,
	"break":            KwBreak,
	"case":             KwCase,
	"catch":            KwCatch,
	"char":             KwChar,
	"char16_t":         KwChar16,
	"char32_t":         KwChar32,
	"class":            KwClass,
	"const":            KwConst,
	"constexpr":        KwConstexpr,
	"const_cast":       KwConstCast,
	"continue":         KwContinue,
	"decltype":         KwDecltype,
	"default":          KwDefault,
	"delete":           KwDelete,
	"do":               KwDo,
	"double":           KwDouble,
	"dynamic_cast":     KwDynamicCast,
	"else":             KwElse,
	"enum":             KwEnum,
	"explicit":         KwExplicit,
	"extern":           KwExtern,
	"false":            KwFalse,
	"final":            KwFinal,
	"float":            KwFloat,
	"for":              KwFor,
	"friend":           KwFriend,
	"goto":             KwGoto,
	"if":               KwIf,
	"inline":           KwInline,
	"int":              KwInt,
	"long":             KwLong,
	"mutable":          KwMutable,
	"namespace":        KwNamespace,
	"new":              KwNew,
	"noexcept":         KwNoexcept,
	"nullptr":          KwNullptr,
	"operator":         KwOperator,
	"override":         KwOverride,
	"private":          KwPrivate,
	"protected":        KwProtected,
	"public":           KwPublic,
	"register":         KwRegister,
	"reinterpret_cast": KwReinterpretCast,
	"return":           KwReturn,
	"short":            KwShort,
	"signed":           KwSigned,
	"sizeof":           KwSizeof,
	"static":           KwStatic,
	"static_assert":    KwStaticAssert,
	"static_cast":      KwStaticCast,
	"struct":           KwStruct,
	"switch":           KwSwitch,
	"template":         KwTemplate,
	"this":             KwThis,
	"thread_local":     KwThreadLocal,
	"throw":            KwThrow,
	"true":             KwTrue,
	"try":              KwTry,
	"typedef":          KwTypedef,
	"typeid":           KwTypeid,
	"typename":         KwTypename,
	"union":            KwUnion,
	"unsigned":         KwUnsigned,
	"using":            KwUsing,
	"virtual":          KwVirtual,
	"void":             KwVoid,
	"volatile":         KwVolatile,
	"wchar_t":          KwWcharT,
	"while":            KwWhile,
}

// contextual keywords are identifiers everywhere except after a declarator
var contextual = map[Kind]bool{
	KwFinal:    true,
	KwOverride: true,
}

// gnuKeywords are recognized only when GNU extensions are enabled.
var gnuKeywords = map[string]Kind{
	"__typeof__":    KwTypeof,
	"typeof":        KwTypeof,
	"__attribute__": KwAttribute,
	"__alignof__":   KwAlignof,
	"__restrict":    KwRestrict,
	"__restrict__":  KwRestrict,
}

// LookupKeyword reports the keyword kind of ident. Keywords are case sensitive.
// final and override are contextual and come back as identifiers.
func LookupKeyword(ident string, gnu bool) (Kind, bool) {
	if k, ok := keywords[ident]; ok {
		if contextual[k] {
			return Ident, false
		}
		return k, true
	}
	if gnu {
		if k, ok := gnuKeywords[ident]; ok {
			return k, true
		}
	}
	return Ident, false
}

// IsContextualKeyword reports whether ident is final or override.
func IsContextualKeyword(ident string) bool {
	k, ok := keywords[ident]
	return ok && contextual[k]
}

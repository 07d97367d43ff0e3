package token

import (
	"cppsema/internal/source"
)

// Token represents a single source token with its location and trivia.
type Token struct {
	Kind    Kind
	Span    source.Span
	Text    string
	Leading []Trivia
	// Macro is set when the token came from expanding an object-like macro.
	Macro source.StringID
}

// IsLiteral reports whether the token is a numeric, character, string or boolean literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case IntLit, FloatLit, CharLit, StringLit, KwTrue, KwFalse, KwNullptr:
		return true
	default:
		return false
	}
}

// IsPunctOrOp reports whether the token is a punctuator or operator.
func (t Token) IsPunctOrOp() bool {
	return t.Kind > punctBegin && t.Kind < punctEnd
}

// IsKeyword reports whether the token is a reserved word.
func (t Token) IsKeyword() bool {
	return t.Kind > kwBegin && t.Kind < kwEnd
}

// IsIdent reports whether the token is an identifier.
func (t Token) IsIdent() bool { return t.Kind == Ident }

// IsFundamentalType reports whether the keyword names or modifies a builtin type.
func (t Token) IsFundamentalType() bool {
	switch t.Kind {
	case KwVoid, KwBool, KwChar, KwChar16, KwChar32, KwWcharT, KwShort, KwInt, KwLong,
		KwSigned, KwUnsigned, KwFloat, KwDouble:
		return true
	default:
		return false
	}
}

// IsCVQualifier reports const and volatile.
func (t Token) IsCVQualifier() bool {
	return t.Kind == KwConst || t.Kind == KwVolatile
}

// IsAssignOp reports '=' and compound assignment operators.
func (t Token) IsAssignOp() bool {
	switch t.Kind {
	case Assign, PlusAssign, MinusAssign, StarAssign, SlashAssign, PercentAssign,
		AmpAssign, PipeAssign, CaretAssign, ShlAssign, ShrAssign:
		return true
	default:
		return false
	}
}

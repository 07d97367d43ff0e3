package token_test

import (
	"testing"

	"cppsema/internal/token"
)

func tok(k token.Kind) token.Token {
	return token.Token{Kind: k}
}

func TestClassification(t *testing.T) {
	for _, k := range []token.Kind{token.IntLit, token.FloatLit, token.CharLit, token.StringLit, token.KwTrue, token.KwNullptr} {
		if !tok(k).IsLiteral() {
			t.Errorf("%v should be a literal", k)
		}
	}
	for _, k := range []token.Kind{token.ColonColon, token.ArrowStar, token.Ellipsis, token.ShrAssign} {
		if !tok(k).IsPunctOrOp() {
			t.Errorf("%v should be punctuation", k)
		}
		if tok(k).IsKeyword() {
			t.Errorf("%v must not be a keyword", k)
		}
	}
	for _, k := range []token.Kind{token.KwClass, token.KwTemplate, token.KwDecltype} {
		if !tok(k).IsKeyword() {
			t.Errorf("%v should be a keyword", k)
		}
	}
	if !tok(token.KwUnsigned).IsFundamentalType() || tok(token.KwConst).IsFundamentalType() {
		t.Errorf("fundamental type classification is off")
	}
}

func TestLookupKeyword(t *testing.T) {
	if k, ok := token.LookupKeyword("namespace", false); !ok || k != token.KwNamespace {
		t.Fatalf("namespace = %v %v", k, ok)
	}
	if _, ok := token.LookupKeyword("override", false); ok {
		t.Fatalf("override is contextual and must lex as an identifier")
	}
	if !token.IsContextualKeyword("final") {
		t.Fatalf("final should be contextual")
	}
	if _, ok := token.LookupKeyword("__typeof__", false); ok {
		t.Fatalf("__typeof__ requires GNU extensions")
	}
	if k, ok := token.LookupKeyword("__typeof__", true); !ok || k != token.KwTypeof {
		t.Fatalf("__typeof__ with GNU = %v %v", k, ok)
	}
}

func TestKindString(t *testing.T) {
	cases := map[token.Kind]string{
		token.ColonColon:   "::",
		token.KwStaticCast: "static_cast",
		token.Ident:        "identifier",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("got %q want %q", got, want)
		}
	}
}

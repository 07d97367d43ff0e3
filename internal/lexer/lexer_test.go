package lexer_test

import (
	"fmt"
	"strings"
	"testing"

	"cppsema/internal/diag"
	"cppsema/internal/lexer"
	"cppsema/internal/source"
	"cppsema/internal/token"
)

// testReporter collects every diagnostic the lexer reports.
type testReporter struct {
	diagnostics []diag.Diagnostic
}

func (r *testReporter) Report(d diag.Diagnostic) {
	r.diagnostics = append(r.diagnostics, d)
}

func (r *testReporter) ErrorMessages() []string {
	messages := make([]string, 0, len(r.diagnostics))
	for _, d := range r.diagnostics {
		messages = append(messages, fmt.Sprintf("[%s] %s: %s", d.Code.ID(), d.Severity, d.Message))
	}
	return messages
}

func lex(input string, gnu bool) ([]token.Token, *testReporter, *source.Expansions) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.cpp", []byte(input))
	rep := &testReporter{}
	exp := fs.Expansions(id)
	toks := lexer.Tokenize(fs.Get(id), lexer.Options{Reporter: rep, GNU: gnu, Expansions: exp})
	return toks, rep, exp
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, 0, len(toks))
	for _, t := range toks {
		if t.Kind == token.EOF {
			break
		}
		out = append(out, t.Kind)
	}
	return out
}

func expectTokens(t *testing.T, input string, expected ...token.Kind) {
	t.Helper()
	toks, rep, _ := lex(input, false)
	got := kinds(toks)
	if len(got) != len(expected) {
		t.Fatalf("input %q: got %v want %v (errors: %v)", input, got, expected, rep.ErrorMessages())
	}
	for i := range got {
		if got[i] != expected[i] {
			t.Fatalf("input %q token %d: got %v want %v", input, i, got[i], expected[i])
		}
	}
}

func TestPunctuatorsAreGreedy(t *testing.T) {
	expectTokens(t, "a->*b", token.Ident, token.ArrowStar, token.Ident)
	expectTokens(t, "x.*y", token.Ident, token.DotStar, token.Ident)
	expectTokens(t, "A::B", token.Ident, token.ColonColon, token.Ident)
	expectTokens(t, "v<v<int>>", token.Ident, token.Lt, token.Ident, token.Lt, token.KwInt, token.Shr)
	expectTokens(t, "a>>=1", token.Ident, token.ShrAssign, token.IntLit)
	expectTokens(t, "f(...)", token.Ident, token.LParen, token.Ellipsis, token.RParen)
}

func TestKeywordsAndContextual(t *testing.T) {
	expectTokens(t, "class final override",
		token.KwClass, token.Ident, token.Ident)
	expectTokens(t, "static_cast<unsigned long>(x)",
		token.KwStaticCast, token.Lt, token.KwUnsigned, token.KwLong, token.Gt,
		token.LParen, token.Ident, token.RParen)
}

func TestNumbers(t *testing.T) {
	cases := []struct {
		in   string
		kind token.Kind
	}{
		{"42", token.IntLit},
		{"0x1Fu", token.IntLit},
		{"0b1010", token.IntLit},
		{"1'000'000ULL", token.IntLit},
		{"017", token.IntLit},
		{"3.14", token.FloatLit},
		{".5f", token.FloatLit},
		{"1e-3", token.FloatLit},
		{"2.L", token.FloatLit},
	}
	for _, tc := range cases {
		toks, rep, _ := lex(tc.in, false)
		if toks[0].Kind != tc.kind || toks[0].Text != tc.in {
			t.Errorf("%q: got %v %q", tc.in, toks[0].Kind, toks[0].Text)
		}
		if len(rep.diagnostics) != 0 {
			t.Errorf("%q: unexpected errors %v", tc.in, rep.ErrorMessages())
		}
	}
	_, rep, _ := lex("09", false)
	if len(rep.diagnostics) != 1 || rep.diagnostics[0].Code != diag.LexBadNumber {
		t.Fatalf("09 should be a bad octal literal: %v", rep.ErrorMessages())
	}
}

func TestStringAndCharLiterals(t *testing.T) {
	toks, rep, _ := lex(`L"wide" u8"x" 'c' U'\n' R"d(a"b)d" "esc\"aped"`, false)
	want := []string{`L"wide"`, `u8"x"`, `'c'`, `U'\n'`, `R"d(a"b)d"`, `"esc\"aped"`}
	for i, w := range want {
		if toks[i].Text != w {
			t.Errorf("token %d: got %q want %q", i, toks[i].Text, w)
		}
	}
	if len(rep.diagnostics) != 0 {
		t.Fatalf("unexpected errors: %v", rep.ErrorMessages())
	}
	_, rep, _ = lex("\"open\n", false)
	if len(rep.diagnostics) != 1 || rep.diagnostics[0].Code != diag.LexUnterminatedString {
		t.Fatalf("expected unterminated string: %v", rep.ErrorMessages())
	}
}

func TestCommentsAndDirectivesAreTrivia(t *testing.T) {
	src := "// line\n#include <vector>\n/* block */ int /* x */ a;\n"
	toks, _, _ := lex(src, false)
	if got := kinds(toks); len(got) != 3 {
		t.Fatalf("tokens = %v", got)
	}
	var directives int
	for _, tr := range toks[0].Leading {
		if tr.Kind == token.TriviaDirective {
			directives++
			if tr.Directive.Name != "include" || tr.Directive.Payload != "<vector>" {
				t.Fatalf("directive = %+v", tr.Directive)
			}
		}
	}
	if directives != 1 {
		t.Fatalf("directives = %d", directives)
	}
}

func TestHashInsideLineIsPunct(t *testing.T) {
	expectTokens(t, "a # b", token.Ident, token.Hash, token.Ident)
}

func TestObjectMacroExpansion(t *testing.T) {
	src := "#define N 3\n#define M N + N\nint a[M];\n#undef N\nint N;"
	toks, _, exp := lex(src, false)
	var texts []string
	for _, tk := range toks {
		if tk.Kind == token.EOF {
			break
		}
		texts = append(texts, tk.Text)
	}
	if got := strings.Join(texts, " "); got != "int a [ 3 + 3 ] ; int N ;" {
		t.Fatalf("expanded = %q", got)
	}
	if exp.Len() != 1 {
		t.Fatalf("expansions = %d, want 1 (nested uses are part of the outer one)", exp.Len())
	}
	use := strings.Index(src, "M]")
	e, ok := exp.Lookup(uint32(use))
	if !ok || strings.TrimSpace(src[e.Def.Start:e.Def.End]) != "N + N" {
		t.Fatalf("lookup = %+v %v", e, ok)
	}
	if want := uint32(strings.Index(src, "N + N")); e.Def.Start != want {
		t.Fatalf("definition starts at %d, want %d", e.Def.Start, want)
	}
	if toks[3].Span != e.Use {
		t.Fatalf("expanded token span %v, want use span %v", toks[3].Span, e.Use)
	}
}

func TestSelfReferentialMacroStops(t *testing.T) {
	toks, _, _ := lex("#define X X + 1\nint y = X;", false)
	var texts []string
	for _, tk := range toks[:len(toks)-1] {
		texts = append(texts, tk.Text)
	}
	if got := strings.Join(texts, " "); got != "int y = X + 1 ;" {
		t.Fatalf("expanded = %q", got)
	}
}

func TestFunctionLikeMacroIsNotExpanded(t *testing.T) {
	expectTokens(t, "#define F(x) x\nF(1);",
		token.Ident, token.LParen, token.IntLit, token.RParen, token.Semicolon)
}

func TestGNUKeywords(t *testing.T) {
	toks, _, _ := lex("__typeof__(x) __restrict p;", true)
	if toks[0].Kind != token.KwTypeof || toks[4].Kind != token.KwRestrict {
		t.Fatalf("got %v", kinds(toks))
	}
	toks, _, _ = lex("__typeof__", false)
	if toks[0].Kind != token.Ident {
		t.Fatalf("without GNU: %v", toks[0].Kind)
	}
}

func TestTokenTooLong(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("long.cpp", []byte("int "+strings.Repeat("a", 40)+";"))
	rep := &testReporter{}
	lexer.Tokenize(fs.Get(id), lexer.Options{Reporter: rep, MaxTokenLength: 16})
	if len(rep.diagnostics) != 1 || rep.diagnostics[0].Code != diag.LexTokenTooLong {
		t.Fatalf("diagnostics = %v", rep.ErrorMessages())
	}
}

func TestUnicodeIdentifierIsNFC(t *testing.T) {
	toks, _, _ := lex("int cafe\u0301;", false)
	if toks[1].Kind != token.Ident || toks[1].Text != "caf\u00e9" {
		t.Fatalf("ident = %q", toks[1].Text)
	}
}

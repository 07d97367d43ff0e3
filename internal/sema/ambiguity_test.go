package sema_test

import (
	"testing"

	"cppsema/internal/ast"
	"cppsema/internal/diag"
	"cppsema/internal/symbols"
)

func TestDeclarationOrMultiplication(t *testing.T) {
	f := analyze(t, `
struct T {};
int a, b;
void use() {
	T * p;
	a * b;
}
`)
	if got := f.kind(f.ok("p", 0)); got != symbols.KindVariable {
		t.Fatalf("p: %s", got)
	}
	f.same(f.ok("a", 1), f.ok("a", 0), "a in a * b")
	f.same(f.ok("b", 1), f.ok("b", 0), "b in a * b")
	if f.b.HasAmbiguity(f.u.Root()) {
		t.Fatalf("ambiguity left after resolving every name")
	}
}

func TestFunctionDeclarationOrObject(t *testing.T) {
	f := analyze(t, `
struct W { W(int); };
struct T {};
int n;
void use() {
	W w(n);
	W v(T);
}
`)
	if got := f.kind(f.ok("w", 0)); got != symbols.KindVariable {
		t.Fatalf("w: %s", got)
	}
	if got := f.kind(f.ok("v", 0)); got != symbols.KindFunction {
		t.Fatalf("v: %s", got)
	}
}

func TestCastOrBinary(t *testing.T) {
	f := analyze(t, `
typedef int I;
int a, b;
int r1 = (I) - b;
int r2 = (a) - b;
`)
	r1 := f.initOf("r1")
	r2 := f.initOf("r2")
	f.u.ExprType(r1)
	f.u.ExprType(r2)
	if got := f.b.Node(r1).Kind; got != ast.NodeCast {
		t.Fatalf("(I) - b read as %s", got)
	}
	if got := f.b.Node(r2).Kind; got != ast.NodeBinary {
		t.Fatalf("(a) - b read as %s", got)
	}
}

func TestTemplateArgumentTypeOrValue(t *testing.T) {
	f := analyze(t, `
template <typename T> struct X {};
template <int N> struct Y { static const int value = N; };
struct S {};
const int K = 3;
X<S> xs;
const int k = Y<K>::value;
`)
	f.ok("S", 1)
	got, ok := f.constOf("k")
	if !ok || got != 3 {
		t.Fatalf("Y<K>::value = %d (%v)", got, ok)
	}
}

func TestUnresolvableAmbiguityIsReported(t *testing.T) {
	f := analyze(t, `
void use() {
	undeclared * q;
}
`)
	f.u.Check()
	var codes []diag.Code
	for _, c := range f.codes() {
		if c == diag.SemaUnresolvedAmbiguity || c == diag.SemaNameNotFound {
			codes = append(codes, c)
		}
	}
	if len(codes) == 0 {
		t.Fatalf("no diagnostic for an unresolvable statement: %v", f.codes())
	}
}

package sema_test

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cppsema/internal/diag"
	"cppsema/internal/sema"
	"cppsema/internal/symbols"
)

func TestLocalShadowsGlobal(t *testing.T) {
	f := analyze(t, `
int x;
void f() { int x; x = 1; }
void g() { x = 2; }
`)
	global := f.ok("x", 0)
	local := f.ok("x", 1)
	f.same(f.ok("x", 2), local, "x in f")
	f.same(f.ok("x", 3), global, "x in g")
	if !f.u.IsGloballyQualified(global) || f.u.IsGloballyQualified(local) {
		t.Fatalf("global qualification: global=%v local=%v", f.u.IsGloballyQualified(global), f.u.IsGloballyQualified(local))
	}
}

func TestDeclarationOrderInBlocks(t *testing.T) {
	f := analyze(t, `
int v;
void f() {
	v = 1;
	int v;
	v = 2;
}
`)
	global := f.ok("v", 0)
	f.same(f.ok("v", 1), global, "v before the local declaration")
	f.same(f.ok("v", 3), f.ok("v", 2), "v after the local declaration")
}

func TestUsingDirective(t *testing.T) {
	f := analyze(t, `
namespace N { int v; }
using namespace N;
int w = v;
`)
	f.same(f.ok("v", 1), f.ok("v", 0), "v through using namespace")
	if got := f.qname(f.ok("v", 1)); got != "N::v" {
		t.Fatalf("qualified name = %q", got)
	}
}

func TestCyclicUsingDirectivesTerminate(t *testing.T) {
	f := analyze(t, `
namespace B { int z; }
namespace A { using namespace B; }
namespace B { using namespace A; }
int q = A::z;
int r = B::nothing;
`)
	f.same(f.ok("z", 1), f.ok("z", 0), "A::z")
	if got := f.problem(f.resolve("nothing", 0)); got != symbols.ProblemNameNotFound.String() {
		t.Fatalf("B::nothing: %s", got)
	}
}

func TestAmbiguousThroughDirectives(t *testing.T) {
	f := analyze(t, `
namespace A { int k; }
namespace B { int k; }
using namespace A;
using namespace B;
int m = k;
`)
	b := f.resolve("k", 2)
	if got := f.problem(b); got != symbols.ProblemAmbiguousLookup.String() {
		t.Fatalf("k: %s", got)
	}
	want := []string{"A::k", "B::k"}
	got := f.qnames(f.u.Binding(b).Candidates)
	slices.Sort(got)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("candidates (-want +got):\n%s", diff)
	}
}

func TestQualifiedNamespaceMember(t *testing.T) {
	f := analyze(t, `
namespace outer { namespace inner { int deep; } }
namespace alias = outer::inner;
int a = outer::inner::deep;
int b = alias::deep;
int c = ::outer::inner::deep;
`)
	deep := f.ok("deep", 0)
	for i := 1; i <= 3; i++ {
		f.same(f.ok("deep", i), deep, "deep")
	}
	if got := f.kind(f.ok("alias", 1)); got != symbols.KindNamespaceAlias {
		t.Fatalf("alias resolves to %s", got)
	}
}

func TestMemberLookupThroughBases(t *testing.T) {
	f := analyze(t, `
struct A { int a; void m(); };
struct B : A { int b; };
void use(B& x) { x.a = 1; x.m(); }
`)
	f.same(f.ok("a", 1), f.ok("a", 0), "x.a")
	f.same(f.ok("m", 1), f.ok("m", 0), "x.m")
}

func TestAmbiguousBaseMember(t *testing.T) {
	f := analyze(t, `
struct L { int v; };
struct R { int v; };
struct D : L, R {};
void use(D& d) { d.v = 1; }
`)
	if got := f.problem(f.resolve("v", 2)); got != symbols.ProblemAmbiguousLookup.String() {
		t.Fatalf("d.v: %s", got)
	}
}

func TestVirtualDiamondIsNotAmbiguous(t *testing.T) {
	f := analyze(t, `
struct V { int v; };
struct L : virtual V {};
struct R : virtual V {};
struct D : L, R {};
void use(D& d) { d.v = 1; }
`)
	f.same(f.ok("v", 1), f.ok("v", 0), "d.v")
}

func TestTypeHidesBehindVariable(t *testing.T) {
	f := analyze(t, `
struct S {};
int S;
void use() { S = 1; struct S s; }
`)
	if got := f.kind(f.ok("S", 2)); got != symbols.KindVariable {
		t.Fatalf("S in expression: %s", got)
	}
	if got := f.kind(f.ok("S", 3)); got != symbols.KindClass {
		t.Fatalf("struct S: %s", got)
	}
}

func TestOutOfLineMemberDefinition(t *testing.T) {
	f := analyze(t, `
struct C {
	int get() const;
	int n;
};
int C::get() const { return n; }
`)
	get := f.ok("get", 0)
	f.same(f.ok("get", 1), get, "C::get definition")
	f.same(f.ok("n", 1), f.ok("n", 0), "n in member body")
	defs := f.u.DefinitionsInAST(get)
	if len(defs) != 1 || defs[0] != f.name("get", 1) {
		t.Fatalf("definitions of get: %v", defs)
	}
}

func TestMemberDeclarationNotFound(t *testing.T) {
	f := analyze(t, `
struct C { void f(); };
void C::g() {}
`)
	if got := f.problem(f.resolve("g", 0)); got != symbols.ProblemMemberDeclarationNotFound.String() {
		t.Fatalf("C::g: %s", got)
	}
}

func TestLabels(t *testing.T) {
	f := analyze(t, `
void f() {
	goto done;
	done: ;
	goto missing;
}
`)
	f.same(f.ok("done", 0), f.ok("done", 1), "goto target")
	if got := f.problem(f.resolve("missing", 0)); got != symbols.ProblemLabelNotFound.String() {
		t.Fatalf("missing label: %s", got)
	}
}

func TestCheckSuggestsSimilarName(t *testing.T) {
	f := analyze(t, `
int counter;
void f() { countr = 1; }
`)
	f.u.Check()
	var found *diag.Diagnostic
	for _, d := range f.bag.Items() {
		if d.Code == diag.SemaNameNotFound {
			found = &d
			break
		}
	}
	if found == nil {
		t.Fatalf("no NAME_NOT_FOUND diagnostic: %v", f.codes())
	}
	if len(found.Notes) == 0 || found.Notes[0].Msg != "did you mean 'counter'?" {
		t.Fatalf("notes: %+v", found.Notes)
	}
	if len(found.Fixes) != 1 || len(found.Fixes[0].Edits) != 1 || found.Fixes[0].Edits[0].NewText != "counter" {
		t.Fatalf("fixes: %+v", found.Fixes)
	}
	if got := f.fs.Text(found.Fixes[0].Edits[0].Span); got != "countr" {
		t.Fatalf("fix replaces %q", got)
	}
}

func TestCheckIsIdempotent(t *testing.T) {
	f := analyze(t, `void f() { unknown(); }`)
	f.u.Check()
	n := f.bag.Len()
	f.u.Check()
	if n == 0 || f.bag.Len() != n {
		t.Fatalf("diagnostics: first %d, after second check %d", n, f.bag.Len())
	}
}

func TestRecursionBindings(t *testing.T) {
	const src = `auto x = x;`
	f := analyze(t, src)
	f.same(f.resolve("x", 1), f.ok("x", 0), "x in its own initializer")

	cfg := sema.DefaultConfig()
	cfg.AllowRecursionBindings = false
	f = analyzeWith(t, src, cfg)
	if got := f.problem(f.resolve("x", 1)); got != symbols.ProblemRecursionInLookup.String() {
		t.Fatalf("recursion bindings disabled: %s", got)
	}
	if got := f.problem(f.resolve("x", 0)); got != "none" {
		t.Fatalf("declarator: %s", got)
	}
}

package sema_test

import (
	"testing"

	"cppsema/internal/symbols"
)

func TestOverloadByExactMatch(t *testing.T) {
	f := analyze(t, `
void f(int);
void f(double);
void f(char);
void use() { f(1); f(1.0); f('a'); }
`)
	fi, fd, fc := f.ok("f", 0), f.ok("f", 1), f.ok("f", 2)
	f.same(f.ok("f", 3), fi, "f(1)")
	f.same(f.ok("f", 4), fd, "f(1.0)")
	f.same(f.ok("f", 5), fc, "f('a')")
}

func TestPromotionBeatsConversion(t *testing.T) {
	f := analyze(t, `
void g(int);
void g(double);
void use(short s, float x) { g(s); g(x); }
`)
	f.same(f.ok("g", 2), f.ok("g", 0), "g(short)")
	f.same(f.ok("g", 3), f.ok("g", 1), "g(float)")
}

func TestAmbiguousConversions(t *testing.T) {
	f := analyze(t, `
void h(int);
void h(double);
void use(long v) { h(v); }
`)
	b := f.resolve("h", 2)
	if got := f.problem(b); got != symbols.ProblemAmbiguousLookup.String() {
		t.Fatalf("h(long): %s", got)
	}
	if n := len(f.u.Binding(b).Candidates); n != 2 {
		t.Fatalf("candidates: %d", n)
	}
}

func TestNoViableCandidate(t *testing.T) {
	f := analyze(t, `
struct S {};
void k(int);
void use(S s) { k(s); }
`)
	if got := f.problem(f.resolve("k", 1)); got != symbols.ProblemInvalidOverload.String() {
		t.Fatalf("k(S): %s", got)
	}
}

func TestReferenceBindingPrefersConst(t *testing.T) {
	f := analyze(t, `
void r(int&);
void r(const int&);
void use(const int c, int m) { r(c); r(m); }
`)
	f.same(f.ok("r", 2), f.ok("r", 1), "r(const int)")
	f.same(f.ok("r", 3), f.ok("r", 0), "r(int)")
}

func TestDefaultArguments(t *testing.T) {
	f := analyze(t, `
void d(int a, int b = 2);
void d(double a);
void use() { d(1); d(1, 2); }
`)
	first := f.ok("d", 0)
	f.same(f.ok("d", 2), first, "d(1)")
	f.same(f.ok("d", 3), first, "d(1, 2)")
}

func TestUserConversionThroughConstructor(t *testing.T) {
	f := analyze(t, `
struct W { W(int); };
struct E { explicit E(int); };
void take(W);
void keep(E);
void use() { take(3); keep(3); }
`)
	f.same(f.ok("take", 1), f.ok("take", 0), "take(3)")
	if got := f.problem(f.resolve("keep", 1)); got != symbols.ProblemInvalidOverload.String() {
		t.Fatalf("keep(3) through an explicit constructor: %s", got)
	}
}

func TestConstMemberOverload(t *testing.T) {
	f := analyze(t, `
struct C {
	int get();
	int get() const;
};
void use(C& m, const C& c) { m.get(); c.get(); }
`)
	f.same(f.ok("get", 2), f.ok("get", 0), "m.get()")
	f.same(f.ok("get", 3), f.ok("get", 1), "c.get()")
}

func TestArgumentDependentLookup(t *testing.T) {
	f := analyze(t, `
namespace ns {
	struct T {};
	void visit(T);
}
void use() { ns::T t; visit(t); }
`)
	f.same(f.ok("visit", 1), f.ok("visit", 0), "visit(t)")
}

func TestOperatorOverload(t *testing.T) {
	f := analyze(t, `
struct V {};
V operator+(V, V);
void use(V a, V b) { a + b; }
`)
	plus := f.ok("operator+", 0)
	var implicit []symbols.BindingID
	for _, id := range f.u.Names() {
		if f.b.Name(id).Implicit {
			implicit = append(implicit, f.u.Resolve(id))
		}
	}
	found := false
	for _, b := range implicit {
		found = found || b == plus
	}
	if !found {
		t.Fatalf("operator+ not among implicit names: %v", f.qnames(implicit))
	}
}

const initListPrelude = `
namespace std { template<class T> class initializer_list {}; }
`

func TestListInitialization(t *testing.T) {
	tests := []struct {
		name string
		src  string
		// ctor is the occurrence of the class name declaring the chosen
		// constructor; it is ignored when problem is set.
		ctor    int
		problem symbols.ProblemCode
	}{
		{
			name:    "narrowing argument",
			src:     "struct S { S(char); };\ndouble d;\nS s{d};",
			problem: symbols.ProblemNarrowingConversion,
		},
		{
			name: "constant that fits",
			src:  "struct S { S(char); };\nS s{65};",
			ctor: 1,
		},
		{
			name: "parentheses do not check narrowing",
			src:  "struct S { S(char); };\ndouble d;\nS s(d);",
			ctor: 1,
		},
		{
			name: "initializer_list constructor preferred",
			src:  initListPrelude + "struct S { S(std::initializer_list<int>); S(double); };\nS s{1};",
			ctor: 1,
		},
		{
			name: "narrowing falls back to other constructors",
			src:  initListPrelude + "struct S { S(std::initializer_list<int>); S(double); };\nS s{1.5};",
			ctor: 2,
		},
		{
			name:    "no fallback without another constructor",
			src:     initListPrelude + "struct S { S(std::initializer_list<int>); };\ndouble d;\nS s{d};",
			problem: symbols.ProblemInvalidOverload,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := analyze(t, tt.src)
			got := f.constructed("s")
			if tt.problem != symbols.ProblemNone {
				if p := f.problem(got); p != tt.problem.String() {
					t.Fatalf("got %s, want %s", p, tt.problem)
				}
				return
			}
			f.same(got, f.ok("S", tt.ctor), "constructor")
		})
	}
}

func TestConstObjectsRejectNonConstReference(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"const parameter", "void r(int&);\nvoid use(const int c) { r(c); }", symbols.ProblemInvalidOverload.String()},
		{"const local", "void r(int&);\nvoid use() { const int l = 1; r(l); }", symbols.ProblemInvalidOverload.String()},
		{"const parameter to const reference", "void r(const int&);\nvoid use(const int c) { r(c); }", "none"},
		{"plain parameter", "void r(int&);\nvoid use(int m) { r(m); }", "none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := analyze(t, tt.src)
			if got := f.problem(f.resolve("r", 1)); got != tt.want {
				t.Fatalf("r: got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestOverloadedNameAsArgument(t *testing.T) {
	f := analyze(t, `
void h(int);
void h(double);
void take(void (*)(double));
void use() { take(h); take(&h); }
`)
	hd := f.ok("h", 1)
	f.same(f.ok("take", 1), f.ok("take", 0), "take(h)")
	f.same(f.ok("h", 2), hd, "h passed as void(*)(double)")
	f.same(f.ok("h", 3), hd, "&h passed as void(*)(double)")
}

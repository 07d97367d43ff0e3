package sema_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cppsema/internal/sema"
	"cppsema/internal/symbols"
)

// signatures renders members as "Q::name/params".
func (f *fixture) signatures(ids []symbols.BindingID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = fmt.Sprintf("%s/%d", f.qname(id), len(f.u.Binding(id).Params))
	}
	return out
}

func TestMethodsOrder(t *testing.T) {
	f := analyze(t, `
struct A { void fa(); ~A(); };
struct B : A { void fb(); ~B(); };
`)
	b := f.ok("B", 0)
	want := []string{
		"B::fb/0", "B::~B/0",
		"B::B/0", "B::B/1", "B::operator=/1",
		"A::fa/0", "A::~A/0",
		"A::A/0", "A::A/1", "A::operator=/1",
	}
	if diff := cmp.Diff(want, f.signatures(f.u.Methods(b))); diff != "" {
		t.Fatalf("Methods (-want +got):\n%s", diff)
	}
	wantDeclared := []string{"B::fb/0", "B::~B/0"}
	if diff := cmp.Diff(wantDeclared, f.signatures(f.u.DeclaredMethods(b))); diff != "" {
		t.Fatalf("DeclaredMethods (-want +got):\n%s", diff)
	}
	wantAll := []string{"B::fb/0", "B::~B/0", "A::fa/0", "A::~A/0"}
	if diff := cmp.Diff(wantAll, f.signatures(f.u.AllDeclaredMethods(b))); diff != "" {
		t.Fatalf("AllDeclaredMethods (-want +got):\n%s", diff)
	}
}

func TestImplicitMembersOfPlainClass(t *testing.T) {
	f := analyze(t, `struct P { int v; };`)
	want := []string{"P::P/0", "P::P/1", "P::operator=/1", "P::~P/0", "P::P/1", "P::operator=/1"}
	if diff := cmp.Diff(want, f.signatures(f.u.Methods(f.ok("P", 0)))); diff != "" {
		t.Fatalf("Methods (-want +got):\n%s", diff)
	}
	if n := len(f.u.Constructors(f.ok("P", 0))); n != 3 {
		t.Fatalf("constructors: %d", n)
	}
}

func TestFieldsOrder(t *testing.T) {
	f := analyze(t, `
struct A { int a1; static int as; int a2; };
struct B : A { int b1; };
`)
	b := f.ok("B", 0)
	if diff := cmp.Diff([]string{"B::b1"}, f.qnames(f.u.DeclaredFields(b))); diff != "" {
		t.Fatalf("DeclaredFields (-want +got):\n%s", diff)
	}
	want := []string{"B::b1", "A::a1", "A::as", "A::a2"}
	if diff := cmp.Diff(want, f.qnames(f.u.Fields(b))); diff != "" {
		t.Fatalf("Fields (-want +got):\n%s", diff)
	}
}

func TestVisibilityFriendsAndBases(t *testing.T) {
	f := analyze(t, `
void helper();
class Base {};
class C : public virtual Base {
	int hidden;
protected:
	int shared;
public:
	int open;
	friend void helper();
};
`)
	c := f.ok("C", 0)
	want := map[string]symbols.Visibility{
		"hidden": symbols.VisPrivate,
		"shared": symbols.VisProtected,
		"open":   symbols.VisPublic,
	}
	for name, v := range want {
		if got := f.u.Visibility(f.ok(name, 0)); got != v {
			t.Errorf("%s: %s, want %s", name, got, v)
		}
	}
	friends := f.u.Friends(c)
	if len(friends) != 1 || f.qname(friends[0]) != "helper" {
		t.Fatalf("friends: %v", f.qnames(friends))
	}
	bases := f.u.Bases(c)
	if len(bases) != 1 || bases[0].Class != f.ok("Base", 0) || !bases[0].Virtual || bases[0].Visibility != symbols.VisPublic {
		t.Fatalf("bases: %+v", bases)
	}
}

func TestNamesIncludeImplicitNames(t *testing.T) {
	f := analyze(t, `
struct S { S(int); };
S s(1);
`)
	var got []string
	for _, id := range f.u.Names() {
		nm := f.b.Name(id)
		mark := ""
		if nm.Implicit {
			mark = "*"
		}
		got = append(got, fmt.Sprintf("%s%s:%s", f.b.Spelling(id), mark, f.u.RoleOf(id)))
	}
	want := []string{"S:def", "S:decl", "S:ref", "S*:ref", "s:def"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
	ctor := f.ok("S", 1)
	refs := f.u.References(ctor)
	if len(refs) != 1 || !f.b.Name(refs[0]).Implicit {
		t.Fatalf("references of S(int): %v", refs)
	}
	decl := f.b.Owner(f.name("s", 0))
	implicit := f.u.ImplicitNames(decl)
	if len(implicit) != 1 || f.u.Resolve(implicit[0]) != ctor {
		t.Fatalf("implicit names of s: %v", implicit)
	}
}

func TestDeclarationsAndDefinitions(t *testing.T) {
	f := analyze(t, `
void g();
void g();
void g() {}
namespace N { void u(int); }
using N::u;
`)
	g := f.ok("g", 0)
	if n := len(f.u.DeclarationsInAST(g)); n != 3 {
		t.Fatalf("declarations of g: %d", n)
	}
	defs := f.u.DefinitionsInAST(g)
	if len(defs) != 1 || defs[0] != f.name("g", 2) {
		t.Fatalf("definitions of g: %v", defs)
	}
	u := f.ok("u", 0)
	decls := f.u.DeclarationsInAST(u)
	if len(decls) != 2 || decls[1] != f.name("u", 1) {
		t.Fatalf("declarations of N::u: %v", decls)
	}
}

func TestQualifiedNames(t *testing.T) {
	f := analyze(t, `
namespace outer { namespace inner { struct K { int m; }; } }
void f() { int local; }
`)
	if got := f.u.QualifiedName(f.ok("m", 0)); strings.Join(got, "::") != "outer::inner::K::m" {
		t.Fatalf("qualified name of m: %v", got)
	}
	local := f.ok("local", 0)
	if f.u.IsGloballyQualified(local) {
		t.Fatalf("a local variable is globally qualified")
	}
	if got := f.u.Scope(local); got == f.u.Table().Global {
		t.Fatalf("local declared in the global scope")
	}
}

func TestExpressionQueries(t *testing.T) {
	f := analyze(t, `
int x;
int a1 = x;
int a2 = x + 1;
int&& a3 = static_cast<int&&>(x);
`)
	cases := []struct {
		name string
		cat  sema.Category
		typ  string
	}{
		{"a1", sema.LValue, "int"},
		{"a2", sema.PRValue, "int"},
		{"a3", sema.XValue, "int"},
	}
	for _, c := range cases {
		node := f.initOf(c.name)
		if got := f.u.ValueCategory(node); got != c.cat {
			t.Errorf("%s: category %s, want %s", c.name, got, c.cat)
		}
		if got := f.typeString(f.u.ExprType(node)); got != c.typ {
			t.Errorf("%s: type %s, want %s", c.name, got, c.typ)
		}
	}
	if got := f.u.ExprType(f.b.Owner(f.name("a1", 0))); got.IsValid() {
		t.Fatalf("a declarator has an expression type")
	}
}

func TestOverloadedNameSettledByTarget(t *testing.T) {
	f := analyze(t, `
void h(int);
void h(double);
void (*ptr)(double) = h;
`)
	f.same(f.ok("h", 2), f.ok("h", 1), "h converted to void(*)(double)")
}

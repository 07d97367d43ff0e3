package symbols

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"cppsema/internal/ast"
	"cppsema/internal/source"
)

type fixture struct {
	t   *testing.T
	tab *Table
}

func newFixture(t *testing.T) *fixture {
	return &fixture{t: t, tab: NewTable(Hints{}, nil)}
}

func (f *fixture) name(s string) source.StringID {
	return f.tab.Strings.Intern(s)
}

func (f *fixture) declare(scope ScopeID, kind Kind, name string, pos uint32) BindingID {
	id := f.tab.NewBinding(Binding{Kind: kind, Name: f.name(name), Scope: scope})
	f.tab.Declare(scope, f.name(name), id, pos, false)
	return id
}

func (f *fixture) namespace(parent ScopeID, name string, pos uint32) ScopeID {
	id := f.declare(parent, KindNamespace, name, pos)
	scope := f.tab.NewScope(ScopeNamespace, parent, id, ast.NoNodeID, source.Span{})
	f.tab.Binding(id).Inner = scope
	return scope
}

func TestGlobalScopeExists(t *testing.T) {
	tab := NewTable(Hints{}, nil)
	if !tab.Global.IsValid() || tab.Scope(tab.Global).Kind != ScopeGlobal {
		t.Fatalf("expected a global scope")
	}
	if err := tab.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestDeclareKeepsInsertionOrder(t *testing.T) {
	f := newFixture(t)
	g := f.tab.Global
	a := f.declare(g, KindFunction, "f", 1)
	b := f.declare(g, KindFunction, "f", 5)
	f.declare(g, KindVariable, "x", 9)
	got := f.tab.Local(g, f.name("f"), Query{})
	if diff := cmp.Diff([]BindingID{a, b}, got); diff != "" {
		t.Fatalf("overloads (-want +got):\n%s", diff)
	}
	want := []source.StringID{f.name("f"), f.name("x")}
	if diff := cmp.Diff(want, f.tab.Scope(g).Order); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}
	// redeclaring the same binding does not duplicate the entry
	f.tab.Declare(g, f.name("f"), a, 20, false)
	if n := len(f.tab.Local(g, f.name("f"), Query{})); n != 2 {
		t.Fatalf("entries = %d, want 2", n)
	}
}

func TestPointOfDeclarationFiltersOrderedScopes(t *testing.T) {
	f := newFixture(t)
	g := f.tab.Global
	f.declare(g, KindVariable, "late", 50)
	if got, _ := f.tab.Lookup(g, f.name("late"), Query{Pos: 10}); len(got) != 0 {
		t.Fatalf("declaration after the reference must be invisible")
	}
	if got, _ := f.tab.Lookup(g, f.name("late"), Query{Pos: 60}); len(got) != 1 {
		t.Fatalf("declaration before the reference must be visible")
	}

	cls := f.tab.NewScope(ScopeClass, g, NoBindingID, ast.NoNodeID, source.Span{})
	f.declare(cls, KindField, "m", 80)
	if got, _ := f.tab.Lookup(cls, f.name("m"), Query{Pos: 70}); len(got) != 1 {
		t.Fatalf("class scopes are complete")
	}
}

func TestInnermostScopeHides(t *testing.T) {
	f := newFixture(t)
	g := f.tab.Global
	outer := f.declare(g, KindClass, "A", 1)
	block := f.tab.NewScope(ScopeBlock, g, NoBindingID, ast.NoNodeID, source.Span{})
	inner := f.declare(block, KindVariable, "A", 10)
	got, where := f.tab.Lookup(block, f.name("A"), Query{Pos: 20})
	if diff := cmp.Diff([]BindingID{inner}, got); diff != "" || where != block {
		t.Fatalf("lookup (-want +got):\n%s (scope %d)", diff, where)
	}
	got, _ = f.tab.Lookup(block, f.name("A"), Query{Pos: 20, Mask: MaskTypes})
	if diff := cmp.Diff([]BindingID{outer}, got); diff != "" {
		t.Fatalf("type-only lookup (-want +got):\n%s", diff)
	}
}

func TestCyclicUsingDirectivesTerminate(t *testing.T) {
	f := newFixture(t)
	g := f.tab.Global
	a := f.namespace(g, "A", 1)
	b := f.namespace(g, "B", 2)
	x := f.declare(b, KindVariable, "x", 3)
	f.tab.AddUsing(a, b, 4)
	f.tab.AddUsing(b, a, 5)
	f.tab.AddUsing(g, a, 6)
	got, _ := f.tab.Lookup(g, f.name("x"), Query{Pos: 10})
	if diff := cmp.Diff([]BindingID{x}, got); diff != "" {
		t.Fatalf("lookup through using (-want +got):\n%s", diff)
	}
	if got, _ := f.tab.Lookup(g, f.name("missing"), Query{Pos: 10}); got != nil {
		t.Fatalf("missing name found: %v", got)
	}
	if got := f.tab.LookupIn(a, f.name("x"), Query{}); len(got) != 1 || got[0] != x {
		t.Fatalf("qualified lookup through using = %v", got)
	}
}

func TestUsingDirectiveRespectsPosition(t *testing.T) {
	f := newFixture(t)
	g := f.tab.Global
	n := f.namespace(g, "N", 1)
	f.declare(n, KindVariable, "v", 2)
	f.tab.AddUsing(g, n, 30)
	if got, _ := f.tab.Lookup(g, f.name("v"), Query{Pos: 20}); len(got) != 0 {
		t.Fatalf("using-directive not yet in effect")
	}
	if got, _ := f.tab.Lookup(g, f.name("v"), Query{Pos: 40}); len(got) != 1 {
		t.Fatalf("using-directive should make v visible")
	}
}

func TestInlineNamespaceQualifiedLookup(t *testing.T) {
	f := newFixture(t)
	g := f.tab.Global
	outer := f.namespace(g, "std", 1)
	v1 := f.namespace(outer, "v1", 2)
	f.tab.AddInline(outer, v1)
	s := f.declare(v1, KindClass, "string", 3)
	got := f.tab.LookupIn(outer, f.name("string"), Query{})
	if diff := cmp.Diff([]BindingID{s}, got); diff != "" {
		t.Fatalf("inline member (-want +got):\n%s", diff)
	}
}

func TestHiddenFriendEntries(t *testing.T) {
	f := newFixture(t)
	g := f.tab.Global
	id := f.tab.NewBinding(Binding{Kind: KindFunction, Name: f.name("swap"), Scope: g})
	f.tab.Declare(g, f.name("swap"), id, 5, true)
	if got, _ := f.tab.Lookup(g, f.name("swap"), Query{Pos: 10}); len(got) != 0 {
		t.Fatalf("friend declarations are hidden from ordinary lookup")
	}
	if got, _ := f.tab.Lookup(g, f.name("swap"), Query{Pos: 10, Hidden: true}); len(got) != 1 {
		t.Fatalf("hidden lookup should see the friend")
	}
	f.tab.Declare(g, f.name("swap"), id, 7, false)
	if got, _ := f.tab.Lookup(g, f.name("swap"), Query{Pos: 10}); len(got) != 1 {
		t.Fatalf("a later declaration makes the friend visible")
	}
}

func TestLabelsStayOutOfOrdinaryLookup(t *testing.T) {
	f := newFixture(t)
	fn := f.tab.NewScope(ScopeFunction, f.tab.Global, NoBindingID, ast.NoNodeID, source.Span{})
	lbl := f.declare(fn, KindLabel, "out", 3)
	if got := f.tab.Local(fn, f.name("out"), Query{}); len(got) != 0 {
		t.Fatalf("labels found by ordinary lookup")
	}
	if got := f.tab.Local(fn, f.name("out"), Query{Mask: MaskLabels}); len(got) != 1 || got[0] != lbl {
		t.Fatalf("label lookup = %v", got)
	}
}

func TestQualifiedName(t *testing.T) {
	f := newFixture(t)
	g := f.tab.Global
	n := f.namespace(g, "N", 1)
	cid := f.declare(n, KindClass, "C", 2)
	cls := f.tab.NewScope(ScopeClass, n, cid, ast.NoNodeID, source.Span{})
	f.tab.Binding(cid).Inner = cls
	m := f.declare(cls, KindMethod, "m", 3)
	if diff := cmp.Diff([]string{"N", "C", "m"}, f.tab.QualifiedName(m)); diff != "" {
		t.Fatalf("qualified name (-want +got):\n%s", diff)
	}
	if !f.tab.IsGloballyQualified(m) {
		t.Fatalf("namespace members are globally qualified")
	}
	block := f.tab.NewScope(ScopeBlock, g, NoBindingID, ast.NoNodeID, source.Span{})
	local := f.declare(block, KindVariable, "l", 9)
	if f.tab.IsGloballyQualified(local) {
		t.Fatalf("locals are not globally qualified")
	}
	if err := f.tab.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestBindingFlagAccessors(t *testing.T) {
	b := &Binding{Kind: KindFunction, Flags: FlagDeleted | FlagStatic}
	if !b.IsDeleted() || !b.IsStatic() || b.IsDefaulted() {
		t.Fatalf("flags: %v", b.Flags)
	}
	var none *Binding
	if none.Has(FlagStatic) {
		t.Fatal("nil binding reports a flag")
	}
}

package parser_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"cppsema/internal/ast"
	"cppsema/internal/diag"
	"cppsema/internal/parser"
	"cppsema/internal/source"
)

type parsed struct {
	b    *ast.Builder
	root ast.NodeID
	bag  *diag.Bag
}

func parse(t *testing.T, src string) parsed {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.cpp", []byte(src))
	b := ast.NewBuilder(ast.Hints{}, nil)
	bag := diag.NewBag(0)
	res := parser.ParseFile(fs, id, b, parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	return parsed{b: b, root: res.Root, bag: bag}
}

func parseOK(t *testing.T, src string) parsed {
	t.Helper()
	p := parse(t, src)
	if p.bag.HasErrors() {
		for _, d := range p.bag.Items() {
			t.Errorf("%s: %s", d.Code.ID(), d.Message)
		}
		t.FailNow()
	}
	return p
}

// names renders every name under root as "spelling:role".
func (p parsed) names() []string {
	var out []string
	for _, id := range p.b.CollectNames(p.root) {
		out = append(out, fmt.Sprintf("%s:%s", p.b.Spelling(id), p.b.Name(id).Role))
	}
	return out
}

func (p parsed) kid(id ast.NodeID, path ...int) ast.NodeID {
	for _, i := range path {
		n := p.b.Node(id)
		if i >= len(n.Kids) {
			return ast.NoNodeID
		}
		id = n.Kids[i]
	}
	return id
}

func (p parsed) kinds(id ast.NodeID) []ast.NodeKind {
	var out []ast.NodeKind
	for _, k := range p.b.Node(id).Kids {
		out = append(out, p.b.Node(k).Kind)
	}
	return out
}

func TestDeclarationRoles(t *testing.T) {
	p := parseOK(t, `
int x = 1;
extern int y;
int f(int a);
int g() { return 0; }
typedef int T;
`)
	want := []string{"x:def", "y:decl", "f:decl", "a:def", "g:def", "T:def"}
	if diff := cmp.Diff(want, p.names()); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
}

func TestClassMembersAndOutOfLineDefinitions(t *testing.T) {
	p := parseOK(t, `
struct A {
  A(int v);
  int get() const;
  static int count;
};
A::A(int v) {}
int A::get() const { return 0; }
`)
	want := []string{
		"A:def", "A:decl", "v:def", "get:decl", "count:decl",
		"A::A:def", "A:ref", "A:def", "v:def",
		"A::get:def", "A:ref", "get:def",
	}
	if diff := cmp.Diff(want, p.names()); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
	tu := p.b.Node(p.root)
	if got := p.b.Node(tu.Kids[1]).Kind; got != ast.NodeFunctionDef {
		t.Fatalf("A::A definition parsed as %s", got)
	}
}

func TestNameLedStatementsAreAmbiguous(t *testing.T) {
	p := parseOK(t, `void h() { A * b; f(x); }`)
	body := p.b.FunctionDef(p.kid(p.root, 0)).Body
	want := []ast.NodeKind{ast.NodeAmbiguousStatement, ast.NodeAmbiguousStatement}
	if diff := cmp.Diff(want, p.kinds(body)); diff != "" {
		t.Fatalf("body kinds (-want +got):\n%s", diff)
	}
	for _, stmt := range p.b.Node(body).Kids {
		alts := []ast.NodeKind{ast.NodeDeclStmt, ast.NodeExprStmt}
		if diff := cmp.Diff(alts, p.kinds(stmt)); diff != "" {
			t.Errorf("alternatives (-want +got):\n%s", diff)
		}
	}
}

func TestKeywordLedStatementIsDeclaration(t *testing.T) {
	p := parseOK(t, `void h() { int n = 2; n = n * 3; }`)
	body := p.b.FunctionDef(p.kid(p.root, 0)).Body
	want := []ast.NodeKind{ast.NodeDeclStmt, ast.NodeExprStmt}
	if diff := cmp.Diff(want, p.kinds(body)); diff != "" {
		t.Fatalf("body kinds (-want +got):\n%s", diff)
	}
}

func TestMostVexingParse(t *testing.T) {
	p := parseOK(t, `int x(y);`)
	amb := p.kid(p.root, 0)
	if got := p.b.Node(amb).Kind; got != ast.NodeAmbiguousStatement {
		t.Fatalf("got %s, want AmbiguousStatement", got)
	}
	fn := p.b.Declarator(p.kid(amb, 0, 1))
	obj := p.b.Declarator(p.kid(amb, 1, 1))
	if fn == nil || fn.Function(p.b) == nil {
		t.Fatalf("first alternative should declare a function")
	}
	if obj == nil || obj.Function(p.b) != nil || !obj.Init.IsValid() {
		t.Fatalf("second alternative should declare a variable with an initializer")
	}
}

func TestEmptyParensDeclareFunction(t *testing.T) {
	p := parseOK(t, `int x();`)
	decl := p.kid(p.root, 0)
	if got := p.b.Node(decl).Kind; got != ast.NodeSimpleDecl {
		t.Fatalf("got %s, want SimpleDecl", got)
	}
	if p.b.Declarator(p.kid(decl, 1)).Function(p.b) == nil {
		t.Fatalf("int x(); should declare a function")
	}
}

func TestTemplateIDClosesWithShiftToken(t *testing.T) {
	p := parseOK(t, `
template<class T> struct V {};
V<V<int>> v;
`)
	var ids []string
	for _, id := range p.b.CollectNames(p.root) {
		if p.b.Name(id).Kind == ast.NameTemplateID {
			ids = append(ids, p.b.Spelling(id))
		}
	}
	if len(ids) == 0 || ids[0] != "V<V<int>>" {
		t.Fatalf("template-ids = %v", ids)
	}
	found := false
	for _, s := range ids {
		if s == "V<int>" {
			found = true
		}
	}
	if !found {
		t.Fatalf("inner template-id missing from %v", ids)
	}
}

func TestShiftOutsideTemplateArgsStaysOperator(t *testing.T) {
	p := parseOK(t, `int z = 8 >> 1;`)
	init := p.b.Declarator(p.kid(p.root, 0, 1)).Init
	expr := p.b.Node(p.kid(init, 0))
	if expr.Kind != ast.NodeBinary || expr.Op.String() != ">>" {
		t.Fatalf("got %s %s, want Binary >>", expr.Kind, expr.Op)
	}
}

func TestParenthesizedNameBeforeStarIsAmbiguous(t *testing.T) {
	p := parseOK(t, `void h() { (T)*p; }`)
	body := p.b.FunctionDef(p.kid(p.root, 0)).Body
	stmt := p.kid(body, 0)
	if got := p.b.Node(stmt).Kind; got != ast.NodeExprStmt {
		t.Fatalf("got %s, want ExprStmt", got)
	}
	amb := p.kid(stmt, 0)
	want := []ast.NodeKind{ast.NodeCast, ast.NodeBinary}
	if diff := cmp.Diff(want, p.kinds(amb)); diff != "" {
		t.Fatalf("alternatives (-want +got):\n%s", diff)
	}
}

func TestKeywordCastIsNotAmbiguous(t *testing.T) {
	p := parseOK(t, `void h() { (int)*p; }`)
	body := p.b.FunctionDef(p.kid(p.root, 0)).Body
	if p.b.HasAmbiguity(body) {
		t.Fatalf("(int)*p should parse only as a cast")
	}
	if got := p.b.Node(p.kid(body, 0, 0)).Kind; got != ast.NodeCast {
		t.Fatalf("got %s, want Cast", got)
	}
}

func TestCollectNamesOrder(t *testing.T) {
	p := parseOK(t, `namespace N { int v; } int w = N::v;`)
	want := []string{"N:def", "v:def", "w:def", "N::v:ref", "N:ref", "v:ref"}
	if diff := cmp.Diff(want, p.names()); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
}

func TestLambdaAndNew(t *testing.T) {
	p := parseOK(t, `
void h() {
  auto f = [&, n](int a) mutable { return a + n; };
  int *q = new int[4];
  delete[] q;
}
`)
	var kinds []ast.NodeKind
	p.b.Walk(p.root, func(_ ast.NodeID, n *ast.Node) bool {
		switch n.Kind {
		case ast.NodeLambda, ast.NodeCapture, ast.NodeNew, ast.NodeDelete:
			kinds = append(kinds, n.Kind)
		}
		return true
	})
	want := []ast.NodeKind{ast.NodeLambda, ast.NodeCapture, ast.NodeNew, ast.NodeDelete}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("kinds (-want +got):\n%s", diff)
	}
}

func TestSyntaxErrorInsideMacroPointsAtDefinition(t *testing.T) {
	p := parse(t, "#define BAD )\nint x = BAD;\n")
	items := p.bag.Items()
	if len(items) == 0 {
		t.Fatalf("expected a syntax error")
	}
	d := items[0]
	if d.Code != diag.SynExpectExpression {
		t.Fatalf("code = %s, want %s", d.Code.ID(), diag.SynExpectExpression.ID())
	}
	if len(d.Notes) != 1 || !strings.Contains(d.Notes[0].Msg, "BAD") {
		t.Fatalf("notes = %+v", d.Notes)
	}
}

func TestRecoversAfterBadDeclaration(t *testing.T) {
	p := parse(t, "int = 3;\nint ok;\n")
	if !p.bag.HasErrors() {
		t.Fatalf("expected an error")
	}
	found := false
	p.b.Inspect(p.root, "ok", func(id ast.NameID) {
		found = p.b.Name(id).Role == ast.RoleDefinition
	})
	if !found {
		t.Fatalf("declaration after the error was not parsed")
	}
}

func TestDump(t *testing.T) {
	p := parseOK(t, `int x;`)
	var sb strings.Builder
	if err := p.b.Dump(&sb, p.root); err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	for _, want := range []string{"TranslationUnit", "SimpleDecl", `Name "x" def`} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}

// parseWithin fails the test when parsing src does not finish in time.
func parseWithin(t *testing.T, src string, limit time.Duration) parsed {
	t.Helper()
	done := make(chan parsed, 1)
	go func() { done <- parse(t, src) }()
	select {
	case p := <-done:
		return p
	case <-time.After(limit):
		t.Fatalf("parser did not finish on %q", src)
	}
	return parsed{}
}

func TestRecoveryAlwaysMakesProgress(t *testing.T) {
	for _, src := range []string{
		"int x = );",
		")",
		"] int y;",
		"struct S { ) };",
		"struct S { int f(); ] };",
		"namespace n { ) }",
		"extern \"C\" { ) }",
		"void f() { ) }",
		"template<class T> struct S { ) };",
	} {
		p := parseWithin(t, src, 2*time.Second)
		if !p.bag.HasErrors() {
			t.Errorf("%q: expected a syntax error", src)
		}
	}
}

func TestConstructorOverloadsInClassBody(t *testing.T) {
	src := `
namespace std { template<class T> class initializer_list {}; }
struct A { A(std::initializer_list<int>); A(double); };
struct B { B(double); B(std::initializer_list<int>); int v; };
`
	p := parseWithin(t, src, 2*time.Second)
	for _, d := range p.bag.Items() {
		t.Errorf("%s: %s", d.Code.ID(), d.Message)
	}
	decls := map[string]int{}
	for _, n := range p.names() {
		decls[n]++
	}
	if decls["A:decl"] != 2 || decls["B:decl"] != 2 {
		t.Fatalf("constructor declarations: %v", p.names())
	}
}

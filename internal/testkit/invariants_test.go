package testkit

import (
	"strings"
	"testing"

	"cppsema/internal/ast"
	"cppsema/internal/diag"
	"cppsema/internal/parser"
	"cppsema/internal/source"
)

func TestParsedTreeHoldsInvariants(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("t.cpp", []byte("#define N 3\nnamespace n { int a[N]; struct S { S(); int f() const; }; }\nint g() { return n::a[0]; }\n"))
	b := ast.NewBuilder(ast.Hints{}, nil)
	res := parser.ParseFile(fs, id, b, parser.Options{Reporter: diag.BagReporter{Bag: diag.NewBag(0)}, Expansions: fs.Expansions(id)})
	if err := CheckSpanInvariants(b, res.Root, fs.Get(id)); err != nil {
		t.Fatal(err)
	}
}

func TestBrokenSpanIsReported(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("t.cpp", []byte("int x;"))
	b := ast.NewBuilder(ast.Hints{}, nil)
	root := b.NewNode(ast.NodeTranslationUnit, source.Span{File: id, Start: 0, End: 6})
	bad := b.NewNode(ast.NodeTranslationUnit, source.Span{File: id, Start: 2, End: 40})
	b.AddKid(root, bad)
	err := CheckSpanInvariants(b, root, fs.Get(id))
	if err == nil || !strings.Contains(err.Error(), "beyond content") {
		t.Fatalf("err = %v", err)
	}
}

package sema_test

import (
	"strings"
	"testing"

	"cppsema/internal/ast"
	"cppsema/internal/diag"
	"cppsema/internal/parser"
	"cppsema/internal/sema"
	"cppsema/internal/source"
	"cppsema/internal/symbols"
	"cppsema/internal/types"
)

type fixture struct {
	t   *testing.T
	b   *ast.Builder
	u   *sema.Unit
	bag *diag.Bag
	fs  *source.FileSet
}

func analyze(t *testing.T, src string) *fixture {
	t.Helper()
	return analyzeWith(t, src, sema.DefaultConfig())
}

func analyzeWith(t *testing.T, src string, cfg sema.Config) *fixture {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.cpp", []byte(src))
	b := ast.NewBuilder(ast.Hints{}, nil)
	bag := diag.NewBag(0)
	res := parser.ParseFile(fs, id, b, parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	if bag.HasErrors() {
		for _, d := range bag.Items() {
			t.Errorf("%s: %s", d.Code.ID(), d.Message)
		}
		t.FailNow()
	}
	u := sema.Analyze(b, res.Root, sema.Options{
		Reporter: diag.BagReporter{Bag: bag},
		Config:   cfg,
	})
	return &fixture{t: t, b: b, u: u, bag: bag, fs: fs}
}

// names returns the written occurrences of spelling in preorder.
func (f *fixture) names(spelling string) []ast.NameID {
	var out []ast.NameID
	for _, id := range f.u.Names() {
		if nm := f.b.Name(id); !nm.Implicit && f.b.Spelling(id) == spelling {
			out = append(out, id)
		}
	}
	return out
}

// name returns the i-th written occurrence of spelling.
func (f *fixture) name(spelling string, i int) ast.NameID {
	f.t.Helper()
	all := f.names(spelling)
	if i >= len(all) {
		f.t.Fatalf("occurrence %d of %q not found (%d present)", i, spelling, len(all))
	}
	return all[i]
}

// resolve resolves the i-th occurrence of spelling.
func (f *fixture) resolve(spelling string, i int) symbols.BindingID {
	f.t.Helper()
	return f.u.Resolve(f.name(spelling, i))
}

// ok resolves the i-th occurrence of spelling and fails on a problem.
func (f *fixture) ok(spelling string, i int) symbols.BindingID {
	f.t.Helper()
	b := f.resolve(spelling, i)
	if bb := f.u.Binding(b); bb == nil || bb.IsProblem() {
		f.t.Fatalf("%q #%d: unexpected problem %s", spelling, i, f.problem(b))
	}
	return b
}

// problem returns the problem code of b, or "none".
func (f *fixture) problem(b symbols.BindingID) string {
	bb := f.u.Binding(b)
	if bb == nil || !bb.IsProblem() {
		return "none"
	}
	return bb.Problem.String()
}

func (f *fixture) kind(b symbols.BindingID) symbols.Kind {
	return f.u.Binding(b).Kind
}

func (f *fixture) qname(b symbols.BindingID) string {
	return strings.Join(f.u.QualifiedName(b), "::")
}

func (f *fixture) typeString(t types.TypeID) string {
	return f.u.FormatType(t)
}

// qnames renders bindings by qualified name.
func (f *fixture) qnames(ids []symbols.BindingID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = f.qname(id)
	}
	return out
}

// initOf returns the initializer expression of the declarator declaring
// the first occurrence of spelling.
func (f *fixture) initOf(spelling string) ast.NodeID {
	f.t.Helper()
	decl := f.b.Owner(f.name(spelling, 0))
	d := f.b.Declarator(decl)
	if d == nil || !d.Init.IsValid() {
		f.t.Fatalf("%q has no initializer", spelling)
	}
	init := f.b.Node(d.Init)
	if init.Kind == ast.NodeInitEquals && len(init.Kids) == 1 {
		return init.Kids[0]
	}
	return d.Init
}

// constOf evaluates the initializer of spelling.
func (f *fixture) constOf(spelling string) (int64, bool) {
	f.t.Helper()
	return f.u.ConstValue(f.initOf(spelling))
}

// codes returns the codes of the diagnostics reported so far.
func (f *fixture) codes() []diag.Code {
	var out []diag.Code
	for _, d := range f.bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func (f *fixture) same(a, b symbols.BindingID, what string) {
	f.t.Helper()
	if a != b {
		f.t.Fatalf("%s: got %s %s, want %s %s", what, f.kind(a), f.qname(a), f.kind(b), f.qname(b))
	}
}

// constructed returns what the implicit constructor call of the declarator
// first declaring spelling resolves to.
func (f *fixture) constructed(spelling string) symbols.BindingID {
	f.t.Helper()
	ids := f.u.ImplicitNames(f.b.Owner(f.name(spelling, 0)))
	if len(ids) != 1 {
		f.t.Fatalf("%q: %d implicit names", spelling, len(ids))
	}
	return f.u.Resolve(ids[0])
}

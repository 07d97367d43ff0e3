package fuzztests

import (
	"testing"
	"time"

	"cppsema/internal/ast"
	"cppsema/internal/diag"
	"cppsema/internal/lexer"
	"cppsema/internal/parser"
	"cppsema/internal/sema"
	"cppsema/internal/source"
	"cppsema/internal/testkit"
	"cppsema/internal/token"
)

// deadline bounds one input; exceeding it points at a loop in recovery.
const deadline = 5 * time.Second

func FuzzLexerTokens(f *testing.F) {
	addSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		fs := source.NewFileSet()
		id := fs.AddVirtual("fuzz.cpp", clamp(input))
		toks := lexer.Tokenize(fs.Get(id), lexer.Options{
			Reporter:   diag.BagReporter{Bag: diag.NewBag(64)},
			Expansions: fs.Expansions(id),
		})
		if len(toks) == 0 || toks[len(toks)-1].Kind != token.EOF {
			t.Fatalf("token stream does not end with EOF")
		}
	})
}

func FuzzParserInvariants(f *testing.F) {
	addSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		fs := source.NewFileSet()
		id := fs.AddVirtual("fuzz.cpp", clamp(input))
		b := ast.NewBuilder(ast.Hints{}, nil)
		res := parser.ParseFile(fs, id, b, parser.Options{
			Reporter:  diag.BagReporter{Bag: diag.NewBag(128)},
			MaxErrors: 128,
		})
		if err := testkit.CheckSpanInvariants(b, res.Root, fs.Get(id)); err != nil {
			t.Fatal(err)
		}
	})
}

func FuzzAnalyzeNoHang(f *testing.F) {
	addSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		done := make(chan struct{})
		go func() {
			defer close(done)
			fs := source.NewFileSet()
			id := fs.AddVirtual("fuzz.cpp", clamp(input))
			b := ast.NewBuilder(ast.Hints{}, nil)
			rep := diag.BagReporter{Bag: diag.NewBag(128)}
			res := parser.ParseFile(fs, id, b, parser.Options{Reporter: rep, MaxErrors: 128})
			u := sema.Analyze(b, res.Root, sema.Options{Reporter: rep, Config: sema.DefaultConfig()})
			u.Check()
			for _, n := range u.Names() {
				u.Resolve(n)
			}
		}()
		select {
		case <-done:
		case <-time.After(deadline):
			t.Fatalf("analysis did not finish within %v on %q", deadline, input)
		}
	})
}

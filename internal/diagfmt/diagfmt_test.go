package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cppsema/internal/diag"
	"cppsema/internal/lexer"
	"cppsema/internal/source"
)

func sampleBag(t *testing.T) (*diag.Bag, *source.FileSet, source.FileID) {
	t.Helper()
	fs := source.NewFileSetWithBase("/home/user/project")
	id := fs.AddVirtual("/home/user/project/src/main.cpp", []byte("int counter;\nvoid f() { countr = 1; }\n"))
	bag := diag.NewBag(0)
	use := source.Span{File: id, Start: 24, End: 30}
	decl := source.Span{File: id, Start: 4, End: 11}
	bag.Add(diag.NewError(diag.SemaNameNotFound, use, "Name not found: countr").
		WithNote(decl, "did you mean 'counter'?").
		WithFix("replace with 'counter'", diag.FixEdit{Span: use, NewText: "counter"}))
	return bag, fs, id
}

func TestPrettyExcerptAndCaret(t *testing.T) {
	bag, fs, _ := sampleBag(t)
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeRelative, ShowNotes: true, ShowFixes: true}); err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"src/main.cpp:2:12: error SEM3001: Name not found: countr",
		" 2 | void f() { countr = 1; }",
		"   |            ^~~~~~",
		"  note: src/main.cpp:1:5: did you mean 'counter'?",
		"  fix: replace with 'counter'",
		`    src/main.cpp:2:12: "countr" -> "counter"`,
		"",
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("pretty output (-want +got):\n%s", diff)
	}
}

func TestPrettyContextLines(t *testing.T) {
	bag, fs, _ := sampleBag(t)
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, Context: 1}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "main.cpp:2:12:") {
		t.Fatalf("path: %q", out)
	}
	if !strings.Contains(out, " 1 | int counter;\n 2 | void f()") {
		t.Fatalf("context missing:\n%s", out)
	}
	if strings.Contains(out, "note:") {
		t.Fatalf("notes shown without ShowNotes:\n%s", out)
	}
}

func TestPrettyWideRunesAlignCaret(t *testing.T) {
	fs := source.NewFileSet()
	src := "auto s = \"日本\"; x;\n"
	id := fs.AddVirtual("w.cpp", []byte(src))
	off := uint32(strings.Index(src, "x;"))
	bag := diag.NewBag(0)
	bag.Add(diag.NewError(diag.SemaNameNotFound, source.Span{File: id, Start: off, End: off + 1}, "x"))
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(buf.String(), "\n")
	// two wide runes take four columns but six bytes
	if got := strings.Index(lines[2], "^"); got != strings.Index(lines[1], "x;")-2 {
		t.Fatalf("caret at %d:\n%s", got, buf.String())
	}
}

func TestPrettyMacroNote(t *testing.T) {
	fs := source.NewFileSet()
	src := "#define N undeclared\nint a = N;\n"
	id := fs.AddVirtual("m.cpp", []byte(src))
	lexer.Tokenize(fs.Get(id), lexer.Options{Expansions: fs.Expansions(id)})
	use := uint32(strings.LastIndex(src, "N"))
	bag := diag.NewBag(0)
	bag.Add(diag.NewError(diag.SemaNameNotFound, source.Span{File: id, Start: use, End: use + 1}, "Name not found: undeclared"))
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{ShowMacros: true}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "in expansion of macro 'N' defined at m.cpp:1:11") {
		t.Fatalf("macro note missing:\n%s", buf.String())
	}
}

func TestJSONOutput(t *testing.T) {
	bag, fs, _ := sampleBag(t)
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, PathMode: PathModeBasename, IncludeNotes: true, IncludeFixes: true}); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 1 || out.Total != 1 {
		t.Fatalf("counts: %d/%d", out.Count, out.Total)
	}
	d := out.Diagnostics[0]
	want := LocationJSON{File: "main.cpp", StartByte: 24, EndByte: 30, StartLine: 2, StartCol: 12, EndLine: 2, EndCol: 18}
	if diff := cmp.Diff(want, d.Location); diff != "" {
		t.Fatalf("location (-want +got):\n%s", diff)
	}
	if d.Code != "SEM3001" || d.Severity != "ERROR" || d.Title != "Name not found" {
		t.Fatalf("diagnostic: %+v", d)
	}
	if len(d.Fixes) != 1 || d.Fixes[0].Edits[0].OldText != "countr" {
		t.Fatalf("fixes: %+v", d.Fixes)
	}
}

func TestJSONMaxAndNotes(t *testing.T) {
	bag, fs, id := sampleBag(t)
	bag.Add(diag.New(diag.SevWarning, diag.SemaUnresolvedAmbiguity, source.Span{File: id}, "second"))
	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 1})
	if out.Count != 1 || out.Total != 2 {
		t.Fatalf("counts: %d/%d", out.Count, out.Total)
	}
	if out.Diagnostics[0].Notes != nil || out.Diagnostics[0].Location.StartLine != 0 {
		t.Fatalf("notes or positions leaked: %+v", out.Diagnostics[0])
	}
}

func TestTokensPretty(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("t.cpp", []byte("#define K 3\nint x = K;"))
	toks := lexer.Tokenize(fs.Get(id), lexer.Options{})
	var buf bytes.Buffer
	if err := FormatTokensPretty(&buf, toks, fs); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "directive:define") {
		t.Fatalf("directive trivia missing:\n%s", out)
	}
	if !strings.Contains(out, "from macro K") {
		t.Fatalf("expansion marker missing:\n%s", out)
	}
	var js bytes.Buffer
	if err := FormatTokensJSON(&js, toks, fs); err != nil {
		t.Fatal(err)
	}
	var decoded []TokenOutput
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded[len(decoded)-1].Kind != "EOF" {
		t.Fatalf("last token: %+v", decoded[len(decoded)-1])
	}
}

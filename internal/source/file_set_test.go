package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetAddVirtual(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.cpp", []byte("int a;\nint b;\n"))
	f := fs.Get(id)
	if f.Flags&FileVirtual == 0 {
		t.Fatalf("expected virtual flag")
	}
	if got := f.GetLine(2); got != "int b;" {
		t.Fatalf("line 2 = %q", got)
	}
	if got := f.GetLine(4); got != "" {
		t.Fatalf("line 4 = %q, want empty", got)
	}
	start, end := fs.Resolve(Span{File: id, Start: 11, End: 12})
	if start != (LineCol{Line: 2, Col: 5}) || end != (LineCol{Line: 2, Col: 6}) {
		t.Fatalf("resolve = %v %v", start, end)
	}
	if got := fs.Text(Span{File: id, Start: 4, End: 5}); got != "a" {
		t.Fatalf("text = %q", got)
	}
}

func TestFileSetLoadNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.cpp")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFint a;\r\nint b;\r\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "int a;\nint b;\n" {
		t.Fatalf("content = %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("flags = %b", f.Flags)
	}
	if latest, ok := fs.GetLatest(path); !ok || latest != id {
		t.Fatalf("GetLatest = %d %v", latest, ok)
	}
}

func TestToLineColBoundaries(t *testing.T) {
	idx := buildLineIndex([]byte("ab\ncd\n"))
	cases := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{1, 1}},
		{2, LineCol{1, 3}},
		{3, LineCol{2, 1}},
		{5, LineCol{2, 3}},
		{6, LineCol{3, 1}},
	}
	for _, tc := range cases {
		if got := toLineCol(idx, tc.off); got != tc.want {
			t.Errorf("off %d: got %v want %v", tc.off, got, tc.want)
		}
	}
}

func TestExpansionsLookup(t *testing.T) {
	fs := NewFileSet()
	in := NewInterner()
	id := fs.AddVirtual("m.cpp", []byte("#define N 3\nint a[N]; int b[N];"))
	exp := fs.Expansions(id)
	n := in.Intern("N")
	exp.Record(Expansion{Macro: n, Use: Span{File: id, Start: 28, End: 29}, Def: Span{File: id, Start: 10, End: 11}})
	exp.Record(Expansion{Macro: n, Use: Span{File: id, Start: 18, End: 19}, Def: Span{File: id, Start: 10, End: 11}})
	if exp.Len() != 2 {
		t.Fatalf("len = %d", exp.Len())
	}
	got, ok := exp.Lookup(18)
	if !ok || got.Use.Start != 18 {
		t.Fatalf("lookup 18 = %+v %v", got, ok)
	}
	if _, ok := exp.Lookup(20); ok {
		t.Fatalf("unexpected expansion at 20")
	}
}

func TestFormatPathModes(t *testing.T) {
	dir := t.TempDir()
	long := filepath.Join(dir, "some", "deeply", "nested", "directory", "unit.cpp")
	f := &File{Path: filepath.ToSlash(long)}
	tests := []struct {
		mode, base, want string
	}{
		{"basename", "", "unit.cpp"},
		{"relative", dir, "some/deeply/nested/directory/unit.cpp"},
		{"absolute", "", filepath.ToSlash(long)},
		{"auto", "", "unit.cpp"},
		{"", "", filepath.ToSlash(long)},
	}
	for _, tt := range tests {
		if got := f.FormatPath(tt.mode, tt.base); got != tt.want {
			t.Errorf("FormatPath(%q) = %q, want %q", tt.mode, got, tt.want)
		}
	}
	short := &File{Path: "a.cpp"}
	if got := short.FormatPath("auto", ""); got != "a.cpp" {
		t.Errorf("auto on a short relative path = %q", got)
	}
	if got := short.Position(0); got != (LineCol{Line: 1, Col: 1}) {
		t.Errorf("position = %+v", got)
	}
}

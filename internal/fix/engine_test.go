package fix

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cppsema/internal/diag"
	"cppsema/internal/source"
)

func loadTemp(t *testing.T, text string) (*source.FileSet, source.FileID, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "a.cpp")
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		t.Fatal(err)
	}
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	return fs, id, path
}

func rename(file source.FileID, start, end uint32, to string) diag.Diagnostic {
	sp := source.Span{File: file, Start: start, End: end}
	return diag.NewError(diag.SemaNameNotFound, sp, "not found").
		WithFix("replace with '"+to+"'", diag.FixEdit{Span: sp, NewText: to})
}

func TestApplyAllRewritesFile(t *testing.T) {
	const text = "int counter;\nint f() { return countr + cuonter; }\n"
	fs, id, path := loadTemp(t, text)
	diags := []diag.Diagnostic{
		rename(id, 39, 46, "counter"),
		rename(id, 30, 36, "counter"),
	}
	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("int counter;\nint f() { return counter + counter; }\n", string(got)); diff != "" {
		t.Fatalf("file (-want +got):\n%s", diff)
	}
	if len(res.Applied) != 2 || res.Applied[0].ID != diags[1].FixID(0) {
		t.Fatalf("applied in source order: %+v", res.Applied)
	}
}

func TestApplySkipsOverlap(t *testing.T) {
	fs, id, _ := loadTemp(t, "int countr;\n")
	diags := []diag.Diagnostic{rename(id, 4, 10, "counter"), rename(id, 4, 7, "cnt")}
	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll, DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Applied) != 1 || len(res.Skipped) != 1 || res.Skipped[0].Reason != "conflicts with a previously applied fix" {
		t.Fatalf("result: %+v", res)
	}
	if string(res.FileChanges[0].Content) != "int counter;\n" {
		t.Fatalf("content %q", res.FileChanges[0].Content)
	}
}

func TestApplyOverlapKeepsEarlierDiagnostic(t *testing.T) {
	fs, id, _ := loadTemp(t, "int countr;\n")
	diags := []diag.Diagnostic{rename(id, 4, 7, "cnt"), rename(id, 4, 10, "counter")}
	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll, DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Applied) != 1 || res.Applied[0].ID != diags[0].FixID(0) {
		t.Fatalf("applied: %+v", res.Applied)
	}
	if string(res.FileChanges[0].Content) != "int cntntr;\n" {
		t.Fatalf("content %q", res.FileChanges[0].Content)
	}
}

func TestApplyByID(t *testing.T) {
	fs, id, _ := loadTemp(t, "int a; int b;\n")
	diags := []diag.Diagnostic{rename(id, 4, 5, "x"), rename(id, 11, 12, "y")}
	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeID, TargetID: diags[1].FixID(0), DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if string(res.FileChanges[0].Content) != "int a; int y;\n" {
		t.Fatalf("content %q", res.FileChanges[0].Content)
	}

	_, err = Apply(fs, diags, ApplyOptions{Mode: ApplyModeID, TargetID: "nope", DryRun: true})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("err = %v", err)
	}
}

func TestApplyOnceAndVirtual(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("v.cpp", []byte("int a;"))
	_, err := Apply(fs, []diag.Diagnostic{rename(id, 4, 5, "b")}, ApplyOptions{})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("virtual file rewritten: %v", err)
	}
	if _, err := Apply(fs, nil, ApplyOptions{}); !errors.Is(err, ErrNoFixes) {
		t.Fatalf("err = %v", err)
	}
}

package diag

import (
	"testing"

	"cppsema/internal/source"
)

func TestBagLimitAndSort(t *testing.T) {
	b := NewBag(2)
	b.Add(NewError(SemaNameNotFound, source.Span{File: 0, Start: 10, End: 11}, "b"))
	b.Add(NewError(SemaAmbiguousLookup, source.Span{File: 0, Start: 2, End: 3}, "a"))
	if b.Add(NewError(SemaBadScope, source.Span{}, "dropped")) {
		t.Fatalf("bag accepted a diagnostic past its limit")
	}
	b.Sort()
	if got := b.Items()[0].Message; got != "a" {
		t.Fatalf("first after sort = %q", got)
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(0)
	r := NewDedupReporter(BagReporter{Bag: bag})
	sp := source.Span{Start: 1, End: 2}
	ReportError(r, SemaNameNotFound, sp, "x").Emit()
	ReportError(r, SemaNameNotFound, sp, "x").Emit()
	ReportError(r, SemaNameNotFound, sp, "y").Emit()
	if bag.Len() != 2 || r.Suppressed() != 1 {
		t.Fatalf("len = %d suppressed = %d", bag.Len(), r.Suppressed())
	}
}

func TestReportBuilderEmitsOnce(t *testing.T) {
	var got []Diagnostic
	r := ReporterFunc(func(d Diagnostic) { got = append(got, d) })
	sp := source.Span{Start: 4, End: 6}
	b := ReportWarning(r, SemaBadScope, sp, "w").
		WithNote(sp, "here").
		WithFix("drop", FixEdit{Span: sp})
	b.Emit()
	b.Emit()
	if len(got) != 1 || len(got[0].Notes) != 1 || len(got[0].Fixes) != 1 || got[0].Severity != SevWarning {
		t.Fatalf("reported: %+v", got)
	}
	var nilBuilder *ReportBuilder
	nilBuilder.WithNote(sp, "ignored").Emit()
	if d := nilBuilder.Diagnostic(); d.Message != "" {
		t.Fatalf("nil builder diagnostic: %+v", d)
	}
}

func TestSeverityNames(t *testing.T) {
	for _, s := range []Severity{SevInfo, SevWarning, SevError} {
		got, err := ParseSeverity(s.Label())
		if err != nil || got != s {
			t.Errorf("ParseSeverity(%q) = %v, %v", s.Label(), got, err)
		}
	}
	if _, err := ParseSeverity("fatal"); err == nil {
		t.Error("accepted unknown severity")
	}
}

func TestCodeID(t *testing.T) {
	cases := map[Code]string{
		LexBadNumber:        "LEX1004",
		SynExpectSemicolon:  "SYN2002",
		SemaAmbiguousLookup: "SEM3002",
		IOLoadFileError:     "IO4001",
		CfgInvalidValue:     "CFG5001",
	}
	for c, want := range cases {
		if got := c.ID(); got != want {
			t.Errorf("%d: got %s want %s", c, got, want)
		}
	}
}

func TestFormatShortDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("a.cpp", []byte("int x;\nint y = z;\n"))
	d := NewError(SemaNameNotFound, source.Span{File: id, Start: 15, End: 16}, "'z' was not declared").
		WithNote(source.Span{File: id, Start: 4, End: 5}, "did you mean 'x'?")
	got := FormatShortDiagnostics([]Diagnostic{d}, fs, true)
	want := "note SEM3001 a.cpp:1:5 did you mean 'x'?\nerror SEM3001 a.cpp:2:9 'z' was not declared"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

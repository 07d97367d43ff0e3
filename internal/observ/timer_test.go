package observ

import (
	"strings"
	"sync"
	"testing"
)

func TestReportSumsPhasesByName(t *testing.T) {
	tm := NewTimer()
	a := tm.BeginFile("parse", "a.cpp")
	tm.End(a, "")
	b := tm.BeginFile("parse", "b.cpp")
	tm.End(b, "")
	c := tm.Begin("check")
	tm.End(c, "3 files")

	r := tm.Report()
	if len(r.Phases) != 2 {
		t.Fatalf("phases: %+v", r.Phases)
	}
	if r.Phases[0].Name != "parse" || r.Phases[0].Count != 2 {
		t.Fatalf("parse: %+v", r.Phases[0])
	}
	if r.Phases[1].Note != "3 files" {
		t.Fatalf("check note: %q", r.Phases[1].Note)
	}
	if len(r.Slowest) != 2 {
		t.Fatalf("slowest: %+v", r.Slowest)
	}
}

func TestEndIgnoresBadIndex(t *testing.T) {
	tm := NewTimer()
	tm.End(3, "x")
	if r := tm.Report(); len(r.Phases) != 0 {
		t.Fatalf("phases: %+v", r.Phases)
	}
}

func TestConcurrentPhases(t *testing.T) {
	tm := NewTimer()
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.Time("resolve", "f.cpp", func() string { return "" })
		}()
	}
	wg.Wait()
	r := tm.Report()
	if len(r.Phases) != 1 || r.Phases[0].Count != 16 {
		t.Fatalf("phases: %+v", r.Phases)
	}
	if !strings.Contains(tm.Summary(), "x16") {
		t.Fatalf("summary:\n%s", tm.Summary())
	}
}

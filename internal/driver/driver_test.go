package driver

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"cppsema/internal/config"
	"cppsema/internal/diag"
	"cppsema/internal/observ"
	"cppsema/internal/source"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func rel(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, len(paths))
	for i, p := range paths {
		r, err := filepath.Rel(root, p)
		if err != nil {
			t.Fatal(err)
		}
		out[i] = filepath.ToSlash(r)
	}
	return out
}

func TestDiscoverFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/a.cpp":            "",
		"src/nested/b.hpp":     "",
		"src/readme.md":        "",
		"third_party/lib/c.cc": "",
	})
	got, err := DiscoverFiles([]string{root}, nil, []string{"**/third_party/**"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"src/a.cpp", "src/nested/b.hpp"}, rel(t, root, got)); diff != "" {
		t.Fatalf("directory discovery (-want +got):\n%s", diff)
	}

	got, err = DiscoverFiles(nil, []string{filepath.Join(root, "**", "*.cc"), filepath.Join(root, "src", "a.cpp")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"src/a.cpp", "third_party/lib/c.cc"}, rel(t, root, got)); diff != "" {
		t.Fatalf("include patterns (-want +got):\n%s", diff)
	}
}

func TestDiscoverMissingFile(t *testing.T) {
	_, err := DiscoverFiles([]string{filepath.Join(t.TempDir(), "nope.cpp")}, nil, nil)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("err = %v", err)
	}
}

const goodUnit = `
namespace geo {
struct Point { int x, y; };
int norm(Point p) { return 0; }
}
int use() { geo::Point p; return geo::norm(p); }
`

const badUnit = `
int counter;
void f() { countr = 1; }
`

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) OnEvent(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) final(file string) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	var last Status
	for _, ev := range s.events {
		if ev.File == file {
			last = ev.Status
		}
	}
	return last
}

func TestAnalyzeFilesKeepsOrderAndReports(t *testing.T) {
	root := writeTree(t, map[string]string{"good.cpp": goodUnit, "bad.cpp": badUnit})
	paths := []string{filepath.Join(root, "good.cpp"), filepath.Join(root, "bad.cpp"), filepath.Join(root, "missing.cpp")}
	sink := &recordingSink{}
	timer := observ.NewTimer()
	results, err := AnalyzeFiles(context.Background(), paths, &Options{Jobs: 2, Progress: sink, Timer: timer})
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range results {
		if r.Path != paths[i] {
			t.Fatalf("result %d is %s", i, r.Path)
		}
	}

	good, bad, missing := results[0], results[1], results[2]
	if good.Err != nil || good.Bag.HasErrors() || good.Report.Problems != 0 {
		t.Fatalf("good.cpp: err=%v diags=%v", good.Err, good.Bag.Items())
	}
	var norm *NameEntry
	for i := range good.Report.Names {
		if e := &good.Report.Names[i]; e.Spelling == "norm" && e.Role == "ref" {
			norm = e
		}
	}
	if norm == nil || norm.Binding != "geo::norm" || norm.Kind != "function" {
		t.Fatalf("norm reference: %+v", norm)
	}

	if !bad.Bag.HasErrors() || bad.Report.Problems != 1 {
		t.Fatalf("bad.cpp: problems=%d diags=%v", bad.Report.Problems, bad.Bag.Items())
	}
	if missing.Err == nil || !errors.Is(missing.Err, fs.ErrNotExist) {
		t.Fatalf("missing.cpp: %v", missing.Err)
	}

	if sink.final(paths[0]) != StatusDone || sink.final(paths[1]) != StatusError || sink.final(paths[2]) != StatusError {
		t.Fatalf("final statuses: %v %v %v", sink.final(paths[0]), sink.final(paths[1]), sink.final(paths[2]))
	}
	var phases []string
	for _, p := range timer.Report().Phases {
		phases = append(phases, p.Name)
	}
	if diff := cmp.Diff([]string{"parse", "sema_declare", "sema_check"}, phases); diff != "" {
		t.Fatalf("phases (-want +got):\n%s", diff)
	}
}

func TestCacheReplaysDiagnostics(t *testing.T) {
	root := writeTree(t, map[string]string{"bad.cpp": badUnit})
	cache, err := OpenDiskCache("cppsema-test", filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(root, "bad.cpp")
	opts := &Options{Cache: cache}

	first := AnalyzeFile(context.Background(), path, opts)
	second := AnalyzeFile(context.Background(), path, opts)
	if first.Cached || !second.Cached {
		t.Fatalf("cached flags: %v %v", first.Cached, second.Cached)
	}
	short := func(r *FileResult) string {
		return diag.FormatShortDiagnostics(r.Bag.Items(), r.FileSet, true)
	}
	if diff := cmp.Diff(short(first), short(second)); diff != "" {
		t.Fatalf("replayed diagnostics differ (-fresh +cached):\n%s", diff)
	}
	if diff := cmp.Diff(first.Report, second.Report); diff != "" {
		t.Fatalf("replayed report differs (-fresh +cached):\n%s", diff)
	}
	if second.Bag.Items()[0].Fixes == nil {
		t.Fatal("fix lost in the cache")
	}

	cfg := config.Default()
	cfg.Engine.GNUExtensions = true
	third := AnalyzeFile(context.Background(), path, &Options{Cache: cache, Config: &cfg})
	if third.Cached {
		t.Fatal("engine settings ignored by the cache key")
	}

	if err := cache.DropAll(); err != nil {
		t.Fatal(err)
	}
	if again := AnalyzeFile(context.Background(), path, opts); again.Cached {
		t.Fatal("hit after DropAll")
	}
}

func TestKeepUnitsSkipsCache(t *testing.T) {
	root := writeTree(t, map[string]string{"good.cpp": goodUnit})
	cache, err := OpenDiskCache("cppsema-test", filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(root, "good.cpp")
	AnalyzeFile(context.Background(), path, &Options{Cache: cache})
	r := AnalyzeFile(context.Background(), path, &Options{Cache: cache, KeepUnits: true})
	if r.Cached || r.Unit == nil {
		t.Fatalf("cached=%v unit=%v", r.Cached, r.Unit != nil)
	}
}

func TestAnalyzeFilesHonorsCancel(t *testing.T) {
	root := writeTree(t, map[string]string{"a.cpp": goodUnit, "b.cpp": goodUnit})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := AnalyzeFiles(ctx, []string{filepath.Join(root, "a.cpp"), filepath.Join(root, "b.cpp")}, &Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestTimingDiagnosticBypassesLimit(t *testing.T) {
	bag := diag.NewBag(1)
	bag.Add(diag.New(diag.SevError, diag.SemaNameNotFound, bagSpan(), "x"))
	timer := observ.NewTimer()
	timer.Time("parse", "a.cpp", func() string { return "" })
	AppendTimingDiagnostic(bag, timer.Report())
	codes := make([]diag.Code, 0, bag.Len())
	for _, d := range bag.Items() {
		codes = append(codes, d.Code)
	}
	if !slices.Contains(codes, diag.ObsTimings) {
		t.Fatalf("codes: %v", codes)
	}
}

func bagSpan() source.Span { return source.Span{} }

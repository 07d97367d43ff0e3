package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/goleak"

	"cppsema/internal/driver"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type cliResult struct {
	code           int
	stdout, stderr string
}

// cli runs the command with an empty cppsema.toml so the tests never pick
// up a manifest from the surrounding directories.
func cli(t *testing.T, args ...string) cliResult {
	t.Helper()
	cfg := filepath.Join(t.TempDir(), "cppsema.toml")
	if err := os.WriteFile(cfg, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	var out, errb bytes.Buffer
	code := run(context.Background(), append([]string{"--config", cfg}, args...), &out, &errb)
	return cliResult{code: code, stdout: out.String(), stderr: errb.String()}
}

func writeSource(t *testing.T, dir, name, text string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(text), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

const shapes = `
namespace shapes {
struct Circle { int r; };
int area(Circle c);
int area(int side);
}
int total() {
  shapes::Circle c;
  return shapes::area(c) + shapes::area(3);
}
`

func TestVersionJSON(t *testing.T) {
	r := cli(t, "version", "--format", "json")
	if r.code != 0 {
		t.Fatalf("exit %d: %s", r.code, r.stderr)
	}
	var payload versionPayload
	if err := json.Unmarshal([]byte(r.stdout), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Tool != "cppsema" || payload.Version == "" {
		t.Fatalf("payload: %+v", payload)
	}
}

func TestResolveJSONAndMsgpackAgree(t *testing.T) {
	path := writeSource(t, t.TempDir(), "shapes.cpp", shapes)
	j := cli(t, "resolve", "--format", "json", path)
	if j.code != 0 {
		t.Fatalf("exit %d: %s", j.code, j.stderr)
	}
	var fromJSON driver.Report
	if err := json.Unmarshal([]byte(j.stdout), &fromJSON); err != nil {
		t.Fatal(err)
	}
	var areas []string
	for _, e := range fromJSON.Names {
		if e.Spelling == "area" && e.Role == "ref" {
			areas = append(areas, e.Binding)
		}
	}
	if diff := cmp.Diff([]string{"shapes::area", "shapes::area"}, areas); diff != "" {
		t.Fatalf("area references (-want +got):\n%s", diff)
	}

	m := cli(t, "resolve", "--format", "msgpack", path)
	var fromMsgpack driver.Report
	if err := msgpack.Unmarshal([]byte(m.stdout), &fromMsgpack); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(fromJSON, fromMsgpack); diff != "" {
		t.Fatalf("json and msgpack differ (-json +msgpack):\n%s", diff)
	}
}

func TestResolveTextMarksProblems(t *testing.T) {
	path := writeSource(t, t.TempDir(), "bad.cpp", "int counter;\nint f() { return countr; }\n")
	r := cli(t, "resolve", "--problems", "--color", "off", path)
	if r.code != 1 {
		t.Fatalf("exit %d", r.code)
	}
	if !strings.Contains(r.stdout, "!NAME_NOT_FOUND") || !strings.Contains(r.stdout, "1 names, 1 unresolved") {
		t.Fatalf("stdout:\n%s", r.stdout)
	}
	if !strings.Contains(r.stderr, "did you mean 'counter'") {
		t.Fatalf("stderr:\n%s", r.stderr)
	}
}

func TestDiagShortExitCode(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "good.cpp", shapes)
	writeSource(t, dir, "bad.cpp", "void f() { missing(); }\n")
	r := cli(t, "diag", "--no-cache", "--ui", "off", "--format", "short", dir)
	if r.code != 1 {
		t.Fatalf("exit %d: %s", r.code, r.stderr)
	}
	if !strings.Contains(r.stdout, "error SEM3001") || strings.Contains(r.stdout, "good.cpp") {
		t.Fatalf("stdout:\n%s", r.stdout)
	}
	if !strings.Contains(r.stderr, "2 files: 1 errors") {
		t.Fatalf("stderr:\n%s", r.stderr)
	}

	clean := cli(t, "diag", "--no-cache", "--ui", "off", filepath.Join(dir, "good.cpp"))
	if clean.code != 0 {
		t.Fatalf("clean exit %d: %s%s", clean.code, clean.stdout, clean.stderr)
	}
}

func TestDiagUsesCache(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "bad.cpp", "void f() { missing(); }\n")
	cacheDir := filepath.Join(t.TempDir(), "cache")
	first := cli(t, "diag", "--ui", "off", "--cache-dir", cacheDir, src)
	second := cli(t, "diag", "--ui", "off", "--cache-dir", cacheDir, src)
	if first.code != 1 || second.code != 1 {
		t.Fatalf("exit codes %d %d", first.code, second.code)
	}
	if first.stdout != second.stdout {
		t.Fatalf("cached output differs:\n%s\n---\n%s", first.stdout, second.stdout)
	}
	if !strings.Contains(second.stderr, "(1 cached)") {
		t.Fatalf("stderr:\n%s", second.stderr)
	}
	third := cli(t, "diag", "--ui", "off", "--cache-dir", cacheDir, "--clear-cache", src)
	if strings.Contains(third.stderr, "cached") {
		t.Fatalf("cache survived --clear-cache:\n%s", third.stderr)
	}
}

func TestDiagJSONWithTimings(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "bad.cpp", "int counter;\nint f() { return countr; }\n")
	missing := cli(t, "diag", "--no-cache", src, filepath.Join(dir, "gone.cpp"))
	if missing.code != 2 || !strings.Contains(missing.stderr, "gone.cpp") {
		t.Fatalf("missing file: exit %d: %s", missing.code, missing.stderr)
	}

	r := cli(t, "diag", "--no-cache", "--format", "json", "--timings", src)
	if r.code != 1 {
		t.Fatalf("exit %d: %s", r.code, r.stderr)
	}
	var doc diagRunOutput
	if err := json.Unmarshal([]byte(r.stdout), &doc); err != nil {
		t.Fatalf("%v\n%s", err, r.stdout)
	}
	if len(doc.Files) != 1 || doc.Files[0].Count != 1 {
		t.Fatalf("files: %+v", doc.Files)
	}
	d := doc.Files[0].Diagnostics[0]
	if d.Code != "SEM3001" || d.Location.StartLine != 2 || len(d.Fixes) != 1 || d.Fixes[0].Edits[0].OldText != "countr" {
		t.Fatalf("diagnostic: %+v", d)
	}
	if doc.Run == nil || doc.Run.Count != 1 || len(doc.Run.Diagnostics[0].Notes) != 1 {
		t.Fatalf("run: %+v", doc.Run)
	}
}

func TestTokenizeJSON(t *testing.T) {
	path := writeSource(t, t.TempDir(), "t.cpp", "#define N 4\nint a[N];\n")
	r := cli(t, "tokenize", "--format", "json", path)
	if r.code != 0 {
		t.Fatalf("exit %d: %s", r.code, r.stderr)
	}
	var toks []map[string]any
	if err := json.Unmarshal([]byte(r.stdout), &toks); err != nil {
		t.Fatalf("%v\n%s", err, r.stdout)
	}
	var texts []string
	for _, tok := range toks {
		if s, _ := tok["text"].(string); s != "" {
			texts = append(texts, s)
		}
	}
	if diff := cmp.Diff([]string{"int", "a", "[", "4", "]", ";"}, texts); diff != "" {
		t.Fatalf("tokens (-want +got):\n%s", diff)
	}
}

func TestParseDumpsTree(t *testing.T) {
	path := writeSource(t, t.TempDir(), "p.cpp", "int x;\n")
	r := cli(t, "parse", path)
	if r.code != 0 || r.stdout == "" {
		t.Fatalf("exit %d: %q %s", r.code, r.stdout, r.stderr)
	}
}

func TestTraceFile(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "p.cpp", "int x;\n")
	out := filepath.Join(dir, "trace.ndjson")
	r := cli(t, "resolve", "--trace", out, path)
	if r.code != 0 {
		t.Fatalf("exit %d: %s", r.code, r.stderr)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	first, _, _ := strings.Cut(string(data), "\n")
	var ev map[string]any
	if err := json.Unmarshal([]byte(first), &ev); err != nil {
		t.Fatalf("first trace line %q: %v", first, err)
	}
}

func TestBadSettings(t *testing.T) {
	dir := t.TempDir()
	cfg := writeSource(t, dir, "cppsema.toml", "[engine]\nstep_budget = 3\n")
	var out, errb bytes.Buffer
	code := run(context.Background(), []string{"--config", cfg, "version"}, &out, &errb)
	if code != 0 {
		t.Fatalf("version should not read the config, exit %d", code)
	}
	path := writeSource(t, dir, "p.cpp", "int x;\n")
	code = run(context.Background(), []string{"--config", cfg, "resolve", path}, &out, &errb)
	if code != 2 || !strings.Contains(errb.String(), "unknown keys: engine.step_budget") {
		t.Fatalf("exit %d: %s", code, errb.String())
	}

	r := cli(t, "resolve", "--format", "yaml", path)
	if r.code != 2 {
		t.Fatalf("exit %d", r.code)
	}
	r = cli(t, "diag", "--ui", "sometimes", path)
	if r.code != 2 || !strings.Contains(r.stderr, "invalid --ui value") {
		t.Fatalf("exit %d: %s", r.code, r.stderr)
	}
}

func TestDiagFix(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "bad.cpp", "int counter;\nint f() { return countr; }\n")
	dry := cli(t, "diag", "--no-cache", "--fix", "--dry-run", src)
	if !strings.Contains(dry.stdout, "return counter;") {
		t.Fatalf("dry run:\n%s", dry.stdout)
	}
	if data, _ := os.ReadFile(src); !strings.Contains(string(data), "countr;") {
		t.Fatal("dry run wrote the file")
	}

	r := cli(t, "diag", "--no-cache", "--fix", src)
	if !strings.Contains(r.stderr, "fixed ") {
		t.Fatalf("stderr:\n%s", r.stderr)
	}
	if again := cli(t, "diag", "--no-cache", src); again.code != 0 {
		t.Fatalf("still failing after fix:\n%s", again.stdout)
	}
}

func TestProfileFlags(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "p.cpp", "int x;\n")
	cpu := filepath.Join(dir, "cpu.pprof")
	if r := cli(t, "resolve", "--cpu-profile", cpu, src); r.code != 0 {
		t.Fatalf("exit %d: %s", r.code, r.stderr)
	}
	if info, err := os.Stat(cpu); err != nil || info.Size() == 0 {
		t.Fatalf("cpu profile: %v", err)
	}
}

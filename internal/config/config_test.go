package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cppsema/internal/sema"
	"cppsema/internal/trace"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestDefaultMatchesEngineDefaults(t *testing.T) {
	cfg := Default()
	if diff := cmp.Diff(sema.DefaultConfig(), cfg.Sema()); diff != "" {
		t.Fatalf("engine config (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoadOverridesOnlyGivenKeys(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
[engine]
gnu_extensions = true
eval_step_budget = 500

[output]
format = "json"

[files]
include = ["src/**/*.cpp"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := Default()
	want.Engine.GNUExtensions = true
	want.Engine.EvalStepBudget = 500
	want.Output.Format = "json"
	want.Files.Include = []string{"src/**/*.cpp"}
	want.Path = path
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config (-want +got):\n%s", diff)
	}
	if cfg.Sema().EvalStepBudget != 500 {
		t.Fatalf("budget not forwarded")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeManifest(t, t.TempDir(), "[engine]\nstep_budget = 3\n")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "engine.step_budget") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	for _, body := range []string{
		"[output]\nformat = \"xml\"\n",
		"[output]\ncolor = \"always\"\n",
		"[trace]\nlevel = \"loud\"\n",
		"[engine]\nmax_instantiation_depth = -1\n",
	} {
		path := writeManifest(t, t.TempDir(), body)
		if _, err := Load(path); err == nil {
			t.Errorf("accepted %q", body)
		}
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[engine]\nmax_diagnostics = 7\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg, err := Discover(nested)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.MaxDiagnostics != 7 || cfg.Path == "" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestFingerprintTracksEngine(t *testing.T) {
	a, b := Default(), Default()
	b.Output.Format = "json"
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("output settings changed the fingerprint")
	}
	b.Engine.GNUExtensions = true
	if a.Fingerprint() == b.Fingerprint() {
		t.Fatal("engine settings ignored by the fingerprint")
	}
}

func TestTracerConfig(t *testing.T) {
	cfg := Default()
	cfg.Trace.Level = "debug"
	cfg.Trace.Output = "run.ndjson"
	tc, err := cfg.Tracer()
	if err != nil {
		t.Fatal(err)
	}
	if tc.Level != trace.LevelDebug || tc.Mode != trace.ModeStream || tc.OutputPath != "run.ndjson" {
		t.Fatalf("tracer config: %+v", tc)
	}
}

package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestParseLevelRoundTrip(t *testing.T) {
	for _, name := range []string{"off", "error", "phase", "detail", "DEBUG"} {
		l, err := ParseLevel(name)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", name, err)
		}
		if !strings.EqualFold(l.String(), name) {
			t.Fatalf("ParseLevel(%q) = %s", name, l)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
}

func TestLevelFiltersScopes(t *testing.T) {
	if !LevelPhase.ShouldEmit(ScopePass) || LevelPhase.ShouldEmit(ScopeFile) {
		t.Fatal("phase level keeps driver and pass scopes only")
	}
	if !LevelDetail.ShouldEmit(ScopeFile) || LevelDetail.ShouldEmit(ScopeNode) {
		t.Fatal("detail level stops before node scope")
	}
	if LevelError.ShouldEmit(ScopeDriver) {
		t.Fatal("error level emits nothing while running")
	}
}

func TestFormatFor(t *testing.T) {
	cases := map[string]Format{
		"out.ndjson": FormatNDJSON,
		"out.json":   FormatChrome,
		"-":          FormatText,
		"":           FormatText,
	}
	for path, want := range cases {
		if got := formatFor(FormatAuto, path); got != want {
			t.Errorf("formatFor(%q) = %d, want %d", path, got, want)
		}
	}
	if got := formatFor(FormatText, "x.json"); got != FormatText {
		t.Errorf("explicit format overridden: %d", got)
	}
}

func TestStreamNDJSONSpans(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	ctx := WithTracer(context.Background(), tr)
	ctx, outer := BeginContext(ctx, ScopePass, "sema_check")
	_, inner := BeginContext(ctx, ScopeNode, "instantiate")
	inner.WithExtra("template", "Box").End("")
	outer.End("done")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("want 4 events, got %d:\n%s", len(lines), buf.String())
	}
	var ev ndjsonEvent
	if err := json.Unmarshal([]byte(lines[2]), &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Name != "instantiate" || ev.Kind != "end" || ev.ParentID != outer.ID() || ev.Extra["template"] != "Box" {
		t.Fatalf("inner end: %+v", ev)
	}
}

func TestStreamChromeIsValidJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatChrome)
	Begin(tr, ScopePass, "parse", 0).End("ok")
	Begin(tr, ScopeNode, "dropped", 0).End("")
	if err := tr.Close(); err != nil {
		t.Fatal(err)
	}
	var doc struct {
		TraceEvents []chromeEvent `json:"traceEvents"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("%v\n%s", err, buf.String())
	}
	if len(doc.TraceEvents) != 2 || doc.TraceEvents[0].Phase != "B" || doc.TraceEvents[1].Args["detail"] != "ok" {
		t.Fatalf("events: %+v", doc.TraceEvents)
	}
}

func TestRingKeepsNewest(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		r.Emit(&Event{Kind: KindPoint, Scope: ScopeNode, Name: name})
	}
	var names []string
	for _, ev := range r.Snapshot() {
		names = append(names, ev.Name)
	}
	if strings.Join(names, "") != "cde" {
		t.Fatalf("snapshot: %v", names)
	}
}

func TestNewBothExposesRing(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelPhase, Mode: ModeBoth, Output: &buf, Format: FormatText})
	if err != nil {
		t.Fatal(err)
	}
	Begin(tr, ScopeDriver, "diag", 0).End("")
	r, ok := Ring(tr)
	if !ok || len(r.Snapshot()) != 2 {
		t.Fatalf("ring missing or empty")
	}
	if !strings.Contains(buf.String(), "→ diag") {
		t.Fatalf("stream output: %q", buf.String())
	}
}

func TestDisabledSpanIsInert(t *testing.T) {
	s := Begin(Nop, ScopePass, "x", 0)
	if s.WithExtra("k", "v").End("") != 0 || s.ID() != 0 {
		t.Fatal("disabled span recorded something")
	}
}

func TestHeartbeatStops(t *testing.T) {
	defer goleak.VerifyNone(t)
	r := NewRingTracer(16, LevelPhase)
	h := StartHeartbeat(r, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	h.Stop()
	h.Stop()
	if len(r.Snapshot()) == 0 {
		t.Fatal("no heartbeat recorded")
	}
}

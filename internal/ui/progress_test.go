package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"cppsema/internal/driver"
)

func feed(m *progressModel, evs ...driver.Event) {
	for _, ev := range evs {
		m.Update(eventMsg(ev))
	}
}

func TestProgressTracksUnits(t *testing.T) {
	m := NewProgressModel("diag", []string{"a.cpp", "b.cpp", "c.cpp"}, nil).(*progressModel)
	feed(m,
		driver.Event{File: "a.cpp", Stage: driver.StageParse, Status: driver.StatusWorking},
		driver.Event{File: "b.cpp", Stage: driver.StageCheck, Status: driver.StatusCached},
		driver.Event{File: "c.cpp", Stage: driver.StageCheck, Status: driver.StatusError, Elapsed: 12 * time.Millisecond},
		driver.Event{File: "c.cpp", Stage: driver.StageCheck, Status: driver.StatusWorking},
		driver.Event{File: "unknown.cpp", Stage: driver.StageParse, Status: driver.StatusWorking},
	)
	if m.finished != 2 || m.failed != 1 || m.cached != 1 {
		t.Fatalf("finished=%d failed=%d cached=%d", m.finished, m.failed, m.cached)
	}
	if got := m.units[0].label; got != "parsing" {
		t.Fatalf("a.cpp label %q", got)
	}
	if got := m.units[2].label; got != "error" {
		t.Fatalf("final state overwritten: %q", got)
	}
	if f := m.fraction() * 3; f < 2.19 || f > 2.21 {
		t.Fatalf("fraction %v", f/3)
	}

	view := m.View()
	for _, want := range []string{"diag  2/3", "cached 1", "failed 1", "c.cpp  12ms", "parsing"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestProgressQuitsWhenEventsClose(t *testing.T) {
	ch := make(chan driver.Event)
	close(ch)
	m := NewProgressModel("diag", []string{"a.cpp"}, ch).(*progressModel)
	msg := m.next()()
	if _, ok := msg.(doneMsg); !ok {
		t.Fatalf("msg = %#v", msg)
	}
	if _, cmd := m.Update(msg); cmd == nil || !m.done {
		t.Fatal("expected quit")
	}
}

func TestTruncateKeepsTail(t *testing.T) {
	got := truncate("very/long/directory/name/file.cpp", 15)
	if got != "...ame/file.cpp" {
		t.Fatalf("truncate = %q", got)
	}
	if truncate("short.cpp", 15) != "short.cpp" {
		t.Fatal("short path changed")
	}
}

func TestCtrlCMarksInterrupted(t *testing.T) {
	m := NewProgressModel("diag", []string{"a.cpp"}, nil).(*progressModel)
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC}); cmd == nil {
		t.Fatal("expected quit command")
	}
	if !m.Interrupted() {
		t.Fatal("not interrupted")
	}
}

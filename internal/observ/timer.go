package observ

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// Phase is one timed step of analysis, optionally tied to a file.
type Phase struct {
	Name  string
	File  string
	Start time.Time
	Dur   time.Duration
	Note  string
}

// Timer collects phase durations. It is safe for use by the workers of a
// parallel run.
type Timer struct {
	mu     sync.Mutex
	phases []Phase
}

func NewTimer() *Timer { return &Timer{phases: make([]Phase, 0, 8)} }

// Begin starts a phase and returns its index for End.
func (t *Timer) Begin(name string) int {
	return t.BeginFile(name, "")
}

// BeginFile starts a phase of one file.
func (t *Timer) BeginFile(name, file string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phases = append(t.phases, Phase{Name: name, File: file, Start: time.Now()})
	return len(t.phases) - 1
}

func (t *Timer) End(idx int, note string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx < 0 || idx >= len(t.phases) {
		return
	}
	p := &t.phases[idx]
	p.Dur = time.Since(p.Start)
	p.Note = note
}

// Time runs fn as a phase.
func (t *Timer) Time(name, file string, fn func() string) {
	idx := t.BeginFile(name, file)
	t.End(idx, fn())
}

// Summary renders the phases summed per name in first-seen order.
func (t *Timer) Summary() string {
	report := t.Report()
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range report.Phases {
		fmt.Fprintf(&sb, "  %-20s %9.2f ms", p.Name, p.DurationMS)
		if p.Count > 1 {
			fmt.Fprintf(&sb, "  x%d", p.Count)
		}
		if p.Note != "" {
			sb.WriteString("  // " + p.Note)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "  %-20s %9.2f ms\n", "total", report.TotalMS)
	return sb.String()
}

// PhaseReport is the serialized total of one phase name.
type PhaseReport struct {
	Name       string  `json:"name" msgpack:"name"`
	DurationMS float64 `json:"duration_ms" msgpack:"duration_ms"`
	Count      int     `json:"count" msgpack:"count"`
	Note       string  `json:"note,omitempty" msgpack:"note,omitempty"`
}

type Report struct {
	TotalMS float64       `json:"total_ms" msgpack:"total_ms"`
	Phases  []PhaseReport `json:"phases" msgpack:"phases"`
	// Slowest lists the files with the longest phases, slowest first.
	Slowest []FileReport `json:"slowest,omitempty" msgpack:"slowest,omitempty"`
}

type FileReport struct {
	File       string  `json:"file" msgpack:"file"`
	Phase      string  `json:"phase" msgpack:"phase"`
	DurationMS float64 `json:"duration_ms" msgpack:"duration_ms"`
}

const slowestFiles = 5

func (t *Timer) Report() Report {
	t.mu.Lock()
	phases := slices.Clone(t.phases)
	t.mu.Unlock()
	if len(phases) == 0 {
		return Report{}
	}
	var report Report
	index := make(map[string]int)
	var total time.Duration
	for _, p := range phases {
		total += p.Dur
		i, ok := index[p.Name]
		if !ok {
			i = len(report.Phases)
			index[p.Name] = i
			report.Phases = append(report.Phases, PhaseReport{Name: p.Name})
		}
		pr := &report.Phases[i]
		pr.DurationMS += durationToMillis(p.Dur)
		pr.Count++
		if p.Note != "" && p.File == "" {
			pr.Note = p.Note
		}
	}
	report.TotalMS = durationToMillis(total)

	var files []Phase
	for _, p := range phases {
		if p.File != "" {
			files = append(files, p)
		}
	}
	slices.SortStableFunc(files, func(a, b Phase) int { return int(b.Dur - a.Dur) })
	for _, p := range files[:min(len(files), slowestFiles)] {
		report.Slowest = append(report.Slowest, FileReport{File: p.File, Phase: p.Name, DurationMS: durationToMillis(p.Dur)})
	}
	return report
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

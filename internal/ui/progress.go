package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"cppsema/internal/driver"
)

type progressModel struct {
	title    string
	events   <-chan driver.Event
	spinner  spinner.Model
	prog     progress.Model
	units    []unitRow
	index    map[string]int
	width    int
	finished int
	failed   int
	cached   int
	done     bool
	stopped  bool
}

type unitRow struct {
	path   string
	label  string
	stage  driver.Stage
	final  bool
	millis int64
}

type eventMsg driver.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that lists each translation
// unit with its current stage until events is closed.
func NewProgressModel(title string, files []string, events <-chan driver.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	prog.Width = 60

	units := make([]unitRow, len(files))
	index := make(map[string]int, len(files))
	for i, f := range files {
		units[i] = unitRow{path: f, label: string(driver.StatusQueued)}
		index[f] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		units:   units,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.apply(driver.Event(msg)), m.next())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.stopped = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = max(10, msg.Width-4)
		}
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

// Interrupted reports whether the user quit before every unit finished.
func (m *progressModel) Interrupted() bool { return m.stopped }

func (m *progressModel) next() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) apply(ev driver.Event) tea.Cmd {
	i, ok := m.index[ev.File]
	if !ok {
		return nil
	}
	row := &m.units[i]
	if row.final {
		return nil
	}
	row.stage = ev.Stage
	row.label = labelFor(ev.Stage, ev.Status)
	switch ev.Status {
	case driver.StatusDone, driver.StatusCached, driver.StatusError:
		row.final = true
		row.millis = ev.Elapsed.Milliseconds()
		m.finished++
		if ev.Status == driver.StatusError {
			m.failed++
		}
		if ev.Status == driver.StatusCached {
			m.cached++
		}
	}
	return m.prog.SetPercent(m.fraction())
}

// fraction weighs unfinished units by how far through the pipeline they are.
func (m *progressModel) fraction() float64 {
	if len(m.units) == 0 {
		return 1
	}
	total := 0.0
	for _, u := range m.units {
		if u.final {
			total++
			continue
		}
		total += stageWeight(u.stage)
	}
	return total / float64(len(m.units))
}

func stageWeight(s driver.Stage) float64 {
	switch s {
	case driver.StageTokenize:
		return 0.1
	case driver.StageParse:
		return 0.2
	case driver.StageResolve:
		return 0.5
	case driver.StageCheck:
		return 0.8
	}
	return 0
}

func labelFor(stage driver.Stage, status driver.Status) string {
	if status == driver.StatusWorking {
		switch stage {
		case driver.StageLoad:
			return "loading"
		case driver.StageTokenize:
			return "lexing"
		case driver.StageParse:
			return "parsing"
		case driver.StageResolve:
			return "resolving"
		case driver.StageCheck:
			return "checking"
		}
	}
	return string(status)
}

func (m *progressModel) View() string {
	var b strings.Builder
	head := fmt.Sprintf("%s  %d/%d", m.title, m.finished, len(m.units))
	if m.cached > 0 {
		head += fmt.Sprintf("  cached %d", m.cached)
	}
	if m.failed > 0 {
		head += fmt.Sprintf("  failed %d", m.failed)
	}
	if m.done {
		head = "done: " + head
	} else {
		head = m.spinner.View() + " " + head
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(head))
	b.WriteString("\n\n")

	nameWidth := max(20, m.width-20)
	for _, u := range m.units {
		label := labelStyle(u.label).Render(fmt.Sprintf("%10s", u.label))
		line := "  " + label + " " + truncate(u.path, nameWidth)
		if u.final && u.label != string(driver.StatusCached) {
			line += fmt.Sprintf("  %dms", u.millis)
		}
		b.WriteString(line + "\n")
	}
	b.WriteByte('\n')
	if m.done {
		b.WriteString(m.prog.ViewAs(1))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteByte('\n')
	return b.String()
}

func labelStyle(label string) lipgloss.Style {
	s := lipgloss.NewStyle()
	switch label {
	case string(driver.StatusDone):
		return s.Foreground(lipgloss.Color("2"))
	case string(driver.StatusCached):
		return s.Foreground(lipgloss.Color("4"))
	case string(driver.StatusError):
		return s.Foreground(lipgloss.Color("1"))
	case string(driver.StatusQueued):
		return s.Foreground(lipgloss.Color("8"))
	}
	return s.Foreground(lipgloss.Color("6"))
}

func truncate(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	// keep the tail: the file name matters more than the directory
	runes := []rune(s)
	for i := range runes {
		if tail := string(runes[i:]); runewidth.StringWidth(tail) <= width-3 {
			return "..." + tail
		}
	}
	return runewidth.Truncate(s, width, "")
}

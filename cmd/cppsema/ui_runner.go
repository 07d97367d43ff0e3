package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"cppsema/internal/driver"
	"cppsema/internal/ui"
)

type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch m := uiMode(strings.ToLower(strings.TrimSpace(value))); m {
	case "":
		return uiModeAuto, nil
	case uiModeAuto, uiModeOn, uiModeOff:
		return m, nil
	}
	return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
}

// useTUI decides whether the progress view runs. It never runs for a
// single file or when output is not a terminal in auto mode.
func useTUI(mode uiMode, out io.Writer, files int) bool {
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	}
	return files > 1 && isTerminal(out)
}

type analyzeOutcome struct {
	results []*driver.FileResult
	err     error
}

// analyzeWithUI runs the analysis in the background while the progress
// view consumes its events. The view exits when the event channel closes.
func analyzeWithUI(ctx context.Context, out io.Writer, files []string, opts driver.Options) ([]*driver.FileResult, error) {
	events := make(chan driver.Event, 256)
	outcome := make(chan analyzeOutcome, 1)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		opts.Progress = driver.ChannelSink{Ch: events}
		results, err := driver.AnalyzeFiles(ctx, files, &opts)
		close(events)
		outcome <- analyzeOutcome{results: results, err: err}
	}()

	program := tea.NewProgram(ui.NewProgressModel("analyzing", files, events), tea.WithOutput(out), tea.WithContext(ctx))
	final, uiErr := program.Run()
	if m, ok := final.(interface{ Interrupted() bool }); uiErr != nil || (ok && m.Interrupted()) {
		cancel()
	}
	// the view may stop reading early; drain so workers never block
	for range events {
	}
	res := <-outcome
	if uiErr != nil {
		return res.results, uiErr
	}
	return res.results, res.err
}

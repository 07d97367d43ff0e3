package main

import (
	"fmt"
	"io"

	"cppsema/internal/diag"
	"cppsema/internal/diagfmt"
	"cppsema/internal/source"
)

func (s *session) time(phase, file string, fn func()) {
	if s.timer == nil {
		fn()
		return
	}
	s.timer.Time(phase, file, func() string { fn(); return "" })
}

func (s *session) prettyOpts(w io.Writer) (diagfmt.PrettyOpts, error) {
	mode, err := diagfmt.ParsePathMode(s.cfg.Output.PathMode)
	if err != nil {
		return diagfmt.PrettyOpts{}, err
	}
	return diagfmt.PrettyOpts{
		Color:      s.color(w),
		Context:    s.cfg.Output.Context,
		PathMode:   mode,
		ShowNotes:  true,
		ShowFixes:  true,
		ShowMacros: true,
	}, nil
}

// printDiagnostics renders a bag in the configured format. With --quiet
// the bag loses everything below error severity.
func (s *session) printDiagnostics(w io.Writer, bag *diag.Bag, fs *source.FileSet) error {
	if bag.Len() == 0 {
		return nil
	}
	if s.quiet {
		bag.Filter(func(d diag.Diagnostic) bool { return d.Severity >= diag.SevError })
	}
	switch s.cfg.Output.Format {
	case "json":
		mode, err := diagfmt.ParsePathMode(s.cfg.Output.PathMode)
		if err != nil {
			return err
		}
		return diagfmt.JSON(w, bag, fs, diagfmt.JSONOpts{IncludePositions: true, PathMode: mode, IncludeNotes: true, IncludeFixes: true})
	case "short":
		if text := diag.FormatShortDiagnostics(bag.Items(), fs, !s.quiet); text != "" {
			_, err := fmt.Fprintln(w, text)
			return err
		}
		return nil
	}
	opts, err := s.prettyOpts(w)
	if err != nil {
		return err
	}
	return diagfmt.Pretty(w, bag, fs, opts)
}

func (s *session) printTimings(w io.Writer) {
	if s.timer == nil || s.quiet {
		return
	}
	fmt.Fprint(w, s.timer.Summary())
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"cppsema/internal/diag"
	"cppsema/internal/diagfmt"
	"cppsema/internal/driver"
	"cppsema/internal/fix"
)

func newDiagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diag [flags] [file.cpp|directory|glob]...",
		Short: "Report lexical, syntax and semantic problems",
		Long: `Diag analyzes every translation unit named on the command line, or the
[files].include patterns of cppsema.toml when none are given, and reports
the diagnostics of each`,
		RunE: withSession(runDiag),
	}
	cmd.Flags().String("format", "", "output format (pretty|json|short); defaults to [output].format")
	cmd.Flags().String("path-mode", "", "how paths are printed (auto|absolute|relative|basename)")
	cmd.Flags().StringSlice("exclude", nil, "glob patterns of files to skip")
	cmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
	cmd.Flags().Bool("no-cache", false, "bypass the on-disk result cache")
	cmd.Flags().Bool("clear-cache", false, "drop every cached result before analyzing")
	cmd.Flags().String("cache-dir", "", "cache directory (default: $XDG_CACHE_HOME/cppsema)")
	cmd.Flags().String("min-severity", "info", "hide diagnostics below this severity (info|warning|error)")
	cmd.Flags().Bool("fix", false, "apply every non-overlapping suggested fix to the sources")
	cmd.Flags().String("fix-id", "", "apply only the fix with this id (see --format json)")
	cmd.Flags().Bool("dry-run", false, "with --fix, print the rewritten files instead of writing them")
	return cmd
}

// fileDiagnostics is one file of the json output.
type fileDiagnostics struct {
	Path   string `json:"path"`
	Cached bool   `json:"cached,omitempty"`
	Error  string `json:"error,omitempty"`
	diagfmt.DiagnosticsOutput
}

type diagRunOutput struct {
	Files []fileDiagnostics `json:"files"`
	// Run holds diagnostics about the run itself, such as timings.
	Run *diagfmt.DiagnosticsOutput `json:"run,omitempty"`
}

func runDiag(cmd *cobra.Command, args []string, s *session) error {
	flags := cmd.Flags()
	for _, name := range []string{"format", "path-mode"} {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", name, err)
		}
		if name == "format" {
			s.cfg.Output.Format = v
		} else {
			s.cfg.Output.PathMode = v
		}
	}
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	minName, err := flags.GetString("min-severity")
	if err != nil {
		return fmt.Errorf("failed to get min-severity flag: %w", err)
	}
	minSev, err := diag.ParseSeverity(minName)
	if err != nil {
		return err
	}
	exclude, err := flags.GetStringSlice("exclude")
	if err != nil {
		return fmt.Errorf("failed to get exclude flag: %w", err)
	}
	uiValue, err := flags.GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	jobs, err := cmd.Root().PersistentFlags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}

	include := s.cfg.Files.Include
	if s.cfg.Path != "" {
		include = relativeTo(filepath.Dir(s.cfg.Path), include)
	}
	files, err := driver.DiscoverFiles(args, include, append(s.cfg.Files.Exclude, exclude...))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no C++ sources found")
	}

	cache, err := openCache(cmd, s)
	if err != nil {
		return err
	}
	opts := driver.Options{Config: s.cfg, Jobs: jobs, Cache: cache, Timer: s.timer}

	var results []*driver.FileResult
	if useTUI(mode, cmd.OutOrStdout(), len(files)) && s.cfg.Output.Format != "json" {
		results, err = analyzeWithUI(cmd.Context(), cmd.OutOrStdout(), files, opts)
	} else {
		results, err = driver.AnalyzeFiles(cmd.Context(), files, &opts)
	}
	if err != nil {
		return err
	}
	if minSev > diag.SevInfo {
		for _, r := range results {
			if r.Bag != nil {
				r.Bag.Filter(func(d diag.Diagnostic) bool { return d.Severity >= minSev })
			}
		}
	}
	reportErr := reportDiag(cmd, s, results)
	if err := applyFixes(cmd, results); err != nil {
		return err
	}
	return reportErr
}

func applyFixes(cmd *cobra.Command, results []*driver.FileResult) error {
	all, err := cmd.Flags().GetBool("fix")
	if err != nil {
		return fmt.Errorf("failed to get fix flag: %w", err)
	}
	id, err := cmd.Flags().GetString("fix-id")
	if err != nil {
		return fmt.Errorf("failed to get fix-id flag: %w", err)
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to get dry-run flag: %w", err)
	}
	if !all && id == "" {
		return nil
	}
	opts := fix.ApplyOptions{Mode: fix.ApplyModeAll, DryRun: dryRun}
	if id != "" {
		opts = fix.ApplyOptions{Mode: fix.ApplyModeID, TargetID: id, DryRun: dryRun}
	}
	errOut := cmd.ErrOrStderr()
	applied := 0
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		res, err := fix.Apply(r.FileSet, r.Bag.Items(), opts)
		if errors.Is(err, fix.ErrNoFixes) {
			continue
		}
		if err != nil {
			return err
		}
		applied += len(res.Applied)
		for _, sk := range res.Skipped {
			if sk.Reason != "fix id not found" {
				fmt.Fprintf(errOut, "skipped %s: %s\n", sk.ID, sk.Reason)
			}
		}
		for _, ch := range res.FileChanges {
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "--- %s (%d edits)\n%s", ch.Path, ch.EditCount, ch.Content)
			} else {
				fmt.Fprintf(errOut, "fixed %s (%d edits)\n", ch.Path, ch.EditCount)
			}
		}
	}
	if id != "" && applied == 0 {
		return fmt.Errorf("fix %q not found", id)
	}
	return nil
}

func openCache(cmd *cobra.Command, s *session) (*driver.DiskCache, error) {
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return nil, fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	clearCache, err := cmd.Flags().GetBool("clear-cache")
	if err != nil {
		return nil, fmt.Errorf("failed to get clear-cache flag: %w", err)
	}
	dir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return nil, fmt.Errorf("failed to get cache-dir flag: %w", err)
	}
	enabled := s.cfg.Files.Cache && !noCache
	if !enabled && !clearCache {
		return nil, nil
	}
	cache, err := driver.OpenDiskCache("cppsema", dir)
	if err != nil {
		// an unusable cache only costs speed
		if !s.quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "cppsema: cache disabled: %v\n", err)
		}
		return nil, nil
	}
	if clearCache {
		if err := cache.DropAll(); err != nil {
			return nil, fmt.Errorf("clearing cache: %w", err)
		}
	}
	if !enabled {
		return nil, nil
	}
	return cache, nil
}

func relativeTo(dir string, patterns []string) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		if filepath.IsAbs(p) {
			out[i] = p
		} else {
			out[i] = filepath.Join(dir, filepath.FromSlash(p))
		}
	}
	return out
}

func reportDiag(cmd *cobra.Command, s *session, results []*driver.FileResult) error {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	var errorsSeen, warnings, cached, failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		if r.Cached {
			cached++
		}
		for _, d := range r.Bag.Items() {
			switch {
			case d.Severity >= diag.SevError:
				errorsSeen++
			case d.Severity == diag.SevWarning:
				warnings++
			}
		}
	}

	if s.cfg.Output.Format == "json" {
		if err := writeDiagJSON(out, s, results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Err != nil {
				fmt.Fprintf(errOut, "cppsema: %v\n", r.Err)
				continue
			}
			if err := s.printDiagnostics(out, r.Bag, r.FileSet); err != nil {
				return err
			}
		}
		if !s.quiet {
			summary := fmt.Sprintf("%d files: %d errors, %d warnings", len(results), errorsSeen, warnings)
			if cached > 0 {
				summary += fmt.Sprintf(" (%d cached)", cached)
			}
			fmt.Fprintln(errOut, summary)
		}
		s.printTimings(errOut)
	}
	if errorsSeen > 0 || failed > 0 {
		return errReported
	}
	return nil
}

func writeDiagJSON(w io.Writer, s *session, results []*driver.FileResult) error {
	mode, err := diagfmt.ParsePathMode(s.cfg.Output.PathMode)
	if err != nil {
		return err
	}
	opts := diagfmt.JSONOpts{IncludePositions: true, PathMode: mode, IncludeNotes: !s.quiet, IncludeFixes: true}
	doc := diagRunOutput{Files: make([]fileDiagnostics, 0, len(results))}
	for _, r := range results {
		fd := fileDiagnostics{Path: r.Path, Cached: r.Cached}
		if r.Err != nil {
			fd.Error = r.Err.Error()
			fd.Diagnostics = []diagfmt.DiagnosticJSON{}
		} else {
			if s.quiet {
				r.Bag.Filter(func(d diag.Diagnostic) bool { return d.Severity >= diag.SevError })
			}
			fd.DiagnosticsOutput = diagfmt.BuildDiagnosticsOutput(r.Bag, r.FileSet, opts)
		}
		doc.Files = append(doc.Files, fd)
	}
	if s.timer != nil {
		run := diag.NewBag(1)
		driver.AppendTimingDiagnostic(run, s.timer.Report())
		out := diagfmt.BuildDiagnosticsOutput(run, nil, opts)
		doc.Run = &out
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

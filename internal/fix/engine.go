// Package fix applies the edits attached to diagnostics back to the files
// they came from.
package fix

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"

	"cppsema/internal/diag"
	"cppsema/internal/source"
)

// ErrNoFixes is returned when nothing was applied.
var ErrNoFixes = errors.New("no applicable fixes found")

type ApplyMode uint8

const (
	// ApplyModeOnce applies the first fix in source order.
	ApplyModeOnce ApplyMode = iota
	// ApplyModeAll applies every fix that does not overlap an earlier one.
	ApplyModeAll
	// ApplyModeID applies the fix whose ID is ApplyOptions.TargetID.
	ApplyModeID
)

type ApplyOptions struct {
	Mode     ApplyMode
	TargetID string
	// DryRun computes the result without writing files.
	DryRun bool
}

type AppliedFix struct {
	ID        string
	Title     string
	Code      diag.Code
	Path      string
	EditCount int
}

type SkippedFix struct {
	ID     string
	Title  string
	Reason string
}

// FileChange is the new content of one file.
type FileChange struct {
	Path      string
	EditCount int
	Content   []byte
}

type ApplyResult struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
}

type candidate struct {
	id   string
	code diag.Code
	at   source.Span
	fix  diag.Fix
}

// Apply selects fixes from diagnostics according to opts and rewrites the
// affected files. Fixes overlapping an already selected fix are skipped.
func Apply(fs *source.FileSet, diagnostics []diag.Diagnostic, opts ApplyOptions) (*ApplyResult, error) {
	res := &ApplyResult{}
	if fs == nil {
		return res, fmt.Errorf("fix: FileSet is nil")
	}
	cands := gather(diagnostics)
	if len(cands) == 0 {
		return res, ErrNoFixes
	}
	selected, skipped := selectCandidates(cands, opts)
	res.Skipped = append(res.Skipped, skipped...)

	perFile := make(map[source.FileID][]diag.FixEdit)
	for _, c := range selected {
		if reason := check(fs, c, perFile); reason != "" {
			res.Skipped = append(res.Skipped, SkippedFix{ID: c.id, Title: c.fix.Title, Reason: reason})
			continue
		}
		for _, e := range c.fix.Edits {
			perFile[e.Span.File] = append(perFile[e.Span.File], e)
		}
		res.Applied = append(res.Applied, AppliedFix{
			ID:        c.id,
			Title:     c.fix.Title,
			Code:      c.code,
			Path:      fs.Get(c.at.File).Path,
			EditCount: len(c.fix.Edits),
		})
	}
	if len(res.Applied) == 0 {
		return res, ErrNoFixes
	}

	files := make([]source.FileID, 0, len(perFile))
	for id := range perFile {
		files = append(files, id)
	}
	slices.Sort(files)
	for _, id := range files {
		f := fs.Get(id)
		change := FileChange{Path: f.Path, EditCount: len(perFile[id]), Content: rewrite(f.Content, perFile[id])}
		if !opts.DryRun {
			mode := os.FileMode(0o644)
			if info, err := os.Stat(f.Path); err == nil {
				mode = info.Mode()
			}
			if err := os.WriteFile(f.Path, change.Content, mode); err != nil {
				return res, fmt.Errorf("write %s: %w", f.Path, err)
			}
		}
		res.FileChanges = append(res.FileChanges, change)
	}
	return res, nil
}

// gather lists the fixes of diagnostics by the start of their diagnostic.
// Fixes starting at the same offset keep diagnostic order, so the earlier
// diagnostic wins an overlap.
func gather(diagnostics []diag.Diagnostic) []candidate {
	var cands []candidate
	for _, d := range diagnostics {
		for i, f := range d.Fixes {
			cands = append(cands, candidate{id: d.FixID(i), code: d.Code, at: d.Primary, fix: f})
		}
	}
	slices.SortStableFunc(cands, func(a, b candidate) int {
		if a.at.File != b.at.File {
			return cmp.Compare(a.at.File, b.at.File)
		}
		return cmp.Compare(a.at.Start, b.at.Start)
	})
	return cands
}

func selectCandidates(cands []candidate, opts ApplyOptions) ([]candidate, []SkippedFix) {
	switch opts.Mode {
	case ApplyModeAll:
		return cands, nil
	case ApplyModeID:
		for _, c := range cands {
			if c.id == opts.TargetID {
				return []candidate{c}, nil
			}
		}
		return nil, []SkippedFix{{ID: opts.TargetID, Reason: "fix id not found"}}
	}
	return cands[:1], nil
}

// check returns why c cannot be applied, or "".
func check(fs *source.FileSet, c candidate, taken map[source.FileID][]diag.FixEdit) string {
	if len(c.fix.Edits) == 0 {
		return "fix has no edits"
	}
	for _, e := range c.fix.Edits {
		if int(e.Span.File) >= fs.Len() {
			return "edit targets an unknown file"
		}
		f := fs.Get(e.Span.File)
		if f.Flags&source.FileVirtual != 0 {
			return "target file is virtual"
		}
		if e.Span.Start > e.Span.End || int(e.Span.End) > len(f.Content) {
			return "edit span out of range"
		}
		for _, prev := range taken[e.Span.File] {
			if overlaps(prev.Span, e.Span) {
				return "conflicts with a previously applied fix"
			}
		}
	}
	return ""
}

// overlaps treats spans as half-open; two insertions never conflict and an
// insertion conflicts only with a span strictly containing its position.
func overlaps(a, b source.Span) bool {
	switch {
	case a.Start == a.End && b.Start == b.End:
		return false
	case a.Start == a.End:
		return b.Start < a.Start && a.Start < b.End
	case b.Start == b.End:
		return a.Start < b.Start && b.Start < a.End
	}
	return a.Start < b.End && b.Start < a.End
}

// rewrite applies non-overlapping edits back to front.
func rewrite(content []byte, edits []diag.FixEdit) []byte {
	edits = slices.Clone(edits)
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].Span.Start > edits[j].Span.Start })
	out := slices.Clone(content)
	for _, e := range edits {
		out = slices.Concat(out[:e.Span.Start], []byte(e.NewText), out[e.Span.End:])
	}
	return out
}

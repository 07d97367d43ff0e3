package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"cppsema/internal/diag"
	"cppsema/internal/source"
)

type palette struct {
	err, warn, info, note *color.Color
	code, gutter, caret   *color.Color
	fix                   *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		err:    mk(color.FgRed, color.Bold),
		warn:   mk(color.FgYellow, color.Bold),
		info:   mk(color.FgCyan, color.Bold),
		note:   mk(color.FgBlue, color.Bold),
		code:   mk(color.Faint),
		gutter: mk(color.FgBlue),
		caret:  mk(color.FgGreen, color.Bold),
		fix:    mk(color.FgGreen),
	}
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty writes the diagnostics of bag as
//
//	path:line:col: error SEM3001: message
//	   3 | int y = countr;
//	     |         ^~~~~~
//	  note: path:line:col: did you mean 'counter'?
//
// in the bag's current order; call bag.Sort first for a stable listing.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		if err := prettyOne(w, d, fs, opts, p); err != nil {
			return err
		}
	}
	return nil
}

func prettyOne(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p palette) error {
	var sb strings.Builder
	sev := d.Severity.Label()
	sb.WriteString(location(d.Primary, fs, opts.PathMode))
	sb.WriteString(": ")
	sb.WriteString(p.severity(d.Severity).Sprint(sev))
	sb.WriteString(" " + p.code.Sprint(d.Code.ID()) + ": ")
	sb.WriteString(d.Message)
	sb.WriteByte('\n')

	if valid(d.Primary, fs) {
		excerpt(&sb, d.Primary, fs, opts.Context, p)
		if opts.ShowMacros {
			macroNote(&sb, d.Primary, fs, opts.PathMode, p)
		}
	}
	if opts.ShowNotes {
		for _, n := range d.Notes {
			sb.WriteString("  " + p.note.Sprint("note") + ": ")
			if valid(n.Span, fs) && n.Span != d.Primary {
				sb.WriteString(location(n.Span, fs, opts.PathMode) + ": ")
			}
			sb.WriteString(n.Msg)
			sb.WriteByte('\n')
		}
	}
	if opts.ShowFixes {
		for _, f := range d.Fixes {
			sb.WriteString("  " + p.fix.Sprint("fix") + ": " + f.Title + "\n")
			for _, e := range f.Edits {
				if !valid(e.Span, fs) {
					continue
				}
				fmt.Fprintf(&sb, "    %s: %q -> %q\n", location(e.Span, fs, opts.PathMode), fs.Text(e.Span), e.NewText)
			}
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func valid(sp source.Span, fs *source.FileSet) bool {
	return fs != nil && int(sp.File) < fs.Len() && int(sp.End) <= len(fs.Get(sp.File).Content)
}

func location(sp source.Span, fs *source.FileSet, mode PathMode) string {
	if !valid(sp, fs) {
		return "<unknown>"
	}
	start, _ := fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", formatPath(fs.Get(sp.File), fs, mode), start.Line, start.Col)
}

// excerpt prints the primary line, up to context lines above it, and a
// caret underline. Columns are display columns: wide runes count twice
// and tabs are kept so the underline lines up in a terminal.
func excerpt(sb *strings.Builder, sp source.Span, fs *source.FileSet, context int, p palette) {
	f := fs.Get(sp.File)
	start, end := fs.Resolve(sp)
	first := max(1, int(start.Line)-context)
	width := len(strconv.Itoa(int(start.Line)))
	blank := strings.Repeat(" ", width)
	for ln := first; ln <= int(start.Line); ln++ {
		text := f.GetLine(uint32(ln)) //nolint:gosec // ln <= start.Line
		fmt.Fprintf(sb, " %s %s %s\n", p.gutter.Sprintf("%*d", width, ln), p.gutter.Sprint("|"), text)
	}
	line := f.GetLine(start.Line)
	col := min(int(start.Col)-1, len(line))
	stop := len(line)
	if end.Line == start.Line {
		stop = min(int(end.Col)-1, len(line))
	}
	fmt.Fprintf(sb, " %s %s %s%s\n", blank, p.gutter.Sprint("|"), padTo(line[:col]), p.caret.Sprint(underline(line[col:max(col, stop)])))
}

func padTo(prefix string) string {
	var sb strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			sb.WriteByte('\t')
			continue
		}
		sb.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return sb.String()
}

func underline(text string) string {
	n := runewidth.StringWidth(text)
	if n <= 1 {
		return "^"
	}
	return "^" + strings.Repeat("~", n-1)
}

func macroNote(sb *strings.Builder, sp source.Span, fs *source.FileSet, mode PathMode, p palette) {
	exp, ok := fs.Expansions(sp.File).Lookup(sp.Start)
	if !ok {
		return
	}
	name := fs.Text(exp.Use)
	fmt.Fprintf(sb, "  %s: in expansion of macro '%s' defined at %s\n", p.note.Sprint("note"), name, location(exp.Def, fs, mode))
}

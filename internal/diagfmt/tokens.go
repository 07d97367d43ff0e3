package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"cppsema/internal/source"
	"cppsema/internal/token"
)

type TokenOutput struct {
	Kind    string   `json:"kind"`
	Text    string   `json:"text,omitempty"`
	Start   uint32   `json:"start"`
	End     uint32   `json:"end"`
	Macro   string   `json:"macro,omitempty"`
	Leading []string `json:"leading,omitempty"`
}

func leadingKinds(tok token.Token) []string {
	if len(tok.Leading) == 0 {
		return nil
	}
	out := make([]string, len(tok.Leading))
	for i, tr := range tok.Leading {
		out[i] = tr.Kind.String()
		if tr.Directive != nil {
			out[i] += ":" + tr.Directive.Name
		}
	}
	return out
}

// macroName is the spelling at the use site of an expanded token.
func macroName(tok token.Token, fs *source.FileSet) string {
	if tok.Macro == source.NoStringID || !valid(tok.Span, fs) {
		return ""
	}
	return fs.Text(tok.Span)
}

// FormatTokensPretty prints one token per line, stopping after EOF.
func FormatTokensPretty(w io.Writer, tokens []token.Token, fs *source.FileSet) error {
	for i, tok := range tokens {
		start, end := fs.Resolve(tok.Span)
		var sb strings.Builder
		fmt.Fprintf(&sb, "%4d: %-16s", i+1, tok.Kind.String())
		if tok.Text != "" {
			fmt.Fprintf(&sb, " %q", tok.Text)
		}
		fmt.Fprintf(&sb, " at %d:%d-%d:%d", start.Line, start.Col, end.Line, end.Col)
		if m := macroName(tok, fs); m != "" {
			sb.WriteString(" from macro " + m)
		}
		if lead := leadingKinds(tok); len(lead) > 0 {
			sb.WriteString(" (leading: " + strings.Join(lead, ", ") + ")")
		}
		sb.WriteByte('\n')
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
		if tok.Kind == token.EOF {
			break
		}
	}
	return nil
}

func FormatTokensJSON(w io.Writer, tokens []token.Token, fs *source.FileSet) error {
	out := make([]TokenOutput, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, TokenOutput{
			Kind:    tok.Kind.String(),
			Text:    tok.Text,
			Start:   tok.Span.Start,
			End:     tok.Span.End,
			Macro:   macroName(tok, fs),
			Leading: leadingKinds(tok),
		})
		if tok.Kind == token.EOF {
			break
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

package lexer

import (
	"cppsema/internal/diag"
	"cppsema/internal/source"
)

type Options struct {
	Reporter diag.Reporter // may be nil; lexing continues after errors either way
	// GNU enables __typeof__, __attribute__ and __restrict.
	GNU bool
	// MaxTokenLength reports tokens longer than this; 0 disables the check.
	MaxTokenLength int
	// Interner receives macro names; Tokenize creates a private one when nil.
	Interner *source.Interner
	// Expansions, when set, records every object-like macro use.
	Expansions *source.Expansions
}

func (lx *Lexer) errLex(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter != nil {
		diag.ReportError(lx.opts.Reporter, code, sp, msg).Emit()
	}
}

func (lx *Lexer) warnLex(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter != nil {
		diag.ReportWarning(lx.opts.Reporter, code, sp, msg).Emit()
	}
}

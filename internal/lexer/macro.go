package lexer

import (
	"cppsema/internal/diag"
	"cppsema/internal/source"
	"cppsema/internal/token"
)

type macro struct {
	name source.StringID
	def  source.Span // replacement list
	body []token.Token
}

// macroTable holds the object-like macros defined so far in one file.
type macroTable struct {
	file   *source.File
	opts   Options
	byName map[string]*macro
}

// Tokenize lexes the whole file and expands object-like macros. Each
// replacement token keeps the span of the macro name at the use site and
// Token.Macro names the macro it came from. Function-like macros are
// recognized but left unexpanded.
func Tokenize(file *source.File, opts Options) []token.Token {
	if opts.Interner == nil {
		opts.Interner = source.NewInterner()
	}
	lx := New(file, opts)
	mt := &macroTable{file: file, opts: opts, byName: make(map[string]*macro)}

	out := make([]token.Token, 0, len(file.Content)/4)
	for {
		tok := lx.Next()
		mt.apply(tok.Leading)
		if tok.Kind == token.Ident {
			if m, ok := mt.byName[tok.Text]; ok {
				out = mt.expand(out, tok, m)
				continue
			}
		}
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

// apply processes #define and #undef lines in trivia order.
func (mt *macroTable) apply(trivia []token.Trivia) {
	for _, tr := range trivia {
		if tr.Kind != token.TriviaDirective || tr.Directive == nil {
			continue
		}
		switch tr.Directive.Name {
		case "define":
			mt.define(tr)
		case "undef":
			delete(mt.byName, tr.Directive.Payload)
		}
	}
}

func (mt *macroTable) define(tr token.Trivia) {
	body := tr.Directive.Body
	content := mt.file.Content
	i := body.Start
	for i < body.End && isIdentContinueByte(content[i]) {
		i++
	}
	if i == body.Start {
		if mt.opts.Reporter != nil {
			diag.ReportWarning(mt.opts.Reporter, diag.LexBadDirective, tr.Span, "#define without a macro name").Emit()
		}
		return
	}
	name := string(content[body.Start:i])
	if i < body.End && content[i] == '(' {
		// function-like
		delete(mt.byName, name)
		return
	}
	for i < body.End && (content[i] == ' ' || content[i] == '\t') {
		i++
	}
	def := source.Span{File: body.File, Start: i, End: body.End}
	sub := newRangeLexer(mt.file, def, mt.opts)
	var toks []token.Token
	for {
		t := sub.Next()
		if t.Kind == token.EOF {
			break
		}
		t.Leading = nil
		toks = append(toks, t)
	}
	if prev, ok := mt.byName[name]; ok && !sameReplacement(prev.body, toks) && mt.opts.Reporter != nil {
		diag.ReportWarning(mt.opts.Reporter, diag.LexMacroRedefined, tr.Span, "macro '"+name+"' redefined").
			WithNote(prev.def, "previous definition is here").
			Emit()
	}
	mt.byName[name] = &macro{name: mt.opts.Interner.Intern(name), def: def, body: toks}
}

func (mt *macroTable) expand(out []token.Token, use token.Token, m *macro) []token.Token {
	if mt.opts.Expansions != nil {
		mt.opts.Expansions.Record(source.Expansion{Macro: m.name, Use: use.Span, Def: m.def})
	}
	first := len(out)
	out = mt.expandBody(out, use, m, map[string]bool{mt.opts.Interner.MustLookup(m.name): true})
	if len(out) > first {
		out[first].Leading = use.Leading
	}
	return out
}

// expandBody rescans the replacement list; a macro is not re-expanded
// inside its own expansion.
func (mt *macroTable) expandBody(out []token.Token, use token.Token, m *macro, active map[string]bool) []token.Token {
	for _, t := range m.body {
		if t.Kind == token.Ident && !active[t.Text] {
			if inner, ok := mt.byName[t.Text]; ok {
				active[t.Text] = true
				out = mt.expandBody(out, use, inner, active)
				delete(active, t.Text)
				continue
			}
		}
		t.Span = use.Span
		t.Macro = m.name
		out = append(out, t)
	}
	return out
}

func sameReplacement(a, b []token.Token) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Kind != b[i].Kind || a[i].Text != b[i].Text {
			return false
		}
	}
	return true
}

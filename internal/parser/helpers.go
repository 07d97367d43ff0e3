package parser

import (
	"fmt"

	"cppsema/internal/ast"
	"cppsema/internal/diag"
	"cppsema/internal/source"
	"cppsema/internal/token"
)

func (p *Parser) peek() token.Token {
	return p.toks[p.pos]
}

func (p *Parser) peekN(n int) token.Token {
	if p.pos+n < len(p.toks) {
		return p.toks[p.pos+n]
	}
	return p.toks[len(p.toks)-1]
}

func (p *Parser) at(k token.Kind) bool {
	return p.toks[p.pos].Kind == k
}

func (p *Parser) atOr(kinds ...token.Kind) bool {
	cur := p.toks[p.pos].Kind
	for _, k := range kinds {
		if cur == k {
			return true
		}
	}
	return false
}

// advance consumes the current token and updates lastSpan.
func (p *Parser) advance() token.Token {
	tok := p.toks[p.pos]
	if tok.Kind != token.EOF {
		p.pos++
		p.lastSpan = tok.Span
	}
	return tok
}

func (p *Parser) eat(k token.Kind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

// getDiagnosticSpan returns the best span to attach an error to: the
// current token, or the point after the last consumed token at EOF.
func (p *Parser) getDiagnosticSpan() source.Span {
	peek := p.peek()
	if peek.Kind == token.EOF && p.lastSpan.End > 0 {
		return source.Span{File: p.lastSpan.File, Start: p.lastSpan.End, End: p.lastSpan.End}
	}
	return peek.Span
}

// expect consumes a token of kind k or reports code.
func (p *Parser) expect(k token.Kind, code diag.Code, msg string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	p.err(code, msg)
	return token.Token{Kind: token.Invalid, Span: p.getDiagnosticSpan()}, false
}

// expectGt closes a template argument or parameter list, splitting '>>'.
func (p *Parser) expectGt() bool {
	if p.at(token.Gt) {
		p.advance()
		return true
	}
	if p.at(token.Shr) {
		p.splitShr()
		p.advance()
		return true
	}
	p.err(diag.SynUnclosedAngle, "expected '>'")
	return false
}

// splitShr turns the current '>>' into two '>' tokens.
func (p *Parser) splitShr() {
	tok := p.toks[p.pos]
	first := token.Token{Kind: token.Gt, Text: ">", Leading: tok.Leading, Macro: tok.Macro,
		Span: source.Span{File: tok.Span.File, Start: tok.Span.Start, End: tok.Span.Start + 1}}
	second := token.Token{Kind: token.Gt, Text: ">", Macro: tok.Macro,
		Span: source.Span{File: tok.Span.File, Start: tok.Span.Start + 1, End: tok.Span.End}}
	if tok.Macro != 0 {
		first.Span, second.Span = tok.Span, tok.Span
	}
	p.splits = append(p.splits, split{pos: p.pos, orig: tok})
	p.toks = append(p.toks, token.Token{})
	copy(p.toks[p.pos+2:], p.toks[p.pos+1:])
	p.toks[p.pos] = first
	p.toks[p.pos+1] = second
}

func (p *Parser) err(code diag.Code, msg string) bool {
	return p.report(code, diag.SevError, p.getDiagnosticSpan(), msg)
}

func (p *Parser) errAt(code diag.Code, sp source.Span, msg string) bool {
	return p.report(code, diag.SevError, sp, msg)
}

// report records a syntax problem. While parsing tentatively nothing is
// reported; the attempt is marked failed instead.
func (p *Parser) report(code diag.Code, sev diag.Severity, sp source.Span, msg string) bool {
	if p.trial > 0 {
		if sev >= diag.SevError {
			p.failed = true
		}
		return false
	}
	if p.opts.Reporter == nil {
		if sev >= diag.SevError {
			p.opts.CurrentErrors++
		}
		return false
	}
	if p.opts.Enough() {
		return false
	}
	if sev >= diag.SevError {
		p.opts.CurrentErrors++
	}
	b := diag.NewReportBuilder(p.opts.Reporter, sev, code, sp, msg)
	if tok := p.peek(); tok.Macro != 0 && p.opts.Expansions != nil && tok.Span == sp {
		if exp, ok := p.opts.Expansions.Lookup(sp.Start); ok {
			name, _ := p.b.Strings.Lookup(exp.Macro)
			b.WithNote(exp.Def, fmt.Sprintf("in expansion of macro '%s'", name))
		}
	}
	b.Emit()
	return true
}

// resync skips tokens until one of stop at the current nesting depth.
func (p *Parser) resync(stop ...token.Kind) {
	depth := 0
	for !p.at(token.EOF) {
		if depth == 0 && p.atOr(stop...) {
			return
		}
		switch p.peek().Kind {
		case token.LParen, token.LBrace, token.LBracket:
			depth++
		case token.RParen, token.RBrace, token.RBracket:
			if depth == 0 {
				return
			}
			depth--
		}
		p.advance()
	}
}

// recoverFrom resumes after a construct that consumed nothing at before:
// it skips to the next ';' or '}' at the current depth and always moves
// past at least one token.
func (p *Parser) recoverFrom(before int) {
	p.resync(token.Semicolon, token.RBrace)
	p.eat(token.Semicolon)
	if p.pos == before {
		p.advance()
	}
}

// skipBalanced consumes a balanced (...) group starting at the current '('.
func (p *Parser) skipBalanced(open, close token.Kind) {
	depth := 0
	for !p.at(token.EOF) {
		switch p.peek().Kind {
		case open:
			depth++
		case close:
			depth--
		}
		p.advance()
		if depth == 0 {
			return
		}
	}
}

// skipAttributes drops [[...]] and GNU __attribute__((...)) sequences.
func (p *Parser) skipAttributes() {
	for {
		switch {
		case p.at(token.LBracket) && p.peekN(1).Kind == token.LBracket:
			p.skipBalanced(token.LBracket, token.RBracket)
		case p.at(token.KwAttribute):
			p.advance()
			if p.at(token.LParen) {
				p.skipBalanced(token.LParen, token.RParen)
			}
		case p.at(token.KwAlignas):
			p.advance()
			if p.at(token.LParen) {
				p.skipBalanced(token.LParen, token.RParen)
			}
		default:
			return
		}
	}
}

func (p *Parser) spanFrom(start source.Span) source.Span {
	end := p.lastSpan.End
	if end < start.Start || p.lastSpan.File != start.File {
		end = start.End
	}
	return source.Span{File: start.File, Start: start.Start, End: end}
}

// finish sets the span of id from start to the last consumed token.
func (p *Parser) finish(id ast.NodeID, start source.Span) ast.NodeID {
	if n := p.b.Node(id); n != nil {
		n.Span = p.spanFrom(start)
	}
	return id
}

func (p *Parser) node(kind ast.NodeKind, start source.Span, kids ...ast.NodeID) ast.NodeID {
	id := p.b.NewNode(kind, start)
	for _, k := range kids {
		p.b.AddKid(id, k)
	}
	return p.finish(id, start)
}

func (p *Parser) intern(s string) source.StringID {
	return p.b.Strings.Intern(s)
}

func describe(tok token.Token) string {
	switch tok.Kind {
	case token.EOF:
		return "end of file"
	case token.Ident:
		return fmt.Sprintf("identifier '%s'", tok.Text)
	}
	if tok.Text != "" {
		return fmt.Sprintf("'%s'", tok.Text)
	}
	return tok.Kind.String()
}

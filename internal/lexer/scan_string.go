package lexer

import (
	"cppsema/internal/diag"
	"cppsema/internal/token"
)

// scanString scans a string literal whose encoding prefix (if any) starts at
// start. The cursor sits on the opening quote.
func (lx *Lexer) scanString(start Mark, raw bool) token.Token {
	lx.cursor.Bump() // '"'
	if raw {
		return lx.scanRawString(start)
	}
	for {
		b := lx.cursor.Peek()
		switch {
		case lx.cursor.EOF() || b == '\n':
			sp := lx.cursor.SpanFrom(start)
			lx.errLex(diag.LexUnterminatedString, sp, "unterminated string literal")
			return token.Token{Kind: token.StringLit, Span: sp, Text: lx.text(sp)}
		case b == '\\':
			lx.cursor.Bump()
			lx.cursor.Bump()
		case b == '"':
			lx.cursor.Bump()
			lx.scanUDSuffix()
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: token.StringLit, Span: sp, Text: lx.text(sp)}
		default:
			lx.cursor.Bump()
		}
	}
}

// scanRawString handles R"delim( ... )delim".
func (lx *Lexer) scanRawString(start Mark) token.Token {
	delimStart := lx.cursor.Off
	for !lx.cursor.EOF() && lx.cursor.Peek() != '(' && lx.cursor.Peek() != '\n' {
		lx.cursor.Bump()
	}
	delim := ")" + string(lx.file.Content[delimStart:lx.cursor.Off]) + "\""
	if !lx.cursor.Eat('(') {
		sp := lx.cursor.SpanFrom(start)
		lx.errLex(diag.LexUnterminatedString, sp, "raw string literal without '('")
		return token.Token{Kind: token.StringLit, Span: sp, Text: lx.text(sp)}
	}
	for !lx.cursor.EOF() {
		if lx.cursor.Peek() == ')' && lx.hasPrefix(delim) {
			lx.cursor.Off += uint32(len(delim)) //nolint:gosec // delimiter is bounded by the line
			lx.scanUDSuffix()
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: token.StringLit, Span: sp, Text: lx.text(sp)}
		}
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	lx.errLex(diag.LexUnterminatedString, sp, "unterminated raw string literal")
	return token.Token{Kind: token.StringLit, Span: sp, Text: lx.text(sp)}
}

func (lx *Lexer) scanChar(start Mark) token.Token {
	lx.cursor.Bump() // '\''
	for {
		b := lx.cursor.Peek()
		switch {
		case lx.cursor.EOF() || b == '\n':
			sp := lx.cursor.SpanFrom(start)
			lx.errLex(diag.LexUnterminatedChar, sp, "unterminated character literal")
			return token.Token{Kind: token.CharLit, Span: sp, Text: lx.text(sp)}
		case b == '\\':
			lx.cursor.Bump()
			lx.cursor.Bump()
		case b == '\'':
			lx.cursor.Bump()
			lx.scanUDSuffix()
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: token.CharLit, Span: sp, Text: lx.text(sp)}
		default:
			lx.cursor.Bump()
		}
	}
}

// scanUDSuffix consumes a user-defined literal suffix such as _km.
func (lx *Lexer) scanUDSuffix() {
	if lx.cursor.Peek() != '_' {
		return
	}
	for isIdentContinueByte(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
}

func (lx *Lexer) hasPrefix(s string) bool {
	end := int(lx.cursor.Off) + len(s)
	if end > int(lx.cursor.Limit) {
		return false
	}
	return string(lx.file.Content[lx.cursor.Off:end]) == s
}

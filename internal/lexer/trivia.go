package lexer

import (
	"strings"

	"cppsema/internal/diag"
	"cppsema/internal/source"
	"cppsema/internal/token"
)

// collectLeadingTrivia gathers whitespace, comments and preprocessor lines
// in front of the next significant token.
func (lx *Lexer) collectLeadingTrivia() {
	lx.hold = lx.hold[:0]
	for !lx.cursor.EOF() {
		start := lx.cursor.Mark()
		b := lx.cursor.Peek()

		switch {
		case b == ' ' || b == '\t' || b == '\v' || b == '\f' || b == '\r':
			for {
				b2 := lx.cursor.Peek()
				if b2 != ' ' && b2 != '\t' && b2 != '\v' && b2 != '\f' && b2 != '\r' {
					break
				}
				lx.cursor.Bump()
			}
			lx.pushTrivia(token.TriviaSpace, start)
			continue

		case b == '\\' && lx.cursor.PeekAt(1) == '\n':
			// line splice outside a directive
			lx.cursor.Off += 2
			lx.pushTrivia(token.TriviaSpace, start)
			continue

		case b == '\n':
			for lx.cursor.Peek() == '\n' {
				lx.cursor.Bump()
			}
			lx.pushTrivia(token.TriviaNewline, start)
			lx.atLineStart = true
			continue

		case b == '/':
			if lx.scanCommentIntoHold() {
				continue
			}

		case b == '#' && lx.atLineStart:
			lx.scanDirectiveIntoHold()
			continue
		}
		break
	}
}

func (lx *Lexer) pushTrivia(kind token.TriviaKind, start Mark) {
	sp := lx.cursor.SpanFrom(start)
	lx.hold = append(lx.hold, token.Trivia{Kind: kind, Span: sp, Text: lx.text(sp)})
}

// scanCommentIntoHold handles // and /* */; C++ block comments do not nest.
func (lx *Lexer) scanCommentIntoHold() bool {
	start := lx.cursor.Mark()
	switch lx.cursor.PeekAt(1) {
	case '/':
		lx.cursor.Off += 2
		for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
			lx.cursor.Bump()
		}
		lx.pushTrivia(token.TriviaLineComment, start)
		return true
	case '*':
		lx.cursor.Off += 2
		closed := false
		for !lx.cursor.EOF() {
			if lx.try2('*', '/') {
				closed = true
				break
			}
			lx.cursor.Bump()
		}
		if !closed {
			lx.errLex(diag.LexUnterminatedBlockComment, lx.cursor.SpanFrom(start), "unterminated block comment")
		}
		lx.pushTrivia(token.TriviaBlockComment, start)
		return true
	}
	return false
}

// scanDirectiveIntoHold consumes a whole preprocessor line including
// backslash continuations and records it as TriviaDirective.
func (lx *Lexer) scanDirectiveIntoHold() {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // '#'
	for {
		b := lx.cursor.Peek()
		if b != ' ' && b != '\t' {
			break
		}
		lx.cursor.Bump()
	}
	nameStart := lx.cursor.Off
	for isIdentContinueByte(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	name := string(lx.file.Content[nameStart:lx.cursor.Off])
	for {
		b := lx.cursor.Peek()
		if b != ' ' && b != '\t' {
			break
		}
		lx.cursor.Bump()
	}
	bodyStart := lx.cursor.Off
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if b == '\\' && lx.cursor.PeekAt(1) == '\n' {
			lx.cursor.Off += 2
			continue
		}
		if b == '\n' {
			break
		}
		if b == '/' && (lx.cursor.PeekAt(1) == '/' || lx.cursor.PeekAt(1) == '*') {
			break
		}
		lx.cursor.Bump()
	}
	bodyEnd := lx.cursor.Off
	for bodyEnd > bodyStart && (lx.file.Content[bodyEnd-1] == ' ' || lx.file.Content[bodyEnd-1] == '\t') {
		bodyEnd--
	}
	body := source.Span{File: lx.file.ID, Start: bodyStart, End: bodyEnd}
	sp := lx.cursor.SpanFrom(start)
	if name == "" && bodyEnd > bodyStart {
		lx.warnLex(diag.LexBadDirective, sp, "malformed preprocessor directive")
	}
	lx.hold = append(lx.hold, token.Trivia{
		Kind: token.TriviaDirective,
		Span: sp,
		Text: lx.text(sp),
		Directive: &token.Directive{
			Name:    name,
			Payload: strings.TrimSpace(string(lx.file.Content[body.Start:body.End])),
			Body:    body,
		},
	})
	// a trailing comment on the directive line is still part of the line
	for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
		if !lx.scanCommentIntoHold() {
			lx.cursor.Bump()
		}
	}
}

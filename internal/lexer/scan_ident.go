package lexer

import (
	"golang.org/x/text/unicode/norm"

	"cppsema/internal/diag"
	"cppsema/internal/token"
)

// encoding prefixes that turn a following quote into a literal
var literalPrefixes = map[string]bool{
	"L": true, "u": true, "U": true, "u8": true,
	"R": true, "LR": true, "uR": true, "UR": true, "u8R": true,
}

// scanIdentOrKeyword scans an identifier, keyword or prefixed literal.
// Non-ASCII identifiers are normalized to NFC so that differently encoded
// spellings of one name intern to the same StringID.
func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()
	ascii := true
	for {
		r, sz := lx.peekRune()
		if sz == 0 {
			break
		}
		if r < utf8RuneSelf {
			if !isIdentContinueByte(byte(r)) {
				break
			}
			lx.cursor.Bump()
			continue
		}
		if (lx.cursor.Off == uint32(start) && !isIdentStartRune(r)) || !isIdentContinueRune(r) {
			break
		}
		ascii = false
		lx.bumpRune()
	}

	sp := lx.cursor.SpanFrom(start)
	if sp.Empty() {
		lx.cursor.Bump()
		sp = lx.cursor.SpanFrom(start)
		lx.errLex(diag.LexUnknownChar, sp, "unknown character")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
	}
	text := lx.text(sp)

	if literalPrefixes[text] {
		switch lx.cursor.Peek() {
		case '"':
			raw := text[len(text)-1] == 'R'
			return lx.scanString(start, raw)
		case '\'':
			if text[len(text)-1] != 'R' {
				return lx.scanChar(start)
			}
		}
	}

	if !ascii {
		text = norm.NFC.String(text)
	}
	if k, ok := token.LookupKeyword(text, lx.opts.GNU); ok {
		return token.Token{Kind: k, Span: sp, Text: text}
	}
	return token.Token{Kind: token.Ident, Span: sp, Text: text}
}

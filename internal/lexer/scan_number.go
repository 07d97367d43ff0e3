package lexer

import (
	"strings"

	"cppsema/internal/diag"
	"cppsema/internal/token"
)

// scanNumber scans a pp-number and classifies it as an integer or floating
// literal. Digit separators (') and suffixes stay in Token.Text.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	for {
		b := lx.cursor.Peek()
		switch {
		case isIdentContinueByte(b) || b == '.':
			lx.cursor.Bump()
			if (b == 'e' || b == 'E' || b == 'p' || b == 'P') && (lx.cursor.Peek() == '+' || lx.cursor.Peek() == '-') {
				lx.cursor.Bump()
			}
		case b == '\'' && isHex(lx.cursor.PeekAt(1)):
			lx.cursor.Bump()
		default:
			sp := lx.cursor.SpanFrom(start)
			text := lx.text(sp)
			kind, ok := classifyNumber(text)
			if !ok {
				lx.errLex(diag.LexBadNumber, sp, "malformed number literal '"+text+"'")
			}
			return token.Token{Kind: kind, Span: sp, Text: text}
		}
	}
}

func classifyNumber(text string) (token.Kind, bool) {
	s := strings.ReplaceAll(text, "'", "")
	lower := strings.ToLower(s)
	hex := strings.HasPrefix(lower, "0x")
	bin := strings.HasPrefix(lower, "0b")

	var float bool
	switch {
	case hex:
		float = strings.ContainsAny(lower, ".p")
	case bin:
		float = false
	default:
		float = strings.ContainsAny(lower, ".e")
	}

	if float {
		body := strings.TrimRight(lower, "fl")
		if len(lower)-len(body) > 1 {
			return token.FloatLit, false
		}
		return token.FloatLit, validFloatBody(body, hex)
	}

	body := strings.TrimRight(lower, "ulz")
	suffix := lower[len(body):]
	switch suffix {
	case "", "u", "l", "ul", "lu", "ll", "ull", "llu", "z", "uz", "zu":
	default:
		return token.IntLit, false
	}
	switch {
	case hex:
		return token.IntLit, len(body) > 2 && allOf(body[2:], isHex)
	case bin:
		return token.IntLit, len(body) > 2 && allOf(body[2:], func(b byte) bool { return b == '0' || b == '1' })
	case len(body) > 1 && body[0] == '0':
		return token.IntLit, allOf(body[1:], func(b byte) bool { return b >= '0' && b <= '7' })
	default:
		return token.IntLit, body != "" && allOf(body, isDec)
	}
}

func validFloatBody(body string, hex bool) bool {
	if hex {
		return strings.Contains(body, "p")
	}
	mant, exp, hasExp := strings.Cut(body, "e")
	if hasExp {
		exp = strings.TrimLeft(exp, "+-")
		if exp == "" || !allOf(exp, isDec) {
			return false
		}
	}
	whole, frac, _ := strings.Cut(mant, ".")
	return whole+frac != "" && allOf(whole, isDec) && allOf(frac, isDec)
}

func allOf(s string, pred func(byte) bool) bool {
	for i := 0; i < len(s); i++ {
		if !pred(s[i]) {
			return false
		}
	}
	return true
}

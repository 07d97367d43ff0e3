package sema

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"cppsema/internal/types"
)

// intLiteral decodes an integer literal and picks its type from the suffix
// and the value: decimal literals without a 'u' suffix stay signed, octal,
// hexadecimal and binary literals may become unsigned.
func intLiteral(text string) (uint64, types.Basic, bool) {
	text = strings.ReplaceAll(text, "'", "")
	end := len(text)
	for end > 0 && strings.ContainsRune("uUlLzZ", rune(text[end-1])) {
		end--
	}
	digits, suffix := text[:end], strings.ToLower(text[end:])
	base := 10
	switch {
	case strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X"):
		base, digits = 16, digits[2:]
	case strings.HasPrefix(digits, "0b") || strings.HasPrefix(digits, "0B"):
		base, digits = 2, digits[2:]
	case len(digits) > 1 && digits[0] == '0':
		base, digits = 8, digits[1:]
	}
	v, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return 0, types.BasicNone, false
	}
	unsigned := strings.Contains(suffix, "u")
	longs := strings.Count(suffix, "l")
	var ladder []types.Basic
	switch {
	case longs >= 2 && unsigned:
		ladder = []types.Basic{types.ULongLong}
	case longs >= 2 && base == 10:
		ladder = []types.Basic{types.LongLong}
	case longs >= 2:
		ladder = []types.Basic{types.LongLong, types.ULongLong}
	case longs == 1 && unsigned:
		ladder = []types.Basic{types.ULong, types.ULongLong}
	case longs == 1 && base == 10:
		ladder = []types.Basic{types.Long, types.LongLong}
	case longs == 1:
		ladder = []types.Basic{types.Long, types.ULong, types.LongLong, types.ULongLong}
	case unsigned:
		ladder = []types.Basic{types.UInt, types.ULong, types.ULongLong}
	case base == 10:
		ladder = []types.Basic{types.Int, types.Long, types.LongLong}
	default:
		ladder = []types.Basic{types.Int, types.UInt, types.Long, types.ULong, types.LongLong, types.ULongLong}
	}
	for _, b := range ladder {
		if _, hi := b.Range(); v <= hi {
			return v, b, true
		}
	}
	return v, ladder[len(ladder)-1], true
}

func floatLiteral(text string) types.Basic {
	switch text[len(text)-1] {
	case 'f', 'F':
		if !strings.HasPrefix(text, "0x") && !strings.HasPrefix(text, "0X") {
			return types.Float
		}
	case 'l', 'L':
		return types.LongDouble
	}
	return types.Double
}

// charPrefix splits the encoding prefix off a character or string literal.
func charPrefix(text string) (string, string) {
	for _, p := range []string{"u8", "u", "U", "L"} {
		if strings.HasPrefix(text, p) && len(text) > len(p) && (text[len(p)] == '\'' || text[len(p)] == '"' || text[len(p)] == 'R') {
			return p, text[len(p):]
		}
	}
	return "", text
}

func charType(prefix string) types.Basic {
	switch prefix {
	case "L":
		return types.WChar
	case "u":
		return types.Char16
	case "U":
		return types.Char32
	}
	return types.Char
}

// charLiteral decodes a character literal. A plain literal of several
// characters has type int.
func charLiteral(text string) (int64, types.Basic, bool) {
	prefix, body := charPrefix(text)
	if len(body) < 3 || body[0] != '\'' || body[len(body)-1] != '\'' {
		return 0, types.BasicNone, false
	}
	body = body[1 : len(body)-1]
	var chars []int64
	for len(body) > 0 {
		c, rest, ok := unescape(body)
		if !ok {
			return 0, types.BasicNone, false
		}
		chars = append(chars, c)
		body = rest
	}
	kind := charType(prefix)
	switch {
	case len(chars) == 1 && kind == types.Char:
		return int64(int8(chars[0])), kind, chars[0] < 0x100
	case len(chars) == 1:
		return chars[0], kind, true
	case kind == types.Char:
		var v int64
		for _, c := range chars {
			v = v<<8 | (c & 0xff)
		}
		return int64(int32(v)), types.Int, true
	}
	return 0, types.BasicNone, false
}

// unescape decodes the first character of s.
func unescape(s string) (int64, string, bool) {
	if s[0] != '\\' {
		r, size := utf8.DecodeRuneInString(s)
		return int64(r), s[size:], true
	}
	if len(s) < 2 {
		return 0, "", false
	}
	switch c := s[1]; c {
	case 'n':
		return '\n', s[2:], true
	case 't':
		return '\t', s[2:], true
	case 'r':
		return '\r', s[2:], true
	case 'a':
		return 7, s[2:], true
	case 'b':
		return 8, s[2:], true
	case 'f':
		return 12, s[2:], true
	case 'v':
		return 11, s[2:], true
	case 'x':
		i := 2
		for i < len(s) && isHexDigit(s[i]) {
			i++
		}
		v, err := strconv.ParseUint(s[2:i], 16, 32)
		return int64(v), s[i:], err == nil
	case 'u', 'U':
		n := 4
		if c == 'U' {
			n = 8
		}
		if len(s) < 2+n {
			return 0, "", false
		}
		v, err := strconv.ParseUint(s[2:2+n], 16, 32)
		return int64(v), s[2+n:], err == nil
	default:
		if c >= '0' && c <= '7' {
			i := 1
			for i < len(s) && i < 4 && s[i] >= '0' && s[i] <= '7' {
				i++
			}
			v, _ := strconv.ParseUint(s[1:i], 8, 32)
			return int64(v), s[i:], true
		}
		return int64(c), s[2:], true
	}
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

package jsparse

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Unquote returns the value of a JavaScript string literal, quotes
// removed and escape sequences decoded. Malformed escapes are kept as
// written.
func Unquote(lit string) string {
	if len(lit) < 2 {
		return lit
	}
	body := lit[1 : len(lit)-1]
	if !strings.Contains(body, `\`) {
		return body
	}

	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); {
		if body[i] != '\\' || i+1 == len(body) {
			b.WriteByte(body[i])
			i++
			continue
		}
		value, n := decodeEscape(body[i+1:])
		b.WriteString(value)
		i += 1 + n
	}
	return b.String()
}

// decodeEscape decodes the escape sequence at the start of s (the text
// after the backslash) and returns its value and the bytes consumed.
func decodeEscape(s string) (string, int) {
	switch s[0] {
	case 'n':
		return "\n", 1
	case 't':
		return "\t", 1
	case 'r':
		return "\r", 1
	case 'b':
		return "\b", 1
	case 'f':
		return "\f", 1
	case 'v':
		return "\v", 1
	case '0':
		if len(s) == 1 || s[1] < '0' || s[1] > '9' {
			return "\x00", 1
		}
	case '\n':
		return "", 1
	case '\r':
		if len(s) > 1 && s[1] == '\n' {
			return "", 2
		}
		return "", 1
	case 'x':
		if r, ok := parseHex(s[1:], 2); ok {
			return string(r), 3
		}
		return "x", 1
	case 'u':
		return decodeUnicode(s)
	}

	r, size := utf8.DecodeRuneInString(s)
	if r == '\u2028' || r == '\u2029' {
		return "", size
	}
	return s[:size], size
}

// decodeUnicode handles \uXXXX, \u{X...} and UTF-16 surrogate pairs
// written as two \u escapes.
func decodeUnicode(s string) (string, int) {
	if len(s) > 1 && s[1] == '{' {
		end := strings.IndexByte(s, '}')
		if end > 2 {
			if r, ok := parseHex(s[2:end], end-2); ok && utf8.ValidRune(r) {
				return string(r), end + 1
			}
		}
		return "u", 1
	}

	r, ok := parseHex(s[1:], 4)
	if !ok {
		return "u", 1
	}
	if utf16.IsSurrogate(r) && len(s) >= 11 && s[5] == '\\' && s[6] == 'u' {
		if lo, ok := parseHex(s[7:], 4); ok {
			if pair := utf16.DecodeRune(r, lo); pair != utf8.RuneError {
				return string(pair), 11
			}
		}
	}
	return string(r), 5
}

// parseHex reads exactly n hex digits from the start of s.
func parseHex(s string, n int) (rune, bool) {
	if len(s) < n {
		return 0, false
	}
	v, err := strconv.ParseUint(s[:n], 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}

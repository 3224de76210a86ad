package naming

import (
	"strings"
	"unicode"
)

var reservedWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		arguments await break case catch class const continue debugger default
		delete do else enum eval export extends false finally for function if
		implements import in instanceof interface let new null package private
		protected public return static super switch this throw true try typeof
		undefined var void while with yield`) {
		reservedWords[w] = struct{}{}
	}
}

// IsReserved reports whether name may not be used as a binding name.
func IsReserved(name string) bool {
	_, ok := reservedWords[name]
	return ok
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

// IsIdentifierName reports whether s can follow a '.' in a member
// expression. Reserved words are allowed there.
func IsIdentifierName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && !isIdentStart(r) {
			return false
		}
		if !isIdentPart(r) {
			return false
		}
	}
	return true
}

// IsValidBinding reports whether s can be declared as a local name.
func IsValidBinding(s string) bool {
	return IsIdentifierName(s) && !IsReserved(s)
}

// ToIdentifier turns an arbitrary hint into an identifier: runs of
// non-identifier characters become word breaks, leading digits are
// dropped and the words are camel-joined. "2021-my note" -> "myNote".
func ToIdentifier(hint string) string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for _, r := range hint {
		if isIdentPart(r) {
			cur.WriteRune(r)
			continue
		}
		flush()
	}
	flush()

	var b strings.Builder
	for _, w := range words {
		if b.Len() == 0 {
			w = strings.TrimLeftFunc(w, unicode.IsDigit)
			b.WriteString(w)
			continue
		}
		rs := []rune(w)
		rs[0] = unicode.ToUpper(rs[0])
		b.WriteString(string(rs))
	}

	name := b.String()
	if name != "" && !IsValidBinding(name) {
		name = "_" + name
	}
	if name == "" {
		return "_"
	}
	return name
}

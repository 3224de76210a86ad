package naming

import (
	"fmt"
	"regexp"
	"strings"
)

// Case selects how a matched file's base name becomes a property name.
type Case string

const (
	CaseCamel Case = "camel"
	CaseSnake Case = "snake"
)

// ParseCase parses a case strategy name. Empty means camel.
func ParseCase(s string) (Case, error) {
	switch Case(strings.ToLower(strings.TrimSpace(s))) {
	case "", CaseCamel:
		return CaseCamel, nil
	case CaseSnake:
		return CaseSnake, nil
	default:
		return "", fmt.Errorf("unknown case strategy %q (want %q or %q)", s, CaseCamel, CaseSnake)
	}
}

// Convert applies the strategy to name.
func (c Case) Convert(name string) string {
	if c == CaseSnake {
		return SnakeCase(name)
	}
	return CamelCase(name)
}

var (
	camelBoundary = regexp.MustCompile(`[-_.]\w`)
	snakeBoundary = regexp.MustCompile(`[-.A-Z]`)
)

// CamelCase upper-cases the word character following each '-', '_' or '.'
// and drops the separator: "my-note" -> "myNote".
func CamelCase(s string) string {
	return camelBoundary.ReplaceAllStringFunc(s, func(m string) string {
		return strings.ToUpper(m[1:])
	})
}

// SnakeCase turns '-' and '.' into '_' and lower-cases capitals behind an
// underscore: "my-note" -> "my_note", "myNote" -> "my_note".
func SnakeCase(s string) string {
	return snakeBoundary.ReplaceAllStringFunc(s, func(m string) string {
		if m == "-" || m == "." {
			return "_"
		}
		return "_" + strings.ToLower(m)
	})
}

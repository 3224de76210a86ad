// Package pathspec classifies import source strings as directory-import
// candidates and strips their trailing wildcard markers.
package pathspec

import "strings"

const (
	recursiveMarker = "/**"
	wildcardMarker  = "/*"
)

// Spec is the classification of one import source string.
type Spec struct {
	// Source is the import path exactly as written.
	Source string

	// Cleaned is Source with any trailing marker removed.
	Cleaned string

	// Wildcard is set when Source ended in a single-level "/*" marker.
	Wildcard bool

	// Recursive is set when Source ended in a "/**" marker.
	Recursive bool
}

// Classify inspects an import source. ok is false for non-local paths
// (package names), which are never directory-import candidates.
func Classify(source string) (Spec, bool) {
	if !IsLocal(source) {
		return Spec{}, false
	}

	s := Spec{Source: source, Cleaned: source}
	switch {
	// "/**" also ends in "/*"-like text, so it must be checked first.
	case strings.HasSuffix(source, recursiveMarker):
		s.Recursive = true
		s.Cleaned = strings.TrimSuffix(source, recursiveMarker)
	case strings.HasSuffix(source, wildcardMarker):
		s.Wildcard = true
		s.Cleaned = strings.TrimSuffix(source, wildcardMarker)
	}
	return s, true
}

// IsLocal reports whether source is a relative or absolute path rather
// than a package specifier.
func IsLocal(source string) bool {
	return strings.HasPrefix(source, ".") || strings.HasPrefix(source, "/")
}

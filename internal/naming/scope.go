// Package naming derives property names and collision-free local
// identifiers for the files matched by a directory import.
package naming

import (
	"iter"
	"strconv"
	"strings"
)

// Scope is the symbol table of one module. Every name it holds is
// considered bound; Reserve never returns a name already present.
type Scope struct {
	taken map[string]struct{}
}

// NewScope seeds a scope with the names already used in a module.
func NewScope(names iter.Seq[string]) *Scope {
	s := &Scope{taken: make(map[string]struct{})}
	if names != nil {
		for n := range names {
			s.taken[n] = struct{}{}
		}
	}
	return s
}

// Has reports whether name is bound.
func (s *Scope) Has(name string) bool {
	_, ok := s.taken[name]
	return ok
}

// Add marks name as bound.
func (s *Scope) Add(name string) {
	s.taken[name] = struct{}{}
}

// Len returns the number of bound names.
func (s *Scope) Len() int {
	return len(s.taken)
}

// Reserve returns a fresh identifier derived from hint and binds it.
// Candidates are "_hint", "_hint2", "_hint3", ...
func (s *Scope) Reserve(hint string) string {
	base := ToIdentifier(hint)
	base = strings.TrimLeft(base, "_")
	base = strings.TrimRightFunc(base, func(r rune) bool { return r >= '0' && r <= '9' })

	for i := 1; ; i++ {
		name := "_" + base
		if i > 1 {
			name += strconv.Itoa(i)
		}
		if s.Has(name) || IsReserved(name) {
			continue
		}
		s.Add(name)
		return name
	}
}

// Synthesizer pairs a case strategy with a module scope.
type Synthesizer struct {
	Case  Case
	Scope *Scope
}

// Names returns the property name and the reserved local identifier for
// a file whose extension-less base name is base.
func (sy *Synthesizer) Names(base string) (property, identifier string) {
	return sy.Case.Convert(base), sy.Scope.Reserve(base)
}

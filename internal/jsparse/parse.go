// Package jsparse extracts import declarations and bound names from
// JavaScript and TypeScript modules using tree-sitter.
package jsparse

import (
	"context"
	"fmt"
	"iter"
	"maps"

	sitter "github.com/smacker/go-tree-sitter"
)

// SpecifierKind tags one binding request of an import declaration.
type SpecifierKind int

const (
	Namespace SpecifierKind = iota // import * as x
	Default                        // import x
	Named                          // import { y as x }
)

func (k SpecifierKind) String() string {
	switch k {
	case Namespace:
		return "namespace"
	case Default:
		return "default"
	default:
		return "named"
	}
}

// Specifier is one binding of an import declaration.
type Specifier struct {
	Kind SpecifierKind

	// Imported is the export name for Named specifiers.
	Imported string

	// Local is the name bound in the importing module.
	Local string
}

// ImportSpec is a single top-level import declaration.
type ImportSpec struct {
	// Source is the module specifier with its quotes removed.
	Source string

	Specifiers []Specifier

	// TypeOnly marks `import type ...` declarations.
	TypeOnly bool

	// StartByte and EndByte delimit the whole statement in the module.
	StartByte uint32
	EndByte   uint32

	Line uint32 // 0-indexed
}

// Module is the parse result of one source file.
type Module struct {
	File    string
	Imports []*ImportSpec

	identifiers map[string]struct{}
}

// Identifiers yields every identifier-like token written in the module.
func (m *Module) Identifiers() iter.Seq[string] {
	return maps.Keys(m.identifiers)
}

// SyntaxError reports the first error node of a module that failed to parse.
type SyntaxError struct {
	File   string
	Line   uint32 // 0-indexed
	Column uint32 // 0-indexed
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: syntax error", e.File, e.Line+1, e.Column+1)
}

var identifierTypes = map[string]bool{
	"identifier":                            true,
	"property_identifier":                   true,
	"shorthand_property_identifier":         true,
	"shorthand_property_identifier_pattern": true,
	"type_identifier":                       true,
	"statement_identifier":                  true,
}

// Parse parses source as the module at filePath.
func Parse(filePath string, source []byte) (*Module, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(LanguageForPath(filePath))

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed for %s: %w", filePath, err)
	}
	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("tree-sitter returned nil root for %s", filePath)
	}
	if root.HasError() {
		se := &SyntaxError{File: filePath}
		if n := FirstError(root); n != nil {
			se.Line = n.StartPoint().Row
			se.Column = n.StartPoint().Column
		}
		return nil, se
	}

	m := &Module{
		File:        filePath,
		identifiers: make(map[string]struct{}),
	}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		if n.Type() != "import_statement" {
			continue
		}
		if imp := readImport(n, source); imp != nil {
			m.Imports = append(m.Imports, imp)
		}
	}
	collectIdentifiers(root, source, m.identifiers)
	return m, nil
}

// readImport returns nil for forms without a plain source string,
// such as TypeScript's `import x = require(...)`.
func readImport(n *sitter.Node, source []byte) *ImportSpec {
	src := n.ChildByFieldName("source")
	if src == nil || src.Type() != "string" {
		return nil
	}

	imp := &ImportSpec{
		Source:    Unquote(src.Content(source)),
		StartByte: n.StartByte(),
		EndByte:   n.EndByte(),
		Line:      n.StartPoint().Row,
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "type", "typeof":
			if !c.IsNamed() {
				imp.TypeOnly = true
			}
		case "import_clause":
			imp.Specifiers = readImportClause(c, source)
		}
	}
	return imp
}

/*
Structure of an import_clause for `import a, * as b from "./x"`:

	import_clause
	  identifier "a"
	  namespace_import "* as b"
	    identifier "b"

and for `import { c, d as e } from "./x"`:

	import_clause
	  named_imports
	    import_specifier  name: identifier "c"
	    import_specifier  name: identifier "d"  alias: identifier "e"
*/
func readImportClause(clause *sitter.Node, source []byte) []Specifier {
	var specs []Specifier
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		c := clause.NamedChild(i)
		switch c.Type() {
		case "identifier":
			specs = append(specs, Specifier{Kind: Default, Local: c.Content(source)})
		case "namespace_import":
			if id := firstNamedChildOfType(c, "identifier"); id != nil {
				specs = append(specs, Specifier{Kind: Namespace, Local: id.Content(source)})
			}
		case "named_imports":
			for j := 0; j < int(c.NamedChildCount()); j++ {
				s := c.NamedChild(j)
				if s.Type() != "import_specifier" || hasAnonymousChild(s, "type") {
					continue
				}
				name := s.ChildByFieldName("name")
				if name == nil {
					continue
				}
				imported := name.Content(source)
				if name.Type() == "string" {
					imported = Unquote(imported)
				}
				local := imported
				if alias := s.ChildByFieldName("alias"); alias != nil {
					local = alias.Content(source)
				}
				specs = append(specs, Specifier{Kind: Named, Imported: imported, Local: local})
			}
		}
	}
	return specs
}

func collectIdentifiers(root *sitter.Node, source []byte, into map[string]struct{}) {
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if identifierTypes[n.Type()] {
			into[n.Content(source)] = struct{}{}
			continue
		}
		for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, n.NamedChild(i))
		}
	}
}

// FirstError does a depth-first search for the first ERROR or MISSING node.
func FirstError(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.HasError() || child.IsError() || child.IsMissing() {
			if found := FirstError(child); found != nil {
				return found
			}
		}
	}
	return nil
}

func firstNamedChildOfType(n *sitter.Node, typeName string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == typeName {
			return c
		}
	}
	return nil
}

func hasAnonymousChild(n *sitter.Node, typeName string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); !c.IsNamed() && c.Type() == typeName {
			return true
		}
	}
	return false
}

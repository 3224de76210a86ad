// Package linter reports keys that a rewritten directory import assigns
// more than once, where a later file silently replaces an earlier one.
package linter

import (
	"context"
	"fmt"
	"path/filepath"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/agentic-research/dirimport/internal/codegen"
	"github.com/agentic-research/dirimport/internal/jsparse"
	"github.com/agentic-research/dirimport/internal/logger"
	"github.com/agentic-research/dirimport/internal/transform"
)

type Diagnostic struct {
	File    string
	Line    uint32 // 0-indexed
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d: %s", d.File, d.Line+1, d.Message)
}

const exportQuery = `(program (export_statement) @export)`

// Check inspects every rewrite of res. Bucket rewrites are checked for
// files sharing a property name; wildcard rewrites are checked for
// export names provided by more than one file, which needs the matched
// files' sources from fs.
func Check(fs billy.Filesystem, res *transform.Result) []Diagnostic {
	var diags []Diagnostic
	for _, rw := range res.Rewrites {
		if rw.Mode == codegen.Wildcard {
			diags = append(diags, wildcardCollisions(fs, res.File, rw)...)
		} else {
			diags = append(diags, propertyCollisions(res.File, rw)...)
		}
	}
	return diags
}

func propertyCollisions(file string, rw transform.Rewrite) []Diagnostic {
	var diags []Diagnostic
	owner := make(map[string]string, len(rw.Files))
	for _, f := range rw.Files {
		if prev, ok := owner[f.Property]; ok {
			diags = append(diags, Diagnostic{
				File:    file,
				Line:    rw.Line,
				Message: fmt.Sprintf("%s: property %q of %s replaces %s", rw.Source, f.Property, f.Pathname(), prev),
			})
		}
		owner[f.Property] = f.Pathname()
	}
	return diags
}

func wildcardCollisions(fs billy.Filesystem, file string, rw transform.Rewrite) []Diagnostic {
	var diags []Diagnostic
	owner := make(map[string]string)
	skipped := 0
	for _, f := range rw.Files {
		p := filepath.Join(rw.Directory, filepath.FromSlash(f.Pathname()))
		src, err := util.ReadFile(fs, p)
		if err != nil {
			logger.Debugf("linter: read %s: %v", p, err)
			skipped++
			continue
		}
		names, err := Exports(p, src)
		if err != nil {
			logger.Debugf("linter: exports of %s: %v", p, err)
			skipped++
			continue
		}
		for _, name := range names {
			key := name
			if key == "default" {
				key = f.Property
			}
			if prev, ok := owner[key]; ok && prev != f.Pathname() {
				diags = append(diags, Diagnostic{
					File:    file,
					Line:    rw.Line,
					Message: fmt.Sprintf("%s: key %q from %s replaces %s", rw.Source, key, f.Pathname(), prev),
				})
			}
			owner[key] = f.Pathname()
		}
	}
	if skipped > 0 {
		logger.Warnf("%s:%d: %s: %d of %d file(s) could not be parsed; key collisions among them are not checked",
			file, rw.Line+1, rw.Source, skipped, len(rw.Files))
	}
	return diags
}

// Exports returns the names a module exports, "default" included, in
// source order. `export * from` contributes nothing since its names are
// only known after resolving the re-exported module.
func Exports(filePath string, content []byte) ([]string, error) {
	lang := jsparse.LanguageForPath(filePath)
	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, err
	}
	root := tree.RootNode()
	if errNode := jsparse.FirstError(root); errNode != nil {
		return nil, &jsparse.SyntaxError{File: filePath, Line: errNode.StartPoint().Row, Column: errNode.StartPoint().Column}
	}

	q, err := sitter.NewQuery([]byte(exportQuery), lang)
	if err != nil {
		return nil, err
	}
	qc := sitter.NewQueryCursor()
	qc.Exec(q, root)

	var names []string
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			names = append(names, exportedNames(c.Node, content)...)
		}
	}
	return names, nil
}

func exportedNames(stmt *sitter.Node, content []byte) []string {
	var names []string
	for i := 0; i < int(stmt.ChildCount()); i++ {
		c := stmt.Child(i)
		switch {
		case !c.IsNamed() && c.Type() == "default":
			return []string{"default"}
		case c.Type() == "export_clause":
			for j := 0; j < int(c.NamedChildCount()); j++ {
				spec := c.NamedChild(j)
				if spec.Type() != "export_specifier" {
					continue
				}
				n := spec.ChildByFieldName("alias")
				if n == nil {
					n = spec.ChildByFieldName("name")
				}
				if n != nil {
					names = append(names, nameOf(n, content))
				}
			}
		case c.Type() == "namespace_export":
			if id := c.NamedChild(0); id != nil {
				names = append(names, nameOf(id, content))
			}
		}
	}

	decl := stmt.ChildByFieldName("declaration")
	if decl == nil {
		return names
	}
	switch decl.Type() {
	case "lexical_declaration", "variable_declaration":
		for j := 0; j < int(decl.NamedChildCount()); j++ {
			d := decl.NamedChild(j)
			if d.Type() != "variable_declarator" {
				continue
			}
			if n := d.ChildByFieldName("name"); n != nil && n.Type() == "identifier" {
				names = append(names, n.Content(content))
			}
		}
	default:
		if n := decl.ChildByFieldName("name"); n != nil {
			names = append(names, n.Content(content))
		}
	}
	return names
}

// nameOf returns an identifier's text, or a string literal's value for
// forms like `export { x as "a-b" }`.
func nameOf(n *sitter.Node, content []byte) string {
	if n.Type() == "string" {
		return jsparse.Unquote(n.Content(content))
	}
	return n.Content(content)
}

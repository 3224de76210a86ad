// Package codegen emits the replacement statements for a directory import:
// one namespace import per matched file, the aggregation container, the
// population statements and the rebinding of the original names.
package codegen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/agentic-research/dirimport/internal/jsparse"
	"github.com/agentic-research/dirimport/internal/naming"
	"github.com/agentic-research/dirimport/internal/walk"
)

// Mode selects how the container is populated.
type Mode int

const (
	// Bucket assigns each file's namespace under its property name and
	// stamps slug and pathname onto it.
	Bucket Mode = iota
	// Wildcard merges each file's exports into the container at run time.
	Wildcard
)

func (m Mode) String() string {
	if m == Wildcard {
		return "wildcard"
	}
	return "bucket"
}

// File is one matched file with its synthesized names.
type File struct {
	walk.Entry

	// Property is the container key derived from the base name.
	Property string

	// Identifier is the local name bound to the file's namespace import.
	Identifier string

	// ImportPath is the specifier written in the per-file import.
	ImportPath string
}

// Slug is the file's base name without extension.
func (f File) Slug() string { return f.Base() }

// Plan is everything needed to replace one import declaration.
type Plan struct {
	Mode       Mode
	Container  string
	Files      []File
	Specifiers []jsparse.Specifier
}

// ImportPath joins a cleaned directory specifier with relative segments,
// keeping the leading "./" that path.Join would drop.
func ImportPath(cleaned string, segments []string) string {
	p := path.Join(append([]string{cleaned}, segments...)...)
	for _, prefix := range []string{"./", "../", "/"} {
		if strings.HasPrefix(p, prefix) {
			return p
		}
	}
	return "./" + p
}

// Emit renders the replacement text. Statement order is imports,
// container declaration, population, rebindings.
func Emit(p Plan) string {
	var lines []string
	lines = append(lines, Imports(p)...)
	lines = append(lines, Declaration(p))
	lines = append(lines, Population(p)...)
	lines = append(lines, Rebindings(p)...)
	return strings.Join(lines, "\n")
}

// Imports returns one namespace import per file.
func Imports(p Plan) []string {
	out := make([]string, 0, len(p.Files))
	for _, f := range p.Files {
		out = append(out, fmt.Sprintf("import * as %s from %s;", f.Identifier, quote(f.ImportPath)))
	}
	return out
}

// Declaration returns the container declaration.
func Declaration(p Plan) string {
	return fmt.Sprintf("const %s = {};", p.Container)
}

// Population returns the statements filling the container, in file order.
func Population(p Plan) []string {
	var out []string
	for _, f := range p.Files {
		if p.Mode == Wildcard {
			out = append(out, fmt.Sprintf(
				"for (let key in %[1]s) { %[2]s[key === \"default\" ? %[3]s : key] = %[1]s[key]; }",
				f.Identifier, p.Container, quote(f.Property)))
			continue
		}
		slot := member(p.Container, f.Property)
		out = append(out,
			fmt.Sprintf("%s = %s;", slot, f.Identifier),
			fmt.Sprintf("%s = %s;", member(slot, "slug"), quote(f.Slug())),
			fmt.Sprintf("%s = %s;", member(slot, "pathname"), quote(f.Pathname())),
		)
	}
	return out
}

// Rebindings re-declares each original local name against the container.
func Rebindings(p Plan) []string {
	var out []string
	for _, s := range p.Specifiers {
		switch s.Kind {
		case jsparse.Namespace, jsparse.Default:
			out = append(out, fmt.Sprintf("const %s = %s;", s.Local, p.Container))
		case jsparse.Named:
			out = append(out, fmt.Sprintf("const %s = %s;", s.Local, member(p.Container, s.Imported)))
		}
	}
	return out
}

// member renders obj.key, or obj["key"] when key is not an identifier name.
func member(obj, key string) string {
	if naming.IsIdentifierName(key) {
		return obj + "." + key
	}
	return obj + "[" + quote(key) + "]"
}

// quote renders s as a JavaScript string literal.
func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

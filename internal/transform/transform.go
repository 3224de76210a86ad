// Package transform rewrites directory imports in JavaScript modules.
//
// For each top-level import declaration the pipeline is:
//
//	classify -> probe -> walk -> synthesize -> emit -> rebind -> splice
//
// Any gate before the directory is confirmed ends silently and leaves the
// declaration for the host loader. A module's edits are computed in full
// before any of them is applied.
package transform

import (
	"fmt"
	"path/filepath"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/agentic-research/dirimport/internal/codegen"
	"github.com/agentic-research/dirimport/internal/config"
	"github.com/agentic-research/dirimport/internal/jsparse"
	"github.com/agentic-research/dirimport/internal/logger"
	"github.com/agentic-research/dirimport/internal/naming"
	"github.com/agentic-research/dirimport/internal/pathspec"
	"github.com/agentic-research/dirimport/internal/resolve"
	"github.com/agentic-research/dirimport/internal/walk"
	"github.com/agentic-research/dirimport/internal/writeback"
)

// containerHint seeds the aggregation container's identifier.
const containerHint = "dirImport"

// SkipReason explains why an import declaration was left untouched.
type SkipReason int

const (
	NonLocalPath SkipReason = iota + 1
	ResolvesAsModule
	UnresolvedAndNotDirectory
	EmptyDirectoryMatch
	TypeOnlyImport
)

func (r SkipReason) String() string {
	switch r {
	case NonLocalPath:
		return "non-local-path"
	case ResolvesAsModule:
		return "resolves-as-module"
	case UnresolvedAndNotDirectory:
		return "unresolved-and-not-directory"
	case EmptyDirectoryMatch:
		return "empty-directory-match"
	case TypeOnlyImport:
		return "type-only-import"
	default:
		return "unknown"
	}
}

// Skip records an import declaration left unmodified.
type Skip struct {
	Source string
	Reason SkipReason
	// Resolved is the module path when Reason is ResolvesAsModule.
	Resolved string
}

// Rewrite records one replaced import declaration.
type Rewrite struct {
	Source    string
	Directory string
	Mode      codegen.Mode
	Recursive bool
	Container string
	Files     []codegen.File

	StartByte uint32
	EndByte   uint32
	Line      uint32 // 0-indexed

	// Code is the replacement text.
	Code string
}

// Result is the outcome of transforming one module.
type Result struct {
	File     string
	Code     []byte
	Rewrites []Rewrite
	Skips    []Skip
}

// Changed reports whether any import was rewritten.
func (r *Result) Changed() bool {
	return len(r.Rewrites) > 0
}

// Transformer applies the pass with one project configuration.
type Transformer struct {
	fs       billy.Filesystem
	cfg      config.Config
	casing   naming.Case
	resolver *resolve.Resolver
}

// New validates cfg and returns a Transformer reading from fs.
func New(cfg *config.Config, fs billy.Filesystem) (*Transformer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Transformer{
		fs:       fs,
		cfg:      *cfg,
		casing:   cfg.CaseStrategy(),
		resolver: resolve.New(fs, cfg.ResolveExtensions),
	}, nil
}

// TransformFile reads filename from the filesystem and transforms it.
func (t *Transformer) TransformFile(filename string) (*Result, error) {
	src, err := util.ReadFile(t.fs, filename)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	return t.Transform(filename, src)
}

// Transform rewrites the directory imports of the module at filename.
// The returned Code equals src when nothing was rewritten.
func (t *Transformer) Transform(filename string, src []byte) (*Result, error) {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("absolute path of %s: %w", filename, err)
	}

	mod, err := jsparse.Parse(filename, src)
	if err != nil {
		return nil, err
	}

	res := &Result{File: filename, Code: src}
	scope := naming.NewScope(mod.Identifiers())

	for _, imp := range mod.Imports {
		rw, skip, err := t.rewrite(filepath.Dir(abs), imp, scope)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: import %q: %w", filename, imp.Line+1, imp.Source, err)
		}
		if skip != nil {
			logger.Tracef("%s: leaving %q (%s)", filename, imp.Source, skip.Reason)
			res.Skips = append(res.Skips, *skip)
			continue
		}
		logger.Debugf("%s: rewrote %q as %s import of %d file(s)", filename, imp.Source, rw.Mode, len(rw.Files))
		res.Rewrites = append(res.Rewrites, *rw)
	}

	if !res.Changed() {
		return res, nil
	}

	edits := make([]writeback.Edit, 0, len(res.Rewrites))
	for _, rw := range res.Rewrites {
		edits = append(edits, writeback.Edit{StartByte: rw.StartByte, EndByte: rw.EndByte, Content: []byte(rw.Code)})
	}
	code, err := writeback.Apply(src, edits)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if err := writeback.Validate(code, filename); err != nil {
		return nil, fmt.Errorf("generated code does not parse: %w", err)
	}
	res.Code = code
	logger.Infof("%s: rewrote %d directory import(s)", filename, len(res.Rewrites))
	return res, nil
}

// rewrite runs one import declaration through the pipeline. Exactly one
// of the returned Rewrite and Skip is non-nil unless err is set.
func (t *Transformer) rewrite(moduleDir string, imp *jsparse.ImportSpec, scope *naming.Scope) (*Rewrite, *Skip, error) {
	if imp.TypeOnly {
		return nil, &Skip{Source: imp.Source, Reason: TypeOnlyImport}, nil
	}

	spec, ok := pathspec.Classify(imp.Source)
	if !ok {
		return nil, &Skip{Source: imp.Source, Reason: NonLocalPath}, nil
	}

	target := filepath.FromSlash(spec.Cleaned)
	if !filepath.IsAbs(target) {
		target = filepath.Join(moduleDir, target)
	}

	probe, err := t.resolver.Probe(target)
	if err != nil {
		return nil, nil, err
	}
	switch probe.Outcome {
	case resolve.Resolved:
		return nil, &Skip{Source: imp.Source, Reason: ResolvesAsModule, Resolved: probe.Path}, nil
	case resolve.NotFound:
		return nil, &Skip{Source: imp.Source, Reason: UnresolvedAndNotDirectory}, nil
	}

	entries, err := walk.New(t.fs, walk.Options{
		Extensions: t.cfg.Extensions,
		Recursive:  spec.Recursive,
		Exclude:    t.cfg.Exclude,
		MaxDepth:   t.cfg.MaxDepth,
	}).Walk(target)
	if err != nil {
		return nil, nil, err
	}
	if len(entries) == 0 {
		return nil, &Skip{Source: imp.Source, Reason: EmptyDirectoryMatch}, nil
	}

	mode := codegen.Bucket
	if spec.Wildcard {
		mode = codegen.Wildcard
		logger.Debugf("wildcard import %q merges exports in discovery order; later files win on shared keys", imp.Source)
	}

	sy := &naming.Synthesizer{Case: t.casing, Scope: scope}
	files := make([]codegen.File, 0, len(entries))
	for _, e := range entries {
		prop, id := sy.Names(e.Base())
		files = append(files, codegen.File{
			Entry:      e,
			Property:   prop,
			Identifier: id,
			ImportPath: codegen.ImportPath(spec.Cleaned, e.Segments),
		})
	}

	plan := codegen.Plan{
		Mode:       mode,
		Container:  scope.Reserve(containerHint),
		Files:      files,
		Specifiers: imp.Specifiers,
	}
	return &Rewrite{
		Source:    imp.Source,
		Directory: target,
		Mode:      mode,
		Recursive: spec.Recursive,
		Container: plan.Container,
		Files:     files,
		StartByte: imp.StartByte,
		EndByte:   imp.EndByte,
		Line:      imp.Line,
		Code:      codegen.Emit(plan),
	}, nil, nil
}

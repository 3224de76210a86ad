// Package resolve emulates the host loader's single-module resolution so
// that ordinary imports are never mistaken for directory imports.
package resolve

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	billy "github.com/go-git/go-billy/v5"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/dirimport/internal/logger"
)

// ErrAccess wraps filesystem failures other than non-existence.
// They abort the build rather than being treated as "not found".
var ErrAccess = errors.New("filesystem access failure")

// DefaultExtensions are the extensions probed by Node's CommonJS loader.
var DefaultExtensions = []string{".js", ".json", ".node"}

var mainPath = jp.MustParseString("$.main")

// Outcome is the result class of a probe.
type Outcome int

const (
	// NotFound means the path neither resolves nor names a directory.
	NotFound Outcome = iota
	// Resolved means ordinary module resolution succeeded.
	Resolved
	// Directory means resolution failed and the path is a directory.
	Directory
)

func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case Directory:
		return "directory"
	default:
		return "not-found"
	}
}

// Result is the outcome of probing one absolute path.
type Result struct {
	Outcome Outcome
	// Path is the resolved module file for Resolved, the directory for
	// Directory, and empty otherwise.
	Path string
}

// Resolver probes paths on a billy.Filesystem.
type Resolver struct {
	fs         billy.Filesystem
	extensions []string
}

// New returns a Resolver probing exts in order. A nil exts uses
// DefaultExtensions.
func New(fs billy.Filesystem, exts []string) *Resolver {
	if exts == nil {
		exts = DefaultExtensions
	}
	return &Resolver{fs: fs, extensions: exts}
}

// Probe resolves abs as a module first; only when that fails does it
// check whether abs is a directory.
func (r *Resolver) Probe(abs string) (Result, error) {
	if p, err := r.loadAsFile(abs); err != nil || p != "" {
		return resolved(p, err)
	}
	if p, err := r.loadAsDirectory(abs); err != nil || p != "" {
		return resolved(p, err)
	}

	fi, err := r.stat(abs)
	if err != nil {
		return Result{}, err
	}
	if fi != nil && fi.IsDir() {
		return Result{Outcome: Directory, Path: abs}, nil
	}
	return Result{Outcome: NotFound}, nil
}

func resolved(p string, err error) (Result, error) {
	if err != nil {
		return Result{}, err
	}
	return Result{Outcome: Resolved, Path: p}, nil
}

func (r *Resolver) loadAsFile(x string) (string, error) {
	if ok, err := r.isFile(x); err != nil || ok {
		return pick(x, ok, err)
	}
	for _, ext := range r.extensions {
		if ok, err := r.isFile(x + ext); err != nil || ok {
			return pick(x+ext, ok, err)
		}
	}
	return "", nil
}

func (r *Resolver) loadIndex(x string) (string, error) {
	for _, ext := range r.extensions {
		p := filepath.Join(x, "index"+ext)
		if ok, err := r.isFile(p); err != nil || ok {
			return pick(p, ok, err)
		}
	}
	return "", nil
}

func (r *Resolver) loadAsDirectory(x string) (string, error) {
	pkgPath := filepath.Join(x, "package.json")
	ok, err := r.isFile(pkgPath)
	if err != nil {
		return "", err
	}
	if ok {
		main, err := r.readMain(pkgPath)
		if err != nil {
			return "", err
		}
		if main != "" {
			m := filepath.Join(x, main)
			if p, err := r.loadAsFile(m); err != nil || p != "" {
				return p, err
			}
			if p, err := r.loadIndex(m); err != nil || p != "" {
				return p, err
			}
		}
	}
	return r.loadIndex(x)
}

// readMain returns the "main" field of a package.json, or "" when the
// field is absent. A malformed manifest is ignored with a warning.
func (r *Resolver) readMain(pkgPath string) (string, error) {
	f, err := r.fs.Open(pkgPath)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", ErrAccess, pkgPath, err)
	}
	defer func() { _ = f.Close() }()

	raw, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrAccess, pkgPath, err)
	}
	doc, err := oj.Parse(raw)
	if err != nil {
		logger.Warnf("ignoring malformed %s: %v", pkgPath, err)
		return "", nil
	}
	main, _ := mainPath.First(doc).(string)
	return main, nil
}

func (r *Resolver) isFile(p string) (bool, error) {
	fi, err := r.stat(p)
	if err != nil || fi == nil {
		return false, err
	}
	return !fi.IsDir(), nil
}

// stat returns (nil, nil) when p does not exist, including dangling
// symlinks and paths running through a regular file.
func (r *Resolver) stat(p string) (os.FileInfo, error) {
	fi, err := r.fs.Stat(p)
	switch {
	case err == nil:
		return fi, nil
	case errors.Is(err, os.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: stat %s: %v", ErrAccess, p, err)
	}
}

func pick(p string, ok bool, err error) (string, error) {
	if err != nil || !ok {
		return "", err
	}
	return p, nil
}

// Package walk enumerates the files a directory import matches.
package walk

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	billy "github.com/go-git/go-billy/v5"

	"github.com/agentic-research/dirimport/internal/logger"
)

// DefaultMaxDepth bounds recursion when Options.MaxDepth is unset.
const DefaultMaxDepth = 64

// ErrMaxDepth is returned when a recursive walk nests deeper than allowed.
var ErrMaxDepth = errors.New("directory nesting exceeds max depth")

// Entry is one matched file.
type Entry struct {
	// Segments are the path components from the walked directory down to
	// the file, the file name last.
	Segments []string

	// Ext is the matched extension, including the dot.
	Ext string
}

// Name returns the file name.
func (e Entry) Name() string {
	return e.Segments[len(e.Segments)-1]
}

// Base returns the file name without its extension.
func (e Entry) Base() string {
	return strings.TrimSuffix(e.Name(), e.Ext)
}

// Pathname returns the slash-joined relative path, extension included.
func (e Entry) Pathname() string {
	return path.Join(e.Segments...)
}

// Options configures a Walker.
type Options struct {
	// Extensions is the allow-list of file extensions (with leading dot).
	Extensions []string

	// Recursive descends into subdirectories.
	Recursive bool

	// Exclude holds doublestar patterns matched against Pathname; a
	// matching directory is not descended into.
	Exclude []string

	// MaxDepth bounds recursion; zero means DefaultMaxDepth.
	MaxDepth int
}

// Walker lists matching files on a billy.Filesystem.
type Walker struct {
	fs   billy.Filesystem
	opts Options
}

func New(fs billy.Filesystem, opts Options) *Walker {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &Walker{fs: fs, opts: opts}
}

// Walk returns the matched files under dir in listing order. The whole
// walk is buffered so callers see a stable, restartable sequence.
func (w *Walker) Walk(dir string) ([]Entry, error) {
	fi, err := w.fs.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	seen := newVisitSet(w.fs)
	seen.add(dir, fi)

	var out []Entry
	if err := w.walkDir(dir, nil, 0, seen, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (w *Walker) walkDir(dir string, prefix []string, depth int, seen *visitSet, out *[]Entry) error {
	if depth > w.opts.MaxDepth {
		return fmt.Errorf("%w (%d): %s", ErrMaxDepth, w.opts.MaxDepth, dir)
	}

	infos, err := w.fs.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", dir, err)
	}

	for _, fi := range infos {
		name := fi.Name()
		segs := append(slices.Clone(prefix), name)
		rel := path.Join(segs...)
		if w.excluded(rel) {
			logger.Tracef("walk: excluded %s", rel)
			continue
		}

		full := filepath.Join(dir, name)
		if fi.Mode()&os.ModeSymlink != 0 {
			target, err := w.fs.Stat(full)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					logger.Debugf("walk: dangling symlink %s", full)
					continue
				}
				return fmt.Errorf("stat %s: %w", full, err)
			}
			fi = target
		}

		if fi.IsDir() {
			if !w.opts.Recursive {
				continue
			}
			if !seen.add(full, fi) {
				logger.Debugf("walk: skipping already visited directory %s", full)
				continue
			}
			if err := w.walkDir(full, segs, depth+1, seen, out); err != nil {
				return err
			}
			continue
		}

		if ext := extOf(name); ext != "" && slices.Contains(w.opts.Extensions, ext) {
			*out = append(*out, Entry{Segments: segs, Ext: ext})
		}
	}
	return nil
}

func (w *Walker) excluded(rel string) bool {
	for _, pattern := range w.opts.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// extOf is path.Ext except that a dot-file such as ".mdx" has no
// extension.
func extOf(name string) string {
	ext := path.Ext(name)
	if ext == name {
		return ""
	}
	return ext
}

package cmd

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/dirimport/internal/config"
	"github.com/agentic-research/dirimport/internal/linter"
	"github.com/agentic-research/dirimport/internal/logger"
	"github.com/agentic-research/dirimport/internal/manifest"
	"github.com/agentic-research/dirimport/internal/transform"
	"github.com/agentic-research/dirimport/internal/writeback"
)

// skippedDirs are never searched for modules.
var skippedDirs = []string{"node_modules", ".git"}

type buildOptions struct {
	outDir   string
	write    bool
	manifest string
}

var buildOpts buildOptions

var buildCmd = &cobra.Command{
	Use:   "build [root]",
	Short: "Transform every selected module under a project root",
	Long: `Transform every module under root matched by the configured source
patterns. Without --out or --write nothing is written and a summary of
each module is printed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		root, err := filepath.Abs(root)
		if err != nil {
			return err
		}
		cfg, err := loadConfig(cmd, root)
		if err != nil {
			return err
		}
		return buildProject(root, cfg, buildOpts, cmd.OutOrStdout())
	},
}

func init() {
	buildCmd.Flags().StringVarP(&buildOpts.outDir, "out", "o", "", "Write every selected module to a mirror tree under this directory")
	buildCmd.Flags().BoolVarP(&buildOpts.write, "write", "w", false, "Rewrite changed modules in place")
	buildCmd.Flags().StringVarP(&buildOpts.manifest, "manifest", "m", "", "Record rewrites and skips in this SQLite database")
	buildCmd.MarkFlagsMutuallyExclusive("out", "write")
	rootCmd.AddCommand(buildCmd)
}

// collectSources returns the slash-separated, root-relative paths of the
// modules selected by patterns, sorted and de-duplicated. Paths under
// skippedDirs or under exclude (root-relative) are dropped.
func collectSources(root string, patterns []string, exclude string) ([]string, error) {
	set := treeset.NewWithStringComparator()
	fsys := os.DirFS(root)
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			if skipSource(m, exclude) {
				continue
			}
			set.Add(m)
		}
	}

	out := make([]string, 0, set.Size())
	for _, v := range set.Values() {
		out = append(out, v.(string))
	}
	return out, nil
}

func skipSource(rel, exclude string) bool {
	for _, seg := range strings.Split(path.Dir(rel), "/") {
		if slices.Contains(skippedDirs, seg) {
			return true
		}
	}
	return exclude != "" && (rel == exclude || strings.HasPrefix(rel, exclude+"/"))
}

func buildProject(root string, cfg *config.Config, opts buildOptions, w io.Writer) error {
	fs := osfs.New("/")
	tr, err := transform.New(cfg, fs)
	if err != nil {
		return err
	}

	// Output written inside the root must not be picked up again.
	var outRel string
	if opts.outDir != "" {
		if opts.outDir, err = filepath.Abs(opts.outDir); err != nil {
			return err
		}
		if rel, err := filepath.Rel(root, opts.outDir); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			outRel = filepath.ToSlash(rel)
		}
	}

	sources, err := collectSources(root, cfg.Sources, outRel)
	if err != nil {
		return err
	}
	logger.Infof("building %d module(s) under %s", len(sources), root)

	var mw *manifest.Writer
	if opts.manifest != "" {
		if mw, err = manifest.Create(opts.manifest); err != nil {
			return err
		}
		defer func() {
			if mw != nil {
				_ = mw.Close()
			}
		}()
	}

	changed := 0
	for _, rel := range sources {
		file := filepath.Join(root, filepath.FromSlash(rel))
		res, err := tr.TransformFile(file)
		if err != nil {
			return err
		}
		if mw != nil {
			if err := mw.Record(res); err != nil {
				return err
			}
		}
		if res.Changed() {
			changed++
		}
		for _, d := range linter.Check(fs, res) {
			logger.Warnf("%s", d)
		}

		switch {
		case opts.outDir != "":
			if err := writeback.WriteAtomic(filepath.Join(opts.outDir, filepath.FromSlash(rel)), res.Code); err != nil {
				return err
			}
		case opts.write:
			if res.Changed() {
				if err := writeback.WriteAtomic(file, res.Code); err != nil {
					return err
				}
			}
		default:
			if res.Changed() || len(res.Skips) > 0 {
				_, _ = fmt.Fprintf(w, "%s\t%d rewritten\t%d skipped\n", rel, len(res.Rewrites), len(res.Skips))
			}
		}
	}

	if mw != nil {
		err := mw.Close()
		mw = nil
		if err != nil {
			return err
		}
	}
	logger.Infof("rewrote %d of %d module(s)", changed, len(sources))
	return nil
}

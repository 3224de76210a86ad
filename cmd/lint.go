package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/dirimport/internal/config"
	"github.com/agentic-research/dirimport/internal/linter"
	"github.com/agentic-research/dirimport/internal/transform"
)

var lintCmd = &cobra.Command{
	Use:   "lint [root]",
	Short: "Report directory imports whose files overwrite each other's keys",
	Args:  cobra.MaximumNArgs(1),
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
		n, err := lintProject(root, cfg, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%d collision(s) found", n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lintCmd)
}

// lintProject prints the diagnostics of every selected module and
// returns how many there were.
func lintProject(root string, cfg *config.Config, w io.Writer) (int, error) {
	fs := osfs.New("/")
	tr, err := transform.New(cfg, fs)
	if err != nil {
		return 0, err
	}
	sources, err := collectSources(root, cfg.Sources, "")
	if err != nil {
		return 0, err
	}

	n := 0
	for _, rel := range sources {
		res, err := tr.TransformFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return n, err
		}
		for _, d := range linter.Check(fs, res) {
			_, _ = fmt.Fprintln(w, d)
			n++
		}
	}
	return n, nil
}

package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/dirimport/internal/config"
	"github.com/agentic-research/dirimport/internal/naming"
	"github.com/agentic-research/dirimport/internal/walk"
)

var lsRecursive bool

var lsCmd = &cobra.Command{
	Use:   "ls DIR",
	Short: "List the entries a directory import of DIR would expose",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		cfg, err := loadConfig(cmd, projectRoot(dir))
		if err != nil {
			return err
		}
		return listDir(dir, cfg, lsRecursive, cmd.OutOrStdout())
	},
}

func init() {
	lsCmd.Flags().BoolVarP(&lsRecursive, "recursive", "r", false, "Include subdirectories, as a /** import would")
	rootCmd.AddCommand(lsCmd)
}

// listDir prints property, slug and pathname for every file a bucket
// import of dir would aggregate.
func listDir(dir string, cfg *config.Config, recursive bool, w io.Writer) error {
	entries, err := walk.New(osfs.New("/"), walk.Options{
		Extensions: cfg.Extensions,
		Recursive:  recursive,
		Exclude:    cfg.Exclude,
		MaxDepth:   cfg.MaxDepth,
	}).Walk(dir)
	if err != nil {
		return err
	}

	sy := &naming.Synthesizer{Case: cfg.CaseStrategy(), Scope: naming.NewScope(nil)}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "PROPERTY\tIDENTIFIER\tSLUG\tPATHNAME")
	for _, e := range entries {
		prop, id := sy.Names(e.Base())
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", prop, id, e.Base(), e.Pathname())
	}
	return tw.Flush()
}

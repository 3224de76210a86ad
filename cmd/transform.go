package cmd

import (
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/dirimport/internal/transform"
)

var transformCmd = &cobra.Command{
	Use:   "transform FILE",
	Short: "Print a module with its directory imports rewritten",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		cfg, err := loadConfig(cmd, projectRoot(filepath.Dir(file)))
		if err != nil {
			return err
		}
		tr, err := transform.New(cfg, osfs.New("/"))
		if err != nil {
			return err
		}
		res, err := tr.TransformFile(file)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(res.Code)
		return err
	},
}

func init() {
	rootCmd.AddCommand(transformCmd)
}

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agentic-research/dirimport/internal/config"
	"github.com/agentic-research/dirimport/internal/logger"
)

var (
	configPath string
	logLevel   string
	extensions []string
	caseName   string
	excludes   []string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to dirimport.yaml (default: discovered from the project root)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringSliceVarP(&extensions, "ext", "e", nil, "Matched file extensions, e.g. .mdx (repeatable)")
	rootCmd.PersistentFlags().StringVar(&caseName, "case", "", "Property name case: camel or snake")
	rootCmd.PersistentFlags().StringSliceVar(&excludes, "exclude", nil, "Doublestar patterns of directory-relative paths to skip")
}

var rootCmd = &cobra.Command{
	Use:   "dirimport",
	Short: "Rewrite JavaScript directory imports into per-file imports",
	Long: `dirimport replaces imports whose target is a directory, such as

    import notes from './notes';
    import all from './notes/**';
    import * as api from './api/*';

with one namespace import per matched file and an object aggregating them.
Imports that resolve as ordinary modules are left alone.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := logLevel
		if level == "" {
			level = logger.LevelFromEnv()
		}
		logger.SetOutput(cmd.ErrOrStderr())
		return logger.SetLevel(level)
	},
}

// loadConfig builds the effective configuration for a project root:
// flags over --config or the discovered file over defaults.
func loadConfig(cmd *cobra.Command, root string) (*config.Config, error) {
	var (
		cfg  *config.Config
		used string
		err  error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
		used = configPath
	} else {
		cfg, used, err = config.Discover(root)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if used != "" {
		logger.Debugf("using config %s", used)
	}

	flags := cmd.Flags()
	if flags.Changed("ext") {
		cfg.Extensions = extensions
	}
	if flags.Changed("case") {
		cfg.Case = caseName
	}
	if flags.Changed("exclude") {
		cfg.Exclude = excludes
	}
	if !flags.Changed("log-level") && os.Getenv(logger.EnvLevel) == "" && cfg.LogLevel != "" {
		if err := logger.SetLevel(cfg.LogLevel); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// projectRoot walks up from start to the nearest directory holding a
// dirimport.yaml or package.json. It returns start when there is none.
func projectRoot(start string) string {
	dir := start
	for {
		for _, name := range []string{config.FileName, "package.json"} {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir
			} else if !errors.Is(err, os.ErrNotExist) {
				logger.Warnf("stat %s: %v", filepath.Join(dir, name), err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

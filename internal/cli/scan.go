package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/ppiankov/tckrunner/internal/config"
	"github.com/ppiankov/tckrunner/internal/suite"
)

func newScanCmd() *cobra.Command {
	var (
		testsDir    string
		filePattern string
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List discovered model and test files per directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSettings(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !cmd.Flags().Changed("tests") && cfg.TestsDir != "" {
				testsDir = cfg.TestsDir
			}
			if !cmd.Flags().Changed("pattern") && cfg.FilePattern != "" {
				filePattern = cfg.FilePattern
			}
			return scanSuite(testsDir, filePattern)
		},
	}

	cmd.Flags().StringVar(&testsDir, "tests", ".", "root directory containing DMN models and TCK test files")
	cmd.Flags().StringVar(&filePattern, "pattern", "", "regular expression filtering full file paths")
	return cmd
}

func scanSuite(testsDir, filePattern string) error {
	root, err := filepath.Abs(testsDir)
	if err != nil {
		return fmt.Errorf("resolve tests dir: %w", err)
	}

	var pattern *regexp.Regexp
	if filePattern != "" {
		pattern, err = regexp.Compile(filePattern)
		if err != nil {
			return fmt.Errorf("parse file pattern: %w", err)
		}
	}

	s, err := suite.Discover(root, pattern)
	if err != nil {
		return fmt.Errorf("discover suite: %w", err)
	}

	models := 0
	for _, d := range s.Dirs {
		rel, _ := filepath.Rel(root, d.Path)
		fmt.Fprintf(os.Stdout, "%s\n", filepath.ToSlash(rel))
		for _, m := range d.Models {
			fmt.Fprintf(os.Stdout, "  model  %s\n", m)
			models++
		}
		for _, t := range d.Tests {
			fmt.Fprintf(os.Stdout, "  tests  %s\n", t)
		}
	}
	fmt.Fprintf(os.Stdout, "\n%d directories, %d models, %d test files\n", len(s.Dirs), models, s.TestFileCount())
	return nil
}

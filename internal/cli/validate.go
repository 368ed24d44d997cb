package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/ppiankov/tckrunner/internal/config"
	"github.com/ppiankov/tckrunner/internal/dmn"
	"github.com/ppiankov/tckrunner/internal/suite"
	"github.com/ppiankov/tckrunner/internal/tck"
)

func newValidateCmd() *cobra.Command {
	var (
		testsDir    string
		filePattern string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Parse all model and test files and report structural problems",
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
			return validateSuite(testsDir, filePattern)
		},
	}

	cmd.Flags().StringVar(&testsDir, "tests", ".", "root directory containing DMN models and TCK test files")
	cmd.Flags().StringVar(&filePattern, "pattern", "", "regular expression filtering full file paths")
	return cmd
}

func validateSuite(testsDir, filePattern string) error {
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

	problems := 0
	report := func(path, msg string) {
		rel, _ := filepath.Rel(root, path)
		fmt.Fprintf(os.Stdout, "  ✗ %s: %s\n", filepath.ToSlash(rel), msg)
		problems++
	}

	index := dmn.NewIndex()
	for _, d := range s.Dirs {
		for _, m := range d.Models {
			path := filepath.Join(d.Path, m)
			if err := index.AddModel(root, path); err != nil {
				report(path, err.Error())
			}
		}
	}

	for _, d := range s.Dirs {
		for _, f := range d.Tests {
			path := filepath.Join(d.Path, f)
			cases, err := tck.ParseFile(path)
			if err != nil {
				report(path, err.Error())
				continue
			}
			if cases.ModelName == "" {
				report(path, "test file does not name a model")
				continue
			}
			if _, err := index.ModelName(cases.ModelName); err != nil {
				report(path, err.Error())
			}
		}
	}

	if problems > 0 {
		return fmt.Errorf("%d problems found", problems)
	}
	fmt.Fprintf(os.Stdout, "✓ %d test files and their model references are valid\n", s.TestFileCount())
	return nil
}

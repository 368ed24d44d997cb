// Package suite discovers DMN models and TCK test files under a test root.
package suite

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Dir groups the model and test files found in one directory.
type Dir struct {
	Path   string   // absolute directory path
	Models []string // .dmn file names, sorted
	Tests  []string // .xml file names, sorted
}

// Suite is the ordered result of a discovery walk.
type Suite struct {
	Root string
	Dirs []Dir
}

// TestFileCount returns the total number of test files in the suite.
func (s *Suite) TestFileCount() int {
	n := 0
	for _, d := range s.Dirs {
		n += len(d.Tests)
	}
	return n
}

// TestPaths returns the absolute paths of all test files in suite order.
func (s *Suite) TestPaths() []string {
	var paths []string
	for _, d := range s.Dirs {
		for _, f := range d.Tests {
			paths = append(paths, filepath.Join(d.Path, f))
		}
	}
	return paths
}

// Discover walks root recursively and collects .dmn and .xml files whose
// full path matches pattern, grouped per directory in sorted order.
func Discover(root string, pattern *regexp.Regexp) (*Suite, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve test root: %w", err)
	}

	byDir := make(map[string]*Dir)
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".dmn" && ext != ".xml" {
			return nil
		}
		if pattern != nil && !pattern.MatchString(filepath.ToSlash(path)) {
			return nil
		}

		dir := filepath.Dir(path)
		entry, ok := byDir[dir]
		if !ok {
			entry = &Dir{Path: dir}
			byDir[dir] = entry
		}
		name := filepath.Base(path)
		if ext == ".dmn" {
			entry.Models = append(entry.Models, name)
		} else {
			entry.Tests = append(entry.Tests, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk test root %s: %w", root, err)
	}

	dirs := make([]Dir, 0, len(byDir))
	for _, entry := range byDir {
		sort.Strings(entry.Models)
		sort.Strings(entry.Tests)
		dirs = append(dirs, *entry)
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Path < dirs[j].Path })

	return &Suite{Root: absRoot, Dirs: dirs}, nil
}

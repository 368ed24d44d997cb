package suite

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("<x/>"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"cl2/0001/model.dmn",
		"cl2/0001/0001-test-01.xml",
		"cl2/0002/other.dmn",
		"cl2/0002/0002-test-01.xml",
		"cl2/0002/0002-test-02.xml",
		"cl2/0002/notes.txt",
	)

	s, err := Discover(root, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Dirs) != 2 {
		t.Fatalf("expected 2 dirs, got %d", len(s.Dirs))
	}
	if s.TestFileCount() != 3 {
		t.Errorf("test file count = %d", s.TestFileCount())
	}

	d0 := s.Dirs[0]
	if filepath.Base(d0.Path) != "0001" {
		t.Errorf("dirs not sorted: first is %s", d0.Path)
	}
	if len(d0.Models) != 1 || d0.Models[0] != "model.dmn" {
		t.Errorf("models = %v", d0.Models)
	}
	if len(d0.Tests) != 1 || d0.Tests[0] != "0001-test-01.xml" {
		t.Errorf("tests = %v", d0.Tests)
	}

	d1 := s.Dirs[1]
	if len(d1.Tests) != 2 || d1.Tests[0] != "0002-test-01.xml" {
		t.Errorf("tests not sorted: %v", d1.Tests)
	}
}

func TestDiscover_PatternFilter(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"cl2/0001/model.dmn",
		"cl2/0001/0001-test-01.xml",
		"cl3/0099/model.dmn",
		"cl3/0099/0099-test-01.xml",
	)

	s, err := Discover(root, regexp.MustCompile(`cl2/`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Dirs) != 1 {
		t.Fatalf("expected 1 dir, got %d", len(s.Dirs))
	}
	if filepath.Base(s.Dirs[0].Path) != "0001" {
		t.Errorf("unexpected dir: %s", s.Dirs[0].Path)
	}
}

func TestDiscover_TestPathsOrder(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"b/b-test.xml",
		"a/a-test.xml",
	)

	s, err := Discover(root, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	paths := s.TestPaths()
	if len(paths) != 2 {
		t.Fatalf("paths = %v", paths)
	}
	if filepath.Base(paths[0]) != "a-test.xml" || filepath.Base(paths[1]) != "b-test.xml" {
		t.Errorf("paths out of order: %v", paths)
	}
}

func TestDiscover_MissingRoot(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "missing"), nil)
	if err == nil {
		t.Fatal("expected error for missing root")
	}
}

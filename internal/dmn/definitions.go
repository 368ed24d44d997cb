// Package dmn indexes DMN model definitions referenced by TCK test files.
package dmn

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Definitions holds the root attributes of a DMN model file.
type Definitions struct {
	Name      string
	Namespace string
}

type definitionsXML struct {
	XMLName   xml.Name
	Name      string `xml:"name,attr"`
	Namespace string `xml:"namespace,attr"`
}

// ParseDefinitions reads the root element attributes of a DMN model file.
func ParseDefinitions(path string) (*Definitions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}

	var raw definitionsXML
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse model file %s: %w", path, err)
	}
	if raw.Name == "" {
		return nil, fmt.Errorf("model file %s: missing name attribute", path)
	}
	if raw.Namespace == "" {
		return nil, fmt.Errorf("model file %s: missing namespace attribute", path)
	}

	return &Definitions{Name: raw.Name, Namespace: raw.Namespace}, nil
}

// RDNN converts a model namespace URL into reversed-domain-name notation:
// reversed host segments followed by non-empty path segments, joined with
// slashes. "https://dmn.example.com/decisions/loans" becomes
// "com/example/dmn/decisions/loans".
func RDNN(namespace string) (string, error) {
	u, err := url.Parse(namespace)
	if err != nil {
		return "", fmt.Errorf("parse namespace %q: %w", namespace, err)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("namespace %q has no host", namespace)
	}

	segments := strings.Split(host, ".")
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	for _, s := range strings.Split(u.Path, "/") {
		if s = strings.TrimSpace(s); s != "" {
			segments = append(segments, s)
		}
	}
	return strings.Join(segments, "/"), nil
}

// WorkspaceName returns the model file's directory relative to the test
// root, slash-separated. Models directly under the root yield "".
func WorkspaceName(root, modelPath string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	absModel, err := filepath.Abs(modelPath)
	if err != nil {
		return "", fmt.Errorf("resolve model path: %w", err)
	}
	rel, err := filepath.Rel(absRoot, filepath.Dir(absModel))
	if err != nil {
		return "", fmt.Errorf("model %s is outside test root %s: %w", modelPath, root, err)
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}

// Index maps DMN model file names to the identifiers needed to build
// invocable paths.
type Index struct {
	names      map[string]string
	rdnns      map[string]string
	workspaces map[string]string
}

// NewIndex creates an empty model index.
func NewIndex() *Index {
	return &Index{
		names:      make(map[string]string),
		rdnns:      make(map[string]string),
		workspaces: make(map[string]string),
	}
}

// AddModel parses a model file and registers it under its base file name.
// root is the test root directory used for workspace derivation.
func (ix *Index) AddModel(root, path string) error {
	defs, err := ParseDefinitions(path)
	if err != nil {
		return err
	}
	rdnn, err := RDNN(defs.Namespace)
	if err != nil {
		return fmt.Errorf("model %s: %w", path, err)
	}
	workspace, err := WorkspaceName(root, path)
	if err != nil {
		return err
	}

	file := filepath.Base(path)
	ix.names[file] = defs.Name
	ix.rdnns[file] = rdnn
	ix.workspaces[file] = workspace
	return nil
}

// ModelName returns the model name registered for a model file name.
func (ix *Index) ModelName(file string) (string, error) {
	name, ok := ix.names[file]
	if !ok {
		return "", fmt.Errorf("no model registered for file %q", file)
	}
	return name, nil
}

// ModelRDNN returns the RDNN registered for a model file name.
func (ix *Index) ModelRDNN(file string) (string, error) {
	rdnn, ok := ix.rdnns[file]
	if !ok {
		return "", fmt.Errorf("no model registered for file %q", file)
	}
	return rdnn, nil
}

// WorkspaceName returns the workspace registered for a model file name.
func (ix *Index) WorkspaceName(file string) (string, error) {
	ws, ok := ix.workspaces[file]
	if !ok {
		return "", fmt.Errorf("no model registered for file %q", file)
	}
	return ws, nil
}

// InvocablePath builds the service path for an invocable of a model:
// "workspace/rdnn/name", with the workspace segment omitted when empty.
func (ix *Index) InvocablePath(file, invocable string) (string, error) {
	rdnn, err := ix.ModelRDNN(file)
	if err != nil {
		return "", err
	}
	ws, err := ix.WorkspaceName(file)
	if err != nil {
		return "", err
	}
	if ws == "" {
		return rdnn + "/" + invocable, nil
	}
	return ws + "/" + rdnn + "/" + invocable, nil
}

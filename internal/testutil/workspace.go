// Package testutil provides reusable test utilities for integration tests.
package testutil

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// Workspace is a temporary directory of documents and bibliography files.
type Workspace struct {
	Path  string
	t     *testing.T
	files map[string]string
}

// NewWorkspace creates a workspace builder. Call Build() to create the
// actual directory.
func NewWorkspace(t *testing.T) *Workspace {
	t.Helper()
	return &Workspace{
		t:     t,
		files: make(map[string]string),
	}
}

// WithFile adds a file to the workspace, path relative to the root.
func (w *Workspace) WithFile(path, content string) *Workspace {
	w.files[path] = content
	return w
}

// WithBib adds a bibliography file with one entry per key, each carrying
// a year field so sort-by-year tests have something to read.
func (w *Workspace) WithBib(path string, entries map[string]int) *Workspace {
	var b strings.Builder
	for key, year := range entries {
		b.WriteString("@article{" + key + ",\n")
		b.WriteString("  title = {Entry " + key + "},\n")
		if year > 0 {
			b.WriteString("  year = {" + strconv.Itoa(year) + "},\n")
		}
		b.WriteString("}\n\n")
	}
	w.files[path] = b.String()
	return w
}

// Build creates the workspace directory and all configured files.
func (w *Workspace) Build() *Workspace {
	w.t.Helper()
	w.Path = w.t.TempDir()
	for path, content := range w.files {
		w.writeFile(path, content)
	}
	return w
}

// Abs returns the absolute path of a workspace-relative path.
func (w *Workspace) Abs(relPath string) string {
	return filepath.Join(w.Path, relPath)
}

// ReadFile reads a workspace file, failing the test on error.
func (w *Workspace) ReadFile(relPath string) string {
	w.t.Helper()
	content, err := os.ReadFile(w.Abs(relPath))
	if err != nil {
		w.t.Fatalf("failed to read %s: %v", relPath, err)
	}
	return string(content)
}

// AssertFileContains fails the test if the file does not contain the substring.
func (w *Workspace) AssertFileContains(relPath, substr string) {
	w.t.Helper()
	content := w.ReadFile(relPath)
	if !strings.Contains(content, substr) {
		w.t.Errorf("expected file %s to contain %q, got:\n%s", relPath, substr, content)
	}
}

// AssertFileNotContains fails the test if the file contains the substring.
func (w *Workspace) AssertFileNotContains(relPath, substr string) {
	w.t.Helper()
	content := w.ReadFile(relPath)
	if strings.Contains(content, substr) {
		w.t.Errorf("expected file %s to not contain %q, got:\n%s", relPath, substr, content)
	}
}

func (w *Workspace) writeFile(relPath, content string) {
	w.t.Helper()
	fullPath := w.Abs(relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		w.t.Fatalf("failed to create directory for %s: %v", relPath, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
		w.t.Fatalf("failed to write %s: %v", relPath, err)
	}
}

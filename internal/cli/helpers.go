package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aidanlsb/corvid/internal/atomicfile"
	"github.com/aidanlsb/corvid/internal/config"
	"github.com/aidanlsb/corvid/internal/document"
)

// loadDocument reads the document named by args, falling back to the last
// checked document recorded in state.toml. The chosen document is
// remembered for the next invocation.
func loadDocument(args []string) (*document.Document, error) {
	var path string
	if len(args) > 0 {
		path = args[0]
	} else {
		state, err := config.LoadState(getStatePath())
		if err == nil && state.LastDocument != "" {
			path = state.LastDocument
		}
	}
	if path == "" {
		return nil, fmt.Errorf("no document specified and no last document recorded")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", path, err)
	}

	rememberDocument(abs)
	return document.New(abs, string(content)), nil
}

// rememberDocument records the active document in state. Best effort: a
// read-only filesystem must not break the command itself.
func rememberDocument(path string) {
	statePath := getStatePath()
	state, err := config.LoadState(statePath)
	if err != nil {
		return
	}
	if state.LastDocument == path {
		return
	}
	state.LastDocument = path
	_ = config.SaveState(statePath, state)
}

// writeDocument rewrites the document file atomically.
func writeDocument(doc *document.Document) error {
	if err := atomicfile.WriteFile(doc.Path, []byte(doc.Text), 0); err != nil {
		return fmt.Errorf("failed to write %s: %w", doc.Path, err)
	}
	return nil
}

// parseAt parses a --at argument: either a byte offset ("1042") or a
// 1-based line:col pair ("12:7").
func parseAt(doc *document.Document, at string) (int, error) {
	at = strings.TrimSpace(at)
	if at == "" {
		return 0, fmt.Errorf("position required (byte offset or line:col)")
	}

	if line, col, ok := strings.Cut(at, ":"); ok {
		l, err1 := strconv.Atoi(line)
		c, err2 := strconv.Atoi(col)
		if err1 != nil || err2 != nil {
			return 0, fmt.Errorf("invalid position %q", at)
		}
		offset, err := doc.OffsetFor(document.Position{Line: l, Col: c})
		if err != nil {
			return 0, fmt.Errorf("invalid position %q: %w", at, err)
		}
		return offset, nil
	}

	offset, err := strconv.Atoi(at)
	if err != nil {
		return 0, fmt.Errorf("invalid position %q", at)
	}
	if offset < 0 || offset > len(doc.Text) {
		return 0, fmt.Errorf("offset %d out of range (document is %d bytes)", offset, len(doc.Text))
	}
	return offset, nil
}

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/aidanlsb/corvid/internal/atomicfile"
)

// StateVersion is the current state file schema version.
const StateVersion = 1

// State represents mutable machine-local runtime state.
type State struct {
	Version int `toml:"version"`
	// LastDocument is the most recently checked document, used when a
	// command is invoked without a file argument.
	LastDocument string `toml:"last_document,omitempty"`
}

// StatePath returns the state.toml sibling of the config file.
func StatePath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), "state.toml")
}

// LoadState loads runtime state, returning an empty state when the file
// does not exist.
func LoadState(path string) (*State, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &State{Version: StateVersion}, nil
	}

	var state State
	if _, err := toml.DecodeFile(path, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state %s: %w", path, err)
	}
	if state.Version == 0 {
		state.Version = StateVersion
	}
	return &state, nil
}

// SaveState writes runtime state atomically.
func SaveState(path string, state *State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(state); err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	return atomicfile.WriteFile(path, buf.Bytes(), 0o644)
}

// Package config handles global corvid configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the global corvid configuration.
type Config struct {
	// DefaultBibliography is the fallback bibliography file list used
	// when a document declares no sources of its own.
	DefaultBibliography []string `toml:"default_bibliography"`

	// DefaultCiteKind is the marker type used when synthesizing a new
	// citation marker (defaults to "cite").
	DefaultCiteKind string `toml:"default_cite_kind"`

	// BracketLinks selects the [[...]] form for synthesized markers.
	BracketLinks bool `toml:"bracket_links"`

	// UI controls optional CLI theming preferences.
	UI UIConfig `toml:"ui"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an optional accent color for CLI output.
	// Supported values are ANSI color codes ("0" to "255") or hex colors ("#RRGGBB").
	Accent string `toml:"accent"`

	// CodeTheme sets the Glamour/Chroma theme used for rendered docs code blocks.
	CodeTheme string `toml:"code_theme"`
}

// CiteKind returns the configured default citation kind.
func (c *Config) CiteKind() string {
	if strings.TrimSpace(c.DefaultCiteKind) == "" {
		return "cite"
	}
	return c.DefaultCiteKind
}

// Load loads the configuration from the default location.
// Returns a default config if the file doesn't exist.
func Load() (*Config, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &Config{}, nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &config, nil
}

// ResolvePath resolves the effective config path: explicit flag, then the
// CORVID_CONFIG environment variable, then the default location.
func ResolvePath(explicit string) string {
	if strings.TrimSpace(explicit) != "" {
		return explicit
	}
	if env := strings.TrimSpace(os.Getenv("CORVID_CONFIG")); env != "" {
		return env
	}
	return DefaultPath()
}

// DefaultPath returns the default config file path.
// Checks ~/.config/corvid/config.toml first (XDG style),
// then falls back to OS-specific location.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "corvid", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "corvid", "config.toml")
	}

	return filepath.Join(".", "config.toml")
}

// KindsPath returns the user marker-kinds file living next to the config.
func KindsPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), "kinds.yaml")
}

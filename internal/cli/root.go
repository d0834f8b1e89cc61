// Package cli implements the command-line interface.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/corvid/internal/bib"
	"github.com/aidanlsb/corvid/internal/bibtex"
	"github.com/aidanlsb/corvid/internal/citation"
	"github.com/aidanlsb/corvid/internal/config"
	"github.com/aidanlsb/corvid/internal/marker"
	"github.com/aidanlsb/corvid/internal/registry"
	"github.com/aidanlsb/corvid/internal/ui"
)

var (
	// Global flags
	configPathFlag string

	// Resolved values
	resolvedConfigPath string
	cfg                *config.Config
	reg                *registry.Registry
	scanner            *marker.Scanner
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cvd",
	Short: "Corvid - citations and cross-references for plain-text documents",
	Long: `Corvid manages citation markers, cross-references and bibliography
sources in org-style plain-text documents.

It finds every referenceable label, resolves which bibliography files
apply, edits multi-key citation markers without disturbing surrounding
text, and reports unresolved or duplicated references.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "completion", "help", "version":
			return nil
		}

		var err error
		resolvedConfigPath = config.ResolvePath(configPathFlag)
		if strings.TrimSpace(configPathFlag) != "" {
			cfg, err = config.LoadFrom(resolvedConfigPath)
		} else if _, statErr := os.Stat(resolvedConfigPath); statErr == nil {
			cfg, err = config.LoadFrom(resolvedConfigPath)
		} else {
			cfg = &config.Config{}
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cfg == nil {
			cfg = &config.Config{}
		}
		ui.ConfigureTheme(cfg.UI.Accent)
		ui.ConfigureMarkdownCodeTheme(cfg.UI.CodeTheme)

		reg, err = registry.Load(config.KindsPath(resolvedConfigPath))
		if err != nil {
			return fmt.Errorf("failed to load marker kinds: %w", err)
		}
		scanner = marker.NewScanner(reg)

		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for agent/script use)")
}

// getConfig returns the loaded config.
func getConfig() *config.Config {
	return cfg
}

// getStatePath returns the state.toml path next to the config file.
func getStatePath() string {
	return config.StatePath(resolvedConfigPath)
}

// newResolver builds a bibliography source resolver from the loaded
// configuration.
func newResolver() *bib.Resolver {
	return bib.NewResolver(scanner, bibtex.New(), bib.WithDefaults(cfg.DefaultBibliography))
}

// newModel builds the citation key-list model.
func newModel() *citation.Model {
	return citation.NewModel(scanner, reg)
}

package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	builtindocs "github.com/aidanlsb/corvid/docs"
	"github.com/aidanlsb/corvid/internal/ui"
)

const docsIndexPath = "index.yaml"

type docsIndex struct {
	Topics map[string]docsTopic `yaml:"topics"`
}

type docsTopic struct {
	Title string `yaml:"title"`
	Path  string `yaml:"path"`
}

type jsonDocsTopic struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func loadDocsIndex() (*docsIndex, error) {
	raw, err := builtindocs.FS.ReadFile(docsIndexPath)
	if err != nil {
		return nil, fmt.Errorf("bundled docs index missing: %w", err)
	}
	var idx docsIndex
	if err := yaml.Unmarshal(raw, &idx); err != nil {
		return nil, fmt.Errorf("bundled docs index invalid: %w", err)
	}
	return &idx, nil
}

var docsCmd = &cobra.Command{
	Use:   "docs [topic]",
	Short: "Browse bundled documentation",
	Long: `Browse long-form documentation bundled into the cvd binary.

With no argument, lists the available topics. With a topic name,
renders that topic. For command-level usage, use 'cvd help <command>'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := loadDocsIndex()
		if err != nil {
			return handleError(ErrDocsTopicNotFound, err, "Rebuild cvd so bundled docs are available")
		}

		if len(args) == 0 {
			return listDocsTopics(idx)
		}
		return showDocsTopic(idx, args[0])
	},
}

func listDocsTopics(idx *docsIndex) error {
	ids := make([]string, 0, len(idx.Topics))
	for id := range idx.Topics {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if isJSONOutput() {
		out := make([]jsonDocsTopic, 0, len(ids))
		for _, id := range ids {
			out = append(out, jsonDocsTopic{ID: id, Title: idx.Topics[id].Title})
		}
		outputSuccess(out, &Meta{Count: len(out)})
		return nil
	}

	fmt.Println(ui.Header("Topics"))
	for _, id := range ids {
		fmt.Printf("  %s  %s\n", ui.Accent.Render(id), idx.Topics[id].Title)
	}
	fmt.Println(ui.Muted.Render("\nRead one with: cvd docs <topic>"))
	return nil
}

func showDocsTopic(idx *docsIndex, id string) error {
	topic, ok := idx.Topics[id]
	if !ok {
		return handleErrorMsg(ErrDocsTopicNotFound,
			fmt.Sprintf("unknown docs topic %q", id),
			"Run 'cvd docs' to list the available topics")
	}

	raw, err := builtindocs.FS.ReadFile(topic.Path)
	if err != nil {
		return handleError(ErrDocsTopicNotFound, err, "Rebuild cvd so bundled docs are available")
	}

	if isJSONOutput() {
		outputSuccess(map[string]string{"id": id, "title": topic.Title, "content": string(raw)}, nil)
		return nil
	}

	if isatty.IsTerminal(os.Stdout.Fd()) {
		rendered, err := ui.RenderMarkdown(string(raw), ui.DefaultTermWidth)
		if err == nil {
			fmt.Print(rendered)
			return nil
		}
	}
	fmt.Print(string(raw))
	return nil
}

func init() {
	rootCmd.AddCommand(docsCmd)
}

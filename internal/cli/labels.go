package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/corvid/internal/label"
	"github.com/aidanlsb/corvid/internal/ui"
)

var labelsName string

type jsonLabel struct {
	Name    string `json:"name"`
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Context string `json:"context,omitempty"`
}

var labelsCmd = &cobra.Command{
	Use:   "labels [file]",
	Short: "List referenceable labels in a document",
	Long: `Builds the label index for a document and prints every definition
site: explicit targets, named elements, TeX labels and radio targets.

Each entry carries a context window so a caller can preview the
definition without opening the file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(args)
		if err != nil {
			return handleError(ErrDocNotFound, err, "Pass a document path or run check on one first")
		}

		labels := label.Build(doc)
		if labelsName != "" {
			labels = label.NewIndex(labels).Find(labelsName)
		}

		if isJSONOutput() {
			out := make([]jsonLabel, 0, len(labels))
			for _, l := range labels {
				out = append(out, jsonLabel{
					Name:    l.Name,
					Line:    l.Position.Line,
					Col:     l.Position.Col,
					Context: l.Context,
				})
			}
			outputSuccess(out, &Meta{Count: len(out)})
			return nil
		}

		if len(labels) == 0 {
			if labelsName != "" {
				fmt.Println(ui.Info(fmt.Sprintf("No label named %q.", labelsName)))
			} else {
				fmt.Println(ui.Info("No labels found."))
			}
			return nil
		}

		for _, l := range labels {
			fmt.Printf("%s %s\n", ui.Subject(l.Name), ui.Location(doc.Path, l.Position.Line, l.Position.Col))
			fmt.Println(ui.Muted.Render(l.Context))
		}
		fmt.Printf("\n%d label(s).\n", len(labels))
		return nil
	},
}

func init() {
	labelsCmd.Flags().StringVar(&labelsName, "name", "", "Only show labels with this exact name")
	rootCmd.AddCommand(labelsCmd)
}

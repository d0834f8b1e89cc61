package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/corvid/internal/ui"
)

var sourcesRebuild bool

type jsonSource struct {
	Path string `json:"path"`
	Tier string `json:"tier"`
}

var sourcesCmd = &cobra.Command{
	Use:   "sources [file]",
	Short: "Show resolved bibliography sources for a document",
	Long: `Resolves which bibliography files apply to a document, walking the
precedence chain: the document itself when it is a bibliography file,
in-document declarations, resource commands, an external locator, then
configured defaults. The first tier that yields anything wins.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(args)
		if err != nil {
			return handleError(ErrDocNotFound, err, "Pass a document path or run check on one first")
		}

		resolver := newResolver()
		srcs := resolver.Resolve(doc)
		if sourcesRebuild {
			srcs = resolver.Rebuild(doc)
		}

		if isJSONOutput() {
			out := make([]jsonSource, 0, len(srcs.List))
			for _, s := range srcs.List {
				out = append(out, jsonSource{Path: s.Path, Tier: s.Rank.String()})
			}
			outputSuccess(out, &Meta{Count: len(out)})
			return nil
		}

		if len(srcs.List) == 0 {
			fmt.Println(ui.Info("No bibliography sources resolved."))
			fmt.Println(ui.Muted.Render("  Add a bibliography: declaration or set default_bibliography in config."))
			return nil
		}

		fmt.Printf("%s (%s)\n", ui.Header("Bibliography sources"), srcs.Tier)
		for _, s := range srcs.List {
			fmt.Printf("  %s\n", ui.FilePath(s.Path))
		}
		return nil
	},
}

func init() {
	sourcesCmd.Flags().BoolVar(&sourcesRebuild, "rebuild", false, "Drop the cached resolution and resolve again")
	rootCmd.AddCommand(sourcesCmd)
}

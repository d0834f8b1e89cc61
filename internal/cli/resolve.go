package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/corvid/internal/ui"
)

type jsonResolve struct {
	Key  string `json:"key"`
	File string `json:"file"`
	Tier string `json:"tier"`
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <key> [file]",
	Short: "Find the bibliography file defining a citation key",
	Long: `Searches the document's resolved bibliography sources in precedence
order and reports the first file whose entries include the key.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		doc, err := loadDocument(args[1:])
		if err != nil {
			return handleError(ErrDocNotFound, err, "Pass a document path or run check on one first")
		}

		resolver := newResolver()
		srcs := resolver.Resolve(doc)
		if len(srcs.List) == 0 {
			return handleErrorMsg(ErrNoSources,
				fmt.Sprintf("no bibliography sources resolved for %s", doc.Path),
				"Add a bibliography: declaration or set default_bibliography in config")
		}

		path, ok := resolver.FindFileForKey(key, srcs)
		if !ok {
			return handleErrorMsg(ErrKeyNotFound,
				fmt.Sprintf("key %q not found in any resolved source", key),
				"Run 'cvd sources' to see which files were searched")
		}

		if isJSONOutput() {
			outputSuccess(jsonResolve{Key: key, File: path, Tier: srcs.Tier.String()}, nil)
			return nil
		}

		fmt.Printf("%s %s\n", ui.Subject(key), ui.FilePath(path))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

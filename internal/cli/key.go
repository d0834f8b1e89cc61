package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/corvid/internal/citation"
	"github.com/aidanlsb/corvid/internal/document"
	"github.com/aidanlsb/corvid/internal/marker"
	"github.com/aidanlsb/corvid/internal/ui"
)

var (
	keyAtFlag        string
	keyFileFlag      string
	keyInsertKind    string
	keyInsertBracket bool
	keyDeleteKey     string
	keyReplaceKey    string
	keySwapDir       string
	keyShowContext   bool
)

// jsonEdit is the JSON shape of one applied edit.
type jsonEdit struct {
	Path  string `json:"path"`
	Caret int    `json:"caret"`
	Line  int    `json:"line"`
	Col   int    `json:"col"`
}

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Edit the citation marker at a position",
	Long: `Edits the key list of the citation marker at a position. The position
comes from --at as a byte offset or a 1-based line:col pair; --file
names the document (defaulting to the last checked one).

Edit subcommands rewrite the file atomically and print the caret
position to place the cursor at afterwards.`,
}

// keyDocAndOffset loads the target document and resolves --at.
func keyDocAndOffset() (*document.Document, int, error) {
	var args []string
	if keyFileFlag != "" {
		args = []string{keyFileFlag}
	}
	doc, err := loadDocument(args)
	if err != nil {
		return nil, 0, handleError(ErrDocNotFound, err, "Pass --file or run check on a document first")
	}
	offset, err := parseAt(doc, keyAtFlag)
	if err != nil {
		return nil, 0, handleError(ErrInvalidPosition, err, "Use --at with a byte offset or line:col")
	}
	return doc, offset, nil
}

// applyEdit splices the edit, rewrites the file and reports the caret.
func applyEdit(doc *document.Document, e citation.Edit) error {
	updated, err := citation.Apply(doc, e)
	if err != nil {
		return handleError(ErrInvalidPosition, err, "")
	}
	if err := writeDocument(updated); err != nil {
		return handleError(ErrFileWriteError, err, "Check the file is writable")
	}

	pos := updated.PositionFor(e.Caret)
	if isJSONOutput() {
		outputSuccess(jsonEdit{Path: updated.Path, Caret: e.Caret, Line: pos.Line, Col: pos.Col}, nil)
		return nil
	}
	fmt.Printf("%s caret %s\n", ui.Success("Updated"), ui.Location(updated.Path, pos.Line, pos.Col))
	return nil
}

// keyEditErr maps model errors to stable codes.
func keyEditErr(err error) error {
	switch {
	case errors.Is(err, citation.ErrNoMarker):
		return handleError(ErrMarkerNotFound, err, "Place the position on a citation marker")
	case errors.Is(err, citation.ErrKeyNotInMarker):
		return handleError(ErrKeyNotInMarker, err, "Run 'cvd key show' to list the marker's keys")
	default:
		return handleError(ErrInvalidPosition, err, "")
	}
}

var keyInsertCmd = &cobra.Command{
	Use:   "insert <keys...>",
	Short: "Insert keys at the position",
	Long: `Inserts keys into the marker at the position, after the key under
point. Off-marker, a new marker is synthesized; a half-typed marker
type directly before the position is completed instead of duplicated.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, offset, err := keyDocAndOffset()
		if err != nil || doc == nil {
			return err
		}

		kind := keyInsertKind
		if kind == "" {
			kind = getConfig().CiteKind()
		}
		if _, ok := reg.Lookup(kind); !ok {
			return handleErrorMsg(ErrUnknownKind,
				fmt.Sprintf("unknown citation kind %q", kind),
				"Add it to kinds.yaml or use a built-in kind")
		}

		bracketed := keyInsertBracket || getConfig().BracketLinks
		edit, err := newModel().Insert(doc, offset, args, citation.InsertOptions{
			Kind:      kind,
			Bracketed: bracketed,
		})
		if err != nil {
			return keyEditErr(err)
		}
		return applyEdit(doc, edit)
	},
}

var keyDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the key under the position",
	Long: `Deletes the key under the position, or the key named by --key.
Removing a marker's only key removes the whole marker along with one
trailing space.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, offset, err := keyDocAndOffset()
		if err != nil || doc == nil {
			return err
		}

		var edit citation.Edit
		if keyDeleteKey != "" {
			edit, err = newModel().DeleteKey(doc, offset, keyDeleteKey)
		} else {
			edit, err = newModel().Delete(doc, offset)
		}
		if err != nil {
			return keyEditErr(err)
		}
		return applyEdit(doc, edit)
	},
}

var keyReplaceCmd = &cobra.Command{
	Use:   "replace <keys...>",
	Short: "Replace a key with one or more keys",
	Long: `Replaces the key under the position (or the key named by --key)
with the given keys, in place, leaving the rest of the list untouched.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, offset, err := keyDocAndOffset()
		if err != nil || doc == nil {
			return err
		}

		old := keyReplaceKey
		if old == "" {
			c, ok := scanner.CitationAt(doc, offset)
			if !ok {
				return keyEditErr(citation.ErrNoMarker)
			}
			old = c.Keys[citation.KeyAt(c, offset)]
		}

		edit, err := newModel().Replace(doc, offset, old, args)
		if err != nil {
			return keyEditErr(err)
		}
		return applyEdit(doc, edit)
	},
}

var keySwapCmd = &cobra.Command{
	Use:   "swap",
	Short: "Swap the key under the position with a neighbor",
	Long: `Swaps the key under the position with its neighbor: --dir next
moves it toward the end of the list, --dir prev toward the start. At
the list boundary nothing changes and the file is left untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, offset, err := keyDocAndOffset()
		if err != nil || doc == nil {
			return err
		}

		dir := 0
		switch keySwapDir {
		case "next":
			dir = 1
		case "prev":
			dir = -1
		default:
			return handleErrorMsg(ErrMissingArgument,
				fmt.Sprintf("invalid --dir %q", keySwapDir), "Use --dir next or --dir prev")
		}

		edit, changed, err := newModel().Swap(doc, offset, dir)
		if err != nil {
			return keyEditErr(err)
		}
		if !changed {
			if isJSONOutput() {
				pos := doc.PositionFor(offset)
				outputSuccess(jsonEdit{Path: doc.Path, Caret: offset, Line: pos.Line, Col: pos.Col}, nil)
				return nil
			}
			fmt.Println(ui.Info("Already at the list boundary."))
			return nil
		}
		return applyEdit(doc, edit)
	},
}

var keySortCmd = &cobra.Command{
	Use:   "sort",
	Short: "Sort the marker's keys by publication year",
	Long: `Sorts the key list of the marker at the position by the year field
of each key's bibliography entry, ascending and stable. Keys with no
resolvable year sort first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, offset, err := keyDocAndOffset()
		if err != nil || doc == nil {
			return err
		}

		resolver := newResolver()
		srcs := resolver.Resolve(doc)
		edit, err := newModel().SortByYear(doc, offset, citation.YearFn(resolver.YearFn(srcs)))
		if err != nil {
			return keyEditErr(err)
		}
		return applyEdit(doc, edit)
	},
}

// jsonCaret is the JSON shape of a pure navigation result.
type jsonCaret struct {
	Path  string `json:"path"`
	Caret int    `json:"caret"`
	Line  int    `json:"line"`
	Col   int    `json:"col"`
}

func runKeyMove(next bool) error {
	doc, offset, err := keyDocAndOffset()
	if err != nil || doc == nil {
		return err
	}

	var target int
	var ok bool
	if next {
		target, ok = newModel().Next(doc, offset)
	} else {
		target, ok = newModel().Prev(doc, offset)
	}
	if !ok {
		return handleErrorMsg(ErrMarkerNotFound, "no further citation key", "")
	}

	pos := doc.PositionFor(target)
	if isJSONOutput() {
		outputSuccess(jsonCaret{Path: doc.Path, Caret: target, Line: pos.Line, Col: pos.Col}, nil)
		return nil
	}
	fmt.Println(ui.Location(doc.Path, pos.Line, pos.Col))
	return nil
}

var keyNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Move to the next citation key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runKeyMove(true)
	},
}

var keyPrevCmd = &cobra.Command{
	Use:   "prev",
	Short: "Move to the previous citation key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runKeyMove(false)
	},
}

type jsonShow struct {
	Kind     string   `json:"kind"`
	Keys     []string `json:"keys"`
	Key      string   `json:"key"`
	Index    int      `json:"index"`
	Source   string   `json:"source,omitempty"`
	PreText  string   `json:"pre_text,omitempty"`
	PostText string   `json:"post_text,omitempty"`
	Context  string   `json:"context,omitempty"`
}

var keyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Describe the marker and key under the position",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, offset, err := keyDocAndOffset()
		if err != nil || doc == nil {
			return err
		}

		c, ok := scanner.CitationAt(doc, offset)
		if !ok {
			return keyEditErr(citation.ErrNoMarker)
		}
		i := citation.KeyAt(c, offset)
		key := c.Keys[i]

		resolver := newResolver()
		source, _ := resolver.FindFileForKey(key, resolver.Resolve(doc))

		var context string
		if keyShowContext {
			context = doc.Context(c.Span)
		}

		var pre, post string
		if c.HasDescription {
			pre, post, _ = marker.SplitDescription(c.Description)
		}

		if isJSONOutput() {
			outputSuccess(jsonShow{
				Kind:     c.Kind.Name,
				Keys:     c.Keys,
				Key:      key,
				Index:    i,
				Source:   source,
				PreText:  pre,
				PostText: post,
				Context:  context,
			}, nil)
			return nil
		}

		fmt.Printf("%s %s\n", ui.Subject(c.Kind.Name), ui.Muted.Render(c.Literal))
		fmt.Printf("  key %d of %d: %s\n", i+1, len(c.Keys), ui.Bold.Render(key))
		if source != "" {
			fmt.Printf("  defined in %s\n", ui.FilePath(source))
		}
		if c.HasDescription {
			if post != "" {
				fmt.Printf("  description: %s :: %s\n", pre, post)
			} else {
				fmt.Printf("  description: %s\n", pre)
			}
		}
		if context != "" {
			fmt.Println(context)
		}
		return nil
	},
}

func init() {
	keyCmd.PersistentFlags().StringVar(&keyAtFlag, "at", "", "Position: byte offset or line:col")
	keyCmd.PersistentFlags().StringVar(&keyFileFlag, "file", "", "Document to edit (defaults to the last checked one)")

	keyInsertCmd.Flags().StringVar(&keyInsertKind, "kind", "", "Marker kind for a synthesized marker")
	keyInsertCmd.Flags().BoolVar(&keyInsertBracket, "bracket", false, "Synthesize the [[...]] form")
	keyDeleteCmd.Flags().StringVar(&keyDeleteKey, "key", "", "Delete this key instead of the one under point")
	keyReplaceCmd.Flags().StringVar(&keyReplaceKey, "key", "", "Replace this key instead of the one under point")
	keySwapCmd.Flags().StringVar(&keySwapDir, "dir", "next", "Direction: next or prev")
	keyShowCmd.Flags().BoolVar(&keyShowContext, "context", false, "Include the surrounding context window")

	keyCmd.AddCommand(keyInsertCmd, keyDeleteCmd, keyReplaceCmd, keySwapCmd,
		keySortCmd, keyNextCmd, keyPrevCmd, keyShowCmd)
	rootCmd.AddCommand(keyCmd)
}

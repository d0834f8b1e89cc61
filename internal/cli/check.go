package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/corvid/internal/check"
	"github.com/aidanlsb/corvid/internal/document"
	"github.com/aidanlsb/corvid/internal/ui"
)

var checkStrict bool

// jsonFinding is the JSON shape of one validation finding.
type jsonFinding struct {
	Check   string `json:"check"`
	Subject string `json:"subject"`
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

type jsonReport struct {
	Path                 string        `json:"path"`
	UnresolvedCitations  []jsonFinding `json:"unresolved_citations"`
	UnresolvedReferences []jsonFinding `json:"unresolved_references"`
	DuplicateLabels      []jsonFinding `json:"duplicate_labels"`
	MissingFiles         []jsonFinding `json:"missing_files"`
	Total                int           `json:"total"`
}

func toJSONFindings(findings []check.Finding) []jsonFinding {
	out := make([]jsonFinding, 0, len(findings))
	for _, f := range findings {
		out = append(out, jsonFinding{
			Check:   f.Kind.String(),
			Subject: f.Subject,
			Line:    f.Position.Line,
			Col:     f.Position.Col,
			Message: f.Message,
		})
	}
	return out
}

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Validate citations, references and linked files",
	Long: `Runs the four consistency checks over a document: citation keys
missing from every resolved bibliography source, reference targets with
no matching label, labels defined more than once, and linked files that
do not exist on disk.

With no file argument the last checked document is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(args)
		if err != nil {
			return handleError(ErrDocNotFound, err, "Pass a document path or run check on one first")
		}

		validator := check.NewValidator(scanner, newResolver())
		report := validator.Validate(doc)

		if isJSONOutput() {
			outputSuccess(jsonReport{
				Path:                 report.Path,
				UnresolvedCitations:  toJSONFindings(report.UnresolvedCitations),
				UnresolvedReferences: toJSONFindings(report.UnresolvedReferences),
				DuplicateLabels:      toJSONFindings(report.DuplicateLabels),
				MissingFiles:         toJSONFindings(report.MissingFiles),
				Total:                report.Total(),
			}, &Meta{Count: report.Total()})
		} else {
			printReport(doc, report)
		}

		if report.Total() > 0 && checkStrict {
			os.Exit(1)
		}
		return nil
	},
}

func printReport(doc *document.Document, report *check.Report) {
	fmt.Printf("Checking %s\n\n", ui.FilePath(doc.Path))

	sections := []struct {
		title    string
		findings []check.Finding
	}{
		{"Unresolved citations", report.UnresolvedCitations},
		{"Unresolved references", report.UnresolvedReferences},
		{"Duplicate labels", report.DuplicateLabels},
		{"Missing files", report.MissingFiles},
	}

	for _, s := range sections {
		if len(s.findings) == 0 {
			continue
		}
		fmt.Println(ui.Header(s.title))
		for _, f := range s.findings {
			fmt.Printf("  %s %s %s\n",
				ui.Warning(f.Subject),
				ui.Location(doc.Path, f.Position.Line, f.Position.Col),
				f.Message)
		}
		fmt.Println()
	}

	if report.Total() == 0 {
		fmt.Println(ui.Success("No issues found."))
	} else {
		fmt.Println(ui.Errorf("%d issue(s) found.", report.Total()))
	}
}

func init() {
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "Exit non-zero when any finding is reported")
	rootCmd.AddCommand(checkCmd)
}

// Package check handles document-wide consistency validation.
package check

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aidanlsb/corvid/internal/bib"
	"github.com/aidanlsb/corvid/internal/document"
	"github.com/aidanlsb/corvid/internal/label"
	"github.com/aidanlsb/corvid/internal/marker"
)

// WildcardKey is the reserved citation key meaning "all entries". It is
// never checked against the bibliography sources.
const WildcardKey = "*"

// Kind identifies one of the four checks.
type Kind int

const (
	UnresolvedCitation Kind = iota
	UnresolvedReference
	DuplicateLabel
	MissingFile
)

func (k Kind) String() string {
	switch k {
	case UnresolvedCitation:
		return "unresolved-citation"
	case UnresolvedReference:
		return "unresolved-reference"
	case DuplicateLabel:
		return "duplicate-label"
	case MissingFile:
		return "missing-file"
	default:
		return "unknown"
	}
}

// Finding is one navigable validation result. Findings are reported, never
// auto-corrected; the document stays valid and editable no matter how many
// there are.
type Finding struct {
	Kind Kind
	// Subject is the key, label name or path the finding is about.
	Subject string
	// Span locates the subject in the document text.
	Span document.Span
	// Position is the 1-based location for display and navigation.
	Position document.Position
	Message  string
}

// Report groups the findings of one validation run.
type Report struct {
	Path                 string
	UnresolvedCitations  []Finding
	UnresolvedReferences []Finding
	DuplicateLabels      []Finding
	MissingFiles         []Finding
}

// Total returns the number of findings across all four checks.
func (r *Report) Total() int {
	return len(r.UnresolvedCitations) + len(r.UnresolvedReferences) +
		len(r.DuplicateLabels) + len(r.MissingFiles)
}

// All returns every finding, grouped by check.
func (r *Report) All() []Finding {
	out := make([]Finding, 0, r.Total())
	out = append(out, r.UnresolvedCitations...)
	out = append(out, r.UnresolvedReferences...)
	out = append(out, r.DuplicateLabels...)
	out = append(out, r.MissingFiles...)
	return out
}

// Validator runs the consistency checks. Each check is read-only over the
// document snapshot.
type Validator struct {
	scan     *marker.Scanner
	resolver *bib.Resolver
}

// NewValidator creates a validator over a compiled scanner and resolver.
func NewValidator(scan *marker.Scanner, resolver *bib.Resolver) *Validator {
	return &Validator{scan: scan, resolver: resolver}
}

// Validate runs all four checks against the snapshot.
func (v *Validator) Validate(doc *document.Document) *Report {
	srcs := v.resolver.Resolve(doc)
	idx := label.NewIndex(label.Build(doc))

	return &Report{
		Path:                 doc.Path,
		UnresolvedCitations:  v.CheckCitations(doc, srcs),
		UnresolvedReferences: v.CheckReferences(doc, idx),
		DuplicateLabels:      v.CheckDuplicateLabels(doc, idx),
		MissingFiles:         v.CheckFiles(doc),
	}
}

// CheckCitations flags every citation key absent from all resolved
// sources. The wildcard key is exempt. An empty source list makes every
// key unresolved, which is a valid reportable end state.
func (v *Validator) CheckCitations(doc *document.Document, srcs *bib.Sources) []Finding {
	var findings []Finding
	for _, c := range v.scan.Citations(doc) {
		for i, key := range c.Keys {
			if key == WildcardKey {
				continue
			}
			if v.resolver.HasKey(key, srcs) {
				continue
			}
			span := c.KeySpans[i]
			findings = append(findings, Finding{
				Kind:     UnresolvedCitation,
				Subject:  key,
				Span:     span,
				Position: doc.PositionFor(span.Start),
				Message:  fmt.Sprintf("citation key '%s' not found in any bibliography source", key),
			})
		}
	}
	return findings
}

// CheckReferences flags every reference target absent from the label
// index. A duplicated target is not flagged here: that is a label-side
// problem reported by CheckDuplicateLabels.
func (v *Validator) CheckReferences(doc *document.Document, idx *label.Index) []Finding {
	var findings []Finding
	for _, ref := range v.scan.References(doc) {
		for i, target := range ref.Targets {
			if len(idx.Find(target)) > 0 {
				continue
			}
			span := ref.TargetSpans[i]
			findings = append(findings, Finding{
				Kind:     UnresolvedReference,
				Subject:  target,
				Span:     span,
				Position: doc.PositionFor(span.Start),
				Message:  fmt.Sprintf("reference target '%s' is not defined", target),
			})
		}
	}
	return findings
}

// CheckDuplicateLabels flags every occurrence of a multiply-defined label
// name, not just the extras, across all label syntaxes.
func (v *Validator) CheckDuplicateLabels(doc *document.Document, idx *label.Index) []Finding {
	var findings []Finding
	for _, l := range idx.All() {
		occurrences := idx.Find(l.Name)
		if len(occurrences) < 2 {
			continue
		}
		findings = append(findings, Finding{
			Kind:     DuplicateLabel,
			Subject:  l.Name,
			Span:     l.Span,
			Position: l.Position,
			Message:  fmt.Sprintf("label '%s' is defined %d times", l.Name, len(occurrences)),
		})
	}
	return findings
}

// CheckFiles flags file-attachment markers whose path does not exist on
// disk. Relative paths are taken against the document's directory.
func (v *Validator) CheckFiles(doc *document.Document) []Finding {
	var findings []Finding
	for _, link := range v.scan.FileLinks(doc) {
		path := link.Path
		if !filepath.IsAbs(path) && doc.Path != "" {
			path = filepath.Join(filepath.Dir(doc.Path), path)
		}
		if _, err := os.Stat(path); err == nil {
			continue
		}
		findings = append(findings, Finding{
			Kind:     MissingFile,
			Subject:  link.Path,
			Span:     link.Span,
			Position: doc.PositionFor(link.Span.Start),
			Message:  fmt.Sprintf("linked file '%s' does not exist", link.Path),
		})
	}
	return findings
}

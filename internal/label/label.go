// Package label builds the index of referenceable labels in a document.
//
// Four label syntaxes are recognized concurrently:
//
//	:CUSTOM_ID: name     (heading property)
//	#+name: name         (named block keyword)
//	\label{name}         (TeX label command)
//	<<name>>             (radio target)
//
// All four are alternatives of one combined pattern compiled at package
// init, so a build is a single linear pass over the document. This matters:
// the index is rebuilt on every idle check while the cursor sits on a
// reference link.
package label

import (
	"regexp"

	"github.com/aidanlsb/corvid/internal/document"
)

// Label is one referenceable definition site.
type Label struct {
	// Name is the identifier reference markers use. Padding and syntax
	// decoration are never part of it.
	Name string
	// Span covers the name itself in the document text.
	Span document.Span
	// Position is the 1-based location of the name.
	Position document.Position
	// Context is the padded display window around the definition.
	Context string
}

// nameChars is the label identifier charset shared by the first three
// syntaxes. Radio targets additionally allow interior spaces; their inner
// text excludes angle brackets, newlines, and edge whitespace.
const nameChars = `[a-zA-Z0-9_:-]`

// combined matches all four label syntaxes as alternatives. Each
// alternative has exactly one capture group; matchName normalizes to a
// single group index.
var combined = regexp.MustCompile(`(?m)` +
	`^[ \t]*(?i::CUSTOM_ID:)[ \t]+(` + nameChars + `+)[ \t]*$` +
	`|^[ \t]*(?i:#\+name:)[ \t]+(` + nameChars + `+)[ \t]*$` +
	`|\\label\{(` + nameChars + `+)\}` +
	`|<<([^<>\n\t ](?:[^<>\n]*[^<>\n\t ])?)>>`)

// matchName picks the one capture group that participated in the match,
// returning the name span.
func matchName(m []int) (document.Span, bool) {
	for g := 1; g <= 4; g++ {
		if m[2*g] >= 0 {
			return document.Span{Start: m[2*g], End: m[2*g+1]}, true
		}
	}
	return document.Span{}, false
}

// Build scans the snapshot and returns every label in document order.
// Context windows are computed from the same pass; the document is never
// re-scanned per label.
func Build(doc *document.Document) []Label {
	var labels []Label
	for _, m := range combined.FindAllStringSubmatchIndex(doc.Text, -1) {
		span, ok := matchName(m)
		if !ok {
			continue
		}
		labels = append(labels, Label{
			Name:     doc.Text[span.Start:span.End],
			Span:     span,
			Position: doc.PositionFor(span.Start),
			Context:  doc.Context(span),
		})
	}
	return labels
}

// Index is a lookup view over a built label list.
type Index struct {
	labels []Label
	byName map[string][]int
}

// NewIndex wraps a label list for name lookups.
func NewIndex(labels []Label) *Index {
	idx := &Index{labels: labels, byName: make(map[string][]int)}
	for i, l := range labels {
		idx.byName[l.Name] = append(idx.byName[l.Name], i)
	}
	return idx
}

// All returns the labels in document order.
func (idx *Index) All() []Label { return idx.labels }

// Find returns every label bearing the name, in document order.
func (idx *Index) Find(name string) []Label {
	positions := idx.byName[name]
	out := make([]Label, 0, len(positions))
	for _, i := range positions {
		out = append(out, idx.labels[i])
	}
	return out
}

// Resolved reports whether exactly one label bears the name. Zero matches
// is an unresolved reference; more than one is a duplicate-label problem
// reported on the label side.
func (idx *Index) Resolved(name string) bool {
	return len(idx.byName[name]) == 1
}

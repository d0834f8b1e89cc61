// Package marker provides canonical scanning of inline citation, reference,
// bibliography and file markers.
//
// Marker grammar:
//
//	type:k1,k2,k3
//	[[type:k1,k2,k3]]
//	[[type:k1,k2,k3][description]]
//
// The description may carry a "pre::post" split. Bibliography declarations
// and file links reuse the same bare/bracketed shapes, plus the raw TeX
// forms \addbibresource{file} and \attachfile{path}.
//
// The patterns are compiled once per Scanner from the kind registry, so a
// scan is one linear pass per marker class.
package marker

import (
	"regexp"
	"strings"

	"github.com/aidanlsb/corvid/internal/document"
	"github.com/aidanlsb/corvid/internal/registry"
)

// keyChars is the citation key charset: alphanumerics plus the punctuation
// legal inside keys (colon, period, slash, underscore, hyphen) and the
// reserved wildcard key "*".
const keyChars = `[A-Za-z0-9_:./*-]`

// labelChars is the reference target charset.
const labelChars = `[a-zA-Z0-9_:-]`

// Citation is one parsed citation marker.
type Citation struct {
	Kind registry.Descriptor
	// Keys is the ordered key list. Never empty for a parsed marker;
	// duplicates are permitted and order is meaningful.
	Keys []string
	// KeySpans locates each key in the document text, parallel to Keys.
	KeySpans []document.Span
	// Span covers the whole marker, brackets included.
	Span document.Span
	// PathSpan covers the comma-joined key path (no type prefix).
	PathSpan document.Span
	// Bracketed is true for the [[...]] form.
	Bracketed bool
	// Description is the raw description text, empty unless HasDescription.
	Description    string
	HasDescription bool
	// Literal is the marker exactly as written.
	Literal string
}

// Reference is one parsed cross-reference marker.
type Reference struct {
	Kind registry.Descriptor
	// Targets is the ordered label name list.
	Targets     []string
	TargetSpans []document.Span
	Span        document.Span
	Literal     string
}

// BibDecl is one bibliography-source declaration.
type BibDecl struct {
	// Files in declaration order.
	Files []string
	Span  document.Span
	// Raw is true for the \addbibresource{...} TeX form.
	Raw bool
}

// FileLink is one file-attachment marker.
type FileLink struct {
	Path string
	Span document.Span
	// Raw is true for the \attachfile{...} TeX form.
	Raw bool
}

// Scanner scans documents for markers using patterns built from a registry.
type Scanner struct {
	reg *registry.Registry

	citeRe    *regexp.Regexp
	refRe     *regexp.Regexp
	bibRe     *regexp.Regexp
	rawBibRe  *regexp.Regexp
	fileRe    *regexp.Regexp
	rawFileRe *regexp.Regexp
}

// NewScanner compiles the marker patterns for the given registry. Build it
// once and reuse it; compilation is not cheap enough for per-scan use.
func NewScanner(reg *registry.Registry) *Scanner {
	cite := alternation(reg.Names(registry.ClassCitation))
	ref := alternation(reg.Names(registry.ClassReference))
	bib := alternation(reg.Names(registry.ClassBibliography))
	file := alternation(reg.Names(registry.ClassFile))

	return &Scanner{
		reg:       reg,
		citeRe:    dualPattern(cite, keyChars+`[`+innerKeyChars+`]*`),
		refRe:     dualPattern(ref, labelChars+`[`+innerLabelChars+`]*`),
		bibRe:     dualPattern(bib, `[^\s\]]+`),
		rawBibRe:  regexp.MustCompile(`\\addbibresource\{([^}\n]+)\}`),
		fileRe:    dualPattern(file, `[^\s\]]+`),
		rawFileRe: regexp.MustCompile(`\\attachfile\{([^}\n]+)\}`),
	}
}

// Character-class bodies for the bare path tails (first char stricter than
// the rest is not needed here; commas join list elements).
const (
	innerKeyChars   = `A-Za-z0-9_:./,*-`
	innerLabelChars = `a-zA-Z0-9_:,-`
)

// dualPattern builds the combined bracketed-or-bare pattern for a type
// alternation. Groups: 1-3 bracketed (type, path, description), 4-5 bare
// (type, path). The bracketed alternative comes first so a [[...]] marker
// is consumed whole and its body is never re-matched as a bare marker.
func dualPattern(typeAlt, barePath string) *regexp.Regexp {
	return regexp.MustCompile(
		`\[\[(` + typeAlt + `):([^\]]+)\](?:\[([^\]]*)\])?\]` +
			`|\b(` + typeAlt + `):(` + barePath + `)`)
}

// alternation joins kind names into a regexp alternation. Names arrive
// longest-first from the registry so shorter names cannot shadow longer
// ones (cite vs citet).
func alternation(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = regexp.QuoteMeta(n)
	}
	return strings.Join(quoted, "|")
}

// dualMatch is one decoded match of a dualPattern.
type dualMatch struct {
	span      document.Span
	typeName  string
	pathSpan  document.Span
	bracketed bool
	desc      string
	hasDesc   bool
}

func decodeDual(text string, m []int) dualMatch {
	out := dualMatch{span: document.Span{Start: m[0], End: m[1]}}
	if m[2] >= 0 { // bracketed
		out.bracketed = true
		out.typeName = text[m[2]:m[3]]
		out.pathSpan = document.Span{Start: m[4], End: m[5]}
		if m[6] >= 0 {
			out.hasDesc = true
			out.desc = text[m[6]:m[7]]
		}
		return out
	}
	out.typeName = text[m[8]:m[9]]
	out.pathSpan = document.Span{Start: m[10], End: m[11]}
	return out
}

// Citations returns every citation marker in document order.
func (s *Scanner) Citations(doc *document.Document) []Citation {
	var out []Citation
	for _, raw := range s.citeRe.FindAllStringSubmatchIndex(doc.Text, -1) {
		m := decodeDual(doc.Text, raw)
		kind, ok := s.reg.Lookup(m.typeName)
		if !ok {
			continue
		}
		keys, spans := splitList(doc.Text, m.pathSpan)
		if len(keys) == 0 {
			continue
		}
		out = append(out, Citation{
			Kind:           kind,
			Keys:           keys,
			KeySpans:       spans,
			Span:           m.span,
			PathSpan:       m.pathSpan,
			Bracketed:      m.bracketed,
			Description:    m.desc,
			HasDescription: m.hasDesc,
			Literal:        doc.Text[m.span.Start:m.span.End],
		})
	}
	return out
}

// CitationAt returns the citation marker containing the offset. The
// position immediately after a marker still counts as that marker, so
// edits keyed off a caret that just finished typing it behave naturally.
func (s *Scanner) CitationAt(doc *document.Document, offset int) (Citation, bool) {
	for _, c := range s.Citations(doc) {
		if c.Span.Contains(offset) || offset == c.Span.End {
			return c, true
		}
		if c.Span.Start > offset {
			break
		}
	}
	return Citation{}, false
}

// NextCitation returns the first citation marker starting after offset.
func (s *Scanner) NextCitation(doc *document.Document, offset int) (Citation, bool) {
	for _, c := range s.Citations(doc) {
		if c.Span.Start > offset {
			return c, true
		}
	}
	return Citation{}, false
}

// PrevCitation returns the last citation marker ending before offset.
func (s *Scanner) PrevCitation(doc *document.Document, offset int) (Citation, bool) {
	var prev Citation
	found := false
	for _, c := range s.Citations(doc) {
		if c.Span.End <= offset {
			prev = c
			found = true
			continue
		}
		break
	}
	return prev, found
}

// References returns every cross-reference marker in document order.
func (s *Scanner) References(doc *document.Document) []Reference {
	var out []Reference
	for _, raw := range s.refRe.FindAllStringSubmatchIndex(doc.Text, -1) {
		m := decodeDual(doc.Text, raw)
		kind, ok := s.reg.Lookup(m.typeName)
		if !ok {
			continue
		}
		targets, spans := splitList(doc.Text, m.pathSpan)
		if len(targets) == 0 {
			continue
		}
		out = append(out, Reference{
			Kind:        kind,
			Targets:     targets,
			TargetSpans: spans,
			Span:        m.span,
			Literal:     doc.Text[m.span.Start:m.span.End],
		})
	}
	return out
}

// BibDeclarations returns bibliography declarations written in marker form
// (bibliography: or addbibresource:, bare or bracketed), in document order.
func (s *Scanner) BibDeclarations(doc *document.Document) []BibDecl {
	var out []BibDecl
	for _, raw := range s.bibRe.FindAllStringSubmatchIndex(doc.Text, -1) {
		m := decodeDual(doc.Text, raw)
		if _, ok := s.reg.Lookup(m.typeName); !ok {
			continue
		}
		files, _ := splitList(doc.Text, m.pathSpan)
		if len(files) == 0 {
			continue
		}
		out = append(out, BibDecl{Files: files, Span: m.span})
	}
	return out
}

// RawBibResources returns \addbibresource{...} commands in document order.
// One file per command; the command is repeatable.
func (s *Scanner) RawBibResources(doc *document.Document) []BibDecl {
	var out []BibDecl
	for _, m := range s.rawBibRe.FindAllStringSubmatchIndex(doc.Text, -1) {
		file := strings.TrimSpace(doc.Text[m[2]:m[3]])
		if file == "" {
			continue
		}
		out = append(out, BibDecl{
			Files: []string{file},
			Span:  document.Span{Start: m[0], End: m[1]},
			Raw:   true,
		})
	}
	return out
}

// FileLinks returns every file-attachment marker, both link and TeX forms,
// in document order.
func (s *Scanner) FileLinks(doc *document.Document) []FileLink {
	var out []FileLink
	for _, raw := range s.fileRe.FindAllStringSubmatchIndex(doc.Text, -1) {
		m := decodeDual(doc.Text, raw)
		if _, ok := s.reg.Lookup(m.typeName); !ok {
			continue
		}
		path := strings.TrimSpace(doc.Text[m.pathSpan.Start:m.pathSpan.End])
		if path == "" {
			continue
		}
		out = append(out, FileLink{Path: path, Span: m.span})
	}
	for _, m := range s.rawFileRe.FindAllStringSubmatchIndex(doc.Text, -1) {
		path := strings.TrimSpace(doc.Text[m[2]:m[3]])
		if path == "" {
			continue
		}
		out = append(out, FileLink{
			Path: path,
			Span: document.Span{Start: m[0], End: m[1]},
			Raw:  true,
		})
	}
	// Two passes over two patterns; merge back into document order.
	sortByStart(out)
	return out
}

func sortByStart(links []FileLink) {
	for i := 1; i < len(links); i++ {
		for j := i; j > 0 && links[j].Span.Start < links[j-1].Span.Start; j-- {
			links[j], links[j-1] = links[j-1], links[j]
		}
	}
}

// splitList splits a comma-joined path into trimmed elements with their
// document spans. Whitespace around elements is stripped; punctuation
// inside an element (colons, periods, slashes, underscores, hyphens) never
// splits it.
func splitList(text string, path document.Span) ([]string, []document.Span) {
	var elems []string
	var spans []document.Span

	raw := text[path.Start:path.End]
	start := 0
	for start <= len(raw) {
		end := strings.IndexByte(raw[start:], ',')
		var seg string
		if end < 0 {
			seg = raw[start:]
			end = len(raw)
		} else {
			end += start
			seg = raw[start:end]
		}

		trimmed := strings.TrimSpace(seg)
		if trimmed != "" {
			lead := len(seg) - len(strings.TrimLeft(seg, " \t"))
			s := path.Start + start + lead
			elems = append(elems, trimmed)
			spans = append(spans, document.Span{Start: s, End: s + len(trimmed)})
		}

		start = end + 1
	}
	return elems, spans
}

// SplitDescription splits a marker description on its first "::" separator
// into pre and post text. split is false when no separator is present.
func SplitDescription(desc string) (pre, post string, split bool) {
	i := strings.Index(desc, "::")
	if i < 0 {
		return desc, "", false
	}
	return desc[:i], desc[i+2:], true
}

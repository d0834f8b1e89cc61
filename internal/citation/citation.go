// Package citation implements the key-list model for citation markers: key
// lookup under a caret, navigation, and the edit operations that rewrite a
// marker in place.
//
// Every mutation produces a single Edit replacing exactly the marker's span;
// the surrounding document text is never touched. Prior spans are invalid
// after applying an Edit; callers re-scan the new snapshot.
package citation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aidanlsb/corvid/internal/document"
	"github.com/aidanlsb/corvid/internal/marker"
	"github.com/aidanlsb/corvid/internal/registry"
)

var (
	// ErrNoMarker means no citation marker exists at the given position.
	// A malformed or empty marker is treated as already absent.
	ErrNoMarker = errors.New("no citation marker at position")

	// ErrKeyNotInMarker means a named key is not present in the marker.
	// Deleting or replacing an absent key is rejected, never ignored.
	ErrKeyNotInMarker = errors.New("key not present in marker")
)

// Edit is one atomic text substitution plus the caret position that makes
// repeated invocation predictable.
type Edit struct {
	// Span is the replaced region of the old text.
	Span document.Span
	// NewText replaces the span.
	NewText string
	// Caret is a byte offset in the document after the edit, typically
	// just past the newly affected key.
	Caret int
}

// Apply splices the edit into the snapshot.
func Apply(doc *document.Document, e Edit) (*document.Document, error) {
	return doc.Splice(e.Span, e.NewText)
}

// InsertOptions configures marker synthesis when the caret is not on an
// existing marker.
type InsertOptions struct {
	// Kind is the marker type for a synthesized marker, e.g. "cite".
	Kind string
	// Bracketed selects the [[...]] form for a synthesized marker.
	// Existing markers always keep their own bracket style.
	Bracketed bool
}

// Model carries the scanner and registry the edit operations work against.
type Model struct {
	scan *marker.Scanner
	reg  *registry.Registry
}

// NewModel builds a key-list model over a compiled scanner.
func NewModel(scan *marker.Scanner, reg *registry.Registry) *Model {
	return &Model{scan: scan, reg: reg}
}

// KeyAt returns the index of the key under the offset within the marker.
//
// Policy: an offset before the first key maps to the first key; an offset
// past the key path (inside the description or closing brackets) maps to
// the last key. The last-key fallback is deliberate, kept exactly as the
// long-standing behavior users expect.
func KeyAt(c marker.Citation, offset int) int {
	if offset > c.PathSpan.End {
		return len(c.Keys) - 1
	}
	for i, span := range c.KeySpans {
		if offset <= span.End {
			return i
		}
	}
	return len(c.Keys) - 1
}

// Next moves from offset to the start of the following key. At the last key
// of a marker (or outside any marker) it continues forward to the next
// citation marker and lands just past its type prefix.
func (m *Model) Next(doc *document.Document, offset int) (int, bool) {
	from := offset
	if c, ok := m.scan.CitationAt(doc, offset); ok {
		i := KeyAt(c, offset)
		if i < len(c.Keys)-1 {
			return c.KeySpans[i+1].Start, true
		}
		from = c.Span.End
	}
	if next, ok := m.scan.NextCitation(doc, from); ok {
		return next.PathSpan.Start, true
	}
	return 0, false
}

// Prev is the mirror of Next: start of the preceding key, or the previous
// marker's first position past its type prefix.
func (m *Model) Prev(doc *document.Document, offset int) (int, bool) {
	from := offset
	if c, ok := m.scan.CitationAt(doc, offset); ok {
		i := KeyAt(c, offset)
		if i > 0 {
			return c.KeySpans[i-1].Start, true
		}
		from = c.Span.Start
	}
	if prev, ok := m.scan.PrevCitation(doc, from); ok {
		return prev.PathSpan.Start, true
	}
	return 0, false
}

// Insert adds keys at the caret. Four cases:
//
//  1. caret inside a marker before any key: the keys are prepended;
//  2. caret on or just after a key: the keys go immediately after it;
//  3. caret right after a bare citation type name the user is mid-typing:
//     the keys are appended in place;
//  4. anywhere else: a fresh marker is synthesized from opts.
//
// The caret lands just past the last inserted key.
func (m *Model) Insert(doc *document.Document, offset int, keys []string, opts InsertOptions) (Edit, error) {
	if len(keys) == 0 {
		return Edit{}, fmt.Errorf("no keys to insert")
	}

	if c, ok := m.scan.CitationAt(doc, offset); ok {
		if offset < c.KeySpans[0].Start {
			return spliceKeys(c, 0, 0, keys), nil
		}
		i := KeyAt(c, offset)
		return spliceKeys(c, i+1, 0, keys), nil
	}

	if e, ok := m.completeTypedPrefix(doc, offset, keys); ok {
		return e, nil
	}

	// Synthesize a brand-new marker at the caret.
	kind, ok := m.reg.Lookup(opts.Kind)
	if !ok || kind.Class != registry.ClassCitation {
		return Edit{}, fmt.Errorf("unknown citation kind %q", opts.Kind)
	}
	text := renderNew(kind.Name, keys, opts.Bracketed)
	return Edit{
		Span:    document.Span{Start: offset, End: offset},
		NewText: text,
		Caret:   offset + len(text),
	}, nil
}

// completeTypedPrefix handles the mid-typing case: the text before the
// caret ends with a recognized citation type name, optionally already
// followed by its colon.
func (m *Model) completeTypedPrefix(doc *document.Document, offset int, keys []string) (Edit, bool) {
	start := offset
	for start > 0 && isWordByte(doc.Text[start-1]) {
		start--
	}
	word := doc.Text[start:offset]
	colon := strings.HasSuffix(word, ":")
	name := strings.TrimSuffix(word, ":")

	kind, ok := m.reg.Lookup(name)
	if !ok || kind.Class != registry.ClassCitation {
		return Edit{}, false
	}

	ins := strings.Join(keys, ",")
	if !colon {
		ins = ":" + ins
	}
	return Edit{
		Span:    document.Span{Start: offset, End: offset},
		NewText: ins,
		Caret:   offset + len(ins),
	}, true
}

func isWordByte(b byte) bool {
	return b == ':' || b == '_' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// Delete removes the key under the caret. Removing the only key deletes
// the whole marker, brackets and one trailing space included, rather than
// leaving an empty path. The caret lands where the removed key began.
func (m *Model) Delete(doc *document.Document, offset int) (Edit, error) {
	c, ok := m.scan.CitationAt(doc, offset)
	if !ok {
		return Edit{}, ErrNoMarker
	}
	return m.deleteIndex(doc, c, KeyAt(c, offset))
}

// DeleteKey removes one named key from the marker at the caret. A key not
// present in the marker is an error.
func (m *Model) DeleteKey(doc *document.Document, offset int, key string) (Edit, error) {
	c, ok := m.scan.CitationAt(doc, offset)
	if !ok {
		return Edit{}, ErrNoMarker
	}
	i := indexOf(c.Keys, key)
	if i < 0 {
		return Edit{}, fmt.Errorf("%w: %q", ErrKeyNotInMarker, key)
	}
	return m.deleteIndex(doc, c, i)
}

func (m *Model) deleteIndex(doc *document.Document, c marker.Citation, i int) (Edit, error) {
	if len(c.Keys) == 1 {
		span := c.Span
		if span.End < len(doc.Text) && doc.Text[span.End] == ' ' {
			span.End++
		}
		return Edit{Span: span, NewText: "", Caret: span.Start}, nil
	}
	e := spliceKeys(c, i, 1, nil)
	// Caret at the start of the key that moved into the removed slot.
	rest := append([]string(nil), c.Keys...)
	rest = append(rest[:i], rest[i+1:]...)
	at := i
	if at >= len(rest) {
		at = len(rest) - 1
	}
	e.Caret = c.Span.Start + pathOffset(c) + startOfKey(rest, at)
	return e, nil
}

// Replace removes one named key and splices the replacement keys into its
// slot, leaving every other key's relative order untouched. The caret lands
// just past the last replacement key.
func (m *Model) Replace(doc *document.Document, offset int, oldKey string, repl []string) (Edit, error) {
	if len(repl) == 0 {
		return Edit{}, fmt.Errorf("no replacement keys")
	}
	c, ok := m.scan.CitationAt(doc, offset)
	if !ok {
		return Edit{}, ErrNoMarker
	}
	i := indexOf(c.Keys, oldKey)
	if i < 0 {
		return Edit{}, fmt.Errorf("%w: %q", ErrKeyNotInMarker, oldKey)
	}
	return spliceKeys(c, i, 1, repl), nil
}

// Swap exchanges the key under the caret with its neighbor in the given
// direction (+1 right, -1 left). At either end of the list it is a no-op,
// not an error; changed reports whether anything moved. The caret follows
// the key to its new slot.
func (m *Model) Swap(doc *document.Document, offset int, dir int) (Edit, bool, error) {
	if dir != 1 && dir != -1 {
		return Edit{}, false, fmt.Errorf("swap direction must be +1 or -1, got %d", dir)
	}
	c, ok := m.scan.CitationAt(doc, offset)
	if !ok {
		return Edit{}, false, ErrNoMarker
	}
	i := KeyAt(c, offset)
	j := i + dir
	if j < 0 || j >= len(c.Keys) {
		return Edit{}, false, nil
	}

	keys := append([]string(nil), c.Keys...)
	keys[i], keys[j] = keys[j], keys[i]
	text := render(c, keys)
	return Edit{
		Span:    c.Span,
		NewText: text,
		Caret:   c.Span.Start + pathOffset(c) + startOfKey(keys, j),
	}, true, nil
}

// YearFn resolves a citation key to its numeric publication year.
type YearFn func(key string) (int, bool)

// SortByYear reorders the marker's keys by ascending publication year.
// The sort is stable: equal-year keys keep their relative order, and keys
// whose year is missing or non-numeric sort first (year zero). The caret
// lands at the start of the key path.
func (m *Model) SortByYear(doc *document.Document, offset int, year YearFn) (Edit, error) {
	c, ok := m.scan.CitationAt(doc, offset)
	if !ok {
		return Edit{}, ErrNoMarker
	}

	keys := append([]string(nil), c.Keys...)
	yearOf := func(key string) int {
		if y, ok := year(key); ok {
			return y
		}
		return 0
	}
	sort.SliceStable(keys, func(a, b int) bool {
		return yearOf(keys[a]) < yearOf(keys[b])
	})

	return Edit{
		Span:    c.Span,
		NewText: render(c, keys),
		Caret:   c.Span.Start + pathOffset(c),
	}, nil
}

// spliceKeys rewrites the marker with del keys at index i replaced by ins,
// caret just past the last inserted key (or the splice point when nothing
// was inserted).
func spliceKeys(c marker.Citation, i, del int, ins []string) Edit {
	keys := make([]string, 0, len(c.Keys)-del+len(ins))
	keys = append(keys, c.Keys[:i]...)
	keys = append(keys, ins...)
	keys = append(keys, c.Keys[i+del:]...)

	caretKey := i + len(ins) - 1
	if caretKey < 0 {
		caretKey = 0
	}
	caret := c.Span.Start + pathOffset(c) + endOfKey(keys, caretKey)
	return Edit{Span: c.Span, NewText: render(c, keys), Caret: caret}
}

// render reconstructs the marker text with a new key list, preserving the
// marker's bracket style and description verbatim.
func render(c marker.Citation, keys []string) string {
	path := c.Kind.Name + ":" + strings.Join(keys, ",")
	if !c.Bracketed {
		return path
	}
	s := "[[" + path + "]"
	if c.HasDescription {
		s += "[" + c.Description + "]"
	}
	return s + "]"
}

func renderNew(kind string, keys []string, bracketed bool) string {
	path := kind + ":" + strings.Join(keys, ",")
	if bracketed {
		return "[[" + path + "]]"
	}
	return path
}

// pathOffset is the offset of the key path within the rendered marker.
func pathOffset(c marker.Citation) int {
	n := len(c.Kind.Name) + 1
	if c.Bracketed {
		n += 2
	}
	return n
}

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}

func startOfKey(keys []string, i int) int {
	n := 0
	for k := 0; k < i; k++ {
		n += len(keys[k]) + 1
	}
	return n
}

func endOfKey(keys []string, i int) int {
	return startOfKey(keys, i) + len(keys[i])
}

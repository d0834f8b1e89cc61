// Package document provides immutable document snapshots with byte-offset
// spans and line/column math.
//
// Spans are plain values. Nothing in here auto-adjusts under edits: after a
// mutation the caller re-scans the new snapshot and gets fresh spans.
package document

import (
	"fmt"
	"sort"
	"strings"
)

// Span is a half-open byte range [Start, End) in a document's text.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// Contains reports whether the byte offset falls inside the span.
func (s Span) Contains(offset int) bool { return offset >= s.Start && offset < s.End }

// Position is a 1-based line/column pair. Col counts bytes from the start
// of the line.
type Position struct {
	Line int
	Col  int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Document is an immutable snapshot of a single document.
type Document struct {
	Path string
	Text string

	// lineStarts[i] is the byte offset of the first byte of line i+1.
	lineStarts []int
}

// New builds a Document snapshot, precomputing line offsets so that
// position math during a scan never re-walks the text.
func New(path, text string) *Document {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Document{Path: path, Text: text, lineStarts: starts}
}

// LineCount returns the number of lines in the document.
func (d *Document) LineCount() int { return len(d.lineStarts) }

// PositionFor converts a byte offset to a 1-based line/column.
// Offsets outside the text are clamped.
func (d *Document) PositionFor(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.Text) {
		offset = len(d.Text)
	}
	line := sort.Search(len(d.lineStarts), func(i int) bool {
		return d.lineStarts[i] > offset
	})
	// line is now the 1-based line number.
	return Position{Line: line, Col: offset - d.lineStarts[line-1] + 1}
}

// OffsetFor converts a 1-based line/column back to a byte offset.
func (d *Document) OffsetFor(pos Position) (int, error) {
	if pos.Line < 1 || pos.Line > len(d.lineStarts) {
		return 0, fmt.Errorf("line %d out of range (document has %d lines)", pos.Line, len(d.lineStarts))
	}
	if pos.Col < 1 {
		return 0, fmt.Errorf("column %d out of range", pos.Col)
	}
	offset := d.lineStarts[pos.Line-1] + pos.Col - 1
	end := d.lineEnd(pos.Line)
	if offset > end {
		return 0, fmt.Errorf("column %d past end of line %d", pos.Col, pos.Line)
	}
	return offset, nil
}

// LineSpan returns the span of a 1-based line, excluding the newline.
func (d *Document) LineSpan(line int) Span {
	if line < 1 {
		line = 1
	}
	if line > len(d.lineStarts) {
		line = len(d.lineStarts)
	}
	return Span{Start: d.lineStarts[line-1], End: d.lineEnd(line)}
}

func (d *Document) lineEnd(line int) int {
	if line < len(d.lineStarts) {
		return d.lineStarts[line] - 1 // before the newline
	}
	return len(d.Text)
}

// ContextIndent is the per-line left padding applied to context windows.
const ContextIndent = "  "

// Context extracts the display window around a span: from the start of the
// line preceding it through the end of the line two lines after it, each
// line prefixed with ContextIndent. The padding is display-only and never
// part of any stored name.
func (d *Document) Context(span Span) string {
	at := d.PositionFor(span.Start)
	first := at.Line - 1
	if first < 1 {
		first = 1
	}
	last := at.Line + 2
	if last > len(d.lineStarts) {
		last = len(d.lineStarts)
	}

	var b strings.Builder
	for line := first; line <= last; line++ {
		ls := d.LineSpan(line)
		b.WriteString(ContextIndent)
		b.WriteString(d.Text[ls.Start:ls.End])
		if line < last {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Splice returns a new snapshot with span replaced by repl. The span must
// lie inside the text; everything outside it is byte-identical.
func (d *Document) Splice(span Span, repl string) (*Document, error) {
	if span.Start < 0 || span.End > len(d.Text) || span.Start > span.End {
		return nil, fmt.Errorf("span %d-%d out of range (document is %d bytes)", span.Start, span.End, len(d.Text))
	}
	text := d.Text[:span.Start] + repl + d.Text[span.End:]
	return New(d.Path, text), nil
}

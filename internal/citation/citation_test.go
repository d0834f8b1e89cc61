package citation

import (
	"errors"
	"strings"
	"testing"

	"github.com/aidanlsb/corvid/internal/document"
	"github.com/aidanlsb/corvid/internal/marker"
	"github.com/aidanlsb/corvid/internal/registry"
)

func newModel(t *testing.T) *Model {
	t.Helper()
	reg := registry.Builtin()
	return NewModel(marker.NewScanner(reg), reg)
}

func scanOne(t *testing.T, doc *document.Document) marker.Citation {
	t.Helper()
	cites := marker.NewScanner(registry.Builtin()).Citations(doc)
	if len(cites) != 1 {
		t.Fatalf("expected one citation, got %d", len(cites))
	}
	return cites[0]
}

func applied(t *testing.T, doc *document.Document, e Edit) *document.Document {
	t.Helper()
	next, err := Apply(doc, e)
	if err != nil {
		t.Fatal(err)
	}
	return next
}

func TestParseRoundTrip(t *testing.T) {
	tests := []string{
		"cite:smith2020",
		"citep:a,b,c",
		"autocite:doe2019:a,ms/thesis.v2",
	}
	for _, body := range tests {
		doc := document.New("t.org", "x "+body+" y")
		c := scanOne(t, doc)
		rebuilt := c.Kind.Name + ":" + strings.Join(c.Keys, ",")
		if rebuilt != body {
			t.Errorf("round trip of %q produced %q", body, rebuilt)
		}
	}
}

func TestKeyAtPolicy(t *testing.T) {
	text := "x [[cite:aaa,bbb,ccc][the description]] y"
	doc := document.New("t.org", text)
	c := scanOne(t, doc)

	// Before the first key (inside "[[cite:") maps to the first key.
	if i := KeyAt(c, c.Span.Start+2); i != 0 {
		t.Errorf("before first key: index %d, want 0", i)
	}
	// On the second key.
	if i := KeyAt(c, c.KeySpans[1].Start+1); i != 1 {
		t.Errorf("on second key: index %d, want 1", i)
	}
	// Inside the description maps to the last key (deliberate fallback).
	descAt := strings.Index(text, "description")
	if i := KeyAt(c, descAt); i != 2 {
		t.Errorf("in description: index %d, want 2", i)
	}
}

func TestKeyAtSingleKeyNoSeparator(t *testing.T) {
	doc := document.New("t.org", "cite:only")
	c := scanOne(t, doc)
	if i := KeyAt(c, c.PathSpan.Start+2); i != 0 {
		t.Errorf("index %d, want the whole path as one unit", i)
	}
}

func TestNextPrevWithinAndAcrossMarkers(t *testing.T) {
	m := newModel(t)
	text := "cite:a,b then citep:c,d"
	doc := document.New("t.org", text)

	// Within a marker: next key.
	off, ok := m.Next(doc, strings.Index(text, "a"))
	if !ok || text[off:off+1] != "b" {
		t.Fatalf("Next within marker landed at %d", off)
	}
	// At the last key: continue to the next marker, just past "citep:".
	off, ok = m.Next(doc, off)
	if !ok || off != strings.Index(text, "c,d") {
		t.Fatalf("Next across markers landed at %d", off)
	}
	// And symmetrically backward.
	off, ok = m.Prev(doc, strings.Index(text, "d"))
	if !ok || text[off:off+1] != "c" {
		t.Fatalf("Prev within marker landed at %d", off)
	}
	off, ok = m.Prev(doc, off)
	if !ok || off != strings.Index(text, "a,b") {
		t.Fatalf("Prev across markers landed at %d", off)
	}

	if _, ok := m.Next(doc, len(text)); ok {
		t.Error("Next past the last marker should report not-found")
	}
}

func TestInsertPrepend(t *testing.T) {
	m := newModel(t)
	doc := document.New("t.org", "x cite:old y")
	c := scanOne(t, doc)

	e, err := m.Insert(doc, c.Span.Start+2, []string{"new"}, InsertOptions{})
	if err != nil {
		t.Fatal(err)
	}
	next := applied(t, doc, e)
	if next.Text != "x cite:new,old y" {
		t.Errorf("text = %q", next.Text)
	}
	// Caret just past the inserted key.
	if want := strings.Index(next.Text, "new") + 3; e.Caret != want {
		t.Errorf("caret = %d, want %d", e.Caret, want)
	}
}

func TestInsertAfterKeyUnderPoint(t *testing.T) {
	m := newModel(t)
	text := "x cite:a,c y"
	doc := document.New("t.org", text)

	e, err := m.Insert(doc, strings.Index(text, "a"), []string{"b"}, InsertOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if next := applied(t, doc, e); next.Text != "x cite:a,b,c y" {
		t.Errorf("text = %q", next.Text)
	}
}

func TestInsertCompletesTypedPrefix(t *testing.T) {
	m := newModel(t)
	for _, tt := range []struct {
		text string
		want string
	}{
		{"see citep", "see citep:k1,k2"},
		{"see citep:", "see citep:k1,k2"},
	} {
		doc := document.New("t.org", tt.text)
		e, err := m.Insert(doc, len(tt.text), []string{"k1", "k2"}, InsertOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if next := applied(t, doc, e); next.Text != tt.want {
			t.Errorf("Insert after %q = %q, want %q", tt.text, next.Text, tt.want)
		}
	}
}

func TestInsertSynthesizesMarker(t *testing.T) {
	m := newModel(t)
	doc := document.New("t.org", "plain prose ")

	e, err := m.Insert(doc, len(doc.Text), []string{"k1"}, InsertOptions{Kind: "cite", Bracketed: true})
	if err != nil {
		t.Fatal(err)
	}
	next := applied(t, doc, e)
	if next.Text != "plain prose [[cite:k1]]" {
		t.Errorf("text = %q", next.Text)
	}
	if e.Caret != len(next.Text) {
		t.Errorf("caret = %d, want end of marker", e.Caret)
	}

	// Bare preference from configuration.
	e, err = m.Insert(doc, len(doc.Text), []string{"k1"}, InsertOptions{Kind: "cite"})
	if err != nil {
		t.Fatal(err)
	}
	if next := applied(t, doc, e); next.Text != "plain prose cite:k1" {
		t.Errorf("text = %q", next.Text)
	}
}

func TestInsertPreservesBracketStyleAndDescription(t *testing.T) {
	m := newModel(t)
	text := "x [[cite:a][pre::post]] y"
	doc := document.New("t.org", text)

	e, err := m.Insert(doc, strings.Index(text, "a"), []string{"b"}, InsertOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if next := applied(t, doc, e); next.Text != "x [[cite:a,b][pre::post]] y" {
		t.Errorf("text = %q", next.Text)
	}
}

func TestInsertThenDeleteIsIdentity(t *testing.T) {
	m := newModel(t)
	orig := "x cite:a,c y"
	doc := document.New("t.org", orig)

	e, err := m.Insert(doc, strings.Index(orig, "a"), []string{"b"}, InsertOptions{})
	if err != nil {
		t.Fatal(err)
	}
	doc = applied(t, doc, e)

	e, err = m.DeleteKey(doc, strings.Index(doc.Text, "b"), "b")
	if err != nil {
		t.Fatal(err)
	}
	doc = applied(t, doc, e)
	if doc.Text != orig {
		t.Errorf("insert+delete = %q, want original %q", doc.Text, orig)
	}
}

func TestDeleteMiddleKey(t *testing.T) {
	m := newModel(t)
	text := "x cite:a,b,c y"
	doc := document.New("t.org", text)

	e, err := m.Delete(doc, strings.Index(text, "b"))
	if err != nil {
		t.Fatal(err)
	}
	next := applied(t, doc, e)
	if next.Text != "x cite:a,c y" {
		t.Errorf("text = %q", next.Text)
	}
	// Caret at the key that moved into the slot.
	if next.Text[e.Caret] != 'c' {
		t.Errorf("caret = %d (%q)", e.Caret, next.Text[e.Caret])
	}
}

func TestDeleteLastKeyRemovesMarker(t *testing.T) {
	m := newModel(t)
	for _, tt := range []struct {
		text string
		want string
	}{
		{"x cite:only y", "x y"},
		{"x [[cite:only][desc]] y", "x y"},
		{"x cite:only", "x "},
	} {
		doc := document.New("t.org", tt.text)
		e, err := m.Delete(doc, strings.Index(tt.text, "only"))
		if err != nil {
			t.Fatal(err)
		}
		if next := applied(t, doc, e); next.Text != tt.want {
			t.Errorf("delete in %q = %q, want %q", tt.text, next.Text, tt.want)
		}
	}
}

func TestDeleteAbsentKeyRejected(t *testing.T) {
	m := newModel(t)
	text := "x cite:a,b y"
	doc := document.New("t.org", text)

	_, err := m.DeleteKey(doc, strings.Index(text, "a"), "zzz")
	if !errors.Is(err, ErrKeyNotInMarker) {
		t.Errorf("err = %v, want ErrKeyNotInMarker", err)
	}
}

func TestDeleteOutsideMarker(t *testing.T) {
	m := newModel(t)
	doc := document.New("t.org", "no markers here")
	if _, err := m.Delete(doc, 0); !errors.Is(err, ErrNoMarker) {
		t.Errorf("err = %v, want ErrNoMarker", err)
	}
}

func TestReplaceSplicesInPlace(t *testing.T) {
	m := newModel(t)
	text := "x cite:a,b,c y"
	doc := document.New("t.org", text)

	e, err := m.Replace(doc, strings.Index(text, "b"), "b", []string{"b1", "b2"})
	if err != nil {
		t.Fatal(err)
	}
	if next := applied(t, doc, e); next.Text != "x cite:a,b1,b2,c y" {
		t.Errorf("text = %q", next.Text)
	}

	if _, err := m.Replace(doc, strings.Index(text, "b"), "zzz", []string{"r"}); !errors.Is(err, ErrKeyNotInMarker) {
		t.Errorf("err = %v, want ErrKeyNotInMarker", err)
	}
}

func TestSwap(t *testing.T) {
	m := newModel(t)
	text := "x cite:a,b,c y"
	doc := document.New("t.org", text)

	e, changed, err := m.Swap(doc, strings.Index(text, "b"), 1)
	if err != nil || !changed {
		t.Fatalf("swap right: changed=%v err=%v", changed, err)
	}
	next := applied(t, doc, e)
	if next.Text != "x cite:a,c,b y" {
		t.Errorf("text = %q", next.Text)
	}
	// Caret follows the moved key.
	if next.Text[e.Caret] != 'b' {
		t.Errorf("caret = %d (%q)", e.Caret, next.Text[e.Caret])
	}
}

func TestSwapAtBoundaryIsNoOp(t *testing.T) {
	m := newModel(t)
	text := "x cite:a,b,c y"
	doc := document.New("t.org", text)

	_, changed, err := m.Swap(doc, strings.Index(text, "a"), -1)
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("swap left at first key must be a no-op, not an edit")
	}

	_, changed, err = m.Swap(doc, strings.LastIndex(text, "c"), 1)
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("swap right at last key must be a no-op, not an edit")
	}
}

func TestSortByYear(t *testing.T) {
	m := newModel(t)
	years := map[string]int{"new2021": 2021, "old1999": 1999, "mid2010": 2010}
	yearFn := func(key string) (int, bool) {
		y, ok := years[key]
		return y, ok
	}

	text := "x cite:new2021,old1999,mid2010 y"
	doc := document.New("t.org", text)
	e, err := m.SortByYear(doc, strings.Index(text, "new2021"), yearFn)
	if err != nil {
		t.Fatal(err)
	}
	if next := applied(t, doc, e); next.Text != "x cite:old1999,mid2010,new2021 y" {
		t.Errorf("text = %q", next.Text)
	}
}

func TestSortByYearStableAndMissingYearsFirst(t *testing.T) {
	m := newModel(t)
	years := map[string]int{"a2000": 2000, "b2000": 2000, "c2000": 2000}
	yearFn := func(key string) (int, bool) {
		y, ok := years[key]
		return y, ok
	}

	// Equal years keep input order; unknown years sort first, not crash.
	text := "cite:b2000,unknown,a2000,c2000"
	doc := document.New("t.org", text)
	e, err := m.SortByYear(doc, 0, yearFn)
	if err != nil {
		t.Fatal(err)
	}
	if next := applied(t, doc, e); next.Text != "cite:unknown,b2000,a2000,c2000" {
		t.Errorf("text = %q", next.Text)
	}
}

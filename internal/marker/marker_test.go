package marker

import (
	"strings"
	"testing"

	"github.com/aidanlsb/corvid/internal/document"
	"github.com/aidanlsb/corvid/internal/registry"
)

func newScanner(t *testing.T) *Scanner {
	t.Helper()
	return NewScanner(registry.Builtin())
}

func TestCitationBare(t *testing.T) {
	s := newScanner(t)
	doc := document.New("t.org", "As shown in cite:smith2020,doe2019:a we see.\n")

	cites := s.Citations(doc)
	if len(cites) != 1 {
		t.Fatalf("got %d citations", len(cites))
	}
	c := cites[0]
	if c.Kind.Name != "cite" {
		t.Errorf("kind = %q", c.Kind.Name)
	}
	if c.Bracketed {
		t.Error("bare marker reported bracketed")
	}
	wantKeys := []string{"smith2020", "doe2019:a"}
	if len(c.Keys) != 2 || c.Keys[0] != wantKeys[0] || c.Keys[1] != wantKeys[1] {
		t.Errorf("keys = %v, want %v", c.Keys, wantKeys)
	}
	for i, span := range c.KeySpans {
		if doc.Text[span.Start:span.End] != c.Keys[i] {
			t.Errorf("key span %d covers %q, want %q", i, doc.Text[span.Start:span.End], c.Keys[i])
		}
	}
	if c.Literal != "cite:smith2020,doe2019:a" {
		t.Errorf("literal = %q", c.Literal)
	}
}

func TestCitationBracketedWithDescription(t *testing.T) {
	s := newScanner(t)
	doc := document.New("t.org", "See [[citep:k1, k2][see::page 4]] for details.\n")

	cites := s.Citations(doc)
	if len(cites) != 1 {
		t.Fatalf("got %d citations", len(cites))
	}
	c := cites[0]
	if !c.Bracketed {
		t.Error("bracketed marker not detected")
	}
	if c.Kind.Name != "citep" {
		t.Errorf("kind = %q", c.Kind.Name)
	}
	if len(c.Keys) != 2 || c.Keys[0] != "k1" || c.Keys[1] != "k2" {
		t.Errorf("keys = %v (whitespace must be stripped)", c.Keys)
	}
	if !c.HasDescription || c.Description != "see::page 4" {
		t.Errorf("description = %q, has=%v", c.Description, c.HasDescription)
	}

	pre, post, split := SplitDescription(c.Description)
	if !split || pre != "see" || post != "page 4" {
		t.Errorf("SplitDescription = %q/%q/%v", pre, post, split)
	}
}

func TestCitationTypeNotShadowed(t *testing.T) {
	s := newScanner(t)
	doc := document.New("t.org", "citet:jones1999 and parencites:a,b\n")

	cites := s.Citations(doc)
	if len(cites) != 2 {
		t.Fatalf("got %d citations", len(cites))
	}
	if cites[0].Kind.Name != "citet" {
		t.Errorf("first kind = %q, want citet (not cite)", cites[0].Kind.Name)
	}
	if cites[1].Kind.Name != "parencites" {
		t.Errorf("second kind = %q, want parencites", cites[1].Kind.Name)
	}
	if !cites[1].Kind.GroupsKeys {
		t.Error("parencites must carry the grouping capability")
	}
}

func TestCitationNotInsideWords(t *testing.T) {
	s := newScanner(t)
	doc := document.New("t.org", "recite:notakey but cite:real\n")

	cites := s.Citations(doc)
	if len(cites) != 1 || cites[0].Keys[0] != "real" {
		t.Fatalf("got %v", cites)
	}
}

func TestCitationAtBoundaries(t *testing.T) {
	s := newScanner(t)
	text := "pre cite:a,b post"
	doc := document.New("t.org", text)
	start := strings.Index(text, "cite:")
	end := start + len("cite:a,b")

	if _, ok := s.CitationAt(doc, start); !ok {
		t.Error("start of marker not found")
	}
	if _, ok := s.CitationAt(doc, end); !ok {
		t.Error("position immediately after marker should still hit it")
	}
	if _, ok := s.CitationAt(doc, 0); ok {
		t.Error("position outside marker matched")
	}
}

func TestNextPrevCitation(t *testing.T) {
	s := newScanner(t)
	text := "cite:a middle citep:b end"
	doc := document.New("t.org", text)

	next, ok := s.NextCitation(doc, 0)
	if !ok || next.Kind.Name != "citep" {
		t.Fatalf("NextCitation from 0 = %v %v", next.Kind.Name, ok)
	}

	prev, ok := s.PrevCitation(doc, len(text))
	if !ok || prev.Kind.Name != "citep" {
		t.Fatalf("PrevCitation from end = %v %v", prev.Kind.Name, ok)
	}
	prev, ok = s.PrevCitation(doc, strings.Index(text, "middle"))
	if !ok || prev.Kind.Name != "cite" {
		t.Fatalf("PrevCitation mid = %v %v", prev.Kind.Name, ok)
	}
}

func TestReferences(t *testing.T) {
	s := newScanner(t)
	doc := document.New("t.org", "See ref:fig1 and [[autoref:eq:euler]] and cref:a,b.\n")

	refs := s.References(doc)
	if len(refs) != 3 {
		t.Fatalf("got %d references", len(refs))
	}
	if refs[0].Kind.Name != "ref" || refs[0].Targets[0] != "fig1" {
		t.Errorf("ref 0 = %v", refs[0])
	}
	if refs[1].Kind.Name != "autoref" || refs[1].Targets[0] != "eq:euler" {
		t.Errorf("ref 1 = %v", refs[1])
	}
	if refs[2].Kind.Name != "cref" || len(refs[2].Targets) != 2 {
		t.Errorf("ref 2 = %v", refs[2])
	}
}

func TestBibDeclarations(t *testing.T) {
	s := newScanner(t)
	doc := document.New("t.org", "bibliography:a.bib,b.bib\naddbibresource:c.bib\n")

	decls := s.BibDeclarations(doc)
	if len(decls) != 2 {
		t.Fatalf("got %d declarations", len(decls))
	}
	if len(decls[0].Files) != 2 || decls[0].Files[0] != "a.bib" || decls[0].Files[1] != "b.bib" {
		t.Errorf("decl 0 files = %v", decls[0].Files)
	}
	if decls[1].Files[0] != "c.bib" {
		t.Errorf("decl 1 files = %v", decls[1].Files)
	}
}

func TestRawBibResources(t *testing.T) {
	s := newScanner(t)
	doc := document.New("t.org", `\addbibresource{refs.bib}` + "\n" + `\addbibresource{more.bib}` + "\n")

	decls := s.RawBibResources(doc)
	if len(decls) != 2 {
		t.Fatalf("got %d raw resources", len(decls))
	}
	if decls[0].Files[0] != "refs.bib" || !decls[0].Raw {
		t.Errorf("decl 0 = %v", decls[0])
	}
}

func TestFileLinks(t *testing.T) {
	s := newScanner(t)
	doc := document.New("t.org", `\attachfile{notes.pdf}`+" attachfile:data.csv and file:img.png\n")

	links := s.FileLinks(doc)
	if len(links) != 3 {
		t.Fatalf("got %d file links: %v", len(links), links)
	}
	// Document order despite two patterns.
	if links[0].Path != "notes.pdf" || !links[0].Raw {
		t.Errorf("link 0 = %v", links[0])
	}
	if links[1].Path != "data.csv" || links[1].Raw {
		t.Errorf("link 1 = %v", links[1])
	}
	if links[2].Path != "img.png" {
		t.Errorf("link 2 = %v", links[2])
	}
}

func TestSplitDescriptionNoSeparator(t *testing.T) {
	pre, post, split := SplitDescription("plain text")
	if split || pre != "plain text" || post != "" {
		t.Errorf("got %q/%q/%v", pre, post, split)
	}
}

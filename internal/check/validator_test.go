package check

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aidanlsb/corvid/internal/bib"
	"github.com/aidanlsb/corvid/internal/bibtex"
	"github.com/aidanlsb/corvid/internal/document"
	"github.com/aidanlsb/corvid/internal/marker"
	"github.com/aidanlsb/corvid/internal/registry"
)

func newValidator(t *testing.T, defaults ...string) *Validator {
	t.Helper()
	scan := marker.NewScanner(registry.Builtin())
	return NewValidator(scan, bib.NewResolver(scan, bibtex.New(), bib.WithDefaults(defaults)))
}

func TestUnresolvedCitationEmptySources(t *testing.T) {
	v := newValidator(t)
	text := "intro cite:unknownkey outro\n"
	doc := document.New("/d/doc.org", text)

	findings := v.Validate(doc).UnresolvedCitations
	if len(findings) != 1 {
		t.Fatalf("got %d findings", len(findings))
	}
	f := findings[0]
	if f.Subject != "unknownkey" {
		t.Errorf("subject = %q", f.Subject)
	}
	// The finding points at the key itself, not the marker.
	keyStart := strings.Index(text, "unknownkey")
	if f.Span.Start != keyStart || f.Span.End != keyStart+len("unknownkey") {
		t.Errorf("span = %v, want the key span", f.Span)
	}
}

func TestWildcardKeyExempt(t *testing.T) {
	v := newValidator(t)
	doc := document.New("/d/doc.org", "nocite:* and cite:real\n")

	findings := v.Validate(doc).UnresolvedCitations
	if len(findings) != 1 || findings[0].Subject != "real" {
		t.Fatalf("findings = %v, wildcard must be exempt", findings)
	}
}

func TestResolvedCitationNotFlagged(t *testing.T) {
	dir := t.TempDir()
	bibPath := filepath.Join(dir, "refs.bib")
	if err := os.WriteFile(bibPath, []byte("@article{good2020,\n year = {2020},\n}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	v := newValidator(t, bibPath)
	doc := document.New(filepath.Join(dir, "doc.org"), "cite:good2020 and cite:bad9999\n")

	findings := v.Validate(doc).UnresolvedCitations
	if len(findings) != 1 || findings[0].Subject != "bad9999" {
		t.Fatalf("findings = %+v", findings)
	}
}

func TestUnresolvedReference(t *testing.T) {
	v := newValidator(t)
	doc := document.New("/d/doc.org", "#+name: fig1\n\nsee ref:fig1 and autoref:ghost\n")

	findings := v.Validate(doc).UnresolvedReferences
	if len(findings) != 1 || findings[0].Subject != "ghost" {
		t.Fatalf("findings = %+v", findings)
	}
}

func TestDuplicateLabelNotReportedAsUnresolvedRef(t *testing.T) {
	v := newValidator(t)
	// Duplicated target: the reference side stays quiet, the label side
	// reports every occurrence.
	doc := document.New("/d/doc.org", "#+name: fig1\na\n#+name: fig1\nb\nref:fig1\n")

	report := v.Validate(doc)
	if len(report.UnresolvedReferences) != 0 {
		t.Errorf("unresolved refs = %+v, duplicates are a label-side problem", report.UnresolvedReferences)
	}
	if len(report.DuplicateLabels) != 2 {
		t.Errorf("duplicate findings = %d, want every occurrence", len(report.DuplicateLabels))
	}
}

func TestDuplicateLabelsAcrossSyntaxes(t *testing.T) {
	v := newValidator(t)
	text := "#+name: fig1\nx\n#+name: fig1\ny\n\\label{fig1}\n#+name: unique\nz\n"
	doc := document.New("/d/doc.org", text)

	findings := v.Validate(doc).DuplicateLabels
	if len(findings) != 3 {
		t.Fatalf("got %d duplicate findings, want 3 (every fig1 occurrence)", len(findings))
	}
	for _, f := range findings {
		if f.Subject != "fig1" {
			t.Errorf("unexpected duplicate subject %q", f.Subject)
		}
	}
}

func TestMissingFiles(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.pdf")
	if err := os.WriteFile(present, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	v := newValidator(t)
	text := "attachfile:present.pdf and attachfile:absent.pdf and \\attachfile{gone.dat}\n"
	doc := document.New(filepath.Join(dir, "doc.org"), text)

	findings := v.Validate(doc).MissingFiles
	if len(findings) != 2 {
		t.Fatalf("findings = %+v", findings)
	}
	if findings[0].Subject != "absent.pdf" || findings[1].Subject != "gone.dat" {
		t.Errorf("subjects = %q, %q", findings[0].Subject, findings[1].Subject)
	}
}

func TestCleanDocument(t *testing.T) {
	v := newValidator(t)
	doc := document.New("/d/doc.org", "#+name: fig1\nplot\n\nsee ref:fig1\n")

	report := v.Validate(doc)
	if report.Total() != 0 {
		t.Errorf("clean document produced %d findings: %+v", report.Total(), report.All())
	}
}

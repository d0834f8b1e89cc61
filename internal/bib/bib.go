// Package bib resolves which bibliography files apply to a document and
// which file defines a given citation key.
//
// Resolution is a short-circuiting precedence chain: the first tier that
// yields any source is used exclusively. The resolved list is an explicit
// value, cached per document text and invalidated only by an explicit
// rebuild; there is no ambient "current files" state.
package bib

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aidanlsb/corvid/internal/document"
	"github.com/aidanlsb/corvid/internal/marker"
)

// Tier identifies which rung of the precedence chain produced a source.
// Lower values outrank higher ones.
type Tier int

const (
	// TierSelf: the document is itself a bibliography file.
	TierSelf Tier = iota + 1
	// TierDeclaration: explicit bibliography declaration markers.
	TierDeclaration
	// TierResourceCommand: raw \addbibresource commands.
	TierResourceCommand
	// TierLocator: the external locator capability.
	TierLocator
	// TierDefault: the statically configured fallback list.
	TierDefault
)

func (t Tier) String() string {
	switch t {
	case TierSelf:
		return "self"
	case TierDeclaration:
		return "declaration"
	case TierResourceCommand:
		return "resource-command"
	case TierLocator:
		return "locator"
	case TierDefault:
		return "default"
	default:
		return "none"
	}
}

// Source is one candidate bibliography file.
type Source struct {
	// Path as resolved against the document's directory.
	Path string
	// Rank is the precedence tier the source was discovered under. All
	// sources of one resolution share a tier (the chain short-circuits),
	// but the rank is recorded per source so merged lists stay ordered.
	Rank Tier
}

// Sources is one resolution result.
type Sources struct {
	List []Source
	Tier Tier
}

// Paths returns the source paths in precedence order.
func (s *Sources) Paths() []string {
	out := make([]string, len(s.List))
	for i, src := range s.List {
		out[i] = src.Path
	}
	return out
}

// Lookup is the external record-parsing capability: given a bibliography
// file, enumerate its keys and read flat fields.
type Lookup interface {
	Keys(path string) ([]string, error)
	Field(path, key, field string) (string, bool, error)
}

// Locator is the tier-4 capability: an external component that knows how
// to find bibliography files cited through a typesetting system's own
// commands. May be nil.
type Locator func(doc *document.Document) []string

// Resolver resolves bibliography sources for documents.
type Resolver struct {
	scan     *marker.Scanner
	lookup   Lookup
	locator  Locator
	defaults []string

	cachedKey string
	cached    *Sources
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLocator installs the external locator capability.
func WithLocator(l Locator) Option {
	return func(r *Resolver) { r.locator = l }
}

// WithDefaults installs the configured fallback source list.
func WithDefaults(paths []string) Option {
	return func(r *Resolver) { r.defaults = paths }
}

// NewResolver builds a resolver over a compiled scanner and a record
// lookup capability.
func NewResolver(scan *marker.Scanner, lookup Lookup, opts ...Option) *Resolver {
	r := &Resolver{scan: scan, lookup: lookup}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the source list for the document, reusing the cached
// result when the document text is unchanged since the last resolution.
func (r *Resolver) Resolve(doc *document.Document) *Sources {
	if r.cached != nil && r.cachedKey == cacheKey(doc) {
		return r.cached
	}
	return r.Rebuild(doc)
}

// Rebuild recomputes the source list unconditionally and refreshes the
// cache.
func (r *Resolver) Rebuild(doc *document.Document) *Sources {
	s := r.resolve(doc)
	r.cachedKey = cacheKey(doc)
	r.cached = s
	return s
}

// cacheKey includes the path: tier 1 depends on it, not just on the text.
func cacheKey(doc *document.Document) string {
	return doc.Path + "\x00" + doc.Text
}

func (r *Resolver) resolve(doc *document.Document) *Sources {
	// Tier 1: the document is itself a bibliography file.
	if strings.EqualFold(filepath.Ext(doc.Path), ".bib") {
		return sources(TierSelf, doc, []string{doc.Path})
	}

	// Tier 2: explicit declaration markers, first-seen order, de-duped.
	var declared []string
	for _, d := range r.scan.BibDeclarations(doc) {
		declared = append(declared, d.Files...)
	}
	if len(declared) > 0 {
		return sources(TierDeclaration, doc, declared)
	}

	// Tier 3: raw \addbibresource commands.
	var raw []string
	for _, d := range r.scan.RawBibResources(doc) {
		raw = append(raw, d.Files...)
	}
	if len(raw) > 0 {
		return sources(TierResourceCommand, doc, raw)
	}

	// Tier 4: external locator capability.
	if r.locator != nil {
		if located := r.locator(doc); len(located) > 0 {
			return sources(TierLocator, doc, located)
		}
	}

	// Tier 5: configured defaults. An empty result here is a valid end
	// state: every citation simply resolves as not-found.
	return sources(TierDefault, doc, r.defaults)
}

// sources builds a Sources value: paths resolved against the document's
// directory, de-duplicated preserving first-seen order.
func sources(tier Tier, doc *document.Document, paths []string) *Sources {
	s := &Sources{Tier: tier}
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		resolved := p
		if !filepath.IsAbs(p) && doc.Path != "" {
			resolved = filepath.Join(filepath.Dir(doc.Path), p)
		}
		if _, dup := seen[resolved]; dup {
			continue
		}
		seen[resolved] = struct{}{}
		s.List = append(s.List, Source{Path: resolved, Rank: tier})
	}
	return s
}

// FindFileForKey returns the first source file whose key set contains the
// key, checking candidates strictly in resolved order. First match wins
// even when later files also define the key. Absence everywhere is a
// normal outcome (found=false), not an error; unreadable candidates are
// skipped the same way.
func (r *Resolver) FindFileForKey(key string, srcs *Sources) (string, bool) {
	for _, src := range srcs.List {
		keys, err := r.lookup.Keys(src.Path)
		if err != nil {
			continue
		}
		for _, k := range keys {
			if k == key {
				return src.Path, true
			}
		}
	}
	return "", false
}

// HasKey reports whether any source defines the key.
func (r *Resolver) HasKey(key string, srcs *Sources) bool {
	_, ok := r.FindFileForKey(key, srcs)
	return ok
}

// Year resolves a key's publication year through the source list. Missing
// keys, missing year fields and non-numeric years all report ok=false.
func (r *Resolver) Year(key string, srcs *Sources) (int, bool) {
	file, ok := r.FindFileForKey(key, srcs)
	if !ok {
		return 0, false
	}
	raw, ok, err := r.lookup.Field(file, key, "year")
	if err != nil || !ok {
		return 0, false
	}
	year, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return year, true
}

// YearFn adapts the resolver to the citation model's sort capability.
func (r *Resolver) YearFn(srcs *Sources) func(key string) (int, bool) {
	return func(key string) (int, bool) {
		return r.Year(key, srcs)
	}
}

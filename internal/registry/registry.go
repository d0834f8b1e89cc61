// Package registry holds the closed table of marker kinds and their
// capabilities. Every citation and reference command the scanner recognizes
// comes from this table; there is no per-command code anywhere else.
package registry

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Class tags what a marker kind is for.
type Class int

const (
	// ClassCitation marks citation commands carrying bibliography keys.
	ClassCitation Class = iota
	// ClassReference marks cross-reference commands targeting labels.
	ClassReference
	// ClassBibliography marks bibliography-source declarations.
	ClassBibliography
	// ClassFile marks file-attachment links.
	ClassFile
)

func (c Class) String() string {
	switch c {
	case ClassCitation:
		return "citation"
	case ClassReference:
		return "reference"
	case ClassBibliography:
		return "bibliography"
	case ClassFile:
		return "file"
	default:
		return "unknown"
	}
}

// Descriptor describes one marker kind. Rendering-facing capabilities live
// here so consumers look them up instead of switching on names.
type Descriptor struct {
	// Name is the marker type prefix as written in documents, e.g. "cite".
	Name string
	// Class tags what the kind is for.
	Class Class
	// GroupsKeys is true for pluralized commands that render each key in
	// its own group rather than comma-joined. Irrelevant to key-list
	// algorithms; recorded as a capability only.
	GroupsKeys bool
	// ExportName is the downstream command this kind maps to, e.g. "\\cite".
	ExportName string
}

// Registry is the merged kind table: built-ins plus any user kinds.
type Registry struct {
	byName map[string]Descriptor
	order  []string
}

// builtins is the full built-in table. One data literal, no generated code.
var builtins = []Descriptor{
	// Citation commands.
	{Name: "cite", Class: ClassCitation, ExportName: `\cite`},
	{Name: "citet", Class: ClassCitation, ExportName: `\citet`},
	{Name: "citep", Class: ClassCitation, ExportName: `\citep`},
	{Name: "citenum", Class: ClassCitation, ExportName: `\citenum`},
	{Name: "citeyear", Class: ClassCitation, ExportName: `\citeyear`},
	{Name: "citetitle", Class: ClassCitation, ExportName: `\citetitle`},
	{Name: "citeauthor", Class: ClassCitation, ExportName: `\citeauthor`},
	{Name: "nocite", Class: ClassCitation, ExportName: `\nocite`},
	{Name: "autocite", Class: ClassCitation, ExportName: `\autocite`},
	{Name: "textcite", Class: ClassCitation, ExportName: `\textcite`},
	{Name: "parencite", Class: ClassCitation, ExportName: `\parencite`},
	{Name: "footcite", Class: ClassCitation, ExportName: `\footcite`},
	// Pluralized multicite commands: each key renders in its own group.
	{Name: "cites", Class: ClassCitation, GroupsKeys: true, ExportName: `\cites`},
	{Name: "autocites", Class: ClassCitation, GroupsKeys: true, ExportName: `\autocites`},
	{Name: "textcites", Class: ClassCitation, GroupsKeys: true, ExportName: `\textcites`},
	{Name: "parencites", Class: ClassCitation, GroupsKeys: true, ExportName: `\parencites`},
	{Name: "footcites", Class: ClassCitation, GroupsKeys: true, ExportName: `\footcites`},

	// Cross-reference commands. Resolution is uniform across all of them.
	{Name: "ref", Class: ClassReference, ExportName: `\ref`},
	{Name: "eqref", Class: ClassReference, ExportName: `\eqref`},
	{Name: "pageref", Class: ClassReference, ExportName: `\pageref`},
	{Name: "nameref", Class: ClassReference, ExportName: `\nameref`},
	{Name: "autoref", Class: ClassReference, ExportName: `\autoref`},
	{Name: "cref", Class: ClassReference, ExportName: `\cref`},
	{Name: "Cref", Class: ClassReference, ExportName: `\Cref`},

	// Bibliography declarations; the two marker syntaxes are equivalent.
	{Name: "bibliography", Class: ClassBibliography, ExportName: `\bibliography`},
	{Name: "addbibresource", Class: ClassBibliography, ExportName: `\addbibresource`},

	// File links.
	{Name: "attachfile", Class: ClassFile, ExportName: `\attachfile`},
	{Name: "file", Class: ClassFile, ExportName: ""},
}

// Builtin returns a registry containing only the built-in kinds.
func Builtin() *Registry {
	r := &Registry{byName: make(map[string]Descriptor, len(builtins))}
	for _, d := range builtins {
		r.add(d)
	}
	return r
}

func (r *Registry) add(d Descriptor) {
	if _, exists := r.byName[d.Name]; !exists {
		r.order = append(r.order, d.Name)
	}
	r.byName[d.Name] = d
}

// userKindsFile is the on-disk shape of a kinds.yaml file.
type userKindsFile struct {
	CitationKinds []userKind `yaml:"citation_kinds"`
}

type userKind struct {
	Name       string `yaml:"name"`
	Export     string `yaml:"export"`
	GroupsKeys *bool  `yaml:"groups_keys"`
}

// Load returns the built-in registry merged with user citation kinds from
// the given YAML file. A missing file is not an error; a malformed one is.
func Load(path string) (*Registry, error) {
	r := Builtin()
	if path == "" {
		return r, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read kinds file %s: %w", path, err)
	}

	var f userKindsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse kinds file %s: %w", path, err)
	}

	for _, k := range f.CitationKinds {
		name := strings.TrimSpace(k.Name)
		if name == "" {
			return nil, fmt.Errorf("kinds file %s: citation kind with empty name", path)
		}
		d := Descriptor{
			Name:       name,
			Class:      ClassCitation,
			ExportName: k.Export,
			// Pluralized command names group by default.
			GroupsKeys: strings.HasSuffix(name, "s"),
		}
		if k.GroupsKeys != nil {
			d.GroupsKeys = *k.GroupsKeys
		}
		r.add(d)
	}
	return r, nil
}

// Lookup returns the descriptor for a marker type name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Names returns the names of all kinds in the given class, longest first so
// they can be joined into a regexp alternation without prefix shadowing.
func (r *Registry) Names(class Class) []string {
	var names []string
	for _, name := range r.order {
		if r.byName[name].Class == class {
			names = append(names, name)
		}
	}
	sort.SliceStable(names, func(i, j int) bool {
		return len(names[i]) > len(names[j])
	})
	return names
}

// Package bibtex is the default bibliography record lookup. It scans .bib
// files for entry keys and flat field values, which is all the resolution
// engine needs: record cleaning and full field parsing are a separate
// concern handled downstream.
package bibtex

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
)

// entryRe matches an entry header: @type{key, or @type(key,
var entryRe = regexp.MustCompile(`(?m)^[ \t]*@([A-Za-z]+)[ \t]*[{(][ \t]*([^,{}() \t\n]+)[ \t]*,`)

// Parser scans bibliography files, caching per path and modification time
// so repeated key lookups during one validation run stay cheap.
type Parser struct {
	mu    sync.Mutex
	files map[string]*fileData
}

type fileData struct {
	modTime int64
	keys    []string
	// entries maps key to its raw entry body (between the header comma
	// and the next entry header).
	entries map[string]string
}

// New creates a Parser.
func New() *Parser {
	return &Parser{files: make(map[string]*fileData)}
}

// Keys returns every entry key in the file, in file order. The @comment,
// @preamble and @string directives carry no citable key and are skipped.
func (p *Parser) Keys(path string) ([]string, error) {
	data, err := p.load(path)
	if err != nil {
		return nil, err
	}
	return data.keys, nil
}

// Field returns the flat value of a field in an entry, with found=false
// when either the key or the field is absent.
func (p *Parser) Field(path, key, field string) (string, bool, error) {
	data, err := p.load(path)
	if err != nil {
		return "", false, err
	}
	body, ok := data.entries[key]
	if !ok {
		return "", false, nil
	}

	fieldRe := regexp.MustCompile(`(?im)^[ \t]*` + regexp.QuoteMeta(field) + `[ \t]*=[ \t]*["{]?([^,{}"\n]*)`)
	m := fieldRe.FindStringSubmatch(body)
	if m == nil {
		return "", false, nil
	}
	return strings.TrimSpace(m[1]), true, nil
}

func (p *Parser) load(path string) (*fileData, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("bibliography file %s: %w", path, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if cached, ok := p.files[path]; ok && cached.modTime == info.ModTime().UnixNano() {
		return cached, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bibliography file %s: %w", path, err)
	}

	data := &fileData{
		modTime: info.ModTime().UnixNano(),
		entries: make(map[string]string),
	}

	text := string(raw)
	matches := entryRe.FindAllStringSubmatchIndex(text, -1)
	for i, m := range matches {
		entryType := strings.ToLower(text[m[2]:m[3]])
		switch entryType {
		case "comment", "preamble", "string":
			continue
		}
		key := text[m[4]:m[5]]

		bodyEnd := len(text)
		if i+1 < len(matches) {
			bodyEnd = matches[i+1][0]
		}
		data.keys = append(data.keys, key)
		if _, dup := data.entries[key]; !dup {
			data.entries[key] = text[m[1]:bodyEnd]
		}
	}

	p.files[path] = data
	return data, nil
}

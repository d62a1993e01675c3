// Package extract finds resource references in page markup and resolves them
// to absolute URLs.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-scripts/tplmirror/internal/urlpath"
)

// Extractor scans markup for src/href references whose filename ends with one
// of suffixes and returns them resolved against base, in source order.
// Duplicates are kept.
type Extractor interface {
	Extract(markup []byte, base string, suffixes []string) []string
}

// Kind tells the crawler whether a reference is downloaded or recursed into.
type Kind int

const (
	Static Kind = iota
	Page
)

func (k Kind) String() string {
	switch k {
	case Static:
		return "static"
	case Page:
		return "page"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Reference is one resolved URL found in a page.
type Reference struct {
	URL  string
	Kind Kind
}

// Groups holds the suffix lists for each reference kind.
type Groups struct {
	Static []string
	Pages  []string
}

// Classify runs ex once per group and returns the static references followed
// by the page references.
func Classify(ex Extractor, markup []byte, base string, groups Groups) []Reference {
	var refs []Reference
	for _, u := range ex.Extract(markup, base, groups.Static) {
		refs = append(refs, Reference{URL: u, Kind: Static})
	}
	for _, u := range ex.Extract(markup, base, groups.Pages) {
		refs = append(refs, Reference{URL: u, Kind: Page})
	}
	return refs
}

// Resolver turns a raw reference into an absolute URL. A non-nil error drops
// the reference.
type Resolver func(base, ref string) (string, error)

func floorResolve(base, ref string) (string, error) {
	return urlpath.Resolve(base, ref), nil
}

// New returns the extractor registered under name ("regex" or "tokenizer").
// A nil resolve uses urlpath.Resolve.
func New(name string, resolve Resolver) (Extractor, error) {
	switch strings.ToLower(name) {
	case "", "regex":
		return Regex{Resolve: resolve}, nil
	case "tokenizer":
		return Tokenizer{Resolve: resolve}, nil
	default:
		return nil, fmt.Errorf("unknown extractor %q", name)
	}
}

var attrRe = regexp.MustCompile(`(?i)\b(?:src|href)\s*=\s*(?:"([^"]*)"|'([^']*)')`)

// Regex is the coarse attribute scanner. It does not understand tags, comments
// or scripts: any src="..." or href="..." in the text counts.
type Regex struct {
	Resolve Resolver
}

func (r Regex) Extract(markup []byte, base string, suffixes []string) []string {
	var raw []string
	for _, m := range attrRe.FindAllSubmatch(markup, -1) {
		v := m[1]
		if v == nil {
			v = m[2]
		}
		raw = append(raw, string(v))
	}
	return filterResolve(raw, base, suffixes, r.Resolve)
}

// filterResolve keeps the raw references with a wanted suffix and resolves
// them against base.
func filterResolve(raw []string, base string, suffixes []string, resolve Resolver) []string {
	if resolve == nil {
		resolve = floorResolve
	}
	var out []string
	for _, ref := range raw {
		ref = strings.TrimSpace(ref)
		if !hasSuffix(urlpath.Filename(ref), suffixes) {
			continue
		}
		if urlpath.HasScheme(ref) && !isHTTP(ref) {
			continue
		}
		abs, err := resolve(base, ref)
		if err != nil || abs == "" {
			continue
		}
		out = append(out, abs)
	}
	return out
}

func hasSuffix(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

func isHTTP(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

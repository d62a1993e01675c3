// Package visited keeps the set of URLs a crawl has already dispatched.
package visited

import (
	"sort"
	"sync"

	"github.com/go-scripts/tplmirror/internal/urlpath"
)

// Set is a thread-safe set of normalized URLs.
type Set struct {
	mu   sync.Mutex
	urls map[string]struct{}
}

// New creates an empty Set.
func New() *Set {
	return &Set{
		urls: make(map[string]struct{}),
	}
}

// Add records url and reports whether it was new. The check and the insert
// happen under one lock, so of several concurrent callers only one sees true.
// URLs that do not normalize are rejected.
func (s *Set) Add(url string) bool {
	key := urlpath.Normalize(url)
	if key == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.urls[key]; ok {
		return false
	}
	s.urls[key] = struct{}{}
	return true
}

// Has reports whether url has been added.
func (s *Set) Has(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.urls[urlpath.Normalize(url)]
	return ok
}

// Len returns the number of URLs in the set.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.urls)
}

// List returns the URLs in lexical order.
func (s *Set) List() []string {
	s.mu.Lock()
	out := make([]string, 0, len(s.urls))
	for u := range s.urls {
		out = append(out, u)
	}
	s.mu.Unlock()

	sort.Strings(out)
	return out
}

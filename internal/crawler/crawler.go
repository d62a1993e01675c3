// Package crawler mirrors a site: it fetches a page, stores it, downloads the
// static resources it references and recurses into the pages it links to.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"runtime/debug"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/go-scripts/tplmirror/internal/extract"
	"github.com/go-scripts/tplmirror/internal/fetch"
	"github.com/go-scripts/tplmirror/internal/urlpath"
	"github.com/go-scripts/tplmirror/internal/visited"
)

// Fetcher downloads the body of a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Sink stores downloaded files. writer.FileWriter is the implementation.
type Sink interface {
	Path(rawURL, override string) (string, error)
	SaveOnce(path string, produce func() ([]byte, error)) (bool, error)
}

// Configuration holds the collaborators and settings of a Session.
type Configuration struct {
	Fetcher   Fetcher
	Sink      Sink
	Extractor extract.Extractor // default: extract.Regex
	Visited   *visited.Set      // default: a fresh set
	Logger    *log.Logger       // default: log.Default()
	Observer  Observer

	Groups        extract.Groups
	EntryFilename string // default: index.html
	Workers       int    // parallel static downloads per page; default 1
}

// Session is one mirror run. It owns the visited set, so a Session must not
// be reused for a second, independent run.
type Session struct {
	config   Configuration
	visited  *visited.Set
	logger   *log.Logger
	observer Observer
	host     string

	mu     sync.Mutex
	states map[string]State
	stats  Stats
}

// New creates a Session.
func New(config Configuration) (*Session, error) {
	if config.Fetcher == nil {
		return nil, errors.New("crawler: fetcher is required")
	}
	if config.Sink == nil {
		return nil, errors.New("crawler: sink is required")
	}
	if config.Extractor == nil {
		config.Extractor = extract.Regex{}
	}
	if config.EntryFilename == "" {
		config.EntryFilename = "index.html"
	}
	if config.Workers < 1 {
		config.Workers = 1
	}

	s := &Session{
		config:   config,
		visited:  config.Visited,
		logger:   config.Logger,
		observer: config.Observer,
		states:   make(map[string]State),
	}
	if s.visited == nil {
		s.visited = visited.New()
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	return s, nil
}

// Run mirrors the site starting at entryURL, which is stored under the
// configured entry filename. References to other hosts are not followed.
func (s *Session) Run(ctx context.Context, entryURL string) (Stats, error) {
	entry := urlpath.Normalize(entryURL)
	u, err := url.Parse(entry)
	if entry == "" || err != nil || u.Host == "" {
		return Stats{}, fmt.Errorf("invalid entry url %q", entryURL)
	}
	s.host = u.Host

	start := time.Now()
	s.logger.Info("Starting mirror", "url", entry, "workers", s.config.Workers)

	state := s.CrawlPage(ctx, entry, s.config.EntryFilename)

	stats := s.Stats()
	stats.Elapsed = time.Since(start)
	s.logger.Info("Mirror finished",
		"pages", stats.PagesSaved,
		"resources", stats.ResourcesSaved,
		"failed", len(stats.Failed),
		"elapsed", stats.Elapsed.Round(time.Millisecond))

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	if state == Failed {
		return stats, fmt.Errorf("%s: %w", entry, ErrEntryFailed)
	}
	return stats, nil
}

// CrawlPage mirrors one page and everything reachable from it. override, when
// non-empty, replaces the page's own filename. A URL already seen by this
// session is skipped without any network access.
func (s *Session) CrawlPage(ctx context.Context, pageURL, override string) State {
	if ctx.Err() != nil {
		return Skipped
	}

	pageURL = urlpath.Normalize(pageURL)
	if !s.visited.Add(pageURL) {
		s.update(func(st *Stats) { st.PagesSkipped++ })
		return Skipped
	}

	s.setState(pageURL, InFlight)
	s.observer.PageStarted(pageURL)

	state := s.processPage(ctx, pageURL, override)

	s.setState(pageURL, state)
	s.observer.PageDone(pageURL, state)
	return state
}

func (s *Session) processPage(ctx context.Context, pageURL, override string) State {
	s.logger.Info("Processing", "url", pageURL)

	body, err := s.config.Fetcher.Fetch(ctx, pageURL)
	if err != nil {
		s.fetchFailed(&FetchError{URL: pageURL, Err: err})
		s.update(func(st *Stats) { st.PagesFailed++ })
		return Failed
	}
	if len(body) == 0 {
		s.logger.Error("Content is empty!", "url", pageURL, "err", ErrEmptyContent)
		s.update(func(st *Stats) {
			st.PagesFailed++
			st.Failed = append(st.Failed, pageURL)
		})
		return Failed
	}

	s.savePage(pageURL, override, body)
	s.update(func(st *Stats) { st.PagesSaved++ })

	var statics, pages []string
	refs := extract.Classify(s.config.Extractor, body, urlpath.RootContext(pageURL), s.config.Groups)
	for _, ref := range refs {
		if !s.sameSite(ref.URL) {
			s.logger.Debug("Skipping off-site reference", "url", ref.URL, "page", pageURL)
			continue
		}
		switch ref.Kind {
		case extract.Static:
			statics = append(statics, ref.URL)
		case extract.Page:
			pages = append(pages, ref.URL)
		}
	}

	s.logger.Info("Saving static resources...", "count", len(statics), "page", pageURL)
	s.downloadAll(ctx, unique(statics))

	s.logger.Info(fmt.Sprintf("Preparing to process %d URLs from current page...", len(pages)), "page", pageURL)
	for _, p := range pages {
		s.CrawlPage(ctx, p, "")
	}
	return Saved
}

// savePage stores the already fetched page body. A failed write is logged and
// the page is still scanned for references.
func (s *Session) savePage(pageURL, override string, body []byte) {
	path, err := s.config.Sink.Path(pageURL, override)
	if err != nil {
		s.writeFailed(pageURL, &WriteError{Path: pageURL, Err: err})
		return
	}
	saved, err := s.config.Sink.SaveOnce(path, func() ([]byte, error) {
		s.logger.Info("Downloading", "url", pageURL, "path", path)
		return body, nil
	})
	if err != nil {
		s.writeFailed(pageURL, &WriteError{Path: path, Err: err})
		return
	}
	if saved {
		s.update(func(st *Stats) { st.BytesWritten += int64(len(body)) })
	}
}

// downloadAll saves static resources, Workers at a time.
func (s *Session) downloadAll(ctx context.Context, urls []string) {
	if s.config.Workers <= 1 {
		for _, u := range urls {
			s.saveResource(ctx, u)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(s.config.Workers)
	for _, u := range urls {
		u := u
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("Download worker panicked", "url", u, "panic", r, "stack", string(debug.Stack()))
					err = fmt.Errorf("download %s: panic: %v", u, r)
				}
			}()
			s.saveResource(ctx, u)
			return nil
		})
	}
	// a worker panic resurfaces on the calling goroutine
	if err := g.Wait(); err != nil {
		panic(err)
	}
}

// saveResource downloads a static resource unless its file already exists.
func (s *Session) saveResource(ctx context.Context, resURL string) {
	if ctx.Err() != nil {
		return
	}

	path, err := s.config.Sink.Path(resURL, "")
	if err != nil {
		werr := &WriteError{Path: resURL, Err: err}
		s.writeFailed(resURL, werr)
		s.observer.ResourceDone(resURL, false, werr)
		return
	}

	var written int
	saved, err := s.config.Sink.SaveOnce(path, func() ([]byte, error) {
		s.logger.Info("Downloading", "url", resURL)
		body, err := s.config.Fetcher.Fetch(ctx, resURL)
		if err != nil {
			return nil, &FetchError{URL: resURL, Err: err}
		}
		written = len(body)
		return body, nil
	})

	var ferr *FetchError
	switch {
	case errors.As(err, &ferr):
		s.fetchFailed(ferr)
		s.update(func(st *Stats) { st.ResourcesFailed++ })
	case err != nil:
		s.writeFailed(resURL, &WriteError{Path: path, Err: err})
		s.update(func(st *Stats) { st.ResourcesFailed++ })
	case saved:
		s.update(func(st *Stats) {
			st.ResourcesSaved++
			st.BytesWritten += int64(written)
		})
	default:
		s.update(func(st *Stats) { st.ResourcesExisting++ })
	}
	s.observer.ResourceDone(resURL, saved, err)
}

// fetchFailed logs a failed download the way the error deserves.
func (s *Session) fetchFailed(err *FetchError) {
	var status *fetch.StatusError
	switch {
	case errors.Is(err, fetch.ErrNotFound):
		s.logger.Error("Not found", "url", err.URL)
	case errors.As(err, &status):
		s.logger.Error(fmt.Sprintf("HTTP error %d", status.Code), "url", err.URL)
	default:
		s.logger.Error("Fetch failed", "url", err.URL, "err", err.Err)
	}
	s.update(func(st *Stats) { st.Failed = append(st.Failed, err.URL) })
}

func (s *Session) writeFailed(rawURL string, err *WriteError) {
	s.logger.Error("Write failed", "url", rawURL, "path", err.Path, "err", err.Err)
	s.update(func(st *Stats) {
		st.WriteErrors++
		st.Failed = append(st.Failed, rawURL)
	})
}

func (s *Session) sameSite(rawURL string) bool {
	if s.host == "" {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Host == s.host
}

func (s *Session) update(fn func(*Stats)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.stats)
}

func (s *Session) setState(pageURL string, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[pageURL] = state
}

// State returns where pageURL stands in this session.
func (s *Session) State(pageURL string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[urlpath.Normalize(pageURL)]
}

// Stats returns a snapshot of the counters so far.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.Failed = append([]string(nil), s.stats.Failed...)
	return st
}

// Visited returns the session's visited set.
func (s *Session) Visited() *visited.Set {
	return s.visited
}

// unique drops repeated URLs, keeping the first occurrence.
func unique(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := urls[:0:0]
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

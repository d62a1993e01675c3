// Package progress shows a single terminal spinner while a mirror runs.
package progress

import (
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/go-scripts/tplmirror/internal/crawler"
)

// Tracker implements crawler.Observer. The spinner only animates when w is a
// terminal; the counters are kept either way.
type Tracker struct {
	spin    *spinner.Spinner
	enabled bool

	mu        sync.Mutex
	current   string
	pages     int
	resources int
	failed    int
}

// New creates a Tracker writing to w. A disabled Tracker only counts.
func New(w io.Writer, enabled bool) *Tracker {
	return &Tracker{
		spin:    spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(w)),
		enabled: enabled,
	}
}

// Start begins animating.
func (t *Tracker) Start() {
	if t.enabled {
		t.spin.Start()
	}
}

// Stop halts the spinner and clears its line.
func (t *Tracker) Stop() {
	if t.enabled {
		t.spin.Stop()
	}
}

func (t *Tracker) PageStarted(pageURL string) {
	t.mu.Lock()
	t.current = pageURL
	t.mu.Unlock()
	t.refresh()
}

func (t *Tracker) PageDone(pageURL string, state crawler.State) {
	t.mu.Lock()
	switch state {
	case crawler.Saved:
		t.pages++
	case crawler.Failed:
		t.failed++
	}
	t.mu.Unlock()
	t.refresh()
}

func (t *Tracker) ResourceDone(resURL string, saved bool, err error) {
	t.mu.Lock()
	switch {
	case err != nil:
		t.failed++
	case saved:
		t.resources++
	}
	t.mu.Unlock()
	t.refresh()
}

// Message is the spinner suffix for the current counters.
func (t *Tracker) Message() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fmt.Sprintf(" %d pages, %d files, %d failed  %s",
		t.pages, t.resources, t.failed, formatSpinnerMessage(t.current))
}

func (t *Tracker) refresh() {
	if !t.enabled {
		return
	}
	msg := t.Message()
	t.spin.Lock()
	t.spin.Suffix = msg
	t.spin.Unlock()
}

// formatSpinnerMessage shortens long URLs to host plus the tail of the path.
func formatSpinnerMessage(urlStr string) string {
	maxLen := 40
	if len(urlStr) <= maxLen {
		return urlStr
	}
	u, err := url.Parse(urlStr)
	if err == nil && len(u.Host) < maxLen-3 {
		path := u.Path
		if keep := maxLen - len(u.Host) - 3; len(path) > keep {
			path = "..." + path[len(path)-keep:]
		}
		return u.Host + path
	}
	return "..." + urlStr[len(urlStr)-maxLen:]
}

package crawler

import (
	"fmt"
	"time"
)

// State is where a page URL stands within one session.
type State int

const (
	Unvisited State = iota
	InFlight
	Saved   // fetched, stored and scanned
	Skipped // already visited, or the run was cancelled
	Failed  // fetch failed or the body was empty
)

func (s State) String() string {
	switch s {
	case Unvisited:
		return "unvisited"
	case InFlight:
		return "in-flight"
	case Saved:
		return "saved"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Stats summarizes a session.
type Stats struct {
	PagesSaved   int
	PagesSkipped int
	PagesFailed  int

	ResourcesSaved    int
	ResourcesExisting int
	ResourcesFailed   int

	WriteErrors  int
	BytesWritten int64
	Elapsed      time.Duration

	// Failed lists every URL whose fetch or save failed, in the order seen.
	Failed []string
}

// Observer is told about progress as the crawl runs. Calls may come from
// several goroutines when Workers > 1.
type Observer interface {
	PageStarted(url string)
	PageDone(url string, state State)
	ResourceDone(url string, saved bool, err error)
}

type nopObserver struct{}

func (nopObserver) PageStarted(string)               {}
func (nopObserver) PageDone(string, State)           {}
func (nopObserver) ResourceDone(string, bool, error) {}

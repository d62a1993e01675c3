package crawler

import (
	"errors"
	"fmt"
)

// ErrEmptyContent is recorded for a page that was fetched with a zero-length
// body.
var ErrEmptyContent = errors.New("content is empty")

// ErrEntryFailed is returned by Run when the entry page itself could not be
// fetched.
var ErrEntryFailed = errors.New("entry page could not be mirrored")

// FetchError wraps a failed download. The underlying fetch.ErrNotFound or
// *fetch.StatusError stays reachable through errors.Is and errors.As.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// WriteError wraps a local I/O failure while saving a file.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

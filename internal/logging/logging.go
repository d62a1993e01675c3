// Package logging builds the run logger: charmbracelet/log writing to a log
// file that rotates at midnight, optionally mirrored to the terminal.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Options configures New.
type Options struct {
	Dir     string
	File    string
	Backups int
	Console bool // also write to stderr
	Level   log.Level
}

// New opens the rotating log file and returns a logger tagged with a fresh
// run id. The returned closer flushes and closes the file.
func New(opts Options) (*log.Logger, io.Closer, error) {
	file, err := OpenDaily(filepath.Join(opts.Dir, opts.File), opts.Backups)
	if err != nil {
		return nil, nil, err
	}

	var w io.Writer = file
	if opts.Console {
		w = io.MultiWriter(file, os.Stderr)
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		ReportCaller:    true,
		TimeFormat:      time.DateTime,
		Level:           opts.Level,
	})
	return logger.With("run", uuid.NewString()[:8]), file, nil
}

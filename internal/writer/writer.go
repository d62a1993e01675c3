package writer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/go-scripts/tplmirror/internal/urlpath"
)

// ErrOutsideRoot is returned when a URL maps to a path outside the output
// directory.
var ErrOutsideRoot = errors.New("path escapes output directory")

// ErrNoFilename is returned for URLs with an empty filename and no override.
var ErrNoFilename = errors.New("url has no filename")

// FileWriter mirrors URLs into a directory tree under outputDir.
type FileWriter struct {
	outputDir string
	logger    *log.Logger
	inflight  singleflight.Group
}

// New creates a FileWriter, creating outputDir if needed.
func New(outputDir string, logger *log.Logger) (*FileWriter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	abs, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &FileWriter{outputDir: abs, logger: logger}, nil
}

// Dir returns the absolute output directory.
func (w *FileWriter) Dir() string {
	return w.outputDir
}

// Path maps rawURL to its local file: the URL's directory mirrored under the
// output directory, then override or the URL's own filename.
func (w *FileWriter) Path(rawURL, override string) (string, error) {
	name := override
	if name == "" {
		name = urlpath.Filename(rawURL)
	}
	if name == "" {
		return "", ErrNoFilename
	}

	full := filepath.Join(w.outputDir, filepath.FromSlash(urlpath.Pathname(rawURL)), name)
	if !strings.HasPrefix(full, w.outputDir+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return full, nil
}

// SaveOnce writes the bytes returned by produce to path unless the file
// already exists. produce is only called when a write is needed, so callers
// can defer the download until then. Concurrent calls for the same path share
// one execution. It reports whether this call wrote the file; callers that
// only waited on another call's write get false.
func (w *FileWriter) SaveOnce(path string, produce func() ([]byte, error)) (bool, error) {
	ran := false
	v, err, _ := w.inflight.Do(path, func() (interface{}, error) {
		ran = true
		if err := w.ensureDir(filepath.Dir(path)); err != nil {
			return false, err
		}
		if _, err := os.Stat(path); err == nil {
			return false, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return false, err
		}

		data, err := produce()
		if err != nil {
			return false, err
		}
		if err := writeFileAtomic(path, data); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return ran && v.(bool), nil
}

// ensureDir creates dir and its parents if dir does not exist yet.
func (w *FileWriter) ensureDir(dir string) error {
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return nil
	}
	w.logger.Info("Creating new directory", "dir", dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

// writeFileAtomic writes to a temporary file in the same directory and
// renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to chmod file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

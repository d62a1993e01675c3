package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const backupSuffix = "20060102"

// DailyFile is an io.WriteCloser that appends to a log file and rotates it at
// local midnight. The previous day's file is renamed to "<name>.YYYYMMDD" and
// at most Backups such files are kept.
type DailyFile struct {
	Path    string
	Backups int

	mu       sync.Mutex
	file     *os.File
	rotateAt time.Time
	now      func() time.Time
}

// OpenDaily opens (or creates) path for appending.
func OpenDaily(path string, backups int) (*DailyFile, error) {
	d := &DailyFile{Path: path, Backups: backups, now: time.Now}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	if err := d.open(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *DailyFile) open() error {
	f, err := os.OpenFile(d.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	d.file = f
	d.rotateAt = nextMidnight(d.now())
	return nil
}

func (d *DailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil {
		return 0, os.ErrClosed
	}
	if !d.now().Before(d.rotateAt) {
		if err := d.rotate(); err != nil {
			return 0, err
		}
	}
	return d.file.Write(p)
}

// rotate names the backup after the day that just ended.
func (d *DailyFile) rotate() error {
	ended := d.rotateAt.Add(-time.Hour)
	if err := d.file.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	backup := d.Path + "." + ended.Format(backupSuffix)
	if err := os.Rename(d.Path, backup); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rotate log file: %w", err)
	}
	if err := d.open(); err != nil {
		return err
	}
	return d.prune()
}

// prune removes the oldest backups beyond d.Backups.
func (d *DailyFile) prune() error {
	if d.Backups <= 0 {
		return nil
	}
	matches, err := filepath.Glob(d.Path + ".*")
	if err != nil {
		return err
	}
	var backups []string
	for _, m := range matches {
		stamp := strings.TrimPrefix(m, d.Path+".")
		if _, err := time.Parse(backupSuffix, stamp); err == nil {
			backups = append(backups, m)
		}
	}
	if len(backups) <= d.Backups {
		return nil
	}
	sort.Strings(backups)
	for _, old := range backups[:len(backups)-d.Backups] {
		if err := os.Remove(old); err != nil {
			return fmt.Errorf("remove old log: %w", err)
		}
	}
	return nil
}

// Close closes the current file.
func (d *DailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

func nextMidnight(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day+1, 0, 0, 0, 0, t.Location())
}

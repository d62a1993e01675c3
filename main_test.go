package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-scripts/tplmirror/internal/crawler"
)

func TestCLIParse(t *testing.T) {
	var flags CLIFlags
	parser, err := kong.New(&flags)
	require.NoError(t, err)

	_, err = parser.Parse([]string{
		"-u", "http://abc.com/theme/",
		"-o", "out",
		"--workers", "3",
		"--timeout", "2s",
		"--rate-limit", "5",
		"--strict",
		"-q",
	})
	require.NoError(t, err)

	assert.Equal(t, "http://abc.com/theme/", flags.URL)
	assert.True(t, filepath.IsAbs(flags.Output))
	assert.Equal(t, 3, flags.Workers)
	assert.Equal(t, 2*time.Second, flags.Timeout)
	assert.Equal(t, 5.0, flags.RateLimit)
	assert.True(t, flags.Strict)
	assert.True(t, flags.Quiet)
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
entry_url: http://abc.com/from-file/
output_dir: site
workers: 2
timeout: 5s
extractor: tokenizer
`), 0644))

	cfg, err := loadConfig(CLIFlags{ConfigFile: path, Workers: 6, URL: "http://abc.com/theme/"})
	require.NoError(t, err)

	assert.Equal(t, "http://abc.com/theme/", cfg.EntryURL)
	assert.Equal(t, "site", cfg.OutputDir)
	assert.Equal(t, 6, cfg.Workers)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "tokenizer", cfg.Extractor)
	assert.Equal(t, "index.html", cfg.EntryFilename)
}

func TestLoadConfigRequiresURLAndOutput(t *testing.T) {
	_, err := loadConfig(CLIFlags{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry url is required")
	assert.Contains(t, err.Error(), "output directory is required")

	_, err = loadConfig(CLIFlags{URL: "ftp://abc.com/", Output: "out"})
	assert.Error(t, err)
}

func newTemplateServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/theme/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/theme/" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<link href="css/site.css" rel="stylesheet"><a href="about.html">About</a>`))
	})
	mux.HandleFunc("/theme/about.html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<a href="index.html">Home</a>`))
	})
	mux.HandleFunc("/theme/css/site.css", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("body{}"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunMirrorsTemplate(t *testing.T) {
	srv := newTemplateServer(t)
	out := t.TempDir()
	logDir := t.TempDir()

	var summary bytes.Buffer
	err := run(context.Background(), CLIFlags{
		URL:    srv.URL + "/theme/",
		Output: out,
		LogDir: logDir,
	}, &summary)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(out, "theme", "index.html"))
	assert.FileExists(t, filepath.Join(out, "theme", "about.html"))
	assert.FileExists(t, filepath.Join(out, "theme", "css", "site.css"))
	assert.Contains(t, summary.String(), "Mirror Summary")

	logged, err := os.ReadFile(filepath.Join(logDir, "template-downloader.log"))
	require.NoError(t, err)
	assert.Contains(t, string(logged), "Processing")
	assert.Contains(t, string(logged), "Downloading")
}

func TestRunReportsEntryFailure(t *testing.T) {
	srv := newTemplateServer(t)
	out := t.TempDir()

	before := log.Default()
	var summary bytes.Buffer
	err := run(context.Background(), CLIFlags{
		URL:    srv.URL + "/missing/",
		Output: out,
		Quiet:  true,
	}, &summary)

	assert.ErrorIs(t, err, crawler.ErrEntryFailed)
	assert.Empty(t, summary.String())
	assert.Same(t, before, log.Default(), "default logger restored once the run log is closed")

	logged, readErr := os.ReadFile(filepath.Join(out, "template-downloader.log"))
	require.NoError(t, readErr)
	assert.Contains(t, string(logged), "Mirror failed")
	assert.Contains(t, string(logged), "entry page could not be mirrored")
}

func TestLogFailureRecordsPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)

	err := func() (err error) {
		defer logFailure(logger, &err)
		var m map[string]int
		m["boom"]++
		return nil
	}()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic:")
	assert.Contains(t, buf.String(), "Unexpected error")
	assert.Contains(t, buf.String(), "assignment to entry in nil map")
	assert.Contains(t, buf.String(), "runtime/debug.Stack")
	assert.Contains(t, buf.String(), "Mirror failed")
}

func TestLogFailureQuietOnSuccess(t *testing.T) {
	var buf bytes.Buffer
	err := func() (err error) {
		defer logFailure(log.New(&buf), &err)
		return nil
	}()

	assert.NoError(t, err)
	assert.Empty(t, buf.String())
}

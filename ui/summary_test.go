package ui

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/go-scripts/tplmirror/internal/crawler"
)

func TestSummary(t *testing.T) {
	out := Summary(crawler.Stats{
		PagesSaved:        3,
		PagesSkipped:      2,
		PagesFailed:       1,
		ResourcesSaved:    4,
		ResourcesExisting: 1,
		BytesWritten:      2048,
		Elapsed:           61 * time.Second,
		Failed:            []string{"http://abc.com/gone.html"},
	}, "/tmp/site")

	assert.Contains(t, out, "Mirror Summary")
	assert.Contains(t, out, "/tmp/site")
	assert.Contains(t, out, "3 saved, 2 skipped, 1 failed")
	assert.Contains(t, out, "4 saved, 1 already present, 0 failed")
	assert.Contains(t, out, "2.0 kB")
	assert.Contains(t, out, "00:01:01")
	assert.Contains(t, out, "http://abc.com/gone.html")
	assert.NotContains(t, out, "Write errors")
}

func TestSummaryCapsFailedList(t *testing.T) {
	var failed []string
	for i := 0; i < 13; i++ {
		failed = append(failed, fmt.Sprintf("http://abc.com/%d.html", i))
	}
	out := Summary(crawler.Stats{Failed: failed, WriteErrors: 2}, "out")

	assert.Contains(t, out, "http://abc.com/9.html")
	assert.NotContains(t, out, "http://abc.com/10.html")
	assert.Contains(t, out, "... and 3 more")
	assert.Contains(t, out, "Write errors")
}

package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/go-scripts/tplmirror/internal/crawler"
)

// maxFailedListed caps the failed URLs printed under the summary.
const maxFailedListed = 10

var (
	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("99")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// Summary renders the end-of-run report for a mirror into outputDir.
func Summary(stats crawler.Stats, outputDir string) string {
	rows := []struct {
		label string
		value string
	}{
		{"Output", outputDir},
		{"Pages", fmt.Sprintf("%d saved, %d skipped, %d failed",
			stats.PagesSaved, stats.PagesSkipped, stats.PagesFailed)},
		{"Resources", fmt.Sprintf("%d saved, %d already present, %d failed",
			stats.ResourcesSaved, stats.ResourcesExisting, stats.ResourcesFailed)},
		{"Written", humanize.Bytes(uint64(stats.BytesWritten))},
		{"Elapsed", formatElapsedTime(stats.Elapsed)},
	}
	if stats.WriteErrors > 0 {
		rows = append(rows, struct {
			label string
			value string
		}{"Write errors", fmt.Sprintf("%d", stats.WriteErrors)})
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("Mirror Summary") + "\n\n")
	for _, row := range rows {
		content.WriteString(fmt.Sprintf("%-14s %s\n",
			labelStyle.Render(row.label+":"),
			valueStyle.Render(row.value)))
	}

	if len(stats.Failed) > 0 {
		content.WriteString("\nFailed URLs:\n")
		for i, u := range stats.Failed {
			if i == maxFailedListed {
				content.WriteString(errorStyle.Render(fmt.Sprintf("  ... and %d more", len(stats.Failed)-maxFailedListed)) + "\n")
				break
			}
			content.WriteString(errorStyle.Render("  • "+u) + "\n")
		}
	}

	return borderStyle.Render(strings.TrimRight(content.String(), "\n"))
}

func formatElapsedTime(elapsed time.Duration) string {
	return fmt.Sprintf("%02d:%02d:%02d",
		int(elapsed.Hours()),
		int(elapsed.Minutes())%60,
		int(elapsed.Seconds())%60,
	)
}

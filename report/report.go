// Package report renders run summaries for the terminal and for notifications.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/a-bouts/digital-navigator/voyage"
	"github.com/a-bouts/digital-navigator/wind"
)

var columns = []string{"start", "days", "sub-steps", "max wind", "min wind"}

const columnWidth = 10

func cell(s string) string {
	return fmt.Sprintf("%*s", columnWidth, s)
}

func row(values ...string) string {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = cell(v)
	}
	return strings.Join(cells, " ")
}

// Render draws the records and stalled days of a run in a bordered pane.
func Render(summary voyage.Summary) string {
	sections := []string{
		titleStyle.Render(fmt.Sprintf("Run %s", summary.RunID)),
		headerStyle.Render(row(columns...)),
	}
	for _, r := range summary.Records {
		sections = append(sections, row(
			r.Stamp(),
			fmt.Sprintf("%.3f", r.ElapsedDays),
			fmt.Sprintf("%d", r.SubSteps),
			fmt.Sprintf("%.2f", r.MaxWind),
			fmt.Sprintf("%.2f", r.MinWind),
		))
	}
	for _, s := range summary.Stalled {
		sections = append(sections, stalledStyle.Render(row(
			wind.Stamp(s.Start),
			"stalled",
			fmt.Sprintf("%d", s.SubSteps),
			"-",
			"-",
		)))
	}
	sections = append(sections, "", Text(summary))

	return paneStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// Text is a one line summary of a run.
func Text(summary voyage.Summary) string {
	msg := fmt.Sprintf("%d days reached, %d stalled in %s", len(summary.Records), len(summary.Stalled), summary.Took.Round(time.Millisecond))
	if len(summary.Records) == 0 {
		return msg
	}
	min, max := summary.Records[0], summary.Records[0]
	sum := 0.0
	for _, r := range summary.Records {
		if r.ElapsedDays < min.ElapsedDays {
			min = r
		}
		if r.ElapsedDays > max.ElapsedDays {
			max = r
		}
		sum += r.ElapsedDays
	}
	return fmt.Sprintf("%s. Fastest %s (%.2f days), slowest %s (%.2f days), mean %.2f days",
		msg, min.Stamp(), min.ElapsedDays, max.Stamp(), max.ElapsedDays, sum/float64(len(summary.Records)))
}

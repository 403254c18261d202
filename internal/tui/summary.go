package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"pixie/internal/processor"
	"pixie/pkg/imgutil"
)

type SummaryRow struct {
	Label string
	Value string
}

// RenderSummary lays rows out as a two-column table.
func RenderSummary(rows []SummaryRow) string {
	labelWidth := lo.Max(lo.Map(rows, func(r SummaryRow, _ int) int { return lipgloss.Width(r.Label) }))
	valueWidth := lo.Max(lo.Map(rows, func(r SummaryRow, _ int) int { return lipgloss.Width(r.Value) }))

	hline := dimStyle.Render(strings.Repeat("-", labelWidth+valueWidth+3))
	lines := []string{hline}
	for _, row := range rows {
		label := padRight(row.Label, labelWidth)
		value := padRight(row.Value, valueWidth)
		lines = append(lines, fmt.Sprintf("%s | %s", labelStyle.Render(label), valueStyle.Render(value)))
	}
	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

// StatsRows describes a single processed image.
func StatsRows(stats processor.ProcessingStats) []SummaryRow {
	return []SummaryRow{
		{Label: "Format", Value: stats.Format.String()},
		{Label: "Dimensions", Value: fmt.Sprintf("%dx%d -> %dx%d", stats.WidthBefore, stats.HeightBefore, stats.WidthAfter, stats.HeightAfter)},
		{Label: "Size", Value: fmt.Sprintf("%s -> %s", imgutil.FormatSize(stats.InputSize), imgutil.FormatSize(stats.OutputSize))},
		{Label: "Saved", Value: fmt.Sprintf("%.1f%%", stats.Savings())},
	}
}

// BatchRows describes a finished batch run.
func BatchRows(stats processor.BatchStats, elapsed time.Duration) []SummaryRow {
	return []SummaryRow{
		{Label: "Processed", Value: fmt.Sprintf("%d", stats.Processed)},
		{Label: "Failed", Value: fmt.Sprintf("%d", len(stats.Errors))},
		{Label: "Size before", Value: imgutil.FormatSize(stats.TotalSizeBefore)},
		{Label: "Size after", Value: imgutil.FormatSize(stats.TotalSizeAfter)},
		{Label: "Saved", Value: fmt.Sprintf("%.1f%%", stats.Savings())},
		{Label: "Elapsed", Value: elapsed.Round(time.Millisecond).String()},
	}
}

// RenderErrors lists per-file failures in the order they were collected.
func RenderErrors(errs []processor.FileError) string {
	if len(errs) == 0 {
		return ""
	}
	lines := []string{warnStyle.Render(fmt.Sprintf("%d file(s) failed:", len(errs)))}
	for _, e := range errs {
		lines = append(lines, dimStyle.Render("  "+e.Error()))
	}
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

var (
	valueStyle = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
)

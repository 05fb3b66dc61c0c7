package report

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/docdyhr/versiontracker-sub001/internal/common/output"
	"github.com/docdyhr/versiontracker-sub001/internal/tracker"
)

// TextOptions filters the text report
type TextOptions struct {
	// OnlyOutdated shows only applications with a newer catalog version
	OnlyOutdated bool
	// IncludeUpToDate adds the up-to-date section
	IncludeUpToDate bool
}

// section is one group of the text report
type section struct {
	title    string
	statuses []tracker.Status
	color    *color.Color
}

// sections lists the report groups in display order
var sections = []section{
	{"Outdated Applications", []tracker.Status{tracker.StatusOutdated}, output.Outdated},
	{"Auto-Updating Applications", []tracker.Status{tracker.StatusAutoUpdated}, output.AutoUpdated},
	{"Unavailable or Incomparable", []tracker.Status{tracker.StatusUnavailable, tracker.StatusIncomparable}, output.Unavailable},
	{"Ambiguous Matches", []tracker.Status{tracker.StatusAmbiguous}, output.Ambiguous},
	{"Unmatched Applications", []tracker.Status{tracker.StatusUnmatched}, output.Dim},
	{"Up-to-Date Applications", []tracker.Status{tracker.StatusUpToDate}, output.Success},
}

// Column caps for readability
const (
	maxNameWidth   = 30
	maxDetailWidth = 48
)

var tableHeader = []string{"Application", "Installed", "Package", "Latest", "Status", "Detail"}

// visible reports whether a status is shown under opts
func (o TextOptions) visible(status tracker.Status) bool {
	if o.OnlyOutdated {
		return status == tracker.StatusOutdated
	}
	if status == tracker.StatusUpToDate {
		return o.IncludeUpToDate
	}
	return true
}

// FormatTable formats a report as grouped tables for terminal output
func FormatTable(report *tracker.Report, opts TextOptions) string {
	var sb strings.Builder

	if len(report.Results) == 0 {
		sb.WriteString(output.Sprint(output.Info, "No applications found.\n"))
		return sb.String()
	}

	shown := 0
	for _, sec := range sections {
		var rows []tracker.Result
		for _, r := range report.Results {
			if containsStatus(sec.statuses, r.Status) && opts.visible(r.Status) {
				rows = append(rows, r)
			}
		}
		if len(rows) == 0 {
			continue
		}
		shown += len(rows)
		sb.WriteString(formatResultSection(rows, sec.title, sec.color))
	}

	if shown == 0 {
		sb.WriteString(output.Sprint(output.Success, "All applications are up-to-date!\n"))
	}

	sb.WriteString("\n")
	sb.WriteString(FormatSummaryLine(report))

	if report.DeadlineExceeded {
		sb.WriteString(output.Sprint(output.Warning, "Deadline exceeded: some catalog records could not be fetched in time\n"))
	}

	return sb.String()
}

// FormatSummaryLine returns the per-status counts on one line
func FormatSummaryLine(report *tracker.Report) string {
	var sb strings.Builder
	for _, status := range tracker.AllStatuses() {
		n := report.Count(status)
		if n == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s: %s | ",
			statusLabel(status), output.Sprint(output.StatusColor(status.String()), fmt.Sprintf("%d", n))))
	}
	sb.WriteString(fmt.Sprintf("Total: %d\n", len(report.Results)))
	return sb.String()
}

// FormatSummary formats a brief description of the run
func FormatSummary(report *tracker.Report) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Run: %s\n", report.RunID))
	sb.WriteString(fmt.Sprintf("Scanned: %d applications\n", len(report.Results)))
	if !report.StartedAt.IsZero() && !report.FinishedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Duration: %s\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond)))
	}

	if n := report.Count(tracker.StatusOutdated); n > 0 {
		sb.WriteString(output.Sprintf(output.Outdated, "Outdated: %d\n", n))
	}
	if n := report.Count(tracker.StatusAutoUpdated); n > 0 {
		sb.WriteString(output.Sprintf(output.AutoUpdated, "Auto-updated: %d\n", n))
	}
	if n := report.Count(tracker.StatusUpToDate); n > 0 {
		sb.WriteString(output.Sprintf(output.UpToDate, "Up-to-date: %d\n", n))
	}

	return sb.String()
}

// statusLabel capitalizes a status name for display ("up-to-date" -> "Up-to-date")
func statusLabel(status tracker.Status) string {
	name := status.String()
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// formatResultSection formats a section of results with a header and table
func formatResultSection(results []tracker.Result, title string, headerColor *color.Color) string {
	var sb strings.Builder

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, resultRow(r))
	}

	widths := make([]int, len(tableHeader))
	for i, h := range tableHeader {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if n := utf8.RuneCountInString(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	// Cap widths for readability
	if widths[0] > maxNameWidth {
		widths[0] = maxNameWidth
	}
	if widths[2] > maxNameWidth {
		widths[2] = maxNameWidth
	}
	if widths[5] > maxDetailWidth {
		widths[5] = maxDetailWidth
	}

	sb.WriteString(output.Sprintf(headerColor, "\n%s:\n", title))
	sb.WriteString(formatTableLine(widths, "top"))
	sb.WriteString(formatTableRow(widths, tableHeader, true, nil))
	sb.WriteString(formatTableLine(widths, "mid"))

	for i, row := range rows {
		for c := range row {
			row[c] = truncateString(row[c], widths[c])
		}
		sb.WriteString(formatTableRow(widths, row, false, output.StatusColor(results[i].Status.String())))
	}

	sb.WriteString(formatTableLine(widths, "bottom"))

	return sb.String()
}

// resultRow returns the table cells for one result
func resultRow(r tracker.Result) []string {
	pkg, latest := "-", "-"
	if r.Package != nil {
		pkg = r.Package.CanonicalName
		latest = r.Package.LatestVersion
	}
	if r.Status == tracker.StatusAmbiguous && len(r.Candidates) > 0 {
		pkg = strings.Join(r.Candidates, ", ")
	}
	installed := r.Application.InstalledVersion
	if installed == "" {
		installed = "-"
	}
	return []string{r.Application.DisplayName, installed, pkg, latest, r.Status.String(), r.Detail}
}

// formatTableLine creates a horizontal table line
func formatTableLine(widths []int, position string) string {
	var left, mid, right, horiz string

	switch position {
	case "top":
		left, mid, right, horiz = "┌", "┬", "┐", "─"
	case "mid":
		left, mid, right, horiz = "├", "┼", "┤", "─"
	case "bottom":
		left, mid, right, horiz = "└", "┴", "┘", "─"
	}

	var sb strings.Builder
	sb.WriteString(left)
	for i, w := range widths {
		if i > 0 {
			sb.WriteString(mid)
		}
		sb.WriteString(strings.Repeat(horiz, w+2))
	}
	sb.WriteString(right)
	sb.WriteString("\n")
	return sb.String()
}

// formatTableRow creates a table row; the status column (fifth) is colored
// when statusColor is set
func formatTableRow(widths []int, cells []string, header bool, statusColor *color.Color) string {
	var sb strings.Builder
	sb.WriteString("│")
	for i, w := range widths {
		cell := fmt.Sprintf(" %-*s ", w, cells[i])
		if i == 4 && statusColor != nil && !header {
			cell = " " + output.Sprintf(statusColor, "%-*s", w, cells[i]) + " "
		}
		sb.WriteString(cell)
		sb.WriteString("│")
	}
	sb.WriteString("\n")

	if header {
		return output.Sprint(output.Header, sb.String())
	}
	return sb.String()
}

// truncateString truncates a string to maxLen runes with ellipsis
func truncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func containsStatus(list []tracker.Status, s tracker.Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

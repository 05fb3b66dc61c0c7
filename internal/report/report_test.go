package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/docdyhr/versiontracker-sub001/internal/common/output"
	"github.com/docdyhr/versiontracker-sub001/internal/tracker"
)

func TestMain(m *testing.M) {
	output.NoColor()
	os.Exit(m.Run())
}

func sampleReport() *tracker.Report {
	started := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	results := []tracker.Result{
		{
			Application: tracker.InstalledApplication{DisplayName: "Slack", InstalledVersion: "4.35.126"},
			Package:     &tracker.CatalogPackage{CanonicalName: "slack", LatestVersion: "4.36.140", Kind: tracker.KindCask},
			Status:      tracker.StatusOutdated,
			Detail:      "4.35.126 -> 4.36.140",
			Score:       0.9,
		},
		{
			Application: tracker.InstalledApplication{DisplayName: "Google Chrome", InstalledVersion: "118.0", BundleIdentifier: "com.google.Chrome"},
			Package:     &tracker.CatalogPackage{CanonicalName: "google-chrome", LatestVersion: "119.0", AutoUpdates: true, Kind: tracker.KindCask},
			Status:      tracker.StatusAutoUpdated,
			Detail:      "118.0 -> 119.0",
			Score:       1,
		},
		{
			Application: tracker.InstalledApplication{DisplayName: "Firefox", InstalledVersion: "120.0"},
			Package:     &tracker.CatalogPackage{CanonicalName: "firefox", LatestVersion: "120.0", Kind: tracker.KindCask},
			Status:      tracker.StatusUpToDate,
			Score:       1,
		},
		{
			Application: tracker.InstalledApplication{DisplayName: "Photoshop", InstalledVersion: "25.0"},
			Status:      tracker.StatusUnmatched,
		},
		{
			Application: tracker.InstalledApplication{DisplayName: "Zoom", InstalledVersion: "5.16"},
			Status:      tracker.StatusAmbiguous,
			Candidates:  []string{"zoom", "zoom-for-it-admins"},
			Detail:      "ambiguous match: zoom, zoom-for-it-admins",
		},
		{
			Application: tracker.InstalledApplication{DisplayName: "Docker", InstalledVersion: "4.25"},
			Status:      tracker.StatusUnavailable,
			Detail:      "fetch docker: fetch timed out",
			Err:         tracker.ErrFetchTimeout,
		},
	}

	summary := make(map[tracker.Status]int)
	for _, r := range results {
		summary[r.Status]++
	}

	return &tracker.Report{
		RunID:      "2f1c1b9e-3a43-4a8e-9a43-5f1d7f2e8c10",
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
		Stages: []tracker.Stage{
			tracker.StageScanning, tracker.StageFetching, tracker.StageMatching,
			tracker.StageComparing, tracker.StageReporting, tracker.StageDone,
		},
		Results: results,
		Summary: summary,
	}
}

func TestFormatTableSections(t *testing.T) {
	out := FormatTable(sampleReport(), TextOptions{})

	titles := []string{
		"Outdated Applications:",
		"Auto-Updating Applications:",
		"Unavailable or Incomparable:",
		"Ambiguous Matches:",
		"Unmatched Applications:",
	}
	last := -1
	for _, title := range titles {
		idx := strings.Index(out, title)
		require.NotEqual(t, -1, idx, "missing section %q", title)
		assert.Greater(t, idx, last, "section %q out of order", title)
		last = idx
	}

	assert.NotContains(t, out, "Up-to-Date Applications:")
	assert.Contains(t, out, "zoom, zoom-for-it-admins")
	assert.Contains(t, out, "Outdated: 1 | Auto-updated: 1 | Up-to-date: 1 | Unavailable: 1 | Ambiguous: 1 | Unmatched: 1 | Total: 6\n")
}

func TestFormatTableRows(t *testing.T) {
	report := sampleReport()
	report.Results = report.Results[:1]

	out := FormatTable(report, TextOptions{})

	assert.Contains(t, out, "┌─────────────┬───────────┬─────────┬──────────┬──────────┬──────────────────────┐\n")
	assert.Contains(t, out, "│ Application │ Installed │ Package │ Latest   │ Status   │ Detail               │\n")
	assert.Contains(t, out, "│ Slack       │ 4.35.126  │ slack   │ 4.36.140 │ outdated │ 4.35.126 -> 4.36.140 │\n")
}

func TestFormatTableFilters(t *testing.T) {
	report := sampleReport()

	withUpToDate := FormatTable(report, TextOptions{IncludeUpToDate: true})
	assert.Contains(t, withUpToDate, "Up-to-Date Applications:")
	assert.Contains(t, withUpToDate, "Firefox")

	onlyOutdated := FormatTable(report, TextOptions{OnlyOutdated: true, IncludeUpToDate: true})
	assert.Contains(t, onlyOutdated, "Slack")
	for _, hidden := range []string{"Google Chrome", "Firefox", "Photoshop", "Zoom", "Docker"} {
		assert.NotContains(t, onlyOutdated, hidden)
	}
}

func TestFormatTableAllUpToDate(t *testing.T) {
	report := sampleReport()
	report.Results = report.Results[2:3]
	report.Summary = map[tracker.Status]int{tracker.StatusUpToDate: 1}

	out := FormatTable(report, TextOptions{})
	assert.Contains(t, out, "All applications are up-to-date!")
	assert.Contains(t, out, "Total: 1")
}

func TestFormatTableEmptyAndDeadline(t *testing.T) {
	assert.Contains(t, FormatTable(&tracker.Report{}, TextOptions{}), "No applications found.")

	report := sampleReport()
	report.DeadlineExceeded = true
	assert.Contains(t, FormatTable(report, TextOptions{}), "Deadline exceeded")
}

func TestFormatSummary(t *testing.T) {
	out := FormatSummary(sampleReport())

	assert.Contains(t, out, "Run: 2f1c1b9e-3a43-4a8e-9a43-5f1d7f2e8c10\n")
	assert.Contains(t, out, "Scanned: 6 applications\n")
	assert.Contains(t, out, "Duration: 1.5s\n")
	assert.Contains(t, out, "Outdated: 1\n")
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"Slack", 10, "Slack"},
		{"Visual Studio Code", 10, "Visual St…"},
		{"Überwachung", 5, "Über…"},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncateString(tt.in, tt.max), "truncateString(%q, %d)", tt.in, tt.max)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), FormatJSON, TextOptions{OnlyOutdated: true}))

	var decoded struct {
		RunID   string         `json:"run_id"`
		Stages  []string       `json:"stages"`
		Summary map[string]int `json:"summary"`
		Results []struct {
			Application struct {
				DisplayName string `json:"display_name"`
			} `json:"application"`
			Package *struct {
				CanonicalName string `json:"canonical_name"`
				Kind          string `json:"kind"`
			} `json:"package"`
			Status string `json:"status"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "2f1c1b9e-3a43-4a8e-9a43-5f1d7f2e8c10", decoded.RunID)
	assert.Equal(t, []string{"scanning", "fetching", "matching", "comparing", "reporting", "done"}, decoded.Stages)
	assert.Equal(t, 1, decoded.Summary["outdated"])
	require.Len(t, decoded.Results, 6, "structured formats carry every result")
	assert.Equal(t, "Slack", decoded.Results[0].Application.DisplayName)
	assert.Equal(t, "cask", decoded.Results[0].Package.Kind)
	assert.Equal(t, "outdated", decoded.Results[0].Status)
	assert.Nil(t, decoded.Results[3].Package)
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), FormatYAML, TextOptions{}))

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "2f1c1b9e-3a43-4a8e-9a43-5f1d7f2e8c10", decoded["run_id"])
	summary, ok := decoded["summary"].(map[string]interface{})
	require.True(t, ok, "summary should be keyed by status name, got %T", decoded["summary"])
	assert.Equal(t, 1, summary["auto-updated"])
	assert.Len(t, decoded["results"], 6)
	assert.NotContains(t, buf.String(), "err:")
}

func TestWriteUnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, sampleReport(), "xml", TextOptions{})
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestJSONLinesSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONLinesSink(&buf)
	report := sampleReport()

	for _, r := range report.Results {
		require.NoError(t, sink.Emit(r))
	}
	require.NoError(t, Write(&buf, report, FormatJSONLines, TextOptions{}))

	scanner := bufio.NewScanner(&buf)
	var lines []map[string]interface{}
	for scanner.Scan() {
		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.Len(t, lines, 7)

	assert.Equal(t, "outdated", lines[0]["status"])
	assert.Equal(t, "unavailable", lines[5]["status"])
	assert.Equal(t, "2f1c1b9e-3a43-4a8e-9a43-5f1d7f2e8c10", lines[6]["run_id"])
}

package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/docdyhr/versiontracker-sub001/internal/tracker"
)

// ErrUnknownFormat indicates an unsupported output format
var ErrUnknownFormat = errors.New("unknown output format")

// Output formats
const (
	FormatText      = "text"
	FormatJSON      = "json"
	FormatYAML      = "yaml"
	FormatJSONLines = "jsonl"
)

// Formats returns every supported output format
func Formats() []string {
	return []string{FormatText, FormatJSON, FormatYAML, FormatJSONLines}
}

// Write renders report to w in the given format.
// JSON lines are streamed by a JSONLinesSink during the run, so Write only
// appends the summary for that format.
func Write(w io.Writer, report *tracker.Report, format string, opts TextOptions) error {
	switch format {
	case FormatText, "":
		_, err := io.WriteString(w, FormatTable(report, opts))
		return err
	case FormatJSON:
		return WriteJSON(w, report)
	case FormatYAML:
		return WriteYAML(w, report)
	case FormatJSONLines:
		return writeJSONLine(w, summaryLine{
			RunID:            report.RunID,
			Summary:          report.Summary,
			DeadlineExceeded: report.DeadlineExceeded,
		})
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// WriteJSON writes the full report as indented JSON
func WriteJSON(w io.Writer, report *tracker.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// WriteYAML writes the full report as YAML
func WriteYAML(w io.Writer, report *tracker.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return enc.Close()
}

// summaryLine closes a JSON lines stream
type summaryLine struct {
	RunID            string                 `json:"run_id"`
	Summary          map[tracker.Status]int `json:"summary"`
	DeadlineExceeded bool                   `json:"deadline_exceeded"`
}

// JSONLinesSink writes each result as one JSON object per line.
type JSONLinesSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewJSONLinesSink creates a sink writing to w
func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	return &JSONLinesSink{w: w}
}

// Emit writes one result
func (s *JSONLinesSink) Emit(result tracker.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSONLine(s.w, result)
}

func writeJSONLine(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Ensure JSONLinesSink implements tracker.Sink
var _ tracker.Sink = (*JSONLinesSink)(nil)

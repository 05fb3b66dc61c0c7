// Package report renders reconciliation reports as a colored text table,
// JSON, YAML, or a stream of JSON lines.
package report

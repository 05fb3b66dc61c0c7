package tracker

import (
	"context"
	"fmt"
	"strings"
)

// Kind tags a catalog package as a formula or a cask.
type Kind int

const (
	// KindFormula is a command-line package built or poured by Homebrew
	KindFormula Kind = iota
	// KindCask is a prebuilt application bundle
	KindCask
)

// String returns the catalog spelling of the kind
func (k Kind) String() string {
	switch k {
	case KindFormula:
		return "formula"
	case KindCask:
		return "cask"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind for JSON and YAML output
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes "formula" or "cask"
func (k *Kind) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "formula":
		*k = KindFormula
	case "cask":
		*k = KindCask
	default:
		return fmt.Errorf("unknown package kind %q", string(text))
	}
	return nil
}

// InstalledApplication is one application reported by an inventory source.
type InstalledApplication struct {
	// DisplayName is the user-facing application name (e.g., "Google Chrome")
	DisplayName string `json:"display_name" yaml:"display_name"`
	// InstalledVersion is the version string the application reports
	InstalledVersion string `json:"installed_version" yaml:"installed_version"`
	// BundleIdentifier is the optional CFBundleIdentifier (e.g., "com.google.Chrome")
	BundleIdentifier string `json:"bundle_identifier,omitempty" yaml:"bundle_identifier,omitempty"`
}

// CatalogPackage is a catalog record for one canonical name.
type CatalogPackage struct {
	// CanonicalName is the catalog identifier (cask token or formula name)
	CanonicalName string `json:"canonical_name" yaml:"canonical_name"`
	// LatestVersion is the newest version the catalog knows of
	LatestVersion string `json:"latest_version" yaml:"latest_version"`
	// AutoUpdates is true when the application updates itself
	AutoUpdates bool `json:"auto_updates" yaml:"auto_updates"`
	// Kind tags the record as formula or cask
	Kind Kind `json:"kind" yaml:"kind"`
	// DisplayNames are alternative names the catalog lists for the package
	DisplayNames []string `json:"display_names,omitempty" yaml:"display_names,omitempty"`
	// BundleIDs are bundle identifiers the catalog associates with the package
	BundleIDs []string `json:"bundle_ids,omitempty" yaml:"bundle_ids,omitempty"`
}

// HasBundleID reports whether the package lists the given bundle identifier.
// Comparison is case-insensitive.
func (p CatalogPackage) HasBundleID(id string) bool {
	return containsFold(p.BundleIDs, id)
}

// IndexEntry is the lightweight catalog listing used to shortlist candidates
// before any full record is fetched.
type IndexEntry struct {
	Name         string
	Kind         Kind
	DisplayNames []string
	BundleIDs    []string
}

// MatchCandidate pairs an application with a scored catalog package.
type MatchCandidate struct {
	Application InstalledApplication
	Package     CatalogPackage
	// Score is the similarity in [0,1]; identifier matches score 1
	Score float64
}

// Status is the classification of one application.
type Status int

const (
	// StatusUpToDate means the installed version equals or exceeds the catalog version
	StatusUpToDate Status = iota
	// StatusOutdated means the catalog has a newer version
	StatusOutdated
	// StatusAutoUpdated means the catalog is newer but the application updates itself
	StatusAutoUpdated
	// StatusUnmatched means no catalog package matched the application
	StatusUnmatched
	// StatusAmbiguous means several catalog packages matched equally well
	StatusAmbiguous
	// StatusIncomparable means a match was found but the versions cannot be ordered
	StatusIncomparable
	// StatusUnavailable means the catalog record could not be obtained
	StatusUnavailable
)

var statusNames = map[Status]string{
	StatusUpToDate:     "up-to-date",
	StatusOutdated:     "outdated",
	StatusAutoUpdated:  "auto-updated",
	StatusUnmatched:    "unmatched",
	StatusAmbiguous:    "ambiguous",
	StatusIncomparable: "incomparable",
	StatusUnavailable:  "unavailable",
}

// AllStatuses returns every status in report order
func AllStatuses() []Status {
	return []Status{
		StatusOutdated, StatusAutoUpdated, StatusUpToDate,
		StatusIncomparable, StatusUnavailable, StatusAmbiguous, StatusUnmatched,
	}
}

// String returns a human-readable status
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText encodes the status for JSON and YAML output
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name
func (s *Status) UnmarshalText(text []byte) error {
	for status, name := range statusNames {
		if name == string(text) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", string(text))
}

// IsUnmatchedClass reports whether the status carries no version verdict.
func (s Status) IsUnmatchedClass() bool {
	switch s {
	case StatusUnmatched, StatusAmbiguous, StatusIncomparable, StatusUnavailable:
		return true
	default:
		return false
	}
}

// Result is the reconciliation verdict for one installed application.
type Result struct {
	Application InstalledApplication `json:"application" yaml:"application"`
	// Package is the matched catalog package, nil when nothing was matched
	Package *CatalogPackage `json:"package,omitempty" yaml:"package,omitempty"`
	Status  Status          `json:"status" yaml:"status"`
	// Detail explains the status (comparison detail, fetch error, tied candidates)
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
	// Score is the similarity of the match, zero when unmatched
	Score float64 `json:"score,omitempty" yaml:"score,omitempty"`
	// Candidates lists the tied canonical names of an ambiguous match
	Candidates []string `json:"candidates,omitempty" yaml:"candidates,omitempty"`
	// Err is the error behind an Unavailable result
	Err error `json:"-" yaml:"-"`
}

// Inventory enumerates installed applications.
type Inventory interface {
	Applications(ctx context.Context) ([]InstalledApplication, error)
}

// Source is the external catalog.
type Source interface {
	// Index lists every canonical name known to the catalog
	Index(ctx context.Context) ([]IndexEntry, error)
	// Fetch returns the full record for a canonical name
	Fetch(ctx context.Context, name string) (CatalogPackage, error)
}

// Sink receives results in input order once a run completes.
type Sink interface {
	Emit(result Result) error
}

// containsFold reports whether list contains s, ignoring case.
func containsFold(list []string, s string) bool {
	if s == "" {
		return false
	}
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

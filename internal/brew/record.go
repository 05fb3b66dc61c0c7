package brew

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/docdyhr/versiontracker-sub001/internal/tracker"
)

// caskRecord holds the fields of a cask record this package reads.
// Unknown fields are ignored.
type caskRecord struct {
	Token       string            `json:"token"`
	Name        []string          `json:"name"`
	Version     string            `json:"version"`
	AutoUpdates bool              `json:"auto_updates"`
	Artifacts   []json.RawMessage `json:"artifacts"`
}

// formulaRecord holds the fields of a formula record this package reads.
type formulaRecord struct {
	Name     string   `json:"name"`
	Aliases  []string `json:"aliases"`
	Versions struct {
		Stable string `json:"stable"`
	} `json:"versions"`
}

// envelope is the `brew info --json=v2` wrapper
type envelope struct {
	Formulae []json.RawMessage `json:"formulae"`
	Casks    []json.RawMessage `json:"casks"`
}

// probe tells casks and formulae apart
type probe struct {
	Token    string          `json:"token"`
	Versions json.RawMessage `json:"versions"`
	Formulae json.RawMessage `json:"formulae"`
	Casks    json.RawMessage `json:"casks"`
}

// ParseRecords decodes catalog records from a single record, an array of
// records, or a v2 envelope. Casks come before formulae in the result.
func ParseRecords(data []byte) ([]tracker.CatalogPackage, error) {
	raws, err := splitRecords(data)
	if err != nil {
		return nil, err
	}

	var casks, formulae []tracker.CatalogPackage
	for _, raw := range raws {
		pkg, err := parseRecord(raw)
		if err != nil {
			return nil, err
		}
		if pkg.Kind == tracker.KindCask {
			casks = append(casks, pkg)
		} else {
			formulae = append(formulae, pkg)
		}
	}

	return append(casks, formulae...), nil
}

// ParseIndex decodes records into index entries. Records without a
// name are skipped rather than failing the whole listing.
func ParseIndex(data []byte) ([]tracker.IndexEntry, error) {
	raws, err := splitRecords(data)
	if err != nil {
		return nil, err
	}

	entries := make([]tracker.IndexEntry, 0, len(raws))
	for _, raw := range raws {
		pkg, err := parseRecord(raw)
		if err != nil {
			// The listing tolerates records without a version
			pkg, err = parseIdentity(raw)
			if err != nil {
				continue
			}
		}
		entries = append(entries, tracker.IndexEntry{
			Name:         pkg.CanonicalName,
			Kind:         pkg.Kind,
			DisplayNames: pkg.DisplayNames,
			BundleIDs:    pkg.BundleIDs,
		})
	}
	return entries, nil
}

// splitRecords returns the raw records held by data
func splitRecords(data []byte) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", tracker.ErrParse)
	}

	switch data[0] {
	case '[':
		var raws []json.RawMessage
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, fmt.Errorf("%w: %v", tracker.ErrParse, err)
		}
		return raws, nil
	case '{':
		var p probe
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", tracker.ErrParse, err)
		}
		if p.Formulae == nil && p.Casks == nil {
			return []json.RawMessage{data}, nil
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("%w: %v", tracker.ErrParse, err)
		}
		return append(env.Casks, env.Formulae...), nil
	default:
		return nil, fmt.Errorf("%w: expected JSON object or array", tracker.ErrParse)
	}
}

// parseRecord decodes one cask or formula record
func parseRecord(raw json.RawMessage) (tracker.CatalogPackage, error) {
	pkg, err := parseIdentity(raw)
	if err != nil {
		return tracker.CatalogPackage{}, err
	}
	if pkg.LatestVersion == "" {
		return tracker.CatalogPackage{}, fmt.Errorf("%w: %s has no version", tracker.ErrParse, pkg.CanonicalName)
	}
	return pkg, nil
}

// parseIdentity decodes a record without requiring a version
func parseIdentity(raw json.RawMessage) (tracker.CatalogPackage, error) {
	var p probe
	if err := json.Unmarshal(raw, &p); err != nil {
		return tracker.CatalogPackage{}, fmt.Errorf("%w: %v", tracker.ErrParse, err)
	}

	if p.Token != "" {
		var c caskRecord
		if err := json.Unmarshal(raw, &c); err != nil {
			return tracker.CatalogPackage{}, fmt.Errorf("%w: cask %s: %v", tracker.ErrParse, p.Token, err)
		}
		return c.toPackage(), nil
	}

	if p.Versions != nil {
		var f formulaRecord
		if err := json.Unmarshal(raw, &f); err != nil {
			return tracker.CatalogPackage{}, fmt.Errorf("%w: formula: %v", tracker.ErrParse, err)
		}
		if f.Name == "" {
			return tracker.CatalogPackage{}, fmt.Errorf("%w: formula has no name", tracker.ErrParse)
		}
		return f.toPackage(), nil
	}

	return tracker.CatalogPackage{}, fmt.Errorf("%w: record is neither a cask nor a formula", tracker.ErrParse)
}

func (c caskRecord) toPackage() tracker.CatalogPackage {
	names, ids := c.artifactIdentity()
	return tracker.CatalogPackage{
		CanonicalName: c.Token,
		LatestVersion: CaskVersion(c.Version),
		AutoUpdates:   c.AutoUpdates,
		Kind:          tracker.KindCask,
		DisplayNames:  dedupe(append(append([]string{}, c.Name...), names...)),
		BundleIDs:     ids,
	}
}

func (f formulaRecord) toPackage() tracker.CatalogPackage {
	return tracker.CatalogPackage{
		CanonicalName: f.Name,
		LatestVersion: f.Versions.Stable,
		Kind:          tracker.KindFormula,
		DisplayNames:  dedupe(f.Aliases),
	}
}

// CaskVersion returns the comparable part of a cask version:
// "4.36.140,1234abcd" becomes "4.36.140".
func CaskVersion(v string) string {
	v = strings.TrimSpace(v)
	if before, _, found := strings.Cut(v, ","); found {
		return before
	}
	return v
}

// artifactIdentity collects app bundle names from `app` artifacts and
// bundle identifiers from the `quit` stanzas of `uninstall` and `zap`.
func (c caskRecord) artifactIdentity() (names, ids []string) {
	for _, raw := range c.Artifacts {
		var artifact map[string]json.RawMessage
		if err := json.Unmarshal(raw, &artifact); err != nil {
			continue
		}

		if apps, ok := artifact["app"]; ok {
			for _, app := range stringsOf(apps) {
				if strings.HasSuffix(app, ".app") {
					names = append(names, strings.TrimSuffix(path.Base(app), ".app"))
				}
			}
		}

		for _, key := range []string{"uninstall", "zap"} {
			stanzas, ok := artifact[key]
			if !ok {
				continue
			}
			var list []map[string]json.RawMessage
			if err := json.Unmarshal(stanzas, &list); err != nil {
				continue
			}
			for _, stanza := range list {
				if quit, ok := stanza["quit"]; ok {
					ids = append(ids, stringsOf(quit)...)
				}
			}
		}
	}
	return dedupe(names), dedupe(ids)
}

// stringsOf decodes a JSON string or the string members of a JSON array
func stringsOf(raw json.RawMessage) []string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []string{s}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	var out []string
	for _, item := range items {
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
		}
	}
	return out
}

// dedupe removes empty and repeated strings, keeping first occurrences
func dedupe(list []string) []string {
	if len(list) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

package brew

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/docdyhr/versiontracker-sub001/internal/common/command"
	"github.com/docdyhr/versiontracker-sub001/internal/common/logger"
	"github.com/docdyhr/versiontracker-sub001/internal/tracker"
)

// notFoundMarkers are the brew error messages for unknown names
var notFoundMarkers = []string{
	"No available cask",
	"No available formula",
	"No cask with this name",
	"No formula with this name",
	"is unavailable", // "Cask 'x' is unavailable"
}

// CLISource reads the catalog through the local brew executable
type CLISource struct {
	// Brew is the brew executable name or path
	Brew string
	// Runner executes brew
	Runner command.Runner
}

// NewCLISource creates a source running brew through runner.
// An empty brew path selects "brew" from PATH.
func NewCLISource(brew string, runner command.Runner) *CLISource {
	if brew == "" {
		brew = "brew"
	}
	if runner == nil {
		runner = command.NewExecRunner()
	}
	return &CLISource{Brew: brew, Runner: runner}
}

// Index lists every cask and formula name, casks first.
// The CLI listing carries no display names or bundle identifiers.
func (s *CLISource) Index(ctx context.Context) ([]tracker.IndexEntry, error) {
	var entries []tracker.IndexEntry
	for _, listing := range []struct {
		sub  string
		kind tracker.Kind
	}{
		{"casks", tracker.KindCask},
		{"formulae", tracker.KindFormula},
	} {
		out, err := s.Runner.Run(ctx, s.Brew, listing.sub)
		if err != nil {
			return nil, s.classify(ctx, err)
		}
		names := parseNameList(out)
		logger.Debug("brew %s lists %d package(s)", listing.sub, len(names))
		for _, name := range names {
			entries = append(entries, tracker.IndexEntry{Name: name, Kind: listing.kind})
		}
	}
	return entries, nil
}

// Fetch returns the record for name, asking for a cask before a formula.
func (s *CLISource) Fetch(ctx context.Context, name string) (tracker.CatalogPackage, error) {
	var lastErr error
	for _, kindFlag := range []string{"--cask", "--formula"} {
		out, err := s.Runner.Run(ctx, s.Brew, "info", "--json=v2", kindFlag, name)
		if err != nil {
			err = s.classify(ctx, err)
			if errors.Is(err, tracker.ErrNotFound) {
				lastErr = fmt.Errorf("%w: %s", tracker.ErrNotFound, name)
				continue
			}
			return tracker.CatalogPackage{}, err
		}

		pkgs, err := ParseRecords(out)
		if err != nil {
			return tracker.CatalogPackage{}, fmt.Errorf("%s: %w", name, err)
		}
		for _, pkg := range pkgs {
			if pkg.CanonicalName == name {
				return pkg, nil
			}
		}
		if len(pkgs) > 0 {
			// brew resolved an alias or old token
			return pkgs[0], nil
		}
		lastErr = fmt.Errorf("%w: %s", tracker.ErrNotFound, name)
	}
	return tracker.CatalogPackage{}, lastErr
}

// classify maps a brew failure onto catalog errors
func (s *CLISource) classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	msg := err.Error()
	for _, marker := range notFoundMarkers {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %v", tracker.ErrNotFound, err)
		}
	}
	return fmt.Errorf("%w: %v", tracker.ErrFetchFailed, err)
}

// parseNameList splits brew listing output into names, one per line
func parseNameList(out []byte) []string {
	var names []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "==>") {
			continue
		}
		names = append(names, line)
	}
	return names
}

// Ensure CLISource implements tracker.Source
var _ tracker.Source = (*CLISource)(nil)

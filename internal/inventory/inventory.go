package inventory

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/docdyhr/versiontracker-sub001/internal/common/command"
	"github.com/docdyhr/versiontracker-sub001/internal/common/config"
	"github.com/docdyhr/versiontracker-sub001/internal/tracker"
)

var (
	ErrInvalidInventory = errors.New("invalid inventory data")
	ErrUnknownSource    = errors.New("unknown inventory source")
)

// buildSuffixRegex matches a trailing build number such as " (1234)" or " (23A344)"
var buildSuffixRegex = regexp.MustCompile(`\s*\([0-9A-Za-z.\-]+\)$`)

// CleanVersion trims whitespace and a trailing parenthesized build number.
func CleanVersion(version string) string {
	version = strings.TrimSpace(version)
	return strings.TrimSpace(buildSuffixRegex.ReplaceAllString(version, ""))
}

// Normalize cleans versions, drops nameless entries, collapses duplicates
// (same display name and bundle identifier, ignoring case) and sorts the
// result by display name.
func Normalize(apps []tracker.InstalledApplication) []tracker.InstalledApplication {
	seen := make(map[string]bool, len(apps))
	result := make([]tracker.InstalledApplication, 0, len(apps))

	for _, app := range apps {
		app.DisplayName = strings.TrimSpace(app.DisplayName)
		if app.DisplayName == "" {
			continue
		}
		app.InstalledVersion = CleanVersion(app.InstalledVersion)
		app.BundleIdentifier = strings.TrimSpace(app.BundleIdentifier)

		key := strings.ToLower(app.DisplayName) + "\x00" + strings.ToLower(app.BundleIdentifier)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, app)
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := strings.ToLower(result[i].DisplayName), strings.ToLower(result[j].DisplayName)
		if a != b {
			return a < b
		}
		return result[i].BundleIdentifier < result[j].BundleIdentifier
	})

	return result
}

// New creates the inventory source selected by the configuration.
// runner is only used by the system_profiler source; nil selects os/exec.
func New(cfg config.InventoryConfig, runner command.Runner) (tracker.Inventory, error) {
	switch cfg.Source {
	case config.InventorySystemProfiler, "":
		return NewSystemProfiler(runner, cfg.IncludeAppStore), nil
	case config.InventoryBundles:
		paths := make([]string, 0, len(cfg.Paths))
		for _, p := range cfg.Paths {
			expanded, err := config.ExpandPath(p)
			if err != nil {
				return nil, err
			}
			paths = append(paths, expanded)
		}
		return NewBundleScanner(paths, cfg.IncludeAppStore), nil
	case config.InventoryFile:
		if cfg.File == "" {
			return nil, config.ErrInventoryFileNotSet
		}
		path, err := config.ExpandPath(cfg.File)
		if err != nil {
			return nil, err
		}
		return NewFileInventory(path), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, cfg.Source)
	}
}

package inventory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/docdyhr/versiontracker-sub001/internal/common/command"
	"github.com/docdyhr/versiontracker-sub001/internal/common/logger"
	"github.com/docdyhr/versiontracker-sub001/internal/tracker"
)

// obtained_from values reported by system_profiler
const (
	ObtainedFromApple    = "apple"
	ObtainedFromAppStore = "mac_app_store"
)

// profilerOutput is the top level of `system_profiler -json SPApplicationsDataType`
type profilerOutput struct {
	Applications []profilerApp `json:"SPApplicationsDataType"`
}

type profilerApp struct {
	Name         string `json:"_name"`
	Version      string `json:"version"`
	ObtainedFrom string `json:"obtained_from"`
	Path         string `json:"path"`
}

// SystemProfiler lists applications with the system_profiler tool.
type SystemProfiler struct {
	Runner          command.Runner
	IncludeAppStore bool
	// ReadBundleIDs reads CFBundleIdentifier from each reported path
	ReadBundleIDs bool
}

// NewSystemProfiler creates a system_profiler inventory.
// A nil runner selects os/exec.
func NewSystemProfiler(runner command.Runner, includeAppStore bool) *SystemProfiler {
	if runner == nil {
		runner = command.NewExecRunner()
	}
	return &SystemProfiler{
		Runner:          runner,
		IncludeAppStore: includeAppStore,
		ReadBundleIDs:   true,
	}
}

// Applications runs system_profiler and parses its output
func (s *SystemProfiler) Applications(ctx context.Context) ([]tracker.InstalledApplication, error) {
	logger.Debug("running system_profiler")
	out, err := s.Runner.Run(ctx, "system_profiler", "-json", "SPApplicationsDataType")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("system_profiler: %w", err)
	}

	apps, err := ParseSystemProfiler(out, s.IncludeAppStore, s.ReadBundleIDs)
	if err != nil {
		return nil, err
	}
	logger.Debug("system_profiler reported %d applications", len(apps))
	return apps, nil
}

// ParseSystemProfiler decodes system_profiler JSON.
// Apple and App Store applications are dropped unless includeAppStore is set.
// With readBundleIDs, the bundle identifier is read from the Info.plist at
// each reported path when the bundle is present.
func ParseSystemProfiler(data []byte, includeAppStore, readBundleIDs bool) ([]tracker.InstalledApplication, error) {
	var parsed profilerOutput
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("%w: system_profiler output: %v", ErrInvalidInventory, err)
	}

	apps := make([]tracker.InstalledApplication, 0, len(parsed.Applications))
	for _, p := range parsed.Applications {
		if !includeAppStore && (p.ObtainedFrom == ObtainedFromApple || p.ObtainedFrom == ObtainedFromAppStore) {
			continue
		}

		app := tracker.InstalledApplication{
			DisplayName:      p.Name,
			InstalledVersion: p.Version,
		}
		if readBundleIDs && p.Path != "" {
			if bundle, err := ReadBundle(p.Path); err == nil {
				app.BundleIdentifier = bundle.BundleIdentifier
			}
		}
		apps = append(apps, app)
	}

	return Normalize(apps), nil
}

// Ensure SystemProfiler implements tracker.Inventory
var _ tracker.Inventory = (*SystemProfiler)(nil)

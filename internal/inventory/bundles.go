package inventory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"howett.net/plist"

	"github.com/docdyhr/versiontracker-sub001/internal/common/logger"
	"github.com/docdyhr/versiontracker-sub001/internal/tracker"
)

// maxScanDepth limits how far below an application directory bundles are
// searched (e.g., /Applications/Utilities/Terminal.app is depth 2)
const maxScanDepth = 3

// ErrNotBundle indicates a path without a readable Contents/Info.plist
var ErrNotBundle = errors.New("not an application bundle")

// infoPlist holds the Info.plist keys read from a bundle
type infoPlist struct {
	DisplayName  string `plist:"CFBundleDisplayName"`
	Name         string `plist:"CFBundleName"`
	ShortVersion string `plist:"CFBundleShortVersionString"`
	Version      string `plist:"CFBundleVersion"`
	Identifier   string `plist:"CFBundleIdentifier"`
}

// BundleScanner walks application directories for .app bundles.
type BundleScanner struct {
	Paths           []string
	IncludeAppStore bool
}

// DefaultApplicationPaths returns /Applications and ~/Applications
func DefaultApplicationPaths() []string {
	paths := []string{"/Applications"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, "Applications"))
	}
	return paths
}

// NewBundleScanner creates a scanner over paths.
// An empty list selects DefaultApplicationPaths.
func NewBundleScanner(paths []string, includeAppStore bool) *BundleScanner {
	if len(paths) == 0 {
		paths = DefaultApplicationPaths()
	}
	return &BundleScanner{Paths: paths, IncludeAppStore: includeAppStore}
}

// Applications scans every configured directory.
// Missing directories and unreadable bundles are logged and skipped.
func (b *BundleScanner) Applications(ctx context.Context) ([]tracker.InstalledApplication, error) {
	var apps []tracker.InstalledApplication

	for _, root := range b.Paths {
		found, err := b.scanDir(ctx, root)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			logger.Debug("skipping application directory %s: %v", root, err)
			continue
		}
		apps = append(apps, found...)
	}

	return Normalize(apps), nil
}

// scanDir walks root and reads each bundle it finds
func (b *BundleScanner) scanDir(ctx context.Context, root string) ([]tracker.InstalledApplication, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, err
	}

	var apps []tracker.InstalledApplication
	rootDepth := strings.Count(filepath.Clean(root), string(filepath.Separator))

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logger.Debug("cannot read %s: %v", path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		name := d.Name()
		if path != root && strings.HasPrefix(name, ".") {
			return fs.SkipDir
		}

		if strings.HasSuffix(name, ".app") {
			if !b.IncludeAppStore && IsAppStoreBundle(path) {
				logger.Debug("skipping App Store bundle %s", path)
				return fs.SkipDir
			}
			app, readErr := ReadBundle(path)
			if readErr != nil {
				logger.Warn("skipping %s: %v", path, readErr)
			} else {
				apps = append(apps, app)
			}
			return fs.SkipDir
		}

		if strings.Count(filepath.Clean(path), string(filepath.Separator))-rootDepth >= maxScanDepth {
			return fs.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return apps, nil
}

// IsAppStoreBundle reports whether the bundle carries an App Store receipt
func IsAppStoreBundle(bundlePath string) bool {
	_, err := os.Stat(filepath.Join(bundlePath, "Contents", "_MASReceipt"))
	return err == nil
}

// ReadBundle decodes Contents/Info.plist of an application bundle.
// The display name falls back to CFBundleName and then to the bundle's
// file name; the version prefers CFBundleShortVersionString.
func ReadBundle(bundlePath string) (tracker.InstalledApplication, error) {
	data, err := os.ReadFile(filepath.Join(bundlePath, "Contents", "Info.plist"))
	if err != nil {
		return tracker.InstalledApplication{}, fmt.Errorf("%w: %v", ErrNotBundle, err)
	}

	var info infoPlist
	if _, err := plist.Unmarshal(data, &info); err != nil {
		return tracker.InstalledApplication{}, fmt.Errorf("%w: %s: %v", ErrInvalidInventory, bundlePath, err)
	}

	name := firstNonEmpty(info.DisplayName, info.Name, strings.TrimSuffix(filepath.Base(bundlePath), ".app"))
	return tracker.InstalledApplication{
		DisplayName:      name,
		InstalledVersion: CleanVersion(firstNonEmpty(info.ShortVersion, info.Version)),
		BundleIdentifier: strings.TrimSpace(info.Identifier),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// Ensure BundleScanner implements tracker.Inventory
var _ tracker.Inventory = (*BundleScanner)(nil)

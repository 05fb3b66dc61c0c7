package inventory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"howett.net/plist"

	"github.com/docdyhr/versiontracker-sub001/internal/tracker"
)

// writeBundle creates dir/name.app with an Info.plist holding info
func writeBundle(t *testing.T, dir, name string, info map[string]string) string {
	t.Helper()
	bundle := filepath.Join(dir, name+".app")
	contents := filepath.Join(bundle, "Contents")
	if err := os.MkdirAll(contents, 0755); err != nil {
		t.Fatal(err)
	}
	if info != nil {
		data, err := plist.Marshal(info, plist.XMLFormat)
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(contents, "Info.plist"), data, 0644); err != nil {
			t.Fatal(err)
		}
	}
	return bundle
}

func TestReadBundle(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name   string
		bundle string
		info   map[string]string
		want   tracker.InstalledApplication
	}{
		{
			name:   "display name and short version",
			bundle: "Google Chrome",
			info: map[string]string{
				"CFBundleDisplayName":        "Google Chrome",
				"CFBundleName":               "Chrome",
				"CFBundleShortVersionString": "119.0.6045.105",
				"CFBundleVersion":            "6045.105",
				"CFBundleIdentifier":         "com.google.Chrome",
			},
			want: tracker.InstalledApplication{DisplayName: "Google Chrome", InstalledVersion: "119.0.6045.105", BundleIdentifier: "com.google.Chrome"},
		},
		{
			name:   "bundle name and build version",
			bundle: "mytool",
			info: map[string]string{
				"CFBundleName":    "MyTool",
				"CFBundleVersion": "2.1 (88)",
			},
			want: tracker.InstalledApplication{DisplayName: "MyTool", InstalledVersion: "2.1"},
		},
		{
			name:   "file name fallback",
			bundle: "Firefox",
			info:   map[string]string{"CFBundleShortVersionString": "120.0"},
			want:   tracker.InstalledApplication{DisplayName: "Firefox", InstalledVersion: "120.0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeBundle(t, dir, tt.bundle, tt.info)
			got, err := ReadBundle(path)
			if err != nil {
				t.Fatalf("ReadBundle failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("ReadBundle() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReadBundleErrors(t *testing.T) {
	dir := t.TempDir()

	missing := writeBundle(t, dir, "Empty", nil)
	if _, err := ReadBundle(missing); !errors.Is(err, ErrNotBundle) {
		t.Errorf("expected ErrNotBundle, got %v", err)
	}

	corrupt := writeBundle(t, dir, "Corrupt", nil)
	if err := os.WriteFile(filepath.Join(corrupt, "Contents", "Info.plist"), []byte("<plist><dict><key>"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadBundle(corrupt); !errors.Is(err, ErrInvalidInventory) {
		t.Errorf("expected ErrInvalidInventory, got %v", err)
	}
}

func TestBundleScanner(t *testing.T) {
	system := t.TempDir()
	user := t.TempDir()

	writeBundle(t, system, "Slack", map[string]string{
		"CFBundleName":               "Slack",
		"CFBundleShortVersionString": "4.35.126",
		"CFBundleIdentifier":         "com.tinyspeck.slackmacgap",
	})
	writeBundle(t, filepath.Join(system, "Utilities"), "Firefox", map[string]string{
		"CFBundleShortVersionString": "120.0",
	})
	store := writeBundle(t, system, "Keynote", map[string]string{
		"CFBundleShortVersionString": "13.2",
		"CFBundleIdentifier":         "com.apple.iWork.Keynote",
	})
	if err := os.MkdirAll(filepath.Join(store, "Contents", "_MASReceipt"), 0755); err != nil {
		t.Fatal(err)
	}
	// Bundles nested inside a bundle are not separate applications
	writeBundle(t, filepath.Join(system, "Slack.app", "Contents", "Frameworks"), "Helper", map[string]string{
		"CFBundleShortVersionString": "1.0",
	})
	writeBundle(t, filepath.Join(system, ".hidden"), "Secret", map[string]string{
		"CFBundleShortVersionString": "1.0",
	})
	writeBundle(t, system, "Broken", nil)
	writeBundle(t, user, "MyTool", map[string]string{
		"CFBundleShortVersionString": "1.2.3",
	})

	scanner := NewBundleScanner([]string{system, user, filepath.Join(system, "missing")}, false)
	apps, err := scanner.Applications(context.Background())
	if err != nil {
		t.Fatalf("Applications failed: %v", err)
	}

	var names []string
	for _, app := range apps {
		names = append(names, app.DisplayName)
	}
	if want := []string{"Firefox", "MyTool", "Slack"}; !reflect.DeepEqual(names, want) {
		t.Errorf("scanned %v, want %v", names, want)
	}

	scanner.IncludeAppStore = true
	apps, err = scanner.Applications(context.Background())
	if err != nil {
		t.Fatalf("Applications failed: %v", err)
	}
	if len(apps) != 4 {
		t.Errorf("expected the App Store bundle to be included, got %+v", apps)
	}
}

func TestBundleScannerDepthLimit(t *testing.T) {
	root := t.TempDir()
	writeBundle(t, filepath.Join(root, "a", "b"), "Shallow", map[string]string{"CFBundleShortVersionString": "1"})
	writeBundle(t, filepath.Join(root, "a", "b", "c", "d"), "Deep", map[string]string{"CFBundleShortVersionString": "1"})

	apps, err := NewBundleScanner([]string{root}, false).Applications(context.Background())
	if err != nil {
		t.Fatalf("Applications failed: %v", err)
	}
	if len(apps) != 1 || apps[0].DisplayName != "Shallow" {
		t.Errorf("unexpected apps: %+v", apps)
	}
}

func TestBundleScannerCancelled(t *testing.T) {
	root := t.TempDir()
	writeBundle(t, root, "Slack", map[string]string{"CFBundleShortVersionString": "1"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewBundleScanner([]string{root}, false).Applications(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDefaultApplicationPaths(t *testing.T) {
	t.Setenv("HOME", "/Users/tester")
	want := []string{"/Applications", "/Users/tester/Applications"}
	if got := DefaultApplicationPaths(); !reflect.DeepEqual(got, want) {
		t.Errorf("DefaultApplicationPaths() = %v, want %v", got, want)
	}
	if got := NewBundleScanner(nil, false).Paths; !reflect.DeepEqual(got, want) {
		t.Errorf("empty paths should select defaults, got %v", got)
	}
}

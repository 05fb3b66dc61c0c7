package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docdyhr/versiontracker-sub001/internal/tracker"
)

// genValidPath generates valid path strings (alphanumeric with slashes)
func genValidPath() gopter.Gen {
	return gen.RegexMatch(`^/[a-z][a-z0-9/]{0,20}$`)
}

// genConfig generates valid Config structs
func genConfig() gopter.Gen {
	return gopter.CombineGens(
		gen.Float64Range(0, 1),
		gen.IntRange(1, 64),
		gen.IntRange(0, 10),
		gen.OneConstOf(CatalogAPI, CatalogBrew),
		gen.OneConstOf(InventorySystemProfiler, InventoryBundles, InventoryFile),
		genValidPath(),
		gen.Bool(),
	).Map(func(values []interface{}) *Config {
		cfg := Default()
		cfg.Tracker.SimilarityThreshold = values[0].(float64)
		cfg.Tracker.MaxConcurrentFetches = values[1].(int)
		cfg.Tracker.MaxRetries = values[2].(int)
		cfg.Catalog.Source = values[3].(string)
		cfg.Inventory.Source = values[4].(string)
		cfg.Inventory.File = values[5].(string)
		cfg.Inventory.IncludeAppStore = values[6].(bool)
		return cfg
	})
}

// TestConfigRoundTrip checks that a saved config loads back unchanged
func TestConfigRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("Config YAML round-trip preserves data", prop.ForAll(
		func(cfg *Config) bool {
			configPath := filepath.Join(t.TempDir(), "config.yaml")

			if err := cfg.SaveTo(configPath); err != nil {
				t.Logf("Failed to save config: %v", err)
				return false
			}

			loaded, err := LoadFrom(configPath)
			if err != nil {
				t.Logf("Failed to load config: %v", err)
				return false
			}

			return reflect.DeepEqual(cfg, loaded)
		},
		genConfig(),
	))

	properties.TestingRun(t)
}

func TestLoadFromCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = os.Stat(path)
	assert.NoError(t, err, "default config should be written on first load")
}

func TestLoadFromKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
tracker:
  similarity_threshold: 0.8
catalog:
  source: brew
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, 0.8, cfg.Tracker.SimilarityThreshold)
	assert.Equal(t, tracker.DefaultAmbiguityEpsilon, cfg.Tracker.AmbiguityEpsilon)
	assert.Equal(t, tracker.DefaultMaxConcurrentFetches, cfg.Tracker.MaxConcurrentFetches)
	assert.Equal(t, CatalogBrew, cfg.Catalog.Source)
	assert.Equal(t, DefaultAPIBaseURL, cfg.Catalog.APIBaseURL)
	assert.Equal(t, InventorySystemProfiler, cfg.Inventory.Source)
}

func TestLoadFromRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"malformed yaml", "tracker: [", ErrInvalidConfig},
		{"unknown catalog", "catalog:\n  source: macports\n", ErrUnknownCatalogSource},
		{"unknown inventory", "inventory:\n  source: spotlight\n", ErrUnknownInventory},
		{"file inventory without file", "inventory:\n  source: file\n", ErrInventoryFileNotSet},
		{"threshold out of range", "tracker:\n  similarity_threshold: 2\n", tracker.ErrInvalidSettings},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := LoadFrom(path)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("LoadFrom() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigPathsXDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	paths, err := ConfigPaths()
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(xdg, "versiontracker", "config.yaml"), paths[0])
}

func TestFindConfigPathPrefersExisting(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	legacy := filepath.Join(home, ".versiontracker", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(legacy), 0755))
	require.NoError(t, os.WriteFile(legacy, []byte("catalog:\n  source: api\n"), 0644))

	got, err := FindConfigPath()
	require.NoError(t, err)
	assert.Equal(t, legacy, got)

	xdg := filepath.Join(home, ".config", "versiontracker", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(xdg), 0755))
	require.NoError(t, os.WriteFile(xdg, []byte("catalog:\n  source: api\n"), 0644))

	got, err = FindConfigPath()
	require.NoError(t, err)
	assert.Equal(t, xdg, got)
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/overrides.toml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "overrides.toml"), got)

	got, err = ExpandPath("/etc/overrides.toml")
	require.NoError(t, err)
	assert.Equal(t, "/etc/overrides.toml", got)

	cfg := Default()
	got, err = cfg.OverridesPath()
	require.NoError(t, err)
	assert.Empty(t, got)
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/docdyhr/versiontracker-sub001/internal/tracker"
)

var (
	ErrInvalidConfig        = errors.New("invalid configuration")
	ErrUnknownCatalogSource = errors.New("unknown catalog source")
	ErrUnknownInventory     = errors.New("unknown inventory source")
	ErrInventoryFileNotSet  = errors.New("inventory file is not configured")
)

// Catalog source kinds
const (
	CatalogAPI  = "api"
	CatalogBrew = "brew"
)

// Inventory source kinds
const (
	InventorySystemProfiler = "system_profiler"
	InventoryBundles        = "bundles"
	InventoryFile           = "file"
)

// DefaultAPIBaseURL is the public Homebrew JSON API
const DefaultAPIBaseURL = "https://formulae.brew.sh"

// Config represents the application configuration
type Config struct {
	Tracker       tracker.Settings `yaml:"tracker"`
	Catalog       CatalogConfig    `yaml:"catalog"`
	Inventory     InventoryConfig  `yaml:"inventory"`
	OverridesFile string           `yaml:"overrides_file,omitempty"` // TOML ignore list and aliases
}

// CatalogConfig selects and configures the package catalog
type CatalogConfig struct {
	Source     string `yaml:"source"`       // "api" or "brew"
	APIBaseURL string `yaml:"api_base_url"` // Base URL of the JSON API
	BrewPath   string `yaml:"brew_path"`    // brew executable for the "brew" source
}

// InventoryConfig selects and configures the installed-application source
type InventoryConfig struct {
	Source          string   `yaml:"source"`            // "system_profiler", "bundles" or "file"
	Paths           []string `yaml:"paths,omitempty"`   // Application directories for "bundles"
	File            string   `yaml:"file,omitempty"`    // YAML or JSON list for "file"
	IncludeAppStore bool     `yaml:"include_app_store"` // Keep App Store and Apple apps
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Tracker: tracker.DefaultSettings(),
		Catalog: CatalogConfig{
			Source:     CatalogAPI,
			APIBaseURL: DefaultAPIBaseURL,
			BrewPath:   "brew",
		},
		Inventory: InventoryConfig{
			Source: InventorySystemProfiler,
		},
	}
}

// ConfigPaths returns all possible config file paths in priority order
// 1. ~/.config/versiontracker/config.yaml (XDG standard - priority)
// 2. ~/.versiontracker/config.yaml (legacy fallback)
func ConfigPaths() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	// Check XDG_CONFIG_HOME first, fallback to ~/.config
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}

	return []string{
		filepath.Join(xdgConfig, "versiontracker", "config.yaml"),
		filepath.Join(home, ".versiontracker", "config.yaml"),
	}, nil
}

// DefaultConfigPath returns the default config file path (XDG standard)
func DefaultConfigPath() (string, error) {
	paths, err := ConfigPaths()
	if err != nil {
		return "", err
	}
	return paths[0], nil
}

// FindConfigPath returns the first existing config file path
// Returns the default path if no config file exists yet
func FindConfigPath() (string, error) {
	paths, err := ConfigPaths()
	if err != nil {
		return "", err
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	// No config exists, return default (XDG) path for creation
	return paths[0], nil
}

// Load reads configuration from the first available config file
// Priority: ~/.config/versiontracker/config.yaml > ~/.versiontracker/config.yaml
func Load() (*Config, error) {
	configPath, err := FindConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom reads configuration from a specific file path.
// A missing file is created with the defaults. Keys absent from the file
// keep their default values.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			if saveErr := cfg.SaveTo(path); saveErr != nil {
				return nil, saveErr
			}
			return cfg, nil
		}
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// SaveTo writes configuration to a specific file path
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks the source selections and the tracker settings
func (c *Config) Validate() error {
	switch c.Catalog.Source {
	case CatalogAPI, CatalogBrew:
	default:
		return fmt.Errorf("%w: %q (expected %s or %s)", ErrUnknownCatalogSource, c.Catalog.Source, CatalogAPI, CatalogBrew)
	}

	switch c.Inventory.Source {
	case InventorySystemProfiler, InventoryBundles:
	case InventoryFile:
		if c.Inventory.File == "" {
			return ErrInventoryFileNotSet
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownInventory, c.Inventory.Source)
	}

	if err := c.Tracker.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}

// ExpandPath resolves a leading "~" to the user's home directory
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// OverridesPath returns the overrides file path, expanded.
// An empty path means no overrides are configured.
func (c *Config) OverridesPath() (string, error) {
	if c.OverridesFile == "" {
		return "", nil
	}
	return ExpandPath(c.OverridesFile)
}

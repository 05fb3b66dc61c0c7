package inventory

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/docdyhr/versiontracker-sub001/internal/tracker"
)

// FileEntry is one application in a static inventory file
type FileEntry struct {
	Name     string `yaml:"name"`
	Version  string `yaml:"version"`
	BundleID string `yaml:"bundle_id,omitempty"`
}

// fileDocument is the mapping form of an inventory file
type fileDocument struct {
	Applications []FileEntry `yaml:"applications"`
}

// FileInventory reads applications from a YAML or JSON file.
// The file holds either a list of entries or a mapping with an
// "applications" list.
type FileInventory struct {
	Path string
}

// NewFileInventory creates a file-backed inventory
func NewFileInventory(path string) *FileInventory {
	return &FileInventory{Path: path}
}

// Applications reads and parses the file on every call
func (f *FileInventory) Applications(ctx context.Context) ([]tracker.InstalledApplication, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	apps, err := ParseFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	return apps, nil
}

// ParseFile decodes inventory entries. JSON input is accepted since it is
// valid YAML.
func ParseFile(data []byte) ([]tracker.InstalledApplication, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInventory, err)
	}

	var entries []FileEntry
	root := &node
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}

	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&entries); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInventory, err)
		}
	case yaml.MappingNode:
		var doc fileDocument
		if err := root.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInventory, err)
		}
		entries = doc.Applications
	default:
		return nil, fmt.Errorf("%w: expected a list of applications", ErrInvalidInventory)
	}

	apps := make([]tracker.InstalledApplication, 0, len(entries))
	for i, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("%w: entry %d has no name", ErrInvalidInventory, i+1)
		}
		apps = append(apps, tracker.InstalledApplication{
			DisplayName:      e.Name,
			InstalledVersion: e.Version,
			BundleIdentifier: e.BundleID,
		})
	}

	return Normalize(apps), nil
}

// Ensure FileInventory implements tracker.Inventory
var _ tracker.Inventory = (*FileInventory)(nil)

package inventory

import (
	"context"
	"errors"
	"io/fs"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/docdyhr/versiontracker-sub001/internal/common/logger"
	"github.com/docdyhr/versiontracker-sub001/internal/tracker"
)

// Overrides holds user corrections applied to every run.
//
//	ignore = ["Xcode", "Microsoft Word"]
//
//	[aliases]
//	"Visual Studio Code" = "visual-studio-code"
type Overrides struct {
	// Ignore lists display names removed from the inventory
	Ignore []string `toml:"ignore"`
	// Aliases pins display names to canonical catalog names
	Aliases map[string]string `toml:"aliases"`
}

// LoadOverrides reads a TOML overrides file.
// An empty path or a missing file yields empty overrides.
func LoadOverrides(path string) (*Overrides, error) {
	o := &Overrides{}
	if path == "" {
		return o, nil
	}

	md, err := toml.DecodeFile(path, o)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("no overrides file at %s", path)
			return o, nil
		}
		return nil, err
	}

	for _, key := range md.Undecoded() {
		logger.Warn("%s: unknown key %q", path, key.String())
	}

	return o, nil
}

// Ignored reports whether the display name is on the ignore list.
// Names are compared after normalization.
func (o *Overrides) Ignored(name string) bool {
	if o == nil {
		return false
	}
	norm := tracker.NormalizeName(name)
	for _, ignored := range o.Ignore {
		if tracker.NormalizeName(ignored) == norm {
			return true
		}
	}
	return false
}

// Filter wraps inv so that ignored applications are dropped.
func (o *Overrides) Filter(inv tracker.Inventory) tracker.Inventory {
	if o == nil || len(o.Ignore) == 0 {
		return inv
	}
	return &filteredInventory{inner: inv, overrides: o}
}

type filteredInventory struct {
	inner     tracker.Inventory
	overrides *Overrides
}

func (f *filteredInventory) Applications(ctx context.Context) ([]tracker.InstalledApplication, error) {
	apps, err := f.inner.Applications(ctx)
	if err != nil {
		return nil, err
	}

	kept := make([]tracker.InstalledApplication, 0, len(apps))
	for _, app := range apps {
		if f.overrides.Ignored(app.DisplayName) {
			logger.Debug("ignoring %s", app.DisplayName)
			continue
		}
		kept = append(kept, app)
	}
	return kept, nil
}

// AliasMap returns the alias table with trimmed keys and values
func (o *Overrides) AliasMap() map[string]string {
	if o == nil {
		return nil
	}
	aliases := make(map[string]string, len(o.Aliases))
	for display, canonical := range o.Aliases {
		display, canonical = strings.TrimSpace(display), strings.TrimSpace(canonical)
		if display == "" || canonical == "" {
			continue
		}
		aliases[display] = canonical
	}
	return aliases
}

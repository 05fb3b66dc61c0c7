package brew

import (
	"errors"
	"fmt"

	"github.com/docdyhr/versiontracker-sub001/internal/common/command"
	"github.com/docdyhr/versiontracker-sub001/internal/common/config"
	"github.com/docdyhr/versiontracker-sub001/internal/tracker"
)

// ErrInvalidSource indicates an unknown catalog source kind
var ErrInvalidSource = errors.New("invalid catalog source")

// NewSource creates the catalog source selected by the configuration.
// runner is only used by the brew source; nil selects os/exec.
func NewSource(cfg config.CatalogConfig, runner command.Runner) (tracker.Source, error) {
	switch cfg.Source {
	case config.CatalogAPI, "":
		return NewAPISource(cfg.APIBaseURL), nil
	case config.CatalogBrew:
		return NewCLISource(cfg.BrewPath, runner), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidSource, cfg.Source)
	}
}

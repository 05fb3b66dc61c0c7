package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/docdyhr/versiontracker-sub001/internal/brew"
	"github.com/docdyhr/versiontracker-sub001/internal/common/logger"
	"github.com/docdyhr/versiontracker-sub001/internal/common/output"
	"github.com/docdyhr/versiontracker-sub001/internal/tracker"
)

var (
	lookupSource string
	lookupAPIURL string
	lookupJSON   bool
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <name>...",
	Short: "Show catalog records for canonical names",
	Long: `Fetch catalog records for one or more canonical package names and print
the latest version, the package kind and whether the package updates itself.

Examples:
  versiontracker lookup slack google-chrome
  versiontracker lookup wget --source brew
  versiontracker lookup firefox --json`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := runLookup(ctx, cmd.OutOrStdout(), args); err != nil {
			logger.Error("%v", err)
			os.Exit(1)
		}
	},
}

func init() {
	lookupCmd.Flags().StringVar(&lookupSource, "source", "", "Catalog source: api or brew")
	lookupCmd.Flags().StringVar(&lookupAPIURL, "api-url", "", "Base URL of the Homebrew JSON API")
	lookupCmd.Flags().BoolVar(&lookupJSON, "json", false, "Print records as JSON")
	rootCmd.AddCommand(lookupCmd)
}

// lookupEntry is one line of JSON lookup output
type lookupEntry struct {
	Name      string                  `json:"name"`
	Package   *tracker.CatalogPackage `json:"package,omitempty"`
	FromCache bool                    `json:"from_cache,omitempty"`
	Error     string                  `json:"error,omitempty"`
}

// errLookupFailed is returned when at least one name could not be resolved
var errLookupFailed = errors.New("some names could not be resolved")

// runLookup resolves names through the catalog client and prints them in
// argument order
func runLookup(ctx context.Context, w io.Writer, names []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if lookupSource != "" {
		cfg.Catalog.Source = lookupSource
	}
	if lookupAPIURL != "" {
		cfg.Catalog.APIBaseURL = lookupAPIURL
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	src, err := brew.NewSource(cfg.Catalog, newRunner())
	if err != nil {
		return err
	}
	client := tracker.NewClientFromSettings(src, cfg.Tracker)
	results := client.Resolve(ctx, names)

	failed := 0
	for _, name := range names {
		res := results[name]
		if res.Err != nil {
			failed++
		}

		if lookupJSON {
			entry := lookupEntry{Name: name, FromCache: res.FromCache}
			if res.Err != nil {
				entry.Error = res.Err.Error()
			} else {
				pkg := res.Package
				entry.Package = &pkg
			}
			data, err := json.Marshal(entry)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, string(data))
			continue
		}

		if res.Err != nil {
			fmt.Fprintf(w, "%s %s %v\n", name, output.FormatStatus(tracker.StatusUnavailable.String()), res.Err)
			continue
		}
		pkg := res.Package
		auto := ""
		if pkg.AutoUpdates {
			auto = " " + output.Sprint(output.AutoUpdated, "(auto-updates)")
		}
		fmt.Fprintf(w, "%s %s%s\n", output.FormatPackage(pkg.Kind.String(), pkg.CanonicalName), pkg.LatestVersion, auto)
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errLookupFailed, failed, len(names))
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/docdyhr/versiontracker-sub001/internal/brew"
	"github.com/docdyhr/versiontracker-sub001/internal/common/config"
	"github.com/docdyhr/versiontracker-sub001/internal/common/logger"
	"github.com/docdyhr/versiontracker-sub001/internal/common/output"
	"github.com/docdyhr/versiontracker-sub001/internal/inventory"
	"github.com/docdyhr/versiontracker-sub001/internal/report"
	"github.com/docdyhr/versiontracker-sub001/internal/tracker"
)

// checkOptions holds the check flags; zero values keep the config setting
type checkOptions struct {
	Format          string
	Source          string
	APIURL          string
	Inventory       string
	File            string
	Overrides       string
	Threshold       float64
	thresholdSet    bool
	Deadline        time.Duration
	Workers         int
	OnlyOutdated    bool
	IncludeUpToDate bool
}

var checkOpts checkOptions

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check installed applications against the catalog",
	Long: `Scan installed applications, match each one to a Homebrew package and
compare the installed version with the catalog.

Applications are reported as outdated, auto-updated (newer version available
but the application updates itself), up-to-date, ambiguous, unmatched,
incomparable or unavailable. By default, up-to-date applications are hidden;
use --include-uptodate to show them.

Examples:
  versiontracker check                          # Scan with system_profiler, query the API
  versiontracker check --source brew            # Use the local brew executable
  versiontracker check --inventory bundles      # Read Info.plist from /Applications
  versiontracker check --inventory file --file apps.yaml
  versiontracker check --format json            # Full report as JSON
  versiontracker check --only-outdated --deadline 30s`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		checkOpts.thresholdSet = cmd.Flags().Changed("threshold")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := runCheck(ctx, cmd.OutOrStdout(), checkOpts); err != nil {
			logger.Error("%v", err)
			os.Exit(1)
		}
	},
}

func init() {
	checkCmd.Flags().StringVarP(&checkOpts.Format, "format", "f", report.FormatText, "Output format: "+strings.Join(report.Formats(), ", "))
	checkCmd.Flags().StringVar(&checkOpts.Source, "source", "", "Catalog source: api or brew")
	checkCmd.Flags().StringVar(&checkOpts.APIURL, "api-url", "", "Base URL of the Homebrew JSON API")
	checkCmd.Flags().StringVar(&checkOpts.Inventory, "inventory", "", "Inventory source: system_profiler, bundles or file")
	checkCmd.Flags().StringVar(&checkOpts.File, "file", "", "YAML or JSON application list (implies --inventory file)")
	checkCmd.Flags().StringVar(&checkOpts.Overrides, "overrides", "", "TOML file with ignore list and aliases")
	checkCmd.Flags().Float64Var(&checkOpts.Threshold, "threshold", tracker.DefaultSimilarityThreshold, "Minimum name similarity for a match (0-1)")
	checkCmd.Flags().DurationVar(&checkOpts.Deadline, "deadline", 0, "Overall deadline for the run (e.g. 30s)")
	checkCmd.Flags().IntVarP(&checkOpts.Workers, "workers", "j", 0, "Maximum concurrent catalog fetches")
	checkCmd.Flags().BoolVar(&checkOpts.OnlyOutdated, "only-outdated", false, "Show only outdated applications")
	checkCmd.Flags().BoolVar(&checkOpts.IncludeUpToDate, "include-uptodate", false, "Include up-to-date applications")
	rootCmd.AddCommand(checkCmd)
}

// applyCheckOptions overlays flag values on the configuration
func applyCheckOptions(cfg *config.Config, opts checkOptions) error {
	if opts.Source != "" {
		cfg.Catalog.Source = opts.Source
	}
	if opts.APIURL != "" {
		cfg.Catalog.APIBaseURL = opts.APIURL
	}
	if opts.File != "" {
		cfg.Inventory.File = opts.File
		if opts.Inventory == "" {
			cfg.Inventory.Source = config.InventoryFile
		}
	}
	if opts.Inventory != "" {
		cfg.Inventory.Source = opts.Inventory
	}
	if opts.Overrides != "" {
		cfg.OverridesFile = opts.Overrides
	}
	if opts.thresholdSet {
		cfg.Tracker.SimilarityThreshold = opts.Threshold
	}
	if opts.Deadline > 0 {
		cfg.Tracker.OverallDeadlineSeconds = int(math.Ceil(opts.Deadline.Seconds()))
	}
	if opts.Workers > 0 {
		cfg.Tracker.MaxConcurrentFetches = opts.Workers
	}
	return cfg.Validate()
}

// runCheck performs one reconciliation and writes the report to w
func runCheck(ctx context.Context, w io.Writer, opts checkOptions) error {
	if !isKnownFormat(opts.Format) {
		return fmt.Errorf("%w: %s", report.ErrUnknownFormat, opts.Format)
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := applyCheckOptions(cfg, opts); err != nil {
		return err
	}

	overridesPath, err := cfg.OverridesPath()
	if err != nil {
		return err
	}
	overrides, err := inventory.LoadOverrides(overridesPath)
	if err != nil {
		return fmt.Errorf("loading overrides: %w", err)
	}

	runner := newRunner()
	inv, err := inventory.New(cfg.Inventory, runner)
	if err != nil {
		return err
	}
	src, err := brew.NewSource(cfg.Catalog, runner)
	if err != nil {
		return err
	}

	reconcilerOpts := []tracker.ReconcilerOption{
		tracker.WithSettings(cfg.Tracker),
		tracker.WithAliasMap(overrides.AliasMap()),
	}
	if opts.Format == report.FormatJSONLines {
		reconcilerOpts = append(reconcilerOpts, tracker.WithSink(report.NewJSONLinesSink(w)))
	}

	reconciler, err := tracker.NewReconciler(overrides.Filter(inv), src, reconcilerOpts...)
	if err != nil {
		return err
	}

	logger.Info("Checking installed applications (%s inventory, %s catalog)...", cfg.Inventory.Source, cfg.Catalog.Source)
	rep, err := reconciler.Run(ctx)
	if err != nil {
		return err
	}

	logger.Debug("%s", strings.TrimSpace(report.FormatSummary(rep)))
	if rep.DeadlineExceeded {
		logger.Warn("Deadline exceeded; %d applications could not be checked",
			rep.Count(tracker.StatusUnavailable))
	}

	textOpts := report.TextOptions{
		OnlyOutdated:    opts.OnlyOutdated,
		IncludeUpToDate: opts.IncludeUpToDate,
	}
	if err := report.Write(w, rep, opts.Format, textOpts); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if opts.Format == report.FormatText && rep.Count(tracker.StatusOutdated) > 0 {
		logger.Info("%s", output.Sprintf(output.Outdated, "%d applications can be upgraded with brew", rep.Count(tracker.StatusOutdated)))
	}
	return nil
}

func isKnownFormat(format string) bool {
	for _, f := range report.Formats() {
		if f == format {
			return true
		}
	}
	return false
}

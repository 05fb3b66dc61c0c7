package tracker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/docdyhr/versiontracker-sub001/internal/common/logger"
)

// ErrInventoryFailed is returned when the inventory cannot be enumerated
var ErrInventoryFailed = errors.New("failed to enumerate installed applications")

// Stage is a step of the reconciliation state machine.
type Stage int

const (
	StageScanning Stage = iota
	StageFetching
	StageMatching
	StageComparing
	StageReporting
	StageDone
)

var stageNames = map[Stage]string{
	StageScanning:  "scanning",
	StageFetching:  "fetching",
	StageMatching:  "matching",
	StageComparing: "comparing",
	StageReporting: "reporting",
	StageDone:      "done",
}

// String returns the stage name
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText encodes the stage for JSON and YAML output
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Report is the terminal artifact of a run.
type Report struct {
	// RunID identifies the run in logs and output
	RunID string `json:"run_id" yaml:"run_id"`
	// StartedAt and FinishedAt bound the run
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
	// Stages records every stage the run went through, in order
	Stages []Stage `json:"stages" yaml:"stages"`
	// DeadlineExceeded is true when the overall deadline cut fetching short
	DeadlineExceeded bool `json:"deadline_exceeded" yaml:"deadline_exceeded"`
	// Results holds one result per installed application, in inventory order
	Results []Result `json:"results" yaml:"results"`
	// Summary counts results per status
	Summary map[Status]int `json:"summary" yaml:"summary"`
}

// Count returns the number of results with the given status
func (r *Report) Count(status Status) int {
	return r.Summary[status]
}

// Reconciler drives scan, fetch, match, compare and report for one run.
type Reconciler struct {
	// inventory enumerates installed applications
	inventory Inventory
	// source is the external catalog
	source Source
	// client resolves canonical names through the cache
	client *Client
	// matcher picks the catalog package for each application
	matcher *Matcher
	// settings holds the tuning used for defaults
	settings Settings
	// sink optionally receives results after the run
	sink Sink
	// aliases pins display names to canonical names
	aliases map[string]string
	// nowFunc allows injecting time for testing
	nowFunc func() time.Time
}

// ReconcilerOption is a functional option for configuring Reconciler
type ReconcilerOption func(*Reconciler) error

// WithSettings sets the tuning; it is validated when the reconciler is built
func WithSettings(s Settings) ReconcilerOption {
	return func(r *Reconciler) error {
		if err := s.Validate(); err != nil {
			return err
		}
		r.settings = s
		return nil
	}
}

// WithClient sets a preconfigured catalog client
func WithClient(c *Client) ReconcilerOption {
	return func(r *Reconciler) error {
		r.client = c
		return nil
	}
}

// WithMatcher sets a preconfigured matcher
func WithMatcher(m *Matcher) ReconcilerOption {
	return func(r *Reconciler) error {
		r.matcher = m
		return nil
	}
}

// WithSink sets the sink that receives every result
func WithSink(s Sink) ReconcilerOption {
	return func(r *Reconciler) error {
		r.sink = s
		return nil
	}
}

// WithAliasMap pins display names to canonical names for the default matcher
func WithAliasMap(aliases map[string]string) ReconcilerOption {
	return func(r *Reconciler) error {
		r.aliases = aliases
		return nil
	}
}

// WithClock sets a custom time function for testing
func WithClock(fn func() time.Time) ReconcilerOption {
	return func(r *Reconciler) error {
		r.nowFunc = fn
		return nil
	}
}

// NewReconciler creates a reconciler over an inventory and a catalog source.
// Components not supplied through options are built from the settings.
func NewReconciler(inv Inventory, src Source, opts ...ReconcilerOption) (*Reconciler, error) {
	r := &Reconciler{
		inventory: inv,
		source:    src,
		settings:  DefaultSettings(),
		nowFunc:   time.Now,
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, fmt.Errorf("failed to apply reconciler option: %w", err)
		}
	}

	if r.client == nil {
		r.client = NewClientFromSettings(src, r.settings)
	}

	if r.matcher == nil {
		r.matcher = NewMatcher(r.settings.SimilarityThreshold, r.settings.AmbiguityEpsilon, WithAliases(r.aliases))
	}

	return r, nil
}

// Client returns the catalog client
func (r *Reconciler) Client() *Client {
	return r.client
}

// run carries the state of a single Run call.
type run struct {
	report *Report
	apps   []InstalledApplication
	// shortlists holds candidate names per application
	shortlists [][]string
	// fetched holds resolved records by canonical name
	fetched map[string]FetchResult
	// indexErr is set when the catalog index could not be loaded
	indexErr error
	// matches holds the matcher decision per application
	matches []MatchResult
	// unavailable holds the fetch error that blocked matching, per application
	unavailable []error
}

// Run performs one reconciliation. Every installed application yields
// exactly one result, in inventory order. Per-item failures become result
// statuses; only a failed inventory enumeration aborts the run.
func (r *Reconciler) Run(ctx context.Context) (*Report, error) {
	st := &run{
		report: &Report{
			RunID:     uuid.NewString(),
			StartedAt: r.nowFunc(),
			Summary:   make(map[Status]int),
		},
	}

	r.enter(st, StageScanning)
	apps, err := r.inventory.Applications(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInventoryFailed, err)
	}
	st.apps = apps

	// The deadline bounds catalog work only; scanning is not truncated
	if d := r.settings.OverallDeadline(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	r.enter(st, StageFetching)
	r.fetch(ctx, st)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		st.report.DeadlineExceeded = true
		logger.Warn("run %s: deadline exceeded, unresolved applications are marked unavailable", st.report.RunID)
	}

	r.enter(st, StageMatching)
	r.match(st)

	r.enter(st, StageComparing)
	r.compare(st)

	r.enter(st, StageReporting)
	r.emit(st)

	r.enter(st, StageDone)
	st.report.FinishedAt = r.nowFunc()
	return st.report, nil
}

// enter records a stage transition.
func (r *Reconciler) enter(st *run, stage Stage) {
	st.report.Stages = append(st.report.Stages, stage)
	logger.Debug("run %s: %s", st.report.RunID, stage)
}

// fetch loads the catalog index, shortlists candidates per application and
// resolves the union of shortlisted names in one batch.
func (r *Reconciler) fetch(ctx context.Context, st *run) {
	st.shortlists = make([][]string, len(st.apps))
	if len(st.apps) == 0 {
		return
	}

	index, err := r.source.Index(ctx)
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %v", ErrDeadlineExceeded, err)
		}
		st.indexErr = &FetchError{Name: "catalog index", Attempts: 1, Err: err}
		logger.Warn("catalog index unavailable: %v", err)
		return
	}
	prepared := PrepareIndex(index)
	logger.Debug("catalog index holds %d entries", prepared.Len())

	// Shortlisting is CPU-only and independent per application
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, app := range st.apps {
		g.Go(func() error {
			st.shortlists[i] = r.matcher.Shortlist(app, prepared)
			return nil
		})
	}
	_ = g.Wait()

	var names []string
	for _, list := range st.shortlists {
		names = append(names, list...)
	}
	st.fetched = r.client.Resolve(ctx, names)
}

// match runs the matcher over the fetched records of each shortlist.
func (r *Reconciler) match(st *run) {
	st.matches = make([]MatchResult, len(st.apps))
	st.unavailable = make([]error, len(st.apps))

	for i, app := range st.apps {
		if st.indexErr != nil {
			st.unavailable[i] = st.indexErr
			continue
		}

		var pkgs []CatalogPackage
		var failed error
		for _, name := range st.shortlists[i] {
			res := st.fetched[name]
			switch {
			case res.Err == nil:
				pkgs = append(pkgs, res.Package)
			case errors.Is(res.Err, ErrNotFound):
				// Stale index entry: the name is simply not a candidate
				logger.Debug("%s listed in index but not found in catalog", name)
			case failed == nil:
				failed = res.Err
			}
		}

		result := r.matcher.Match(app, pkgs)
		if failed != nil && !result.Exact {
			// A missing candidate could change the decision
			st.unavailable[i] = failed
			continue
		}
		st.matches[i] = result
	}
}

// compare classifies every application.
func (r *Reconciler) compare(st *run) {
	st.report.Results = make([]Result, len(st.apps))
	for i, app := range st.apps {
		var res Result
		if err := st.unavailable[i]; err != nil {
			res = Result{
				Application: app,
				Status:      StatusUnavailable,
				Detail:      err.Error(),
				Err:         err,
			}
		} else {
			res = Classify(app, st.matches[i])
		}
		st.report.Results[i] = res
		st.report.Summary[res.Status]++
	}
}

// emit hands every result to the sink, in order.
func (r *Reconciler) emit(st *run) {
	if r.sink == nil {
		return
	}
	for _, res := range st.report.Results {
		if err := r.sink.Emit(res); err != nil {
			logger.Warn("report sink rejected %s: %v", res.Application.DisplayName, err)
		}
	}
}

// Classify turns a matcher decision into a result for the application.
func Classify(app InstalledApplication, m MatchResult) Result {
	switch m.Outcome {
	case MatchNone:
		return Result{Application: app, Status: StatusUnmatched}
	case MatchAmbiguous:
		names := make([]string, len(m.Tied))
		for i, c := range m.Tied {
			names[i] = c.Package.CanonicalName
		}
		return Result{
			Application: app,
			Status:      StatusAmbiguous,
			Candidates:  names,
			Score:       m.Tied[0].Score,
			Detail:      fmt.Sprintf("%v: %s", ErrAmbiguous, strings.Join(names, ", ")),
		}
	}

	pkg := m.Best.Package
	res := Result{
		Application: app,
		Package:     &pkg,
		Score:       m.Best.Score,
	}

	switch CompareVersions(app.InstalledVersion, pkg.LatestVersion) {
	case Equal:
		res.Status = StatusUpToDate
	case Greater:
		res.Status = StatusUpToDate
		res.Detail = fmt.Sprintf("installed %q is newer than catalog %q", app.InstalledVersion, pkg.LatestVersion)
	case Less:
		if pkg.AutoUpdates {
			res.Status = StatusAutoUpdated
		} else {
			res.Status = StatusOutdated
		}
		res.Detail = fmt.Sprintf("%s -> %s", app.InstalledVersion, pkg.LatestVersion)
	default:
		res.Status = StatusIncomparable
		res.Detail = fmt.Sprintf("%v: installed %q vs catalog %q", ErrIncomparable, app.InstalledVersion, pkg.LatestVersion)
	}

	return res
}

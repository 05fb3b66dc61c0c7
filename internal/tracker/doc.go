// Package tracker reconciles installed macOS applications against the
// Homebrew catalog and reports which of them are outdated.
//
// The package implements:
//   - Version comparison tolerant of non-semantic version strings
//   - Fuzzy name matching from application display names to canonical names
//   - A TTL cache with per-key single-flight coordination
//   - A catalog client with bounded concurrency, rate limiting and retries
//   - The reconciliation pipeline that ties the pieces together
//
// Inventory and catalog access are injected through the Inventory and Source
// interfaces; rendering of the final Report is left to the caller.
//
// Usage:
//
//	r, err := tracker.NewReconciler(inv, src, tracker.WithSettings(settings))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report, err := r.Run(ctx)
package tracker

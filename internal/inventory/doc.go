// Package inventory enumerates installed macOS applications.
//
// Three sources are available: SystemProfiler runs `system_profiler` and
// parses its JSON output, BundleScanner walks application directories and
// reads each bundle's Info.plist, and FileInventory loads a static YAML or
// JSON list. Every source returns applications with cleaned versions, without
// duplicates, sorted by display name.
//
// Overrides loads the TOML ignore list and alias table applied on top of any
// source.
package inventory

// Package brew provides catalog sources backed by Homebrew.
//
// APISource reads the public JSON API (formulae.brew.sh); CLISource runs the
// local brew executable. Both decode records with the same tolerant parser,
// which accepts a single record, an array of records, or the envelope
// produced by `brew info --json=v2`.
//
// A name known both as a cask and as a formula resolves to the cask.
package brew

package tracker

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// vendorSuffixes are trailing words that carry no identity
var vendorSuffixes = map[string]bool{
	"inc":         true,
	"llc":         true,
	"ltd":         true,
	"gmbh":        true,
	"corp":        true,
	"corporation": true,
	"co":          true,
}

// embeddedVersionRegex matches version-like tokens such as "2", "v7", "3.1"
var embeddedVersionRegex = regexp.MustCompile(`^v?\d+(\.\d+)*$`)

// NormalizeName reduces an application or package name to a canonical form:
// case-folded, stripped of diacritics, of a trailing ".app", of vendor
// suffixes and of embedded version numbers, with every run of whitespace or
// punctuation collapsed to a single space.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimSuffix(name, ".app")

	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(stripMarks, name); err == nil {
		name = folded
	}
	// Casers are stateful, so each call gets its own
	name = cases.Fold().String(name)

	tokens := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.'
	})

	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.Trim(tok, ".")
		if tok == "" {
			continue
		}
		if embeddedVersionRegex.MatchString(tok) {
			continue
		}
		// Dots inside words ("draw.io") become separators
		kept = append(kept, strings.FieldsFunc(tok, func(r rune) bool { return r == '.' })...)
	}

	// Vendor suffixes are only dropped from the end of the name
	for len(kept) > 1 && vendorSuffixes[kept[len(kept)-1]] {
		kept = kept[:len(kept)-1]
	}

	if len(kept) == 0 {
		// Nothing but numbers or noise: keep the folded original tokens
		return strings.Join(strings.Fields(strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return r
			}
			return ' '
		}, name)), " ")
	}

	return strings.Join(kept, " ")
}

// nameTokens splits a normalized name into its word set.
func nameTokens(normalized string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(normalized) {
		set[tok] = struct{}{}
	}
	return set
}

package tracker

import (
	"sort"
)

// Default matcher tuning
const (
	// DefaultSimilarityThreshold is the minimum score for a fuzzy match
	DefaultSimilarityThreshold = 0.75
	// DefaultAmbiguityEpsilon is the score gap below which two matches tie
	DefaultAmbiguityEpsilon = 0.02
)

// MatchOutcome tells whether the matcher chose a package.
type MatchOutcome int

const (
	// MatchNone means no candidate reached the threshold
	MatchNone MatchOutcome = iota
	// MatchFound means exactly one candidate won
	MatchFound
	// MatchAmbiguous means several candidates tied for the top score
	MatchAmbiguous
)

// MatchResult is the matcher decision for one application.
type MatchResult struct {
	Outcome MatchOutcome
	// Best is the chosen candidate when Outcome is MatchFound
	Best MatchCandidate
	// Tied holds the tied candidates when Outcome is MatchAmbiguous
	Tied []MatchCandidate
	// Exact is true when a bundle identifier or alias decided the match
	Exact bool
}

// Matcher resolves installed applications to catalog packages.
// It holds no mutable state; the same inputs always produce the same decision.
type Matcher struct {
	scorer    Scorer
	threshold float64
	epsilon   float64
	// aliases maps normalized display names to canonical names
	aliases map[string]string
}

// MatcherOption is a functional option for configuring Matcher
type MatcherOption func(*Matcher)

// WithScorer replaces the default token-set/edit-distance scorer
func WithScorer(s Scorer) MatcherOption {
	return func(m *Matcher) {
		m.scorer = s
	}
}

// WithAliases pins display names to canonical names.
// An alias is treated like a bundle identifier match.
func WithAliases(aliases map[string]string) MatcherOption {
	return func(m *Matcher) {
		m.aliases = make(map[string]string, len(aliases))
		for display, canonical := range aliases {
			m.aliases[NormalizeName(display)] = canonical
		}
	}
}

// NewMatcher creates a matcher with the given threshold and tie epsilon.
func NewMatcher(threshold, epsilon float64, opts ...MatcherOption) *Matcher {
	m := &Matcher{
		scorer:    DefaultScorer(),
		threshold: threshold,
		epsilon:   epsilon,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Threshold returns the configured similarity threshold
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Match chooses the catalog package for an application.
//
// A package carrying the application's bundle identifier wins outright; if
// several carry it, the name score decides among them alone. An alias wins
// next. Otherwise every package scoring at or above the threshold competes,
// and candidates within epsilon of the top score make the result ambiguous.
func (m *Matcher) Match(app InstalledApplication, pkgs []CatalogPackage) MatchResult {
	if app.BundleIdentifier != "" {
		var byID []CatalogPackage
		for _, p := range pkgs {
			if p.HasBundleID(app.BundleIdentifier) {
				byID = append(byID, p)
			}
		}
		switch len(byID) {
		case 0:
		case 1:
			return MatchResult{
				Outcome: MatchFound,
				Best:    MatchCandidate{Application: app, Package: byID[0], Score: 1},
				Exact:   true,
			}
		default:
			result := m.pickTop(app, byID, 0)
			result.Exact = result.Outcome == MatchFound
			return result
		}
	}

	if canonical, ok := m.aliasFor(app); ok {
		for _, p := range pkgs {
			if p.CanonicalName == canonical {
				return MatchResult{
					Outcome: MatchFound,
					Best:    MatchCandidate{Application: app, Package: p, Score: 1},
					Exact:   true,
				}
			}
		}
	}

	return m.pickTop(app, pkgs, m.threshold)
}

// pickTop scores pkgs and applies the threshold and tie rule.
func (m *Matcher) pickTop(app InstalledApplication, pkgs []CatalogPackage, threshold float64) MatchResult {
	normalized := NormalizeName(app.DisplayName)

	var candidates []MatchCandidate
	for _, p := range pkgs {
		score := m.scoreNames(normalized, packageNames(p.CanonicalName, p.DisplayNames))
		if score >= threshold {
			candidates = append(candidates, MatchCandidate{Application: app, Package: p, Score: score})
		}
	}

	if len(candidates) == 0 {
		return MatchResult{Outcome: MatchNone}
	}

	// Order by score, then by name, so ties never depend on input order
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Package.CanonicalName < candidates[j].Package.CanonicalName
	})

	top := candidates[0]
	tied := []MatchCandidate{top}
	for _, c := range candidates[1:] {
		if top.Score-c.Score < m.epsilon {
			tied = append(tied, c)
		}
	}

	if len(tied) > 1 {
		return MatchResult{Outcome: MatchAmbiguous, Tied: tied}
	}
	return MatchResult{Outcome: MatchFound, Best: top}
}

// Score returns the similarity between an application and a catalog name.
func (m *Matcher) Score(app InstalledApplication, name string) float64 {
	return m.scorer.Score(NormalizeName(app.DisplayName), NormalizeName(name))
}

// scoreNames returns the best score of an already normalized application
// name against a set of normalized package names.
func (m *Matcher) scoreNames(normalized string, names []string) float64 {
	best := 0.0
	for _, n := range names {
		if v := m.scorer.Score(normalized, n); v > best {
			best = v
		}
	}
	return best
}

// aliasFor returns the canonical name pinned to the application, if any.
func (m *Matcher) aliasFor(app InstalledApplication) (string, bool) {
	if len(m.aliases) == 0 {
		return "", false
	}
	canonical, ok := m.aliases[NormalizeName(app.DisplayName)]
	return canonical, ok
}

// packageNames returns the normalized canonical name followed by the
// normalized display names, without duplicates.
func packageNames(canonical string, display []string) []string {
	names := make([]string, 0, len(display)+1)
	seen := make(map[string]bool, len(display)+1)
	for _, n := range append([]string{canonical}, display...) {
		norm := NormalizeName(n)
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true
		names = append(names, norm)
	}
	return names
}

// PreparedIndex is a catalog index with names normalized once for shortlisting.
type PreparedIndex struct {
	entries []IndexEntry
	names   [][]string
}

// PrepareIndex normalizes every name in the index.
func PrepareIndex(index []IndexEntry) *PreparedIndex {
	p := &PreparedIndex{
		entries: index,
		names:   make([][]string, len(index)),
	}
	for i, e := range index {
		p.names[i] = packageNames(e.Name, e.DisplayNames)
	}
	return p
}

// Len returns the number of index entries
func (p *PreparedIndex) Len() int {
	return len(p.entries)
}

// Shortlist returns the canonical names that Match could select for the
// application: identifier and alias hits plus every name scoring at or
// above the threshold. Names keep index order.
func (m *Matcher) Shortlist(app InstalledApplication, index *PreparedIndex) []string {
	normalized := NormalizeName(app.DisplayName)
	alias, hasAlias := m.aliasFor(app)

	var names []string
	seen := make(map[string]bool)
	for i, e := range index.entries {
		if seen[e.Name] {
			continue
		}
		hit := containsFold(e.BundleIDs, app.BundleIdentifier) ||
			(hasAlias && e.Name == alias) ||
			m.scoreNames(normalized, index.names[i]) >= m.threshold
		if hit {
			seen[e.Name] = true
			names = append(names, e.Name)
		}
	}
	return names
}

package tracker

// Scorer rates the similarity of two normalized names on a 0-1 scale.
type Scorer interface {
	Score(a, b string) float64
}

// TokenSetScorer compares the word sets of two names, ignoring word order.
// The score is the Jaccard index of the two sets.
type TokenSetScorer struct{}

// Score implements Scorer
func (TokenSetScorer) Score(a, b string) float64 {
	ta, tb := nameTokens(a), nameTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	shared := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	return float64(shared) / float64(union)
}

// EditDistanceScorer compares two names character by character.
// The score is 1 - levenshtein(a, b) / max(len(a), len(b)).
type EditDistanceScorer struct{}

// Score implements Scorer
func (EditDistanceScorer) Score(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

// MaxScorer combines scorers by taking the highest score any of them gives.
type MaxScorer []Scorer

// Score implements Scorer
func (m MaxScorer) Score(a, b string) float64 {
	best := 0.0
	for _, s := range m {
		if v := s.Score(a, b); v > best {
			best = v
		}
	}
	return best
}

// DefaultScorer is the token-set and edit-distance combination.
func DefaultScorer() Scorer {
	return MaxScorer{TokenSetScorer{}, EditDistanceScorer{}}
}

// levenshtein returns the edit distance between two rune slices using two rows.
func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

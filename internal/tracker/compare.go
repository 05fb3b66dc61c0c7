package tracker

import (
	"strings"
)

// Ordering is the outcome of comparing two version strings.
type Ordering int

const (
	// Less means the first version is older
	Less Ordering = iota - 1
	// Equal means both versions are the same
	Equal
	// Greater means the first version is newer
	Greater
	// Incomparable means no ordering can be derived
	Incomparable
)

// String returns a human-readable ordering
func (o Ordering) String() string {
	switch o {
	case Less:
		return "less"
	case Equal:
		return "equal"
	case Greater:
		return "greater"
	default:
		return "incomparable"
	}
}

// versionComponent is a single dot- or dash-delimited part of a version.
type versionComponent struct {
	text    string
	numeric bool
}

// zeroComponent stands in for a missing trailing component
var zeroComponent = versionComponent{text: "0", numeric: true}

// parseComponents splits a version into components.
// Returns false when the string is empty, contains empty components, or is
// a single non-numeric word (freeform text such as "latest").
func parseComponents(v string) ([]versionComponent, bool) {
	v = strings.TrimSpace(v)

	// Tolerate the common "v1.2.3" spelling
	if len(v) > 1 && (v[0] == 'v' || v[0] == 'V') && isDigit(v[1]) {
		v = v[1:]
	}
	if v == "" {
		return nil, false
	}

	parts := strings.FieldsFunc(v, func(r rune) bool { return r == '.' || r == '-' })
	if len(parts) != strings.Count(v, ".")+strings.Count(v, "-")+1 {
		// Leading, trailing or doubled delimiters
		return nil, false
	}

	components := make([]versionComponent, len(parts))
	for i, p := range parts {
		components[i] = versionComponent{text: p, numeric: isNumeric(p)}
	}

	if len(components) == 1 && !components[0].numeric {
		return nil, false
	}

	return components, true
}

// CompareVersions compares an installed version a against a catalog version b.
// Components are compared left to right: numbers numerically, words
// lexicographically, and a number against a word is Incomparable. A missing
// trailing component counts as zero. Strings that do not parse fall back to
// exact equality and are otherwise Incomparable.
func CompareVersions(a, b string) Ordering {
	ca, okA := parseComponents(a)
	cb, okB := parseComponents(b)
	if !okA || !okB {
		if strings.TrimSpace(a) == strings.TrimSpace(b) {
			return Equal
		}
		return Incomparable
	}

	n := len(ca)
	if len(cb) > n {
		n = len(cb)
	}

	for i := 0; i < n; i++ {
		x, y := zeroComponent, zeroComponent
		if i < len(ca) {
			x = ca[i]
		}
		if i < len(cb) {
			y = cb[i]
		}

		var cmp int
		switch {
		case x.numeric && y.numeric:
			cmp = compareNumeric(x.text, y.text)
		case !x.numeric && !y.numeric:
			cmp = strings.Compare(strings.ToLower(x.text), strings.ToLower(y.text))
		default:
			return Incomparable
		}

		if cmp < 0 {
			return Less
		}
		if cmp > 0 {
			return Greater
		}
	}

	return Equal
}

// compareNumeric compares two digit strings of arbitrary length.
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

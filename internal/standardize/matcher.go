package standardize

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Matcher scores a name against canonical candidates. Keeping this behind
// an interface makes the canonical lists and cutoffs data, not code.
type Matcher interface {
	// BestMatch returns the candidate most similar to name, provided its
	// similarity clears cutoff.
	BestMatch(name string, candidates []string, cutoff float64) (string, bool)
}

// SequenceMatcher scores similarity with difflib's ratio (matching
// characters over total length). Comparison is case-insensitive; the
// returned match keeps the candidate's canonical casing.
type SequenceMatcher struct{}

func (SequenceMatcher) BestMatch(name string, candidates []string, cutoff float64) (string, bool) {
	if name == "" || len(candidates) == 0 {
		return "", false
	}

	target := splitChars(strings.ToLower(name))
	best := ""
	bestScore := cutoff

	for _, cand := range candidates {
		score := difflib.NewMatcher(target, splitChars(strings.ToLower(cand))).Ratio()
		if score > bestScore || (score == bestScore && best == "" && score >= cutoff) {
			best = cand
			bestScore = score
		}
	}

	if best == "" {
		return "", false
	}
	return best, true
}

func splitChars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

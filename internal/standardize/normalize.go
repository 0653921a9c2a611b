package standardize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Similarity cutoffs for fuzzy canonical matching. Universities tolerate
// slightly less drift than programs because their names are shorter.
const (
	universityCutoff = 0.86
	programCutoff    = 0.84
)

// abbrevUniversities expands well-known shorthand that title casing would
// mangle. Patterns match the whole field only.
var abbrevUniversities = []struct {
	expr *regexp.Regexp
	full string
}{
	{regexp.MustCompile(`(?i)^mcg(\.|ill)?$`), "McGill University"},
	{regexp.MustCompile(`(?i)^(ubc|u\.?b\.?c\.?)$`), "University of British Columbia"},
	{regexp.MustCompile(`(?i)^uoft$`), "University of Toronto"},
}

// commonUniversityFixes repairs misspellings seen in real entries. Keys are
// post-title-case forms.
var commonUniversityFixes = map[string]string{
	"Mcgill University":  "McGill University",
	"Mcgiill University": "McGill University",
	"Mcgill":             "McGill University",
}

// commonProgramFixes repairs recurring truncations and shorthand in program
// names. Applied on whole words so "Mathematics" is left alone.
var commonProgramFixes = []struct {
	expr *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`\bMathematic\b`), "Mathematics"},
	{regexp.MustCompile(`\bInfo Studies\b`), "Information Studies"},
}

var fallbackSplitExpr = regexp.MustCompile(`,| at | @ `)

// splitFallback derives a program/university pair from raw text without the
// model: the first separator-delimited segment is the program, the second
// the university.
func splitFallback(text string) (program, university string) {
	text = strings.Join(strings.Fields(text), " ")
	text = strings.TrimRight(text, ", ")
	parts := fallbackSplitExpr.Split(text, -1)
	program = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		university = strings.TrimSpace(parts[1])
	}
	return program, university
}

// NormalizeUniversity maps a free-form school name onto its canonical form:
// shorthand expansion, title casing, misspelling fixes, then an exact and a
// fuzzy pass over the canonical list. Unmatched names are kept title-cased
// rather than dropped.
func NormalizeUniversity(name string, m Matcher) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Unknown"
	}
	for _, abbrev := range abbrevUniversities {
		if abbrev.expr.MatchString(name) {
			return abbrev.full
		}
	}
	name = titleCase(name)
	if fixed, ok := commonUniversityFixes[name]; ok {
		name = fixed
	}
	return matchCanonical(name, canonicalUniversities, universityCutoff, m)
}

// NormalizeProgram maps a free-form program name onto its canonical form.
func NormalizeProgram(name string, m Matcher) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = titleCase(name)
	for _, fix := range commonProgramFixes {
		name = fix.expr.ReplaceAllString(name, fix.repl)
	}
	return matchCanonical(name, canonicalPrograms, programCutoff, m)
}

func matchCanonical(name string, candidates []string, cutoff float64, m Matcher) string {
	for _, cand := range candidates {
		if strings.EqualFold(cand, name) {
			return cand
		}
	}
	if best, ok := m.BestMatch(name, candidates, cutoff); ok {
		return best
	}
	return name
}

// titleCase capitalizes each word, then lowers the connective "of" so
// "University Of Toronto" reads naturally.
func titleCase(s string) string {
	// cases.Title carries internal state, so a caser is not safe to share
	// across goroutines.
	s = cases.Title(language.English).String(strings.ToLower(s))
	return strings.ReplaceAll(s, " Of ", " of ")
}

package standardize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// degreeKeywords are the tokens that mark a program name as carrying its
// degree. Dotted and undotted forms are both listed because entries write
// them either way.
var degreeKeywords = map[string]struct{}{
	"phd":     {},
	"masters": {},
	"master":  {},
	"ms":      {},
	"m.s.":    {},
	"ma":      {},
	"m.a.":    {},
	"msc":     {},
	"m.sc.":   {},
	"mba":     {},
	"m.b.a.":  {},
	"mfa":     {},
	"m.f.a.":  {},
	"meng":    {},
	"m.eng.":  {},
	"mtech":   {},
	"m.tech.": {},
}

var tokenExpr = regexp.MustCompile(`[\w.]+`)

// hasDegree reports whether any token of s is a degree keyword.
func hasDegree(s string) bool {
	for _, tok := range tokenExpr.FindAllString(strings.ToLower(s), -1) {
		if _, ok := degreeKeywords[tok]; ok {
			return true
		}
	}
	return false
}

// repairSwap undoes a swapped model reply: when the program field carries no
// degree but the university field does, the two were almost certainly
// reversed.
func repairSwap(program, university string) (string, string) {
	if !hasDegree(program) && hasDegree(university) {
		return university, program
	}
	return program, university
}

// ensureDegree appends the degree found in the source text when the
// normalized program name lost it. Degrees written with dots keep an
// all-caps form ("M.S." becomes "MS"), others are title-cased.
func ensureDegree(program, sourceText string) string {
	if program == "" || hasDegree(program) {
		return program
	}
	for _, tok := range tokenExpr.FindAllString(strings.ToLower(sourceText), -1) {
		if _, ok := degreeKeywords[tok]; !ok {
			continue
		}
		bare := strings.ReplaceAll(tok, ".", "")
		degree := cases.Title(language.English).String(bare)
		switch {
		case bare == "phd":
			degree = "PhD"
		case len(bare) <= 4:
			// Initialisms like MS, MA, MSc, MBA, MFA stay upper-case;
			// "Masters" and "Master" keep the title form.
			degree = strings.ToUpper(bare)
		}
		return program + " " + degree
	}
	return program
}

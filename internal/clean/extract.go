// Package clean turns raw scraped survey entries into typed records. Every
// extractor is a pure function over one text string; a non-match returns
// nil, never an error and never a sentinel value.
package clean

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ewalsh/admitdb/internal/gradcafe"
)

// Decision statuses are tried in this fixed order; the first match wins.
var decisionExprs = []*regexp.Regexp{
	regexp.MustCompile(`\b(Accepted)\s+on\s+(\d{1,2}\s+[A-Za-z]{3}(?:\s+\d{4})?)`),
	regexp.MustCompile(`\b(Rejected)\s+on\s+(\d{1,2}\s+[A-Za-z]{3}(?:\s+\d{4})?)`),
	regexp.MustCompile(`\b(Wait\s?listed)\s+on\s+(\d{1,2}\s+[A-Za-z]{3}(?:\s+\d{4})?)`),
	regexp.MustCompile(`\b(Interview)\s+on\s+(\d{1,2}\s+[A-Za-z]{3}(?:\s+\d{4})?)`),
	regexp.MustCompile(`\b(Withdrawn)\s+on\s+(\d{1,2}\s+[A-Za-z]{3}(?:\s+\d{4})?)`),
}

var (
	commentsExpr    = regexp.MustCompile(`(?s)(?:Fall|Spring|Summer|Winter)\s\d{4}\s(?:International|American)\s*(.*)`)
	termExpr        = regexp.MustCompile(`(Fall|Spring|Summer|Winter)\s\d{4}`)
	citizenshipExpr = regexp.MustCompile(`(?i)\b(International|American)\b`)
	greExpr         = regexp.MustCompile(`GRE(?:\s[VQAWR]*)?\s(\d+)`)
	greVerbalExpr   = regexp.MustCompile(`GRE V (\d+)`)
	greAWExpr       = regexp.MustCompile(`GRE AW (\d+(\.\d+)?)`)
	degreeExpr      = regexp.MustCompile(`(?i)\b(Masters|PhD|MFA|PsyD)\b`)
	gpaExpr         = regexp.MustCompile(`GPA (\d\.\d+)`)
)

// ExtractDecision returns the applicant decision status and its date, or
// (nil, nil) when the text carries no decision.
func ExtractDecision(text string) (status, date *string) {
	for _, expr := range decisionExprs {
		if m := expr.FindStringSubmatch(text); m != nil {
			return &m[1], &m[2]
		}
	}
	return nil, nil
}

// commentNoise lists score and decision substrings that belong to other
// extractors and are removed from the comment blob. Order matters: the
// AW and Verbal forms must be stripped before the generic GRE pattern.
var commentNoise = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:Accepted|Rejected|Wait\s?listed|Interview|Withdrawn)\s+on\s+\d{1,2}\s+[A-Za-z]{3}(?:\s+\d{4})?`),
	regexp.MustCompile(`GRE AW \d+(?:\.\d+)?`),
	regexp.MustCompile(`GRE V \d+`),
	regexp.MustCompile(`GRE(?:\s[VQAWR]*)?\s\d+`),
	regexp.MustCompile(`GPA \d\.\d+`),
}

// ExtractComments returns the free-form comment following the
// "<Term> <Year> <American|International>" marker, with embedded GPA, GRE,
// and decision substrings stripped. Empty-after-stripping normalizes to nil.
func ExtractComments(text string) *string {
	m := commentsExpr.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	comment := m[1]
	for _, expr := range commentNoise {
		comment = expr.ReplaceAllString(comment, "")
	}
	comment = strings.Join(strings.Fields(comment), " ")
	if comment == "" {
		return nil
	}
	return &comment
}

// ExtractTerm returns the first program start term, e.g. "Fall 2026".
func ExtractTerm(text string) *string {
	if m := termExpr.FindString(text); m != "" {
		return &m
	}
	return nil
}

// ExtractCitizenship returns "International" or "American" regardless of
// the casing found in the text.
func ExtractCitizenship(text string) *string {
	m := citizenshipExpr.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	c := capitalize(m[1])
	return &c
}

// ExtractGRE returns the first overall GRE score. The pattern tolerates a
// score-type marker after "GRE", so "GRE 325 GRE V 160" yields 325: the
// verbal and AW variants are extracted separately by their own patterns.
func ExtractGRE(text string) (*int, error) {
	m := greExpr.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, fmt.Errorf("parsing GRE score %q: %w", m[1], err)
	}
	return &v, nil
}

// ExtractGREVerbal returns the GRE Verbal score.
func ExtractGREVerbal(text string) (*int, error) {
	m := greVerbalExpr.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, fmt.Errorf("parsing GRE V score %q: %w", m[1], err)
	}
	return &v, nil
}

// ExtractGREAW returns the GRE Analytical Writing score.
func ExtractGREAW(text string) (*float64, error) {
	m := greAWExpr.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, fmt.Errorf("parsing GRE AW score %q: %w", m[1], err)
	}
	return &v, nil
}

// ExtractDegree returns the degree type as written in the text.
func ExtractDegree(text string) *string {
	m := degreeExpr.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return &m[1]
}

// ExtractGPA returns the GPA value.
func ExtractGPA(text string) (*float64, error) {
	m := gpaExpr.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, fmt.Errorf("parsing GPA %q: %w", m[1], err)
	}
	return &v, nil
}

// FromRaw derives a typed Record from one raw scraped entry. The only
// possible error is a numeric literal that matched its pattern but failed
// to parse, which indicates corrupt source data.
func FromRaw(raw gradcafe.RawRecord) (Record, error) {
	status, date := ExtractDecision(raw.Decision)

	gre, err := ExtractGRE(raw.FullText)
	if err != nil {
		return Record{}, err
	}
	greV, err := ExtractGREVerbal(raw.FullText)
	if err != nil {
		return Record{}, err
	}
	greAW, err := ExtractGREAW(raw.FullText)
	if err != nil {
		return Record{}, err
	}
	gpa, err := ExtractGPA(raw.FullText)
	if err != nil {
		return Record{}, err
	}

	return Record{
		ProgramName:  raw.Program,
		University:   raw.University,
		Comments:     ExtractComments(raw.FullText),
		DateAdded:    NormalizeDate(raw.DateAdded),
		URL:          raw.URL,
		Status:       status,
		DecisionDate: date,
		Term:         ExtractTerm(raw.FullText),
		Citizenship:  ExtractCitizenship(raw.FullText),
		GRE:          gre,
		GREVerbal:    greV,
		GREAW:        greAW,
		Degree:       ExtractDegree(raw.FullText),
		GPA:          gpa,
	}, nil
}

var dateLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"2006-01-02",
}

// NormalizeDate converts a listing date into ISO form when one of the known
// layouts parses; unrecognized input is kept as-is.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// Package analytics computes the reporting aggregates served by the API.
// All percentages are rounded to two decimals in SQL; averages over empty
// sets come back as nil rather than zero.
package analytics

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/ewalsh/admitdb/internal/storage"
)

// Every report query carries the defensive row cap, even the single-row
// aggregates. The fixed LIMIT 1 on the top-university query is a business
// rule, not this cap, and stays separate.
var maxRows = uint64(storage.ClampLimit(storage.MaxAllowedLimit))

// Stats is the full aggregate report over the applicants table.
type Stats struct {
	Fall2026AppCount          int      `json:"fall_2026_app_count"`
	PercentInternational      *float64 `json:"percent_international"`
	AvgGPA                    *float64 `json:"avg_gpa"`
	AvgGRE                    *float64 `json:"avg_gre"`
	AvgGREVerbal              *float64 `json:"avg_gre_v"`
	AvgGREAW                  *float64 `json:"avg_gre_aw"`
	AvgGPAAmericanFall2026    *float64 `json:"avg_gpa_american_fall_2026"`
	PercentAcceptedFall2025   *float64 `json:"percent_accepted_fall_2025"`
	AvgGPAFall2026Acceptances *float64 `json:"avg_gpa_fall_2026_acceptances"`
	JHUCSMastersCount         int      `json:"jhu_cs_masters_count"`
	PhDCSTopSchoolsCount      int      `json:"num_entries_phd_cs_specified_schools"`
	LLMVariance               int      `json:"llm_variance"`
	RejectedMissingGPA        int      `json:"rejected_missing_gpa"`
	TopUniversity             string   `json:"top_university"`
	TopUniversityCount        int      `json:"top_count"`
}

// Aggregator runs the report queries against an open database.
type Aggregator struct {
	db *sql.DB
}

func New(db *sql.DB) *Aggregator {
	return &Aggregator{db: db}
}

// Collect runs every report query and assembles the Stats. The first query
// error aborts the report; partial stats are never returned.
func (a *Aggregator) Collect(ctx context.Context) (Stats, error) {
	var (
		s   Stats
		err error
	)

	if s.Fall2026AppCount, err = a.count(ctx, sq.Eq{"term": "Fall 2026"}); err != nil {
		return Stats{}, err
	}
	if s.PercentInternational, err = a.percent(ctx, "us_or_international = 'International'", sq.Expr("1 = 1")); err != nil {
		return Stats{}, err
	}
	if s.AvgGPA, err = a.avg(ctx, "gpa", sq.LtOrEq{"gpa": 5.0}); err != nil {
		return Stats{}, err
	}
	if s.AvgGRE, err = a.avg(ctx, "gre", sq.LtOrEq{"gre": 400}); err != nil {
		return Stats{}, err
	}
	if s.AvgGREVerbal, err = a.avg(ctx, "gre_v", sq.LtOrEq{"gre_v": 200}); err != nil {
		return Stats{}, err
	}
	if s.AvgGREAW, err = a.avg(ctx, "gre_aw", sq.LtOrEq{"gre_aw": 6.0}); err != nil {
		return Stats{}, err
	}
	if s.AvgGPAAmericanFall2026, err = a.avg(ctx, "gpa", sq.And{
		sq.Eq{"us_or_international": "American"},
		sq.Eq{"term": "Fall 2026"},
		sq.LtOrEq{"gpa": 5.0},
	}); err != nil {
		return Stats{}, err
	}
	if s.PercentAcceptedFall2025, err = a.percent(ctx, "status = 'Accepted'", sq.Eq{"term": "Fall 2025"}); err != nil {
		return Stats{}, err
	}
	if s.AvgGPAFall2026Acceptances, err = a.avg(ctx, "gpa", sq.And{
		sq.Eq{"term": "Fall 2026"},
		sq.Eq{"status": "Accepted"},
		sq.LtOrEq{"gpa": 5.0},
	}); err != nil {
		return Stats{}, err
	}
	if s.JHUCSMastersCount, err = a.count(ctx, sq.And{
		sq.Like{"program": "%Johns Hopkins%"},
		sq.Like{"program": "%Computer Science%"},
		sq.Like{"degree": "%Masters%"},
	}); err != nil {
		return Stats{}, err
	}
	if s.PhDCSTopSchoolsCount, err = a.phdCSTopSchools(ctx); err != nil {
		return Stats{}, err
	}
	if s.LLMVariance, err = a.llmVariance(ctx); err != nil {
		return Stats{}, err
	}
	if s.RejectedMissingGPA, err = a.count(ctx, sq.And{
		sq.Eq{"status": "Rejected"},
		sq.Eq{"gpa": nil},
	}); err != nil {
		return Stats{}, err
	}
	if s.TopUniversity, s.TopUniversityCount, err = a.topUniversity(ctx); err != nil {
		return Stats{}, err
	}
	return s, nil
}

func (a *Aggregator) count(ctx context.Context, pred any) (int, error) {
	query, args, err := sq.Select("COUNT(*)").From("applicants").Where(pred).Limit(maxRows).ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count query: %w", err)
	}
	var n int
	if err := a.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting applicants: %w", err)
	}
	return n, nil
}

func (a *Aggregator) avg(ctx context.Context, column string, pred any) (*float64, error) {
	query, args, err := sq.Select(fmt.Sprintf("ROUND(AVG(%s), 2)", column)).
		From("applicants").Where(pred).Limit(maxRows).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building avg query: %w", err)
	}
	var v sql.NullFloat64
	if err := a.db.QueryRowContext(ctx, query, args...).Scan(&v); err != nil {
		return nil, fmt.Errorf("averaging %s: %w", column, err)
	}
	if !v.Valid {
		return nil, nil
	}
	return &v.Float64, nil
}

// percent computes the share of rows matching cond among rows matching pred,
// as a percentage rounded to two decimals. Nil when pred matches nothing.
func (a *Aggregator) percent(ctx context.Context, cond string, pred any) (*float64, error) {
	query, args, err := sq.Select(
		fmt.Sprintf("ROUND(100.0 * SUM(CASE WHEN %s THEN 1 ELSE 0 END) / COUNT(*), 2)", cond)).
		From("applicants").Where(pred).Limit(maxRows).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building percent query: %w", err)
	}
	var v sql.NullFloat64
	if err := a.db.QueryRowContext(ctx, query, args...).Scan(&v); err != nil {
		return nil, fmt.Errorf("computing percentage: %w", err)
	}
	if !v.Valid {
		return nil, nil
	}
	return &v.Float64, nil
}

// phdCSAccepted2026 is the shared filter for the specified-schools count
// and the variance check: 2026 PhD Computer Science acceptances, with the
// program and university read from the given columns.
func phdCSAccepted2026(programCol, universityCol string) sq.And {
	return sq.And{
		sq.Expr("strftime('%Y', date_added) = '2026'"),
		sq.Eq{"status": "Accepted"},
		sq.Like{"degree": "%PhD%"},
		sq.Like{programCol: "%Computer Science%"},
		sq.Or{
			sq.Like{universityCol: "%Georgetown%"},
			sq.Like{universityCol: "%MIT%"},
			sq.Like{universityCol: "%Stanford%"},
			sq.Like{universityCol: "%Carnegie Mellon%"},
		},
	}
}

// phdCSTopSchools counts 2026 PhD Computer Science acceptances at a fixed
// set of schools of interest, matched against the raw program string.
func (a *Aggregator) phdCSTopSchools(ctx context.Context) (int, error) {
	return a.count(ctx, phdCSAccepted2026("program", "program"))
}

// llmVariance runs the same acceptance filter twice, once on the raw
// program string and once on the model-standardized fields, and reports the
// difference. Non-zero means the model's naming drifted from the source.
func (a *Aggregator) llmVariance(ctx context.Context) (int, error) {
	raw, err := a.count(ctx, phdCSAccepted2026("program", "program"))
	if err != nil {
		return 0, err
	}
	standardized, err := a.count(ctx,
		phdCSAccepted2026("llm_generated_program", "llm_generated_university"))
	if err != nil {
		return 0, err
	}
	return raw - standardized, nil
}

// topUniversity returns the school with the most accepted entries,
// recovered from the "<University> - <Program>" form of the program column.
// Empty when no accepted row carries the separator.
func (a *Aggregator) topUniversity(ctx context.Context) (string, int, error) {
	query, args, err := sq.Select(
		"TRIM(substr(program, 1, instr(program, ' - ') - 1)) AS university",
		"COUNT(*) AS n").
		From("applicants").
		Where(sq.And{
			sq.Eq{"status": "Accepted"},
			sq.Like{"program": "% - %"},
		}).
		GroupBy("university").
		OrderBy("n DESC", "university ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return "", 0, fmt.Errorf("building top university query: %w", err)
	}
	var (
		uni string
		n   int
	)
	switch err := a.db.QueryRowContext(ctx, query, args...).Scan(&uni, &n); err {
	case nil:
		return uni, n, nil
	case sql.ErrNoRows:
		return "", 0, nil
	default:
		return "", 0, fmt.Errorf("finding top university: %w", err)
	}
}

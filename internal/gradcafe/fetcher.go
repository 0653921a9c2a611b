// Package gradcafe retrieves raw survey rows from the paginated GradCafe
// results listing.
package gradcafe

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const defaultBaseURL = "https://www.thegradcafe.com/survey/"

// RawRecord is one survey entry as scraped, before any cleaning. The Seq id
// is assigned in fetch order and is not a stable identity across runs.
type RawRecord struct {
	Seq        int    `json:"-"`
	University string `json:"university"`
	Program    string `json:"program"`
	DateAdded  string `json:"date_added"`
	Decision   string `json:"decision"`
	FullText   string `json:"text"`
	Page       int    `json:"page"`
	URL        string `json:"url"`
}

// Fetcher downloads listing pages and extracts raw records.
type Fetcher struct {
	client    *http.Client
	baseURL   string
	userAgent string
	logger    *slog.Logger
}

// NewFetcher wires an HTTP client; nil client and empty baseURL fall back to
// defaults.
func NewFetcher(client *http.Client, baseURL, userAgent string) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if userAgent == "" {
		userAgent = "Mozilla/5.0 admitdb/1.0"
	}
	return &Fetcher{
		client:    client,
		baseURL:   baseURL,
		userAgent: userAgent,
		logger:    slog.Default(),
	}
}

// FetchPages retrieves pages start..end inclusive. A failing page is logged
// and skipped; it never aborts the fetch. Records are returned in fetch
// order with monotonically increasing Seq ids starting at 1.
func (f *Fetcher) FetchPages(ctx context.Context, start, end int) []RawRecord {
	var out []RawRecord
	seq := 0

	for page := start; page <= end; page++ {
		if ctx.Err() != nil {
			break
		}

		pageURL := f.pageURL(page)
		records, err := f.fetchPage(ctx, pageURL)
		if err != nil {
			f.logger.Warn("skipping page", "page", page, "url", pageURL, "error", err)
			continue
		}

		for i := range records {
			seq++
			records[i].Seq = seq
			records[i].Page = page
			records[i].URL = pageURL
		}
		out = append(out, records...)
	}

	return out
}

func (f *Fetcher) pageURL(page int) string {
	u, err := url.Parse(f.baseURL)
	if err != nil {
		return f.baseURL
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

func (f *Fetcher) fetchPage(ctx context.Context, pageURL string) ([]RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return parseRows(doc), nil
}

// parseRows walks every table row, grouping each primary row with the
// continuation rows that follow it. A primary row has at least four cells
// and a non-empty first cell; anything else extends the previous primary
// row's free-text blob.
func parseRows(doc *goquery.Document) []RawRecord {
	var rows []*goquery.Selection
	doc.Find("tr").Each(func(_ int, s *goquery.Selection) {
		rows = append(rows, s)
	})

	var out []RawRecord
	for i := 0; i < len(rows); {
		rec, ok := parsePrimaryRow(rows[i])
		if !ok {
			i++
			continue
		}

		j := i + 1
		for j < len(rows) && !isPrimaryRow(rows[j]) {
			rec.FullText += " " + rowText(rows[j])
			j++
		}
		out = append(out, rec)
		i = j
	}
	return out
}

func isPrimaryRow(row *goquery.Selection) bool {
	cells := row.Find("td")
	return cells.Length() >= 4 && cellText(cells.Eq(0)) != ""
}

func parsePrimaryRow(row *goquery.Selection) (RawRecord, bool) {
	cells := row.Find("td")
	if cells.Length() < 4 || cellText(cells.Eq(0)) == "" {
		return RawRecord{}, false
	}
	return RawRecord{
		University: cellText(cells.Eq(0)),
		Program:    cellText(cells.Eq(1)),
		DateAdded:  cellText(cells.Eq(2)),
		Decision:   cellText(cells.Eq(3)),
		FullText:   rowText(row),
	}, true
}

// cellText collapses all whitespace inside a cell to single spaces.
func cellText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// rowText joins the text of every cell with single spaces, falling back to
// the row's own text for cell-less rows.
func rowText(row *goquery.Selection) string {
	var parts []string
	row.Find("td").Each(func(_ int, cell *goquery.Selection) {
		if t := cellText(cell); t != "" {
			parts = append(parts, t)
		}
	})
	if len(parts) == 0 {
		return cellText(row)
	}
	return strings.Join(parts, " ")
}

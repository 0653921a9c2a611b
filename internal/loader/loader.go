// Package loader moves scraped entries into storage: extraction, model
// standardization, then idempotent inserts keyed on the entry URL.
package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"

	"github.com/ewalsh/admitdb/internal/clean"
	"github.com/ewalsh/admitdb/internal/gradcafe"
	"github.com/ewalsh/admitdb/internal/standardize"
	"github.com/ewalsh/admitdb/internal/storage"
)

// Standardizer yields canonical program/university names for one entry.
type Standardizer interface {
	Standardize(ctx context.Context, text string) standardize.Result
}

// Store is the slice of the database the loader writes through.
type Store interface {
	InsertApplication(ctx context.Context, app storage.Application) (bool, error)
}

// Loader drives records from the scraper into the database.
type Loader struct {
	standardizer Standardizer
	store        Store
	logger       *slog.Logger
}

func New(standardizer Standardizer, store Store, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{standardizer: standardizer, store: store, logger: logger}
}

// Sync cleans, standardizes, and inserts fetched records in order, stopping
// at the first record whose full text equals marker: everything from there
// on was loaded by a previous run. A malformed record is logged and skipped,
// never fatal. Returns the number of rows actually inserted; duplicates
// skipped by the URL constraint do not count.
func (l *Loader) Sync(ctx context.Context, marker string, fetched []gradcafe.RawRecord) int {
	inserted := 0
	for _, raw := range fetched {
		if marker != "" && raw.FullText == marker {
			l.logger.Info("reached previously loaded entry, stopping", "seq", raw.Seq)
			break
		}

		rec, err := clean.FromRaw(raw)
		if err != nil {
			l.logger.Warn("skipping malformed entry", "seq", raw.Seq, "url", raw.URL, "error", err)
			continue
		}

		res := l.standardizer.Standardize(ctx, standardize.RowText(rec))
		rec.LLMProgram = res.Program
		rec.LLMUniversity = res.University

		ok, err := l.store.InsertApplication(ctx, toApplication(rec))
		if err != nil {
			l.logger.Warn("insert failed", "url", rec.URL, "error", err)
			continue
		}
		if ok {
			inserted++
		}
	}
	return inserted
}

// LoadFile inserts pre-cleaned records from a JSON file, a bare list or an
// index-keyed object. A missing or unreadable file loads zero rows and is
// not an error, so a fresh deployment can start before any scrape ran.
func (l *Loader) LoadFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			l.logger.Info("no data file to load", "path", path)
			return 0, nil
		}
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}

	records, err := decodeRecords(data)
	if err != nil {
		l.logger.Warn("data file did not parse, loading nothing", "path", path, "error", err)
		return 0, nil
	}

	inserted := 0
	for _, rec := range records {
		ok, err := l.store.InsertApplication(ctx, toApplication(rec))
		if err != nil {
			l.logger.Warn("insert failed", "url", rec.URL, "error", err)
			continue
		}
		if ok {
			inserted++
		}
	}
	return inserted, nil
}

// decodeRecords accepts either a JSON list of records or an object keyed by
// numeric index, returned in ascending key order.
func decodeRecords(data []byte) ([]clean.Record, error) {
	var list []clean.Record
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var keyed map[string]clean.Record
	if err := json.Unmarshal(data, &keyed); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(keyed))
	for k := range keyed {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA != nil || errB != nil {
			return keys[i] < keys[j]
		}
		return a < b
	})

	records := make([]clean.Record, 0, len(keys))
	for _, k := range keys {
		records = append(records, keyed[k])
	}
	return records, nil
}

// toApplication flattens a record into its stored row. The program column
// carries "<University> - <Program>" so the school can be recovered from a
// single field; entries with no school store the program alone.
func toApplication(rec clean.Record) storage.Application {
	program := rec.ProgramName
	if rec.University != "" {
		program = rec.University + " - " + rec.ProgramName
	}
	return storage.Application{
		Program:       program,
		Comments:      rec.Comments,
		DateAdded:     rec.DateAdded,
		URL:           rec.URL,
		Status:        rec.Status,
		Term:          rec.Term,
		Citizenship:   rec.Citizenship,
		GPA:           rec.GPA,
		GRE:           rec.GRE,
		GREVerbal:     rec.GREVerbal,
		GREAW:         rec.GREAW,
		Degree:        rec.Degree,
		LLMProgram:    rec.LLMProgram,
		LLMUniversity: rec.LLMUniversity,
	}
}

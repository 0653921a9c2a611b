package refresh

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ewalsh/admitdb/internal/gradcafe"
)

// ErrBusy is returned when a refresh is requested while one is running.
var ErrBusy = errors.New("refresh already in progress")

// Fetcher pulls raw records from the source.
type Fetcher interface {
	FetchPages(ctx context.Context, start, end int) []gradcafe.RawRecord
}

// Syncer loads fetched records up to the delta marker and reports how many
// rows it inserted.
type Syncer interface {
	Sync(ctx context.Context, marker string, fetched []gradcafe.RawRecord) int
}

// Runner owns the refresh cycle: gate, fetch, delta sync. One Runner per
// process.
type Runner struct {
	gate         Gate
	fetcher      Fetcher
	syncer       Syncer
	snapshotPath string
	startPage    int
	endPage      int
	logger       *slog.Logger
}

func NewRunner(fetcher Fetcher, syncer Syncer, snapshotPath string, startPage, endPage int, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		fetcher:      fetcher,
		syncer:       syncer,
		snapshotPath: snapshotPath,
		startPage:    startPage,
		endPage:      endPage,
		logger:       logger,
	}
}

// Refreshing reports whether a run is currently in flight.
func (r *Runner) Refreshing() bool {
	return r.gate.Refreshing()
}

// Request starts a refresh in the background and returns immediately, or
// returns ErrBusy when one is already running. The run outlives the
// request's context: cancelling an HTTP request must not abort a half-done
// load. The gate is released whatever happens inside the run, panics
// included.
func (r *Runner) Request(ctx context.Context) error {
	if !r.gate.TryBegin() {
		return ErrBusy
	}

	runID := uuid.NewString()
	runCtx := context.WithoutCancel(ctx)

	go func() {
		defer r.gate.End()
		defer func() {
			if p := recover(); p != nil {
				r.logger.Error("refresh run panicked", "run_id", runID, "panic", p)
			}
		}()
		r.run(runCtx, runID)
	}()
	return nil
}

func (r *Runner) run(ctx context.Context, runID string) {
	started := time.Now()
	marker := gradcafe.LoadMarker(r.snapshotPath)
	r.logger.Info("refresh started",
		"run_id", runID, "pages", r.endPage-r.startPage+1, "have_marker", marker != "")

	fetched := r.fetcher.FetchPages(ctx, r.startPage, r.endPage)
	inserted := r.syncer.Sync(ctx, marker, fetched)

	r.logger.Info("refresh finished",
		"run_id", runID, "fetched", len(fetched), "inserted", inserted,
		"elapsed", time.Since(started).Round(time.Millisecond))
}

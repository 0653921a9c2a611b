// Package api exposes the service over HTTP: health, refresh control,
// analytics, and batch standardization.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ewalsh/admitdb/internal/analytics"
	"github.com/ewalsh/admitdb/internal/clean"
	"github.com/ewalsh/admitdb/internal/refresh"
	"github.com/ewalsh/admitdb/internal/storage"
)

const maxBodyBytes = 10 << 20

// Refresher starts background refresh runs and reports their state.
type Refresher interface {
	Request(ctx context.Context) error
	Refreshing() bool
}

// StatsReader produces the aggregate report.
type StatsReader interface {
	Collect(ctx context.Context) (analytics.Stats, error)
}

// RowStandardizer fills the llm-generated fields of a batch of records.
type RowStandardizer interface {
	StandardizeRows(ctx context.Context, rows []clean.Record) []clean.Record
}

// Deps carries everything the handlers need.
type Deps struct {
	Refresher    Refresher
	Stats        StatsReader
	Standardizer RowStandardizer
	Logger       *slog.Logger
}

type handler struct {
	deps Deps
}

// NewRouter wires the HTTP surface.
func NewRouter(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	h := &handler{deps: deps}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(deps.Logger))

	r.Get("/health", h.health)
	r.Post("/refresh", h.startRefresh)
	r.Get("/refresh/status", h.refreshStatus)
	r.Post("/refresh/status", h.refreshStatus)
	r.Get("/analysis", h.analysis)
	r.Post("/standardize", h.standardize)
	return r
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *handler) startRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Refresher.Request(r.Context()); err != nil {
		if errors.Is(err, refresh.ErrBusy) {
			writeJSON(w, http.StatusConflict, map[string]bool{"busy": true})
			return
		}
		h.httpError(w, http.StatusInternalServerError, "starting refresh", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// refreshStatus answers with the same two shapes as the trigger endpoint:
// busy is a normal outcome, not an error.
func (h *handler) refreshStatus(w http.ResponseWriter, _ *http.Request) {
	if h.deps.Refresher.Refreshing() {
		writeJSON(w, http.StatusConflict, map[string]bool{"busy": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type analysisResponse struct {
	analytics.Stats
	IsRefreshing bool `json:"is_refreshing"`
}

// analysis serves the report unconditionally: a running refresh makes the
// numbers stale, never unavailable.
func (h *handler) analysis(w http.ResponseWriter, r *http.Request) {
	stats, err := h.deps.Stats.Collect(r.Context())
	if err != nil {
		h.httpError(w, http.StatusInternalServerError, "collecting stats", err)
		return
	}
	writeJSON(w, http.StatusOK, analysisResponse{
		Stats:        stats,
		IsRefreshing: h.deps.Refresher.Refreshing(),
	})
}

func (h *handler) standardize(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.httpError(w, http.StatusBadRequest, "reading request body", err)
		return
	}
	rows, err := decodeRows(body)
	if err != nil {
		h.httpError(w, http.StatusBadRequest, "parsing request body", err)
		return
	}
	// Each row is a model call; the optional limit caps the batch the same
	// way every stored query is capped.
	if lim := r.URL.Query().Get("limit"); lim != "" {
		if n := storage.ParseLimit(lim); len(rows) > n {
			rows = rows[:n]
		}
	}
	rows = h.deps.Standardizer.StandardizeRows(r.Context(), rows)
	writeJSON(w, http.StatusOK, map[string][]clean.Record{"rows": rows})
}

// decodeRows accepts a bare list of records or a {"rows": [...]} object.
func decodeRows(body []byte) ([]clean.Record, error) {
	var rows []clean.Record
	if err := json.Unmarshal(body, &rows); err == nil {
		return rows, nil
	}
	var env struct {
		Rows []clean.Record `json:"rows"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	return env.Rows, nil
}

func (h *handler) httpError(w http.ResponseWriter, status int, msg string, err error) {
	h.deps.Logger.Error(msg, "error", err)
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("writing response", "error", err)
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"elapsed", time.Since(started).Round(time.Millisecond),
			)
		})
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ewalsh/admitdb/internal/analytics"
	"github.com/ewalsh/admitdb/internal/api"
	"github.com/ewalsh/admitdb/internal/config"
	"github.com/ewalsh/admitdb/internal/gradcafe"
	"github.com/ewalsh/admitdb/internal/loader"
	"github.com/ewalsh/admitdb/internal/ollama"
	"github.com/ewalsh/admitdb/internal/refresh"
	"github.com/ewalsh/admitdb/internal/standardize"
	"github.com/ewalsh/admitdb/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admitdb HTTP server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "admitdb version %s\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Probe the model server. The service still comes up without it: the
	// standardizer degrades to its rule-based fallback per entry.
	ollamaClient := ollama.New(cfg.Ollama.BaseURL)
	switch {
	case !ollamaClient.IsRunning(ctx):
		printWarning("ollama not reachable at %s, standardization will use the fallback path", cfg.Ollama.BaseURL)
	case !ollamaClient.HasModel(ctx, cfg.Ollama.Model):
		printWarning("model %q not pulled, standardization will use the fallback path", cfg.Ollama.Model)
	default:
		printSuccess("ollama ready with model %s", cfg.Ollama.Model)
	}

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing storage", "error", err)
		}
	}()

	if n, err := store.CountApplications(ctx); err != nil {
		logger.Warn("counting stored applications", "error", err)
	} else {
		logger.Info("storage ready", "applications", n)
	}

	standardizer := standardize.New(ollamaClient, cfg.Ollama.Model, logger)
	fetcher := gradcafe.NewFetcher(nil, cfg.Scrape.BaseURL, cfg.Scrape.UserAgent)
	load := loader.New(standardizer, store, logger)
	runner := refresh.NewRunner(fetcher, load, cfg.SnapshotPath(),
		cfg.Refresh.StartPage, cfg.Refresh.EndPage, logger)
	aggregator := analytics.New(store.DB())

	handler := api.NewRouter(api.Deps{
		Refresher:    runner,
		Stats:        aggregator,
		Standardizer: standardizer,
		Logger:       logger,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Scheduled refreshes go through the same gate as manual ones, so an
	// overlapping trigger just gets busy and is dropped.
	if cfg.Refresh.Schedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(cfg.Refresh.Schedule, func() {
			if err := runner.Request(context.Background()); err != nil {
				logger.Info("scheduled refresh skipped", "reason", err)
			}
		}); err != nil {
			return fmt.Errorf("parsing refresh schedule %q: %w", cfg.Refresh.Schedule, err)
		}
		c.Start()
		defer c.Stop()
		logger.Info("scheduled refresh enabled", "schedule", cfg.Refresh.Schedule)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fmt.Fprintf(os.Stderr, "admitdb listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		fmt.Fprintln(os.Stderr, "shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

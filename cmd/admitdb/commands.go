package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ewalsh/admitdb/internal/clean"
	"github.com/ewalsh/admitdb/internal/config"
	"github.com/ewalsh/admitdb/internal/gradcafe"
	"github.com/ewalsh/admitdb/internal/loader"
	"github.com/ewalsh/admitdb/internal/ollama"
	"github.com/ewalsh/admitdb/internal/standardize"
	"github.com/ewalsh/admitdb/internal/storage"
)

// --- scrape ---

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch survey pages and write raw and cleaned data files",
	Long: `Fetch survey pages and write raw and cleaned data files.

The raw snapshot keeps the newest entry's text as the delta marker for
later refresh runs; the cleaned file holds typed records ready for
standardization and loading.

Examples:
  admitdb scrape --start 1 --end 20
  admitdb scrape --end 5 --out ./cleaned.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		start, _ := cmd.Flags().GetInt("start")
		end, _ := cmd.Flags().GetInt("end")
		out, _ := cmd.Flags().GetString("out")
		if start == 0 {
			start = cfg.Scrape.StartPage
		}
		if end == 0 {
			end = cfg.Scrape.EndPage
		}
		if out == "" {
			out = filepath.Join(cfg.Storage.DataDir, "cleaned_applicant_data.json")
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		printStep("fetching pages %d..%d", start, end)
		fetcher := gradcafe.NewFetcher(nil, cfg.Scrape.BaseURL, cfg.Scrape.UserAgent)
		records := fetcher.FetchPages(ctx, start, end)
		if len(records) == 0 {
			return fmt.Errorf("no records fetched")
		}

		if err := os.MkdirAll(filepath.Dir(cfg.SnapshotPath()), 0o755); err != nil {
			return fmt.Errorf("creating data dir: %w", err)
		}
		if err := gradcafe.SaveSnapshot(cfg.SnapshotPath(), records); err != nil {
			return fmt.Errorf("saving snapshot: %w", err)
		}

		cleaned := make([]clean.Record, 0, len(records))
		for _, raw := range records {
			rec, err := clean.FromRaw(raw)
			if err != nil {
				printWarning("skipping entry %d: %v", raw.Seq, err)
				continue
			}
			cleaned = append(cleaned, rec)
		}
		data, err := json.MarshalIndent(cleaned, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding cleaned records: %w", err)
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}

		printSuccess("scraped %d entries", len(records))
		printStatus("Snapshot", "%s", cfg.SnapshotPath())
		printStatus("Cleaned", "%s (%d records)", out, len(cleaned))
		return nil
	},
}

// --- load ---

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load cleaned records from a JSON file into the database",
	Long: `Load cleaned records from a JSON file into the database.

Input is a JSON list of records or an index-keyed object. Rows whose URL
is already stored are skipped; a missing file loads zero rows.

Examples:
  admitdb load
  admitdb load --file ./standardized.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		file, _ := cmd.Flags().GetString("file")
		if file == "" {
			file = filepath.Join(cfg.Storage.DataDir, "cleaned_applicant_data.json")
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
		load := loader.New(standardize.New(nil, "", logger), store, logger)

		n, err := load.LoadFile(ctx, file)
		if err != nil {
			return err
		}
		printSuccess("loaded %d new rows from %s", n, file)
		return nil
	},
}

// --- standardize ---

var standardizeCmd = &cobra.Command{
	Use:   "standardize",
	Short: "Standardize program and university names for a batch of records",
	Long: `Standardize program and university names for a batch of records.

Input is a JSON list of records or a {"rows": [...]} object; output is
JSON Lines, one record per line, written as each row finishes.

Examples:
  admitdb standardize --file ./cleaned.json --out ./standardized.jsonl
  admitdb standardize --file ./cleaned.json --stdout
  admitdb standardize --file ./more.json --out ./standardized.jsonl --append`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		file, _ := cmd.Flags().GetString("file")
		out, _ := cmd.Flags().GetString("out")
		appendOut, _ := cmd.Flags().GetBool("append")
		toStdout, _ := cmd.Flags().GetBool("stdout")
		if file == "" {
			return fmt.Errorf("--file is required")
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
		ollamaClient := ollama.New(cfg.Ollama.BaseURL)
		if !ollamaClient.IsRunning(ctx) {
			printWarning("ollama not reachable, using the fallback path for every row")
		}
		s := standardize.New(ollamaClient, cfg.Ollama.Model, logger)

		dst, err := standardize.OpenOutput(out, appendOut, toStdout)
		if err != nil {
			return err
		}
		defer dst.Close()

		n, err := s.ProcessFile(ctx, file, dst)
		if err != nil {
			return fmt.Errorf("standardizing %s: %w", file, err)
		}
		printSuccess("standardized %d rows", n)
		return nil
	},
}

func init() {
	scrapeCmd.Flags().Int("start", 0, "first page to fetch (default from config)")
	scrapeCmd.Flags().Int("end", 0, "last page to fetch (default from config)")
	scrapeCmd.Flags().String("out", "", "cleaned output file (default <data_dir>/cleaned_applicant_data.json)")

	loadCmd.Flags().String("file", "", "input file (default <data_dir>/cleaned_applicant_data.json)")

	standardizeCmd.Flags().String("file", "", "input JSON file of records")
	standardizeCmd.Flags().String("out", "", "output JSONL file")
	standardizeCmd.Flags().Bool("append", false, "append to the output file instead of truncating")
	standardizeCmd.Flags().Bool("stdout", false, "write JSONL to stdout")
}

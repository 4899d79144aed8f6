package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/use-agent/rerascrape/api"
	"github.com/use-agent/rerascrape/cache"
	"github.com/use-agent/rerascrape/config"
	"github.com/use-agent/rerascrape/engine"
	"github.com/use-agent/rerascrape/export"
	"github.com/use-agent/rerascrape/models"
	"github.com/use-agent/rerascrape/scraper"
	"github.com/use-agent/rerascrape/webhook"
)

func main() {
	os.Exit(run())
}

// run performs one collection run and returns the process exit code.
func run() (code int) {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		return 2
	}

	// ── 2. Initialise structured logging ────────────────────────────
	runID := uuid.NewString()
	initLogger(cfg.Log, runID)
	slog.Info("rerascrape starting",
		"listing", cfg.Target.ListingURL,
		"target", cfg.Target.Count,
		"headless", cfg.Browser.Headless,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 3. Preflight probe (informational) ──────────────────────────
	if cfg.Scraper.Probe {
		probe(ctx, cfg)
	}

	// ── 4. Launch browser ───────────────────────────────────────────
	sc, err := scraper.NewScraper(cfg.Browser)
	if err != nil {
		slog.Error("failed to launch browser", "error", err)
		return 1
	}
	defer sc.Close()

	ledger := cache.NewLedger()
	collector := scraper.NewCollector(sc.Session(), ledger, scraper.CollectorOptions{
		RunID:   runID,
		Target:  cfg.Target,
		Scraper: cfg.Scraper,
	})

	// Anything escaping the pipeline still gets its records persisted, once.
	persisted := false
	defer func() {
		if r := recover(); r != nil {
			slog.Error("unexpected failure", "panic", r, "stack", string(debug.Stack()))
			screenshot(sc.Session(), cfg.Output.ErrorScreenshot)
			if !persisted {
				_ = persist(cfg, ledger.Records())
			}
			code = 1
		}
	}()

	// ── 5. Status server (optional) ─────────────────────────────────
	if cfg.Status.Addr != "" {
		srv := &http.Server{
			Addr:    cfg.Status.Addr,
			Handler: api.NewRouter(collector, cfg.Status, time.Now()),
		}
		go func() {
			slog.Info("status server listening", "addr", cfg.Status.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("status server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("status server forced shutdown", "error", err)
			}
		}()
	}

	// ── 6. Collect ──────────────────────────────────────────────────
	res, runErr := collector.Run(ctx)
	if runErr != nil {
		slog.Error("run failed", "error", runErr)
		path := cfg.Output.ErrorScreenshot
		var se *models.ScrapeError
		if errors.As(runErr, &se) && se.Code == models.ErrCodeNoCandidates {
			path = cfg.Output.EmptyScreenshot
		}
		screenshot(sc.Session(), path)
	}

	// ── 7. Persist and report ───────────────────────────────────────
	exportErr := persist(cfg, res.Records)
	persisted = true
	status := collector.Status()
	export.RenderSummary(os.Stdout, res.Records, status)

	if cfg.Webhook.URL != "" {
		summary := webhook.RunSummary{Status: status, Records: len(res.Records)}
		if len(res.Records) > 0 && exportErr == nil {
			summary.CSV = cfg.Output.CSVPath
			summary.XLSX = cfg.Output.XLSXPath
		}
		client := webhook.NewClient(cfg.Webhook.URL, cfg.Webhook.Secret)
		// Delivery outlives a SIGINT so the endpoint still hears about the run.
		if err := client.DeliverWithRetry(context.WithoutCancel(ctx), webhook.NewRunCompleted(runID, summary)); err != nil {
			slog.Warn("run notification not delivered", "error", err)
		}
	}

	slog.Info("rerascrape finished",
		"collected", len(res.Records),
		"target", cfg.Target.Count,
		"skipped", res.Skipped,
		"reloads", res.Reloads,
	)
	if runErr != nil || exportErr != nil {
		return 1
	}
	return 0
}

// probe logs what a plain HTTP client sees at the listing URL.
func probe(ctx context.Context, cfg *config.Config) {
	probeCtx, cancel := context.WithTimeout(ctx, cfg.Scraper.ProbeTimeout)
	defer cancel()

	report, err := scraper.Probe(probeCtx, cfg.Target.ListingURL, cfg.Browser.Proxy)
	if err != nil {
		slog.Warn("listing probe failed", "url", cfg.Target.ListingURL, "error", err)
		return
	}
	slog.Info("listing probe",
		"status", report.StatusCode,
		"title", report.Title,
		"bytes", report.Bytes,
		"needs_browser", report.NeedsBrowser,
	)
}

// persist writes records when there are any.
func persist(cfg *config.Config, records []models.ProjectRecord) error {
	if len(records) == 0 {
		slog.Warn("no project data was collected")
		return nil
	}
	err := export.Persist(records, export.Paths{CSV: cfg.Output.CSVPath, XLSX: cfg.Output.XLSXPath})
	if err != nil {
		slog.Error("failed to save results", "error", err)
	}
	return err
}

// screenshot captures the current tab to path. Failures are logged only.
func screenshot(session engine.Session, path string) {
	if path == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	png, err := session.Current().Screenshot(ctx)
	if err != nil {
		slog.Warn("screenshot failed", "error", err)
		return
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		slog.Warn("screenshot not saved", "path", path, "error", err)
		return
	}
	slog.Info("screenshot saved", "path", path)
}

// initLogger configures slog based on the LogConfig. Every line carries the
// run ID.
func initLogger(cfg config.LogConfig, runID string) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler).With("run_id", runID))
}

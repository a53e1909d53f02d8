package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"mpbcrawl/config"
	"mpbcrawl/models"
	"mpbcrawl/notes"
	"mpbcrawl/notify"
	"mpbcrawl/report"
	"mpbcrawl/scraper"
)

func main() {
	maxPages := flag.Int("max-pages", -1, "Maximum listing pages to walk (0 = unlimited)")
	outputDir := flag.String("output-dir", "", "Report output directory")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics listen address (e.g. :9090)")
	cronSpec := flag.String("cron", "", "Run on a cron schedule instead of once (e.g. \"@every 12h\")")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	flag.Parse()

	logger := newLogger(*verbose)
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading configuration", slog.Any("error", err))
		os.Exit(1)
	}
	if *maxPages >= 0 {
		cfg.Crawl.MaxPages = *maxPages
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}
	if *cronSpec != "" {
		cfg.Crawl.CronSpec = *cronSpec
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, finishing current work")
	}()

	metrics := scraper.NewMetrics()
	var metricsServer *http.Server
	if cfg.Metrics.Addr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.Metrics.Addr,
			Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.Metrics.Addr))
	}

	exitCode := 0
	if cfg.Crawl.CronSpec != "" {
		runScheduled(ctx, cfg, metrics)
	} else if err := runOnce(ctx, cfg, metrics); err != nil {
		slog.Error("crawl run failed", slog.Any("error", err))
		exitCode = 1
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	os.Exit(exitCode)
}

// runScheduled loops crawl runs on the configured cron spec, with one run
// fired immediately. Each cycle builds a fresh run context.
func runScheduled(ctx context.Context, cfg *config.Config, metrics *scraper.Metrics) {
	c := cron.New()
	_, err := c.AddFunc(cfg.Crawl.CronSpec, func() {
		if ctx.Err() != nil {
			return
		}
		if err := runOnce(ctx, cfg, metrics); err != nil {
			slog.Error("scheduled crawl run failed", slog.Any("error", err))
		}
	})
	if err != nil {
		slog.Error("invalid cron spec", slog.String("spec", cfg.Crawl.CronSpec), slog.Any("error", err))
		return
	}

	c.Start()
	slog.Info("cron started", slog.String("spec", cfg.Crawl.CronSpec))

	if err := runOnce(ctx, cfg, metrics); err != nil {
		slog.Error("initial crawl run failed", slog.Any("error", err))
	}

	<-ctx.Done()
	<-c.Stop().Done()
	slog.Info("cron stopped")
}

// runOnce executes a single crawl end to end: crawl, report file, optional
// Postgres row, summary email.
func runOnce(ctx context.Context, cfg *config.Config, metrics *scraper.Metrics) error {
	store, err := buildNotesStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open notes store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("close notes store", slog.Any("error", err))
		}
	}()

	cache := notes.NewCache(ctx, store)

	crawler, err := scraper.New(cfg, cache, metrics)
	if err != nil {
		return fmt.Errorf("build crawler: %w", err)
	}

	rep, err := crawler.Run(ctx)
	if err != nil {
		return fmt.Errorf("run crawl: %w", err)
	}

	outputPath := report.DefaultPath(cfg.Output.Dir, time.Now())
	if err := report.Write(outputPath, rep); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	slog.Info("report written", slog.String("path", outputPath))

	if cfg.Output.PostgresDSN != "" {
		if err := saveToPostgres(ctx, cfg.Output.PostgresDSN, rep); err != nil {
			slog.Error("postgres report sink failed", slog.Any("error", err))
		}
	}

	mailer := notify.New(cfg.Mail)
	if err := mailer.Send(rep, outputPath); err != nil {
		slog.Error("summary email dropped", slog.Any("error", err))
	}

	printSummary(rep, outputPath)
	return nil
}

func buildNotesStore(ctx context.Context, cfg *config.Config) (notes.Store, error) {
	switch cfg.Notes.Backend {
	case "redis":
		return notes.NewRedisStore(ctx, cfg.Notes.RedisURL, cfg.Notes.RedisKey)
	default:
		return notes.NewFileStore(cfg.Notes.File)
	}
}

func saveToPostgres(ctx context.Context, dsn string, rep *models.RunReport) error {
	sink, err := report.NewPGSink(ctx, dsn)
	if err != nil {
		return err
	}
	defer sink.Close()
	return sink.Save(ctx, rep)
}

func printSummary(rep *models.RunReport, outputPath string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Crawl complete")
	fmt.Printf("  Run ID:             %s\n", rep.ScrapeRunID)
	fmt.Printf("  Status:             %s\n", rep.Status)
	fmt.Printf("  Variants listed:    %d\n", rep.Stats.TotalVariantsExists)
	fmt.Printf("  Variants scraped:   %d\n", rep.Stats.TotalVariantsScrapped)
	fmt.Printf("  Products grouped:   %d\n", rep.Stats.TotalProductsScrapped)
	fmt.Printf("  Cache hits:         %d\n", rep.Stats.CacheHits)
	fmt.Printf("  New detail fetches: %d\n", rep.Stats.NewDetailFetches)
	fmt.Printf("  Duplicates skipped: %d\n", rep.Stats.DuplicateVariantsSkipped)
	fmt.Printf("  Failed pages:       %d (listing %d, detail %d)\n",
		rep.Stats.FailedPages, rep.Stats.FailedListingPages, rep.Stats.FailedDetailFetches)
	fmt.Printf("  Duration:           %ds\n", rep.Stats.DurationSeconds)
	fmt.Printf("  Output file:        %s\n", outputPath)
	fmt.Println(separator)
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

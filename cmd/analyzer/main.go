package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/riskibarqy/h2h-analyzer/internal/app"
	"github.com/riskibarqy/h2h-analyzer/internal/config"
	"github.com/riskibarqy/h2h-analyzer/internal/domain/report"
	"github.com/riskibarqy/h2h-analyzer/internal/observability"
	"github.com/riskibarqy/h2h-analyzer/internal/platform/logging"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("analyzer", flag.ContinueOnError)
	dateFlag := flags.String("date", "", "fixture date as YYYY-MM-DD (default: today in ANALYSIS_TIMEZONE)")
	outFlag := flags.String("out", "", "results file path (overrides RESULTS_PATH)")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}
	if out := strings.TrimSpace(*outFlag); out != "" {
		cfg.ResultsPath = out
	}
	// The CLI never serves pprof; a stray PPROF_ENABLED would hold the port.
	cfg.PprofEnabled = false

	logger := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Format:  logging.FormatConsole,
		Output:  os.Stderr,
		Service: cfg.ServiceName,
		Version: cfg.ServiceVersion,
	})
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	date, err := resolveDate(*dateFlag, cfg.AnalysisLocation, time.Now())
	if err != nil {
		logger.Error("invalid -date", "value", *dateFlag, "error", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetry, err := observability.Setup(ctx, cfg, logger)
	if err != nil {
		logger.Error("init telemetry", "error", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown telemetry", "error", err)
		}
	}()

	services, err := app.BuildServices(ctx, cfg, logger)
	if err != nil {
		logger.Error("build services", "error", err)
		return 1
	}
	defer func() { _ = services.Close() }()

	logger.Info("fetching fixtures", "date", date.Format(report.DateLayout))
	rep, err := services.Analysis.Run(ctx, date)
	if err != nil {
		logger.Error("analysis failed", "date", date.Format(report.DateLayout), "error", err)
		return 1
	}

	logger.Info("analysis complete",
		"date", rep.DateKey(),
		"analysed", rep.Analysed,
		"skipped", rep.Skipped,
		"results", services.ResultFile.Path(),
	)
	return 0
}

// resolveDate parses raw in loc, falling back to the current day.
func resolveDate(raw string, loc *time.Location, now time.Time) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		y, m, d := now.In(loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
	}
	return time.ParseInLocation(report.DateLayout, raw, loc)
}

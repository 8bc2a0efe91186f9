package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/joelkehle/business-scout/internal/config"
	"github.com/joelkehle/business-scout/internal/logging"
	"github.com/joelkehle/business-scout/internal/notify"
	"github.com/joelkehle/business-scout/internal/scout"
	"github.com/joelkehle/business-scout/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (defaults to ./configs/config.yaml or ./config.yaml if present)")
	trendsFile := flag.String("trends-file", "", "Read trend records from a JSON file instead of live sources")
	demo := flag.Bool("demo", false, "Run against a built-in sample of trends")
	var o overrides
	flag.StringVar(&o.mode, "mode", "", "Idea generator: template or llm")
	flag.IntVar(&o.maxIdeas, "max-ideas", 0, "Maximum ideas to generate")
	flag.Float64Var(&o.budget, "budget", 0, "Simulated ad budget per idea (USD)")
	flag.IntVar(&o.duration, "duration", 0, "Simulated campaign length in days")
	flag.StringVar(&o.outDir, "out", "", "Directory for report artifacts")
	flag.StringVar(&o.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address during the run")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := o.apply(cfg); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *trendsFile, *demo, logger); err != nil {
		logger.Error("scout_run_failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, trendsFile string, demo bool, logger *zap.Logger) error {
	tp, shutdown, err := telemetry.Setup(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		if err := shutdown(sctx); err != nil {
			logger.Warn("telemetry_shutdown_failed", zap.Error(err))
		}
	}()

	if cfg.Telemetry.MetricsAddr != "" {
		srv := serveMetrics(cfg.Telemetry.MetricsAddr, logger)
		defer func() { _ = srv.Close() }()
	}

	collector, err := buildCollector(cfg, trendsFile, demo, logger)
	if err != nil {
		return err
	}
	generator, err := buildGenerator(cfg, logger)
	if err != nil {
		return err
	}
	notifier, err := buildNotifier(cfg, logger)
	if err != nil {
		return err
	}

	pipeline := scout.NewPipeline(collector, generator, scout.NewScorer(), scout.NewValidator(cfg.Pipeline.SimulationSeed),
		scout.WithLogger(logger),
		scout.WithTracer(tp.Tracer("business-scout")),
		scout.WithConcurrency(cfg.Pipeline.Concurrency),
		scout.WithSimulationSeed(cfg.Pipeline.SimulationSeed),
	)

	logger.Info("scout_starting",
		zap.String("mode", cfg.Pipeline.Mode),
		zap.Int("max_ideas", cfg.Pipeline.MaxIdeas),
		zap.Float64("budget_per_idea", cfg.Pipeline.BudgetPerIdea),
		zap.Int("duration_days", cfg.Pipeline.DurationDays))
	notifier.RunStarted(ctx)

	report, err := pipeline.RunWithProgress(ctx, cfg.RunOptions(), notify.ProgressFunc(ctx, notifier))
	if err != nil {
		notifier.Error(context.WithoutCancel(ctx), err)
		return err
	}

	artifact := report.Artifact()
	jsonPath, mdPath, err := writeOutputs(cfg.Output.Dir, artifact, report.Metadata.CompletedAt)
	if err != nil {
		notifier.Error(ctx, err)
		return err
	}
	logger.Info("scout_report_saved", zap.String("json", jsonPath), zap.String("markdown", mdPath))

	if err := scout.WriteConsoleSummary(os.Stdout, artifact); err != nil {
		logger.Warn("console_summary_failed", zap.Error(err))
	}
	notifier.Report(ctx, artifact)
	return nil
}

func serveMetrics(addr string, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics_server_failed", zap.String("addr", addr), zap.Error(err))
		}
	}()
	logger.Info("metrics_server_listening", zap.String("addr", addr))
	return srv
}

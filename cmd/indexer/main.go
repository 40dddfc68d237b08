package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/builder"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/reader"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/textproc"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/workflow"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting indexer",
		"texts_dir", cfg.Build.TextsDir,
		"output_dir", cfg.Build.OutputDir,
		"parallelism", cfg.Build.EffectiveParallelism(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
		shutdown := metrics.StartServer(cfg.Metrics.Port, m.Handler())
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	deps := workflow.Deps{
		Builder: builder.New(
			reader.DefaultResolver(cfg.Build.CSVTextColumn),
			textproc.BasicNormalizer{},
			builder.WithMetrics(m),
		),
		Out: os.Stdout,
	}
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete)
		defer producer.Close()
		deps.Publisher = producer
		slog.Info("index-complete notifications enabled", "topic", cfg.Kafka.Topics.IndexComplete)
	}

	out, err := workflow.Run(ctx, cfg.Build, deps)
	if err != nil {
		slog.Error("indexing failed", "error", err)
		stop()
		os.Exit(1)
	}
	for _, f := range out.Build.Report.Failures {
		slog.Warn("file not fully indexed", "path", f.Path, "error", f.Err)
	}
	slog.Info("indexer finished", "written", len(out.Written), "failed_files", out.Build.Report.FilesFailed)
}

// Command nowcast runs one short-term ensemble rainfall forecast: it
// reads a stack of radar count frames, decides via the activation gate
// whether recent rainfall justifies a forecast, invokes the external
// cascade engine, and writes the rain-rate ensemble plus a summary
// sidecar.
//
// Usage:
//
//	nowcast [flags] <input-array-path> <output-array-path>
//
// Exit codes: 0 on success, including the gate-closed no-output case;
// 2 on invalid configuration; 1 on any pipeline failure.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	kafkaadapter "github.com/stormdrift/nowcast/internal/adapter/kafka"
	"github.com/stormdrift/nowcast/internal/adapter/npyfile"
	"github.com/stormdrift/nowcast/internal/config"
	"github.com/stormdrift/nowcast/internal/engine"
	"github.com/stormdrift/nowcast/internal/observability"
	"github.com/stormdrift/nowcast/internal/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		err = fmt.Errorf("%w: %w", pipeline.ErrConfiguration, err)
		slog.Error("startup failed", "stage", stageOf(err), "error", err)
		return 2
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	cores := config.ResolveCores(cfg.NumCores, config.DetectCores, logger)

	store := npyfile.NewStore(cfg.InputPath, cfg.OutputPath, logger)
	eng := engine.NewExecEngine(cfg.EnginePath, logger)

	p := pipeline.New(store, eng, store, logger, metrics, engine.Params{
		Leadtimes: cfg.Leadtimes,
		Members:   cfg.Members,
		Workers:   cores,
	})

	if len(cfg.KafkaBrokers) > 0 {
		notifier := kafkaadapter.NewNotifier(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer func() {
			if err := notifier.Close(); err != nil {
				logger.Warn("kafka notifier close failed", "error", err)
			}
		}()
		p.SetNotifier(notifier)
		logger.Info("run notifications enabled", "topic", cfg.KafkaTopic)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rep, err := p.Run(ctx)
	if err != nil {
		logger.Error("run failed", "run_id", rep.RunID, "stage", stageOf(err), "error", err)
		return 1
	}

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("metrics dump failed", "path", cfg.MetricsFile, "error", err)
		}
	}

	logger.Info("run complete", "run_id", rep.RunID, "outcome", rep.Outcome())
	return 0
}

// stageOf names the failing pipeline stage for the final error log.
func stageOf(err error) string {
	switch {
	case errors.Is(err, pipeline.ErrConfiguration):
		return "config"
	case errors.Is(err, pipeline.ErrInput):
		return "input"
	case errors.Is(err, pipeline.ErrEngine):
		return "engine"
	case errors.Is(err, pipeline.ErrOutput):
		return "output"
	default:
		return "unknown"
	}
}

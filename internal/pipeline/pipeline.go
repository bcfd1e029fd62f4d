// Package pipeline orchestrates one forecast run: load history, convert
// units, evaluate the activation gate, invoke the engine, back-convert,
// summarize, and hand the results to the sink.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/stormdrift/nowcast/internal/engine"
	"github.com/stormdrift/nowcast/internal/grid"
	"github.com/stormdrift/nowcast/internal/nowcast"
	"github.com/stormdrift/nowcast/internal/observability"
)

// FrameSource loads the most recent history of raw count frames.
type FrameSource interface {
	Load(ctx context.Context) (grid.CountSequence, error)
}

// ForecastSink persists the ensemble forecast and its summary.
type ForecastSink interface {
	Write(ctx context.Context, ens grid.RateEnsemble, sum grid.Summary) error
}

// Notifier publishes a run report for downstream alerting. Notification
// is advisory: failures are logged, never fatal.
type Notifier interface {
	Notify(ctx context.Context, rep Report) error
}

// Pipeline runs the forecast preparation and post-processing state
// machine. One run per invocation; no state survives Run.
type Pipeline struct {
	source FrameSource
	engine engine.Engine
	sink   ForecastSink

	notifier Notifier
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock

	params        engine.Params
	gateThreshold float64
}

// New creates a Pipeline with the given collaborators. The clock
// defaults to real time and the gate threshold to
// nowcast.DefaultGateThreshold.
func New(source FrameSource, eng engine.Engine, sink ForecastSink, logger *slog.Logger, metrics *observability.Metrics, params engine.Params) *Pipeline {
	return &Pipeline{
		source:        source,
		engine:        eng,
		sink:          sink,
		logger:        logger,
		metrics:       metrics,
		clock:         clockwork.NewRealClock(),
		params:        params,
		gateThreshold: nowcast.DefaultGateThreshold,
	}
}

// SetNotifier attaches an optional run-report notifier.
func (p *Pipeline) SetNotifier(n Notifier) {
	p.notifier = n
}

// SetClock swaps the time source. Tests inject a fake for deterministic
// report timestamps.
func (p *Pipeline) SetClock(c clockwork.Clock) {
	if c == nil {
		p.clock = clockwork.NewRealClock()
		return
	}
	p.clock = c
}

// SetGateThreshold overrides the activation threshold.
func (p *Pipeline) SetGateThreshold(v float64) {
	p.gateThreshold = v
}

// Run executes one forecast run to completion. The two normal terminal
// states are "forecast written" and "gate closed, no output"; both
// return a nil error. Any collaborator failure is wrapped with the
// matching sentinel and returned immediately.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	start := p.clock.Now()
	rep := Report{RunID: uuid.NewString()}
	logger := p.logger.With("run_id", rep.RunID)

	counts, err := p.source.Load(ctx)
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues("error").Inc()
		return rep, fmt.Errorf("%w: %w", ErrInput, err)
	}
	if len(counts) == 0 {
		p.metrics.RunsTotal.WithLabelValues("error").Inc()
		return rep, fmt.Errorf("%w: source returned no frames", ErrInput)
	}
	rep.Frames = len(counts)
	rep.Size = counts[0].H
	p.metrics.FramesLoaded.Add(float64(len(counts)))
	logger.Debug("history loaded", "frames", rep.Frames, "size", rep.Size)

	rates := make(grid.RateSequence, len(counts))
	for i, c := range counts {
		rates[i] = nowcast.CountsToHourlyRate(c)
	}

	mask := nowcast.CachedMask(rep.Size)
	if !nowcast.ShouldForecast(rates, mask, p.gateThreshold) {
		rep.GateOpen = false
		p.finish(ctx, logger, &rep, start)
		logger.Info("gate closed, skipping forecast", "threshold", p.gateThreshold)
		return rep, nil
	}
	rep.GateOpen = true
	logger.Info("gate open, running forecast",
		"threshold", p.gateThreshold, "members", p.params.Members, "leadtimes", p.params.Leadtimes)

	logs := make(grid.LogSequence, len(rates))
	for i, r := range rates {
		logs[i] = nowcast.RateToLog(r)
	}

	engineStart := p.clock.Now()
	logEns, err := p.engine.Forecast(ctx, logs, p.params)
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues("error").Inc()
		return rep, fmt.Errorf("%w: %w", ErrEngine, err)
	}
	rep.EngineSeconds = p.clock.Since(engineStart).Seconds()
	p.metrics.EngineDuration.Observe(rep.EngineSeconds)
	rep.Members = logEns.Members
	rep.Leadtimes = logEns.Leadtimes
	p.metrics.EnsembleMembers.Set(float64(logEns.Members))

	rateEns := nowcast.LogEnsembleToRate(logEns)
	summary := nowcast.Summarize(rateEns)

	if err := p.sink.Write(ctx, rateEns, summary); err != nil {
		p.metrics.RunsTotal.WithLabelValues("error").Inc()
		return rep, fmt.Errorf("%w: %w", ErrOutput, err)
	}

	p.finish(ctx, logger, &rep, start)
	logger.Info("forecast complete",
		"members", rep.Members, "leadtimes", rep.Leadtimes,
		"engine_seconds", rep.EngineSeconds, "total_seconds", rep.TotalSeconds)
	return rep, nil
}

// finish stamps the report, records run metrics, and notifies if a
// notifier is attached.
func (p *Pipeline) finish(ctx context.Context, logger *slog.Logger, rep *Report, start time.Time) {
	rep.TotalSeconds = p.clock.Since(start).Seconds()
	rep.CompletedAt = p.clock.Now()
	p.metrics.RunDuration.Observe(rep.TotalSeconds)
	p.metrics.RunsTotal.WithLabelValues(rep.Outcome()).Inc()

	if p.notifier == nil {
		return
	}
	if err := p.notifier.Notify(ctx, *rep); err != nil {
		logger.Warn("run notification failed", "error", err)
	}
}

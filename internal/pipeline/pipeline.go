// Package pipeline composes the market data provider, the correlation
// engine, the strategies, the signal channel, the outcome tracker, and
// the spread recorder into one runnable unit.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/channel"
	"github.com/rxtech-lab/argo-signal/internal/correlation"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/recorder"
	"github.com/rxtech-lab/argo-signal/internal/strategy"
	"github.com/rxtech-lab/argo-signal/internal/tracker"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata/provider"
	"go.uber.org/zap"
)

// Pipeline owns the lifecycle of every component. Strategies stay
// stateless; the scheduling memory they need (which day a breakout or
// peg already fired, when momentum last ran) lives here.
type Pipeline struct {
	config   Config
	logger   *logger.Logger
	provider provider.Provider
	engine   correlation.Engine
	channel  channel.Channel
	tracker  tracker.Tracker
	recorder *recorder.Recorder

	mu   sync.Mutex
	stop chan struct{}
	wg   sync.WaitGroup

	// Per-day dedup: strategy name -> last UTC day it emitted.
	lastFired       map[string]string
	lastMomentumRun time.Time
}

// NewPipeline builds a pipeline from a validated configuration.
func NewPipeline(config Config, log *logger.Logger) (*Pipeline, error) {
	marketProvider, err := provider.NewMarketDataProvider(config.Provider.Type, config.Provider.PolygonAPIKey)
	if err != nil {
		return nil, err
	}

	return newPipelineWithProvider(config, log, marketProvider)
}

// newPipelineWithProvider wires the components around an existing
// provider. Split out so tests can inject a mock.
func newPipelineWithProvider(config Config, log *logger.Logger, marketProvider provider.Provider) (*Pipeline, error) {
	signalChannel, err := channel.NewChannel(config.ChannelCapacity)
	if err != nil {
		return nil, err
	}

	outcomeTracker, err := tracker.NewTracker(config.TrackerDecay, log)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		config:    config,
		logger:    log,
		provider:  marketProvider,
		engine:    correlation.NewEngine(marketProvider, log),
		channel:   signalChannel,
		tracker:   outcomeTracker,
		lastFired: map[string]string{},
	}

	if config.Recorder.Enabled {
		spreadWriter, err := newSpreadWriter(config.Recorder)
		if err != nil {
			return nil, err
		}

		p.recorder, err = recorder.NewRecorder(
			marketProvider,
			spreadWriter,
			config.Symbols,
			config.Recorder.Interval.Std(),
			log,
		)
		if err != nil {
			return nil, err
		}
	}

	return p, nil
}

func newSpreadWriter(config RecorderConfig) (recorder.SpreadWriter, error) {
	switch config.Writer {
	case "duckdb":
		return recorder.NewDuckDBSpreadWriter(filepath.Join(config.LogDir, "spreads.parquet")), nil
	default:
		return recorder.NewCSVSpreadWriter(config.LogDir), nil
	}
}

// Channel returns the signal channel for the downstream consumer.
func (p *Pipeline) Channel() channel.Channel {
	return p.channel
}

// Tracker returns the outcome tracker. The execution layer registers
// completed trades on it; strategies read it back through snapshots.
func (p *Pipeline) Tracker() tracker.Tracker {
	return p.tracker
}

// Start connects the provider and launches the evaluation loop and,
// when configured, the spread recorder.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stop != nil {
		p.logger.Warn("pipeline is already running")

		return nil
	}

	if err := p.provider.Connect(ctx); err != nil {
		return err
	}

	if p.recorder != nil {
		if err := p.recorder.Start(ctx); err != nil {
			p.provider.Shutdown()

			return err
		}
	}

	p.stop = make(chan struct{})
	p.wg.Add(1)

	go p.run(ctx, p.stop)

	p.logger.Info("pipeline started",
		zap.Strings("symbols", p.config.Symbols),
		zap.Duration("evaluation_interval", p.config.EvaluationInterval.Std()),
	)

	return nil
}

// Stop halts the evaluation loop and the recorder and releases the
// provider connection.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stop == nil {
		return nil
	}

	close(p.stop)
	p.wg.Wait()
	p.stop = nil

	var firstErr error

	if p.recorder != nil {
		if err := p.recorder.Stop(); err != nil {
			firstErr = err
		}
	}

	if err := p.provider.Shutdown(); err != nil && firstErr == nil {
		firstErr = err
	}

	p.logger.Info("pipeline stopped")

	return firstErr
}

func (p *Pipeline) run(ctx context.Context, stop chan struct{}) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.EvaluationInterval.Std())
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			p.Evaluate(ctx, now.UTC())
		}
	}
}

// Evaluate runs every enabled strategy once against the given instant
// and publishes whatever they emit. Data-sparsity conditions inside a
// strategy were already downgraded to warnings; errors surfacing here
// are connectivity or configuration problems and are logged, not
// retried.
func (p *Pipeline) Evaluate(ctx context.Context, now time.Time) {
	sctx := strategy.Context{
		Provider:    p.provider,
		Correlation: p.engine,
		Logger:      p.logger,
	}

	if p.config.Strategies.Breakout.Enabled {
		p.evaluateBreakout(ctx, sctx, now)
	}

	if p.config.Strategies.Momentum.Enabled {
		p.evaluateMomentum(ctx, sctx, now)
	}

	if p.config.Strategies.Peg.Enabled {
		p.evaluatePeg(ctx, sctx, now)
	}
}

func (p *Pipeline) evaluateBreakout(ctx context.Context, sctx strategy.Context, now time.Time) {
	day := now.Format("2006-01-02")

	for _, symbol := range p.config.Symbols {
		dedupKey := fmt.Sprintf("%s/%s", types.StrategyTimeRangeBreakout, symbol)
		if p.lastFired[dedupKey] == day {
			continue
		}

		start, end, err := breakoutWindow(p.config.Strategies.Breakout, now)
		if err != nil {
			p.logger.Error("invalid breakout window", zap.Error(err))

			return
		}

		params := strategy.TimeRangeBreakoutParams{
			Symbol:    symbol,
			StartTime: start,
			EndTime:   end,
			Buffer:    p.config.Strategies.Breakout.Buffer,
		}

		set, err := strategy.TimeRangeBreakout(ctx, sctx, now, params)
		if err != nil {
			p.logger.Error("breakout evaluation failed",
				zap.String("symbol", symbol),
				zap.Error(err),
			)

			continue
		}

		if p.publish(set.Signals()) > 0 {
			p.lastFired[dedupKey] = day
		}
	}
}

func (p *Pipeline) evaluateMomentum(ctx context.Context, sctx strategy.Context, now time.Time) {
	if now.Sub(p.lastMomentumRun) < p.config.Strategies.Momentum.Interval.Std() {
		return
	}

	p.lastMomentumRun = now

	params := strategy.CorrelationMomentumParams{
		Symbols:              p.config.Symbols,
		Timeframes:           p.config.Strategies.Momentum.Timeframes,
		CorrelationThreshold: p.config.Strategies.Momentum.CorrelationThreshold,
		WindowSize:           p.config.Strategies.Momentum.WindowSize,
	}

	signals, err := strategy.CorrelationMomentum(ctx, sctx, now, params)
	if err != nil {
		p.logger.Error("momentum evaluation failed", zap.Error(err))

		return
	}

	p.publish(signals)
}

func (p *Pipeline) evaluatePeg(ctx context.Context, sctx strategy.Context, now time.Time) {
	for _, symbol := range p.config.Symbols {
		params := strategy.DailyPegParams{
			Symbol:     symbol,
			SettleHour: p.config.Strategies.Peg.SettleHour,
			ExitHour:   p.config.Strategies.Peg.ExitHour,
		}

		set, err := strategy.DailyPeg(ctx, sctx, now, params)
		if err != nil {
			p.logger.Error("peg evaluation failed",
				zap.String("symbol", symbol),
				zap.Error(err),
			)

			continue
		}

		if set.Kind == strategy.SignalSetNone {
			continue
		}

		// One entry and one exit per symbol per day; the trigger window
		// outlives the evaluation interval.
		dedupKey := fmt.Sprintf("%s/%s/%s", types.StrategyDailyPeg, symbol, set.Kind)
		day := now.Format("2006-01-02")

		if p.lastFired[dedupKey] == day {
			continue
		}

		if p.publish(set.Signals()) > 0 {
			p.lastFired[dedupKey] = day
		}
	}
}

func (p *Pipeline) publish(signals []types.Signal) int {
	for _, signal := range signals {
		p.channel.Publish(signal)

		p.logger.Info("signal published",
			zap.String("symbol", signal.Symbol),
			zap.String("direction", string(signal.Direction)),
			zap.String("strategy", signal.Strategy),
			zap.Float64("entry_price", signal.EntryPrice),
		)
	}

	return len(signals)
}

// breakoutWindow anchors the configured HH:MM window to now's UTC day.
func breakoutWindow(config BreakoutConfig, now time.Time) (start, end time.Time, err error) {
	startOfDay, err := time.Parse("15:04", config.WindowStart)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	endOfDay, err := time.Parse("15:04", config.WindowEnd)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	year, month, day := now.Date()
	start = time.Date(year, month, day, startOfDay.Hour(), startOfDay.Minute(), 0, 0, time.UTC)
	end = time.Date(year, month, day, endOfDay.Hour(), endOfDay.Minute(), 0, 0, time.UTC)

	return start, end, nil
}

// Package recorder continuously samples bid-ask spreads. Spreads widen
// during illiquid periods; a spread log helps identify when placing
// orders is unsafe.
package recorder

import (
	"context"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata/provider"
	"go.uber.org/zap"
)

// DefaultInterval is the default polling interval.
const DefaultInterval = time.Second

// SpreadRecord is one sampled spread observation.
type SpreadRecord struct {
	Symbol string    `csv:"symbol"`
	Time   time.Time `csv:"timestamp"`
	Bid    float64   `csv:"bid"`
	Ask    float64   `csv:"ask"`
	Spread float64   `csv:"spread"`
}

// SpreadWriter persists spread records.
type SpreadWriter interface {
	// Initialize prepares the underlying files or tables.
	Initialize() error
	// Write persists a single record.
	Write(record SpreadRecord) error
	// Close flushes and releases resources.
	Close() error
}

// Recorder polls the latest tick for each configured symbol at a fixed
// interval from a background goroutine and writes one spread record per
// sample. Symbols with no tick at sample time are skipped.
type Recorder struct {
	provider provider.Provider
	writer   SpreadWriter
	symbols  []string
	interval time.Duration
	logger   *logger.Logger

	mu   sync.Mutex
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewRecorder creates a recorder for the given symbols.
func NewRecorder(p provider.Provider, w SpreadWriter, symbols []string, interval time.Duration, log *logger.Logger) (*Recorder, error) {
	if len(symbols) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "at least one symbol is required")
	}

	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Recorder{
		provider: p,
		writer:   w,
		symbols:  symbols,
		interval: interval,
		logger:   log,
	}, nil
}

// Start launches the background sampling loop. Calling Start on a
// running recorder is a warned no-op.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stop != nil {
		r.logger.Warn("spread recorder is already running")

		return nil
	}

	if err := r.writer.Initialize(); err != nil {
		return err
	}

	r.stop = make(chan struct{})
	r.wg.Add(1)

	go r.run(ctx, r.stop)

	r.logger.Info("spread recorder started",
		zap.Strings("symbols", r.symbols),
		zap.Duration("interval", r.interval),
	)

	return nil
}

// Stop signals the loop to finish and waits for it, then closes the
// writer. Stopping a recorder that is not running is a no-op.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stop == nil {
		return nil
	}

	close(r.stop)
	r.wg.Wait()
	r.stop = nil

	err := r.writer.Close()

	r.logger.Info("spread recorder stopped")

	return err
}

func (r *Recorder) run(ctx context.Context, stop chan struct{}) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sample(ctx)
		}
	}
}

func (r *Recorder) sample(ctx context.Context) {
	now := time.Now().UTC()

	for _, symbol := range r.symbols {
		ticks, err := r.provider.GetTickData(ctx, symbol, 1)
		if err != nil {
			r.logger.Warn("failed to fetch tick for spread sample",
				zap.String("symbol", symbol),
				zap.Error(err),
			)

			continue
		}

		if len(ticks) == 0 {
			continue
		}

		tick := ticks[len(ticks)-1]

		record := SpreadRecord{
			Symbol: symbol,
			Time:   now,
			Bid:    tick.Bid,
			Ask:    tick.Ask,
			Spread: tick.Spread(),
		}

		if err := r.writer.Write(record); err != nil {
			r.logger.Warn("failed to write spread record",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
		}
	}
}

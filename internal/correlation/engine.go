package correlation

import (
	"context"
	"math"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata/provider"
	"go.uber.org/zap"
)

// lookbackDays is the fixed fetch window used when collecting bars for a
// correlation request. 30 days is a heuristic upper bound meant to yield
// at least windowSize bars under normal market conditions regardless of
// timeframe granularity.
const lookbackDays = 30

// Engine computes pairwise correlation matrices of closing prices.
type Engine interface {
	// ComputeCorrelations fetches the last windowSize closes per symbol on
	// each timeframe and returns the Pearson correlation matrix. Sparse
	// data degrades the result with a warning; it never fails the call.
	ComputeCorrelations(ctx context.Context, symbols []string, timeframes []types.Timeframe, windowSize int) (types.CorrelationMatrix, error)
}

// EngineV1 is the default correlation engine backed by a market data provider.
type EngineV1 struct {
	provider provider.Provider
	logger   *logger.Logger
}

// NewEngine creates a correlation engine using the given provider.
func NewEngine(p provider.Provider, log *logger.Logger) Engine {
	return &EngineV1{
		provider: p,
		logger:   log,
	}
}

// ComputeCorrelations implements Engine.
//
// Closing series are aligned positionally (by rank, not by timestamp).
// Under unequal trading calendars this silently misaligns data points; it
// is a known approximation carried over from the upstream design, not a
// bug to fix here with different semantics.
func (e *EngineV1) ComputeCorrelations(ctx context.Context, symbols []string, timeframes []types.Timeframe, windowSize int) (types.CorrelationMatrix, error) {
	if len(symbols) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "at least one symbol is required")
	}

	if len(timeframes) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "at least one timeframe is required")
	}

	for _, tf := range timeframes {
		if err := tf.Validate(); err != nil {
			return nil, err
		}
	}

	if windowSize <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidWindow, "window size must be positive, got %d", windowSize)
	}

	now := time.Now().UTC()
	lookback := now.AddDate(0, 0, -lookbackDays)
	matrix := types.CorrelationMatrix{}

	for _, tf := range timeframes {
		closes := make(map[string][]float64, len(symbols))

		for _, sym := range symbols {
			bars, err := e.provider.GetBarData(ctx, sym, tf, lookback, now)
			if err != nil {
				return nil, err
			}

			if len(bars) < windowSize {
				e.logger.Warn("not enough bars; correlations may be unreliable",
					zap.String("symbol", sym),
					zap.String("timeframe", string(tf)),
					zap.Int("bars", len(bars)),
					zap.Int("window_size", windowSize),
				)
			}

			closes[sym] = lastCloses(bars, windowSize)
		}

		for _, sym := range symbols {
			row := make(map[string]float64, len(symbols))

			for _, other := range symbols {
				if other == sym {
					row[other] = 1.0

					continue
				}

				row[other] = pearson(closes[sym], closes[other])
			}

			matrix[types.CorrelationKey{Symbol: sym, Timeframe: tf}] = row
		}
	}

	return matrix, nil
}

// lastCloses extracts up to windowSize closing prices from the tail of the
// bar series.
func lastCloses(bars []types.MarketData, windowSize int) []float64 {
	start := 0
	if len(bars) > windowSize {
		start = len(bars) - windowSize
	}

	closes := make([]float64, 0, len(bars)-start)
	for _, bar := range bars[start:] {
		closes = append(closes, bar.Close)
	}

	return closes
}

// pearson computes the Pearson correlation coefficient of two positionally
// aligned series. Series of unequal length are truncated to the shorter
// one. Returns NaN when the coefficient is undefined (fewer than two
// observations or zero variance).
func pearson(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	if n < 2 {
		return math.NaN()
	}

	meanA, meanB := 0.0, 0.0
	for i := 0; i < n; i++ {
		meanA += a[i]
		meanB += b[i]
	}

	meanA /= float64(n)
	meanB /= float64(n)

	var cov, varA, varB float64

	for i := 0; i < n; i++ {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}

	if varA == 0 || varB == 0 {
		return math.NaN()
	}

	return cov / math.Sqrt(varA*varB)
}

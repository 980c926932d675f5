package strategy

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"go.uber.org/zap"
)

const (
	// DefaultCorrelationThreshold is the minimum average correlation
	// required before a momentum signal is considered.
	DefaultCorrelationThreshold = 0.7
	// DefaultMomentumWindowSize is the default number of bars for the
	// correlation window and the moving average.
	DefaultMomentumWindowSize = 100
)

// CorrelationMomentumParams configures the correlation momentum strategy.
type CorrelationMomentumParams struct {
	Symbols              []string          `validate:"required,min=1"`
	Timeframes           []types.Timeframe `validate:"required,min=1"`
	CorrelationThreshold float64           `validate:"gte=-1,lte=1"`
	WindowSize           int               `validate:"gt=0"`
}

// NewCorrelationMomentumParams returns params with the default threshold
// and window size.
func NewCorrelationMomentumParams(symbols []string, timeframes []types.Timeframe) CorrelationMomentumParams {
	return CorrelationMomentumParams{
		Symbols:              symbols,
		Timeframes:           timeframes,
		CorrelationThreshold: DefaultCorrelationThreshold,
		WindowSize:           DefaultMomentumWindowSize,
	}
}

// CorrelationMomentum emits one momentum signal per symbol whose average
// correlation against the rest of the group (across all requested
// timeframes, excluding self-correlation) reaches the threshold. The
// direction is long when the latest daily close sits above its
// WindowSize-bar simple moving average, short otherwise.
//
// Low alignment and insufficient daily history both skip the symbol
// without error; only configuration and connectivity problems fail the
// call.
func CorrelationMomentum(ctx context.Context, sctx Context, now time.Time, params CorrelationMomentumParams) ([]types.Signal, error) {
	if err := validate.Struct(params); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid momentum parameters", err)
	}

	for _, tf := range params.Timeframes {
		if err := tf.Validate(); err != nil {
			return nil, err
		}
	}

	matrix, err := sctx.Correlation.ComputeCorrelations(ctx, params.Symbols, params.Timeframes, params.WindowSize)
	if err != nil {
		return nil, err
	}

	signals := []types.Signal{}

	for _, sym := range params.Symbols {
		avgCorr, ok := matrix.AverageCorrelation(sym, params.Timeframes)
		if !ok {
			sctx.Logger.Warn("no defined correlation for symbol; skipping",
				zap.String("symbol", sym),
			)

			continue
		}

		sctx.Logger.Debug("average correlation",
			zap.String("symbol", sym),
			zap.Float64("avg_correlation", avgCorr),
		)

		if avgCorr < params.CorrelationThreshold {
			continue
		}

		// Momentum direction from daily bars.
		start := now.AddDate(0, 0, -params.WindowSize)

		bars, err := sctx.Provider.GetBarData(ctx, sym, types.TimeframeD1, start, now)
		if err != nil {
			return nil, err
		}

		if len(bars) < params.WindowSize {
			sctx.Logger.Warn("not enough daily bars to compute momentum",
				zap.String("symbol", sym),
				zap.Int("bars", len(bars)),
				zap.Int("window_size", params.WindowSize),
			)

			continue
		}

		window := bars[len(bars)-params.WindowSize:]
		ma := simpleMovingAverage(window)
		latestClose := window[len(window)-1].Close

		direction := types.DirectionShort
		if latestClose > ma {
			direction = types.DirectionLong
		}

		signals = append(signals, types.Signal{
			Symbol:     sym,
			Direction:  direction,
			EntryPrice: latestClose,
			StopPrice:  optional.None[float64](),
			TakeProfit: optional.None[float64](),
			Strategy:   types.StrategyCorrelationMomentum,
			Metadata: map[string]any{
				types.MetadataAvgCorrelation: avgCorr,
				types.MetadataMovingAverage:  ma,
			},
			Timestamp: now,
		})
	}

	return signals, nil
}

// simpleMovingAverage averages the closing prices of the given bars.
func simpleMovingAverage(bars []types.MarketData) float64 {
	if len(bars) == 0 {
		return 0
	}

	sum := 0.0
	for _, bar := range bars {
		sum += bar.Close
	}

	return sum / float64(len(bars))
}

package strategy

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultBreakoutBuffer is the default price distance added beyond the
// observed high/low when placing breakout entries.
const DefaultBreakoutBuffer = 0.0001

// TimeRangeBreakoutParams configures the time-range breakout strategy.
type TimeRangeBreakoutParams struct {
	Symbol    string    `validate:"required"`
	StartTime time.Time `validate:"required"`
	EndTime   time.Time `validate:"required,gtfield=StartTime"`
	Buffer    float64   `validate:"gte=0"`
}

// NewTimeRangeBreakoutParams returns params for the window with the
// default buffer.
func NewTimeRangeBreakoutParams(symbol string, start, end time.Time) TimeRangeBreakoutParams {
	return TimeRangeBreakoutParams{
		Symbol:    symbol,
		StartTime: start,
		EndTime:   end,
		Buffer:    DefaultBreakoutBuffer,
	}
}

// TimeRangeBreakout observes price action between StartTime and EndTime
// and, once the window has closed, proposes a long entry just above the
// window high and a short entry just below the window low. The two
// signals form a mutually cancelling pair: whichever fills first cancels
// the other, a contract the downstream consumer must enforce.
//
// Called before EndTime it returns the empty set ("not yet"); a window
// with no bars returns the empty set with a warning ("no data"). Neither
// case is an error.
func TimeRangeBreakout(ctx context.Context, sctx Context, now time.Time, params TimeRangeBreakoutParams) (SignalSet, error) {
	if err := validate.Struct(params); err != nil {
		return NoSignals(), errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid breakout parameters", err)
	}

	if now.Before(params.EndTime) {
		sctx.Logger.Debug("breakout window has not ended",
			zap.String("symbol", params.Symbol),
			zap.Time("now", now),
			zap.Time("window_end", params.EndTime),
		)

		return NoSignals(), nil
	}

	// M1 bars for granularity inside the window.
	bars, err := sctx.Provider.GetBarData(ctx, params.Symbol, types.TimeframeM1, params.StartTime, params.EndTime)
	if err != nil {
		return NoSignals(), err
	}

	if len(bars) == 0 {
		sctx.Logger.Warn("no bars found in breakout window",
			zap.String("symbol", params.Symbol),
			zap.Time("window_start", params.StartTime),
			zap.Time("window_end", params.EndTime),
		)

		return NoSignals(), nil
	}

	high := bars[0].High
	low := bars[0].Low

	for _, bar := range bars[1:] {
		if bar.High > high {
			high = bar.High
		}

		if bar.Low < low {
			low = bar.Low
		}
	}

	buffer := decimal.NewFromFloat(params.Buffer)
	longEntry := decimal.NewFromFloat(high).Add(buffer).InexactFloat64()
	shortEntry := decimal.NewFromFloat(low).Sub(buffer).InexactFloat64()

	metadata := map[string]any{
		types.MetadataWindowStart: params.StartTime,
		types.MetadataWindowEnd:   params.EndTime,
		types.MetadataHigh:        high,
		types.MetadataLow:         low,
	}

	longSignal := types.Signal{
		Symbol:     params.Symbol,
		Direction:  types.DirectionLong,
		EntryPrice: longEntry,
		StopPrice:  optional.None[float64](),
		TakeProfit: optional.None[float64](),
		Strategy:   types.StrategyTimeRangeBreakout,
		Metadata:   metadata,
		Timestamp:  now,
	}

	shortSignal := types.Signal{
		Symbol:     params.Symbol,
		Direction:  types.DirectionShort,
		EntryPrice: shortEntry,
		StopPrice:  optional.None[float64](),
		TakeProfit: optional.None[float64](),
		Strategy:   types.StrategyTimeRangeBreakout,
		Metadata:   metadata,
		Timestamp:  now,
	}

	return PairSignals(longSignal, shortSignal), nil
}

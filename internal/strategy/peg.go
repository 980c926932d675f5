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
	// DefaultSettleHour is the default UTC entry hour, shortly after
	// rollover once spreads have typically narrowed.
	DefaultSettleHour = 1
	// DefaultExitHour is the default UTC exit hour, before spreads widen
	// into the close.
	DefaultExitHour = 22
	// pegTriggerWindow is how long after the top of the hour the strategy
	// stays armed. Callers must invoke the strategy at a finer cadence
	// than this; it does not self-schedule.
	pegTriggerWindow = 5 * time.Minute
)

// DailyPegParams configures the daily peg strategy.
type DailyPegParams struct {
	Symbol     string `validate:"required"`
	SettleHour int    `validate:"gte=0,lte=23"`
	ExitHour   int    `validate:"gte=0,lte=23"`
}

// NewDailyPegParams returns params with the default settle and exit hours.
func NewDailyPegParams(symbol string) DailyPegParams {
	return DailyPegParams{
		Symbol:     symbol,
		SettleHour: DefaultSettleHour,
		ExitHour:   DefaultExitHour,
	}
}

// DailyPeg is a clock-driven strategy capturing intraday spread patterns.
// Within five minutes after SettleHour UTC it emits the entry half of the
// day's pair, a long at the latest ask; within five minutes after
// ExitHour it emits the exit half, a short at the latest bid. Outside
// both windows, and whenever no tick is available at trigger time, it
// emits nothing rather than a fallback price.
func DailyPeg(ctx context.Context, sctx Context, now time.Time, params DailyPegParams) (SignalSet, error) {
	if err := validate.Struct(params); err != nil {
		return NoSignals(), errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid peg parameters", err)
	}

	now = now.UTC()

	switch {
	case inTriggerWindow(now, params.SettleHour):
		tick, ok, err := latestTick(ctx, sctx, params.Symbol)
		if err != nil {
			return NoSignals(), err
		}

		if !ok {
			sctx.Logger.Warn("no tick data at settle trigger",
				zap.String("symbol", params.Symbol),
				zap.Time("now", now),
			)

			return NoSignals(), nil
		}

		return EntrySignal(types.Signal{
			Symbol:     params.Symbol,
			Direction:  types.DirectionLong,
			EntryPrice: tick.Ask,
			StopPrice:  optional.None[float64](),
			TakeProfit: optional.None[float64](),
			Strategy:   types.StrategyDailyPeg,
			Metadata:   map[string]any{},
			Timestamp:  now,
		}), nil

	case inTriggerWindow(now, params.ExitHour):
		tick, ok, err := latestTick(ctx, sctx, params.Symbol)
		if err != nil {
			return NoSignals(), err
		}

		if !ok {
			sctx.Logger.Warn("no tick data at exit trigger",
				zap.String("symbol", params.Symbol),
				zap.Time("now", now),
			)

			return NoSignals(), nil
		}

		return ExitSignal(types.Signal{
			Symbol:     params.Symbol,
			Direction:  types.DirectionShort,
			EntryPrice: tick.Bid,
			StopPrice:  optional.None[float64](),
			TakeProfit: optional.None[float64](),
			Strategy:   types.StrategyDailyPeg,
			Metadata:   map[string]any{},
			Timestamp:  now,
		}), nil

	default:
		return NoSignals(), nil
	}
}

// inTriggerWindow reports whether now falls within the trigger window
// after the given UTC hour.
func inTriggerWindow(now time.Time, hour int) bool {
	if now.Hour() != hour {
		return false
	}

	windowEnd := time.Duration(now.Minute())*time.Minute + time.Duration(now.Second())*time.Second

	return windowEnd < pegTriggerWindow
}

// latestTick fetches the most recent tick for the symbol. The second
// return value is false when the provider has no data.
func latestTick(ctx context.Context, sctx Context, symbol string) (types.Tick, bool, error) {
	ticks, err := sctx.Provider.GetTickData(ctx, symbol, 1)
	if err != nil {
		return types.Tick{}, false, err
	}

	if len(ticks) == 0 {
		return types.Tick{}, false, nil
	}

	return ticks[len(ticks)-1], true, nil
}

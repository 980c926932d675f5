package types

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// Direction is the side of a trade or signal.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// Validate returns an error if the direction is outside {long, short}.
func (d Direction) Validate() error {
	switch d {
	case DirectionLong, DirectionShort:
		return nil
	default:
		return errors.Newf(errors.ErrCodeInvalidDirection, "direction must be long or short, got %q", string(d))
	}
}

// Names of the built-in signal strategies, carried in Signal.Strategy.
const (
	StrategyTimeRangeBreakout   = "time_range_breakout"
	StrategyCorrelationMomentum = "correlation_momentum"
	StrategyDailyPeg            = "daily_peg"
)

// Metadata keys written by the built-in strategies.
const (
	MetadataWindowStart    = "window_start"
	MetadataWindowEnd      = "window_end"
	MetadataHigh           = "high"
	MetadataLow            = "low"
	MetadataAvgCorrelation = "avg_correlation"
	MetadataMovingAverage  = "moving_average"
)

// Signal is an immutable trading signal produced by a strategy.
// StopPrice and TakeProfit being None means the consumer must supply its
// own defaults; the pipeline never infers them.
type Signal struct {
	// Symbol is the instrument the signal applies to.
	Symbol string
	// Direction is long or short.
	Direction Direction
	// EntryPrice is the suggested entry price.
	EntryPrice float64
	// StopPrice is the optional stop-loss price.
	StopPrice optional.Option[float64]
	// TakeProfit is the optional take-profit price.
	TakeProfit optional.Option[float64]
	// Strategy is the name of the strategy that generated the signal.
	Strategy string
	// Metadata carries strategy-specific scalar values.
	Metadata map[string]any
	// Timestamp is the creation instant of the signal.
	Timestamp time.Time
}

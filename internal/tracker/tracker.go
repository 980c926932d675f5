// Package tracker maintains per-symbol, per-direction performance
// estimates from completed trades.
package tracker

import (
	"sync"

	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"go.uber.org/zap"
)

// DefaultDecay is the EMA decay factor used when none is given. Close
// to 1 means long memory.
const DefaultDecay = 0.9

// Evaluation horizon labels. Both currently read the same accumulated
// state; they exist so callers can bind to a horizon now and pick up
// differentiated estimates later without an interface change.
const (
	HorizonShort = "8h"
	HorizonLong  = "7d"
)

// RewardRisk holds the directional profit estimates for one symbol,
// with risk normalized to one unit per trade.
type RewardRisk struct {
	Long  float64 `json:"long"`
	Short float64 `json:"short"`
}

// Tracker accumulates completed trades into an exponential moving
// average of profit per (symbol, direction) pair.
type Tracker interface {
	// RegisterTrade folds a completed trade into the estimate for its
	// (symbol, direction) pair. Trades must be registered in the order
	// they close; the update is not commutative.
	RegisterTrade(trade types.TradeRecord) error
	// ExpectedRewardToRisk returns the current estimates for a symbol.
	// Directions with no recorded trades report zero, a neutral prior.
	ExpectedRewardToRisk(symbol string) RewardRisk
	// EvaluationSnapshot returns the symbol's estimates keyed by
	// horizon label. The horizons deliberately carry identical values;
	// they are not yet weighted differently.
	EvaluationSnapshot(symbol string) map[string]RewardRisk
	// TradeCount returns how many trades have been registered for the
	// (symbol, direction) pair.
	TradeCount(symbol string, direction types.Direction) int
}

type key struct {
	symbol    string
	direction types.Direction
}

type estimate struct {
	ema   float64
	count int
}

// TrackerV1 is the default Tracker implementation. A single RWMutex
// guards the whole mapping; updates are O(1) so sharding the lock by
// key has not been worth it.
type TrackerV1 struct {
	mu        sync.RWMutex
	decay     float64
	estimates map[key]estimate
	logger    *logger.Logger
}

// NewTracker creates a tracker with the given EMA decay factor, which
// must lie strictly between 0 and 1.
func NewTracker(decay float64, log *logger.Logger) (Tracker, error) {
	if decay <= 0 || decay >= 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidDecay, "decay must be in (0, 1), got %v", decay)
	}

	return &TrackerV1{
		decay:     decay,
		estimates: map[key]estimate{},
		logger:    log,
	}, nil
}

// NewDefaultTracker creates a tracker with DefaultDecay.
func NewDefaultTracker(log *logger.Logger) Tracker {
	t, _ := NewTracker(DefaultDecay, log)

	return t
}

// RegisterTrade implements Tracker.
//
// An unseen pair starts from an EMA of zero, so the first trade
// contributes (1-decay)*profit rather than seeding the estimate with
// its full profit.
func (t *TrackerV1) RegisterTrade(trade types.TradeRecord) error {
	if err := trade.Validate(); err != nil {
		return err
	}

	k := key{symbol: trade.Symbol, direction: trade.Direction}

	t.mu.Lock()
	est := t.estimates[k]
	est.ema = t.decay*est.ema + (1-t.decay)*trade.PnL
	est.count++
	t.estimates[k] = est
	t.mu.Unlock()

	t.logger.Debug("registered trade",
		zap.String("symbol", trade.Symbol),
		zap.String("direction", string(trade.Direction)),
		zap.Float64("pnl", trade.PnL),
		zap.Float64("ema", est.ema),
		zap.Int("count", est.count),
	)

	return nil
}

// ExpectedRewardToRisk implements Tracker.
func (t *TrackerV1) ExpectedRewardToRisk(symbol string) RewardRisk {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return RewardRisk{
		Long:  t.estimates[key{symbol: symbol, direction: types.DirectionLong}].ema,
		Short: t.estimates[key{symbol: symbol, direction: types.DirectionShort}].ema,
	}
}

// EvaluationSnapshot implements Tracker.
func (t *TrackerV1) EvaluationSnapshot(symbol string) map[string]RewardRisk {
	rr := t.ExpectedRewardToRisk(symbol)

	return map[string]RewardRisk{
		HorizonShort: rr,
		HorizonLong:  rr,
	}
}

// TradeCount implements Tracker.
func (t *TrackerV1) TradeCount(symbol string, direction types.Direction) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.estimates[key{symbol: symbol, direction: direction}].count
}

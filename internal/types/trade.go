package types

import (
	"time"

	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// TradeRecord is an immutable record of a closed position, produced by the
// execution layer and consumed exactly once by the outcome tracker.
type TradeRecord struct {
	Symbol     string    `csv:"symbol"`
	Direction  Direction `csv:"direction"`
	EntryTime  time.Time `csv:"entry_time"`
	ExitTime   time.Time `csv:"exit_time"`
	EntryPrice float64   `csv:"entry_price"`
	ExitPrice  float64   `csv:"exit_price"`
	// PnL is the signed profit or loss per unit; positive means profitable.
	PnL float64 `csv:"pnl"`
}

// Validate rejects malformed trade records at the call boundary.
func (t TradeRecord) Validate() error {
	if t.Symbol == "" {
		return errors.New(errors.ErrCodeInvalidParameter, "trade record symbol is empty")
	}

	if err := t.Direction.Validate(); err != nil {
		return err
	}

	if t.ExitTime.Before(t.EntryTime) {
		return errors.Newf(errors.ErrCodeInvalidParameter,
			"trade record exit time %s precedes entry time %s", t.ExitTime, t.EntryTime)
	}

	return nil
}

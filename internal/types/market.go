package types

import "time"

// MarketData is a single OHLCV bar for a symbol.
type MarketData struct {
	Id     string    `csv:"id"`
	Symbol string    `csv:"symbol"`
	Time   time.Time `csv:"time"`
	Open   float64   `csv:"open"`
	High   float64   `csv:"high"`
	Low    float64   `csv:"low"`
	Close  float64   `csv:"close"`
	Volume float64   `csv:"volume"`
}

// Tick is a single top-of-book observation for a symbol.
// Last is the most recent traded price; depending on the provider the
// bid/ask of older ticks may be synthesized from Last (see provider docs).
type Tick struct {
	Time   time.Time `csv:"time"`
	Bid    float64   `csv:"bid"`
	Ask    float64   `csv:"ask"`
	Last   float64   `csv:"last"`
	Volume float64   `csv:"volume"`
}

// Spread returns the bid-ask spread of the tick.
func (t Tick) Spread() float64 {
	return t.Ask - t.Bid
}

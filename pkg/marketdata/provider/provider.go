package provider

import (
	"context"
	"iter"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderPolygon ProviderType = "polygon"
	ProviderBinance ProviderType = "binance"
)

// Provider is the upstream market data interface consumed by the
// correlation engine, the strategies, and the spread recorder.
//
// Empty results signal "no data", not an error; only connectivity and
// configuration problems surface as errors. Callers must not retry
// internally on failure.
type Provider interface {
	// Connect verifies connectivity with the upstream venue. It must be
	// called before any data request.
	Connect(ctx context.Context) error
	// Shutdown releases the connection. Safe to call more than once.
	Shutdown() error
	// GetTickData returns up to nTicks of the most recent ticks for the
	// symbol, most recent last.
	GetTickData(ctx context.Context, symbol string, nTicks int) ([]types.Tick, error)
	// GetBarData returns OHLCV bars for the symbol in [start, end],
	// sorted ascending by time. An empty slice means no data.
	GetBarData(ctx context.Context, symbol string, timeframe types.Timeframe, start, end time.Time) ([]types.MarketData, error)
	// StreamTicks yields live top-of-book ticks until the context is
	// cancelled. Providers without a streaming endpoint return a single
	// ErrCodeStreamingNotSupported error.
	StreamTicks(ctx context.Context, symbol string) iter.Seq2[types.Tick, error]
}

// NewMarketDataProvider creates a new market data provider based on the provider type.
func NewMarketDataProvider(providerType ProviderType, config any) (Provider, error) {
	switch providerType {
	case ProviderBinance:
		return NewBinanceClient()
	case ProviderPolygon:
		apiKey, ok := config.(string)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidProvider, "polygon provider requires API key string config")
		}

		return NewPolygonClient(apiKey)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", providerType)
	}
}

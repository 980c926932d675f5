package provider

import (
	"context"
	"iter"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// polygonAggLimit is the maximum number of aggregates per page.
const polygonAggLimit = 50000

type PolygonClient struct {
	client    *polygon.Client
	connected bool
}

// NewPolygonClient creates a Polygon-backed provider.
func NewPolygonClient(apiKey string) (Provider, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidProvider, "apiKey is required")
	}

	client := polygon.New(apiKey)

	return &PolygonClient{
		client:    client,
		connected: false,
	}, nil
}

// Connect verifies the API key against the market status endpoint.
func (c *PolygonClient) Connect(ctx context.Context) error {
	if _, err := c.client.GetMarketStatus(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeProviderConnectFailed, "failed to reach Polygon", err)
	}

	c.connected = true

	return nil
}

// Shutdown marks the client as disconnected. The REST client itself holds
// no persistent connection.
func (c *PolygonClient) Shutdown() error {
	c.connected = false

	return nil
}

// GetTickData returns up to nTicks of the most recent NBBO quotes for the
// symbol, most recent last. Quotes carry no trade price or size, so Last
// and Volume are zero.
func (c *PolygonClient) GetTickData(ctx context.Context, symbol string, nTicks int) ([]types.Tick, error) {
	if !c.connected {
		return nil, errors.New(errors.ErrCodeProviderNotConnected, "polygon provider not connected; call Connect first")
	}

	if nTicks <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "nTicks must be positive, got %d", nTicks)
	}

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListQuotesParams{
		Ticker: symbol,
	}.WithOrder(models.Desc).WithLimit(nTicks)

	quotesIter := c.client.ListQuotes(ctx, params)

	var ticks []types.Tick

	for quotesIter.Next() {
		quote := quotesIter.Item()
		ticks = append(ticks, types.Tick{
			Time:   time.Time(quote.SipTimestamp),
			Bid:    quote.BidPrice,
			Ask:    quote.AskPrice,
			Last:   0,
			Volume: 0,
		})

		if len(ticks) >= nTicks {
			break
		}
	}

	if quotesIter.Err() != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, quotesIter.Err(), "failed to fetch quotes for %s", symbol)
	}

	// The API returns newest first; callers expect most recent last.
	for i, j := 0, len(ticks)-1; i < j; i, j = i+1, j-1 {
		ticks[i], ticks[j] = ticks[j], ticks[i]
	}

	if ticks == nil {
		return []types.Tick{}, nil
	}

	return ticks, nil
}

// GetBarData returns aggregates for the symbol in [start, end], ascending
// by time.
func (c *PolygonClient) GetBarData(ctx context.Context, symbol string, timeframe types.Timeframe, start, end time.Time) ([]types.MarketData, error) {
	if !c.connected {
		return nil, errors.New(errors.ErrCodeProviderNotConnected, "polygon provider not connected; call Connect first")
	}

	multiplier, timespan, err := convertTimeframeToPolygonTimespan(timeframe)
	if err != nil {
		return nil, err
	}

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(start),
		To:         models.Millis(end),
	}.WithOrder(models.Asc).WithLimit(polygonAggLimit)

	aggsIter := c.client.ListAggs(ctx, params)

	bars := []types.MarketData{}

	for aggsIter.Next() {
		agg := aggsIter.Item()
		bars = append(bars, types.MarketData{
			Id:     "",
			Symbol: symbol,
			Time:   time.Time(agg.Timestamp),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})
	}

	if aggsIter.Err() != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, aggsIter.Err(), "failed to fetch aggregates for %s", symbol)
	}

	return bars, nil
}

// StreamTicks is not supported for Polygon; the recorder should poll
// GetTickData instead.
func (c *PolygonClient) StreamTicks(ctx context.Context, symbol string) iter.Seq2[types.Tick, error] {
	return func(yield func(types.Tick, error) bool) {
		yield(types.Tick{}, errors.Newf(errors.ErrCodeStreamingNotSupported, "polygon provider does not support tick streaming for %s", symbol))
	}
}

// convertTimeframeToPolygonTimespan converts a timeframe label to a Polygon
// multiplier and timespan pair.
func convertTimeframeToPolygonTimespan(timeframe types.Timeframe) (int, models.Timespan, error) {
	switch timeframe {
	case types.TimeframeM1:
		return 1, models.Minute, nil
	case types.TimeframeM5:
		return 5, models.Minute, nil
	case types.TimeframeM15:
		return 15, models.Minute, nil
	case types.TimeframeM30:
		return 30, models.Minute, nil
	case types.TimeframeH1:
		return 1, models.Hour, nil
	case types.TimeframeH4:
		return 4, models.Hour, nil
	case types.TimeframeD1:
		return 1, models.Day, nil
	case types.TimeframeW1:
		return 1, models.Week, nil
	case types.TimeframeMN1:
		return 1, models.Month, nil
	default:
		return 0, "", errors.Newf(errors.ErrCodeInvalidTimeframe, "unsupported timeframe for Polygon: %s", timeframe)
	}
}

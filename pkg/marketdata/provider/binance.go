package provider

import (
	"context"
	"iter"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// binanceKlineLimit is the maximum number of klines per REST request.
const binanceKlineLimit = 500

type BinanceClient struct {
	client    *binance.Client
	connected bool
}

// NewBinanceClient creates a Binance-backed provider. Public market data
// endpoints need no credentials.
func NewBinanceClient() (Provider, error) {
	client := binance.NewClient("", "")

	return &BinanceClient{
		client:    client,
		connected: false,
	}, nil
}

// Connect pings the Binance REST endpoint to verify connectivity.
func (c *BinanceClient) Connect(ctx context.Context) error {
	if err := c.client.NewPingService().Do(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeProviderConnectFailed, "failed to ping Binance", err)
	}

	c.connected = true

	return nil
}

// Shutdown marks the client as disconnected. The REST client itself holds
// no persistent connection.
func (c *BinanceClient) Shutdown() error {
	c.connected = false

	return nil
}

// GetTickData returns up to nTicks recent ticks for the symbol, most
// recent last. Binance REST exposes no historical quotes, so earlier
// ticks carry the trade price in bid and ask; only the latest tick is
// enriched with the live top-of-book quote.
func (c *BinanceClient) GetTickData(ctx context.Context, symbol string, nTicks int) ([]types.Tick, error) {
	if !c.connected {
		return nil, errors.New(errors.ErrCodeProviderNotConnected, "binance provider not connected; call Connect first")
	}

	if nTicks <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "nTicks must be positive, got %d", nTicks)
	}

	trades, err := c.client.NewRecentTradesService().Symbol(symbol).Limit(nTicks).Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch recent trades for %s", symbol)
	}

	if len(trades) == 0 {
		return []types.Tick{}, nil
	}

	ticks := make([]types.Tick, 0, len(trades))

	for _, trade := range trades {
		price, err := strconv.ParseFloat(trade.Price, 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to parse trade price %q", trade.Price)
		}

		qty, err := strconv.ParseFloat(trade.Quantity, 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to parse trade quantity %q", trade.Quantity)
		}

		ticks = append(ticks, types.Tick{
			Time:   time.UnixMilli(trade.Time),
			Bid:    price,
			Ask:    price,
			Last:   price,
			Volume: qty,
		})
	}

	// Enrich the most recent tick with the live best bid/ask.
	bookTickers, err := c.client.NewListBookTickersService().Symbol(symbol).Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch book ticker for %s", symbol)
	}

	if len(bookTickers) > 0 {
		bid, ask, err := parseBookTicker(bookTickers[0])
		if err != nil {
			return nil, err
		}

		ticks[len(ticks)-1].Bid = bid
		ticks[len(ticks)-1].Ask = ask
	}

	return ticks, nil
}

// GetBarData returns klines for the symbol in [start, end], ascending by
// time. Pagination follows the Binance 500-kline request limit.
func (c *BinanceClient) GetBarData(ctx context.Context, symbol string, timeframe types.Timeframe, start, end time.Time) ([]types.MarketData, error) {
	if !c.connected {
		return nil, errors.New(errors.ErrCodeProviderNotConnected, "binance provider not connected; call Connect first")
	}

	interval, err := convertTimeframeToBinanceInterval(timeframe)
	if err != nil {
		return nil, err
	}

	var bars []types.MarketData

	// Binance API uses milliseconds for timestamps.
	currentStartTime := start.UnixMilli()
	endTimeMillis := end.UnixMilli()

	for {
		klines, err := c.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(currentStartTime).
			EndTime(endTimeMillis).
			Limit(binanceKlineLimit).
			Do(ctx)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch klines for %s", symbol)
		}

		converted, err := convertKlines(symbol, klines)
		if err != nil {
			return nil, err
		}

		bars = append(bars, converted...)

		// Last page: no data or fewer rows than the request limit.
		if len(klines) < binanceKlineLimit {
			break
		}

		// Use the close time of the last kline + 1ms to avoid duplicates.
		currentStartTime = klines[len(klines)-1].CloseTime + 1
		if currentStartTime >= endTimeMillis {
			break
		}
	}

	if bars == nil {
		return []types.MarketData{}, nil
	}

	return bars, nil
}

// StreamTicks yields live book ticker updates for the symbol until the
// context is cancelled.
func (c *BinanceClient) StreamTicks(ctx context.Context, symbol string) iter.Seq2[types.Tick, error] {
	return func(yield func(types.Tick, error) bool) {
		if !c.connected {
			yield(types.Tick{}, errors.New(errors.ErrCodeProviderNotConnected, "binance provider not connected; call Connect first"))

			return
		}

		events := make(chan types.Tick)
		streamErrs := make(chan error, 1)

		handler := func(event *binance.WsBookTickerEvent) {
			bid, err := strconv.ParseFloat(event.BestBidPrice, 64)
			if err != nil {
				return
			}

			ask, err := strconv.ParseFloat(event.BestAskPrice, 64)
			if err != nil {
				return
			}

			tick := types.Tick{
				Time: time.Now().UTC(),
				Bid:  bid,
				Ask:  ask,
			}

			select {
			case events <- tick:
			case <-ctx.Done():
			}
		}

		errHandler := func(err error) {
			select {
			case streamErrs <- err:
			default:
			}
		}

		doneC, stopC, err := binance.WsBookTickerServe(symbol, handler, errHandler)
		if err != nil {
			yield(types.Tick{}, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to open book ticker stream for %s", symbol))

			return
		}

		defer func() {
			close(stopC)
			<-doneC
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case err := <-streamErrs:
				if !yield(types.Tick{}, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "book ticker stream error for %s", symbol)) {
					return
				}
			case tick := <-events:
				if !yield(tick, nil) {
					return
				}
			}
		}
	}
}

// convertKlines converts Binance kline data to the internal MarketData format.
func convertKlines(symbol string, klines []*binance.Kline) ([]types.MarketData, error) {
	bars := make([]types.MarketData, 0, len(klines))

	for _, k := range klines {
		open, err := strconv.ParseFloat(k.Open, 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to parse kline open %q", k.Open)
		}

		high, err := strconv.ParseFloat(k.High, 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to parse kline high %q", k.High)
		}

		low, err := strconv.ParseFloat(k.Low, 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to parse kline low %q", k.Low)
		}

		closePrice, err := strconv.ParseFloat(k.Close, 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to parse kline close %q", k.Close)
		}

		volume, err := strconv.ParseFloat(k.Volume, 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to parse kline volume %q", k.Volume)
		}

		bars = append(bars, types.MarketData{
			Id:     "",
			Symbol: symbol,
			Time:   time.UnixMilli(k.OpenTime),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: volume,
		})
	}

	return bars, nil
}

func parseBookTicker(ticker *binance.BookTicker) (bid float64, ask float64, err error) {
	bid, err = strconv.ParseFloat(ticker.BidPrice, 64)
	if err != nil {
		return 0, 0, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to parse bid price %q", ticker.BidPrice)
	}

	ask, err = strconv.ParseFloat(ticker.AskPrice, 64)
	if err != nil {
		return 0, 0, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to parse ask price %q", ticker.AskPrice)
	}

	return bid, ask, nil
}

// convertTimeframeToBinanceInterval converts a timeframe label to a Binance
// kline interval string.
// Ref: https://binance-docs.github.io/apidocs/spot/en/#kline-candlestick-data
func convertTimeframeToBinanceInterval(timeframe types.Timeframe) (string, error) {
	switch timeframe {
	case types.TimeframeM1:
		return "1m", nil
	case types.TimeframeM5:
		return "5m", nil
	case types.TimeframeM15:
		return "15m", nil
	case types.TimeframeM30:
		return "30m", nil
	case types.TimeframeH1:
		return "1h", nil
	case types.TimeframeH4:
		return "4h", nil
	case types.TimeframeD1:
		return "1d", nil
	case types.TimeframeW1:
		return "1w", nil
	case types.TimeframeMN1:
		return "1M", nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidTimeframe, "unsupported timeframe for Binance: %s", timeframe)
	}
}

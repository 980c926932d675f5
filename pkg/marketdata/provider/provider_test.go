package provider

import (
	"testing"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ProviderTestSuite struct {
	suite.Suite
}

func TestProviderSuite(t *testing.T) {
	suite.Run(t, new(ProviderTestSuite))
}

func (suite *ProviderTestSuite) TestNewMarketDataProviderBinance() {
	p, err := NewMarketDataProvider(ProviderBinance, nil)
	suite.NoError(err)
	suite.NotNil(p)
}

func (suite *ProviderTestSuite) TestNewMarketDataProviderPolygon() {
	p, err := NewMarketDataProvider(ProviderPolygon, "test-api-key")
	suite.NoError(err)
	suite.NotNil(p)
}

func (suite *ProviderTestSuite) TestNewMarketDataProviderPolygonMissingKey() {
	p, err := NewMarketDataProvider(ProviderPolygon, nil)
	suite.Error(err)
	suite.Nil(p)
}

func (suite *ProviderTestSuite) TestNewMarketDataProviderUnknown() {
	p, err := NewMarketDataProvider(ProviderType("mt5"), nil)
	suite.Error(err)
	suite.Nil(p)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidProvider))
}

func (suite *ProviderTestSuite) TestRequestsRejectedBeforeConnect() {
	p, err := NewBinanceClient()
	suite.NoError(err)

	_, err = p.GetTickData(suite.T().Context(), "BTCUSDT", 10)
	suite.True(errors.HasCode(err, errors.ErrCodeProviderNotConnected))

	_, err = p.GetBarData(suite.T().Context(), "BTCUSDT", types.TimeframeH1, time.Now().Add(-time.Hour), time.Now())
	suite.True(errors.HasCode(err, errors.ErrCodeProviderNotConnected))
}

func (suite *ProviderTestSuite) TestPolygonStreamTicksUnsupported() {
	p, err := NewPolygonClient("test-api-key")
	suite.NoError(err)

	for _, err := range p.StreamTicks(suite.T().Context(), "EURUSD") {
		suite.True(errors.HasCode(err, errors.ErrCodeStreamingNotSupported))
		break
	}
}

func (suite *ProviderTestSuite) TestConvertTimeframeToBinanceInterval() {
	cases := map[types.Timeframe]string{
		types.TimeframeM1:  "1m",
		types.TimeframeM5:  "5m",
		types.TimeframeM15: "15m",
		types.TimeframeM30: "30m",
		types.TimeframeH1:  "1h",
		types.TimeframeH4:  "4h",
		types.TimeframeD1:  "1d",
		types.TimeframeW1:  "1w",
		types.TimeframeMN1: "1M",
	}

	for tf, expected := range cases {
		interval, err := convertTimeframeToBinanceInterval(tf)
		suite.NoError(err)
		suite.Equal(expected, interval)
	}

	_, err := convertTimeframeToBinanceInterval(types.Timeframe("M2"))
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTimeframe))
}

func (suite *ProviderTestSuite) TestConvertTimeframeToPolygonTimespan() {
	multiplier, timespan, err := convertTimeframeToPolygonTimespan(types.TimeframeH4)
	suite.NoError(err)
	suite.Equal(4, multiplier)
	suite.Equal(models.Hour, timespan)

	multiplier, timespan, err = convertTimeframeToPolygonTimespan(types.TimeframeD1)
	suite.NoError(err)
	suite.Equal(1, multiplier)
	suite.Equal(models.Day, timespan)

	_, _, err = convertTimeframeToPolygonTimespan(types.Timeframe("H2"))
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTimeframe))
}

func (suite *ProviderTestSuite) TestConvertKlines() {
	openTime := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	klines := []*binance.Kline{
		{
			OpenTime: openTime.UnixMilli(),
			Open:     "1.2000",
			High:     "1.2050",
			Low:      "1.1990",
			Close:    "1.2010",
			Volume:   "1500",
		},
	}

	bars, err := convertKlines("EURUSDT", klines)
	suite.NoError(err)
	suite.Len(bars, 1)
	suite.Equal("EURUSDT", bars[0].Symbol)
	suite.Equal(openTime, bars[0].Time.UTC())
	suite.Equal(1.2050, bars[0].High)
	suite.Equal(1.1990, bars[0].Low)
	suite.Equal(1500.0, bars[0].Volume)
}

func (suite *ProviderTestSuite) TestConvertKlinesParseFailure() {
	klines := []*binance.Kline{
		{
			Open:   "not-a-number",
			High:   "1",
			Low:    "1",
			Close:  "1",
			Volume: "1",
		},
	}

	_, err := convertKlines("EURUSDT", klines)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataParseFailed))
}

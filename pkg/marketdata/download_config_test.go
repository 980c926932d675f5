package marketdata

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata/provider"
	"github.com/stretchr/testify/suite"
)

type DownloadConfigTestSuite struct {
	suite.Suite
}

func TestDownloadConfigSuite(t *testing.T) {
	suite.Run(t, new(DownloadConfigTestSuite))
}

func (suite *DownloadConfigTestSuite) TestParseBinanceConfig() {
	config, err := ParseBinanceConfig(`{
		"symbol": "BTCUSDT",
		"startDate": "2024-01-01T00:00:00Z",
		"endDate": "2024-02-01T00:00:00Z",
		"timeframe": "H1"
	}`)
	suite.NoError(err)
	suite.Equal("BTCUSDT", config.Symbol)

	params, err := config.ToDownloadParams()
	suite.NoError(err)
	suite.Equal(types.TimeframeH1, params.Timeframe)
	suite.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), params.StartDate)

	clientConfig := config.ToClientConfig("/tmp/data")
	suite.Equal(provider.ProviderBinance, clientConfig.ProviderType)
	suite.Equal(WriterDuckDB, clientConfig.WriterType)
}

func (suite *DownloadConfigTestSuite) TestParsePolygonConfigRequiresAPIKey() {
	_, err := ParsePolygonConfig(`{
		"symbol": "SPY",
		"startDate": "2024-01-01T00:00:00Z",
		"endDate": "2024-02-01T00:00:00Z",
		"timeframe": "D1"
	}`)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))

	config, err := ParsePolygonConfig(`{
		"symbol": "SPY",
		"startDate": "2024-01-01T00:00:00Z",
		"endDate": "2024-02-01T00:00:00Z",
		"timeframe": "D1",
		"apiKey": "test-key"
	}`)
	suite.NoError(err)
	suite.Equal("test-key", config.ToClientConfig("/tmp/data").PolygonAPIKey)
}

func (suite *DownloadConfigTestSuite) TestInvalidDatesRejected() {
	_, err := ParseBinanceConfig(`{
		"symbol": "BTCUSDT",
		"startDate": "2024-01-01",
		"endDate": "2024-02-01T00:00:00Z",
		"timeframe": "H1"
	}`)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *DownloadConfigTestSuite) TestUnknownTimeframeRejected() {
	_, err := ParseBinanceConfig(`{
		"symbol": "BTCUSDT",
		"startDate": "2024-01-01T00:00:00Z",
		"endDate": "2024-02-01T00:00:00Z",
		"timeframe": "H2"
	}`)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTimeframe))
}

func (suite *DownloadConfigTestSuite) TestMalformedJSONRejected() {
	_, err := ParseBinanceConfig(`{not json`)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

package pipeline

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata/provider"
	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestParseFullConfig() {
	config, err := ParseConfig(`
symbols: [EURUSD, GBPUSD]
provider:
  type: binance
channel_capacity: 500
tracker_decay: 0.8
evaluation_interval: 30s
strategies:
  breakout:
    enabled: true
    window_start: "08:00"
    window_end: "09:00"
    buffer: 0.0002
  momentum:
    enabled: true
    interval: 2h
    correlation_threshold: 0.6
    window_size: 50
    timeframes: [H1, D1]
  peg:
    enabled: true
    settle_hour: 2
    exit_hour: 21
recorder:
  enabled: true
  interval: 2s
  log_dir: /tmp/spreads
  writer: duckdb
server:
  enabled: true
  addr: ":8080"
`)
	suite.NoError(err)

	suite.Equal([]string{"EURUSD", "GBPUSD"}, config.Symbols)
	suite.Equal(provider.ProviderBinance, config.Provider.Type)
	suite.Equal(500, config.ChannelCapacity)
	suite.Equal(0.8, config.TrackerDecay)
	suite.Equal(30*time.Second, config.EvaluationInterval.Std())
	suite.Equal(0.0002, config.Strategies.Breakout.Buffer)
	suite.Equal(2*time.Hour, config.Strategies.Momentum.Interval.Std())
	suite.Equal([]types.Timeframe{types.TimeframeH1, types.TimeframeD1}, config.Strategies.Momentum.Timeframes)
	suite.Equal(2, config.Strategies.Peg.SettleHour)
	suite.Equal(2*time.Second, config.Recorder.Interval.Std())
	suite.Equal("duckdb", config.Recorder.Writer)
	suite.Equal(":8080", config.Server.Addr)
}

func (suite *ConfigTestSuite) TestDefaultsApplied() {
	config, err := ParseConfig(`
symbols: [EURUSD]
provider:
  type: binance
`)
	suite.NoError(err)

	suite.Equal(1000, config.ChannelCapacity)
	suite.Equal(0.9, config.TrackerDecay)
	suite.Equal(time.Minute, config.EvaluationInterval.Std())
	suite.Equal(0.0001, config.Strategies.Breakout.Buffer)
	suite.Equal(0.7, config.Strategies.Momentum.CorrelationThreshold)
	suite.Equal(100, config.Strategies.Momentum.WindowSize)
	suite.Equal(1, config.Strategies.Peg.SettleHour)
	suite.Equal(22, config.Strategies.Peg.ExitHour)
	suite.Equal(time.Second, config.Recorder.Interval.Std())
	suite.Equal("csv", config.Recorder.Writer)
}

func (suite *ConfigTestSuite) TestMissingSymbolsRejected() {
	_, err := ParseConfig(`
provider:
  type: binance
`)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestPolygonRequiresAPIKey() {
	_, err := ParseConfig(`
symbols: [SPY]
provider:
  type: polygon
`)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestInvalidDecayRejected() {
	_, err := ParseConfig(`
symbols: [EURUSD]
provider:
  type: binance
tracker_decay: 1.0
`)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidDecay))
}

func (suite *ConfigTestSuite) TestInvalidTimeframeRejected() {
	_, err := ParseConfig(`
symbols: [EURUSD]
provider:
  type: binance
strategies:
  momentum:
    timeframes: [H2]
`)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTimeframe))
}

func (suite *ConfigTestSuite) TestInvalidDurationRejected() {
	_, err := ParseConfig(`
symbols: [EURUSD]
provider:
  type: binance
evaluation_interval: soon
`)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestBadWindowFormatRejected() {
	_, err := ParseConfig(`
symbols: [EURUSD]
provider:
  type: binance
strategies:
  breakout:
    enabled: true
    window_start: "8am"
    window_end: "09:00"
`)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

package correlation

import (
	"math"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/mocks"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type EngineTestSuite struct {
	suite.Suite

	ctrl     *gomock.Controller
	provider *mocks.MockProvider
	engine   Engine
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (suite *EngineTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.provider = mocks.NewMockProvider(suite.ctrl)
	suite.engine = NewEngine(suite.provider, logger.NewNopLogger())
}

func (suite *EngineTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func (suite *EngineTestSuite) TestMatrixIsSymmetric() {
	gen := mocks.NewDataGenerator(42)
	config := mocks.DefaultConfig()
	config.Count = 120

	base := gen.Generate(config)
	correlated := gen.GenerateCorrelated(base, "B", 0.01)
	independent := gen.Generate(config)

	suite.provider.EXPECT().GetBarData(gomock.Any(), "A", types.TimeframeH1, gomock.Any(), gomock.Any()).Return(base, nil)
	suite.provider.EXPECT().GetBarData(gomock.Any(), "B", types.TimeframeH1, gomock.Any(), gomock.Any()).Return(correlated, nil)
	suite.provider.EXPECT().GetBarData(gomock.Any(), "C", types.TimeframeH1, gomock.Any(), gomock.Any()).Return(independent, nil)

	matrix, err := suite.engine.ComputeCorrelations(suite.T().Context(), []string{"A", "B", "C"}, []types.Timeframe{types.TimeframeH1}, 100)
	suite.NoError(err)

	symbols := []string{"A", "B", "C"}
	for _, a := range symbols {
		for _, b := range symbols {
			ab, okAB := matrix.Correlation(types.TimeframeH1, a, b)
			ba, okBA := matrix.Correlation(types.TimeframeH1, b, a)
			suite.Equal(okAB, okBA)

			if okAB {
				suite.InDelta(ab, ba, 1e-12)
				suite.LessOrEqual(math.Abs(ab), 1+1e-12)
			}
		}
	}

	// Self-correlation is exactly 1 on the diagonal.
	self, ok := matrix.Correlation(types.TimeframeH1, "A", "A")
	suite.True(ok)
	suite.Equal(1.0, self)

	// The tracking series correlates far more strongly than the independent one.
	ab, ok := matrix.Correlation(types.TimeframeH1, "A", "B")
	suite.True(ok)
	ac, ok := matrix.Correlation(types.TimeframeH1, "A", "C")
	suite.True(ok)
	suite.Greater(ab, ac)
	suite.Greater(ab, 0.9)
}

func (suite *EngineTestSuite) TestProceedsWithFewerBarsThanWindow() {
	gen := mocks.NewDataGenerator(7)
	config := mocks.DefaultConfig()
	config.Count = 40 // fewer than the requested window

	base := gen.Generate(config)
	correlated := gen.GenerateCorrelated(base, "B", 0.01)

	suite.provider.EXPECT().GetBarData(gomock.Any(), "A", types.TimeframeD1, gomock.Any(), gomock.Any()).Return(base, nil)
	suite.provider.EXPECT().GetBarData(gomock.Any(), "B", types.TimeframeD1, gomock.Any(), gomock.Any()).Return(correlated, nil)

	matrix, err := suite.engine.ComputeCorrelations(suite.T().Context(), []string{"A", "B"}, []types.Timeframe{types.TimeframeD1}, 100)
	suite.NoError(err)

	coeff, ok := matrix.Correlation(types.TimeframeD1, "A", "B")
	suite.True(ok)
	suite.Greater(coeff, 0.9)
}

func (suite *EngineTestSuite) TestUndefinedCorrelationIsExcluded() {
	flat := make([]types.MarketData, 50)
	for i := range flat {
		flat[i] = types.MarketData{
			Symbol: "FLAT",
			Time:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour),
			Close:  100.0, // zero variance
		}
	}

	gen := mocks.NewDataGenerator(11)
	config := mocks.DefaultConfig()
	config.Count = 50
	moving := gen.Generate(config)

	suite.provider.EXPECT().GetBarData(gomock.Any(), "FLAT", types.TimeframeH1, gomock.Any(), gomock.Any()).Return(flat, nil)
	suite.provider.EXPECT().GetBarData(gomock.Any(), "MOV", types.TimeframeH1, gomock.Any(), gomock.Any()).Return(moving, nil)

	matrix, err := suite.engine.ComputeCorrelations(suite.T().Context(), []string{"FLAT", "MOV"}, []types.Timeframe{types.TimeframeH1}, 50)
	suite.NoError(err)

	_, ok := matrix.Correlation(types.TimeframeH1, "FLAT", "MOV")
	suite.False(ok)

	_, ok = matrix.AverageCorrelation("FLAT", []types.Timeframe{types.TimeframeH1})
	suite.False(ok)
}

func (suite *EngineTestSuite) TestAverageCorrelationExcludesSelf() {
	gen := mocks.NewDataGenerator(3)
	config := mocks.DefaultConfig()
	config.Count = 60

	base := gen.Generate(config)
	inverse := make([]types.MarketData, len(base))

	for i, bar := range base {
		inverse[i] = bar
		inverse[i].Symbol = "INV"
		inverse[i].Close = 200 - bar.Close
	}

	suite.provider.EXPECT().GetBarData(gomock.Any(), "A", types.TimeframeH1, gomock.Any(), gomock.Any()).Return(base, nil)
	suite.provider.EXPECT().GetBarData(gomock.Any(), "INV", types.TimeframeH1, gomock.Any(), gomock.Any()).Return(inverse, nil)

	matrix, err := suite.engine.ComputeCorrelations(suite.T().Context(), []string{"A", "INV"}, []types.Timeframe{types.TimeframeH1}, 60)
	suite.NoError(err)

	// If self-correlation leaked into the mean, the average would be
	// pulled toward +1 instead of sitting at the
	// perfectly inverse -1.
	avg, ok := matrix.AverageCorrelation("A", []types.Timeframe{types.TimeframeH1})
	suite.True(ok)
	suite.InDelta(-1.0, avg, 1e-9)
}

func (suite *EngineTestSuite) TestInvalidConfigurationRejected() {
	_, err := suite.engine.ComputeCorrelations(suite.T().Context(), nil, []types.Timeframe{types.TimeframeH1}, 100)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	_, err = suite.engine.ComputeCorrelations(suite.T().Context(), []string{"A"}, nil, 100)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	_, err = suite.engine.ComputeCorrelations(suite.T().Context(), []string{"A"}, []types.Timeframe{types.Timeframe("M2")}, 100)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTimeframe))

	_, err = suite.engine.ComputeCorrelations(suite.T().Context(), []string{"A"}, []types.Timeframe{types.TimeframeH1}, 0)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidWindow))
}

func (suite *EngineTestSuite) TestProviderErrorPropagates() {
	fetchErr := errors.New(errors.ErrCodeMarketDataFetchFailed, "fetch failed")

	suite.provider.EXPECT().GetBarData(gomock.Any(), "A", types.TimeframeH1, gomock.Any(), gomock.Any()).Return(nil, fetchErr)

	_, err := suite.engine.ComputeCorrelations(suite.T().Context(), []string{"A"}, []types.Timeframe{types.TimeframeH1}, 100)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataFetchFailed))
}

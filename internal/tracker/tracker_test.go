package tracker

import (
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type TrackerTestSuite struct {
	suite.Suite

	tracker Tracker
}

func TestTrackerSuite(t *testing.T) {
	suite.Run(t, new(TrackerTestSuite))
}

func (suite *TrackerTestSuite) SetupTest() {
	suite.tracker = NewDefaultTracker(logger.NewNopLogger())
}

func trade(symbol string, direction types.Direction, pnl float64) types.TradeRecord {
	entry := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	return types.TradeRecord{
		Symbol:     symbol,
		Direction:  direction,
		EntryTime:  entry,
		ExitTime:   entry.Add(time.Hour),
		EntryPrice: 1.2000,
		ExitPrice:  1.2000 + pnl/10000,
		PnL:        pnl,
	}
}

func (suite *TrackerTestSuite) TestEMAMatchesClosedForm() {
	pnls := []float64{10, -5, 20}
	for _, pnl := range pnls {
		suite.NoError(suite.tracker.RegisterTrade(trade("EURUSD", types.DirectionLong, pnl)))
	}

	// ema_n = sum over i of 0.9^(n-i) * 0.1 * pnl_i, starting from 0.
	want := 0.0
	for _, pnl := range pnls {
		want = 0.9*want + 0.1*pnl
	}

	rr := suite.tracker.ExpectedRewardToRisk("EURUSD")
	suite.InDelta(want, rr.Long, 1e-12)
	suite.InDelta(2.36, rr.Long, 1e-12)
	suite.Equal(0.0, rr.Short)
	suite.Equal(3, suite.tracker.TradeCount("EURUSD", types.DirectionLong))
}

func (suite *TrackerTestSuite) TestUpdateOrderMatters() {
	a := NewDefaultTracker(logger.NewNopLogger())
	b := NewDefaultTracker(logger.NewNopLogger())

	suite.NoError(a.RegisterTrade(trade("EURUSD", types.DirectionLong, 10)))
	suite.NoError(a.RegisterTrade(trade("EURUSD", types.DirectionLong, -5)))

	suite.NoError(b.RegisterTrade(trade("EURUSD", types.DirectionLong, -5)))
	suite.NoError(b.RegisterTrade(trade("EURUSD", types.DirectionLong, 10)))

	suite.NotEqual(a.ExpectedRewardToRisk("EURUSD").Long, b.ExpectedRewardToRisk("EURUSD").Long)
}

func (suite *TrackerTestSuite) TestUnseenPairReportsZero() {
	rr := suite.tracker.ExpectedRewardToRisk("GBPUSD")
	suite.Equal(0.0, rr.Long)
	suite.Equal(0.0, rr.Short)
	suite.Equal(0, suite.tracker.TradeCount("GBPUSD", types.DirectionLong))

	// A long trade must not bleed into the short estimate.
	suite.NoError(suite.tracker.RegisterTrade(trade("GBPUSD", types.DirectionLong, 10)))
	suite.Equal(0.0, suite.tracker.ExpectedRewardToRisk("GBPUSD").Short)
}

func (suite *TrackerTestSuite) TestSnapshotHorizonsAreIdentical() {
	suite.NoError(suite.tracker.RegisterTrade(trade("EURUSD", types.DirectionLong, 10)))
	suite.NoError(suite.tracker.RegisterTrade(trade("EURUSD", types.DirectionShort, -4)))

	snapshot := suite.tracker.EvaluationSnapshot("EURUSD")
	suite.Len(snapshot, 2)
	suite.Contains(snapshot, HorizonShort)
	suite.Contains(snapshot, HorizonLong)
	suite.Equal(snapshot[HorizonShort], snapshot[HorizonLong])

	suite.InDelta(1.0, snapshot[HorizonShort].Long, 1e-12)
	suite.InDelta(-0.4, snapshot[HorizonShort].Short, 1e-12)
}

func (suite *TrackerTestSuite) TestMalformedTradeRejected() {
	bad := trade("", types.DirectionLong, 10)
	err := suite.tracker.RegisterTrade(bad)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	bad = trade("EURUSD", "sideways", 10)
	err = suite.tracker.RegisterTrade(bad)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidDirection))

	bad = trade("EURUSD", types.DirectionLong, 10)
	bad.ExitTime = bad.EntryTime.Add(-time.Minute)
	err = suite.tracker.RegisterTrade(bad)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	// Rejected trades leave the state untouched.
	suite.Equal(0, suite.tracker.TradeCount("EURUSD", types.DirectionLong))
}

func (suite *TrackerTestSuite) TestInvalidDecayRejected() {
	for _, decay := range []float64{0, 1, -0.5, 1.5} {
		_, err := NewTracker(decay, logger.NewNopLogger())
		suite.True(errors.HasCode(err, errors.ErrCodeInvalidDecay), "decay %v", decay)
	}
}

func (suite *TrackerTestSuite) TestConcurrentRegistration() {
	var wg sync.WaitGroup

	symbols := []string{"EURUSD", "GBPUSD", "USDJPY", "AUDUSD"}

	for _, symbol := range symbols {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range 100 {
				record := trade(symbol, types.DirectionLong, float64(i%7))
				if err := suite.tracker.RegisterTrade(record); err != nil {
					panic(fmt.Sprintf("unexpected error: %v", err))
				}
			}
		}()
	}

	wg.Wait()

	for _, symbol := range symbols {
		suite.Equal(100, suite.tracker.TradeCount(symbol, types.DirectionLong))
		suite.False(math.IsNaN(suite.tracker.ExpectedRewardToRisk(symbol).Long))
	}
}

package strategies

import (
	"context"
	"errors"
	"testing"

	"github.com/BelphegorPrime/binance-trade-bot/src/config"
	"github.com/BelphegorPrime/binance-trade-bot/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStrategy = config.Strategy{TransactionFee: 0.001, Multiplier: 5}

type scoutFixture struct {
	scout    *Scout
	store    *tests.MockRatioStore
	exchange *tests.MockExchange
	router   *tests.MockJumpRouter
	statsd   *tests.MockStatsdClient
}

func newScout(t *testing.T, prices map[string]float64, current string, coins ...string) *scoutFixture {
	logger, statsd := tests.GetLoggerStatsd(t)
	exchange := tests.NewMockExchange("USDT", prices, map[string]float64{})
	store := tests.NewMockRatioStoreWithCoins(current, coins...)
	router := &tests.MockJumpRouter{}
	return &scoutFixture{
		scout:    NewScout(testStrategy, store, tests.NewMockOracle(exchange), router, logger, statsd),
		store:    store,
		exchange: exchange,
		router:   router,
		statsd:   statsd,
	}
}

func TestTickJumpsWhenAdjustedRatioBeatsThreshold(t *testing.T) {
	f := newScout(t, map[string]float64{"CUSDT": 100, "XUSDT": 40}, "C", "C", "X")
	f.store.SetRatio("C", "X", 2.3)

	assert.InDelta(t, 2.4875, f.scout.Adjusted(2.5), 1e-12)
	jumped, err := f.scout.Tick(context.Background())
	require.NoError(t, err)
	assert.True(t, jumped)
	assert.Equal(t, []string{"C->X"}, f.router.Jumps)
}

func TestTickHoldsWhenThresholdNotBeaten(t *testing.T) {
	f := newScout(t, map[string]float64{"CUSDT": 100, "XUSDT": 40}, "C", "C", "X")
	f.store.SetRatio("C", "X", 2.5)

	jumped, err := f.scout.Tick(context.Background())
	require.NoError(t, err)
	assert.False(t, jumped)
	assert.Empty(t, f.router.Jumps)
}

func TestTickJumpsToFirstQualifyingCandidateOnly(t *testing.T) {
	f := newScout(t, map[string]float64{"CUSDT": 100, "XUSDT": 40, "YUSDT": 10, "ZUSDT": 1}, "C", "C", "X", "Y", "Z")
	f.store.SetRatio("C", "X", 2.5)
	f.store.SetRatio("C", "Y", 5)
	f.store.SetRatio("C", "Z", 10)

	jumped, err := f.scout.Tick(context.Background())
	require.NoError(t, err)
	assert.True(t, jumped)
	assert.Equal(t, []string{"C->Y"}, f.router.Jumps)
}

func TestTickSkipsDisabledAndUnavailableCandidates(t *testing.T) {
	f := newScout(t, map[string]float64{"CUSDT": 100, "XUSDT": 40, "YUSDT": 10, "ZUSDT": 1}, "C", "C", "X", "Y", "Z")
	f.store.SetRatio("C", "X", 1)
	f.store.SetRatio("C", "Y", 1)
	f.store.SetRatio("C", "Z", 1)
	f.store.SetEnabled("X", false)
	f.exchange.DeletePrice("YUSDT")

	jumped, err := f.scout.Tick(context.Background())
	require.NoError(t, err)
	assert.True(t, jumped)
	assert.Equal(t, []string{"C->Z"}, f.router.Jumps)
}

func TestTickSkipsUnsetThresholds(t *testing.T) {
	f := newScout(t, map[string]float64{"CUSDT": 100, "XUSDT": 40}, "C", "C", "X")

	jumped, err := f.scout.Tick(context.Background())
	require.NoError(t, err)
	assert.False(t, jumped)
}

func TestTickSkipsWithoutCurrentPrice(t *testing.T) {
	f := newScout(t, map[string]float64{"XUSDT": 40}, "C", "C", "X")
	f.store.SetRatio("C", "X", 0.1)

	jumped, err := f.scout.Tick(context.Background())
	require.NoError(t, err)
	assert.False(t, jumped)
	assert.Equal(t, 1, f.statsd.Count("scout.skip"))
}

func TestTickSkipsWithoutCurrentCoin(t *testing.T) {
	f := newScout(t, map[string]float64{"CUSDT": 100, "XUSDT": 40}, "", "C", "X")

	jumped, err := f.scout.Tick(context.Background())
	require.NoError(t, err)
	assert.False(t, jumped)
	assert.Equal(t, 0, f.exchange.Calls("GetAllPrices"))
}

func TestTickReturnsJumpError(t *testing.T) {
	f := newScout(t, map[string]float64{"CUSDT": 100, "XUSDT": 40}, "C", "C", "X")
	f.store.SetRatio("C", "X", 1)
	f.router.Err = errors.New("sell leg failed")

	jumped, err := f.scout.Tick(context.Background())
	assert.True(t, jumped)
	assert.EqualError(t, err, "sell leg failed")
}

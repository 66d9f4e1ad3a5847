package strategies

import (
	"context"
	"testing"

	"github.com/BelphegorPrime/binance-trade-bot/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newThresholds(t *testing.T, prices map[string]float64, current string, coins ...string) (*ThresholdEngine, *tests.MockRatioStore, *tests.MockExchange) {
	logger, statsd := tests.GetLoggerStatsd(t)
	exchange := tests.NewMockExchange("USDT", prices, map[string]float64{})
	store := tests.NewMockRatioStoreWithCoins(current, coins...)
	return NewThresholdEngine(store, tests.NewMockOracle(exchange), logger, statsd), store, exchange
}

func TestInitializeMissing(t *testing.T) {
	te, store, _ := newThresholds(t,
		map[string]float64{"ADAUSDT": 1, "XLMUSDT": 0.25, "TRXUSDT": 0.5},
		"ADA", "ADA", "XLM", "TRX")

	n, err := te.InitializeMissing(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.InDelta(t, 4.0, *store.Ratio("ADA", "XLM"), 1e-12)
	assert.InDelta(t, 0.25, *store.Ratio("XLM", "ADA"), 1e-12)
	assert.InDelta(t, 0.5, *store.Ratio("XLM", "TRX"), 1e-12)

	n, err = te.InitializeMissing(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n, "set ratios are left alone")
	assert.Len(t, store.UpsertCalls(), 6)
}

func TestInitializeMissingSkipsUnavailablePrices(t *testing.T) {
	te, store, exchange := newThresholds(t,
		map[string]float64{"ADAUSDT": 1, "XLMUSDT": 0.25},
		"ADA", "ADA", "XLM", "TRX")

	n, err := te.InitializeMissing(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Nil(t, store.Ratio("ADA", "TRX"))
	assert.Nil(t, store.Ratio("TRX", "XLM"))

	exchange.SetPrice("TRXUSDT", 0.5)
	n, err = te.InitializeMissing(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.InDelta(t, 2.0, *store.Ratio("ADA", "TRX"), 1e-12)
}

func TestInitializeMissingSkipsDisabledCoins(t *testing.T) {
	te, store, _ := newThresholds(t,
		map[string]float64{"ADAUSDT": 1, "XLMUSDT": 0.25, "TRXUSDT": 0.5},
		"ADA", "ADA", "XLM", "TRX")
	store.SetEnabled("TRX", false)

	n, err := te.InitializeMissing(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Nil(t, store.Ratio("TRX", "ADA"))
}

func TestRebaseOnCurrentTouchesOnlyPairsToCurrent(t *testing.T) {
	te, store, exchange := newThresholds(t,
		map[string]float64{"ADAUSDT": 1, "XLMUSDT": 0.25, "TRXUSDT": 0.5},
		"ADA", "ADA", "XLM", "TRX")
	_, err := te.InitializeMissing(context.Background())
	require.NoError(t, err)

	exchange.SetPrice("XLMUSDT", 0.5)
	exchange.SetPrice("TRXUSDT", 2)
	n, err := te.RebaseOnCurrent(context.Background(), "XLM")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.InDelta(t, 2.0, *store.Ratio("ADA", "XLM"), 1e-12)
	assert.InDelta(t, 4.0, *store.Ratio("TRX", "XLM"), 1e-12)

	assert.InDelta(t, 2.0, *store.Ratio("ADA", "TRX"), 1e-12, "pairs to other coins keep the old baseline")
	assert.InDelta(t, 0.25, *store.Ratio("XLM", "ADA"), 1e-12)
	for _, call := range store.UpsertCalls()[6:] {
		assert.Equal(t, "XLM", call.To)
	}
}

func TestRebaseOnCurrentSkipsUnavailablePrices(t *testing.T) {
	te, store, exchange := newThresholds(t,
		map[string]float64{"ADAUSDT": 1, "XLMUSDT": 0.25, "TRXUSDT": 0.5},
		"ADA", "ADA", "XLM", "TRX")
	store.SetRatio("ADA", "XLM", 3)
	store.SetRatio("TRX", "XLM", 3)

	exchange.DeletePrice("ADAUSDT")
	n, err := te.RebaseOnCurrent(context.Background(), "XLM")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 3.0, *store.Ratio("ADA", "XLM"))
	assert.InDelta(t, 2.0, *store.Ratio("TRX", "XLM"), 1e-12)

	exchange.DeletePrice("XLMUSDT")
	n, err = te.RebaseOnCurrent(context.Background(), "XLM")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

package sqlstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/BelphegorPrime/binance-trade-bot/src/config"
	"github.com/BelphegorPrime/binance-trade-bot/src/models"
	"github.com/BelphegorPrime/binance-trade-bot/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Store {
	logger, _ := tests.GetLoggerStatsd(t)
	store, err := Open(config.Storage{Driver: "sqlite", DSN: ":memory:"}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func symbols(pairs []models.Pair) []string {
	out := make([]string, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, p.From.Symbol+"->"+p.To.Symbol)
	}
	return out
}

func TestSetCoinsCreatesPairsInInsertionOrder(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()
	require.NoError(t, store.SetCoins(ctx, []string{"ADA", "XLM", "TRX"}))

	pairs, err := store.GetPairsFrom(ctx, "XLM")
	require.NoError(t, err)
	assert.Equal(t, []string{"XLM->ADA", "XLM->TRX"}, symbols(pairs))
	for _, p := range pairs {
		assert.False(t, p.HasRatio())
		assert.True(t, p.From.Enabled)
		assert.True(t, p.To.Enabled)
	}

	unset, err := store.UnsetPairs(ctx)
	require.NoError(t, err)
	assert.Len(t, unset, 6)
}

func TestSetCoinsDisablesRemovedCoins(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()
	require.NoError(t, store.SetCoins(ctx, []string{"ADA", "XLM", "TRX"}))
	require.NoError(t, store.UpsertPairRatio(ctx, "ADA", "TRX", 2))
	require.NoError(t, store.SetCoins(ctx, []string{"ADA", "XLM", "EOS"}))

	pairs, err := store.GetPairsFrom(ctx, "ADA")
	require.NoError(t, err)
	assert.Equal(t, []string{"ADA->XLM", "ADA->TRX", "ADA->EOS"}, symbols(pairs))
	assert.False(t, pairs[1].To.Enabled)
	assert.Equal(t, 2.0, *pairs[1].Ratio, "ratios survive a universe change")
	assert.True(t, pairs[2].To.Enabled)
}

func TestRatios(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()
	require.NoError(t, store.SetCoins(ctx, []string{"ADA", "XLM", "TRX"}))

	require.NoError(t, store.UpsertPairRatio(ctx, "ADA", "XLM", 4))
	require.NoError(t, store.UpsertPairRatio(ctx, "TRX", "XLM", 0.5))
	require.NoError(t, store.UpsertPairRatio(ctx, "TRX", "XLM", 0.75))

	to, err := store.GetPairsTo(ctx, "XLM")
	require.NoError(t, err)
	require.Len(t, to, 2)
	assert.Equal(t, 4.0, *to[0].Ratio)
	assert.Equal(t, 0.75, *to[1].Ratio)

	unset, err := store.UnsetPairs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ADA->TRX", "XLM->ADA", "XLM->TRX", "TRX->ADA"}, symbols(unset))
}

func TestCurrentAssetHistory(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()

	_, ok, err := store.GetCurrentAsset(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetCurrentAsset(ctx, "ADA"))
	require.NoError(t, store.SetCurrentAsset(ctx, "XLM"))
	coin, ok, err := store.GetCurrentAsset(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "XLM", coin)
}

func TestOpenFileDatabase(t *testing.T) {
	logger, _ := tests.GetLoggerStatsd(t)
	path := filepath.Join(t.TempDir(), "data", "crypto_trading.db")
	store, err := Open(config.Storage{Driver: "sqlite", DSN: path}, logger)
	require.NoError(t, err)
	require.NoError(t, store.SetCurrentAsset(context.Background(), "ADA"))
	require.NoError(t, store.Close())

	store, err = Open(config.Storage{Driver: "sqlite", DSN: path}, logger)
	require.NoError(t, err)
	defer store.Close()
	coin, ok, err := store.GetCurrentAsset(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ADA", coin)
}

func TestOpenUnknownDriver(t *testing.T) {
	logger, _ := tests.GetLoggerStatsd(t)
	_, err := Open(config.Storage{Driver: "postgres"}, logger)
	assert.Error(t, err)
}

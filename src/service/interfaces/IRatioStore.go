package interfaces

import (
	"context"

	"github.com/BelphegorPrime/binance-trade-bot/src/models"
)

// IRatioStore persists the coin universe, the pair ratio matrix and the current holding.
type IRatioStore interface {
	SetCoins(ctx context.Context, symbols []string) error
	GetCurrentAsset(ctx context.Context) (string, bool, error)
	SetCurrentAsset(ctx context.Context, symbol string) error
	// GetPairsFrom returns pairs with the given from coin in insertion order.
	GetPairsFrom(ctx context.Context, symbol string) ([]models.Pair, error)
	GetPairsTo(ctx context.Context, symbol string) ([]models.Pair, error)
	UpsertPairRatio(ctx context.Context, from, to string, ratio float64) error
	// UnsetPairs returns pairs without a ratio in insertion order.
	UnsetPairs(ctx context.Context) ([]models.Pair, error)
}

package strategies

import (
	"context"

	"github.com/BelphegorPrime/binance-trade-bot/src/service/interfaces"
	"go.uber.org/zap"
)

// ThresholdEngine computes the baseline ratio price(from)/price(to) of pairs.
// A pair whose prices are unavailable is left as it is and retried on the next call.
type ThresholdEngine struct {
	Store  interfaces.IRatioStore
	Oracle interfaces.IPriceOracle
	Log    interfaces.ILogger
	Statsd interfaces.IStatsClient
}

func NewThresholdEngine(store interfaces.IRatioStore, oracle interfaces.IPriceOracle, log interfaces.ILogger, statsd interfaces.IStatsClient) *ThresholdEngine {
	return &ThresholdEngine{Store: store, Oracle: oracle, Log: log, Statsd: statsd}
}

// InitializeMissing sets the ratio of every unset pair between two enabled coins.
// It returns how many pairs were initialized.
func (te *ThresholdEngine) InitializeMissing(ctx context.Context) (int, error) {
	pairs, err := te.Store.UnsetPairs(ctx)
	if err != nil {
		return 0, err
	}
	if len(pairs) == 0 {
		return 0, nil
	}
	te.Log.Info("initializing pair thresholds", zap.Int("pairs", len(pairs)))

	snapshot, err := te.Oracle.Snapshot(ctx)
	if err != nil {
		return 0, err
	}

	initialized := 0
	for _, pair := range pairs {
		if !pair.From.Enabled || !pair.To.Enabled {
			continue
		}
		fromPrice, ok := snapshot.BridgePrice(pair.From.Symbol)
		if !ok {
			te.Log.Warn("skipping pair, price unavailable",
				zap.String("pair", pair.String()),
				zap.String("symbol", pair.From.Symbol+snapshot.Bridge),
			)
			continue
		}
		toPrice, ok := snapshot.BridgePrice(pair.To.Symbol)
		if !ok {
			te.Log.Warn("skipping pair, price unavailable",
				zap.String("pair", pair.String()),
				zap.String("symbol", pair.To.Symbol+snapshot.Bridge),
			)
			continue
		}
		if err := te.Store.UpsertPairRatio(ctx, pair.From.Symbol, pair.To.Symbol, fromPrice/toPrice); err != nil {
			return initialized, err
		}
		initialized++
	}
	te.Statsd.Gauge("thresholds.initialized", int64(initialized))
	te.Log.Info("pair thresholds initialized",
		zap.Int("initialized", initialized),
		zap.Int("unset", len(pairs)),
	)
	return initialized, nil
}

// RebaseOnCurrent recomputes every pair pointing at current from a fresh snapshot.
// Pairs pointing elsewhere are never touched.
func (te *ThresholdEngine) RebaseOnCurrent(ctx context.Context, current string) (int, error) {
	snapshot, err := te.Oracle.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	currentPrice, ok := snapshot.BridgePrice(current)
	if !ok {
		te.Log.Warn("skipping rebase, current coin price unavailable", zap.String("coin", current))
		return 0, nil
	}

	pairs, err := te.Store.GetPairsTo(ctx, current)
	if err != nil {
		return 0, err
	}
	rebased := 0
	for _, pair := range pairs {
		if pair.To.Symbol != current {
			continue
		}
		fromPrice, ok := snapshot.BridgePrice(pair.From.Symbol)
		if !ok {
			te.Log.Warn("skipping pair, price unavailable",
				zap.String("pair", pair.String()),
				zap.String("symbol", pair.From.Symbol+snapshot.Bridge),
			)
			continue
		}
		if err := te.Store.UpsertPairRatio(ctx, pair.From.Symbol, current, fromPrice/currentPrice); err != nil {
			return rebased, err
		}
		rebased++
	}
	te.Statsd.Inc("thresholds.rebased")
	te.Log.Info("pair thresholds rebased",
		zap.String("coin", current),
		zap.Int("pairs", rebased),
	)
	return rebased, nil
}

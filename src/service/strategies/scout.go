package strategies

import (
	"context"

	"github.com/BelphegorPrime/binance-trade-bot/src/config"
	"github.com/BelphegorPrime/binance-trade-bot/src/service/interfaces"
	"go.uber.org/zap"
)

// Scout decides once per tick whether the current coin should jump to another one.
type Scout struct {
	Store    interfaces.IRatioStore
	Oracle   interfaces.IPriceOracle
	Router   interfaces.IJumpRouter
	Strategy config.Strategy
	Log      interfaces.ILogger
	Statsd   interfaces.IStatsClient
}

func NewScout(cfg config.Strategy, store interfaces.IRatioStore, oracle interfaces.IPriceOracle, router interfaces.IJumpRouter, log interfaces.ILogger, statsd interfaces.IStatsClient) *Scout {
	return &Scout{Store: store, Oracle: oracle, Router: router, Strategy: cfg, Log: log, Statsd: statsd}
}

// Adjusted reduces the live ratio by the estimated round trip fee.
func (s *Scout) Adjusted(ratio float64) float64 {
	return ratio - s.Strategy.TransactionFee*s.Strategy.Multiplier*ratio
}

// Tick evaluates the pairs leaving the current coin in store order and jumps on the first
// one whose fee adjusted ratio beats its baseline. It reports whether a jump was attempted.
func (s *Scout) Tick(ctx context.Context) (bool, error) {
	s.Statsd.Inc("scout.tick")
	current, ok, err := s.Store.GetCurrentAsset(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		s.Log.Warn("no current coin, skipping tick")
		s.Statsd.Inc("scout.skip")
		return false, nil
	}

	snapshot, err := s.Oracle.Snapshot(ctx)
	if err != nil {
		return false, err
	}
	currentPrice, ok := snapshot.BridgePrice(current)
	if !ok {
		s.Log.Info("skipping tick, current coin price unavailable", zap.String("coin", current))
		s.Statsd.Inc("scout.skip")
		return false, nil
	}

	pairs, err := s.Store.GetPairsFrom(ctx, current)
	if err != nil {
		return false, err
	}
	for _, pair := range pairs {
		target := pair.To.Symbol
		if !pair.To.Enabled || target == current {
			continue
		}
		targetPrice, ok := snapshot.BridgePrice(target)
		if !ok {
			s.Log.Info("skipping candidate, price unavailable", zap.String("coin", target))
			continue
		}
		if !pair.HasRatio() {
			s.Log.Debug("skipping candidate, threshold not initialized", zap.String("pair", pair.String()))
			continue
		}

		adjusted := s.Adjusted(currentPrice / targetPrice)
		s.Log.Debug("candidate",
			zap.String("pair", pair.String()),
			zap.Float64("adjusted", adjusted),
		)
		if adjusted > *pair.Ratio {
			s.Log.Info("jump qualifies",
				zap.String("from", current),
				zap.String("to", target),
				zap.Float64("adjusted", adjusted),
				zap.Float64("threshold", *pair.Ratio),
			)
			return true, s.Router.Jump(ctx, current, target)
		}
	}
	return false, nil
}

package jump

import (
	"context"
	"errors"
	"fmt"

	"github.com/BelphegorPrime/binance-trade-bot/src/service/retry"
	"go.uber.org/zap"
)

// Reconcile works out from exchange balances which coin is actually held and returns it.
//
// The enabled coin worth the most in bridge terms wins and is recorded as the current coin.
// When the bridge balance is worth more than any coin, it is spent on holding.
func (r *Router) Reconcile(ctx context.Context, holding string) (string, error) {
	release, err := r.settle()
	if err != nil {
		return holding, err
	}
	defer release()
	return r.reconcile(ctx, holding)
}

func (r *Router) reconcile(ctx context.Context, holding string) (string, error) {
	prices, err := retry.Run(ctx, r.Cycles.Retry, "get all prices", r.Cycles.Exchange.GetAllPrices)
	if err != nil {
		return holding, fmt.Errorf("reconcile %s: %w", holding, err)
	}
	pairs, err := r.Store.GetPairsFrom(ctx, holding)
	if err != nil {
		return holding, fmt.Errorf("reconcile %s: %w", holding, err)
	}
	candidates := []string{holding}
	for _, pair := range pairs {
		if pair.To.Enabled {
			candidates = append(candidates, pair.To.Symbol)
		}
	}

	best, bestValue := holding, 0.0
	for _, coin := range candidates {
		price, ok := prices[coin+r.Cycles.Bridge]
		if !ok || price <= 0 {
			continue
		}
		balance, err := r.balance(ctx, coin)
		if err != nil {
			return holding, fmt.Errorf("reconcile %s: %w", holding, err)
		}
		if value := balance * price; value > bestValue {
			best, bestValue = coin, value
		}
	}
	bridge, err := r.balance(ctx, r.Cycles.Bridge)
	if err != nil {
		return holding, fmt.Errorf("reconcile %s: %w", holding, err)
	}

	switch {
	case bestValue > 0 && bestValue >= bridge:
		if best == holding {
			return holding, nil
		}
		return r.adopt(ctx, holding, best)
	case bridge > 0:
		r.Statsd.Inc("jump.rebuy")
		r.Log.Warn("balance is in the bridge, buying back",
			zap.String("coin", holding),
			zap.Float64("bridge", bridge),
		)
		if err := r.buyInto(ctx, holding); err != nil {
			return holding, fmt.Errorf("reconcile %s: %w", holding, err)
		}
		return holding, nil
	default:
		r.Log.Warn("no balance found for any coin", zap.String("coin", holding))
		return holding, nil
	}
}

func (r *Router) adopt(ctx context.Context, holding, coin string) (string, error) {
	err := r.Cycles.Retry.Do(ctx, "set current coin", func(ctx context.Context) error {
		return r.Store.SetCurrentAsset(ctx, coin)
	})
	if err != nil {
		return holding, fmt.Errorf("reconcile %s: %w", holding, err)
	}
	r.Statsd.Inc("jump.reconciled")
	r.Log.Warn("current coin corrected from balances", zap.String("from", holding), zap.String("to", coin))
	r.Notifier.Notify(fmt.Sprintf("Current coin corrected from %s to %s", holding, coin))
	if _, err := r.Thresholds.RebaseOnCurrent(ctx, coin); err != nil {
		r.Log.Error("rebase after reconcile failed", zap.String("coin", coin), zap.Error(err))
	}
	return coin, nil
}

// recoverFrom reconciles the holding after a failed jump leg so that the next tick trades from
// what is actually held. err is the leg failure.
func (r *Router) recoverFrom(ctx context.Context, from string, err error) error {
	holding, rerr := r.reconcile(context.WithoutCancel(ctx), from)
	if rerr != nil {
		r.Log.Error("reconcile after failed jump", zap.String("holding", from), zap.Error(rerr))
		return errors.Join(err, rerr)
	}
	r.Log.Info("holding after failed jump", zap.String("holding", holding))
	return err
}

func (r *Router) balance(ctx context.Context, asset string) (float64, error) {
	return retry.Run(ctx, r.Cycles.Retry, "get balance "+asset, func(ctx context.Context) (float64, error) {
		return r.Cycles.Exchange.GetBalance(ctx, asset)
	})
}

package order_cycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/BelphegorPrime/binance-trade-bot/src/service/interfaces"
	"github.com/BelphegorPrime/binance-trade-bot/src/service/retry"
	"github.com/BelphegorPrime/binance-trade-bot/src/trading/orders"
	"go.uber.org/zap"
)

// awaitAck polls until the exchange reports any status for the placed order.
// Transient errors, "unknown order" included, are paced by AckPollInterval, others by AckErrorDelay.
func (oc *OrderCycle) awaitAck(ctx context.Context) error {
	if err := retry.Sleep(ctx, oc.Pacing.AckDelay); err != nil {
		return err
	}
	started := oc.now()
	for attempt := 1; ; attempt++ {
		status, err := oc.Exchange.GetOrderStatus(ctx, oc.Order.Symbol, oc.Order.Id)
		if err == nil {
			oc.Order.Status = status
			oc.Log.Debug("order acknowledged",
				zap.String("orderId", oc.Order.Id),
				zap.String("status", status),
				zap.Int("attempt", attempt),
			)
			return nil
		}
		if oc.Retry.Permanent(err) {
			return err
		}
		if oc.expired(started) {
			return oc.stalled("not acknowledged")
		}

		delay := oc.Pacing.AckErrorDelay
		if errors.Is(err, interfaces.ErrTransient) {
			delay = oc.Pacing.AckPollInterval
		}
		if attempt == 1 {
			oc.Log.Info("order not recorded yet", zap.String("orderId", oc.Order.Id), zap.Error(err))
		}
		if err := retry.Sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// waitFilled polls the order status until it is filled. Dead statuses end the cycle.
func (oc *OrderCycle) waitFilled(ctx context.Context) error {
	started := oc.now()
	for oc.Order.Status != orders.StatusFilled {
		if orders.IsDead(oc.Order.Status) {
			return fmt.Errorf("%w: order %q is %s", interfaces.ErrRejected, oc.Order.Id, oc.Order.Status)
		}
		if oc.expired(started) {
			return oc.stalled("not filled")
		}
		if err := retry.Sleep(ctx, oc.Pacing.PollInterval); err != nil {
			return err
		}

		status, err := oc.Exchange.GetOrderStatus(ctx, oc.Order.Symbol, oc.Order.Id)
		if err != nil {
			if oc.Retry.Permanent(err) {
				return err
			}
			oc.Log.Debug("order status poll failed", zap.String("orderId", oc.Order.Id), zap.Error(err))
			if err := retry.Sleep(ctx, oc.Pacing.PollErrorDelay); err != nil {
				return err
			}
			continue
		}
		if status != oc.Order.Status {
			oc.Log.Info("order status changed",
				zap.String("orderId", oc.Order.Id),
				zap.String("from", oc.Order.Status),
				zap.String("to", status),
			)
		}
		oc.Order.Status = status
	}
	return nil
}

// confirmBalance waits until the sold asset's balance drops below its pre-trade value.
func (oc *OrderCycle) confirmBalance(ctx context.Context) error {
	started := oc.now()
	for {
		balance, err := oc.Exchange.GetBalance(ctx, oc.Asset)
		switch {
		case err == nil && balance < oc.balanceBefore:
			return nil
		case err != nil && oc.Retry.Permanent(err):
			return err
		case err != nil:
			oc.Log.Debug("balance poll failed", zap.Error(err))
		default:
			oc.Log.Debug("balance not updated yet",
				zap.Float64("balance", balance),
				zap.Float64("before", oc.balanceBefore),
			)
		}
		if oc.expired(started) {
			return oc.stalled("balance not updated")
		}
		if err := retry.Sleep(ctx, oc.Pacing.BalancePollInterval); err != nil {
			return err
		}
	}
}

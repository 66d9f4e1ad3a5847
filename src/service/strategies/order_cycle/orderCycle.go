package order_cycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BelphegorPrime/binance-trade-bot/src/config"
	"github.com/BelphegorPrime/binance-trade-bot/src/logging"
	"github.com/BelphegorPrime/binance-trade-bot/src/service/interfaces"
	"github.com/BelphegorPrime/binance-trade-bot/src/service/retry"
	"github.com/BelphegorPrime/binance-trade-bot/src/trading/orders"
	"github.com/qmuntal/stateless"
	"go.uber.org/zap"
)

const (
	Submitting        = "Submitting"
	AwaitingAck       = "AwaitingAck"
	PollingStatus     = "PollingStatus"
	ConfirmingBalance = "ConfirmingBalance"
	Filled            = "Filled"
	Stalled           = "Stalled"
	Failed            = "Failed"
)

const (
	TriggerSubmitted      = "Submitted"
	TriggerAcknowledged   = "Acknowledged"
	TriggerFilled         = "TriggerFilled"
	TriggerBalanceSettled = "BalanceSettled"
	TriggerStall          = "Stall"
	TriggerFail           = "Fail"
)

// ErrOrderStalled is returned when a poll loop outlives the configured max wait.
var ErrOrderStalled = errors.New("order stalled")

// Deps are the collaborators shared by every cycle of a trader.
type Deps struct {
	Bridge   string
	Exchange interfaces.IExchange
	Retry    *retry.Executor
	Pacing   config.Orders
	Log      interfaces.ILogger
	Statsd   interfaces.IStatsClient
}

// An OrderCycle places one order for the whole available balance and follows it until it is filled.
// A cycle is single use.
type OrderCycle struct {
	Deps
	Side  orders.Side
	Asset string
	State *stateless.StateMachine
	Order orders.Order

	balanceBefore float64
	err           error
	now           func() time.Time
}

// NewSellCycle sells the whole balance of asset into the bridge at market price.
func NewSellCycle(asset string, deps Deps) *OrderCycle {
	return newOrderCycle(orders.SideSell, asset, deps)
}

// NewBuyCycle spends the whole bridge balance on asset with a limit order at the current price.
func NewBuyCycle(asset string, deps Deps) *OrderCycle {
	return newOrderCycle(orders.SideBuy, asset, deps)
}

func newOrderCycle(side orders.Side, asset string, deps Deps) *OrderCycle {
	oc := &OrderCycle{Deps: deps, Side: side, Asset: asset, now: time.Now}
	oc.Log = logging.With(deps.Log,
		zap.String("side", string(side)),
		zap.String("symbol", oc.Symbol()),
	)

	State := stateless.NewStateMachineWithMode(Submitting, 1)
	State.OnTransitioned(func(ctx context.Context, tr stateless.Transition) {
		oc.Log.Debug("order cycle transition",
			zap.String("trigger", fmt.Sprintf("%v", tr.Trigger)),
			zap.String("source", fmt.Sprintf("%v", tr.Source)),
			zap.String("dest", fmt.Sprintf("%v", tr.Destination)),
		)
	})

	/*
		Order cycle:
			1) compute the quantity from the balance and place the order
			2) wait until the exchange knows the order
			3) poll its status until it is filled
			4) after a sell, wait until the balance reflects the fill
	*/
	State.Configure(Submitting).
		Permit(TriggerSubmitted, AwaitingAck).
		Permit(TriggerStall, Stalled).
		Permit(TriggerFail, Failed)

	State.Configure(AwaitingAck).
		Permit(TriggerAcknowledged, PollingStatus).
		Permit(TriggerStall, Stalled).
		Permit(TriggerFail, Failed)

	State.Configure(PollingStatus).
		Permit(TriggerFilled, ConfirmingBalance, oc.isSell).
		Permit(TriggerFilled, Filled, oc.isBuy).
		Permit(TriggerStall, Stalled).
		Permit(TriggerFail, Failed)

	State.Configure(ConfirmingBalance).
		Permit(TriggerBalanceSettled, Filled).
		Permit(TriggerStall, Stalled).
		Permit(TriggerFail, Failed)

	State.Configure(Filled).OnEntry(oc.enterFilled)
	State.Configure(Stalled).OnEntry(oc.enterStalled)
	State.Configure(Failed).OnEntry(oc.enterFailed)

	_ = State.Activate()
	oc.State = State
	return oc
}

func (oc *OrderCycle) Symbol() string {
	return oc.Asset + oc.Bridge
}

func (oc *OrderCycle) isSell(ctx context.Context, args ...interface{}) bool {
	return oc.Side == orders.SideSell
}

func (oc *OrderCycle) isBuy(ctx context.Context, args ...interface{}) bool {
	return oc.Side == orders.SideBuy
}

// Run drives the cycle to a terminal state. It returns the filled order, or an error wrapping
// ErrOrderStalled, retry.ErrRetriesExhausted or interfaces.ErrRejected.
func (oc *OrderCycle) Run(ctx context.Context) (orders.Order, error) {
	started := oc.now()
	for {
		state := oc.State.MustState()
		var err error
		var trigger string
		switch state {
		case Submitting:
			err, trigger = oc.submit(ctx), TriggerSubmitted
		case AwaitingAck:
			err, trigger = oc.awaitAck(ctx), TriggerAcknowledged
		case PollingStatus:
			err, trigger = oc.waitFilled(ctx), TriggerFilled
		case ConfirmingBalance:
			err, trigger = oc.confirmBalance(ctx), TriggerBalanceSettled
		case Filled:
			oc.Statsd.TimingDuration("order.duration", oc.now().Sub(started))
			return oc.Order, nil
		default:
			return oc.Order, oc.err
		}

		if err != nil {
			oc.err = fmt.Errorf("%s %s: %w", oc.Side, oc.Symbol(), err)
			trigger = TriggerFail
			if errors.Is(err, ErrOrderStalled) {
				trigger = TriggerStall
			}
		}
		if err := oc.State.FireCtx(ctx, trigger); err != nil {
			return oc.Order, fmt.Errorf("%s %s: %w", oc.Side, oc.Symbol(), err)
		}
	}
}

func (oc *OrderCycle) enterFilled(ctx context.Context, args ...interface{}) error {
	oc.Order.Status = orders.StatusFilled
	oc.Order.FilledAt = oc.now()
	oc.Statsd.Inc("order.filled")
	oc.Log.Info("order filled",
		zap.String("orderId", oc.Order.Id),
		zap.Float64("amount", oc.Order.Amount),
		zap.Float64("price", oc.Order.Price),
	)
	return nil
}

func (oc *OrderCycle) enterStalled(ctx context.Context, args ...interface{}) error {
	oc.Statsd.Inc("order.stalled")
	oc.Log.Error("order stalled",
		zap.String("orderId", oc.Order.Id),
		zap.String("status", oc.Order.Status),
		zap.Duration("maxWait", oc.Pacing.MaxWait),
	)
	oc.cancelOpen(ctx)
	return nil
}

func (oc *OrderCycle) enterFailed(ctx context.Context, args ...interface{}) error {
	oc.Statsd.Inc("order.failed")
	oc.Log.Error("order cycle failed",
		zap.String("orderId", oc.Order.Id),
		zap.Error(oc.err),
	)
	oc.cancelOpen(ctx)
	return nil
}

// cancelOpen cancels the placed order unless it already filled or died, so a cycle never
// leaves a live order behind. Cancellation of ctx does not stop it.
func (oc *OrderCycle) cancelOpen(ctx context.Context) {
	if oc.Order.Id == "" || oc.Order.Status == orders.StatusFilled || orders.IsDead(oc.Order.Status) {
		return
	}
	err := oc.Retry.Do(context.WithoutCancel(ctx), "cancel order "+oc.Order.Id, func(ctx context.Context) error {
		return oc.Exchange.CancelOrder(ctx, oc.Order.Symbol, oc.Order.Id)
	})
	if err != nil {
		oc.Statsd.Inc("order.cancel_failed")
		oc.Log.Error("can't cancel open order", zap.String("orderId", oc.Order.Id), zap.Error(err))
		oc.err = errors.Join(oc.err, fmt.Errorf("cancel order %q: %w", oc.Order.Id, err))
		return
	}
	oc.Order.Status = orders.StatusCanceled
	oc.Statsd.Inc("order.canceled")
	oc.Log.Warn("open order canceled", zap.String("orderId", oc.Order.Id))
}

// expired reports whether a poll loop started at since ran past MaxWait. Zero MaxWait never expires.
func (oc *OrderCycle) expired(since time.Time) bool {
	return oc.Pacing.MaxWait > 0 && oc.now().Sub(since) >= oc.Pacing.MaxWait
}

func (oc *OrderCycle) stalled(phase string) error {
	return fmt.Errorf("%w: order %q %s for %s", ErrOrderStalled, oc.Order.Id, phase, oc.Pacing.MaxWait)
}

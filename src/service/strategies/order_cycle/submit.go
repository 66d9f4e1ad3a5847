package order_cycle

import (
	"context"
	"fmt"

	"github.com/BelphegorPrime/binance-trade-bot/src/service/interfaces"
	"github.com/BelphegorPrime/binance-trade-bot/src/service/retry"
	"github.com/BelphegorPrime/binance-trade-bot/src/trading/orders"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SellQuantity floors balance to precision decimal places.
func SellQuantity(balance float64, precision int32) float64 {
	if balance <= 0 {
		return 0
	}
	quantity, _ := decimal.NewFromFloat(balance).Truncate(precision).Float64()
	return quantity
}

// BuyQuantity floors bridgeBalance/price to precision decimal places.
func BuyQuantity(bridgeBalance, price float64, precision int32) float64 {
	if bridgeBalance <= 0 || price <= 0 {
		return 0
	}
	quantity, _ := decimal.NewFromFloat(bridgeBalance).
		Div(decimal.NewFromFloat(price)).
		Truncate(precision).
		Float64()
	return quantity
}

func (oc *OrderCycle) submit(ctx context.Context) error {
	symbol := oc.Symbol()
	precision, err := retry.Run(ctx, oc.Retry, "get step precision "+symbol, func(ctx context.Context) (int32, error) {
		return oc.Exchange.GetStepPrecision(ctx, symbol)
	})
	if err != nil {
		return err
	}

	order := orders.Order{
		Symbol: symbol,
		Asset:  oc.Asset,
		Bridge: oc.Bridge,
		Side:   oc.Side,
		Status: orders.StatusNew,
	}
	var place func(ctx context.Context) (string, error)
	switch oc.Side {
	case orders.SideSell:
		balance, err := oc.balance(ctx, oc.Asset)
		if err != nil {
			return err
		}
		oc.balanceBefore = balance
		order.Type = orders.TypeMarket
		order.Amount = SellQuantity(balance, precision)
		place = func(ctx context.Context) (string, error) {
			return oc.Exchange.PlaceMarketSell(ctx, symbol, order.Amount)
		}
	case orders.SideBuy:
		price, err := oc.tickerPrice(ctx)
		if err != nil {
			return err
		}
		bridgeBalance, err := oc.balance(ctx, oc.Bridge)
		if err != nil {
			return err
		}
		order.Type = orders.TypeLimit
		order.Price = price
		order.Amount = BuyQuantity(bridgeBalance, price, precision)
		place = func(ctx context.Context) (string, error) {
			return oc.Exchange.PlaceLimitBuy(ctx, symbol, order.Amount, price)
		}
	default:
		return fmt.Errorf("%w: unknown side %q", interfaces.ErrRejected, oc.Side)
	}

	if order.Amount <= 0 {
		return fmt.Errorf("%w: nothing to %s, quantity %v", interfaces.ErrRejected, oc.Side, order.Amount)
	}

	oc.Log.Info("placing order",
		zap.String("type", string(order.Type)),
		zap.Float64("amount", order.Amount),
		zap.Float64("price", order.Price),
		zap.Int32("precision", precision),
	)
	id, err := retry.Run(ctx, oc.Retry, "place "+string(oc.Side)+" "+symbol, place)
	if err != nil {
		return err
	}
	order.Id = id
	order.CreatedAt = oc.now()
	oc.Order = order
	oc.Statsd.Inc("order.placed")
	oc.Log.Info("order placed", zap.String("orderId", id))
	return nil
}

func (oc *OrderCycle) balance(ctx context.Context, asset string) (float64, error) {
	return retry.Run(ctx, oc.Retry, "get balance "+asset, func(ctx context.Context) (float64, error) {
		return oc.Exchange.GetBalance(ctx, asset)
	})
}

func (oc *OrderCycle) tickerPrice(ctx context.Context) (float64, error) {
	symbol := oc.Symbol()
	return retry.Run(ctx, oc.Retry, "get price "+symbol, func(ctx context.Context) (float64, error) {
		prices, err := oc.Exchange.GetAllPrices(ctx)
		if err != nil {
			return 0, err
		}
		price, ok := prices[symbol]
		if !ok || price <= 0 {
			return 0, fmt.Errorf("%w: no price for %s", interfaces.ErrTransient, symbol)
		}
		return price, nil
	})
}

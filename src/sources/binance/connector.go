package binance

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/BelphegorPrime/binance-trade-bot/src/config"
	"github.com/BelphegorPrime/binance-trade-bot/src/service/interfaces"
	"github.com/adshao/go-binance/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Connector is the spot exchange gateway on top of the Binance REST API.
type Connector struct {
	Client    *binance.Client
	Log       interfaces.ILogger
	Statsd    interfaces.IStatsClient
	precision sync.Map // <string: pair, int32: step precision>
}

func NewConnector(cfg config.Binance, log interfaces.ILogger, statsd interfaces.IStatsClient) *Connector {
	client := binance.NewClient(cfg.APIKey, cfg.APISecretKey)
	if cfg.TLD != "" && cfg.TLD != "com" {
		client.BaseURL = fmt.Sprintf("https://api.binance.%s", cfg.TLD)
	}
	return &Connector{Client: client, Log: log, Statsd: statsd}
}

func (c *Connector) GetAllPrices(ctx context.Context) (map[string]float64, error) {
	res, err := c.Client.NewListPricesService().Do(ctx)
	if err != nil {
		return nil, c.classify("list prices", err)
	}
	prices := make(map[string]float64, len(res))
	for _, p := range res {
		price, err := strconv.ParseFloat(p.Price, 64)
		if err != nil {
			c.Log.Debug("unparsable ticker price", zap.String("symbol", p.Symbol), zap.String("price", p.Price))
			continue
		}
		prices[p.Symbol] = price
	}
	return prices, nil
}

// GetBalance returns the free balance of asset, zero when the account holds none.
func (c *Connector) GetBalance(ctx context.Context, asset string) (float64, error) {
	account, err := c.Client.NewGetAccountService().Do(ctx)
	if err != nil {
		return 0, c.classify("get account", err)
	}
	for _, b := range account.Balances {
		if b.Asset != asset {
			continue
		}
		free, err := strconv.ParseFloat(b.Free, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: balance of %s: %w", interfaces.ErrRejected, asset, err)
		}
		return free, nil
	}
	return 0, nil
}

// GetStepPrecision returns the number of decimals allowed by the pair's LOT_SIZE step. Results are cached.
func (c *Connector) GetStepPrecision(ctx context.Context, pair string) (int32, error) {
	if p, ok := c.precision.Load(pair); ok {
		return p.(int32), nil
	}
	info, err := c.Client.NewExchangeInfoService().Symbol(pair).Do(ctx)
	if err != nil {
		return 0, c.classify("exchange info", err)
	}
	for _, s := range info.Symbols {
		if s.Symbol != pair {
			continue
		}
		lot := s.LotSizeFilter()
		if lot == nil {
			return 0, fmt.Errorf("%w: %s has no LOT_SIZE filter", interfaces.ErrRejected, pair)
		}
		precision, err := StepPrecision(lot.StepSize)
		if err != nil {
			return 0, fmt.Errorf("%w: %s step size: %w", interfaces.ErrRejected, pair, err)
		}
		c.precision.Store(pair, precision)
		return precision, nil
	}
	return 0, fmt.Errorf("%w: unknown symbol %s", interfaces.ErrRejected, pair)
}

// StepPrecision converts a step size such as "0.00100000" into decimal places, 3 here.
// Steps of 1 and above allow no decimals.
func StepPrecision(step string) (int32, error) {
	d, err := decimal.NewFromString(step)
	if err != nil {
		return 0, err
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf("step size %q is not positive", step)
	}
	var precision int32
	for !d.Shift(precision).IsInteger() && precision < 18 {
		precision++
	}
	return precision, nil
}

func (c *Connector) PlaceLimitBuy(ctx context.Context, pair string, quantity, price float64) (string, error) {
	res, err := c.Client.NewCreateOrderService().
		Symbol(pair).
		Side(binance.SideTypeBuy).
		Type(binance.OrderTypeLimit).
		TimeInForce(binance.TimeInForceTypeGTC).
		Quantity(formatFloat(quantity)).
		Price(formatFloat(price)).
		NewClientOrderID(uuid.NewString()).
		Do(ctx)
	if err != nil {
		return "", c.classify("limit buy "+pair, err)
	}
	c.Statsd.Inc("binance.order_created")
	return strconv.FormatInt(res.OrderID, 10), nil
}

func (c *Connector) PlaceMarketSell(ctx context.Context, pair string, quantity float64) (string, error) {
	res, err := c.Client.NewCreateOrderService().
		Symbol(pair).
		Side(binance.SideTypeSell).
		Type(binance.OrderTypeMarket).
		Quantity(formatFloat(quantity)).
		NewClientOrderID(uuid.NewString()).
		Do(ctx)
	if err != nil {
		return "", c.classify("market sell "+pair, err)
	}
	c.Statsd.Inc("binance.order_created")
	return strconv.FormatInt(res.OrderID, 10), nil
}

func (c *Connector) GetOrderStatus(ctx context.Context, pair string, orderId string) (string, error) {
	id, err := strconv.ParseInt(orderId, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: order id %q: %w", interfaces.ErrRejected, orderId, err)
	}
	order, err := c.Client.NewGetOrderService().Symbol(pair).OrderID(id).Do(ctx)
	if err != nil {
		return "", c.classify("get order "+orderId, err)
	}
	return string(order.Status), nil
}

// CancelOrder cancels an open order. Orders that already filled or died are rejected by the exchange.
func (c *Connector) CancelOrder(ctx context.Context, pair string, orderId string) error {
	id, err := strconv.ParseInt(orderId, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: order id %q: %w", interfaces.ErrRejected, orderId, err)
	}
	if _, err := c.Client.NewCancelOrderService().Symbol(pair).OrderID(id).Do(ctx); err != nil {
		return c.classify("cancel order "+orderId, err)
	}
	c.Statsd.Inc("binance.order_canceled")
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package interfaces

import (
	"context"
	"errors"
)

var (
	// ErrTransient marks failures worth retrying: network errors, exchange overload and orders the exchange has not recorded yet.
	ErrTransient = errors.New("transient exchange failure")
	// ErrRejected marks requests the exchange refused. Retrying them does not help.
	ErrRejected = errors.New("rejected by exchange")
)

// IExchange is the exchange gateway. Pair symbols are asset+bridge, e.g. "ADAUSDT".
type IExchange interface {
	GetAllPrices(ctx context.Context) (map[string]float64, error)
	GetBalance(ctx context.Context, asset string) (float64, error)
	GetStepPrecision(ctx context.Context, pair string) (int32, error)
	PlaceLimitBuy(ctx context.Context, pair string, quantity, price float64) (string, error)
	PlaceMarketSell(ctx context.Context, pair string, quantity float64) (string, error)
	GetOrderStatus(ctx context.Context, pair string, orderId string) (string, error)
	CancelOrder(ctx context.Context, pair string, orderId string) error
}

package tests

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/BelphegorPrime/binance-trade-bot/src/service/interfaces"
	"github.com/BelphegorPrime/binance-trade-bot/src/trading/orders"
)

type MockOrder struct {
	orders.Order
	polls    int
	filled   bool
	canceled bool
}

// MockExchange implements IExchange over in-memory balances. An order fills, and moves balances,
// the first time its status is reported as FILLED.
type MockExchange struct {
	mu sync.Mutex

	Bridge           string
	Prices           map[string]float64
	Balances         map[string]float64
	Precision        map[string]int32
	DefaultPrecision int32

	// StatusSequence is reported by successive status polls of every order, the last entry repeats.
	StatusSequence []string
	// StatusBySymbol overrides StatusSequence for orders of one pair.
	StatusBySymbol map[string][]string
	// AfterFill runs with the exchange lock held once an order fills, it may mutate Prices and Balances directly.
	AfterFill func(order orders.Order)
	// UnrecordedPolls status polls per order fail as transient before the exchange knows the order.
	UnrecordedPolls int
	// StaleBalanceReads balance reads after a sell fill still return the pre-fill balance.
	StaleBalanceReads int

	PlaceErrors   []error
	StatusErrors  []error
	PriceErrors   []error
	BalanceErrors []error
	CancelErrors  []error

	Orders    []*MockOrder
	CallCount map[string]int

	stale map[string]staleBalance
}

type staleBalance struct {
	value float64
	reads int
}

func NewMockExchange(bridge string, prices map[string]float64, balances map[string]float64) *MockExchange {
	return &MockExchange{
		Bridge:           bridge,
		Prices:           prices,
		Balances:         balances,
		Precision:        map[string]int32{},
		DefaultPrecision: 3,
		StatusSequence:   []string{orders.StatusFilled},
		StatusBySymbol:   map[string][]string{},
		CallCount:        map[string]int{},
		stale:            map[string]staleBalance{},
	}
}

func (me *MockExchange) count(call string) {
	me.CallCount[call]++
}

func pop(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

func (me *MockExchange) SetPrice(symbol string, price float64) {
	me.mu.Lock()
	defer me.mu.Unlock()
	me.Prices[symbol] = price
}

func (me *MockExchange) DeletePrice(symbol string) {
	me.mu.Lock()
	defer me.mu.Unlock()
	delete(me.Prices, symbol)
}

func (me *MockExchange) Balance(asset string) float64 {
	me.mu.Lock()
	defer me.mu.Unlock()
	return me.Balances[asset]
}

func (me *MockExchange) Calls(call string) int {
	me.mu.Lock()
	defer me.mu.Unlock()
	return me.CallCount[call]
}

func (me *MockExchange) PlacedOrders() []orders.Order {
	me.mu.Lock()
	defer me.mu.Unlock()
	placed := make([]orders.Order, 0, len(me.Orders))
	for _, o := range me.Orders {
		placed = append(placed, o.Order)
	}
	return placed
}

func (me *MockExchange) GetAllPrices(ctx context.Context) (map[string]float64, error) {
	me.mu.Lock()
	defer me.mu.Unlock()
	me.count("GetAllPrices")
	if err := pop(&me.PriceErrors); err != nil {
		return nil, err
	}
	prices := make(map[string]float64, len(me.Prices))
	for k, v := range me.Prices {
		prices[k] = v
	}
	return prices, nil
}

func (me *MockExchange) GetBalance(ctx context.Context, asset string) (float64, error) {
	me.mu.Lock()
	defer me.mu.Unlock()
	me.count("GetBalance")
	if err := pop(&me.BalanceErrors); err != nil {
		return 0, err
	}
	if s, ok := me.stale[asset]; ok && s.reads > 0 {
		s.reads--
		me.stale[asset] = s
		return s.value, nil
	}
	return me.Balances[asset], nil
}

func (me *MockExchange) GetStepPrecision(ctx context.Context, pair string) (int32, error) {
	me.mu.Lock()
	defer me.mu.Unlock()
	me.count("GetStepPrecision")
	if p, ok := me.Precision[pair]; ok {
		return p, nil
	}
	return me.DefaultPrecision, nil
}

func (me *MockExchange) place(pair string, side orders.Side, orderType orders.Type, quantity, price float64) (string, error) {
	me.count("Place")
	me.count(string(side))
	if err := pop(&me.PlaceErrors); err != nil {
		return "", err
	}
	if quantity <= 0 {
		return "", fmt.Errorf("%w: quantity %v", interfaces.ErrRejected, quantity)
	}
	id := pair + strconv.Itoa(len(me.Orders)+1)
	me.Orders = append(me.Orders, &MockOrder{Order: orders.Order{
		Id:     id,
		Symbol: pair,
		Asset:  strings.TrimSuffix(pair, me.Bridge),
		Bridge: me.Bridge,
		Side:   side,
		Type:   orderType,
		Amount: quantity,
		Price:  price,
		Status: orders.StatusNew,
	}})
	return id, nil
}

func (me *MockExchange) PlaceLimitBuy(ctx context.Context, pair string, quantity, price float64) (string, error) {
	me.mu.Lock()
	defer me.mu.Unlock()
	return me.place(pair, orders.SideBuy, orders.TypeLimit, quantity, price)
}

func (me *MockExchange) PlaceMarketSell(ctx context.Context, pair string, quantity float64) (string, error) {
	me.mu.Lock()
	defer me.mu.Unlock()
	return me.place(pair, orders.SideSell, orders.TypeMarket, quantity, 0)
}

func (me *MockExchange) GetOrderStatus(ctx context.Context, pair string, orderId string) (string, error) {
	me.mu.Lock()
	defer me.mu.Unlock()
	me.count("GetOrderStatus")
	if err := pop(&me.StatusErrors); err != nil {
		return "", err
	}
	var order *MockOrder
	for _, o := range me.Orders {
		if o.Id == orderId && o.Symbol == pair {
			order = o
		}
	}
	if order == nil {
		return "", fmt.Errorf("%w: order %s does not exist", interfaces.ErrTransient, orderId)
	}
	if order.canceled {
		return orders.StatusCanceled, nil
	}
	order.polls++
	if order.polls <= me.UnrecordedPolls {
		return "", fmt.Errorf("%w: order %s does not exist", interfaces.ErrTransient, orderId)
	}
	sequence := me.StatusSequence
	if s, ok := me.StatusBySymbol[pair]; ok {
		sequence = s
	}
	idx := order.polls - me.UnrecordedPolls - 1
	if idx >= len(sequence) {
		idx = len(sequence) - 1
	}
	status := sequence[idx]
	if status == orders.StatusFilled && !order.filled {
		me.fill(order)
	}
	order.Status = status
	return status, nil
}

// CancelOrder cancels an open order. Filled, canceled and unknown orders are rejected.
func (me *MockExchange) CancelOrder(ctx context.Context, pair string, orderId string) error {
	me.mu.Lock()
	defer me.mu.Unlock()
	me.count("CancelOrder")
	if err := pop(&me.CancelErrors); err != nil {
		return err
	}
	for _, o := range me.Orders {
		if o.Id != orderId || o.Symbol != pair {
			continue
		}
		if o.filled || o.canceled {
			return fmt.Errorf("%w: order %s is not open", interfaces.ErrRejected, orderId)
		}
		o.canceled = true
		o.Status = orders.StatusCanceled
		return nil
	}
	return fmt.Errorf("%w: unknown order %s", interfaces.ErrRejected, orderId)
}

// Canceled lists the ids of canceled orders.
func (me *MockExchange) Canceled() []string {
	me.mu.Lock()
	defer me.mu.Unlock()
	var ids []string
	for _, o := range me.Orders {
		if o.canceled {
			ids = append(ids, o.Id)
		}
	}
	return ids
}

func (me *MockExchange) fill(order *MockOrder) {
	order.filled = true
	price := order.Price
	if order.Type == orders.TypeMarket {
		price = me.Prices[order.Symbol]
	}
	switch order.Side {
	case orders.SideSell:
		if me.StaleBalanceReads > 0 {
			me.stale[order.Asset] = staleBalance{value: me.Balances[order.Asset], reads: me.StaleBalanceReads}
		}
		me.Balances[order.Asset] -= order.Amount
		me.Balances[order.Bridge] += order.Amount * price
	case orders.SideBuy:
		me.Balances[order.Bridge] -= order.Amount * price
		me.Balances[order.Asset] += order.Amount
	}
	if me.AfterFill != nil {
		me.AfterFill(order.Order)
	}
}

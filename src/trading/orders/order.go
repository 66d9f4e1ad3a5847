package orders

import "time"

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

type Type string

const (
	TypeLimit  Type = "limit"
	TypeMarket Type = "market"
)

// Exchange order statuses.
const (
	StatusNew             = "NEW"
	StatusPartiallyFilled = "PARTIALLY_FILLED"
	StatusFilled          = "FILLED"
	StatusCanceled        = "CANCELED"
	StatusRejected        = "REJECTED"
	StatusExpired         = "EXPIRED"
)

// Order lives only as long as the cycle that placed it.
type Order struct {
	Id        string    `json:"orderId"`
	Symbol    string    `json:"symbol"`
	Asset     string    `json:"asset"`
	Bridge    string    `json:"bridge"`
	Side      Side      `json:"side"`
	Type      Type      `json:"type"`
	Amount    float64   `json:"amount"`
	Price     float64   `json:"price,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	FilledAt  time.Time `json:"filledAt,omitempty"`
}

// IsDead reports statuses from which an order never fills.
func IsDead(status string) bool {
	switch status {
	case StatusCanceled, StatusRejected, StatusExpired:
		return true
	}
	return false
}

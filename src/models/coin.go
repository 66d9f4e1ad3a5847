package models

// Coin is one asset of the configured universe. Only Enabled changes after creation.
type Coin struct {
	Symbol  string `json:"symbol" bson:"_id"`
	Enabled bool   `json:"enabled" bson:"enabled"`
}

func (c Coin) String() string {
	return c.Symbol
}

package models

import "fmt"

// Pair is an ordered (from, to) combination with the baseline ratio price(from)/price(to).
// A nil Ratio means the baseline was never initialized.
type Pair struct {
	From  Coin     `json:"from"`
	To    Coin     `json:"to"`
	Ratio *float64 `json:"ratio"`
}

func (p Pair) HasRatio() bool {
	return p.Ratio != nil
}

func (p Pair) String() string {
	if p.Ratio == nil {
		return fmt.Sprintf("%s->%s (unset)", p.From.Symbol, p.To.Symbol)
	}
	return fmt.Sprintf("%s->%s (%g)", p.From.Symbol, p.To.Symbol, *p.Ratio)
}

// RatioOf is a helper for building pairs with a set ratio.
func RatioOf(v float64) *float64 {
	return &v
}

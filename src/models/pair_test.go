package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairString(t *testing.T) {
	p := Pair{From: Coin{Symbol: "ADA"}, To: Coin{Symbol: "XLM"}}
	assert.False(t, p.HasRatio())
	assert.Equal(t, "ADA->XLM (unset)", p.String())

	p.Ratio = RatioOf(2.5)
	assert.True(t, p.HasRatio())
	assert.Equal(t, "ADA->XLM (2.5)", p.String())
}

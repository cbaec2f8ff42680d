package tradingutils

import (
	"github.com/shopspring/decimal"
)

// RoundPrice rounds a price to the specified decimals
func RoundPrice(price decimal.Decimal, priceDecimals int) decimal.Decimal {
	return price.Round(int32(priceDecimals))
}

// WeightedMidPrice computes the size-weighted midpoint of a quote:
// (bid*bidSize + ask*askSize) / (bidSize + askSize).
// Each price is weighted by its own displayed size, so the midpoint sits
// closer to the heavier side of the book. Returns zero when both sizes
// are zero.
func WeightedMidPrice(bid, ask decimal.Decimal, bidSize, askSize int64) decimal.Decimal {
	total := bidSize + askSize
	if total == 0 {
		return decimal.Zero
	}
	weighted := bid.Mul(decimal.NewFromInt(bidSize)).Add(ask.Mul(decimal.NewFromInt(askSize)))
	return weighted.Div(decimal.NewFromInt(total))
}

// MidPrice computes the simple midpoint of a quote
func MidPrice(bid, ask decimal.Decimal) decimal.Decimal {
	return bid.Add(ask).Div(decimal.NewFromInt(2))
}

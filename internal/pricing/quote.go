package pricing

import (
	"market_quoter/pkg/tradingutils"

	"github.com/shopspring/decimal"
)

// priceDecimals is the tick precision quotes are rounded to.
const priceDecimals = 2

var one = decimal.NewFromInt(1)

// QuotePrices computes the passive buy and sell prices for one cycle:
// buy below the bid reference, sell above the ask reference, both rounded
// to tick precision. The calculation is a pure function of its inputs.
func QuotePrices(ref Reference, margin decimal.Decimal) (buy, sell decimal.Decimal) {
	buy = tradingutils.RoundPrice(ref.Bid.Mul(one.Sub(margin)), priceDecimals)
	sell = tradingutils.RoundPrice(ref.Ask.Mul(one.Add(margin)), priceDecimals)
	return buy, sell
}

// TakeProfitPrice computes the exit price for an open position. A long exits
// with a sell above the average entry, a short with a buy below it.
func TakeProfitPrice(avgEntry, margin decimal.Decimal, long bool) decimal.Decimal {
	if long {
		return tradingutils.RoundPrice(avgEntry.Mul(one.Add(margin)), priceDecimals)
	}
	return tradingutils.RoundPrice(avgEntry.Mul(one.Sub(margin)), priceDecimals)
}

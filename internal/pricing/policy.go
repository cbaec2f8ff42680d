// Package pricing implements reference-price resolution and quote calculation.
package pricing

import (
	"fmt"
	"market_quoter/internal/core"
	"market_quoter/pkg/errors"
	"market_quoter/pkg/tradingutils"

	"github.com/shopspring/decimal"
)

// PolicyKind selects how the reference price is derived from a market snapshot.
type PolicyKind string

const (
	// PolicyMid uses the simple midpoint of the last quote.
	PolicyMid PolicyKind = "mid"
	// PolicyWeighted uses the size-weighted midpoint of the last quote.
	PolicyWeighted PolicyKind = "weighted"
	// PolicyLastTrade uses the last trade price.
	PolicyLastTrade PolicyKind = "last_trade"
	// PolicyBidAsk anchors the buy side on the bid and the sell side on the ask.
	PolicyBidAsk PolicyKind = "bid_ask"
)

// ParsePolicy validates a policy name from configuration.
func ParsePolicy(s string) (PolicyKind, error) {
	switch PolicyKind(s) {
	case PolicyMid, PolicyWeighted, PolicyLastTrade, PolicyBidAsk:
		return PolicyKind(s), nil
	default:
		return "", fmt.Errorf("unknown price policy %q", s)
	}
}

// Reference is the resolved anchor for one quoting cycle. Single-price
// policies set Bid and Ask to the same value; PolicyBidAsk keeps them apart.
type Reference struct {
	Bid decimal.Decimal
	Ask decimal.Decimal
}

// ResolveReference derives the cycle's reference prices from a snapshot.
// It returns apperrors.ErrNoPrice when a single-price policy has no usable
// price, and apperrors.ErrNoQuote when a quote-based policy has no usable
// quote. Both are skip-this-cycle conditions, never fatal.
func ResolveReference(kind PolicyKind, snap core.Snapshot) (Reference, error) {
	switch kind {
	case PolicyMid:
		if !snap.LastMidPrice.IsPositive() {
			return Reference{}, apperrors.ErrNoPrice
		}
		return Reference{Bid: snap.LastMidPrice, Ask: snap.LastMidPrice}, nil

	case PolicyLastTrade:
		if !snap.LastTradePrice.IsPositive() {
			return Reference{}, apperrors.ErrNoPrice
		}
		return Reference{Bid: snap.LastTradePrice, Ask: snap.LastTradePrice}, nil

	case PolicyWeighted:
		q := snap.Quote
		if !q.BidPrice.IsPositive() || !q.AskPrice.IsPositive() || q.BidSize+q.AskSize == 0 {
			return Reference{}, apperrors.ErrNoQuote
		}
		w := tradingutils.WeightedMidPrice(q.BidPrice, q.AskPrice, q.BidSize, q.AskSize)
		return Reference{Bid: w, Ask: w}, nil

	case PolicyBidAsk:
		q := snap.Quote
		if !q.BidPrice.IsPositive() || !q.AskPrice.IsPositive() {
			return Reference{}, apperrors.ErrNoQuote
		}
		return Reference{Bid: q.BidPrice, Ask: q.AskPrice}, nil

	default:
		return Reference{}, fmt.Errorf("unknown price policy %q", kind)
	}
}

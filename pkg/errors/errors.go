package apperrors

import "errors"

// Recoverable engine errors. Every one of these is a "log and continue"
// condition inside the quoting and take-profit loops; none terminates a loop.
var (
	// ErrNoPrice indicates the reference price for a symbol is unavailable
	// or non-positive. The affected cycle is skipped after a fixed back-off.
	ErrNoPrice = errors.New("no price available")

	// ErrNoQuote indicates the bid/ask quote is missing or invalid
	// (non-positive bid or ask, or zero displayed size).
	ErrNoQuote = errors.New("no valid quote available")

	// ErrNoPosition indicates a position record (and hence an average entry
	// price) does not exist for the symbol.
	ErrNoPosition = errors.New("no position found")

	// ErrOrderRejected indicates the order manager refused a submission.
	ErrOrderRejected = errors.New("order rejected")

	// ErrInvalidConfig indicates a configuration value failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)

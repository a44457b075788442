package model

import "errors"

// Sentinel errors per the error-handling taxonomy: transient fetch
// failures retry automatically; everything else surfaces to the caller
// (or, for InsufficientEquity, the order is rejected without aborting
// the backtest).
var (
	// ErrFetchFailed is returned once a retried exchange call exhausts
	// MaxRetries on transient network/timeout errors.
	ErrFetchFailed = errors.New("microbar: fetch failed after retries")

	// ErrBadInput marks malformed or missing trade/kline columns.
	ErrBadInput = errors.New("microbar: bad input")

	// ErrIntegrityViolation marks a trade id reappearing with a
	// different payload, or a kline landing off the expected time grid.
	ErrIntegrityViolation = errors.New("microbar: integrity violation")

	// ErrRangeOutOfBounds marks a requested start/end outside the known
	// universe of ids or timestamps.
	ErrRangeOutOfBounds = errors.New("microbar: range out of bounds")

	// ErrInsufficientEquity marks an order whose notional exceeds
	// available cash; non-fatal, the order is rejected and the backtest
	// continues. Portfolio.Update rejects such orders itself without
	// returning this error or logging the rejection.
	ErrInsufficientEquity = errors.New("microbar: insufficient equity")

	// ErrStrategy wraps a panic/error raised from Strategy.OnBar.
	ErrStrategy = errors.New("microbar: strategy error")
)

// Package strategy defines the pluggable Strategy interface of §4.3 and a
// reference mean-reversion RSI implementation, grounded on the
// Decision/Signal shape of _examples/chidi150c-coinbase/strategy.go and
// the abstract base class in
// _examples/original_source/engine/core/strategies/strategy.py.
package strategy

import "github.com/chidi150c/microbar/internal/model"

// Strategy exposes two operations: given a symbol and its latest bar,
// return either no order or a fully-specified Order; and a notification
// hook the Execution Handler calls whenever the Portfolio closes a
// position for that symbol. A Strategy may hold private per-symbol
// rolling state; the Driver never inspects it.
type Strategy interface {
	OnBar(symbol string, bar model.Bar) (*model.Order, error)
	MarkClosed(symbol string)
}

// Signal is the directional call a strategy's internal logic produces
// before it is turned into an Order (or nothing).
type Signal int

const (
	SignalFlat Signal = iota
	SignalBuy
	SignalSell
)

func (s Signal) String() string {
	switch s {
	case SignalBuy:
		return "buy"
	case SignalSell:
		return "sell"
	default:
		return "flat"
	}
}

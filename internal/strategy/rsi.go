package strategy

import (
	"sync"

	"github.com/chidi150c/microbar/internal/indicators"
	"github.com/chidi150c/microbar/internal/model"
)

// RSIStrategy is the reference implementation named in §4.3: a
// mean-reversion rule that buys on oversold, sells on overbought, with
// symmetric +/-MovePct TP/SL around the entry close. Per-symbol rolling
// state (close history) lives inside the strategy, indexed by symbol, per
// §9's "Dynamic strategy table -> polymorphic trait" design note.
type RSIStrategy struct {
	mu sync.Mutex

	Period       int     // RSI lookback, default 14
	Oversold     float64 // default 30
	Overbought   float64 // default 70
	MovePct      float64 // symmetric TP/SL distance, default 0.01 (1%)
	OrderVolume  float64 // fixed notional per order
	Leverage     float64 // informational only; Portfolio applies it on fill
	StrategyName string

	closes map[string][]float64
	inPos  map[string]bool // true once this strategy has an open position for symbol
}

// NewRSIStrategy builds the reference strategy with the documented
// defaults. orderVolume is the fixed quote-notional size of every order.
func NewRSIStrategy(orderVolume float64) *RSIStrategy {
	return &RSIStrategy{
		Period:       14,
		Oversold:     30,
		Overbought:   70,
		MovePct:      0.01,
		OrderVolume:  orderVolume,
		StrategyName: "rsi_mean_reversion",
		closes:       map[string][]float64{},
		inPos:        map[string]bool{},
	}
}

// OnBar appends bar.Close to the symbol's rolling window, computes RSI,
// and emits a BUY/SELL order on an oversold/overbought cross. It never
// emits a second order for a symbol while one is presumed still open
// (the strategy does not see Portfolio state, so it tracks this locally:
// the Execution Handler calls MarkClosed once the Portfolio actually
// closes the position).
func (s *RSIStrategy) OnBar(symbol string, bar model.Bar) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hist := append(s.closes[symbol], bar.Close)
	s.closes[symbol] = hist

	if s.inPos[symbol] {
		return nil, nil
	}
	if len(hist) <= s.Period {
		return nil, nil
	}
	rsi := indicators.RSI(hist, s.Period)
	latest := rsi[len(rsi)-1]

	var dir model.Side
	switch {
	case latest <= s.Oversold:
		dir = model.Buy
	case latest >= s.Overbought:
		dir = model.Sell
	default:
		return nil, nil
	}

	entry := bar.Close
	var tp, sl float64
	if dir == model.Buy {
		tp = entry * (1 + s.MovePct)
		sl = entry * (1 - s.MovePct)
	} else {
		tp = entry * (1 - s.MovePct)
		sl = entry * (1 + s.MovePct)
	}
	s.inPos[symbol] = true
	return &model.Order{
		Symbol:       symbol,
		Volume:       s.OrderVolume,
		Direction:    dir,
		OrderType:    model.OrderMarket,
		OrderTime:    bar.StartTime,
		StrategyName: s.StrategyName,
		Status:       model.OrderPending,
		EntryPrice:   entry,
		TakeProfit:   tp,
		StopLoss:     sl,
	}, nil
}

// MarkClosed implements Strategy's close notification: it tells the
// strategy a previously opened position for symbol has closed, so it may
// emit a new order on a future cross.
func (s *RSIStrategy) MarkClosed(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inPos[symbol] = false
}

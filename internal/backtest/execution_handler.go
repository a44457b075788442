// Package backtest implements the Execution Handler and Driver of §4.3:
// per-(symbol,bar) glue between Strategy and Portfolio, and the outer
// synchronous multi-symbol loop over the common timestamp axis. Grounded
// on _examples/original_source/engine/apps/backtest/{engine,execution_handler}.py.
package backtest

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/chidi150c/microbar/internal/model"
	"github.com/chidi150c/microbar/internal/portfolio"
	"github.com/chidi150c/microbar/internal/strategy"
)

// ExecutionHandler asks the Strategy for an order, forwards it to the
// Portfolio, and triggers the Portfolio's bar update, in that strict
// order (§5's ordering guarantee).
type ExecutionHandler struct {
	strat strategy.Strategy
	pf    *portfolio.Portfolio
	log   zerolog.Logger
}

func NewExecutionHandler(strat strategy.Strategy, pf *portfolio.Portfolio, log zerolog.Logger) *ExecutionHandler {
	return &ExecutionHandler{strat: strat, pf: pf, log: log}
}

// Handle processes one (symbol, bar) per the three steps of §4.3's
// Execution Handler contract.
func (h *ExecutionHandler) Handle(symbol string, bar model.Bar) error {
	order, err := h.strat.OnBar(symbol, bar)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("strategy error")
		return fmt.Errorf("%w: %v", model.ErrStrategy, err)
	}
	if order != nil {
		h.pf.Submit(*order)
	}
	closed, err := h.pf.Update(symbol, bar)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("portfolio update failed")
		return err
	}
	if closed {
		h.strat.MarkClosed(symbol)
	}
	return nil
}

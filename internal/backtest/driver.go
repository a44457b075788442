package backtest

import (
	"fmt"

	"github.com/chidi150c/microbar/internal/model"
)

// Driver is the outer loop over the common timestamp axis described in
// §4.3/§5: for each timestamp, in symbol iteration order, invoke the
// Execution Handler with (symbol, bar).
type Driver struct {
	handler *ExecutionHandler
}

func NewDriver(handler *ExecutionHandler) *Driver {
	return &Driver{handler: handler}
}

// Run drives the backtest over bars, a map symbol -> sorted Bar sequence.
// symbols fixes the lexicographic/explicit iteration order within a
// timestamp (§5's ordering guarantee); all symbols must share an
// identical StartTime axis, asserted up front.
func (d *Driver) Run(symbols []string, bars map[string][]model.Bar) error {
	if len(symbols) == 0 {
		return nil
	}
	n := len(bars[symbols[0]])
	for _, s := range symbols {
		if len(bars[s]) != n {
			return fmt.Errorf("%w: symbol %s has %d bars, want %d (symbols must share one timestamp axis)", model.ErrBadInput, s, len(bars[s]), n)
		}
	}
	for i := 0; i < n; i++ {
		ts := bars[symbols[0]][i].StartTime
		for _, s := range symbols {
			bar := bars[s][i]
			if bar.StartTime != ts {
				return fmt.Errorf("%w: symbol %s bar %d has StartTime %d, want %d", model.ErrBadInput, s, i, bar.StartTime, ts)
			}
			if err := d.handler.Handle(s, bar); err != nil {
				return err
			}
		}
	}
	return nil
}

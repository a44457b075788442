package bars

import (
	"math"

	"github.com/chidi150c/microbar/internal/model"
)

// BuildTickBars emits a bar every BarSize trades (grouped by integer
// division of the row index); a trailing partial group is residual and
// never emitted, per §4.1 and scenario S1.
func BuildTickBars(trades []model.Trade, p Params) ([]model.Bar, []model.Trade, error) {
	if err := validate(trades); err != nil {
		return nil, nil, err
	}
	n := int(p.BarSize)
	if n <= 0 || len(trades) == 0 {
		return nil, trades, nil
	}
	var out []model.Bar
	i := 0
	for i+n <= len(trades) {
		out = append(out, aggregate(trades[i:i+n]))
		i += n
	}
	return out, trades[i:], nil
}

// BuildVolumeBars closes a bar on the trade whose cumulative qty first
// crosses an integer multiple of BarSize.
func BuildVolumeBars(trades []model.Trade, p Params) ([]model.Bar, []model.Trade, error) {
	return buildThresholdBars(trades, p, func(t model.Trade) float64 { return t.Qty })
}

// BuildDollarBars is the identical rule applied to quote_qty.
func BuildDollarBars(trades []model.Trade, p Params) ([]model.Bar, []model.Trade, error) {
	return buildThresholdBars(trades, p, func(t model.Trade) float64 { return t.QuoteQty })
}

func buildThresholdBars(trades []model.Trade, p Params, unit func(model.Trade) float64) ([]model.Bar, []model.Trade, error) {
	if err := validate(trades); err != nil {
		return nil, nil, err
	}
	if p.BarSize <= 0 || len(trades) == 0 {
		return nil, trades, nil
	}
	var out []model.Bar
	start := 0
	var cum float64
	next := p.BarSize
	for i, t := range trades {
		cum += unit(t)
		if cum >= next {
			out = append(out, aggregate(trades[start:i+1]))
			start = i + 1
			next = (math.Floor(cum/p.BarSize) + 1) * p.BarSize
		}
	}
	return out, trades[start:], nil
}

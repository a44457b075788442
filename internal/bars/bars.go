// Package bars implements the Bar Construction Engine: nine pure builder
// functions over a time-sorted trade stream (tick/volume/dollar bars, and
// their imbalance and run variants), each a build_X(trades, params) ->
// (bars, residual) state machine, grounded on
// _examples/original_source/engine/core/bars/*.py.
package bars

import "github.com/chidi150c/microbar/internal/model"

// BarKind identifies one of the nine builder variants.
type BarKind string

const (
	KindTick             BarKind = "tick"
	KindVolume           BarKind = "volume"
	KindDollar           BarKind = "dollar"
	KindTickImbalance    BarKind = "tick_imbalance"
	KindVolumeImbalance  BarKind = "volume_imbalance"
	KindDollarImbalance  BarKind = "dollar_imbalance"
	KindTickRun          BarKind = "tick_run"
	KindVolumeRun        BarKind = "volume_run"
	KindDollarRun        BarKind = "dollar_run"
)

// Params configures a builder. Not every field applies to every kind:
// BarSize drives the deterministic builders (as an integer tick count for
// tick bars, a float threshold for volume/dollar bars); Alpha, EMASpan,
// and WarmupTicks drive the imbalance and run builders.
type Params struct {
	BarSize     float64
	Alpha       float64
	EMASpan     int
	WarmupTicks int
}

// DefaultParams returns the spec's documented defaults: alpha=1.0,
// ema_span=50, warmup_ticks=200 per §4.1.
func DefaultParams(barSize float64) Params {
	return Params{BarSize: barSize, Alpha: 1.0, EMASpan: 50, WarmupTicks: 200}
}

// BuildFunc is the common shape of every builder: trades -> (bars, residual).
type BuildFunc func(trades []model.Trade, p Params) ([]model.Bar, []model.Trade, error)

// Builders maps every BarKind to its implementation, so ingestion/backtest
// wiring can select one by config rather than switching on a literal.
var Builders = map[BarKind]BuildFunc{
	KindTick:            BuildTickBars,
	KindVolume:          BuildVolumeBars,
	KindDollar:          BuildDollarBars,
	KindTickImbalance:   BuildTickImbalanceBars,
	KindVolumeImbalance: BuildVolumeImbalanceBars,
	KindDollarImbalance: BuildDollarImbalanceBars,
	KindTickRun:         BuildTickRunBars,
	KindVolumeRun:       BuildVolumeRunBars,
	KindDollarRun:       BuildDollarRunBars,
}

// validate applies the BadInput rule of §4.1: every trade must carry a
// positive price and non-negative qty/quote_qty (the id is not checked);
// time must be non-decreasing (trades are a
// time-sorted sequence per the builder contract).
func validate(trades []model.Trade) error {
	var lastTime int64 = -1
	for _, t := range trades {
		if t.Price <= 0 || t.Qty < 0 || t.QuoteQty < 0 {
			return model.ErrBadInput
		}
		if t.TimeMs < lastTime {
			return model.ErrBadInput
		}
		lastTime = t.TimeMs
	}
	return nil
}

// aggregate folds a contiguous slice of trades (the closing bar's window)
// into the shared Bar aggregate column set of §3.
func aggregate(window []model.Trade) model.Bar {
	b := model.Bar{
		StartTime:    window[0].TimeMs,
		EndTime:      window[len(window)-1].TimeMs,
		Open:         window[0].Price,
		Close:        window[len(window)-1].Price,
		High:         window[0].Price,
		Low:          window[0].Price,
		NTicks:       int64(len(window)),
		FirstTradeID: window[0].ID,
		LastTradeID:  window[len(window)-1].ID,
	}
	for _, t := range window {
		if t.Price > b.High {
			b.High = t.Price
		}
		if t.Price < b.Low {
			b.Low = t.Price
		}
		b.BaseVolume += t.Qty
		b.QuoteVolume += t.QuoteQty
		if t.Sign() > 0 {
			b.BuyTicks++
			b.BuyVolume += t.Qty
			b.SignedTickSum++
			b.SignedVolSum += t.Qty
		} else {
			b.SellTicks++
			b.SellVolume += t.Qty
			b.SignedTickSum--
			b.SignedVolSum -= t.Qty
		}
	}
	return b
}

package bars

import "math"

import "github.com/chidi150c/microbar/internal/model"

// BuildTickRunBars: the running quantity is the count of consecutive
// same-sign trades.
func BuildTickRunBars(trades []model.Trade, p Params) ([]model.Bar, []model.Trade, error) {
	return buildRunBars(trades, p, func(model.Trade) float64 { return 1 })
}

// BuildVolumeRunBars: the running quantity is cumulative |qty| within the
// current same-sign run.
func BuildVolumeRunBars(trades []model.Trade, p Params) ([]model.Bar, []model.Trade, error) {
	return buildRunBars(trades, p, func(t model.Trade) float64 { return t.Qty })
}

// BuildDollarRunBars: the running quantity is cumulative |quote_qty|
// within the current same-sign run.
func BuildDollarRunBars(trades []model.Trade, p Params) ([]model.Bar, []model.Trade, error) {
	return buildRunBars(trades, p, func(t model.Trade) float64 { return t.QuoteQty })
}

// buildRunBars implements §4.1's run-bar stopping rule. A sign flip
// resets the running accumulator to the current trade's absolute unit.
// The EMA of the running value is computed per-trade over the whole
// stream (never reset at bar boundaries, only the run accumulator resets
// on sign flips) — see SPEC_FULL.md §9 Open Question 5.
func buildRunBars(trades []model.Trade, p Params, unit func(model.Trade) float64) ([]model.Bar, []model.Trade, error) {
	if err := validate(trades); err != nil {
		return nil, nil, err
	}
	n := len(trades)
	if n == 0 {
		return nil, nil, nil
	}
	warmup := p.WarmupTicks
	if warmup <= 0 {
		warmup = 200
	}
	emaSpan := p.EMASpan
	if emaSpan <= 0 {
		emaSpan = 50
	}
	alpha := p.Alpha
	if alpha <= 0 {
		alpha = 1.0
	}
	lambda := 2.0 / (float64(emaSpan) + 1)

	running := make([]float64, n)
	var prevSign float64
	var runVal float64
	for i, t := range trades {
		s := t.Sign()
		u := math.Abs(unit(t))
		if i == 0 || s != prevSign {
			runVal = u
		} else {
			runVal += u
		}
		running[i] = runVal
		prevSign = s
	}

	ema := make([]float64, n)
	var runningMean float64
	for i := 0; i < n; i++ {
		if i < warmup {
			runningMean += (running[i] - runningMean) / float64(i+1)
			ema[i] = runningMean
		} else {
			ema[i] = lambda*running[i] + (1-lambda)*ema[i-1]
		}
	}

	var out []model.Bar
	barStart := 0
	for i := 0; i < n; i++ {
		threshold := math.Max(alpha*ema[i], thetaFloor)
		if running[i] >= threshold {
			out = append(out, aggregate(trades[barStart:i+1]))
			barStart = i + 1
		}
	}
	return out, trades[barStart:], nil
}

package bars

import "math"

import "github.com/chidi150c/microbar/internal/model"

const (
	flowFloor  = 1e-6
	thetaFloor = 1e-12
)

// BuildTickImbalanceBars uses unit=1 per trade.
func BuildTickImbalanceBars(trades []model.Trade, p Params) ([]model.Bar, []model.Trade, error) {
	return buildImbalanceBars(trades, p, func(model.Trade) float64 { return 1 })
}

// BuildVolumeImbalanceBars uses unit=qty.
func BuildVolumeImbalanceBars(trades []model.Trade, p Params) ([]model.Bar, []model.Trade, error) {
	return buildImbalanceBars(trades, p, func(t model.Trade) float64 { return t.Qty })
}

// BuildDollarImbalanceBars uses unit=quote_qty.
func BuildDollarImbalanceBars(trades []model.Trade, p Params) ([]model.Bar, []model.Trade, error) {
	return buildImbalanceBars(trades, p, func(t model.Trade) float64 { return t.QuoteQty })
}

// buildImbalanceBars implements §4.1's imbalance-bar stopping rule: the
// running signed sum theta closes a bar once |theta| crosses a threshold
// tau = alpha * E[T] * E|flow|, both expectations re-estimated by EMA
// after every closed bar. E|flow| is seeded as the mean |signed unit| over
// the first WarmupTicks trades of the whole stream; E[T] is seeded as
// max(10, WarmupTicks/5).
func buildImbalanceBars(trades []model.Trade, p Params, unit func(model.Trade) float64) ([]model.Bar, []model.Trade, error) {
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

	seedN := warmup
	if seedN > n {
		seedN = n
	}
	var seedSum float64
	for i := 0; i < seedN; i++ {
		seedSum += math.Abs(trades[i].Sign() * unit(trades[i]))
	}
	eFlow := flowFloor
	if seedN > 0 {
		eFlow = math.Max(seedSum/float64(seedN), flowFloor)
	}
	eT := math.Max(10, float64(warmup)/5)
	lambda := 2.0 / (float64(emaSpan) + 1)

	var out []model.Bar
	barStart := 0
	var theta float64
	for i, t := range trades {
		theta += t.Sign() * unit(t)
		if i+1 < warmup {
			continue
		}
		tau := math.Max(alpha*eT*eFlow, 1.0)
		if math.Abs(theta) >= tau {
			window := trades[barStart : i+1]
			out = append(out, aggregate(window))
			nTicks := float64(len(window))
			eT = (1-lambda)*eT + lambda*nTicks
			flowPerTick := math.Max(math.Abs(theta)/nTicks, thetaFloor)
			eFlow = (1-lambda)*eFlow + lambda*flowPerTick
			barStart = i + 1
			theta = 0
		}
	}
	return out, trades[barStart:], nil
}

package bars

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chidi150c/microbar/internal/model"
)

// syntheticTrades builds a deterministic pseudo-random trade stream for
// property testing (no Math.random-equivalent instability: seeded rng).
func syntheticTrades(n int) []model.Trade {
	r := rand.New(rand.NewSource(42))
	trades := make([]model.Trade, n)
	price := 100.0
	var t int64
	for i := 0; i < n; i++ {
		price += r.NormFloat64() * 0.05
		if price <= 0 {
			price = 1
		}
		qty := 0.1 + r.Float64()*2
		t += int64(1 + r.Intn(500))
		isBuyerMaker := r.Float64() < 0.5
		trades[i] = model.Trade{
			ID:           uint64(i + 1),
			Price:        price,
			Qty:          qty,
			QuoteQty:     price * qty,
			TimeMs:       t,
			IsBuyerMaker: isBuyerMaker,
		}
	}
	return trades
}

func allBuilders() map[BarKind]Params {
	return map[BarKind]Params{
		KindTick:            {BarSize: 20},
		KindVolume:          {BarSize: 30},
		KindDollar:          {BarSize: 3000},
		KindTickImbalance:   DefaultParams(0).setWarmup(50),
		KindVolumeImbalance: DefaultParams(0).setWarmup(50),
		KindDollarImbalance: DefaultParams(0).setWarmup(50),
		KindTickRun:         DefaultParams(0).setWarmup(50),
		KindVolumeRun:       DefaultParams(0).setWarmup(50),
		KindDollarRun:       DefaultParams(0).setWarmup(50),
	}
}

func (p Params) setWarmup(w int) Params {
	p.WarmupTicks = w
	return p
}

func TestProperty_TradeIDMonotonicity(t *testing.T) {
	trades := syntheticTrades(2000)
	for kind, params := range allBuilders() {
		out, _, err := Builders[kind](trades, params)
		require.NoError(t, err, kind)
		for i := 0; i+1 < len(out); i++ {
			require.Lessf(t, out[i].LastTradeID, out[i+1].FirstTradeID, "%s bar %d", kind, i)
		}
	}
}

func TestProperty_OHLCSanity(t *testing.T) {
	trades := syntheticTrades(2000)
	for kind, params := range allBuilders() {
		out, _, err := Builders[kind](trades, params)
		require.NoError(t, err, kind)
		for _, b := range out {
			require.LessOrEqualf(t, b.Low, math.Min(b.Open, b.Close), "%s", kind)
			require.LessOrEqualf(t, math.Max(b.Open, b.Close), b.High, "%s", kind)
			require.Greater(t, b.NTicks, int64(0), kind)
		}
	}
}

func TestProperty_VolumeConservation_DeterministicBars(t *testing.T) {
	trades := syntheticTrades(2000)
	for _, kind := range []BarKind{KindTick, KindVolume, KindDollar} {
		out, residual, err := Builders[kind](trades, allBuilders()[kind])
		require.NoError(t, err)
		var sumBase, sumBuy, sumSell float64
		for _, b := range out {
			sumBase += b.BaseVolume
			sumBuy += b.BuyVolume
			sumSell += b.SellVolume
		}
		var wantBase float64
		covered := len(trades) - len(residual)
		for _, tr := range trades[:covered] {
			wantBase += tr.Qty
		}
		require.InDeltaf(t, wantBase, sumBase, 1e-6, "%s", kind)
		require.InDeltaf(t, sumBase, sumBuy+sumSell, 1e-6, "%s", kind)
	}
}

func TestProperty_EmptyInputIsNotError(t *testing.T) {
	for kind, params := range allBuilders() {
		out, residual, err := Builders[kind](nil, params)
		require.NoError(t, err, kind)
		require.Empty(t, out, kind)
		require.Empty(t, residual, kind)
	}
}

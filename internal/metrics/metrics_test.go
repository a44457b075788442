package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chidi150c/microbar/internal/model"
)

func TestGenerate_S4Like(t *testing.T) {
	general := []model.EquitySample{
		{TimestampMs: 0, Equity: 10000},
		{TimestampMs: msPerDay, Equity: 10200},
		{TimestampMs: 2 * msPerDay, Equity: 10500},
		{TimestampMs: 3 * msPerDay, Equity: 10100},
		{TimestampMs: 4 * msPerDay, Equity: 10800},
	}
	trades := []model.TradeRecord{
		{Symbol: "BTCUSDT", PnL: 150, Volume: 50, ClosedBy: model.ClosedByTP, Commissions: 1.0},
	}
	p := Portfolio{
		TradeHistory:   trades,
		EquityHistory:  map[string][]model.EquitySample{model.GeneralSymbol: general, "BTCUSDT": {{TimestampMs: 4 * msPerDay, Equity: 150}}},
		InitialBalance: 10000,
	}
	r := Generate(p, Config{})
	require.InDelta(t, 800, r.NetProfitUSD, 1e-9)
	require.Greater(t, r.CAGRPct, 0.0)
	require.Greater(t, r.MaxDrawdownUSD, 0.0)
	require.InDelta(t, 1.0, r.TotalCommissions, 1e-9)

	sym := r.BySymbol["BTCUSDT"]
	require.Equal(t, 1, sym.TotalTrades)
	require.Equal(t, 100.0, sym.WinRatePct)
	require.InDelta(t, 150, sym.GrossProfit, 1e-9)
}

func TestPercentileAndStddev(t *testing.T) {
	require.InDelta(t, 2.0, percentile([]float64{1, 2, 3}, 50), 1e-9)
	require.InDelta(t, 1.0, stddev([]float64{1, 2, 3}), 1e-9)
}

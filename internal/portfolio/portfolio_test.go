package portfolio

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chidi150c/microbar/internal/model"
)

func baseConfig() Config {
	return Config{Leverage: 1, MakerFee: 0.0005, TakerFee: 0.0005, InitialBalance: 1000, TPPrecedence: true}
}

// S5 — TP/SL precedence.
func TestUpdate_S5_TPPrecedence(t *testing.T) {
	p := New(baseConfig())
	id := p.Submit(model.Order{Symbol: "BTCUSDT", Volume: 100, Direction: model.Buy, TakeProfit: 105, StopLoss: 95})
	require.Equal(t, uint64(1), id)

	fillBar := model.Bar{StartTime: 1, EndTime: 1, Open: 100, High: 100, Low: 100, Close: 100}
	_, err := p.Update("BTCUSDT", fillBar)
	require.NoError(t, err)
	require.Len(t, p.OpenPositions(), 1)

	triggerBar := model.Bar{StartTime: 2, EndTime: 2, Open: 100, High: 110, Low: 90, Close: 100}
	closed, err := p.Update("BTCUSDT", triggerBar)
	require.NoError(t, err)
	require.True(t, closed)
	require.Empty(t, p.OpenPositions())

	trades := p.TradeHistory()
	require.Len(t, trades, 1)
	require.Equal(t, model.ClosedByTP, trades[0].ClosedBy)
}

// S6 — Insufficient equity.
func TestUpdate_S6_InsufficientEquity(t *testing.T) {
	cfg := baseConfig()
	cfg.InitialBalance = 50
	cfg.Leverage = 1
	p := New(cfg)
	p.Submit(model.Order{Symbol: "BTCUSDT", Volume: 100, Direction: model.Buy, TakeProfit: 110, StopLoss: 90})

	bar := model.Bar{StartTime: 1, EndTime: 1, Open: 100, High: 100, Low: 100, Close: 100}
	_, err := p.Update("BTCUSDT", bar)
	require.NoError(t, err)

	require.Empty(t, p.OpenPositions())
	require.Equal(t, 50.0, p.CashEquity())
	require.Empty(t, p.TradeHistory())
}

func TestAccountingIdentity_HoldsAcrossBars(t *testing.T) {
	p := New(baseConfig())
	bars := []model.Bar{
		{StartTime: 1, EndTime: 1, Open: 100, High: 101, Low: 99, Close: 100},
		{StartTime: 2, EndTime: 2, Open: 100, High: 103, Low: 98, Close: 101},
		{StartTime: 3, EndTime: 3, Open: 101, High: 106, Low: 100, Close: 105},
		{StartTime: 4, EndTime: 4, Open: 105, High: 108, Low: 104, Close: 106},
	}
	p.Submit(model.Order{Symbol: "BTCUSDT", Volume: 100, Direction: model.Buy, TakeProfit: 106, StopLoss: 90})
	for _, b := range bars {
		_, err := p.Update("BTCUSDT", b)
		require.NoError(t, err)
		lhs, rhs := p.AccountingIdentity()
		require.InDeltaf(t, rhs, lhs, 1e-6, "bar %d", b.StartTime)
	}
}

// Leverage != 1 must deduct/return the full notional, not the
// margin-scaled amount, or the identity drifts every round-trip.
func TestAccountingIdentity_HoldsUnderLeverage(t *testing.T) {
	cfg := baseConfig()
	cfg.Leverage = 2
	p := New(cfg)
	p.Submit(model.Order{Symbol: "BTCUSDT", Volume: 100, Direction: model.Buy, TakeProfit: 106, StopLoss: 90})

	fillBar := model.Bar{StartTime: 1, EndTime: 1, Open: 100, High: 100, Low: 100, Close: 100}
	_, err := p.Update("BTCUSDT", fillBar)
	require.NoError(t, err)
	require.Equal(t, 900.0, p.CashEquity()) // 1000 - order.Volume(100), not 1000 - 100/2
	lhs, rhs := p.AccountingIdentity()
	require.InDeltaf(t, rhs, lhs, 1e-6, "after fill")

	closeBar := model.Bar{StartTime: 2, EndTime: 2, Open: 100, High: 110, Low: 90, Close: 100}
	closed, err := p.Update("BTCUSDT", closeBar)
	require.NoError(t, err)
	require.True(t, closed)
	lhs, rhs = p.AccountingIdentity()
	require.InDeltaf(t, rhs, lhs, 1e-6, "after close")
}

func TestUpdate_SellSide(t *testing.T) {
	p := New(baseConfig())
	p.Submit(model.Order{Symbol: "ETHUSDT", Volume: 100, Direction: model.Sell, TakeProfit: 90, StopLoss: 110})
	fillBar := model.Bar{StartTime: 1, EndTime: 1, Open: 100, High: 100, Low: 100, Close: 100}
	_, err := p.Update("ETHUSDT", fillBar)
	require.NoError(t, err)

	tpBar := model.Bar{StartTime: 2, EndTime: 2, Open: 100, High: 101, Low: 85, Close: 90}
	_, err = p.Update("ETHUSDT", tpBar)
	require.NoError(t, err)

	trades := p.TradeHistory()
	require.Len(t, trades, 1)
	require.Equal(t, model.ClosedByTP, trades[0].ClosedBy)
	require.Greater(t, trades[0].PnL, 0.0)
}

func TestUpdate_Determinism(t *testing.T) {
	run := func() ([]model.TradeRecord, map[string][]model.EquitySample) {
		p := New(baseConfig())
		p.Submit(model.Order{Symbol: "BTCUSDT", Volume: 100, Direction: model.Buy, TakeProfit: 110, StopLoss: 90})
		bars := []model.Bar{
			{StartTime: 1, EndTime: 1, Open: 100, High: 100, Low: 100, Close: 100},
			{StartTime: 2, EndTime: 2, Open: 100, High: 111, Low: 99, Close: 105},
		}
		for _, b := range bars {
			_, _ = p.Update("BTCUSDT", b)
		}
		return p.TradeHistory(), p.EquityHistory()
	}
	trades1, eq1 := run()
	trades2, eq2 := run()
	require.Equal(t, trades1, trades2)
	require.Equal(t, eq1, eq2)
}

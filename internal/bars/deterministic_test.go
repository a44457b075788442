package bars

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chidi150c/microbar/internal/model"
)

func mkTrade(id uint64, price, qty, quoteQty float64, timeMs int64, isBuyerMaker bool) model.Trade {
	return model.Trade{ID: id, Price: price, Qty: qty, QuoteQty: quoteQty, TimeMs: timeMs, IsBuyerMaker: isBuyerMaker}
}

// S1 — Tick bars basic.
func TestBuildTickBars_S1(t *testing.T) {
	trades := []model.Trade{
		mkTrade(1, 100, 1, 100, 10, false),
		mkTrade(2, 101, 2, 202, 20, false),
		mkTrade(3, 99, 1, 99, 30, true),
		mkTrade(4, 102, 3, 306, 40, false),
		mkTrade(5, 100, 1, 100, 50, true),
	}
	out, residual, err := BuildTickBars(trades, Params{BarSize: 2})
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Len(t, residual, 1)
	require.Equal(t, uint64(5), residual[0].ID)

	b1 := out[0]
	require.Equal(t, uint64(1), b1.FirstTradeID)
	require.Equal(t, uint64(2), b1.LastTradeID)
	require.Equal(t, 100.0, b1.Open)
	require.Equal(t, 101.0, b1.High)
	require.Equal(t, 100.0, b1.Low)
	require.Equal(t, 101.0, b1.Close)
	require.Equal(t, int64(2), b1.NTicks)
	require.Equal(t, 3.0, b1.BaseVolume)
	require.Equal(t, int64(2), b1.BuyTicks)
	require.Equal(t, int64(0), b1.SellTicks)
	require.Equal(t, int64(2), b1.SignedTickSum)

	b2 := out[1]
	require.Equal(t, uint64(3), b2.FirstTradeID)
	require.Equal(t, uint64(4), b2.LastTradeID)
	require.Equal(t, 99.0, b2.Open)
	require.Equal(t, 102.0, b2.High)
	require.Equal(t, 99.0, b2.Low)
	require.Equal(t, 102.0, b2.Close)
	require.Equal(t, int64(1), b2.BuyTicks)
	require.Equal(t, int64(1), b2.SellTicks)
	require.Equal(t, int64(0), b2.SignedTickSum)
}

// S2 — Dollar bars threshold.
func TestBuildDollarBars_S2(t *testing.T) {
	trades := []model.Trade{
		mkTrade(1, 100, 1, 40, 1, false),
		mkTrade(2, 100, 1, 40, 2, false),
		mkTrade(3, 100, 1, 30, 3, false),
		mkTrade(4, 100, 1, 50, 4, false),
	}
	out, residual, err := BuildDollarBars(trades, Params{BarSize: 100})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, uint64(1), out[0].FirstTradeID)
	require.Equal(t, uint64(3), out[0].LastTradeID)
	require.Len(t, residual, 1)
	require.Equal(t, uint64(4), residual[0].ID)
}

func TestBuildTickBars_EmptyInput(t *testing.T) {
	out, residual, err := BuildTickBars(nil, Params{BarSize: 2})
	require.NoError(t, err)
	require.Nil(t, out)
	require.Empty(t, residual)
}

func TestBuildTickBars_BadInput(t *testing.T) {
	trades := []model.Trade{mkTrade(1, -1, 1, 1, 1, false)}
	_, _, err := BuildTickBars(trades, Params{BarSize: 1})
	require.ErrorIs(t, err, model.ErrBadInput)
}

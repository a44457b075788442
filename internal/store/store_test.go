package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chidi150c/microbar/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertKlines_IdempotentDedup(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.EnsureKlineTable("BTCUSDT", model.TF1m))

	k := model.Kline{OpenTimeMs: 60000, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10}
	require.NoError(t, s.InsertKlines("BTCUSDT", model.TF1m, []model.Kline{k}))
	require.NoError(t, s.InsertKlines("BTCUSDT", model.TF1m, []model.Kline{k})) // re-insert, same payload

	out, err := s.ReadKlines("BTCUSDT", model.TF1m, 0, 120000)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, k.OpenTimeMs, out[0].OpenTimeMs)
}

func TestReadKlineOpenTimes_RangeScan(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.EnsureKlineTable("BTCUSDT", model.TF1m))
	require.NoError(t, s.InsertKlines("BTCUSDT", model.TF1m, []model.Kline{
		{OpenTimeMs: 0}, {OpenTimeMs: 60000}, {OpenTimeMs: 120000},
	}))

	out, err := s.ReadKlineOpenTimes("BTCUSDT", model.TF1m, 60000, 120000)
	require.NoError(t, err)
	require.Equal(t, []int64{60000, 120000}, out)
}

func TestInsertTrades_IntegrityViolationOnConflictingPayload(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.EnsureTradeTable("BTCUSDT"))

	t1 := model.Trade{ID: 1, Price: 100, Qty: 1, QuoteQty: 100, TimeMs: 1000}
	require.NoError(t, s.InsertTrades("BTCUSDT", []model.Trade{t1}))

	t1Conflict := t1
	t1Conflict.Price = 200 // same id, different payload
	err := s.InsertTrades("BTCUSDT", []model.Trade{t1Conflict})
	require.ErrorIs(t, err, model.ErrIntegrityViolation)
}

func TestInsertTrades_SamePayloadIsNoop(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.EnsureTradeTable("BTCUSDT"))

	t1 := model.Trade{ID: 1, Price: 100, Qty: 1, QuoteQty: 100, TimeMs: 1000, IsBuyerMaker: true}
	require.NoError(t, s.InsertTrades("BTCUSDT", []model.Trade{t1}))
	require.NoError(t, s.InsertTrades("BTCUSDT", []model.Trade{t1}))

	ids, err := s.ReadTradeIDs("BTCUSDT", 0, 10)
	require.NoError(t, err)
	require.Equal(t, []uint64{1}, ids)
}

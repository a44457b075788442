package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chidi150c/microbar/internal/model"
)

type memTradeStore struct {
	rows map[uint64]model.Trade
}

func newMemTradeStore() *memTradeStore { return &memTradeStore{rows: map[uint64]model.Trade{}} }

func (s *memTradeStore) EnsureTradeTable(string) error { return nil }

func (s *memTradeStore) ReadTradeIDs(symbol string, start, end uint64) ([]uint64, error) {
	var out []uint64
	for id := range s.rows {
		if id >= start && id <= end {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *memTradeStore) InsertTrades(symbol string, trades []model.Trade) error {
	for _, tr := range trades {
		if existing, ok := s.rows[tr.ID]; ok {
			if existing != tr {
				return model.ErrIntegrityViolation
			}
			continue
		}
		s.rows[tr.ID] = tr
	}
	return nil
}

func (s *memTradeStore) ReadTrades(symbol string, start, end uint64) ([]model.Trade, error) {
	var out []model.Trade
	for id, tr := range s.rows {
		if id >= start && id <= end {
			out = append(out, tr)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].ID < out[j-1].ID; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

type fakeTradeFetcher struct {
	universe map[uint64]model.Trade
	lastID   uint64
}

func (f *fakeTradeFetcher) RecentTrades(ctx context.Context, symbol string, limit int) ([]model.Trade, error) {
	return []model.Trade{f.universe[f.lastID]}, nil
}

func (f *fakeTradeFetcher) HistoricalTrades(ctx context.Context, symbol string, fromID uint64, limit int) ([]model.Trade, error) {
	var out []model.Trade
	for id := fromID; id < fromID+uint64(limit); id++ {
		if tr, ok := f.universe[id]; ok {
			out = append(out, tr)
		}
	}
	return out, nil
}

func buildUniverse(n int) map[uint64]model.Trade {
	u := map[uint64]model.Trade{}
	for i := 1; i <= n; i++ {
		id := uint64(i)
		u[id] = model.Trade{ID: id, Price: 100 + float64(i), Qty: 1, QuoteQty: 100 + float64(i), TimeMs: int64(i) * 10}
	}
	return u
}

// Invariant 5 — Gap diff correctness.
func TestGetTrades_GapFillCorrectness(t *testing.T) {
	universe := buildUniverse(20)
	store := newMemTradeStore()
	// pre-seed a couple of rows to force a gap in the middle
	store.rows[1] = universe[1]
	store.rows[2] = universe[2]
	store.rows[10] = universe[10]

	fetcher := &fakeTradeFetcher{universe: universe, lastID: 20}
	mgr := NewTradeManager(fetcher, store, 1000)

	end := uint64(20)
	out, err := mgr.GetTrades(context.Background(), "BTCUSDT", 1, &end)
	require.NoError(t, err)
	require.Len(t, out, 20)
	for _, tr := range out {
		want := universe[tr.ID]
		require.Equal(t, want, tr)
	}
}

func TestGetTrades_RangeOutOfBounds(t *testing.T) {
	store := newMemTradeStore()
	fetcher := &fakeTradeFetcher{universe: buildUniverse(5), lastID: 5}
	mgr := NewTradeManager(fetcher, store, 1000)
	end := uint64(3)
	_, err := mgr.GetTrades(context.Background(), "BTCUSDT", 10, &end)
	require.ErrorIs(t, err, model.ErrRangeOutOfBounds)
}

func TestRunLengthEncode(t *testing.T) {
	runs := runLengthEncode([]uint64{3, 4, 5, 9, 10, 15})
	require.Equal(t, []idRun{{from: 3, length: 3}, {from: 9, length: 2}, {from: 15, length: 1}}, runs)
}

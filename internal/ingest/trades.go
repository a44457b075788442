package ingest

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/chidi150c/microbar/internal/model"
	"github.com/chidi150c/microbar/internal/obs"
)

// TradeFetcher is the subset of the Exchange Fetcher used by TradeManager.
type TradeFetcher interface {
	RecentTrades(ctx context.Context, symbol string, limit int) ([]model.Trade, error)
	HistoricalTrades(ctx context.Context, symbol string, fromID uint64, limit int) ([]model.Trade, error)
}

// TradeStore is the subset of the Store used by TradeManager.
type TradeStore interface {
	EnsureTradeTable(symbol string) error
	ReadTradeIDs(symbol string, start, end uint64) ([]uint64, error)
	InsertTrades(symbol string, trades []model.Trade) error
	ReadTrades(symbol string, start, end uint64) ([]model.Trade, error)
}

// TradeManager drives get_trades per §4.2, keyed on dense trade ids.
type TradeManager struct {
	fetcher  TradeFetcher
	store    TradeStore
	apiLimit int
	sf       singleflight.Group
}

func NewTradeManager(fetcher TradeFetcher, store TradeStore, apiLimit int) *TradeManager {
	if apiLimit <= 0 {
		apiLimit = 1000
	}
	return &TradeManager{fetcher: fetcher, store: store, apiLimit: apiLimit}
}

// idRun is a run-length-encoded window of missing contiguous ids.
type idRun struct {
	from   uint64
	length int
}

// GetTrades returns the ordered trade sequence for [startID, endID].
// If endID is nil, the expected universe's upper bound is the exchange's
// last known remote id, queried via RecentTrades(limit=1).
func (m *TradeManager) GetTrades(ctx context.Context, symbol string, startID uint64, endID *uint64) ([]model.Trade, error) {
	end := "latest"
	if endID != nil {
		end = fmt.Sprintf("%d", *endID)
	}
	key := fmt.Sprintf("%s|%d|%s", symbol, startID, end)
	v, err, _ := m.sf.Do(key, func() (any, error) {
		return m.getTrades(ctx, symbol, startID, endID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Trade), nil
}

func (m *TradeManager) getTrades(ctx context.Context, symbol string, startID uint64, endID *uint64) ([]model.Trade, error) {
	if err := m.store.EnsureTradeTable(symbol); err != nil {
		return nil, err
	}

	last := uint64(0)
	if endID != nil {
		last = *endID
	} else {
		recent, err := m.fetcher.RecentTrades(ctx, symbol, 1)
		if err != nil {
			return nil, err
		}
		if len(recent) == 0 {
			return nil, fmt.Errorf("%w: exchange reported no recent trades for %s", model.ErrRangeOutOfBounds, symbol)
		}
		last = recent[0].ID
	}
	if last < startID {
		return nil, fmt.Errorf("%w: end id %d precedes start id %d", model.ErrRangeOutOfBounds, last, startID)
	}

	present, err := m.store.ReadTradeIDs(symbol, startID, last)
	if err != nil {
		return nil, err
	}
	missing := missingIDs(startID, last, present)
	obs.IngestGapRows.WithLabelValues(symbol, "trades").Set(float64(len(missing)))

	runs := runLengthEncode(missing)
	for _, run := range runs {
		remaining := run.length
		cursor := run.from
		for remaining > 0 {
			take := remaining
			if take > m.apiLimit {
				take = m.apiLimit
			}
			batch, err := m.fetcher.HistoricalTrades(ctx, symbol, cursor, take)
			if err != nil {
				return nil, err
			}
			if err := m.store.InsertTrades(symbol, batch); err != nil {
				return nil, err
			}
			cursor += uint64(take)
			remaining -= take
		}
	}

	return m.store.ReadTrades(symbol, startID, last)
}

// missingIDs returns the sorted ids in [start, end] absent from present.
func missingIDs(start, end uint64, present []uint64) []uint64 {
	have := make(map[uint64]struct{}, len(present))
	for _, p := range present {
		have[p] = struct{}{}
	}
	var out []uint64
	for id := start; id <= end; id++ {
		if _, ok := have[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// runLengthEncode breaks a sorted id slice into contiguous runs: breaks
// at indices where diff != 1, matching the Python original's
// consecutive-ids algorithm in trades_manager.py.
func runLengthEncode(ids []uint64) []idRun {
	if len(ids) == 0 {
		return nil
	}
	var runs []idRun
	runStart := ids[0]
	runLen := 1
	for i := 1; i < len(ids); i++ {
		if ids[i]-ids[i-1] == 1 {
			runLen++
			continue
		}
		runs = append(runs, idRun{from: runStart, length: runLen})
		runStart = ids[i]
		runLen = 1
	}
	runs = append(runs, idRun{from: runStart, length: runLen})
	return runs
}

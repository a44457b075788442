// Package store implements the columnar store collaborator of spec.md §6:
// append-only, deduplicated tables per symbol/timeframe
// (klines_{symbol}_{tf}) and per symbol (trades_{symbol}), backed by
// modernc.org/sqlite — grounded on the sqlite-only caching layers in
// _examples/stadam23-Eve-flipper and _examples/poorman-SynapseStrike.
package store

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/chidi150c/microbar/internal/model"
)

// Store is a thin wrapper over *sql.DB giving the Ingestion Manager
// primary-key-deduplicated insert and range-scan operations.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the sqlite database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // sqlite: single-writer, matches §5's single shared-mutable-resource model
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func klineTable(symbol string, tf model.Timeframe) string {
	return fmt.Sprintf("klines_%s_%s", sanitize(symbol), sanitize(string(tf)))
}

func tradeTable(symbol string) string {
	return fmt.Sprintf("trades_%s", sanitize(symbol))
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, s)
}

// EnsureKlineTable creates the per-symbol/timeframe kline table if absent.
func (s *Store) EnsureKlineTable(symbol string, tf model.Timeframe) error {
	tbl := klineTable(symbol, tf)
	_, err := s.db.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		open_time INTEGER PRIMARY KEY,
		open REAL, high REAL, low REAL, close REAL,
		volume REAL, close_time INTEGER, quote_asset_volume REAL,
		num_trades INTEGER, taker_buy_base REAL, taker_buy_quote REAL, ignore TEXT
	)`, tbl))
	if err != nil {
		return fmt.Errorf("store: ensure kline table %s: %w", tbl, err)
	}
	return nil
}

// EnsureTradeTable creates the per-symbol trade table if absent.
func (s *Store) EnsureTradeTable(symbol string) error {
	tbl := tradeTable(symbol)
	_, err := s.db.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id INTEGER PRIMARY KEY,
		price REAL, qty REAL, quote_qty REAL, time INTEGER,
		is_buyer_maker INTEGER, is_best_match INTEGER
	)`, tbl))
	if err != nil {
		return fmt.Errorf("store: ensure trade table %s: %w", tbl, err)
	}
	return nil
}

// ReadKlineOpenTimes returns the sorted open_time column already present
// in the store for [start, end], step (c) of §4.2's kline contract.
func (s *Store) ReadKlineOpenTimes(symbol string, tf model.Timeframe, start, end int64) ([]int64, error) {
	tbl := klineTable(symbol, tf)
	rows, err := s.db.Query(fmt.Sprintf(`SELECT open_time FROM %s WHERE open_time BETWEEN ? AND ? ORDER BY open_time`, tbl), start, end)
	if err != nil {
		return nil, fmt.Errorf("store: read kline open_times: %w", err)
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var t int64
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// InsertKlines idempotently inserts a batch, deduplicating by open_time.
func (s *Store) InsertKlines(symbol string, tf model.Timeframe, klines []model.Kline) error {
	if len(klines) == 0 {
		return nil
	}
	tbl := klineTable(symbol, tf)
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(fmt.Sprintf(`INSERT OR IGNORE INTO %s
		(open_time, open, high, low, close, volume, close_time, quote_asset_volume, num_trades, taker_buy_base, taker_buy_quote, ignore)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`, tbl))
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, k := range klines {
		if _, err := stmt.Exec(k.OpenTimeMs, k.Open, k.High, k.Low, k.Close, k.Volume,
			k.CloseTimeMs, k.QuoteAssetVolume, k.NumTrades, k.TakerBuyBase, k.TakerBuyQuote, k.Ignore); err != nil {
			tx.Rollback()
			return fmt.Errorf("store: insert kline: %w", err)
		}
	}
	return tx.Commit()
}

// ReadKlines returns the full [start, end] range, sorted by open_time —
// step (g) of §4.2's kline contract.
func (s *Store) ReadKlines(symbol string, tf model.Timeframe, start, end int64) ([]model.Kline, error) {
	tbl := klineTable(symbol, tf)
	rows, err := s.db.Query(fmt.Sprintf(`SELECT open_time, open, high, low, close, volume, close_time, quote_asset_volume, num_trades, taker_buy_base, taker_buy_quote, ignore
		FROM %s WHERE open_time BETWEEN ? AND ? ORDER BY open_time`, tbl), start, end)
	if err != nil {
		return nil, fmt.Errorf("store: read klines: %w", err)
	}
	defer rows.Close()
	var out []model.Kline
	for rows.Next() {
		var k model.Kline
		if err := rows.Scan(&k.OpenTimeMs, &k.Open, &k.High, &k.Low, &k.Close, &k.Volume,
			&k.CloseTimeMs, &k.QuoteAssetVolume, &k.NumTrades, &k.TakerBuyBase, &k.TakerBuyQuote, &k.Ignore); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// ReadTradeIDs returns the sorted set of trade ids already present in
// [start, end].
func (s *Store) ReadTradeIDs(symbol string, start, end uint64) ([]uint64, error) {
	tbl := tradeTable(symbol)
	rows, err := s.db.Query(fmt.Sprintf(`SELECT id FROM %s WHERE id BETWEEN ? AND ? ORDER BY id`, tbl), start, end)
	if err != nil {
		return nil, fmt.Errorf("store: read trade ids: %w", err)
	}
	defer rows.Close()
	var out []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, rows.Err()
}

// InsertTrades idempotently inserts a batch, deduplicating by id. A row
// reappearing with a different payload is an IntegrityViolation, checked
// before insert.
func (s *Store) InsertTrades(symbol string, trades []model.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	tbl := tradeTable(symbol)
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	checkStmt, err := tx.Prepare(fmt.Sprintf(`SELECT price, qty, quote_qty, time, is_buyer_maker, is_best_match FROM %s WHERE id = ?`, tbl))
	if err != nil {
		tx.Rollback()
		return err
	}
	insStmt, err := tx.Prepare(fmt.Sprintf(`INSERT OR IGNORE INTO %s
		(id, price, qty, quote_qty, time, is_buyer_maker, is_best_match) VALUES (?,?,?,?,?,?,?)`, tbl))
	if err != nil {
		checkStmt.Close()
		tx.Rollback()
		return err
	}
	defer checkStmt.Close()
	defer insStmt.Close()

	for _, t := range trades {
		var price, qty, quoteQty float64
		var timeMs int64
		var isBM, isBest int
		err := checkStmt.QueryRow(t.ID).Scan(&price, &qty, &quoteQty, &timeMs, &isBM, &isBest)
		if err == nil {
			if price != t.Price || qty != t.Qty || quoteQty != t.QuoteQty || timeMs != t.TimeMs || boolToInt(t.IsBuyerMaker) != isBM || boolToInt(t.IsBestMatch) != isBest {
				tx.Rollback()
				return fmt.Errorf("%w: trade id %d reappeared with a different payload", model.ErrIntegrityViolation, t.ID)
			}
			continue
		}
		if err != sql.ErrNoRows {
			tx.Rollback()
			return err
		}
		if _, err := insStmt.Exec(t.ID, t.Price, t.Qty, t.QuoteQty, t.TimeMs, boolToInt(t.IsBuyerMaker), boolToInt(t.IsBestMatch)); err != nil {
			tx.Rollback()
			return fmt.Errorf("store: insert trade: %w", err)
		}
	}
	return tx.Commit()
}

// ReadTrades returns the full [start, end] range, sorted by id.
func (s *Store) ReadTrades(symbol string, start, end uint64) ([]model.Trade, error) {
	tbl := tradeTable(symbol)
	rows, err := s.db.Query(fmt.Sprintf(`SELECT id, price, qty, quote_qty, time, is_buyer_maker, is_best_match
		FROM %s WHERE id BETWEEN ? AND ? ORDER BY id`, tbl), start, end)
	if err != nil {
		return nil, fmt.Errorf("store: read trades: %w", err)
	}
	defer rows.Close()
	var out []model.Trade
	for rows.Next() {
		var t model.Trade
		var isBM, isBest int
		if err := rows.Scan(&t.ID, &t.Price, &t.Qty, &t.QuoteQty, &t.TimeMs, &isBM, &isBest); err != nil {
			return nil, err
		}
		t.IsBuyerMaker = isBM != 0
		t.IsBestMatch = isBest != 0
		out = append(out, t)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

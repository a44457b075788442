package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/chidi150c/microbar/internal/model"
)

// loadTradesCSV reads a tick-trade fixture with headers
// id,price,qty,quote_qty,time,is_buyer_maker[,is_best_match], in the
// teacher's backtest.go loadCSV style: header-driven column lookup,
// tolerant of extra/missing columns, case-insensitive headers.
func loadTradesCSV(path string) ([]model.Trade, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var out []model.Trade
	var headers []string
	rowIdx := 0

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if rowIdx == 0 {
			headers = rec
			rowIdx++
			continue
		}
		row := map[string]string{}
		for j, h := range headers {
			k := strings.ToLower(strings.TrimSpace(h))
			if j < len(rec) {
				row[k] = strings.TrimSpace(rec[j])
			}
		}
		idStr := firstCol(row, "id", "trade_id")
		priceStr := firstCol(row, "price")
		qtyStr := firstCol(row, "qty", "quantity")
		timeStr := firstCol(row, "time", "timestamp")
		if idStr == "" || priceStr == "" || qtyStr == "" || timeStr == "" {
			continue
		}
		id, _ := strconv.ParseUint(idStr, 10, 64)
		price, _ := strconv.ParseFloat(priceStr, 64)
		qty, _ := strconv.ParseFloat(qtyStr, 64)
		quoteQty, _ := strconv.ParseFloat(firstCol(row, "quote_qty"), 64)
		if quoteQty == 0 {
			quoteQty = price * qty
		}
		timeMs, _ := strconv.ParseInt(timeStr, 10, 64)
		isBM := firstCol(row, "is_buyer_maker") == "true" || firstCol(row, "is_buyer_maker") == "1"
		isBest := firstCol(row, "is_best_match") == "true" || firstCol(row, "is_best_match") == "1"

		out = append(out, model.Trade{
			ID: id, Price: price, Qty: qty, QuoteQty: quoteQty,
			TimeMs: timeMs, IsBuyerMaker: isBM, IsBestMatch: isBest,
		})
		rowIdx++
	}

	sort.Slice(out, func(i, j int) bool { return out[i].TimeMs < out[j].TimeMs })
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: no usable rows (need id,price,qty,time columns)", path)
	}
	return out, nil
}

// firstCol returns the first non-empty value for keys in m, matching
// the teacher's backtest.go first() helper.
func firstCol(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}

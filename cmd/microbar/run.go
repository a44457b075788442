package main

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/chidi150c/microbar/internal/bars"
	"github.com/chidi150c/microbar/internal/model"
)

// runCannedBacktest is the bare `microbar` entry: a hard-coded
// single-symbol volume-bar backtest over a synthetic trade tape,
// reproducing the teacher's "one interactive entry, no subcommand"
// shape (main.go ran a fixed CSV backtest when -backtest wasn't given
// a real path) without depending on network access or a fixture file.
func runCannedBacktest(cmd *cobra.Command) error {
	const symbol = "BTCUSDT"
	trades := syntheticTape(20_000)

	params := bars.DefaultParams(5_000)
	built, _, err := bars.BuildVolumeBars(trades, params)
	if err != nil {
		return err
	}
	log.Info().Str("symbol", symbol).Int("trades", len(trades)).Int("bars", len(built)).Msg("canned backtest: bars built")

	report, err := runBacktestOverBars([]string{symbol}, map[string][]model.Bar{symbol: built})
	if err != nil {
		return err
	}
	fmt.Println(report.String())
	return nil
}

// syntheticTape generates a deterministic geometric random walk of
// trades, for the no-argument demo path only; ingest/backtest against
// real data always flows through the store or --csv.
func syntheticTape(n int) []model.Trade {
	r := rand.New(rand.NewSource(1))
	price := 30_000.0
	out := make([]model.Trade, 0, n)
	var t int64
	for i := 0; i < n; i++ {
		price *= 1 + (r.Float64()-0.5)*0.002
		qty := 0.001 + r.Float64()*0.05
		t += 500 + r.Int63n(1500)
		out = append(out, model.Trade{
			ID: uint64(i + 1), Price: price, Qty: qty, QuoteQty: price * qty,
			TimeMs: t, IsBuyerMaker: r.Float64() < 0.5,
		})
	}
	return out
}

package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chidi150c/microbar/internal/backtest"
	"github.com/chidi150c/microbar/internal/bars"
	"github.com/chidi150c/microbar/internal/metrics"
	"github.com/chidi150c/microbar/internal/model"
	"github.com/chidi150c/microbar/internal/portfolio"
	"github.com/chidi150c/microbar/internal/store"
	"github.com/chidi150c/microbar/internal/strategy"
)

func newBacktestCmd() *cobra.Command {
	var symbolsCSV, barKindStr, csvPath string
	var barSize float64
	var fromID, toID uint64

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Build bars from trades and run the reference RSI strategy over them",
		RunE: func(cmd *cobra.Command, args []string) error {
			symbols := strings.Split(symbolsCSV, ",")
			for i := range symbols {
				symbols[i] = strings.TrimSpace(symbols[i])
			}

			kind := bars.BarKind(barKindStr)
			build, ok := bars.Builders[kind]
			if !ok {
				return fmt.Errorf("%w: unknown bar kind %q", model.ErrBadInput, barKindStr)
			}
			params := bars.DefaultParams(barSize)

			barsBySymbol := map[string][]model.Bar{}
			for _, sym := range symbols {
				trades, err := loadSymbolTrades(sym, csvPath, fromID, toID)
				if err != nil {
					return err
				}
				built, _, err := build(trades, params)
				if err != nil {
					return fmt.Errorf("building %s bars for %s: %w", kind, sym, err)
				}
				barsBySymbol[sym] = built
				log.Info().Str("symbol", sym).Str("kind", string(kind)).Int("bars", len(built)).Msg("bars built")
			}

			report, err := runBacktestOverBars(symbols, barsBySymbol)
			if err != nil {
				return err
			}
			fmt.Println(report.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&symbolsCSV, "symbols", "BTCUSDT", "comma-separated symbol list, sharing one trade-time axis")
	cmd.Flags().StringVar(&barKindStr, "kind", string(bars.KindVolume), "bar kind: tick, volume, dollar, *_imbalance, *_run")
	cmd.Flags().Float64Var(&barSize, "bar-size", 1000, "threshold driving the deterministic builders")
	cmd.Flags().StringVar(&csvPath, "csv", "", "trade fixture CSV (single symbol only); omit to read from the store")
	cmd.Flags().Uint64Var(&fromID, "from-id", 0, "trade id range start when reading from the store")
	cmd.Flags().Uint64Var(&toID, "to-id", math.MaxUint64, "trade id range end when reading from the store")
	return cmd
}

func loadSymbolTrades(symbol, csvPath string, fromID, toID uint64) ([]model.Trade, error) {
	if csvPath != "" {
		return loadTradesCSV(csvPath)
	}
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.ReadTrades(symbol, fromID, toID)
}

// runBacktestOverBars wires Strategy -> Portfolio -> ExecutionHandler ->
// Driver exactly as spec.md §4.3/§5 describe, then reduces the resulting
// Portfolio into a Metrics Report.
func runBacktestOverBars(symbols []string, barsBySymbol map[string][]model.Bar) (metrics.Report, error) {
	strat := strategy.NewRSIStrategy(cfg.InitialBalance * 0.1)
	pf := portfolio.New(portfolio.Config{
		Leverage:       cfg.Leverage,
		MakerFee:       cfg.MakerFee,
		TakerFee:       cfg.TakerFee,
		InitialBalance: cfg.InitialBalance,
		TPPrecedence:   true,
	})
	handler := backtest.NewExecutionHandler(strat, pf, log)
	driver := backtest.NewDriver(handler)

	if err := driver.Run(symbols, barsBySymbol); err != nil {
		return metrics.Report{}, err
	}

	report := metrics.Generate(metrics.Portfolio{
		TradeHistory:   pf.TradeHistory(),
		OpenPositions:  pf.OpenPositions(),
		EquityHistory:  pf.EquityHistory(),
		InitialBalance: cfg.InitialBalance,
	}, metrics.Config{})
	return report, nil
}

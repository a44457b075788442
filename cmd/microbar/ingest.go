package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/chidi150c/microbar/internal/exchange"
	"github.com/chidi150c/microbar/internal/ingest"
	"github.com/chidi150c/microbar/internal/model"
	"github.com/chidi150c/microbar/internal/store"
)

// newIngestCmd drives the Gap-Aware Ingestion & Cache component (§4.2)
// for one symbol/timeframe range, populating the sqlite store.
func newIngestCmd() *cobra.Command {
	var symbol, timeframe string
	var startStr, endStr string
	var trades bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Backfill klines or trades for a symbol into the local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := time.Parse("2006-01-02", startStr)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			end, err := time.Parse("2006-01-02", endStr)
			if err != nil {
				return fmt.Errorf("invalid --end: %w", err)
			}

			db, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			client := exchange.New(cfg.ExchangeBaseURL, cfg.MaxRetries,
				time.Duration(cfg.RetryDelaySeconds*float64(time.Second)), log)
			ctx := cmd.Context()

			if trades {
				mgr := ingest.NewTradeManager(client, db, cfg.APILimit)
				out, err := mgr.GetTrades(ctx, symbol, uint64(start.UnixMilli()), nil)
				if err != nil {
					return err
				}
				log.Info().Str("symbol", symbol).Int("count", len(out)).Msg("trades ingested")
				return nil
			}

			end, err = time.Parse("2006-01-02", endStr)
			if err != nil {
				return fmt.Errorf("invalid --end: %w", err)
			}
			mgr := ingest.NewKlineManager(client, db, cfg.APILimit)
			tf := model.Timeframe(timeframe)
			out, err := mgr.GetKlines(ctx, symbol, tf, start.UnixMilli(), end.UnixMilli())
			if err != nil {
				return err
			}
			log.Info().Str("symbol", symbol).Str("timeframe", timeframe).Int("count", len(out)).Msg("klines ingested")
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "trading symbol, e.g. BTCUSDT (required)")
	cmd.Flags().StringVar(&timeframe, "timeframe", "1m", "kline timeframe")
	cmd.Flags().StringVar(&startStr, "start", "", "start date YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&endStr, "end", "", "end date YYYY-MM-DD (klines only)")
	cmd.Flags().BoolVar(&trades, "trades", false, "ingest trades instead of klines")
	cmd.MarkFlagRequired("symbol")
	cmd.MarkFlagRequired("start")
	return cmd
}

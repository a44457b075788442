package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/chidi150c/microbar/internal/config"
	"github.com/chidi150c/microbar/internal/obs"
)

// cfg and log are populated by the root command's PersistentPreRunE,
// mirroring the teacher's package-level loadBotEnv/loadConfigFromEnv
// boot order, just threaded through cobra instead of flag.Parse.
var (
	cfg config.Config
	log zerolog.Logger
)

func newRootCmd() *cobra.Command {
	var pretty bool

	root := &cobra.Command{
		Use:   "microbar",
		Short: "Market-microstructure bar construction, ingestion, and backtesting toolchain",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadDotEnv()
			cfg = config.Load()
			log = obs.NewLogger(cfg.LogLevel, pretty)
			return nil
		},
		// Bare invocation reproduces the teacher's single-shot boot
		// sequence: config, then a canned backtest over a fixture.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCannedBacktest(cmd)
		},
	}

	root.PersistentFlags().BoolVar(&pretty, "pretty", false, "pretty-print logs to stderr instead of JSON")

	root.AddCommand(newIngestCmd())
	root.AddCommand(newBacktestCmd())
	root.AddCommand(newServeCmd())
	return root
}

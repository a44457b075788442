// Prometheus metrics for the ingestion and backtest subsystems. Registered
// in init() and served by promhttp.Handler() from cmd/microbar's serve
// subcommand, mirroring the teacher's metrics.go layout.
package obs

import "github.com/prometheus/client_golang/prometheus"

var (
	// IngestFetches counts exchange calls issued by the ingestion manager,
	// split by kind (klines|trades) and outcome (ok|retry|nontransient|failed).
	IngestFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "microbar_ingest_fetches_total",
			Help: "Exchange fetches issued during ingestion.",
		},
		[]string{"kind", "outcome"},
	)

	// IngestGapRows reports the size of the most recently computed gap
	// (missing rows) for a symbol/table, updated per GetKlines/GetTrades call.
	IngestGapRows = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "microbar_ingest_gap_rows",
			Help: "Missing rows found on the last gap-fill pass.",
		},
		[]string{"symbol", "table"},
	)

	// BarsEmitted is labelled by builder kind and symbol. No code path in
	// this repository increments it, so it stays at zero.
	BarsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "microbar_bars_emitted_total",
			Help: "Bars emitted by the bar construction engine.",
		},
		[]string{"kind", "symbol"},
	)

	// BacktestEquity tracks the latest portfolio-aggregate equity sample.
	BacktestEquity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "microbar_backtest_equity_usd",
			Help: "Latest General equity sample from the running backtest.",
		},
	)

	// BacktestOrders counts orders by status (filled|rejected).
	BacktestOrders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "microbar_backtest_orders_total",
			Help: "Orders processed by the Portfolio, by terminal status.",
		},
		[]string{"status"},
	)

	// BacktestTrades counts closed trades by exit reason (TP|SL).
	BacktestTrades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "microbar_backtest_trades_total",
			Help: "Closed trades, by closed_by reason.",
		},
		[]string{"closed_by"},
	)
)

func init() {
	prometheus.MustRegister(IngestFetches, IngestGapRows, BarsEmitted)
	prometheus.MustRegister(BacktestEquity, BacktestOrders, BacktestTrades)
}

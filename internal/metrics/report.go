package metrics

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
)

// String renders a plain-text tabular report, in the teacher's
// fmt.Sprintf/log.Printf summary style (backtest.go's win/loss print
// block) rather than the Python original's bokeh chart renderer, which
// is explicitly out of scope per spec.md §1. text/tabwriter is stdlib;
// no example repo in the retrieved corpus imports a Go charting or
// table-rendering library, so this stays on the standard library
// (documented in DESIGN.md).
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Net profit:        $%.2f (%.2f%%)\n", r.NetProfitUSD, r.NetProfitPct)
	fmt.Fprintf(&b, "CAGR:              %.2f%%\n", r.CAGRPct)
	fmt.Fprintf(&b, "Volatility:        daily=%.4f annual=%.4f\n", r.DailyVolatility, r.AnnualVolatility)
	fmt.Fprintf(&b, "Sharpe:            monthly=%.3f annual=%.3f\n", r.SharpeMonthly, r.SharpeAnnual)
	fmt.Fprintf(&b, "Sortino:           monthly=%.3f annual=%.3f\n", r.SortinoMonthly, r.SortinoAnnual)
	fmt.Fprintf(&b, "Max drawdown:      $%.2f (%.2f%%)\n", r.MaxDrawdownUSD, r.MaxDrawdownPct)
	fmt.Fprintf(&b, "Calmar:            %.3f\n", r.CalmarRatio)
	fmt.Fprintf(&b, "Historical VaR95:  %.2f\n", r.VaR95)
	fmt.Fprintf(&b, "Equity curve R^2:  %.4f\n", r.EquityR2)
	fmt.Fprintf(&b, "Turnover:          %.2f\n", r.Turnover)
	fmt.Fprintf(&b, "Total commissions: $%.2f\n", r.TotalCommissions)
	b.WriteString("\nPer-symbol:\n")

	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "symbol\ttrades\twin%\tpnl\tgross_profit\tgross_loss\tprofit_factor\tmax_dd$\tmax_dd%\tavg_trade%")
	symbols := make([]string, 0, len(r.BySymbol))
	for s := range r.BySymbol {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	for _, s := range symbols {
		sr := r.BySymbol[s]
		fmt.Fprintf(tw, "%s\t%d\t%.1f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
			s, sr.TotalTrades, sr.WinRatePct, sr.TotalPnL, sr.GrossProfit, sr.GrossLoss,
			sr.ProfitFactor, sr.MaxDrawdownUSD, sr.MaxDrawdownPct, sr.AvgTradeReturnPct)
	}
	tw.Flush()
	return b.String()
}

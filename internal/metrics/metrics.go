// Package metrics implements the Metrics / Report component of §4.4,
// ported formula-for-formula from
// _examples/original_source/engine/apps/backtest/analytics/metrics.py.
package metrics

import (
	"math"

	"github.com/chidi150c/microbar/internal/model"
)

// Config carries the tunables flagged as open questions in §9.
type Config struct {
	// RiskFreeRateAnnual resolves Open Question 3: defaults to zero,
	// matching the source's no-op `returns - 0/12`, but is honored if set.
	RiskFreeRateAnnual float64
}

// Portfolio is the subset of data Metrics consumes, per §4.4's opening
// sentence: trade_history, current_positions, equity_history, initial_balance.
type Portfolio struct {
	TradeHistory   []model.TradeRecord
	OpenPositions  []model.Position
	EquityHistory  map[string][]model.EquitySample
	InitialBalance float64
}

// Report holds every portfolio-wide and per-symbol statistic of §4.4.
type Report struct {
	NetProfitUSD     float64
	NetProfitPct     float64
	CAGRPct          float64
	DailyVolatility  float64
	AnnualVolatility float64
	SharpeMonthly    float64
	SharpeAnnual     float64
	SortinoMonthly   float64
	SortinoAnnual    float64
	MaxDrawdownUSD   float64
	MaxDrawdownPct   float64
	CalmarRatio      float64
	VaR95            float64
	EquityR2         float64
	Turnover         float64
	TotalCommissions float64

	BySymbol map[string]SymbolReport
}

// SymbolReport holds the §4.4 per-symbol statistics.
type SymbolReport struct {
	TotalTrades       int
	WinRatePct        float64
	TotalPnL          float64
	GrossProfit       float64
	GrossLoss         float64
	ProfitFactor      float64
	MaxDrawdownUSD    float64
	MaxDrawdownPct    float64
	AvgTradeReturnPct float64
}

// Generate computes the full Report from a Portfolio snapshot.
func Generate(p Portfolio, cfg Config) Report {
	general := p.EquityHistory[model.GeneralSymbol]

	r := Report{
		TotalCommissions: totalCommissions(p.TradeHistory),
		Turnover:         turnover(p.TradeHistory, p.OpenPositions),
	}

	if len(general) > 0 {
		first, last := general[0].Equity, general[len(general)-1].Equity
		r.NetProfitUSD = last - p.InitialBalance
		if p.InitialBalance != 0 {
			r.NetProfitPct = r.NetProfitUSD / p.InitialBalance * 100
		}
		r.CAGRPct = cagr(general, p.InitialBalance) * 100
		r.MaxDrawdownUSD, r.MaxDrawdownPct = maxDrawdown(general)
		if r.MaxDrawdownPct != 0 {
			r.CalmarRatio = r.CAGRPct / math.Abs(r.MaxDrawdownPct)
		}
		r.VaR95 = historicalVaR95(general)
		closes := make([]float64, len(general))
		for i, s := range general {
			closes[i] = s.Equity
		}
		r.EquityR2 = linregR2(closes)

		monthlyReturns := monthlyReturns(general)
		rf := cfg.RiskFreeRateAnnual / 12
		r.SharpeMonthly, r.SharpeAnnual = sharpe(monthlyReturns, rf)
		r.SortinoMonthly, r.SortinoAnnual = sortino(monthlyReturns, rf)
		_ = first
	}

	pnls := make([]float64, len(p.TradeHistory))
	for i, tr := range p.TradeHistory {
		pnls[i] = tr.PnL
	}
	r.DailyVolatility = stddev(pnls)
	r.AnnualVolatility = r.DailyVolatility * math.Sqrt(365)

	r.BySymbol = bySymbol(p)
	return r
}

func totalCommissions(trades []model.TradeRecord) float64 {
	var s float64
	for _, t := range trades {
		s += t.Commissions
	}
	return s
}

// turnover implements "Sigma volume / mean(volume) * 100" over every
// closed trade plus every still-open position's notional.
func turnover(trades []model.TradeRecord, open []model.Position) float64 {
	var volumes []float64
	for _, t := range trades {
		volumes = append(volumes, t.Volume)
	}
	for _, o := range open {
		volumes = append(volumes, o.Volume)
	}
	if len(volumes) == 0 {
		return 0
	}
	m := mean(volumes)
	if m == 0 {
		return 0
	}
	var sum float64
	for _, v := range volumes {
		sum += v
	}
	return sum / m * 100
}

// cagr: (final/initial)^(1/years) - 1, years = (end-start)/ms_per_year.
func cagr(general []model.EquitySample, initial float64) float64 {
	if len(general) < 2 || initial <= 0 {
		return 0
	}
	start, end := general[0].TimestampMs, general[len(general)-1].TimestampMs
	years := float64(end-start) / float64(msPerYear)
	if years <= 0 {
		return 0
	}
	finalEquity := general[len(general)-1].Equity
	ratio := finalEquity / initial // General equity samples are absolute portfolio equity per §4.3 Step 4
	if ratio <= 0 {
		return -1
	}
	return math.Pow(ratio, 1/years) - 1
}

// maxDrawdown computes the running-max-based drawdown over an equity
// sample series — General's is absolute portfolio equity, a per-symbol
// series is relative PnL; both use the same running-max formula per §4.4.
func maxDrawdown(general []model.EquitySample) (usd, pct float64) {
	if len(general) == 0 {
		return 0, 0
	}
	runningMax := general[0].Equity
	var worstUSD, worstPct float64
	for _, s := range general {
		if s.Equity > runningMax {
			runningMax = s.Equity
		}
		dd := s.Equity - runningMax
		if dd < worstUSD {
			worstUSD = dd
		}
		if runningMax != 0 {
			ddPct := dd / math.Abs(runningMax) * 100
			if ddPct < worstPct {
				worstPct = ddPct
			}
		}
	}
	return math.Abs(worstUSD), math.Abs(worstPct)
}

// historicalVaR95 is the 5th percentile of daily-resampled equity values
// (literal reading of §4.4: "5th percentile of daily equity").
func historicalVaR95(general []model.EquitySample) float64 {
	daily := map[int64]float64{}
	for _, s := range general {
		daily[dayKey(s.TimestampMs)] = s.Equity // last sample of the day wins
	}
	values := make([]float64, 0, len(daily))
	for _, v := range daily {
		values = append(values, v)
	}
	return percentile(values, 5)
}

// monthlyReturns resamples the equity curve to one sample per calendar
// month (last observation of the month) and returns period-over-period
// percentage changes.
func monthlyReturns(general []model.EquitySample) []float64 {
	type ym struct {
		y int
		m int
	}
	last := map[ym]float64{}
	var order []ym
	for _, s := range general {
		y, mo := monthKey(s.TimestampMs)
		k := ym{y, int(mo)}
		if _, ok := last[k]; !ok {
			order = append(order, k)
		}
		last[k] = s.Equity
	}
	if len(order) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(order)-1)
	for i := 1; i < len(order); i++ {
		prev, cur := last[order[i-1]], last[order[i]]
		if prev == 0 {
			continue
		}
		returns = append(returns, (cur-prev)/math.Abs(prev))
	}
	return returns
}

func sharpe(monthlyReturns []float64, rfMonthly float64) (monthlyRatio, annualRatio float64) {
	if len(monthlyReturns) < 2 {
		return 0, 0
	}
	excess := make([]float64, len(monthlyReturns))
	for i, r := range monthlyReturns {
		excess[i] = r - rfMonthly
	}
	sd := stddev(excess)
	if sd == 0 {
		return 0, 0
	}
	monthlyRatio = mean(excess) / sd
	annualRatio = monthlyRatio * math.Sqrt(12)
	return
}

// sortino uses downside deviation (ddof=1 over negative excess returns
// only), per §4.4.
func sortino(monthlyReturns []float64, rfMonthly float64) (monthlyRatio, annualRatio float64) {
	if len(monthlyReturns) < 2 {
		return 0, 0
	}
	excess := make([]float64, len(monthlyReturns))
	var downside []float64
	for i, r := range monthlyReturns {
		e := r - rfMonthly
		excess[i] = e
		if e < 0 {
			downside = append(downside, e)
		}
	}
	dd := stddev(downside)
	if dd == 0 {
		return 0, 0
	}
	monthlyRatio = mean(excess) / dd
	annualRatio = monthlyRatio * math.Sqrt(12)
	return
}

func bySymbol(p Portfolio) map[string]SymbolReport {
	closedBySymbol := map[string][]model.TradeRecord{}
	for _, t := range p.TradeHistory {
		closedBySymbol[t.Symbol] = append(closedBySymbol[t.Symbol], t)
	}
	openBySymbol := map[string][]model.Position{}
	for _, o := range p.OpenPositions {
		openBySymbol[o.Symbol] = append(openBySymbol[o.Symbol], o)
	}

	symbols := map[string]struct{}{}
	for s := range closedBySymbol {
		symbols[s] = struct{}{}
	}
	for s := range openBySymbol {
		symbols[s] = struct{}{}
	}

	out := map[string]SymbolReport{}
	for sym := range symbols {
		closed := closedBySymbol[sym]
		open := openBySymbol[sym]

		var wins int
		var grossProfit, grossLoss, totalPnL, totalCommissions float64
		var returnsPct []float64
		for _, t := range closed {
			totalPnL += t.PnL
			totalCommissions += t.Commissions
			if t.ClosedBy == model.ClosedByTP {
				wins++
			}
			if t.PnL > 0 {
				grossProfit += t.PnL
			} else {
				grossLoss += t.PnL
			}
			if t.Volume != 0 {
				returnsPct = append(returnsPct, t.PnL/t.Volume*100)
			}
		}
		var openUnrealized float64
		for _, o := range open {
			openUnrealized += o.UnrealizedPnL + o.RealizedPnL
		}
		totalPnL += openUnrealized - totalCommissions

		sr := SymbolReport{
			TotalTrades: len(closed) + len(open),
			TotalPnL:    totalPnL,
			GrossProfit: grossProfit,
			GrossLoss:   grossLoss,
		}
		if len(closed) > 0 {
			sr.WinRatePct = float64(wins) / float64(len(closed)) * 100
			sr.AvgTradeReturnPct = mean(returnsPct)
		}
		if grossLoss != 0 {
			sr.ProfitFactor = grossProfit / math.Abs(grossLoss)
		}
		sr.MaxDrawdownUSD, sr.MaxDrawdownPct = maxDrawdown(p.EquityHistory[sym])
		out[sym] = sr
	}
	return out
}

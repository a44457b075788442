// Package portfolio implements the Portfolio of §3/§4.3: pending orders,
// open positions, the closed-trade ledger, and the equity timeline, with
// the 4-step bar-level Update defined in §4.3. Grounded on
// _examples/original_source/engine/apps/backtest/portfolio.py, with the
// mutex-guarded-struct-of-ledgers idiom of
// _examples/chidi150c-coinbase/trader.go.
package portfolio

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/chidi150c/microbar/internal/model"
	"github.com/chidi150c/microbar/internal/obs"
)

// Config holds the fee/leverage/policy knobs threaded into the Portfolio,
// per §9's "global config singletons -> explicit config struct" note.
type Config struct {
	Leverage       float64
	MakerFee       float64
	TakerFee       float64
	InitialBalance float64
	// TPPrecedence resolves Open Question 1: when both TP and SL would
	// fire within the same bar, TP wins if true (the spec's documented
	// default).
	TPPrecedence bool
}

// Portfolio owns the orders, positions, and ledger tables exclusively;
// strategies never mutate it directly (§3 ownership rule).
type Portfolio struct {
	mu sync.Mutex

	cfg Config

	cash        float64
	nextOrderID uint64

	pending  []model.Order
	posByID  map[uint64]*model.Position
	posOrder []uint64 // insertion order, for deterministic iteration

	tradeHistory  []model.TradeRecord
	equityHistory map[string][]model.EquitySample

	turnover          float64
	totalCommissions  float64
	totalRealizedPnL  float64
}

// New builds a Portfolio seeded with cfg.InitialBalance cash.
func New(cfg Config) *Portfolio {
	return &Portfolio{
		cfg:           cfg,
		cash:          cfg.InitialBalance,
		posByID:       map[uint64]*model.Position{},
		equityHistory: map[string][]model.EquitySample{},
	}
}

// Submit records a strategy-produced order as PENDING and assigns a
// monotonically increasing order_id, per Execution Handler step 2. A
// UUID client order id is stamped too, in the teacher's broker-facing
// idempotency-key idiom (broker_paper.go/broker_coinbase.go), here
// carried through to the closing TradeRecord for audit instead of a
// live order submission.
func (p *Portfolio) Submit(order model.Order) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextOrderID++
	order.OrderID = p.nextOrderID
	order.ClientOrderID = uuid.New().String()
	order.Status = model.OrderPending
	p.pending = append(p.pending, order)
	return order.OrderID
}

// CashEquity returns the current free-cash balance.
func (p *Portfolio) CashEquity() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cash
}

// TradeHistory returns a copy of the closed-trade ledger.
func (p *Portfolio) TradeHistory() []model.TradeRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.TradeRecord, len(p.tradeHistory))
	copy(out, p.tradeHistory)
	return out
}

// EquityHistory returns a copy of the per-symbol (+ "General") equity curves.
func (p *Portfolio) EquityHistory() map[string][]model.EquitySample {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string][]model.EquitySample, len(p.equityHistory))
	for k, v := range p.equityHistory {
		cp := make([]model.EquitySample, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

// OpenPositions returns a copy of currently open positions.
func (p *Portfolio) OpenPositions() []model.Position {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.Position, 0, len(p.posOrder))
	for _, id := range p.posOrder {
		out = append(out, *p.posByID[id])
	}
	return out
}

// Turnover returns Sigma(order.volume) across all filled orders.
// internal/metrics does not read it: its turnover figure is computed from
// the trade ledger and the open positions.
func (p *Portfolio) Turnover() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.turnover
}

// snapshot captures the truncation points needed to roll the ledgers back
// to their pre-bar configuration on error, per §7's "failed bar leaves
// Portfolio in its pre-bar configuration." Ledger mutation in Update is
// append-only (plus in-place Position field writes, which are themselves
// idempotent recomputations), so a length-based rollback is sufficient.
type snapshot struct {
	cash             float64
	pendingLen       int
	tradeLen         int
	equityLens       map[string]int
	totalCommissions float64
	totalRealized    float64
	turnover         float64
}

func (p *Portfolio) snapshotLocked() snapshot {
	lens := make(map[string]int, len(p.equityHistory))
	for k, v := range p.equityHistory {
		lens[k] = len(v)
	}
	return snapshot{
		cash: p.cash, pendingLen: len(p.pending), tradeLen: len(p.tradeHistory),
		equityLens: lens, totalCommissions: p.totalCommissions,
		totalRealized: p.totalRealizedPnL, turnover: p.turnover,
	}
}

func (p *Portfolio) restoreLocked(s snapshot) {
	p.cash = s.cash
	p.pending = p.pending[:s.pendingLen]
	p.tradeHistory = p.tradeHistory[:s.tradeLen]
	for k, n := range s.equityLens {
		p.equityHistory[k] = p.equityHistory[k][:n]
	}
	p.totalCommissions = s.totalCommissions
	p.totalRealizedPnL = s.totalRealized
	p.turnover = s.turnover
}

// Update performs the four steps of §4.3's Portfolio.update(symbol, bar):
// fill pending orders, resolve TP/SL, close positions, sample equity. Any
// error other than InsufficientEquity (which is handled locally per §7)
// rolls the Portfolio back to its pre-call state and returns the error.
// closed reports whether a position for symbol closed during this call,
// so the Execution Handler can notify the Strategy via MarkClosed.
func (p *Portfolio) Update(symbol string, bar model.Bar) (closed bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := p.snapshotLocked()
	defer func() {
		if err != nil {
			p.restoreLocked(snap)
			closed = false
		}
	}()

	if err = p.fillPendingLocked(symbol, bar); err != nil {
		return false, err
	}
	closed, err = p.resolveTPSLLocked(symbol, bar)
	if err != nil {
		return false, err
	}
	p.sampleEquityLocked(symbol, bar.StartTime)
	return closed, nil
}

// fillPendingLocked is Step 1.
func (p *Portfolio) fillPendingLocked(symbol string, bar model.Bar) error {
	remaining := p.pending[:0]
	for _, order := range p.pending {
		if order.Symbol != symbol {
			remaining = append(remaining, order)
			continue
		}
		if order.Volume > p.cash {
			order.Status = model.OrderRejected
			obs.BacktestOrders.WithLabelValues("rejected").Inc()
			continue // InsufficientEquity: not fatal and not logged; counted in the rejected-orders metric, order dropped from queue
		}
		pos := &model.Position{
			OrderID:       order.OrderID,
			ClientOrderID: order.ClientOrderID,
			Symbol:        symbol,
			Volume:        order.Volume * p.cfg.Leverage,
			Direction:     order.Direction,
			EntryTime:     bar.StartTime,
			EntryPrice:    bar.Close,
			Leverage:      p.cfg.Leverage,
			TakeProfit:    order.TakeProfit,
			StopLoss:      order.StopLoss,
		}
		p.cash -= pos.Volume / p.cfg.Leverage
		p.posByID[order.OrderID] = pos
		p.posOrder = append(p.posOrder, order.OrderID)
		p.turnover += order.Volume
		obs.BacktestOrders.WithLabelValues("filled").Inc()
	}
	p.pending = remaining
	return nil
}

// resolveTPSLLocked is Step 2 + Step 3 (close-and-ledger) combined per
// position, since a position that closes this bar must leave the open set
// before equity sampling in Step 4. Reports whether any position for
// symbol closed.
func (p *Portfolio) resolveTPSLLocked(symbol string, bar model.Bar) (closedAny bool, err error) {
	var stillOpen []uint64
	for _, id := range p.posOrder {
		pos := p.posByID[id]
		if pos.Symbol != symbol {
			stillOpen = append(stillOpen, id)
			continue
		}
		closedBy, exitPrice, closed := p.checkExit(pos, bar)
		if !closed {
			pos.UnrealizedPnL = p.pnl(pos, bar.Close)
			stillOpen = append(stillOpen, id)
			continue
		}
		if err := p.closePositionLocked(pos, bar, closedBy, exitPrice); err != nil {
			return false, err
		}
		delete(p.posByID, id)
		closedAny = true
	}
	p.posOrder = stillOpen
	return closedAny, nil
}

// checkExit applies the BUY/SELL TP/SL rule of Step 2, with TP taking
// precedence over SL when both would fire in the same bar (Open
// Question 1, default true).
func (p *Portfolio) checkExit(pos *model.Position, bar model.Bar) (model.ClosedBy, float64, bool) {
	tpFirst := p.cfg.TPPrecedence
	checkTP := func() (float64, bool) {
		if pos.Direction == model.Buy {
			if bar.High >= pos.TakeProfit {
				return pos.TakeProfit, true
			}
		} else if bar.Low <= pos.TakeProfit {
			return pos.TakeProfit, true
		}
		return 0, false
	}
	checkSL := func() (float64, bool) {
		if pos.Direction == model.Buy {
			if bar.Low <= pos.StopLoss {
				return pos.StopLoss, true
			}
		} else if bar.High >= pos.StopLoss {
			return pos.StopLoss, true
		}
		return 0, false
	}
	if tpFirst {
		if px, ok := checkTP(); ok {
			return model.ClosedByTP, px, true
		}
		if px, ok := checkSL(); ok {
			return model.ClosedBySL, px, true
		}
		return "", 0, false
	}
	if px, ok := checkSL(); ok {
		return model.ClosedBySL, px, true
	}
	if px, ok := checkTP(); ok {
		return model.ClosedByTP, px, true
	}
	return "", 0, false
}

func (p *Portfolio) pnl(pos *model.Position, exit float64) float64 {
	units := pos.Volume / pos.EntryPrice
	if pos.Direction == model.Buy {
		return (exit - pos.EntryPrice) * units
	}
	return (pos.EntryPrice - exit) * units
}

// closePositionLocked is Step 3: realize PnL, charge commissions, return
// cash, append a TradeRecord.
func (p *Portfolio) closePositionLocked(pos *model.Position, bar model.Bar, closedBy model.ClosedBy, exitPrice float64) error {
	pnl := p.pnl(pos, exitPrice)
	commissions := pos.Volume * (p.cfg.MakerFee + p.cfg.TakerFee)
	p.cash += pos.Volume/pos.Leverage + pnl - commissions
	p.totalCommissions += commissions
	p.totalRealizedPnL += pnl

	p.tradeHistory = append(p.tradeHistory, model.TradeRecord{
		OrderID:       pos.OrderID,
		ClientOrderID: pos.ClientOrderID,
		Symbol:        pos.Symbol,
		PnL:           pnl,
		Volume:        pos.Volume,
		Direction:     pos.Direction,
		EntryPrice:    pos.EntryPrice,
		EntryTime:     pos.EntryTime,
		ExitTime:      bar.EndTime,
		StopLoss:      pos.StopLoss,
		BreakEven:     pos.EntryPrice,
		TakeProfit:    pos.TakeProfit,
		ClosedBy:      closedBy,
		Commissions:   commissions,
	})
	obs.BacktestTrades.WithLabelValues(string(closedBy)).Inc()
	return nil
}

// sampleEquityLocked is Step 4.
func (p *Portfolio) sampleEquityLocked(symbol string, ts int64) {
	var symbolRealized, symbolUnrealized float64
	for _, tr := range p.tradeHistory {
		if tr.Symbol == symbol {
			symbolRealized += tr.PnL
		}
	}
	var openUnrealizedAll, openNotionalOverLeverage float64
	for _, id := range p.posOrder {
		pos := p.posByID[id]
		openUnrealizedAll += pos.UnrealizedPnL
		openNotionalOverLeverage += pos.Volume / pos.Leverage
		if pos.Symbol == symbol {
			symbolRealized += pos.RealizedPnL
			symbolUnrealized += pos.UnrealizedPnL
		}
	}
	symbolEquity := symbolRealized + symbolUnrealized
	p.equityHistory[symbol] = append(p.equityHistory[symbol], model.EquitySample{TimestampMs: ts, Equity: symbolEquity})

	portfolioEquity := p.cash + openUnrealizedAll + openNotionalOverLeverage
	p.equityHistory[model.GeneralSymbol] = append(p.equityHistory[model.GeneralSymbol], model.EquitySample{TimestampMs: ts, Equity: portfolioEquity})
	obs.BacktestEquity.Set(portfolioEquity)
}

// AccountingIdentity returns the two sides of §3's invariant:
// cash + Sigma(open.notional/leverage) + Sigma(open.unrealized) vs
// initial_balance + Sigma(realized_pnl) - Sigma(commissions).
// Exposed for property tests (invariant 6).
func (p *Portfolio) AccountingIdentity() (lhs, rhs float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var notional, unrealized float64
	for _, id := range p.posOrder {
		pos := p.posByID[id]
		notional += pos.Volume / pos.Leverage
		unrealized += pos.UnrealizedPnL
	}
	lhs = p.cash + notional + unrealized
	rhs = p.cfg.InitialBalance + p.totalRealizedPnL + unrealized - p.totalCommissions
	return lhs, rhs
}

// String renders a short human summary, in the teacher's
// fmt.Sprintf-summary style (backtest.go's win/loss print block).
func (p *Portfolio) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Sprintf("cash=%.2f open_positions=%d closed_trades=%d commissions=%.2f",
		p.cash, len(p.posOrder), len(p.tradeHistory), p.totalCommissions)
}

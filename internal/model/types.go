// Package model holds the shared data types that flow between the
// ingestion, bar-construction, and backtest subsystems: trades, klines,
// bars, orders, positions, closed trades, and equity samples.
package model

// Trade is one matched execution on the exchange. Immutable once produced.
type Trade struct {
	ID           uint64
	Price        float64
	Qty          float64
	QuoteQty     float64
	TimeMs       int64
	IsBuyerMaker bool
	IsBestMatch  bool
}

// Sign returns +1 if the buyer was the aggressor, -1 otherwise.
func (t Trade) Sign() float64 {
	if !t.IsBuyerMaker {
		return 1
	}
	return -1
}

// Timeframe is a kline interval, e.g. "1m", "1h".
type Timeframe string

const (
	TF1m  Timeframe = "1m"
	TF5m  Timeframe = "5m"
	TF15m Timeframe = "15m"
	TF30m Timeframe = "30m"
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
	TF1D  Timeframe = "1D"
)

// Ms returns the timeframe's duration in milliseconds.
func (tf Timeframe) Ms() int64 {
	switch tf {
	case TF1m:
		return 60_000
	case TF5m:
		return 5 * 60_000
	case TF15m:
		return 15 * 60_000
	case TF30m:
		return 30 * 60_000
	case TF1h:
		return 60 * 60_000
	case TF4h:
		return 4 * 60 * 60_000
	case TF1D:
		return 24 * 60 * 60_000
	default:
		return 0
	}
}

// Kline is an OHLCV summary over one timeframe bucket. Keyed by
// (symbol, timeframe, OpenTimeMs).
type Kline struct {
	OpenTimeMs       int64
	Open             float64
	High             float64
	Low              float64
	Close            float64
	Volume           float64
	CloseTimeMs      int64
	QuoteAssetVolume float64
	NumTrades        int64
	TakerBuyBase     float64
	TakerBuyQuote    float64
	Ignore           string
}

// Bar is the common aggregate shape emitted by every bar builder.
type Bar struct {
	StartTime      int64
	EndTime        int64
	Open           float64
	High           float64
	Low            float64
	Close          float64
	NTicks         int64
	BaseVolume     float64
	QuoteVolume    float64
	BuyTicks       int64
	BuyVolume      float64
	SellTicks      int64
	SellVolume     float64
	SignedTickSum  int64
	SignedVolSum   float64
	FirstTradeID   uint64
	LastTradeID    uint64
}

// Side is an order/position direction.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// OrderStatus is the lifecycle state of a submitted Order.
type OrderStatus string

const (
	OrderPending  OrderStatus = "PENDING"
	OrderFilled   OrderStatus = "FILLED"
	OrderRejected OrderStatus = "REJECTED"
)

// OrderType is always MARKET in this system; the field exists for
// forward compatibility with the wire format described in spec §6.
type OrderType string

const OrderMarket OrderType = "MARKET"

// Order is created PENDING by a Strategy and transitioned by the
// Portfolio. OrderID is assigned by the Portfolio on submission.
type Order struct {
	OrderID       uint64
	ClientOrderID string // UUID, assigned on Submit; carried onto the closing TradeRecord for audit
	Symbol        string
	Volume        float64 // quote-currency notional
	Direction     Side
	OrderType     OrderType
	OrderTime     int64
	StrategyName  string
	Status        OrderStatus
	EntryPrice    float64 // hint; actual fill is at the close of the bar passed to the Portfolio.Update that follows submission
	TakeProfit    float64
	StopLoss      float64
}

// Position is opened when an Order fills and closed into a Trade record
// when TP or SL crosses.
type Position struct {
	OrderID       uint64
	ClientOrderID string
	Symbol        string
	Volume        float64 // notional * leverage
	Direction     Side
	EntryTime     int64
	EntryPrice    float64
	Leverage      float64
	UnrealizedPnL float64
	RealizedPnL   float64
	TakeProfit    float64
	StopLoss      float64
}

// ClosedBy records which exit condition closed a Position.
type ClosedBy string

const (
	ClosedByTP ClosedBy = "TP"
	ClosedBySL ClosedBy = "SL"
)

// TradeRecord is appended once when a Position closes; immutable thereafter.
type TradeRecord struct {
	OrderID       uint64
	ClientOrderID string
	Symbol        string
	PnL           float64
	Volume        float64
	Direction     Side
	EntryPrice    float64
	EntryTime     int64
	ExitTime      int64
	StopLoss      float64
	BreakEven     float64
	TakeProfit    float64
	ClosedBy      ClosedBy
	Commissions   float64
}

// EquitySample is one (timestamp, equity) point on a per-symbol or
// portfolio-aggregate ("General") equity curve.
type EquitySample struct {
	TimestampMs int64
	Equity      float64
}

// GeneralSymbol is the key equity_history uses for the portfolio aggregate.
const GeneralSymbol = "General"

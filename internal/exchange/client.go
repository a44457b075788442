// Package exchange implements the Exchange Fetcher external collaborator:
// recent_trades, historical_trades, and klines over plain REST (no SDK,
// following the teacher's binance_broker.go direct-HTTP style), wrapped
// in the retry-with-fixed-backoff loop of §4.2/§7.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/chidi150c/microbar/internal/model"
	"github.com/chidi150c/microbar/internal/obs"
)

// Client is a stdlib-only REST client against a Binance-shaped public API
// surface, matching the wire formats of spec.md §6.
type Client struct {
	baseURL    string
	hc         *http.Client
	maxRetries int
	retryDelay time.Duration
	log        zerolog.Logger
}

// New builds a Client. baseURL has no trailing slash requirement.
func New(baseURL string, maxRetries int, retryDelay time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		hc:         &http.Client{Timeout: 10 * time.Second},
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		log:        log,
	}
}

// isTransient reports whether err looks like a transient network/timeout
// failure worth retrying, versus a non-transient error (bad request, 4xx)
// that should propagate immediately per §7.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	type timeout interface{ Timeout() bool }
	if te, ok := err.(timeout); ok {
		return te.Timeout()
	}
	msg := err.Error()
	return strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "connection refused")
}

// fetchWithRetry wraps one remote call with the fixed-backoff retry loop
// of §4.2/§7: on transient errors, sleep retryDelay and retry up to
// maxRetries; on exhaustion, or on a non-transient error, surface
// ErrFetchFailed (wrapped) or the original error respectively.
func (c *Client) fetchWithRetry(ctx context.Context, kind string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			obs.IngestFetches.WithLabelValues(kind, "ok").Inc()
			return nil
		}
		if !isTransient(lastErr) {
			obs.IngestFetches.WithLabelValues(kind, "nontransient").Inc()
			return lastErr
		}
		obs.IngestFetches.WithLabelValues(kind, "retry").Inc()
		c.log.Warn().Err(lastErr).Int("attempt", attempt).Str("kind", kind).Msg("transient fetch error, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
	obs.IngestFetches.WithLabelValues(kind, "failed").Inc()
	return fmt.Errorf("%w: %s exhausted %d retries: %v", model.ErrFetchFailed, kind, c.maxRetries, lastErr)
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if q != nil {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("exchange %s: server error %d", path, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: exchange %s: status %d", model.ErrBadInput, path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// rawTrade mirrors the exchange's trade wire dict of §6:
// {id, price, qty, quoteQty, time, isBuyerMaker, isBestMatch}.
type rawTrade struct {
	ID           uint64 `json:"id"`
	Price        string `json:"price"`
	Qty          string `json:"qty"`
	QuoteQty     string `json:"quoteQty"`
	Time         int64  `json:"time"`
	IsBuyerMaker bool   `json:"isBuyerMaker"`
	IsBestMatch  bool   `json:"isBestMatch"`
}

func (r rawTrade) toTrade() model.Trade {
	return model.Trade{
		ID:           r.ID,
		Price:        parseFloat(r.Price),
		Qty:          parseFloat(r.Qty),
		QuoteQty:     parseFloat(r.QuoteQty),
		TimeMs:       r.Time,
		IsBuyerMaker: r.IsBuyerMaker,
		IsBestMatch:  r.IsBestMatch,
	}
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// RecentTrades returns the most recent `limit` trades, descending by id.
func (c *Client) RecentTrades(ctx context.Context, symbol string, limit int) ([]model.Trade, error) {
	var raw []rawTrade
	err := c.fetchWithRetry(ctx, "trades", func() error {
		q := url.Values{"symbol": {symbol}, "limit": {strconv.Itoa(limit)}}
		return c.getJSON(ctx, "/api/v3/trades", q, &raw)
	})
	if err != nil {
		return nil, err
	}
	out := make([]model.Trade, len(raw))
	for i, r := range raw {
		out[i] = r.toTrade()
	}
	return out, nil
}

// HistoricalTrades returns up to `limit` trades starting at fromID inclusive.
func (c *Client) HistoricalTrades(ctx context.Context, symbol string, fromID uint64, limit int) ([]model.Trade, error) {
	var raw []rawTrade
	err := c.fetchWithRetry(ctx, "trades", func() error {
		q := url.Values{"symbol": {symbol}, "fromId": {strconv.FormatUint(fromID, 10)}, "limit": {strconv.Itoa(limit)}}
		return c.getJSON(ctx, "/api/v3/historicalTrades", q, &raw)
	})
	if err != nil {
		return nil, err
	}
	out := make([]model.Trade, len(raw))
	for i, r := range raw {
		out[i] = r.toTrade()
	}
	return out, nil
}

// Klines returns klines in the canonical exchange order: 12-element
// arrays decoded into model.Kline.
func (c *Client) Klines(ctx context.Context, symbol string, interval model.Timeframe, startMs, endMs int64, limit int) ([]model.Kline, error) {
	var raw [][]any
	err := c.fetchWithRetry(ctx, "klines", func() error {
		q := url.Values{
			"symbol":    {symbol},
			"interval":  {string(interval)},
			"startTime": {strconv.FormatInt(startMs, 10)},
			"endTime":   {strconv.FormatInt(endMs, 10)},
			"limit":     {strconv.Itoa(limit)},
		}
		return c.getJSON(ctx, "/api/v3/klines", q, &raw)
	})
	if err != nil {
		return nil, err
	}
	out := make([]model.Kline, 0, len(raw))
	for _, row := range raw {
		k, err := decodeKline(row)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

func decodeKline(row []any) (model.Kline, error) {
	if len(row) < 11 {
		return model.Kline{}, fmt.Errorf("%w: kline row has %d elements, want 12", model.ErrBadInput, len(row))
	}
	f := func(i int) float64 {
		switch v := row[i].(type) {
		case string:
			return parseFloat(v)
		case float64:
			return v
		default:
			return 0
		}
	}
	i := func(i int) int64 {
		switch v := row[i].(type) {
		case float64:
			return int64(v)
		case string:
			n, _ := strconv.ParseInt(v, 10, 64)
			return n
		default:
			return 0
		}
	}
	ignore := ""
	if len(row) > 11 {
		if s, ok := row[11].(string); ok {
			ignore = s
		}
	}
	return model.Kline{
		OpenTimeMs:       i(0),
		Open:             f(1),
		High:             f(2),
		Low:              f(3),
		Close:            f(4),
		Volume:           f(5),
		CloseTimeMs:      i(6),
		QuoteAssetVolume: f(7),
		NumTrades:        i(8),
		TakerBuyBase:     f(9),
		TakerBuyQuote:    f(10),
		Ignore:           ignore,
	}, nil
}

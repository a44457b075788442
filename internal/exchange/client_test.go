package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/chidi150c/microbar/internal/model"
)

func TestHistoricalTrades_DecodesWireFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v3/historicalTrades", r.URL.Path)
		w.Write([]byte(`[{"id":1,"price":"100.5","qty":"2.0","quoteQty":"201.0","time":1000,"isBuyerMaker":false,"isBestMatch":true}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, 3, time.Millisecond, zerolog.Nop())
	out, err := c.HistoricalTrades(context.Background(), "BTCUSDT", 1, 10)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, uint64(1), out[0].ID)
	require.InDelta(t, 100.5, out[0].Price, 1e-9)
	require.Equal(t, 1.0, out[0].Sign())
}

func TestKlines_DecodesCanonicalRowOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[1000,"100.0","110.0","95.0","105.0","50.0",1059999,"5250.0",10,"25.0","2625.0","0"]]`))
	}))
	defer srv.Close()

	c := New(srv.URL, 3, time.Millisecond, zerolog.Nop())
	out, err := c.Klines(context.Background(), "BTCUSDT", model.TF1m, 1000, 2000, 10)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, int64(1000), out[0].OpenTimeMs)
	require.InDelta(t, 105.0, out[0].Close, 1e-9)
}

func TestFetchWithRetry_NonTransientDoesNotRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(srv.URL, 3, time.Millisecond, zerolog.Nop())
	_, err := c.RecentTrades(context.Background(), "BTCUSDT", 10)
	require.Error(t, err)
	require.ErrorIs(t, err, model.ErrBadInput)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

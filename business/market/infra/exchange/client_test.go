package exchange

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossarb/business/market/domain"
	"crossarb/internal/apperror"
)

func newTestServer(t *testing.T, markets []string, tickers map[string]tickerResponse) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var infoCalls atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc(marketsEndpoint, func(w http.ResponseWriter, r *http.Request) {
		infoCalls.Add(1)
		var resp marketsResponse
		for _, m := range markets {
			resp.Symbols = append(resp.Symbols, struct {
				Symbol string `json:"symbol"`
				Status string `json:"status"`
			}{Symbol: m, Status: "TRADING"})
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc(tickerEndpoint, func(w http.ResponseWriter, r *http.Request) {
		sym := r.URL.Query().Get("symbol")
		tick, ok := tickers[sym]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(tick)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &infoCalls
}

func newTestClient(t *testing.T, name, baseURL string) *Client {
	t.Helper()
	c, err := New(domain.VenueConfig{
		Name:   name,
		Kind:   domain.VenueKindExchange,
		Active: true,
		Params: map[string]string{"base_url": baseURL},
	}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return c
}

func TestClient_QuoteParsesTicker(t *testing.T) {
	srv, _ := newTestServer(t,
		[]string{"ETHUSDT"},
		map[string]tickerResponse{
			"ETHUSDT": {
				Symbol:    "ETHUSDT",
				BidPrice:  "3400.50",
				AskPrice:  "3401.25",
				LastPrice: "3400.75",
				Volume:    "1234.5",
				CloseTime: 1700000000000,
			},
		})

	c := newTestClient(t, "binance", srv.URL)
	inst := domain.Instrument{Base: "ETH", Quote: "USDT"}

	q, err := c.Quote(context.Background(), inst)
	require.NoError(t, err)

	assert.Equal(t, "binance", q.Venue)
	assert.Equal(t, inst, q.Instrument)
	assert.Equal(t, "3400.5", q.Bid.String())
	assert.Equal(t, "3401.25", q.Ask.String())
	assert.Equal(t, "3400.75", q.Last.String())
	assert.Equal(t, "1234.5", q.Volume.String())
	assert.False(t, q.ObservedAt.IsZero())
}

func TestClient_MarketsLoadedOnce(t *testing.T) {
	srv, infoCalls := newTestServer(t,
		[]string{"ETHUSDT"},
		map[string]tickerResponse{
			"ETHUSDT": {BidPrice: "100", AskPrice: "101", LastPrice: "100.5", Volume: "1"},
		})

	c := newTestClient(t, "binance", srv.URL)
	inst := domain.Instrument{Base: "ETH", Quote: "USDT"}

	for i := 0; i < 3; i++ {
		_, err := c.Quote(context.Background(), inst)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), infoCalls.Load())
}

func TestClient_UnsupportedInstrumentIsVenueInit(t *testing.T) {
	srv, _ := newTestServer(t, []string{"ETHUSDT"}, nil)

	c := newTestClient(t, "binance", srv.URL)
	_, err := c.Quote(context.Background(), domain.Instrument{Base: "DOGE", Quote: "USDT"})
	assert.True(t, apperror.IsCode(err, apperror.CodeVenueInit))
}

func TestClient_TickerFailureIsVenueCall(t *testing.T) {
	srv, _ := newTestServer(t, []string{"ETHUSDT"}, nil) // no tickers -> 400

	c := newTestClient(t, "binance", srv.URL)
	_, err := c.Quote(context.Background(), domain.Instrument{Base: "ETH", Quote: "USDT"})
	assert.True(t, apperror.IsCode(err, apperror.CodeVenueCall))
}

func TestMarketSymbol(t *testing.T) {
	assert.Equal(t, "BTCUSDT", marketSymbol(domain.Instrument{Base: "BTC", Quote: "USDT"}))
}

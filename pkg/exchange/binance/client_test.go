package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binance-fapi/pkg/transport"
)

const (
	testKey    = "vmPUZE6mv9SD5VNHk4HlWFsOr6aKE2zvsw0MuIgwCIPy6utIco14y7Ju91duEh8A"
	testSecret = "NhqPtmdSJYdKjVHjA7PZj4Mge3R5YNiP1e3UZjInClVN65XAbvqqM6A7H5fATj0j"
)

var fixedNow = time.UnixMilli(1499827319559)

// fakeExchange routes "METHOD /path" to canned handlers and counts hits.
type fakeExchange struct {
	t      *testing.T
	mu     sync.RWMutex
	routes map[string]http.HandlerFunc
	hits   atomic.Int64
}

func newFakeExchange(t *testing.T) (*fakeExchange, *httptest.Server) {
	t.Helper()
	fx := &fakeExchange{t: t, routes: map[string]http.HandlerFunc{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fx.hits.Add(1)
		fx.mu.RLock()
		h, ok := fx.routes[r.Method+" "+r.URL.Path]
		fx.mu.RUnlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"code":-1,"msg":"no route"}`)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return fx, srv
}

func (fx *fakeExchange) handle(method, path string, h http.HandlerFunc) {
	fx.mu.Lock()
	defer fx.mu.Unlock()
	fx.routes[method+" "+path] = h
}

func (fx *fakeExchange) json(method, path, body string) {
	fx.handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	})
}

func newPublicClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(WithBaseURL(srv.URL), WithLogger(transport.NopLogger()))
	require.NoError(t, err)
	return c
}

func newSignedClient(t *testing.T, srv *httptest.Server, opts ...ClientOption) *Client {
	t.Helper()
	base := []ClientOption{
		WithBaseURL(srv.URL),
		WithLogger(transport.NopLogger()),
		WithClock(func() time.Time { return fixedNow }),
	}
	c, err := NewWithCredentials(testKey, testSecret, append(base, opts...)...)
	require.NoError(t, err)
	return c
}

// signedPayload returns the raw signed string of r and asserts the signature
// is the HMAC of everything before it.
func signedPayload(t *testing.T, r *http.Request) string {
	t.Helper()
	raw := r.URL.RawQuery
	if r.Method == http.MethodPost || r.Method == http.MethodPut {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		raw = string(body)
	}
	idx := strings.LastIndex(raw, "&signature=")
	require.GreaterOrEqual(t, idx, 0, "signature missing from %q", raw)
	payload, sig := raw[:idx], raw[idx+len("&signature="):]

	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(payload))
	require.Equal(t, hex.EncodeToString(mac.Sum(nil)), sig)
	require.Equal(t, testKey, r.Header.Get(transport.APIKeyHeader))
	return payload
}

func TestNew_DefaultsAndTestnet(t *testing.T) {
	c, err := New(WithLogger(transport.NopLogger()))
	require.NoError(t, err)
	assert.Equal(t, mainnetBaseURL, c.Transport().BaseURL())
	assert.Equal(t, mainnetStreamURL, c.StreamURL())
	assert.False(t, c.Transport().Authenticated())

	c, err = New(WithTestnet(true), WithLogger(transport.NopLogger()))
	require.NoError(t, err)
	assert.Equal(t, testnetBaseURL, c.Transport().BaseURL())
	assert.Equal(t, testnetStreamURL, c.StreamURL())

	c, err = New(WithTestnet(true), WithBaseURL("http://localhost:9"), WithStreamURL("ws://localhost:9/"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9", c.Transport().BaseURL())
	assert.Equal(t, "ws://localhost:9", c.StreamURL())
}

func TestNew_RejectsBadInput(t *testing.T) {
	_, err := New(WithBaseURL("ftp://example.com"))
	require.ErrorIs(t, err, transport.ErrConfiguration)

	_, err = NewWithCredentials("", testSecret)
	require.ErrorIs(t, err, transport.ErrConfiguration)
}

func TestPingAndServerTime(t *testing.T) {
	fx, srv := newFakeExchange(t)
	fx.json(http.MethodGet, "/fapi/v1/ping", `{}`)
	fx.json(http.MethodGet, "/fapi/v1/time", `{"serverTime":1499827319559}`)
	c := newPublicClient(t, srv)

	require.NoError(t, c.Ping(context.Background()))
	ts, err := c.ServerTime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1499827319559), ts.UnixMilli())
}

func TestServerTime_MissingField(t *testing.T) {
	fx, srv := newFakeExchange(t)
	fx.json(http.MethodGet, "/fapi/v1/time", `{"time":1}`)
	c := newPublicClient(t, srv)

	_, err := c.ServerTime(context.Background())
	var decErr *transport.DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Contains(t, string(decErr.Body), `"time":1`)
}

func TestExchangeInfo(t *testing.T) {
	fx, srv := newFakeExchange(t)
	fx.json(http.MethodGet, "/fapi/v1/exchangeInfo", `{
		"timezone":"UTC","serverTime":1565246363776,
		"rateLimits":[{"rateLimitType":"REQUEST_WEIGHT","interval":"MINUTE","intervalNum":1,"limit":2400}],
		"symbols":[{"symbol":"BTCUSDT","pair":"BTCUSDT","contractType":"PERPETUAL","status":"TRADING",
			"baseAsset":"BTC","quoteAsset":"USDT","marginAsset":"USDT","pricePrecision":2,"quantityPrecision":3,
			"orderTypes":["LIMIT","MARKET"],"timeInForce":["GTC","IOC"],
			"filters":[{"filterType":"PRICE_FILTER","tickSize":"0.10"}]}]}`)
	c := newPublicClient(t, srv)

	info, err := c.ExchangeInfo(context.Background())
	require.NoError(t, err)
	require.Len(t, info.RateLimits, 1)
	assert.Equal(t, 2400, info.RateLimits[0].Limit)

	sym, ok := info.Symbol("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, "USDT", sym.MarginAsset)
	assert.Equal(t, []OrderType{OrderTypeLimit, OrderTypeMarket}, sym.OrderTypes)
	_, ok = info.Symbol("ETHUSDT")
	assert.False(t, ok)
}

func TestDepth(t *testing.T) {
	fx, srv := newFakeExchange(t)
	fx.handle(http.MethodGet, "/fapi/v1/depth", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "symbol=BTCUSDT&limit=5", r.URL.RawQuery)
		assert.Empty(t, r.Header.Get(transport.APIKeyHeader))
		_, _ = io.WriteString(w, `{"lastUpdateId":1027024,"E":1589436922972,"T":1589436922959,
			"bids":[["4.00000000","431.00000000"]],"asks":[["4.00000200","12.00000000"]]}`)
	})
	c := newPublicClient(t, srv)

	book, err := c.Depth(context.Background(), "BTCUSDT", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1027024), book.LastUpdateID)
	require.Len(t, book.Bids, 1)
	assert.True(t, book.Bids[0].Price.Equal(decimal.RequireFromString("4")))
	assert.True(t, book.Asks[0].Quantity.Equal(decimal.RequireFromString("12")))
}

func TestDepth_InvalidArgumentsNeverSent(t *testing.T) {
	fx, srv := newFakeExchange(t)
	c := newPublicClient(t, srv)

	_, err := c.Depth(context.Background(), "", 5)
	require.ErrorIs(t, err, transport.ErrInvalidParams)
	_, err = c.Depth(context.Background(), "BTCUSDT", 7)
	require.ErrorIs(t, err, transport.ErrInvalidParams)
	assert.Zero(t, fx.hits.Load())
}

func TestKlines(t *testing.T) {
	fx, srv := newFakeExchange(t)
	start := time.UnixMilli(1499040000000)
	fx.handle(http.MethodGet, "/fapi/v1/klines", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "symbol=BTCUSDT&interval=1m&startTime=1499040000000&limit=2", r.URL.RawQuery)
		_, _ = io.WriteString(w, `[[1499040000000,"0.01634790","0.80000000","0.01575800","0.01577100","148976.11427815",
			1499644799999,"2434.19055334",308,"1756.87402397","28.46694368","0"]]`)
	})
	c := newPublicClient(t, srv)

	klines, err := c.Klines(context.Background(), KlinesRequest{Symbol: "BTCUSDT", Interval: "1m", StartTime: &start, Limit: 2})
	require.NoError(t, err)
	require.Len(t, klines, 1)
	k := klines[0]
	assert.Equal(t, start.UnixMilli(), k.OpenTime.UnixMilli())
	assert.Equal(t, int64(1499644799999), k.CloseTime.UnixMilli())
	assert.Equal(t, "0.80000000", k.High.StringFixed(8))
	assert.Equal(t, int64(308), k.NumberOfTrades)
}

func TestKlines_ShortRowIsDecodeError(t *testing.T) {
	fx, srv := newFakeExchange(t)
	fx.json(http.MethodGet, "/fapi/v1/klines", `[[1499040000000,"1"]]`)
	c := newPublicClient(t, srv)

	_, err := c.Klines(context.Background(), KlinesRequest{Symbol: "BTCUSDT", Interval: "1m"})
	var decErr *transport.DecodeError
	require.ErrorAs(t, err, &decErr)
}

func TestBookTicker(t *testing.T) {
	fx, srv := newFakeExchange(t)
	fx.handle(http.MethodGet, "/fapi/v1/ticker/bookTicker", func(w http.ResponseWriter, r *http.Request) {
		q, err := url.ParseQuery(r.URL.RawQuery)
		require.NoError(t, err)
		assert.Equal(t, "ETHUSDT", q.Get("symbol"))
		_, _ = io.WriteString(w, `{"symbol":"ETHUSDT","bidPrice":"1800.10","bidQty":"3","askPrice":"1800.20","askQty":"4","time":1}`)
	})
	c := newPublicClient(t, srv)

	tk, err := c.BookTicker(context.Background(), "ETHUSDT")
	require.NoError(t, err)
	assert.Equal(t, "1800.2", tk.AskPrice.String())
}

func TestExchangeErrorIsWrapped(t *testing.T) {
	fx, srv := newFakeExchange(t)
	fx.handle(http.MethodGet, "/fapi/v1/depth", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"code":-1121,"msg":"Invalid symbol."}`)
	})
	c := newPublicClient(t, srv)

	_, err := c.Depth(context.Background(), "NOPE", 0)
	var exErr *transport.ExchangeError
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, transport.CodeInvalidSymbol, exErr.Code)
	assert.Equal(t, "Invalid symbol.", exErr.Message)
	assert.False(t, transport.IsRetryable(err))
	assert.Contains(t, err.Error(), "binance: depth NOPE")
}

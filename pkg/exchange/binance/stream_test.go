package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binance-fapi/pkg/transport"
)

// newStreamServer upgrades every connection, records the request URI and
// writes msgs in order. It then holds the connection open until the client
// leaves.
func newStreamServer(t *testing.T, msgs ...string) (*httptest.Server, <-chan string) {
	t.Helper()
	uris := make(chan string, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		uris <- r.URL.RequestURI()
		for _, m := range msgs {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, uris
}

func newStreamClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(
		WithBaseURL(srv.URL),
		WithStreamURL("ws"+strings.TrimPrefix(srv.URL, "http")),
		WithLogger(transport.NopLogger()),
	)
	require.NoError(t, err)
	return c
}

func TestDialMarketStream_CombinedDepth(t *testing.T) {
	srv, uris := newStreamServer(t,
		`{"stream":"btcusdt@depth@100ms","data":{"e":"depthUpdate","E":123456789,"T":123456788,"s":"BTCUSDT",
			"U":157,"u":160,"pu":149,"b":[["0.0024","10"]],"a":[["0.0026","100"]]}}`,
		`{"stream":"btcusdt@markPrice","data":{"e":"markPriceUpdate","E":1,"s":"BTCUSDT","p":"11794.15"}}`,
	)
	c := newStreamClient(t, srv)
	ctx := context.Background()

	stream, err := c.DialMarketStream(ctx, "btcusdt@depth@100ms", "btcusdt@markPrice")
	require.NoError(t, err)
	defer stream.Close()
	assert.Equal(t, "/stream?streams=btcusdt@depth@100ms/btcusdt@markPrice", <-uris)

	ev, err := stream.Next(ctx)
	require.NoError(t, err)
	depth, ok := ev.(DepthUpdateEvent)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, "btcusdt@depth@100ms", depth.Stream)
	assert.Equal(t, int64(160), depth.FinalUpdateID)
	assert.Equal(t, int64(149), depth.PrevUpdateID)
	require.Len(t, depth.Bids, 1)
	assert.Equal(t, "0.0024", depth.Bids[0].Price.String())

	ev, err = stream.Next(ctx)
	require.NoError(t, err)
	raw, ok := ev.(RawEvent)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, "markPriceUpdate", raw.EventType())
	assert.Equal(t, "btcusdt@markPrice", raw.Stream)
	assert.Contains(t, string(raw.Data), "11794.15")
}

func TestDialUserStream_Events(t *testing.T) {
	srv, uris := newStreamServer(t,
		`{"e":"ORDER_TRADE_UPDATE","E":1568879465651,"T":1568879465650,"o":{"s":"BTCUSDT","c":"TEST","S":"SELL",
			"o":"TRAILING_STOP_MARKET","f":"GTC","q":"0.001","p":"0","ap":"0","sp":"7103.04","x":"NEW","X":"NEW",
			"i":8886774,"l":"0","z":"0","L":"0","N":"USDT","n":"0","T":1568879465651,"t":0,"m":false,"R":false,
			"wt":"CONTRACT_PRICE","ot":"TRAILING_STOP_MARKET","ps":"LONG","cp":false,"rp":"0"}}`,
		`{"e":"ACCOUNT_UPDATE","E":1564745798939,"T":1564745798938,"a":{"m":"ORDER",
			"B":[{"a":"USDT","wb":"122624.12345678","cw":"100.12345678"}],
			"P":[{"s":"BTCUSDT","pa":"0","ep":"0.00000","cr":"200","up":"0","mt":"isolated","iw":"0.00000000","ps":"BOTH"}]}}`,
		`{"e":"listenKeyExpired","E":1576653824250}`,
	)
	c := newStreamClient(t, srv)
	ctx := context.Background()

	stream, err := c.DialUserStream(ctx, "listen-key-1")
	require.NoError(t, err)
	defer stream.Close()
	assert.Equal(t, "/ws/listen-key-1", <-uris)

	ev, err := stream.Next(ctx)
	require.NoError(t, err)
	order, ok := ev.(OrderTradeUpdateEvent)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, int64(8886774), order.Order.OrderID)
	assert.Equal(t, OrderTypeTrailingStopMarket, order.Order.Type)
	assert.Equal(t, SideSell, order.Order.Side)
	assert.Equal(t, OrderStatusNew, order.Order.Status)
	assert.Equal(t, int64(1568879465651), order.EventTime)

	ev, err = stream.Next(ctx)
	require.NoError(t, err)
	acct, ok := ev.(AccountUpdateEvent)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, "ORDER", acct.Update.Reason)
	require.Len(t, acct.Update.Balances, 1)
	assert.Equal(t, "100.12345678", acct.Update.Balances[0].CrossWalletBalance.String())

	ev, err = stream.Next(ctx)
	require.NoError(t, err)
	assert.IsType(t, ListenKeyExpiredEvent{}, ev)
}

func TestStreamNext_ContextCancelUnblocks(t *testing.T) {
	srv, _ := newStreamServer(t)
	c := newStreamClient(t, srv)

	stream, err := c.DialUserStream(context.Background(), "quiet")
	require.NoError(t, err)
	defer stream.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err = stream.Next(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestDial_ArgumentChecks(t *testing.T) {
	c, err := New(WithLogger(transport.NopLogger()))
	require.NoError(t, err)

	_, err = c.DialUserStream(context.Background(), " ")
	require.Error(t, err)
	_, err = c.DialMarketStream(context.Background())
	require.Error(t, err)
}

func TestDecodeEvent_Malformed(t *testing.T) {
	_, err := decodeEvent([]byte(`not json`))
	require.Error(t, err)

	_, err = decodeEvent([]byte(`{"e":"depthUpdate","b":"oops"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "depthUpdate")

	ev, err := decodeEvent([]byte(`{"result":null,"id":1}`))
	require.NoError(t, err)
	assert.Equal(t, "", ev.EventType())
}

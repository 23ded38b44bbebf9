package binance

import (
	"context"
	"io"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binance-fapi/pkg/transport"
)

func TestUserStreamLifecycle(t *testing.T) {
	fx, srv := newFakeExchange(t)
	unsigned := func(r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Empty(t, string(body))
		assert.Empty(t, r.URL.RawQuery)
		assert.Equal(t, testKey, r.Header.Get(transport.APIKeyHeader))
	}
	var (
		mu   sync.Mutex
		seen []string
	)
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		method := method
		fx.handle(method, "/fapi/v1/listenKey", func(w http.ResponseWriter, r *http.Request) {
			unsigned(r)
			mu.Lock()
			seen = append(seen, method)
			mu.Unlock()
			if method == http.MethodPost {
				_, _ = io.WriteString(w, `{"listenKey":"pqia91ma19a5s61cv6a81va65sdf19v8a65a1a5s61cv6a81va65sdf19v8a65a1"}`)
				return
			}
			_, _ = io.WriteString(w, `{}`)
		})
	}
	c := newSignedClient(t, srv)
	ctx := context.Background()

	key, err := c.StartUserStream(ctx)
	require.NoError(t, err)
	assert.Len(t, key, 64)
	require.NoError(t, c.KeepAliveUserStream(ctx))
	require.NoError(t, c.CloseUserStream(ctx))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{http.MethodPost, http.MethodPut, http.MethodDelete}, seen)
}

func TestStartUserStream_MissingKey(t *testing.T) {
	fx, srv := newFakeExchange(t)
	fx.json(http.MethodPost, "/fapi/v1/listenKey", `{}`)
	c := newSignedClient(t, srv)

	_, err := c.StartUserStream(context.Background())
	var decErr *transport.DecodeError
	require.ErrorAs(t, err, &decErr)
}

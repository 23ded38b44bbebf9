package binance

import (
	"context"
	"fmt"
	"net/http"

	"binance-fapi/pkg/transport"
)

var (
	startUserStreamEndpoint     = transport.Endpoint[ListenKey]{Method: http.MethodPost, Path: "/fapi/v1/listenKey", Security: transport.APIKey}
	keepAliveUserStreamEndpoint = transport.Endpoint[transport.Empty]{Method: http.MethodPut, Path: "/fapi/v1/listenKey", Security: transport.APIKey}
	closeUserStreamEndpoint     = transport.Endpoint[transport.Empty]{Method: http.MethodDelete, Path: "/fapi/v1/listenKey", Security: transport.APIKey}
)

// StartUserStream opens a user data stream and returns its listen key. The key
// expires after 60 minutes without a keep-alive.
func (c *Client) StartUserStream(ctx context.Context, opts ...transport.CallOption) (string, error) {
	key, err := startUserStreamEndpoint.Call(ctx, c.transport, nil, opts...)
	if err != nil {
		return "", fmt.Errorf("binance: start user stream: %w", err)
	}
	return key.ListenKey, nil
}

// KeepAliveUserStream extends the listen key validity.
func (c *Client) KeepAliveUserStream(ctx context.Context, opts ...transport.CallOption) error {
	if _, err := keepAliveUserStreamEndpoint.Call(ctx, c.transport, nil, opts...); err != nil {
		return fmt.Errorf("binance: keep alive user stream: %w", err)
	}
	return nil
}

// CloseUserStream invalidates the listen key.
func (c *Client) CloseUserStream(ctx context.Context, opts ...transport.CallOption) error {
	if _, err := closeUserStreamEndpoint.Call(ctx, c.transport, nil, opts...); err != nil {
		return fmt.Errorf("binance: close user stream: %w", err)
	}
	return nil
}

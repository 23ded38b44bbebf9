package binance

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"binance-fapi/pkg/transport"
)

var (
	pingEndpoint         = transport.Endpoint[transport.Empty]{Method: http.MethodGet, Path: "/fapi/v1/ping", Security: transport.Public}
	serverTimeEndpoint   = transport.Endpoint[ServerTime]{Method: http.MethodGet, Path: "/fapi/v1/time", Security: transport.Public}
	exchangeInfoEndpoint = transport.Endpoint[ExchangeInfo]{Method: http.MethodGet, Path: "/fapi/v1/exchangeInfo", Security: transport.Public}
)

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context, opts ...transport.CallOption) error {
	if _, err := pingEndpoint.Call(ctx, c.transport, nil, opts...); err != nil {
		return fmt.Errorf("binance: ping: %w", err)
	}
	return nil
}

// ServerTime returns the exchange clock.
func (c *Client) ServerTime(ctx context.Context, opts ...transport.CallOption) (time.Time, error) {
	st, err := serverTimeEndpoint.Call(ctx, c.transport, nil, opts...)
	if err != nil {
		return time.Time{}, fmt.Errorf("binance: server time: %w", err)
	}
	return time.UnixMilli(st.ServerTime), nil
}

// ExchangeInfo returns trading rules and symbol metadata.
func (c *Client) ExchangeInfo(ctx context.Context, opts ...transport.CallOption) (*ExchangeInfo, error) {
	info, err := exchangeInfoEndpoint.Call(ctx, c.transport, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("binance: exchange info: %w", err)
	}
	return &info, nil
}

package binance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"binance-fapi/pkg/transport"
)

// ErrAssetNotFound is returned by Balance when the account holds no entry for
// the requested asset.
var ErrAssetNotFound = errors.New("binance: asset not found")

var (
	accountEndpoint        = transport.Endpoint[AccountInformation]{Method: http.MethodGet, Path: "/fapi/v1/account", Security: transport.Signed}
	openOrdersEndpoint     = transport.Endpoint[[]Order]{Method: http.MethodGet, Path: "/fapi/v1/openOrders", Security: transport.Signed}
	queryOrderEndpoint     = transport.Endpoint[Order]{Method: http.MethodGet, Path: "/fapi/v1/order", Security: transport.Signed}
	placeOrderEndpoint     = transport.Endpoint[OrderResponse]{Method: http.MethodPost, Path: "/fapi/v1/order", Security: transport.Signed}
	cancelOrderEndpoint    = transport.Endpoint[OrderCanceled]{Method: http.MethodDelete, Path: "/fapi/v1/order", Security: transport.Signed}
	tradeHistoryEndpoint   = transport.Endpoint[[]TradeHistory]{Method: http.MethodGet, Path: "/fapi/v1/myTrades", Security: transport.Signed}
	depositAddressEndpoint = transport.Endpoint[DepositAddressData]{Method: http.MethodGet, Path: "/wapi/v3/depositAddress.html", Security: transport.Signed}
	depositHistoryEndpoint = transport.Endpoint[DepositHistory]{Method: http.MethodGet, Path: "/wapi/v3/depositHistory.html", Security: transport.Signed}
	assetDetailEndpoint    = transport.Endpoint[AssetDetail]{Method: http.MethodGet, Path: "/wapi/v3/assetDetail.html", Security: transport.Signed}
)

// Account returns the futures account snapshot.
func (c *Client) Account(ctx context.Context, opts ...transport.CallOption) (*AccountInformation, error) {
	info, err := accountEndpoint.Call(ctx, c.transport, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("binance: account: %w", err)
	}
	return &info, nil
}

// Balance returns the margin entry for asset from the account snapshot.
func (c *Client) Balance(ctx context.Context, asset string, opts ...transport.CallOption) (*AccountAsset, error) {
	asset = strings.ToUpper(strings.TrimSpace(asset))
	if asset == "" {
		return nil, fmt.Errorf("binance: balance: %w: asset is required", transport.ErrInvalidParams)
	}
	info, err := c.Account(ctx, opts...)
	if err != nil {
		return nil, err
	}
	for i := range info.Assets {
		if info.Assets[i].Asset == asset {
			return &info.Assets[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, asset)
}

type symbolParams struct {
	Symbol string `param:"symbol,omitempty"`
}

// OpenOrders lists open orders for symbol.
func (c *Client) OpenOrders(ctx context.Context, symbol string, opts ...transport.CallOption) ([]Order, error) {
	if symbol == "" {
		return nil, fmt.Errorf("binance: open orders: %w: symbol is required", transport.ErrInvalidParams)
	}
	orders, err := openOrdersEndpoint.Call(ctx, c.transport, symbolParams{Symbol: symbol}, opts...)
	if err != nil {
		return nil, fmt.Errorf("binance: open orders %s: %w", symbol, err)
	}
	return orders, nil
}

// AllOpenOrders lists open orders across every symbol. It costs more request
// weight than OpenOrders.
func (c *Client) AllOpenOrders(ctx context.Context, opts ...transport.CallOption) ([]Order, error) {
	orders, err := openOrdersEndpoint.Call(ctx, c.transport, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("binance: open orders: %w", err)
	}
	return orders, nil
}

// OrderRef identifies an order by exchange id or client id. One of the two
// must be set.
type OrderRef struct {
	Symbol            string `param:"symbol"`
	OrderID           int64  `param:"orderId,omitempty"`
	OrigClientOrderID string `param:"origClientOrderId,omitempty"`
}

func (r OrderRef) validate() error {
	if r.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", transport.ErrInvalidParams)
	}
	if r.OrderID == 0 && r.OrigClientOrderID == "" {
		return fmt.Errorf("%w: orderId or origClientOrderId is required", transport.ErrInvalidParams)
	}
	return nil
}

// OrderStatus queries a single order.
func (c *Client) OrderStatus(ctx context.Context, ref OrderRef, opts ...transport.CallOption) (*Order, error) {
	if err := ref.validate(); err != nil {
		return nil, fmt.Errorf("binance: order status: %w", err)
	}
	order, err := queryOrderEndpoint.Call(ctx, c.transport, ref, opts...)
	if err != nil {
		return nil, fmt.Errorf("binance: order status %s: %w", ref.Symbol, err)
	}
	return &order, nil
}

// SubmitOrder signs and sends a new order without waiting for the answer.
// A non-nil error means the order was not sent.
func (c *Client) SubmitOrder(ctx context.Context, req OrderRequest, opts ...transport.CallOption) (*transport.Future[OrderResponse], error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("binance: place order: %w: %v", transport.ErrInvalidParams, err)
	}
	future, err := placeOrderEndpoint.Submit(ctx, c.transport, req, opts...)
	if err != nil {
		return nil, fmt.Errorf("binance: place order: %w", err)
	}
	return future, nil
}

// PlaceOrder sends a new order and waits for the acknowledgement. It is never
// retried here; an ambiguous TransportError should be resolved by querying
// the order by client id.
func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest, opts ...transport.CallOption) (*OrderResponse, error) {
	future, err := c.SubmitOrder(ctx, req, opts...)
	if err != nil {
		return nil, err
	}
	resp, err := future.Await(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance: place order %s: %w", req.Symbol, err)
	}
	return &resp, nil
}

// CancelOrder cancels an open order.
func (c *Client) CancelOrder(ctx context.Context, ref OrderRef, opts ...transport.CallOption) (*OrderCanceled, error) {
	if err := ref.validate(); err != nil {
		return nil, fmt.Errorf("binance: cancel order: %w", err)
	}
	order, err := cancelOrderEndpoint.Call(ctx, c.transport, ref, opts...)
	if err != nil {
		return nil, fmt.Errorf("binance: cancel order %s: %w", ref.Symbol, err)
	}
	return &order, nil
}

// TradeHistoryRequest filters /fapi/v1/myTrades.
type TradeHistoryRequest struct {
	Symbol    string     `param:"symbol"`
	StartTime *time.Time `param:"startTime"`
	EndTime   *time.Time `param:"endTime"`
	FromID    int64      `param:"fromId,omitempty"`
	Limit     int        `param:"limit,omitempty"`
}

// TradeHistory returns account fills for a symbol.
func (c *Client) TradeHistory(ctx context.Context, req TradeHistoryRequest, opts ...transport.CallOption) ([]TradeHistory, error) {
	if req.Symbol == "" {
		return nil, fmt.Errorf("binance: trade history: %w: symbol is required", transport.ErrInvalidParams)
	}
	trades, err := tradeHistoryEndpoint.Call(ctx, c.transport, req, opts...)
	if err != nil {
		return nil, fmt.Errorf("binance: trade history %s: %w", req.Symbol, err)
	}
	return trades, nil
}

type assetParams struct {
	Asset     string     `param:"asset,omitempty"`
	StartTime *time.Time `param:"startTime"`
	EndTime   *time.Time `param:"endTime"`
}

// DepositAddress returns the deposit address for asset.
func (c *Client) DepositAddress(ctx context.Context, asset string, opts ...transport.CallOption) (*DepositAddressData, error) {
	if asset == "" {
		return nil, fmt.Errorf("binance: deposit address: %w: asset is required", transport.ErrInvalidParams)
	}
	addr, err := depositAddressEndpoint.Call(ctx, c.transport, assetParams{Asset: asset}, opts...)
	if err != nil {
		return nil, fmt.Errorf("binance: deposit address %s: %w", asset, err)
	}
	return &addr, nil
}

// DepositHistory lists deposits. Empty asset and zero times are not sent.
func (c *Client) DepositHistory(ctx context.Context, asset string, start, end time.Time, opts ...transport.CallOption) (*DepositHistory, error) {
	params := assetParams{Asset: asset}
	if !start.IsZero() {
		params.StartTime = &start
	}
	if !end.IsZero() {
		params.EndTime = &end
	}
	if params.StartTime != nil && params.EndTime != nil && end.Before(start) {
		return nil, fmt.Errorf("binance: deposit history: %w: end before start", transport.ErrInvalidParams)
	}
	history, err := depositHistoryEndpoint.Call(ctx, c.transport, params, opts...)
	if err != nil {
		return nil, fmt.Errorf("binance: deposit history: %w", err)
	}
	return &history, nil
}

// AssetDetail returns deposit and withdrawal settings per asset.
func (c *Client) AssetDetail(ctx context.Context, opts ...transport.CallOption) (*AssetDetail, error) {
	detail, err := assetDetailEndpoint.Call(ctx, c.transport, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("binance: asset detail: %w", err)
	}
	return &detail, nil
}

package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"binance-fapi/pkg/transport"
)

var (
	depthEndpoint      = transport.Endpoint[Depth]{Method: http.MethodGet, Path: "/fapi/v1/depth", Security: transport.Public}
	klinesEndpoint     = transport.Endpoint[[]Kline]{Method: http.MethodGet, Path: "/fapi/v1/klines", Security: transport.Public}
	bookTickerEndpoint = transport.Endpoint[BookTicker]{Method: http.MethodGet, Path: "/fapi/v1/ticker/bookTicker", Security: transport.Public}
)

// Valid depth limits accepted by /fapi/v1/depth.
var depthLimits = map[int]struct{}{5: {}, 10: {}, 20: {}, 50: {}, 100: {}, 500: {}, 1000: {}}

type depthParams struct {
	Symbol string `param:"symbol"`
	Limit  int    `param:"limit,omitempty"`
}

// Depth returns the order book for symbol. limit 0 uses the exchange default.
func (c *Client) Depth(ctx context.Context, symbol string, limit int, opts ...transport.CallOption) (*Depth, error) {
	if symbol == "" {
		return nil, fmt.Errorf("binance: depth: %w: symbol is required", transport.ErrInvalidParams)
	}
	if _, ok := depthLimits[limit]; limit != 0 && !ok {
		return nil, fmt.Errorf("binance: depth: %w: unsupported limit %d", transport.ErrInvalidParams, limit)
	}
	book, err := depthEndpoint.Call(ctx, c.transport, depthParams{Symbol: symbol, Limit: limit}, opts...)
	if err != nil {
		return nil, fmt.Errorf("binance: depth %s: %w", symbol, err)
	}
	return &book, nil
}

// KlinesRequest selects candles for /fapi/v1/klines.
type KlinesRequest struct {
	Symbol    string     `param:"symbol"`
	Interval  string     `param:"interval"`
	StartTime *time.Time `param:"startTime"`
	EndTime   *time.Time `param:"endTime"`
	Limit     int        `param:"limit,omitempty"`
}

// Kline is one candle. The wire form is a positional array.
type Kline struct {
	OpenTime                 time.Time
	Open                     decimal.Decimal
	High                     decimal.Decimal
	Low                      decimal.Decimal
	Close                    decimal.Decimal
	Volume                   decimal.Decimal
	CloseTime                time.Time
	QuoteAssetVolume         decimal.Decimal
	NumberOfTrades           int64
	TakerBuyBaseAssetVolume  decimal.Decimal
	TakerBuyQuoteAssetVolume decimal.Decimal
}

func (k *Kline) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) < 11 {
		return fmt.Errorf("kline needs 11 entries, got %d", len(raw))
	}
	var openMs, closeMs int64
	targets := []interface{}{
		&openMs, &k.Open, &k.High, &k.Low, &k.Close, &k.Volume,
		&closeMs, &k.QuoteAssetVolume, &k.NumberOfTrades,
		&k.TakerBuyBaseAssetVolume, &k.TakerBuyQuoteAssetVolume,
	}
	for i, target := range targets {
		if err := json.Unmarshal(raw[i], target); err != nil {
			return fmt.Errorf("kline entry %d: %w", i, err)
		}
	}
	k.OpenTime = time.UnixMilli(openMs)
	k.CloseTime = time.UnixMilli(closeMs)
	return nil
}

// Klines returns candles oldest first.
func (c *Client) Klines(ctx context.Context, req KlinesRequest, opts ...transport.CallOption) ([]Kline, error) {
	if req.Symbol == "" || req.Interval == "" {
		return nil, fmt.Errorf("binance: klines: %w: symbol and interval are required", transport.ErrInvalidParams)
	}
	klines, err := klinesEndpoint.Call(ctx, c.transport, req, opts...)
	if err != nil {
		return nil, fmt.Errorf("binance: klines %s %s: %w", req.Symbol, req.Interval, err)
	}
	return klines, nil
}

// BookTicker returns the best bid and ask for symbol.
func (c *Client) BookTicker(ctx context.Context, symbol string, opts ...transport.CallOption) (*BookTicker, error) {
	if symbol == "" {
		return nil, fmt.Errorf("binance: book ticker: %w: symbol is required", transport.ErrInvalidParams)
	}
	params := transport.NewParams().Set("symbol", symbol)
	ticker, err := bookTickerEndpoint.Call(ctx, c.transport, params, opts...)
	if err != nil {
		return nil, fmt.Errorf("binance: book ticker %s: %w", symbol, err)
	}
	return &ticker, nil
}

package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// Event is a decoded stream message.
type Event interface {
	EventType() string
}

// DepthUpdateEvent is a diff book update from <symbol>@depth streams.
type DepthUpdateEvent struct {
	Stream          string       `json:"-"`
	Event           string       `json:"e"`
	EventTime       int64        `json:"E"`
	TransactionTime int64        `json:"T"`
	Symbol          string       `json:"s"`
	FirstUpdateID   int64        `json:"U"`
	FinalUpdateID   int64        `json:"u"`
	PrevUpdateID    int64        `json:"pu"`
	Bids            []PriceLevel `json:"b"`
	Asks            []PriceLevel `json:"a"`
}

func (DepthUpdateEvent) EventType() string { return "depthUpdate" }

// OrderUpdate is the order payload of ORDER_TRADE_UPDATE.
type OrderUpdate struct {
	Symbol          string          `json:"s"`
	ClientOrderID   string          `json:"c"`
	Side            Side            `json:"S"`
	Type            OrderType       `json:"o"`
	TimeInForce     TimeInForce     `json:"f"`
	OrigQty         decimal.Decimal `json:"q"`
	Price           decimal.Decimal `json:"p"`
	AvgPrice        decimal.Decimal `json:"ap"`
	StopPrice       decimal.Decimal `json:"sp"`
	ExecutionType   string          `json:"x"`
	Status          OrderStatus     `json:"X"`
	OrderID         int64           `json:"i"`
	LastFilledQty   decimal.Decimal `json:"l"`
	FilledQty       decimal.Decimal `json:"z"`
	LastFilledPrice decimal.Decimal `json:"L"`
	CommissionAsset string          `json:"N"`
	Commission      decimal.Decimal `json:"n"`
	TradeTime       int64           `json:"T"`
	TradeID         int64           `json:"t"`
	Maker           bool            `json:"m"`
	ReduceOnly      bool            `json:"R"`
	WorkingType     WorkingType     `json:"wt"`
	OrigType        OrderType       `json:"ot"`
	PositionSide    PositionSide    `json:"ps"`
	ClosePosition   bool            `json:"cp"`
	RealizedProfit  decimal.Decimal `json:"rp"`
}

// OrderTradeUpdateEvent reports an order change on the user stream.
type OrderTradeUpdateEvent struct {
	Event           string      `json:"e"`
	EventTime       int64       `json:"E"`
	TransactionTime int64       `json:"T"`
	Order           OrderUpdate `json:"o"`
}

func (OrderTradeUpdateEvent) EventType() string { return "ORDER_TRADE_UPDATE" }

// BalanceUpdate is one asset inside ACCOUNT_UPDATE.
type BalanceUpdate struct {
	Asset              string          `json:"a"`
	WalletBalance      decimal.Decimal `json:"wb"`
	CrossWalletBalance decimal.Decimal `json:"cw"`
}

// PositionUpdate is one position inside ACCOUNT_UPDATE.
type PositionUpdate struct {
	Symbol              string          `json:"s"`
	PositionAmt         decimal.Decimal `json:"pa"`
	EntryPrice          decimal.Decimal `json:"ep"`
	AccumulatedRealized decimal.Decimal `json:"cr"`
	UnrealizedPnL       decimal.Decimal `json:"up"`
	MarginType          string          `json:"mt"`
	IsolatedWallet      decimal.Decimal `json:"iw"`
	PositionSide        PositionSide    `json:"ps"`
}

// AccountUpdateEvent reports balance and position changes.
type AccountUpdateEvent struct {
	Event           string `json:"e"`
	EventTime       int64  `json:"E"`
	TransactionTime int64  `json:"T"`
	Update          struct {
		Reason    string           `json:"m"`
		Balances  []BalanceUpdate  `json:"B"`
		Positions []PositionUpdate `json:"P"`
	} `json:"a"`
}

func (AccountUpdateEvent) EventType() string { return "ACCOUNT_UPDATE" }

// ListenKeyExpiredEvent means the user stream is dead and a new listen key
// is needed.
type ListenKeyExpiredEvent struct {
	Event     string `json:"e"`
	EventTime int64  `json:"E"`
}

func (ListenKeyExpiredEvent) EventType() string { return "listenKeyExpired" }

// RawEvent carries messages with no typed decoder.
type RawEvent struct {
	Type   string
	Stream string
	Data   json.RawMessage
}

func (e RawEvent) EventType() string { return e.Type }

// Stream reads events from one WebSocket connection. It does not reconnect.
// Next must not be called concurrently.
type Stream struct {
	conn      *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

// DialUserStream connects to the user data stream for listenKey.
func (c *Client) DialUserStream(ctx context.Context, listenKey string) (*Stream, error) {
	if strings.TrimSpace(listenKey) == "" {
		return nil, errors.New("binance: dial user stream: listen key is required")
	}
	return c.dial(ctx, c.streamURL+"/ws/"+url.PathEscape(listenKey))
}

// DialMarketStream connects to a combined market stream, e.g.
// "btcusdt@depth@100ms".
func (c *Client) DialMarketStream(ctx context.Context, streams ...string) (*Stream, error) {
	if len(streams) == 0 {
		return nil, errors.New("binance: dial market stream: at least one stream is required")
	}
	return c.dial(ctx, c.streamURL+"/stream?streams="+strings.Join(streams, "/"))
}

func (c *Client) dial(ctx context.Context, target string) (*Stream, error) {
	conn, resp, err := c.dialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("binance: dial stream (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("binance: dial stream: %w", err)
	}
	return &Stream{conn: conn}, nil
}

// Next blocks until the next event. Ending ctx unblocks the read and leaves
// the stream unusable; close it afterwards.
func (s *Stream) Next(ctx context.Context) (Event, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = s.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	_, msg, err := s.conn.ReadMessage()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("binance: stream read: %w", err)
	}
	return decodeEvent(msg)
}

// Close sends a close frame and releases the connection.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		deadline := time.Now().Add(time.Second)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

func decodeEvent(msg []byte) (Event, error) {
	if !gjson.ValidBytes(msg) {
		return nil, fmt.Errorf("binance: stream: invalid json: %.128s", msg)
	}
	doc := gjson.ParseBytes(msg)
	stream := ""
	if envelope := doc.Get("data"); envelope.IsObject() && doc.Get("stream").Exists() {
		stream = doc.Get("stream").String()
		doc = envelope
	}
	data := []byte(doc.Raw)

	var (
		ev  Event
		err error
	)
	switch typ := doc.Get("e").String(); typ {
	case "depthUpdate":
		var e DepthUpdateEvent
		err = json.Unmarshal(data, &e)
		e.Stream = stream
		ev = e
	case "ORDER_TRADE_UPDATE":
		var e OrderTradeUpdateEvent
		err = json.Unmarshal(data, &e)
		ev = e
	case "ACCOUNT_UPDATE":
		var e AccountUpdateEvent
		err = json.Unmarshal(data, &e)
		ev = e
	case "listenKeyExpired":
		var e ListenKeyExpiredEvent
		err = json.Unmarshal(data, &e)
		ev = e
	default:
		ev = RawEvent{Type: typ, Stream: stream, Data: json.RawMessage(data)}
	}
	if err != nil {
		return nil, fmt.Errorf("binance: stream: decode %s: %w", ev.EventType(), err)
	}
	return ev, nil
}

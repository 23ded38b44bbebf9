package binance

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Side is the order direction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

func (s Side) String() string { return string(s) }

// PositionSide selects the leg in hedge mode.
type PositionSide string

const (
	PositionSideBoth  PositionSide = "BOTH"
	PositionSideLong  PositionSide = "LONG"
	PositionSideShort PositionSide = "SHORT"
)

func (s PositionSide) String() string { return string(s) }

// OrderType is the order kind accepted by /fapi/v1/order.
type OrderType string

const (
	OrderTypeLimit              OrderType = "LIMIT"
	OrderTypeMarket             OrderType = "MARKET"
	OrderTypeStop               OrderType = "STOP"
	OrderTypeStopMarket         OrderType = "STOP_MARKET"
	OrderTypeTakeProfit         OrderType = "TAKE_PROFIT"
	OrderTypeTakeProfitMarket   OrderType = "TAKE_PROFIT_MARKET"
	OrderTypeTrailingStopMarket OrderType = "TRAILING_STOP_MARKET"
)

func (t OrderType) String() string { return string(t) }

// OrderStatus is the lifecycle state reported by the exchange.
type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "NEW"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCanceled        OrderStatus = "CANCELED"
	OrderStatusRejected        OrderStatus = "REJECTED"
	OrderStatusExpired         OrderStatus = "EXPIRED"
)

func (s OrderStatus) String() string { return string(s) }

// Final reports whether no further fills can happen.
func (s OrderStatus) Final() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCanceled, OrderStatusRejected, OrderStatusExpired:
		return true
	}
	return false
}

// TimeInForce controls how long a limit order rests.
type TimeInForce string

const (
	TimeInForceGTC TimeInForce = "GTC"
	TimeInForceIOC TimeInForce = "IOC"
	TimeInForceFOK TimeInForce = "FOK"
	TimeInForceGTX TimeInForce = "GTX"
)

func (t TimeInForce) String() string { return string(t) }

// WorkingType picks the price that triggers stop orders.
type WorkingType string

const (
	WorkingTypeMarkPrice     WorkingType = "MARK_PRICE"
	WorkingTypeContractPrice WorkingType = "CONTRACT_PRICE"
)

func (t WorkingType) String() string { return string(t) }

// NewOrderRespType selects the verbosity of the order acknowledgement.
type NewOrderRespType string

const (
	NewOrderRespAck    NewOrderRespType = "ACK"
	NewOrderRespResult NewOrderRespType = "RESULT"
)

func (t NewOrderRespType) String() string { return string(t) }

// OrderRequest is the parameter object for PlaceOrder. Field order is the
// order the parameters are sent and signed in; nil fields are not sent.
type OrderRequest struct {
	Symbol           string           `param:"symbol"`
	Side             Side             `param:"side"`
	PositionSide     PositionSide     `param:"positionSide,omitempty"`
	Type             OrderType        `param:"type"`
	TimeInForce      TimeInForce      `param:"timeInForce,omitempty"`
	Quantity         *decimal.Decimal `param:"quantity"`
	ReduceOnly       *bool            `param:"reduceOnly"`
	Price            *decimal.Decimal `param:"price"`
	NewClientOrderID string           `param:"newClientOrderId,omitempty"`
	StopPrice        *decimal.Decimal `param:"stopPrice"`
	ClosePosition    *bool            `param:"closePosition"`
	ActivationPrice  *decimal.Decimal `param:"activationPrice"`
	CallbackRate     *decimal.Decimal `param:"callbackRate"`
	WorkingType      WorkingType      `param:"workingType,omitempty"`
	NewOrderRespType NewOrderRespType `param:"newOrderRespType,omitempty"`
}

// Validate catches requests the exchange would reject for shape alone.
func (r OrderRequest) Validate() error {
	if r.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if r.Side != SideBuy && r.Side != SideSell {
		return fmt.Errorf("side must be BUY or SELL, got %q", r.Side)
	}
	if r.Type == "" {
		return fmt.Errorf("type is required")
	}
	// Checked in wire order so the reported field is stable.
	for _, f := range []struct {
		name string
		v    *decimal.Decimal
	}{
		{"quantity", r.Quantity},
		{"price", r.Price},
		{"stopPrice", r.StopPrice},
		{"activationPrice", r.ActivationPrice},
		{"callbackRate", r.CallbackRate},
	} {
		if f.v != nil && !f.v.IsPositive() {
			return fmt.Errorf("%s must be positive, got %s", f.name, f.v)
		}
	}
	if r.Type == OrderTypeLimit {
		if r.Price == nil || r.Quantity == nil {
			return fmt.Errorf("LIMIT orders need price and quantity")
		}
		if r.TimeInForce == "" {
			return fmt.Errorf("LIMIT orders need timeInForce")
		}
	}
	return nil
}

// OrderResponse is the acknowledgement of POST /fapi/v1/order.
type OrderResponse struct {
	OrderID       int64           `json:"orderId"`
	Symbol        string          `json:"symbol"`
	Status        OrderStatus     `json:"status"`
	ClientOrderID string          `json:"clientOrderId"`
	Price         decimal.Decimal `json:"price"`
	AvgPrice      decimal.Decimal `json:"avgPrice"`
	OrigQty       decimal.Decimal `json:"origQty"`
	ExecutedQty   decimal.Decimal `json:"executedQty"`
	CumQty        decimal.Decimal `json:"cumQty"`
	CumQuote      decimal.Decimal `json:"cumQuote"`
	TimeInForce   TimeInForce     `json:"timeInForce"`
	Type          OrderType       `json:"type"`
	ReduceOnly    bool            `json:"reduceOnly"`
	ClosePosition bool            `json:"closePosition"`
	Side          Side            `json:"side"`
	PositionSide  PositionSide    `json:"positionSide"`
	StopPrice     decimal.Decimal `json:"stopPrice"`
	WorkingType   WorkingType     `json:"workingType"`
	PriceProtect  bool            `json:"priceProtect"`
	OrigType      OrderType       `json:"origType"`
	UpdateTime    int64           `json:"updateTime"`
}

func (OrderResponse) RequiredFields() []string {
	return []string{"orderId", "symbol", "status", "clientOrderId"}
}

// Order is an order record returned by query and cancel endpoints.
type Order struct {
	OrderID       int64           `json:"orderId"`
	Symbol        string          `json:"symbol"`
	Status        OrderStatus     `json:"status"`
	ClientOrderID string          `json:"clientOrderId"`
	Price         decimal.Decimal `json:"price"`
	AvgPrice      decimal.Decimal `json:"avgPrice"`
	OrigQty       decimal.Decimal `json:"origQty"`
	ExecutedQty   decimal.Decimal `json:"executedQty"`
	CumQuote      decimal.Decimal `json:"cumQuote"`
	TimeInForce   TimeInForce     `json:"timeInForce"`
	Type          OrderType       `json:"type"`
	ReduceOnly    bool            `json:"reduceOnly"`
	ClosePosition bool            `json:"closePosition"`
	Side          Side            `json:"side"`
	PositionSide  PositionSide    `json:"positionSide"`
	StopPrice     decimal.Decimal `json:"stopPrice"`
	WorkingType   WorkingType     `json:"workingType"`
	OrigType      OrderType       `json:"origType"`
	Time          int64           `json:"time"`
	UpdateTime    int64           `json:"updateTime"`
}

func (Order) RequiredFields() []string {
	return []string{"orderId", "symbol", "status"}
}

// OrderCanceled is the record returned by DELETE /fapi/v1/order.
type OrderCanceled = Order

// AccountInformation is the futures account snapshot.
type AccountInformation struct {
	FeeTier                     int               `json:"feeTier"`
	CanTrade                    bool              `json:"canTrade"`
	CanDeposit                  bool              `json:"canDeposit"`
	CanWithdraw                 bool              `json:"canWithdraw"`
	UpdateTime                  int64             `json:"updateTime"`
	TotalInitialMargin          decimal.Decimal   `json:"totalInitialMargin"`
	TotalMaintMargin            decimal.Decimal   `json:"totalMaintMargin"`
	TotalWalletBalance          decimal.Decimal   `json:"totalWalletBalance"`
	TotalUnrealizedProfit       decimal.Decimal   `json:"totalUnrealizedProfit"`
	TotalMarginBalance          decimal.Decimal   `json:"totalMarginBalance"`
	TotalPositionInitialMargin  decimal.Decimal   `json:"totalPositionInitialMargin"`
	TotalOpenOrderInitialMargin decimal.Decimal   `json:"totalOpenOrderInitialMargin"`
	AvailableBalance            decimal.Decimal   `json:"availableBalance"`
	MaxWithdrawAmount           decimal.Decimal   `json:"maxWithdrawAmount"`
	Assets                      []AccountAsset    `json:"assets"`
	Positions                   []AccountPosition `json:"positions"`
}

func (AccountInformation) RequiredFields() []string {
	return []string{"canTrade", "assets", "positions"}
}

// AccountAsset is one margin asset inside AccountInformation.
type AccountAsset struct {
	Asset                  string          `json:"asset"`
	WalletBalance          decimal.Decimal `json:"walletBalance"`
	UnrealizedProfit       decimal.Decimal `json:"unrealizedProfit"`
	MarginBalance          decimal.Decimal `json:"marginBalance"`
	MaintMargin            decimal.Decimal `json:"maintMargin"`
	InitialMargin          decimal.Decimal `json:"initialMargin"`
	PositionInitialMargin  decimal.Decimal `json:"positionInitialMargin"`
	OpenOrderInitialMargin decimal.Decimal `json:"openOrderInitialMargin"`
	AvailableBalance       decimal.Decimal `json:"availableBalance"`
	MaxWithdrawAmount      decimal.Decimal `json:"maxWithdrawAmount"`
}

// AccountPosition is one symbol position inside AccountInformation.
type AccountPosition struct {
	Symbol                 string          `json:"symbol"`
	InitialMargin          decimal.Decimal `json:"initialMargin"`
	MaintMargin            decimal.Decimal `json:"maintMargin"`
	UnrealizedProfit       decimal.Decimal `json:"unrealizedProfit"`
	PositionInitialMargin  decimal.Decimal `json:"positionInitialMargin"`
	OpenOrderInitialMargin decimal.Decimal `json:"openOrderInitialMargin"`
	Leverage               decimal.Decimal `json:"leverage"`
	Isolated               bool            `json:"isolated"`
	EntryPrice             decimal.Decimal `json:"entryPrice"`
	MaxNotional            decimal.Decimal `json:"maxNotional"`
	PositionSide           PositionSide    `json:"positionSide"`
	PositionAmt            decimal.Decimal `json:"positionAmt"`
}

// TradeHistory is one fill from /fapi/v1/myTrades.
type TradeHistory struct {
	ID              int64           `json:"id"`
	OrderID         int64           `json:"orderId"`
	Symbol          string          `json:"symbol"`
	Side            Side            `json:"side"`
	PositionSide    PositionSide    `json:"positionSide"`
	Buyer           bool            `json:"buyer"`
	Maker           bool            `json:"maker"`
	Price           decimal.Decimal `json:"price"`
	Qty             decimal.Decimal `json:"qty"`
	QuoteQty        decimal.Decimal `json:"quoteQty"`
	RealizedPnl     decimal.Decimal `json:"realizedPnl"`
	Commission      decimal.Decimal `json:"commission"`
	CommissionAsset string          `json:"commissionAsset"`
	Time            int64           `json:"time"`
}

func (TradeHistory) RequiredFields() []string {
	return []string{"id", "orderId", "symbol", "price", "qty"}
}

// ServerTime is the exchange clock reading.
type ServerTime struct {
	ServerTime int64 `json:"serverTime"`
}

func (ServerTime) RequiredFields() []string { return []string{"serverTime"} }

// RateLimit is one limit advertised in ExchangeInfo.
type RateLimit struct {
	RateLimitType string `json:"rateLimitType"`
	Interval      string `json:"interval"`
	IntervalNum   int    `json:"intervalNum"`
	Limit         int    `json:"limit"`
}

// SymbolInfo is a tradable contract.
type SymbolInfo struct {
	Symbol            string                   `json:"symbol"`
	Pair              string                   `json:"pair"`
	ContractType      string                   `json:"contractType"`
	Status            string                   `json:"status"`
	BaseAsset         string                   `json:"baseAsset"`
	QuoteAsset        string                   `json:"quoteAsset"`
	MarginAsset       string                   `json:"marginAsset"`
	PricePrecision    int                      `json:"pricePrecision"`
	QuantityPrecision int                      `json:"quantityPrecision"`
	OrderTypes        []OrderType              `json:"orderTypes"`
	TimeInForce       []TimeInForce            `json:"timeInForce"`
	Filters           []map[string]interface{} `json:"filters"`
}

// ExchangeInfo is the exchange metadata document.
type ExchangeInfo struct {
	Timezone   string       `json:"timezone"`
	ServerTime int64        `json:"serverTime"`
	RateLimits []RateLimit  `json:"rateLimits"`
	Symbols    []SymbolInfo `json:"symbols"`
}

func (ExchangeInfo) RequiredFields() []string {
	return []string{"serverTime", "symbols"}
}

// Symbol returns the contract named symbol.
func (e *ExchangeInfo) Symbol(symbol string) (SymbolInfo, bool) {
	for _, s := range e.Symbols {
		if s.Symbol == symbol {
			return s, true
		}
	}
	return SymbolInfo{}, false
}

// PriceLevel is one [price, quantity] entry of an order book.
type PriceLevel struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

func (p *PriceLevel) UnmarshalJSON(data []byte) error {
	var raw []decimal.Decimal
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) < 2 {
		return fmt.Errorf("price level needs 2 entries, got %d", len(raw))
	}
	p.Price, p.Quantity = raw[0], raw[1]
	return nil
}

// Depth is an order book snapshot.
type Depth struct {
	LastUpdateID    int64        `json:"lastUpdateId"`
	MessageTime     int64        `json:"E"`
	TransactionTime int64        `json:"T"`
	Bids            []PriceLevel `json:"bids"`
	Asks            []PriceLevel `json:"asks"`
}

func (Depth) RequiredFields() []string {
	return []string{"lastUpdateId", "bids", "asks"}
}

// BookTicker is the best bid/ask for a symbol.
type BookTicker struct {
	Symbol   string          `json:"symbol"`
	BidPrice decimal.Decimal `json:"bidPrice"`
	BidQty   decimal.Decimal `json:"bidQty"`
	AskPrice decimal.Decimal `json:"askPrice"`
	AskQty   decimal.Decimal `json:"askQty"`
	Time     int64           `json:"time"`
}

func (BookTicker) RequiredFields() []string {
	return []string{"symbol", "bidPrice", "askPrice"}
}

// ListenKey authorises a user data stream.
type ListenKey struct {
	ListenKey string `json:"listenKey"`
}

func (ListenKey) RequiredFields() []string { return []string{"listenKey"} }

// DepositAddressData is the deposit address for one asset.
type DepositAddressData struct {
	Address    string `json:"address"`
	Success    bool   `json:"success"`
	AddressTag string `json:"addressTag"`
	Asset      string `json:"asset"`
}

func (DepositAddressData) RequiredFields() []string {
	return []string{"address", "asset"}
}

// DepositRecord is one entry of DepositHistory.
type DepositRecord struct {
	InsertTime int64           `json:"insertTime"`
	Amount     decimal.Decimal `json:"amount"`
	Asset      string          `json:"asset"`
	Address    string          `json:"address"`
	AddressTag string          `json:"addressTag"`
	TxID       string          `json:"txId"`
	Status     int             `json:"status"`
}

// DepositHistory lists deposits in a time range.
type DepositHistory struct {
	DepositList []DepositRecord `json:"depositList"`
	Success     bool            `json:"success"`
}

func (DepositHistory) RequiredFields() []string { return []string{"success"} }

// AssetDetailEntry describes deposit/withdraw settings for one asset.
type AssetDetailEntry struct {
	MinWithdrawAmount decimal.Decimal `json:"minWithdrawAmount"`
	DepositStatus     bool            `json:"depositStatus"`
	WithdrawFee       decimal.Decimal `json:"withdrawFee"`
	WithdrawStatus    bool            `json:"withdrawStatus"`
	DepositTip        string          `json:"depositTip,omitempty"`
}

// AssetDetail maps asset name to its settings.
type AssetDetail struct {
	Success     bool                        `json:"success"`
	AssetDetail map[string]AssetDetailEntry `json:"assetDetail"`
}

func (AssetDetail) RequiredFields() []string { return []string{"success", "assetDetail"} }

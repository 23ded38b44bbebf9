package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"binance-fapi/pkg/exchange/binance"
	"binance-fapi/pkg/journal"
	"binance-fapi/pkg/transport"
)

var (
	orderIDFlag = &cli.Int64Flag{
		Name:  "id",
		Usage: "exchange order id",
	}
	clientIDFlag = &cli.StringFlag{
		Name:  "client-id",
		Usage: "client order id",
	}

	placeFlags = []cli.Flag{
		requiredSymbolFlag,
		&cli.StringFlag{Name: "side", Required: true, Usage: "BUY or SELL"},
		&cli.StringFlag{Name: "type", Value: "LIMIT", Usage: "LIMIT, MARKET, STOP, STOP_MARKET, ..."},
		&cli.StringFlag{Name: "qty", Usage: "quantity"},
		&cli.StringFlag{Name: "price", Usage: "limit price"},
		&cli.StringFlag{Name: "stop-price", Usage: "trigger price for stop orders"},
		&cli.StringFlag{Name: "tif", Usage: "time in force; defaults to GTC for LIMIT"},
		&cli.StringFlag{Name: "position-side", Usage: "BOTH, LONG or SHORT"},
		&cli.BoolFlag{Name: "reduce-only", Usage: "only reduce the position"},
		clientIDFlag,
	}

	orderCommand = &cli.Command{
		Name:  "order",
		Usage: "Place, query or cancel orders",
		Subcommands: []*cli.Command{
			{
				Action: placeOrder,
				Name:   "place",
				Usage:  "Place an order (never retried)",
				Flags:  placeFlags,
			},
			{
				Action: orderStatus,
				Name:   "status",
				Usage:  "Query an order by --id or --client-id",
				Flags:  []cli.Flag{requiredSymbolFlag, orderIDFlag, clientIDFlag},
			},
			{
				Action: cancelOrder,
				Name:   "cancel",
				Usage:  "Cancel an order by --id or --client-id (never retried)",
				Flags:  []cli.Flag{requiredSymbolFlag, orderIDFlag, clientIDFlag},
			},
		},
	}
)

func decimalFlag(c *cli.Context, name string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(c.String(name))
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &d, nil
}

func orderRequest(c *cli.Context) (binance.OrderRequest, error) {
	req := binance.OrderRequest{
		Symbol:           strings.ToUpper(c.String(requiredSymbolFlag.Name)),
		Side:             binance.Side(strings.ToUpper(c.String("side"))),
		Type:             binance.OrderType(strings.ToUpper(c.String("type"))),
		TimeInForce:      binance.TimeInForce(strings.ToUpper(c.String("tif"))),
		PositionSide:     binance.PositionSide(strings.ToUpper(c.String("position-side"))),
		NewClientOrderID: c.String(clientIDFlag.Name),
		NewOrderRespType: binance.NewOrderRespResult,
	}
	if req.NewClientOrderID == "" {
		req.NewClientOrderID = uuid.NewString()
	}
	if req.Type == binance.OrderTypeLimit && req.TimeInForce == "" {
		req.TimeInForce = binance.TimeInForceGTC
	}
	if c.Bool("reduce-only") {
		reduceOnly := true
		req.ReduceOnly = &reduceOnly
	}

	var err error
	if req.Quantity, err = decimalFlag(c, "qty"); err != nil {
		return req, err
	}
	if req.Price, err = decimalFlag(c, "price"); err != nil {
		return req, err
	}
	if req.StopPrice, err = decimalFlag(c, "stop-price"); err != nil {
		return req, err
	}
	return req, req.Validate()
}

// placeOrder submits exactly once. On a transport error the outcome is
// unknown; query by the printed client id before resubmitting.
func placeOrder(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	req, err := orderRequest(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	resp, err := e.Client.PlaceOrder(c.Context, req, e.callOpts()...)
	rec := journal.OrderRecord{
		Action:        journal.ActionPlace,
		Symbol:        req.Symbol,
		ClientOrderID: req.NewClientOrderID,
		Request:       req,
	}
	if resp != nil {
		rec.OrderID, rec.Response = resp.OrderID, resp
	}
	e.journalOrder(rec, err)
	if err != nil {
		return fmt.Errorf("%w (clientOrderId %s)", err, req.NewClientOrderID)
	}
	return e.print(resp)
}

func orderRef(c *cli.Context) binance.OrderRef {
	return binance.OrderRef{
		Symbol:            strings.ToUpper(c.String(requiredSymbolFlag.Name)),
		OrderID:           c.Int64(orderIDFlag.Name),
		OrigClientOrderID: c.String(clientIDFlag.Name),
	}
}

func orderStatus(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	ref := orderRef(c)
	order, err := read(c.Context, e, func(ctx context.Context, opts ...transport.CallOption) (*binance.Order, error) {
		return e.Client.OrderStatus(ctx, ref, opts...)
	})
	if err != nil {
		return err
	}
	return e.print(order)
}

func cancelOrder(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	ref := orderRef(c)
	canceled, err := e.Client.CancelOrder(c.Context, ref, e.callOpts()...)
	rec := journal.OrderRecord{
		Action:        journal.ActionCancel,
		Symbol:        ref.Symbol,
		ClientOrderID: ref.OrigClientOrderID,
		OrderID:       ref.OrderID,
		Request:       ref,
	}
	if canceled != nil {
		rec.Response = canceled
	}
	e.journalOrder(rec, err)
	if err != nil {
		return err
	}
	return e.print(canceled)
}

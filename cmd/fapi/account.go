package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v2"

	"binance-fapi/pkg/exchange/binance"
	"binance-fapi/pkg/transport"
)

var (
	assetFlag = &cli.StringFlag{
		Name:  "asset",
		Usage: "asset name, e.g. USDT",
	}
	sinceFlag = &cli.DurationFlag{
		Name:  "since",
		Usage: "only include records newer than this (e.g. 72h)",
	}

	accountCommand = &cli.Command{
		Action: account,
		Name:   "account",
		Usage:  "Show the futures account",
	}
	balanceCommand = &cli.Command{
		Action: balance,
		Name:   "balance",
		Usage:  "Show the margin balance of one asset",
		Flags:  []cli.Flag{&cli.StringFlag{Name: "asset", Value: "USDT", Usage: "asset name"}},
	}
	ordersCommand = &cli.Command{
		Action: openOrders,
		Name:   "orders",
		Usage:  "List open orders, for every symbol unless --symbol is given",
		Flags:  []cli.Flag{symbolFlag},
	}
	tradesCommand = &cli.Command{
		Action: trades,
		Name:   "trades",
		Usage:  "List account fills for a symbol",
		Flags:  []cli.Flag{requiredSymbolFlag, limitFlag, sinceFlag},
	}
	depositsCommand = &cli.Command{
		Action: deposits,
		Name:   "deposits",
		Usage:  "Show deposit history, or the deposit address with --address",
		Flags: []cli.Flag{
			assetFlag,
			sinceFlag,
			&cli.BoolFlag{Name: "address", Usage: "show the deposit address for --asset"},
			&cli.BoolFlag{Name: "detail", Usage: "show deposit and withdraw settings per asset"},
		},
	}
)

func account(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	acct, err := read(c.Context, e, e.Client.Account)
	if err != nil {
		return err
	}
	return e.print(acct)
}

func balance(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	bal, err := read(c.Context, e, func(ctx context.Context, opts ...transport.CallOption) (*binance.AccountAsset, error) {
		return e.Client.Balance(ctx, c.String("asset"), opts...)
	})
	if err != nil {
		return err
	}
	return e.print(bal)
}

func openOrders(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	symbol := c.String(symbolFlag.Name)
	orders, err := read(c.Context, e, func(ctx context.Context, opts ...transport.CallOption) ([]binance.Order, error) {
		if symbol == "" {
			return e.Client.AllOpenOrders(ctx, opts...)
		}
		return e.Client.OpenOrders(ctx, symbol, opts...)
	})
	if err != nil {
		return err
	}
	return e.print(orders)
}

func sinceTime(c *cli.Context) *time.Time {
	d := c.Duration(sinceFlag.Name)
	if d <= 0 {
		return nil
	}
	t := time.Now().Add(-d)
	return &t
}

func trades(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	req := binance.TradeHistoryRequest{
		Symbol:    c.String(requiredSymbolFlag.Name),
		StartTime: sinceTime(c),
		Limit:     c.Int(limitFlag.Name),
	}
	fills, err := read(c.Context, e, func(ctx context.Context, opts ...transport.CallOption) ([]binance.TradeHistory, error) {
		return e.Client.TradeHistory(ctx, req, opts...)
	})
	if err != nil {
		return err
	}
	return e.print(fills)
}

func deposits(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	asset := c.String(assetFlag.Name)
	switch {
	case c.Bool("detail"):
		detail, err := read(c.Context, e, e.Client.AssetDetail)
		if err != nil {
			return err
		}
		return e.print(detail)
	case c.Bool("address"):
		addr, err := read(c.Context, e, func(ctx context.Context, opts ...transport.CallOption) (*binance.DepositAddressData, error) {
			return e.Client.DepositAddress(ctx, asset, opts...)
		})
		if err != nil {
			return err
		}
		return e.print(addr)
	}

	var start time.Time
	if since := sinceTime(c); since != nil {
		start = *since
	}
	history, err := read(c.Context, e, func(ctx context.Context, opts ...transport.CallOption) (*binance.DepositHistory, error) {
		return e.Client.DepositHistory(ctx, asset, start, time.Time{}, opts...)
	})
	if err != nil {
		return err
	}
	return e.print(history)
}

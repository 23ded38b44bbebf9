package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"binance-fapi/pkg/exchange/binance"
	"binance-fapi/pkg/transport"
)

var (
	symbolFlag = &cli.StringFlag{
		Name:    "symbol",
		Aliases: []string{"s"},
		Usage:   "contract symbol, e.g. BTCUSDT",
	}
	requiredSymbolFlag = &cli.StringFlag{
		Name:     "symbol",
		Aliases:  []string{"s"},
		Usage:    "contract symbol, e.g. BTCUSDT",
		Required: true,
	}
	limitFlag = &cli.IntFlag{
		Name:  "limit",
		Usage: "number of rows (0 = exchange default)",
	}

	pingCommand = &cli.Command{
		Action: ping,
		Name:   "ping",
		Usage:  "Check connectivity to the REST API",
	}
	timeCommand = &cli.Command{
		Action: serverTime,
		Name:   "time",
		Usage:  "Show exchange time and local clock offset",
	}
	infoCommand = &cli.Command{
		Action: exchangeInfo,
		Name:   "info",
		Usage:  "Show exchange rules, or one symbol with --symbol",
		Flags:  []cli.Flag{symbolFlag},
	}
	depthCommand = &cli.Command{
		Action: depth,
		Name:   "depth",
		Usage:  "Show the order book",
		Flags:  []cli.Flag{requiredSymbolFlag, &cli.IntFlag{Name: "limit", Value: 10, Usage: "5, 10, 20, 50, 100, 500 or 1000"}},
	}
	snapshotCommand = &cli.Command{
		Action: snapshot,
		Name:   "snapshot",
		Usage:  "Fetch server time, exchange info and account concurrently",
	}
)

func ping(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	start := time.Now()
	err = e.Retry.Do(c.Context, func(ctx context.Context) error {
		return e.Client.Ping(ctx, e.callOpts()...)
	})
	if err != nil {
		return err
	}
	return e.print(map[string]string{"status": "ok", "latency": time.Since(start).String()})
}

func serverTime(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	offset, err := transport.Retry(c.Context, e.Retry, func(ctx context.Context) (time.Duration, error) {
		return e.Clock.Sync(ctx, e.Client, e.callOpts()...)
	})
	if err != nil {
		return err
	}
	return e.print(map[string]any{
		"serverTime": e.Clock.Now().UnixMilli(),
		"localTime":  time.Now().UnixMilli(),
		"offset":     offset.String(),
	})
}

func exchangeInfo(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	info, err := read(c.Context, e, e.Client.ExchangeInfo)
	if err != nil {
		return err
	}
	if symbol := c.String(symbolFlag.Name); symbol != "" {
		sym, ok := info.Symbol(symbol)
		if !ok {
			return cli.Exit("unknown symbol "+symbol, 2)
		}
		return e.print(sym)
	}
	return e.print(info)
}

func depth(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	book, err := read(c.Context, e, func(ctx context.Context, opts ...transport.CallOption) (*binance.Depth, error) {
		return e.Client.Depth(ctx, c.String(requiredSymbolFlag.Name), c.Int("limit"), opts...)
	})
	if err != nil {
		return err
	}
	return e.print(book)
}

type snapshotView struct {
	ServerTime int64                       `json:"serverTime"`
	Symbols    int                         `json:"symbols"`
	RateLimits []binance.RateLimit         `json:"rateLimits"`
	Account    *binance.AccountInformation `json:"account,omitempty"`
}

// snapshot issues independent calls concurrently; their completion order is
// irrelevant.
func snapshot(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	var view snapshotView
	g, ctx := errgroup.WithContext(c.Context)
	g.Go(func() error {
		ts, err := read(ctx, e, e.Client.ServerTime)
		if err != nil {
			return err
		}
		view.ServerTime = ts.UnixMilli()
		return nil
	})
	g.Go(func() error {
		info, err := read(ctx, e, e.Client.ExchangeInfo)
		if err != nil {
			return err
		}
		view.Symbols = len(info.Symbols)
		view.RateLimits = info.RateLimits
		return nil
	})
	if e.Client.Transport().Authenticated() {
		g.Go(func() error {
			acct, err := read(ctx, e, e.Client.Account)
			if err != nil {
				return err
			}
			view.Account = acct
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return e.print(view)
}

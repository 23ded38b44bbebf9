package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/sync/errgroup"

	"binance-fapi/pkg/exchange/binance"
)

// Listen keys expire after 60 minutes without a keepalive.
const keepAliveInterval = 30 * time.Minute

var streamCommand = &cli.Command{
	Name:  "stream",
	Usage: "Print websocket events until interrupted",
	Subcommands: []*cli.Command{
		{
			Action: streamDepth,
			Name:   "depth",
			Usage:  "Diff. book depth updates for one symbol",
			Flags: []cli.Flag{
				requiredSymbolFlag,
				&cli.StringFlag{Name: "speed", Value: "100ms", Usage: "update speed: 100ms, 250ms or 500ms"},
			},
		},
		{
			Action: streamUser,
			Name:   "user",
			Usage:  "Order and account updates (requires credentials)",
		},
	},
}

func streamDepth(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	name := strings.ToLower(c.String(requiredSymbolFlag.Name)) + "@depth"
	switch speed := c.String("speed"); speed {
	case "250ms":
	case "100ms", "500ms":
		name += "@" + speed
	default:
		return cli.Exit(fmt.Sprintf("unsupported --speed %q", speed), 2)
	}

	stream, err := e.Client.DialMarketStream(c.Context, name)
	if err != nil {
		return err
	}
	defer stream.Close()
	return ignoreCanceled(e.pump(c.Context, stream, nil))
}

func streamUser(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	key, err := read(c.Context, e, e.Client.StartUserStream)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.Client.CloseUserStream(ctx); err != nil {
			logx.Errorf("close user stream: %v", err)
		}
	}()

	stream, err := e.Client.DialUserStream(c.Context, key)
	if err != nil {
		return err
	}
	defer stream.Close()

	g, ctx := errgroup.WithContext(c.Context)
	done := make(chan struct{})
	g.Go(func() error {
		ticker := time.NewTicker(keepAliveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-done:
				return nil
			case <-ticker.C:
				err := e.Retry.Do(ctx, func(ctx context.Context) error {
					return e.Client.KeepAliveUserStream(ctx, e.callOpts()...)
				})
				if err != nil {
					return fmt.Errorf("keepalive: %w", err)
				}
				logx.Info("user stream kept alive")
			}
		}
	})
	g.Go(func() error {
		defer close(done)
		return e.pump(ctx, stream, func(ev binance.Event) bool {
			_, expired := ev.(binance.ListenKeyExpiredEvent)
			return expired
		})
	})
	return ignoreCanceled(g.Wait())
}

// pump prints events until ctx ends, the stream fails or stop reports true.
func (e *env) pump(ctx context.Context, stream *binance.Stream, stop func(binance.Event) bool) error {
	for {
		ev, err := stream.Next(ctx)
		if err != nil {
			return err
		}
		if err := e.print(map[string]any{"type": ev.EventType(), "event": ev}); err != nil {
			return err
		}
		if stop != nil && stop(ev) {
			logx.Infof("stream ended by %s", ev.EventType())
			return nil
		}
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/zeromicro/go-zero/core/logx"

	appcli "binance-fapi/internal/cli"
	"binance-fapi/internal/config"
	"binance-fapi/internal/svc"
	"binance-fapi/pkg/journal"
	"binance-fapi/pkg/transport"
)

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Value:   "etc/fapi.yaml",
		Usage:   "application config file",
		EnvVars: []string{"FAPI_CONFIG"},
	}
	timeoutFlag = &cli.DurationFlag{
		Name:  "timeout",
		Value: 10 * time.Second,
		Usage: "per-request timeout",
	}
	syncClockFlag = &cli.BoolFlag{
		Name:  "sync-clock",
		Usage: "measure the exchange clock offset before signed calls",
	}
)

// env is what every command needs: the service context plus output
// settings from the command line.
type env struct {
	*svc.ServiceContext
	timeout time.Duration
	out     io.Writer
}

func setup(c *cli.Context) (*env, error) {
	cfg, err := config.Load(c.String(configFlag.Name))
	if err != nil {
		return nil, err
	}
	logx.MustSetup(cfg.Log)
	appcli.LogConfigSummary(cfg)

	ctx, err := svc.NewServiceContext(*cfg, transport.DefaultLogger())
	if err != nil {
		return nil, err
	}
	e := &env{
		ServiceContext: ctx,
		timeout:        c.Duration(timeoutFlag.Name),
		out:            c.App.Writer,
	}
	if c.Bool(syncClockFlag.Name) {
		offset, err := e.Clock.Sync(c.Context, e.Client, e.callOpts()...)
		if err != nil {
			return nil, err
		}
		logx.Infof("clock offset %s", offset)
	}
	return e, nil
}

func (e *env) callOpts() []transport.CallOption {
	if e.timeout <= 0 {
		return nil
	}
	return []transport.CallOption{transport.WithTimeout(e.timeout)}
}

// read runs an idempotent call under the retry policy.
func read[T any](ctx context.Context, e *env, fn func(ctx context.Context, opts ...transport.CallOption) (T, error)) (T, error) {
	return transport.Retry(ctx, e.Retry, func(ctx context.Context) (T, error) {
		return fn(ctx, e.callOpts()...)
	})
}

// journalOrder records an order call when the journal is enabled. Failures
// to write are logged; they never mask the call result.
func (e *env) journalOrder(rec journal.OrderRecord, callErr error) {
	if e.Journal == nil {
		return
	}
	path, err := e.Journal.Record(rec, callErr)
	if err != nil {
		logx.Errorf("order journal: %v", err)
		return
	}
	logx.Infof("order journal: %s", path)
}

func (e *env) print(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

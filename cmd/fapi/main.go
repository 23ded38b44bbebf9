package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"
)

var app *cli.App

func init() {
	app = &cli.App{
		Name:    filepath.Base(os.Args[0]),
		Usage:   "Binance USDⓈ-M futures client",
		Version: "0.3.0",
	}

	app.Commands = []*cli.Command{
		pingCommand,
		timeCommand,
		infoCommand,
		depthCommand,
		accountCommand,
		balanceCommand,
		ordersCommand,
		orderCommand,
		tradesCommand,
		depositsCommand,
		streamCommand,
		snapshotCommand,
	}
	app.Flags = []cli.Flag{
		configFlag,
		timeoutFlag,
		syncClockFlag,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package svc

import (
	"errors"

	"binance-fapi/internal/config"
	"binance-fapi/pkg/exchange/binance"
	"binance-fapi/pkg/journal"
	"binance-fapi/pkg/transport"
)

// ServiceContext holds the long-lived dependencies built from the app config.
type ServiceContext struct {
	Config config.Config

	Client *binance.Client
	// Clock feeds the client's request timestamps; Sync it to correct drift.
	Clock *binance.ClockOffset
	Retry *transport.RetryHandler
	// Journal is nil when JournalDir is not configured.
	Journal *journal.Writer
}

func NewServiceContext(c config.Config, logger transport.Logger) (*ServiceContext, error) {
	if c.Exchange.Value == nil {
		return nil, errors.New("svc: Exchange.File is required")
	}
	svc := &ServiceContext{
		Config: c,
		Clock:  binance.NewClockOffset(),
		Retry:  c.RetryHandler(),
	}

	client, err := c.Exchange.Value.NewClient(logger, binance.WithClock(svc.Clock.Now))
	if err != nil {
		return nil, err
	}
	svc.Client = client

	if c.JournalDir != "" {
		if svc.Journal, err = journal.NewWriter(c.JournalDir); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

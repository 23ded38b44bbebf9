//go:build integration

package binance_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	appcfg "binance-fapi/internal/config"
	"binance-fapi/pkg/exchange/binance"
	"binance-fapi/pkg/transport"
)

// Runs against the futures testnet. Credentials come from etc/binance.yaml
// (or BINANCE_CONFIG); signed cases are skipped without them.
type TestnetSuite struct {
	suite.Suite
	Client *binance.Client
	Symbol string
}

func (s *TestnetSuite) SetupSuite() {
	cfg := appcfg.MustLoadExchange()
	cfg.Testnet = true
	cfg.BaseURL, cfg.StreamURL = "", ""
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	s.Symbol = strings.ToUpper(os.Getenv("BINANCE_TEST_SYMBOL"))
	if s.Symbol == "" {
		s.Symbol = "BTCUSDT"
	}

	clock := binance.NewClockOffset()
	client, err := cfg.NewClient(transport.DefaultLogger(), binance.WithClock(clock.Now))
	s.Require().NoError(err, "build client")
	s.Client = client

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	_, err = clock.Sync(ctx, client)
	s.Require().NoError(err, "clock sync")
}

func (s *TestnetSuite) ctx() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	s.T().Cleanup(cancel)
	return ctx
}

func (s *TestnetSuite) requireCredentials() {
	if !s.Client.Transport().Authenticated() {
		s.T().Skip("BINANCE_API_KEY/BINANCE_API_SECRET not set")
	}
}

func (s *TestnetSuite) TestExchangeInfoListsSymbol() {
	info, err := s.Client.ExchangeInfo(s.ctx())
	s.Require().NoError(err)
	sym, ok := info.Symbol(s.Symbol)
	s.Require().True(ok, "symbol %s not listed", s.Symbol)
	s.Equal(s.Symbol, sym.Symbol)
}

func (s *TestnetSuite) TestDepthIsOrdered() {
	book, err := s.Client.Depth(s.ctx(), s.Symbol, 5)
	s.Require().NoError(err)
	s.Require().NotEmpty(book.Bids)
	s.Require().NotEmpty(book.Asks)
	s.True(book.Asks[0].Price.GreaterThan(book.Bids[0].Price))
}

func (s *TestnetSuite) TestAccountAndOpenOrders() {
	s.requireCredentials()
	acct, err := s.Client.Account(s.ctx())
	s.Require().NoError(err)
	s.NotEmpty(acct.Assets)

	_, err = s.Client.OpenOrders(s.ctx(), s.Symbol)
	s.Require().NoError(err)
}

func (s *TestnetSuite) TestUnknownOrderIsExchangeError() {
	s.requireCredentials()
	_, err := s.Client.OrderStatus(s.ctx(), binance.OrderRef{Symbol: s.Symbol, OrigClientOrderID: "does-not-exist"})
	s.Require().Error(err)
	var exErr *transport.ExchangeError
	s.Require().ErrorAs(err, &exErr)
	s.Less(exErr.Code, 0)
}

func (s *TestnetSuite) TestUserStreamLifecycle() {
	s.requireCredentials()
	key, err := s.Client.StartUserStream(s.ctx())
	s.Require().NoError(err)
	s.NotEmpty(key)
	defer func() { s.NoError(s.Client.CloseUserStream(s.ctx())) }()

	s.Require().NoError(s.Client.KeepAliveUserStream(s.ctx()))

	stream, err := s.Client.DialUserStream(s.ctx(), key)
	s.Require().NoError(err)
	s.NoError(stream.Close())
}

func TestTestnetSuite(t *testing.T) {
	suite.Run(t, new(TestnetSuite))
}

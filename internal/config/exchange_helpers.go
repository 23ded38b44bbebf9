package config

import (
	"fmt"
	"os"

	"binance-fapi/pkg/exchange/binance"
)

// DefaultExchangePath is the exchange file used when no app config is given.
const DefaultExchangePath = "etc/binance.yaml"

// MustLoadExchange loads the exchange file without the rest of the app
// config. BINANCE_CONFIG overrides the path. Used by integration tests.
func MustLoadExchange() *binance.Config {
	LoadDotenvOnce()
	path := os.Getenv("BINANCE_CONFIG")
	if path == "" {
		path = MustProjectPath(DefaultExchangePath)
	}
	cfg, err := binance.LoadConfig(path)
	if err != nil {
		panic(fmt.Errorf("load exchange config %s: %w", path, err))
	}
	return cfg
}

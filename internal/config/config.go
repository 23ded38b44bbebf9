package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"

	"binance-fapi/pkg/exchange/binance"
	"binance-fapi/pkg/transport"
)

// RetryConf drives the caller-level retry used by read-only CLI commands.
type RetryConf struct {
	MaxRetries     int           `json:",default=3"`
	InitialBackoff time.Duration `json:",default=200ms"`
	MaxBackoff     time.Duration `json:",default=3s"`
}

// Config is the application config (etc/fapi.yaml).
type Config struct {
	// Env is one of test | dev | prod. Outside prod the exchange is forced
	// onto the testnet and mainnet URLs are rejected.
	Env   string       `json:",default=test"`
	Log   logx.LogConf `json:",optional"`
	Retry RetryConf    `json:",optional"`

	Exchange Section[binance.Config] `json:",optional"`
	// JournalDir receives one JSON file per order call. Empty disables it.
	JournalDir string `json:",optional"`

	mainPath string
	baseDir  string
}

func (c *Config) IsProd() bool {
	return c.Env == "prod"
}

func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the app config with env overrides and hydrates the exchange
// section from its own file.
func Load(path string) (*Config, error) {
	LoadDotenvOnce()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path %s: %w", path, err)
	}

	var cfg Config
	if err := conf.Load(absPath, &cfg, conf.UseEnv()); err != nil {
		return nil, fmt.Errorf("load config %s: %w", absPath, err)
	}
	cfg.mainPath = absPath
	cfg.baseDir = filepath.Dir(absPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.hydrateSections(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	switch c.Env {
	case "":
		c.Env = "test"
	case "test", "dev", "prod":
	default:
		return errors.New("config: env must be one of test|dev|prod")
	}
	if c.Retry.MaxRetries < 0 {
		return errors.New("config: retry.maxRetries must not be negative")
	}
	if c.Retry.MaxBackoff > 0 && c.Retry.InitialBackoff > c.Retry.MaxBackoff {
		return errors.New("config: retry.initialBackoff exceeds retry.maxBackoff")
	}
	return nil
}

func (c *Config) hydrateSections() error {
	if err := c.Exchange.Hydrate(c.baseDir, binance.LoadConfig); err != nil {
		return fmt.Errorf("load exchange config: %w", err)
	}
	if c.JournalDir != "" {
		c.JournalDir = resolvePath(c.baseDir, c.JournalDir)
	}
	if c.Exchange.Value != nil && !c.IsProd() {
		if err := c.Exchange.Value.RequireTestnet(); err != nil {
			return fmt.Errorf("%s env: %w", c.Env, err)
		}
	}
	return nil
}

// RetryHandler builds the retry policy described by Retry.
func (c *Config) RetryHandler() *transport.RetryHandler {
	return transport.NewRetryHandler(transport.RetryConfig{
		MaxRetries:     c.Retry.MaxRetries,
		InitialBackoff: c.Retry.InitialBackoff,
		MaxBackoff:     c.Retry.MaxBackoff,
	})
}

func (c *Config) MainPath() string {
	return c.mainPath
}

func (c *Config) BaseDir() string {
	return c.baseDir
}

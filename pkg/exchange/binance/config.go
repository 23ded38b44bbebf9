package binance

import (
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"binance-fapi/pkg/transport"
)

// Config describes how to construct a Client.
type Config struct {
	BaseURL    string `yaml:"base_url"`
	StreamURL  string `yaml:"ws_url"`
	APIKey     string `yaml:"api_key"`
	APISecret  string `yaml:"api_secret"`
	RecvWindow int64  `yaml:"recv_window"`
	Testnet    bool   `yaml:"testnet"`

	TimeoutRaw string        `yaml:"timeout"`
	Timeout    time.Duration `yaml:"-"`
}

// LoadConfig reads configuration from disk.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open binance config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// LoadConfigFromReader constructs a Config from an io.Reader. ${VAR}
// references are expanded from the environment.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read binance config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal binance config: %w", err)
	}
	cfg.expandEnv()
	if err := cfg.parseDurations(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) expandEnv() {
	c.BaseURL = strings.TrimSpace(os.ExpandEnv(c.BaseURL))
	c.StreamURL = strings.TrimSpace(os.ExpandEnv(c.StreamURL))
	c.APIKey = strings.TrimSpace(os.ExpandEnv(c.APIKey))
	c.APISecret = strings.TrimSpace(os.ExpandEnv(c.APISecret))
	c.TimeoutRaw = strings.TrimSpace(os.ExpandEnv(c.TimeoutRaw))
}

func (c *Config) parseDurations() error {
	if c.TimeoutRaw == "" {
		c.Timeout = 0
		return nil
	}
	d, err := time.ParseDuration(c.TimeoutRaw)
	if err != nil {
		return fmt.Errorf("binance config: invalid timeout %q: %w", c.TimeoutRaw, err)
	}
	if d <= 0 {
		return fmt.Errorf("binance config: timeout must be positive, got %s", d)
	}
	c.Timeout = d
	return nil
}

// Validate rejects half-configured credentials and impossible windows.
func (c *Config) Validate() error {
	if (c.APIKey == "") != (c.APISecret == "") {
		return fmt.Errorf("binance config: api_key and api_secret must be set together")
	}
	if c.RecvWindow < 0 || c.RecvWindow > 60000 {
		return fmt.Errorf("binance config: recv_window must be within [0, 60000], got %d", c.RecvWindow)
	}
	return nil
}

// RequireTestnet switches the config to the testnet and rejects explicit
// URLs that point anywhere but the testnet or a loopback host.
func (c *Config) RequireTestnet() error {
	c.Testnet = true
	for _, u := range []struct{ key, raw string }{
		{"base_url", c.BaseURL},
		{"ws_url", c.StreamURL},
	} {
		if u.raw != "" && !isTestnetURL(u.raw) {
			return fmt.Errorf("binance config: %s %q is not a testnet url", u.key, u.raw)
		}
	}
	return nil
}

func isTestnetURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	switch host {
	case testnetRESTHost, testnetStreamHost, "localhost":
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// HasCredentials reports whether signed endpoints will be available.
func (c *Config) HasCredentials() bool {
	return c.APIKey != "" && c.APISecret != ""
}

// NewClient builds a Client from the configuration. Timeout becomes the
// default per-call timeout.
func (c *Config) NewClient(logger transport.Logger, extra ...ClientOption) (*Client, error) {
	opts := []ClientOption{
		WithTestnet(c.Testnet),
		WithBaseURL(c.BaseURL),
		WithStreamURL(c.StreamURL),
		WithRecvWindow(c.RecvWindow),
		WithTimeout(c.Timeout),
		WithLogger(logger),
	}
	opts = append(opts, extra...)
	if c.HasCredentials() {
		return NewWithCredentials(c.APIKey, c.APISecret, opts...)
	}
	return New(opts...)
}

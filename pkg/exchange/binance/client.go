// Package binance is the endpoint catalog for the Binance USDⓈ-M futures API,
// built on the signed transport in pkg/transport.
package binance

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"binance-fapi/pkg/transport"
)

const (
	mainnetBaseURL   = transport.DefaultBaseURL
	mainnetStreamURL = "wss://fstream.binance.com"
	testnetBaseURL   = "https://" + testnetRESTHost
	testnetStreamURL = "wss://" + testnetStreamHost

	testnetRESTHost   = "testnet.binancefuture.com"
	testnetStreamHost = "stream.binancefuture.com"
)

// Client exposes typed futures operations. It holds no mutable state and is
// safe for concurrent use.
type Client struct {
	transport *transport.Transport
	streamURL string
	dialer    *websocket.Dialer
	logger    transport.Logger
}

// ClientOption customises the client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	baseURL    string
	streamURL  string
	testnet    bool
	httpClient *http.Client
	dialer     *websocket.Dialer
	logger     transport.Logger
	clock      func() time.Time
	recvWindow int64
	timeout    time.Duration
}

// WithBaseURL overrides the REST root.
func WithBaseURL(raw string) ClientOption {
	return func(o *clientOptions) {
		o.baseURL = strings.TrimSpace(raw)
	}
}

// WithStreamURL overrides the WebSocket root.
func WithStreamURL(raw string) ClientOption {
	return func(o *clientOptions) {
		o.streamURL = strings.TrimRight(strings.TrimSpace(raw), "/")
	}
}

// WithTestnet points the client at the futures testnet unless explicit URLs
// are also given.
func WithTestnet(enabled bool) ClientOption {
	return func(o *clientOptions) {
		o.testnet = enabled
	}
}

// WithHTTPClient overrides the HTTP client used for REST calls.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.httpClient = httpClient
	}
}

// WithDialer overrides the WebSocket dialer.
func WithDialer(dialer *websocket.Dialer) ClientOption {
	return func(o *clientOptions) {
		o.dialer = dialer
	}
}

// WithLogger attaches a logger.
func WithLogger(logger transport.Logger) ClientOption {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithClock overrides the time source for request timestamps. Pair it with
// ClockOffset.Now to correct for local clock drift.
func WithClock(clock func() time.Time) ClientOption {
	return func(o *clientOptions) {
		o.clock = clock
	}
}

// WithRecvWindow sets the default recvWindow in milliseconds for signed calls.
func WithRecvWindow(ms int64) ClientOption {
	return func(o *clientOptions) {
		o.recvWindow = ms
	}
}

// WithTimeout sets the default per-call timeout. Individual calls can still
// pass transport.WithTimeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.timeout = d
	}
}

// New builds a client without credentials; only public endpoints work.
func New(opts ...ClientOption) (*Client, error) {
	return newClient(nil, opts)
}

// NewWithCredentials builds a client able to call signed endpoints.
func NewWithCredentials(apiKey, apiSecret string, opts ...ClientOption) (*Client, error) {
	creds, err := transport.NewCredentials(apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	return newClient(creds, opts)
}

func newClient(creds *transport.Credentials, opts []ClientOption) (*Client, error) {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.baseURL == "" {
		o.baseURL = mainnetBaseURL
		if o.testnet {
			o.baseURL = testnetBaseURL
		}
	}
	if o.streamURL == "" {
		o.streamURL = mainnetStreamURL
		if o.testnet {
			o.streamURL = testnetStreamURL
		}
	}
	if o.logger == nil {
		o.logger = transport.DefaultLogger()
	}
	if o.dialer == nil {
		o.dialer = websocket.DefaultDialer
	}

	t, err := transport.New(
		transport.WithBaseURL(o.baseURL),
		transport.WithCredentials(creds),
		transport.WithHTTPClient(o.httpClient),
		transport.WithClock(o.clock),
		transport.WithLogger(o.logger),
		transport.WithDefaultRecvWindow(o.recvWindow),
		transport.WithDefaultTimeout(o.timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("binance: %w", err)
	}
	return &Client{
		transport: t,
		streamURL: o.streamURL,
		dialer:    o.dialer,
		logger:    o.logger,
	}, nil
}

// Transport returns the underlying signed transport, for callers that
// declare their own endpoints.
func (c *Client) Transport() *transport.Transport {
	return c.transport
}

// StreamURL returns the WebSocket root.
func (c *Client) StreamURL() string {
	return c.streamURL
}

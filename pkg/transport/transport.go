// Package transport is the signed request pipeline for the Binance futures
// REST API: parameter encoding, HMAC signing, asynchronous dispatch and
// response decoding into typed results or typed errors.
package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the USDⓈ-M futures REST root.
	DefaultBaseURL = "https://fapi.binance.com"
	// APIKeyHeader carries the public API key on authenticated requests.
	APIKeyHeader = "X-MBX-APIKEY"

	formContentType = "application/x-www-form-urlencoded"
	defaultAgent    = "binance-fapi/1.0"
)

// Security describes what a request must carry to be accepted.
type Security int

const (
	// Public requests carry no key and no signature.
	Public Security = iota
	// APIKey requests carry the key header but no signature.
	APIKey
	// Signed requests carry the key header plus timestamp and signature.
	Signed
)

func (s Security) String() string {
	switch s {
	case Public:
		return "public"
	case APIKey:
		return "api-key"
	case Signed:
		return "signed"
	default:
		return fmt.Sprintf("security(%d)", int(s))
	}
}

// Transport turns endpoint calls into signed HTTP exchanges. It is immutable
// after New and safe for concurrent use.
type Transport struct {
	baseURL    *url.URL
	creds      *Credentials
	dispatcher *Dispatcher
	recvWindow int64
	timeout    time.Duration
	clock      func() time.Time
	logger     Logger
	userAgent  string
}

// Option customises a Transport.
type Option func(*options)

type options struct {
	baseURL    string
	creds      *Credentials
	httpClient *http.Client
	recvWindow int64
	timeout    time.Duration
	clock      func() time.Time
	logger     Logger
	userAgent  string
}

// WithBaseURL sets the REST root every endpoint path is joined to.
func WithBaseURL(raw string) Option {
	return func(o *options) {
		if strings.TrimSpace(raw) != "" {
			o.baseURL = strings.TrimSpace(raw)
		}
	}
}

// WithCredentials enables APIKey and Signed endpoints.
func WithCredentials(creds *Credentials) Option {
	return func(o *options) {
		o.creds = creds
	}
}

// WithHTTPClient overrides the HTTP client. The default has no global
// timeout; bound calls with WithDefaultTimeout, WithTimeout or a context
// deadline.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) {
		if httpClient != nil {
			o.httpClient = httpClient
		}
	}
}

// WithDefaultRecvWindow sets the recvWindow (milliseconds) attached to signed
// calls that do not specify their own. Zero leaves it to the exchange default.
func WithDefaultRecvWindow(ms int64) Option {
	return func(o *options) {
		if ms >= 0 {
			o.recvWindow = ms
		}
	}
}

// WithDefaultTimeout bounds every call that does not pass its own
// WithTimeout. Zero means calls are bounded only by their context.
func WithDefaultTimeout(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.timeout = d
		}
	}
}

// WithClock overrides the time source used for request timestamps.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger attaches a logger (defaults to logx).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(agent string) Option {
	return func(o *options) {
		if agent != "" {
			o.userAgent = agent
		}
	}
}

// New builds a Transport. The base URL is parsed once here.
func New(opts ...Option) (*Transport, error) {
	o := options{
		baseURL:   DefaultBaseURL,
		clock:     time.Now,
		logger:    DefaultLogger(),
		userAgent: defaultAgent,
	}
	for _, opt := range opts {
		opt(&o)
	}

	base, err := url.Parse(o.baseURL)
	if err != nil {
		return nil, &ConfigurationError{Op: "new", Reason: fmt.Sprintf("invalid base url %q: %v", o.baseURL, err)}
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, &ConfigurationError{Op: "new", Reason: fmt.Sprintf("base url %q must be http or https", o.baseURL)}
	}
	if base.Host == "" {
		return nil, &ConfigurationError{Op: "new", Reason: fmt.Sprintf("base url %q has no host", o.baseURL)}
	}
	base.Path = strings.TrimRight(base.Path, "/")
	base.RawQuery = ""

	return &Transport{
		baseURL:    base,
		creds:      o.creds,
		dispatcher: NewDispatcher(o.httpClient),
		recvWindow: o.recvWindow,
		timeout:    o.timeout,
		clock:      o.clock,
		logger:     o.logger,
		userAgent:  o.userAgent,
	}, nil
}

// Authenticated reports whether the transport holds credentials.
func (t *Transport) Authenticated() bool {
	return t.creds != nil
}

// BaseURL returns a copy of the configured REST root.
func (t *Transport) BaseURL() string {
	return t.baseURL.String()
}

// Now returns the transport clock reading used for timestamps.
func (t *Transport) Now() time.Time {
	return t.clock()
}

// CallOption adjusts a single call.
type CallOption func(*callOptions)

type callOptions struct {
	recvWindow int64
	timestamp  int64
	timeout    time.Duration
}

// WithRecvWindow overrides the recvWindow (milliseconds) for one signed call.
func WithRecvWindow(ms int64) CallOption {
	return func(c *callOptions) {
		c.recvWindow = ms
	}
}

// WithTimestamp pins the request timestamp (Unix milliseconds).
func WithTimestamp(ms int64) CallOption {
	return func(c *callOptions) {
		c.timestamp = ms
	}
}

// WithTimeout bounds one call, body read included. It replaces the
// transport's default timeout for that call.
func WithTimeout(d time.Duration) CallOption {
	return func(c *callOptions) {
		c.timeout = d
	}
}

// prepared is a request that is fully encoded and signed.
type prepared struct {
	req     *http.Request
	timeout time.Duration
}

// prepare encodes params, signs when required and builds the HTTP request.
// Nothing here touches the network.
func (t *Transport) prepare(ctx context.Context, method, path string, sec Security, params any, opts []CallOption) (*prepared, error) {
	co := callOptions{recvWindow: t.recvWindow, timeout: t.timeout}
	for _, opt := range opts {
		opt(&co)
	}

	if sec != Public && t.creds == nil {
		return nil, &ConfigurationError{Op: method + " " + path, Reason: fmt.Sprintf("%s endpoint requires credentials", sec)}
	}

	query, err := EncodeParams(params)
	if err != nil {
		return nil, err
	}
	if sec == Signed {
		ts := co.timestamp
		if ts == 0 {
			ts = t.clock().UnixMilli()
		}
		query, err = signQuery(t.creds, query, co.recvWindow, ts)
		if err != nil {
			return nil, err
		}
	}

	target := *t.baseURL
	target.Path = t.baseURL.Path + "/" + strings.TrimLeft(path, "/")

	var req *http.Request
	switch method {
	case http.MethodGet, http.MethodDelete:
		target.RawQuery = query
		req, err = http.NewRequestWithContext(ctx, method, target.String(), nil)
	case http.MethodPost, http.MethodPut:
		req, err = http.NewRequestWithContext(ctx, method, target.String(), strings.NewReader(query))
		if err == nil {
			req.Header.Set("Content-Type", formContentType)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported method %q", ErrInvalidParams, method)
	}
	if err != nil {
		return nil, fmt.Errorf("transport: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", t.userAgent)
	if sec != Public {
		req.Header.Set(APIKeyHeader, t.creds.APIKey())
	}
	return &prepared{req: req, timeout: co.timeout}, nil
}

func (t *Transport) logResponse(ctx context.Context, req *http.Request, resp *Response, err error) {
	fields := Fields{"method": req.Method, "path": req.URL.Path}
	if err != nil {
		t.logger.Error(ctx, err, fields)
		return
	}
	fields["status"] = resp.StatusCode
	fields["latency"] = resp.Latency.String()
	if w, ok := resp.UsedWeight("1m"); ok {
		fields["weight1m"] = w
	}
	t.logger.Debug(ctx, "binance request", fields)
}

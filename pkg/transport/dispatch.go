package transport

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Response is the raw outcome of one HTTP exchange. Body is fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Latency    time.Duration
}

// UsedWeight returns the X-MBX-USED-WEIGHT-<interval> counter, e.g. "1m".
func (r *Response) UsedWeight(interval string) (int, bool) {
	return r.headerInt("X-Mbx-Used-Weight-" + interval)
}

// OrderCount returns the X-MBX-ORDER-COUNT-<interval> counter, e.g. "10s".
func (r *Response) OrderCount(interval string) (int, bool) {
	return r.headerInt("X-Mbx-Order-Count-" + interval)
}

func (r *Response) headerInt(name string) (int, bool) {
	if r == nil || r.Header == nil {
		return 0, false
	}
	raw := strings.TrimSpace(r.Header.Get(name))
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Dispatcher sends prepared requests on their own goroutine. It does not
// queue, throttle, coalesce or retry.
type Dispatcher struct {
	httpClient *http.Client
}

// NewDispatcher wraps httpClient (http.DefaultClient when nil).
func NewDispatcher(httpClient *http.Client) *Dispatcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Dispatcher{httpClient: httpClient}
}

// Pending is a handle to an in-flight request.
type Pending struct {
	method string
	path   string
	cancel context.CancelFunc
	done   chan struct{}

	resp *Response
	err  error
}

// Dispatch starts req and returns immediately. A timeout > 0 bounds the whole
// exchange, body read included. Cancelling ctx aborts the request.
func (d *Dispatcher) Dispatch(ctx context.Context, req *http.Request, timeout time.Duration) *Pending {
	var (
		reqCtx context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		reqCtx, cancel = context.WithCancel(ctx)
	}

	p := &Pending{
		method: req.Method,
		path:   req.URL.Path,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go p.run(d.httpClient, req.WithContext(reqCtx))
	return p
}

func (p *Pending) run(client *http.Client, req *http.Request) {
	defer close(p.done)
	defer p.cancel()

	started := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		p.err = p.wrap(req.Context(), err)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.err = p.wrap(req.Context(), err)
		return
	}
	p.resp = &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		Latency:    time.Since(started),
	}
}

func (p *Pending) wrap(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	return &TransportError{Method: p.method, Path: p.path, Err: err}
}

// Done is closed once the request has resolved.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Cancel aborts the request if it is still in flight.
func (p *Pending) Cancel() {
	p.cancel()
}

// Await blocks until the request resolves or ctx ends. If ctx ends first the
// request is aborted and a TransportError wrapping ctx.Err() is returned.
func (p *Pending) Await(ctx context.Context) (*Response, error) {
	select {
	case <-p.done:
		return p.resp, p.err
	case <-ctx.Done():
		p.cancel()
		<-p.done
		if p.err == nil && p.resp != nil {
			return p.resp, nil
		}
		return nil, &TransportError{Method: p.method, Path: p.path, Err: ctx.Err()}
	}
}

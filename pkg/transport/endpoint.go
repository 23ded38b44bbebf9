package transport

import (
	"context"
	"net/http"
	"sync"
)

// Endpoint describes one exchange operation returning R. The parameter
// schema is whatever Go value the caller passes as params.
type Endpoint[R any] struct {
	Method   string
	Path     string
	Security Security
}

// Submit encodes and signs synchronously, then dispatches without blocking.
// A non-nil error means nothing was sent.
func (e Endpoint[R]) Submit(ctx context.Context, t *Transport, params any, opts ...CallOption) (*Future[R], error) {
	prep, err := t.prepare(ctx, e.Method, e.Path, e.Security, params, opts)
	if err != nil {
		return nil, err
	}
	return &Future[R]{
		transport: t,
		req:       prep.req,
		pending:   t.dispatcher.Dispatch(ctx, prep.req, prep.timeout),
	}, nil
}

// Call submits and waits for the decoded result.
func (e Endpoint[R]) Call(ctx context.Context, t *Transport, params any, opts ...CallOption) (R, error) {
	future, err := e.Submit(ctx, t, params, opts...)
	if err != nil {
		var zero R
		return zero, err
	}
	return future.Await(ctx)
}

// Future is the deferred result of a submitted call.
type Future[R any] struct {
	transport *Transport
	req       *http.Request
	pending   *Pending

	once   sync.Once
	result R
	resp   *Response
	err    error
}

// Await waits for the call and decodes the body into R. If ctx ends first the
// request is aborted. The outcome is memoised; later calls return it as is.
func (f *Future[R]) Await(ctx context.Context) (R, error) {
	resp, err := f.pending.Await(ctx)
	f.once.Do(func() {
		f.resp = resp
		f.transport.logResponse(ctx, f.req, resp, err)
		if err != nil {
			f.err = err
			return
		}
		f.result, f.err = decodeResponse[R](resp)
	})
	return f.result, f.err
}

// Done is closed when the underlying request resolves.
func (f *Future[R]) Done() <-chan struct{} {
	return f.pending.Done()
}

// Cancel aborts the call if still in flight.
func (f *Future[R]) Cancel() {
	f.pending.Cancel()
}

// Response exposes the raw response after Await, e.g. for rate-limit headers.
func (f *Future[R]) Response() *Response {
	return f.resp
}

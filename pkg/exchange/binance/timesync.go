package binance

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"binance-fapi/pkg/transport"
)

// ClockOffset tracks the difference between the exchange clock and the local
// clock. Use Now as the client clock so signed timestamps stay inside
// recvWindow on hosts with drift. Safe for concurrent use.
type ClockOffset struct {
	offset atomic.Int64 // nanoseconds, server minus local
	local  func() time.Time
}

// NewClockOffset returns an offset of zero against time.Now.
func NewClockOffset() *ClockOffset {
	return &ClockOffset{local: time.Now}
}

// Sync measures the server clock once. The server reading is assumed to be
// taken at the midpoint of the round trip.
func (o *ClockOffset) Sync(ctx context.Context, client *Client, opts ...transport.CallOption) (time.Duration, error) {
	sent := o.local()
	server, err := client.ServerTime(ctx, opts...)
	if err != nil {
		return 0, fmt.Errorf("binance: clock sync: %w", err)
	}
	received := o.local()
	midpoint := sent.Add(received.Sub(sent) / 2)
	offset := server.Sub(midpoint)
	o.offset.Store(int64(offset))
	return offset, nil
}

// Offset returns the last measured offset.
func (o *ClockOffset) Offset() time.Duration {
	return time.Duration(o.offset.Load())
}

// Now returns local time corrected by the offset.
func (o *ClockOffset) Now() time.Time {
	return o.local().Add(o.Offset())
}

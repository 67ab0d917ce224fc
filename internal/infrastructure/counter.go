package infrastructure

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel/metric"
)

// RequestCounter counts served stock-data requests for the lifetime of the process.
type RequestCounter struct {
	n       atomic.Int64
	counter metric.Int64Counter
}

// NewRequestCounter creates a counter that also feeds counter when non-nil.
func NewRequestCounter(counter metric.Int64Counter) *RequestCounter {
	return &RequestCounter{counter: counter}
}

// Increment adds one request and returns the new total.
func (c *RequestCounter) Increment(ctx context.Context) int64 {
	v := c.n.Add(1)
	if c.counter != nil {
		c.counter.Add(ctx, 1)
	}
	return v
}

// Count returns the current total.
func (c *RequestCounter) Count() int64 {
	return c.n.Load()
}

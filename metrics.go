package listgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordQuery is called after each page query.
	// returned is the number of items in the page, duration the time taken,
	// err is nil if successful.
	RecordQuery(returned int, duration time.Duration, err error)

	// RecordReplaceOrder is called after each order overlay replacement.
	// count is the number of ids in the new overlay.
	RecordReplaceOrder(count int, duration time.Duration, err error)

	// RecordReplaceSelection is called after each selection replacement.
	// count is the number of ids in the new selection.
	RecordReplaceSelection(count int, duration time.Duration, err error)

	// RecordSnapshot is called after each state snapshot attempt.
	RecordSnapshot(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordQuery(int, time.Duration, error)            {}
func (NoopMetricsCollector) RecordReplaceOrder(int, time.Duration, error)     {}
func (NoopMetricsCollector) RecordReplaceSelection(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSnapshot(time.Duration, error)              {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	QueryCount          atomic.Int64
	QueryErrors         atomic.Int64
	QueryTotalNanos     atomic.Int64
	QueryItemsReturned  atomic.Int64
	OrderReplaceCount   atomic.Int64
	OrderReplaceErrors  atomic.Int64
	SelectReplaceCount  atomic.Int64
	SelectReplaceErrors atomic.Int64
	SnapshotCount       atomic.Int64
	SnapshotErrors      atomic.Int64
	SnapshotTotalNanos  atomic.Int64
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(returned int, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	b.QueryItemsReturned.Add(int64(returned))
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

// RecordReplaceOrder implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReplaceOrder(count int, duration time.Duration, err error) {
	b.OrderReplaceCount.Add(1)
	if err != nil {
		b.OrderReplaceErrors.Add(1)
	}
}

// RecordReplaceSelection implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReplaceSelection(count int, duration time.Duration, err error) {
	b.SelectReplaceCount.Add(1)
	if err != nil {
		b.SelectReplaceErrors.Add(1)
	}
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(duration time.Duration, err error) {
	b.SnapshotCount.Add(1)
	b.SnapshotTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SnapshotErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		QueryCount:          b.QueryCount.Load(),
		QueryErrors:         b.QueryErrors.Load(),
		QueryAvgNanos:       b.getAvgQueryNanos(),
		QueryItemsReturned:  b.QueryItemsReturned.Load(),
		OrderReplaceCount:   b.OrderReplaceCount.Load(),
		OrderReplaceErrors:  b.OrderReplaceErrors.Load(),
		SelectReplaceCount:  b.SelectReplaceCount.Load(),
		SelectReplaceErrors: b.SelectReplaceErrors.Load(),
		SnapshotCount:       b.SnapshotCount.Load(),
		SnapshotErrors:      b.SnapshotErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgQueryNanos() int64 {
	count := b.QueryCount.Load()
	if count == 0 {
		return 0
	}
	return b.QueryTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	QueryCount          int64
	QueryErrors         int64
	QueryAvgNanos       int64
	QueryItemsReturned  int64
	OrderReplaceCount   int64
	OrderReplaceErrors  int64
	SelectReplaceCount  int64
	SelectReplaceErrors int64
	SnapshotCount       int64
	SnapshotErrors      int64
}

package prollytree

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives timing and outcome data for chunk store
// operations. Implement this to integrate with a monitoring system;
// NoopMetricsCollector is used when no collector is configured. Cache
// hit-rate accounting is a separate concern, covered by the BlockCache's
// own Stats method (store/cache) rather than duplicated here.
type MetricsCollector interface {
	// RecordRead is called after every ReadValue.
	RecordRead(duration time.Duration, err error)
	// RecordWrite is called after every WriteValue. deduped is true when
	// the chunk's hash already existed and no physical write occurred.
	RecordWrite(duration time.Duration, bytes int, deduped bool, err error)
}

// NoopMetricsCollector discards everything.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRead(time.Duration, error)             {}
func (NoopMetricsCollector) RecordWrite(time.Duration, int, bool, error) {}

// BasicMetricsCollector accumulates simple in-memory counters, useful for
// debugging without wiring up an external monitoring system.
type BasicMetricsCollector struct {
	ReadCount      atomic.Int64
	ReadErrors     atomic.Int64
	ReadTotalNanos atomic.Int64

	WriteCount      atomic.Int64
	WriteDeduped    atomic.Int64
	WriteErrors     atomic.Int64
	WriteTotalBytes atomic.Int64
	WriteTotalNanos atomic.Int64
}

func (b *BasicMetricsCollector) RecordRead(d time.Duration, err error) {
	b.ReadCount.Add(1)
	b.ReadTotalNanos.Add(d.Nanoseconds())
	if err != nil {
		b.ReadErrors.Add(1)
	}
}

func (b *BasicMetricsCollector) RecordWrite(d time.Duration, bytes int, deduped bool, err error) {
	b.WriteCount.Add(1)
	b.WriteTotalNanos.Add(d.Nanoseconds())
	b.WriteTotalBytes.Add(int64(bytes))
	if deduped {
		b.WriteDeduped.Add(1)
	}
	if err != nil {
		b.WriteErrors.Add(1)
	}
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ReadCount    int64
	ReadErrors   int64
	ReadAvgNanos int64

	WriteCount      int64
	WriteDeduped    int64
	WriteErrors     int64
	WriteTotalBytes int64
	WriteAvgNanos   int64
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	var readAvg, writeAvg int64
	if n := b.ReadCount.Load(); n > 0 {
		readAvg = b.ReadTotalNanos.Load() / n
	}
	if n := b.WriteCount.Load(); n > 0 {
		writeAvg = b.WriteTotalNanos.Load() / n
	}
	return BasicMetricsStats{
		ReadCount:       b.ReadCount.Load(),
		ReadErrors:      b.ReadErrors.Load(),
		ReadAvgNanos:    readAvg,
		WriteCount:      b.WriteCount.Load(),
		WriteDeduped:    b.WriteDeduped.Load(),
		WriteErrors:     b.WriteErrors.Load(),
		WriteTotalBytes: b.WriteTotalBytes.Load(),
		WriteAvgNanos:   writeAvg,
	}
}

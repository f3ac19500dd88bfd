package prollytree

import (
	"context"
	"log/slog"
	"time"

	"github.com/prollytree/prollytree/hash"
	"github.com/prollytree/prollytree/prolly"
)

type options struct {
	logger  *Logger
	metrics MetricsCollector
}

// Option configures NewInstrumentedStore.
type Option func(*options)

// WithLogger attaches a Logger. Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithLogLevel is a convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) { o.logger = NewTextLogger(level) }
}

// WithMetricsCollector attaches a MetricsCollector. Pass nil to disable
// metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) { o.metrics = mc }
}

func applyOptions(optFns []Option) options {
	o := options{logger: NoopLogger(), metrics: NoopMetricsCollector{}}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metrics == nil {
		o.metrics = NoopMetricsCollector{}
	}
	return o
}

// InstrumentedStore wraps a prolly.ValueReadWriter with logging and
// metrics around every ReadValue/WriteValue call, independent of which
// BlobStore, cache, or compression the inner store uses underneath.
type InstrumentedStore struct {
	inner   prolly.ValueReadWriter
	logger  *Logger
	metrics MetricsCollector
}

// NewInstrumentedStore wraps inner, applying opts.
func NewInstrumentedStore(inner prolly.ValueReadWriter, opts ...Option) *InstrumentedStore {
	o := applyOptions(opts)
	return &InstrumentedStore{inner: inner, logger: o.logger, metrics: o.metrics}
}

func (s *InstrumentedStore) ReadValue(ctx context.Context, h hash.Hash) (prolly.Chunk, error) {
	start := time.Now()
	c, err := s.inner.ReadValue(ctx, h)
	s.metrics.RecordRead(time.Since(start), err)
	if err != nil {
		s.logger.ErrorContext(ctx, "chunk read failed", "hash", h, "error", err)
	}
	return c, err
}

// WriteValue always reports deduped=false to RecordWrite/LogWrite: a
// generic prolly.ValueReadWriter doesn't tell this wrapper whether a
// write was physical or a no-op, only store.ChunkStore's own Has check
// knows that. Callers who need real dedup accounting should read it from
// the BlobStore or cache layer directly instead of from this wrapper.
func (s *InstrumentedStore) WriteValue(ctx context.Context, c prolly.Chunk) (hash.Ref, error) {
	start := time.Now()
	ref, err := s.inner.WriteValue(ctx, c)
	duration := time.Since(start)
	s.metrics.RecordWrite(duration, len(c.Data), false, err)
	s.logger.LogWrite(ctx, ref.TargetHash.String(), len(c.Data), false, err)
	return ref, err
}

package ntat

import (
	"crypto/rand"
	"io"
	"runtime"

	"go.uber.org/zap"
)

type options struct {
	rng        io.Reader
	logger     *zap.Logger
	audit      AuditEventHandler
	spent      SpentSet
	batchLimit int
}

// Option configures a Client or Server
type Option func(*options)

// WithRand sets the randomness source. Defaults to crypto/rand.
func WithRand(rng io.Reader) Option {
	return func(o *options) { o.rng = rng }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithAuditHandler sets the audit sink. Defaults to NullAuditHandler.
func WithAuditHandler(handler AuditEventHandler) Option {
	return func(o *options) { o.audit = handler }
}

// WithSpentSet sets the server's double-spend store. Defaults to a fresh
// MemorySpentSet.
func WithSpentSet(spent SpentSet) Option {
	return func(o *options) { o.spent = spent }
}

// WithBatchLimit bounds IssueBatch concurrency. Defaults to GOMAXPROCS.
func WithBatchLimit(n int) Option {
	return func(o *options) { o.batchLimit = n }
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.Reader
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.audit == nil {
		o.audit = &NullAuditHandler{}
	}
	if o.spent == nil {
		o.spent = NewMemorySpentSet()
	}
	if o.batchLimit <= 0 {
		o.batchLimit = runtime.GOMAXPROCS(0)
	}
	return o
}

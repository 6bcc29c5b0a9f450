package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/victoralfred/retail_analytics/internal/cache"
	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
	"github.com/victoralfred/retail_analytics/internal/metrics"
	"github.com/victoralfred/retail_analytics/internal/transport"
)

// Worker consumes requests from a connection sequentially. It owns its
// result cache; nothing else reads or writes it.
type Worker struct {
	conn       transport.WorkerConn
	dispatcher *Dispatcher
	cache      *cache.ResultCache
	cacheSize  int
	cacheTTL   time.Duration
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// Option configures a Worker
type Option func(*Worker)

// WithCache replaces the default result cache
func WithCache(c *cache.ResultCache) Option {
	return func(w *Worker) {
		w.cache = c
	}
}

// WithCacheConfig sizes the cache each worker creates for itself. Unlike
// WithCache it is safe to share between workers.
func WithCacheConfig(size int, ttl time.Duration) Option {
	return func(w *Worker) {
		w.cacheSize = size
		w.cacheTTL = ttl
	}
}

// WithLogger sets the worker logger
func WithLogger(logger *zap.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

// WithMetrics enables metric collection
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

// New creates a worker serving conn
func New(conn transport.WorkerConn, dispatcher *Dispatcher, opts ...Option) *Worker {
	if dispatcher == nil {
		dispatcher = NewDispatcher(nil)
	}
	w := &Worker{
		conn:       conn,
		dispatcher: dispatcher,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.cache == nil {
		w.cache = cache.NewResultCache(w.cacheSize, w.cacheTTL)
	}
	return w
}

// Cache returns the worker's result cache
func (w *Worker) Cache() *cache.ResultCache {
	return w.cache
}

// Run processes requests until the connection closes or ctx ends.
// A closed connection is a clean shutdown and returns nil.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("analytics worker started")
	defer w.logger.Info("analytics worker stopped")

	requests := w.conn.Requests()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req, ok := <-requests:
			if !ok {
				return nil
			}
			resp := w.Process(ctx, req)
			if err := w.conn.Reply(ctx, resp); err != nil {
				if errors.Is(err, transport.ErrConnClosed) {
					return nil
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.logger.Error("failed to deliver response",
					zap.String("request_id", req.RequestID),
					zap.String("operation", req.Type.String()),
					zap.Error(err),
				)
			}
		}
	}
}

// Process answers a single request, consulting the cache first when the
// request carries a cache key.
func (w *Worker) Process(ctx context.Context, req *analytics.Request) *analytics.Response {
	op := req.Type.String()

	if req.CacheKey != "" {
		if data, err := w.cache.Get(req.CacheKey); err == nil {
			w.metrics.CacheHit(op)
			w.logger.Debug("cache hit",
				zap.String("request_id", req.RequestID),
				zap.String("cache_key", req.CacheKey),
			)
			return analytics.NewResultResponse(req.RequestID, data, true)
		}
		w.metrics.CacheMiss(op)
	}

	start := time.Now()
	data, err := w.dispatcher.Dispatch(ctx, req.Type, req.Payload)
	w.metrics.ObserveCompute(op, time.Since(start))

	if err != nil {
		code := analytics.CodeCalculationFailed
		var de *DispatchError
		if errors.As(err, &de) {
			code = de.Code
		}
		w.logger.Warn("computation failed",
			zap.String("request_id", req.RequestID),
			zap.String("operation", op),
			zap.String("code", code),
			zap.Error(err),
		)
		return analytics.NewErrorResponse(req.RequestID, code, err.Error())
	}

	if req.CacheKey != "" {
		w.cache.Set(req.CacheKey, data)
	}
	return analytics.NewResultResponse(req.RequestID, data, false)
}

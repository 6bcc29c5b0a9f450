// Package app assembles the analytics engine from configuration
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/victoralfred/retail_analytics/internal/analytics/algorithms"
	"github.com/victoralfred/retail_analytics/internal/client"
	"github.com/victoralfred/retail_analytics/internal/config"
	"github.com/victoralfred/retail_analytics/internal/correlator"
	"github.com/victoralfred/retail_analytics/internal/metrics"
	"github.com/victoralfred/retail_analytics/internal/transport"
	"github.com/victoralfred/retail_analytics/internal/worker"
)

const workerRestartDelay = time.Second

// Engine is a wired correlator together with the client facade over it
type Engine struct {
	Client     *client.Client
	Correlator *correlator.Correlator
	Dispatcher *worker.Dispatcher

	closers []func() error
}

// NewEngine builds the engine for cfg.Engine.Transport. With the redis
// transport and EmbeddedWorker set, a worker runs in this process too.
func NewEngine(ctx context.Context, cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := NewDispatcher(cfg)
	e := &Engine{Dispatcher: dispatcher}

	var factory transport.Factory
	switch cfg.Engine.Transport {
	case config.TransportPipe, "":
		factory = worker.PipeFactory(dispatcher, cfg.Engine.PipeBuffer, workerOptions(cfg, logger, m)...)

	case config.TransportRedis:
		rdb := NewRedisClient(cfg.Redis)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		e.closers = append(e.closers, rdb.Close)

		opts := cfg.RedisOptions()
		opts.Logger = logger
		factory = func(ctx context.Context) (transport.ClientConn, error) {
			return transport.NewRedisClientConn(ctx, rdb, opts)
		}

		if cfg.Engine.EmbeddedWorker {
			workerCtx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				defer close(done)
				_ = ServeRedisWorker(workerCtx, rdb, cfg, dispatcher, logger, m)
			}()
			e.closers = append(e.closers, func() error {
				cancel()
				<-done
				return nil
			})
		}

	default:
		return nil, fmt.Errorf("unsupported engine transport %q", cfg.Engine.Transport)
	}

	e.Correlator = correlator.New(factory,
		correlator.WithTimeout(cfg.Engine.RequestTimeout),
		correlator.WithLogger(logger),
		correlator.WithMetrics(m),
	)
	e.Client = client.New(e.Correlator)
	return e, nil
}

// Close rejects pending requests, then releases the transport
func (e *Engine) Close() error {
	errs := []error{e.Client.Close()}
	// Embedded worker first, redis client last
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i]())
	}
	return errors.Join(errs...)
}

// NewDispatcher routes every operation to a library tuned by cfg.Algorithms
func NewDispatcher(cfg *config.Config) *worker.Dispatcher {
	return worker.NewDispatcher(algorithms.New(cfg.Algorithms))
}

// NewRedisClient creates a go-redis client from cfg
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func workerOptions(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) []worker.Option {
	return []worker.Option{
		worker.WithCacheConfig(cfg.Engine.CacheSize, cfg.Engine.CacheTTL),
		worker.WithLogger(logger.Named("worker")),
		worker.WithMetrics(m),
	}
}

// ServeRedisWorker consumes the request queue until ctx is done. A worker
// that fails is replaced after a short delay with a fresh cache.
func ServeRedisWorker(ctx context.Context, rdb redis.UniversalClient, cfg *config.Config, dispatcher *worker.Dispatcher, logger *zap.Logger, m *metrics.Metrics) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	redisOpts := cfg.RedisOptions()
	redisOpts.Logger = logger

	for {
		conn, err := transport.NewRedisWorkerConn(ctx, rdb, redisOpts)
		if err != nil {
			logger.Error("failed to start redis worker", zap.Error(err))
		} else {
			logger.Info("redis worker started", zap.String("queue", redisOpts.RequestQueueKey()))
			worker.Supervise(ctx, worker.New(conn, dispatcher, workerOptions(cfg, logger, m)...), conn)
			_ = conn.Close()
		}

		select {
		case <-ctx.Done():
			logger.Info("redis worker stopped")
			return nil
		case <-time.After(workerRestartDelay):
			logger.Warn("restarting redis worker")
		}
	}
}

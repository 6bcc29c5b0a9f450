package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

const (
	defaultRedisPrefix   = "analytics"
	defaultPollTimeout   = time.Second
	defaultReplyTTL      = time.Minute
	maxConsecutiveErrors = 5
	pollBackoff          = 200 * time.Millisecond
)

// RedisOptions configures the Redis list transport
type RedisOptions struct {
	// Prefix namespaces every key
	Prefix string
	// PollTimeout bounds a single BLPOP so shutdown is observed promptly
	PollTimeout time.Duration
	// ReplyTTL expires reply lists abandoned by a dead client
	ReplyTTL time.Duration
	Logger   *zap.Logger
}

func (o RedisOptions) withDefaults() RedisOptions {
	if o.Prefix == "" {
		o.Prefix = defaultRedisPrefix
	}
	if o.PollTimeout <= 0 {
		o.PollTimeout = defaultPollTimeout
	}
	if o.ReplyTTL <= 0 {
		o.ReplyTTL = defaultReplyTTL
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// RequestQueueKey is the list every worker pops requests from
func (o RedisOptions) RequestQueueKey() string {
	return o.withDefaults().Prefix + ":requests"
}

func (o RedisOptions) replyKey(clientID string) string {
	return o.withDefaults().Prefix + ":replies:" + clientID
}

type requestEnvelope struct {
	ReplyTo string          `json:"replyTo"`
	Request json.RawMessage `json:"request"`
}

type responseEnvelope struct {
	Response json.RawMessage `json:"response,omitempty"`
	Fatal    string          `json:"fatal,omitempty"`
}

// RedisClientConn pushes requests onto the shared queue and pops responses
// from a reply list owned by this connection.
type RedisClientConn struct {
	rdb      redis.UniversalClient
	opts     RedisOptions
	id       string
	replyKey string

	responses chan *analytics.Response
	failures  chan error
	failOnce  sync.Once

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewRedisClientConn verifies connectivity and starts the reply poller
func NewRedisClientConn(ctx context.Context, rdb redis.UniversalClient, opts RedisOptions) (*RedisClientConn, error) {
	opts = opts.withDefaults()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis transport unavailable: %w", err)
	}

	id := uuid.New().String()
	pollCtx, cancel := context.WithCancel(context.Background())
	c := &RedisClientConn{
		rdb:       rdb,
		opts:      opts,
		id:        id,
		replyKey:  opts.replyKey(id),
		responses: make(chan *analytics.Response),
		failures:  make(chan error, 1),
		cancel:    cancel,
	}
	c.wg.Add(1)
	go c.poll(pollCtx)
	return c, nil
}

// ID returns the connection id used in the reply list key
func (c *RedisClientConn) ID() string {
	return c.id
}

// Send implements ClientConn
func (c *RedisClientConn) Send(ctx context.Context, req *analytics.Request) error {
	raw, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	data, err := json.Marshal(requestEnvelope{ReplyTo: c.replyKey, Request: raw})
	if err != nil {
		return fmt.Errorf("failed to encode request envelope: %w", err)
	}
	if err := c.rdb.RPush(ctx, c.opts.RequestQueueKey(), data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue request: %w", err)
	}
	return nil
}

// Responses implements ClientConn
func (c *RedisClientConn) Responses() <-chan *analytics.Response {
	return c.responses
}

// Failures implements ClientConn
func (c *RedisClientConn) Failures() <-chan error {
	return c.failures
}

// Close stops polling and removes the reply list
func (c *RedisClientConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		c.wg.Wait()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err = c.rdb.Del(ctx, c.replyKey).Err()
	})
	return err
}

func (c *RedisClientConn) fail(err error) {
	c.failOnce.Do(func() {
		c.failures <- err
	})
}

func (c *RedisClientConn) poll(ctx context.Context) {
	defer c.wg.Done()
	defer close(c.responses)

	errCount := 0
	for {
		res, err := c.rdb.BLPop(ctx, c.opts.PollTimeout, c.replyKey).Result()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			errCount++
			c.opts.Logger.Warn("reply poll failed", zap.String("conn_id", c.id), zap.Error(err))
			if errCount >= maxConsecutiveErrors {
				c.fail(fmt.Errorf("%w: %v", ErrWorkerFailed, err))
				return
			}
			if !sleep(ctx, pollBackoff) {
				return
			}
			continue
		}
		errCount = 0

		var env responseEnvelope
		if err := json.Unmarshal([]byte(res[1]), &env); err != nil {
			c.opts.Logger.Warn("dropping malformed reply", zap.String("conn_id", c.id), zap.Error(err))
			continue
		}
		if env.Fatal != "" {
			c.fail(fmt.Errorf("%w: %s", ErrWorkerFailed, env.Fatal))
			return
		}
		var resp analytics.Response
		if err := json.Unmarshal(env.Response, &resp); err != nil {
			c.opts.Logger.Warn("dropping malformed response", zap.String("conn_id", c.id), zap.Error(err))
			continue
		}
		select {
		case c.responses <- &resp:
		case <-ctx.Done():
			return
		}
	}
}

// RedisWorkerConn pops requests from the shared queue and routes each
// response to the reply list of the client that sent it.
type RedisWorkerConn struct {
	rdb  redis.UniversalClient
	opts RedisOptions

	requests chan *analytics.Request

	mu     sync.Mutex
	routes map[string]string

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewRedisWorkerConn verifies connectivity and starts consuming the request queue
func NewRedisWorkerConn(ctx context.Context, rdb redis.UniversalClient, opts RedisOptions) (*RedisWorkerConn, error) {
	opts = opts.withDefaults()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis transport unavailable: %w", err)
	}

	pollCtx, cancel := context.WithCancel(context.Background())
	w := &RedisWorkerConn{
		rdb:      rdb,
		opts:     opts,
		requests: make(chan *analytics.Request),
		routes:   make(map[string]string),
		cancel:   cancel,
	}
	w.wg.Add(1)
	go w.poll(pollCtx)
	return w, nil
}

// Requests implements WorkerConn
func (w *RedisWorkerConn) Requests() <-chan *analytics.Request {
	return w.requests
}

// Reply implements WorkerConn
func (w *RedisWorkerConn) Reply(ctx context.Context, resp *analytics.Response) error {
	w.mu.Lock()
	replyTo, ok := w.routes[resp.RequestID]
	delete(w.routes, resp.RequestID)
	w.mu.Unlock()
	if !ok {
		return fmt.Errorf("no reply route for request %s", resp.RequestID)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	return w.push(ctx, replyTo, responseEnvelope{Response: raw})
}

// Fail notifies every client with an outstanding request that the worker died
func (w *RedisWorkerConn) Fail(err error) {
	w.mu.Lock()
	targets := make(map[string]struct{}, len(w.routes))
	for _, replyTo := range w.routes {
		targets[replyTo] = struct{}{}
	}
	w.routes = make(map[string]string)
	w.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for replyTo := range targets {
		if pushErr := w.push(ctx, replyTo, responseEnvelope{Fatal: err.Error()}); pushErr != nil {
			w.opts.Logger.Error("failed to publish worker failure",
				zap.String("reply_to", replyTo), zap.Error(pushErr))
		}
	}
	w.cancel()
}

// Close stops consuming the request queue
func (w *RedisWorkerConn) Close() error {
	w.closeOnce.Do(func() {
		w.cancel()
		w.wg.Wait()
	})
	return nil
}

func (w *RedisWorkerConn) push(ctx context.Context, replyTo string, env responseEnvelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode response envelope: %w", err)
	}
	pipe := w.rdb.TxPipeline()
	pipe.RPush(ctx, replyTo, data)
	pipe.Expire(ctx, replyTo, w.opts.ReplyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to deliver response: %w", err)
	}
	return nil
}

func (w *RedisWorkerConn) poll(ctx context.Context) {
	defer w.wg.Done()
	defer close(w.requests)

	queue := w.opts.RequestQueueKey()
	for {
		res, err := w.rdb.BLPop(ctx, w.opts.PollTimeout, queue).Result()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				w.opts.Logger.Warn("request poll failed", zap.String("queue", queue), zap.Error(err))
				if !sleep(ctx, pollBackoff) {
					return
				}
			}
			continue
		}

		var env requestEnvelope
		if err := json.Unmarshal([]byte(res[1]), &env); err != nil {
			w.opts.Logger.Warn("dropping malformed request envelope", zap.Error(err))
			continue
		}
		var req analytics.Request
		if err := json.Unmarshal(env.Request, &req); err != nil {
			w.opts.Logger.Warn("dropping malformed request", zap.String("reply_to", env.ReplyTo), zap.Error(err))
			continue
		}

		w.mu.Lock()
		w.routes[req.RequestID] = env.ReplyTo
		w.mu.Unlock()

		select {
		case w.requests <- &req:
		case <-ctx.Done():
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// Package correlator matches asynchronous worker responses to the requests
// that caused them. Each request gets a unique id, a pending entry and a
// deadline; the entry is settled exactly once by its response, its timeout,
// caller cancellation, or a fatal failure of the worker context.
package correlator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
	"github.com/victoralfred/retail_analytics/internal/metrics"
	"github.com/victoralfred/retail_analytics/internal/transport"
)

// DefaultTimeout bounds the wait for a single response
const DefaultTimeout = 30 * time.Second

// Result is a settled successful request
type Result struct {
	Data      json.RawMessage
	FromCache bool
	RequestID string
}

type outcome struct {
	result *Result
	err    error
	label  string
}

type pendingRequest struct {
	op    analytics.OperationKind
	done  chan outcome
	timer *time.Timer
}

// Correlator owns the pending request table and the worker connection.
// The connection is created on first use and recreated after a fatal failure.
type Correlator struct {
	factory transport.Factory
	timeout time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
	newID   func() string

	mu      sync.Mutex
	conn    transport.ClientConn
	pending map[string]*pendingRequest
	closed  bool
}

// Option configures a Correlator
type Option func(*Correlator)

// WithTimeout sets the per-request deadline
func WithTimeout(d time.Duration) Option {
	return func(c *Correlator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Correlator) {
		c.logger = logger
	}
}

// WithMetrics enables metric collection
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Correlator) {
		c.metrics = m
	}
}

// WithIDGenerator replaces the request id generator
func WithIDGenerator(gen func() string) Option {
	return func(c *Correlator) {
		c.newID = gen
	}
}

// New creates a correlator that obtains worker connections from factory
func New(factory transport.Factory, opts ...Option) *Correlator {
	c := &Correlator{
		factory: factory,
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
		newID:   NewRequestID,
		pending: make(map[string]*pendingRequest),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewRequestID returns a base 36 millisecond timestamp joined to a random suffix
func NewRequestID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 36) + "-" + uuid.NewString()
}

// Start creates the worker context ahead of the first request
func (c *Correlator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return analytics.NewEngineError(analytics.KindClosed, "", "correlator is closed")
	}
	_, err := c.ensureConn(ctx, "")
	return err
}

// Pending returns the number of requests awaiting a response
func (c *Correlator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Send runs kind over payload in the worker context and returns the encoded result
func (c *Correlator) Send(ctx context.Context, kind analytics.OperationKind, payload any, cacheKey string) (json.RawMessage, error) {
	res, err := c.Do(ctx, kind, payload, cacheKey)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// Do is Send that also reports whether the result came from the cache
func (c *Correlator) Do(ctx context.Context, kind analytics.OperationKind, payload any, cacheKey string) (*Result, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		e := analytics.NewEngineError(analytics.KindComputation, kind, "failed to encode payload").WithCause(err)
		e.Code = analytics.CodeInvalidPayload
		return nil, e
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, analytics.NewEngineError(analytics.KindClosed, kind, "correlator is closed")
	}
	conn, err := c.ensureConn(ctx, kind)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}

	id := c.uniqueID()
	p := &pendingRequest{op: kind, done: make(chan outcome, 1)}
	p.timer = time.AfterFunc(c.timeout, func() {
		c.settle(id, outcome{
			err: analytics.NewEngineError(analytics.KindTimeout, kind,
				fmt.Sprintf("no response after %s", c.timeout)).WithRequestID(id),
			label: metrics.OutcomeTimeout,
		})
	})
	c.pending[id] = p
	c.metrics.SetPending(len(c.pending))
	c.mu.Unlock()

	req := &analytics.Request{Type: kind, Payload: raw, RequestID: id, CacheKey: cacheKey}
	if err := conn.Send(ctx, req); err != nil {
		c.settle(id, c.sendFailure(kind, id, err))
	}

	select {
	case out := <-p.done:
		return out.result, out.err
	case <-ctx.Done():
		c.settle(id, outcome{
			err: analytics.NewEngineError(analytics.KindCanceled, kind, "request canceled by caller").
				WithRequestID(id).WithCause(ctx.Err()),
			label: metrics.OutcomeCancel,
		})
		out := <-p.done
		return out.result, out.err
	}
}

// Call sends a request and decodes the result into T
func Call[T any](ctx context.Context, c *Correlator, kind analytics.OperationKind, payload any, cacheKey string) (T, error) {
	var out T
	data, err := c.Send(ctx, kind, payload, cacheKey)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		e := analytics.NewEngineError(analytics.KindComputation, kind, "failed to decode result").WithCause(err)
		e.Code = analytics.CodeEncodingFailed
		return out, e
	}
	return out, nil
}

// CancelAll rejects every pending request. The worker context stays up and
// any response it still produces for them is discarded.
func (c *Correlator) CancelAll() int {
	drained := c.drain()
	for id, p := range drained {
		p.done <- outcome{
			err: analytics.NewEngineError(analytics.KindCanceled, p.op, "request canceled").WithRequestID(id),
		}
		c.metrics.RequestCompleted(p.op.String(), metrics.OutcomeCancel)
	}
	if len(drained) > 0 {
		c.logger.Info("canceled pending analytics requests", zap.Int("count", len(drained)))
	}
	return len(drained)
}

// Close terminates the worker context, rejects every pending request and
// refuses further sends.
func (c *Correlator) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	var err error
	if conn != nil {
		err = conn.Close()
	}
	for id, p := range c.drain() {
		p.done <- outcome{
			err: analytics.NewEngineError(analytics.KindClosed, p.op, "correlator closed").WithRequestID(id),
		}
		c.metrics.RequestCompleted(p.op.String(), metrics.OutcomeClosed)
	}
	return err
}

// ensureConn must be called with c.mu held
func (c *Correlator) ensureConn(ctx context.Context, kind analytics.OperationKind) (transport.ClientConn, error) {
	if c.conn != nil {
		return c.conn, nil
	}
	conn, err := c.factory(ctx)
	if err != nil {
		c.logger.Error("failed to create analytics worker context", zap.Error(err))
		return nil, analytics.NewEngineError(analytics.KindContextFailure, kind,
			"failed to create worker context").WithCause(err)
	}
	c.conn = conn
	c.metrics.ContextStarted()
	c.logger.Info("analytics worker context created")
	go c.listen(conn)
	return conn, nil
}

// uniqueID must be called with c.mu held
func (c *Correlator) uniqueID() string {
	for {
		id := c.newID()
		if _, taken := c.pending[id]; !taken {
			return id
		}
	}
}

func (c *Correlator) listen(conn transport.ClientConn) {
	responses := conn.Responses()
	failures := conn.Failures()
	for {
		select {
		case resp, ok := <-responses:
			if !ok {
				c.connLost(conn, transport.ErrConnClosed)
				return
			}
			c.deliver(resp)
		case err := <-failures:
			c.connLost(conn, err)
			return
		}
	}
}

func (c *Correlator) deliver(resp *analytics.Response) {
	c.mu.Lock()
	p, ok := c.pending[resp.RequestID]
	c.mu.Unlock()
	if !ok {
		c.logger.Debug("discarding orphaned response", zap.String("request_id", resp.RequestID))
		c.metrics.OrphanedResponse()
		return
	}

	var out outcome
	switch resp.Type {
	case analytics.ResponseResult:
		out = outcome{
			result: &Result{Data: resp.Payload, FromCache: resp.FromCache, RequestID: resp.RequestID},
			label:  metrics.OutcomeResult,
		}
	default:
		out = outcome{err: analytics.ErrorFromResponse(p.op, resp), label: metrics.OutcomeError}
	}
	if !c.settle(resp.RequestID, out) {
		c.metrics.OrphanedResponse()
	}
}

// connLost handles an abnormal end of conn. Every pending request is
// rejected and the next Send creates a fresh context.
func (c *Correlator) connLost(conn transport.ClientConn, cause error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.mu.Unlock()

	if err := conn.Close(); err != nil {
		c.logger.Warn("failed to close dead worker connection", zap.Error(err))
	}

	drained := c.drain()
	c.logger.Error("analytics worker context failed",
		zap.Error(cause),
		zap.Int("rejected", len(drained)),
	)
	c.metrics.ContextFailed()
	for id, p := range drained {
		p.done <- outcome{
			err: analytics.NewEngineError(analytics.KindContextFailure, p.op, "worker context failed").
				WithRequestID(id).WithCause(cause),
		}
		c.metrics.RequestCompleted(p.op.String(), metrics.OutcomeFailure)
	}
}

// settle removes id from the table and delivers out. It reports false when
// the request was already settled.
func (c *Correlator) settle(id string, out outcome) bool {
	c.mu.Lock()
	p, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
		c.metrics.SetPending(len(c.pending))
	}
	c.mu.Unlock()
	if !ok {
		return false
	}
	p.timer.Stop()
	p.done <- out
	c.metrics.RequestCompleted(p.op.String(), out.label)
	return true
}

// drain empties the pending table and stops every timer
func (c *Correlator) drain() map[string]*pendingRequest {
	c.mu.Lock()
	drained := c.pending
	c.pending = make(map[string]*pendingRequest)
	c.metrics.SetPending(0)
	c.mu.Unlock()

	for _, p := range drained {
		p.timer.Stop()
	}
	return drained
}

func (c *Correlator) sendFailure(kind analytics.OperationKind, id string, err error) outcome {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return outcome{
			err:   analytics.NewEngineError(analytics.KindCanceled, kind, "request canceled by caller").WithRequestID(id).WithCause(err),
			label: metrics.OutcomeCancel,
		}
	default:
		return outcome{
			err:   analytics.NewEngineError(analytics.KindContextFailure, kind, "failed to reach worker context").WithRequestID(id).WithCause(err),
			label: metrics.OutcomeFailure,
		}
	}
}

package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

// DefaultPipeBuffer is the number of encoded messages a pipe holds per direction
const DefaultPipeBuffer = 64

// Pipe is an in-process connection. Both directions carry JSON bytes, so
// neither side ever observes the other's memory.
type Pipe struct {
	requests  chan []byte
	responses chan []byte

	decodedRequests  chan *analytics.Request
	decodedResponses chan *analytics.Response

	failures chan error
	dead     chan struct{}
	done     chan struct{}

	failOnce  sync.Once
	closeOnce sync.Once
	dropped   atomic.Int64
}

// NewPipe creates a connected pipe and starts its decoders
func NewPipe(buffer int) *Pipe {
	if buffer <= 0 {
		buffer = DefaultPipeBuffer
	}
	p := &Pipe{
		requests:         make(chan []byte, buffer),
		responses:        make(chan []byte, buffer),
		decodedRequests:  make(chan *analytics.Request),
		decodedResponses: make(chan *analytics.Response),
		failures:         make(chan error, 1),
		dead:             make(chan struct{}),
		done:             make(chan struct{}),
	}
	go p.decodeRequests()
	go p.decodeResponses()
	return p
}

// Client returns the caller's end
func (p *Pipe) Client() ClientConn {
	return pipeClient{p}
}

// Worker returns the worker's end
func (p *Pipe) Worker() WorkerConn {
	return pipeWorker{p}
}

// Dropped returns the number of messages that failed to decode
func (p *Pipe) Dropped() int64 {
	return p.dropped.Load()
}

func (p *Pipe) decodeRequests() {
	defer close(p.decodedRequests)
	for {
		select {
		case <-p.done:
			return
		case data := <-p.requests:
			var req analytics.Request
			if err := json.Unmarshal(data, &req); err != nil {
				p.dropped.Add(1)
				continue
			}
			select {
			case p.decodedRequests <- &req:
			case <-p.done:
				return
			}
		}
	}
}

func (p *Pipe) decodeResponses() {
	defer close(p.decodedResponses)
	for {
		select {
		case <-p.done:
			return
		case data := <-p.responses:
			var resp analytics.Response
			if err := json.Unmarshal(data, &resp); err != nil {
				// The pending request times out instead
				p.dropped.Add(1)
				continue
			}
			select {
			case p.decodedResponses <- &resp:
			case <-p.done:
				return
			}
		}
	}
}

func (p *Pipe) fail(err error) {
	p.failOnce.Do(func() {
		p.failures <- fmt.Errorf("%w: %v", ErrWorkerFailed, err)
		close(p.dead)
	})
}

func (p *Pipe) close() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
}

func push(ctx context.Context, p *Pipe, ch chan<- []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	select {
	case <-p.done:
		return ErrConnClosed
	case <-p.dead:
		return ErrWorkerFailed
	default:
	}
	select {
	case ch <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return ErrConnClosed
	case <-p.dead:
		return ErrWorkerFailed
	}
}

type pipeClient struct {
	p *Pipe
}

func (c pipeClient) Send(ctx context.Context, req *analytics.Request) error {
	return push(ctx, c.p, c.p.requests, req)
}

func (c pipeClient) Responses() <-chan *analytics.Response {
	return c.p.decodedResponses
}

func (c pipeClient) Failures() <-chan error {
	return c.p.failures
}

func (c pipeClient) Close() error {
	c.p.close()
	return nil
}

type pipeWorker struct {
	p *Pipe
}

func (w pipeWorker) Requests() <-chan *analytics.Request {
	return w.p.decodedRequests
}

func (w pipeWorker) Reply(ctx context.Context, resp *analytics.Response) error {
	return push(ctx, w.p, w.p.responses, resp)
}

func (w pipeWorker) Fail(err error) {
	w.p.fail(err)
}

// Package transport carries analytics requests and responses between the
// calling context and the isolated worker context. Messages cross the
// boundary as encoded bytes, never as shared memory.
package transport

import (
	"context"
	"errors"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

var (
	// ErrConnClosed is returned when using a connection after Close
	ErrConnClosed = errors.New("transport connection closed")

	// ErrWorkerFailed is delivered on Failures when the worker context dies
	ErrWorkerFailed = errors.New("worker context failed")
)

// ClientConn is the caller's end of a worker connection
type ClientConn interface {
	// Send delivers a request to the worker context
	Send(ctx context.Context, req *analytics.Request) error
	// Responses yields decoded responses in arrival order. It is closed on Close.
	Responses() <-chan *analytics.Response
	// Failures yields at most one fatal error of the worker context
	Failures() <-chan error
	// Close releases the connection
	Close() error
}

// WorkerConn is the worker's end of a connection
type WorkerConn interface {
	// Requests yields decoded requests. It is closed when the client side closes.
	Requests() <-chan *analytics.Request
	// Reply delivers a response to the caller
	Reply(ctx context.Context, resp *analytics.Response) error
	// Fail reports a fatal error, after which the worker context is dead
	Fail(err error)
}

// Factory creates a fresh client connection together with its worker context
type Factory func(ctx context.Context) (ClientConn, error)

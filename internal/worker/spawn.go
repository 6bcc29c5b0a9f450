package worker

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/victoralfred/retail_analytics/internal/transport"
)

// Spawn starts a worker goroutine behind a fresh in-process pipe holding
// buffer messages per direction and returns the caller's end. Closing the
// returned connection stops the worker. If the worker exits abnormally the
// failure surfaces on the connection's Failures.
func Spawn(dispatcher *Dispatcher, buffer int, opts ...Option) transport.ClientConn {
	pipe := transport.NewPipe(buffer)
	w := New(pipe.Worker(), dispatcher, opts...)
	go Supervise(context.Background(), w, pipe.Worker())
	return pipe.Client()
}

// PipeFactory creates in-process worker contexts on demand. Every context
// gets its own worker and therefore its own cache; pass WithCacheConfig rather
// than WithCache to size it.
func PipeFactory(dispatcher *Dispatcher, buffer int, opts ...Option) transport.Factory {
	return func(context.Context) (transport.ClientConn, error) {
		// The worker outlives the request that triggered its creation
		return Spawn(dispatcher, buffer, opts...), nil
	}
}

// Supervise runs w and reports any abnormal exit through conn.Fail
func Supervise(ctx context.Context, w *Worker, conn transport.WorkerConn) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("analytics worker crashed", zap.Any("panic", r))
			conn.Fail(fmt.Errorf("worker panic: %v", r))
		}
	}()

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		w.logger.Error("analytics worker exited", zap.Error(err))
		conn.Fail(err)
	}
}

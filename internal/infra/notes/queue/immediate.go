package queue

import (
	"context"

	domain "github.com/clinscribe/intake/internal/domain/notes"
)

// ImmediateQueue calls the handler in the background on enqueue.
type ImmediateQueue struct {
	handler Handler
}

// NewImmediateQueue constructs the queue.
func NewImmediateQueue(handler Handler) *ImmediateQueue {
	return &ImmediateQueue{handler: handler}
}

// SetHandler replaces the handler used for queued jobs.
func (q *ImmediateQueue) SetHandler(handler Handler) {
	q.handler = handler
}

// Enqueue invokes the handler asynchronously. The handler outlives the
// caller's request, so it must not inherit the caller's cancellation.
func (q *ImmediateQueue) Enqueue(ctx context.Context, name string, payload any) error {
	typed, ok := payload.(map[string]any)
	if !ok {
		typed = map[string]any{}
	}
	if q.handler == nil {
		return nil
	}
	go q.handler(context.WithoutCancel(ctx), name, typed)
	return nil
}

// Close is a no-op because the queue holds no resources.
func (q *ImmediateQueue) Close() {}

var _ domain.JobQueue = (*ImmediateQueue)(nil)
var _ HandlerQueue = (*ImmediateQueue)(nil)

package publisher

import (
	"context"
	"sync"

	"clinica/pkg/platform/audit"
)

// Publisher decouples event emission from persistence. In sync mode Emit
// writes straight to the store; with an async buffer events are handed to a
// background drain goroutine and Emit never blocks the request path.
type Publisher struct {
	store audit.Store

	mu     sync.Mutex
	buffer chan audit.Event
	done   chan struct{}
	closed bool
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous emission with the given buffer size.
// When the buffer is full events are dropped rather than blocking callers;
// the audit trail is best-effort by design on the hot path.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.buffer = make(chan audit.Event, size)
		}
	}
}

// NewPublisher creates a publisher backed by the given store.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.done = make(chan struct{})
		go p.drain()
	}
	return p
}

// Emit records an event. In async mode a full buffer drops the event.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if p.buffer == nil {
		return p.store.Append(ctx, event)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	select {
	case p.buffer <- event:
	default:
		// Buffer full; drop instead of stalling the request.
	}
	return nil
}

// ListBySubject exposes the underlying store for read paths.
func (p *Publisher) ListBySubject(ctx context.Context, subject string) ([]audit.Event, error) {
	return p.store.ListBySubject(ctx, subject)
}

// Close stops the drain goroutine, flushing any buffered events first.
func (p *Publisher) Close() {
	if p.buffer == nil {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.buffer)
	p.mu.Unlock()
	<-p.done
}

func (p *Publisher) drain() {
	defer close(p.done)
	for event := range p.buffer {
		// Persistence errors are swallowed here; the store is responsible
		// for its own logging. Audit must never take the service down.
		_ = p.store.Append(context.Background(), event)
	}
}

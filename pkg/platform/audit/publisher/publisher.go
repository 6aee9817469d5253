// Package publisher emits audit events to a Store, either synchronously or
// through a buffered channel drained by a background goroutine.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	id "faircircle/pkg/domain"
	audit "faircircle/pkg/platform/audit"
)

// ErrBufferFull is returned when the async buffer cannot accept the event.
var ErrBufferFull = errors.New("audit buffer full")

// ErrClosed is returned by Emit once the publisher has been closed.
var ErrClosed = errors.New("audit publisher closed")

// Publisher fans audit events into a Store. In sync mode Emit blocks on the
// store write; with WithAsyncBuffer it enqueues and a worker goroutine
// persists in the background. Close drains the buffer before returning.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	inbox  chan audit.Event
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	once   sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables async mode with the given channel capacity.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan audit.Event, size)
	}
}

// WithLogger sets the logger used for dropped events and store failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher constructs a publisher writing to store.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an audit event. A zero timestamp is stamped with the current
// time. In async mode a full buffer drops the event rather than blocking the
// request path.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}

	// The read lock covers the send so Close cannot close the channel
	// while an Emit is in flight; late emits during shutdown are dropped
	// instead of panicking.
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	select {
	case p.inbox <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.logger.Warn("audit event dropped", "action", event.Action, "circle_id", event.CircleID)
		return ErrBufferFull
	}
}

// List returns events recorded for a circle.
func (p *Publisher) List(ctx context.Context, circleID id.CircleID) ([]audit.Event, error) {
	return p.store.ListByCircle(ctx, circleID)
}

// Close stops the background worker after draining buffered events.
// Subsequent Emit calls return ErrClosed.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.inbox != nil {
			p.mu.Lock()
			p.closed = true
			close(p.inbox)
			p.mu.Unlock()
			p.wg.Wait()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.inbox {
		if err := p.store.Append(context.Background(), event); err != nil {
			p.logger.Error("audit append failed", "action", event.Action, "error", err)
		}
	}
}

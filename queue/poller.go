package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/arcflow/relay/internal/clockwork"
	"github.com/arcflow/relay/internal/errs"
	"github.com/arcflow/relay/internal/telemetry"
)

// Poller is a background worker that drains a Reader and invokes a
// handler for every message. Construction fails if the reader is expired
// or the handler is nil.
type Poller[T any] struct {
	reader  *Reader[T]
	handler func(T)
	clock   clockwork.Clock

	polling atomic.Bool
	errMu   sync.Mutex
	lastErr error

	stopCh chan struct{}
	doneCh chan struct{}
}

// PollerOption configures an optional aspect of a Poller at construction.
type PollerOption func(*pollerConfig)

type pollerConfig struct {
	clock clockwork.Clock
}

// WithClock overrides the backoff Clock used between empty-queue polls.
func WithClock(c clockwork.Clock) PollerOption {
	return func(cfg *pollerConfig) { cfg.clock = c }
}

// NewPoller spawns a background worker draining reader into handler. It
// fails with errs.InvalidArgument if reader is expired or handler is nil.
func NewPoller[T any](reader *Reader[T], handler func(T), opts ...PollerOption) (*Poller[T], error) {
	if reader == nil || reader.Expired() {
		return nil, fmt.Errorf("%w: expired reader", errs.InvalidArgument)
	}
	if handler == nil {
		return nil, fmt.Errorf("%w: nil handler", errs.InvalidArgument)
	}

	cfg := pollerConfig{clock: clockwork.Default}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Poller[T]{
		reader:  reader,
		handler: handler,
		clock:   cfg.clock,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	p.polling.Store(true)
	go p.poll()
	return p, nil
}

func (p *Poller[T]) poll() {
	defer close(p.doneCh)
	_, end := telemetry.Start(context.Background(), "queue.Poller.poll")
	defer end(nil)

	for p.polling.Load() {
		select {
		case <-p.stopCh:
			return
		default:
		}

		empty, err := p.reader.Empty()
		if err != nil {
			p.fail(err)
			return
		}
		if empty {
			p.clock.Sleep(0)
			continue
		}

		msg, err := p.reader.Dequeue()
		if err != nil {
			p.fail(err)
			return
		}
		if fault := p.invoke(msg); fault != nil {
			p.fail(fault)
			return
		}
	}
}

func (p *Poller[T]) invoke(msg T) (fault error) {
	defer func() {
		if r := recover(); r != nil {
			fault = &errs.CallbackFault{Callback: "poller handler", Recovered: r}
		}
	}()
	p.handler(msg)
	return nil
}

func (p *Poller[T]) fail(err error) {
	p.errMu.Lock()
	p.lastErr = err
	p.errMu.Unlock()
	p.polling.Store(false)
}

// Polling reports whether the worker is still running.
func (p *Poller[T]) Polling() bool {
	return p.polling.Load()
}

// Err returns the last error captured by the worker, or nil if none.
func (p *Poller[T]) Err() error {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.lastErr
}

// Stop requests the worker to exit and blocks until it has. Safe to call
// more than once.
func (p *Poller[T]) Stop() {
	if p.polling.CompareAndSwap(true, false) {
		close(p.stopCh)
	}
	<-p.doneCh
}

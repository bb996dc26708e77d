package queue

import "github.com/arcflow/relay/observable"

// Observer binds a Poller to an Observable: every message dequeued from
// reader is fanned out to every attached observable.Observer[T].
type Observer[T any] struct {
	observable *observable.Observable[T]
	poller     *Poller[T]
}

// NewObserver constructs an Observer draining reader and notifying
// observers as each message arrives. It fails under the same conditions as
// NewPoller (expired reader) and Observable.Attach (a nil observer in
// observers).
func NewObserver[T any](reader *Reader[T], observers ...observable.Observer[T]) (*Observer[T], error) {
	o := observable.New[T]()
	for _, obs := range observers {
		if err := o.Attach(obs); err != nil {
			return nil, err
		}
	}

	poller, err := NewPoller(reader, o.Notify)
	if err != nil {
		return nil, err
	}

	return &Observer[T]{observable: o, poller: poller}, nil
}

// Attach registers observer to receive future notifications.
func (qo *Observer[T]) Attach(observer observable.Observer[T]) error {
	return qo.observable.Attach(observer)
}

// Detach removes observer from future notifications.
func (qo *Observer[T]) Detach(observer observable.Observer[T]) error {
	return qo.observable.Detach(observer)
}

// Polling reports whether the underlying poller is still running.
func (qo *Observer[T]) Polling() bool {
	return qo.poller.Polling()
}

// Err returns the underlying poller's last captured error, if any.
func (qo *Observer[T]) Err() error {
	return qo.poller.Err()
}

// Stop stops the underlying poller and blocks until its worker has exited,
// so no observer is notified after Stop returns.
func (qo *Observer[T]) Stop() {
	qo.poller.Stop()
}

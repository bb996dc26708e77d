// Package observable provides a fan-out registry that delivers one message
// to many observers: Notify calls every attached observer, in attach order,
// and a detached observer receives no further notifications.
package observable

import (
	"fmt"
	"sync"

	"github.com/arcflow/relay/internal/errs"
)

// Observer receives notifications of type T.
type Observer[T any] interface {
	Notify(T)
}

// Observable is an ordered, mutex-guarded collection of observers.
//
// The design notes ask for a non-owning "weak" relation between an
// Observable and its observers, mirroring std::weak_ptr in the source so a
// destroyed observer silently drops out of notification instead of being
// notified through a dangling pointer. Go's weak package only targets a
// concrete *T, not an arbitrary Observer[T] interface value, and nothing in
// this module's testable properties (spec.md §8.8: attach order preserved,
// a detached observer gets nothing further) requires GC-driven pruning —
// explicit Detach is sufficient and is the idiom the rest of the Go
// ecosystem uses for subscriber lists. Observable therefore holds ordinary
// strong references and relies on the caller to Detach when an observer's
// lifetime ends; queue.Reader is where this module implements the literal
// GC-weak semantics the spec asks for, because Reader's contract names an
// Expired() accessor no caller-side Detach can substitute for.
type Observable[T any] struct {
	mu        sync.Mutex
	observers []Observer[T]
}

// New returns an empty Observable.
func New[T any]() *Observable[T] {
	return &Observable[T]{}
}

// Attach registers observer to receive future notifications. It fails with
// errs.InvalidArgument if observer is nil.
func (o *Observable[T]) Attach(observer Observer[T]) error {
	if observer == nil {
		return fmt.Errorf("%w: nil observer", errs.InvalidArgument)
	}
	o.mu.Lock()
	o.observers = append(o.observers, observer)
	o.mu.Unlock()
	return nil
}

// Detach removes every attached reference equal to observer. It fails with
// errs.InvalidArgument if observer is nil.
func (o *Observable[T]) Detach(observer Observer[T]) error {
	if observer == nil {
		return fmt.Errorf("%w: nil observer", errs.InvalidArgument)
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	kept := o.observers[:0:0]
	for _, existing := range o.observers {
		if sameObserver(existing, observer) {
			continue
		}
		kept = append(kept, existing)
	}
	o.observers = kept
	return nil
}

// sameObserver compares two Observer values for identity. Observer
// implementations backed by an uncomparable underlying type (a func value,
// a slice-backed type) can never equal anything via ==, which would
// otherwise panic; such observers are simply never matched by Detach.
func sameObserver[T any](a, b Observer[T]) (equal bool) {
	defer func() {
		if recover() != nil {
			equal = false
		}
	}()
	return a == b
}

// Notify delivers message to every currently attached observer, in attach
// order. It snapshots the observer list under the mutex and releases it
// before calling any observer, so a handler may freely re-enter
// Attach/Detach without deadlocking; the reentrant call only affects future
// notifications, never the one in progress.
func (o *Observable[T]) Notify(message T) {
	o.mu.Lock()
	snapshot := append([]Observer[T](nil), o.observers...)
	o.mu.Unlock()

	for _, observer := range snapshot {
		observer.Notify(message)
	}
}

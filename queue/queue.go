// Package queue provides the typed, thread-safe FIFO that connects devices
// and the weak reader handles and background poller built on top of it.
package queue

import (
	"fmt"
	"sync"
	"weak"

	"github.com/arcflow/relay/internal/errs"
)

// Queue is a thread-safe unbounded FIFO of a single element type. Its
// identity is preserved across every Reader that attaches to it; Readers
// never own it.
//
// The source guards its concurrent queue with a lock-free
// moodycamel::ConcurrentQueue. The teacher's own queue.Queue took a related
// shortcut — swapping a whole backing slice under atomic.Pointer — but that
// load/mutate/store is a plain race under more than one concurrent writer.
// A short mutex section gives the same "never blocks on another goroutine's
// I/O" guarantee spec.md §5 asks for, correctly, for true multi-producer use.
type Queue[T any] struct {
	mu       sync.Mutex
	elements []T
}

// New creates an empty Queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{}
}

// Enqueue appends v to the tail of the queue.
func (q *Queue[T]) Enqueue(v T) {
	q.mu.Lock()
	q.elements = append(q.elements, v)
	q.mu.Unlock()
}

// TryDequeue removes and returns the head element. ok is false if the queue
// was empty.
func (q *Queue[T]) TryDequeue() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.elements) == 0 {
		return v, false
	}
	v = q.elements[0]
	q.elements = q.elements[1:]
	return v, true
}

// Size returns an approximate count of queued elements. Callers must never
// treat Size() == 0 as a guarantee of emptiness under contention;
// TryDequeue is authoritative.
func (q *Queue[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.elements)
}

// Empty reports Size() == 0, with the same non-guarantee under contention.
func (q *Queue[T]) Empty() bool {
	return q.Size() == 0
}

// Reader is a weak, non-owning handle to a Queue. It detects the queue's
// collection via the Go weak package rather than hand-rolled reference
// counting: Connect stores a weak.Pointer to the queue, and every accessor
// resolves it on demand.
type Reader[T any] struct {
	mu   sync.Mutex
	weak weak.Pointer[Queue[T]]
	// bound is true between Connect and Disconnect. An unbound reader
	// reports expired without consulting weak; the reader never holds a
	// strong reference to the queue (that would defeat "non-owning").
	bound bool
}

// NewReader returns an unbound Reader.
func NewReader[T any]() *Reader[T] {
	return &Reader[T]{}
}

// FromQueue returns a Reader already connected to q.
func FromQueue[T any](q *Queue[T]) *Reader[T] {
	r := NewReader[T]()
	_ = r.Connect(q)
	return r
}

// Connect binds the reader to q, replacing any previous binding. It fails
// with errs.InvalidArgument if q is nil.
func (r *Reader[T]) Connect(q *Queue[T]) error {
	if q == nil {
		return fmt.Errorf("%w: nil queue", errs.InvalidArgument)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.weak = weak.Make(q)
	r.bound = true
	return nil
}

// Disconnect drops the binding; Expired() is true afterward.
func (r *Reader[T]) Disconnect() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.weak = weak.Pointer[Queue[T]]{}
	r.bound = false
}

// Expired reports whether the bound queue has been collected, or the
// reader was never connected.
func (r *Reader[T]) Expired() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveLocked() == nil
}

func (r *Reader[T]) resolveLocked() *Queue[T] {
	if !r.bound {
		return nil
	}
	return r.weak.Value()
}

// Dequeue pops one element from the bound queue. It fails with
// errs.Expired if the queue is gone.
func (r *Reader[T]) Dequeue() (T, error) {
	r.mu.Lock()
	q := r.resolveLocked()
	r.mu.Unlock()
	if q == nil {
		var zero T
		return zero, errs.Expired
	}
	v, _ := q.TryDequeue()
	return v, nil
}

// Empty reports whether the bound queue is empty. It fails with
// errs.Expired if the queue is gone.
func (r *Reader[T]) Empty() (bool, error) {
	r.mu.Lock()
	q := r.resolveLocked()
	r.mu.Unlock()
	if q == nil {
		return false, errs.Expired
	}
	return q.Empty(), nil
}

// Size reports the bound queue's approximate size. It fails with
// errs.Expired if the queue is gone.
func (r *Reader[T]) Size() (int, error) {
	r.mu.Lock()
	q := r.resolveLocked()
	r.mu.Unlock()
	if q == nil {
		return 0, errs.Expired
	}
	return q.Size(), nil
}

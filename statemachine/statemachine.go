// Package statemachine provides a named-state, predicate-gated transition
// graph with a dedicated state-handler worker and a callback-dispatch
// worker pool, modeled on the source's StateMachine<T>.
package statemachine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/arcflow/relay/internal/clockwork"
	"github.com/arcflow/relay/internal/errs"
	"github.com/arcflow/relay/internal/telemetry"
	"github.com/arcflow/relay/queue"
)

// nullState is the sentinel name for "not yet designated", matching the
// source's "__null__" default for its initial/present/final state fields.
const nullState = "__null__"

// Callback is a state's event function. The source parametrizes
// StateMachine on the callable signature itself (std::function<T>); this
// module instead parametrizes on the payload T delivered to every
// callback, fixed once at construction, which is the idiomatic Go shape
// for "one context value shared by every state handler" and keeps
// AddState's signature free of a second type parameter.
type Callback[T any] func(T)

// Guard gates a transition. A nil guard is rejected by AddTransition; an
// omitted guard defaults to always-true.
type Guard func() bool

// StateMachine is a named-state graph with worker-pool-dispatched
// callbacks. States and transitions must be registered before Start;
// registering after Start has no defined effect and is not guarded against,
// matching the source's lack of a registration-phase lock.
type StateMachine[T any] struct {
	mu sync.Mutex

	states []string // insertion order, for deterministic iteration only
	byName map[string]Callback[T]

	transitionOrder map[string][]string
	transitions     map[string]map[string]Guard

	initial string
	present string
	final   string

	payload T

	active atomic.Bool
	wg     sync.WaitGroup

	eventQueue *queue.Queue[Callback[T]]

	clock   clockwork.Clock
	workers int
}

// Option configures an optional aspect of a StateMachine at construction.
type Option[T any] func(*StateMachine[T])

// WithClock overrides the backoff Clock used by the state-handler loop and
// the dispatch workers between unproductive sweeps.
func WithClock[T any](c clockwork.Clock) Option[T] {
	return func(sm *StateMachine[T]) { sm.clock = c }
}

// WithWorkers overrides the dispatch pool size that would otherwise default
// to runtime.NumCPU(). New stores a non-positive value as given; Start then
// fails with errs.WorkerLaunchFailure, which tests use as a zero-concurrency
// failure injection.
func WithWorkers[T any](n int) Option[T] {
	return func(sm *StateMachine[T]) { sm.workers = n }
}

// New constructs a StateMachine carrying payload, the value passed to every
// state callback for the machine's lifetime.
func New[T any](payload T, opts ...Option[T]) *StateMachine[T] {
	sm := &StateMachine[T]{
		byName:          map[string]Callback[T]{},
		transitionOrder: map[string][]string{},
		transitions:     map[string]map[string]Guard{},
		initial:         nullState,
		present:         nullState,
		final:           nullState,
		payload:         payload,
		eventQueue:      queue.New[Callback[T]](),
		clock:           clockwork.Default,
		workers:         runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

// AddState registers name with cb as its event callback. If cb is omitted,
// the state gets a no-op callback. It fails if name is already registered
// or a supplied callback is nil.
func (sm *StateMachine[T]) AddState(name string, cb ...Callback[T]) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.byName[name]; exists {
		return false
	}

	callback := Callback[T](func(T) {})
	if len(cb) > 0 {
		if cb[0] == nil {
			return false
		}
		callback = cb[0]
	}

	sm.byName[name] = callback
	sm.states = append(sm.states, name)
	return true
}

// AddTransition records an edge from -> to, gated by guard. If guard is
// omitted, the edge is always taken. It fails if either state is
// unregistered or a supplied guard is nil. Re-adding the same (from, to)
// pair replaces the guard without disturbing that edge's position among
// from's other outgoing edges.
func (sm *StateMachine[T]) AddTransition(from, to string, guard ...Guard) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, ok := sm.byName[from]; !ok {
		return false
	}
	if _, ok := sm.byName[to]; !ok {
		return false
	}

	g := Guard(func() bool { return true })
	if len(guard) > 0 {
		if guard[0] == nil {
			return false
		}
		g = guard[0]
	}

	if sm.transitions[from] == nil {
		sm.transitions[from] = map[string]Guard{}
	}
	if _, exists := sm.transitions[from][to]; !exists {
		sm.transitionOrder[from] = append(sm.transitionOrder[from], to)
	}
	sm.transitions[from][to] = g
	return true
}

// SetInitialState designates name as the state Start begins in. It fails
// if name is not registered; the present state is unaffected either way.
func (sm *StateMachine[T]) SetInitialState(name string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if _, ok := sm.byName[name]; !ok {
		return false
	}
	sm.initial = name
	return true
}

// SetFinalState designates name as the machine's final state. Reaching it
// has no automatic effect — the machine keeps running a final state's
// transitions and callback exactly like any other state until Stop is
// called explicitly. It fails if name is not registered.
func (sm *StateMachine[T]) SetFinalState(name string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if _, ok := sm.byName[name]; !ok {
		return false
	}
	sm.final = name
	return true
}

// PresentState returns the name of the state the machine currently occupies.
func (sm *StateMachine[T]) PresentState() string {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.present
}

// Start launches the state-handler goroutine and a dispatch pool sized to
// runtime.NumCPU() (or the WithWorkers override). Calling Start while
// already running is a no-op that reports success, matching the source's
// duplicate-start guard. It fails with errs.WorkerLaunchFailure if no
// initial state has been designated or the worker pool would be launched
// with zero workers.
func (sm *StateMachine[T]) Start(initial ...string) error {
	if len(initial) > 0 {
		if !sm.SetInitialState(initial[0]) {
			return fmt.Errorf("%w: unregistered initial state %q", errs.WorkerLaunchFailure, initial[0])
		}
	}

	if !sm.active.CompareAndSwap(false, true) {
		return nil
	}

	sm.mu.Lock()
	if sm.initial == nullState {
		sm.mu.Unlock()
		sm.active.Store(false)
		return fmt.Errorf("%w: no initial state set", errs.WorkerLaunchFailure)
	}
	sm.present = sm.initial
	sm.mu.Unlock()

	n := sm.workers
	if n <= 0 {
		sm.active.Store(false)
		return fmt.Errorf("%w: zero dispatch workers available", errs.WorkerLaunchFailure)
	}

	sm.wg.Add(n + 1)
	for i := 0; i < n; i++ {
		go sm.runDispatcher()
	}
	go sm.runStateHandler()

	return nil
}

// Stop halts the state-handler and dispatch pool and blocks until both
// have joined. It is idempotent: calling Stop on a machine that is not
// running returns immediately.
func (sm *StateMachine[T]) Stop() error {
	if !sm.active.CompareAndSwap(true, false) {
		return nil
	}
	sm.wg.Wait()
	return nil
}

// runStateHandler enqueues the present state's callback, evaluates its
// outgoing transitions in insertion order, and advances to the first whose
// guard returns true. Per design note 4 it sleeps via the injected clock
// between sweeps that found no satisfied guard, to avoid a hot busy loop.
func (sm *StateMachine[T]) runStateHandler() {
	defer sm.wg.Done()

	for sm.active.Load() {
		_, end := telemetry.Start(context.Background(), "statemachine.StateMachine.stateHandler")

		sm.mu.Lock()
		present := sm.present
		cb := sm.byName[present]
		edges := sm.transitionOrder[present]
		sm.mu.Unlock()

		sm.eventQueue.Enqueue(cb)

		moved := false
		for _, to := range edges {
			sm.mu.Lock()
			guard := sm.transitions[present][to]
			sm.mu.Unlock()

			satisfied, fault := sm.evaluateGuard(guard)
			if fault != nil {
				slog.Error("statemachine: transition guard panicked", "from", present, "to", to, "error", fault)
				continue
			}
			if satisfied {
				sm.mu.Lock()
				sm.present = to
				sm.mu.Unlock()
				moved = true
				break
			}
		}

		end(nil)

		if !moved {
			sm.clock.Sleep(0)
		}
	}
}

// runDispatcher drains the event queue, invoking each callback in
// isolation; a panicking callback is logged and swallowed, never fatal to
// the machine.
func (sm *StateMachine[T]) runDispatcher() {
	defer sm.wg.Done()

	for sm.active.Load() {
		cb, ok := sm.eventQueue.TryDequeue()
		if !ok {
			sm.clock.Sleep(0)
			continue
		}
		if fault := sm.invoke(cb); fault != nil {
			slog.Error("statemachine: state event callback panicked", "error", fault)
		}
	}
}

func (sm *StateMachine[T]) invoke(cb Callback[T]) (fault error) {
	defer func() {
		if r := recover(); r != nil {
			fault = &errs.CallbackFault{Callback: "state event", Recovered: r}
		}
	}()
	cb(sm.payload)
	return nil
}

func (sm *StateMachine[T]) evaluateGuard(guard Guard) (satisfied bool, fault error) {
	defer func() {
		if r := recover(); r != nil {
			fault = &errs.CallbackFault{Callback: "transition guard", Recovered: r}
			satisfied = false
		}
	}()
	return guard(), nil
}

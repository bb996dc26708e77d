// Package errs defines the sentinel error kinds shared by every package in
// the module (queue, observable, statemachine, and the root relay package)
// so that errors.Is works across package boundaries without those packages
// importing each other.
package errs

import "errors"

var (
	// InvalidArgument covers a null/empty callable, a nil queue handle
	// passed to Connect, or an attempt to attach a nil observer.
	InvalidArgument = errors.New("relay: invalid argument")

	// Expired is returned by any operation on a handle whose underlying
	// queue has been collected.
	Expired = errors.New("relay: queue reference expired")

	// NoInput is returned by Device.Read() when no input reader is
	// connected.
	NoInput = errors.New("relay: no input connected")

	// UnregisteredType is returned when constructing an Event from a tag
	// that was never registered for its type.
	UnregisteredType = errors.New("relay: unregistered event type")

	// WorkerLaunchFailure is returned by StateMachine.Start when the
	// worker pool cannot be sized or the initial state is unset.
	WorkerLaunchFailure = errors.New("relay: worker launch failure")
)

// CallbackFault wraps a value recovered from a panicking user callback
// run by a worker: a poller handler (which includes observer Notify calls
// made through a queue.Observer), a state event callback, or a transition
// guard. It never escapes a worker loop as a panic: a poller captures it
// and surfaces it through Poller.Err, and the state machine logs it.
// Device emitters and transition functions are not recovered; a panic in
// one propagates out of Device.ReadInput.
type CallbackFault struct {
	Callback  string
	Recovered any
}

func (f *CallbackFault) Error() string {
	return "relay: panic in " + f.Callback + " callback"
}

func (f *CallbackFault) Unwrap() error {
	if err, ok := f.Recovered.(error); ok {
		return err
	}
	return nil
}

// Package relay provides the building blocks for dataflow systems made of
// small, composable processing nodes ("devices") connected end to end by
// concurrent, typed queues.
//
// A Device is a deterministic function of state: it filters an input
// against a Domain, resolves a derived output, evolves an internal state,
// and emits a vector of Events. Devices are wired together through queues
// so one device's output feeds another device's input, and a
// queue.Poller/observable.Observable pair lets any other code in the
// process watch a queue without owning it.
//
// Basic usage:
//
//	relay.RegisterType(state.On, state.Off)
//	sw := relay.NewDevice(
//		relay.NewDomain(func(v volts) bool { return v >= 0 }),
//		relay.NewDomain(func(a amps) bool { return a <= 2 }),
//		resolve,
//		transition,
//		emitOn, emitOff,
//	)
//	sw.ReadInput(volts(5))
//	fmt.Println(sw.State())
//
// The supporting concurrency primitives live in sibling packages: queue for
// the thread-safe Queue/Reader/Poller, observable for the fan-out registry
// (it holds strong references to its observers, which keep receiving
// notifications until they are detached), and statemachine for the
// independent named-state worker.
package relay

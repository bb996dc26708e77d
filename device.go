package relay

import (
	"context"
	"fmt"

	"github.com/arcflow/relay/internal/errs"
	"github.com/arcflow/relay/internal/telemetry"
	"github.com/arcflow/relay/queue"
	"github.com/google/uuid"
)

// Resolution computes a Device's output from its input.
type Resolution[I, O any] func(I) O

// Transition evolves a Device's state given the prior state, the input
// that triggered this step, and the resolved output.
type Transition[I, O, S any] func(prior S, input I, output O) S

// Emitter derives one Event from the post-transition state. A Device may
// carry several; all are invoked, in order, on every successful Read.
type Emitter[S any, E comparable] func(S) Event[E]

// Device is an input-filtered, state-evolving, event-emitting processor. It
// owns its output and event queues; any number of Readers may attach to
// them without the Device ever knowing they exist.
type Device[I, O, S any, E comparable] struct {
	id string

	inputDomain  Domain[I]
	outputDomain Domain[O]
	resolution   Resolution[I, O]
	transition   Transition[I, O, S]
	emitters     []Emitter[S, E]

	outputQueue *queue.Queue[O]
	eventQueue  *queue.Queue[Event[E]]

	input *queue.Reader[I]

	currentState S
}

// NewDevice constructs a Device from its function bundle. Each owned queue
// starts empty and no input reader is connected.
func NewDevice[I, O, S any, E comparable](
	inputDomain Domain[I],
	outputDomain Domain[O],
	resolution Resolution[I, O],
	transition Transition[I, O, S],
	emitters ...Emitter[S, E],
) *Device[I, O, S, E] {
	return &Device[I, O, S, E]{
		id:           uuid.NewString(),
		inputDomain:  inputDomain,
		outputDomain: outputDomain,
		resolution:   resolution,
		transition:   transition,
		emitters:     append([]Emitter[S, E](nil), emitters...),
		outputQueue:  queue.New[O](),
		eventQueue:   queue.New[Event[E]](),
	}
}

// ID returns a stable random (UUID v4) identifier for this Device, assigned
// at construction. It has no effect on any operation below, and no span or
// log line in this module records it.
func (d *Device[I, O, S, E]) ID() string {
	return d.id
}

// Connect attaches d's input to reader. It fails with errs.Expired if
// reader is already expired.
func (d *Device[I, O, S, E]) Connect(reader *queue.Reader[I]) error {
	if reader == nil || reader.Expired() {
		return fmt.Errorf("connect device input: %w", errs.Expired)
	}
	d.input = reader
	return nil
}

// ConnectDevices attaches consumer's input directly to producer's output
// queue — the Device-to-Device form of spec.md §4.5's Connect, generalized
// from the source's member-function overload to a free generic function
// because Go cannot express "a Device of any input/state/event type whose
// output type is I" as a single receiver type. producer's own input,
// state, and event types are free type parameters; only its output type
// has to match consumer's input type, enforced by the shared parameter I.
func ConnectDevices[PI, I, O, PS any, PE comparable, CS any, CE comparable](
	consumer *Device[I, O, CS, CE],
	producer *Device[PI, I, PS, PE],
) error {
	return consumer.Connect(queue.FromQueue(producer.outputQueue))
}

// ConnectOutput binds reader to d's output queue so external code can
// observe everything d publishes.
func (d *Device[I, O, S, E]) ConnectOutput(reader *queue.Reader[O]) error {
	return reader.Connect(d.outputQueue)
}

// ConnectEvent binds reader to d's event queue.
func (d *Device[I, O, S, E]) ConnectEvent(reader *queue.Reader[Event[E]]) error {
	return reader.Connect(d.eventQueue)
}

// Disconnect drops d's input reader. d keeps its own output/event queues.
func (d *Device[I, O, S, E]) Disconnect() {
	d.input = nil
}

// Read dequeues one input from the connected reader and delegates to
// ReadInput. It fails with errs.NoInput if no reader is connected; it
// returns false, nil if the reader is bound but currently empty.
func (d *Device[I, O, S, E]) Read() (bool, error) {
	if d.input == nil {
		return false, errs.NoInput
	}
	empty, err := d.input.Empty()
	if err != nil {
		return false, err
	}
	if empty {
		return false, nil
	}
	input, err := d.input.Dequeue()
	if err != nil {
		return false, err
	}
	return d.ReadInput(input), nil
}

// ReadInput runs the pipeline step for one input value:
//
//  1. If input is outside the input domain, return false with no side
//     effects.
//  2. Compute output = resolution(input).
//  3. If output is inside the output domain, enqueue it; otherwise, drop it
//     silently and continue — a rejected output never aborts state
//     evolution.
//  4. Compute the next state from (prior state, input, output).
//  5. Run every emitter against the next state, in order, enqueueing each
//     resulting Event unconditionally.
//  6. Commit the next state and return true.
func (d *Device[I, O, S, E]) ReadInput(input I) bool {
	_, end := telemetry.Start(context.Background(), "relay.Device.ReadInput")
	defer end(nil)

	if !d.inputDomain.Call(input) {
		return false
	}

	output := d.resolution(input)
	if d.outputDomain.Call(output) {
		d.outputQueue.Enqueue(output)
	}

	next := d.transition(d.currentState, input, output)
	for _, emit := range d.emitters {
		d.eventQueue.Enqueue(emit(next))
	}

	d.currentState = next
	return true
}

// State returns the device's current state.
func (d *Device[I, O, S, E]) State() S {
	return d.currentState
}

// Combine produces a composite Device whose input and output domains are
// the union of d's and other's, and whose emitter list is the ordered
// concatenation of both emitter lists.
//
// The source (device.h's GenericDevice::combine) leaves the composite's
// resolution and transition functions as literally empty lambdas — calling
// either is undefined behavior there. spec.md §9's open question 1 marks
// this implementation-defined and asks an implementer to either reject
// composition of non-trivial resolutions or define a domain-specific merge;
// this module takes the documented "reject" branch: the composite's
// resolution and transition panic if ever invoked, so a caller that Reads
// a composite without first replacing them (there is no API to do so
// generically — Combine exists for its domain/emitter-merging value, not
// as a usable pipeline stage on its own) fails loudly instead of silently
// computing nonsense.
func (d *Device[I, O, S, E]) Combine(other *Device[I, O, S, E]) *Device[I, O, S, E] {
	emitters := make([]Emitter[S, E], 0, len(d.emitters)+len(other.emitters))
	emitters = append(emitters, d.emitters...)
	emitters = append(emitters, other.emitters...)

	return NewDevice(
		d.inputDomain.Or(other.inputDomain),
		d.outputDomain.Or(other.outputDomain),
		func(I) O { panic("relay: Device.Combine leaves resolution implementation-defined; replace it before Read-ing the composite") },
		func(S, I, O) S { panic("relay: Device.Combine leaves transition implementation-defined; replace it before Read-ing the composite") },
		emitters...,
	)
}

package relay

import (
	"fmt"
	"sync"

	"github.com/arcflow/relay/pkg/set"
)

// Event is a tagged, raise-able signal drawn from a per-type registry of
// valid tags. Constructing an Event from a tag that was never registered
// fails with ErrUnregisteredType.
type Event[T comparable] struct {
	tag    T
	raised bool
}

// registry is the process-wide, append-only table of valid tags for one
// concrete T. One registry is created lazily per T and never torn down,
// matching the source's static std::vector<T> per template instantiation.
type registry[T comparable] struct {
	mu    sync.Mutex
	types *set.Ordered[T]
}

// registries holds one *registry[T] per concrete T, guarded by
// registriesMu. It is keyed by regKey[T]{}, a zero-sized value whose type
// differs for every T, so each instantiation of registryFor[T] finds its
// own entry without reflection.
var registriesMu sync.Mutex
var registries = map[any]any{}

func registryFor[T comparable]() *registry[T] {
	key := regKey[T]{}
	registriesMu.Lock()
	defer registriesMu.Unlock()
	if r, ok := registries[key]; ok {
		return r.(*registry[T])
	}
	r := &registry[T]{types: set.NewOrdered[T]()}
	registries[key] = r
	return r
}

// regKey is a distinct zero-sized type per T, used only as a map key to
// locate T's registry without reflection.
type regKey[T comparable] struct{}

// RegisterType adds tags to the registry for T. Registration is idempotent:
// re-registering an already-known tag is a no-op.
func RegisterType[T comparable](tags ...T) {
	r := registryFor[T]()
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tag := range tags {
		r.types.Add(tag)
	}
}

// IsRegistered reports whether tag has been registered for T.
func IsRegistered[T comparable](tag T) bool {
	r := registryFor[T]()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.types.Contains(tag)
}

// RegisteredTypes returns an immutable snapshot of the tags registered for
// T, in registration order.
func RegisteredTypes[T comparable]() []T {
	r := registryFor[T]()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.types.Items()
}

// NewEvent constructs a raised Event from tag. It fails with
// ErrUnregisteredType if tag was never passed to RegisterType.
func NewEvent[T comparable](tag T) (Event[T], error) {
	if !IsRegistered(tag) {
		return Event[T]{}, fmt.Errorf("%w: %v", ErrUnregisteredType, tag)
	}
	return Event[T]{tag: tag, raised: true}, nil
}

// Tag returns the event's tag.
func (e Event[T]) Tag() T {
	return e.tag
}

// Raised reports whether the event is currently set.
func (e Event[T]) Raised() bool {
	return e.raised
}

// Raise sets the event's flag, indicating it is to be processed.
func (e *Event[T]) Raise() {
	e.raised = true
}

// Lower clears the event's flag, indicating it has been processed.
func (e *Event[T]) Lower() {
	e.raised = false
}

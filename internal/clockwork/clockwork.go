// Package clockwork supplies the pluggable backoff primitive used by the
// yield-loop workers in queue.Poller and statemachine.StateMachine. The
// reference design busy-waits between empty-queue polls; this package makes
// that wait a swappable interface so tests can observe and control it
// instead of racing a live goroutine.
package clockwork

import (
	"runtime"
	"time"
)

// Clock is the minimal timing surface a worker loop needs: the ability to
// wait out a backoff interval between unsuccessful poll attempts.
type Clock interface {
	Sleep(d time.Duration)
}

// System is the production Clock. A zero interval degrades to a scheduler
// yield, matching the source design's std::this_thread::yield().
type System struct{}

func (System) Sleep(d time.Duration) {
	if d <= 0 {
		runtime.Gosched()
		return
	}
	time.Sleep(d)
}

// Default is the Clock used when a worker is constructed without one.
var Default Clock = System{}

// Fake is a test Clock that records every requested sleep instead of
// blocking, so tests can assert on backoff behavior without real timing.
type Fake struct {
	Slept []time.Duration
}

func (f *Fake) Sleep(d time.Duration) {
	f.Slept = append(f.Slept, d)
}

package statemachine_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/arcflow/relay/statemachine"
)

func TestAddStateRejectsDuplicateAndNilCallback(t *testing.T) {
	sm := statemachine.New[int](0)
	if !sm.AddState("up") {
		t.Fatal("expected first AddState(\"up\") to succeed")
	}
	if sm.AddState("up") {
		t.Fatal("expected duplicate AddState(\"up\") to fail")
	}
	if sm.AddState("down", nil) {
		t.Fatal("expected AddState with a nil callback to fail")
	}
}

func TestAddTransitionRequiresRegisteredStates(t *testing.T) {
	sm := statemachine.New[int](0)
	sm.AddState("up")
	if sm.AddTransition("up", "down") {
		t.Fatal("expected AddTransition to an unregistered state to fail")
	}
	sm.AddState("down")
	if !sm.AddTransition("up", "down") {
		t.Fatal("expected AddTransition between two registered states to succeed")
	}
	if sm.AddTransition("up", "down", nil) {
		t.Fatal("expected AddTransition with a nil guard to fail")
	}
}

func TestSetInitialAndFinalRequireRegisteredState(t *testing.T) {
	sm := statemachine.New[int](0)
	if sm.SetInitialState("up") {
		t.Fatal("expected SetInitialState on an unregistered state to fail")
	}
	sm.AddState("up")
	if !sm.SetInitialState("up") {
		t.Fatal("expected SetInitialState on a registered state to succeed")
	}
	if sm.SetFinalState("down") {
		t.Fatal("expected SetFinalState on an unregistered state to fail")
	}
}

func TestStartFailsWithoutInitialState(t *testing.T) {
	sm := statemachine.New[int](0)
	sm.AddState("up")
	if err := sm.Start(); err == nil {
		t.Fatal("expected Start without an initial state to fail")
	}
}

func TestStartFailsWithZeroWorkers(t *testing.T) {
	sm := statemachine.New[int](0, statemachine.WithWorkers[int](0))
	sm.AddState("up")
	sm.SetInitialState("up")
	if err := sm.Start(); err == nil {
		t.Fatal("expected Start with zero workers to fail")
	}
}

func TestStartStopIsIdempotent(t *testing.T) {
	sm := statemachine.New[int](0)
	sm.AddState("up")
	sm.SetInitialState("up")

	if err := sm.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sm.Start(); err != nil {
		t.Fatalf("expected a second Start to be a no-op, got: %v", err)
	}

	if err := sm.Stop(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sm.Stop(); err != nil {
		t.Fatalf("expected a second Stop to be a no-op, got: %v", err)
	}
}

// TestUpDownCycle exercises scenario S6: an unconditional up->down edge and
// a down->up edge whose guard stays false until a counter of guard
// evaluations reaches 3 and is true on every evaluation after that, so the
// machine then keeps cycling up -> down -> up.
func TestUpDownCycle(t *testing.T) {
	var upVisits, downVisits atomic.Int64
	var guardEvals atomic.Int64

	sm := statemachine.New[int](0)

	sm.AddState("up", func(int) { upVisits.Add(1) })
	sm.AddState("down", func(int) { downVisits.Add(1) })

	sm.AddTransition("up", "down")
	sm.AddTransition("down", "up", func() bool {
		return guardEvals.Add(1) >= 3
	})

	if err := sm.Start("up"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer sm.Stop()

	deadline := time.Now().Add(2 * time.Second)
	sawUp, sawDown, backToUp := false, false, false
	for time.Now().Before(deadline) {
		switch sm.PresentState() {
		case "up":
			if sawDown {
				backToUp = true
			}
			sawUp = true
		case "down":
			sawDown = true
		}
		if backToUp {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if err := sm.Stop(); err != nil {
		t.Fatalf("unexpected error stopping: %v", err)
	}

	if !sawUp || !sawDown || !backToUp {
		t.Fatalf("expected up -> down -> up cycle, got sawUp=%v sawDown=%v backToUp=%v", sawUp, sawDown, backToUp)
	}
	if upVisits.Load() == 0 || downVisits.Load() == 0 {
		t.Fatalf("expected both state callbacks to run, got upVisits=%d downVisits=%d", upVisits.Load(), downVisits.Load())
	}
}

func TestPanickingGuardAndCallbackNeverStopTheMachine(t *testing.T) {
	sm := statemachine.New[int](0)
	sm.AddState("up", func(int) { panic("boom") })
	sm.AddState("down")
	sm.AddTransition("up", "down", func() bool { panic("also boom") })

	if err := sm.Start("up"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if sm.PresentState() != "up" {
		t.Fatalf("expected the machine to remain on \"up\" despite panics, got %q", sm.PresentState())
	}

	if err := sm.Stop(); err != nil {
		t.Fatalf("unexpected error stopping: %v", err)
	}
}

package relay_test

import (
	"testing"

	"github.com/arcflow/relay"
)

func TestDomainCall(t *testing.T) {
	even := relay.NewDomain(func(v int) bool { return v%2 == 0 })
	if !even.Call(4) {
		t.Fatal("expected 4 to be in the even domain")
	}
	if even.Call(3) {
		t.Fatal("expected 3 to be rejected by the even domain")
	}
}

func TestDomainCallNilPredicateRejectsEverything(t *testing.T) {
	d := relay.NewDomain[int](nil)
	if d.Call(0) || d.Call(1) || d.Call(-1) {
		t.Fatal("expected a nil-predicate domain to reject every value")
	}
}

func TestDomainOr(t *testing.T) {
	lt0 := relay.NewDomain(func(v int) bool { return v < 0 })
	gt10 := relay.NewDomain(func(v int) bool { return v > 10 })
	outside := lt0.Or(gt10)

	for _, v := range []int{-5, 0, 5, 10, 15} {
		want := (v < 0) || (v > 10)
		if got := outside.Call(v); got != want {
			t.Fatalf("outside.Call(%d) = %v, want %v", v, got, want)
		}
	}
}

func TestDomainAnd(t *testing.T) {
	gte0 := relay.NewDomain(func(v int) bool { return v >= 0 })
	lte10 := relay.NewDomain(func(v int) bool { return v <= 10 })
	inRange := gte0.And(lte10)

	for _, v := range []int{-1, 0, 5, 10, 11} {
		want := (v >= 0) && (v <= 10)
		if got := inRange.Call(v); got != want {
			t.Fatalf("inRange.Call(%d) = %v, want %v", v, got, want)
		}
	}
}

package events

import (
	"errors"
	"testing"
)

func TestCallOrderAndSharedContext(t *testing.T) {
	b := NewBus()
	var order []string
	b.Register("tick", HandlerFunc(func(ctx Context) error {
		order = append(order, "h1")
		ctx["n"] = 1
		return nil
	}))
	b.Register("tick", HandlerFunc(func(ctx Context) error {
		order = append(order, "h2")
		ctx["n"] = ctx["n"].(int) + 1
		return nil
	}))
	b.Register("tick", HandlerFunc(func(ctx Context) error {
		order = append(order, "h3")
		if ctx["n"].(int) != 2 {
			t.Fatalf("h3 should observe h2's mutation, got %v", ctx["n"])
		}
		return nil
	}))

	ctx, err := b.Call("tick", Context{})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if len(order) != 3 || order[0] != "h1" || order[1] != "h2" || order[2] != "h3" {
		t.Fatalf("wrong order: %v", order)
	}
	if ctx["n"].(int) != 2 {
		t.Fatalf("context not returned mutated: %v", ctx["n"])
	}
}

func TestCallNoHandlers(t *testing.T) {
	b := NewBus()
	in := Context{"k": "v"}
	out, err := b.Call("nothing_registered", in)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if out["k"] != "v" {
		t.Fatalf("context changed by empty call: %v", out)
	}
}

func TestHandlerFailureAbortsRemaining(t *testing.T) {
	b := NewBus()
	boom := errors.New("boom")
	var ran []string
	b.Register("break_block", HandlerFunc(func(ctx Context) error {
		ran = append(ran, "h1")
		ctx["applied"] = true
		return nil
	}))
	b.Register("break_block", HandlerFunc(func(ctx Context) error {
		ran = append(ran, "h2")
		return boom
	}))
	b.Register("break_block", HandlerFunc(func(ctx Context) error {
		ran = append(ran, "h3")
		return nil
	}))
	b.Register("place_block", HandlerFunc(func(ctx Context) error {
		ran = append(ran, "other")
		return nil
	}))

	ctx, err := b.Call("break_block", Context{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped handler error, got %v", err)
	}
	if len(ran) != 2 {
		t.Fatalf("h3 should not run after failure: %v", ran)
	}
	if ctx["applied"] != true {
		t.Fatalf("prior mutations must not roll back")
	}

	// Unrelated event ids and later independent calls are unaffected.
	if _, err := b.Call("place_block", Context{}); err != nil {
		t.Fatalf("independent call failed: %v", err)
	}
	if ran[len(ran)-1] != "other" {
		t.Fatalf("place_block handler did not run: %v", ran)
	}
}

func TestRegisterDuringDispatchDoesNotAffectInFlightCall(t *testing.T) {
	b := NewBus()
	var ran int
	b.Register("load", HandlerFunc(func(ctx Context) error {
		ran++
		b.Register("load", HandlerFunc(func(ctx Context) error {
			ran++
			return nil
		}))
		return nil
	}))

	if _, err := b.Call("load", Context{}); err != nil {
		t.Fatalf("call: %v", err)
	}
	if ran != 1 {
		t.Fatalf("late registration ran in-flight: ran=%d", ran)
	}
	if b.Registered("load") != 2 {
		t.Fatalf("registration lost: %d", b.Registered("load"))
	}

	if _, err := b.Call("load", Context{}); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if ran != 3 {
		t.Fatalf("second call should run both handlers: ran=%d", ran)
	}
}

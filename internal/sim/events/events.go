// Package events is the process-wide named-event fan-out used by mod scripts.
// Handler lists are append-only and dispatch in registration order on the
// game-logic goroutine.
package events

import "fmt"

// Context is the mutable record threaded through one Call: every handler in
// the call receives the same map, so later handlers observe mutations made by
// earlier ones. It is allocated per call and discarded afterwards.
type Context map[string]any

// Handler is an opaque callable registered for an event id.
type Handler interface {
	Invoke(ctx Context) error
}

type HandlerFunc func(ctx Context) error

func (f HandlerFunc) Invoke(ctx Context) error { return f(ctx) }

type Bus struct {
	handlers map[string][]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: map[string][]Handler{}}
}

// Register appends h to the ordered list for eventID, creating the list
// lazily. A handler registered while eventID is dispatching does not take
// part in the in-flight call.
func (b *Bus) Register(eventID string, h Handler) {
	b.handlers[eventID] = append(b.handlers[eventID], h)
}

// Call invokes every handler registered for eventID in registration order,
// passing ctx to each. With no handlers registered it is a no-op. A handler
// failure aborts the remaining handlers of this call only and propagates;
// mutations already applied are kept.
func (b *Bus) Call(eventID string, ctx Context) (Context, error) {
	hs := b.handlers[eventID]
	for i, h := range hs {
		if err := h.Invoke(ctx); err != nil {
			return ctx, fmt.Errorf("event %s handler %d: %w", eventID, i, err)
		}
	}
	return ctx, nil
}

// Registered reports how many handlers eventID currently has.
func (b *Bus) Registered(eventID string) int {
	return len(b.handlers[eventID])
}

package inventory

import "errors"

var (
	// ErrOutOfRange reports a slot index outside the inventory or view
	// bounds. The write is rejected before any mutation.
	ErrOutOfRange = errors.New("slot index out of range")

	// ErrInvalidTarget reports a write against a virtual control id with no
	// backing slot.
	ErrInvalidTarget = errors.New("target has no backing slot")
)

// HandlerFailure wraps an error raised by a registered click/scroll handler
// mid-dispatch. Mutations applied before the failure are not rolled back.
type HandlerFailure struct {
	Op  string
	Err error
}

func (e *HandlerFailure) Error() string { return e.Op + " handler: " + e.Err.Error() }
func (e *HandlerFailure) Unwrap() error { return e.Err }

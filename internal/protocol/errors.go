package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Inventory/view layer.
	ErrOutOfRange     = "E_OUT_OF_RANGE"
	ErrInvalidTarget  = "E_INVALID_TARGET"
	ErrHandlerFailure = "E_HANDLER_FAILURE"

	ErrBadRequest = "E_BAD_REQUEST"
	ErrNotFound   = "E_NOT_FOUND"
	ErrInternal   = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrOutOfRange:      {},
	ErrInvalidTarget:   {},
	ErrHandlerFailure:  {},
	ErrBadRequest:      {},
	ErrNotFound:        {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

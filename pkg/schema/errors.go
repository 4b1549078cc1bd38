package schema

// Error is returned for every schema construction failure.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Errors
var (
	ErrMalformed        = &Error{"malformed schema"}
	ErrUnknownReference = &Error{"unknown type reference"}
	ErrDuplicateName    = &Error{"duplicate type name"}
	ErrInvalidUnion     = &Error{"invalid union"}
)

package value

// Error is returned when a value is assembled or read against the wrong
// schema.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Errors
var (
	ErrUnknownField     = &Error{"unknown field"}
	ErrTypeMismatch     = &Error{"type mismatch"}
	ErrKindMismatch     = &Error{"kind mismatch"}
	ErrInvalidEnum      = &Error{"invalid enum symbol"}
	ErrFixedSize        = &Error{"fixed size mismatch"}
	ErrIndexOutOfRange  = &Error{"index out of range"}
	ErrUnknownKey       = &Error{"unknown map key"}
	ErrFieldNotSet      = &Error{"record field not set"}
	ErrUnsupportedValue = &Error{"unsupported native value"}
)

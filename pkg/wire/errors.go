package wire

// Error is returned by the binary encoder and decoder.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Encoding errors
var (
	ErrSchemaMismatch = &Error{"value does not match schema"}
)

// Decoding errors
var (
	ErrTruncated          = &Error{"truncated input"}
	ErrInvalidUnionIndex  = &Error{"invalid union index"}
	ErrInvalidEnumOrdinal = &Error{"invalid enum ordinal"}
	ErrInvalidLength      = &Error{"invalid length"}
	ErrVarintOverflow     = &Error{"varint overflow"}
	ErrInvalidBoolean     = &Error{"invalid boolean"}
	ErrTrailingBytes      = &Error{"trailing bytes after value"}
	ErrMaxDepth           = &Error{"maximum nesting depth exceeded"}
)

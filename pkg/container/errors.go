package container

// Error is returned by container writers and readers.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Writer errors
var (
	ErrFinalized        = &Error{"writer is finalized"}
	ErrNotInMemory      = &Error{"writer does not own its output buffer"}
	ErrReservedMetadata = &Error{"metadata key is reserved"}
)

// Reader errors
var (
	ErrBadMagic         = &Error{"not an avro object container"}
	ErrCorruptHeader    = &Error{"corrupt container header"}
	ErrUnsupportedCodec = &Error{"unsupported codec"}
	ErrMissingSchema    = &Error{"container header has no schema"}
	ErrSchemaMismatch   = &Error{"container schema does not match expected schema"}
	ErrTruncated        = &Error{"truncated container"}
	ErrCorruptBlock     = &Error{"corrupt data block"}
	ErrDesyncedStream   = &Error{"sync marker mismatch"}
)

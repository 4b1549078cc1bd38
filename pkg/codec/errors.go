package codec

// Error is returned by codec lookup and decompression.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrUnsupported = &Error{"unsupported codec"}
	ErrCorrupt     = &Error{"corrupt compressed block"}
	ErrChecksum    = &Error{"block checksum mismatch"}
	ErrTooLarge    = &Error{"decompressed block too large"}
)

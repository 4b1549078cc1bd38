// Package wire implements the Avro binary encoding of values.
//
// Encoding walks a value alongside its schema and appends bytes to a
// caller-supplied buffer. Arrays and maps are written as a single block
// followed by the terminating empty block. Decoding accepts any block
// layout, including negative counts that carry a byte size.
package wire

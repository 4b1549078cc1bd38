// Package container reads and writes Avro object container files.
//
// A container starts with a header holding the magic bytes, a metadata map
// with the writer schema (avro.schema) and the block codec (avro.codec),
// and a 16-byte sync marker. Objects follow in blocks:
//
//	count | byte length | compressed objects | sync marker
//
// Writer accumulates encoded objects and flushes a block when the pending
// bytes or objects reach the configured limits. Reader walks the blocks,
// checks every sync marker and decodes one object per ReadNext call.
//
// RawWriter and RawReader skip the framing entirely and exchange bare
// encoded objects back to back.
package container

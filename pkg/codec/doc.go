// Package codec provides the block compression codecs of the Avro object
// container format.
//
// A container names its codec in the "avro.codec" header entry and every
// data block is compressed with it independently. Three codecs are
// supported:
//
//	null     blocks are stored as-is
//	deflate  raw RFC 1951 deflate, without a zlib header or checksum
//	snappy   snappy block format followed by the big-endian CRC-32 (IEEE)
//	         of the uncompressed bytes
//
// # Usage
//
//	c, err := codec.ByName("deflate")
//	if err != nil {
//	    return err
//	}
//
//	compressed, err := c.Compress(block)
//	if err != nil {
//	    return err
//	}
//
//	block, err = c.Decompress(compressed)
//	if errors.Is(err, codec.ErrChecksum) {
//	    // snappy block failed its CRC check
//	}
//
// # Thread Safety
//
// All codecs are stateless values and safe for concurrent use.
package codec

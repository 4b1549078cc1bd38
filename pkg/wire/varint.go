package wire

import "encoding/binary"

// MaxVarintLen is the longest encoding of a 64-bit value.
const MaxVarintLen = binary.MaxVarintLen64

// ZigZag maps signed integers to unsigned ones so that values of small
// magnitude, negative or not, get short encodings.
func ZigZag(n int64) uint64 {
	return uint64((n << 1) ^ (n >> 63))
}

// UnZigZag is the inverse of ZigZag.
func UnZigZag(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

// AppendLong appends the zig-zag varint encoding of n.
func AppendLong(dst []byte, n int64) []byte {
	u := ZigZag(n)
	for u >= 0x80 {
		dst = append(dst, byte(u)|0x80)
		u >>= 7
	}
	return append(dst, byte(u))
}

func AppendInt(dst []byte, n int32) []byte {
	return AppendLong(dst, int64(n))
}

// ReadLong decodes a zig-zag varint from the front of buf and returns it
// with the number of bytes consumed.
func ReadLong(buf []byte) (int64, int, error) {
	var u uint64
	var shift uint
	for i, c := range buf {
		if i == MaxVarintLen {
			return 0, 0, ErrVarintOverflow
		}
		if i == MaxVarintLen-1 && c > 1 {
			return 0, 0, ErrVarintOverflow
		}
		u |= uint64(c&0x7f) << shift
		if c < 0x80 {
			return UnZigZag(u), i + 1, nil
		}
		shift += 7
	}
	return 0, 0, ErrTruncated
}

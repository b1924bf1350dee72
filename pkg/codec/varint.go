package codec

// MaxVarintLen is the longest valid LEB128 encoding of a uint64.
const MaxVarintLen = 10

// AppendUvarint appends the unsigned LEB128 encoding of v to b.
func AppendUvarint(b []byte, v uint64) []byte {
	for v >= 0x80 {
		b = append(b, byte(v)|0x80)
		v >>= 7
	}
	return append(b, byte(v))
}

// UvarintLen returns the number of bytes AppendUvarint would emit for v.
func UvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// Uvarint decodes an unsigned LEB128 value from the start of b and returns
// it with the number of bytes consumed.
//
// Running out of input yields ErrTruncated. Sequences longer than ten bytes,
// or a tenth byte carrying more than the top bit of a uint64, yield
// ErrBadVarint.
func Uvarint(b []byte) (uint64, int, error) {
	var v uint64
	var shift uint
	for i := 0; i < MaxVarintLen; i++ {
		if i >= len(b) {
			return 0, 0, ErrTruncated
		}
		c := b[i]
		if i == MaxVarintLen-1 && c > 1 {
			return 0, 0, ErrBadVarint
		}
		v |= uint64(c&0x7f) << shift
		if c < 0x80 {
			return v, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, ErrBadVarint
}

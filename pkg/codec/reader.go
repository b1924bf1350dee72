package codec

import (
	"encoding/binary"
	"math"
)

// Reader is a bounds-checked cursor over a section payload. The first
// failure is sticky: later calls return zero values and Err reports it.
type Reader struct {
	buf     []byte
	off     int
	version uint32
	err     error
}

// NewReader returns a Reader over b, decoding counts as written by version.
func NewReader(b []byte, version uint32) *Reader {
	return &Reader{buf: b, version: version}
}

// Version returns the format version the payload was written with.
func (r *Reader) Version() uint32 { return r.version }

// Err returns the first decoding error, if any.
func (r *Reader) Err() error { return r.err }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

// Offset returns the number of bytes consumed.
func (r *Reader) Offset() int { return r.off }

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > len(r.buf)-r.off {
		r.err = ErrTruncated
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) U8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) U16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *Reader) U32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *Reader) U64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *Reader) I32() int32 { return int32(r.U32()) }

func (r *Reader) I64() int64 { return int64(r.U64()) }

func (r *Reader) F32() float32 { return math.Float32frombits(r.U32()) }

func (r *Reader) F64() float64 { return math.Float64frombits(r.U64()) }

// Bool reads a single byte; any non-zero value is true.
func (r *Reader) Bool() bool { return r.U8() != 0 }

// Uvarint reads a LEB128 value regardless of version.
func (r *Reader) Uvarint() uint64 {
	if r.err != nil {
		return 0
	}
	v, n, err := Uvarint(r.buf[r.off:])
	if err != nil {
		r.err = err
		return 0
	}
	r.off += n
	return v
}

// Count reads a count or id in the encoding used by the payload's version.
func (r *Reader) Count() uint32 {
	if r.version < VersionVarint {
		return r.U32()
	}
	v := r.Uvarint()
	if v > math.MaxUint32 {
		r.fail(ErrBadVarint)
		return 0
	}
	return uint32(v)
}

// Bytes reads a count-prefixed byte string. The result is a copy.
func (r *Reader) Bytes() []byte {
	n := r.Count()
	b := r.take(int(n))
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// String reads a count-prefixed string.
func (r *Reader) String() string {
	n := r.Count()
	return string(r.take(int(n)))
}

// Raw returns the next n bytes without copying.
func (r *Reader) Raw(n int) []byte { return r.take(n) }

// Skip advances past n bytes.
func (r *Reader) Skip(n int) { r.take(n) }

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

package codec

import (
	"encoding/binary"
	"math"
)

// Writer is a growable little-endian byte sink bound to a format version.
// Components write their payload through it; the version decides how counts
// are encoded.
type Writer struct {
	buf     []byte
	version uint32
}

// NewWriter returns a Writer for the given format version.
func NewWriter(version uint32) *Writer {
	return &Writer{version: version}
}

// Version returns the format version the payload is written for.
func (w *Writer) Version() uint32 { return w.version }

// Bytes returns the written payload. The slice aliases the internal buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// Reset discards the payload, keeping the buffer for reuse.
func (w *Writer) Reset() { w.buf = w.buf[:0] }

func (w *Writer) PutU8(v uint8) { w.buf = append(w.buf, v) }

func (w *Writer) PutU16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }

func (w *Writer) PutU32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }

func (w *Writer) PutU64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }

func (w *Writer) PutI32(v int32) { w.PutU32(uint32(v)) }

func (w *Writer) PutI64(v int64) { w.PutU64(uint64(v)) }

func (w *Writer) PutF32(v float32) { w.PutU32(math.Float32bits(v)) }

func (w *Writer) PutF64(v float64) { w.PutU64(math.Float64bits(v)) }

func (w *Writer) PutBool(v bool) {
	if v {
		w.PutU8(1)
		return
	}
	w.PutU8(0)
}

// PutUvarint writes v as LEB128 regardless of version.
func (w *Writer) PutUvarint(v uint64) { w.buf = AppendUvarint(w.buf, v) }

// PutCount writes a count or id: a fixed u32 before v4, a varint from v4 on.
func (w *Writer) PutCount(n uint32) {
	if w.version >= VersionVarint {
		w.PutUvarint(uint64(n))
		return
	}
	w.PutU32(n)
}

// PutBytes writes a count-prefixed byte string.
func (w *Writer) PutBytes(b []byte) {
	w.PutCount(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// PutString writes a count-prefixed UTF-8 string.
func (w *Writer) PutString(s string) {
	w.PutCount(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// PutRaw appends b without a length prefix.
func (w *Writer) PutRaw(b []byte) { w.buf = append(w.buf, b...) }

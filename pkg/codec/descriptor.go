package codec

import (
	"encoding/binary"
	"errors"
	"unsafe"
)

// Format versions.
const (
	VersionMin     uint32 = 1
	CurrentVersion uint32 = 9

	// VersionTLV switches section headers to [id:2][size:4].
	VersionTLV uint32 = 3
	// VersionVarint switches payload counts to LEB128.
	VersionVarint uint32 = 4
	// VersionCompression enables the size-field compression flag.
	VersionCompression uint32 = 6
	// VersionIntegrity adds per-section CRC32 and the SHA-256 footer.
	VersionIntegrity uint32 = 7
	// VersionSignature allows the signature trailer.
	VersionSignature uint32 = 9
)

// DescriptorSize is the on-disk size of the descriptor: six scalar fields
// (28 bytes) plus 4 reserved bytes that keep the 8-byte alignment of the
// total_size field.
const DescriptorSize = 32

var (
	ErrTruncated  = errors.New("codec: truncated buffer")
	ErrBadVarint  = errors.New("codec: malformed varint")
	ErrDecompress = errors.New("codec: decompressed length mismatch")
	ErrBadRLE     = errors.New("codec: malformed rle stream")
	ErrBadMagic   = errors.New("codec: unknown magic")
)

// Descriptor is the fixed-size header written first in every save file.
type Descriptor struct {
	Version       uint32
	Timestamp     uint32
	ComponentMask uint32
	SectionCount  uint32
	TotalSize     uint64
	// Checksum is the CRC32 of the section bytes (everything after the
	// descriptor, excluding the SHA-256 footer and signature trailer).
	Checksum uint32
}

// EncodeDescriptor returns the 32-byte encoding of d.
func EncodeDescriptor(d Descriptor) []byte {
	b := make([]byte, DescriptorSize)
	PutDescriptor(b, d)
	return b
}

// PutDescriptor writes d into the first DescriptorSize bytes of b.
func PutDescriptor(b []byte, d Descriptor) {
	_ = b[DescriptorSize-1]
	binary.LittleEndian.PutUint32(b[0:], d.Version)
	binary.LittleEndian.PutUint32(b[4:], d.Timestamp)
	binary.LittleEndian.PutUint32(b[8:], d.ComponentMask)
	binary.LittleEndian.PutUint32(b[12:], d.SectionCount)
	binary.LittleEndian.PutUint64(b[16:], d.TotalSize)
	binary.LittleEndian.PutUint32(b[24:], d.Checksum)
	binary.LittleEndian.PutUint32(b[28:], 0)
}

// DecodeDescriptor parses the descriptor at the start of b.
func DecodeDescriptor(b []byte) (Descriptor, error) {
	if len(b) < DescriptorSize {
		return Descriptor{}, ErrTruncated
	}
	return Descriptor{
		Version:       binary.LittleEndian.Uint32(b[0:]),
		Timestamp:     binary.LittleEndian.Uint32(b[4:]),
		ComponentMask: binary.LittleEndian.Uint32(b[8:]),
		SectionCount:  binary.LittleEndian.Uint32(b[12:]),
		TotalSize:     binary.LittleEndian.Uint64(b[16:]),
		Checksum:      binary.LittleEndian.Uint32(b[24:]),
	}, nil
}

// SupportedVersion reports whether v is a known format version.
func SupportedVersion(v uint32) bool {
	return v >= VersionMin && v <= CurrentVersion
}

// HostIsLittleEndian reports whether the running host stores integers
// little-endian. Save files are always little-endian; the engine refuses to
// run elsewhere.
func HostIsLittleEndian() bool {
	x := uint16(0x0102)
	return *(*byte)(unsafe.Pointer(&x)) == 0x02
}

package codec

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
)

// SizeFlagCompressed marks a compressed payload in the section size field (v6+).
const SizeFlagCompressed uint32 = 1 << 31

// MaxSectionSize is the largest payload a section size field can describe.
const MaxSectionSize = int(SizeFlagCompressed - 1)

// MaxDecompressedSize caps the uncompressed size a compressed section may
// declare. Larger payloads are always stored uncompressed.
const MaxDecompressedSize = 16 << 20

var (
	ErrSectionTooLarge = errors.New("codec: section payload too large")
	ErrSectionID       = errors.New("codec: section id out of range")
	ErrMissingCRC      = errors.New("codec: missing section crc")
)

// CompressPolicy decides whether fresh sections get RLE-compressed.
type CompressPolicy struct {
	Enabled  bool
	MinBytes int
}

// SectionHeaderSize returns the header length used by the given version.
func SectionHeaderSize(version uint32) int {
	if version >= VersionTLV {
		return 6
	}
	return 8
}

// HasSectionCRC reports whether sections carry a trailing CRC32.
func HasSectionCRC(version uint32) bool { return version >= VersionIntegrity }

// Checksum is the CRC32 (IEEE) used throughout the format.
func Checksum(b []byte) uint32 { return crc32.ChecksumIEEE(b) }

// AppendSectionHeader appends a section header in the layout of version.
func AppendSectionHeader(b []byte, version uint32, id uint32, sizeField uint32) []byte {
	if version >= VersionTLV {
		b = binary.LittleEndian.AppendUint16(b, uint16(id))
	} else {
		b = binary.LittleEndian.AppendUint32(b, id)
	}
	return binary.LittleEndian.AppendUint32(b, sizeField)
}

// ReadSectionHeader parses a section header at the start of b.
func ReadSectionHeader(b []byte, version uint32) (id uint32, sizeField uint32, n int, err error) {
	n = SectionHeaderSize(version)
	if len(b) < n {
		return 0, 0, 0, ErrTruncated
	}
	if version >= VersionTLV {
		id = uint32(binary.LittleEndian.Uint16(b))
		sizeField = binary.LittleEndian.Uint32(b[2:])
	} else {
		id = binary.LittleEndian.Uint32(b)
		sizeField = binary.LittleEndian.Uint32(b[4:])
	}
	return id, sizeField, n, nil
}

// EncodedSection is a framed section ready to be appended to a file body.
// Stored holds the bytes that follow the header on disk, which for a
// compressed section starts with the u32 uncompressed size.
type EncodedSection struct {
	ID        uint32
	SizeField uint32
	Stored    []byte
	// CRC covers the uncompressed payload.
	CRC uint32
}

// Compressed reports whether the section payload is RLE-compressed.
func (s EncodedSection) Compressed() bool { return s.SizeField&SizeFlagCompressed != 0 }

// EncodeSection frames payload for the given version, compressing it when
// the policy allows and compression actually saves space.
func EncodeSection(version uint32, id uint32, payload []byte, policy CompressPolicy) (EncodedSection, error) {
	if len(payload) > MaxSectionSize {
		return EncodedSection{}, ErrSectionTooLarge
	}
	if version >= VersionTLV && id > 0xFFFF {
		return EncodedSection{}, ErrSectionID
	}
	sec := EncodedSection{
		ID:        id,
		SizeField: uint32(len(payload)),
		Stored:    payload,
		CRC:       Checksum(payload),
	}
	if version < VersionCompression || !policy.Enabled || len(payload) < policy.MinBytes ||
		len(payload) == 0 || len(payload) > MaxDecompressedSize {
		return sec, nil
	}
	packed := CompressRLE(payload)
	if 4+len(packed) >= len(payload) {
		return sec, nil
	}
	stored := make([]byte, 0, 4+len(packed))
	stored = binary.LittleEndian.AppendUint32(stored, uint32(len(payload)))
	stored = append(stored, packed...)
	sec.Stored = stored
	sec.SizeField = uint32(len(stored)) | SizeFlagCompressed
	return sec, nil
}

// Len returns the number of bytes AppendTo would emit.
func (s EncodedSection) Len(version uint32) int {
	n := SectionHeaderSize(version) + len(s.Stored)
	if HasSectionCRC(version) {
		n += 4
	}
	return n
}

// AppendTo appends header, stored bytes and (v7+) CRC to b.
func (s EncodedSection) AppendTo(b []byte, version uint32) []byte {
	b = AppendSectionHeader(b, version, s.ID, s.SizeField)
	b = append(b, s.Stored...)
	if HasSectionCRC(version) {
		b = binary.LittleEndian.AppendUint32(b, s.CRC)
	}
	return b
}

// RawSection is a section as found in a file body.
type RawSection struct {
	ID        uint32
	SizeField uint32
	Stored    []byte
	CRC       uint32
	HasCRC    bool
	// Offset is the position of the section header within the body.
	Offset int
}

// Compressed reports whether the stored bytes are RLE-compressed under version.
func (s RawSection) Compressed(version uint32) bool {
	return version >= VersionCompression && s.SizeField&SizeFlagCompressed != 0
}

// StoredSize returns the on-disk payload size without the flag bit.
func (s RawSection) StoredSize(version uint32) uint32 {
	if version >= VersionCompression {
		return s.SizeField &^ SizeFlagCompressed
	}
	return s.SizeField
}

// Payload returns the uncompressed payload bytes.
func (s RawSection) Payload(version uint32) ([]byte, error) {
	if !s.Compressed(version) {
		return s.Stored, nil
	}
	if len(s.Stored) < 4 {
		return nil, ErrTruncated
	}
	want := binary.LittleEndian.Uint32(s.Stored)
	if want > MaxDecompressedSize {
		return nil, ErrDecompress
	}
	return DecompressRLE(s.Stored[4:], int(want))
}

// WalkSections parses count sections from the start of body in the layout of
// version and returns them with the offset just past the last one. It only
// checks framing bounds; CRCs and compression are left to the caller.
func WalkSections(body []byte, version uint32, count uint32) ([]RawSection, int, error) {
	hdr := SectionHeaderSize(version)
	// Each section needs at least its header; reject absurd counts early.
	if uint64(count)*uint64(hdr) > uint64(len(body)) {
		return nil, 0, ErrTruncated
	}
	sections := make([]RawSection, 0, count)
	off := 0
	for i := uint32(0); i < count; i++ {
		id, sizeField, n, err := ReadSectionHeader(body[off:], version)
		if err != nil {
			return nil, 0, err
		}
		sec := RawSection{ID: id, SizeField: sizeField, Offset: off}
		off += n
		size := int(sec.StoredSize(version))
		if size < 0 || size > len(body)-off {
			return nil, 0, ErrTruncated
		}
		sec.Stored = body[off : off+size]
		off += size
		if HasSectionCRC(version) {
			if len(body)-off < 4 {
				return nil, 0, ErrMissingCRC
			}
			sec.CRC = binary.LittleEndian.Uint32(body[off:])
			sec.HasCRC = true
			off += 4
		}
		sections = append(sections, sec)
	}
	return sections, off, nil
}

// SplitSections parses sections from body until it is exhausted. Migrations
// use it because they see the section bytes without the descriptor.
func SplitSections(body []byte, version uint32) ([]RawSection, error) {
	var sections []RawSection
	off := 0
	for off < len(body) {
		secs, n, err := WalkSections(body[off:], version, 1)
		if err != nil {
			return nil, err
		}
		secs[0].Offset = off
		sections = append(sections, secs[0])
		off += n
	}
	return sections, nil
}

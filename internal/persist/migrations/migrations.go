// Package migrations holds the built-in save format upgrade chain.
//
// Each step rewrites the section bytes of a file (everything between the
// descriptor and the footers) from one format version to the next. Steps
// never see the descriptor; the caller bumps the version and recomputes
// checksums afterwards.
package migrations

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/yndnr/roguesave/pkg/codec"
)

// Func transforms section bytes. It may reuse body's backing array; callers
// pass a private copy.
type Func func(body []byte) ([]byte, error)

// Step upgrades section bytes from From to To (always From+1).
type Step struct {
	From  uint32
	To    uint32
	Name  string
	Apply Func
}

var (
	ErrWideID       = errors.New("migrations: section id does not fit in 16 bits")
	ErrFlaggedSize  = errors.New("migrations: section size collides with compression flag")
	ErrNotAdvancing = errors.New("migrations: step must advance by exactly one version")
)

// Builtin returns the full v1 to v9 chain in order.
func Builtin() []Step {
	return []Step{
		{From: 1, To: 2, Name: "noop_1_2", Apply: noop},
		{From: 2, To: 3, Name: "tlv_headers", Apply: tlvHeaders},
		// Payload counts switch to varints here. Payloads keep the encoding
		// they were written with and are decoded with the file's original
		// version, so the framing does not change.
		{From: 3, To: 4, Name: "varint_counts", Apply: noop},
		{From: 4, To: 5, Name: "noop_4_5", Apply: noop},
		{From: 5, To: 6, Name: "compression_flag", Apply: compressionFlag},
		{From: 6, To: 7, Name: "section_crc", Apply: sectionCRC},
		{From: 7, To: 8, Name: "noop_7_8", Apply: noop},
		{From: 8, To: 9, Name: "noop_8_9", Apply: noop},
	}
}

// Validate checks that s is a well-formed single step.
func Validate(s Step) error {
	if s.Apply == nil {
		return fmt.Errorf("migrations: %s: nil apply func", s.Name)
	}
	if s.To != s.From+1 {
		return ErrNotAdvancing
	}
	return nil
}

func noop(body []byte) ([]byte, error) { return body, nil }

// tlvHeaders rewrites [id:4][size:4] headers into [id:2][size:4].
func tlvHeaders(body []byte) ([]byte, error) {
	sections, err := codec.SplitSections(body, 2)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(body)-2*len(sections))
	for _, s := range sections {
		if s.ID > 0xFFFF {
			return nil, fmt.Errorf("%w: %d", ErrWideID, s.ID)
		}
		out = codec.AppendSectionHeader(out, 3, s.ID, s.SizeField)
		out = append(out, s.Stored...)
	}
	return out, nil
}

// compressionFlag refuses sizes that v6 would read as compressed.
func compressionFlag(body []byte) ([]byte, error) {
	sections, err := codec.SplitSections(body, 5)
	if err != nil {
		return nil, err
	}
	for _, s := range sections {
		if s.SizeField&codec.SizeFlagCompressed != 0 {
			return nil, fmt.Errorf("%w: section %d", ErrFlaggedSize, s.ID)
		}
	}
	return body, nil
}

// sectionCRC appends a CRC32 of the uncompressed payload after each section.
func sectionCRC(body []byte) ([]byte, error) {
	sections, err := codec.SplitSections(body, 6)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(body)+4*len(sections))
	for _, s := range sections {
		payload, err := s.Payload(6)
		if err != nil {
			return nil, fmt.Errorf("migrations: section %d: %w", s.ID, err)
		}
		out = codec.AppendSectionHeader(out, 6, s.ID, s.SizeField)
		out = append(out, s.Stored...)
		out = binary.LittleEndian.AppendUint32(out, codec.Checksum(payload))
	}
	return out, nil
}

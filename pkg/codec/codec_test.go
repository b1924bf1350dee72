package codec

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"math"
	"runtime"
	"testing"
)

func TestDescriptor_RoundTrip(t *testing.T) {
	d := Descriptor{
		Version:       CurrentVersion,
		Timestamp:     1700000000,
		ComponentMask: 0b1011,
		SectionCount:  3,
		TotalSize:     1 << 33,
		Checksum:      0xDEADBEEF,
	}
	b := EncodeDescriptor(d)
	if len(b) != DescriptorSize {
		t.Fatalf("len = %d, want %d", len(b), DescriptorSize)
	}
	got, err := DecodeDescriptor(b)
	if err != nil {
		t.Fatalf("DecodeDescriptor: %v", err)
	}
	if got != d {
		t.Fatalf("got %+v, want %+v", got, d)
	}
	if !bytes.Equal(b[28:], []byte{0, 0, 0, 0}) {
		t.Fatalf("reserved = %x, want zeros", b[28:])
	}
	if _, err := DecodeDescriptor(b[:DescriptorSize-1]); !errors.Is(err, ErrTruncated) {
		t.Fatalf("short decode err = %v, want %v", err, ErrTruncated)
	}
}

func TestSupportedVersion(t *testing.T) {
	for v, want := range map[uint32]bool{0: false, 1: true, 5: true, 9: true, 10: false} {
		if got := SupportedVersion(v); got != want {
			t.Fatalf("SupportedVersion(%d) = %v, want %v", v, got, want)
		}
	}
	if !HostIsLittleEndian() {
		t.Skip("big-endian host")
	}
}

func TestUvarint(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 300, 1<<32 - 1, math.MaxUint64}
	for _, v := range cases {
		b := AppendUvarint(nil, v)
		if len(b) != UvarintLen(v) {
			t.Fatalf("len(%d) = %d, want %d", v, len(b), UvarintLen(v))
		}
		got, n, err := Uvarint(b)
		if err != nil {
			t.Fatalf("Uvarint(%x): %v", b, err)
		}
		if got != v || n != len(b) {
			t.Fatalf("Uvarint(%x) = %d,%d, want %d,%d", b, got, n, v, len(b))
		}
	}
	if n := UvarintLen(math.MaxUint64); n != MaxVarintLen {
		t.Fatalf("UvarintLen(max) = %d, want %d", n, MaxVarintLen)
	}
}

func TestUvarint_Malformed(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want error
	}{
		{"empty", nil, ErrTruncated},
		{"unterminated", []byte{0x80, 0x80}, ErrTruncated},
		{"eleven bytes", bytes.Repeat([]byte{0x80}, 11), ErrBadVarint},
		{"overflow tenth byte", append(bytes.Repeat([]byte{0xff}, 9), 0x02), ErrBadVarint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Uvarint(tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRLE_Packets(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{"run", []byte{7, 7, 7}, []byte{254, 7}},
		{"literal", []byte{1, 2, 3}, []byte{2, 1, 2, 3}},
		{"mixed", []byte{1, 2, 5, 5, 5, 5, 9}, []byte{1, 1, 2, 253, 5, 0, 9}},
		{"long run", bytes.Repeat([]byte{0}, 130), []byte{129, 0, 255, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompressRLE(tt.in)
			if !bytes.Equal(got, tt.want) {
				t.Fatalf("CompressRLE = %v, want %v", got, tt.want)
			}
			back, err := DecompressRLE(got, len(tt.in))
			if err != nil {
				t.Fatalf("DecompressRLE: %v", err)
			}
			if !bytes.Equal(back, tt.in) {
				t.Fatalf("DecompressRLE = %v, want %v", back, tt.in)
			}
		})
	}
}

func TestRLE_WorstCaseBound(t *testing.T) {
	in := make([]byte, 1000)
	for i := range in {
		in[i] = byte(i)
	}
	out := CompressRLE(in)
	if limit := len(in) + (len(in)+maxLiteral-1)/maxLiteral; len(out) > limit {
		t.Fatalf("len = %d, want <= %d", len(out), limit)
	}
}

func TestDecompressRLE_Errors(t *testing.T) {
	if _, err := DecompressRLE([]byte{254, 7}, 4); !errors.Is(err, ErrDecompress) {
		t.Fatalf("length mismatch err = %v, want %v", err, ErrDecompress)
	}
	if _, err := DecompressRLE([]byte{128}, 0); !errors.Is(err, ErrBadRLE) {
		t.Fatalf("noop control err = %v, want %v", err, ErrBadRLE)
	}
	if _, err := DecompressRLE([]byte{3, 1, 2}, 4); !errors.Is(err, ErrBadRLE) {
		t.Fatalf("short literal err = %v, want %v", err, ErrBadRLE)
	}
}

func TestDecompressRLE_ImpossibleLength(t *testing.T) {
	// One repeat packet yields at most 128 bytes.
	if out, err := DecompressRLE([]byte{129, 9}, 128); err != nil || len(out) != 128 {
		t.Fatalf("DecompressRLE(128) = %d bytes, %v", len(out), err)
	}
	if _, err := DecompressRLE([]byte{129, 9}, 129); !errors.Is(err, ErrDecompress) {
		t.Fatalf("DecompressRLE(129) err = %v, want %v", err, ErrDecompress)
	}
	if _, err := DecompressRLE(nil, 1); !errors.Is(err, ErrDecompress) {
		t.Fatalf("empty stream err = %v, want %v", err, ErrDecompress)
	}
}

func TestRawSection_Payload_OversizedPrefix(t *testing.T) {
	stored := binary.LittleEndian.AppendUint32(nil, 0x7FFFFFF0)
	stored = append(stored, 129, 0)
	raw := RawSection{ID: 1, SizeField: uint32(len(stored)) | SizeFlagCompressed, Stored: stored}

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := raw.Payload(CurrentVersion)
	runtime.ReadMemStats(&after)
	if !errors.Is(err, ErrDecompress) {
		t.Fatalf("Payload err = %v, want %v", err, ErrDecompress)
	}
	if grown := after.TotalAlloc - before.TotalAlloc; grown > 1<<20 {
		t.Fatalf("Payload allocated %d bytes for a rejected section", grown)
	}

	// Within the cap but beyond what two bytes can expand to.
	binary.LittleEndian.PutUint32(stored, MaxDecompressedSize)
	if _, err := raw.Payload(CurrentVersion); !errors.Is(err, ErrDecompress) {
		t.Fatalf("Payload err = %v, want %v", err, ErrDecompress)
	}
}

func TestEncodeSection_LargePayloadStaysRaw(t *testing.T) {
	payload := make([]byte, MaxDecompressedSize+1)
	sec, err := EncodeSection(CurrentVersion, 1, payload, CompressPolicy{Enabled: true, MinBytes: 1})
	if err != nil {
		t.Fatalf("EncodeSection: %v", err)
	}
	if sec.Compressed() {
		t.Fatalf("payload over %d bytes was compressed", MaxDecompressedSize)
	}
}

func TestSectionHeader_Layouts(t *testing.T) {
	b := AppendSectionHeader(nil, 2, 5, 10)
	if len(b) != 8 || SectionHeaderSize(2) != 8 {
		t.Fatalf("v2 header len = %d, want 8", len(b))
	}
	b = AppendSectionHeader(nil, 3, 5, 10)
	if len(b) != 6 || SectionHeaderSize(3) != 6 {
		t.Fatalf("v3 header len = %d, want 6", len(b))
	}
	id, size, n, err := ReadSectionHeader(b, 3)
	if err != nil || id != 5 || size != 10 || n != 6 {
		t.Fatalf("ReadSectionHeader = %d,%d,%d,%v", id, size, n, err)
	}
	if _, _, _, err := ReadSectionHeader(b[:5], 3); !errors.Is(err, ErrTruncated) {
		t.Fatalf("short header err = %v, want %v", err, ErrTruncated)
	}
}

func TestEncodeSection_Compression(t *testing.T) {
	policy := CompressPolicy{Enabled: true, MinBytes: 64}

	zeros := make([]byte, 200)
	sec, err := EncodeSection(CurrentVersion, 1, zeros, policy)
	if err != nil {
		t.Fatalf("EncodeSection: %v", err)
	}
	if !sec.Compressed() {
		t.Fatalf("zeros not compressed")
	}
	if len(sec.Stored) > len(zeros)+4 {
		t.Fatalf("stored = %d, want <= %d", len(sec.Stored), len(zeros)+4)
	}
	if sec.CRC != Checksum(zeros) {
		t.Fatalf("crc over stored bytes, want over payload")
	}

	body := sec.AppendTo(nil, CurrentVersion)
	if len(body) != sec.Len(CurrentVersion) {
		t.Fatalf("AppendTo len = %d, want %d", len(body), sec.Len(CurrentVersion))
	}
	raws, end, err := WalkSections(body, CurrentVersion, 1)
	if err != nil {
		t.Fatalf("WalkSections: %v", err)
	}
	if end != len(body) {
		t.Fatalf("end = %d, want %d", end, len(body))
	}
	payload, err := raws[0].Payload(CurrentVersion)
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}
	if !bytes.Equal(payload, zeros) {
		t.Fatalf("payload mismatch")
	}
	if !raws[0].HasCRC || raws[0].CRC != sec.CRC {
		t.Fatalf("crc = %x, want %x", raws[0].CRC, sec.CRC)
	}

	noisy := make([]byte, 200)
	for i := range noisy {
		noisy[i] = byte(i)
	}
	sec, _ = EncodeSection(CurrentVersion, 1, noisy, policy)
	if sec.Compressed() || len(sec.Stored) != len(noisy) {
		t.Fatalf("incompressible payload was compressed")
	}

	small := make([]byte, 32)
	sec, _ = EncodeSection(CurrentVersion, 1, small, policy)
	if sec.Compressed() {
		t.Fatalf("payload below MinBytes was compressed")
	}

	sec, _ = EncodeSection(5, 1, zeros, policy)
	if sec.Compressed() {
		t.Fatalf("v5 section was compressed")
	}
}

func TestEncodeSection_IDRange(t *testing.T) {
	if _, err := EncodeSection(CurrentVersion, 0x10000, nil, CompressPolicy{}); !errors.Is(err, ErrSectionID) {
		t.Fatalf("err = %v, want %v", err, ErrSectionID)
	}
	if _, err := EncodeSection(2, 0x10000, nil, CompressPolicy{}); err != nil {
		t.Fatalf("v2 wide id: %v", err)
	}
}

func TestWalkSections_Truncated(t *testing.T) {
	sec, _ := EncodeSection(CurrentVersion, 1, []byte("hello"), CompressPolicy{})
	body := sec.AppendTo(nil, CurrentVersion)
	for cut := 0; cut < len(body); cut++ {
		if _, _, err := WalkSections(body[:cut], CurrentVersion, 1); err == nil {
			t.Fatalf("cut %d: expected error", cut)
		}
	}
	if _, _, err := WalkSections(body, CurrentVersion, 1<<30); err == nil {
		t.Fatalf("huge count: expected error")
	}
}

func TestFooters(t *testing.T) {
	digest := sha256.Sum256([]byte("x"))
	tail := AppendDigestFooter(nil, digest)

	f, err := ParseFooters(tail, 8)
	if err != nil || !f.HasDigest || f.Digest != digest || f.HasSignature {
		t.Fatalf("ParseFooters v8 = %+v, %v", f, err)
	}

	signed, err := AppendSignatureTrailer(tail, []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("AppendSignatureTrailer: %v", err)
	}
	f, err = ParseFooters(signed, 9)
	if err != nil || !f.HasSignature || !bytes.Equal(f.Signature, []byte{1, 2, 3}) {
		t.Fatalf("ParseFooters v9 = %+v, %v", f, err)
	}
	if _, err := ParseFooters(signed, 8); !errors.Is(err, ErrTrailingBytes) {
		t.Fatalf("v8 with trailer err = %v, want %v", err, ErrTrailingBytes)
	}
	if _, err := ParseFooters(signed[:len(signed)-1], 9); !errors.Is(err, ErrMissingSigData) {
		t.Fatalf("short signature err = %v, want %v", err, ErrMissingSigData)
	}
	if _, err := ParseFooters(tail[:10], 9); !errors.Is(err, ErrMissingDigest) {
		t.Fatalf("short digest err = %v, want %v", err, ErrMissingDigest)
	}
	if _, err := ParseFooters([]byte{0}, 6); !errors.Is(err, ErrTrailingBytes) {
		t.Fatalf("v6 trailing err = %v, want %v", err, ErrTrailingBytes)
	}
	if _, err := AppendSignatureTrailer(nil, make([]byte, MaxSignatureLen+1)); !errors.Is(err, ErrSignatureSize) {
		t.Fatalf("oversized signature err = %v, want %v", err, ErrSignatureSize)
	}
}

func TestWriterReader_RoundTrip(t *testing.T) {
	for _, version := range []uint32{3, CurrentVersion} {
		w := NewWriter(version)
		w.PutU8(1)
		w.PutU16(2)
		w.PutU32(3)
		w.PutU64(4)
		w.PutI32(-5)
		w.PutI64(-6)
		w.PutF32(1.5)
		w.PutF64(-2.25)
		w.PutBool(true)
		w.PutCount(300)
		w.PutString("sword")
		w.PutBytes([]byte{9, 8})
		w.PutUvarint(1 << 40)

		r := NewReader(w.Bytes(), version)
		if r.U8() != 1 || r.U16() != 2 || r.U32() != 3 || r.U64() != 4 {
			t.Fatalf("v%d: unsigned mismatch", version)
		}
		if r.I32() != -5 || r.I64() != -6 {
			t.Fatalf("v%d: signed mismatch", version)
		}
		if r.F32() != 1.5 || r.F64() != -2.25 || !r.Bool() {
			t.Fatalf("v%d: float/bool mismatch", version)
		}
		if got := r.Count(); got != 300 {
			t.Fatalf("v%d: Count = %d, want 300", version, got)
		}
		if got := r.String(); got != "sword" {
			t.Fatalf("v%d: String = %q, want %q", version, got, "sword")
		}
		if got := r.Bytes(); !bytes.Equal(got, []byte{9, 8}) {
			t.Fatalf("v%d: Bytes = %v", version, got)
		}
		if got := r.Uvarint(); got != 1<<40 {
			t.Fatalf("v%d: Uvarint = %d", version, got)
		}
		if r.Err() != nil || r.Remaining() != 0 {
			t.Fatalf("v%d: err = %v remaining = %d", version, r.Err(), r.Remaining())
		}
	}
}

func TestWriter_CountWidth(t *testing.T) {
	w := NewWriter(3)
	w.PutCount(1)
	if w.Len() != 4 {
		t.Fatalf("v3 count len = %d, want 4", w.Len())
	}
	w = NewWriter(4)
	w.PutCount(1)
	if w.Len() != 1 {
		t.Fatalf("v4 count len = %d, want 1", w.Len())
	}
}

func TestReader_StickyError(t *testing.T) {
	r := NewReader([]byte{1, 2}, CurrentVersion)
	if r.U32() != 0 {
		t.Fatalf("short read returned data")
	}
	if !errors.Is(r.Err(), ErrTruncated) {
		t.Fatalf("err = %v, want %v", r.Err(), ErrTruncated)
	}
	if r.U8() != 0 || r.Offset() != 0 {
		t.Fatalf("reader advanced after error")
	}

	r = NewReader([]byte{0x05, 'a'}, CurrentVersion)
	if s := r.String(); s != "" || !errors.Is(r.Err(), ErrTruncated) {
		t.Fatalf("String = %q err = %v", s, r.Err())
	}
}

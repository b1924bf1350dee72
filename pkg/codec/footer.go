package codec

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
)

var (
	// DigestMagic tags the SHA-256 footer.
	DigestMagic = [4]byte{'S', 'H', '3', '2'}
	// SignatureMagic tags the signature trailer.
	SignatureMagic = [4]byte{'S', 'G', 'N', '0'}
)

const (
	// DigestFooterSize is magic plus a SHA-256 digest.
	DigestFooterSize = 4 + sha256.Size
	// SignatureOverhead is the u16 length plus magic preceding the signature bytes.
	SignatureOverhead = 2 + 4
	// MaxSignatureLen is the largest signature the trailer length field allows.
	MaxSignatureLen = 0xFFFF
)

var (
	ErrMissingDigest  = errors.New("codec: missing sha-256 footer")
	ErrTrailingBytes  = errors.New("codec: unexpected trailing bytes")
	ErrSignatureSize  = errors.New("codec: signature too large")
	ErrMissingSigData = errors.New("codec: signature trailer truncated")
)

// Footers holds the integrity data that follows the section bytes.
type Footers struct {
	Digest       [sha256.Size]byte
	HasDigest    bool
	Signature    []byte
	HasSignature bool
}

// AppendDigestFooter appends the SH32 footer.
func AppendDigestFooter(b []byte, digest [sha256.Size]byte) []byte {
	b = append(b, DigestMagic[:]...)
	return append(b, digest[:]...)
}

// AppendSignatureTrailer appends the SGN0 trailer carrying sig.
func AppendSignatureTrailer(b []byte, sig []byte) ([]byte, error) {
	if len(sig) > MaxSignatureLen {
		return b, ErrSignatureSize
	}
	b = binary.LittleEndian.AppendUint16(b, uint16(len(sig)))
	b = append(b, SignatureMagic[:]...)
	return append(b, sig...), nil
}

// ParseFooters decodes tail, the bytes following the last section, for a
// file of the given version. Versions before 7 carry no footer; 7 and 8
// require exactly the digest footer; 9 allows a signature trailer after it.
func ParseFooters(tail []byte, version uint32) (Footers, error) {
	var f Footers
	if version < VersionIntegrity {
		if len(tail) != 0 {
			return f, ErrTrailingBytes
		}
		return f, nil
	}
	if len(tail) < DigestFooterSize {
		return f, ErrMissingDigest
	}
	if !bytes.Equal(tail[:4], DigestMagic[:]) {
		return f, ErrMissingDigest
	}
	copy(f.Digest[:], tail[4:DigestFooterSize])
	f.HasDigest = true

	rest := tail[DigestFooterSize:]
	if len(rest) == 0 {
		return f, nil
	}
	if version < VersionSignature {
		return f, ErrTrailingBytes
	}
	if len(rest) < SignatureOverhead {
		return f, ErrMissingSigData
	}
	n := int(binary.LittleEndian.Uint16(rest))
	if !bytes.Equal(rest[2:6], SignatureMagic[:]) {
		return f, ErrBadMagic
	}
	if len(rest)-SignatureOverhead != n {
		return f, ErrMissingSigData
	}
	f.Signature = rest[SignatureOverhead:]
	f.HasSignature = true
	return f, nil
}

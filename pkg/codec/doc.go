// Package codec implements the byte-level encoding of roguesave files.
//
// A save file is laid out as:
//
//	[Descriptor:32]
//	[Section]*            (one per component, ascending id)
//	["SH32"][sha256:32]   (v7+)
//	[len:2]["SGN0"][sig]  (v9+, optional)
//
// Section framing by format version:
//
//	v1-v2: [id:4][size:4][payload]
//	v3+:   [id:2][size:4][payload]
//	v6+:   size bit 31 set => payload is [usize:4][rle bytes]
//	v7+:   [payload][crc32:4]  (crc over the uncompressed payload)
//
// All integers are little-endian. Counts inside component payloads are
// fixed u32 before v4 and unsigned LEB128 from v4 on; Writer.PutCount and
// Reader.Count pick the right form from the bound version.
//
// RLE uses the PackBits scheme: a control byte c in 0..127 is followed by
// c+1 literal bytes, c in 129..255 means the next byte repeats 257-c times,
// and 128 is invalid.
package codec

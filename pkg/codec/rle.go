package codec

const (
	maxLiteral = 128
	maxRun     = 128
	// maxExpansion bounds output per input byte: a two-byte repeat packet
	// yields at most maxRun bytes.
	maxExpansion = maxRun / 2
)

// CompressRLE encodes src with PackBits. Runs of two or more identical bytes
// become a two-byte repeat packet; everything else is grouped into literal
// packets of up to 128 bytes.
func CompressRLE(src []byte) []byte {
	out := make([]byte, 0, len(src)+len(src)/maxLiteral+1)
	i := 0
	for i < len(src) {
		run := 1
		for i+run < len(src) && src[i+run] == src[i] && run < maxRun {
			run++
		}
		if run >= 2 {
			out = append(out, byte(257-run), src[i])
			i += run
			continue
		}

		start := i
		for i < len(src) && i-start < maxLiteral {
			if i+1 < len(src) && src[i+1] == src[i] {
				break
			}
			i++
		}
		if i == start {
			// A run starts right here; emit it on the next pass.
			continue
		}
		out = append(out, byte(i-start-1))
		out = append(out, src[start:i]...)
	}
	return out
}

// DecompressRLE decodes a PackBits stream that must expand to exactly want
// bytes. A want that src could not possibly produce is rejected before
// any output is allocated.
func DecompressRLE(src []byte, want int) ([]byte, error) {
	if want < 0 || want > maxExpansion*len(src) {
		return nil, ErrDecompress
	}
	out := make([]byte, 0, want)
	i := 0
	for i < len(src) {
		c := src[i]
		i++
		switch {
		case c < 128:
			n := int(c) + 1
			if i+n > len(src) {
				return nil, ErrBadRLE
			}
			if len(out)+n > want {
				return nil, ErrDecompress
			}
			out = append(out, src[i:i+n]...)
			i += n
		case c == 128:
			return nil, ErrBadRLE
		default:
			n := 257 - int(c)
			if i >= len(src) {
				return nil, ErrBadRLE
			}
			if len(out)+n > want {
				return nil, ErrDecompress
			}
			b := src[i]
			i++
			for k := 0; k < n; k++ {
				out = append(out, b)
			}
		}
	}
	if len(out) != want {
		return nil, ErrDecompress
	}
	return out, nil
}

package persist

import "strings"

// TamperFlags records which integrity checks failed during one load attempt.
type TamperFlags uint32

const (
	FlagDescriptorCRC TamperFlags = 1 << iota
	FlagSectionCRC
	FlagSHA256
	FlagSignature
)

var flagNames = []struct {
	flag TamperFlags
	name string
}{
	{FlagDescriptorCRC, "descriptor_crc"},
	{FlagSectionCRC, "section_crc"},
	{FlagSHA256, "sha256"},
	{FlagSignature, "signature"},
}

// Has reports whether any bit of mask is set.
func (f TamperFlags) Has(mask TamperFlags) bool { return f&mask != 0 }

// String renders the set flags joined with "|", or "none".
func (f TamperFlags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}

package persist

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spaolacci/murmur3"

	"github.com/yndnr/roguesave/pkg/codec"
)

// FileInfo is the validated layout of a save file.
type FileInfo struct {
	Version       uint32        `json:"version"`
	Timestamp     uint32        `json:"timestamp"`
	ComponentMask uint32        `json:"component_mask"`
	SectionCount  uint32        `json:"section_count"`
	TotalSize     uint64        `json:"total_size"`
	Checksum      string        `json:"checksum"`
	SHA256        string        `json:"sha256,omitempty"`
	Signed        bool          `json:"signed"`
	SignatureLen  int           `json:"signature_len,omitempty"`
	Sections      []SectionInfo `json:"sections"`
}

// SectionInfo describes one section of a save file.
type SectionInfo struct {
	ID          uint32 `json:"id"`
	Name        string `json:"name,omitempty"`
	Offset      int    `json:"offset"`
	StoredSize  uint32 `json:"size"`
	RawSize     int    `json:"raw_size"`
	Compressed  bool   `json:"compressed"`
	CRC         string `json:"crc,omitempty"`
	Fingerprint string `json:"fingerprint"`
}

// Fingerprint returns the murmur3 128-bit hash of a payload in hex.
func Fingerprint(payload []byte) string {
	h1, h2 := murmur3.Sum128(payload)
	return fmt.Sprintf("%016x%016x", h1, h2)
}

// Verify validates a save file without migrating it or touching any
// component. p may be nil to skip signature checks.
func Verify(data []byte, p SignatureProvider) (*FileInfo, TamperFlags, error) {
	info, _, flags, err := inspect(data, p, false)
	return info, flags, err
}

func inspect(data []byte, p SignatureProvider, requireSig bool) (*FileInfo, []section, TamperFlags, error) {
	rf, flags, err := decodeFile(data, p, requireSig)
	if err != nil {
		return nil, nil, flags, err
	}
	sections, flags, err := decodeSections(rf.body, rf.desc.Version, rf.desc.SectionCount)
	if err != nil {
		return nil, nil, flags, err
	}
	return describe(rf, sections), sections, 0, nil
}

func describe(rf *rawFile, sections []section) *FileInfo {
	info := &FileInfo{
		Version:       rf.desc.Version,
		Timestamp:     rf.desc.Timestamp,
		ComponentMask: rf.desc.ComponentMask,
		SectionCount:  rf.desc.SectionCount,
		TotalSize:     rf.desc.TotalSize,
		Checksum:      fmt.Sprintf("%08x", rf.desc.Checksum),
		Signed:        rf.footers.HasSignature,
		SignatureLen:  len(rf.footers.Signature),
		Sections:      make([]SectionInfo, 0, len(sections)),
	}
	if rf.footers.HasDigest {
		info.SHA256 = hex.EncodeToString(rf.footers.Digest[:])
	}
	for _, s := range sections {
		si := SectionInfo{
			ID:          s.raw.ID,
			Offset:      codec.DescriptorSize + s.raw.Offset,
			StoredSize:  s.raw.StoredSize(rf.desc.Version),
			RawSize:     len(s.payload),
			Compressed:  s.raw.Compressed(rf.desc.Version),
			Fingerprint: Fingerprint(s.payload),
		}
		if s.raw.HasCRC {
			si.CRC = fmt.Sprintf("%08x", s.raw.CRC)
		}
		info.Sections = append(info.Sections, si)
	}
	return info
}

func (m *Manager) nameSections(info *FileInfo) {
	for i := range info.Sections {
		if info.Sections[i].ID > 0xFFFF {
			continue
		}
		if c, ok := m.components[uint16(info.Sections[i].ID)]; ok {
			info.Sections[i].Name = c.Name()
		}
	}
}

// Inspect validates a slot file and returns its layout.
func (m *Manager) Inspect(slot int) (*FileInfo, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	data, err := m.read(SlotName(slot))
	if err != nil {
		return nil, err
	}
	info, _, _, err := inspect(data, m.signer, m.requireSignature)
	if err != nil {
		return nil, err
	}
	m.nameSections(info)
	return info, nil
}

// ExportJSON renders the validated header and section list of a slot.
func (m *Manager) ExportJSON(slot int) ([]byte, error) {
	info, err := m.Inspect(slot)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(info, "", "  ")
}

// ForEachSection validates a slot and calls fn for every section in file
// order with its uncompressed payload. Iteration stops at the first error
// fn returns.
func (m *Manager) ForEachSection(slot int, fn func(SectionInfo, []byte) error) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	data, err := m.read(SlotName(slot))
	if err != nil {
		return err
	}
	info, sections, _, err := inspect(data, m.signer, m.requireSignature)
	if err != nil {
		return err
	}
	m.nameSections(info)
	for i, s := range sections {
		if err := fn(info.Sections[i], s.payload); err != nil {
			return err
		}
	}
	return nil
}

// ReadDescriptor returns a slot's descriptor without validating the file.
func (m *Manager) ReadDescriptor(slot int) (codec.Descriptor, error) {
	if err := checkSlot(slot); err != nil {
		return codec.Descriptor{}, err
	}
	data, err := m.read(SlotName(slot))
	if err != nil {
		return codec.Descriptor{}, err
	}
	desc, err := codec.DecodeDescriptor(data)
	if err != nil {
		return codec.Descriptor{}, ErrTruncated.Wrap(err)
	}
	return desc, nil
}

func (m *Manager) writeDebugJSON(slot int, data []byte) {
	info, _, _, err := inspect(data, nil, false)
	if err != nil {
		m.logger.Warn("debug json: inspect failed", "slot", slot, "error", err)
		return
	}
	m.nameSections(info)
	js, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		m.logger.Warn("debug json: marshal failed", "slot", slot, "error", err)
		return
	}
	if err := m.store.Write(DebugJSONName(slot), js, false); err != nil {
		m.logger.Warn("debug json: write failed", "slot", slot, "error", err)
	}
}

// SectionDiff compares one section id across two files.
type SectionDiff struct {
	ID     uint32 `json:"id"`
	Status string `json:"status"`
	Left   string `json:"left,omitempty"`
	Right  string `json:"right,omitempty"`
}

// Diff statuses.
const (
	DiffSame    = "same"
	DiffChanged = "changed"
	DiffAdded   = "added"
	DiffRemoved = "removed"
)

// DiffFiles validates two save files and compares their sections by
// payload fingerprint. Results are ordered by id.
func DiffFiles(left, right []byte) ([]SectionDiff, error) {
	a, _, err := Verify(left, nil)
	if err != nil {
		return nil, fmt.Errorf("left: %w", err)
	}
	b, _, err := Verify(right, nil)
	if err != nil {
		return nil, fmt.Errorf("right: %w", err)
	}

	byID := make(map[uint32]*SectionDiff)
	for _, s := range a.Sections {
		byID[s.ID] = &SectionDiff{ID: s.ID, Status: DiffRemoved, Left: s.Fingerprint}
	}
	for _, s := range b.Sections {
		d, ok := byID[s.ID]
		if !ok {
			byID[s.ID] = &SectionDiff{ID: s.ID, Status: DiffAdded, Right: s.Fingerprint}
			continue
		}
		d.Right = s.Fingerprint
		if d.Left == d.Right {
			d.Status = DiffSame
		} else {
			d.Status = DiffChanged
		}
	}

	out := make([]SectionDiff, 0, len(byID))
	for _, d := range byID {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

package persist

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"time"

	"github.com/yndnr/roguesave/internal/storage"
	"github.com/yndnr/roguesave/pkg/codec"
)

// rawFile is a save file that passed every check that can run before
// migration.
type rawFile struct {
	desc    codec.Descriptor
	body    []byte
	footers codec.Footers
}

// section is a decoded section at the current format version.
type section struct {
	raw     codec.RawSection
	payload []byte
}

// Load restores every component from a manual slot.
func (m *Manager) Load(slot int) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	return m.loadFrom(SlotName(slot))
}

// LoadQuicksave restores the quicksave file.
func (m *Manager) LoadQuicksave() error {
	return m.loadFrom(QuicksaveName)
}

// LoadAutosave restores a physical autosave ring file.
func (m *Manager) LoadAutosave(index int) error {
	if index < 0 || index >= RingSize {
		return ErrInvalidSlot.WithDetails("autosave index %d outside 0..%d", index, RingSize-1)
	}
	return m.loadFrom(AutosaveName(index))
}

func (m *Manager) loadFrom(target string) (err error) {
	if err := m.enter(); err != nil {
		return err
	}
	defer m.leave()

	start := time.Now()
	m.tamper = 0
	m.migSteps = 0
	m.migFailed = false
	m.migDuration = 0
	m.lastLoadBytes = 0
	var sourceVersion uint32

	defer func() {
		m.observer.LoadFinished(LoadEvent{
			Target:         target,
			Bytes:          m.lastLoadBytes,
			Duration:       time.Since(start),
			SourceVersion:  sourceVersion,
			MigrationSteps: m.migSteps,
			Flags:          m.tamper,
			Err:            err,
		})
		if err != nil {
			m.logger.Warn("load failed",
				"target", target,
				"code", CodeOf(err),
				"tamper", m.tamper.String(),
				"error", err)
		}
	}()

	data, err := m.read(target)
	if err != nil {
		return err
	}
	m.lastLoadBytes = len(data)

	rf, flags, err := decodeFile(data, m.signer, m.requireSignature)
	m.tamper |= flags
	if err != nil {
		return err
	}
	sourceVersion = rf.desc.Version

	sections, flags, err := m.upgrade(rf)
	m.tamper |= flags
	if err != nil {
		return err
	}

	if err := m.dispatch(sections, sourceVersion, nil); err != nil {
		return err
	}
	// Component state now mirrors this file; cached sections of other
	// targets are stale.
	m.MarkAllDirty()

	m.logger.Debug("load completed",
		"target", target,
		"version", sourceVersion,
		"sections", len(sections),
		"migration_steps", m.migSteps)
	return nil
}

func (m *Manager) read(name string) ([]byte, error) {
	data, err := m.store.Read(name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrIO.WithDetails("%s does not exist", name).Wrap(err)
		}
		return nil, ErrIO.WithDetails("read %s", name).Wrap(err)
	}
	return data, nil
}

// decodeFile runs the checks that apply to the raw bytes: descriptor sanity,
// structure, footers, checksum, digest and signature. It never migrates.
func decodeFile(data []byte, sig SignatureProvider, requireSig bool) (*rawFile, TamperFlags, error) {
	if len(data) < codec.DescriptorSize {
		return nil, 0, ErrTruncated.WithDetails("%d bytes, descriptor needs %d", len(data), codec.DescriptorSize)
	}
	desc, err := codec.DecodeDescriptor(data)
	if err != nil {
		return nil, 0, ErrTruncated.Wrap(err)
	}
	if !codec.SupportedVersion(desc.Version) {
		return nil, FlagDescriptorCRC, ErrUnsupportedVersion.WithDetails("version %d", desc.Version)
	}
	if desc.TotalSize != uint64(len(data)) {
		return nil, FlagDescriptorCRC, ErrSizeMismatch.WithDetails("descriptor says %d, file has %d", desc.TotalSize, len(data))
	}

	rest := data[codec.DescriptorSize:]
	_, end, err := codec.WalkSections(rest, desc.Version, desc.SectionCount)
	if err != nil {
		return nil, FlagDescriptorCRC, ErrMalformed.WithDetails("%d sections at v%d", desc.SectionCount, desc.Version).Wrap(err)
	}
	body := rest[:end]

	footers, err := codec.ParseFooters(rest[end:], desc.Version)
	if err != nil {
		if errors.Is(err, codec.ErrMissingDigest) {
			return nil, FlagSHA256, ErrSHA256.Wrap(err)
		}
		return nil, FlagDescriptorCRC, ErrMalformed.Wrap(err)
	}

	if got := codec.Checksum(body); got != desc.Checksum {
		return nil, FlagDescriptorCRC, ErrDescriptorCRC.WithDetails("got %08x, want %08x", got, desc.Checksum)
	}

	signed := data[:codec.DescriptorSize+end]
	if footers.HasDigest {
		if got := sha256.Sum256(signed); !bytes.Equal(got[:], footers.Digest[:]) {
			return nil, FlagSHA256, ErrSHA256
		}
	}

	if sig != nil {
		switch {
		case footers.HasSignature:
			if !sig.Verify(signed, footers.Signature) {
				return nil, FlagSignature, ErrSignature.WithDetails("provider %s", sig.Name())
			}
		case requireSig:
			return nil, FlagSignature, ErrSignature.WithDetails("file is not signed")
		}
	}

	return &rawFile{desc: desc, body: body, footers: footers}, 0, nil
}

// upgrade migrates the body to the current version and decodes every
// section, checking per-section CRCs.
func (m *Manager) upgrade(rf *rawFile) ([]section, TamperFlags, error) {
	body, err := m.migrate(rf.body, rf.desc.Version)
	if err != nil {
		return nil, 0, err
	}
	return decodeSections(body, codec.CurrentVersion, rf.desc.SectionCount)
}

// migrate applies the migration chain to a private copy of body. The
// caller's bytes are untouched on failure.
func (m *Manager) migrate(body []byte, from uint32) ([]byte, error) {
	if from == codec.CurrentVersion {
		return body, nil
	}
	start := time.Now()
	defer func() { m.migDuration = time.Since(start) }()

	work := append([]byte(nil), body...)
	for v := from; v < codec.CurrentVersion; v++ {
		mig, ok := m.migrations[v]
		if !ok {
			return nil, ErrMigrationChain.WithDetails("no migration from v%d", v)
		}
		out, err := mig.Apply(work)
		if err != nil {
			m.migFailed = true
			return nil, ErrMigrationFail.WithDetails("%s (v%d to v%d)", mig.Name, mig.From, mig.To).Wrap(err)
		}
		work = out
		m.migSteps++
		m.logger.Debug("migration applied", "name", mig.Name, "from", mig.From, "to", mig.To)
	}
	return work, nil
}

func decodeSections(body []byte, version uint32, count uint32) ([]section, TamperFlags, error) {
	raws, end, err := codec.WalkSections(body, version, count)
	if err != nil {
		return nil, 0, ErrMalformed.WithDetails("sections at v%d", version).Wrap(err)
	}
	if end != len(body) {
		return nil, 0, ErrMalformed.WithDetails("%d bytes after last section", len(body)-end)
	}
	out := make([]section, 0, len(raws))
	for _, raw := range raws {
		payload, err := raw.Payload(version)
		if err != nil {
			return nil, 0, ErrDecompress.WithDetails("section %d", raw.ID).Wrap(err)
		}
		if raw.HasCRC {
			if got := codec.Checksum(payload); got != raw.CRC {
				return nil, FlagSectionCRC, ErrSectionCRC.WithDetails("section %d: got %08x, want %08x", raw.ID, got, raw.CRC)
			}
		}
		out = append(out, section{raw: raw, payload: payload})
	}
	return out, 0, nil
}

// dispatch hands payloads to components in file order. Sections without a
// registered component are skipped. When only is non-nil, other sections
// are ignored. A failure part way through leaves earlier components
// holding the new state, so every cached section is invalidated.
func (m *Manager) dispatch(sections []section, payloadVersion uint32, only *uint16) (err error) {
	defer func() {
		if err != nil {
			m.MarkAllDirty()
		}
	}()
	for _, s := range sections {
		id := uint16(s.raw.ID)
		if only != nil && id != *only {
			continue
		}
		c, ok := m.components[id]
		if !ok {
			m.logger.Debug("skipping unknown section", "id", s.raw.ID, "bytes", len(s.payload))
			continue
		}
		r := codec.NewReader(s.payload, payloadVersion)
		if err := c.ReadFrom(r, uint32(len(s.payload))); err != nil {
			return ErrComponentRead.WithDetails("component %d (%s)", id, c.Name()).Wrap(err)
		}
		if err := r.Err(); err != nil {
			return ErrComponentRead.WithDetails("component %d (%s)", id, c.Name()).Wrap(err)
		}
		if r.Remaining() != 0 {
			return ErrComponentRead.WithDetails("component %d (%s) left %d bytes unread", id, c.Name(), r.Remaining())
		}
	}
	return nil
}

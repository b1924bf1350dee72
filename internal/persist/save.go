package persist

import (
	"crypto/sha256"
	"time"

	"github.com/yndnr/roguesave/pkg/codec"
)

// Save writes every registered component to a manual slot.
func (m *Manager) Save(slot int) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	return m.manualSave(SlotName(slot))
}

// Quicksave writes the quicksave file.
func (m *Manager) Quicksave() error {
	return m.manualSave(QuicksaveName)
}

// Autosave writes logical autosave n to ring file n mod RingSize. The
// scheduler calls it from Update; calling it directly also advances the
// logical counter so recovery keeps its newest-first order.
func (m *Manager) Autosave(n uint64) error {
	if err := m.saveTo(AutosaveName(int(n % RingSize))); err != nil {
		return err
	}
	if n+1 > m.autosave.count {
		m.autosave.count = n + 1
	}
	return nil
}

func (m *Manager) manualSave(target string) error {
	if err := m.saveTo(target); err != nil {
		return err
	}
	m.noteManualSave()
	return nil
}

// saveTo runs the full save pipeline for one file.
func (m *Manager) saveTo(target string) (err error) {
	if err := m.enter(); err != nil {
		return err
	}
	defer m.leave()

	start := time.Now()
	res := SaveResult{Target: target}
	defer func() {
		res.Code = CodeOf(err)
		res.Duration = time.Since(start)
		m.lastSave = res
		m.observer.SaveFinished(SaveEvent{
			Target:   target,
			Bytes:    res.Bytes,
			Duration: res.Duration,
			Reused:   res.Reused,
			Written:  res.Written,
			Err:      err,
		})
		if err != nil {
			m.logger.Warn("save failed", "target", target, "code", res.Code, "error", err)
		}
	}()

	comps := m.Components()
	sections := make([]codec.EncodedSection, 0, len(comps))
	for _, c := range comps {
		if sec, ok := m.cached(target, c.ID()); ok {
			sections = append(sections, sec)
			res.Reused++
			continue
		}
		w := codec.NewWriter(codec.CurrentVersion)
		if err := c.WriteTo(w); err != nil {
			return ErrComponentWrite.WithDetails("component %d (%s)", c.ID(), c.Name()).Wrap(err)
		}
		sec, err := codec.EncodeSection(codec.CurrentVersion, uint32(c.ID()), w.Bytes(), m.compress)
		if err != nil {
			return ErrComponentWrite.WithDetails("component %d (%s)", c.ID(), c.Name()).Wrap(err)
		}
		sections = append(sections, sec)
		res.Written++
	}

	data, digest, err := m.encodeFile(sections, componentMask(comps))
	if err != nil {
		return err
	}
	if err := m.store.Write(target, data, m.durable); err != nil {
		return ErrIO.WithDetails("write %s", target).Wrap(err)
	}

	res.Bytes = len(data)
	m.commit(target, sections)
	m.lastSHA = digest
	m.haveSHA = true

	m.logger.Debug("save completed",
		"target", target,
		"bytes", len(data),
		"reused", res.Reused,
		"written", res.Written)

	if slot := slotOf(target); slot >= 0 && m.debugJSON {
		m.writeDebugJSON(slot, data)
	}
	return nil
}

// encodeFile lays out descriptor, sections, digest footer and the optional
// signature trailer.
func (m *Manager) encodeFile(sections []codec.EncodedSection, mask uint32) ([]byte, [sha256.Size]byte, error) {
	var digest [sha256.Size]byte

	bodyLen := 0
	for _, s := range sections {
		bodyLen += s.Len(codec.CurrentVersion)
	}
	total := codec.DescriptorSize + bodyLen + codec.DigestFooterSize
	sigLen := 0
	if m.signer != nil {
		sigLen = m.signer.MaxLen()
		if sigLen < 0 || sigLen > codec.MaxSignatureLen {
			return nil, digest, ErrSign.WithDetails("%s: max length %d out of range", m.signer.Name(), sigLen)
		}
		total += codec.SignatureOverhead + sigLen
	}

	buf := make([]byte, codec.DescriptorSize, total)
	for _, s := range sections {
		buf = s.AppendTo(buf, codec.CurrentVersion)
	}
	codec.PutDescriptor(buf, codec.Descriptor{
		Version:       codec.CurrentVersion,
		Timestamp:     uint32(m.clock().Unix()),
		ComponentMask: mask,
		SectionCount:  uint32(len(sections)),
		TotalSize:     uint64(total),
		Checksum:      codec.Checksum(buf[codec.DescriptorSize:]),
	})

	digest = sha256.Sum256(buf)
	signed := buf
	buf = codec.AppendDigestFooter(buf, digest)

	if m.signer != nil {
		sig, err := m.signer.Sign(signed)
		if err != nil {
			return nil, digest, ErrSign.WithDetails("%s", m.signer.Name()).Wrap(err)
		}
		if len(sig) != sigLen {
			return nil, digest, ErrSign.WithDetails("%s: signature is %d bytes, want %d", m.signer.Name(), len(sig), sigLen)
		}
		if buf, err = codec.AppendSignatureTrailer(buf, sig); err != nil {
			return nil, digest, ErrSign.Wrap(err)
		}
	}
	return buf, digest, nil
}

package persist

import (
	"errors"
	"sort"

	"github.com/yndnr/roguesave/pkg/codec"
)

// LoadWithRecovery loads a slot and, if that fails, falls back to the
// autosave ring from newest to oldest. It reports whether an autosave was
// used. Tamper flags of the failed primary stay visible in
// LastTamperFlags even when recovery succeeds.
func (m *Manager) LoadWithRecovery(slot int) (bool, error) {
	m.recoveryUsed = false
	if err := checkSlot(slot); err != nil {
		return false, err
	}

	primaryErr := m.loadFrom(SlotName(slot))
	if primaryErr == nil {
		return false, nil
	}
	if errors.Is(primaryErr, ErrReentrant) {
		return false, primaryErr
	}
	primaryFlags := m.tamper

	for _, name := range m.recoveryCandidates() {
		if err := m.loadFrom(name); err != nil {
			m.logger.Debug("recovery candidate rejected", "target", name, "error", err)
			continue
		}
		m.tamper |= primaryFlags
		m.recoveryUsed = true
		m.observer.RecoveryFinished(slot, true)
		m.logger.Info("recovered from autosave",
			"slot", slot,
			"autosave", name,
			"primary_error", primaryErr,
			"tamper", m.tamper.String())
		return true, nil
	}

	m.tamper = primaryFlags
	m.observer.RecoveryFinished(slot, false)
	return false, primaryErr
}

// recoveryCandidates orders ring files newest first: by logical counter for
// autosaves written by this manager, then any remaining files by descriptor
// timestamp.
func (m *Manager) recoveryCandidates() []string {
	seen := make(map[int]bool, RingSize)
	var out []string

	n := m.autosave.count
	for i := uint64(0); i < RingSize && i < n; i++ {
		idx := int((n - 1 - i) % RingSize)
		seen[idx] = true
		out = append(out, AutosaveName(idx))
	}

	type stamped struct {
		name string
		ts   uint32
	}
	var rest []stamped
	for idx := 0; idx < RingSize; idx++ {
		if seen[idx] {
			continue
		}
		data, err := m.store.Read(AutosaveName(idx))
		if err != nil {
			continue
		}
		desc, err := codec.DecodeDescriptor(data)
		if err != nil {
			continue
		}
		rest = append(rest, stamped{name: AutosaveName(idx), ts: desc.Timestamp})
	}
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].ts > rest[j].ts })
	for _, s := range rest {
		out = append(out, s.name)
	}
	return out
}

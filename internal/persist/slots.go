package persist

import (
	"sort"

	"github.com/yndnr/roguesave/pkg/codec"
)

// DeleteSlot removes a slot file and its debug JSON export.
func (m *Manager) DeleteSlot(slot int) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	for _, name := range []string{SlotName(slot), DebugJSONName(slot)} {
		if err := m.store.Remove(name); err != nil {
			return ErrIO.WithDetails("remove %s", name).Wrap(err)
		}
	}
	delete(m.targets, SlotName(slot))
	return nil
}

// BackupRotate copies a slot file to a timestamped backup and prunes all
// but the newest keep backups of that slot. It returns the backup name.
func (m *Manager) BackupRotate(slot int, keep int) (string, error) {
	if err := checkSlot(slot); err != nil {
		return "", err
	}
	if keep <= 0 {
		return "", ErrInvalidSlot.WithDetails("keep must be positive, got %d", keep)
	}
	data, err := m.read(SlotName(slot))
	if err != nil {
		return "", err
	}
	desc, err := codec.DecodeDescriptor(data)
	if err != nil {
		return "", ErrTruncated.Wrap(err)
	}

	name := BackupName(slot, desc.Timestamp)
	if err := m.store.Write(name, data, m.durable); err != nil {
		return "", ErrIO.WithDetails("write %s", name).Wrap(err)
	}

	entries, err := m.store.List(backupPrefix(slot))
	if err != nil {
		return name, ErrIO.WithDetails("list backups").Wrap(err)
	}
	var backups []string
	for _, e := range entries {
		if isBackup(e.Name, slot) {
			backups = append(backups, e.Name)
		}
	}
	// Zero-padded timestamps sort lexically.
	sort.Strings(backups)
	for len(backups) > keep {
		if err := m.store.Remove(backups[0]); err != nil {
			return name, ErrIO.WithDetails("remove %s", backups[0]).Wrap(err)
		}
		m.logger.Debug("backup pruned", "slot", slot, "name", backups[0])
		backups = backups[1:]
	}
	return name, nil
}

// ReloadComponent restores a single component from a slot, leaving every
// other component untouched.
func (m *Manager) ReloadComponent(slot int, id uint16) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	c, ok := m.components[id]
	if !ok {
		return ErrUnknownComponent.WithDetails("id %d is not registered", id)
	}
	if err := m.enter(); err != nil {
		return err
	}
	defer m.leave()

	m.tamper = 0
	m.migSteps = 0
	m.migFailed = false
	data, err := m.read(SlotName(slot))
	if err != nil {
		return err
	}
	rf, flags, err := decodeFile(data, m.signer, m.requireSignature)
	m.tamper |= flags
	if err != nil {
		return err
	}
	sections, flags, err := m.upgrade(rf)
	m.tamper |= flags
	if err != nil {
		return err
	}

	found := false
	for _, s := range sections {
		if s.raw.ID == uint32(id) {
			found = true
			break
		}
	}
	if !found {
		return ErrUnknownComponent.WithDetails("%s has no section for %d (%s)", SlotName(slot), id, c.Name())
	}
	if err := m.dispatch(sections, rf.desc.Version, &id); err != nil {
		return err
	}
	m.MarkDirty(id)
	return nil
}

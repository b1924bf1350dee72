package persist

import "github.com/yndnr/roguesave/pkg/codec"

// targetState is the per-file incremental bookkeeping: the sections most
// recently written to the file and the components changed since.
type targetState struct {
	cache map[uint16]codec.EncodedSection
	dirty map[uint16]struct{}
}

func (m *Manager) target(name string) *targetState {
	ts, ok := m.targets[name]
	if !ok {
		ts = &targetState{
			cache: make(map[uint16]codec.EncodedSection),
			dirty: make(map[uint16]struct{}),
		}
		m.targets[name] = ts
	}
	return ts
}

// SetIncremental toggles cached-section reuse for clean components.
func (m *Manager) SetIncremental(on bool) { m.incremental = on }

// Incremental reports whether incremental mode is on.
func (m *Manager) Incremental() bool { return m.incremental }

// MarkDirty records that component id changed since every target's last save.
func (m *Manager) MarkDirty(id uint16) {
	for _, ts := range m.targets {
		ts.dirty[id] = struct{}{}
	}
}

// MarkAllDirty marks every registered component dirty for every target.
func (m *Manager) MarkAllDirty() {
	for id := range m.components {
		m.MarkDirty(id)
	}
}

// IsDirty reports whether id would be re-serialized when saving target.
func (m *Manager) IsDirty(target string, id uint16) bool {
	ts, ok := m.targets[target]
	if !ok {
		return true
	}
	if _, ok := ts.dirty[id]; ok {
		return true
	}
	_, cached := ts.cache[id]
	return !cached
}

// LastSectionsReused returns how many sections the last save copied from cache.
func (m *Manager) LastSectionsReused() int { return m.lastSave.Reused }

// LastSectionsWritten returns how many sections the last save serialized.
func (m *Manager) LastSectionsWritten() int { return m.lastSave.Written }

// cached returns the reusable section for id when incremental mode allows it.
func (m *Manager) cached(target string, id uint16) (codec.EncodedSection, bool) {
	if !m.incremental || m.IsDirty(target, id) {
		return codec.EncodedSection{}, false
	}
	return m.targets[target].cache[id], true
}

// commit replaces target's cache after a successful save and clears its
// dirty set.
func (m *Manager) commit(target string, sections []codec.EncodedSection) {
	ts := m.target(target)
	ts.cache = make(map[uint16]codec.EncodedSection, len(sections))
	for _, s := range sections {
		ts.cache[uint16(s.ID)] = s
	}
	ts.dirty = make(map[uint16]struct{})
}

func (m *Manager) dropCaches() {
	m.targets = make(map[string]*targetState)
}

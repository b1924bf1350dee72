package persist

import "fmt"

// RingSize is the number of physical autosave files.
const RingSize = 4

type autosaveState struct {
	intervalMs int64
	throttleMs int64

	// count is the next logical autosave number.
	count uint64

	lastAutosaveMs int64
	lastAnySaveMs  int64
	haveAnySave    bool

	// lastTickMs is the latest time passed to Update; manual saves use it
	// as their timestamp.
	lastTickMs int64
	haveTick   bool
}

// SetAutosaveInterval sets the autosave period; ms <= 0 disables autosave.
func (m *Manager) SetAutosaveInterval(ms int64) { m.autosave.intervalMs = ms }

// SetAutosaveThrottle sets the minimum gap between any save and the next
// autosave.
func (m *Manager) SetAutosaveThrottle(ms int64) { m.autosave.throttleMs = ms }

// AutosaveInterval returns the configured period in milliseconds.
func (m *Manager) AutosaveInterval() int64 { return m.autosave.intervalMs }

// AutosaveThrottle returns the configured throttle in milliseconds.
func (m *Manager) AutosaveThrottle() int64 { return m.autosave.throttleMs }

// AutosaveCount returns the number of logical autosaves written.
func (m *Manager) AutosaveCount() uint64 { return m.autosave.count }

// Update advances the autosave scheduler. Call it once per game tick with a
// monotonic millisecond clock. It reports whether an autosave was written.
func (m *Manager) Update(nowMs int64, inCombat bool) (bool, error) {
	a := &m.autosave
	a.lastTickMs = nowMs
	a.haveTick = true

	if a.intervalMs <= 0 || inCombat {
		return false, nil
	}
	if nowMs-a.lastAutosaveMs < a.intervalMs {
		return false, nil
	}
	if a.haveAnySave && nowMs-a.lastAnySaveMs < a.throttleMs {
		return false, nil
	}

	n := a.count
	if err := m.saveTo(AutosaveName(int(n % RingSize))); err != nil {
		return false, err
	}
	a.count = n + 1
	a.lastAutosaveMs = nowMs
	a.lastAnySaveMs = nowMs
	a.haveAnySave = true
	m.logger.Debug("autosave written", "logical", n, "index", n%RingSize)
	return true, nil
}

// noteManualSave feeds a successful manual save into the throttle.
func (m *Manager) noteManualSave() {
	a := &m.autosave
	if !a.haveTick {
		return
	}
	a.lastAnySaveMs = a.lastTickMs
	a.haveAnySave = true
}

// StatusString renders a one-line summary of the last save and the
// scheduler settings.
func (m *Manager) StatusString() string {
	r := m.lastSave
	return fmt.Sprintf("rc=%d bytes=%d ms=%.2f autosaves=%d interval=%d throttle=%d",
		r.Code, r.Bytes, float64(r.Duration.Microseconds())/1000.0,
		m.autosave.count, m.autosave.intervalMs, m.autosave.throttleMs)
}

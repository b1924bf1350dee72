package persist

import (
	"fmt"
	"strings"
)

// SlotCount is the number of manual save slots.
const SlotCount = 3

// QuicksaveName is the file the quicksave commands use.
const QuicksaveName = "quicksave.sav"

// SlotName returns the file name for a manual slot.
func SlotName(slot int) string { return fmt.Sprintf("save_slot_%d.sav", slot) }

// AutosaveName returns the file name for a physical ring index.
func AutosaveName(index int) string { return fmt.Sprintf("autosave_%d.sav", index) }

// DebugJSONName returns the JSON export written next to a slot save.
func DebugJSONName(slot int) string { return fmt.Sprintf("save_slot_%d.json", slot) }

// BackupName returns the backup file name for a slot and descriptor timestamp.
func BackupName(slot int, timestamp uint32) string {
	return fmt.Sprintf("%s%010d.bak", backupPrefix(slot), timestamp)
}

func backupPrefix(slot int) string { return fmt.Sprintf("save_slot_%d_", slot) }

func isBackup(name string, slot int) bool {
	return strings.HasPrefix(name, backupPrefix(slot)) && strings.HasSuffix(name, ".bak")
}

func checkSlot(slot int) error {
	if slot < 0 || slot >= SlotCount {
		return ErrInvalidSlot.WithDetails("slot %d outside 0..%d", slot, SlotCount-1)
	}
	return nil
}

// slotOf maps a target file name back to its slot, or -1.
func slotOf(target string) int {
	for i := 0; i < SlotCount; i++ {
		if target == SlotName(i) {
			return i
		}
	}
	return -1
}

// Target kinds reported by TargetKind.
const (
	KindSlot      = "slot"
	KindQuicksave = "quicksave"
	KindAutosave  = "autosave"
	KindOther     = "other"
)

// TargetKind classifies a save file name for low-cardinality labels.
func TargetKind(name string) string {
	switch {
	case name == QuicksaveName:
		return KindQuicksave
	case slotOf(name) >= 0:
		return KindSlot
	case strings.HasPrefix(name, "autosave_") && strings.HasSuffix(name, ".sav"):
		return KindAutosave
	default:
		return KindOther
	}
}

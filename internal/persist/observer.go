package persist

import "time"

// SaveEvent describes one finished save attempt.
type SaveEvent struct {
	Target   string
	Bytes    int
	Duration time.Duration
	Reused   int
	Written  int
	Err      error
}

// LoadEvent describes one finished load attempt.
type LoadEvent struct {
	Target         string
	Bytes          int
	Duration       time.Duration
	SourceVersion  uint32
	MigrationSteps int
	Flags          TamperFlags
	Err            error
}

// Observer receives engine events. Implementations must not call back into
// the Manager.
type Observer interface {
	SaveFinished(ev SaveEvent)
	LoadFinished(ev LoadEvent)
	RecoveryFinished(slot int, recovered bool)
}

type nopObserver struct{}

func (nopObserver) SaveFinished(SaveEvent)     {}
func (nopObserver) LoadFinished(LoadEvent)     {}
func (nopObserver) RecoveryFinished(int, bool) {}

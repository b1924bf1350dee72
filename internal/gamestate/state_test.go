package gamestate

import (
	"errors"
	"testing"

	"github.com/yndnr/roguesave/internal/persist"
	"github.com/yndnr/roguesave/internal/storage"
	"github.com/yndnr/roguesave/pkg/codec"
)

func newManager(t *testing.T) *persist.Manager {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	m, err := persist.NewManager(persist.DefaultConfig(store))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func advance(s *State, ticks int64) {
	for i := int64(1); i <= ticks; i++ {
		s.Step(i)
	}
}

func TestState_SaveLoadRoundTrip(t *testing.T) {
	m := newManager(t)
	live := New(42)
	if err := live.Register(m); err != nil {
		t.Fatalf("Register: %v", err)
	}
	advance(live, 200)
	want := live.Clone()

	if err := m.Save(0); err != nil {
		t.Fatalf("Save: %v", err)
	}
	advance(live, 50)
	if live.Equal(want) {
		t.Fatalf("state did not change after more ticks")
	}
	if err := m.Load(0); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !live.Equal(want) {
		t.Fatalf("loaded state differs:\n got %+v\nwant %+v", live, want)
	}
}

func TestState_PayloadVersions(t *testing.T) {
	s := New(7)
	advance(s, 60)
	for _, version := range []uint32{1, 3, codec.VersionVarint, codec.CurrentVersion} {
		got := New(0)
		src := s.Components()
		dst := got.Components()
		for i := range src {
			w := codec.NewWriter(version)
			if err := src[i].WriteTo(w); err != nil {
				t.Fatalf("v%d %s WriteTo: %v", version, src[i].Name(), err)
			}
			r := codec.NewReader(w.Bytes(), version)
			if err := dst[i].ReadFrom(r, uint32(w.Len())); err != nil {
				t.Fatalf("v%d %s ReadFrom: %v", version, src[i].Name(), err)
			}
			if r.Remaining() != 0 {
				t.Fatalf("v%d %s left %d bytes", version, src[i].Name(), r.Remaining())
			}
		}
		if !got.Equal(s) {
			t.Fatalf("v%d: decoded state differs", version)
		}
	}
}

func TestState_StepIsDeterministic(t *testing.T) {
	a, b := New(1), New(1)
	for tick := int64(1); tick <= 100; tick++ {
		ca, cb := a.Step(tick), b.Step(tick)
		if len(ca) != len(cb) {
			t.Fatalf("tick %d: changed %v vs %v", tick, ca, cb)
		}
	}
	if !a.Equal(b) {
		t.Fatalf("states diverged")
	}
	if changed := New(1).Step(35); len(changed) != 3 {
		t.Fatalf("Step(35) changed %v, want player, inventory and buffs", changed)
	}
}

func TestComponents_CountLimit(t *testing.T) {
	w := codec.NewWriter(codec.CurrentVersion)
	w.PutCount(MaxBuffs + 1)
	c := (&buffsComponent{s: New(0)})
	err := c.ReadFrom(codec.NewReader(w.Bytes(), codec.CurrentVersion), uint32(w.Len()))
	if !errors.Is(err, ErrCountLimit) {
		t.Fatalf("err = %v, want %v", err, ErrCountLimit)
	}
}

func TestComponents_Truncated(t *testing.T) {
	s := New(3)
	w := codec.NewWriter(codec.CurrentVersion)
	pc := &playerComponent{s: s}
	if err := pc.WriteTo(w); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	short := w.Bytes()[:w.Len()-2]
	if err := pc.ReadFrom(codec.NewReader(short, codec.CurrentVersion), uint32(len(short))); !errors.Is(err, codec.ErrTruncated) {
		t.Fatalf("err = %v, want %v", err, codec.ErrTruncated)
	}
}

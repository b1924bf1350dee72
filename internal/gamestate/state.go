package gamestate

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/yndnr/roguesave/internal/persist"
	"github.com/yndnr/roguesave/pkg/codec"
)

// Component ids. They are stable on disk; never renumber.
const (
	IDPlayer    uint16 = 1
	IDWorldMeta uint16 = 2
	IDInventory uint16 = 3
	IDSkills    uint16 = 4
	IDBuffs     uint16 = 5
	IDVendor    uint16 = 6
)

// Limits applied when decoding counts.
const (
	MaxEquipSlots   = 64
	MaxInventory    = 8192
	MaxItemTags     = 32
	MaxSkills       = 4096
	MaxBuffs        = 512
	MaxVendorItems  = 1024
	maxStringLength = 256
)

var ErrCountLimit = errors.New("gamestate: count exceeds limit")

// Player holds character progression.
type Player struct {
	Level          int32
	XP             int32
	XPToNext       int32
	XPTotal        uint64
	Health         int32
	Mana           int32
	ActionPoints   int32
	Strength       int32
	Dexterity      int32
	Vitality       int32
	Intelligence   int32
	TalentPoints   int32
	Permadeath     bool
	EquippedWeapon int32
	Equipment      []int32
}

// WorldMeta holds world generation parameters.
type WorldMeta struct {
	Seed           uint32
	WaterLevel     float64
	CaveThreshold  float64
	Octaves        int32
	Gain           float64
	Lacunarity     float64
	RiverSources   int32
	RiverMaxLength int32
}

// Item is one inventory entry.
type Item struct {
	DefIndex int32
	Qty      uint64
	Tags     []string
}

// Skill is one skill's rank and cooldown state.
type Skill struct {
	Rank          int32
	CooldownEndMs float64
	Charges       int32
}

// Buff is an active timed effect.
type Buff struct {
	Type        int32
	Magnitude   int32
	RemainingMs float64
}

// VendorItem is one item in vendor stock.
type VendorItem struct {
	DefIndex int32
	Price    int32
}

// Vendor holds vendor stock and restock timing.
type Vendor struct {
	Seed              uint32
	TimeAccumMs       float64
	RestockIntervalMs float64
	Items             []VendorItem
}

// State is the complete persistent game state.
type State struct {
	Player    Player
	World     WorldMeta
	Inventory []Item
	Skills    []Skill
	Buffs     []Buff
	Vendor    Vendor
}

// New returns a fresh state for a world seed.
func New(seed uint32) *State {
	return &State{
		Player: Player{
			Level:        1,
			XPToNext:     100,
			Health:       100,
			Mana:         50,
			ActionPoints: 3,
			Strength:     5,
			Dexterity:    5,
			Vitality:     5,
			Intelligence: 5,
			Equipment:    make([]int32, 8),
		},
		World: WorldMeta{
			Seed:           seed,
			WaterLevel:     0.32,
			CaveThreshold:  0.58,
			Octaves:        5,
			Gain:           0.5,
			Lacunarity:     2.0,
			RiverSources:   6,
			RiverMaxLength: 400,
		},
		Skills: make([]Skill, 4),
		Vendor: Vendor{Seed: seed ^ 0x9e3779b9, RestockIntervalMs: 60000},
	}
}

// Equal reports whether two states hold the same values.
func (s *State) Equal(o *State) bool { return reflect.DeepEqual(s, o) }

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	c := *s
	c.Player.Equipment = append([]int32(nil), s.Player.Equipment...)
	c.Inventory = nil
	for _, it := range s.Inventory {
		it.Tags = append([]string(nil), it.Tags...)
		c.Inventory = append(c.Inventory, it)
	}
	c.Skills = append([]Skill(nil), s.Skills...)
	c.Buffs = append([]Buff(nil), s.Buffs...)
	c.Vendor.Items = append([]VendorItem(nil), s.Vendor.Items...)
	return &c
}

// Components returns one persist.Component per state section, bound to s.
func (s *State) Components() []persist.Component {
	return []persist.Component{
		&playerComponent{s: s},
		&worldComponent{s: s},
		&inventoryComponent{s: s},
		&skillsComponent{s: s},
		&buffsComponent{s: s},
		&vendorComponent{s: s},
	}
}

// Register adds every component of s to m.
func (s *State) Register(m *persist.Manager) error {
	for _, c := range s.Components() {
		if err := m.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Step advances the simulation by one tick and returns the ids of the
// components whose state changed.
func (s *State) Step(tick int64) []uint16 {
	changed := []uint16{IDPlayer}
	p := &s.Player
	p.XP += 7
	p.XPTotal += 7
	if p.XP >= p.XPToNext {
		p.XP -= p.XPToNext
		p.Level++
		p.XPToNext += 50
		p.TalentPoints++
	}

	if tick%5 == 0 {
		def := int32(tick % 97)
		found := false
		for i := range s.Inventory {
			if s.Inventory[i].DefIndex == def {
				s.Inventory[i].Qty++
				found = true
				break
			}
		}
		if !found && len(s.Inventory) < MaxInventory {
			s.Inventory = append(s.Inventory, Item{DefIndex: def, Qty: 1, Tags: []string{fmt.Sprintf("loot-%d", tick)}})
		}
		changed = append(changed, IDInventory)
	}

	if tick%7 == 0 {
		if len(s.Buffs) >= 8 {
			s.Buffs = s.Buffs[1:]
		}
		s.Buffs = append(s.Buffs, Buff{Type: int32(tick % 11), Magnitude: int32(tick % 5), RemainingMs: 30000})
		changed = append(changed, IDBuffs)
	}

	if tick%11 == 0 && len(s.Skills) > 0 {
		sk := &s.Skills[int(tick/11)%len(s.Skills)]
		sk.Rank++
		sk.CooldownEndMs = float64(tick) * 100
		changed = append(changed, IDSkills)
	}

	if tick%13 == 0 {
		s.Vendor.TimeAccumMs += 1300
		if s.Vendor.TimeAccumMs >= s.Vendor.RestockIntervalMs {
			s.Vendor.TimeAccumMs = 0
			s.Vendor.Items = append(s.Vendor.Items[:0], VendorItem{DefIndex: int32(tick % 97), Price: int32(10 + tick%90)})
		}
		changed = append(changed, IDVendor)
	}
	return changed
}

func readCount(r *codec.Reader, limit uint32, what string) (int, error) {
	n := r.Count()
	if err := r.Err(); err != nil {
		return 0, err
	}
	if n > limit {
		return 0, fmt.Errorf("%w: %s %d > %d", ErrCountLimit, what, n, limit)
	}
	return int(n), nil
}

package gamestate

import (
	"github.com/yndnr/roguesave/pkg/codec"
)

type playerComponent struct{ s *State }

func (c *playerComponent) ID() uint16   { return IDPlayer }
func (c *playerComponent) Name() string { return "player" }

func (c *playerComponent) WriteTo(w *codec.Writer) error {
	p := &c.s.Player
	w.PutI32(p.Level)
	w.PutI32(p.XP)
	w.PutI32(p.XPToNext)
	w.PutU64(p.XPTotal)
	w.PutI32(p.Health)
	w.PutI32(p.Mana)
	w.PutI32(p.ActionPoints)
	w.PutI32(p.Strength)
	w.PutI32(p.Dexterity)
	w.PutI32(p.Vitality)
	w.PutI32(p.Intelligence)
	w.PutI32(p.TalentPoints)
	w.PutBool(p.Permadeath)
	w.PutI32(p.EquippedWeapon)
	w.PutCount(uint32(len(p.Equipment)))
	for _, inst := range p.Equipment {
		w.PutI32(inst)
	}
	return nil
}

func (c *playerComponent) ReadFrom(r *codec.Reader, size uint32) error {
	var p Player
	p.Level = r.I32()
	p.XP = r.I32()
	p.XPToNext = r.I32()
	p.XPTotal = r.U64()
	p.Health = r.I32()
	p.Mana = r.I32()
	p.ActionPoints = r.I32()
	p.Strength = r.I32()
	p.Dexterity = r.I32()
	p.Vitality = r.I32()
	p.Intelligence = r.I32()
	p.TalentPoints = r.I32()
	p.Permadeath = r.Bool()
	p.EquippedWeapon = r.I32()
	n, err := readCount(r, MaxEquipSlots, "equipment")
	if err != nil {
		return err
	}
	if n > 0 {
		p.Equipment = make([]int32, n)
	}
	for i := range p.Equipment {
		p.Equipment[i] = r.I32()
	}
	if err := r.Err(); err != nil {
		return err
	}
	c.s.Player = p
	return nil
}

type worldComponent struct{ s *State }

func (c *worldComponent) ID() uint16   { return IDWorldMeta }
func (c *worldComponent) Name() string { return "world_meta" }

func (c *worldComponent) WriteTo(w *codec.Writer) error {
	m := &c.s.World
	w.PutU32(m.Seed)
	w.PutF64(m.WaterLevel)
	w.PutF64(m.CaveThreshold)
	w.PutI32(m.Octaves)
	w.PutF64(m.Gain)
	w.PutF64(m.Lacunarity)
	w.PutI32(m.RiverSources)
	w.PutI32(m.RiverMaxLength)
	return nil
}

func (c *worldComponent) ReadFrom(r *codec.Reader, size uint32) error {
	m := WorldMeta{
		Seed:           r.U32(),
		WaterLevel:     r.F64(),
		CaveThreshold:  r.F64(),
		Octaves:        r.I32(),
		Gain:           r.F64(),
		Lacunarity:     r.F64(),
		RiverSources:   r.I32(),
		RiverMaxLength: r.I32(),
	}
	if err := r.Err(); err != nil {
		return err
	}
	c.s.World = m
	return nil
}

type inventoryComponent struct{ s *State }

func (c *inventoryComponent) ID() uint16   { return IDInventory }
func (c *inventoryComponent) Name() string { return "inventory" }

func (c *inventoryComponent) WriteTo(w *codec.Writer) error {
	w.PutCount(uint32(len(c.s.Inventory)))
	for _, it := range c.s.Inventory {
		w.PutCount(uint32(it.DefIndex))
		w.PutUvarint(it.Qty)
		w.PutCount(uint32(len(it.Tags)))
		for _, tag := range it.Tags {
			w.PutString(tag)
		}
	}
	return nil
}

func (c *inventoryComponent) ReadFrom(r *codec.Reader, size uint32) error {
	n, err := readCount(r, MaxInventory, "inventory")
	if err != nil {
		return err
	}
	var items []Item
	for i := 0; i < n; i++ {
		it := Item{DefIndex: int32(r.Count()), Qty: r.Uvarint()}
		tags, err := readCount(r, MaxItemTags, "tags")
		if err != nil {
			return err
		}
		for j := 0; j < tags; j++ {
			tag, err := readString(r)
			if err != nil {
				return err
			}
			it.Tags = append(it.Tags, tag)
		}
		items = append(items, it)
	}
	if err := r.Err(); err != nil {
		return err
	}
	c.s.Inventory = items
	return nil
}

type skillsComponent struct{ s *State }

func (c *skillsComponent) ID() uint16   { return IDSkills }
func (c *skillsComponent) Name() string { return "skills" }

func (c *skillsComponent) WriteTo(w *codec.Writer) error {
	w.PutCount(uint32(len(c.s.Skills)))
	for _, sk := range c.s.Skills {
		w.PutI32(sk.Rank)
		w.PutF64(sk.CooldownEndMs)
		w.PutI32(sk.Charges)
	}
	return nil
}

func (c *skillsComponent) ReadFrom(r *codec.Reader, size uint32) error {
	n, err := readCount(r, MaxSkills, "skills")
	if err != nil {
		return err
	}
	var skills []Skill
	for i := 0; i < n; i++ {
		skills = append(skills, Skill{Rank: r.I32(), CooldownEndMs: r.F64(), Charges: r.I32()})
	}
	if err := r.Err(); err != nil {
		return err
	}
	c.s.Skills = skills
	return nil
}

type buffsComponent struct{ s *State }

func (c *buffsComponent) ID() uint16   { return IDBuffs }
func (c *buffsComponent) Name() string { return "buffs" }

func (c *buffsComponent) WriteTo(w *codec.Writer) error {
	w.PutCount(uint32(len(c.s.Buffs)))
	for _, b := range c.s.Buffs {
		w.PutI32(b.Type)
		w.PutI32(b.Magnitude)
		w.PutF64(b.RemainingMs)
	}
	return nil
}

func (c *buffsComponent) ReadFrom(r *codec.Reader, size uint32) error {
	n, err := readCount(r, MaxBuffs, "buffs")
	if err != nil {
		return err
	}
	var buffs []Buff
	for i := 0; i < n; i++ {
		buffs = append(buffs, Buff{Type: r.I32(), Magnitude: r.I32(), RemainingMs: r.F64()})
	}
	if err := r.Err(); err != nil {
		return err
	}
	c.s.Buffs = buffs
	return nil
}

type vendorComponent struct{ s *State }

func (c *vendorComponent) ID() uint16   { return IDVendor }
func (c *vendorComponent) Name() string { return "vendor" }

func (c *vendorComponent) WriteTo(w *codec.Writer) error {
	v := &c.s.Vendor
	w.PutU32(v.Seed)
	w.PutF64(v.TimeAccumMs)
	w.PutF64(v.RestockIntervalMs)
	w.PutCount(uint32(len(v.Items)))
	for _, it := range v.Items {
		w.PutI32(it.DefIndex)
		w.PutI32(it.Price)
	}
	return nil
}

func (c *vendorComponent) ReadFrom(r *codec.Reader, size uint32) error {
	v := Vendor{Seed: r.U32(), TimeAccumMs: r.F64(), RestockIntervalMs: r.F64()}
	n, err := readCount(r, MaxVendorItems, "vendor items")
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		v.Items = append(v.Items, VendorItem{DefIndex: r.I32(), Price: r.I32()})
	}
	if err := r.Err(); err != nil {
		return err
	}
	c.s.Vendor = v
	return nil
}

func readString(r *codec.Reader) (string, error) {
	n, err := readCount(r, maxStringLength, "string")
	if err != nil {
		return "", err
	}
	b := r.Raw(n)
	if err := r.Err(); err != nil {
		return "", err
	}
	return string(b), nil
}

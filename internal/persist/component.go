package persist

import (
	"sort"

	"github.com/yndnr/roguesave/pkg/codec"
)

// MaxComponents is the registry capacity.
const MaxComponents = 16

// Component owns one section of the save file.
//
// WriteTo must be a deterministic function of the component's in-memory
// state: incremental saves reuse previously written bytes for clean
// components. ReadFrom receives the payload size and must consume exactly
// that many bytes.
type Component interface {
	ID() uint16
	Name() string
	WriteTo(w *codec.Writer) error
	ReadFrom(r *codec.Reader, size uint32) error
}

// ComponentFuncs adapts a pair of functions to the Component interface.
type ComponentFuncs struct {
	CompID   uint16
	CompName string
	Write    func(w *codec.Writer) error
	Read     func(r *codec.Reader, size uint32) error
}

func (c *ComponentFuncs) ID() uint16   { return c.CompID }
func (c *ComponentFuncs) Name() string { return c.CompName }

func (c *ComponentFuncs) WriteTo(w *codec.Writer) error {
	if c.Write == nil {
		return nil
	}
	return c.Write(w)
}

func (c *ComponentFuncs) ReadFrom(r *codec.Reader, size uint32) error {
	if c.Read == nil {
		r.Skip(int(size))
		return nil
	}
	return c.Read(r, size)
}

// Register adds c to the registry. Registration order does not affect the
// file layout; sections are always written in ascending id order.
func (m *Manager) Register(c Component) error {
	if _, ok := m.components[c.ID()]; ok {
		return ErrDuplicateComponent.WithDetails("id %d (%s)", c.ID(), c.Name())
	}
	if len(m.components) >= MaxComponents {
		return ErrRegistryFull.WithDetails("capacity %d", MaxComponents)
	}
	m.components[c.ID()] = c
	m.ordered = nil
	m.logger.Debug("component registered", "id", c.ID(), "name", c.Name())
	return nil
}

// Components returns the registered components in ascending id order.
func (m *Manager) Components() []Component {
	if m.ordered == nil {
		m.ordered = make([]Component, 0, len(m.components))
		for _, c := range m.components {
			m.ordered = append(m.ordered, c)
		}
		sort.Slice(m.ordered, func(i, j int) bool { return m.ordered[i].ID() < m.ordered[j].ID() })
	}
	out := make([]Component, len(m.ordered))
	copy(out, m.ordered)
	return out
}

// Component returns the component registered under id.
func (m *Manager) Component(id uint16) (Component, bool) {
	c, ok := m.components[id]
	return c, ok
}

func componentMask(comps []Component) uint32 {
	var mask uint32
	for _, c := range comps {
		if c.ID() < 32 {
			mask |= 1 << c.ID()
		}
	}
	return mask
}

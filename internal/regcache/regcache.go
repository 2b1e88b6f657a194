// Package regcache caches target registers between debug entry and exit.
//
// Values are read lazily from the transport on first Get and written back by
// Restore when marked dirty. The cache is invalidated whenever the core is
// released, since a free-running core makes every cached value stale.
package regcache

import (
	"fmt"

	"github.com/dshills/arcdbg/internal/arc"
)

// Kind selects the transport path of a register.
type Kind int

const (
	// KindCore is a general purpose core register.
	KindCore Kind = iota
	// KindAux is an auxiliary register.
	KindAux
)

// ID indexes a register in a Cache.
type ID int

// Register IDs of the default ARC layout. Core registers r0..r31 use IDs 0..31.
const (
	PC ID = arc.NumCoreRegisters + iota
	Status32
	Debug
)

// Def describes a cached register.
type Def struct {
	Name string
	Kind Kind
	Addr uint32
}

// Register is a cache entry.
type Register struct {
	Def
	Value uint32
	Dirty bool
	Valid bool
}

// DefaultDefs returns the register layout of an ARC700 core as used by the
// run-control code: r0..r31 followed by PC, STATUS32 and DEBUG.
func DefaultDefs() []Def {
	defs := make([]Def, 0, arc.NumCoreRegisters+3)
	for i := uint32(0); i < arc.NumCoreRegisters; i++ {
		defs = append(defs, Def{Name: coreName(i), Kind: KindCore, Addr: i})
	}
	return append(defs,
		Def{Name: "pc", Kind: KindAux, Addr: arc.AuxPC},
		Def{Name: "status32", Kind: KindAux, Addr: arc.AuxStatus32},
		Def{Name: "debug", Kind: KindAux, Addr: arc.AuxDebug},
	)
}

func coreName(n uint32) string {
	switch n {
	case arc.CoreGP:
		return "gp"
	case arc.CoreFP:
		return "fp"
	case arc.CoreSP:
		return "sp"
	case arc.CoreILink1:
		return "ilink1"
	case arc.CoreILink2:
		return "ilink2"
	case arc.CoreBlink:
		return "blink"
	}
	return fmt.Sprintf("r%d", n)
}

// Cache holds register values for one core.
type Cache struct {
	regs   arc.Registers
	list   []Register
	byName map[string]ID
}

// New creates an empty cache over the given transport.
func New(regs arc.Registers, defs []Def) *Cache {
	c := &Cache{
		regs:   regs,
		list:   make([]Register, len(defs)),
		byName: make(map[string]ID, len(defs)),
	}
	for i, d := range defs {
		c.list[i] = Register{Def: d}
		c.byName[d.Name] = ID(i)
	}
	return c
}

// Len returns the number of registers.
func (c *Cache) Len() int { return len(c.list) }

// Lookup finds a register by name.
func (c *Cache) Lookup(name string) (ID, bool) {
	id, ok := c.byName[name]
	return id, ok
}

// Entry returns a copy of the cache entry for id.
func (c *Cache) Entry(id ID) Register {
	return c.list[id]
}

// Get returns the value of id, reading it from the target if the cached
// value is not valid.
func (c *Cache) Get(id ID) (uint32, error) {
	r := &c.list[id]
	if r.Valid {
		return r.Value, nil
	}
	v, err := c.read(r.Def)
	if err != nil {
		return 0, err
	}
	r.Value = v
	r.Valid = true
	return v, nil
}

// Set stores value for id and marks it dirty and valid.
func (c *Cache) Set(id ID, value uint32) {
	r := &c.list[id]
	r.Value = value
	r.Dirty = true
	r.Valid = true
}

// InvalidateAll marks every entry stale.
func (c *Cache) InvalidateAll() {
	for i := range c.list {
		c.list[i].Valid = false
		c.list[i].Dirty = false
	}
}

// Save reads every register that is not dirty from the target.
func (c *Cache) Save() error {
	for i := range c.list {
		r := &c.list[i]
		if r.Dirty {
			continue
		}
		v, err := c.read(r.Def)
		if err != nil {
			return err
		}
		r.Value = v
		r.Valid = true
	}
	return nil
}

// Restore writes every dirty register back to the target.
func (c *Cache) Restore() error {
	for i := range c.list {
		r := &c.list[i]
		if !r.Dirty {
			continue
		}
		if err := c.write(r.Def, r.Value); err != nil {
			return err
		}
		r.Dirty = false
	}
	return nil
}

func (c *Cache) read(d Def) (uint32, error) {
	if d.Kind == KindCore {
		return c.regs.ReadCoreRegister(d.Addr)
	}
	return c.regs.ReadAuxRegister(d.Addr)
}

func (c *Cache) write(d Def, v uint32) error {
	if d.Kind == KindCore {
		return c.regs.WriteCoreRegister(d.Addr, v)
	}
	return c.regs.WriteAuxRegister(d.Addr, v)
}

package actionpoint

import (
	"fmt"

	"github.com/dshills/arcdbg/internal/arc"
	"github.com/dshills/arcdbg/internal/logging"
)

// AuxRegister is the owner tag of an aux register action point.
type AuxRegister uint32

// AuxPoints manages address-keyed aux register watches.
type AuxPoints struct {
	alloc *Allocator
	log   *logging.Logger
}

// NewAuxPoints creates an aux register action point manager sharing alloc.
func NewAuxPoints(alloc *Allocator, log *logging.Logger) *AuxPoints {
	if log == nil {
		log = logging.Nop
	}
	return &AuxPoints{alloc: alloc, log: log.WithComponent("auxap")}
}

// Add watches aux register addr for tt accesses and returns the slot.
func (p *AuxPoints) Add(addr uint32, tt TransactionKind) (int, error) {
	slot, err := p.alloc.Allocate(addr, AuxRegisterAddress, tt, AuxRegister(addr))
	if err != nil {
		return 0, err
	}
	p.log.Debug("aux register 0x%x watched (%s) by ap %d", addr, tt, slot)
	return slot, nil
}

// Remove releases the action point watching addr.
func (p *AuxPoints) Remove(addr uint32) error {
	slot, ok := p.find(addr)
	if !ok {
		p.log.Error("Register ActionPoint not found")
		return fmt.Errorf("%w: aux register 0x%x", arc.ErrNotFound, addr)
	}
	return p.alloc.Release(slot)
}

// Registered returns the watched aux register addresses in slot order.
func (p *AuxPoints) Registered() []uint32 {
	var out []uint32
	for _, s := range p.alloc.Slots() {
		if reg, ok := s.Owner.(AuxRegister); ok && s.Used {
			out = append(out, uint32(reg))
		}
	}
	return out
}

func (p *AuxPoints) find(addr uint32) (int, bool) {
	return p.alloc.Find(func(s Slot) bool {
		reg, ok := s.Owner.(AuxRegister)
		return ok && s.Target == AuxRegisterAddress && uint32(reg) == addr
	})
}
